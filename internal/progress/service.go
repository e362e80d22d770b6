package progress

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/apperr"
	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/content"
	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/learner"
)

// Service answers unlock and progress queries and records learner
// activity. All reads recompute from current state; nothing is cached.
type Service struct {
	content content.Store
	users   learner.Store
	now     func() time.Time
}

// NewService creates a progress service over the given stores.
func NewService(contentStore content.Store, userStore learner.Store) *Service {
	return &Service{
		content: contentStore,
		users:   userStore,
		now:     time.Now,
	}
}

// TopicUnlocked reports whether a topic inside a learning path is
// accessible to the user. A missing path or topic is an error, not a
// locked result.
func (s *Service) TopicUnlocked(pathID, topicID, userID string) (bool, error) {
	path, err := s.content.GetPath(pathID)
	if err != nil {
		return false, err
	}
	topic, err := s.content.GetTopic(topicID)
	if err != nil {
		return false, err
	}
	user, err := s.users.Get(userID)
	if err != nil {
		return false, err
	}
	return UnlockedInPath(*path, *topic, user.CompletedSet()), nil
}

// SubjectUnlocked reports whether a subject inside a course is
// accessible to the user.
func (s *Service) SubjectUnlocked(courseID, subjectID, userID string) (bool, error) {
	course, err := s.content.GetCourse(courseID)
	if err != nil {
		return false, err
	}
	topic, err := s.content.GetTopic(subjectID)
	if err != nil {
		return false, err
	}
	user, err := s.users.Get(userID)
	if err != nil {
		return false, err
	}
	return UnlockedInCourse(*course, *topic, user.CompletedSet()), nil
}

// CourseProgress returns per-course viewing progress for the user across
// all courses.
func (s *Service) CourseProgress(userID string) ([]CourseProgress, error) {
	user, err := s.users.Get(userID)
	if err != nil {
		return nil, err
	}
	courses, err := s.content.ListCourses()
	if err != nil {
		return nil, err
	}
	return CourseProgressFor(courses, user), nil
}

// PathProgress returns completion progress for each path assigned to the
// user. Users with no assigned paths get an empty slice.
func (s *Service) PathProgress(userID string) ([]PathProgress, error) {
	user, err := s.users.Get(userID)
	if err != nil {
		return nil, err
	}
	if len(user.LearningPaths) == 0 {
		return []PathProgress{}, nil
	}
	paths, err := s.content.PathsByIDs(user.LearningPaths)
	if err != nil {
		return nil, err
	}
	return PathProgressFor(paths, user), nil
}

// MarkViewed records that the user viewed a topic. The append is
// idempotent: re-viewing an already-viewed topic changes nothing.
func (s *Service) MarkViewed(userID, topicID string) (bool, error) {
	topic, err := s.content.GetTopic(topicID)
	if err != nil {
		return false, err
	}
	return s.users.AppendViewed(userID, topic.ID, s.now(), topic.Description)
}

// OpenTopic records that the user opened a topic: the topic counts as
// completed for path progress and the recent-activity list is refreshed
// with an in-progress entry.
func (s *Service) OpenTopic(userID, topicID string) error {
	return s.touchActivity(userID, topicID, learner.StatusInProgress)
}

// CompleteTopic marks a topic completed and refreshes recent activity.
func (s *Service) CompleteTopic(userID, topicID string) error {
	return s.touchActivity(userID, topicID, learner.StatusCompleted)
}

func (s *Service) touchActivity(userID, topicID, status string) error {
	topic, err := s.content.GetTopic(topicID)
	if err != nil {
		return err
	}
	if _, err := s.users.AppendCompleted(userID, topic.ID, s.now()); err != nil {
		return err
	}

	// The owning path is recorded for display only; topics outside any
	// path still get an activity entry.
	pathID := ""
	if path, err := s.content.PathContainingTopic(topic.ID); err == nil {
		pathID = path.ID
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return err
	}

	return s.users.UpsertRecentActivity(userID, learner.ActivityEntry{
		TopicID:        topic.ID,
		LearningPathID: pathID,
		LastAccessed:   s.now(),
		Status:         status,
	})
}

// TopicSummary is a topic id/title pair for progress listings.
type TopicSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// CompletedTopics lists the user's completed topics with titles.
func (s *Service) CompletedTopics(userID string) ([]TopicSummary, error) {
	user, err := s.users.Get(userID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(user.CompletedTopics))
	for _, ct := range user.CompletedTopics {
		ids = append(ids, ct.TopicID)
	}
	return s.summaries(ids)
}

// ViewedTopics lists the user's viewed topics with titles.
func (s *Service) ViewedTopics(userID string) ([]TopicSummary, error) {
	user, err := s.users.Get(userID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(user.ViewedTopics))
	for _, vt := range user.ViewedTopics {
		ids = append(ids, vt.TopicID)
	}
	return s.summaries(ids)
}

func (s *Service) summaries(ids []string) ([]TopicSummary, error) {
	topics, err := s.content.TopicsByIDs(ids)
	if err != nil {
		return nil, err
	}
	out := make([]TopicSummary, 0, len(topics))
	for _, t := range topics {
		out = append(out, TopicSummary{ID: t.ID, Title: t.Title})
	}
	return out, nil
}

// ActivityView is a recent-activity row with titles populated.
type ActivityView struct {
	TopicID      string    `json:"id"`
	TopicTitle   string    `json:"name"`
	PathTitle    string    `json:"path,omitempty"`
	LastAccessed time.Time `json:"lastAccessed"`
	Status       string    `json:"status"`
}

// RecentActivity returns the user's bounded activity list, most recent
// first, with topic and path titles resolved.
func (s *Service) RecentActivity(userID string) ([]ActivityView, error) {
	user, err := s.users.Get(userID)
	if err != nil {
		return nil, err
	}

	out := make([]ActivityView, 0, len(user.RecentActivity))
	for _, e := range user.RecentActivity {
		view := ActivityView{
			TopicID:      e.TopicID,
			LastAccessed: e.LastAccessed,
			Status:       e.Status,
		}
		if topic, err := s.content.GetTopic(e.TopicID); err == nil {
			view.TopicTitle = topic.Title
		}
		if e.LearningPathID != "" {
			if path, err := s.content.GetPath(e.LearningPathID); err == nil {
				view.PathTitle = path.Title
			}
		}
		out = append(out, view)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].LastAccessed.After(out[j].LastAccessed) })
	return out, nil
}

// RecentlyViewedView is a recently-viewed topic row.
type RecentlyViewedView struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	ViewedAt time.Time `json:"viewedAt"`
}

// RecentlyViewed returns the user's five most recently viewed topics.
func (s *Service) RecentlyViewed(userID string) ([]RecentlyViewedView, error) {
	user, err := s.users.Get(userID)
	if err != nil {
		return nil, err
	}

	views := append([]learner.ViewedTopic(nil), user.ViewedTopics...)
	sort.SliceStable(views, func(i, j int) bool { return views[i].ViewedAt.After(views[j].ViewedAt) })
	if len(views) > 5 {
		views = views[:5]
	}

	out := make([]RecentlyViewedView, 0, len(views))
	for _, vt := range views {
		row := RecentlyViewedView{ID: vt.TopicID, ViewedAt: vt.ViewedAt}
		if topic, err := s.content.GetTopic(vt.TopicID); err == nil {
			row.Title = topic.Title
		}
		out = append(out, row)
	}
	return out, nil
}

// SubmitQuizScore records a course quiz score, keeping only the best.
func (s *Service) SubmitQuizScore(userID, courseID string, score int) (int, bool, error) {
	if courseID == "" {
		return 0, false, fmt.Errorf("courseId is required: %w", apperr.ErrValidation)
	}
	if _, err := s.content.GetCourse(courseID); err != nil {
		return 0, false, err
	}
	return s.users.UpsertQuizScore(userID, courseID, score)
}

// SetNow overrides the clock; used by tests.
func (s *Service) SetNow(now func() time.Time) { s.now = now }
