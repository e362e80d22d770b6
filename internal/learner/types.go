// Package learner holds per-user learning state: completion and viewing
// history, recent activity, path assignments and quiz scores.
package learner

import "time"

// Roles a user can hold.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Activity statuses for recent-activity entries.
const (
	StatusInProgress = "In Progress"
	StatusCompleted  = "Completed"
)

// CompletedTopic records a topic completion. The completion list is
// append-only with at most one entry per topic.
type CompletedTopic struct {
	TopicID     string    `json:"topic_id"`
	CompletedAt time.Time `json:"completed_at"`
}

// ViewedTopic records a topic view. Viewing drives course-level progress
// and engagement analytics; completion drives unlocking.
type ViewedTopic struct {
	TopicID          string    `json:"topic_id"`
	ViewedAt         time.Time `json:"viewed_at"`
	ShortDescription string    `json:"short_description,omitempty"`
}

// ActivityEntry is one row of the bounded recent-activity list.
type ActivityEntry struct {
	TopicID        string    `json:"topic_id"`
	LearningPathID string    `json:"learning_path_id,omitempty"`
	LastAccessed   time.Time `json:"last_accessed"`
	Status         string    `json:"status"`
}

// QuizScore keeps the best score a user reached on a course quiz. Scores
// only ever increase.
type QuizScore struct {
	CourseID string `json:"course_id"`
	Score    int    `json:"score"`
}

// User is the learner record. Completion, viewing and activity state is
// mutated only through the store's append/upsert operations.
type User struct {
	ID              string           `json:"id"`
	Username        string           `json:"username"`
	Email           string           `json:"email"`
	PasswordHash    string           `json:"-"`
	Role            string           `json:"role"`
	About           string           `json:"about"`
	Interests       []string         `json:"interests"`
	CompletedTopics []CompletedTopic `json:"completed_topics"`
	ViewedTopics    []ViewedTopic    `json:"viewed_topics"`
	RecentActivity  []ActivityEntry  `json:"recent_activity"`
	LearningPaths   []string         `json:"learning_paths"`
	QuizScores      []QuizScore      `json:"quiz_scores"`
	LastLogin       *time.Time       `json:"last_login,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// CompletedSet returns the user's completed topic ids as a set.
func (u *User) CompletedSet() map[string]bool {
	set := make(map[string]bool, len(u.CompletedTopics))
	for _, ct := range u.CompletedTopics {
		set[ct.TopicID] = true
	}
	return set
}

// ViewedSet returns the user's viewed topic ids as a set.
func (u *User) ViewedSet() map[string]bool {
	set := make(map[string]bool, len(u.ViewedTopics))
	for _, vt := range u.ViewedTopics {
		set[vt.TopicID] = true
	}
	return set
}

// LastViewedAt returns the timestamp of the most recent view, or zero if
// the user has never viewed a topic.
func (u *User) LastViewedAt() time.Time {
	var last time.Time
	for _, vt := range u.ViewedTopics {
		if vt.ViewedAt.After(last) {
			last = vt.ViewedAt
		}
	}
	return last
}

// ProfileUpdate carries optional profile changes; nil fields are left
// unchanged.
type ProfileUpdate struct {
	Username  *string
	Email     *string
	About     *string
	Interests *[]string
}
