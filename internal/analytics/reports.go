package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/content"
	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/learner"
)

const (
	signupWeeks    = 8
	popularTopN    = 10
	engagementSpan = 8

	retentionDay1  = 1
	retentionDay7  = 7
	retentionDay30 = 30
)

// SignupsReport is a weekly histogram of account creations.
type SignupsReport struct {
	Labels []string `json:"labels"`
	Counts []int    `json:"counts"`
}

// TopicPopularity is one row of the popular-topics report.
type TopicPopularity struct {
	TopicID string `json:"topicId"`
	Title   string `json:"title"`
	Views   int    `json:"views"`
}

// CourseCompletionRow reports how many learners finished viewing every
// topic of a course.
type CourseCompletionRow struct {
	CourseID       string  `json:"courseId"`
	Title          string  `json:"title"`
	TotalTopics    int     `json:"totalTopics"`
	CompletedUsers int     `json:"completedUsers"`
	CompletionRate float64 `json:"completionRate"`
}

// RetentionReport holds non-exclusive retention percentages: a learner
// retained 30 days also counts toward day 7 and day 1.
type RetentionReport struct {
	TotalUsers int     `json:"totalUsers"`
	Day1       float64 `json:"day1"`
	Day7       float64 `json:"day7"`
	Day30      float64 `json:"day30"`
}

// EngagementReport carries three independent histograms over every
// learner's viewed-topic timestamps.
type EngagementReport struct {
	DailyLabels   []string `json:"dailyLabels"`
	Daily         []int    `json:"daily"`
	WeeklyLabels  []string `json:"weeklyLabels"`
	Weekly        []int    `json:"weekly"`
	MonthlyLabels []string `json:"monthlyLabels"`
	Monthly       []int    `json:"monthly"`
}

// Service computes reports from the learner and content stores.
type Service struct {
	users   learner.Store
	content content.Store
	cache   ReportCache
	now     func() time.Time
}

// ReportCache memoizes computed reports. Implementations may fail; the
// service degrades to recomputation.
type ReportCache interface {
	Get(key string, dest any) (bool, error)
	Set(key string, value any) error
}

// NewService creates an analytics service. cache may be nil.
func NewService(users learner.Store, content content.Store, cache ReportCache) *Service {
	return &Service{users: users, content: content, cache: cache, now: time.Now}
}

// Signups returns the last eight weeks of account creations.
func (s *Service) Signups() (*SignupsReport, error) {
	var report SignupsReport
	if s.cached("signups", &report) {
		return &report, nil
	}

	users, err := s.users.List()
	if err != nil {
		return nil, err
	}
	events := make([]time.Time, 0, len(users))
	for _, u := range users {
		events = append(events, u.CreatedAt)
	}
	report.Labels, report.Counts = Histogram(events, s.now(), signupWeeks, UnitWeek)
	s.remember("signups", &report)
	return &report, nil
}

// PopularTopics tallies views per topic across all learners and returns
// the ten most viewed, descending.
func (s *Service) PopularTopics() ([]TopicPopularity, error) {
	var report []TopicPopularity
	if s.cached("popular-topics", &report) {
		return report, nil
	}

	users, err := s.users.List()
	if err != nil {
		return nil, err
	}
	views := make(map[string]int)
	for _, u := range users {
		for _, vt := range u.ViewedTopics {
			views[vt.TopicID]++
		}
	}

	ids := make([]string, 0, len(views))
	for id := range views {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if views[ids[i]] != views[ids[j]] {
			return views[ids[i]] > views[ids[j]]
		}
		return ids[i] < ids[j]
	})
	if len(ids) > popularTopN {
		ids = ids[:popularTopN]
	}

	topics, err := s.content.TopicsByIDs(ids)
	if err != nil {
		return nil, err
	}
	titles := make(map[string]string, len(topics))
	for _, t := range topics {
		titles[t.ID] = t.Title
	}

	report = make([]TopicPopularity, 0, len(ids))
	for _, id := range ids {
		report = append(report, TopicPopularity{
			TopicID: id,
			Title:   titles[id],
			Views:   views[id],
		})
	}
	s.remember("popular-topics", &report)
	return report, nil
}

// CourseCompletion reports, per course, how many learners have viewed
// every topic in it.
func (s *Service) CourseCompletion() ([]CourseCompletionRow, error) {
	var report []CourseCompletionRow
	if s.cached("course-completion", &report) {
		return report, nil
	}

	courses, err := s.content.ListCourses()
	if err != nil {
		return nil, err
	}
	users, err := s.users.List()
	if err != nil {
		return nil, err
	}

	viewedSets := make([]map[string]bool, len(users))
	for i := range users {
		viewedSets[i] = users[i].ViewedSet()
	}

	report = make([]CourseCompletionRow, 0, len(courses))
	for _, c := range courses {
		row := CourseCompletionRow{
			CourseID:    c.ID,
			Title:       c.Title,
			TotalTopics: len(c.Topics),
		}
		if row.TotalTopics > 0 {
			for _, set := range viewedSets {
				if containsAll(set, c.Topics) {
					row.CompletedUsers++
				}
			}
			total := len(users)
			if total < 1 {
				total = 1
			}
			row.CompletionRate = math.Round(float64(row.CompletedUsers) / float64(total) * 100)
		}
		report = append(report, row)
	}
	s.remember("course-completion", &report)
	return report, nil
}

// Retention reports the share of learners active at least 1, 7 and 30
// days after signup.
func (s *Service) Retention() (*RetentionReport, error) {
	var report RetentionReport
	if s.cached("retention", &report) {
		return &report, nil
	}

	users, err := s.users.List()
	if err != nil {
		return nil, err
	}

	var day1, day7, day30 int
	for i := range users {
		gap := lastActivity(&users[i]).Sub(users[i].CreatedAt).Hours() / 24
		if gap >= retentionDay1 {
			day1++
		}
		if gap >= retentionDay7 {
			day7++
		}
		if gap >= retentionDay30 {
			day30++
		}
	}

	total := len(users)
	report.TotalUsers = total
	if total < 1 {
		total = 1
	}
	report.Day1 = math.Round(float64(day1) / float64(total) * 100)
	report.Day7 = math.Round(float64(day7) / float64(total) * 100)
	report.Day30 = math.Round(float64(day30) / float64(total) * 100)
	s.remember("retention", &report)
	return &report, nil
}

// Engagement buckets every learner's viewed-topic timestamps into
// daily, weekly and monthly histograms.
func (s *Service) Engagement() (*EngagementReport, error) {
	var report EngagementReport
	if s.cached("engagement", &report) {
		return &report, nil
	}

	users, err := s.users.List()
	if err != nil {
		return nil, err
	}
	var events []time.Time
	for _, u := range users {
		for _, vt := range u.ViewedTopics {
			events = append(events, vt.ViewedAt)
		}
	}

	now := s.now()
	report.DailyLabels, report.Daily = Histogram(events, now, engagementSpan, UnitDay)
	report.WeeklyLabels, report.Weekly = Histogram(events, now, engagementSpan, UnitWeek)
	report.MonthlyLabels, report.Monthly = Histogram(events, now, engagementSpan, UnitMonth)
	s.remember("engagement", &report)
	return &report, nil
}

// SetNow overrides the clock; used by tests.
func (s *Service) SetNow(now func() time.Time) { s.now = now }

// lastActivity approximates when the learner was last seen: the record's
// last update, else last login, else signup.
func lastActivity(u *learner.User) time.Time {
	if !u.UpdatedAt.IsZero() {
		return u.UpdatedAt
	}
	if u.LastLogin != nil {
		return *u.LastLogin
	}
	return u.CreatedAt
}

func containsAll(set map[string]bool, ids []string) bool {
	for _, id := range ids {
		if !set[id] {
			return false
		}
	}
	return true
}

func (s *Service) cached(key string, dest any) bool {
	if s.cache == nil {
		return false
	}
	ok, err := s.cache.Get(key, dest)
	if err != nil {
		return false
	}
	return ok
}

func (s *Service) remember(key string, value any) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Set(key, value)
}
