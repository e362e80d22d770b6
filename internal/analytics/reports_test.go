package analytics_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/analytics"
	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/content"
	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/learner"
)

// fakeUsers serves a fixed user list with full control over timestamps,
// which the real store assigns itself.
type fakeUsers struct {
	learner.Store
	users []learner.User
}

func (f *fakeUsers) List() ([]learner.User, error) { return f.users, nil }

// mapCache is an in-process ReportCache backed by marshaled JSON.
type mapCache struct {
	entries map[string][]byte
	hits    int
}

func newMapCache() *mapCache { return &mapCache{entries: make(map[string][]byte)} }

func (c *mapCache) Get(key string, dest any) (bool, error) {
	raw, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	c.hits++
	return true, json.Unmarshal(raw, dest)
}

func (c *mapCache) Set(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	return nil
}

func view(topicID string, at time.Time) learner.ViewedTopic {
	return learner.ViewedTopic{TopicID: topicID, ViewedAt: at}
}

func TestSignups_WeeklyBuckets(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	users := &fakeUsers{users: []learner.User{
		{ID: "u1", CreatedAt: now},                         // current week
		{ID: "u2", CreatedAt: now.AddDate(0, 0, -7)},       // previous week
		{ID: "u3", CreatedAt: now.AddDate(0, 0, -7)},       // previous week
		{ID: "u4", CreatedAt: now.AddDate(0, 0, -7*8 - 1)}, // before the window
	}}

	svc := analytics.NewService(users, content.NewMemoryStore(), nil)
	svc.SetNow(func() time.Time { return now })

	report, err := svc.Signups()
	if err != nil {
		t.Fatalf("Signups() error = %v", err)
	}
	if len(report.Labels) != 8 || len(report.Counts) != 8 {
		t.Fatalf("report size = %d labels / %d counts, want 8", len(report.Labels), len(report.Counts))
	}
	if report.Counts[7] != 1 {
		t.Errorf("current week count = %d, want 1", report.Counts[7])
	}
	if report.Counts[6] != 2 {
		t.Errorf("previous week count = %d, want 2", report.Counts[6])
	}
	total := 0
	for _, c := range report.Counts {
		total += c
	}
	if total != 3 {
		t.Errorf("total signups counted = %d, want 3", total)
	}
}

func TestPopularTopics_TopTenDescending(t *testing.T) {
	cs := content.NewMemoryStore()
	if _, err := cs.CreateTopic(content.Topic{ID: "go", Title: "Go Basics"}); err != nil {
		t.Fatal(err)
	}
	if _, err := cs.CreateTopic(content.Topic{ID: "sql", Title: "SQL Basics"}); err != nil {
		t.Fatal(err)
	}

	at := time.Now()
	users := &fakeUsers{users: []learner.User{
		{ID: "u1", ViewedTopics: []learner.ViewedTopic{view("go", at), view("sql", at)}},
		{ID: "u2", ViewedTopics: []learner.ViewedTopic{view("go", at)}},
		{ID: "u3", ViewedTopics: []learner.ViewedTopic{view("go", at)}},
	}}

	svc := analytics.NewService(users, cs, nil)
	report, err := svc.PopularTopics()
	if err != nil {
		t.Fatalf("PopularTopics() error = %v", err)
	}
	if len(report) != 2 {
		t.Fatalf("rows = %d, want 2", len(report))
	}
	if report[0].TopicID != "go" || report[0].Views != 3 || report[0].Title != "Go Basics" {
		t.Errorf("top row = %+v, want go with 3 views", report[0])
	}
	if report[1].TopicID != "sql" || report[1].Views != 1 {
		t.Errorf("second row = %+v, want sql with 1 view", report[1])
	}
}

func TestCourseCompletion_ViewedSupersetCounts(t *testing.T) {
	cs := content.NewMemoryStore()
	for _, id := range []string{"a", "b"} {
		if _, err := cs.CreateTopic(content.Topic{ID: id, Title: "T" + id}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := cs.CreateCourse(content.Course{ID: "c1", Title: "Course", Topics: []string{"a", "b"}}); err != nil {
		t.Fatal(err)
	}

	at := time.Now()
	users := &fakeUsers{users: []learner.User{
		// Viewed a superset of the course topics: complete.
		{ID: "u1", ViewedTopics: []learner.ViewedTopic{view("a", at), view("b", at), view("x", at)}},
		// Viewed only one: incomplete.
		{ID: "u2", ViewedTopics: []learner.ViewedTopic{view("a", at)}},
	}}

	svc := analytics.NewService(users, cs, nil)
	report, err := svc.CourseCompletion()
	if err != nil {
		t.Fatalf("CourseCompletion() error = %v", err)
	}
	if len(report) != 1 {
		t.Fatalf("rows = %d, want 1", len(report))
	}
	row := report[0]
	if row.CompletedUsers != 1 {
		t.Errorf("CompletedUsers = %d, want 1", row.CompletedUsers)
	}
	if row.CompletionRate != 50 {
		t.Errorf("CompletionRate = %v, want 50", row.CompletionRate)
	}
}

func TestRetention_NonExclusiveThresholds(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)

	users := &fakeUsers{users: []learner.User{
		// Signed up 40 days ago, active yesterday: counts in all three.
		{ID: "u1", CreatedAt: now.AddDate(0, 0, -40), UpdatedAt: yesterday},
		// Signed up 5 days ago, active yesterday: day 1 only.
		{ID: "u2", CreatedAt: now.AddDate(0, 0, -5), UpdatedAt: yesterday},
		// Never returned after signup.
		{ID: "u3", CreatedAt: yesterday, UpdatedAt: yesterday},
		// No update recorded; last login stands in.
		{ID: "u4", CreatedAt: now.AddDate(0, 0, -10), LastLogin: &yesterday},
	}}

	svc := analytics.NewService(users, content.NewMemoryStore(), nil)
	report, err := svc.Retention()
	if err != nil {
		t.Fatalf("Retention() error = %v", err)
	}
	if report.TotalUsers != 4 {
		t.Errorf("TotalUsers = %d, want 4", report.TotalUsers)
	}
	if report.Day1 != 75 {
		t.Errorf("Day1 = %v, want 75", report.Day1)
	}
	if report.Day7 != 50 {
		t.Errorf("Day7 = %v, want 50", report.Day7)
	}
	if report.Day30 != 25 {
		t.Errorf("Day30 = %v, want 25", report.Day30)
	}
}

func TestRetention_NoUsers(t *testing.T) {
	svc := analytics.NewService(&fakeUsers{}, content.NewMemoryStore(), nil)
	report, err := svc.Retention()
	if err != nil {
		t.Fatalf("Retention() error = %v", err)
	}
	if report.TotalUsers != 0 || report.Day1 != 0 || report.Day7 != 0 || report.Day30 != 0 {
		t.Errorf("empty retention = %+v, want all zero", report)
	}
}

func TestEngagement_ThreeHistograms(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	users := &fakeUsers{users: []learner.User{
		{ID: "u1", ViewedTopics: []learner.ViewedTopic{
			view("a", now.Add(-time.Hour)),
			view("b", now.AddDate(0, 0, -3)),
		}},
	}}

	svc := analytics.NewService(users, content.NewMemoryStore(), nil)
	svc.SetNow(func() time.Time { return now })

	report, err := svc.Engagement()
	if err != nil {
		t.Fatalf("Engagement() error = %v", err)
	}
	for name, counts := range map[string][]int{
		"daily": report.Daily, "weekly": report.Weekly, "monthly": report.Monthly,
	} {
		if len(counts) != 8 {
			t.Errorf("%s buckets = %d, want 8", name, len(counts))
			continue
		}
		total := 0
		for _, c := range counts {
			total += c
		}
		if total != 2 {
			t.Errorf("%s total = %d, want 2", name, total)
		}
	}
	if report.Daily[7] != 1 || report.Daily[4] != 1 {
		t.Errorf("daily counts = %v, want views today and three days ago", report.Daily)
	}
}

func TestReportCaching(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	cache := newMapCache()
	users := &fakeUsers{users: []learner.User{{ID: "u1", CreatedAt: now}}}

	svc := analytics.NewService(users, content.NewMemoryStore(), cache)
	svc.SetNow(func() time.Time { return now })

	first, err := svc.Signups()
	if err != nil {
		t.Fatalf("Signups() error = %v", err)
	}

	// The second call must come from the cache, even after the data
	// changes underneath.
	users.users = nil
	second, err := svc.Signups()
	if err != nil {
		t.Fatalf("Signups() cached error = %v", err)
	}
	if cache.hits != 1 {
		t.Errorf("cache hits = %d, want 1", cache.hits)
	}
	for i := range first.Counts {
		if first.Counts[i] != second.Counts[i] {
			t.Errorf("cached counts differ at %d: %d vs %d", i, first.Counts[i], second.Counts[i])
		}
	}
}
