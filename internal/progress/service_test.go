package progress_test

import (
	"errors"
	"testing"
	"time"

	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/apperr"
	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/content"
	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/learner"
	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/progress"
)

// fixture builds a course with topics A -> B -> C chained through
// course-scoped dependencies and one enrolled learner.
func fixture(t *testing.T) (*progress.Service, content.Store, learner.Store, content.Course, learner.User) {
	t.Helper()
	cs := content.NewMemoryStore()
	us := learner.NewMemoryStore()

	for _, id := range []string{"A", "B", "C"} {
		if _, err := cs.CreateTopic(content.Topic{ID: id, Title: "Topic " + id}); err != nil {
			t.Fatalf("CreateTopic(%s) error = %v", id, err)
		}
	}
	course, err := cs.CreateCourse(content.Course{
		ID:         "course1",
		Title:      "Fundamentals",
		Topics:     []string{"A", "B", "C"},
		FirstTopic: "A",
		Dependencies: map[string][]string{
			"B": {"A"},
			"C": {"B"},
		},
	})
	if err != nil {
		t.Fatalf("CreateCourse() error = %v", err)
	}

	user, err := us.Create(learner.User{Username: "learner", Email: "learner@example.com"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	return progress.NewService(cs, us), cs, us, course, user
}

func TestCourseScenario_UnlockAndProgress(t *testing.T) {
	svc, _, us, course, user := fixture(t)

	// Nothing completed: only A is accessible.
	for id, want := range map[string]bool{"A": true, "B": false, "C": false} {
		got, err := svc.SubjectUnlocked(course.ID, id, user.ID)
		if err != nil {
			t.Fatalf("SubjectUnlocked(%s) error = %v", id, err)
		}
		if got != want {
			t.Errorf("SubjectUnlocked(%s) = %v, want %v", id, got, want)
		}
	}

	// Completing A unlocks B but not C.
	if _, err := us.AppendCompleted(user.ID, "A", time.Now()); err != nil {
		t.Fatal(err)
	}
	if got, _ := svc.SubjectUnlocked(course.ID, "B", user.ID); !got {
		t.Error("B should unlock after completing A")
	}
	if got, _ := svc.SubjectUnlocked(course.ID, "C", user.ID); got {
		t.Error("C should stay locked with only A completed")
	}

	// Viewing A and B puts course progress at round(2/3*100) = 67.
	if _, err := svc.MarkViewed(user.ID, "A"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.MarkViewed(user.ID, "B"); err != nil {
		t.Fatal(err)
	}
	rows, err := svc.CourseProgress(user.ID)
	if err != nil {
		t.Fatalf("CourseProgress() error = %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if rows[0].ViewedTopics != 2 || rows[0].Percentage != 67 {
		t.Errorf("course progress = %+v, want 2 viewed, 67%%", rows[0])
	}
}

func TestSubjectUnlocked_MissingContentIsNotFound(t *testing.T) {
	svc, _, _, course, user := fixture(t)

	if _, err := svc.SubjectUnlocked("ghost", "A", user.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing course error = %v, want ErrNotFound", err)
	}
	if _, err := svc.SubjectUnlocked(course.ID, "ghost", user.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing topic error = %v, want ErrNotFound", err)
	}
}

func TestMarkViewed_Idempotent(t *testing.T) {
	svc, _, _, _, user := fixture(t)

	added, err := svc.MarkViewed(user.ID, "A")
	if err != nil {
		t.Fatalf("MarkViewed() error = %v", err)
	}
	if !added {
		t.Error("first view should report added")
	}
	added, err = svc.MarkViewed(user.ID, "A")
	if err != nil {
		t.Fatalf("MarkViewed() repeat error = %v", err)
	}
	if added {
		t.Error("repeat view should be a no-op")
	}
}

func TestOpenAndCompleteTopic_RecordActivity(t *testing.T) {
	svc, cs, us, _, user := fixture(t)

	if _, err := cs.CreatePath(content.LearningPath{
		ID:     "path1",
		Title:  "Core Path",
		Topics: content.RefsFromIDs([]string{"A", "B"}),
	}); err != nil {
		t.Fatal(err)
	}

	if err := svc.OpenTopic(user.ID, "A"); err != nil {
		t.Fatalf("OpenTopic() error = %v", err)
	}
	if err := svc.CompleteTopic(user.ID, "B"); err != nil {
		t.Fatalf("CompleteTopic() error = %v", err)
	}

	activity, err := svc.RecentActivity(user.ID)
	if err != nil {
		t.Fatalf("RecentActivity() error = %v", err)
	}
	if len(activity) != 2 {
		t.Fatalf("activity rows = %d, want 2", len(activity))
	}
	for _, row := range activity {
		if row.PathTitle != "Core Path" {
			t.Errorf("PathTitle = %q, want Core Path", row.PathTitle)
		}
	}

	// Opening counts toward path completion.
	got, err := us.Get(user.ID)
	if err != nil {
		t.Fatal(err)
	}
	set := got.CompletedSet()
	if !set["A"] || !set["B"] {
		t.Errorf("completed set = %v, want A and B", set)
	}
}

func TestPathProgress_UnassignedUserGetsEmptySlice(t *testing.T) {
	svc, _, _, _, user := fixture(t)

	rows, err := svc.PathProgress(user.ID)
	if err != nil {
		t.Fatalf("PathProgress() error = %v", err)
	}
	if rows == nil || len(rows) != 0 {
		t.Errorf("rows = %#v, want empty non-nil slice", rows)
	}
}

func TestSubmitQuizScore_ValidatesCourse(t *testing.T) {
	svc, _, _, course, user := fixture(t)

	if _, _, err := svc.SubmitQuizScore(user.ID, "", 50); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("empty course error = %v, want ErrValidation", err)
	}
	if _, _, err := svc.SubmitQuizScore(user.ID, "ghost", 50); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing course error = %v, want ErrNotFound", err)
	}

	best, updated, err := svc.SubmitQuizScore(user.ID, course.ID, 70)
	if err != nil {
		t.Fatalf("SubmitQuizScore() error = %v", err)
	}
	if best != 70 || !updated {
		t.Errorf("submit = (%d, %v), want (70, true)", best, updated)
	}
}

func TestRecentlyViewed_TopFiveNewestFirst(t *testing.T) {
	svc, cs, us, _, user := fixture(t)

	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		id := string(rune('a' + i))
		if _, err := cs.CreateTopic(content.Topic{ID: id, Title: "T" + id}); err != nil {
			t.Fatal(err)
		}
		if _, err := us.AppendViewed(user.ID, id, base.Add(time.Duration(i)*time.Hour), ""); err != nil {
			t.Fatal(err)
		}
	}

	rows, err := svc.RecentlyViewed(user.ID)
	if err != nil {
		t.Fatalf("RecentlyViewed() error = %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("rows = %d, want 5", len(rows))
	}
	if rows[0].ID != "g" {
		t.Errorf("newest = %q, want g", rows[0].ID)
	}
	for i := 1; i < len(rows); i++ {
		if rows[i].ViewedAt.After(rows[i-1].ViewedAt) {
			t.Errorf("rows not sorted newest first at index %d", i)
		}
	}
}
