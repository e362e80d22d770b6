package notify_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/learner"
	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/notify"
)

// stubDedup returns canned Acquire results.
type stubDedup struct {
	ok   bool
	err  error
	keys []string
}

func (d *stubDedup) Acquire(_ context.Context, key string, _ time.Duration) (bool, error) {
	d.keys = append(d.keys, key)
	return d.ok, d.err
}

func newEngine(t *testing.T, dedup notify.DedupGuard) (*notify.Engine, learner.Store, learner.User) {
	t.Helper()
	users := learner.NewMemoryStore()
	user, err := users.Create(learner.User{Username: "learner", Email: "learner@example.com"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return notify.NewEngine(notify.NewMemoryStore(), users, dedup, nil), users, user
}

func TestEvaluateReminder_NeverViewed(t *testing.T) {
	engine, _, user := newEngine(t, nil)

	n, err := engine.EvaluateReminder(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("EvaluateReminder() error = %v", err)
	}
	if n == nil {
		t.Fatal("expected a reminder for a user who never viewed a topic")
	}
	if n.Type != notify.TypeReminder {
		t.Errorf("Type = %q, want reminder", n.Type)
	}
	if len(n.Recipients) != 1 || n.Recipients[0] != user.ID {
		t.Errorf("Recipients = %v, want [%s]", n.Recipients, user.ID)
	}
}

func TestEvaluateReminder_WindowBoundary(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		viewedAt time.Time
		want     bool
	}{
		{"viewed an hour ago", now.Add(-time.Hour), false},
		{"viewed exactly at the window", now.Add(-notify.ReminderWindow), false},
		{"viewed just past the window", now.Add(-notify.ReminderWindow - time.Second), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, users, user := newEngine(t, nil)
			engine.SetNow(func() time.Time { return now })
			if _, err := users.AppendViewed(user.ID, "t1", tt.viewedAt, ""); err != nil {
				t.Fatal(err)
			}

			n, err := engine.EvaluateReminder(context.Background(), user.ID)
			if err != nil {
				t.Fatalf("EvaluateReminder() error = %v", err)
			}
			if got := n != nil; got != tt.want {
				t.Errorf("reminder fired = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluateReminder_DedupSuppresses(t *testing.T) {
	dedup := &stubDedup{ok: false}
	engine, _, user := newEngine(t, dedup)

	n, err := engine.EvaluateReminder(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("EvaluateReminder() error = %v", err)
	}
	if n != nil {
		t.Error("reminder should be suppressed while the dedup key is held")
	}
	if len(dedup.keys) != 1 || dedup.keys[0] != "reminder:"+user.ID {
		t.Errorf("dedup keys = %v, want [reminder:%s]", dedup.keys, user.ID)
	}
}

func TestEvaluateReminder_DedupFailureDoesNotBlock(t *testing.T) {
	dedup := &stubDedup{err: errors.New("cache down")}
	engine, _, user := newEngine(t, dedup)

	n, err := engine.EvaluateReminder(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("EvaluateReminder() error = %v", err)
	}
	if n == nil {
		t.Error("a broken dedup cache should not block the reminder")
	}
}

func TestEvaluateAchievement_MultiplesOfFive(t *testing.T) {
	engine, users, user := newEngine(t, nil)

	for i := 1; i <= 12; i++ {
		id := fmt.Sprintf("t%d", i)
		if _, err := users.AppendViewed(user.ID, id, time.Now(), ""); err != nil {
			t.Fatal(err)
		}

		n, err := engine.EvaluateAchievement(context.Background(), user.ID)
		if err != nil {
			t.Fatalf("EvaluateAchievement() at %d views error = %v", i, err)
		}
		want := i%5 == 0
		if got := n != nil; got != want {
			t.Errorf("achievement at %d views = %v, want %v", i, got, want)
			continue
		}
		if n != nil {
			wantMsg := fmt.Sprintf("Congratulations! You have viewed %d topics!", i)
			if n.Message != wantMsg {
				t.Errorf("Message = %q, want %q", n.Message, wantMsg)
			}
			if n.Type != notify.TypeAchievement {
				t.Errorf("Type = %q, want achievement", n.Type)
			}
		}
	}
}

func TestBroadcast_DefaultsToInfo(t *testing.T) {
	engine, _, _ := newEngine(t, nil)

	n, err := engine.Broadcast("maintenance tonight", "")
	if err != nil {
		t.Fatalf("Broadcast() error = %v", err)
	}
	if n.Type != notify.TypeInfo {
		t.Errorf("Type = %q, want info", n.Type)
	}
	if !n.Broadcast() {
		t.Error("broadcast notification should have no recipients")
	}
}

func TestWelcomeAndFeed(t *testing.T) {
	engine, _, user := newEngine(t, nil)

	if _, err := engine.Welcome(user.ID); err != nil {
		t.Fatalf("Welcome() error = %v", err)
	}
	if _, err := engine.Broadcast("hello all", notify.TypeAdmin); err != nil {
		t.Fatal(err)
	}

	feed, err := engine.Feed(user.ID)
	if err != nil {
		t.Fatalf("Feed() error = %v", err)
	}
	if len(feed) != 2 {
		t.Fatalf("feed length = %d, want 2", len(feed))
	}

	if err := engine.MarkRead(feed[0].ID, user.ID); err != nil {
		t.Fatalf("MarkRead() error = %v", err)
	}
	feed, err = engine.Feed(user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(feed) != 1 {
		t.Errorf("feed length after read = %d, want 1", len(feed))
	}
}
