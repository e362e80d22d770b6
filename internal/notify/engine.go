package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/learner"
)

// ReminderWindow is how long a learner can go without viewing a topic
// before a reminder fires. It also bounds reminder frequency: at most
// one reminder per learner per window.
const ReminderWindow = 48 * time.Hour

const achievementStep = 5

// DedupGuard suppresses repeated trigger firings. Acquire returns true
// when the key was free and is now held for ttl.
type DedupGuard interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// NopDedup never suppresses anything. Used when no cache is configured;
// reminders then dedupe only within a single evaluation.
type NopDedup struct{}

func (NopDedup) Acquire(context.Context, string, time.Duration) (bool, error) {
	return true, nil
}

// Engine evaluates notification rules on demand. There is no background
// scheduler; callers invoke the rules explicitly.
type Engine struct {
	store Store
	users learner.Store
	dedup DedupGuard
	hub   *Hub
	now   func() time.Time
}

// NewEngine creates a notification engine. dedup and hub may be nil.
func NewEngine(store Store, users learner.Store, dedup DedupGuard, hub *Hub) *Engine {
	if dedup == nil {
		dedup = NopDedup{}
	}
	return &Engine{
		store: store,
		users: users,
		dedup: dedup,
		hub:   hub,
		now:   time.Now,
	}
}

// EvaluateReminder creates a reminder for the user if they have never
// viewed a topic or their last view is older than the reminder window.
// Returns nil when no reminder is due or a recent one already fired.
func (e *Engine) EvaluateReminder(ctx context.Context, userID string) (*Notification, error) {
	user, err := e.users.Get(userID)
	if err != nil {
		return nil, err
	}

	lastViewed := user.LastViewedAt()
	if !lastViewed.IsZero() && e.now().Sub(lastViewed) <= ReminderWindow {
		return nil, nil
	}

	ok, err := e.dedup.Acquire(ctx, "reminder:"+userID, ReminderWindow)
	if err != nil {
		// A broken dedup cache should not block the reminder itself.
		slog.Warn("reminder dedup unavailable", "error", err)
	} else if !ok {
		return nil, nil
	}

	n, err := e.create(Notification{
		Message:    "It's been a while since you viewed a topic. Continue your learning journey!",
		Type:       TypeReminder,
		Recipients: []string{userID},
	})
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// EvaluateAchievement creates an achievement notification when the
// user's viewed-topic count is a positive multiple of five.
func (e *Engine) EvaluateAchievement(_ context.Context, userID string) (*Notification, error) {
	user, err := e.users.Get(userID)
	if err != nil {
		return nil, err
	}

	count := len(user.ViewedTopics)
	if count == 0 || count%achievementStep != 0 {
		return nil, nil
	}

	n, err := e.create(Notification{
		Message:    fmt.Sprintf("Congratulations! You have viewed %d topics!", count),
		Type:       TypeAchievement,
		Recipients: []string{userID},
	})
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// Broadcast creates an admin notification addressed to every learner.
func (e *Engine) Broadcast(message, typ string) (Notification, error) {
	if typ == "" {
		typ = TypeInfo
	}
	return e.create(Notification{
		Message:    message,
		Type:       typ,
		Recipients: []string{},
	})
}

// Welcome creates the sign-up notification for a new user.
func (e *Engine) Welcome(userID string) (Notification, error) {
	return e.create(Notification{
		Message:    "Welcome to SkillForge! Start your learning journey now.",
		Type:       TypeInfo,
		Recipients: []string{userID},
	})
}

// Feed returns the user's unread, post-login notification feed, newest
// first.
func (e *Engine) Feed(userID string) ([]Notification, error) {
	user, err := e.users.Get(userID)
	if err != nil {
		return nil, err
	}
	lastLogin := time.Time{}
	if user.LastLogin != nil {
		lastLogin = *user.LastLogin
	}
	return e.store.FeedFor(userID, lastLogin)
}

// MarkRead records that the user dismissed a notification. Marking the
// same notification twice is a no-op.
func (e *Engine) MarkRead(id, userID string) error {
	return e.store.MarkRead(id, userID)
}

// List returns every notification; admin use only.
func (e *Engine) List() ([]Notification, error) {
	return e.store.List()
}

func (e *Engine) create(n Notification) (Notification, error) {
	created, err := e.store.Create(n)
	if err != nil {
		return Notification{}, err
	}
	if e.hub != nil {
		e.hub.Publish(created)
	}
	return created, nil
}

// SetNow overrides the clock; used by tests.
func (e *Engine) SetNow(now func() time.Time) { e.now = now }
