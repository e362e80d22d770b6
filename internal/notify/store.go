// Package notify creates and delivers notifications: reminder and
// achievement triggers, admin broadcasts, per-user read tracking and a
// live websocket stream.
package notify

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/apperr"
)

// Notification types.
const (
	TypeInfo        = "info"
	TypeProgress    = "progress"
	TypeAdmin       = "admin"
	TypeSystem      = "system"
	TypeReminder    = "reminder"
	TypeAchievement = "achievement"
)

// Notification is a message for one or more learners. An empty
// Recipients list means broadcast. ReadBy only ever grows.
type Notification struct {
	ID         string    `json:"id"`
	Message    string    `json:"message"`
	Type       string    `json:"type"`
	Recipients []string  `json:"recipients"`
	ReadBy     []string  `json:"readBy"`
	CreatedAt  time.Time `json:"createdAt"`
}

// VisibleTo reports whether the notification belongs in userID's feed:
// addressed to them (or broadcast), not yet read by them, and created
// after their last login.
func (n *Notification) VisibleTo(userID string, lastLogin time.Time) bool {
	if len(n.Recipients) > 0 {
		found := false
		for _, r := range n.Recipients {
			if r == userID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for _, r := range n.ReadBy {
		if r == userID {
			return false
		}
	}
	return n.CreatedAt.After(lastLogin)
}

// Broadcast reports whether the notification targets every learner.
func (n *Notification) Broadcast() bool { return len(n.Recipients) == 0 }

// AddressedTo reports whether userID is an explicit recipient.
func (n *Notification) AddressedTo(userID string) bool {
	for _, r := range n.Recipients {
		if r == userID {
			return true
		}
	}
	return false
}

// Store persists notifications.
type Store interface {
	Create(n Notification) (Notification, error)
	Get(id string) (*Notification, error)
	List() ([]Notification, error)
	FeedFor(userID string, lastLogin time.Time) ([]Notification, error)
	MarkRead(id, userID string) error
}

// MemoryStore is an in-memory notification store.
type MemoryStore struct {
	mu            sync.RWMutex
	notifications map[string]*Notification
}

// NewMemoryStore creates an empty in-memory notification store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{notifications: make(map[string]*Notification)}
}

func (s *MemoryStore) Create(n Notification) (Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n.Message == "" {
		return Notification{}, fmt.Errorf("message is required: %w", apperr.ErrValidation)
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Type == "" {
		n.Type = TypeInfo
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	if n.Recipients == nil {
		n.Recipients = []string{}
	}
	if n.ReadBy == nil {
		n.ReadBy = []string{}
	}
	cp := n
	s.notifications[n.ID] = &cp
	return n, nil
}

func (s *MemoryStore) Get(id string) (*Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.notifications[id]
	if !ok {
		return nil, fmt.Errorf("notification %s: %w", id, apperr.ErrNotFound)
	}
	cp := *n
	return &cp, nil
}

func (s *MemoryStore) List() ([]Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) FeedFor(userID string, lastLogin time.Time) ([]Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []Notification{}
	for _, n := range s.notifications {
		if n.VisibleTo(userID, lastLogin) {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) MarkRead(id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok {
		return fmt.Errorf("notification %s: %w", id, apperr.ErrNotFound)
	}
	for _, r := range n.ReadBy {
		if r == userID {
			return nil
		}
	}
	n.ReadBy = append(n.ReadBy, userID)
	return nil
}
