package learner

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/apperr"
)

// Store persists learner state. Append operations report whether they
// changed anything so callers can distinguish first-time events from
// idempotent repeats.
type Store interface {
	Create(u User) (User, error)
	Get(id string) (*User, error)
	GetByEmail(email string) (*User, error)
	List() ([]User, error)
	Count() (int, error)
	CountAdmins() (int, error)
	UpdateProfile(id string, p ProfileUpdate) (*User, error)
	SetPasswordHash(id, hash string) error
	SetRole(id, role string) error
	Delete(id string) error
	TouchLastLogin(id string, at time.Time) error

	AppendCompleted(id, topicID string, at time.Time) (bool, error)
	AppendViewed(id, topicID string, at time.Time, shortDescription string) (bool, error)
	UpsertRecentActivity(id string, e ActivityEntry) error
	AssignPath(id, pathID string) error
	UnassignPath(id, pathID string) error
	UpsertQuizScore(id, courseID string, score int) (int, bool, error)
}

// MemoryStore is an in-memory Store implementation.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]*User
}

// NewMemoryStore creates an empty in-memory learner store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]*User)}
}

func (s *MemoryStore) Create(u User) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.Username == "" || u.Email == "" {
		return User{}, fmt.Errorf("username and email are required: %w", apperr.ErrValidation)
	}
	for _, cur := range s.users {
		if cur.Email == u.Email {
			return User{}, fmt.Errorf("email already exists: %w", apperr.ErrValidation)
		}
		if cur.Username == u.Username {
			return User{}, fmt.Errorf("username already exists: %w", apperr.ErrValidation)
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now
	cp := u
	s.users[u.ID] = &cp
	return u, nil
}

func (s *MemoryStore) Get(id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getLocked(id)
}

func (s *MemoryStore) GetByEmail(email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("user with email %s: %w", email, apperr.ErrNotFound)
}

func (s *MemoryStore) List() ([]User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}

func (s *MemoryStore) CountAdmins() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, u := range s.users {
		if u.Role == RoleAdmin {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) UpdateProfile(id string, p ProfileUpdate) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, apperr.ErrNotFound)
	}
	if p.Username != nil && *p.Username != "" {
		u.Username = *p.Username
	}
	if p.Email != nil && *p.Email != "" {
		u.Email = *p.Email
	}
	if p.About != nil {
		u.About = *p.About
	}
	if p.Interests != nil {
		u.Interests = append([]string(nil), (*p.Interests)...)
	}
	u.UpdatedAt = time.Now()
	cp := *u
	return &cp, nil
}

func (s *MemoryStore) SetPasswordHash(id, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id, apperr.ErrNotFound)
	}
	u.PasswordHash = hash
	u.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) SetRole(id, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id, apperr.ErrNotFound)
	}
	u.Role = role
	u.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return fmt.Errorf("user %s: %w", id, apperr.ErrNotFound)
	}
	delete(s.users, id)
	return nil
}

func (s *MemoryStore) TouchLastLogin(id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id, apperr.ErrNotFound)
	}
	u.LastLogin = &at
	u.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) AppendCompleted(id, topicID string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return false, fmt.Errorf("user %s: %w", id, apperr.ErrNotFound)
	}
	for _, ct := range u.CompletedTopics {
		if ct.TopicID == topicID {
			return false, nil
		}
	}
	u.CompletedTopics = append(u.CompletedTopics, CompletedTopic{TopicID: topicID, CompletedAt: at})
	u.UpdatedAt = time.Now()
	return true, nil
}

func (s *MemoryStore) AppendViewed(id, topicID string, at time.Time, shortDescription string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return false, fmt.Errorf("user %s: %w", id, apperr.ErrNotFound)
	}
	for _, vt := range u.ViewedTopics {
		if vt.TopicID == topicID {
			return false, nil
		}
	}
	u.ViewedTopics = append(u.ViewedTopics, ViewedTopic{
		TopicID:          topicID,
		ViewedAt:         at,
		ShortDescription: shortDescription,
	})
	u.UpdatedAt = time.Now()
	return true, nil
}

func (s *MemoryStore) UpsertRecentActivity(id string, e ActivityEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id, apperr.ErrNotFound)
	}
	u.RecentActivity = UpsertRecent(u.RecentActivity, e, RecentActivityCap)
	u.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) AssignPath(id, pathID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id, apperr.ErrNotFound)
	}
	for _, p := range u.LearningPaths {
		if p == pathID {
			return nil
		}
	}
	u.LearningPaths = append(u.LearningPaths, pathID)
	u.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) UnassignPath(id, pathID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id, apperr.ErrNotFound)
	}
	for i, p := range u.LearningPaths {
		if p == pathID {
			u.LearningPaths = append(u.LearningPaths[:i], u.LearningPaths[i+1:]...)
			u.UpdatedAt = time.Now()
			return nil
		}
	}
	return nil
}

func (s *MemoryStore) UpsertQuizScore(id, courseID string, score int) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return 0, false, fmt.Errorf("user %s: %w", id, apperr.ErrNotFound)
	}
	for i, qs := range u.QuizScores {
		if qs.CourseID == courseID {
			if score > qs.Score {
				u.QuizScores[i].Score = score
				u.UpdatedAt = time.Now()
				return score, true, nil
			}
			return qs.Score, false, nil
		}
	}
	u.QuizScores = append(u.QuizScores, QuizScore{CourseID: courseID, Score: score})
	u.UpdatedAt = time.Now()
	return score, true, nil
}

func (s *MemoryStore) getLocked(id string) (*User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, apperr.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}
