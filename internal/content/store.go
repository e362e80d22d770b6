package content

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/apperr"
)

// Store persists the content graph.
type Store interface {
	CreateTopic(t Topic) (Topic, error)
	GetTopic(id string) (*Topic, error)
	UpdateTopic(t Topic) error
	DeleteTopic(id string) error
	ListTopics(status string) ([]Topic, error)
	TopicsByIDs(ids []string) ([]Topic, error)

	CreateCourse(c Course) (Course, error)
	GetCourse(id string) (*Course, error)
	UpdateCourse(c Course) error
	DeleteCourse(id string) error
	ListCourses() ([]Course, error)
	CountCourses() (int, error)
	AddSubject(courseID, topicID string) error
	SetDependency(courseID, subjectID string, required []string) error

	CreatePath(p LearningPath) (LearningPath, error)
	GetPath(id string) (*LearningPath, error)
	UpdatePath(p LearningPath) error
	DeletePath(id string) error
	ListPaths(status string) ([]LearningPath, error)
	PathsByIDs(ids []string) ([]LearningPath, error)
	AddCourseToPath(pathID, courseID string) error
	RemoveCourseFromPath(pathID, courseID string) error
	PathContainingTopic(topicID string) (*LearningPath, error)
}

// MemoryStore is an in-memory Store implementation.
type MemoryStore struct {
	mu      sync.RWMutex
	topics  map[string]*Topic
	courses map[string]*Course
	paths   map[string]*LearningPath
}

// NewMemoryStore creates an empty in-memory content store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		topics:  make(map[string]*Topic),
		courses: make(map[string]*Course),
		paths:   make(map[string]*LearningPath),
	}
}

func (s *MemoryStore) CreateTopic(t Topic) (Topic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.Title == "" {
		return Topic{}, fmt.Errorf("topic title is required: %w", apperr.ErrValidation)
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = StatusPublished
	}
	if err := ValidatePrerequisites(t.ID, t.Prerequisites, s.prereqsLocked); err != nil {
		return Topic{}, err
	}
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now
	cp := t
	s.topics[t.ID] = &cp
	return t, nil
}

func (s *MemoryStore) GetTopic(id string) (*Topic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.topics[id]
	if !ok {
		return nil, fmt.Errorf("topic %s: %w", id, apperr.ErrNotFound)
	}
	cp := *t
	return &cp, nil
}

func (s *MemoryStore) UpdateTopic(t Topic) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.topics[t.ID]
	if !ok {
		return fmt.Errorf("topic %s: %w", t.ID, apperr.ErrNotFound)
	}
	if err := ValidatePrerequisites(t.ID, t.Prerequisites, s.prereqsLocked); err != nil {
		return err
	}
	t.CreatedAt = cur.CreatedAt
	t.UpdatedAt = time.Now()
	cp := t
	s.topics[t.ID] = &cp
	return nil
}

func (s *MemoryStore) DeleteTopic(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.topics[id]; !ok {
		return fmt.Errorf("topic %s: %w", id, apperr.ErrNotFound)
	}
	delete(s.topics, id)
	return nil
}

func (s *MemoryStore) ListTopics(status string) ([]Topic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Topic, 0, len(s.topics))
	for _, t := range s.topics {
		if status != "" && t.Status != status {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (s *MemoryStore) TopicsByIDs(ids []string) ([]Topic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Topic, 0, len(ids))
	for _, id := range ids {
		if t, ok := s.topics[id]; ok {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (s *MemoryStore) CreateCourse(c Course) (Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.Title == "" {
		return Course{}, fmt.Errorf("course title is required: %w", apperr.ErrValidation)
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Dependencies == nil {
		c.Dependencies = make(map[string][]string)
	}
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	cp := c
	s.courses[c.ID] = &cp
	return c, nil
}

func (s *MemoryStore) GetCourse(id string) (*Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.courses[id]
	if !ok {
		return nil, fmt.Errorf("course %s: %w", id, apperr.ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

func (s *MemoryStore) UpdateCourse(c Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.courses[c.ID]
	if !ok {
		return fmt.Errorf("course %s: %w", c.ID, apperr.ErrNotFound)
	}
	c.CreatedAt = cur.CreatedAt
	c.UpdatedAt = time.Now()
	cp := c
	s.courses[c.ID] = &cp
	return nil
}

func (s *MemoryStore) DeleteCourse(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.courses[id]
	if !ok {
		return fmt.Errorf("course %s: %w", id, apperr.ErrNotFound)
	}
	for _, tid := range c.Topics {
		delete(s.topics, tid)
	}
	delete(s.courses, id)
	return nil
}

func (s *MemoryStore) ListCourses() ([]Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Course, 0, len(s.courses))
	for _, c := range s.courses {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (s *MemoryStore) CountCourses() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.courses), nil
}

func (s *MemoryStore) AddSubject(courseID, topicID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.courses[courseID]
	if !ok {
		return fmt.Errorf("course %s: %w", courseID, apperr.ErrNotFound)
	}
	for _, id := range c.Topics {
		if id == topicID {
			return nil
		}
	}
	c.Topics = append(c.Topics, topicID)
	if c.FirstTopic == "" {
		c.FirstTopic = topicID
	}
	c.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) SetDependency(courseID, subjectID string, required []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.courses[courseID]
	if !ok {
		return fmt.Errorf("course %s: %w", courseID, apperr.ErrNotFound)
	}
	if err := ValidatePrerequisites(subjectID, required, func(id string) []string {
		return c.Dependencies[id]
	}); err != nil {
		return err
	}
	if c.Dependencies == nil {
		c.Dependencies = make(map[string][]string)
	}
	c.Dependencies[subjectID] = append([]string(nil), required...)
	c.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) CreatePath(p LearningPath) (LearningPath, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.Title == "" {
		return LearningPath{}, fmt.Errorf("path title is required: %w", apperr.ErrValidation)
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = StatusPublished
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	cp := p
	s.paths[p.ID] = &cp
	return p, nil
}

func (s *MemoryStore) GetPath(id string) (*LearningPath, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.paths[id]
	if !ok {
		return nil, fmt.Errorf("learning path %s: %w", id, apperr.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) UpdatePath(p LearningPath) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.paths[p.ID]
	if !ok {
		return fmt.Errorf("learning path %s: %w", p.ID, apperr.ErrNotFound)
	}
	p.CreatedAt = cur.CreatedAt
	p.UpdatedAt = time.Now()
	cp := p
	s.paths[p.ID] = &cp
	return nil
}

func (s *MemoryStore) DeletePath(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.paths[id]; !ok {
		return fmt.Errorf("learning path %s: %w", id, apperr.ErrNotFound)
	}
	delete(s.paths, id)
	return nil
}

func (s *MemoryStore) ListPaths(status string) ([]LearningPath, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]LearningPath, 0, len(s.paths))
	for _, p := range s.paths {
		if status != "" && p.Status != status {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (s *MemoryStore) PathsByIDs(ids []string) ([]LearningPath, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]LearningPath, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.paths[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *MemoryStore) AddCourseToPath(pathID, courseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.paths[pathID]
	if !ok {
		return fmt.Errorf("learning path %s: %w", pathID, apperr.ErrNotFound)
	}
	if _, ok := s.courses[courseID]; !ok {
		return fmt.Errorf("course %s: %w", courseID, apperr.ErrNotFound)
	}
	for _, id := range p.Courses {
		if id == courseID {
			return nil
		}
	}
	p.Courses = append(p.Courses, courseID)
	p.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) RemoveCourseFromPath(pathID, courseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.paths[pathID]
	if !ok {
		return fmt.Errorf("learning path %s: %w", pathID, apperr.ErrNotFound)
	}
	for i, id := range p.Courses {
		if id == courseID {
			p.Courses = append(p.Courses[:i], p.Courses[i+1:]...)
			p.UpdatedAt = time.Now()
			return nil
		}
	}
	return nil
}

func (s *MemoryStore) PathContainingTopic(topicID string) (*LearningPath, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.paths {
		for _, ref := range p.Topics {
			if ref.Valid() && ref.ID == topicID {
				cp := *p
				return &cp, nil
			}
		}
	}
	return nil, fmt.Errorf("no learning path contains topic %s: %w", topicID, apperr.ErrNotFound)
}

// prereqsLocked resolves a topic's prerequisite edges. Callers must hold
// the store lock.
func (s *MemoryStore) prereqsLocked(id string) []string {
	if t, ok := s.topics[id]; ok {
		return t.Prerequisites
	}
	return nil
}
