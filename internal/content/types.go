// Package content holds the content graph: topics, courses and learning
// paths, plus the prerequisite edges between them.
package content

import "time"

// Difficulty levels a topic or resource can carry.
const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

// Publication status for topics and learning paths.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

// Topic is the smallest content unit. Prerequisites are edges into this
// node; a topic is unlocked once all of them are completed.
type Topic struct {
	ID             string     `json:"id" yaml:"id"`
	Title          string     `json:"title" yaml:"title"`
	Description    string     `json:"description" yaml:"description"`
	Content        string     `json:"content" yaml:"content"`
	Difficulty     string     `json:"difficulty" yaml:"difficulty"`
	Type           string     `json:"type" yaml:"type"` // core, advanced, optional
	Status         string     `json:"status" yaml:"status"`
	Prerequisites  []string   `json:"prerequisites" yaml:"prerequisites"`
	LearningPathID string     `json:"learning_path_id,omitempty" yaml:"learning_path_id"`
	Order          int        `json:"order" yaml:"order"`
	// IsRoot marks a topic as always unlocked regardless of course
	// dependencies. Set by administrators at creation time.
	IsRoot    bool       `json:"is_root" yaml:"is_root"`
	Resources []Resource `json:"resources,omitempty" yaml:"resources"`
	CreatorID string     `json:"creator_id,omitempty" yaml:"-"`
	CreatedAt time.Time  `json:"created_at" yaml:"-"`
	UpdatedAt time.Time  `json:"updated_at" yaml:"-"`
}

// Resource is supplementary material attached to a topic.
type Resource struct {
	Title      string `json:"title" yaml:"title"`
	URL        string `json:"url" yaml:"url"`
	Type       string `json:"type" yaml:"type"` // article, video, documentation, tutorial, exercise
	Difficulty string `json:"difficulty" yaml:"difficulty"`
}

// Course is an ordered set of topics with course-scoped dependency
// overrides. Dependencies maps a subject (topic) id to the subjects that
// must be completed before it unlocks; FirstTopic is always unlocked.
type Course struct {
	ID           string              `json:"id" yaml:"id"`
	Title        string              `json:"title" yaml:"title"`
	Description  string              `json:"description" yaml:"description"`
	Level        string              `json:"level" yaml:"level"` // Beginner, Intermediate, Advanced
	Topics       []string            `json:"topics" yaml:"topics"`
	Dependencies map[string][]string `json:"dependencies" yaml:"dependencies"`
	FirstTopic   string              `json:"first_topic" yaml:"first_topic"`
	CreatedAt    time.Time           `json:"created_at" yaml:"-"`
	UpdatedAt    time.Time           `json:"updated_at" yaml:"-"`
}

// LearningPath is an ordered set of courses and topics assigned to
// learners by administrators. Only published paths are visible to
// learners.
type LearningPath struct {
	ID          string     `json:"id" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description" yaml:"description"`
	Courses     []string   `json:"courses" yaml:"courses"`
	Topics      []TopicRef `json:"topics" yaml:"-"`
	Status      string     `json:"status" yaml:"status"`
	CreatedAt   time.Time  `json:"created_at" yaml:"-"`
	UpdatedAt   time.Time  `json:"updated_at" yaml:"-"`
}

// RefKind discriminates the shapes a stored topic reference can take.
type RefKind int

const (
	// RefRawID is a plain topic id string.
	RefRawID RefKind = iota
	// RefPopulated carries the expanded topic document.
	RefPopulated
	// RefMalformed is a reference that could not be resolved to an id.
	// Malformed references are skipped by progress aggregation.
	RefMalformed
)

// TopicRef is a tagged reference to a topic inside a learning path.
// References are resolved once at the storage boundary so downstream
// logic never re-inspects their shape.
type TopicRef struct {
	Kind  RefKind `json:"kind"`
	ID    string  `json:"id,omitempty"`
	Topic *Topic  `json:"topic,omitempty"`
}

// Valid reports whether the reference carries a usable topic id.
func (r TopicRef) Valid() bool {
	return r.Kind != RefMalformed && r.ID != ""
}

// ResolveRef classifies a raw stored value into a TopicRef. Accepted
// shapes are a non-empty id string and a map carrying "_id" or "topic";
// anything else is malformed.
func ResolveRef(raw any) TopicRef {
	switch v := raw.(type) {
	case string:
		if v != "" {
			return TopicRef{Kind: RefRawID, ID: v}
		}
	case map[string]any:
		if id, ok := v["_id"].(string); ok && id != "" {
			return TopicRef{Kind: RefRawID, ID: id}
		}
		if id, ok := v["topic"].(string); ok && id != "" {
			return TopicRef{Kind: RefRawID, ID: id}
		}
	case *Topic:
		if v != nil && v.ID != "" {
			return TopicRef{Kind: RefPopulated, ID: v.ID, Topic: v}
		}
	case Topic:
		if v.ID != "" {
			t := v
			return TopicRef{Kind: RefPopulated, ID: v.ID, Topic: &t}
		}
	}
	return TopicRef{Kind: RefMalformed}
}

// RefsFromIDs wraps plain topic ids as raw references.
func RefsFromIDs(ids []string) []TopicRef {
	refs := make([]TopicRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, ResolveRef(id))
	}
	return refs
}
