package content

import (
	"os"
	"path/filepath"
	"testing"
)

const seedDoc = `topics:
  - id: html-intro
    title: introduction to html
    status: published
  - id: css-intro
    title: CSS Selectors
    prerequisites: [html-intro]
courses:
  - id: web-basics
    title: Web Basics
    topics: [html-intro, css-intro]
    first_topic: html-intro
paths:
  - id: frontend
    title: Frontend Path
    courses: [web-basics]
    topics: [html-intro, css-intro]
    status: published
`

func writeSeedFile(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestSeed(t *testing.T) {
	dir := t.TempDir()
	writeSeedFile(t, dir, "web.yaml", seedDoc)
	writeSeedFile(t, dir, "notes.txt", "ignored")

	store := NewMemoryStore()
	if err := Seed(store, dir); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	topic, err := store.GetTopic("html-intro")
	if err != nil {
		t.Fatalf("GetTopic() error = %v", err)
	}
	if topic.Title != "Introduction To Html" {
		t.Errorf("lowercase title normalized to %q", topic.Title)
	}

	css, err := store.GetTopic("css-intro")
	if err != nil {
		t.Fatalf("GetTopic(css) error = %v", err)
	}
	if css.Title != "CSS Selectors" {
		t.Errorf("mixed-case title changed to %q, want untouched", css.Title)
	}

	course, err := store.GetCourse("web-basics")
	if err != nil {
		t.Fatalf("GetCourse() error = %v", err)
	}
	if len(course.Topics) != 2 || course.FirstTopic != "html-intro" {
		t.Errorf("course = %+v, want 2 topics and first_topic html-intro", course)
	}

	path, err := store.GetPath("frontend")
	if err != nil {
		t.Fatalf("GetPath() error = %v", err)
	}
	if len(path.Topics) != 2 || !path.Topics[0].Valid() {
		t.Errorf("path topics = %+v, want 2 valid refs", path.Topics)
	}
}

func TestSeed_UpsertKeepsExisting(t *testing.T) {
	dir := t.TempDir()
	writeSeedFile(t, dir, "v1.yaml", seedDoc)

	store := NewMemoryStore()
	if err := Seed(store, dir); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	// Reseeding the same directory is an update, not a duplicate.
	if err := Seed(store, dir); err != nil {
		t.Fatalf("Seed() reseed error = %v", err)
	}

	topics, err := store.ListTopics("")
	if err != nil {
		t.Fatal(err)
	}
	if len(topics) != 2 {
		t.Errorf("topic count after reseed = %d, want 2", len(topics))
	}
}

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"javascript basics", "Javascript Basics"},
		{"HTML & CSS Basics", "HTML & CSS Basics"},
		{"React Hooks", "React Hooks"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := normalizeTitle(tt.in); got != tt.want {
			t.Errorf("normalizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
