package progress_test

import (
	"testing"

	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/content"
	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/progress"
)

func TestUnlockedInPath_NoPrerequisites(t *testing.T) {
	path := content.LearningPath{Topics: content.RefsFromIDs([]string{"a", "b"})}
	topic := content.Topic{ID: "b"}

	// A topic with no prerequisites is unlocked for any completed set.
	for _, completed := range []map[string]bool{nil, {}, {"x": true}} {
		if !progress.UnlockedInPath(path, topic, completed) {
			t.Errorf("UnlockedInPath(no prereqs, completed=%v) = false, want true", completed)
		}
	}
}

func TestUnlockedInPath_FirstTopicAlwaysUnlocked(t *testing.T) {
	path := content.LearningPath{Topics: content.RefsFromIDs([]string{"a", "b"})}
	topic := content.Topic{ID: "a", Prerequisites: []string{"z"}}

	if !progress.UnlockedInPath(path, topic, nil) {
		t.Error("first topic in path should be unlocked even with unmet prerequisites")
	}
}

func TestUnlockedInPath_PrerequisiteSubset(t *testing.T) {
	path := content.LearningPath{Topics: content.RefsFromIDs([]string{"a", "b", "c"})}
	topic := content.Topic{ID: "c", Prerequisites: []string{"a", "b"}}

	completed := map[string]bool{"a": true, "b": true}
	if !progress.UnlockedInPath(path, topic, completed) {
		t.Error("all prerequisites completed, want unlocked")
	}

	// Removing any required id flips the result.
	for _, drop := range []string{"a", "b"} {
		partial := map[string]bool{"a": true, "b": true}
		delete(partial, drop)
		if progress.UnlockedInPath(path, topic, partial) {
			t.Errorf("missing prerequisite %q, want locked", drop)
		}
	}
}

func TestUnlockedInCourse(t *testing.T) {
	course := content.Course{
		ID:         "c1",
		Topics:     []string{"a", "b", "c"},
		FirstTopic: "a",
		Dependencies: map[string][]string{
			"b": {"a"},
			"c": {"a", "b"},
		},
	}

	tests := []struct {
		name      string
		topic     content.Topic
		completed map[string]bool
		want      bool
	}{
		{"first topic with nothing done", content.Topic{ID: "a"}, nil, true},
		{"dependency unmet", content.Topic{ID: "b"}, nil, false},
		{"dependency met", content.Topic{ID: "b"}, map[string]bool{"a": true}, true},
		{"partial dependencies", content.Topic{ID: "c"}, map[string]bool{"a": true}, false},
		{"all dependencies", content.Topic{ID: "c"}, map[string]bool{"a": true, "b": true}, true},
		{"no dependency entry", content.Topic{ID: "z"}, nil, true},
		{"root topic bypasses dependencies", content.Topic{ID: "b", IsRoot: true}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := progress.UnlockedInCourse(course, tt.topic, tt.completed); got != tt.want {
				t.Errorf("UnlockedInCourse() = %v, want %v", got, tt.want)
			}
		})
	}
}
