package content

import (
	"fmt"

	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/apperr"
)

// The prerequisite relation must stay acyclic: a cycle would leave every
// topic on it permanently locked. Edges are checked at authoring time and
// rejected rather than detected lazily.

// ValidatePrerequisites rejects a prerequisite set for node that would
// close a cycle. edges maps a node id to its current prerequisite ids.
func ValidatePrerequisites(node string, deps []string, edges func(string) []string) error {
	for _, d := range deps {
		if d == node {
			return fmt.Errorf("topic %s cannot require itself: %w", node, apperr.ErrValidation)
		}
	}
	if wouldCycle(node, deps, edges) {
		return fmt.Errorf("prerequisite cycle through topic %s: %w", node, apperr.ErrValidation)
	}
	return nil
}

// wouldCycle reports whether making node depend on deps closes a cycle in
// the relation described by edges (node id -> its prerequisite ids).
func wouldCycle(node string, deps []string, edges func(string) []string) bool {
	seen := map[string]bool{}
	var visit func(id string) bool
	visit = func(id string) bool {
		if id == node {
			return true
		}
		if seen[id] {
			return false
		}
		seen[id] = true
		for _, next := range edges(id) {
			if visit(next) {
				return true
			}
		}
		return false
	}
	for _, d := range deps {
		if visit(d) {
			return true
		}
	}
	return false
}
