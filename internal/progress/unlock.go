// Package progress decides what a learner can access and how far along
// they are. Unlock checks and percentage aggregation are pure functions
// of current state; the service wires them to the stores.
package progress

import (
	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/content"
)

// UnlockedInPath reports whether a topic is accessible inside a learning
// path. The first topic in the path's ordered list is always unlocked;
// any other topic unlocks once every prerequisite is in the completed
// set. A topic with no prerequisites is always unlocked.
func UnlockedInPath(path content.LearningPath, topic content.Topic, completed map[string]bool) bool {
	if len(path.Topics) > 0 && path.Topics[0].Valid() && path.Topics[0].ID == topic.ID {
		return true
	}
	for _, prereq := range topic.Prerequisites {
		if !completed[prereq] {
			return false
		}
	}
	return true
}

// UnlockedInCourse reports whether a subject is accessible inside a
// course. The course's designated first topic and any root-flagged topic
// are always unlocked; otherwise the course-scoped dependency entry for
// the subject decides: no entry or no required subjects means unlocked,
// else every required subject must be completed.
func UnlockedInCourse(course content.Course, topic content.Topic, completed map[string]bool) bool {
	if course.FirstTopic != "" && course.FirstTopic == topic.ID {
		return true
	}
	if topic.IsRoot {
		return true
	}
	required := course.Dependencies[topic.ID]
	for _, subj := range required {
		if !completed[subj] {
			return false
		}
	}
	return true
}
