package progress

import (
	"log/slog"
	"math"

	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/content"
	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/learner"
)

// Percentage converts a completed/total pair into an integer percentage,
// rounded to the nearest whole number. A zero total yields 0.
func Percentage(total, completed int) int {
	if total <= 0 {
		return 0
	}
	p := int(math.Round(float64(completed) / float64(total) * 100))
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// CourseProgress summarizes how much of a course a learner has viewed.
// Course-level progress tracks viewing, not completion.
type CourseProgress struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	TotalTopics  int    `json:"totalTopics"`
	ViewedTopics int    `json:"viewedTopics"`
	Percentage   int    `json:"percentage"`
}

// CourseProgressFor computes per-course viewing progress for a learner
// across all courses.
func CourseProgressFor(courses []content.Course, user *learner.User) []CourseProgress {
	viewed := user.ViewedSet()
	out := make([]CourseProgress, 0, len(courses))
	for _, course := range courses {
		viewedCount := 0
		for _, tid := range course.Topics {
			if viewed[tid] {
				viewedCount++
			}
		}
		out = append(out, CourseProgress{
			ID:           course.ID,
			Title:        course.Title,
			Description:  course.Description,
			TotalTopics:  len(course.Topics),
			ViewedTopics: viewedCount,
			Percentage:   Percentage(len(course.Topics), viewedCount),
		})
	}
	return out
}

// PathProgress summarizes a learner's completion of a learning path.
// Path-level progress tracks completion, not viewing.
type PathProgress struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	TotalTopics     int    `json:"totalTopics"`
	CompletedTopics int    `json:"completedTopics"`
	Percentage      int    `json:"percentage"`
}

// PathProgressFor computes completion progress over each given path.
// Malformed topic references contribute to neither total nor completed;
// each skip is logged for diagnosis.
func PathProgressFor(paths []content.LearningPath, user *learner.User) []PathProgress {
	completed := user.CompletedSet()
	out := make([]PathProgress, 0, len(paths))
	for _, p := range paths {
		total, done := 0, 0
		for _, ref := range p.Topics {
			if !ref.Valid() {
				slog.Warn("skipping malformed topic reference in path progress",
					"path_id", p.ID, "path_title", p.Title)
				continue
			}
			total++
			if completed[ref.ID] {
				done++
			}
		}
		out = append(out, PathProgress{
			ID:              p.ID,
			Title:           p.Title,
			TotalTopics:     total,
			CompletedTopics: done,
			Percentage:      Percentage(total, done),
		})
	}
	return out
}
