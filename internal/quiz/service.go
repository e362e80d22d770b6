package quiz

import (
	"context"
	"fmt"
	"strings"

	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/content"
)

// Service generates quizzes for courses.
type Service struct {
	provider Provider
	content  content.Store
}

func NewService(provider Provider, store content.Store) *Service {
	return &Service{provider: provider, content: store}
}

// Generate builds a ten-question quiz covering the course's topics.
func (s *Service) Generate(ctx context.Context, courseID string) ([]Question, error) {
	course, err := s.content.GetCourse(courseID)
	if err != nil {
		return nil, err
	}

	topics, err := s.content.TopicsByIDs(course.Topics)
	if err != nil {
		return nil, err
	}
	titles := make([]string, 0, len(topics))
	for _, t := range topics {
		titles = append(titles, t.Title)
	}

	raw, err := s.provider.Complete(ctx, buildPrompt(course.Title, titles))
	if err != nil {
		return nil, fmt.Errorf("quiz provider: %w", err)
	}
	return Parse(raw)
}

func buildPrompt(courseTitle string, topicTitles []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate a quiz of exactly %d multiple-choice questions for the course %q", QuestionCount, courseTitle)
	if len(topicTitles) > 0 {
		fmt.Fprintf(&b, " covering these topics: %s", strings.Join(topicTitles, ", "))
	}
	b.WriteString(". Respond with ONLY a JSON array of ")
	fmt.Fprintf(&b, "%d objects, each {\"question\": string, \"options\": [4 strings], \"answer\": index 0-3 of the correct option}. ", QuestionCount)
	b.WriteString("No markdown, no explanations.")
	return b.String()
}
