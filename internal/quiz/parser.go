package quiz

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/apperr"
)

// QuestionCount is the fixed quiz length. Provider output with any
// other number of valid questions is rejected.
const QuestionCount = 10

// Question is one multiple-choice quiz question. Answer indexes into
// Options.
type Question struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   int      `json:"answer"`
}

const questionSchema = `{
	"type": "array",
	"minItems": 10,
	"maxItems": 10,
	"items": {
		"type": "object",
		"required": ["question", "options", "answer"],
		"properties": {
			"question": {"type": "string", "minLength": 1},
			"options": {
				"type": "array",
				"minItems": 4,
				"maxItems": 4,
				"items": {"type": "string"}
			},
			"answer": {"type": "integer", "minimum": 0, "maximum": 3}
		}
	}
}`

var schemaLoader = gojsonschema.NewStringLoader(questionSchema)

var (
	questionLine = regexp.MustCompile(`^\s*(\d+)[.)]\s*(.+)$`)
	optionLine   = regexp.MustCompile(`^\s*([A-Da-d])[.)]\s*(.+)$`)
	answerLine   = regexp.MustCompile(`(?i)^\s*answer\s*[:\-]?\s*([A-D1-4])`)
)

// Parse turns provider output into exactly ten questions. It first
// tries strict JSON (after stripping markdown code fences), then falls
// back to a line-oriented "1. question / A..D options / Answer: X"
// layout. If neither yields ten valid questions the raw text is
// included in the error so callers can surface it.
func Parse(raw string) ([]Question, error) {
	text := stripCodeFences(raw)

	if qs, err := parseJSON(text); err == nil {
		return qs, nil
	}

	if qs := parseLines(text); len(qs) == QuestionCount {
		return qs, nil
	}

	return nil, fmt.Errorf("%w: provider returned unusable quiz content: %s", apperr.ErrExternalService, raw)
}

func parseJSON(text string) ([]Question, error) {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewStringLoader(text))
	if err != nil {
		return nil, fmt.Errorf("validating quiz JSON: %w", err)
	}
	if !result.Valid() {
		return nil, fmt.Errorf("quiz JSON does not match schema: %v", result.Errors())
	}

	var qs []Question
	if err := json.Unmarshal([]byte(text), &qs); err != nil {
		return nil, fmt.Errorf("decoding quiz JSON: %w", err)
	}
	return qs, nil
}

// parseLines recovers questions from plain-text provider output. A
// question is kept only once its number line, four options and answer
// line have all been seen.
func parseLines(text string) []Question {
	var (
		questions []Question
		current   *Question
	)

	flush := func() {
		if current != nil && current.Question != "" && len(current.Options) == 4 && current.Answer >= 0 {
			questions = append(questions, *current)
		}
		current = nil
	}

	for _, line := range strings.Split(text, "\n") {
		if m := questionLine.FindStringSubmatch(line); m != nil {
			flush()
			current = &Question{Question: strings.TrimSpace(m[2]), Answer: -1}
			continue
		}
		if current == nil {
			continue
		}
		if m := optionLine.FindStringSubmatch(line); m != nil && len(current.Options) < 4 {
			current.Options = append(current.Options, strings.TrimSpace(m[2]))
			continue
		}
		if m := answerLine.FindStringSubmatch(line); m != nil {
			current.Answer = answerIndex(m[1])
		}
	}
	flush()
	return questions
}

func answerIndex(s string) int {
	s = strings.ToUpper(s)
	switch {
	case s >= "A" && s <= "D":
		return int(s[0] - 'A')
	case s >= "1" && s <= "4":
		return int(s[0] - '1')
	default:
		return -1
	}
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
