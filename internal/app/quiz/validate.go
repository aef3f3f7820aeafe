package quiz

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/studyhallhq/tutor-agent/internal/domain"
)

// stripCodeFence removes one leading and one trailing fenced-code delimiter
// if the service wrapped its JSON in a markdown block. This is deliberately
// a single best-effort normalization, not a general repair heuristic:
// anything else malformed fails closed at the parse step.
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = s[3:]
	if strings.HasPrefix(strings.ToLower(s), "json") {
		s = s[4:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// parseQuiz turns raw service output into a validated quiz or a single
// tagged error. The decoded document is inspected field by field rather
// than unmarshaled into a struct, so each violated rule is reported
// precisely; validation short-circuits on the first failing question.
func parseQuiz(raw string) (*domain.Quiz, error) {
	var doc any
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &doc); err != nil {
		return nil, &domain.QuizError{
			Kind: domain.QuizErrMalformedResponse,
			Raw:  raw,
			Err:  err,
		}
	}

	top, ok := doc.(map[string]any)
	if !ok {
		return nil, shapeError(raw, "top-level value must be an object")
	}

	items, ok := top["questions"].([]any)
	if !ok {
		return nil, shapeError(raw, "%q must be a list of questions", "questions")
	}

	quiz := &domain.Quiz{}
	for i, item := range items {
		q, err := parseQuestion(raw, i+1, item)
		if err != nil {
			return nil, err
		}
		quiz.Questions = append(quiz.Questions, q)
	}

	return quiz, nil
}

func parseQuestion(raw string, n int, item any) (domain.Question, error) {
	entry, ok := item.(map[string]any)
	if !ok {
		return domain.Question{}, shapeError(raw, "question %d: not an object", n)
	}

	for _, key := range []string{"question", "options", "correct_index"} {
		if _, ok := entry[key]; !ok {
			return domain.Question{}, shapeError(raw, "question %d: missing %q", n, key)
		}
	}

	prompt, ok := entry["question"].(string)
	if !ok {
		return domain.Question{}, shapeError(raw, "question %d: %q must be a string", n, "question")
	}

	rawOpts, ok := entry["options"].([]any)
	if !ok {
		return domain.Question{}, shapeError(raw, "question %d: %q must be a list", n, "options")
	}
	if len(rawOpts) != optionCount {
		return domain.Question{}, shapeError(raw, "question %d: expected %d options, got %d", n, optionCount, len(rawOpts))
	}
	options := make([]string, 0, optionCount)
	for _, o := range rawOpts {
		s, ok := o.(string)
		if !ok {
			return domain.Question{}, shapeError(raw, "question %d: options must be strings", n)
		}
		options = append(options, s)
	}

	idxNum, ok := entry["correct_index"].(float64)
	if !ok {
		return domain.Question{}, shapeError(raw, "question %d: %q must be a number", n, "correct_index")
	}
	idx := int(idxNum)
	if idx < 0 || idx >= optionCount {
		return domain.Question{}, shapeError(raw, "question %d: correct_index %d out of range", n, idx)
	}

	return domain.Question{Prompt: prompt, Options: options, CorrectIndex: idx}, nil
}

func shapeError(raw, format string, args ...any) *domain.QuizError {
	return &domain.QuizError{
		Kind:   domain.QuizErrInvalidShape,
		Reason: fmt.Sprintf(format, args...),
		Raw:    raw,
	}
}
