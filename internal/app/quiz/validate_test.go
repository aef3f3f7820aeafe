package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhallhq/tutor-agent/internal/domain"
)

func TestStripCodeFence(t *testing.T) {
	cases := map[string]struct {
		in   string
		want string
	}{
		"no fence":        {`{"a": 1}`, `{"a": 1}`},
		"plain fence":     {"```\n{\"a\": 1}\n```", `{"a": 1}`},
		"json fence":      {"```json\n{\"a\": 1}\n```", `{"a": 1}`},
		"uppercase fence": {"```JSON\n{\"a\": 1}\n```", `{"a": 1}`},
		"padded":          {"  ```json\n{\"a\": 1}\n```  ", `{"a": 1}`},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, stripCodeFence(tc.in))
		})
	}
}

func TestParseQuizReportsFirstViolation(t *testing.T) {
	cases := map[string]struct {
		in     string
		kind   domain.QuizErrorKind
		reason string
	}{
		"not json": {
			in:   "hello there",
			kind: domain.QuizErrMalformedResponse,
		},
		"top-level array": {
			in:     `[{"question": "Q?"}]`,
			kind:   domain.QuizErrInvalidShape,
			reason: "object",
		},
		"questions not a list": {
			in:     `{"questions": "Q?"}`,
			kind:   domain.QuizErrInvalidShape,
			reason: "list",
		},
		"missing options": {
			in:     `{"questions": [{"question": "Q?", "correct_index": 0}]}`,
			kind:   domain.QuizErrInvalidShape,
			reason: `missing "options"`,
		},
		"missing correct_index": {
			in:     `{"questions": [{"question": "Q?", "options": ["a", "b", "c", "d"]}]}`,
			kind:   domain.QuizErrInvalidShape,
			reason: `missing "correct_index"`,
		},
		"negative index": {
			in:     `{"questions": [{"question": "Q?", "options": ["a", "b", "c", "d"], "correct_index": -1}]}`,
			kind:   domain.QuizErrInvalidShape,
			reason: "out of range",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parseQuiz(tc.in)
			qe, ok := domain.AsQuizError(err)
			require.True(t, ok)
			assert.Equal(t, tc.kind, qe.Kind)
			assert.Equal(t, tc.in, qe.Raw)
			if tc.reason != "" {
				assert.Contains(t, qe.Reason, tc.reason)
			}
		})
	}
}

func TestParseQuizShortCircuitsOnFirstBadQuestion(t *testing.T) {
	in := `{"questions": [
		{"question": "Q1?", "options": ["a", "b", "c", "d"], "correct_index": 3},
		{"question": "Q2?", "options": ["a", "b"], "correct_index": 0},
		{"question": "Q3?"}
	]}`

	_, err := parseQuiz(in)
	qe, ok := domain.AsQuizError(err)
	require.True(t, ok)
	assert.Contains(t, qe.Reason, "question 2")
}
