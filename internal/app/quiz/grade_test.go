package quiz_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhallhq/tutor-agent/internal/app/quiz"
	"github.com/studyhallhq/tutor-agent/internal/domain"
)

func twoQuestionQuiz() *domain.Quiz {
	return &domain.Quiz{Questions: []domain.Question{
		{Prompt: "Q1?", Options: []string{"a", "b", "c", "d"}, CorrectIndex: 2},
		{Prompt: "Q2?", Options: []string{"w", "x", "y", "z"}, CorrectIndex: 0},
	}}
}

func TestGradeMatchesDisplayedOption(t *testing.T) {
	qz := twoQuestionQuiz()

	result := quiz.Grade(qz, map[int]string{0: "c", 1: "x"})
	require.Len(t, result.Results, 2)

	assert.Equal(t, quiz.AnswerCorrect, result.Results[0].State)
	assert.Equal(t, quiz.AnswerIncorrect, result.Results[1].State)
	assert.Equal(t, 1, result.Correct)
	assert.Equal(t, 2, result.Total)
	assert.InDelta(t, 0.5, result.Score(), 1e-9)
}

func TestGradeUnansweredIsDistinctFromWrong(t *testing.T) {
	qz := twoQuestionQuiz()

	result := quiz.Grade(qz, map[int]string{0: "c"})
	assert.Equal(t, quiz.AnswerCorrect, result.Results[0].State)
	assert.Equal(t, quiz.AnswerUnanswered, result.Results[1].State)
	assert.Equal(t, 1, result.Correct)
}

func TestGradeIsPure(t *testing.T) {
	qz := twoQuestionQuiz()
	answers := map[int]string{0: "a", 1: "w"}

	first := quiz.Grade(qz, answers)
	second := quiz.Grade(qz, answers)
	assert.Equal(t, first, second)
}

func TestGradeEmptyQuiz(t *testing.T) {
	result := quiz.Grade(&domain.Quiz{}, nil)
	assert.Zero(t, result.Total)
	assert.Zero(t, result.Score())
}
