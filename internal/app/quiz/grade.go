package quiz

import "github.com/studyhallhq/tutor-agent/internal/domain"

// AnswerState distinguishes a wrong pick from no pick at all, so the
// presentation layer can render the two differently.
type AnswerState string

const (
	AnswerCorrect    AnswerState = "correct"
	AnswerIncorrect  AnswerState = "incorrect"
	AnswerUnanswered AnswerState = "unanswered"
)

// QuestionResult is the per-question outcome of a grading pass.
type QuestionResult struct {
	State    AnswerState
	Selected string
}

// GradingResult is ephemeral: recomputed on every render, never stored.
type GradingResult struct {
	Results []QuestionResult
	Correct int
	Total   int
}

// Score returns the fraction of questions answered correctly.
func (r GradingResult) Score() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Correct) / float64(r.Total)
}

// Grade scores submitted answers against a quiz. Correctness is string
// identity with the displayed option at correct_index, and unanswered
// questions count as incorrect while staying distinguishable. Pure: the
// same quiz and answers always produce the same result.
func Grade(quiz *domain.Quiz, answers map[int]string) GradingResult {
	result := GradingResult{Total: len(quiz.Questions)}

	for i, q := range quiz.Questions {
		selected, answered := answers[i]

		qr := QuestionResult{Selected: selected}
		switch {
		case !answered:
			qr.State = AnswerUnanswered
		case selected == q.Options[q.CorrectIndex]:
			qr.State = AnswerCorrect
			result.Correct++
		default:
			qr.State = AnswerIncorrect
		}
		result.Results = append(result.Results, qr)
	}

	return result
}
