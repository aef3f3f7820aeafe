package quiz

import (
	"fmt"
	"strings"

	"github.com/studyhallhq/tutor-agent/internal/domain"
)

// minHistoryTurns is the eligibility threshold for quiz generation:
// two full student/tutor exchanges.
const minHistoryTurns = 4

const questionCount = 5
const optionCount = 4

const quizPromptFormat = `You are given the transcript of a tutoring conversation between a student and a tutor.

%s

Create a quiz of exactly %d multiple-choice questions that tests the student on what was discussed above. Each question must have exactly %d options and indicate the correct one.

Respond with valid JSON only, no surrounding prose, no explanations, using exactly this shape:

{
  "questions": [
    {
      "question": "string",
      "options": ["string", "string", "string", "string"],
      "correct_index": 0
    }
  ]
}`

// renderTranscript flattens the session history into a labeled plain-text
// transcript, preserving turn order.
func renderTranscript(history []domain.Turn) string {
	var b strings.Builder
	b.WriteString("--- Transcript ---\n")
	for _, t := range history {
		label := "Student"
		if t.Role == domain.RoleTutor {
			label = "Tutor"
		}
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(t.Text())
		b.WriteString("\n")
	}
	b.WriteString("--- End of transcript ---")
	return b.String()
}

func buildPrompt(history []domain.Turn) string {
	return fmt.Sprintf(quizPromptFormat, renderTranscript(history), questionCount, optionCount)
}
