package quiz

import (
	"context"

	"github.com/studyhallhq/tutor-agent/internal/domain"
	"github.com/studyhallhq/tutor-agent/internal/observability"
)

// Sessions is the slice of the session manager the pipeline needs: reading
// a transcript and swapping in a validated quiz.
type Sessions interface {
	History(username domain.Username, id domain.SessionID) ([]domain.Turn, error)
	ReplaceQuiz(ctx context.Context, username domain.Username, id domain.SessionID, quiz *domain.Quiz) error
}

// Service runs the quiz generation pipeline against the text service.
type Service struct {
	llm      domain.TextGenerator
	sessions Sessions
}

func NewService(llm domain.TextGenerator, sessions Sessions) *Service {
	return &Service{llm: llm, sessions: sessions}
}

// Generate builds a quiz from the session's transcript. The pipeline is a
// single pass with no retry: precondition, prompt, one service call, fence
// strip, parse, layered validation, then a wholesale quiz replacement.
// On any failure the session's existing quiz is left untouched.
func (s *Service) Generate(ctx context.Context, username domain.Username, id domain.SessionID) (*domain.Quiz, error) {
	log := observability.LoggerFromContext(ctx).With("session_id", id)

	history, err := s.sessions.History(username, id)
	if err != nil {
		return nil, err
	}

	if len(history) < minHistoryTurns {
		return nil, &domain.QuizError{
			Kind:   domain.QuizErrInsufficientHistory,
			Reason: "keep chatting a bit more before generating a quiz",
		}
	}

	raw, err := s.llm.Generate(ctx, buildPrompt(history))
	if err != nil {
		log.Error("quiz generation call failed", "error", err)
		return nil, &domain.QuizError{Kind: domain.QuizErrServiceUnavailable, Err: err}
	}

	quiz, err := parseQuiz(raw)
	if err != nil {
		if qe, ok := domain.AsQuizError(err); ok {
			log.Warn("quiz response rejected", "kind", qe.Kind, "reason", qe.Reason)
		}
		return nil, err
	}

	if err := s.sessions.ReplaceQuiz(ctx, username, id, quiz); err != nil {
		return nil, err
	}

	log.Info("quiz generated", "questions", len(quiz.Questions))
	return quiz, nil
}
