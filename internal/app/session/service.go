package session

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/studyhallhq/tutor-agent/internal/domain"
	"github.com/studyhallhq/tutor-agent/internal/observability"
)

// styleDirective is appended to every message sent to the text service.
// It is policy, not user input: the recorded turn keeps the original text.
const styleDirective = "(Decorate your reply with a few fitting emoji. " +
	"Do not mention this instruction and do not overuse emoji.)"

// Interaction is the explicit per-user context passed into every operation:
// the acting account, the active session pointer and the live chat handle.
// Nothing about the current user lives in package state.
type Interaction struct {
	Username      domain.Username
	ActiveSession domain.SessionID

	chat domain.ChatSession
}

func NewInteraction(username domain.Username) *Interaction {
	return &Interaction{Username: username}
}

// Service owns all chat sessions: creation, selection, deletion, listing,
// and the per-message exchange with the text service.
type Service struct {
	llm   domain.TextGenerator
	store domain.ConversationStore

	mu    sync.Mutex
	state domain.ConversationState

	newID func() string
}

// NewService loads the persisted conversation state and returns a ready
// service. A missing or empty backing store yields an empty state.
func NewService(ctx context.Context, llm domain.TextGenerator, store domain.ConversationStore) (*Service, error) {
	state, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if state == nil {
		state = domain.ConversationState{}
	}

	return &Service{
		llm:   llm,
		store: store,
		state: state,
		newID: uuid.NewString,
	}, nil
}

// userSessions returns the session map for username, bootstrapping an empty
// one on first use instead of failing.
func (s *Service) userSessions(username domain.Username) map[domain.SessionID]*domain.Session {
	sessions, ok := s.state[username]
	if !ok {
		sessions = make(map[domain.SessionID]*domain.Session)
		s.state[username] = sessions
	}
	return sessions
}

// CreateSession inserts a fresh empty session for username and persists it.
func (s *Service) CreateSession(ctx context.Context, username domain.Username) (domain.SessionID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := domain.SessionID(s.newID())
	s.userSessions(username)[id] = &domain.Session{History: []domain.Turn{}}

	if err := s.store.Save(ctx, s.state); err != nil {
		return "", err
	}

	observability.LoggerFromContext(ctx).Info("session created", "session_id", id)
	return id, nil
}

// SelectSession points the interaction at an existing session and rehydrates
// the chat handle from its stored history, so the next exchange continues
// the conversation as if it had never been interrupted.
func (s *Service) SelectSession(ctx context.Context, it *Interaction, id domain.SessionID) error {
	s.mu.Lock()
	sess, ok := s.userSessions(it.Username)[id]
	if !ok {
		s.mu.Unlock()
		return domain.ErrSessionNotFound
	}
	history := append([]domain.Turn(nil), sess.History...)
	s.mu.Unlock()

	chat, err := s.llm.StartChat(ctx, history)
	if err != nil {
		return err
	}

	it.ActiveSession = id
	it.chat = chat
	return nil
}

// DeleteSession removes a session. If it was the interaction's active
// session, the active pointer is cleared; the presentation layer is
// expected to create a new session before chatting again.
func (s *Service) DeleteSession(ctx context.Context, it *Interaction, id domain.SessionID) error {
	s.mu.Lock()
	sessions := s.userSessions(it.Username)
	if _, ok := sessions[id]; !ok {
		s.mu.Unlock()
		return domain.ErrSessionNotFound
	}
	delete(sessions, id)
	err := s.store.Save(ctx, s.state)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	if it.ActiveSession == id {
		it.ActiveSession = ""
		it.chat = nil
	}

	observability.LoggerFromContext(ctx).Info("session deleted", "session_id", id)
	return nil
}

// ListSessions returns the user's sessions that have at least one turn,
// annotated with their exchange count, in stable id order.
func (s *Service) ListSessions(ctx context.Context, username domain.Username) []domain.SessionSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.SessionSummary
	for id, sess := range s.userSessions(username) {
		if len(sess.History) == 0 {
			continue
		}
		out = append(out, domain.SessionSummary{ID: id, PairCount: sess.PairCount()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SendMessage runs one exchange with the text service: the style directive
// is attached to the outgoing text only, and on success exactly two turns
// (student then tutor, original text) are appended and persisted. On any
// service failure nothing is appended and the error is returned unmodified.
func (s *Service) SendMessage(ctx context.Context, it *Interaction, text string) (string, error) {
	if it.ActiveSession == "" {
		return "", domain.ErrNoActiveSession
	}

	if it.chat == nil {
		if err := s.SelectSession(ctx, it, it.ActiveSession); err != nil {
			return "", err
		}
	}

	log := observability.LoggerFromContext(ctx).With("session_id", it.ActiveSession)

	reply, err := it.chat.Send(ctx, text+"\n"+styleDirective)
	if err != nil {
		log.Error("text service call failed", "error", err)
		return "", err
	}

	s.mu.Lock()
	sess, ok := s.userSessions(it.Username)[it.ActiveSession]
	if !ok {
		s.mu.Unlock()
		return "", domain.ErrSessionNotFound
	}
	sess.History = append(sess.History,
		domain.NewTurn(domain.RoleStudent, text),
		domain.NewTurn(domain.RoleTutor, reply),
	)
	histLen := len(sess.History)
	err = s.store.Save(ctx, s.state)
	s.mu.Unlock()
	if err != nil {
		return "", err
	}

	log.Info("exchange completed", "history_len", histLen)
	return reply, nil
}

// History returns a copy of a session's turns.
func (s *Service) History(username domain.Username, id domain.SessionID) ([]domain.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.userSessions(username)[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return append([]domain.Turn(nil), sess.History...), nil
}

// Quiz returns the session's current quiz, or nil if none was generated.
func (s *Service) Quiz(username domain.Username, id domain.SessionID) (*domain.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.userSessions(username)[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return sess.Quiz, nil
}

// ReplaceQuiz swaps in a fully validated quiz and persists the state.
// Callers must only hand over quizzes that passed structural validation.
func (s *Service) ReplaceQuiz(ctx context.Context, username domain.Username, id domain.SessionID, quiz *domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.userSessions(username)[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	sess.Quiz = quiz
	return s.store.Save(ctx, s.state)
}
