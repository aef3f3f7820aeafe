package memory

import (
	"context"
	"sync"

	"github.com/studyhallhq/tutor-agent/internal/domain"
)

// ConversationStore is the in-memory backend for tests and local mode.
// Save keeps a deep copy so later mutations of the live state don't leak
// into what a future Load returns.
type ConversationStore struct {
	mu    sync.RWMutex
	state domain.ConversationState

	SaveCalls int
}

func NewConversationStore() *ConversationStore {
	return &ConversationStore{state: domain.ConversationState{}}
}

func (s *ConversationStore) Load(ctx context.Context) (domain.ConversationState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyState(s.state), nil
}

func (s *ConversationStore) Save(ctx context.Context, state domain.ConversationState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = copyState(state)
	s.SaveCalls++
	return nil
}

func copyState(in domain.ConversationState) domain.ConversationState {
	out := make(domain.ConversationState, len(in))
	for username, sessions := range in {
		out[username] = make(map[domain.SessionID]*domain.Session, len(sessions))
		for id, sess := range sessions {
			cp := &domain.Session{
				History: append([]domain.Turn(nil), sess.History...),
			}
			if sess.Quiz != nil {
				q := domain.Quiz{Questions: append([]domain.Question(nil), sess.Quiz.Questions...)}
				cp.Quiz = &q
			}
			out[username][id] = cp
		}
	}
	return out
}

// AccountStore is the in-memory username -> credential-hash mapping.
type AccountStore struct {
	mu       sync.RWMutex
	accounts map[domain.Username]string
}

func NewAccountStore() *AccountStore {
	return &AccountStore{accounts: map[domain.Username]string{}}
}

func (s *AccountStore) Load(ctx context.Context) (map[domain.Username]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[domain.Username]string, len(s.accounts))
	for k, v := range s.accounts {
		out[k] = v
	}
	return out, nil
}

func (s *AccountStore) Save(ctx context.Context, accounts map[domain.Username]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = make(map[domain.Username]string, len(accounts))
	for k, v := range accounts {
		s.accounts[k] = v
	}
	return nil
}
