package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/studyhallhq/tutor-agent/internal/domain"
)

// NewStores creates the Firestore-backed conversation and account stores
// sharing one client. Conversations live as one document per account under
// "conversations"; accounts as one document per account under "accounts".
func NewStores(ctx context.Context, projectID string) (*ConversationStore, *AccountStore, error) {
	if projectID == "" {
		return nil, nil, fmt.Errorf("projectID is required for Firestore stores")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &ConversationStore{client: client}, &AccountStore{client: client}, nil
}

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type turnDoc struct {
	Role  string   `firestore:"role"`
	Parts []string `firestore:"parts"`
}

type questionDoc struct {
	Question     string   `firestore:"question"`
	Options      []string `firestore:"options"`
	CorrectIndex int      `firestore:"correct_index"`
}

type quizDoc struct {
	Questions []questionDoc `firestore:"questions"`
}

type sessionDoc struct {
	History []turnDoc `firestore:"history"`
	Quiz    *quizDoc  `firestore:"quiz"`
}

type conversationDoc struct {
	Sessions map[string]sessionDoc `firestore:"sessions"`
}

type accountDoc struct {
	Credential string `firestore:"credential"`
}

// ─────────────────────────────────────────
// ConversationStore implementation
// ─────────────────────────────────────────

type ConversationStore struct {
	client *firestore.Client
}

func (s *ConversationStore) conversationsCol() *firestore.CollectionRef {
	return s.client.Collection("conversations")
}

func (s *ConversationStore) Load(ctx context.Context) (domain.ConversationState, error) {
	iter := s.conversationsCol().Documents(ctx)
	defer iter.Stop()

	state := domain.ConversationState{}
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore load conversations: %w", err)
		}

		var doc conversationDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode conversationDoc: %w", err)
		}

		username := domain.Username(snap.Ref.ID)
		state[username] = make(map[domain.SessionID]*domain.Session, len(doc.Sessions))
		for id, sd := range doc.Sessions {
			state[username][domain.SessionID(id)] = toSession(sd)
		}
	}
	return state, nil
}

func (s *ConversationStore) Save(ctx context.Context, state domain.ConversationState) error {
	for username, sessions := range state {
		doc := conversationDoc{Sessions: make(map[string]sessionDoc, len(sessions))}
		for id, sess := range sessions {
			doc.Sessions[string(id)] = toSessionDoc(sess)
		}

		if _, err := s.conversationsCol().Doc(string(username)).Set(ctx, doc); err != nil {
			return fmt.Errorf("firestore save conversations for %s: %w", username, err)
		}
	}
	return nil
}

func toSession(sd sessionDoc) *domain.Session {
	sess := &domain.Session{History: make([]domain.Turn, 0, len(sd.History))}
	for _, t := range sd.History {
		sess.History = append(sess.History, domain.Turn{Role: domain.Role(t.Role), Parts: t.Parts})
	}
	if sd.Quiz != nil {
		quiz := &domain.Quiz{}
		for _, q := range sd.Quiz.Questions {
			quiz.Questions = append(quiz.Questions, domain.Question{
				Prompt:       q.Question,
				Options:      q.Options,
				CorrectIndex: q.CorrectIndex,
			})
		}
		sess.Quiz = quiz
	}
	return sess
}

func toSessionDoc(sess *domain.Session) sessionDoc {
	sd := sessionDoc{History: make([]turnDoc, 0, len(sess.History))}
	for _, t := range sess.History {
		sd.History = append(sd.History, turnDoc{Role: string(t.Role), Parts: t.Parts})
	}
	if sess.Quiz != nil {
		qd := &quizDoc{}
		for _, q := range sess.Quiz.Questions {
			qd.Questions = append(qd.Questions, questionDoc{
				Question:     q.Prompt,
				Options:      q.Options,
				CorrectIndex: q.CorrectIndex,
			})
		}
		sd.Quiz = qd
	}
	return sd
}

// ─────────────────────────────────────────
// AccountStore implementation
// ─────────────────────────────────────────

type AccountStore struct {
	client *firestore.Client
}

func (s *AccountStore) accountsCol() *firestore.CollectionRef {
	return s.client.Collection("accounts")
}

func (s *AccountStore) Load(ctx context.Context) (map[domain.Username]string, error) {
	iter := s.accountsCol().Documents(ctx)
	defer iter.Stop()

	accounts := map[domain.Username]string{}
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			if status.Code(err) == codes.NotFound {
				return accounts, nil
			}
			return nil, fmt.Errorf("firestore load accounts: %w", err)
		}

		var doc accountDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode accountDoc: %w", err)
		}
		accounts[domain.Username(snap.Ref.ID)] = doc.Credential
	}
	return accounts, nil
}

func (s *AccountStore) Save(ctx context.Context, accounts map[domain.Username]string) error {
	for username, credential := range accounts {
		doc := accountDoc{Credential: credential}
		if _, err := s.accountsCol().Doc(string(username)).Set(ctx, doc); err != nil {
			return fmt.Errorf("firestore save account %s: %w", username, err)
		}
	}
	return nil
}
