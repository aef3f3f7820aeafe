package domain

import "context"

// TextGenerator defines how the core talks to the generative text service.
// Both call shapes the core consumes are covered: single-shot generation
// (quiz prompts) and a stateful chat initialized with prior turns.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	StartChat(ctx context.Context, history []Turn) (ChatSession, error)
}

// ChatSession carries the service's own conversational context. A handle is
// always reconstructed from stored history when a session is re-selected;
// the contract is that a rehydrated chat behaves like an uninterrupted one.
type ChatSession interface {
	Send(ctx context.Context, text string) (string, error)
}

// ConversationStore persists the full conversation state for all accounts.
// Load must tolerate an absent backing store (empty state) and upgrade
// legacy bare-turn-list session records into the {history, quiz} shape.
type ConversationStore interface {
	Load(ctx context.Context) (ConversationState, error)
	Save(ctx context.Context, state ConversationState) error
}

// AccountStore persists the username -> credential-hash mapping with the
// same read-empty / write-overwrite discipline as the conversation store.
type AccountStore interface {
	Load(ctx context.Context) (map[Username]string, error)
	Save(ctx context.Context, accounts map[Username]string) error
}
