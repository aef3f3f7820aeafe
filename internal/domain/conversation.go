package domain

// Turn is a single utterance in a session's history. The stored shape keeps
// the text inside a parts list, matching the on-disk conversation format.
// Turns are immutable once appended.
type Turn struct {
	Role  Role     `json:"role"`
	Parts []string `json:"parts"`
}

// NewTurn builds a single-part turn.
func NewTurn(role Role, text string) Turn {
	return Turn{Role: role, Parts: []string{text}}
}

// Text joins the turn's parts into one payload string.
func (t Turn) Text() string {
	switch len(t.Parts) {
	case 0:
		return ""
	case 1:
		return t.Parts[0]
	}
	out := t.Parts[0]
	for _, p := range t.Parts[1:] {
		out += p
	}
	return out
}

// Session is one conversation between a student and the tutor, scoped to
// exactly one account. Quiz is nil until a quiz has been generated and is
// only ever replaced wholesale by a fully validated one.
type Session struct {
	History []Turn `json:"history"`
	Quiz    *Quiz  `json:"quiz"`
}

// PairCount reports how many student/tutor exchanges the session holds.
// History is assumed to grow in pairs; an odd trailing turn is not counted.
func (s *Session) PairCount() int {
	return len(s.History) / 2
}

// ConversationState is the full persisted mapping of every account's
// sessions. It is loaded once and rewritten whole on each mutation.
type ConversationState map[Username]map[SessionID]*Session

// SessionSummary annotates a session for listing in the presentation layer.
type SessionSummary struct {
	ID        SessionID
	PairCount int
}
