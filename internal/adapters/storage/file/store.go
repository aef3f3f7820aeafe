package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/studyhallhq/tutor-agent/internal/domain"
	"github.com/studyhallhq/tutor-agent/internal/observability"
)

// ConversationStore keeps every account's sessions in one JSON file that is
// rewritten whole on each save. Last writer wins across processes; the
// deployment target is one interactive user per process.
type ConversationStore struct {
	path string
}

func NewConversationStore(dir string) *ConversationStore {
	return &ConversationStore{path: filepath.Join(dir, "conversations.json")}
}

// sessionRecord is the on-disk session shape. Legacy records were a bare
// turn list with no quiz slot; UnmarshalJSON upgrades those transparently,
// keeping every turn. The upgrade is idempotent: re-reading an upgraded
// record goes through the object branch unchanged.
type sessionRecord struct {
	History []domain.Turn `json:"history"`
	Quiz    *domain.Quiz  `json:"quiz"`
}

func (r *sessionRecord) UnmarshalJSON(data []byte) error {
	type plain sessionRecord
	var p plain
	objErr := json.Unmarshal(data, &p)
	if objErr == nil {
		*r = sessionRecord(p)
		return nil
	}

	var turns []domain.Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		return objErr
	}
	r.History = turns
	r.Quiz = nil
	return nil
}

// Load reads the whole conversation state. A missing file is an empty
// state; an unreadable or corrupt file is also treated as empty rather
// than propagated, with a logged warning.
func (s *ConversationStore) Load(ctx context.Context) (domain.ConversationState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.ConversationState{}, nil
		}
		observability.LoggerFromContext(ctx).Warn("conversation store unreadable, starting empty",
			"path", s.path, "error", err)
		return domain.ConversationState{}, nil
	}

	var raw map[domain.Username]map[domain.SessionID]*sessionRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		observability.LoggerFromContext(ctx).Warn("conversation store corrupt, starting empty",
			"path", s.path, "error", err)
		return domain.ConversationState{}, nil
	}

	state := domain.ConversationState{}
	for username, sessions := range raw {
		state[username] = make(map[domain.SessionID]*domain.Session, len(sessions))
		for id, rec := range sessions {
			if rec == nil {
				rec = &sessionRecord{}
			}
			history := rec.History
			if history == nil {
				history = []domain.Turn{}
			}
			state[username][id] = &domain.Session{History: history, Quiz: rec.Quiz}
		}
	}
	return state, nil
}

// Save overwrites the backing file with the full state.
func (s *ConversationStore) Save(ctx context.Context, state domain.ConversationState) error {
	raw := make(map[domain.Username]map[domain.SessionID]*sessionRecord, len(state))
	for username, sessions := range state {
		raw[username] = make(map[domain.SessionID]*sessionRecord, len(sessions))
		for id, sess := range sessions {
			raw[username][id] = &sessionRecord{History: sess.History, Quiz: sess.Quiz}
		}
	}

	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding conversation state: %w", err)
	}
	return writeFileAtomic(s.path, data)
}

// writeFileAtomic writes via a temp file and rename so a crash mid-write
// never leaves a half-written store behind.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
