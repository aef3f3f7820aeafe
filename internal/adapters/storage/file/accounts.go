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

// AccountStore is the flat username -> credential-hash mapping, same
// read-empty / write-overwrite discipline as the conversation store.
type AccountStore struct {
	path string
}

func NewAccountStore(dir string) *AccountStore {
	return &AccountStore{path: filepath.Join(dir, "accounts.json")}
}

func (s *AccountStore) Load(ctx context.Context) (map[domain.Username]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[domain.Username]string{}, nil
		}
		observability.LoggerFromContext(ctx).Warn("account store unreadable, starting empty",
			"path", s.path, "error", err)
		return map[domain.Username]string{}, nil
	}

	accounts := map[domain.Username]string{}
	if err := json.Unmarshal(data, &accounts); err != nil {
		observability.LoggerFromContext(ctx).Warn("account store corrupt, starting empty",
			"path", s.path, "error", err)
		return map[domain.Username]string{}, nil
	}
	return accounts, nil
}

func (s *AccountStore) Save(ctx context.Context, accounts map[domain.Username]string) error {
	data, err := json.MarshalIndent(accounts, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding accounts: %w", err)
	}
	return writeFileAtomic(s.path, data)
}
