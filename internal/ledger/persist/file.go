package persist

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"escrow-giveaway-bot/internal/ledger"
)

// FileStore keeps the ledger as a pretty-printed JSON snapshot on disk.
// When the existing file cannot be parsed it is preserved as <path>.bak
// and a fresh ledger is started.
type FileStore struct {
	path string
	log  zerolog.Logger
}

func NewFileStore(path string, log zerolog.Logger) *FileStore {
	return &FileStore{path: path, log: log}
}

func (f *FileStore) Save(ctx context.Context, l *ledger.Ledger) error {
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.path, data, 0o644)
}

func (f *FileStore) Load(ctx context.Context) (*ledger.Ledger, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ledger.NewLedger(), nil
		}
		return nil, err
	}

	l := &ledger.Ledger{}
	if err := json.Unmarshal(data, l); err != nil {
		f.log.Error().Err(err).Str("path", f.path).Msg("ledger file corrupt, backing up and starting fresh")
		if werr := os.WriteFile(f.path+".bak", data, 0o644); werr != nil {
			f.log.Error().Err(werr).Msg("failed to write ledger backup")
		}
		return ledger.NewLedger(), nil
	}
	return l, nil
}

func (f *FileStore) Healthy(ctx context.Context) error {
	dir := filepath.Dir(f.path)
	_, err := os.Stat(dir)
	return err
}
