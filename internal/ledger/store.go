package ledger

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Persister saves and loads the whole ledger snapshot.
type Persister interface {
	Save(ctx context.Context, l *Ledger) error
	Load(ctx context.Context) (*Ledger, error)
	Healthy(ctx context.Context) error
}

// Store owns the mutable ledger. Every mutation runs under the store lock
// and persists the full snapshot before control returns to the event
// source. Persistence is best-effort: a failed save is logged and the
// in-memory state keeps the change.
type Store struct {
	mu      sync.Mutex
	ledger  *Ledger
	persist Persister
	log     zerolog.Logger
}

// Open loads the persisted snapshot (or starts a fresh ledger) and wraps
// it in a store.
func Open(ctx context.Context, p Persister, log zerolog.Logger) (*Store, error) {
	l, err := p.Load(ctx)
	if err != nil {
		return nil, err
	}
	if l == nil {
		l = NewLedger()
	}
	l.normalize()
	return &Store{ledger: l, persist: p, log: log}, nil
}

// NewStore wraps an existing ledger without loading. Used in tests and by
// backends that initialize elsewhere.
func NewStore(l *Ledger, p Persister, log zerolog.Logger) *Store {
	l.normalize()
	return &Store{ledger: l, persist: p, log: log}
}

// View runs fn with read access to the ledger.
func (s *Store) View(fn func(l *Ledger)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.ledger)
}

// Update runs fn with write access. When fn succeeds the snapshot is
// persisted before the lock is released.
func (s *Store) Update(fn func(l *Ledger) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(s.ledger); err != nil {
		return err
	}
	if err := s.persist.Save(context.Background(), s.ledger); err != nil {
		s.log.Error().Err(err).Msg("failed to persist ledger snapshot")
	}
	return nil
}

// Flush persists the current snapshot. Called on shutdown.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist.Save(ctx, s.ledger)
}

// Healthy reports whether the persistence backend is reachable.
func (s *Store) Healthy(ctx context.Context) error {
	return s.persist.Healthy(ctx)
}
