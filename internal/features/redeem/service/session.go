package service

import (
	"sync"

	"escrow-giveaway-bot/internal/ledger"
)

// withdrawSession bridges the two interactive steps of a withdrawal: the
// method choice and the address submission. Sessions live only in memory;
// losing them on restart just means the user restarts the flow.
type withdrawSession struct {
	Code   string
	Method ledger.PayoutMethod
}

// sessionTable holds at most one active withdraw session per user.
type sessionTable struct {
	mu       sync.Mutex
	sessions map[int64]withdrawSession
}

func newSessionTable() *sessionTable {
	return &sessionTable{sessions: make(map[int64]withdrawSession)}
}

func (t *sessionTable) set(userID int64, s withdrawSession) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessions[userID] = s
}

func (t *sessionTable) get(userID int64) (withdrawSession, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[userID]
	return s, ok
}

func (t *sessionTable) clear(userID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.sessions, userID)
}
