package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "escrow-giveaway-bot/internal/common/errors"
	"escrow-giveaway-bot/internal/ledger"
)

const testOwner int64 = 111

type nopPersister struct{}

func (nopPersister) Save(ctx context.Context, l *ledger.Ledger) error { return nil }
func (nopPersister) Load(ctx context.Context) (*ledger.Ledger, error) { return ledger.NewLedger(), nil }
func (nopPersister) Healthy(ctx context.Context) error                { return nil }

type fakeProfile struct {
	bios map[int64]string
	err  error
}

func (f *fakeProfile) Bio(userID int64) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.bios[userID], nil
}

type fakeNotifier struct {
	mu sync.Mutex

	posted          []ledger.PostedMessage
	refreshes       int
	noParticipants  int
	winnerMentions  []string
	winnerAnnounces int
	manualPending   int
	manualSelected  int
	ownerNotes      []string
	winnerDMs       map[int64]string
	dmErr           error
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{winnerDMs: make(map[int64]string)}
}

func (f *fakeNotifier) PostAnnouncement(g ledger.Giveaway, fallbackChatID int64) []ledger.PostedMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	posted := []ledger.PostedMessage{{ChatID: fallbackChatID, MessageID: 1}}
	f.posted = append(f.posted, posted...)
	return posted
}

func (f *fakeNotifier) RefreshParticipantCount(g ledger.Giveaway) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
}

func (f *fakeNotifier) AnnounceNoParticipants(g ledger.Giveaway) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.noParticipants++
}

func (f *fakeNotifier) AnnounceWinners(g ledger.Giveaway, mentions []string, reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.winnerAnnounces++
	f.winnerMentions = append([]string{}, mentions...)
}

func (f *fakeNotifier) AnnounceManualPending(g ledger.Giveaway) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.manualPending++
}

func (f *fakeNotifier) AnnounceManualSelected(g ledger.Giveaway) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.manualSelected++
}

func (f *fakeNotifier) ResolveDisplayName(userID int64) (string, error) {
	return fmt.Sprintf("@user%d", userID), nil
}

func (f *fakeNotifier) SendWinnerCode(userID int64, g ledger.Giveaway, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dmErr != nil {
		return f.dmErr
	}
	f.winnerDMs[userID] = code
	return nil
}

func (f *fakeNotifier) NotifyOwner(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ownerNotes = append(f.ownerNotes, text)
}

// announceCount reads winnerAnnounces under the lock, for assertions that
// race against timer goroutines.
func (f *fakeNotifier) announceCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.winnerAnnounces
}

func newTestService(t *testing.T, bios map[int64]string) (*Service, *ledger.Store, *fakeNotifier) {
	t.Helper()
	store := ledger.NewStore(ledger.NewLedger(), nopPersister{}, zerolog.Nop())
	notify := newFakeNotifier()
	svc := NewService(store, &fakeProfile{bios: bios}, notify, testOwner, zerolog.Nop())
	t.Cleanup(svc.Scheduler().Stop)
	return svc, store, notify
}

func keywordBio() map[int64]string {
	return map[int64]string{
		10: "trader, @TrustlyEscrow fan",
		20: "@TrustlyEscrow",
		30: "@TrustlyEscrow forever",
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _, _ := newTestService(t, nil)
	future := time.Now().Add(time.Hour)

	_, err := svc.Create(testOwner, "", "5$", future, 1)
	requireCode(t, err, apperrors.ErrCodeValidation)

	_, err = svc.Create(testOwner, "G1", "5$", future, 0)
	requireCode(t, err, apperrors.ErrCodeValidation)

	_, err = svc.Create(testOwner, "G1", "5$", future, 51)
	requireCode(t, err, apperrors.ErrCodeValidation)

	_, err = svc.Create(testOwner, "G1", "5$", time.Now().Add(-time.Minute), 1)
	requireCode(t, err, apperrors.ErrCodeValidation)

	_, err = svc.Create(testOwner, "G1", "5$", future, 1)
	require.NoError(t, err)

	_, err = svc.Create(testOwner, "G1", "10$", future, 1)
	requireCode(t, err, apperrors.ErrCodeValidation)
}

func TestActivateOwnerAndDraftGuards(t *testing.T) {
	svc, _, notify := newTestService(t, nil)
	_, err := svc.Create(testOwner, "G1", "5$", time.Now().Add(time.Hour), 1)
	require.NoError(t, err)

	requireCode(t, svc.Activate(999, "G1", ledger.ModeAuto, 42), apperrors.ErrCodeUnauthorized)
	requireCode(t, svc.Activate(testOwner, "missing", ledger.ModeAuto, 42), apperrors.ErrCodeNotFound)
	requireCode(t, svc.Activate(testOwner, "G1", "weird", 42), apperrors.ErrCodeValidation)

	require.NoError(t, svc.Activate(testOwner, "G1", ledger.ModeAuto, 42))
	g, err := svc.Get("G1")
	require.NoError(t, err)
	assert.Equal(t, ledger.ModeAuto, g.Mode)
	assert.Len(t, g.Posted, 1)
	assert.Len(t, notify.posted, 1)

	// not a draft anymore
	requireCode(t, svc.Activate(testOwner, "G1", ledger.ModeManual, 42), apperrors.ErrCodeInvalidTransition)
}

func TestJoinEligibilityAndDuplicates(t *testing.T) {
	svc, _, notify := newTestService(t, keywordBio())
	mustActiveGiveaway(t, svc, "G1", 2)

	// bio without the keyword
	err := svc.Join(999, "G1")
	requireCode(t, err, apperrors.ErrCodeNotEligible)

	require.NoError(t, svc.Join(10, "G1"))
	assert.Equal(t, 1, notify.refreshes)

	err = svc.Join(10, "G1")
	requireCode(t, err, apperrors.ErrCodeAlreadyJoined)
	appErr, _ := apperrors.AsAppError(err)
	assert.Equal(t, "You are already in, relax… prize is not running away 😑", appErr.Message)

	requireCode(t, svc.Join(20, "missing"), apperrors.ErrCodeNotFound)
}

func TestJoinFailsClosedOnBioLookupError(t *testing.T) {
	store := ledger.NewStore(ledger.NewLedger(), nopPersister{}, zerolog.Nop())
	notify := newFakeNotifier()
	svc := NewService(store, &fakeProfile{err: errors.New("telegram down")}, notify, testOwner, zerolog.Nop())
	t.Cleanup(svc.Scheduler().Stop)
	mustActiveGiveaway(t, svc, "G1", 1)

	requireCode(t, svc.Join(10, "G1"), apperrors.ErrCodeNotEligible)
}

func TestEndAutoDrawsDistinctWinnersAndIssuesCodes(t *testing.T) {
	svc, store, notify := newTestService(t, keywordBio())
	mustActiveGiveaway(t, svc, "G1", 2)

	require.NoError(t, svc.Join(10, "G1"))
	require.NoError(t, svc.Join(20, "G1"))
	require.NoError(t, svc.Join(30, "G1"))

	require.NoError(t, svc.End("G1", "auto"))

	g, err := svc.Get("G1")
	require.NoError(t, err)
	assert.True(t, g.Ended)
	require.Len(t, g.Winners, 2)
	assert.NotEqual(t, g.Winners[0], g.Winners[1])
	for _, w := range g.Winners {
		assert.Contains(t, []int64{10, 20, 30}, w)
	}

	assert.Equal(t, 1, notify.winnerAnnounces)
	assert.Len(t, notify.winnerMentions, 2)
	assert.Len(t, notify.winnerDMs, 2)

	store.View(func(l *ledger.Ledger) {
		require.Len(t, l.Redeems, 2)
		for _, r := range l.Redeems {
			assert.Equal(t, ledger.CodeUnused, r.Status)
			assert.Equal(t, "G1", r.GiveawayID)
			assert.Equal(t, "5$", r.Amount)
			assert.Contains(t, g.Winners, r.AssignedTo)
			assert.Equal(t, r.AssignedTo, r.GivenTo)
		}
	})
}

func TestEndIsIdempotent(t *testing.T) {
	svc, _, notify := newTestService(t, keywordBio())
	mustActiveGiveaway(t, svc, "G1", 1)
	require.NoError(t, svc.Join(10, "G1"))

	require.NoError(t, svc.End("G1", "auto"))
	require.NoError(t, svc.End("G1", "manual"))

	assert.Equal(t, 1, notify.winnerAnnounces, "second end must not re-announce")
	assert.Len(t, notify.winnerDMs, 1)
}

func TestEndWithoutParticipants(t *testing.T) {
	svc, store, notify := newTestService(t, nil)
	mustActiveGiveaway(t, svc, "G1", 3)

	require.NoError(t, svc.End("G1", "auto"))

	assert.Equal(t, 1, notify.noParticipants)
	assert.Zero(t, notify.winnerAnnounces)
	store.View(func(l *ledger.Ledger) {
		assert.Empty(t, l.Redeems)
	})
}

func TestEndManualPromptsOwner(t *testing.T) {
	svc, _, notify := newTestService(t, keywordBio())
	_, err := svc.Create(testOwner, "G1", "5$", time.Now().Add(time.Hour), 1)
	require.NoError(t, err)
	require.NoError(t, svc.Activate(testOwner, "G1", ledger.ModeManual, 42))
	require.NoError(t, svc.Join(10, "G1"))

	require.NoError(t, svc.End("G1", "manual"))

	assert.Equal(t, 1, notify.manualPending)
	require.Len(t, notify.ownerNotes, 1)
	assert.Contains(t, notify.ownerNotes[0], "/pickwinners G1")
}

func TestEndNotifiesOwnerWhenWinnerDMFails(t *testing.T) {
	svc, _, notify := newTestService(t, keywordBio())
	notify.dmErr = errors.New("blocked the bot")
	mustActiveGiveaway(t, svc, "G1", 1)
	require.NoError(t, svc.Join(10, "G1"))

	require.NoError(t, svc.End("G1", "auto"))

	require.NotEmpty(t, notify.ownerNotes)
	assert.Contains(t, notify.ownerNotes[0], "Could not DM winner ID 10")
	// resolved winners still appear in the broadcast
	assert.Len(t, notify.winnerMentions, 1)
}

func TestPickWinnersOverwritesEndedGiveaway(t *testing.T) {
	svc, store, notify := newTestService(t, keywordBio())
	mustActiveGiveaway(t, svc, "G1", 1)
	require.NoError(t, svc.Join(10, "G1"))
	require.NoError(t, svc.End("G1", "auto"))

	requireCode(t, svc.PickWinners(999, "G1", []int64{20}), apperrors.ErrCodeUnauthorized)
	requireCode(t, svc.PickWinners(testOwner, "G1", nil), apperrors.ErrCodeValidation)
	requireCode(t, svc.PickWinners(testOwner, "missing", []int64{20}), apperrors.ErrCodeNotFound)

	require.NoError(t, svc.PickWinners(testOwner, "G1", []int64{20, 30}))

	g, err := svc.Get("G1")
	require.NoError(t, err)
	assert.True(t, g.Ended)
	assert.Equal(t, []int64{20, 30}, g.Winners)
	assert.Equal(t, 1, notify.manualSelected)

	store.View(func(l *ledger.Ledger) {
		var assigned []int64
		for _, r := range l.Redeems {
			assigned = append(assigned, r.AssignedTo)
		}
		assert.Contains(t, assigned, int64(20))
		assert.Contains(t, assigned, int64(30))
	})
}

func TestRearmTimersEndsOverdueGiveaways(t *testing.T) {
	svc, store, notify := newTestService(t, keywordBio())

	// simulate a reloaded snapshot with an already-expired active giveaway
	err := store.Update(func(l *ledger.Ledger) error {
		l.Giveaways["G1"] = &ledger.Giveaway{
			ID:           "G1",
			Prize:        "5$",
			WinnersCount: 1,
			Mode:         ledger.ModeAuto,
			EndsAt:       time.Now().Add(-time.Minute),
			Participants: []int64{10},
			Winners:      []int64{},
		}
		return nil
	})
	require.NoError(t, err)

	svc.RearmTimers()
	require.Eventually(t, func() bool {
		return notify.announceCount() == 1
	}, 2*time.Second, 20*time.Millisecond)

	g, err := svc.Get("G1")
	require.NoError(t, err)
	assert.True(t, g.Ended)
}

func mustActiveGiveaway(t *testing.T, svc *Service, id string, winners int) {
	t.Helper()
	_, err := svc.Create(testOwner, id, "5$", time.Now().Add(time.Hour), winners)
	require.NoError(t, err)
	require.NoError(t, svc.Activate(testOwner, id, ledger.ModeAuto, 42))
}

func requireCode(t *testing.T, err error, code apperrors.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	require.Equal(t, code, appErr.Code)
}
