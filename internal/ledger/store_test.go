package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePersister struct {
	saves   int
	saveErr error
	loaded  *Ledger
}

func (f *fakePersister) Save(ctx context.Context, l *Ledger) error {
	f.saves++
	return f.saveErr
}

func (f *fakePersister) Load(ctx context.Context) (*Ledger, error) {
	return f.loaded, nil
}

func (f *fakePersister) Healthy(ctx context.Context) error { return nil }

func TestUpdatePersistsSnapshot(t *testing.T) {
	p := &fakePersister{}
	store := NewStore(NewLedger(), p, zerolog.Nop())

	err := store.Update(func(l *Ledger) error {
		l.Giveaways["G1"] = &Giveaway{ID: "G1", Prize: "5$", EndsAt: time.Now().Add(time.Hour)}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, p.saves)

	store.View(func(l *Ledger) {
		assert.Contains(t, l.Giveaways, "G1")
	})
}

func TestUpdateRollsNothingBackOnFnError(t *testing.T) {
	p := &fakePersister{}
	store := NewStore(NewLedger(), p, zerolog.Nop())

	err := store.Update(func(l *Ledger) error {
		return errors.New("nope")
	})
	require.Error(t, err)
	assert.Zero(t, p.saves, "failed update must not persist")
}

func TestUpdateKeepsStateWhenSaveFails(t *testing.T) {
	p := &fakePersister{saveErr: errors.New("disk full")}
	store := NewStore(NewLedger(), p, zerolog.Nop())

	err := store.Update(func(l *Ledger) error {
		l.Redeems["AAAA-BBBB-CCCC"] = &RedeemCode{Code: "AAAA-BBBB-CCCC", Status: CodeUnused}
		return nil
	})
	require.NoError(t, err, "a failed save is logged, not surfaced")

	store.View(func(l *Ledger) {
		assert.Contains(t, l.Redeems, "AAAA-BBBB-CCCC")
	})
}

func TestOpenNormalizesNilCollections(t *testing.T) {
	p := &fakePersister{loaded: &Ledger{}}
	store, err := Open(context.Background(), p, zerolog.Nop())
	require.NoError(t, err)

	store.View(func(l *Ledger) {
		assert.NotNil(t, l.Giveaways)
		assert.NotNil(t, l.Redeems)
		assert.NotNil(t, l.Withdraws)
		require.NotNil(t, l.Settings)
		assert.NotEmpty(t, l.Settings.RequiredBioKeyword)
		assert.NotEmpty(t, l.Settings.PopupMessages)
	})
}
