package persist

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"escrow-giveaway-bot/internal/ledger"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	fs := NewFileStore(path, zerolog.Nop())
	ctx := context.Background()

	l := ledger.NewLedger()
	l.Giveaways["G1"] = &ledger.Giveaway{
		ID:           "G1",
		Prize:        "5$",
		WinnersCount: 2,
		EndsAt:       time.Now().Add(time.Hour).Truncate(time.Second),
		Participants: []int64{10, 20},
	}
	l.Redeems["AB12-CD34-EF56"] = &ledger.RedeemCode{
		Code:   "AB12-CD34-EF56",
		Amount: "5$",
		Status: ledger.CodeUnused,
	}
	require.NoError(t, fs.Save(ctx, l))

	got, err := fs.Load(ctx)
	require.NoError(t, err)
	require.Contains(t, got.Giveaways, "G1")
	assert.Equal(t, []int64{10, 20}, got.Giveaways["G1"].Participants)
	assert.Equal(t, 2, got.Giveaways["G1"].WinnersCount)
	require.Contains(t, got.Redeems, "AB12-CD34-EF56")
	assert.Equal(t, ledger.CodeUnused, got.Redeems["AB12-CD34-EF56"].Status)
}

func TestFileStoreLoadMissingFileStartsFresh(t *testing.T) {
	fs := NewFileStore(filepath.Join(t.TempDir(), "db.json"), zerolog.Nop())

	got, err := fs.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got.Giveaways)
	assert.NotNil(t, got.Settings)
}

func TestFileStoreCorruptFileBackedUp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	fs := NewFileStore(path, zerolog.Nop())
	got, err := fs.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got.Giveaways, "corrupt snapshot starts fresh")

	backup, err := os.ReadFile(path + ".bak")
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(backup))
}
