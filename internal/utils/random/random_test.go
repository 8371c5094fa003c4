package random

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleDrawsDistinctElements(t *testing.T) {
	pool := []int64{1, 2, 3, 4, 5, 6, 7, 8}

	got, err := Sample(pool, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)

	seen := make(map[int64]bool)
	for _, v := range got {
		assert.False(t, seen[v], "duplicate element %d", v)
		seen[v] = true
		assert.Contains(t, pool, v)
	}
}

func TestSampleClampsToPoolSize(t *testing.T) {
	got, err := Sample([]int64{1, 2}, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 2}, got)
}

func TestSampleLeavesInputUntouched(t *testing.T) {
	pool := []int64{1, 2, 3, 4}
	_, err := Sample(pool, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3, 4}, pool)
}

func TestIntnBounds(t *testing.T) {
	for i := 0; i < 100; i++ {
		v, err := Intn(5)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 5)
	}

	_, err := Intn(0)
	assert.Error(t, err)
}
