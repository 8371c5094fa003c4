package service

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerFiresOnce(t *testing.T) {
	s := NewScheduler()
	t.Cleanup(s.Stop)

	var fired atomic.Int32
	s.Arm("g1", time.Now().Add(50*time.Millisecond), func() { fired.Add(1) })

	require.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, 10*time.Millisecond)
	assert.Zero(t, s.Pending())
}

func TestSchedulerRearmReplacesTimer(t *testing.T) {
	s := NewScheduler()
	t.Cleanup(s.Stop)

	var first, second atomic.Int32
	s.Arm("g1", time.Now().Add(50*time.Millisecond), func() { first.Add(1) })
	s.Arm("g1", time.Now().Add(100*time.Millisecond), func() { second.Add(1) })

	require.Eventually(t, func() bool { return second.Load() == 1 }, time.Second, 10*time.Millisecond)
	assert.Zero(t, first.Load(), "replaced timer must not fire")
}

func TestSchedulerCancelPreventsFire(t *testing.T) {
	s := NewScheduler()
	t.Cleanup(s.Stop)

	var fired atomic.Int32
	s.Arm("g1", time.Now().Add(50*time.Millisecond), func() { fired.Add(1) })
	s.Cancel("g1")

	time.Sleep(150 * time.Millisecond)
	assert.Zero(t, fired.Load())
	assert.Zero(t, s.Pending())
}

func TestSchedulerPastDueFiresAfterGrace(t *testing.T) {
	s := NewScheduler()
	t.Cleanup(s.Stop)

	var fired atomic.Int32
	s.Arm("g1", time.Now().Add(-time.Hour), func() { fired.Add(1) })

	assert.Zero(t, fired.Load(), "past-due deadline must not fire synchronously")
	require.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, 10*time.Millisecond)
}
