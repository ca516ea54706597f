package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ms = time.Millisecond

func TestAdvanceFiresOncePerInterval(t *testing.T) {
	ticks := 0
	s := New(func() { ticks++ })
	s.Start(100 * ms)

	assert.Equal(t, 0, s.Advance(60*ms))
	assert.Equal(t, 1, s.Advance(60*ms))
	assert.Equal(t, 20*ms, s.Pending())
	assert.Equal(t, 0, s.Advance(70*ms))
	assert.Equal(t, 1, s.Advance(10*ms))
	assert.Equal(t, 2, ticks)
}

func TestAdvanceCapsCatchUp(t *testing.T) {
	ticks := 0
	s := New(func() { ticks++ })
	s.Start(100 * ms)

	// A long stall yields at most two ticks and leaves nothing queued
	assert.Equal(t, 2, s.Advance(5*time.Second))
	assert.Zero(t, s.Pending())
	assert.Equal(t, 2, ticks)
}

func TestSetIntervalKeepsAccumulatedTime(t *testing.T) {
	s := New(nil)
	s.Start(200 * ms)

	s.Advance(150 * ms)
	s.SetInterval(100 * ms)
	assert.Equal(t, 150*ms, s.Pending())
	assert.Equal(t, 1, s.Advance(time.Nanosecond), "the pending tick is not dropped")
	assert.Equal(t, 50*ms+time.Nanosecond, s.Pending())
}

func TestSetIntervalFromTick(t *testing.T) {
	var s *Scheduler
	ticks := 0
	s = New(func() {
		ticks++
		s.SetInterval(50 * ms)
	})
	s.Start(100 * ms)

	// 200ms accumulated: the first tick halves the interval, so the
	// remaining 100ms pays for two more ticks.
	assert.Equal(t, 3, s.Advance(200*ms))
	assert.Equal(t, 3, ticks)
	assert.Zero(t, s.Pending())
}

func TestStopResetsAccumulator(t *testing.T) {
	ticks := 0
	s := New(func() { ticks++ })
	s.Start(100 * ms)

	s.Advance(90 * ms)
	s.Stop()
	assert.False(t, s.Running())
	assert.Zero(t, s.Pending())
	assert.Equal(t, 0, s.Advance(time.Second), "stopped scheduler ignores time")

	s.Start(100 * ms)
	assert.Equal(t, 0, s.Advance(90*ms))
	assert.Zero(t, ticks)
}

func TestStopFromTick(t *testing.T) {
	var s *Scheduler
	ticks := 0
	s = New(func() {
		ticks++
		s.Stop()
	})
	s.Start(100 * ms)

	assert.Equal(t, 1, s.Advance(200*ms))
	assert.Equal(t, 1, ticks)
}

func TestStartRejectsNonPositiveInterval(t *testing.T) {
	s := New(nil)
	s.Start(0)
	assert.False(t, s.Running())
	s.Start(10 * ms)
	s.SetInterval(-1)
	assert.Equal(t, 10*ms, s.Interval())
}

func TestRunDrivesTicks(t *testing.T) {
	fired := make(chan struct{}, 100)
	s := New(func() { fired <- struct{}{} })
	s.Start(5 * ms)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, ms) }()

	select {
	case <-fired:
	case <-ctx.Done():
		t.Fatal("no tick fired")
	}
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}
