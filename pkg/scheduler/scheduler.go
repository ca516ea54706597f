// Package scheduler turns elapsed host time into simulation ticks.
//
// The Scheduler is an accumulator: hosts call Advance with the time since
// their last frame and the scheduler fires OnTick once per elapsed interval.
// It holds no goroutine of its own; Run is a convenience loop for hosts
// without a frame loop.
package scheduler

import (
	"context"
	"time"

	"github.com/trytobebee/snakeai/pkg/config"
)

// Scheduler fires OnTick once for every interval of accumulated time
type Scheduler struct {
	// OnTick runs synchronously inside Advance. It may call SetInterval or Stop.
	OnTick func()

	interval time.Duration
	acc      time.Duration
	running  bool
	maxBurst int
}

// New creates a stopped scheduler with the default catch-up cap
func New(onTick func()) *Scheduler {
	return &Scheduler{OnTick: onTick, maxBurst: config.MaxCatchUpTicks}
}

// Start begins accumulating time at the given interval
func (s *Scheduler) Start(interval time.Duration) {
	if interval <= 0 {
		return
	}
	s.interval = interval
	s.acc = 0
	s.running = true
}

// Stop halts ticking and discards accumulated time
func (s *Scheduler) Stop() {
	s.running = false
	s.acc = 0
}

// Running reports whether the scheduler is started
func (s *Scheduler) Running() bool {
	return s.running
}

// Interval returns the current tick interval
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// SetInterval changes the tick interval without touching the accumulated time
func (s *Scheduler) SetInterval(d time.Duration) {
	if d > 0 {
		s.interval = d
	}
}

// Pending returns the accumulated time not yet turned into ticks
func (s *Scheduler) Pending() time.Duration {
	return s.acc
}

// Advance adds delta to the accumulator and fires every tick that is due.
// Time beyond the catch-up cap is dropped. Returns the number of ticks fired.
func (s *Scheduler) Advance(delta time.Duration) int {
	if !s.running || delta <= 0 {
		return 0
	}

	s.acc += delta
	if limit := s.interval * time.Duration(s.maxBurst); s.acc > limit {
		s.acc = limit
	}

	fired := 0
	for s.running && s.acc >= s.interval {
		s.acc -= s.interval
		fired++
		if s.OnTick != nil {
			s.OnTick()
		}
	}
	return fired
}

// Run calls Advance every frame until ctx is done, measuring real elapsed
// time between frames.
func (s *Scheduler) Run(ctx context.Context, frame time.Duration) error {
	if frame <= 0 {
		frame = config.FrameTick
	}
	ticker := time.NewTicker(frame)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			s.Advance(now.Sub(last))
			last = now
		}
	}
}
