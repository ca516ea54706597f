package input

import (
	"time"

	"github.com/trytobebee/snakeai/pkg/config"
	"github.com/trytobebee/snakeai/pkg/grid"
)

// RepeatDetector spots quick repeated presses of the heading the snake is
// already travelling, which request a forced move.
type RepeatDetector struct {
	Window    time.Duration
	Threshold int

	last     grid.Heading
	lastTime time.Time
	count    int
}

// NewRepeatDetector uses the configured window and threshold
func NewRepeatDetector() *RepeatDetector {
	return &RepeatDetector{Window: config.KeyRepeatWindow, Threshold: config.RepeatThreshold}
}

// Press records a heading key at now. It returns true when the press
// completes a repeat of current, and then starts counting afresh.
func (d *RepeatDetector) Press(h, current grid.Heading, now time.Time) bool {
	if h == d.last && now.Sub(d.lastTime) < d.Window {
		d.count++
	} else {
		d.count = 1
	}
	d.last = h
	d.lastTime = now

	if d.count >= d.Threshold && h == current {
		d.count = 0
		return true
	}
	return false
}

// Reset forgets previous presses
func (d *RepeatDetector) Reset() {
	d.last = grid.None
	d.count = 0
}
