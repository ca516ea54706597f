package config

import (
	"errors"
	"fmt"
	"time"
)

// Game board dimensions
const (
	StandardWidth  = 20
	StandardHeight = 30
	SmallWidth     = 10
	SmallHeight    = 10
	InitialLength  = 3
	SafeTopRows    = 0 // Rows reserved for overlays; zero for headless play
)

// Speed settings. SpeedLadder[i] is the base tick interval of speed i+1.
var SpeedLadder = [...]time.Duration{
	300 * time.Millisecond,
	250 * time.Millisecond,
	200 * time.Millisecond,
	150 * time.Millisecond,
	100 * time.Millisecond,
}

const (
	MinSpeed     = 1
	MaxSpeed     = len(SpeedLadder)
	DefaultSpeed = 3 // 200ms
)

// Power-up settings
const (
	PowerUpSpawnChance    = 0.20
	MaxPowerUpsPerKind    = 2
	SpeedUpDuration       = 10 * time.Second
	SlowDownDuration      = 10 * time.Second
	ScoreMultiplierLength = 60 * time.Second
	ScoreMultiplier       = 3
)

// Placement settings
const (
	MaxPlacementAttempts = 256 // Rejection samples before falling back to a linear scan
)

// Autopilot settings
const (
	LookaheadHorizon = 3
	TailClearance    = 3 // Smart prefers cells farther than this from the tail
	TailBonus        = 2
)

// Scheduler settings
const (
	FrameTick       = 16 * time.Millisecond // Host frame cadence (~60 FPS)
	MaxCatchUpTicks = 2                     // Accumulated time is capped at this many intervals
)

// Input settings
const (
	KeyRepeatWindow = 200 * time.Millisecond // Window for detecting a forced-move double press
	RepeatThreshold = 2
)

// Display characters
const (
	CharEmpty    = "  " // Two spaces to match emoji width
	CharWall     = "⬜"
	CharOpenEdge = "··"
	CharHead     = "🟢"
	CharBody     = "🟩"
	CharCrash    = "💥"
	CharFood     = "🍎"
	CharSpeedUp  = "⚡"
	CharSlowDown = "🐢"
	CharScoreX3  = "✨"
)

// ErrInvalidSpeed is returned for speed settings outside the ladder
var ErrInvalidSpeed = errors.New("invalid speed setting")

// BaseInterval returns the base tick interval for a speed setting in [MinSpeed, MaxSpeed]
func BaseInterval(speed int) (time.Duration, error) {
	if speed < MinSpeed || speed > MaxSpeed {
		return 0, fmt.Errorf("speed %d not in [%d, %d]: %w", speed, MinSpeed, MaxSpeed, ErrInvalidSpeed)
	}
	return SpeedLadder[speed-1], nil
}
