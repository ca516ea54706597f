package game

import (
	"time"

	"github.com/trytobebee/snakeai/pkg/autopilot"
	"github.com/trytobebee/snakeai/pkg/config"
	"github.com/trytobebee/snakeai/pkg/grid"
)

// PowerUpKind represents the different power-up effects
type PowerUpKind int

const (
	SpeedUp         PowerUpKind = iota // Halves the tick interval, 10s
	SlowDown                           // Doubles the tick interval, 10s
	ScoreMultiplier                    // Triples food score, 60s
)

// AllKinds lists every power-up kind in declaration order
var AllKinds = []PowerUpKind{SpeedUp, SlowDown, ScoreMultiplier}

// Duration returns how long the effect lasts once collected. Uncollected
// power-up foods expire after the same duration.
func (k PowerUpKind) Duration() time.Duration {
	switch k {
	case SpeedUp:
		return config.SpeedUpDuration
	case SlowDown:
		return config.SlowDownDuration
	case ScoreMultiplier:
		return config.ScoreMultiplierLength
	default:
		return 0
	}
}

func (k PowerUpKind) String() string {
	switch k {
	case SpeedUp:
		return "speedUp"
	case SlowDown:
		return "slowDown"
	case ScoreMultiplier:
		return "scoreMultiplier"
	default:
		return "unknown"
	}
}

// ParsePowerUpKind maps a kind name back to its value
func ParsePowerUpKind(s string) (PowerUpKind, bool) {
	for _, k := range AllKinds {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}

// PowerUpFood is an uncollected power-up on the board
type PowerUpFood struct {
	Cell      grid.Point  `json:"cell"`
	Kind      PowerUpKind `json:"kind"`
	CreatedAt time.Time   `json:"createdAt"`
}

// Expired reports whether the food has outlived its kind's duration
func (p PowerUpFood) Expired(now time.Time) bool {
	return !now.Before(p.CreatedAt.Add(p.Kind.Duration()))
}

// ActivePowerUp is a collected effect with an expiry
type ActivePowerUp struct {
	Kind      PowerUpKind `json:"kind"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// Remaining returns the time left before the effect expires, never negative
func (a ActivePowerUp) Remaining(now time.Time) time.Duration {
	if d := a.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// EndReason explains why a game ended
type EndReason int

const (
	NotOver       EndReason = iota
	WallCollision           // Closed board edge
	SelfCollision
	BoardFull // No free cell left for food
)

func (r EndReason) String() string {
	switch r {
	case WallCollision:
		return "wall"
	case SelfCollision:
		return "self"
	case BoardFull:
		return "boardFull"
	default:
		return ""
	}
}

// ParseEndReason maps a reason name back to its value. The empty string is NotOver.
func ParseEndReason(s string) (EndReason, bool) {
	for _, r := range []EndReason{NotOver, WallCollision, SelfCollision, BoardFull} {
		if r.String() == s {
			return r, true
		}
	}
	return NotOver, false
}

// Snapshot is a copy of the game state handed to subscribers and hosts
type Snapshot struct {
	Board      grid.Board
	Snake      []grid.Point
	Heading    grid.Heading
	Food       grid.Point
	PowerUps   []PowerUpFood
	Active     []ActivePowerUp
	Score      int
	FoodEaten  int
	Multiplier int
	Interval   time.Duration
	Speed      int
	Autopilot  bool
	Level      autopilot.Level
	Started    bool
	Paused     bool
	Over       bool
	Reason     EndReason
	CrashPoint *grid.Point
	Elapsed    time.Duration // Game time since start, pauses excluded
	Tick       int
	Now        time.Time
}
