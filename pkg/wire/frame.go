// Package wire converts game snapshots and events into transport frames and
// encodes them as JSON text or msgpack binary messages.
package wire

import (
	"time"

	"github.com/trytobebee/snakeai/pkg/game"
	"github.com/trytobebee/snakeai/pkg/grid"
	"github.com/trytobebee/snakeai/pkg/stats"
)

// Message types sent by the server
const (
	TypeConfig = "config"
	TypeState  = "state"
	TypeEvent  = "event"
	TypeStats  = "stats"
	TypeError  = "error"
)

// Actions accepted from clients
const (
	ActionUp        = "up"
	ActionDown      = "down"
	ActionLeft      = "left"
	ActionRight     = "right"
	ActionStart     = "start"
	ActionPause     = "pause"
	ActionRestart   = "restart"
	ActionStep      = "step"
	ActionAuto      = "auto"      // Value "on" or "off"; empty toggles
	ActionLevel     = "level"     // Value "basic", "smart" or "genius"
	ActionSpeed     = "speed"     // Value "1".."5"
	ActionMode      = "mode"      // Value "open" or "closed"
	ActionPowerUps  = "powerups"  // Value "on", "off" or a comma separated kind list
	ActionStats     = "stats"
	ActionDeleteHi  = "delete_highscore"
	ActionDeleteAll = "delete_stats"
)

// ServerMessage is the envelope for everything the server sends
type ServerMessage struct {
	Type   string       `json:"type" msgpack:"type"`
	Config *ConfigFrame `json:"config,omitempty" msgpack:"config,omitempty"`
	State  *Frame       `json:"state,omitempty" msgpack:"state,omitempty"`
	Event  *EventFrame  `json:"event,omitempty" msgpack:"event,omitempty"`
	Stats  *stats.Stats `json:"stats,omitempty" msgpack:"stats,omitempty"`
	Error  string       `json:"error,omitempty" msgpack:"error,omitempty"`
}

// ClientMessage is an action sent by a client
type ClientMessage struct {
	Action string `json:"action" msgpack:"action"`
	Value  string `json:"value,omitempty" msgpack:"value,omitempty"`
}

// ConfigFrame describes the session once, on connect
type ConfigFrame struct {
	SessionID string   `json:"sessionId" msgpack:"sessionId"`
	Width     int      `json:"width" msgpack:"width"`
	Height    int      `json:"height" msgpack:"height"`
	MinSpeed  int      `json:"minSpeed" msgpack:"minSpeed"`
	MaxSpeed  int      `json:"maxSpeed" msgpack:"maxSpeed"`
	Levels    []string `json:"levels" msgpack:"levels"`
	Kinds     []string `json:"kinds" msgpack:"kinds"`
	Codec     string   `json:"codec" msgpack:"codec"`
}

// PowerUpFrame is a power-up food or an active effect
type PowerUpFrame struct {
	Cell        *grid.Point `json:"cell,omitempty" msgpack:"cell,omitempty"`
	Kind        string      `json:"kind" msgpack:"kind"`
	RemainingMs int64       `json:"remainingMs" msgpack:"remainingMs"`
}

// Frame is the wire form of a game snapshot
type Frame struct {
	Tick       int            `json:"tick" msgpack:"tick"`
	Width      int            `json:"width" msgpack:"width"`
	Height     int            `json:"height" msgpack:"height"`
	Mode       string         `json:"mode" msgpack:"mode"`
	Snake      []grid.Point   `json:"snake" msgpack:"snake"`
	Heading    string         `json:"heading" msgpack:"heading"`
	Food       grid.Point     `json:"food" msgpack:"food"`
	PowerUps   []PowerUpFrame `json:"powerUps" msgpack:"powerUps"`
	Active     []PowerUpFrame `json:"active" msgpack:"active"`
	Score      int            `json:"score" msgpack:"score"`
	FoodEaten  int            `json:"foodEaten" msgpack:"foodEaten"`
	Multiplier int            `json:"multiplier" msgpack:"multiplier"`
	IntervalMs int64          `json:"intervalMs" msgpack:"intervalMs"`
	Speed      int            `json:"speed" msgpack:"speed"`
	Autopilot  bool           `json:"autopilot" msgpack:"autopilot"`
	Level      string         `json:"level" msgpack:"level"`
	Started    bool           `json:"started" msgpack:"started"`
	Paused     bool           `json:"paused" msgpack:"paused"`
	Over       bool           `json:"over" msgpack:"over"`
	Reason     string         `json:"reason,omitempty" msgpack:"reason,omitempty"`
	Crash      *grid.Point    `json:"crash,omitempty" msgpack:"crash,omitempty"`
	ElapsedMs  int64          `json:"elapsedMs" msgpack:"elapsedMs"`
}

// FromSnapshot builds a frame. Remaining times are measured against s.Now.
func FromSnapshot(s game.Snapshot) Frame {
	f := Frame{
		Tick:       s.Tick,
		Width:      s.Board.Width,
		Height:     s.Board.Height,
		Mode:       s.Board.Mode.String(),
		Snake:      s.Snake,
		Heading:    s.Heading.String(),
		Food:       s.Food,
		PowerUps:   make([]PowerUpFrame, 0, len(s.PowerUps)),
		Active:     make([]PowerUpFrame, 0, len(s.Active)),
		Score:      s.Score,
		FoodEaten:  s.FoodEaten,
		Multiplier: s.Multiplier,
		IntervalMs: s.Interval.Milliseconds(),
		Speed:      s.Speed,
		Autopilot:  s.Autopilot,
		Level:      s.Level.String(),
		Started:    s.Started,
		Paused:     s.Paused,
		Over:       s.Over,
		Reason:     s.Reason.String(),
		Crash:      s.CrashPoint,
		ElapsedMs:  s.Elapsed.Milliseconds(),
	}

	for _, p := range s.PowerUps {
		cell := p.Cell
		left := p.CreatedAt.Add(p.Kind.Duration()).Sub(s.Now)
		f.PowerUps = append(f.PowerUps, PowerUpFrame{Cell: &cell, Kind: p.Kind.String(), RemainingMs: clampMs(left)})
	}
	for _, a := range s.Active {
		f.Active = append(f.Active, PowerUpFrame{Kind: a.Kind.String(), RemainingMs: a.Remaining(s.Now).Milliseconds()})
	}
	return f
}

func clampMs(d time.Duration) int64 {
	if d < 0 {
		return 0
	}
	return d.Milliseconds()
}

// EventFrame is the wire form of a game event
type EventFrame struct {
	Type       string `json:"type" msgpack:"type"`
	Score      int    `json:"score" msgpack:"score"`
	Multiplier int    `json:"multiplier,omitempty" msgpack:"multiplier,omitempty"`
	Kind       string `json:"kind,omitempty" msgpack:"kind,omitempty"`
	Reason     string `json:"reason,omitempty" msgpack:"reason,omitempty"`
}

// FromEvent builds an event frame. Kind is only set for power-up events.
func FromEvent(e game.Event) EventFrame {
	f := EventFrame{
		Type:       e.Type.String(),
		Score:      e.Score,
		Multiplier: e.Multiplier,
		Reason:     e.Reason.String(),
	}
	if e.Type == game.EventPowerUpCollected || e.Type == game.EventPowerUpExpired {
		f.Kind = e.Kind.String()
	}
	return f
}
