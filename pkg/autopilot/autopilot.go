// Package autopilot decides the next heading for a snake driven by the computer.
//
// Three levels are available. Basic walks straight at the food, Smart looks a
// few moves ahead before committing, and Genius searches a full path with A*.
// Every decision is computed from scratch, so switching level between two
// ticks never observes partial search state.
package autopilot

import (
	"github.com/trytobebee/snakeai/pkg/grid"
)

// Level selects the decision policy
type Level int

const (
	Basic Level = iota
	Smart
	Genius
)

func (l Level) String() string {
	switch l {
	case Smart:
		return "smart"
	case Genius:
		return "genius"
	default:
		return "basic"
	}
}

// ParseLevel maps a level name back to its value
func ParseLevel(s string) (Level, bool) {
	switch s {
	case "basic":
		return Basic, true
	case "smart":
		return Smart, true
	case "genius":
		return Genius, true
	}
	return Basic, false
}

// State is everything a policy needs to decide
type State struct {
	Snake []grid.Point // Head first
	Food  grid.Point
	Board grid.Board
}

// NextHeading runs the policy selected by l
func (l Level) NextHeading(s State) grid.Heading {
	if len(s.Snake) == 0 {
		return grid.Right
	}
	switch l {
	case Smart:
		return nextSmart(s)
	case Genius:
		return nextGenius(s)
	default:
		return nextBasic(s)
	}
}

// Pilot holds the selected level and the last decision taken
type Pilot struct {
	level Level
	last  grid.Heading
}

// NewPilot creates a pilot at the given level
func NewPilot(level Level) *Pilot {
	return &Pilot{level: level}
}

// Level returns the active level
func (p *Pilot) Level() Level {
	return p.level
}

// ChangeLevel swaps the active policy. Returns false if level is already active.
func (p *Pilot) ChangeLevel(level Level) bool {
	if level == p.level {
		return false
	}
	p.level = level
	return true
}

// Decide computes and records the next heading
func (p *Pilot) Decide(s State) grid.Heading {
	p.last = p.level.NextHeading(s)
	return p.last
}

// LastDecision returns the heading from the most recent Decide call
func (p *Pilot) LastDecision() grid.Heading {
	return p.last
}

// occupiedAt reports whether cell is still covered by the body after steps
// moves without growth. The last `steps` segments have vacated by then.
func occupiedAt(body []grid.Point, cell grid.Point, steps int) bool {
	remaining := len(body) - steps
	for i := 0; i < remaining; i++ {
		if body[i] == cell {
			return true
		}
	}
	return false
}

func contains(body []grid.Point, cell grid.Point) bool {
	for _, p := range body {
		if p == cell {
			return true
		}
	}
	return false
}

// dominant returns the heading along the axis with the larger shortest
// delta to the food, or None when the head is on the food.
func dominant(s State) grid.Heading {
	dx, dy := s.Board.Delta(s.Snake[0], s.Food)
	if abs(dx) >= abs(dy) && dx != 0 {
		if dx > 0 {
			return grid.Right
		}
		return grid.Left
	}
	if dy > 0 {
		return grid.Down
	}
	if dy < 0 {
		return grid.Up
	}
	return grid.None
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
