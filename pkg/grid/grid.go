// Package grid holds board geometry shared by the simulation and the autopilot.
package grid

import (
	"errors"
	"fmt"
)

// Point represents a cell on the board
type Point struct {
	X int `json:"x" msgpack:"x"`
	Y int `json:"y" msgpack:"y"`
}

// Add returns p offset by d
func (p Point) Add(d Point) Point {
	return Point{X: p.X + d.X, Y: p.Y + d.Y}
}

// Heading is a direction of travel
type Heading int

const (
	None Heading = iota
	Up
	Down
	Left
	Right
)

// Headings is the fixed scan order used by the autopilot
var Headings = [4]Heading{Up, Right, Down, Left}

// Opposite returns the reverse heading; None is its own opposite
func (h Heading) Opposite() Heading {
	switch h {
	case Up:
		return Down
	case Down:
		return Up
	case Left:
		return Right
	case Right:
		return Left
	default:
		return None
	}
}

// Vector returns the single-step offset of the heading
func (h Heading) Vector() Point {
	switch h {
	case Up:
		return Point{X: 0, Y: -1}
	case Down:
		return Point{X: 0, Y: 1}
	case Left:
		return Point{X: -1, Y: 0}
	case Right:
		return Point{X: 1, Y: 0}
	default:
		return Point{}
	}
}

func (h Heading) String() string {
	switch h {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "none"
	}
}

// ParseHeading maps a heading name back to its value
func ParseHeading(s string) (Heading, bool) {
	switch s {
	case "up":
		return Up, true
	case "down":
		return Down, true
	case "left":
		return Left, true
	case "right":
		return Right, true
	}
	return None, false
}

// Mode selects what happens at the board edge
type Mode int

const (
	Open   Mode = iota // Coordinates wrap around
	Closed             // Walls kill
)

func (m Mode) String() string {
	if m == Closed {
		return "closed"
	}
	return "open"
}

// ErrInvalidBoard is returned for non-positive board dimensions
var ErrInvalidBoard = errors.New("invalid board")

// Board describes the playfield
type Board struct {
	Width  int  `json:"width" msgpack:"width"`
	Height int  `json:"height" msgpack:"height"`
	Mode   Mode `json:"mode" msgpack:"mode"`
}

// NewBoard validates dimensions and returns a board
func NewBoard(width, height int, mode Mode) (Board, error) {
	if width <= 0 || height <= 0 {
		return Board{}, fmt.Errorf("%dx%d: %w", width, height, ErrInvalidBoard)
	}
	return Board{Width: width, Height: height, Mode: mode}, nil
}

// Contains reports whether p lies inside [0,W)x[0,H)
func (b Board) Contains(p Point) bool {
	return p.X >= 0 && p.X < b.Width && p.Y >= 0 && p.Y < b.Height
}

// Cells returns the number of cells on the board
func (b Board) Cells() int {
	return b.Width * b.Height
}

// Resolve wraps p into range on an open board. On a closed board an
// out-of-range p is a wall hit and ok is false.
func (b Board) Resolve(p Point) (Point, bool) {
	if b.Contains(p) {
		return p, true
	}
	if b.Mode == Closed {
		return p, false
	}
	return Point{X: wrap(p.X, b.Width), Y: wrap(p.Y, b.Height)}, true
}

// Next applies h to p and resolves the result
func (b Board) Next(p Point, h Heading) (Point, bool) {
	return b.Resolve(p.Add(h.Vector()))
}

// AxisDelta returns the signed shortest step count from one coordinate to
// another along an axis of size dim.
func (b Board) AxisDelta(from, to, dim int) int {
	direct := to - from
	if b.Mode == Closed {
		return direct
	}
	var around int
	if direct > 0 {
		around = direct - dim
	} else {
		around = direct + dim
	}
	if abs(direct) < abs(around) {
		return direct
	}
	return around
}

// Delta returns the per-axis shortest deltas from a to c
func (b Board) Delta(a, c Point) (dx, dy int) {
	return b.AxisDelta(a.X, c.X, b.Width), b.AxisDelta(a.Y, c.Y, b.Height)
}

// Distance is the Manhattan distance, wrap-aware on open boards
func (b Board) Distance(a, c Point) int {
	dx, dy := b.Delta(a, c)
	return abs(dx) + abs(dy)
}

// HeadingTo returns the heading that moves from a to the adjacent cell c
func (b Board) HeadingTo(a, c Point) Heading {
	for _, h := range Headings {
		if next, ok := b.Next(a, h); ok && next == c {
			return h
		}
	}
	return None
}

func wrap(v, dim int) int {
	v %= dim
	if v < 0 {
		v += dim
	}
	return v
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
