package game

import (
	"fmt"

	"github.com/trytobebee/snakeai/pkg/config"
	"github.com/trytobebee/snakeai/pkg/grid"
)

// Move is the outcome of one Advance call
type Move struct {
	Moved    bool
	Ate      bool       // Head landed on an edible cell and the tail was kept
	Cell     grid.Point // New head, or the rejected cell on collision
	Collided bool
	Wall     bool // Collision was a closed-board edge
}

// Snake is an ordered body, head first, plus the heading state
type Snake struct {
	body      []grid.Point
	heading   grid.Heading // Queued for the next tick
	lastMoved grid.Heading // Actually moved on the last tick
}

// NewSnake places a snake of InitialLength centred on the board, heading Right
func NewSnake(b grid.Board) (*Snake, error) {
	if b.Width < config.InitialLength || b.Cells() <= config.InitialLength {
		return nil, fmt.Errorf("%dx%d board: %w", b.Width, b.Height, ErrBoardTooSmall)
	}

	head := grid.Point{X: b.Width / 2, Y: b.Height / 2}
	if head.X < config.InitialLength-1 {
		head.X = config.InitialLength - 1
	}
	body := make([]grid.Point, config.InitialLength)
	for i := range body {
		body[i] = grid.Point{X: head.X - i, Y: head.Y}
	}
	return &Snake{body: body, heading: grid.Right, lastMoved: grid.Right}, nil
}

// NewSnakeAt builds a snake from explicit cells, head first, as if its last
// move was along heading.
func NewSnakeAt(cells []grid.Point, heading grid.Heading) *Snake {
	body := make([]grid.Point, len(cells))
	copy(body, cells)
	return &Snake{body: body, heading: heading, lastMoved: heading}
}

// Head returns the head cell
func (s *Snake) Head() grid.Point {
	return s.body[0]
}

// Tail returns the last cell
func (s *Snake) Tail() grid.Point {
	return s.body[len(s.body)-1]
}

func (s *Snake) Len() int {
	return len(s.body)
}

// Body returns a copy of the cells, head first
func (s *Snake) Body() []grid.Point {
	out := make([]grid.Point, len(s.body))
	copy(out, s.body)
	return out
}

// Heading returns the heading that the next tick will use
func (s *Snake) Heading() grid.Heading {
	return s.heading
}

// LastMoved returns the heading of the last completed move
func (s *Snake) LastMoved() grid.Heading {
	return s.lastMoved
}

// Contains reports whether p is part of the body
func (s *Snake) Contains(p grid.Point) bool {
	for _, c := range s.body {
		if c == p {
			return true
		}
	}
	return false
}

// SetHeading queues h for the next tick. A heading that reverses either the
// queued heading or the last moved heading is rejected, so two quick turns
// between ticks can never fold the head back into the neck.
func (s *Snake) SetHeading(h grid.Heading) bool {
	if h == grid.None {
		return false
	}
	if h == s.heading.Opposite() {
		return false
	}
	if s.lastMoved != grid.None && h == s.lastMoved.Opposite() {
		return false
	}
	s.heading = h
	return true
}

// Advance moves the head one step along h. edible reports whether the new
// head cell holds food, in which case the tail is kept. A collision leaves
// the body untouched.
func (s *Snake) Advance(b grid.Board, h grid.Heading, edible func(grid.Point) bool) Move {
	if h == grid.None {
		h = s.heading
	}

	next, ok := b.Next(s.Head(), h)
	if !ok {
		return Move{Cell: next, Collided: true, Wall: true}
	}

	grow := edible != nil && edible(next)
	body := s.body
	if !grow {
		// The tail vacates this tick
		body = body[:len(body)-1]
	}
	for _, c := range body {
		if c == next {
			return Move{Cell: next, Collided: true}
		}
	}

	s.body = append(s.body, grid.Point{})
	copy(s.body[1:], s.body[:len(s.body)-1])
	s.body[0] = next
	if !grow {
		s.body = s.body[:len(s.body)-1]
	}
	s.heading = h
	s.lastMoved = h
	return Move{Moved: true, Ate: grow, Cell: next}
}
