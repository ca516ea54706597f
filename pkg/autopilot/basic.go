package autopilot

import "github.com/trytobebee/snakeai/pkg/grid"

// nextBasic moves along the axis with the larger distance to the food, then
// the other axis, then any free heading. Right is the last resort even when
// it is not safe.
func nextBasic(s State) grid.Heading {
	head := s.Snake[0]
	dx, dy := s.Board.Delta(head, s.Food)

	free := func(h grid.Heading) bool {
		next, ok := s.Board.Next(head, h)
		return ok && !contains(s.Snake, next)
	}

	if abs(dx) >= abs(dy) {
		if dx > 0 {
			if free(grid.Right) {
				return grid.Right
			}
		} else if dx < 0 {
			if free(grid.Left) {
				return grid.Left
			}
		}
		if dy > 0 {
			if free(grid.Down) {
				return grid.Down
			}
		} else if free(grid.Up) {
			return grid.Up
		}
	} else {
		if dy > 0 {
			if free(grid.Down) {
				return grid.Down
			}
		} else if dy < 0 {
			if free(grid.Up) {
				return grid.Up
			}
		}
		if dx > 0 {
			if free(grid.Right) {
				return grid.Right
			}
		} else if free(grid.Left) {
			return grid.Left
		}
	}

	for _, h := range grid.Headings {
		if free(h) {
			return h
		}
	}
	return grid.Right
}
