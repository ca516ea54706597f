package autopilot

import (
	"github.com/zyedidia/generic/mapset"

	"github.com/trytobebee/snakeai/pkg/config"
	"github.com/trytobebee/snakeai/pkg/grid"
)

// nextSmart scores every heading that survives a short lookahead walk and
// picks the lowest score. Cells far from the tail get a small bonus.
func nextSmart(s State) grid.Heading {
	head := s.Snake[0]
	tail := s.Snake[len(s.Snake)-1]

	best := grid.None
	bestScore := 0
	for _, h := range grid.Headings {
		next, ok := s.Board.Next(head, h)
		if !ok || !survives(s, next) {
			continue
		}

		score := s.Board.Distance(next, s.Food)
		if s.Board.Distance(next, tail) > config.TailClearance {
			score -= config.TailBonus
		}
		if best == grid.None || score < bestScore {
			best = h
			bestScore = score
		}
	}

	if best == grid.None {
		return grid.Right
	}
	return best
}

// survives reports whether a walk of LookaheadHorizon moves starting at cell
// exists without touching the body or revisiting a cell.
func survives(s State, cell grid.Point) bool {
	visited := mapset.New[grid.Point]()
	return walk(s, cell, 1, visited)
}

func walk(s State, cell grid.Point, step int, visited mapset.Set[grid.Point]) bool {
	if visited.Has(cell) || occupiedAt(s.Snake, cell, step) {
		return false
	}
	if step >= config.LookaheadHorizon {
		return true
	}
	visited.Put(cell)

	for _, h := range grid.Headings {
		next, ok := s.Board.Next(cell, h)
		if ok && walk(s, next, step+1, visited) {
			return true
		}
	}
	return false
}
