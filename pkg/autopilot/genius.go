package autopilot

import (
	"github.com/zyedidia/generic/heap"
	"github.com/zyedidia/generic/mapset"

	"github.com/trytobebee/snakeai/pkg/grid"
)

// nextGenius takes the direct step toward the food when it is legal and
// otherwise follows the first step of an A* path. With no path it defers
// to the Smart policy.
func nextGenius(s State) grid.Heading {
	head := s.Snake[0]
	if h := dominant(s); h != grid.None {
		if next, ok := s.Board.Next(head, h); ok && !occupiedAt(s.Snake, next, 1) {
			return h
		}
	}

	if h, ok := searchPath(s); ok {
		return h
	}
	return nextSmart(s)
}

type searchNode struct {
	cell grid.Point
	g    int // Steps from the head
	h    int // Heuristic distance to the food
	seq  int // Insertion order
}

// lessNode orders the open set by f, then h, then insertion order so that
// equal-cost frontiers expand deterministically.
func lessNode(a, b searchNode) bool {
	fa, fb := a.g+a.h, b.g+b.h
	if fa != fb {
		return fa < fb
	}
	if a.h != b.h {
		return a.h < b.h
	}
	return a.seq < b.seq
}

// searchPath runs A* from the head to the food over cells not covered by
// the body. The tail is passable because it vacates on the first move.
func searchPath(s State) (grid.Heading, bool) {
	head := s.Snake[0]
	if head == s.Food {
		return grid.None, false
	}

	blocked := mapset.New[grid.Point]()
	for _, p := range s.Snake[:len(s.Snake)-1] {
		blocked.Put(p)
	}

	open := heap.New[searchNode](lessNode)
	closed := mapset.New[grid.Point]()
	best := map[grid.Point]int{head: 0}
	parent := make(map[grid.Point]grid.Point)

	seq := 0
	open.Push(searchNode{cell: head, g: 0, h: s.Board.Distance(head, s.Food), seq: seq})

	for open.Size() > 0 {
		cur, _ := open.Pop()
		if closed.Has(cur.cell) {
			continue
		}
		if cur.cell == s.Food {
			return firstStep(s.Board, head, cur.cell, parent), true
		}
		closed.Put(cur.cell)

		for _, h := range grid.Headings {
			next, ok := s.Board.Next(cur.cell, h)
			if !ok || closed.Has(next) || blocked.Has(next) {
				continue
			}
			g := cur.g + 1
			if old, seen := best[next]; seen && g >= old {
				continue
			}
			best[next] = g
			parent[next] = cur.cell
			seq++
			open.Push(searchNode{cell: next, g: g, h: s.Board.Distance(next, s.Food), seq: seq})
		}
	}
	return grid.None, false
}

// firstStep walks parent links back from goal to the cell adjacent to head
func firstStep(b grid.Board, head, goal grid.Point, parent map[grid.Point]grid.Point) grid.Heading {
	step := goal
	for {
		prev, ok := parent[step]
		if !ok || prev == head {
			break
		}
		step = prev
	}
	return b.HeadingTo(head, step)
}
