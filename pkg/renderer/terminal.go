package renderer

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/trytobebee/snakeai/pkg/config"
	"github.com/trytobebee/snakeai/pkg/game"
	"github.com/trytobebee/snakeai/pkg/grid"
)

// TerminalRenderer draws snapshots as text
type TerminalRenderer struct {
	out    io.Writer
	board  [][]int
	buffer strings.Builder
}

// Cell types for the board
const (
	cellEmpty = iota
	cellHead
	cellBody
	cellCrash
	cellFood
	cellSpeedUp
	cellSlowDown
	cellScoreX3
)

// NewTerminalRenderer creates a renderer writing to out
func NewTerminalRenderer(out io.Writer, width, height int) *TerminalRenderer {
	r := &TerminalRenderer{out: out}
	r.resize(width, height)
	return r
}

// Pre-allocate board to reduce GC pressure
func (r *TerminalRenderer) resize(width, height int) {
	if len(r.board) == height && (height == 0 || len(r.board[0]) == width) {
		return
	}
	r.board = make([][]int, height)
	for i := range r.board {
		r.board[i] = make([]int, width)
	}
}

// ShowCursor shows the cursor (call on exit)
func (r *TerminalRenderer) ShowCursor() {
	fmt.Fprint(r.out, "\033[?25h")
}

// HideCursor hides the cursor (call on start)
func (r *TerminalRenderer) HideCursor() {
	fmt.Fprint(r.out, "\033[?25l")
}

// Render clears the screen and draws the snapshot
func (r *TerminalRenderer) Render(s game.Snapshot) error {
	r.buffer.Reset()
	r.buffer.WriteString("\033[H\033[2J\033[3J")
	r.Draw(&r.buffer, s)
	_, err := io.WriteString(r.out, r.buffer.String())
	return err
}

// Draw writes the text frame for s without terminal control codes
func (r *TerminalRenderer) Draw(buf *strings.Builder, s game.Snapshot) {
	b := s.Board
	r.resize(b.Width, b.Height)
	for y := range r.board {
		for x := range r.board[y] {
			r.board[y][x] = cellEmpty
		}
	}

	r.set(b, s.Food, cellFood)
	for _, p := range s.PowerUps {
		r.set(b, p.Cell, powerUpCell(p.Kind))
	}
	for i, p := range s.Snake {
		if i == 0 {
			r.set(b, p, cellHead)
		} else {
			r.set(b, p, cellBody)
		}
	}
	if s.Over && s.CrashPoint != nil {
		r.set(b, *s.CrashPoint, cellCrash)
	}

	buf.WriteString("\n  🐍 SNAKE 🐍\n")
	pilot := "off"
	if s.Autopilot {
		pilot = s.Level.String()
	}
	fmt.Fprintf(buf, "  Score: %d  |  Eaten: %d  |  Speed: %d (%dms)  |  Mode: %s  |  Autopilot: %s\n",
		s.Score, s.FoodEaten, s.Speed, s.Interval.Milliseconds(), b.Mode, pilot)

	if len(s.Active) > 0 {
		buf.WriteString("  Active:")
		for _, a := range s.Active {
			fmt.Fprintf(buf, " %s %s %ds", powerUpChar(a.Kind), a.Kind, int(a.Remaining(s.Now).Round(time.Second)/time.Second))
		}
		buf.WriteString("\n")
	} else {
		buf.WriteString("\n")
	}
	buf.WriteString("\n")

	edge := config.CharOpenEdge
	if b.Mode == grid.Closed {
		edge = config.CharWall
	}
	border := "  " + strings.Repeat(edge, b.Width+2) + "\n"

	buf.WriteString(border)
	for _, row := range r.board {
		buf.WriteString("  ")
		buf.WriteString(edge)
		for _, cell := range row {
			buf.WriteString(cellChar(cell))
		}
		buf.WriteString(edge)
		buf.WriteString("\n")
	}
	buf.WriteString(border)

	buf.WriteString("\n  WASD or arrows to steer, press twice quickly to force a move\n")
	buf.WriteString("  P pause, T autopilot, 1-3 level, +/- speed, M walls, U power-ups, Q quit\n")

	if s.Paused {
		buf.WriteString("\n  ⏸️  PAUSED - Press P to continue\n")
	}

	if s.Over {
		fmt.Fprintf(buf, "\n  💀 GAME OVER (%s)! Press R to restart or Q to quit\n", s.Reason)
	} else if !s.Started {
		buf.WriteString("\n  Press R to start\n")
	}
}

func (r *TerminalRenderer) set(b grid.Board, p grid.Point, cell int) {
	if b.Contains(p) {
		r.board[p.Y][p.X] = cell
	}
}

func powerUpCell(k game.PowerUpKind) int {
	switch k {
	case game.SpeedUp:
		return cellSpeedUp
	case game.SlowDown:
		return cellSlowDown
	default:
		return cellScoreX3
	}
}

func powerUpChar(k game.PowerUpKind) string {
	return cellChar(powerUpCell(k))
}

func cellChar(cell int) string {
	switch cell {
	case cellHead:
		return config.CharHead
	case cellBody:
		return config.CharBody
	case cellCrash:
		return config.CharCrash
	case cellFood:
		return config.CharFood
	case cellSpeedUp:
		return config.CharSpeedUp
	case cellSlowDown:
		return config.CharSlowDown
	case cellScoreX3:
		return config.CharScoreX3
	default:
		return config.CharEmpty
	}
}
