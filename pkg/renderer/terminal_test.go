package renderer

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trytobebee/snakeai/pkg/autopilot"
	"github.com/trytobebee/snakeai/pkg/config"
	"github.com/trytobebee/snakeai/pkg/game"
	"github.com/trytobebee/snakeai/pkg/grid"
)

func snapshot() game.Snapshot {
	now := time.Unix(100, 0)
	return game.Snapshot{
		Board:    grid.Board{Width: 6, Height: 4, Mode: grid.Closed},
		Snake:    []grid.Point{{X: 3, Y: 2}, {X: 2, Y: 2}, {X: 1, Y: 2}},
		Heading:  grid.Right,
		Food:     grid.Point{X: 5, Y: 0},
		PowerUps: []game.PowerUpFood{{Cell: grid.Point{X: 0, Y: 3}, Kind: game.SlowDown, CreatedAt: now}},
		Active:   []game.ActivePowerUp{{Kind: game.ScoreMultiplier, ExpiresAt: now.Add(42 * time.Second)}},
		Score:    7,
		Speed:    3,
		Interval: 200 * time.Millisecond,
		Started:  true,
		Level:    autopilot.Smart,
		Now:      now,
	}
}

func TestDrawBoard(t *testing.T) {
	r := NewTerminalRenderer(&bytes.Buffer{}, 6, 4)
	var buf strings.Builder
	r.Draw(&buf, snapshot())
	out := buf.String()

	assert.Equal(t, 1, strings.Count(out, config.CharHead))
	assert.Equal(t, 2, strings.Count(out, config.CharBody))
	assert.Equal(t, 1, strings.Count(out, config.CharFood))
	// One on the board, none in the legend
	assert.Equal(t, 1, strings.Count(out, config.CharSlowDown))
	assert.Contains(t, out, "scoreMultiplier 42s")
	assert.Contains(t, out, "Score: 7")
	assert.Contains(t, out, "Mode: closed")
	assert.Contains(t, out, "Autopilot: off")
	assert.NotContains(t, out, "PAUSED")
	assert.NotContains(t, out, "GAME OVER")

	// Top border, four rows, bottom border: each row is framed by two edges
	assert.Equal(t, 2*(6+2)+2*4, strings.Count(out, config.CharWall))
}

func TestDrawOpenBoardAndOverlays(t *testing.T) {
	s := snapshot()
	s.Board.Mode = grid.Open
	s.Autopilot = true
	s.Paused = true

	r := NewTerminalRenderer(&bytes.Buffer{}, 1, 1)
	var buf strings.Builder
	r.Draw(&buf, s)
	out := buf.String()

	assert.NotContains(t, out, config.CharWall)
	assert.Contains(t, out, config.CharOpenEdge)
	assert.Contains(t, out, "Autopilot: smart")
	assert.Contains(t, out, "PAUSED")
}

func TestRenderGameOver(t *testing.T) {
	s := snapshot()
	s.Over = true
	s.Reason = game.WallCollision
	crash := grid.Point{X: 5, Y: 2}
	s.CrashPoint = &crash
	outside := grid.Point{X: 9, Y: 9}

	var out bytes.Buffer
	r := NewTerminalRenderer(&out, 6, 4)
	require.NoError(t, r.Render(s))
	assert.True(t, strings.HasPrefix(out.String(), "\033[H"))
	assert.Contains(t, out.String(), config.CharCrash)
	assert.Contains(t, out.String(), "GAME OVER (wall)")

	// A crash point off the board is not drawn
	s.CrashPoint = &outside
	out.Reset()
	require.NoError(t, r.Render(s))
	assert.NotContains(t, out.String(), config.CharCrash)
}
