package wire

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trytobebee/snakeai/pkg/autopilot"
	"github.com/trytobebee/snakeai/pkg/game"
	"github.com/trytobebee/snakeai/pkg/grid"
	"github.com/trytobebee/snakeai/pkg/stats"
)

func snapshot() game.Snapshot {
	now := time.Unix(1000, 0)
	crash := grid.Point{X: 4, Y: 0}
	return game.Snapshot{
		Board:   grid.Board{Width: 10, Height: 8, Mode: grid.Closed},
		Snake:   []grid.Point{{X: 3, Y: 0}, {X: 2, Y: 0}},
		Heading: grid.Right,
		Food:    grid.Point{X: 7, Y: 7},
		PowerUps: []game.PowerUpFood{
			{Cell: grid.Point{X: 1, Y: 1}, Kind: game.SpeedUp, CreatedAt: now.Add(-4 * time.Second)},
			{Cell: grid.Point{X: 2, Y: 2}, Kind: game.SlowDown, CreatedAt: now.Add(-20 * time.Second)},
		},
		Active:     []game.ActivePowerUp{{Kind: game.ScoreMultiplier, ExpiresAt: now.Add(30 * time.Second)}},
		Score:      12,
		FoodEaten:  6,
		Multiplier: 3,
		Interval:   200 * time.Millisecond,
		Speed:      3,
		Autopilot:  true,
		Level:      autopilot.Genius,
		Started:    true,
		Over:       true,
		Reason:     game.WallCollision,
		CrashPoint: &crash,
		Elapsed:    90 * time.Second,
		Tick:       450,
		Now:        now,
	}
}

func TestFromSnapshot(t *testing.T) {
	f := FromSnapshot(snapshot())

	assert.Equal(t, 450, f.Tick)
	assert.Equal(t, "closed", f.Mode)
	assert.Equal(t, "right", f.Heading)
	assert.Equal(t, "genius", f.Level)
	assert.Equal(t, "wall", f.Reason)
	assert.Equal(t, int64(200), f.IntervalMs)
	assert.Equal(t, int64(90000), f.ElapsedMs)
	require.NotNil(t, f.Crash)
	assert.Equal(t, grid.Point{X: 4, Y: 0}, *f.Crash)

	require.Len(t, f.PowerUps, 2)
	assert.Equal(t, "speedUp", f.PowerUps[0].Kind)
	assert.Equal(t, int64(6000), f.PowerUps[0].RemainingMs)
	assert.Zero(t, f.PowerUps[1].RemainingMs, "overdue food clamps to zero")

	require.Len(t, f.Active, 1)
	assert.Nil(t, f.Active[0].Cell)
	assert.Equal(t, int64(30000), f.Active[0].RemainingMs)
}

func TestFromSnapshotEmptyLists(t *testing.T) {
	f := FromSnapshot(game.Snapshot{})
	assert.NotNil(t, f.PowerUps)
	assert.NotNil(t, f.Active)
	assert.Empty(t, f.Reason)
}

func TestFromEvent(t *testing.T) {
	f := FromEvent(game.Event{Type: game.EventPowerUpCollected, Kind: game.SlowDown})
	assert.Equal(t, "powerUpCollected", f.Type)
	assert.Equal(t, "slowDown", f.Kind)

	f = FromEvent(game.Event{Type: game.EventFoodEaten, Score: 4, Multiplier: 3})
	assert.Equal(t, "foodEaten", f.Type)
	assert.Empty(t, f.Kind)
	assert.Equal(t, 3, f.Multiplier)
}

func TestCodecsCarryServerMessages(t *testing.T) {
	frame := FromSnapshot(snapshot())
	msg := ServerMessage{Type: TypeState, State: &frame, Stats: &stats.Stats{HighScore: 9}}

	for _, name := range []string{"json", "msgpack"} {
		t.Run(name, func(t *testing.T) {
			c, err := CodecByName(name)
			require.NoError(t, err)
			assert.Equal(t, name, c.Name())
			assert.Equal(t, name == "msgpack", c.Binary())

			data, err := c.Marshal(msg)
			require.NoError(t, err)

			var got ServerMessage
			require.NoError(t, c.Unmarshal(data, &got))
			assert.Equal(t, TypeState, got.Type)
			require.NotNil(t, got.State)
			assert.Equal(t, frame.Snake, got.State.Snake)
			assert.Equal(t, frame.PowerUps[0], got.State.PowerUps[0])
			assert.Equal(t, 9, got.Stats.HighScore)
			assert.Nil(t, got.Event)
		})
	}
}

func TestDecodeClientMessage(t *testing.T) {
	var msg ClientMessage
	require.NoError(t, JSON{}.Unmarshal([]byte(`{"action":"level","value":"smart"}`), &msg))
	assert.Equal(t, ClientMessage{Action: ActionLevel, Value: "smart"}, msg)

	_, err := CodecByName("xml")
	assert.Error(t, err)
}
