package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trytobebee/snakeai/pkg/autopilot"
	"github.com/trytobebee/snakeai/pkg/config"
	"github.com/trytobebee/snakeai/pkg/grid"
)

type fakeStats struct {
	starts []bool
	scores []int
	ends   int
}

func (f *fakeStats) RecordGameStart(ai bool) { f.starts = append(f.starts, ai) }
func (f *fakeStats) RecordScore(score int)   { f.scores = append(f.scores, score) }
func (f *fakeStats) RecordGameEnd()          { f.ends++ }

type eventLog struct {
	events []Event
}

func (l *eventLog) count(t EventType) int {
	n := 0
	for _, e := range l.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

func (l *eventLog) last(t EventType) (Event, bool) {
	for i := len(l.events) - 1; i >= 0; i-- {
		if l.events[i].Type == t {
			return l.events[i], true
		}
	}
	return Event{}, false
}

func newTestGame(t *testing.T, mutate func(*Options)) (*Game, *ManualClock, *fakeStats, *eventLog) {
	t.Helper()
	clock := NewManualClock(epoch)
	stats := &fakeStats{}
	opts := DefaultOptions()
	opts.Width = 10
	opts.Height = 10
	opts.PowerUps = false
	opts.Seed = 1
	opts.Clock = clock
	opts.Stats = stats
	if mutate != nil {
		mutate(&opts)
	}

	g, err := NewGame(opts)
	require.NoError(t, err)

	log := &eventLog{}
	for _, et := range []EventType{EventStateChanged, EventGameOver, EventFoodEaten, EventPowerUpCollected, EventPowerUpExpired} {
		g.Subscribe(et, func(e Event) { log.events = append(log.events, e) })
	}
	return g, clock, stats, log
}

// place swaps in a snake and a food cell
func place(g *Game, snake []grid.Point, heading grid.Heading, food grid.Point) {
	g.snake = NewSnakeAt(snake, heading)
	g.food = food
}

func TestNewGameValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
		want   error
	}{
		{"zero width", func(o *Options) { o.Width = 0 }, grid.ErrInvalidBoard},
		{"negative height", func(o *Options) { o.Height = -1 }, grid.ErrInvalidBoard},
		{"speed too high", func(o *Options) { o.Speed = 9 }, config.ErrInvalidSpeed},
		{"speed zero", func(o *Options) { o.Speed = 0 }, config.ErrInvalidSpeed},
		{"too narrow", func(o *Options) { o.Width = 2 }, ErrBoardTooSmall},
		{"no room for food", func(o *Options) { o.Width, o.Height = 3, 1 }, ErrBoardTooSmall},
		{"safe rows cover board", func(o *Options) { o.SafeTopRows = 10 }, ErrInvalidOptions},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.Width, opts.Height = 10, 10
			tc.mutate(&opts)
			_, err := NewGame(opts)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestInitialState(t *testing.T) {
	g, _, stats, log := newTestGame(t, nil)

	s := g.Snapshot()
	assert.Equal(t, pts(5, 5, 4, 5, 3, 5), s.Snake)
	assert.NotContains(t, s.Snake, s.Food)
	assert.False(t, s.Started)
	assert.Equal(t, 200*time.Millisecond, s.Interval)

	assert.False(t, g.Step(), "no ticks before Start")
	assert.Empty(t, log.events)

	g.Start()
	g.Start()
	assert.Equal(t, []bool{false}, stats.starts)
	assert.Equal(t, 1, log.count(EventStateChanged))
}

func TestClosedBoardWallEndsGame(t *testing.T) {
	g, _, stats, log := newTestGame(t, func(o *Options) {
		o.Width, o.Height, o.Mode = 5, 5, grid.Closed
	})
	place(g, pts(0, 2, 1, 2, 2, 2), grid.Left, grid.Point{X: 4, Y: 4})
	g.Start()

	assert.True(t, g.Step())
	assert.True(t, g.Over())

	over, ok := log.last(EventGameOver)
	require.True(t, ok)
	assert.Equal(t, 0, over.Score)
	assert.Equal(t, WallCollision, over.Reason)
	require.NotNil(t, over.Snapshot.CrashPoint)
	assert.Equal(t, grid.Point{X: -1, Y: 2}, *over.Snapshot.CrashPoint)
	assert.Equal(t, 1, stats.ends)

	changes := log.count(EventStateChanged)
	assert.False(t, g.Step(), "game over freezes the simulation")
	assert.False(t, g.SetHeading(grid.Up))
	assert.Equal(t, changes, log.count(EventStateChanged))
	assert.Equal(t, 1, log.count(EventGameOver))
}

func TestReversingIntoBodyEndsGame(t *testing.T) {
	g, _, _, log := newTestGame(t, func(o *Options) {
		o.Width, o.Height, o.Mode = 5, 5, grid.Closed
	})
	place(g, pts(2, 2, 1, 2, 0, 2), grid.Left, grid.Point{X: 4, Y: 4})
	g.Start()

	g.Step()
	over, ok := log.last(EventGameOver)
	require.True(t, ok)
	assert.Equal(t, SelfCollision, over.Reason)
	assert.Equal(t, 0, over.Score)
}

func TestOpenBoardWrapMove(t *testing.T) {
	g, _, _, _ := newTestGame(t, func(o *Options) {
		o.Width, o.Height, o.Mode = 5, 5, grid.Open
	})
	place(g, pts(4, 2, 3, 2, 2, 2), grid.Right, grid.Point{X: 0, Y: 0})
	g.Start()

	require.True(t, g.Step())
	s := g.Snapshot()
	assert.False(t, s.Over)
	assert.Equal(t, pts(0, 2, 4, 2, 3, 2), s.Snake)
}

func TestEatingFoodScoresAndGrows(t *testing.T) {
	g, _, stats, log := newTestGame(t, nil)
	place(g, pts(5, 5, 4, 5, 3, 5), grid.Right, grid.Point{X: 6, Y: 5})
	g.Start()

	g.Step()
	s := g.Snapshot()
	assert.Equal(t, 1, s.Score)
	assert.Equal(t, 1, s.FoodEaten)
	assert.Len(t, s.Snake, 4)
	assert.NotContains(t, s.Snake, s.Food)
	assert.Equal(t, []int{1}, stats.scores)

	eaten, ok := log.last(EventFoodEaten)
	require.True(t, ok)
	assert.Equal(t, 1, eaten.Score)
	assert.Equal(t, 1, eaten.Multiplier)
}

func TestScoreMultiplierApplied(t *testing.T) {
	g, clock, _, log := newTestGame(t, nil)
	place(g, pts(5, 5, 4, 5, 3, 5), grid.Right, grid.Point{X: 6, Y: 5})
	g.ledger.Collect(ScoreMultiplier, clock.Now())
	g.Start()

	g.Step()
	assert.Equal(t, 3, g.Score())
	eaten, ok := log.last(EventFoodEaten)
	require.True(t, ok)
	assert.Equal(t, 3, eaten.Multiplier)
}

func TestPowerUpCollectAndExpire(t *testing.T) {
	g, clock, stats, log := newTestGame(t, nil)
	place(g, pts(5, 5, 4, 5, 3, 5), grid.Right, grid.Point{X: 0, Y: 0})
	g.powerUps = []PowerUpFood{{Cell: grid.Point{X: 6, Y: 5}, Kind: SpeedUp, CreatedAt: clock.Now()}}
	g.Start()

	g.Step()
	s := g.Snapshot()
	assert.Len(t, s.Snake, 4, "power-up food grows the snake")
	assert.Equal(t, 0, s.Score)
	assert.Empty(t, s.PowerUps)
	assert.Empty(t, stats.scores)
	assert.Equal(t, 100*time.Millisecond, g.Interval())

	collected, ok := log.last(EventPowerUpCollected)
	require.True(t, ok)
	assert.Equal(t, SpeedUp, collected.Kind)

	clock.Advance(10*time.Second + 10*time.Millisecond)
	g.Step()
	expired, ok := log.last(EventPowerUpExpired)
	require.True(t, ok)
	assert.Equal(t, SpeedUp, expired.Kind)
	assert.Equal(t, 200*time.Millisecond, g.Interval())
}

func TestUncollectedPowerUpFoodExpires(t *testing.T) {
	g, clock, _, log := newTestGame(t, nil)
	place(g, pts(5, 5, 4, 5, 3, 5), grid.Right, grid.Point{X: 0, Y: 0})
	g.powerUps = []PowerUpFood{{Cell: grid.Point{X: 0, Y: 9}, Kind: SlowDown, CreatedAt: clock.Now()}}
	g.Start()

	clock.Advance(10 * time.Second)
	g.Step()
	assert.Empty(t, g.Snapshot().PowerUps)
	assert.Zero(t, log.count(EventPowerUpExpired), "only collected effects report expiry")
}

func TestPauseFreezesTimers(t *testing.T) {
	g, clock, _, _ := newTestGame(t, nil)
	place(g, pts(5, 5, 4, 5, 3, 5), grid.Right, grid.Point{X: 0, Y: 0})
	g.Start()
	g.ledger.Collect(SpeedUp, clock.Now())

	assert.True(t, g.TogglePause())
	assert.True(t, g.Paused())
	assert.False(t, g.Step(), "no ticks while paused")

	clock.Advance(20 * time.Second)
	assert.False(t, g.TogglePause())
	assert.True(t, g.Step())
	assert.Equal(t, 100*time.Millisecond, g.Interval(), "the effect did not run down while paused")

	clock.Advance(10 * time.Second)
	g.Step()
	assert.Equal(t, 200*time.Millisecond, g.Interval())
	assert.Equal(t, 10*time.Second, g.Snapshot().Elapsed)
}

func TestBoardFullEndsGame(t *testing.T) {
	g, _, stats, log := newTestGame(t, func(o *Options) {
		o.Width, o.Height = 4, 1
	})
	require.Equal(t, grid.Point{X: 3, Y: 0}, g.Snapshot().Food, "the only free cell")
	g.Start()

	g.Step()
	over, ok := log.last(EventGameOver)
	require.True(t, ok)
	assert.Equal(t, BoardFull, over.Reason)
	assert.Equal(t, 1, over.Score)
	assert.Len(t, over.Snapshot.Snake, 4)
	assert.Equal(t, 1, stats.ends)
}

func TestStepOnceAdvancesOneCell(t *testing.T) {
	g, _, _, _ := newTestGame(t, nil)
	place(g, pts(5, 5, 4, 5, 3, 5), grid.Right, grid.Point{X: 0, Y: 0})
	g.Start()

	require.True(t, g.StepOnce())
	assert.Equal(t, grid.Point{X: 6, Y: 5}, g.Snapshot().Snake[0])
	require.True(t, g.Step())
	assert.Equal(t, grid.Point{X: 7, Y: 5}, g.Snapshot().Snake[0])
}

func TestRestart(t *testing.T) {
	g, _, stats, _ := newTestGame(t, func(o *Options) {
		o.Mode = grid.Closed
		o.Autopilot = true
	})
	place(g, pts(0, 2, 1, 2, 2, 2), grid.Left, grid.Point{X: 9, Y: 9})
	g.SetAutopilot(false)
	g.Start()
	g.Step()
	require.True(t, g.Over())

	g.SetAutopilot(true)
	g.Restart()
	s := g.Snapshot()
	assert.True(t, s.Started)
	assert.False(t, s.Over)
	assert.Zero(t, s.Score)
	assert.Len(t, s.Snake, config.InitialLength)
	assert.Nil(t, s.CrashPoint)
	assert.Equal(t, []bool{false, true}, stats.starts)
	assert.Equal(t, 1, stats.ends)

	// Restarting a running game counts it as ended
	g.Restart()
	assert.Equal(t, 2, stats.ends)
}

func TestSetSpeed(t *testing.T) {
	g, _, _, _ := newTestGame(t, nil)
	assert.ErrorIs(t, g.SetSpeed(0), config.ErrInvalidSpeed)
	require.NoError(t, g.SetSpeed(5))
	assert.Equal(t, 100*time.Millisecond, g.Interval())
	assert.Equal(t, 5, g.Snapshot().Speed)
}

func TestSetPowerUpsDisableClearsFoods(t *testing.T) {
	g, clock, _, _ := newTestGame(t, nil)
	g.powerUps = []PowerUpFood{{Cell: grid.Point{X: 0, Y: 9}, Kind: SlowDown, CreatedAt: clock.Now()}}
	g.ledger.Collect(SpeedUp, clock.Now())

	g.SetPowerUps(false)
	s := g.Snapshot()
	assert.Empty(t, s.PowerUps)
	assert.Len(t, s.Active, 1, "collected effects keep running")
}

func TestSnapshotIsCopy(t *testing.T) {
	g, _, _, _ := newTestGame(t, nil)
	s := g.Snapshot()
	s.Snake[0] = grid.Point{X: 99, Y: 99}
	assert.Equal(t, grid.Point{X: 5, Y: 5}, g.Snapshot().Snake[0])
}

func TestSameSeedSameGame(t *testing.T) {
	a, _, _, _ := newTestGame(t, func(o *Options) { o.Seed = 77 })
	b, _, _, _ := newTestGame(t, func(o *Options) { o.Seed = 77 })
	assert.Equal(t, a.Snapshot().Food, b.Snapshot().Food)
}

func TestAutopilotLevelSwitch(t *testing.T) {
	g, _, _, _ := newTestGame(t, nil)
	assert.False(t, g.SetAutopilotLevel(autopilot.Basic))
	assert.True(t, g.SetAutopilotLevel(autopilot.Genius))
	assert.Equal(t, autopilot.Genius, g.Snapshot().Level)
}

// Long autopilot runs with power-ups keep food and the body consistent
func TestAutopilotRunInvariants(t *testing.T) {
	for _, lvl := range []autopilot.Level{autopilot.Basic, autopilot.Smart, autopilot.Genius} {
		t.Run(lvl.String(), func(t *testing.T) {
			g, clock, _, log := newTestGame(t, func(o *Options) {
				o.Autopilot = true
				o.Level = lvl
				o.PowerUps = true
				o.Seed = 11
			})
			g.Start()

			prevLen := config.InitialLength
			for tick := 0; tick < 500; tick++ {
				clock.Advance(g.Interval())
				eaten := log.count(EventFoodEaten) + log.count(EventPowerUpCollected)
				g.Step()
				if g.Over() {
					g.Restart()
					prevLen = config.InitialLength
					continue
				}

				s := g.Snapshot()
				grew := log.count(EventFoodEaten)+log.count(EventPowerUpCollected) > eaten
				if grew {
					assert.Equal(t, prevLen+1, len(s.Snake))
				} else {
					assert.Equal(t, prevLen, len(s.Snake))
				}
				prevLen = len(s.Snake)

				seen := make(map[grid.Point]bool)
				for _, c := range s.Snake {
					require.False(t, seen[c], "overlap at %v", c)
					seen[c] = true
				}
				assert.False(t, seen[s.Food], "food under the snake")
				for _, p := range s.PowerUps {
					assert.NotEqual(t, s.Food, p.Cell)
					assert.False(t, seen[p.Cell])
				}
			}
			assert.Positive(t, log.count(EventFoodEaten))
		})
	}
}
