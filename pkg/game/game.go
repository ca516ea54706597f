// Package game runs the tick-based snake simulation: movement, food and
// power-up spawning, timed effects and event emission.
//
// A Game is not safe for concurrent use. Hosts drive Step, StepOnce and the
// setters from a single loop.
package game

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/trytobebee/snakeai/pkg/autopilot"
	"github.com/trytobebee/snakeai/pkg/config"
	"github.com/trytobebee/snakeai/pkg/grid"
)

var (
	// ErrBoardTooSmall is returned when the starting snake and a food cannot both fit
	ErrBoardTooSmall = errors.New("board too small")
	// ErrInvalidOptions is returned for option values outside their range
	ErrInvalidOptions = errors.New("invalid options")
)

// StatsRecorder receives fire-and-forget statistics notifications. Calls are
// made on the tick path and must not block.
type StatsRecorder interface {
	RecordGameStart(ai bool)
	RecordScore(score int)
	RecordGameEnd()
}

type nopStats struct{}

func (nopStats) RecordGameStart(bool) {}
func (nopStats) RecordScore(int)      {}
func (nopStats) RecordGameEnd()       {}

// Options configure a game at construction
type Options struct {
	Width, Height int
	Mode          grid.Mode
	Speed         int // Index into the speed ladder, 1..5
	Autopilot     bool
	Level         autopilot.Level
	PowerUps      bool
	EnabledKinds  []PowerUpKind
	SafeTopRows   int
	Seed          int64 // Zero picks a time-based seed
	Clock         Clock
	Logger        log.Logger
	Stats         StatsRecorder
}

// DefaultOptions returns a standard open board at the default speed with all
// power-ups enabled.
func DefaultOptions() Options {
	return Options{
		Width:        config.StandardWidth,
		Height:       config.StandardHeight,
		Mode:         grid.Open,
		Speed:        config.DefaultSpeed,
		Level:        autopilot.Basic,
		PowerUps:     true,
		EnabledKinds: AllKinds,
		SafeTopRows:  config.SafeTopRows,
	}
}

// Game represents the simulation state
type Game struct {
	board    grid.Board
	snake    *Snake
	food     grid.Point
	powerUps []PowerUpFood
	ledger   Ledger
	spawner  *Spawner
	pilot    *autopilot.Pilot

	autopilotOn bool
	powerUpsOn  bool
	speed       int
	base        time.Duration

	clock  *PausableClock
	bus    *EventBus
	logger log.Logger
	stats  StatsRecorder

	score     int
	foodEaten int
	ticks     int
	started   bool
	over      bool
	reason    EndReason
	crash     *grid.Point
	startTime time.Time
}

// NewGame validates opts and prepares a game that is ready to Start
func NewGame(opts Options) (*Game, error) {
	base, err := config.BaseInterval(opts.Speed)
	if err != nil {
		return nil, fmt.Errorf("new game: %w", err)
	}
	board, err := grid.NewBoard(opts.Width, opts.Height, opts.Mode)
	if err != nil {
		return nil, fmt.Errorf("new game: %w", err)
	}
	if opts.SafeTopRows < 0 || opts.SafeTopRows >= opts.Height {
		return nil, fmt.Errorf("new game: safe top rows %d: %w", opts.SafeTopRows, ErrInvalidOptions)
	}
	// The initial snake must fit on the rows food may use too
	if _, err := NewSnake(board); err != nil {
		return nil, fmt.Errorf("new game: %w", err)
	}
	if opts.Width*(opts.Height-opts.SafeTopRows) <= config.InitialLength {
		return nil, fmt.Errorf("new game: no room for food: %w", ErrBoardTooSmall)
	}

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}
	stats := opts.Stats
	if stats == nil {
		stats = nopStats{}
	}

	g := &Game{
		board:       board,
		spawner:     NewSpawner(rand.New(rand.NewSource(seed)), opts.SafeTopRows),
		pilot:       autopilot.NewPilot(opts.Level),
		autopilotOn: opts.Autopilot,
		powerUpsOn:  opts.PowerUps,
		speed:       opts.Speed,
		base:        base,
		clock:       NewPausableClock(opts.Clock),
		bus:         NewEventBus(),
		logger:      log.With(logger, "component", "game"),
		stats:       stats,
	}
	g.spawner.SetKinds(opts.EnabledKinds)
	g.reset()
	return g, nil
}

// reset puts a fresh snake and food on the board. The game is left unstarted.
func (g *Game) reset() {
	g.snake, _ = NewSnake(g.board)
	g.powerUps = nil
	g.ledger.Reset()
	g.score = 0
	g.foodEaten = 0
	g.ticks = 0
	g.started = false
	g.over = false
	g.reason = NotOver
	g.crash = nil
	g.clock.Resume()
	g.placeFood(g.clock.Now())
}

// Start begins the game. Starting twice is a no-op.
func (g *Game) Start() {
	if g.started {
		return
	}
	g.started = true
	g.startTime = g.clock.Now()
	g.stats.RecordGameStart(g.autopilotOn)
	level.Info(g.logger).Log("msg", "game started", "board", fmt.Sprintf("%dx%d", g.board.Width, g.board.Height),
		"mode", g.board.Mode, "speed", g.speed, "autopilot", g.autopilotOn, "level", g.pilot.Level())
	g.bus.Emit(Event{Type: EventStateChanged, Snapshot: g.Snapshot()})
}

// Restart abandons the current game, if any, and starts a new one
func (g *Game) Restart() {
	if g.started && !g.over {
		g.stats.RecordGameEnd()
	}
	g.reset()
	g.Start()
}

// Step performs one scheduled tick. It returns false when the game is not
// running (unstarted, paused or over).
func (g *Game) Step() bool {
	if !g.started || g.over || g.clock.IsPaused() {
		return false
	}
	now := g.clock.Now()
	g.sweepExpired(now)

	heading := g.snake.Heading()
	if g.autopilotOn {
		heading = g.pilot.Decide(autopilot.State{Snake: g.snake.body, Food: g.food, Board: g.board})
	}

	move := g.snake.Advance(g.board, heading, g.edible)
	if move.Collided {
		reason := SelfCollision
		if move.Wall {
			reason = WallCollision
		}
		cell := move.Cell
		g.end(reason, &cell)
		return true
	}
	g.ticks++

	if move.Ate {
		g.consume(move.Cell, now)
		if g.over {
			return true
		}
	}
	g.bus.Emit(Event{Type: EventStateChanged, Snapshot: g.Snapshot()})
	return true
}

// StepOnce performs an immediate extra tick outside the scheduler cadence.
// Hosts call it for forced moves from the same loop that drives Step.
func (g *Game) StepOnce() bool {
	return g.Step()
}

func (g *Game) edible(p grid.Point) bool {
	return p == g.food || g.powerUpAt(p) >= 0
}

func (g *Game) powerUpAt(p grid.Point) int {
	for i, f := range g.powerUps {
		if f.Cell == p {
			return i
		}
	}
	return -1
}

// consume handles the head landing on food or a power-up food
func (g *Game) consume(cell grid.Point, now time.Time) {
	if cell == g.food {
		mult := g.ledger.ScoreMultiplier()
		g.score += mult
		g.foodEaten++
		g.stats.RecordScore(g.score)
		g.bus.Emit(Event{Type: EventFoodEaten, Score: g.score, Multiplier: mult})
		g.placeFood(now)
		return
	}

	i := g.powerUpAt(cell)
	if i < 0 {
		return
	}
	kind := g.powerUps[i].Kind
	g.powerUps = append(g.powerUps[:i], g.powerUps[i+1:]...)
	g.ledger.Collect(kind, now)
	level.Debug(g.logger).Log("msg", "power-up collected", "kind", kind)
	g.bus.Emit(Event{Type: EventPowerUpCollected, Kind: kind})
}

// placeFood puts a new food on the board and rolls for a power-up. A board
// with no free cell ends the game.
func (g *Game) placeFood(now time.Time) {
	food, ok := g.spawner.PlaceFood(g.board, func(p grid.Point) bool {
		return g.snake.Contains(p) || g.powerUpAt(p) >= 0
	})
	if !ok {
		g.end(BoardFull, nil)
		return
	}
	g.food = food

	if !g.powerUpsOn {
		return
	}
	pu, ok := g.spawner.MaybePowerUp(g.board, now, g.powerUps, func(p grid.Point) bool {
		return p == g.food || g.snake.Contains(p) || g.powerUpAt(p) >= 0
	})
	if ok {
		g.powerUps = append(g.powerUps, pu)
		level.Debug(g.logger).Log("msg", "power-up spawned", "kind", pu.Kind, "x", pu.Cell.X, "y", pu.Cell.Y)
	}
}

// sweepExpired drops expired effects and uncollected power-up foods
func (g *Game) sweepExpired(now time.Time) {
	for _, kind := range g.ledger.SweepExpired(now) {
		g.bus.Emit(Event{Type: EventPowerUpExpired, Kind: kind})
	}
	g.powerUps, _ = SweepFoods(g.powerUps, now)
}

func (g *Game) end(reason EndReason, crash *grid.Point) {
	if g.over {
		return
	}
	g.over = true
	g.reason = reason
	g.crash = crash
	g.stats.RecordGameEnd()
	level.Info(g.logger).Log("msg", "game over", "reason", reason, "score", g.score, "length", g.snake.Len(), "ticks", g.ticks)
	g.bus.Emit(Event{Type: EventGameOver, Score: g.score, Reason: reason, Snapshot: g.Snapshot()})
}

// SetHeading queues a heading for the next tick
func (g *Game) SetHeading(h grid.Heading) bool {
	if g.over {
		return false
	}
	return g.snake.SetHeading(h)
}

// TogglePause pauses or resumes a running game and returns the new state.
// Game time, and with it every power-up timer, stands still while paused.
func (g *Game) TogglePause() bool {
	if !g.started || g.over {
		return false
	}
	if g.clock.IsPaused() {
		g.clock.Resume()
	} else {
		g.clock.Pause()
	}
	g.bus.Emit(Event{Type: EventStateChanged, Snapshot: g.Snapshot()})
	return g.clock.IsPaused()
}

// Paused reports whether the game is paused
func (g *Game) Paused() bool {
	return g.clock.IsPaused()
}

// SetSpeed selects a new base interval from the speed ladder
func (g *Game) SetSpeed(speed int) error {
	base, err := config.BaseInterval(speed)
	if err != nil {
		return err
	}
	g.speed = speed
	g.base = base
	return nil
}

// SetMode switches the board between wrapping and walled edges
func (g *Game) SetMode(mode grid.Mode) {
	g.board.Mode = mode
}

// SetAutopilot turns computer control on or off
func (g *Game) SetAutopilot(on bool) {
	if g.autopilotOn == on {
		return
	}
	g.autopilotOn = on
	level.Debug(g.logger).Log("msg", "autopilot toggled", "on", on)
}

// SetAutopilotLevel changes the autopilot policy. Returns false if unchanged.
func (g *Game) SetAutopilotLevel(l autopilot.Level) bool {
	return g.pilot.ChangeLevel(l)
}

// SetPowerUps enables power-ups with the given kinds. Disabling them, or an
// empty kind set, removes uncollected power-up foods; collected effects run
// out normally.
func (g *Game) SetPowerUps(enabled bool, kinds ...PowerUpKind) {
	g.powerUpsOn = enabled && len(kinds) > 0
	g.spawner.SetKinds(kinds)
	if !g.powerUpsOn {
		g.powerUps = nil
	}
}

// Subscribe registers fn for events of type t
func (g *Game) Subscribe(t EventType, fn Handler) {
	g.bus.Subscribe(t, fn)
}

// Interval returns the effective tick interval with speed effects applied
func (g *Game) Interval() time.Duration {
	return g.ledger.EffectiveInterval(g.base)
}

// BaseInterval returns the interval of the selected speed
func (g *Game) BaseInterval() time.Duration {
	return g.base
}

func (g *Game) Board() grid.Board { return g.board }
func (g *Game) Score() int        { return g.score }
func (g *Game) Started() bool     { return g.started }
func (g *Game) Over() bool        { return g.over }

// Heading returns the heading queued for the next tick
func (g *Game) Heading() grid.Heading {
	return g.snake.Heading()
}

// Speed returns the selected speed setting
func (g *Game) Speed() int {
	return g.speed
}

// PowerUps reports whether power-ups spawn and which kinds are enabled
func (g *Game) PowerUps() (bool, []PowerUpKind) {
	return g.powerUpsOn, g.spawner.Kinds()
}

// Level returns the autopilot level
func (g *Game) Level() autopilot.Level {
	return g.pilot.Level()
}

// Autopilot reports whether the computer is steering
func (g *Game) Autopilot() bool {
	return g.autopilotOn
}

// Snapshot returns a copy of the current state
func (g *Game) Snapshot() Snapshot {
	now := g.clock.Now()
	powerUps := make([]PowerUpFood, len(g.powerUps))
	copy(powerUps, g.powerUps)

	s := Snapshot{
		Board:      g.board,
		Snake:      g.snake.Body(),
		Heading:    g.snake.Heading(),
		Food:       g.food,
		PowerUps:   powerUps,
		Active:     g.ledger.Active(),
		Score:      g.score,
		FoodEaten:  g.foodEaten,
		Multiplier: g.ledger.ScoreMultiplier(),
		Interval:   g.Interval(),
		Speed:      g.speed,
		Autopilot:  g.autopilotOn,
		Level:      g.pilot.Level(),
		Started:    g.started,
		Paused:     g.clock.IsPaused(),
		Over:       g.over,
		Reason:     g.reason,
		Tick:       g.ticks,
		Now:        now,
	}
	if g.crash != nil {
		c := *g.crash
		s.CrashPoint = &c
	}
	if g.started {
		s.Elapsed = now.Sub(g.startTime)
	}
	return s
}
