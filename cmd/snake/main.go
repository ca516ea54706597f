package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"

	"github.com/trytobebee/snakeai/pkg/autopilot"
	"github.com/trytobebee/snakeai/pkg/config"
	"github.com/trytobebee/snakeai/pkg/game"
	"github.com/trytobebee/snakeai/pkg/grid"
	"github.com/trytobebee/snakeai/pkg/input"
	"github.com/trytobebee/snakeai/pkg/logging"
	"github.com/trytobebee/snakeai/pkg/renderer"
	"github.com/trytobebee/snakeai/pkg/scheduler"
	"github.com/trytobebee/snakeai/pkg/stats"
)

func main() {
	var (
		width     = flag.Int("width", config.StandardWidth, "board width")
		height    = flag.Int("height", config.StandardHeight, "board height")
		speed     = flag.Int("speed", config.DefaultSpeed, "speed setting 1-5")
		walls     = flag.Bool("walls", false, "closed board: edges kill instead of wrapping")
		auto      = flag.Bool("auto", false, "start with the autopilot steering")
		levelName = flag.String("level", "basic", "autopilot level: basic, smart or genius")
		powerUps  = flag.Bool("powerups", true, "spawn power-ups")
		seed      = flag.Int64("seed", 0, "random seed, 0 for time based")
		dbPath    = flag.String("db", "data/stats.db", "sqlite stats database, empty keeps stats in memory")
		recordDir = flag.String("record", "", "directory for JSONL step recordings, empty disables")
		logPath   = flag.String("log", "", "log file, empty disables logging")
		logLevel  = flag.String("log-level", "info", "log level")
	)
	flag.Parse()

	logger := logging.Nop()
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Println("Error opening log file:", err)
			os.Exit(1)
		}
		defer f.Close()
		if logger, err = logging.New(f, *logLevel); err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}
	}

	lvl, ok := autopilot.ParseLevel(*levelName)
	if !ok {
		fmt.Println("Unknown autopilot level:", *levelName)
		os.Exit(1)
	}

	ctx := context.Background()
	store, err := openStore(*dbPath)
	if err != nil {
		fmt.Println("Error opening stats:", err)
		os.Exit(1)
	}
	defer store.Close()

	tracker, err := stats.NewTracker(ctx, store, logger, nil)
	if err != nil {
		fmt.Println("Error loading stats:", err)
		os.Exit(1)
	}

	opts := game.DefaultOptions()
	opts.Width, opts.Height = *width, *height
	opts.Speed = *speed
	if *walls {
		opts.Mode = grid.Closed
	}
	opts.Autopilot = *auto
	opts.Level = lvl
	opts.PowerUps = *powerUps
	opts.Seed = *seed
	opts.Logger = logger
	opts.Stats = tracker

	g, err := game.NewGame(opts)
	if err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}

	if *recordDir != "" {
		rec, err := game.NewRecorder(*recordDir, uuid.NewString(), logger)
		if err != nil {
			fmt.Println("Error starting recorder:", err)
			os.Exit(1)
		}
		defer rec.Close()
		rec.Attach(g)
	}

	// Initialize input handler
	inputHandler := input.NewKeyboardHandler()
	if err := inputHandler.Start(); err != nil {
		fmt.Println("Error opening keyboard:", err)
		os.Exit(1)
	}
	defer inputHandler.Stop()

	render := renderer.NewTerminalRenderer(os.Stdout, *width, *height)
	render.HideCursor()
	defer render.ShowCursor()

	run(g, render, inputHandler.GetInputChan(), logger)

	if g.Started() && !g.Over() {
		tracker.RecordGameEnd()
	}
	tracker.Close()
	st := tracker.Stats()
	fmt.Printf("\n  Games: %d (autopilot %d)  |  High score: %d  |  Played: %s\n",
		st.TotalGamesPlayed, st.AIGamesPlayed, st.HighScore, st.Playtime().Round(time.Second))
	fmt.Println("  Thanks for playing! 👋")
}

func openStore(path string) (stats.Store, error) {
	if path == "" {
		return stats.NewMemoryStore(), nil
	}
	return stats.OpenSQLite(path)
}

// run owns the game: input, scheduled ticks and rendering all happen on this
// goroutine.
func run(g *game.Game, render *renderer.TerminalRenderer, inputChan <-chan input.KeyInput, logger log.Logger) {
	dirty := true
	var sched *scheduler.Scheduler
	sched = scheduler.New(func() {
		g.Step()
		if g.Over() {
			sched.Stop()
		} else {
			sched.SetInterval(g.Interval())
		}
		dirty = true
	})
	repeat := input.NewRepeatDetector()

	g.Start()
	sched.Start(g.Interval())

	frames := time.NewTicker(config.FrameTick)
	defer frames.Stop()
	last := time.Now()

	for {
		select {
		case key := <-inputChan:
			dirty = true

			if input.IsQuit(key) {
				return
			}

			if input.IsRestart(key) {
				g.Restart()
				repeat.Reset()
				sched.Start(g.Interval())
				continue
			}

			if input.IsPause(key) {
				if g.TogglePause() {
					sched.Stop()
				} else if g.Started() && !g.Over() {
					sched.Start(g.Interval())
				}
				continue
			}

			if input.IsAutopilotToggle(key) {
				g.SetAutopilot(!g.Autopilot())
				continue
			}

			if lvl, ok := input.ParseLevel(key); ok {
				g.SetAutopilotLevel(lvl)
				continue
			}

			if d, ok := input.ParseSpeedDelta(key); ok {
				if err := g.SetSpeed(g.Speed() + d); err == nil {
					sched.SetInterval(g.Interval())
				}
				continue
			}

			if input.IsModeToggle(key) {
				if g.Board().Mode == grid.Open {
					g.SetMode(grid.Closed)
				} else {
					g.SetMode(grid.Open)
				}
				continue
			}

			if input.IsPowerUpToggle(key) {
				on, _ := g.PowerUps()
				g.SetPowerUps(!on, game.AllKinds...)
				continue
			}

			if h, ok := input.ParseHeading(key); ok && !g.Autopilot() {
				current := g.Heading()
				g.SetHeading(h)
				if repeat.Press(h, current, time.Now()) && !g.Paused() && !g.Over() {
					level.Debug(logger).Log("msg", "forced move", "heading", h)
					g.StepOnce()
					if !g.Over() {
						sched.SetInterval(g.Interval())
					}
				}
			}

		case now := <-frames.C:
			if sched.Advance(now.Sub(last)) > 0 {
				dirty = true
			}
			last = now
			if dirty {
				if err := render.Render(g.Snapshot()); err != nil {
					level.Error(logger).Log("msg", "render failed", "err", err)
					return
				}
				dirty = false
			}
		}
	}
}
