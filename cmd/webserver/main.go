package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/gorilla/websocket"

	"github.com/trytobebee/snakeai/pkg/autopilot"
	"github.com/trytobebee/snakeai/pkg/config"
	"github.com/trytobebee/snakeai/pkg/game"
	"github.com/trytobebee/snakeai/pkg/grid"
	"github.com/trytobebee/snakeai/pkg/logging"
	"github.com/trytobebee/snakeai/pkg/stats"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// server holds what every session shares
type server struct {
	opts      game.Options
	store     stats.Store
	tracker   *stats.Tracker
	recordDir string
	logger    log.Logger

	// Active IP connections; one game per address
	activeIPs sync.Map
}

func main() {
	var (
		addr      = flag.String("addr", ":8080", "listen address")
		static    = flag.String("static", "", "directory of static files served at /, empty disables")
		width     = flag.Int("width", config.StandardWidth, "board width")
		height    = flag.Int("height", config.StandardHeight, "board height")
		speed     = flag.Int("speed", config.DefaultSpeed, "initial speed setting 1-5")
		walls     = flag.Bool("walls", false, "closed boards")
		levelName = flag.String("level", "basic", "initial autopilot level")
		dbPath    = flag.String("db", "data/stats.db", "sqlite stats database, empty keeps stats in memory")
		recordDir = flag.String("record", "", "directory for JSONL step recordings, empty disables")
		logLevel  = flag.String("log-level", "info", "log level")
	)
	flag.Parse()

	logger, err := logging.New(os.Stderr, *logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	lvl, ok := autopilot.ParseLevel(*levelName)
	if !ok {
		level.Error(logger).Log("msg", "unknown autopilot level", "level", *levelName)
		os.Exit(1)
	}

	opts := game.DefaultOptions()
	opts.Width, opts.Height = *width, *height
	opts.Speed = *speed
	opts.Level = lvl
	if *walls {
		opts.Mode = grid.Closed
	}
	// Fail fast on bad settings before accepting connections
	if _, err := game.NewGame(opts); err != nil {
		level.Error(logger).Log("msg", "invalid game options", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store stats.Store = stats.NewMemoryStore()
	if *dbPath != "" {
		if store, err = stats.OpenSQLite(*dbPath); err != nil {
			level.Error(logger).Log("msg", "failed to open stats database", "err", err)
			os.Exit(1)
		}
	}
	defer store.Close()

	tracker, err := stats.NewTracker(ctx, store, logger, nil)
	if err != nil {
		level.Error(logger).Log("msg", "failed to load stats", "err", err)
		os.Exit(1)
	}
	defer tracker.Close()

	srv := &server{
		opts:      opts,
		store:     store,
		tracker:   tracker,
		recordDir: *recordDir,
		logger:    logger,
	}

	mux := http.NewServeMux()
	if *static != "" {
		mux.Handle("/", http.FileServer(http.Dir(*static)))
	}
	mux.HandleFunc("/ws", srv.handleWebSocket)
	mux.HandleFunc("/api/stats", srv.handleStats)

	httpServer := &http.Server{Addr: *addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	level.Info(logger).Log("msg", "snake web server starting", "addr", *addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		level.Error(logger).Log("msg", "server failed", "err", err)
		os.Exit(1)
	}
	level.Info(logger).Log("msg", "server stopped")
}

type statsResponse struct {
	Stats    stats.Stats     `json:"stats"`
	Sessions []stats.Session `json:"sessions"`
}

// handleStats serves the lifetime stats on GET and clears them on DELETE.
// DELETE takes ?what=highscore or ?what=all.
func (s *server) handleStats(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodDelete:
		typ := stats.AllStats
		switch r.URL.Query().Get("what") {
		case "highscore":
			typ = stats.HighScoreOnly
		case "", "all":
		default:
			http.Error(w, "what must be highscore or all", http.StatusBadRequest)
			return
		}
		if err := s.tracker.DeleteData(r.Context(), typ); err != nil {
			level.Error(s.logger).Log("msg", "delete stats failed", "err", err)
			http.Error(w, "delete failed", http.StatusInternalServerError)
			return
		}
	default:
		w.Header().Set("Allow", "GET, DELETE")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessions, err := s.store.RecentSessions(r.Context(), 10)
	if err != nil {
		level.Error(s.logger).Log("msg", "load sessions failed", "err", err)
		http.Error(w, "load failed", http.StatusInternalServerError)
		return
	}
	if sessions == nil {
		sessions = []stats.Session{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(statsResponse{Stats: s.tracker.Stats(), Sessions: sessions})
}
