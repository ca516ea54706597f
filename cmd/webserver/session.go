package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/trytobebee/snakeai/pkg/autopilot"
	"github.com/trytobebee/snakeai/pkg/config"
	"github.com/trytobebee/snakeai/pkg/game"
	"github.com/trytobebee/snakeai/pkg/grid"
	"github.com/trytobebee/snakeai/pkg/input"
	"github.com/trytobebee/snakeai/pkg/scheduler"
	"github.com/trytobebee/snakeai/pkg/stats"
	"github.com/trytobebee/snakeai/pkg/wire"
)

const writeWait = 5 * time.Second

// session is one connected client and its game. Everything except reading
// from the socket happens on the goroutine running loop.
type session struct {
	id      string
	conn    *websocket.Conn
	codec   wire.Codec
	game    *game.Game
	sched   *scheduler.Scheduler
	repeat  *input.RepeatDetector
	tracker *stats.Tracker
	player  *stats.Player
	logger  log.Logger

	dirty  bool
	events []wire.EventFrame
}

func (s *server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	codec, err := wire.CodecByName(r.URL.Query().Get("codec"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		level.Warn(s.logger).Log("msg", "upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	// Get base IP address (remove port)
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}

	if _, loaded := s.activeIPs.LoadOrStore(ip, true); loaded {
		level.Info(s.logger).Log("msg", "connection rejected", "ip", ip, "reason", "already connected")
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "Already connected"))
		return
	}
	defer s.activeIPs.Delete(ip)

	id := uuid.NewString()
	logger := log.With(s.logger, "session", id)

	sess := &session{
		id:      id,
		conn:    conn,
		codec:   codec,
		repeat:  input.NewRepeatDetector(),
		tracker: s.tracker,
		player:  s.tracker.NewPlayer(),
		logger:  logger,
	}

	opts := s.opts
	opts.Logger = logger
	opts.Stats = sess.player
	g, err := game.NewGame(opts)
	if err != nil {
		level.Error(logger).Log("msg", "new game failed", "err", err)
		return
	}
	sess.attach(g)

	if s.recordDir != "" {
		rec, err := game.NewRecorder(s.recordDir, id, logger)
		if err != nil {
			level.Error(logger).Log("msg", "recorder failed", "err", err)
		} else {
			defer rec.Close()
			rec.Attach(g)
		}
	}

	level.Info(logger).Log("msg", "client connected", "remote", r.RemoteAddr, "codec", codec.Name())
	err = sess.loop(r.Context())
	if g.Started() && !g.Over() {
		sess.player.RecordGameEnd()
	}
	level.Info(logger).Log("msg", "client disconnected", "err", err)
}

func (sess *session) attach(g *game.Game) {
	sess.game = g
	sess.sched = scheduler.New(func() {
		g.Step()
		if g.Over() {
			sess.sched.Stop()
		} else {
			sess.sched.SetInterval(g.Interval())
		}
		sess.dirty = true
	})

	queue := func(e game.Event) {
		sess.events = append(sess.events, wire.FromEvent(e))
	}
	g.Subscribe(game.EventFoodEaten, queue)
	g.Subscribe(game.EventPowerUpCollected, queue)
	g.Subscribe(game.EventPowerUpExpired, queue)
	g.Subscribe(game.EventGameOver, queue)
}

// loop reads actions from a helper goroutine and drives the game until the
// client goes away.
func (sess *session) loop(ctx context.Context) error {
	actions := make(chan wire.ClientMessage)
	readErr := make(chan error, 1)
	go func() {
		for {
			_, data, err := sess.conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			var msg wire.ClientMessage
			if err := sess.codec.Unmarshal(data, &msg); err != nil {
				level.Debug(sess.logger).Log("msg", "bad client message", "err", err)
				continue
			}
			select {
			case actions <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()

	if err := sess.sendConfig(); err != nil {
		return err
	}
	if err := sess.flush(true); err != nil {
		return err
	}

	frames := time.NewTicker(config.FrameTick)
	defer frames.Stop()
	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-readErr:
			return err

		case msg := <-actions:
			if err := sess.handle(ctx, msg); err != nil {
				if err := sess.send(wire.ServerMessage{Type: wire.TypeError, Error: err.Error()}); err != nil {
					return err
				}
			}
			// Immediate state update for UI responsiveness
			if err := sess.flush(true); err != nil {
				return err
			}

		case now := <-frames.C:
			sess.sched.Advance(now.Sub(last))
			last = now
			if err := sess.flush(false); err != nil {
				return err
			}
		}
	}
}

func (sess *session) start() {
	if sess.game.Started() {
		return
	}
	sess.game.Start()
	sess.sched.Start(sess.game.Interval())
}

func (sess *session) stepOnce() {
	g := sess.game
	if !g.Started() || g.Paused() || g.Over() {
		return
	}
	g.StepOnce()
	if !g.Over() {
		sess.sched.SetInterval(g.Interval())
	}
}

// handle applies one client action
func (sess *session) handle(ctx context.Context, msg wire.ClientMessage) error {
	g := sess.game

	switch msg.Action {
	case wire.ActionUp, wire.ActionDown, wire.ActionLeft, wire.ActionRight:
		h, _ := grid.ParseHeading(msg.Action)
		sess.start()
		if g.Autopilot() {
			return nil
		}
		current := g.Heading()
		g.SetHeading(h)
		if sess.repeat.Press(h, current, time.Now()) {
			sess.stepOnce()
		}

	case wire.ActionStart:
		sess.start()

	case wire.ActionPause:
		if !g.Started() {
			sess.start()
			return nil
		}
		if g.TogglePause() {
			sess.sched.Stop()
		} else if !g.Over() {
			sess.sched.Start(g.Interval())
		}

	case wire.ActionRestart:
		g.Restart()
		sess.repeat.Reset()
		sess.sched.Start(g.Interval())

	case wire.ActionStep:
		sess.stepOnce()

	case wire.ActionAuto:
		switch msg.Value {
		case "":
			g.SetAutopilot(!g.Autopilot())
		case "on":
			g.SetAutopilot(true)
		case "off":
			g.SetAutopilot(false)
		default:
			return fmt.Errorf("auto: unknown value %q", msg.Value)
		}

	case wire.ActionLevel:
		lvl, ok := autopilot.ParseLevel(msg.Value)
		if !ok {
			return fmt.Errorf("level: unknown level %q", msg.Value)
		}
		g.SetAutopilotLevel(lvl)

	case wire.ActionSpeed:
		n, err := strconv.Atoi(msg.Value)
		if err != nil {
			return fmt.Errorf("speed: %w", err)
		}
		if err := g.SetSpeed(n); err != nil {
			return err
		}
		sess.sched.SetInterval(g.Interval())

	case wire.ActionMode:
		switch msg.Value {
		case "open":
			g.SetMode(grid.Open)
		case "closed":
			g.SetMode(grid.Closed)
		default:
			return fmt.Errorf("mode: unknown mode %q", msg.Value)
		}

	case wire.ActionPowerUps:
		kinds, enabled, err := parseKinds(msg.Value)
		if err != nil {
			return err
		}
		g.SetPowerUps(enabled, kinds...)

	case wire.ActionStats:
		return sess.sendStats()

	case wire.ActionDeleteHi, wire.ActionDeleteAll:
		typ := stats.AllStats
		if msg.Action == wire.ActionDeleteHi {
			typ = stats.HighScoreOnly
		}
		if err := sess.tracker.DeleteData(ctx, typ); err != nil {
			return fmt.Errorf("delete stats: %w", err)
		}
		level.Info(sess.logger).Log("msg", "stats deleted", "what", msg.Action)
		return sess.sendStats()

	default:
		return fmt.Errorf("unknown action %q", msg.Action)
	}
	return nil
}

// parseKinds reads "on", "off" or a comma separated list of kind names
func parseKinds(v string) ([]game.PowerUpKind, bool, error) {
	switch v {
	case "on", "":
		return game.AllKinds, true, nil
	case "off":
		return nil, false, nil
	}
	var kinds []game.PowerUpKind
	for _, name := range strings.Split(v, ",") {
		k, ok := game.ParsePowerUpKind(strings.TrimSpace(name))
		if !ok {
			return nil, false, fmt.Errorf("powerups: unknown kind %q", name)
		}
		kinds = append(kinds, k)
	}
	return kinds, true, nil
}

func (sess *session) sendConfig() error {
	b := sess.game.Board()
	kinds := make([]string, len(game.AllKinds))
	for i, k := range game.AllKinds {
		kinds[i] = k.String()
	}
	return sess.send(wire.ServerMessage{
		Type: wire.TypeConfig,
		Config: &wire.ConfigFrame{
			SessionID: sess.id,
			Width:     b.Width,
			Height:    b.Height,
			MinSpeed:  config.MinSpeed,
			MaxSpeed:  config.MaxSpeed,
			Levels:    []string{autopilot.Basic.String(), autopilot.Smart.String(), autopilot.Genius.String()},
			Kinds:     kinds,
			Codec:     sess.codec.Name(),
		},
	})
}

func (sess *session) sendStats() error {
	st := sess.tracker.Stats()
	return sess.send(wire.ServerMessage{Type: wire.TypeStats, Stats: &st})
}

// flush sends queued events, then the state when it changed or force is set
func (sess *session) flush(force bool) error {
	for i := range sess.events {
		if err := sess.send(wire.ServerMessage{Type: wire.TypeEvent, Event: &sess.events[i]}); err != nil {
			return err
		}
	}
	sess.events = sess.events[:0]

	if !force && !sess.dirty {
		return nil
	}
	sess.dirty = false
	frame := wire.FromSnapshot(sess.game.Snapshot())
	return sess.send(wire.ServerMessage{Type: wire.TypeState, State: &frame})
}

func (sess *session) send(msg wire.ServerMessage) error {
	data, err := sess.codec.Marshal(msg)
	if err != nil {
		return err
	}
	kind := websocket.TextMessage
	if sess.codec.Binary() {
		kind = websocket.BinaryMessage
	}
	sess.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return sess.conn.WriteMessage(kind, data)
}
