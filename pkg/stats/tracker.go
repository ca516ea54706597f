package stats

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

const (
	jobBuffer    = 64
	storeTimeout = 5 * time.Second
)

type job struct {
	stats   Stats
	session *Session
	reset   *DeletionType
	done    chan error
}

// Tracker keeps the lifetime stats in memory and persists them from a
// background goroutine. The Record methods never wait on the store, so they
// can be called from the tick path.
type Tracker struct {
	mu      sync.Mutex
	store   Store
	stats   Stats
	now     func() time.Time
	logger  log.Logger
	self    *Player
	closed  bool
	dropped int

	jobs chan job
	wg   sync.WaitGroup
}

// NewTracker loads the stored stats and starts the writer. now defaults to time.Now.
func NewTracker(ctx context.Context, store Store, logger log.Logger, now func() time.Time) (*Tracker, error) {
	st, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("new tracker: %w", err)
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if now == nil {
		now = time.Now
	}

	t := &Tracker{
		store:  store,
		stats:  st,
		now:    now,
		logger: log.With(logger, "component", "stats"),
		jobs:   make(chan job, jobBuffer),
	}
	t.self = t.NewPlayer()
	t.wg.Add(1)
	go t.writeLoop()
	return t, nil
}

// RecordGameStart counts a new game
func (t *Tracker) RecordGameStart(ai bool) { t.self.RecordGameStart(ai) }

// RecordScore updates the current score and the high score
func (t *Tracker) RecordScore(score int) { t.self.RecordScore(score) }

// RecordGameEnd adds the game's playtime and stores the session. Without a
// matching start it does nothing.
func (t *Tracker) RecordGameEnd() { t.self.RecordGameEnd() }

// Player tracks one game at a time for a host session. Players created from
// the same Tracker share its counters, so concurrent sessions each keep their
// own start time and score.
type Player struct {
	t       *Tracker
	started time.Time
	ai      bool
	running bool
	score   int
}

// NewPlayer returns a recorder for one session's games
func (t *Tracker) NewPlayer() *Player {
	return &Player{t: t}
}

// RecordGameStart counts a new game
func (p *Player) RecordGameStart(ai bool) {
	t := p.t
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stats.TotalGamesPlayed++
	if ai {
		t.stats.AIGamesPlayed++
	}
	t.stats.CurrentScore = 0
	p.started = t.now()
	p.ai = ai
	p.running = true
	p.score = 0
	t.enqueue(job{stats: t.stats})
}

// RecordScore updates the current score and the high score
func (p *Player) RecordScore(score int) {
	t := p.t
	t.mu.Lock()
	defer t.mu.Unlock()

	p.score = score
	t.stats.CurrentScore = score
	if score > t.stats.HighScore {
		t.stats.HighScore = score
		t.enqueue(job{stats: t.stats})
	}
}

// RecordGameEnd adds the game's playtime and stores the session
func (p *Player) RecordGameEnd() {
	t := p.t
	t.mu.Lock()
	defer t.mu.Unlock()

	if !p.running {
		return
	}
	end := t.now()
	t.stats.TotalPlaytime += end.Sub(p.started).Seconds()
	p.running = false
	t.enqueue(job{
		stats:   t.stats,
		session: &Session{StartedAt: p.started, EndedAt: end, Score: p.score, AI: p.ai},
	})
}

// Stats returns the current counters
func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats
}

// DeleteData clears the high score or every stat and waits for the store
func (t *Tracker) DeleteData(ctx context.Context, typ DeletionType) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return fmt.Errorf("delete data: tracker closed")
	}
	switch typ {
	case HighScoreOnly:
		t.stats.HighScore = 0
	default:
		t.stats = Stats{}
	}
	done := make(chan error, 1)
	j := job{stats: t.stats, reset: &typ, done: done}
	select {
	case t.jobs <- j:
	case <-ctx.Done():
		t.mu.Unlock()
		return ctx.Err()
	}
	t.mu.Unlock()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close flushes pending writes and stops the writer
func (t *Tracker) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	close(t.jobs)
	dropped := t.dropped
	t.mu.Unlock()

	t.wg.Wait()
	if dropped > 0 {
		level.Warn(t.logger).Log("msg", "stats writes dropped", "count", dropped)
	}
	return nil
}

// enqueue must be called with mu held
func (t *Tracker) enqueue(j job) {
	if t.closed {
		return
	}
	select {
	case t.jobs <- j:
	default:
		t.dropped++
	}
}

func (t *Tracker) writeLoop() {
	defer t.wg.Done()

	for j := range t.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		err := t.apply(ctx, j)
		cancel()

		if j.done != nil {
			j.done <- err
		} else if err != nil {
			level.Error(t.logger).Log("msg", "stats write failed", "err", err)
		}
	}
}

func (t *Tracker) apply(ctx context.Context, j job) error {
	if j.reset != nil && *j.reset == AllStats {
		return t.store.Reset(ctx, true)
	}
	if err := t.store.Save(ctx, j.stats); err != nil {
		return err
	}
	if j.session != nil {
		return t.store.AddSession(ctx, *j.session)
	}
	return nil
}
