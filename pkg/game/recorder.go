package game

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/trytobebee/snakeai/pkg/autopilot"
	"github.com/trytobebee/snakeai/pkg/grid"
)

// StepRecord is one line of a recorded session
type StepRecord struct {
	StepID     int             `json:"step"`
	Time       time.Time       `json:"time"`
	Board      grid.Board      `json:"board"`
	Heading    grid.Heading    `json:"heading"`
	Snake      []grid.Point    `json:"snake"`
	Food       grid.Point      `json:"food"`
	PowerUps   []PowerUpFood   `json:"powerUps,omitempty"`
	Active     []ActivePowerUp `json:"active,omitempty"`
	Score      int             `json:"score"`
	FoodEaten  int             `json:"foodEaten"`
	Multiplier int             `json:"multiplier"`
	Speed      int             `json:"speed"`
	Interval   time.Duration   `json:"interval"`
	Auto       bool            `json:"auto"`
	Level      string          `json:"level"`
	Paused     bool            `json:"paused,omitempty"`
	Over       bool            `json:"over"`
	Reason     string          `json:"reason,omitempty"`
	Crash      *grid.Point     `json:"crash,omitempty"`
	Elapsed    time.Duration   `json:"elapsed"`
}

// NewStepRecord converts a snapshot into a record line
func NewStepRecord(s Snapshot) StepRecord {
	return StepRecord{
		StepID:     s.Tick,
		Time:       s.Now,
		Board:      s.Board,
		Heading:    s.Heading,
		Snake:      s.Snake,
		Food:       s.Food,
		PowerUps:   s.PowerUps,
		Active:     s.Active,
		Score:      s.Score,
		FoodEaten:  s.FoodEaten,
		Multiplier: s.Multiplier,
		Speed:      s.Speed,
		Interval:   s.Interval,
		Auto:       s.Autopilot,
		Level:      s.Level.String(),
		Paused:     s.Paused,
		Over:       s.Over,
		Reason:     s.Reason.String(),
		Crash:      s.CrashPoint,
		Elapsed:    s.Elapsed,
	}
}

// Snapshot rebuilds the recorded state for playback
func (r StepRecord) Snapshot() Snapshot {
	lvl, _ := autopilot.ParseLevel(r.Level)
	reason, _ := ParseEndReason(r.Reason)
	return Snapshot{
		Board:      r.Board,
		Snake:      r.Snake,
		Heading:    r.Heading,
		Food:       r.Food,
		PowerUps:   r.PowerUps,
		Active:     r.Active,
		Score:      r.Score,
		FoodEaten:  r.FoodEaten,
		Multiplier: r.Multiplier,
		Interval:   r.Interval,
		Speed:      r.Speed,
		Autopilot:  r.Auto,
		Level:      lvl,
		Started:    true,
		Paused:     r.Paused,
		Over:       r.Over,
		Reason:     reason,
		CrashPoint: r.Crash,
		Elapsed:    r.Elapsed,
		Tick:       r.StepID,
		Now:        r.Time,
	}
}

// Recorder writes step records to a JSONL file from a background goroutine
type Recorder struct {
	path       string
	file       *os.File
	writer     *bufio.Writer
	recordChan chan StepRecord
	logger     log.Logger
	wg         sync.WaitGroup
	mu         sync.Mutex
	closed     bool
	dropped    int
}

// NewRecorder creates dir if needed and opens game_{sessionID}_{unix}.jsonl in it
func NewRecorder(dir, sessionID string, logger log.Logger) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create records dir: %w", err)
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}

	filename := fmt.Sprintf("game_%s_%d.jsonl", sessionID, time.Now().Unix())
	path := filepath.Join(dir, filename)
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create record file: %w", err)
	}

	r := &Recorder{
		path:       path,
		file:       f,
		writer:     bufio.NewWriter(f),
		recordChan: make(chan StepRecord, 1000),
		logger:     log.With(logger, "component", "recorder", "file", filename),
	}
	r.wg.Add(1)
	go r.writeLoop()
	return r, nil
}

// Path returns the file being written
func (r *Recorder) Path() string {
	return r.path
}

// Attach records every state change and the final state of g
func (r *Recorder) Attach(g *Game) {
	record := func(e Event) { r.RecordStep(NewStepRecord(e.Snapshot)) }
	g.Subscribe(EventStateChanged, record)
	g.Subscribe(EventGameOver, record)
}

// RecordStep queues a record. It never blocks; records are dropped when the
// buffer is full.
func (r *Recorder) RecordStep(rec StepRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}

	select {
	case r.recordChan <- rec:
	default:
		r.dropped++
	}
}

// Close flushes pending records and closes the file
func (r *Recorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.recordChan)
	dropped := r.dropped
	r.mu.Unlock()

	r.wg.Wait()
	if dropped > 0 {
		level.Warn(r.logger).Log("msg", "records dropped", "count", dropped)
	}
	return r.file.Close()
}

func (r *Recorder) writeLoop() {
	defer r.wg.Done()

	encoder := json.NewEncoder(r.writer)
	for rec := range r.recordChan {
		if err := encoder.Encode(rec); err != nil {
			level.Error(r.logger).Log("msg", "error recording step", "err", err)
		}
	}
	if err := r.writer.Flush(); err != nil {
		level.Error(r.logger).Log("msg", "flush failed", "err", err)
	}
}

// ReadRecords decodes a JSONL session file
func ReadRecords(path string) ([]StepRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []StepRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		var rec StepRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			return out, fmt.Errorf("%s line %d: %w", path, len(out)+1, err)
		}
		out = append(out, rec)
	}
	return out, scanner.Err()
}
