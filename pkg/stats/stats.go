// Package stats persists lifetime game statistics: games played, games
// played by the autopilot, total playtime and the high score.
package stats

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Stats holds the lifetime counters. JSON keys match the legacy export.
type Stats struct {
	TotalGamesPlayed int     `json:"totalGamesPlayed" msgpack:"totalGamesPlayed"`
	AIGamesPlayed    int     `json:"aiGamesPlayed" msgpack:"aiGamesPlayed"`
	TotalPlaytime    float64 `json:"totalPlaytime" msgpack:"totalPlaytime"` // Seconds
	CurrentScore     int     `json:"currentScore" msgpack:"currentScore"`
	HighScore        int     `json:"highScore" msgpack:"highScore"`
}

// Playtime returns TotalPlaytime as a duration
func (s Stats) Playtime() time.Duration {
	return time.Duration(s.TotalPlaytime * float64(time.Second))
}

// Session is one finished game
type Session struct {
	StartedAt time.Time `json:"startedAt"`
	EndedAt   time.Time `json:"endedAt"`
	Score     int       `json:"score"`
	AI        bool      `json:"ai"`
}

// DeletionType selects what DeleteData clears
type DeletionType int

const (
	HighScoreOnly DeletionType = iota
	AllStats
)

// Store persists stats and finished sessions
type Store interface {
	Load(ctx context.Context) (Stats, error)
	Save(ctx context.Context, s Stats) error
	AddSession(ctx context.Context, s Session) error
	RecentSessions(ctx context.Context, limit int) ([]Session, error)
	// Reset clears the stats and, when sessions is true, the session history
	Reset(ctx context.Context, sessions bool) error
	Close() error
}

// MemoryStore keeps everything in memory. Used by tests and by hosts that
// run without a database.
type MemoryStore struct {
	mu       sync.Mutex
	stats    Stats
	sessions []Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(context.Context) (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats, nil
}

func (m *MemoryStore) Save(_ context.Context, s Stats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats = s
	return nil
}

func (m *MemoryStore) AddSession(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = append(m.sessions, s)
	return nil
}

// RecentSessions returns up to limit sessions, newest first
func (m *MemoryStore) RecentSessions(_ context.Context, limit int) ([]Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Session, len(m.sessions))
	copy(out, m.sessions)
	sort.SliceStable(out, func(i, j int) bool { return out[i].EndedAt.After(out[j].EndedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) Reset(_ context.Context, sessions bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats = Stats{}
	if sessions {
		m.sessions = nil
	}
	return nil
}

func (m *MemoryStore) Close() error { return nil }
