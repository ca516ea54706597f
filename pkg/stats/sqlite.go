package stats

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps stats in a single-row table and sessions in a history table
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer at a time; sqlite serializes anyway
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.createTables(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) createTables(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS stats (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			total_games INTEGER NOT NULL DEFAULT 0,
			ai_games INTEGER NOT NULL DEFAULT 0,
			total_playtime REAL NOT NULL DEFAULT 0,
			current_score INTEGER NOT NULL DEFAULT 0,
			high_score INTEGER NOT NULL DEFAULT 0,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS game_sessions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			start_time TEXT,
			end_time TEXT,
			score INTEGER,
			ai INTEGER
		)`,
	}

	for _, query := range queries {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

// Load returns the stored stats, or zero stats on a fresh database
func (s *SQLiteStore) Load(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx,
		`SELECT total_games, ai_games, total_playtime, current_score, high_score FROM stats WHERE id = 1`,
	).Scan(&st.TotalGamesPlayed, &st.AIGamesPlayed, &st.TotalPlaytime, &st.CurrentScore, &st.HighScore)
	if err == sql.ErrNoRows {
		return Stats{}, nil
	}
	if err != nil {
		return Stats{}, fmt.Errorf("load stats: %w", err)
	}
	return st, nil
}

// Save upserts the stats row
func (s *SQLiteStore) Save(ctx context.Context, st Stats) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO stats (id, total_games, ai_games, total_playtime, current_score, high_score, updated_at)
		 VALUES (1, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(id) DO UPDATE SET
			total_games = excluded.total_games,
			ai_games = excluded.ai_games,
			total_playtime = excluded.total_playtime,
			current_score = excluded.current_score,
			high_score = excluded.high_score,
			updated_at = CURRENT_TIMESTAMP`,
		st.TotalGamesPlayed, st.AIGamesPlayed, st.TotalPlaytime, st.CurrentScore, st.HighScore,
	)
	if err != nil {
		return fmt.Errorf("save stats: %w", err)
	}
	return nil
}

// AddSession appends a finished game to the history
func (s *SQLiteStore) AddSession(ctx context.Context, sess Session) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO game_sessions (start_time, end_time, score, ai) VALUES (?, ?, ?, ?)`,
		sess.StartedAt.UTC().Format(time.RFC3339Nano), sess.EndedAt.UTC().Format(time.RFC3339Nano), sess.Score, sess.AI,
	)
	if err != nil {
		return fmt.Errorf("add session: %w", err)
	}
	return nil
}

// RecentSessions returns up to limit sessions, newest first
func (s *SQLiteStore) RecentSessions(ctx context.Context, limit int) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT start_time, end_time, score, ai FROM game_sessions ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var (
			sess       Session
			start, end string
		)
		if err := rows.Scan(&start, &end, &sess.Score, &sess.AI); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sess.StartedAt, _ = time.Parse(time.RFC3339Nano, start)
		sess.EndedAt, _ = time.Parse(time.RFC3339Nano, end)
		out = append(out, sess)
	}
	return out, rows.Err()
}

// Reset clears the stats row and optionally the session history
func (s *SQLiteStore) Reset(ctx context.Context, sessions bool) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM stats`); err != nil {
		return fmt.Errorf("reset stats: %w", err)
	}
	if sessions {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM game_sessions`); err != nil {
			return fmt.Errorf("reset sessions: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
