// Package storage provides SQLite-based persistence for scores and rollout
// episodes. Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/flappygym/internal/rollout"
)

// sqliteTimeLayout is the format of CURRENT_TIMESTAMP.
const sqliteTimeLayout = "2006-01-02 15:04:05"

// Store manages the SQLite database connection.
type Store struct {
	db *sql.DB
}

// ScoreEntry represents a single score from an interactive game.
type ScoreEntry struct {
	ID        int64
	EnvID     string
	Score     int
	CreatedAt time.Time
}

// EpisodeRecord represents one rollout episode.
type EpisodeRecord struct {
	ID        int64
	EpisodeID string // UUID, generated on save when empty
	EnvID     string
	Policy    string
	Seed      int64
	Score     int
	Steps     int
	Truncated bool
	Duration  time.Duration
	CreatedAt time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	// Create parent directories
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	// SQLite allows one writer; concurrent rollout workers queue on the pool.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS scores (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			env_id TEXT NOT NULL,
			score INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_scores_env_id ON scores(env_id);
		CREATE INDEX IF NOT EXISTS idx_scores_top ON scores(env_id, score DESC);

		CREATE TABLE IF NOT EXISTS episodes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			episode_id TEXT NOT NULL UNIQUE,
			env_id TEXT NOT NULL,
			policy TEXT NOT NULL,
			seed INTEGER NOT NULL,
			score INTEGER NOT NULL DEFAULT 0,
			steps INTEGER NOT NULL DEFAULT 0,
			truncated INTEGER NOT NULL DEFAULT 0,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_episodes_env_id ON episodes(env_id);
		CREATE INDEX IF NOT EXISTS idx_episodes_top ON episodes(env_id, score DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveScore records a new score for the given environment.
// Returns the ID of the inserted record.
func (s *Store) SaveScore(envID string, score int) (int64, error) {
	result, err := s.db.Exec(
		"INSERT INTO scores (env_id, score) VALUES (?, ?)",
		envID, score,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save score: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

// TopScores retrieves the top N scores for the given environment.
// Results are ordered by score descending.
func (s *Store) TopScores(envID string, limit int) ([]ScoreEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(
		`SELECT id, env_id, score, created_at
		 FROM scores
		 WHERE env_id = ?
		 ORDER BY score DESC, id ASC
		 LIMIT ?`,
		envID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query scores: %w", err)
	}
	defer rows.Close()

	var entries []ScoreEntry
	for rows.Next() {
		var e ScoreEntry
		var createdAt any
		if err := rows.Scan(&e.ID, &e.EnvID, &e.Score, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		e.CreatedAt = parseTime(createdAt)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return entries, nil
}

// HighScore returns the highest score for the given environment.
// Returns 0 if no scores exist.
func (s *Store) HighScore(envID string) (int, error) {
	var score sql.NullInt64
	err := s.db.QueryRow(
		"SELECT MAX(score) FROM scores WHERE env_id = ?",
		envID,
	).Scan(&score)

	if err != nil {
		return 0, fmt.Errorf("storage: cannot query high score: %w", err)
	}

	if !score.Valid {
		return 0, nil
	}

	return int(score.Int64), nil
}

// ClearScores deletes all scores for the given environment.
func (s *Store) ClearScores(envID string) error {
	_, err := s.db.Exec("DELETE FROM scores WHERE env_id = ?", envID)
	if err != nil {
		return fmt.Errorf("storage: cannot clear scores: %w", err)
	}
	return nil
}

// GameStats contains aggregated statistics for an environment's scores.
type GameStats struct {
	EnvID      string
	GamesCount int
	HighScore  int
	AvgScore   float64
	TotalScore int64
	LastPlayed time.Time
}

// GetGameStats retrieves aggregated score statistics for an environment.
func (s *Store) GetGameStats(envID string) (*GameStats, error) {
	stats := &GameStats{EnvID: envID}

	err := s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(MAX(score), 0), COALESCE(AVG(score), 0), COALESCE(SUM(score), 0)
		 FROM scores WHERE env_id = ?`,
		envID,
	).Scan(&stats.GamesCount, &stats.HighScore, &stats.AvgScore, &stats.TotalScore)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get game stats: %w", err)
	}

	var lastPlayed any
	err = s.db.QueryRow(
		`SELECT created_at FROM scores WHERE env_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`,
		envID,
	).Scan(&lastPlayed)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("storage: cannot get last played: %w", err)
	}
	if err == nil {
		stats.LastPlayed = parseTime(lastPlayed)
	}

	return stats, nil
}

// SaveEpisode records a rollout episode. A missing EpisodeID is filled with
// a new UUID. Returns the ID of the inserted record.
func (s *Store) SaveEpisode(rec EpisodeRecord) (int64, error) {
	if rec.EpisodeID == "" {
		rec.EpisodeID = uuid.NewString()
	}

	res, err := s.db.Exec(
		`INSERT INTO episodes
		 (episode_id, env_id, policy, seed, score, steps, truncated, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.EpisodeID,
		rec.EnvID,
		rec.Policy,
		rec.Seed,
		rec.Score,
		rec.Steps,
		rec.Truncated,
		rec.Duration.Milliseconds(),
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save episode: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

// RecentEpisodes retrieves the most recent episodes for an environment.
func (s *Store) RecentEpisodes(envID string, limit int) ([]EpisodeRecord, error) {
	return s.queryEpisodes(
		`WHERE env_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		envID, limit,
	)
}

// BestEpisodes retrieves the highest scoring episodes for an environment.
// Ties go to the episode that took fewer steps.
func (s *Store) BestEpisodes(envID string, limit int) ([]EpisodeRecord, error) {
	return s.queryEpisodes(
		`WHERE env_id = ? ORDER BY score DESC, steps ASC, id ASC LIMIT ?`,
		envID, limit,
	)
}

func (s *Store) queryEpisodes(clause, envID string, limit int) ([]EpisodeRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, episode_id, env_id, policy, seed, score, steps, truncated, duration_ms, created_at
		 FROM episodes `+clause,
		envID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query episodes: %w", err)
	}
	defer rows.Close()

	var results []EpisodeRecord
	for rows.Next() {
		var rec EpisodeRecord
		var durationMs int64
		var createdAt any

		if err := rows.Scan(
			&rec.ID,
			&rec.EpisodeID,
			&rec.EnvID,
			&rec.Policy,
			&rec.Seed,
			&rec.Score,
			&rec.Steps,
			&rec.Truncated,
			&durationMs,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}

		rec.Duration = time.Duration(durationMs) * time.Millisecond
		rec.CreatedAt = parseTime(createdAt)
		results = append(results, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return results, nil
}

// RecordEpisode implements rollout.Recorder.
// This adapter lets the runner persist episodes without a direct storage dependency.
func (s *Store) RecordEpisode(r rollout.EpisodeResult) error {
	_, err := s.SaveEpisode(EpisodeRecord{
		EpisodeID: r.ID,
		EnvID:     r.EnvID,
		Policy:    r.Policy,
		Seed:      r.Seed,
		Score:     r.Score,
		Steps:     r.Steps,
		Truncated: r.Truncated,
		Duration:  r.Duration,
	})
	return err
}

// Ensure Store implements Recorder
var _ rollout.Recorder = (*Store)(nil)

// parseTime handles both time.Time and string datetimes from the driver.
func parseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		for _, layout := range []string{sqliteTimeLayout, time.RFC3339Nano} {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed
			}
		}
	}
	return time.Time{}
}
