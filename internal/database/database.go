package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hiimzein/connect4/internal/config"
	"github.com/hiimzein/connect4/internal/models"
	"github.com/hiimzein/connect4/pkg/logger"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const schema = `
CREATE TABLE IF NOT EXISTS difficulty_stats (
	difficulty  TEXT PRIMARY KEY,
	games       INTEGER NOT NULL DEFAULT 0,
	cpu_wins    INTEGER NOT NULL DEFAULT 0,
	human_wins  INTEGER NOT NULL DEFAULT 0,
	draws       INTEGER NOT NULL DEFAULT 0,
	total_moves INTEGER NOT NULL DEFAULT 0,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS column_stats (
	column_index INTEGER PRIMARY KEY,
	moves        INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS move_book (
	position_key TEXT PRIMARY KEY,
	column_index INTEGER NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

type Database struct {
	db *sql.DB
}

func New(cfg *config.Config) (*Database, error) {
	dsn, err := cfg.GetDatabaseDSN()
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	logger.Log.Info("Database connected successfully")
	return &Database{db: db}, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

func (d *Database) Ping() error {
	return d.db.Ping()
}

// RecordGameCompleted folds one finished game into the per-difficulty
// counters. Only aggregates are kept.
func (d *Database) RecordGameCompleted(ctx context.Context, event models.GameCompletedEvent) error {
	cpuWin, humanWin, draw := outcome(event)
	query := `
		INSERT INTO difficulty_stats (difficulty, games, cpu_wins, human_wins, draws, total_moves, updated_at)
		VALUES ($1, 1, $2, $3, $4, $5, NOW())
		ON CONFLICT (difficulty) DO UPDATE SET
			games       = difficulty_stats.games + 1,
			cpu_wins    = difficulty_stats.cpu_wins + EXCLUDED.cpu_wins,
			human_wins  = difficulty_stats.human_wins + EXCLUDED.human_wins,
			draws       = difficulty_stats.draws + EXCLUDED.draws,
			total_moves = difficulty_stats.total_moves + EXCLUDED.total_moves,
			updated_at  = NOW()
	`
	_, err := d.db.ExecContext(ctx, query, event.Difficulty, cpuWin, humanWin, draw, event.TotalMoves)
	if err != nil {
		return fmt.Errorf("failed to record game: %w", err)
	}
	logger.Log.Debug("Game outcome recorded", zap.String("difficulty", event.Difficulty), zap.String("status", string(event.Status)))
	return nil
}

func outcome(event models.GameCompletedEvent) (cpuWin, humanWin, draw int) {
	switch {
	case event.Status == models.GameStatusDraw:
		return 0, 0, 1
	case event.Winner != "" && event.Winner == event.CPUColor:
		return 1, 0, 0
	default:
		return 0, 1, 0
	}
}

func (d *Database) RecordMove(ctx context.Context, column int) error {
	query := `
		INSERT INTO column_stats (column_index, moves) VALUES ($1, 1)
		ON CONFLICT (column_index) DO UPDATE SET moves = column_stats.moves + 1
	`
	if _, err := d.db.ExecContext(ctx, query, column); err != nil {
		return fmt.Errorf("failed to record move: %w", err)
	}
	return nil
}

func (d *Database) GetDifficultyStats(ctx context.Context) ([]models.DifficultyStats, error) {
	query := `SELECT difficulty, games, cpu_wins, human_wins, draws, total_moves, updated_at FROM difficulty_stats ORDER BY difficulty`
	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get difficulty stats: %w", err)
	}
	defer rows.Close()

	var entries []models.DifficultyStats
	for rows.Next() {
		var entry models.DifficultyStats
		err := rows.Scan(&entry.Difficulty, &entry.Games, &entry.CPUWins, &entry.HumanWins, &entry.Draws, &entry.TotalMoves, &entry.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan difficulty stats: %w", err)
		}
		if entry.Games > 0 {
			entry.CPUWinRate = float64(entry.CPUWins) / float64(entry.Games) * 100
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (d *Database) GetColumnStats(ctx context.Context) ([]models.ColumnStats, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT column_index, moves FROM column_stats ORDER BY column_index`)
	if err != nil {
		return nil, fmt.Errorf("failed to get column stats: %w", err)
	}
	defer rows.Close()

	var entries []models.ColumnStats
	total := 0
	for rows.Next() {
		var entry models.ColumnStats
		if err := rows.Scan(&entry.Column, &entry.Count); err != nil {
			return nil, fmt.Errorf("failed to scan column stats: %w", err)
		}
		total += entry.Count
		entries = append(entries, entry)
	}
	if total > 0 {
		for i := range entries {
			entries[i].Percentage = float64(entries[i].Count) / float64(total) * 100
		}
	}
	return entries, rows.Err()
}

// GetBookMove returns the stored column for key, or found == false.
func (d *Database) GetBookMove(ctx context.Context, key string) (int, bool, error) {
	var col int
	err := d.db.QueryRowContext(ctx, `SELECT column_index FROM move_book WHERE position_key = $1`, key).Scan(&col)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read move book: %w", err)
	}
	return col, true, nil
}

func (d *Database) PutBookMove(ctx context.Context, key string, column int) error {
	query := `
		INSERT INTO move_book (position_key, column_index) VALUES ($1, $2)
		ON CONFLICT (position_key) DO UPDATE SET column_index = EXCLUDED.column_index
	`
	if _, err := d.db.ExecContext(ctx, query, key, column); err != nil {
		return fmt.Errorf("failed to write move book: %w", err)
	}
	return nil
}
