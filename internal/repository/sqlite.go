package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/thraizz/uno-server-go/internal/game"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS game_results (
	game_id     TEXT PRIMARY KEY,
	finished    INTEGER NOT NULL,
	winner      INTEGER NOT NULL,
	winner_name TEXT NOT NULL DEFAULT '',
	turns       INTEGER NOT NULL,
	players     INTEGER NOT NULL,
	summary     TEXT NOT NULL,
	recorded_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS game_results_recorded_at_idx ON game_results (recorded_at DESC);
`

// SQLiteStore keeps results in a local SQLite file.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// OpenSQLite opens (creating if needed) the database at path and migrates it.
func OpenSQLite(ctx context.Context, path string, logger *zap.Logger) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
	}
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	s := &SQLiteStore{db: db, logger: logger, now: time.Now}
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Info("sqlite result store opened", zap.String("path", cleanPath))
	return s, nil
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func (s *SQLiteStore) SaveResult(ctx context.Context, sum game.Summary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}
	if err := validateSummary(sum); err != nil {
		return err
	}
	raw, err := encodeSummary(sum)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO game_results (game_id, finished, winner, winner_name, turns, players, summary, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (game_id) DO UPDATE SET
			finished = excluded.finished,
			winner = excluded.winner,
			winner_name = excluded.winner_name,
			turns = excluded.turns,
			players = excluded.players,
			summary = excluded.summary,
			recorded_at = excluded.recorded_at
	`, sum.GameID, sum.Finished, sum.Winner, sum.WinnerName, sum.Turns, len(sum.Players), string(raw), s.now().UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("save result %s: %w", sum.GameID, err)
	}
	s.logger.Debug("result saved", zap.String("game_id", sum.GameID))
	return nil
}

func (s *SQLiteStore) ListResults(ctx context.Context, limit int) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT game_id, finished, winner, winner_name, turns, players, summary, recorded_at
		FROM game_results
		ORDER BY recorded_at DESC, game_id
		LIMIT ?
	`, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var out []Result
	for rows.Next() {
		var (
			r      Result
			raw    string
			millis int64
		)
		if err := rows.Scan(&r.GameID, &r.Finished, &r.Winner, &r.WinnerName, &r.Turns, &r.Players, &raw, &millis); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.RecordedAt = time.UnixMilli(millis).UTC()
		if err := decodeResult(&r, []byte(raw)); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
