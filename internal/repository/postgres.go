package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/thraizz/uno-server-go/internal/config"
	"github.com/thraizz/uno-server-go/internal/game"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS game_results (
	game_id     TEXT PRIMARY KEY,
	finished    BOOLEAN NOT NULL,
	winner      INTEGER NOT NULL,
	winner_name TEXT NOT NULL DEFAULT '',
	turns       INTEGER NOT NULL,
	players     INTEGER NOT NULL,
	summary     JSONB NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS game_results_recorded_at_idx ON game_results (recorded_at DESC);
`

// NewDB opens a pgx pool and checks connectivity.
func NewDB(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = int32(cfg.MinConns)
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established",
		zap.String("host", poolCfg.ConnConfig.Host),
		zap.String("database", poolCfg.ConnConfig.Database),
		zap.Int32("max_conns", poolCfg.MaxConns),
	)
	return pool, nil
}

// PostgresStore keeps results in PostgreSQL.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgresStore(pool *pgxpool.Pool, logger *zap.Logger) *PostgresStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresStore{pool: pool, logger: logger}
}

// Migrate creates the results table if needed.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to migrate game_results: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveResult(ctx context.Context, sum game.Summary) error {
	if err := validateSummary(sum); err != nil {
		return err
	}
	raw, err := encodeSummary(sum)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO game_results (game_id, finished, winner, winner_name, turns, players, summary)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (game_id) DO UPDATE SET
			finished = EXCLUDED.finished,
			winner = EXCLUDED.winner,
			winner_name = EXCLUDED.winner_name,
			turns = EXCLUDED.turns,
			players = EXCLUDED.players,
			summary = EXCLUDED.summary,
			recorded_at = now()
	`, sum.GameID, sum.Finished, sum.Winner, sum.WinnerName, sum.Turns, len(sum.Players), raw)
	if err != nil {
		return fmt.Errorf("failed to save result %s: %w", sum.GameID, err)
	}
	s.logger.Debug("result saved", zap.String("game_id", sum.GameID))
	return nil
}

func (s *PostgresStore) ListResults(ctx context.Context, limit int) ([]Result, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT game_id, finished, winner, winner_name, turns, players, summary, recorded_at
		FROM game_results
		ORDER BY recorded_at DESC, game_id
		LIMIT $1
	`, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	defer rows.Close()

	var out []Result
	for rows.Next() {
		var (
			r   Result
			raw []byte
		)
		if err := rows.Scan(&r.GameID, &r.Finished, &r.Winner, &r.WinnerName, &r.Turns, &r.Players, &raw, &r.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		if err := decodeResult(&r, raw); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
