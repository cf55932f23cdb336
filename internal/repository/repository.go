// Package repository persists finished game summaries.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/thraizz/uno-server-go/internal/config"
	"github.com/thraizz/uno-server-go/internal/game"
)

// DefaultListLimit caps ListResults when the caller passes a non-positive limit.
const DefaultListLimit = 50

// Result is one stored game.
type Result struct {
	GameID     string
	Finished   bool
	Winner     int
	WinnerName string
	Turns      int
	Players    int
	Summary    game.Summary
	RecordedAt time.Time
}

// ResultStore saves and lists game results.
type ResultStore interface {
	SaveResult(ctx context.Context, s game.Summary) error
	ListResults(ctx context.Context, limit int) ([]Result, error)
	Close() error
}

// Open selects a store by cfg.Driver.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (ResultStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch strings.ToLower(cfg.Driver) {
	case config.DriverPostgres:
		pool, err := NewDB(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		store := NewPostgresStore(pool, logger)
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, err
		}
		return store, nil
	case config.DriverSQLite:
		return OpenSQLite(ctx, cfg.SQLitePath, logger)
	case config.DriverNone, "":
		logger.Info("result persistence disabled")
		return NopStore{}, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func validateSummary(s game.Summary) error {
	if strings.TrimSpace(s.GameID) == "" {
		return fmt.Errorf("game id is required")
	}
	if len(s.Players) == 0 {
		return fmt.Errorf("summary has no players")
	}
	return nil
}

func encodeSummary(s game.Summary) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode summary: %w", err)
	}
	return data, nil
}

func decodeResult(r *Result, raw []byte) error {
	if err := json.Unmarshal(raw, &r.Summary); err != nil {
		return fmt.Errorf("decode summary for %s: %w", r.GameID, err)
	}
	return nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 1000 {
		return DefaultListLimit
	}
	return limit
}

// NopStore discards everything.
type NopStore struct{}

func (NopStore) SaveResult(context.Context, game.Summary) error { return nil }

func (NopStore) ListResults(context.Context, int) ([]Result, error) { return nil, nil }

func (NopStore) Close() error { return nil }
