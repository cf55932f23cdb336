package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/thraizz/uno-server-go/internal/config"
	"github.com/thraizz/uno-server-go/internal/game"
)

func summary(id string, winner int) game.Summary {
	return game.Summary{
		GameID:     id,
		Finished:   true,
		Winner:     winner,
		WinnerName: "Ada",
		Turns:      42,
		Reshuffles: 1,
		Actions:    map[string]int{"DRAW_CARDS": 3},
		Players: []game.PlayerSummary{
			{Seat: 0, Name: "Ada", CardsPlayed: 10, Counters: map[string]int{"coin": 2}},
			{Seat: 1, Name: "CPU 1", CPU: true, CardsPlayed: 8, FinalHandSize: 3},
		},
	}
}

func openTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "nested", "uno.db"), zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteSaveAndList(t *testing.T) {
	store := openTestSQLite(t)
	ctx := context.Background()
	clock := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { clock = clock.Add(time.Second); return clock }

	require.NoError(t, store.SaveResult(ctx, summary("g1", 0)))
	require.NoError(t, store.SaveResult(ctx, summary("g2", 1)))

	results, err := store.ListResults(ctx, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "g2", results[0].GameID, "newest first")
	assert.Equal(t, 1, results[0].Winner)
	assert.Equal(t, 2, results[0].Players)
	assert.True(t, results[0].Finished)
	assert.Equal(t, 42, results[1].Turns)
	assert.Equal(t, map[string]int{"coin": 2}, results[1].Summary.Players[0].Counters)
	assert.Equal(t, clock, results[0].RecordedAt)
}

func TestSQLiteSaveReplacesExistingGame(t *testing.T) {
	store := openTestSQLite(t)
	ctx := context.Background()

	abandoned := summary("g1", 0)
	abandoned.Finished = false
	require.NoError(t, store.SaveResult(ctx, abandoned))
	require.NoError(t, store.SaveResult(ctx, summary("g1", 1)))

	results, err := store.ListResults(ctx, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Finished)
	assert.Equal(t, 1, results[0].Winner)
}

func TestSQLiteListLimit(t *testing.T) {
	store := openTestSQLite(t)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.SaveResult(ctx, summary(id, 0)))
	}

	results, err := store.ListResults(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSQLiteRejections(t *testing.T) {
	store := openTestSQLite(t)

	assert.Error(t, store.SaveResult(context.Background(), game.Summary{Players: []game.PlayerSummary{{}}}))
	assert.Error(t, store.SaveResult(context.Background(), game.Summary{GameID: "g"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, store.SaveResult(ctx, summary("g", 0)), context.Canceled)

	var nilStore *SQLiteStore
	assert.Error(t, nilStore.SaveResult(context.Background(), summary("g", 0)))
	assert.NoError(t, nilStore.Close())
}

func TestSQLiteReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uno.db")
	ctx := context.Background()

	store, err := OpenSQLite(ctx, path, nil)
	require.NoError(t, err)
	require.NoError(t, store.SaveResult(ctx, summary("g1", 0)))
	require.NoError(t, store.Close())

	store, err = OpenSQLite(ctx, path, nil)
	require.NoError(t, err)
	defer store.Close()
	results, err := store.ListResults(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestOpenSelectsDriver(t *testing.T) {
	ctx := context.Background()
	logger := zaptest.NewLogger(t)

	store, err := Open(ctx, config.DatabaseConfig{Driver: config.DriverNone}, logger)
	require.NoError(t, err)
	assert.IsType(t, NopStore{}, store)
	assert.NoError(t, store.SaveResult(ctx, summary("g", 0)))

	store, err = Open(ctx, config.DatabaseConfig{Driver: config.DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "uno.db")}, logger)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, store)
	require.NoError(t, store.Close())

	_, err = Open(ctx, config.DatabaseConfig{Driver: "mysql"}, logger)
	assert.Error(t, err)
}

func TestPostgresStore(t *testing.T) {
	url := os.Getenv("UNO_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("UNO_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	store, err := Open(ctx, config.DatabaseConfig{Driver: config.DriverPostgres, URL: url, MaxConns: 2}, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer store.Close()

	id := "pg-test-" + time.Now().Format("150405.000000")
	require.NoError(t, store.SaveResult(ctx, summary(id, 1)))

	results, err := store.ListResults(ctx, 100)
	require.NoError(t, err)
	var found bool
	for _, r := range results {
		if r.GameID == id {
			found = true
			assert.Equal(t, 1, r.Winner)
			assert.Equal(t, "Ada", r.Summary.WinnerName)
		}
	}
	assert.True(t, found)
}
