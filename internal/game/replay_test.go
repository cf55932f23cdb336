package game

import (
	"compress/gzip"
	"encoding/gob"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/thraizz/uno-server-go/internal/game/cards"
)

func recordTurns(t *testing.T, replay *Replay, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		replay.RecordState(Snapshot{GameID: replay.GameID, Turn: i + 1, Winner: NoWinner})
	}
}

func TestNewReplay(t *testing.T) {
	replay := NewReplay("game-123")
	assert.Equal(t, "game-123", replay.GameID)
	assert.Equal(t, 0, replay.CurrentIndex)
	assert.Equal(t, 0, replay.Size())
	assert.Nil(t, replay.Last())
}

func TestReplayRecordStateStoresChecksum(t *testing.T) {
	replay := NewReplay("game-123")
	snapshot := Snapshot{GameID: "game-123", Turn: 1}

	replay.RecordState(snapshot)

	require.Equal(t, 1, replay.Size())
	assert.Equal(t, snapshot, replay.States[0].Snapshot)
	assert.Equal(t, snapshot.Checksum(), replay.States[0].Checksum)
}

func TestReplayNavigation(t *testing.T) {
	replay := NewReplay("game-123")
	recordTurns(t, replay, 5)

	replay.Start()
	assert.Equal(t, 0, replay.CurrentIndex)

	state := replay.Next()
	require.NotNil(t, state)
	assert.Equal(t, 1, state.Snapshot.Turn)

	for i := 0; i < 4; i++ {
		require.NotNil(t, replay.Next())
	}
	assert.Nil(t, replay.Next(), "past the end")

	state = replay.Previous()
	require.NotNil(t, state)
	assert.Equal(t, 5, state.Snapshot.Turn)

	replay.Start()
	assert.Nil(t, replay.Previous(), "before the start")
}

func TestReplaySkipIsClamped(t *testing.T) {
	replay := NewReplay("game-123")
	assert.Nil(t, replay.Skip(1))

	recordTurns(t, replay, 5)

	state := replay.Skip(2)
	assert.Equal(t, 3, state.Snapshot.Turn)

	state = replay.Skip(100)
	assert.Equal(t, 5, state.Snapshot.Turn)

	state = replay.Skip(-100)
	assert.Equal(t, 1, state.Snapshot.Turn)
}

func TestReplayStateAt(t *testing.T) {
	replay := NewReplay("game-123")
	recordTurns(t, replay, 5)

	assert.Equal(t, 1, replay.StateAt(0).Snapshot.Turn)
	assert.Equal(t, 5, replay.StateAt(4).Snapshot.Turn)
	assert.Equal(t, 5, replay.Last().Snapshot.Turn)
	assert.Nil(t, replay.StateAt(-1))
	assert.Nil(t, replay.StateAt(5))
}

func TestReplaySaveAndLoad(t *testing.T) {
	tempDir := t.TempDir()
	g := newSeededGame(t, 3, 11)

	replay := NewReplay(g.ID())
	replay.RecordState(g.Snapshot(RevealAll))
	_, err := g.CannotPlay(g.CurrentPlayer())
	require.NoError(t, err)
	replay.RecordState(g.Snapshot(RevealAll))

	require.NoError(t, replay.SaveToFile(tempDir))
	_, err = os.Stat(filepath.Join(tempDir, g.ID()+".replay"))
	require.NoError(t, err)

	loaded, err := LoadReplayFromFile(tempDir, g.ID())
	require.NoError(t, err)
	assert.Equal(t, replay.GameID, loaded.GameID)
	require.Equal(t, replay.Size(), loaded.Size())
	for i := 0; i < replay.Size(); i++ {
		assert.Equal(t, replay.StateAt(i).Checksum, loaded.StateAt(i).Checksum)
		assert.Equal(t, replay.StateAt(i).Snapshot.Players[0].Hand, loaded.StateAt(i).Snapshot.Players[0].Hand)
	}
}

func TestReplaySaveCreatesDirectory(t *testing.T) {
	replay := NewReplay("game-123")
	recordTurns(t, replay, 1)

	dir := filepath.Join(t.TempDir(), "subdir", "another")
	require.NoError(t, replay.SaveToFile(dir))

	_, err := os.Stat(filepath.Join(dir, "game-123.replay"))
	require.NoError(t, err)
}

func TestReplayLoadNonexistentFile(t *testing.T) {
	_, err := LoadReplayFromFile(t.TempDir(), "nonexistent")
	assert.Error(t, err)
}

func writeRawReplay(t *testing.T, dir string, meta replayMetadata, states ...ReplayState) {
	t.Helper()
	f, err := os.Create(replayPath(dir, meta.GameID))
	require.NoError(t, err)
	defer f.Close()
	gz := gzip.NewWriter(f)
	enc := gob.NewEncoder(gz)
	require.NoError(t, enc.Encode(&meta))
	for i := range states {
		require.NoError(t, enc.Encode(&states[i]))
	}
	require.NoError(t, gz.Close())
}

func TestReplayLoadDetectsTampering(t *testing.T) {
	dir := t.TempDir()
	good := Snapshot{GameID: "tampered", Turn: 3}
	bad := good
	bad.Turn = 4

	writeRawReplay(t, dir,
		replayMetadata{GameID: "tampered", Timestamp: time.Now(), Version: replayVersion, StateCount: 1},
		ReplayState{Snapshot: bad, Checksum: good.Checksum()},
	)

	_, err := LoadReplayFromFile(dir, "tampered")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checksum mismatch")
}

func TestReplayLoadRejectsUnknownVersion(t *testing.T) {
	dir := t.TempDir()
	writeRawReplay(t, dir, replayMetadata{GameID: "old", Version: replayVersion + 1})

	_, err := LoadReplayFromFile(dir, "old")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported replay version")
}

func TestReplayRecorder(t *testing.T) {
	recorder := NewReplayRecorder(zap.NewNop(), t.TempDir())
	g := newSeededGame(t, 2, 5)
	gameID := g.ID()

	recorder.Record(g)
	_, exists := recorder.GetReplay(gameID)
	assert.False(t, exists, "recording is off until started")

	recorder.StartRecording(gameID)
	assert.True(t, recorder.IsRecording(gameID))
	recorder.Record(g)
	_, err := g.CannotPlay(g.CurrentPlayer())
	require.NoError(t, err)
	recorder.Record(g)

	replay, exists := recorder.GetReplay(gameID)
	require.True(t, exists)
	assert.Equal(t, 2, replay.Size())
	assert.Len(t, replay.Last().Snapshot.Players[1].Hand, g.Player(1).HandSize(), "recordings reveal every hand")

	recorder.StopRecording(gameID)
	assert.False(t, recorder.IsRecording(gameID))
	recorder.Record(g)
	assert.Equal(t, 2, replay.Size(), "states after stopping are ignored")

	require.NoError(t, recorder.SaveReplay(gameID))
	_, exists = recorder.GetReplay(gameID)
	assert.False(t, exists, "saved replays leave memory")

	loaded, err := recorder.LoadReplay(gameID)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Size())

	assert.Error(t, recorder.SaveReplay("missing"))
}

func TestReplayRecorderClear(t *testing.T) {
	recorder := NewReplayRecorder(nil, t.TempDir())
	g := newSeededGame(t, 2, 6)

	recorder.StartRecording(g.ID())
	recorder.Record(g)
	recorder.ClearReplay(g.ID())

	_, exists := recorder.GetReplay(g.ID())
	assert.False(t, exists)
	assert.False(t, recorder.IsRecording(g.ID()))
}

func TestReplayRecordsFullGame(t *testing.T) {
	recorder := NewReplayRecorder(zap.NewNop(), t.TempDir())
	g := newTable(t, table{
		hands: [][]cards.Card{
			{c(cards.ColorRed, cards.RankOne), c(cards.ColorRed, cards.RankTwo)},
			{c(cards.ColorBlue, cards.RankFive)},
		},
		draw:    []cards.Card{c(cards.ColorBlue, cards.RankNine)},
		discard: []cards.Card{c(cards.ColorRed, cards.RankFive)},
	})
	recorder.StartRecording(g.ID())
	recorder.Record(g)

	play(t, g, 0, 0, cards.ColorNone)
	recorder.Record(g)
	_, err := g.CannotPlay(1)
	require.NoError(t, err)
	recorder.Record(g)
	play(t, g, 0, 0, cards.ColorNone)
	recorder.Record(g)
	require.True(t, g.IsOver())

	replay, _ := recorder.GetReplay(g.ID())
	require.Equal(t, 4, replay.Size())
	last := replay.Last().Snapshot
	assert.True(t, last.Over)
	assert.Equal(t, 0, last.Winner)

	for i := 1; i < replay.Size(); i++ {
		assert.NotEqual(t, replay.StateAt(i-1).Checksum, replay.StateAt(i).Checksum)
	}
}
