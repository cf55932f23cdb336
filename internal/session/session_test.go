package session

import (
	"context"
	"errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/thraizz/uno-server-go/internal/game"
	"github.com/thraizz/uno-server-go/internal/game/cards"
	"github.com/thraizz/uno-server-go/internal/game/counters"
	"github.com/thraizz/uno-server-go/internal/repository"
	"github.com/thraizz/uno-server-go/internal/shop"
	"github.com/thraizz/uno-server-go/internal/spells"
)

type fakeStore struct {
	mu      sync.Mutex
	saved   []game.Summary
	failure error
}

func (f *fakeStore) SaveResult(_ context.Context, s game.Summary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failure != nil {
		return f.failure
	}
	f.saved = append(f.saved, s)
	return nil
}

func (f *fakeStore) ListResults(context.Context, int) ([]repository.Result, error) {
	return nil, nil
}

func (f *fakeStore) Close() error { return nil }

func (f *fakeStore) results() []game.Summary {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]game.Summary(nil), f.saved...)
}

func card(color cards.Color, rank cards.Rank) cards.Card {
	return cards.MustNew(color, rank)
}

func seeded(seed uint64) func() cards.Random {
	return func() cards.Random { return rand.New(rand.NewPCG(seed, seed+1)) }
}

func newTestManager(t *testing.T, store *fakeStore, cfg Config) *manager {
	t.Helper()
	if cfg.NewRandom == nil {
		cfg.NewRandom = seeded(1)
	}
	var rs repository.ResultStore
	if store != nil {
		rs = store
	}
	return NewManager(cfg, rs, zaptest.NewLogger(t)).(*manager)
}

// deal builds a full-deck deal; seat 0 is human, the rest are CPU.
func deal(t *testing.T, hands [][]cards.Card, top cards.Card) game.Deal {
	t.Helper()
	rest := cards.StandardCards()
	remove := func(c cards.Card) {
		for i, r := range rest {
			if r == c {
				rest = append(rest[:i], rest[i+1:]...)
				return
			}
		}
		t.Fatalf("card %s used too often", c)
	}
	d := game.Deal{Discard: []cards.Card{top}, Hands: hands}
	remove(top)
	for i, h := range hands {
		for _, c := range h {
			remove(c)
		}
		d.Players = append(d.Players, game.PlayerOptions{Name: string(rune('A' + i)), CPU: i > 0})
	}
	d.Draw = rest
	return d
}

func TestSessionDrivesCPUAndPersistsResult(t *testing.T) {
	store := &fakeStore{}
	m := newTestManager(t, store, Config{})
	ctx := context.Background()

	sess, err := m.CreateSessionFromDeal(ctx, deal(t, [][]cards.Card{
		{card(cards.ColorRed, cards.RankOne), card(cards.ColorRed, cards.RankThree)},
		{card(cards.ColorRed, cards.RankFour), card(cards.ColorBlue, cards.RankOne)},
	}, card(cards.ColorRed, cards.RankFive)))
	require.NoError(t, err)

	res, err := sess.Play(ctx, 0, game.Move{CardIndex: game.Index(0)})
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExpectedActor, "the cpu seat answered and handed back")
	snap := sess.Snapshot(0)
	assert.Equal(t, "RED FOUR", snap.TopCard.Name)
	assert.Equal(t, 1, snap.Players[1].HandSize)
	assert.Empty(t, store.results())

	res, err = sess.Play(ctx, 0, game.Move{CardIndex: game.Index(0)})
	require.NoError(t, err)
	assert.Equal(t, game.StatusWon, res.Status)
	assert.True(t, sess.IsOver())

	saved := store.results()
	require.Len(t, saved, 1)
	assert.Equal(t, sess.ID, saved[0].GameID)
	assert.True(t, saved[0].Finished)
	assert.Equal(t, 0, saved[0].Winner)

	_, err = sess.Play(ctx, 0, game.Move{CardIndex: game.Index(0)})
	assert.ErrorIs(t, err, game.ErrGameOver)
	assert.Len(t, store.results(), 1, "a result is stored once")
}

func TestSessionRejectionLeavesStateUnchanged(t *testing.T) {
	m := newTestManager(t, &fakeStore{}, Config{})
	ctx := context.Background()
	sess, err := m.CreateSessionFromDeal(ctx, deal(t, [][]cards.Card{
		{card(cards.ColorBlue, cards.RankOne), card(cards.ColorRed, cards.RankThree)},
		{card(cards.ColorRed, cards.RankFour)},
	}, card(cards.ColorRed, cards.RankFive)))
	require.NoError(t, err)
	before := sess.Snapshot(game.RevealAll)

	_, err = sess.Play(ctx, 0, game.Move{CardIndex: game.Index(0)})
	assert.ErrorIs(t, err, game.ErrIllegalPlay)
	_, err = sess.Play(ctx, 1, game.Move{CardIndex: game.Index(0)})
	assert.ErrorIs(t, err, game.ErrNotYourTurn)

	assert.Equal(t, before, sess.Snapshot(game.RevealAll))
}

func TestAllCPUSessionPlaysToTheEnd(t *testing.T) {
	store := &fakeStore{}
	m := newTestManager(t, store, Config{MaxCPUSteps: 20000})
	ctx := context.Background()

	var finished int
	for seed := uint64(0); seed < 5; seed++ {
		m.cfg.NewRandom = seeded(seed)
		sess, err := m.CreateSession(ctx, game.Options{Players: []game.PlayerOptions{{CPU: true}, {CPU: true}, {CPU: true}}})
		require.NoError(t, err)
		if sess.IsOver() {
			finished++
		}
	}
	assert.Greater(t, finished, 2)
	assert.Len(t, store.results(), finished)
}

func TestCPUStepLimitStopsDriving(t *testing.T) {
	store := &fakeStore{}
	m := newTestManager(t, store, Config{MaxCPUSteps: 3})
	ctx := context.Background()

	sess, err := m.CreateSession(ctx, game.Options{Players: []game.PlayerOptions{{CPU: true}, {CPU: true}}})
	require.NoError(t, err)
	require.False(t, sess.IsOver())
	turn := sess.Snapshot(0).Turn

	_, err = sess.RunCPU(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, sess.Snapshot(0).Turn, turn)
}

func TestCPUThinkDelayHonoursContext(t *testing.T) {
	m := newTestManager(t, &fakeStore{}, Config{CPUThinkDelay: time.Hour})
	sess, err := m.CreateSessionFromDeal(context.Background(), deal(t, [][]cards.Card{
		{card(cards.ColorRed, cards.RankOne), card(cards.ColorRed, cards.RankThree)},
		{card(cards.ColorRed, cards.RankFour), card(cards.ColorBlue, cards.RankOne)},
	}, card(cards.ColorRed, cards.RankFive)))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = sess.Play(ctx, 0, game.Move{CardIndex: game.Index(0)})
	require.NoError(t, err, "the human move committed")
	assert.Equal(t, 1, sess.Snapshot(0).ExpectedActor, "the human move stands, the cpu has not acted")
}

func TestCommittedMoveSurvivesCPUDeadline(t *testing.T) {
	m := newTestManager(t, &fakeStore{}, Config{CPUThinkDelay: time.Hour})
	sess, err := m.CreateSessionFromDeal(context.Background(), deal(t, [][]cards.Card{
		{card(cards.ColorRed, cards.RankOne), card(cards.ColorRed, cards.RankThree)},
		{card(cards.ColorRed, cards.RankFour), card(cards.ColorBlue, cards.RankOne)},
	}, card(cards.ColorRed, cards.RankFive)))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	res, err := sess.Play(ctx, 0, game.Move{CardIndex: game.Index(0)})
	require.NoError(t, err)
	assert.Equal(t, 1, res.ExpectedActor)

	snap := sess.Snapshot(0)
	assert.Equal(t, 1, snap.Players[0].HandSize)
	assert.Equal(t, "RED ONE", snap.TopCard.Name)

	_, err = sess.Play(context.Background(), 0, game.Move{CardIndex: game.Index(0)})
	assert.ErrorIs(t, err, game.ErrNotYourTurn, "a retry does not play a second card")
}

func TestThinkingCPUDoesNotBlockReaders(t *testing.T) {
	m := newTestManager(t, &fakeStore{}, Config{CPUThinkDelay: time.Hour, LeasePeriod: time.Hour})
	sess, err := m.CreateSessionFromDeal(context.Background(), deal(t, [][]cards.Card{
		{card(cards.ColorRed, cards.RankOne), card(cards.ColorRed, cards.RankThree)},
		{card(cards.ColorRed, cards.RankFour), card(cards.ColorBlue, cards.RankOne)},
	}, card(cards.ColorRed, cards.RankFive)))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		_, err := sess.Play(ctx, 0, game.Move{CardIndex: game.Index(0)})
		done <- err
	}()

	assert.Eventually(t, func() bool {
		return sess.Snapshot(0).Players[0].HandSize == 1
	}, time.Second, 5*time.Millisecond)
	select {
	case <-done:
		t.Fatal("play returned before the cpu finished thinking")
	default:
	}
	assert.Equal(t, 0, m.evictExpired(context.Background()))
	assert.Len(t, m.ListSessions(), 1)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("play did not return after cancel")
	}
	assert.Equal(t, 1, sess.Snapshot(0).ExpectedActor)
}

func TestCloseDuringThinkStopsDriving(t *testing.T) {
	store := &fakeStore{}
	m := newTestManager(t, store, Config{CPUThinkDelay: time.Hour})
	sess, err := m.CreateSessionFromDeal(context.Background(), deal(t, [][]cards.Card{
		{card(cards.ColorRed, cards.RankOne), card(cards.ColorRed, cards.RankThree)},
		{card(cards.ColorRed, cards.RankFour), card(cards.ColorBlue, cards.RankOne)},
	}, card(cards.ColorRed, cards.RankFive)))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		_, err := sess.Play(ctx, 0, game.Move{CardIndex: game.Index(0)})
		done <- err
	}()
	require.Eventually(t, func() bool {
		return sess.Snapshot(0).Players[0].HandSize == 1
	}, time.Second, 5*time.Millisecond)

	require.True(t, m.RemoveSession(context.Background(), sess.ID))
	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, 2, sess.Snapshot(0).Players[1].HandSize, "the cpu did not move after close")
	assert.Len(t, store.results(), 1)
}

func TestCreateSessionRecordsBeforePublishing(t *testing.T) {
	m := newTestManager(t, &fakeStore{}, Config{ReplayDir: t.TempDir()})
	ctx := context.Background()
	hands := [][]cards.Card{
		{card(cards.ColorRed, cards.RankOne), card(cards.ColorRed, cards.RankThree)},
		{card(cards.ColorRed, cards.RankFour), card(cards.ColorBlue, cards.RankOne)},
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		played := map[string]bool{}
		for {
			select {
			case <-stop:
				return
			default:
			}
			for _, info := range m.ListSessions() {
				if played[info.ID] {
					continue
				}
				if s, ok := m.GetSession(info.ID); ok {
					played[info.ID] = true
					_, _ = s.Play(ctx, 0, game.Move{CardIndex: game.Index(0)})
				}
			}
		}
	}()

	var ids []string
	for i := 0; i < 20; i++ {
		sess, err := m.CreateSessionFromDeal(ctx, deal(t, hands, card(cards.ColorRed, cards.RankFive)))
		require.NoError(t, err)
		ids = append(ids, sess.ID)
	}
	close(stop)
	wg.Wait()

	for _, id := range ids {
		replay, ok := m.recorder.GetReplay(id)
		require.True(t, ok)
		first := replay.StateAt(0)
		require.NotNil(t, first)
		assert.Equal(t, 2, first.Snapshot.Players[0].HandSize, "the first frame is the deal")
	}
}

func TestPurchaseAndCast(t *testing.T) {
	m := newTestManager(t, &fakeStore{}, Config{})
	sess, err := m.CreateSessionFromDeal(context.Background(), deal(t, [][]cards.Card{
		{card(cards.ColorRed, cards.RankOne), card(cards.ColorRed, cards.RankThree)},
		{card(cards.ColorRed, cards.RankFour)},
	}, card(cards.ColorRed, cards.RankFive)))
	require.NoError(t, err)

	_, err = sess.Purchase(0, shop.ItemGainShuffleToken)
	assert.ErrorIs(t, err, shop.ErrInsufficientCoins)

	sess.mu.Lock()
	sess.game.PlayerCounters(0).Add(counters.CounterTypeCoin, 3)
	sess.game.PlayerCounters(0).Add(counters.CounterTypeSolarMana, 3)
	sess.mu.Unlock()

	receipt, err := sess.Purchase(0, shop.ItemGainShuffleToken)
	require.NoError(t, err)
	assert.Equal(t, shop.ItemGainShuffleToken, receipt.Item.ID)
	snap := sess.Snapshot(0)
	assert.Equal(t, 0, snap.Players[0].Counters[string(counters.CounterTypeCoin)])
	assert.Equal(t, 1, snap.Players[0].Counters[string(counters.CounterTypeShuffleToken)])

	_, err = sess.Cast(0, spells.SunFlareDiscard, nil)
	assert.ErrorIs(t, err, spells.ErrTargetRequired)
	_, err = sess.Cast(0, spells.SunFlareDiscard, game.Index(7))
	assert.ErrorIs(t, err, ErrInvalidSeat)
	cast, err := sess.Cast(0, spells.SunFlareDiscard, game.Index(1))
	require.NoError(t, err)
	assert.Equal(t, 1, *cast.Target)
	assert.Equal(t, 0, sess.Snapshot(0).Players[0].Counters[string(counters.CounterTypeSolarMana)])

	_, err = sess.Purchase(5, shop.ItemGainShuffleToken)
	assert.ErrorIs(t, err, ErrInvalidSeat)
}

func TestManagerLifecycle(t *testing.T) {
	store := &fakeStore{}
	m := newTestManager(t, store, Config{MaxSessions: 2})
	ctx := context.Background()
	opts := game.Options{Players: []game.PlayerOptions{{Name: "Ada"}, {Name: "Bob"}}}

	a, err := m.CreateSession(ctx, opts)
	require.NoError(t, err)
	b, err := m.CreateSession(ctx, opts)
	require.NoError(t, err)
	_, err = m.CreateSession(ctx, opts)
	assert.ErrorIs(t, err, ErrSessionLimit)

	got, ok := m.GetSession(a.ID)
	require.True(t, ok)
	assert.Same(t, a, got)
	assert.Equal(t, 2, m.Count())
	infos := m.ListSessions()
	require.Len(t, infos, 2)
	assert.Equal(t, []string{"Ada", "Bob"}, infos[0].Players)

	assert.True(t, m.RemoveSession(ctx, a.ID))
	assert.False(t, m.RemoveSession(ctx, a.ID))
	_, err = a.CannotPlay(ctx, a.Snapshot(0).CurrentPlayer)
	assert.ErrorIs(t, err, ErrSessionClosed)

	saved := store.results()
	require.Len(t, saved, 1)
	assert.False(t, saved[0].Finished, "removed unfinished games are stored as abandoned")

	m.CloseAll(ctx)
	assert.Equal(t, 0, m.Count())
	_, ok = m.GetSession(b.ID)
	assert.False(t, ok)
	assert.Len(t, store.results(), 2)
}

func TestEvictExpired(t *testing.T) {
	m := newTestManager(t, &fakeStore{}, Config{LeasePeriod: time.Minute})
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }
	ctx := context.Background()
	opts := game.Options{Players: []game.PlayerOptions{{}, {}}}

	old, err := m.CreateSession(ctx, opts)
	require.NoError(t, err)
	clock = clock.Add(50 * time.Second)
	fresh, err := m.CreateSession(ctx, opts)
	require.NoError(t, err)

	clock = clock.Add(20 * time.Second)
	assert.Equal(t, 1, m.evictExpired(ctx))
	_, ok := m.GetSession(old.ID)
	assert.False(t, ok)
	_, ok = m.GetSession(fresh.ID)
	assert.True(t, ok)
}

func TestCleanupExpiredSessionsStopsOnCancel(t *testing.T) {
	m := newTestManager(t, nil, Config{LeasePeriod: 10 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.CleanupExpiredSessions(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup loop did not stop")
	}
}

func TestStoreFailureIsLoggedNotReturned(t *testing.T) {
	store := &fakeStore{failure: errors.New("disk full")}
	m := newTestManager(t, store, Config{})
	ctx := context.Background()
	sess, err := m.CreateSessionFromDeal(ctx, deal(t, [][]cards.Card{
		{card(cards.ColorRed, cards.RankOne)},
		{card(cards.ColorBlue, cards.RankOne)},
	}, card(cards.ColorRed, cards.RankFive)))
	require.NoError(t, err)

	res, err := sess.Play(ctx, 0, game.Move{CardIndex: game.Index(0)})
	require.NoError(t, err)
	assert.Equal(t, game.StatusWon, res.Status)
}

func TestReplayIsSavedWhenGameEnds(t *testing.T) {
	dir := t.TempDir()
	m := newTestManager(t, &fakeStore{}, Config{ReplayDir: dir})
	ctx := context.Background()
	sess, err := m.CreateSessionFromDeal(ctx, deal(t, [][]cards.Card{
		{card(cards.ColorRed, cards.RankOne), card(cards.ColorRed, cards.RankThree)},
		{card(cards.ColorRed, cards.RankFour), card(cards.ColorBlue, cards.RankOne)},
	}, card(cards.ColorRed, cards.RankFive)))
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err = sess.Play(ctx, 0, game.Move{CardIndex: game.Index(0)})
		require.NoError(t, err)
	}
	require.True(t, sess.IsOver())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	replay, err := game.LoadReplayFromFile(dir, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, replay.Size(), "deal, human, cpu, winning play")
	assert.True(t, replay.Last().Snapshot.Over)
	assert.FileExists(t, filepath.Join(dir, entries[0].Name()))
}
