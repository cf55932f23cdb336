package game

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/thraizz/uno-server-go/internal/game/cards"
)

// scriptedRand returns queued IntN values (clamped to n) and then zeros.
// Shuffle leaves order untouched so piles stay predictable.
type scriptedRand struct {
	values []int
}

func (r *scriptedRand) IntN(n int) int {
	if len(r.values) == 0 {
		return 0
	}
	v := r.values[0]
	r.values = r.values[1:]
	return v % n
}

func (r *scriptedRand) Shuffle(int, func(i, j int)) {}

func c(color cards.Color, rank cards.Rank) cards.Card {
	return cards.MustNew(color, rank)
}

var (
	wild     = c(cards.ColorWild, cards.RankWild)
	wildFour = c(cards.ColorWild, cards.RankWildDrawFour)
)

type fill int

const (
	fillDraw fill = iota
	fillDiscard
	fillNone
)

type table struct {
	hands   [][]cards.Card
	draw    []cards.Card // top last
	discard []cards.Card // top last
	fill    fill
	first   int
	rng     cards.Random
}

// subtract removes each of used from pool once.
func subtract(t *testing.T, pool []cards.Card, used []cards.Card) []cards.Card {
	t.Helper()
	rest := append([]cards.Card(nil), pool...)
	for _, u := range used {
		found := false
		for i, p := range rest {
			if p == u {
				rest = append(rest[:i], rest[i+1:]...)
				found = true
				break
			}
		}
		require.Truef(t, found, "card %s used more often than the deck holds", u)
	}
	return rest
}

// newTable builds a game with explicit hands and piles. Unused deck cards
// go beneath the draw or discard pile so conservation holds.
func newTable(t *testing.T, tb table) *Game {
	t.Helper()
	require.NotEmpty(t, tb.discard, "table needs a discard top")

	var used []cards.Card
	for _, h := range tb.hands {
		used = append(used, h...)
	}
	used = append(used, tb.draw...)
	used = append(used, tb.discard...)
	rest := subtract(t, cards.StandardCards(), used)

	draw, discard := tb.draw, tb.discard
	switch tb.fill {
	case fillDraw:
		draw = append(rest, tb.draw...)
	case fillDiscard:
		discard = append(rest, tb.discard...)
	}

	rng := tb.rng
	if rng == nil {
		rng = &scriptedRand{}
	}
	players := make([]*Player, len(tb.hands))
	for i, h := range tb.hands {
		players[i] = NewPlayer(string(rune('A'+i)), false)
		for _, card := range h {
			players[i].AddCard(card)
		}
	}
	return newGame("test-game", players, cards.NewDeckFromPiles(draw, discard, rng), tb.first, rng, zaptest.NewLogger(t))
}

func requireConserved(t *testing.T, g *Game) {
	t.Helper()
	require.Equal(t, cards.DeckSize, g.TotalCards())
}

func play(t *testing.T, g *Game, seat, idx int, color cards.Color) Result {
	t.Helper()
	res, err := g.PlayOrResume(seat, Move{CardIndex: Index(idx), Color: color})
	require.NoError(t, err)
	requireConserved(t, g)
	return res
}

func newSeededGame(t *testing.T, players int, seed uint64) *Game {
	t.Helper()
	opts := Options{}
	for i := 0; i < players; i++ {
		opts.Players = append(opts.Players, PlayerOptions{Name: string(rune('A' + i))})
	}
	g, err := New("", opts, rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), zaptest.NewLogger(t))
	require.NoError(t, err)
	return g
}
