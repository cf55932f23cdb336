package effects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thraizz/uno-server-go/internal/game/cards"
)

func card(c cards.Color, r cards.Rank) cards.Card {
	return cards.MustNew(c, r)
}

func TestForCardOverrides(t *testing.T) {
	ctx := Context{HandSizeAfter: 3, Players: 3}

	tests := []struct {
		name string
		card cards.Card
		want []Kind
	}{
		{"seven swaps right", card(cards.ColorYellow, cards.RankSeven), []Kind{KindSwapRight}},
		{"zero swaps any", card(cards.ColorGreen, cards.RankZero), []Kind{KindSwapAny}},
		{"blue three discards", card(cards.ColorBlue, cards.RankThree), []Kind{KindDiscardFromHand}},
		{"red three has no override", card(cards.ColorRed, cards.RankThree), []Kind{}},
		{"red eight draws four", card(cards.ColorRed, cards.RankEight), []Kind{KindDrawsFourUnlessLast}},
		{"blue eight is plain", card(cards.ColorBlue, cards.RankEight), []Kind{}},
		{"six plays any", card(cards.ColorRed, cards.RankSix), []Kind{KindPlayAnyDrawOne}},
		{"green five takes", card(cards.ColorGreen, cards.RankFive), []Kind{KindTakeRandomFromPrevious}},
		{"nine reveals", card(cards.ColorBlue, cards.RankNine), []Kind{KindRevealTopOfDraw}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, kinds(ForCard(tt.card, ctx)))
		})
	}
}

func TestForCardOverrideDetails(t *testing.T) {
	ctx := Context{HandSizeAfter: 3, Players: 4}

	blue3 := ForCard(card(cards.ColorBlue, cards.RankThree), ctx)
	require.Len(t, blue3, 1)
	assert.Equal(t, 2, blue3[0].Amount)
	assert.Equal(t, -1, blue3[0].Offset)

	green5 := ForCard(card(cards.ColorGreen, cards.RankFive), ctx)
	require.Len(t, green5, 1)
	assert.Equal(t, -1, green5[0].Offset)

	red8 := ForCard(card(cards.ColorRed, cards.RankEight), ctx)
	require.Len(t, red8, 1)
	assert.Equal(t, 4, red8[0].Amount)
	assert.Equal(t, 0, red8[0].Offset)
}

func TestRedEightAsLastCard(t *testing.T) {
	list := ForCard(card(cards.ColorRed, cards.RankEight), Context{HandSizeAfter: 0, Players: 2})
	assert.Equal(t, []Kind{KindNoOp}, kinds(list))
}

func TestForCardGeneric(t *testing.T) {
	tests := []struct {
		name    string
		card    cards.Card
		players int
		want    []Kind
	}{
		{"wild", card(cards.ColorWild, cards.RankWild), 3, []Kind{KindChooseColor}},
		{"wild draw four", card(cards.ColorWild, cards.RankWildDrawFour), 3, []Kind{KindChooseColor, KindDraw, KindSkip}},
		{"draw two", card(cards.ColorRed, cards.RankDrawTwo), 3, []Kind{KindDraw, KindSkip}},
		{"skip", card(cards.ColorRed, cards.RankSkip), 3, []Kind{KindSkip}},
		{"reverse", card(cards.ColorRed, cards.RankReverse), 3, []Kind{KindReverse}},
		{"reverse with two players", card(cards.ColorRed, cards.RankReverse), 2, []Kind{KindReverse, KindSkip}},
		{"plain number", card(cards.ColorYellow, cards.RankFour), 3, []Kind{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := kinds(ForCard(tt.card, Context{HandSizeAfter: 2, Players: tt.players}))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWildCarriesChosenColor(t *testing.T) {
	list := ForCard(card(cards.ColorWild, cards.RankWildDrawFour), Context{ChosenColor: cards.ColorBlue, HandSizeAfter: 1, Players: 3})
	require.Len(t, list, 3)
	assert.Equal(t, cards.ColorBlue, list[0].Color)
	assert.Equal(t, 4, list[1].Amount)
	assert.Equal(t, 1, list[1].Offset)
}

func TestBlocksContinuation(t *testing.T) {
	assert.False(t, BlocksContinuation(nil))
	assert.False(t, BlocksContinuation([]Effect{{Kind: KindSwapRight}}))
	assert.False(t, BlocksContinuation([]Effect{{Kind: KindChooseColor, Color: cards.ColorRed}}))
	assert.True(t, BlocksContinuation([]Effect{{Kind: KindChooseColor}}))
	assert.True(t, BlocksContinuation([]Effect{{Kind: KindDraw, Amount: 2, Offset: 1}, {Kind: KindSkip}}))
	assert.True(t, BlocksContinuation([]Effect{{Kind: KindReverse}}))
}

func TestNeedsInput(t *testing.T) {
	assert.True(t, KindSwapRight.NeedsInput())
	assert.True(t, KindSwapAny.NeedsInput())
	assert.True(t, KindDiscardFromHand.NeedsInput())
	assert.True(t, KindPlayAnyDrawOne.NeedsInput())
	assert.False(t, KindChooseColor.NeedsInput())
	assert.False(t, KindRevealTopOfDraw.NeedsInput())
}

func kinds(list []Effect) []Kind {
	out := make([]Kind, len(list))
	for i, e := range list {
		out[i] = e.Kind
	}
	return out
}
