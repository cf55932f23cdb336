package effects

import "github.com/thraizz/uno-server-go/internal/game/cards"

// Context carries what the mapping needs beyond the card itself.
type Context struct {
	// ChosenColor is the color supplied with a wild, or ColorNone.
	ChosenColor cards.Color
	// HandSizeAfter is the acting player's hand size once the card has left it.
	HandSizeAfter int
	// Players is the number of seats at the table.
	Players int
}

type override struct {
	applies func(cards.Card) bool
	build   func(cards.Card, Context) []Effect
}

// overrides are checked in order and the first match replaces the generic
// rank effects entirely.
var overrides = []override{
	{
		applies: func(c cards.Card) bool { return c.Rank() == cards.RankSeven },
		build: func(cards.Card, Context) []Effect {
			return []Effect{{Kind: KindSwapRight, Message: "swap a card with the player to your right"}}
		},
	},
	{
		applies: func(c cards.Card) bool { return c.Rank() == cards.RankZero },
		build: func(cards.Card, Context) []Effect {
			return []Effect{{Kind: KindSwapAny, Message: "swap a card with any player"}}
		},
	},
	{
		applies: func(c cards.Card) bool { return c.Is(cards.ColorBlue, cards.RankThree) },
		build: func(cards.Card, Context) []Effect {
			return []Effect{{Kind: KindDiscardFromHand, Amount: 2, Offset: -1,
				Message: "the player to your left discards 2 cards from your hand"}}
		},
	},
	{
		applies: func(c cards.Card) bool { return c.Is(cards.ColorRed, cards.RankEight) },
		build: func(_ cards.Card, ctx Context) []Effect {
			if ctx.HandSizeAfter == 0 {
				return []Effect{{Kind: KindNoOp, Message: "red eight played as last card"}}
			}
			return []Effect{{Kind: KindDrawsFourUnlessLast, Amount: 4, Offset: 0,
				Message: "red eight: draw four"}}
		},
	},
	{
		applies: func(c cards.Card) bool { return c.Rank() == cards.RankSix },
		build: func(cards.Card, Context) []Effect {
			return []Effect{{Kind: KindPlayAnyDrawOne, Message: "play any card, then draw one"}}
		},
	},
	{
		applies: func(c cards.Card) bool { return c.Is(cards.ColorGreen, cards.RankFive) },
		build: func(cards.Card, Context) []Effect {
			return []Effect{{Kind: KindTakeRandomFromPrevious, Offset: -1,
				Message: "take a random card from the previous player"}}
		},
	},
	{
		applies: func(c cards.Card) bool { return c.Rank() == cards.RankNine },
		build: func(cards.Card, Context) []Effect {
			return []Effect{{Kind: KindRevealTopOfDraw, Message: "reveal and play the top of the draw pile"}}
		},
	},
}

// ForCard returns the ordered effects of playing c. Plain number cards
// yield an empty list.
func ForCard(c cards.Card, ctx Context) []Effect {
	for _, o := range overrides {
		if o.applies(c) {
			return o.build(c, ctx)
		}
	}

	switch c.Rank() {
	case cards.RankWild:
		return []Effect{{Kind: KindChooseColor, Color: ctx.ChosenColor}}
	case cards.RankWildDrawFour:
		return []Effect{
			{Kind: KindChooseColor, Color: ctx.ChosenColor},
			{Kind: KindDraw, Amount: 4, Offset: 1},
			{Kind: KindSkip},
		}
	case cards.RankDrawTwo:
		return []Effect{
			{Kind: KindDraw, Amount: 2, Offset: 1},
			{Kind: KindSkip},
		}
	case cards.RankSkip:
		return []Effect{{Kind: KindSkip}}
	case cards.RankReverse:
		if ctx.Players == 2 {
			return []Effect{{Kind: KindReverse}, {Kind: KindSkip, Message: "reverse acts as skip with two players"}}
		}
		return []Effect{{Kind: KindReverse}}
	}
	return nil
}

// BlocksContinuation reports whether a revealed card's effects end the turn
// even when the player could still play.
func BlocksContinuation(list []Effect) bool {
	for _, e := range list {
		switch e.Kind {
		case KindDraw, KindSkip, KindReverse:
			return true
		case KindChooseColor:
			if !e.Color.Playable() {
				return true
			}
		}
	}
	return false
}
