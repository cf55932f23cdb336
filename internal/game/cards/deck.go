package cards

// DeckSize is the number of cards in a standard deck.
const DeckSize = 108

// Random is the randomness the deck and engine draw from.
// *math/rand/v2.Rand satisfies it.
type Random interface {
	IntN(n int) int
	Shuffle(n int, swap func(i, j int))
}

// StandardCards returns the 108 cards in a fixed, unshuffled order.
func StandardCards() []Card {
	out := make([]Card, 0, DeckSize)
	for _, color := range PlayableColors {
		out = append(out, Card{color: color, rank: RankZero})
		for rank := RankOne; rank <= RankReverse; rank++ {
			out = append(out, Card{color: color, rank: rank}, Card{color: color, rank: rank})
		}
	}
	for i := 0; i < 4; i++ {
		out = append(out, Card{color: ColorWild, rank: RankWild})
		out = append(out, Card{color: ColorWild, rank: RankWildDrawFour})
	}
	return out
}

// Deck holds the draw and discard piles. The top of each pile is the last element.
type Deck struct {
	draw    []Card
	discard []Card
	rng     Random
}

// NewDeck creates an unshuffled standard deck.
func NewDeck(rng Random) *Deck {
	return &Deck{
		draw:    StandardCards(),
		discard: make([]Card, 0, DeckSize),
		rng:     rng,
	}
}

// NewDeckFromPiles builds a deck with explicit piles, bottom first.
func NewDeckFromPiles(draw, discard []Card, rng Random) *Deck {
	return &Deck{
		draw:    append([]Card(nil), draw...),
		discard: append([]Card(nil), discard...),
		rng:     rng,
	}
}

// Shuffle permutes the draw pile uniformly.
func (d *Deck) Shuffle() {
	d.rng.Shuffle(len(d.draw), func(i, j int) {
		d.draw[i], d.draw[j] = d.draw[j], d.draw[i]
	})
}

// Draw pops the top of the draw pile.
func (d *Deck) Draw() (Card, bool) {
	if len(d.draw) == 0 {
		return Card{}, false
	}
	top := d.draw[len(d.draw)-1]
	d.draw = d.draw[:len(d.draw)-1]
	return top, true
}

// ReturnToDraw puts a card back into the draw pile and reshuffles it.
func (d *Deck) ReturnToDraw(c Card) {
	d.draw = append(d.draw, c)
	d.Shuffle()
}

// PushDiscard places a card face up on the discard pile.
func (d *Deck) PushDiscard(c Card) {
	d.discard = append(d.discard, c)
}

// BuryInDiscard inserts cards directly beneath the current discard top,
// leaving the top card in place. With an empty discard they are pushed normally.
func (d *Deck) BuryInDiscard(cs ...Card) {
	if len(cs) == 0 {
		return
	}
	if len(d.discard) == 0 {
		d.discard = append(d.discard, cs...)
		return
	}
	top := d.discard[len(d.discard)-1]
	d.discard = append(d.discard[:len(d.discard)-1], cs...)
	d.discard = append(d.discard, top)
}

// Top returns the discard top.
func (d *Deck) Top() (Card, bool) {
	if len(d.discard) == 0 {
		return Card{}, false
	}
	return d.discard[len(d.discard)-1], true
}

// NeedsReshuffle reports whether the draw pile is empty while discard still
// holds cards beneath its top.
func (d *Deck) NeedsReshuffle() bool {
	return len(d.draw) == 0 && len(d.discard) > 1
}

// ReshuffleFromDiscard moves the discard pile, optionally minus its top, into
// the draw pile and shuffles. It returns false when nothing was moved.
func (d *Deck) ReshuffleFromDiscard(keepTop bool) bool {
	if len(d.discard) == 0 {
		return false
	}
	var kept []Card
	moving := d.discard
	if keepTop {
		kept = []Card{d.discard[len(d.discard)-1]}
		moving = d.discard[:len(d.discard)-1]
	}
	if len(moving) == 0 {
		return false
	}
	d.draw = append(d.draw, moving...)
	d.discard = kept
	d.Shuffle()
	return true
}

// DrawSize returns the number of cards in the draw pile.
func (d *Deck) DrawSize() int { return len(d.draw) }

// DiscardSize returns the number of cards in the discard pile.
func (d *Deck) DiscardSize() int { return len(d.discard) }

// DrawPile returns a copy of the draw pile, bottom first.
func (d *Deck) DrawPile() []Card { return append([]Card(nil), d.draw...) }

// DiscardPile returns a copy of the discard pile, bottom first.
func (d *Deck) DiscardPile() []Card { return append([]Card(nil), d.discard...) }
