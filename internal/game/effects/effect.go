// Package effects maps played cards to the ordered consequences the turn
// engine resolves.
package effects

import (
	"fmt"

	"github.com/thraizz/uno-server-go/internal/game/cards"
)

// Kind is the closed set of effect tags.
type Kind string

const (
	KindWin                    Kind = "WIN"
	KindChooseColor            Kind = "CHOOSE_COLOR"
	KindDraw                   Kind = "DRAW"
	KindSkip                   Kind = "SKIP"
	KindReverse                Kind = "REVERSE"
	KindSwapRight              Kind = "SWAP_RIGHT"
	KindSwapAny                Kind = "SWAP_ANY"
	KindDiscardFromHand        Kind = "DISCARD_FROM_HAND"
	KindDrawsFourUnlessLast    Kind = "DRAWS_FOUR_UNLESS_LAST"
	KindPlayAnyDrawOne         Kind = "PLAY_ANY_DRAW_ONE"
	KindTakeRandomFromPrevious Kind = "TAKE_RANDOM_FROM_PREVIOUS"
	KindRevealTopOfDraw        Kind = "REVEAL_TOP_OF_DRAW"
	KindNoOp                   Kind = "NOP"
)

// NeedsInput reports whether the kind always suspends for player input.
func (k Kind) NeedsInput() bool {
	switch k {
	case KindSwapRight, KindSwapAny, KindDiscardFromHand, KindPlayAnyDrawOne:
		return true
	}
	return false
}

// Effect is one consequence of a played card.
//
// Offset counts seats along the play direction from the acting player:
// +1 is the next player, -1 the previous one, 0 the actor.
type Effect struct {
	Kind    Kind
	Amount  int
	Color   cards.Color
	Offset  int
	Message string
}

func (e Effect) String() string {
	switch e.Kind {
	case KindDraw, KindDrawsFourUnlessLast:
		return fmt.Sprintf("%s(%d@%+d)", e.Kind, e.Amount, e.Offset)
	case KindChooseColor:
		return fmt.Sprintf("%s(%s)", e.Kind, e.Color)
	case KindDiscardFromHand:
		return fmt.Sprintf("%s(%d@%+d)", e.Kind, e.Amount, e.Offset)
	}
	return string(e.Kind)
}

// Win builds the terminal effect.
func Win() Effect {
	return Effect{Kind: KindWin}
}
