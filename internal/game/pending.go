package game

import (
	"github.com/thraizz/uno-server-go/internal/game/cards"
	"github.com/thraizz/uno-server-go/internal/game/effects"
)

// PendingKind tags a suspended effect for presentation and the CPU policy.
type PendingKind string

const (
	PendingNone            PendingKind = ""
	PendingChooseColor     PendingKind = "CHOOSE_COLOR"
	PendingSwapRight       PendingKind = "SWAP_RIGHT"
	PendingSwapAny         PendingKind = "SWAP_ANY"
	PendingDiscardFromHand PendingKind = "DISCARD_FROM_HAND"
	PendingPlayAnyDrawOne  PendingKind = "PLAY_ANY_DRAW_ONE"
)

// Pending is a suspended multi-step effect. The set of implementations is
// closed to this package.
type Pending interface {
	Kind() PendingKind
	// Actor is the seat expected to resolve the action.
	Actor() int
	pending()
}

// ColorForWild waits for the chooser to name a color for a played wild.
// Remaining holds the effects still to run afterwards.
type ColorForWild struct {
	Chooser   int
	Remaining []effects.Effect
	Skip      bool
	Source    cards.Card
}

// ColorForFreePlay waits for a color for the wild picked in a free play.
type ColorForFreePlay struct {
	Initiator int
	CardIndex int
}

// SwapRight waits for one card each way with the next player.
type SwapRight struct {
	Initiator int
}

// SwapAny first waits for a target, then for the exchange.
type SwapAny struct {
	Initiator    int
	Target       int
	TargetChosen bool
}

// DiscardFromHand waits for the chooser to pick Count cards from the
// victim's hand.
type DiscardFromHand struct {
	Chooser int
	Victim  int
	Count   int
}

// PlayAnyDrawOne waits for the initiator to pick any card from hand.
type PlayAnyDrawOne struct {
	Initiator int
}

func (p *ColorForWild) Kind() PendingKind     { return PendingChooseColor }
func (p *ColorForFreePlay) Kind() PendingKind { return PendingChooseColor }
func (p *SwapRight) Kind() PendingKind        { return PendingSwapRight }
func (p *SwapAny) Kind() PendingKind          { return PendingSwapAny }
func (p *DiscardFromHand) Kind() PendingKind  { return PendingDiscardFromHand }
func (p *PlayAnyDrawOne) Kind() PendingKind   { return PendingPlayAnyDrawOne }

func (p *ColorForWild) Actor() int     { return p.Chooser }
func (p *ColorForFreePlay) Actor() int { return p.Initiator }
func (p *SwapRight) Actor() int        { return p.Initiator }
func (p *SwapAny) Actor() int          { return p.Initiator }
func (p *DiscardFromHand) Actor() int  { return p.Chooser }
func (p *PlayAnyDrawOne) Actor() int   { return p.Initiator }

func (*ColorForWild) pending()     {}
func (*ColorForFreePlay) pending() {}
func (*SwapRight) pending()        {}
func (*SwapAny) pending()          {}
func (*DiscardFromHand) pending()  {}
func (*PlayAnyDrawOne) pending()   {}

// ActionInput carries the extra choices a pending action needs.
type ActionInput struct {
	GiveIndex    *int  `json:"give_index,omitempty"`
	TakeIndex    *int  `json:"take_index,omitempty"`
	TargetPlayer *int  `json:"target_player,omitempty"`
	Indices      []int `json:"indices,omitempty"`
}

// Move is one call into PlayOrResume. CardIndex and Color drive a normal
// play, a free play or a color choice; Input drives the other resolvers.
type Move struct {
	CardIndex *int        `json:"card_index,omitempty"`
	Color     cards.Color `json:"color,omitempty"`
	Input     ActionInput `json:"input"`
}

// Index returns a pointer to i for building moves.
func Index(i int) *int {
	return &i
}
