package game

import (
	"fmt"

	"github.com/thraizz/uno-server-go/internal/game/cards"
	"github.com/thraizz/uno-server-go/internal/game/effects"
	"github.com/thraizz/uno-server-go/internal/game/rules"
)

// resume routes a move to the resolver of the open pending action.
func (g *Game) resume(actor int, m Move) (Result, error) {
	if actor != g.pending.Actor() {
		return Result{}, fmt.Errorf("%w: seat %d, %s waits on %d",
			ErrNotPendingActor, actor, g.pending.Kind(), g.pending.Actor())
	}

	var err error
	switch p := g.pending.(type) {
	case *ColorForWild:
		err = g.resolveColorForWild(p, m)
	case *ColorForFreePlay:
		err = g.resolveColorForFreePlay(p, m)
	case *SwapRight:
		err = g.resolveSwapRight(p, m)
	case *SwapAny:
		err = g.resolveSwapAny(p, m)
	case *DiscardFromHand:
		err = g.resolveDiscardFromHand(p, m)
	case *PlayAnyDrawOne:
		err = g.resolvePlayAnyDrawOne(p, m)
	default:
		err = fmt.Errorf("%w: unknown pending action %T", ErrInvariant, p)
	}
	if err != nil {
		g.messages = nil
		return Result{}, err
	}
	return g.result(), nil
}

func requireColor(c cards.Color) error {
	if c == cards.ColorNone {
		return fmt.Errorf("%w: color required", ErrMissingInput)
	}
	if !c.Playable() {
		return fmt.Errorf("%w: %s", ErrInvalidColor, c)
	}
	return nil
}

func (g *Game) resolveColorForWild(p *ColorForWild, m Move) error {
	if err := requireColor(m.Color); err != nil {
		return err
	}
	g.begin()
	g.clearPending()
	g.setActiveColor(p.Chooser, m.Color)
	g.runEffects(p.Chooser, p.Remaining, p.Skip)
	return nil
}

func (g *Game) resolveColorForFreePlay(p *ColorForFreePlay, m Move) error {
	if err := requireColor(m.Color); err != nil {
		return err
	}
	if _, ok := g.players[p.Initiator].CardAt(p.CardIndex); !ok {
		return fmt.Errorf("%w: stored free play index %d", ErrInvariant, p.CardIndex)
	}
	g.begin()
	g.pending = &PlayAnyDrawOne{Initiator: p.Initiator}
	g.resolveFreePlay(p.Initiator, p.CardIndex, m.Color)
	return nil
}

func (g *Game) resolveSwapRight(p *SwapRight, m Move) error {
	recipient := g.turns.Next(p.Initiator)
	if err := g.validateSwap(p.Initiator, recipient, m.Input); err != nil {
		return err
	}
	g.begin()
	g.exchange(p.Initiator, recipient, m.Input)
	g.clearPending()
	g.advanceFrom(p.Initiator, 1)
	return nil
}

func (g *Game) resolveSwapAny(p *SwapAny, m Move) error {
	if !p.TargetChosen {
		t := m.Input.TargetPlayer
		if t == nil {
			return fmt.Errorf("%w: target player required", ErrMissingInput)
		}
		if *t < 0 || *t >= len(g.players) || *t == p.Initiator {
			return fmt.Errorf("%w: %d", ErrInvalidTarget, *t)
		}
		g.begin()
		p.Target = *t
		p.TargetChosen = true
		g.say("%s will swap with %s.", g.name(p.Initiator), g.name(p.Target))
		return nil
	}

	if err := g.validateSwap(p.Initiator, p.Target, m.Input); err != nil {
		return err
	}
	g.begin()
	g.exchange(p.Initiator, p.Target, m.Input)
	g.clearPending()
	g.advanceFrom(p.Initiator, 1)
	return nil
}

// validateSwap checks the give/take indices unless the partner has no
// cards, in which case the swap is skipped.
func (g *Game) validateSwap(initiator, partner int, in ActionInput) error {
	if g.players[partner].IsHandEmpty() {
		return nil
	}
	if in.GiveIndex == nil || in.TakeIndex == nil {
		return fmt.Errorf("%w: give and take indices required", ErrMissingInput)
	}
	if _, ok := g.players[initiator].CardAt(*in.GiveIndex); !ok {
		return fmt.Errorf("%w: give index %d", ErrInvalidCardIndex, *in.GiveIndex)
	}
	if _, ok := g.players[partner].CardAt(*in.TakeIndex); !ok {
		return fmt.Errorf("%w: take index %d", ErrInvalidCardIndex, *in.TakeIndex)
	}
	return nil
}

// exchange swaps one card each way. Received cards go to the end of hand.
func (g *Game) exchange(initiator, partner int, in ActionInput) {
	from, to := g.players[initiator], g.players[partner]
	if to.IsHandEmpty() {
		g.say("%s has no cards; no swap happens.", to.Name)
		return
	}
	given, _ := from.RemoveAt(*in.GiveIndex)
	taken, _ := to.RemoveAt(*in.TakeIndex)
	to.AddCard(given)
	from.AddCard(taken)

	g.say("%s swapped a card with %s.", from.Name, to.Name)
	evt := g.event(rules.EventCardsSwapped, initiator)
	evt.TargetID = to.ID
	evt.Amount = 1
	g.publish(evt)
}

func (g *Game) resolveDiscardFromHand(p *DiscardFromHand, m Move) error {
	victim := g.players[p.Victim]
	want := min(p.Count, victim.HandSize())
	if len(m.Input.Indices) != want {
		return fmt.Errorf("%w: expected %d indices, got %d", ErrMissingInput, want, len(m.Input.Indices))
	}
	if err := victim.ValidateIndices(m.Input.Indices); err != nil {
		return err
	}

	g.begin()
	removed, _ := victim.RemoveIndices(m.Input.Indices)
	g.deck.BuryInDiscard(removed...)
	g.say("%s discarded %d card(s) from %s's hand.", g.name(p.Chooser), len(removed), victim.Name)
	evt := g.event(rules.EventCardsDiscarded, p.Victim)
	evt.TargetID = g.players[p.Chooser].ID
	evt.Amount = len(removed)
	g.publish(evt)

	if g.checkWin(p.Victim) {
		return nil
	}
	g.clearPending()
	g.advanceFrom(p.Victim, 1)
	return nil
}

func (g *Game) resolvePlayAnyDrawOne(p *PlayAnyDrawOne, m Move) error {
	if m.CardIndex == nil {
		return fmt.Errorf("%w: card index required", ErrMissingInput)
	}
	c, ok := g.players[p.Initiator].CardAt(*m.CardIndex)
	if !ok {
		return fmt.Errorf("%w: %d", ErrInvalidCardIndex, *m.CardIndex)
	}
	if err := validateChosenColor(m.Color); err != nil {
		return err
	}

	g.begin()
	if c.IsWild() && m.Color == cards.ColorNone {
		g.pending = nil
		g.openPending(&ColorForFreePlay{Initiator: p.Initiator, CardIndex: *m.CardIndex})
		g.say("%s must choose a color for %s.", g.name(p.Initiator), c)
		return nil
	}
	color := cards.ColorNone
	if c.IsWild() {
		color = m.Color
	}
	g.resolveFreePlay(p.Initiator, *m.CardIndex, color)
	return nil
}

// resolveFreePlay plays any card without matching. Only effects that need
// no further input run; the initiator then draws one.
func (g *Game) resolveFreePlay(initiator, idx int, color cards.Color) {
	p := g.players[initiator]
	c, _ := p.RemoveAt(idx)
	g.discard(initiator, c, rules.EventCardPlayed)
	g.say("%s freely played %s.", p.Name, c)
	if c.IsWild() {
		g.setActiveColor(initiator, color)
	}
	g.award(initiator, c, color)

	if g.checkWin(initiator) {
		return
	}

	skip := false
	list := effects.ForCard(c, effects.Context{
		ChosenColor:   color,
		HandSizeAfter: p.HandSize(),
		Players:       len(g.players),
	})
	for _, e := range list {
		switch e.Kind {
		case effects.KindWin:
			g.declareWinner(initiator)
			return
		case effects.KindChooseColor:
		case effects.KindDraw:
			target := g.turns.Relative(initiator, e.Offset)
			drawn := g.drawN(target, e.Amount)
			g.say("%s draws %d card(s).", g.name(target), drawn)
		case effects.KindDrawsFourUnlessLast:
			drawn := g.drawN(initiator, e.Amount)
			g.say("%s draws %d card(s).", p.Name, drawn)
		case effects.KindSkip:
			skip = true
		case effects.KindReverse:
			d := g.turns.Reverse()
			g.say("Direction reversed to %s.", d)
			evt := g.event(rules.EventDirectionReversed, initiator)
			evt.Data = d.String()
			g.publish(evt)
		case effects.KindTakeRandomFromPrevious:
			g.takeRandom(initiator, g.turns.Relative(initiator, e.Offset))
		case effects.KindNoOp:
		default:
			g.say("%s has no effect in a free play.", e.Kind)
		}
	}

	drawn := g.drawN(initiator, 1)
	g.say("%s draws %d card(s) after the free play.", p.Name, drawn)
	g.clearPending()
	steps := 1
	if skip {
		steps = 2
	}
	g.advanceFrom(initiator, steps)
}
