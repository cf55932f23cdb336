package game

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/thraizz/uno-server-go/internal/game/cards"
	"github.com/thraizz/uno-server-go/internal/game/effects"
	"github.com/thraizz/uno-server-go/internal/game/rules"
)

// PlayOrResume is the single entry point for playing a card. With a pending
// action open the move is routed to that action's resolver only.
func (g *Game) PlayOrResume(actor int, m Move) (Result, error) {
	if g.over {
		return Result{}, ErrGameOver
	}
	if err := g.checkSeat(actor); err != nil {
		return Result{}, err
	}
	if g.pending != nil {
		return g.resume(actor, m)
	}
	if actor != g.turns.Current() {
		return Result{}, fmt.Errorf("%w: seat %d, current is %d", ErrNotYourTurn, actor, g.turns.Current())
	}
	return g.playFromHand(actor, m)
}

func (g *Game) playFromHand(actor int, m Move) (Result, error) {
	if m.CardIndex == nil {
		return Result{}, fmt.Errorf("%w: card index required", ErrInvalidCardIndex)
	}
	p := g.players[actor]
	c, ok := p.CardAt(*m.CardIndex)
	if !ok {
		return Result{}, fmt.Errorf("%w: %d (hand has %d cards)", ErrInvalidCardIndex, *m.CardIndex, p.HandSize())
	}
	if err := validateChosenColor(m.Color); err != nil {
		return Result{}, err
	}
	ok, err := cards.Matches(c, g.TopCard(), g.activeColor)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvariant, err)
	}
	if !ok {
		return Result{}, fmt.Errorf("%w: %s on %s", ErrIllegalPlay, c, g.describeTop())
	}

	g.begin()
	removed, _ := p.RemoveAt(*m.CardIndex)
	chosen := cards.ColorNone
	if removed.IsWild() {
		chosen = m.Color
	}
	g.commitPlay(actor, removed, chosen)
	return g.result(), nil
}

// validateChosenColor accepts ColorNone or one of the four suits.
func validateChosenColor(c cards.Color) error {
	if c == cards.ColorNone || c.Playable() {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidColor, c)
}

func (g *Game) describeTop() string {
	top := g.TopCard()
	if top.IsWild() && g.activeColor.Playable() {
		return fmt.Sprintf("%s (%s)", top, g.activeColor)
	}
	return top.String()
}

// commitPlay runs a card that has already left actor's hand through
// discard, duplicate rule, awards, effects and turn end.
func (g *Game) commitPlay(actor int, c cards.Card, chosen cards.Color) {
	p := g.players[actor]
	beneath := g.TopCard()

	g.discard(actor, c, rules.EventCardPlayed)
	g.say("%s played %s.", p.Name, c)
	g.logger.Debug("card played",
		zap.String("game_id", g.id),
		zap.Int("seat", actor),
		zap.String("card", c.String()),
		zap.Int("hand_size", p.HandSize()),
	)

	if !c.IsWild() && c == beneath {
		g.discardDuplicateTwos(actor)
	}
	g.award(actor, c, chosen)

	var list []effects.Effect
	if p.IsHandEmpty() {
		list = []effects.Effect{effects.Win()}
	} else {
		list = effects.ForCard(c, effects.Context{
			ChosenColor:   chosen,
			HandSizeAfter: p.HandSize(),
			Players:       len(g.players),
		})
	}
	g.runEffects(actor, list, false)
}

// discardDuplicateTwos sends every Two in hand to discard beneath the
// played card. The played card stays on top.
func (g *Game) discardDuplicateTwos(actor int) {
	p := g.players[actor]
	twos := p.RemoveRank(cards.RankTwo)
	if len(twos) == 0 {
		g.say("%s matched the card beneath but holds no Twos.", p.Name)
		return
	}
	g.deck.BuryInDiscard(twos...)
	g.say("%s played a duplicate and discarded %d Two(s).", p.Name, len(twos))
	evt := g.event(rules.EventCardsDiscarded, actor)
	evt.Amount = len(twos)
	evt.Data = "duplicate"
	g.publish(evt)
}

// runEffects processes list in order on behalf of actor and ends the turn
// unless the game ended or an effect suspended.
func (g *Game) runEffects(actor int, list []effects.Effect, skip bool) {
	revealed := false
	blocked := false

	for i := 0; i < len(list); i++ {
		e := list[i]
		if e.Kind.NeedsInput() {
			g.suspendFor(actor, e)
			return
		}
		switch e.Kind {
		case effects.KindWin:
			g.declareWinner(actor)
			return

		case effects.KindChooseColor:
			if e.Color.Playable() {
				g.setActiveColor(actor, e.Color)
				continue
			}
			g.openPending(&ColorForWild{
				Chooser:   actor,
				Remaining: append([]effects.Effect(nil), list[i+1:]...),
				Skip:      skip,
				Source:    g.TopCard(),
			})
			g.say("%s must choose a color.", g.name(actor))
			return

		case effects.KindDraw:
			target := g.turns.Relative(actor, e.Offset)
			drawn := g.drawN(target, e.Amount)
			g.say("%s draws %d card(s).", g.name(target), drawn)

		case effects.KindDrawsFourUnlessLast:
			drawn := g.drawN(actor, e.Amount)
			g.say("%s draws %d card(s) from %s.", g.name(actor), drawn, g.TopCard())

		case effects.KindSkip:
			skip = true

		case effects.KindReverse:
			d := g.turns.Reverse()
			g.say("Direction reversed to %s.", d)
			evt := g.event(rules.EventDirectionReversed, actor)
			evt.Data = d.String()
			g.publish(evt)

		case effects.KindTakeRandomFromPrevious:
			g.takeRandom(actor, g.turns.Relative(actor, e.Offset))

		case effects.KindRevealTopOfDraw:
			spliced, ok := g.revealTop(actor)
			if !ok {
				continue
			}
			revealed = true
			if effects.BlocksContinuation(spliced) {
				blocked = true
			}
			rest := append(spliced, list[i+1:]...)
			list = append(list[:i+1], rest...)

		case effects.KindNoOp:
			if e.Message != "" {
				g.say("%s", e.Message)
			}
		}
	}

	g.finishTurn(actor, skip, revealed && !blocked)
}

// suspendFor opens the pending action for an effect that needs input.
func (g *Game) suspendFor(actor int, e effects.Effect) {
	switch e.Kind {
	case effects.KindSwapRight:
		g.openPending(&SwapRight{Initiator: actor})
		g.say("%s must swap a card with %s.", g.name(actor), g.name(g.turns.Next(actor)))

	case effects.KindSwapAny:
		g.openPending(&SwapAny{Initiator: actor})
		g.say("%s must pick a player to swap with.", g.name(actor))

	case effects.KindDiscardFromHand:
		chooser := g.turns.Relative(actor, e.Offset)
		g.openPending(&DiscardFromHand{Chooser: chooser, Victim: actor, Count: e.Amount})
		g.say("%s picks %d card(s) for %s to discard.", g.name(chooser), e.Amount, g.name(actor))

	case effects.KindPlayAnyDrawOne:
		g.openPending(&PlayAnyDrawOne{Initiator: actor})
		g.say("%s may play any card, then draws one.", g.name(actor))
	}
}

// takeRandom moves a uniform random card from victim's hand to actor's.
func (g *Game) takeRandom(actor, victim int) {
	from := g.players[victim]
	if from.IsHandEmpty() {
		g.say("%s has no cards to take.", from.Name)
		return
	}
	c, _ := from.RemoveAt(g.rng.IntN(from.HandSize()))
	g.players[actor].AddCard(c)
	g.say("%s took a card from %s.", g.name(actor), from.Name)
	evt := g.event(rules.EventCardStolen, actor)
	evt.TargetID = from.ID
	evt.Amount = 1
	g.publish(evt)
}

// revealTop moves the top of the draw pile onto discard and returns its
// effects. It reports false when nothing could be revealed.
func (g *Game) revealTop(actor int) ([]effects.Effect, bool) {
	if !g.ensureDrawable(actor) {
		g.say("No card to reveal from the draw pile.")
		return nil, false
	}
	c, _ := g.deck.Draw()
	g.discard(actor, c, rules.EventCardRevealed)
	g.say("%s revealed %s onto the discard pile.", g.name(actor), c)

	return effects.ForCard(c, effects.Context{
		ChosenColor:   cards.ColorNone,
		HandSizeAfter: g.players[actor].HandSize(),
		Players:       len(g.players),
	}), true
}

// finishTurn either keeps the turn with actor or advances past it.
func (g *Game) finishTurn(actor int, skip, continuable bool) {
	if g.over || g.pending != nil {
		return
	}
	if continuable && g.players[actor].HasPlayable(g.TopCard(), g.activeColor) {
		g.continued = true
		g.turns.SetCurrent(actor)
		g.say("%s plays again.", g.name(actor))
		return
	}
	steps := 1
	if skip {
		steps = 2
	}
	g.advanceFrom(actor, steps)
}
