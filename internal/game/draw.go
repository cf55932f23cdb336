package game

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/thraizz/uno-server-go/internal/game/cards"
	"github.com/thraizz/uno-server-go/internal/game/counters"
	"github.com/thraizz/uno-server-go/internal/game/rules"
)

// ensureDrawable makes a card available on the draw pile for seat. An empty
// draw pile is refilled from discard at the cost of one shuffle token.
func (g *Game) ensureDrawable(seat int) bool {
	if g.deck.DrawSize() > 0 {
		return true
	}
	if !g.deck.NeedsReshuffle() {
		return false
	}
	p := g.players[seat]
	if err := g.counterOps.Spend(g.owner(seat), p.Counters, counters.CounterTypeShuffleToken, 1); err != nil {
		g.say("%s has no shuffle token to reshuffle the discard pile.", p.Name)
		return false
	}
	if !g.deck.ReshuffleFromDiscard(true) {
		return false
	}
	g.say("%s spent a shuffle token to reshuffle the discard pile.", p.Name)
	evt := g.event(rules.EventDeckReshuffled, seat)
	evt.Amount = g.deck.DrawSize()
	g.publish(evt)
	g.logger.Debug("deck reshuffled",
		zap.String("game_id", g.id),
		zap.Int("seat", seat),
		zap.Int("draw_size", g.deck.DrawSize()),
	)
	return true
}

// drawN draws up to n cards for seat and returns how many it got. Drawing
// stops quietly once no more cards can be made available.
func (g *Game) drawN(seat, n int) int {
	p := g.players[seat]
	drawn := 0
	for drawn < n {
		if !g.ensureDrawable(seat) {
			break
		}
		c, ok := g.deck.Draw()
		if !ok {
			break
		}
		p.AddCard(c)
		drawn++
	}
	if drawn < n {
		g.say("%s could only draw %d of %d card(s).", p.Name, drawn, n)
	}
	if drawn > 0 {
		g.publish(rules.NewEventWithAmount(rules.EventCardsDrawn, g.id, p.ID, seat, drawn))
	}
	return drawn
}

func (g *Game) checkTurn(actor int) error {
	if g.over {
		return ErrGameOver
	}
	if err := g.checkSeat(actor); err != nil {
		return err
	}
	if actor != g.turns.Current() {
		return fmt.Errorf("%w: seat %d, current is %d", ErrNotYourTurn, actor, g.turns.Current())
	}
	if g.pending != nil {
		return fmt.Errorf("%w: %s", ErrPendingOpen, g.pending.Kind())
	}
	return nil
}

// CannotPlay is called by a player with no card to play. A matching jail
// card is played first; otherwise one card is drawn and auto-played when
// legal.
func (g *Game) CannotPlay(actor int) (Result, error) {
	if err := g.checkTurn(actor); err != nil {
		return Result{}, err
	}
	top := g.TopCard()
	p := g.players[actor]

	if jail, ok := p.Jail(); ok {
		match, err := cards.Matches(jail, top, g.activeColor)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrInvariant, err)
		}
		if match {
			g.begin()
			g.playJail(actor)
			return g.result(), nil
		}
	}

	g.begin()
	g.say("%s cannot play and draws a card.", p.Name)
	if g.drawN(actor, 1) == 0 {
		g.say("No card could be drawn. Turn passes.")
		g.advanceFrom(actor, 1)
		return g.result(), nil
	}

	idx := p.HandSize() - 1
	drawn, _ := p.CardAt(idx)
	match, err := cards.Matches(drawn, g.TopCard(), g.activeColor)
	if err != nil {
		g.logger.Error("match check failed after draw",
			zap.String("game_id", g.id),
			zap.Error(err),
		)
		g.advanceFrom(actor, 1)
		return g.result(), fmt.Errorf("%w: %v", ErrInvariant, err)
	}
	if !match {
		g.say("%s cannot play the drawn card. Turn passes.", p.Name)
		g.advanceFrom(actor, 1)
		return g.result(), nil
	}

	color := cards.ColorNone
	if drawn.IsWild() {
		color = cards.PlayableColors[g.rng.IntN(len(cards.PlayableColors))]
	}
	g.say("%s plays the drawn card.", p.Name)
	removed, _ := p.RemoveAt(idx)
	g.commitPlay(actor, removed, color)
	return g.result(), nil
}

// playJail plays the stored Yellow-Four. It has no effects and ends the turn.
func (g *Game) playJail(actor int) {
	p := g.players[actor]
	c, _ := p.ReleaseJail()
	g.discard(actor, c, rules.EventJailPlayed)
	g.say("%s played the jailed %s.", p.Name, c)
	g.award(actor, c, cards.ColorNone)
	if g.checkWin(actor) {
		return
	}
	g.advanceFrom(actor, 1)
}

// StoreJail sets a Yellow-Four from hand aside as the jail card. It is a
// free action and does not end the turn.
func (g *Game) StoreJail(actor, idx int) (Result, error) {
	if err := g.checkTurn(actor); err != nil {
		return Result{}, err
	}
	p := g.players[actor]
	c, ok := p.CardAt(idx)
	if !ok {
		return Result{}, fmt.Errorf("%w: %d (hand has %d cards)", ErrInvalidCardIndex, idx, p.HandSize())
	}
	if !c.Is(cards.ColorYellow, cards.RankFour) {
		return Result{}, fmt.Errorf("%w: got %s", ErrNotJailCard, c)
	}
	if p.HasJailCard() {
		return Result{}, ErrJailOccupied
	}
	if p.HandSize() == 1 {
		return Result{}, fmt.Errorf("%w: the last card in hand cannot be jailed", ErrIllegalPlay)
	}

	g.begin()
	removed, _ := p.RemoveAt(idx)
	if err := p.StoreJail(removed); err != nil {
		p.AddCard(removed)
		return Result{}, fmt.Errorf("%w: %v", ErrInvariant, err)
	}
	g.say("%s jailed %s.", p.Name, removed)
	evt := g.event(rules.EventJailStored, actor)
	evt.Card = removed.String()
	g.publish(evt)
	g.continued = true
	return g.result(), nil
}
