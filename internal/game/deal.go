package game

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/thraizz/uno-server-go/internal/game/cards"
	"github.com/thraizz/uno-server-go/internal/game/rules"
)

// Deal is an explicit starting position. Piles are listed bottom first.
// Together the hands and piles must hold the standard deck exactly once.
type Deal struct {
	Players     []PlayerOptions
	Hands       [][]cards.Card
	Draw        []cards.Card
	Discard     []cards.Card
	First       int
	ActiveColor cards.Color
}

// NewFromDeal starts a game from a prepared position instead of a shuffle.
func NewFromDeal(id string, d Deal, rng cards.Random, logger *zap.Logger) (*Game, error) {
	if rng == nil {
		return nil, fmt.Errorf("game requires a random source")
	}
	n := len(d.Players)
	if n < MinPlayers || n > MaxPlayers {
		return nil, fmt.Errorf("game requires %d-%d players, got %d", MinPlayers, MaxPlayers, n)
	}
	if len(d.Hands) != n {
		return nil, fmt.Errorf("deal has %d hands for %d players", len(d.Hands), n)
	}
	if d.First < 0 || d.First >= n {
		return nil, fmt.Errorf("first seat %d out of range", d.First)
	}
	if len(d.Discard) == 0 {
		return nil, fmt.Errorf("deal needs a discard top")
	}
	top := d.Discard[len(d.Discard)-1]
	if top.IsWild() != d.ActiveColor.Playable() {
		return nil, fmt.Errorf("active color %s does not fit top card %s", d.ActiveColor, top)
	}
	if err := checkDeckComplete(d); err != nil {
		return nil, err
	}
	if id == "" {
		id = uuid.NewString()
	}

	players := make([]*Player, n)
	for i, po := range d.Players {
		name := po.Name
		if name == "" {
			name = fmt.Sprintf("Player %d", i+1)
		}
		players[i] = NewPlayer(name, po.CPU)
		for _, c := range d.Hands[i] {
			players[i].AddCard(c)
		}
	}

	g := newGame(id, players, cards.NewDeckFromPiles(d.Draw, d.Discard, rng), d.First, rng, logger)
	g.activeColor = d.ActiveColor
	g.publish(rules.NewEvent(rules.EventGameStarted, g.id, players[d.First].ID, d.First))
	g.logger.Info("game started from deal",
		zap.String("game_id", g.id),
		zap.Int("players", n),
		zap.String("top_card", top.String()),
	)
	return g, nil
}

func checkDeckComplete(d Deal) error {
	counts := make(map[cards.Card]int, 54)
	for _, c := range cards.StandardCards() {
		counts[c]++
	}
	take := func(cs []cards.Card) error {
		for _, c := range cs {
			counts[c]--
			if counts[c] < 0 {
				return fmt.Errorf("deal holds too many %s", c)
			}
		}
		return nil
	}
	for _, h := range d.Hands {
		if err := take(h); err != nil {
			return err
		}
	}
	if err := take(d.Draw); err != nil {
		return err
	}
	if err := take(d.Discard); err != nil {
		return err
	}
	for c, left := range counts {
		if left != 0 {
			return fmt.Errorf("deal is missing %d %s", left, c)
		}
	}
	return nil
}
