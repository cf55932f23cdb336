package game

import (
	"github.com/thraizz/uno-server-go/internal/game/cards"
	"github.com/thraizz/uno-server-go/internal/game/rules"
)

// RevealAll makes Snapshot include every hand.
const RevealAll = -1

// CardView is the wire form of a card.
type CardView struct {
	Color string `json:"color"`
	Rank  string `json:"rank"`
	Name  string `json:"name"`
}

// NewCardView renders c.
func NewCardView(c cards.Card) CardView {
	return CardView{Color: c.Color().String(), Rank: c.Rank().String(), Name: c.String()}
}

// PendingView describes an open pending action. Victim and Target are -1
// when they do not apply.
type PendingView struct {
	Kind          PendingKind `json:"kind"`
	Actor         int         `json:"actor"`
	Victim        int         `json:"victim"`
	Target        int         `json:"target"`
	TargetChosen  bool        `json:"target_chosen"`
	Count         int         `json:"count"`
	FreePlayIndex int         `json:"free_play_index"`
	Source        string      `json:"source,omitempty"`
}

// PlayerView is one seat as shown to a viewer.
type PlayerView struct {
	Seat     int            `json:"seat"`
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	CPU      bool           `json:"cpu"`
	HandSize int            `json:"hand_size"`
	Counters map[string]int `json:"counters"`
	Jail     *CardView      `json:"jail,omitempty"`
	Hand     []CardView     `json:"hand,omitempty"`
}

// Snapshot is a read-only view of a game.
type Snapshot struct {
	GameID        string       `json:"game_id"`
	Turn          int          `json:"turn"`
	TopCard       CardView     `json:"top_card"`
	ActiveColor   string       `json:"active_color"`
	CurrentPlayer int          `json:"current_player"`
	ExpectedActor int          `json:"expected_actor"`
	Direction     int          `json:"direction"`
	DrawSize      int          `json:"draw_size"`
	DiscardSize   int          `json:"discard_size"`
	Pending       *PendingView `json:"pending,omitempty"`
	Over          bool         `json:"over"`
	Winner        int          `json:"winner"`
	Players       []PlayerView `json:"players"`
}

// Snapshot returns the game as seen from viewer. Only the viewer's own
// hand is included, or all hands for RevealAll.
func (g *Game) Snapshot(viewer int) Snapshot {
	s := Snapshot{
		GameID:        g.id,
		Turn:          g.turns.TurnNumber(),
		TopCard:       NewCardView(g.TopCard()),
		ActiveColor:   g.activeColor.String(),
		CurrentPlayer: g.turns.Current(),
		ExpectedActor: g.ExpectedActor(),
		Direction:     int(g.turns.Direction()),
		DrawSize:      g.deck.DrawSize(),
		DiscardSize:   g.deck.DiscardSize(),
		Pending:       g.pendingView(),
		Over:          g.over,
		Winner:        g.winner,
		Players:       make([]PlayerView, len(g.players)),
	}
	for i, p := range g.players {
		pv := PlayerView{
			Seat:     i,
			ID:       p.ID,
			Name:     p.Name,
			CPU:      p.CPU,
			HandSize: p.HandSize(),
			Counters: p.Counters.Snapshot(),
		}
		if jail, ok := p.Jail(); ok {
			jv := NewCardView(jail)
			pv.Jail = &jv
		}
		if viewer == RevealAll || viewer == i {
			pv.Hand = make([]CardView, 0, p.HandSize())
			for _, c := range p.hand {
				pv.Hand = append(pv.Hand, NewCardView(c))
			}
		}
		s.Players[i] = pv
	}
	return s
}

func (g *Game) pendingView() *PendingView {
	if g.pending == nil {
		return nil
	}
	v := &PendingView{
		Kind:          g.pending.Kind(),
		Actor:         g.pending.Actor(),
		Victim:        -1,
		Target:        -1,
		FreePlayIndex: -1,
	}
	switch p := g.pending.(type) {
	case *SwapRight:
		v.Target = g.turns.Next(p.Initiator)
		v.TargetChosen = true
	case *SwapAny:
		if p.TargetChosen {
			v.Target = p.Target
			v.TargetChosen = true
		}
	case *DiscardFromHand:
		v.Victim = p.Victim
		v.Count = min(p.Count, g.players[p.Victim].HandSize())
	case *ColorForWild:
		v.Source = p.Source.String()
	case *ColorForFreePlay:
		v.FreePlayIndex = p.CardIndex
	}
	return v
}

// Observation is what a CPU seat sees when deciding.
type Observation struct {
	Seat          int
	Hand          []cards.Card
	TopCard       cards.Card
	ActiveColor   cards.Color
	Pending       Pending
	HandSizes     []int
	CurrentPlayer int
	Direction     rules.Direction
	HasJailCard   bool
	// Playable lists hand indices that match the discard top.
	Playable []int
}

// Observe builds the observation for seat.
func (g *Game) Observe(seat int) Observation {
	o := Observation{
		Seat:          seat,
		TopCard:       g.TopCard(),
		ActiveColor:   g.activeColor,
		Pending:       g.pending,
		HandSizes:     make([]int, len(g.players)),
		CurrentPlayer: g.turns.Current(),
		Direction:     g.turns.Direction(),
	}
	for i, p := range g.players {
		o.HandSizes[i] = p.HandSize()
	}
	if p := g.Player(seat); p != nil {
		o.Hand = p.Hand()
		o.HasJailCard = p.HasJailCard()
		o.Playable = p.PlayableIndices(o.TopCard, o.ActiveColor)
	}
	return o
}

// NextSeat returns the seat one step along the direction from seat.
func (o Observation) NextSeat(seat int) int {
	n := len(o.HandSizes)
	return ((seat+int(o.Direction))%n + n) % n
}
