package game

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/thraizz/uno-server-go/internal/game/cards"
	"github.com/thraizz/uno-server-go/internal/game/counters"
)

// Player is one seat: an ordered hand, resource counters and at most one
// jailed Yellow-Four.
type Player struct {
	ID       string
	Name     string
	CPU      bool
	Counters *counters.Counters

	hand []cards.Card
	jail *cards.Card
}

// NewPlayer creates a player with a fresh id and an empty hand.
func NewPlayer(name string, cpu bool) *Player {
	return &Player{
		ID:       uuid.NewString(),
		Name:     name,
		CPU:      cpu,
		Counters: counters.NewCounters(),
	}
}

// Hand returns a copy of the hand in order.
func (p *Player) Hand() []cards.Card {
	return append([]cards.Card(nil), p.hand...)
}

// HandSize returns the number of cards in hand.
func (p *Player) HandSize() int {
	return len(p.hand)
}

// IsHandEmpty reports whether the hand is empty.
func (p *Player) IsHandEmpty() bool {
	return len(p.hand) == 0
}

// CardAt returns the card at index i.
func (p *Player) CardAt(i int) (cards.Card, bool) {
	if i < 0 || i >= len(p.hand) {
		return cards.Card{}, false
	}
	return p.hand[i], true
}

// AddCard appends a card to the hand.
func (p *Player) AddCard(c cards.Card) {
	p.hand = append(p.hand, c)
}

// RemoveAt removes the card at index i, keeping the order of the rest.
func (p *Player) RemoveAt(i int) (cards.Card, error) {
	if i < 0 || i >= len(p.hand) {
		return cards.Card{}, fmt.Errorf("%w: %d (hand has %d cards)", ErrInvalidCardIndex, i, len(p.hand))
	}
	c := p.hand[i]
	p.hand = append(p.hand[:i], p.hand[i+1:]...)
	return c, nil
}

// ValidateIndices checks that idx holds distinct in-range hand indices.
func (p *Player) ValidateIndices(idx []int) error {
	seen := make(map[int]bool, len(idx))
	for _, i := range idx {
		if i < 0 || i >= len(p.hand) {
			return fmt.Errorf("%w: %d (hand has %d cards)", ErrInvalidCardIndex, i, len(p.hand))
		}
		if seen[i] {
			return fmt.Errorf("%w: %d given twice", ErrInvalidCardIndex, i)
		}
		seen[i] = true
	}
	return nil
}

// RemoveIndices removes every listed index, highest first, and returns the
// removed cards in that order.
func (p *Player) RemoveIndices(idx []int) ([]cards.Card, error) {
	if err := p.ValidateIndices(idx); err != nil {
		return nil, err
	}
	sorted := append([]int(nil), idx...)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))

	removed := make([]cards.Card, 0, len(sorted))
	for _, i := range sorted {
		c, _ := p.RemoveAt(i)
		removed = append(removed, c)
	}
	return removed, nil
}

// RemoveRank removes every card of rank r, in hand order, and returns them.
func (p *Player) RemoveRank(r cards.Rank) []cards.Card {
	var removed []cards.Card
	kept := p.hand[:0]
	for _, c := range p.hand {
		if c.Rank() == r {
			removed = append(removed, c)
			continue
		}
		kept = append(kept, c)
	}
	p.hand = kept
	return removed
}

// Jail returns the stored Yellow-Four, if any.
func (p *Player) Jail() (cards.Card, bool) {
	if p.jail == nil {
		return cards.Card{}, false
	}
	return *p.jail, true
}

// HasJailCard reports whether a Yellow-Four is stored.
func (p *Player) HasJailCard() bool {
	return p.jail != nil
}

// StoreJail sets c aside as the jail card.
func (p *Player) StoreJail(c cards.Card) error {
	if !c.Is(cards.ColorYellow, cards.RankFour) {
		return fmt.Errorf("%w: got %s", ErrNotJailCard, c)
	}
	if p.jail != nil {
		return ErrJailOccupied
	}
	p.jail = &c
	return nil
}

// ReleaseJail returns and clears the jail card.
func (p *Player) ReleaseJail() (cards.Card, bool) {
	if p.jail == nil {
		return cards.Card{}, false
	}
	c := *p.jail
	p.jail = nil
	return c, true
}

// PlayableIndices lists hand indices that match the discard top.
func (p *Player) PlayableIndices(top cards.Card, active cards.Color) []int {
	var out []int
	for i, c := range p.hand {
		if ok, err := cards.Matches(c, top, active); err == nil && ok {
			out = append(out, i)
		}
	}
	return out
}

// HasPlayable reports whether any card in hand matches the discard top.
func (p *Player) HasPlayable(top cards.Card, active cards.Color) bool {
	for _, c := range p.hand {
		if ok, err := cards.Matches(c, top, active); err == nil && ok {
			return true
		}
	}
	return false
}

// CardCount returns hand plus jail cards held by the player.
func (p *Player) CardCount() int {
	if p.jail != nil {
		return len(p.hand) + 1
	}
	return len(p.hand)
}
