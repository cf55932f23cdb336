// Package shop sells items for coins. Items other than the shuffle token
// are recorded as bought but change nothing in play.
package shop

import (
	"errors"
	"fmt"
	"sort"

	"github.com/thraizz/uno-server-go/internal/game/counters"
)

var (
	ErrUnknownItem       = errors.New("unknown shop item")
	ErrInsufficientCoins = errors.New("not enough coins")
)

// ItemID identifies a shop item.
type ItemID string

const (
	ItemDrawOneLess      ItemID = "draw_one_less"
	ItemGainShuffleToken ItemID = "gain_shuffle_token"
	ItemPeekHand         ItemID = "peek_hand"
)

// Item is one catalogue entry.
type Item struct {
	ID          ItemID `json:"id"`
	Name        string `json:"name"`
	Cost        int    `json:"cost"`
	Description string `json:"description"`
}

func (i Item) String() string {
	return fmt.Sprintf("%s (Cost: %d coins) - %s", i.Name, i.Cost, i.Description)
}

// Receipt describes a completed purchase.
type Receipt struct {
	Item    Item   `json:"item"`
	Message string `json:"message"`
}

// Shop is the fixed item catalogue.
type Shop struct {
	items map[ItemID]Item
}

// New returns the standard shop.
func New() *Shop {
	s := &Shop{items: make(map[ItemID]Item)}
	for _, it := range []Item{
		{
			ID:          ItemDrawOneLess,
			Name:        "Lucky Charm",
			Cost:        5,
			Description: "Next time you are forced to draw several cards, draw one less.",
		},
		{
			ID:          ItemGainShuffleToken,
			Name:        "Shuffle Token",
			Cost:        3,
			Description: "Gain an extra shuffle token.",
		},
		{
			ID:          ItemPeekHand,
			Name:        "Spyglass",
			Cost:        7,
			Description: "Peek at a few cards from one opponent's hand.",
		},
	} {
		s.items[it.ID] = it
	}
	return s
}

// Items lists the catalogue ordered by cost.
func (s *Shop) Items() []Item {
	out := make([]Item, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Cost != out[j].Cost {
			return out[i].Cost < out[j].Cost
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Item looks up one entry.
func (s *Shop) Item(id ItemID) (Item, bool) {
	it, ok := s.items[id]
	return it, ok
}

// Purchase spends coins from cs on the item. The shuffle token is granted
// at once.
func (s *Shop) Purchase(buyer string, cs *counters.Counters, id ItemID) (Receipt, error) {
	it, ok := s.items[id]
	if !ok {
		return Receipt{}, fmt.Errorf("%w: %q", ErrUnknownItem, id)
	}
	if err := cs.Spend(counters.CounterTypeCoin, it.Cost); err != nil {
		return Receipt{}, fmt.Errorf("%w: %s costs %d, have %d",
			ErrInsufficientCoins, it.Name, it.Cost, cs.Get(counters.CounterTypeCoin))
	}

	msg := fmt.Sprintf("%s purchased %s for %d coins.", buyer, it.Name, it.Cost)
	if id == ItemGainShuffleToken {
		cs.Add(counters.CounterTypeShuffleToken, 1)
		msg += fmt.Sprintf(" Gained 1 shuffle token (Total: %d).", cs.Get(counters.CounterTypeShuffleToken))
	}
	return Receipt{Item: it, Message: msg}, nil
}
