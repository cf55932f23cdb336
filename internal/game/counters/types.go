package counters

import "github.com/thraizz/uno-server-go/internal/game/cards"

// CounterType represents one of the player resource counters.
type CounterType string

const (
	CounterTypeCoin         CounterType = "coin"
	CounterTypeShuffleToken CounterType = "shuffle_token"
	CounterTypeLunarMana    CounterType = "lunar_mana"
	CounterTypeSolarMana    CounterType = "solar_mana"
)

// AllTypes lists every counter type in display order.
var AllTypes = []CounterType{
	CounterTypeCoin,
	CounterTypeShuffleToken,
	CounterTypeLunarMana,
	CounterTypeSolarMana,
}

// String returns the string representation of the counter type.
func (ct CounterType) String() string {
	return string(ct)
}

// Valid reports whether ct is a known counter type.
func (ct CounterType) Valid() bool {
	for _, t := range AllTypes {
		if t == ct {
			return true
		}
	}
	return false
}

var colorAwards = map[cards.Color]CounterType{
	cards.ColorRed:    CounterTypeSolarMana,
	cards.ColorYellow: CounterTypeCoin,
	cards.ColorGreen:  CounterTypeShuffleToken,
	cards.ColorBlue:   CounterTypeLunarMana,
}

// AwardFor returns the counter a card of the given color earns when played.
// The wild color earns nothing.
func AwardFor(color cards.Color) (CounterType, bool) {
	ct, ok := colorAwards[color]
	return ct, ok
}
