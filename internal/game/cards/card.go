package cards

import (
	"errors"
	"fmt"
	"strings"
)

// Color identifies a card suit or the wild marker.
type Color int

const (
	// ColorNone means no color has been chosen.
	ColorNone Color = iota
	ColorRed
	ColorYellow
	ColorGreen
	ColorBlue
	ColorWild
)

var colorNames = map[Color]string{
	ColorNone:   "NONE",
	ColorRed:    "RED",
	ColorYellow: "YELLOW",
	ColorGreen:  "GREEN",
	ColorBlue:   "BLUE",
	ColorWild:   "WILD",
}

func (c Color) String() string {
	if name, ok := colorNames[c]; ok {
		return name
	}
	return fmt.Sprintf("COLOR_%d", int(c))
}

// Playable reports whether c is one of the four suits a wild can take.
func (c Color) Playable() bool {
	return c >= ColorRed && c <= ColorBlue
}

// PlayableColors lists the four suits in deck order.
var PlayableColors = []Color{ColorRed, ColorYellow, ColorGreen, ColorBlue}

// ParseColor converts a case-insensitive color name. Empty input yields ColorNone.
func ParseColor(s string) (Color, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if name == "" {
		return ColorNone, nil
	}
	for c, n := range colorNames {
		if n == name {
			return c, nil
		}
	}
	return ColorNone, fmt.Errorf("unknown color %q", s)
}

// Rank is a card's face value or action identity.
type Rank int

const (
	RankZero Rank = iota
	RankOne
	RankTwo
	RankThree
	RankFour
	RankFive
	RankSix
	RankSeven
	RankEight
	RankNine
	RankDrawTwo
	RankSkip
	RankReverse
	RankWild
	RankWildDrawFour
)

var rankNames = map[Rank]string{
	RankZero:         "ZERO",
	RankOne:          "ONE",
	RankTwo:          "TWO",
	RankThree:        "THREE",
	RankFour:         "FOUR",
	RankFive:         "FIVE",
	RankSix:          "SIX",
	RankSeven:        "SEVEN",
	RankEight:        "EIGHT",
	RankNine:         "NINE",
	RankDrawTwo:      "DRAW_TWO",
	RankSkip:         "SKIP",
	RankReverse:      "REVERSE",
	RankWild:         "WILD",
	RankWildDrawFour: "WILD_DRAW_FOUR",
}

func (r Rank) String() string {
	if name, ok := rankNames[r]; ok {
		return name
	}
	return fmt.Sprintf("RANK_%d", int(r))
}

// IsWild reports whether the rank is Wild or Wild-Draw-Four.
func (r Rank) IsWild() bool {
	return r == RankWild || r == RankWildDrawFour
}

// ErrWildColorMismatch is returned when a non-wild rank is given the wild color.
var ErrWildColorMismatch = errors.New("non-wild rank cannot carry the wild color")

// ErrNoActiveColor is returned by Matches when the discard top is wild and no color is in force.
var ErrNoActiveColor = errors.New("wild top card requires an active color")

// Card is an immutable rank/color pair.
type Card struct {
	color Color
	rank  Rank
}

// New builds a card. Wild ranks are always forced to ColorWild.
func New(color Color, rank Rank) (Card, error) {
	if rank < RankZero || rank > RankWildDrawFour {
		return Card{}, fmt.Errorf("invalid rank %d", int(rank))
	}
	if rank.IsWild() {
		return Card{color: ColorWild, rank: rank}, nil
	}
	if color == ColorWild {
		return Card{}, fmt.Errorf("%w: %s", ErrWildColorMismatch, rank)
	}
	if !color.Playable() {
		return Card{}, fmt.Errorf("invalid color %s for rank %s", color, rank)
	}
	return Card{color: color, rank: rank}, nil
}

// MustNew is New for statically known cards.
func MustNew(color Color, rank Rank) Card {
	c, err := New(color, rank)
	if err != nil {
		panic(err)
	}
	return c
}

// Color returns the printed color.
func (c Card) Color() Color { return c.color }

// Rank returns the card's rank.
func (c Card) Rank() Rank { return c.rank }

// IsWild reports whether the card is a wild.
func (c Card) IsWild() bool { return c.rank.IsWild() }

// Is reports whether the card has the given color and rank.
func (c Card) Is(color Color, rank Rank) bool {
	return c.color == color && c.rank == rank
}

// String renders cards as "RED FIVE", "WILD" or "WILD DRAW FOUR".
func (c Card) String() string {
	if c.IsWild() {
		return strings.ReplaceAll(c.rank.String(), "_", " ")
	}
	return c.color.String() + " " + strings.ReplaceAll(c.rank.String(), "_", " ")
}

// Matches reports whether candidate may be played on top.
// A wild candidate always matches. On a wild top only activeColor counts.
func Matches(candidate, top Card, activeColor Color) (bool, error) {
	if candidate.IsWild() {
		return true, nil
	}
	if top.IsWild() {
		if !activeColor.Playable() {
			return false, ErrNoActiveColor
		}
		return candidate.color == activeColor, nil
	}
	return candidate.color == top.color || candidate.rank == top.rank, nil
}
