// Package spells is the lunar and solar spell book. Casting pays the mana
// cost; the spells themselves do not alter play.
package spells

import (
	"errors"
	"fmt"
	"sort"

	"github.com/thraizz/uno-server-go/internal/game/counters"
)

var (
	ErrUnknownSpell     = errors.New("unknown spell")
	ErrInsufficientMana = errors.New("not enough mana")
	ErrTargetRequired   = errors.New("spell requires a target player")
)

// School is the mana a spell draws on.
type School string

const (
	SchoolLunar School = "LUNAR"
	SchoolSolar School = "SOLAR"
)

// Counter returns the counter paying for spells of the school.
func (s School) Counter() counters.CounterType {
	if s == SchoolSolar {
		return counters.CounterTypeSolarMana
	}
	return counters.CounterTypeLunarMana
}

// SpellID identifies a spell.
type SpellID string

const (
	MoonbeamDraw    SpellID = "moonbeam_draw"
	LunarShield     SpellID = "lunar_shield"
	ShadowSwapPeek  SpellID = "shadow_swap_peek"
	SunFlareDiscard SpellID = "sun_flare_discard"
	SolarBoost      SpellID = "solar_boost"
)

// Spell is one entry of the book.
type Spell struct {
	ID          SpellID `json:"id"`
	Name        string  `json:"name"`
	School      School  `json:"school"`
	Cost        int     `json:"cost"`
	Targeted    bool    `json:"targeted"`
	Description string  `json:"description"`
}

func (s Spell) String() string {
	target := ""
	if s.Targeted {
		target = " (Targetable)"
	}
	return fmt.Sprintf("%s%s (Cost: %d mana) - %s", s.Name, target, s.Cost, s.Description)
}

// Cast is the outcome of a successful cast.
type Cast struct {
	Spell   Spell  `json:"spell"`
	Target  *int   `json:"target,omitempty"`
	Message string `json:"message"`
}

// Book holds every known spell.
type Book struct {
	spells map[SpellID]Spell
}

// NewBook returns the standard spell book.
func NewBook() *Book {
	b := &Book{spells: make(map[SpellID]Spell)}
	for _, s := range []Spell{
		{ID: MoonbeamDraw, Name: "Moonbeam Draw", School: SchoolLunar, Cost: 3, Targeted: true,
			Description: "Force a target player to draw 1 card."},
		{ID: LunarShield, Name: "Lunar Shield", School: SchoolLunar, Cost: 5,
			Description: "Protect yourself from the next draw effect played against you."},
		{ID: ShadowSwapPeek, Name: "Shadow Swap Peek", School: SchoolLunar, Cost: 4, Targeted: true,
			Description: "Peek at one card from a target player's hand and optionally swap it."},
		{ID: SunFlareDiscard, Name: "Sun Flare Discard", School: SchoolSolar, Cost: 3, Targeted: true,
			Description: "Force a target player to discard a random card."},
		{ID: SolarBoost, Name: "Solar Boost", School: SchoolSolar, Cost: 4,
			Description: "Your next number card counts two higher."},
	} {
		b.spells[s.ID] = s
	}
	return b
}

// Spells lists the book, lunar first, then by cost.
func (b *Book) Spells() []Spell {
	out := make([]Spell, 0, len(b.spells))
	for _, s := range b.spells {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].School != out[j].School {
			return out[i].School == SchoolLunar
		}
		if out[i].Cost != out[j].Cost {
			return out[i].Cost < out[j].Cost
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// School lists the spells of one school.
func (b *Book) School(school School) []Spell {
	var out []Spell
	for _, s := range b.Spells() {
		if s.School == school {
			out = append(out, s)
		}
	}
	return out
}

// Cast pays for a spell from cs. Targeted spells need target.
func (b *Book) Cast(caster string, cs *counters.Counters, id SpellID, target *int) (Cast, error) {
	s, ok := b.spells[id]
	if !ok {
		return Cast{}, fmt.Errorf("%w: %q", ErrUnknownSpell, id)
	}
	if s.Targeted && target == nil {
		return Cast{}, fmt.Errorf("%w: %s", ErrTargetRequired, s.Name)
	}
	ct := s.School.Counter()
	if err := cs.Spend(ct, s.Cost); err != nil {
		return Cast{}, fmt.Errorf("%w: %s needs %d %s, have %d",
			ErrInsufficientMana, s.Name, s.Cost, ct, cs.Get(ct))
	}

	msg := fmt.Sprintf("%s casts %s (cost %d %s).", caster, s.Name, s.Cost, ct)
	if target != nil && s.Targeted {
		msg += fmt.Sprintf(" Targeting seat %d.", *target)
	}
	res := Cast{Spell: s, Message: msg}
	if s.Targeted {
		t := *target
		res.Target = &t
	}
	return res, nil
}
