// Package ai holds the CPU seat policy.
package ai

import (
	"errors"
	"fmt"

	"github.com/thraizz/uno-server-go/internal/game"
	"github.com/thraizz/uno-server-go/internal/game/cards"
)

// DecisionKind says which engine call a decision maps to.
type DecisionKind string

const (
	// DecisionNone means the seat has nothing to do right now.
	DecisionNone DecisionKind = "NONE"
	// DecisionPlay plays a card from hand.
	DecisionPlay DecisionKind = "PLAY"
	// DecisionResolve answers the open pending action.
	DecisionResolve DecisionKind = "RESOLVE"
	// DecisionDraw declares that no card can be played.
	DecisionDraw DecisionKind = "DRAW"
)

// ErrNoDecision is returned by Apply for a DecisionNone.
var ErrNoDecision = errors.New("no decision to apply")

// Decision is a policy's answer for one step.
type Decision struct {
	Kind DecisionKind
	Move game.Move
}

// Policy picks the next step for a seat from what that seat can observe.
type Policy interface {
	Decide(o game.Observation) Decision
}

// RandomPolicy plays the first legal card and makes every other choice
// uniformly at random.
type RandomPolicy struct {
	rng cards.Random
}

// NewRandomPolicy creates a policy drawing from rng.
func NewRandomPolicy(rng cards.Random) *RandomPolicy {
	return &RandomPolicy{rng: rng}
}

// Decide implements Policy.
func (p *RandomPolicy) Decide(o game.Observation) Decision {
	if o.Pending != nil {
		if o.Pending.Actor() != o.Seat {
			return Decision{Kind: DecisionNone}
		}
		return Decision{Kind: DecisionResolve, Move: p.resolve(o)}
	}
	if o.CurrentPlayer != o.Seat {
		return Decision{Kind: DecisionNone}
	}

	if len(o.Playable) == 0 {
		return Decision{Kind: DecisionDraw}
	}
	i := o.Playable[0]
	m := game.Move{CardIndex: game.Index(i)}
	if o.Hand[i].IsWild() {
		m.Color = p.color()
	}
	return Decision{Kind: DecisionPlay, Move: m}
}

func (p *RandomPolicy) resolve(o game.Observation) game.Move {
	switch pend := o.Pending.(type) {
	case *game.ColorForWild, *game.ColorForFreePlay:
		return game.Move{Color: p.color()}

	case *game.SwapRight:
		return game.Move{Input: p.swap(o, o.NextSeat(pend.Initiator))}

	case *game.SwapAny:
		if !pend.TargetChosen {
			target := p.rng.IntN(len(o.HandSizes) - 1)
			if target >= o.Seat {
				target++
			}
			return game.Move{Input: game.ActionInput{TargetPlayer: game.Index(target)}}
		}
		return game.Move{Input: p.swap(o, pend.Target)}

	case *game.DiscardFromHand:
		size := o.HandSizes[pend.Victim]
		return game.Move{Input: game.ActionInput{Indices: p.distinct(min(pend.Count, size), size)}}

	case *game.PlayAnyDrawOne:
		if len(o.Hand) == 0 {
			return game.Move{}
		}
		i := p.rng.IntN(len(o.Hand))
		m := game.Move{CardIndex: game.Index(i)}
		if o.Hand[i].IsWild() {
			m.Color = p.color()
		}
		return m
	}
	return game.Move{}
}

func (p *RandomPolicy) color() cards.Color {
	return cards.PlayableColors[p.rng.IntN(len(cards.PlayableColors))]
}

func (p *RandomPolicy) swap(o game.Observation, partner int) game.ActionInput {
	if o.HandSizes[partner] == 0 || len(o.Hand) == 0 {
		return game.ActionInput{}
	}
	return game.ActionInput{
		GiveIndex: game.Index(p.rng.IntN(len(o.Hand))),
		TakeIndex: game.Index(p.rng.IntN(o.HandSizes[partner])),
	}
}

// distinct picks k different indices below n.
func (p *RandomPolicy) distinct(k, n int) []int {
	pool := make([]int, n)
	for i := range pool {
		pool[i] = i
	}
	for i := 0; i < k; i++ {
		j := i + p.rng.IntN(n-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k]
}

// Apply forwards a decision for seat to the engine.
func Apply(g *game.Game, seat int, d Decision) (game.Result, error) {
	switch d.Kind {
	case DecisionPlay, DecisionResolve:
		return g.PlayOrResume(seat, d.Move)
	case DecisionDraw:
		return g.CannotPlay(seat)
	case DecisionNone:
		return game.Result{}, ErrNoDecision
	default:
		return game.Result{}, fmt.Errorf("unknown decision kind %q", d.Kind)
	}
}

// Step asks policy for the seat the engine is waiting on and applies the
// answer. It returns ErrNoDecision when the game is over.
func Step(g *game.Game, policy Policy) (game.Result, error) {
	if g.IsOver() {
		return game.Result{}, ErrNoDecision
	}
	seat := g.ExpectedActor()
	return Apply(g, seat, policy.Decide(g.Observe(seat)))
}
