package counters

import (
	"errors"
	"fmt"
)

// ErrInsufficient is returned when spending more than a counter holds.
var ErrInsufficient = errors.New("insufficient counters")

// Counter is a single non-negative resource tally.
type Counter struct {
	Type  CounterType
	Count int
}

// Add adds the specified amount to the counter. Non-positive amounts are ignored.
func (c *Counter) Add(amount int) {
	if amount > 0 {
		c.Count += amount
	}
}

// Remove removes the specified amount. It never goes below 0.
func (c *Counter) Remove(amount int) {
	if amount <= 0 {
		return
	}
	if c.Count >= amount {
		c.Count -= amount
	} else {
		c.Count = 0
	}
}

// Counters holds a player's four resource counters.
type Counters struct {
	counters map[CounterType]*Counter
}

// NewCounters creates a zeroed set of counters.
func NewCounters() *Counters {
	cs := &Counters{counters: make(map[CounterType]*Counter, len(AllTypes))}
	for _, t := range AllTypes {
		cs.counters[t] = &Counter{Type: t}
	}
	return cs
}

func (cs *Counters) get(ct CounterType) *Counter {
	c, ok := cs.counters[ct]
	if !ok {
		c = &Counter{Type: ct}
		cs.counters[ct] = c
	}
	return c
}

// Add increases the named counter by amount.
func (cs *Counters) Add(ct CounterType, amount int) {
	cs.get(ct).Add(amount)
}

// Spend removes amount from the named counter, or fails without change if
// the counter holds less than amount.
func (cs *Counters) Spend(ct CounterType, amount int) error {
	if amount < 0 {
		return fmt.Errorf("cannot spend negative amount %d of %s", amount, ct)
	}
	c := cs.get(ct)
	if c.Count < amount {
		return fmt.Errorf("%w: %s has %d, need %d", ErrInsufficient, ct, c.Count, amount)
	}
	c.Remove(amount)
	return nil
}

// Get returns the count of the named counter.
func (cs *Counters) Get(ct CounterType) int {
	if c, ok := cs.counters[ct]; ok {
		return c.Count
	}
	return 0
}

// Has reports whether the named counter holds at least amount.
func (cs *Counters) Has(ct CounterType, amount int) bool {
	return cs.Get(ct) >= amount
}

// Total returns the sum of all counters.
func (cs *Counters) Total() int {
	total := 0
	for _, c := range cs.counters {
		total += c.Count
	}
	return total
}

// Snapshot returns the counters keyed by their string names.
func (cs *Counters) Snapshot() map[string]int {
	out := make(map[string]int, len(AllTypes))
	for _, t := range AllTypes {
		out[t.String()] = cs.Get(t)
	}
	return out
}

// Copy creates a deep copy of the counters.
func (cs *Counters) Copy() *Counters {
	cp := NewCounters()
	for t, c := range cs.counters {
		cp.counters[t] = &Counter{Type: t, Count: c.Count}
	}
	return cp
}
