package counters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thraizz/uno-server-go/internal/game/cards"
	"github.com/thraizz/uno-server-go/internal/game/rules"
)

func TestCountersStartAtZero(t *testing.T) {
	cs := NewCounters()
	for _, ct := range AllTypes {
		assert.Equal(t, 0, cs.Get(ct), ct.String())
	}
	assert.Equal(t, 0, cs.Total())
}

func TestCountersSpend(t *testing.T) {
	cs := NewCounters()
	cs.Add(CounterTypeCoin, 3)

	require.NoError(t, cs.Spend(CounterTypeCoin, 2))
	assert.Equal(t, 1, cs.Get(CounterTypeCoin))

	err := cs.Spend(CounterTypeCoin, 2)
	require.ErrorIs(t, err, ErrInsufficient)
	assert.Equal(t, 1, cs.Get(CounterTypeCoin), "failed spend must not change the counter")

	assert.Error(t, cs.Spend(CounterTypeCoin, -1))
}

func TestCounterNeverNegative(t *testing.T) {
	c := &Counter{Type: CounterTypeLunarMana, Count: 2}
	c.Remove(5)
	assert.Equal(t, 0, c.Count)
	c.Add(-3)
	assert.Equal(t, 0, c.Count)
}

func TestCountersCopyIsIndependent(t *testing.T) {
	cs := NewCounters()
	cs.Add(CounterTypeSolarMana, 4)
	cp := cs.Copy()
	cp.Add(CounterTypeSolarMana, 1)

	assert.Equal(t, 4, cs.Get(CounterTypeSolarMana))
	assert.Equal(t, 5, cp.Get(CounterTypeSolarMana))
}

func TestCountersSnapshot(t *testing.T) {
	cs := NewCounters()
	cs.Add(CounterTypeShuffleToken, 2)
	assert.Equal(t, map[string]int{
		"coin":          0,
		"shuffle_token": 2,
		"lunar_mana":    0,
		"solar_mana":    0,
	}, cs.Snapshot())
}

func TestAwardFor(t *testing.T) {
	tests := []struct {
		color cards.Color
		want  CounterType
		ok    bool
	}{
		{cards.ColorRed, CounterTypeSolarMana, true},
		{cards.ColorYellow, CounterTypeCoin, true},
		{cards.ColorGreen, CounterTypeShuffleToken, true},
		{cards.ColorBlue, CounterTypeLunarMana, true},
		{cards.ColorWild, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.color.String(), func(t *testing.T) {
			got, ok := AwardFor(tt.color)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCounterOperationsEmitEvents(t *testing.T) {
	bus := rules.NewEventBus()
	var events []rules.Event
	bus.Subscribe(func(e rules.Event) { events = append(events, e) })

	ops := NewCounterOperations(bus)
	cs := NewCounters()
	owner := Owner{GameID: "game-1", PlayerID: "p1", Seat: 0}

	ops.Add(owner, cs, CounterTypeCoin, 2)
	require.NoError(t, ops.Spend(owner, cs, CounterTypeCoin, 1))
	require.Error(t, ops.Spend(owner, cs, CounterTypeCoin, 5))
	ops.Add(owner, cs, CounterTypeCoin, 0)

	require.Len(t, events, 2)
	assert.Equal(t, rules.EventCounterAdded, events[0].Type)
	assert.Equal(t, 2, events[0].Amount)
	assert.Equal(t, "coin", events[0].Data)
	assert.Equal(t, rules.EventCounterRemoved, events[1].Type)
	assert.Equal(t, "1", events[1].Metadata["counter_total"])
}

func TestCounterOperationsNilBus(t *testing.T) {
	ops := NewCounterOperations(nil)
	cs := NewCounters()
	ops.Add(Owner{PlayerID: "p1"}, cs, CounterTypeLunarMana, 3)
	assert.Equal(t, 3, cs.Get(CounterTypeLunarMana))
}
