package counters

import (
	"fmt"

	"github.com/thraizz/uno-server-go/internal/game/rules"
)

// Owner identifies whose counters an operation touches.
type Owner struct {
	GameID   string
	PlayerID string
	Seat     int
}

// CounterOperations changes player counters and emits matching events.
type CounterOperations struct {
	eventBus *rules.EventBus
}

// NewCounterOperations creates a new CounterOperations instance. A nil bus
// disables event emission.
func NewCounterOperations(eventBus *rules.EventBus) *CounterOperations {
	return &CounterOperations{eventBus: eventBus}
}

// Add grants amount of ct to the owner and emits COUNTER_ADDED.
func (co *CounterOperations) Add(owner Owner, cs *Counters, ct CounterType, amount int) {
	if amount <= 0 {
		return
	}
	cs.Add(ct, amount)
	co.publish(rules.EventCounterAdded, owner, ct, amount, cs.Get(ct),
		fmt.Sprintf("Added %d %s to %s", amount, ct, owner.PlayerID))
}

// Spend removes amount of ct from the owner and emits COUNTER_REMOVED.
func (co *CounterOperations) Spend(owner Owner, cs *Counters, ct CounterType, amount int) error {
	if err := cs.Spend(ct, amount); err != nil {
		return err
	}
	if amount > 0 {
		co.publish(rules.EventCounterRemoved, owner, ct, amount, cs.Get(ct),
			fmt.Sprintf("Removed %d %s from %s", amount, ct, owner.PlayerID))
	}
	return nil
}

func (co *CounterOperations) publish(t rules.EventType, owner Owner, ct CounterType, amount, total int, desc string) {
	if co.eventBus == nil {
		return
	}
	evt := rules.NewEventWithAmount(t, owner.GameID, owner.PlayerID, owner.Seat, amount)
	evt.Data = ct.String()
	evt.Metadata["counter_type"] = ct.String()
	evt.Metadata["counter_total"] = fmt.Sprintf("%d", total)
	evt.Description = desc
	co.eventBus.Publish(evt)
}
