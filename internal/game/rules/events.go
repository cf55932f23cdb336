package rules

import (
	"sync"
	"time"
)

// EventType indicates the category of a game event.
type EventType string

const (
	// Card movement events
	EventCardPlayed     EventType = "CARD_PLAYED"
	EventCardsDrawn     EventType = "CARDS_DRAWN"
	EventCardRevealed   EventType = "CARD_REVEALED"
	EventCardsDiscarded EventType = "CARDS_DISCARDED"
	EventCardsSwapped   EventType = "CARDS_SWAPPED"
	EventCardStolen     EventType = "CARD_STOLEN"
	EventDeckReshuffled EventType = "DECK_RESHUFFLED"

	// Jail events
	EventJailStored EventType = "JAIL_STORED"
	EventJailPlayed EventType = "JAIL_PLAYED"

	// Turn events
	EventTurnAdvanced      EventType = "TURN_ADVANCED"
	EventPlayerSkipped     EventType = "PLAYER_SKIPPED"
	EventDirectionReversed EventType = "DIRECTION_REVERSED"
	EventColorChosen       EventType = "COLOR_CHOSEN"

	// Pending action events
	EventPendingOpened   EventType = "PENDING_OPENED"
	EventPendingResolved EventType = "PENDING_RESOLVED"

	// Counter events
	EventCounterAdded   EventType = "COUNTER_ADDED"
	EventCounterRemoved EventType = "COUNTER_REMOVED"

	// Game events
	EventGameStarted EventType = "GAME_STARTED"
	EventGameWon     EventType = "GAME_WON"
)

// Event represents a state change that other subsystems may react to.
type Event struct {
	Type        EventType
	GameID      string
	PlayerID    string // Player the event is about
	Seat        int    // Seat index of PlayerID
	TargetID    string // Other player involved, if any
	Amount      int
	Card        string // Rendered card, if any
	Data        string
	Timestamp   time.Time
	Metadata    map[string]string
	Description string
}

// Listener defines a callback that reacts to incoming events.
type Listener func(Event)

// TypedListener defines a callback that reacts to a specific event type.
type TypedListener struct {
	Handle    int
	EventType EventType
	Callback  func(Event)
}

// EventBus provides a synchronous publish/subscribe implementation with type filtering.
type EventBus struct {
	mu             sync.RWMutex
	listeners      map[int]Listener
	order          []int
	typedListeners map[EventType][]TypedListener
	nextHandle     int
}

// NewEventBus constructs a fresh event bus instance.
func NewEventBus() *EventBus {
	return &EventBus{
		listeners:      make(map[int]Listener),
		typedListeners: make(map[EventType][]TypedListener),
	}
}

// Subscribe registers a listener for all events and returns a handle.
func (bus *EventBus) Subscribe(listener Listener) int {
	if listener == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.listeners[handle] = listener
	bus.order = append(bus.order, handle)
	return handle
}

// SubscribeTyped registers a listener for a specific event type.
func (bus *EventBus) SubscribeTyped(eventType EventType, callback func(Event)) int {
	if callback == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.typedListeners[eventType] = append(bus.typedListeners[eventType], TypedListener{
		Handle:    handle,
		EventType: eventType,
		Callback:  callback,
	})
	return handle
}

// Unsubscribe removes the listener identified by the provided handle,
// whether it was registered with Subscribe or SubscribeTyped.
func (bus *EventBus) Unsubscribe(handle int) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	if _, ok := bus.listeners[handle]; ok {
		delete(bus.listeners, handle)
		for i, h := range bus.order {
			if h == handle {
				bus.order = append(bus.order[:i], bus.order[i+1:]...)
				break
			}
		}
		return
	}
	for eventType, listeners := range bus.typedListeners {
		for i := len(listeners) - 1; i >= 0; i-- {
			if listeners[i].Handle == handle {
				bus.typedListeners[eventType] = append(listeners[:i], listeners[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers the event to all registered listeners synchronously,
// general listeners first in subscription order.
func (bus *EventBus) Publish(event Event) {
	bus.mu.RLock()
	general := make([]Listener, 0, len(bus.order))
	for _, h := range bus.order {
		general = append(general, bus.listeners[h])
	}
	typed := append([]TypedListener(nil), bus.typedListeners[event.Type]...)
	bus.mu.RUnlock()

	for _, listener := range general {
		listener(event)
	}
	for _, listener := range typed {
		listener.Callback(event)
	}
}

// NewEvent creates a new event with common fields populated.
func NewEvent(eventType EventType, gameID, playerID string, seat int) Event {
	return Event{
		Type:      eventType,
		GameID:    gameID,
		PlayerID:  playerID,
		Seat:      seat,
		Timestamp: time.Now(),
		Metadata:  make(map[string]string),
	}
}

// NewEventWithAmount creates a new event with an amount value.
func NewEventWithAmount(eventType EventType, gameID, playerID string, seat, amount int) Event {
	evt := NewEvent(eventType, gameID, playerID, seat)
	evt.Amount = amount
	return evt
}
