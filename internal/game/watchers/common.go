package watchers

import (
	"github.com/thraizz/uno-server-go/internal/game/rules"
)

// CardsPlayedWatcher counts cards each player put on the discard pile,
// including jail plays.
type CardsPlayedWatcher struct {
	*rules.BaseWatcher
	played map[string]int // playerID -> count
}

// NewCardsPlayedWatcher creates a new cards played watcher.
func NewCardsPlayedWatcher() *CardsPlayedWatcher {
	return &CardsPlayedWatcher{
		BaseWatcher: rules.NewBaseWatcher(rules.WatcherScopeGame, "CardsPlayedWatcher"),
		played:      make(map[string]int),
	}
}

// Watch implements the Watcher interface.
func (w *CardsPlayedWatcher) Watch(event rules.Event) {
	if event.Type != rules.EventCardPlayed && event.Type != rules.EventJailPlayed {
		return
	}
	if event.PlayerID == "" {
		return
	}
	w.played[event.PlayerID]++
}

// Reset clears the watcher's state.
func (w *CardsPlayedWatcher) Reset() {
	w.played = make(map[string]int)
}

// GetCount returns the number of cards a player has played.
func (w *CardsPlayedWatcher) GetCount(playerID string) int {
	return w.played[playerID]
}

// CardsDrawnWatcher sums the cards each player drew.
type CardsDrawnWatcher struct {
	*rules.BaseWatcher
	drawn map[string]int
}

// NewCardsDrawnWatcher creates a new cards drawn watcher.
func NewCardsDrawnWatcher() *CardsDrawnWatcher {
	return &CardsDrawnWatcher{
		BaseWatcher: rules.NewBaseWatcher(rules.WatcherScopeGame, "CardsDrawnWatcher"),
		drawn:       make(map[string]int),
	}
}

// Watch implements the Watcher interface.
func (w *CardsDrawnWatcher) Watch(event rules.Event) {
	if event.Type != rules.EventCardsDrawn || event.PlayerID == "" {
		return
	}
	w.drawn[event.PlayerID] += event.Amount
}

// Reset clears the watcher's state.
func (w *CardsDrawnWatcher) Reset() {
	w.drawn = make(map[string]int)
}

// GetCount returns the number of cards a player has drawn.
func (w *CardsDrawnWatcher) GetCount(playerID string) int {
	return w.drawn[playerID]
}

// ReshuffleWatcher counts discard-to-draw reshuffles.
type ReshuffleWatcher struct {
	*rules.BaseWatcher
	count int
}

// NewReshuffleWatcher creates a new reshuffle watcher.
func NewReshuffleWatcher() *ReshuffleWatcher {
	return &ReshuffleWatcher{
		BaseWatcher: rules.NewBaseWatcher(rules.WatcherScopeGame, "ReshuffleWatcher"),
	}
}

// Watch implements the Watcher interface.
func (w *ReshuffleWatcher) Watch(event rules.Event) {
	if event.Type == rules.EventDeckReshuffled {
		w.count++
	}
}

// Reset clears the watcher's state.
func (w *ReshuffleWatcher) Reset() {
	w.count = 0
}

// GetCount returns the number of reshuffles seen.
func (w *ReshuffleWatcher) GetCount() int {
	return w.count
}

// trackedActions are the event types ActionsWatcher tallies.
var trackedActions = map[rules.EventType]bool{
	rules.EventPlayerSkipped:     true,
	rules.EventDirectionReversed: true,
	rules.EventCardsSwapped:      true,
	rules.EventCardStolen:        true,
	rules.EventCardRevealed:      true,
	rules.EventCardsDiscarded:    true,
	rules.EventJailStored:        true,
}

// ActionsWatcher tallies special card actions by event type.
type ActionsWatcher struct {
	*rules.BaseWatcher
	counts map[rules.EventType]int
}

// NewActionsWatcher creates a new actions watcher.
func NewActionsWatcher() *ActionsWatcher {
	return &ActionsWatcher{
		BaseWatcher: rules.NewBaseWatcher(rules.WatcherScopeGame, "ActionsWatcher"),
		counts:      make(map[rules.EventType]int),
	}
}

// Watch implements the Watcher interface.
func (w *ActionsWatcher) Watch(event rules.Event) {
	if trackedActions[event.Type] {
		w.counts[event.Type]++
	}
}

// Reset clears the watcher's state.
func (w *ActionsWatcher) Reset() {
	w.counts = make(map[rules.EventType]int)
}

// GetCount returns how often an action happened.
func (w *ActionsWatcher) GetCount(eventType rules.EventType) int {
	return w.counts[eventType]
}

// Counts returns a copy of all tallies keyed by event type name.
func (w *ActionsWatcher) Counts() map[string]int {
	out := make(map[string]int, len(w.counts))
	for k, v := range w.counts {
		out[string(k)] = v
	}
	return out
}

// CountersEarnedWatcher sums counters added to one player, by counter type.
type CountersEarnedWatcher struct {
	*rules.BaseWatcher
	earned map[string]int
}

// NewCountersEarnedWatcher creates a player-scoped watcher for playerID.
func NewCountersEarnedWatcher(playerID string) *CountersEarnedWatcher {
	w := &CountersEarnedWatcher{
		BaseWatcher: rules.NewBaseWatcher(rules.WatcherScopePlayer, "CountersEarnedWatcher"),
		earned:      make(map[string]int),
	}
	w.SetPlayerID(playerID)
	return w
}

// Watch implements the Watcher interface.
func (w *CountersEarnedWatcher) Watch(event rules.Event) {
	if event.Type != rules.EventCounterAdded || event.PlayerID != w.GetPlayerID() {
		return
	}
	w.earned[event.Data] += event.Amount
}

// Reset clears the watcher's state.
func (w *CountersEarnedWatcher) Reset() {
	w.earned = make(map[string]int)
}

// Earned returns the total of one counter type added to the player.
func (w *CountersEarnedWatcher) Earned(counterType string) int {
	return w.earned[counterType]
}

// All returns a copy of the per-type totals.
func (w *CountersEarnedWatcher) All() map[string]int {
	out := make(map[string]int, len(w.earned))
	for k, v := range w.earned {
		out[k] = v
	}
	return out
}
