// Package game implements the turn engine: card resolution, suspended
// multi-step effects, the draw pipeline and win detection.
package game

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/thraizz/uno-server-go/internal/game/cards"
	"github.com/thraizz/uno-server-go/internal/game/counters"
	"github.com/thraizz/uno-server-go/internal/game/rules"
	"github.com/thraizz/uno-server-go/internal/game/watchers"
)

const (
	MinPlayers      = 2
	MaxPlayers      = 4
	DefaultHandSize = 7
)

// WildAwardsChosenColor controls whether a wild awards the counter of the
// color named with it. Wilds award nothing when false.
const WildAwardsChosenColor = false

// NoWinner is the Winner value while the game is running.
const NoWinner = -1

// PlayerOptions describes one seat at creation.
type PlayerOptions struct {
	Name string `json:"name"`
	CPU  bool   `json:"cpu"`
}

// Options configures a new game.
type Options struct {
	Players  []PlayerOptions `json:"players"`
	HandSize int             `json:"hand_size"`
}

// Status is the coarse outcome of an engine call.
type Status string

const (
	// StatusAdvanced means the turn passed to another player.
	StatusAdvanced Status = "ADVANCED"
	// StatusContinue means the same player acts again without a pending action.
	StatusContinue Status = "CONTINUE"
	// StatusPending means a pending action waits for input.
	StatusPending Status = "PENDING"
	// StatusWon means the call ended the game.
	StatusWon Status = "WON"
)

// Result describes what an accepted call did.
type Result struct {
	Status        Status      `json:"status"`
	Messages      []string    `json:"messages"`
	Pending       PendingKind `json:"pending,omitempty"`
	ExpectedActor int         `json:"expected_actor"`
	Winner        int         `json:"winner"`
}

// Game is one running match. It is not safe for concurrent use; callers
// serialise access.
type Game struct {
	id          string
	players     []*Player
	deck        *cards.Deck
	turns       *rules.TurnManager
	activeColor cards.Color
	pending     Pending
	over        bool
	winner      int

	rng        cards.Random
	logger     *zap.Logger
	eventBus   *rules.EventBus
	counterOps *counters.CounterOperations
	watchers   *rules.WatcherRegistry

	cardsPlayed *watchers.CardsPlayedWatcher
	cardsDrawn  *watchers.CardsDrawnWatcher
	reshuffles  *watchers.ReshuffleWatcher
	actions     *watchers.ActionsWatcher

	// per-call state
	messages  []string
	continued bool
}

// New creates a shuffled, dealt game.
func New(id string, opts Options, rng cards.Random, logger *zap.Logger) (*Game, error) {
	if rng == nil {
		return nil, fmt.Errorf("game requires a random source")
	}
	n := len(opts.Players)
	if n < MinPlayers || n > MaxPlayers {
		return nil, fmt.Errorf("game requires %d-%d players, got %d", MinPlayers, MaxPlayers, n)
	}
	handSize := opts.HandSize
	if handSize == 0 {
		handSize = DefaultHandSize
	}
	if handSize < 0 {
		return nil, fmt.Errorf("hand size must be positive, got %d", handSize)
	}
	if handSize*n >= cards.DeckSize {
		return nil, fmt.Errorf("hand size %d is too large for %d players", handSize, n)
	}
	if id == "" {
		id = uuid.NewString()
	}

	players := make([]*Player, n)
	for i, po := range opts.Players {
		name := po.Name
		if name == "" {
			name = fmt.Sprintf("Player %d", i+1)
		}
		players[i] = NewPlayer(name, po.CPU)
	}

	deck := cards.NewDeck(rng)
	deck.Shuffle()
	for r := 0; r < handSize; r++ {
		for _, p := range players {
			c, _ := deck.Draw()
			p.AddCard(c)
		}
	}

	g := newGame(id, players, deck, rng.IntN(n), rng, logger)

	for {
		first, ok := deck.Draw()
		if !ok {
			return nil, fmt.Errorf("%w: draw pile exhausted during setup", ErrInvariant)
		}
		if first.Rank() == cards.RankWildDrawFour {
			deck.ReturnToDraw(first)
			continue
		}
		deck.PushDiscard(first)
		if first.Rank() == cards.RankWild {
			g.activeColor = cards.PlayableColors[rng.IntN(len(cards.PlayableColors))]
		}
		break
	}

	g.publish(rules.NewEvent(rules.EventGameStarted, g.id, players[g.turns.Current()].ID, g.turns.Current()))
	g.logger.Info("game started",
		zap.String("game_id", g.id),
		zap.Int("players", n),
		zap.Int("hand_size", handSize),
		zap.Int("first_player", g.turns.Current()),
		zap.String("top_card", g.TopCard().String()),
	)
	return g, nil
}

// newGame wires a game around prepared players and deck.
func newGame(id string, players []*Player, deck *cards.Deck, first int, rng cards.Random, logger *zap.Logger) *Game {
	if logger == nil {
		logger = zap.NewNop()
	}
	bus := rules.NewEventBus()
	g := &Game{
		id:          id,
		players:     players,
		deck:        deck,
		turns:       rules.NewTurnManager(len(players), first),
		activeColor: cards.ColorNone,
		winner:      NoWinner,
		rng:         rng,
		logger:      logger,
		eventBus:    bus,
		counterOps:  counters.NewCounterOperations(bus),
		watchers:    rules.NewWatcherRegistry(),
		cardsPlayed: watchers.NewCardsPlayedWatcher(),
		cardsDrawn:  watchers.NewCardsDrawnWatcher(),
		reshuffles:  watchers.NewReshuffleWatcher(),
		actions:     watchers.NewActionsWatcher(),
	}
	g.watchers.AddWatcher(g.cardsPlayed)
	g.watchers.AddWatcher(g.cardsDrawn)
	g.watchers.AddWatcher(g.reshuffles)
	g.watchers.AddWatcher(g.actions)
	for _, p := range players {
		g.watchers.AddWatcher(watchers.NewCountersEarnedWatcher(p.ID))
	}
	bus.Subscribe(g.watchers.NotifyWatchers)
	return g
}

// ID returns the game id.
func (g *Game) ID() string { return g.id }

// Events returns the game's event bus.
func (g *Game) Events() *rules.EventBus { return g.eventBus }

// Watchers returns the registry fed by the event bus.
func (g *Game) Watchers() *rules.WatcherRegistry { return g.watchers }

// NumPlayers returns the number of seats.
func (g *Game) NumPlayers() int { return len(g.players) }

// Player returns the player at seat, or nil.
func (g *Game) Player(seat int) *Player {
	if seat < 0 || seat >= len(g.players) {
		return nil
	}
	return g.players[seat]
}

// CurrentPlayer returns the seat whose turn it is.
func (g *Game) CurrentPlayer() int { return g.turns.Current() }

// Direction returns the play direction.
func (g *Game) Direction() rules.Direction { return g.turns.Direction() }

// TurnNumber returns the 1-based turn counter.
func (g *Game) TurnNumber() int { return g.turns.TurnNumber() }

// TopCard returns the discard top.
func (g *Game) TopCard() cards.Card {
	top, _ := g.deck.Top()
	return top
}

// ActiveColor returns the color in force on a wild top, or ColorNone.
func (g *Game) ActiveColor() cards.Color { return g.activeColor }

// Pending returns the open pending action, or nil.
func (g *Game) Pending() Pending { return g.pending }

// IsOver reports whether the game has a winner.
func (g *Game) IsOver() bool { return g.over }

// Winner returns the winning seat or NoWinner.
func (g *Game) Winner() int { return g.winner }

// ExpectedActor returns the seat the engine waits on: the pending actor if
// an action is open, otherwise the current player.
func (g *Game) ExpectedActor() int {
	if g.pending != nil {
		return g.pending.Actor()
	}
	return g.turns.Current()
}

// PlayerCounters returns the counters of seat, or nil.
func (g *Game) PlayerCounters(seat int) *counters.Counters {
	if p := g.Player(seat); p != nil {
		return p.Counters
	}
	return nil
}

// DrawPileSize returns the number of cards left to draw.
func (g *Game) DrawPileSize() int { return g.deck.DrawSize() }

// DiscardPileSize returns the number of cards on the discard pile.
func (g *Game) DiscardPileSize() int { return g.deck.DiscardSize() }

// TotalCards counts every card in the game. It equals cards.DeckSize at
// every observation point.
func (g *Game) TotalCards() int {
	total := g.deck.DrawSize() + g.deck.DiscardSize()
	for _, p := range g.players {
		total += p.CardCount()
	}
	return total
}

// CheckInvariants verifies card conservation and active color coherence.
func (g *Game) CheckInvariants() error {
	if total := g.TotalCards(); total != cards.DeckSize {
		return fmt.Errorf("%w: %d cards in play, want %d", ErrInvariant, total, cards.DeckSize)
	}
	top, ok := g.deck.Top()
	if !ok {
		return fmt.Errorf("%w: empty discard pile", ErrInvariant)
	}
	if !top.IsWild() && g.activeColor != cards.ColorNone {
		return fmt.Errorf("%w: active color %s on non-wild top %s", ErrInvariant, g.activeColor, top)
	}
	if top.IsWild() && !g.activeColor.Playable() && g.pending == nil && !g.over {
		return fmt.Errorf("%w: wild top without active color", ErrInvariant)
	}
	return nil
}

func (g *Game) publish(evt rules.Event) {
	g.eventBus.Publish(evt)
}

func (g *Game) event(t rules.EventType, seat int) rules.Event {
	return rules.NewEvent(t, g.id, g.players[seat].ID, seat)
}

func (g *Game) say(format string, args ...any) {
	g.messages = append(g.messages, fmt.Sprintf(format, args...))
}

func (g *Game) name(seat int) string {
	return g.players[seat].Name
}

func (g *Game) begin() {
	g.messages = nil
	g.continued = false
}

func (g *Game) result() Result {
	r := Result{
		Messages:      g.messages,
		ExpectedActor: g.ExpectedActor(),
		Winner:        g.winner,
	}
	switch {
	case g.over:
		r.Status = StatusWon
	case g.pending != nil:
		r.Status = StatusPending
		r.Pending = g.pending.Kind()
	case g.continued:
		r.Status = StatusContinue
	default:
		r.Status = StatusAdvanced
	}
	g.messages = nil
	return r
}

func (g *Game) checkSeat(actor int) error {
	if actor < 0 || actor >= len(g.players) {
		return fmt.Errorf("%w: seat %d out of range", ErrNotYourTurn, actor)
	}
	return nil
}

// award grants the counter matching a card leaving a hand.
func (g *Game) award(seat int, c cards.Card, chosen cards.Color) {
	color := c.Color()
	if c.IsWild() {
		if !WildAwardsChosenColor {
			return
		}
		color = chosen
	}
	ct, ok := counters.AwardFor(color)
	if !ok {
		return
	}
	g.counterOps.Add(g.owner(seat), g.players[seat].Counters, ct, 1)
}

func (g *Game) owner(seat int) counters.Owner {
	return counters.Owner{GameID: g.id, PlayerID: g.players[seat].ID, Seat: seat}
}

// checkWin ends the game if seat's hand is empty.
func (g *Game) checkWin(seat int) bool {
	if !g.players[seat].IsHandEmpty() {
		return false
	}
	g.declareWinner(seat)
	return true
}

func (g *Game) declareWinner(seat int) {
	if g.over {
		return
	}
	g.over = true
	g.winner = seat
	g.pending = nil
	g.say("%s wins!", g.name(seat))
	g.publish(g.event(rules.EventGameWon, seat))
	g.logger.Info("game won",
		zap.String("game_id", g.id),
		zap.Int("winner", seat),
		zap.Int("turns", g.turns.TurnNumber()),
	)
}

func (g *Game) openPending(p Pending) {
	g.pending = p
	evt := g.event(rules.EventPendingOpened, p.Actor())
	evt.Data = string(p.Kind())
	g.publish(evt)
	g.logger.Debug("pending action opened",
		zap.String("game_id", g.id),
		zap.String("kind", string(p.Kind())),
		zap.Int("actor", p.Actor()),
	)
}

func (g *Game) clearPending() {
	if g.pending == nil {
		return
	}
	p := g.pending
	g.pending = nil
	evt := g.event(rules.EventPendingResolved, p.Actor())
	evt.Data = string(p.Kind())
	g.publish(evt)
}

// advanceFrom passes the turn steps seats on from seat.
func (g *Game) advanceFrom(seat, steps int) {
	if steps > 1 {
		skipped := g.turns.Relative(seat, 1)
		g.say("%s is skipped.", g.name(skipped))
		g.publish(g.event(rules.EventPlayerSkipped, skipped))
	}
	g.turns.SetCurrent(seat)
	next := g.turns.Advance(steps)
	evt := g.event(rules.EventTurnAdvanced, next)
	evt.Amount = g.turns.TurnNumber()
	g.publish(evt)
}

func (g *Game) setActiveColor(seat int, c cards.Color) {
	g.activeColor = c
	g.say("%s chose %s.", g.name(seat), c)
	evt := g.event(rules.EventColorChosen, seat)
	evt.Data = c.String()
	g.publish(evt)
}

// discard places a played card face up and resets the active color.
func (g *Game) discard(seat int, c cards.Card, eventType rules.EventType) {
	g.deck.PushDiscard(c)
	g.activeColor = cards.ColorNone
	evt := g.event(eventType, seat)
	evt.Card = c.String()
	g.publish(evt)
}
