package tournament

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/thraizz/uno-server-go/internal/ai"
	"github.com/thraizz/uno-server-go/internal/game"
	"github.com/thraizz/uno-server-go/internal/game/cards"
	"github.com/thraizz/uno-server-go/internal/repository"
)

// Points awarded per table.
const (
	PointsWin  = 3
	PointsDraw = 1
	PointsBye  = 3
)

var (
	ErrAlreadyStarted   = errors.New("tournament already started")
	ErrNotEnoughPlayers = errors.New("not enough players")
	ErrDuplicatePlayer  = errors.New("player already registered")
	ErrUnknownPlayer    = errors.New("player not registered")
)

// TournamentState represents the state of a tournament
type TournamentState int

const (
	TournamentStateWaiting TournamentState = iota
	TournamentStateInProgress
	TournamentStateFinished
)

func (s TournamentState) String() string {
	switch s {
	case TournamentStateWaiting:
		return "WAITING"
	case TournamentStateInProgress:
		return "IN_PROGRESS"
	case TournamentStateFinished:
		return "FINISHED"
	default:
		return "UNKNOWN"
	}
}

// Config controls how a tournament seats and plays its games.
type Config struct {
	Rounds    int
	TableSize int
	HandSize  int
	// MaxSteps bounds each game; a table that hits it is scored as a draw.
	MaxSteps int
	Seed     uint64
}

func (c Config) withDefaults() Config {
	if c.Rounds <= 0 {
		c.Rounds = 1
	}
	if c.TableSize < game.MinPlayers || c.TableSize > game.MaxPlayers {
		c.TableSize = game.MaxPlayers
	}
	if c.MaxSteps <= 0 {
		c.MaxSteps = 2000
	}
	return c
}

// Standing is one player's running score.
type Standing struct {
	Name   string `json:"name"`
	Points int    `json:"points"`
	Wins   int    `json:"wins"`
	Losses int    `json:"losses"`
	Draws  int    `json:"draws"`
	Byes   int    `json:"byes"`
}

// Table is one game in a round.
type Table struct {
	GameID  string   `json:"game_id"`
	Players []string `json:"players"`
	// Winner is empty for a drawn table.
	Winner string `json:"winner,omitempty"`
	Turns  int    `json:"turns"`
}

// Round holds the tables of one round and the bye, if any.
type Round struct {
	Number int     `json:"number"`
	Tables []Table `json:"tables"`
	Bye    string  `json:"bye,omitempty"`
}

// Snapshot captures a consistent view of a tournament.
type Snapshot struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	State     TournamentState `json:"state"`
	Standings []Standing      `json:"standings"`
	Rounds    []Round         `json:"rounds"`
	Created   time.Time       `json:"created"`
	Started   *time.Time      `json:"started,omitempty"`
	Ended     *time.Time      `json:"ended,omitempty"`
}

// Tournament plays rounds of CPU games between registered players and
// keeps standings.
type Tournament struct {
	ID   string
	Name string

	mu        sync.RWMutex
	cfg       Config
	state     TournamentState
	order     []string
	standings map[string]*Standing
	rounds    []Round
	created   time.Time
	started   *time.Time
	ended     *time.Time

	results repository.ResultStore
	logger  *zap.Logger
}

// NewTournament creates a waiting tournament. results may be nil.
func NewTournament(name string, cfg Config, results repository.ResultStore, logger *zap.Logger) *Tournament {
	if logger == nil {
		logger = zap.NewNop()
	}
	if results == nil {
		results = repository.NopStore{}
	}
	id := uuid.New().String()
	return &Tournament{
		ID:        id,
		Name:      name,
		cfg:       cfg.withDefaults(),
		state:     TournamentStateWaiting,
		standings: make(map[string]*Standing),
		created:   time.Now(),
		results:   results,
		logger:    logger.With(zap.String("tournament_id", id)),
	}
}

// AddPlayer registers a player before the start.
func (t *Tournament) AddPlayer(name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != TournamentStateWaiting {
		return ErrAlreadyStarted
	}
	if _, ok := t.standings[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicatePlayer, name)
	}
	t.standings[name] = &Standing{Name: name}
	t.order = append(t.order, name)
	return nil
}

// RemovePlayer unregisters a player before the start.
func (t *Tournament) RemovePlayer(name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != TournamentStateWaiting {
		return ErrAlreadyStarted
	}
	if _, ok := t.standings[name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPlayer, name)
	}
	delete(t.standings, name)
	for i, n := range t.order {
		if n == name {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return nil
}

func (t *Tournament) PlayerCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.order)
}

func (t *Tournament) State() TournamentState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// Run plays every round to completion. It stops between games when ctx
// is cancelled and leaves the tournament in progress.
func (t *Tournament) Run(ctx context.Context) error {
	t.mu.Lock()
	if t.state != TournamentStateWaiting {
		t.mu.Unlock()
		return ErrAlreadyStarted
	}
	if len(t.order) < game.MinPlayers {
		t.mu.Unlock()
		return ErrNotEnoughPlayers
	}
	now := time.Now()
	t.started = &now
	t.state = TournamentStateInProgress
	t.mu.Unlock()

	t.logger.Info("tournament started",
		zap.Int("players", t.PlayerCount()),
		zap.Int("rounds", t.cfg.Rounds),
		zap.Int("table_size", t.cfg.TableSize),
	)

	rng := rand.New(rand.NewPCG(t.cfg.Seed, t.cfg.Seed^0x5deece66d))
	for n := 1; n <= t.cfg.Rounds; n++ {
		if err := t.playRound(ctx, n, rng); err != nil {
			return err
		}
	}

	t.mu.Lock()
	end := time.Now()
	t.ended = &end
	t.state = TournamentStateFinished
	t.mu.Unlock()

	t.logger.Info("tournament finished", zap.Duration("duration", end.Sub(now)))
	return nil
}

// seat splits the shuffled players into as few tables as size allows,
// balanced so table sizes differ by at most one. Heads-up tables with an
// odd player count leave the last player on a bye.
func seat(players []string, size int) (tables [][]string, bye string) {
	if size == game.MinPlayers && len(players)%2 == 1 {
		bye = players[len(players)-1]
		players = players[:len(players)-1]
	}
	n := (len(players) + size - 1) / size
	for i := 0; i < n; i++ {
		k := len(players) / (n - i)
		tables = append(tables, players[:k])
		players = players[k:]
	}
	return tables, bye
}

func (t *Tournament) playRound(ctx context.Context, number int, rng *rand.Rand) error {
	t.mu.RLock()
	players := append([]string(nil), t.order...)
	t.mu.RUnlock()
	rng.Shuffle(len(players), func(i, j int) { players[i], players[j] = players[j], players[i] })

	tables, bye := seat(players, t.cfg.TableSize)
	round := Round{Number: number, Bye: bye}
	for i, names := range tables {
		if err := ctx.Err(); err != nil {
			return err
		}
		table, err := t.playTable(ctx, fmt.Sprintf("%s-r%d-t%d", t.ID[:8], number, i+1), names, rng)
		if err != nil {
			return err
		}
		round.Tables = append(round.Tables, table)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if bye != "" {
		s := t.standings[bye]
		s.Byes++
		s.Points += PointsBye
	}
	for _, tb := range round.Tables {
		for _, name := range tb.Players {
			s := t.standings[name]
			switch tb.Winner {
			case "":
				s.Draws++
				s.Points += PointsDraw
			case name:
				s.Wins++
				s.Points += PointsWin
			default:
				s.Losses++
			}
		}
	}
	t.rounds = append(t.rounds, round)
	return nil
}

func (t *Tournament) playTable(ctx context.Context, id string, names []string, rng *rand.Rand) (Table, error) {
	opts := game.Options{HandSize: t.cfg.HandSize}
	for _, name := range names {
		opts.Players = append(opts.Players, game.PlayerOptions{Name: name, CPU: true})
	}
	src := cards.Random(rand.New(rand.NewPCG(rng.Uint64(), rng.Uint64())))
	g, err := game.New(id, opts, src, t.logger)
	if err != nil {
		return Table{}, fmt.Errorf("table %s: %w", id, err)
	}
	policy := ai.NewRandomPolicy(src)
	for steps := 0; !g.IsOver() && steps < t.cfg.MaxSteps; steps++ {
		if _, err := ai.Step(g, policy); err != nil {
			return Table{}, fmt.Errorf("table %s: %w", id, err)
		}
	}

	summary := g.Summary()
	table := Table{GameID: id, Players: names, Turns: summary.Turns}
	if summary.Finished && summary.Winner >= 0 {
		table.Winner = names[summary.Winner]
	}
	if err := t.results.SaveResult(ctx, summary); err != nil {
		t.logger.Warn("failed to store table result", zap.String("game_id", id), zap.Error(err))
	}
	t.logger.Debug("table finished",
		zap.String("game_id", id),
		zap.Strings("players", names),
		zap.String("winner", table.Winner),
		zap.Int("turns", table.Turns),
	)
	return table, nil
}

// Standings returns players ordered by points, then wins, then name.
func (t *Tournament) Standings() []Standing {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.standingsLocked()
}

func (t *Tournament) standingsLocked() []Standing {
	out := make([]Standing, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, *t.standings[name])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		if out[i].Wins != out[j].Wins {
			return out[i].Wins > out[j].Wins
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Snapshot returns a consistent copy of the tournament state.
func (t *Tournament) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rounds := make([]Round, len(t.rounds))
	for i, r := range t.rounds {
		rounds[i] = r
		rounds[i].Tables = append([]Table(nil), r.Tables...)
	}
	return Snapshot{
		ID:        t.ID,
		Name:      t.Name,
		State:     t.state,
		Standings: t.standingsLocked(),
		Rounds:    rounds,
		Created:   t.created,
		Started:   cloneTime(t.started),
		Ended:     cloneTime(t.ended),
	}
}

func cloneTime(src *time.Time) *time.Time {
	if src == nil {
		return nil
	}
	cp := *src
	return &cp
}

// Manager manages tournaments
type Manager struct {
	tournaments map[string]*Tournament
	mu          sync.RWMutex
	results     repository.ResultStore
	logger      *zap.Logger
}

// NewManager creates a new tournament manager
func NewManager(results repository.ResultStore, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		tournaments: make(map[string]*Tournament),
		results:     results,
		logger:      logger,
	}
}

// CreateTournament creates a new tournament
func (m *Manager) CreateTournament(name string, cfg Config) *Tournament {
	m.mu.Lock()
	defer m.mu.Unlock()

	tournament := NewTournament(name, cfg, m.results, m.logger)
	m.tournaments[tournament.ID] = tournament

	m.logger.Info("tournament created",
		zap.String("tournament_id", tournament.ID),
		zap.String("name", name),
	)
	return tournament
}

// GetTournament retrieves a tournament by ID
func (m *Manager) GetTournament(tournamentID string) (*Tournament, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tournament, ok := m.tournaments[tournamentID]
	return tournament, ok
}

// RemoveTournament removes a tournament
func (m *Manager) RemoveTournament(tournamentID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.tournaments, tournamentID)
	m.logger.Info("tournament removed", zap.String("tournament_id", tournamentID))
}

// GetAllTournaments returns all tournaments
func (m *Manager) GetAllTournaments() []*Tournament {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tournaments := make([]*Tournament, 0, len(m.tournaments))
	for _, tournament := range m.tournaments {
		tournaments = append(tournaments, tournament)
	}
	return tournaments
}

// GetActiveTournamentCount returns the count of unfinished tournaments
func (m *Manager) GetActiveTournamentCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, tournament := range m.tournaments {
		if tournament.State() != TournamentStateFinished {
			count++
		}
	}
	return count
}
