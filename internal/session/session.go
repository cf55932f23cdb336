// Package session owns running games. Each game lives in a Session that
// serialises calls into the engine, drives CPU seats and records the
// outcome.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/thraizz/uno-server-go/internal/ai"
	"github.com/thraizz/uno-server-go/internal/game"
	"github.com/thraizz/uno-server-go/internal/shop"
	"github.com/thraizz/uno-server-go/internal/spells"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionLimit    = errors.New("session limit reached")
	ErrSessionClosed   = errors.New("session is closed")
	ErrInvalidSeat     = errors.New("invalid seat")
)

// Info is a short description of a session for listings.
type Info struct {
	ID           string    `json:"id"`
	Players      []string  `json:"players"`
	CPUSeats     []int     `json:"cpu_seats"`
	Turn         int       `json:"turn"`
	Over         bool      `json:"over"`
	Winner       int       `json:"winner"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

// Session is one managed game.
type Session struct {
	ID string

	mu           sync.Mutex
	game         *game.Game
	policy       ai.Policy
	createdAt    time.Time
	lastActivity time.Time
	persisted    bool
	closed       bool

	mgr *manager
}

func (s *Session) touch() {
	s.lastActivity = s.mgr.now()
}

// LastActivity returns the time of the last call into the session.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// NumPlayers returns the seat count.
func (s *Session) NumPlayers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.NumPlayers()
}

// IsCPU reports whether seat is driven by the policy.
func (s *Session) IsCPU(seat int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.game.Player(seat)
	return p != nil && p.CPU
}

func (s *Session) IsOver() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.IsOver()
}

// Snapshot returns the game as seen by viewer (game.RevealAll for everything).
func (s *Session) Snapshot(viewer int) game.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.Snapshot(viewer)
}

func (s *Session) Summary() game.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.Summary()
}

// Info describes the session.
func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	info := Info{
		ID:           s.ID,
		Turn:         s.game.TurnNumber(),
		Over:         s.game.IsOver(),
		Winner:       s.game.Winner(),
		CreatedAt:    s.createdAt,
		LastActivity: s.lastActivity,
	}
	for i := 0; i < s.game.NumPlayers(); i++ {
		p := s.game.Player(i)
		info.Players = append(info.Players, p.Name)
		if p.CPU {
			info.CPUSeats = append(info.CPUSeats, i)
		}
	}
	return info
}

// Play plays a card or answers the open pending action for seat, then
// lets CPU seats act until a human is expected.
func (s *Session) Play(ctx context.Context, seat int, move game.Move) (game.Result, error) {
	return s.act(ctx, "play", seat, func() (game.Result, error) {
		return s.game.PlayOrResume(seat, move)
	})
}

// CannotPlay declares that seat has no playable card.
func (s *Session) CannotPlay(ctx context.Context, seat int) (game.Result, error) {
	return s.act(ctx, "cannot_play", seat, func() (game.Result, error) {
		return s.game.CannotPlay(seat)
	})
}

// StoreJail moves a Yellow Four from seat's hand into its jail.
func (s *Session) StoreJail(ctx context.Context, seat, index int) (game.Result, error) {
	return s.act(ctx, "store_jail", seat, func() (game.Result, error) {
		return s.game.StoreJail(seat, index)
	})
}

// Purchase buys a shop item with seat's coins.
func (s *Session) Purchase(seat int, id shop.ItemID) (shop.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usable(seat); err != nil {
		return shop.Receipt{}, err
	}
	s.touch()
	receipt, err := s.mgr.shop.Purchase(s.game.Player(seat).Name, s.game.PlayerCounters(seat), id)
	if err != nil {
		return shop.Receipt{}, err
	}
	s.mgr.logger.Info("item purchased",
		zap.String("game_id", s.ID),
		zap.Int("seat", seat),
		zap.String("item", string(id)),
	)
	s.record()
	return receipt, nil
}

// Cast casts a spell with seat's mana. target is a seat index for
// targeted spells.
func (s *Session) Cast(seat int, id spells.SpellID, target *int) (spells.Cast, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usable(seat); err != nil {
		return spells.Cast{}, err
	}
	if target != nil && (*target < 0 || *target >= s.game.NumPlayers()) {
		return spells.Cast{}, fmt.Errorf("%w: target %d", ErrInvalidSeat, *target)
	}
	s.touch()
	cast, err := s.mgr.book.Cast(s.game.Player(seat).Name, s.game.PlayerCounters(seat), id, target)
	if err != nil {
		return spells.Cast{}, err
	}
	s.mgr.logger.Info("spell cast",
		zap.String("game_id", s.ID),
		zap.Int("seat", seat),
		zap.String("spell", string(id)),
	)
	s.record()
	return cast, nil
}

// RunCPU drives CPU seats until a human is expected, the game ends or the
// step limit is hit.
func (s *Session) RunCPU(ctx context.Context) (game.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return game.Result{}, ErrSessionClosed
	}
	res := game.Result{ExpectedActor: s.game.ExpectedActor(), Winner: s.game.Winner()}
	res, err := s.driveCPU(ctx, res)
	s.finishIfOver(ctx)
	return res, err
}

func (s *Session) usable(seat int) error {
	if s.closed {
		return ErrSessionClosed
	}
	if seat < 0 || seat >= s.game.NumPlayers() {
		return fmt.Errorf("%w: %d", ErrInvalidSeat, seat)
	}
	return nil
}

func (s *Session) act(ctx context.Context, action string, seat int, call func() (game.Result, error)) (game.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return game.Result{}, ErrSessionClosed
	}
	s.touch()

	res, err := call()
	if err != nil {
		s.logRejection(action, seat, err)
		return game.Result{}, err
	}
	s.record()
	s.mgr.logger.Debug("action applied",
		zap.String("game_id", s.ID),
		zap.String("action", action),
		zap.Int("seat", seat),
		zap.String("status", string(res.Status)),
	)

	// The move is committed; a stalled CPU reply must not be reported as a
	// rejection.
	res, err = s.driveCPU(ctx, res)
	if err != nil {
		s.mgr.logger.Warn("cpu driving interrupted",
			zap.String("game_id", s.ID),
			zap.String("action", action),
			zap.Error(err),
		)
	}
	s.finishIfOver(ctx)
	return res, nil
}

func (s *Session) logRejection(action string, seat int, err error) {
	fields := []zap.Field{
		zap.String("game_id", s.ID),
		zap.String("action", action),
		zap.Int("seat", seat),
		zap.Error(err),
	}
	if errors.Is(err, game.ErrInvariant) {
		s.mgr.logger.Error("engine invariant violated", fields...)
		return
	}
	s.mgr.logger.Debug("action rejected", fields...)
}

// driveCPU folds every CPU step into res. Messages accumulate, the rest
// reflects the last step. s.mu must be held; it is released while a CPU
// seat thinks.
func (s *Session) driveCPU(ctx context.Context, res game.Result) (game.Result, error) {
	for steps := 0; ; steps++ {
		if !s.cpuToMove() {
			return res, nil
		}
		if steps >= s.mgr.cfg.MaxCPUSteps {
			s.mgr.logger.Warn("cpu step limit reached",
				zap.String("game_id", s.ID),
				zap.Int("steps", steps),
			)
			return res, nil
		}
		if err := s.think(ctx); err != nil {
			return res, err
		}
		// Another caller may have moved or closed the game during the wait.
		if s.closed {
			return res, ErrSessionClosed
		}
		if !s.cpuToMove() {
			return res, nil
		}

		seat := s.game.ExpectedActor()
		step, err := ai.Step(s.game, s.policy)
		if err != nil {
			s.logRejection("cpu", seat, err)
			return res, fmt.Errorf("cpu seat %d: %w", seat, err)
		}
		s.record()
		step.Messages = append(res.Messages, step.Messages...)
		res = step
	}
	return res, nil
}

func (s *Session) cpuToMove() bool {
	if s.game.IsOver() {
		return false
	}
	p := s.game.Player(s.game.ExpectedActor())
	return p != nil && p.CPU
}

// think waits out the CPU delay with s.mu released so readers are not
// stalled behind it.
func (s *Session) think(ctx context.Context) error {
	delay := s.mgr.cfg.CPUThinkDelay
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	s.mu.Unlock()
	defer s.mu.Lock()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Session) record() {
	if s.mgr.recorder != nil {
		s.mgr.recorder.Record(s.game)
	}
	if err := s.game.CheckInvariants(); err != nil {
		s.mgr.logger.Error("engine invariant violated",
			zap.String("game_id", s.ID),
			zap.Error(err),
		)
	}
}

// finishIfOver persists a finished game once.
func (s *Session) finishIfOver(ctx context.Context) {
	if !s.game.IsOver() || s.persisted {
		return
	}
	s.persist(ctx)
	s.mgr.logger.Info("game finished",
		zap.String("game_id", s.ID),
		zap.Int("winner", s.game.Winner()),
		zap.String("winner_name", s.game.Player(s.game.Winner()).Name),
		zap.Int("turns", s.game.TurnNumber()),
	)
}

// persist stores the summary and flushes the replay. Called with s.mu held.
func (s *Session) persist(ctx context.Context) {
	s.persisted = true
	summary := s.game.Summary()
	if err := s.mgr.store.SaveResult(ctx, summary); err != nil {
		s.mgr.logger.Error("failed to save game result",
			zap.String("game_id", s.ID),
			zap.Error(err),
		)
	}
	if s.mgr.recorder != nil && s.mgr.recorder.IsRecording(s.ID) {
		if err := s.mgr.recorder.SaveReplay(s.ID); err != nil {
			s.mgr.logger.Warn("failed to save replay",
				zap.String("game_id", s.ID),
				zap.Error(err),
			)
		}
	}
}

// close marks the session closed, persisting an unfinished game as
// abandoned.
func (s *Session) close(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if !s.persisted {
		s.persist(ctx)
	}
}
