package session

import (
	"context"
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
	"github.com/thraizz/uno-server-go/internal/shop"
	"github.com/thraizz/uno-server-go/internal/spells"
)

// Config tunes a Manager.
type Config struct {
	LeasePeriod   time.Duration
	MaxSessions   int
	HandSize      int
	MaxCPUSteps   int
	CPUThinkDelay time.Duration
	// ReplayDir enables replay recording when set.
	ReplayDir string
	// NewRandom seeds each game. Defaults to a PCG with random seeds.
	NewRandom func() cards.Random
}

// Manager owns every running session.
type Manager interface {
	CreateSession(ctx context.Context, opts game.Options) (*Session, error)
	CreateSessionFromDeal(ctx context.Context, deal game.Deal) (*Session, error)
	GetSession(id string) (*Session, bool)
	RemoveSession(ctx context.Context, id string) bool
	ListSessions() []Info
	Count() int
	CleanupExpiredSessions(ctx context.Context)
	CloseAll(ctx context.Context)
	Shop() *shop.Shop
	Spells() *spells.Book
}

type manager struct {
	cfg      Config
	logger   *zap.Logger
	store    repository.ResultStore
	recorder *game.ReplayRecorder
	shop     *shop.Shop
	book     *spells.Book
	now      func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a session manager persisting results into store.
func NewManager(cfg Config, store repository.ResultStore, logger *zap.Logger) Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		store = repository.NopStore{}
	}
	if cfg.LeasePeriod <= 0 {
		cfg.LeasePeriod = 30 * time.Minute
	}
	if cfg.MaxCPUSteps <= 0 {
		cfg.MaxCPUSteps = 500
	}
	if cfg.NewRandom == nil {
		cfg.NewRandom = func() cards.Random {
			return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		}
	}
	m := &manager{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		shop:     shop.New(),
		book:     spells.NewBook(),
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
	if cfg.ReplayDir != "" {
		m.recorder = game.NewReplayRecorder(logger, cfg.ReplayDir)
	}
	return m
}

func (m *manager) Shop() *shop.Shop     { return m.shop }
func (m *manager) Spells() *spells.Book { return m.book }

// CreateSession deals a new game and runs any CPU seats that act first.
func (m *manager) CreateSession(ctx context.Context, opts game.Options) (*Session, error) {
	if opts.HandSize == 0 {
		opts.HandSize = m.cfg.HandSize
	}
	rng := m.cfg.NewRandom()
	g, err := game.New(uuid.NewString(), opts, rng, m.logger)
	if err != nil {
		return nil, err
	}
	return m.adopt(ctx, g, rng)
}

// CreateSessionFromDeal starts a game from fixed hands and piles.
func (m *manager) CreateSessionFromDeal(ctx context.Context, deal game.Deal) (*Session, error) {
	rng := m.cfg.NewRandom()
	g, err := game.NewFromDeal(uuid.NewString(), deal, rng, m.logger)
	if err != nil {
		return nil, err
	}
	return m.adopt(ctx, g, rng)
}

func (m *manager) adopt(ctx context.Context, g *game.Game, rng cards.Random) (*Session, error) {
	now := m.now()
	sess := &Session{
		ID:           g.ID(),
		game:         g,
		policy:       ai.NewRandomPolicy(rng),
		createdAt:    now,
		lastActivity: now,
		mgr:          m,
	}

	m.mu.Lock()
	if m.cfg.MaxSessions > 0 && len(m.sessions) >= m.cfg.MaxSessions {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %d", ErrSessionLimit, m.cfg.MaxSessions)
	}
	// The opening frame is taken before the session is reachable by id.
	if m.recorder != nil {
		m.recorder.StartRecording(sess.ID)
		m.recorder.Record(g)
	}
	m.sessions[sess.ID] = sess
	m.mu.Unlock()
	m.logger.Info("session created",
		zap.String("game_id", sess.ID),
		zap.Int("players", g.NumPlayers()),
	)

	if _, err := sess.RunCPU(ctx); err != nil {
		m.logger.Warn("cpu opening failed", zap.String("game_id", sess.ID), zap.Error(err))
	}
	return sess, nil
}

func (m *manager) GetSession(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// RemoveSession closes and forgets a session. An unfinished game is stored
// as abandoned.
func (m *manager) RemoveSession(ctx context.Context, id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return false
	}
	s.close(ctx)
	m.logger.Info("session removed", zap.String("game_id", id))
	return true
}

// ListSessions returns every session, oldest first.
func (m *manager) ListSessions() []Info {
	m.mu.RLock()
	list := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		list = append(list, s)
	}
	m.mu.RUnlock()

	infos := make([]Info, 0, len(list))
	for _, s := range list {
		infos = append(infos, s.Info())
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].CreatedAt.Equal(infos[j].CreatedAt) {
			return infos[i].ID < infos[j].ID
		}
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
	return infos
}

func (m *manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CleanupExpiredSessions evicts idle sessions every half lease period
// until ctx is cancelled.
func (m *manager) CleanupExpiredSessions(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.LeasePeriod / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.evictExpired(ctx)
		}
	}
}

func (m *manager) evictExpired(ctx context.Context) int {
	cutoff := m.now().Add(-m.cfg.LeasePeriod)

	m.mu.RLock()
	list := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		list = append(list, s)
	}
	m.mu.RUnlock()

	evicted := 0
	for _, s := range list {
		if !s.LastActivity().Before(cutoff) {
			continue
		}
		if m.RemoveSession(ctx, s.ID) {
			m.logger.Info("session expired", zap.String("game_id", s.ID))
			evicted++
		}
	}
	return evicted
}

// CloseAll closes every session.
func (m *manager) CloseAll(ctx context.Context) {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.close(ctx)
	}
	m.logger.Info("all sessions closed", zap.Int("count", len(sessions)))
}
