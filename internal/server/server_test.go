package server

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/thraizz/uno-server-go/internal/auth"
	"github.com/thraizz/uno-server-go/internal/game"
	"github.com/thraizz/uno-server-go/internal/game/cards"
	"github.com/thraizz/uno-server-go/internal/repository"
	"github.com/thraizz/uno-server-go/internal/session"
)

type fixture struct {
	service  *Service
	sessions session.Manager
	tokens   *auth.TokenIssuer
	logger   *zap.Logger
}

func newFixture(t *testing.T, withTokens bool) *fixture {
	t.Helper()
	logger := zaptest.NewLogger(t)
	var seed uint64
	sessions := session.NewManager(session.Config{
		LeasePeriod: time.Minute,
		MaxCPUSteps: 200,
		NewRandom: func() cards.Random {
			seed++
			return rand.New(rand.NewPCG(seed, 99))
		},
	}, repository.NopStore{}, logger)
	t.Cleanup(func() { sessions.CloseAll(context.Background()) })

	var tokens *auth.TokenIssuer
	if withTokens {
		var err error
		tokens, err = auth.NewTokenIssuer("test-secret", time.Hour)
		require.NoError(t, err)
	}
	return &fixture{
		service:  NewService(sessions, tokens, logger),
		sessions: sessions,
		tokens:   tokens,
		logger:   logger,
	}
}

func (f *fixture) createGame(t *testing.T) CreateGameResponse {
	t.Helper()
	resp, err := f.service.CreateGame(context.Background(), CreateGameRequest{
		Players: []game.PlayerOptions{{Name: "Ada"}, {Name: "Bot", CPU: true}},
	})
	require.NoError(t, err)
	return resp
}

func mustRaw(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}
