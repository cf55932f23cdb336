package server

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/thraizz/uno-server-go/internal/auth"
	"github.com/thraizz/uno-server-go/internal/game"
	"github.com/thraizz/uno-server-go/internal/session"
)

func startGRPC(t *testing.T, f *fixture, adminPassword string) *GameServiceClient {
	t.Helper()
	cred, err := auth.NewAdminCredential(adminPassword)
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.UnaryInterceptor(ChainUnaryInterceptors(
		RecoveryInterceptor(f.logger),
		LoggingInterceptor(f.logger),
		AdminInterceptor(cred, AdminMethods...),
	)))
	RegisterGameServiceServer(srv, NewGameServer(f.service, f.logger))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewGameServiceClient(conn)
}

func TestGameServiceFlow(t *testing.T) {
	f := newFixture(t, true)
	client := startGRPC(t, f, "")
	ctx := context.Background()

	var created CreateGameResponse
	require.NoError(t, client.Call(ctx, MethodCreateGame, CreateGameRequest{
		Players: []game.PlayerOptions{{Name: "Ada"}, {Name: "Bot", CPU: true}},
	}, &created))
	require.Len(t, created.Seats, 2)
	token := created.Seats[0].Token

	var spectator game.Snapshot
	require.NoError(t, client.Call(ctx, MethodGetState, map[string]any{"game_id": created.GameID}, &spectator))
	assert.Empty(t, spectator.Players[0].Hand)

	var mine game.Snapshot
	require.NoError(t, client.Call(ctx, MethodGetState, map[string]any{"game_id": created.GameID, "token": token}, &mine))
	assert.Len(t, mine.Players[0].Hand, mine.Players[0].HandSize)

	err := client.Call(ctx, MethodPlay, map[string]any{"game_id": created.GameID, "token": token, "card_index": 0, "color": "PURPLE"}, nil)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	err = client.Call(ctx, MethodCannotPlay, map[string]any{"game_id": created.GameID, "token": "forged"}, nil)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	err = client.Call(ctx, MethodGetState, map[string]any{"game_id": "missing"}, nil)
	assert.Equal(t, codes.NotFound, status.Code(err))

	if mine.Pending != nil {
		return
	}
	err = client.Call(ctx, MethodPlay, map[string]any{"game_id": created.GameID, "token": token, "card_index": 99}, nil)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	mdCtx := metadata.AppendToOutgoingContext(ctx, SeatTokenHeader, token)
	var resp ActionResponse
	require.NoError(t, client.Call(mdCtx, MethodCannotPlay, map[string]any{"game_id": created.GameID}, &resp))
	assert.NotEmpty(t, resp.Result.Status)
	assert.Equal(t, created.GameID, resp.State.GameID)
	assert.NotEmpty(t, resp.State.Players[0].Hand)
}

func TestGameServiceStoreJailNeedsIndex(t *testing.T) {
	f := newFixture(t, false)
	client := startGRPC(t, f, "")
	created := f.createGame(t)

	err := client.Call(context.Background(), MethodStoreJail, map[string]any{"game_id": created.GameID, "seat": 0}, nil)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	err = client.Call(context.Background(), MethodStoreJail, map[string]any{"game_id": created.GameID, "seat": 5, "card_index": 0}, nil)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestAdminMethods(t *testing.T) {
	f := newFixture(t, true)
	client := startGRPC(t, f, "letmein")
	ctx := context.Background()
	created := f.createGame(t)

	err := client.Call(ctx, MethodListGames, map[string]any{}, nil)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	wrong := metadata.AppendToOutgoingContext(ctx, AdminPasswordHeader, "guess")
	err = client.Call(wrong, MethodListGames, map[string]any{}, nil)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	admin := metadata.AppendToOutgoingContext(ctx, AdminPasswordHeader, "letmein")
	var listed struct {
		Games []session.Info `json:"games"`
	}
	require.NoError(t, client.Call(admin, MethodListGames, map[string]any{}, &listed))
	require.Len(t, listed.Games, 1)
	assert.Equal(t, created.GameID, listed.Games[0].ID)
	assert.Equal(t, []int{1}, listed.Games[0].CPUSeats)

	require.NoError(t, client.Call(admin, MethodCloseGame, map[string]any{"game_id": created.GameID}, nil))
	err = client.Call(admin, MethodCloseGame, map[string]any{"game_id": created.GameID}, nil)
	assert.Equal(t, codes.NotFound, status.Code(err))
	assert.Equal(t, 0, f.sessions.Count())
}

func TestAdminDisabledWithoutPassword(t *testing.T) {
	f := newFixture(t, false)
	client := startGRPC(t, f, "")
	admin := metadata.AppendToOutgoingContext(context.Background(), AdminPasswordHeader, "")

	err := client.Call(admin, MethodListGames, map[string]any{}, nil)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
}

func TestRecoveryInterceptor(t *testing.T) {
	f := newFixture(t, false)
	interceptor := RecoveryInterceptor(f.logger)
	info := &grpc.UnaryServerInfo{FullMethod: "/test/Panic"}

	_, err := interceptor(context.Background(), nil, info, func(context.Context, any) (any, error) {
		panic("boom")
	})
	assert.Equal(t, codes.Internal, status.Code(err))
}

func TestChainUnaryInterceptorsOrder(t *testing.T) {
	var order []string
	mark := func(name string) grpc.UnaryServerInterceptor {
		return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
			order = append(order, name)
			return handler(ctx, req)
		}
	}
	chain := ChainUnaryInterceptors(mark("outer"), mark("inner"))
	resp, err := chain(context.Background(), "req", &grpc.UnaryServerInfo{}, func(_ context.Context, req any) (any, error) {
		order = append(order, "handler")
		return req, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "req", resp)
	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestErrorCodes(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{game.ErrNotYourTurn, codes.FailedPrecondition},
		{game.ErrInvalidCardIndex, codes.InvalidArgument},
		{session.ErrSessionNotFound, codes.NotFound},
		{auth.ErrTokenExpired, codes.PermissionDenied},
		{game.ErrInvariant, codes.Internal},
		{status.Error(codes.Unavailable, "down"), codes.Unavailable},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, status.Code(grpcError(tt.err)))
		})
	}
}
