package server

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/thraizz/uno-server-go/internal/session"
)

// GameServiceName is the fully qualified gRPC service name.
const GameServiceName = "uno.v1.GameService"

// SeatTokenHeader may carry the seat token instead of the request body.
const SeatTokenHeader = "x-seat-token"

// Full method names.
const (
	MethodCreateGame = "/" + GameServiceName + "/CreateGame"
	MethodGetState   = "/" + GameServiceName + "/GetState"
	MethodPlay       = "/" + GameServiceName + "/Play"
	MethodCannotPlay = "/" + GameServiceName + "/CannotPlay"
	MethodStoreJail  = "/" + GameServiceName + "/StoreJail"
	MethodListGames  = "/" + GameServiceName + "/ListGames"
	MethodCloseGame  = "/" + GameServiceName + "/CloseGame"
)

// AdminMethods need the admin password.
var AdminMethods = []string{MethodListGames, MethodCloseGame}

// GameServiceServer is the server API. Every message is a
// google.protobuf.Struct holding the JSON form of the request.
type GameServiceServer interface {
	CreateGame(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetState(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Play(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CannotPlay(context.Context, *structpb.Struct) (*structpb.Struct, error)
	StoreJail(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListGames(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CloseGame(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(GameServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryCall) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		s := srv.(GameServiceServer)
		if interceptor == nil {
			return call(s, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return call(s, ctx, req.(*structpb.Struct))
		})
	}
}

func methodDesc(fullMethod string, call unaryCall) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: fullMethod[strings.LastIndex(fullMethod, "/")+1:],
		Handler:    unaryHandler(fullMethod, call),
	}
}

// GameServiceDesc describes the service for grpc.Server.RegisterService.
var GameServiceDesc = grpc.ServiceDesc{
	ServiceName: GameServiceName,
	HandlerType: (*GameServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		methodDesc(MethodCreateGame, GameServiceServer.CreateGame),
		methodDesc(MethodGetState, GameServiceServer.GetState),
		methodDesc(MethodPlay, GameServiceServer.Play),
		methodDesc(MethodCannotPlay, GameServiceServer.CannotPlay),
		methodDesc(MethodStoreJail, GameServiceServer.StoreJail),
		methodDesc(MethodListGames, GameServiceServer.ListGames),
		methodDesc(MethodCloseGame, GameServiceServer.CloseGame),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "uno/v1/game.proto",
}

// RegisterGameServiceServer registers srv on s.
func RegisterGameServiceServer(s grpc.ServiceRegistrar, srv GameServiceServer) {
	s.RegisterService(&GameServiceDesc, srv)
}

// seatRequest addresses a seat in a game.
type seatRequest struct {
	GameID string `json:"game_id"`
	Token  string `json:"token,omitempty"`
	Seat   *int   `json:"seat,omitempty"`
}

type playRequest struct {
	seatRequest
	MoveRequest
}

type storeJailRequest struct {
	seatRequest
	CardIndex *int `json:"card_index"`
}

type sessionRef struct {
	sess *session.Session
	seat int
}

type gameServer struct {
	service *Service
	logger  *zap.Logger
}

// NewGameServer creates the gRPC implementation over service.
func NewGameServer(service *Service, logger *zap.Logger) GameServiceServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &gameServer{service: service, logger: logger}
}

func decodeStruct(in *structpb.Struct, v any) error {
	raw, err := json.Marshal(in.AsMap())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}
	return nil
}

func encodeStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}

func respond(v any, err error) (*structpb.Struct, error) {
	if err != nil {
		return nil, grpcError(err)
	}
	out, err := encodeStruct(v)
	if err != nil {
		return nil, grpcError(fmt.Errorf("encode response: %w", err))
	}
	return out, nil
}

func tokenFrom(ctx context.Context, body string) string {
	if body != "" {
		return body
	}
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(SeatTokenHeader); len(values) > 0 {
			return values[0]
		}
	}
	return ""
}

func (g *gameServer) authorize(ctx context.Context, req seatRequest) (*sessionRef, error) {
	claimed := Spectator
	if req.Seat != nil {
		claimed = *req.Seat
	}
	sess, seat, err := g.service.Authorize(req.GameID, tokenFrom(ctx, req.Token), claimed)
	if err != nil {
		return nil, err
	}
	return &sessionRef{sess: sess, seat: seat}, nil
}

func (g *gameServer) CreateGame(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req CreateGameRequest
	if err := decodeStruct(in, &req); err != nil {
		return nil, grpcError(err)
	}
	return respond(g.service.CreateGame(ctx, req))
}

// GetState returns the seat's view with a valid token and the spectator
// view without one.
func (g *gameServer) GetState(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req seatRequest
	if err := decodeStruct(in, &req); err != nil {
		return nil, grpcError(err)
	}
	if req.Seat == nil && tokenFrom(ctx, req.Token) == "" {
		return respond(g.service.State(req.GameID, Spectator))
	}
	ref, err := g.authorize(ctx, req)
	if err != nil {
		return nil, grpcError(err)
	}
	return respond(ref.sess.Snapshot(ref.seat), nil)
}

func (g *gameServer) Play(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req playRequest
	if err := decodeStruct(in, &req); err != nil {
		return nil, grpcError(err)
	}
	ref, err := g.authorize(ctx, req.seatRequest)
	if err != nil {
		return nil, grpcError(err)
	}
	return respond(g.service.Play(ctx, ref.sess, ref.seat, req.MoveRequest))
}

func (g *gameServer) CannotPlay(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req seatRequest
	if err := decodeStruct(in, &req); err != nil {
		return nil, grpcError(err)
	}
	ref, err := g.authorize(ctx, req)
	if err != nil {
		return nil, grpcError(err)
	}
	return respond(g.service.CannotPlay(ctx, ref.sess, ref.seat))
}

func (g *gameServer) StoreJail(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req storeJailRequest
	if err := decodeStruct(in, &req); err != nil {
		return nil, grpcError(err)
	}
	ref, err := g.authorize(ctx, req.seatRequest)
	if err != nil {
		return nil, grpcError(err)
	}
	return respond(g.service.StoreJail(ctx, ref.sess, ref.seat, req.CardIndex))
}

func (g *gameServer) ListGames(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return respond(map[string]any{"games": g.service.ListGames()}, nil)
}

func (g *gameServer) CloseGame(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req seatRequest
	if err := decodeStruct(in, &req); err != nil {
		return nil, grpcError(err)
	}
	if err := g.service.CloseGame(ctx, req.GameID); err != nil {
		return nil, grpcError(err)
	}
	g.logger.Info("game closed by admin", zap.String("game_id", req.GameID))
	return respond(map[string]any{"closed": true, "game_id": req.GameID}, nil)
}

// GameServiceClient calls a remote GameService.
type GameServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewGameServiceClient(cc grpc.ClientConnInterface) *GameServiceClient {
	return &GameServiceClient{cc: cc}
}

// Call invokes fullMethod with req encoded as a Struct and decodes the
// reply into resp when resp is non-nil.
func (c *GameServiceClient) Call(ctx context.Context, fullMethod string, req, resp any, opts ...grpc.CallOption) error {
	in, err := encodeStruct(req)
	if err != nil {
		return err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod, in, out, opts...); err != nil {
		return err
	}
	if resp == nil {
		return nil
	}
	return decodeStruct(out, resp)
}
