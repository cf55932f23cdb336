package server

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/thraizz/uno-server-go/internal/auth"
	"github.com/thraizz/uno-server-go/internal/game"
	"github.com/thraizz/uno-server-go/internal/game/cards"
	"github.com/thraizz/uno-server-go/internal/session"
	"github.com/thraizz/uno-server-go/internal/shop"
	"github.com/thraizz/uno-server-go/internal/spells"
)

// Spectator is the viewer seat for clients without a seat token.
const Spectator = -2

var (
	ErrGameIDRequired   = errors.New("game_id is required")
	ErrNoHumanSeat      = errors.New("game needs at least one human seat")
	ErrSpectator        = errors.New("spectators cannot act")
	ErrMalformedRequest = errors.New("malformed request")
)

// CreateGameRequest describes a new game.
type CreateGameRequest struct {
	Players  []game.PlayerOptions `json:"players"`
	HandSize int                  `json:"hand_size,omitempty"`
}

// SeatGrant is a seat and, for humans, the token that controls it.
type SeatGrant struct {
	Seat  int    `json:"seat"`
	Name  string `json:"name"`
	CPU   bool   `json:"cpu"`
	Token string `json:"token,omitempty"`
}

type CreateGameResponse struct {
	GameID string      `json:"game_id"`
	Seats  []SeatGrant `json:"seats"`
}

// MoveRequest is the wire form of game.Move.
type MoveRequest struct {
	CardIndex    *int   `json:"card_index,omitempty"`
	Color        string `json:"color,omitempty"`
	GiveIndex    *int   `json:"give_index,omitempty"`
	TakeIndex    *int   `json:"take_index,omitempty"`
	TargetPlayer *int   `json:"target_player,omitempty"`
	Indices      []int  `json:"indices,omitempty"`
}

// Move converts the request, rejecting unknown colors.
func (r MoveRequest) Move() (game.Move, error) {
	color, err := cards.ParseColor(r.Color)
	if err != nil {
		return game.Move{}, fmt.Errorf("%w: %v", game.ErrInvalidColor, err)
	}
	return game.Move{
		CardIndex: r.CardIndex,
		Color:     color,
		Input: game.ActionInput{
			GiveIndex:    r.GiveIndex,
			TakeIndex:    r.TakeIndex,
			TargetPlayer: r.TargetPlayer,
			Indices:      r.Indices,
		},
	}, nil
}

// ActionResponse is returned for every accepted action.
type ActionResponse struct {
	Result game.Result   `json:"result"`
	State  game.Snapshot `json:"state"`
}

// Service translates client intents into session calls. Both transports
// share it.
type Service struct {
	sessions session.Manager
	tokens   *auth.TokenIssuer
	logger   *zap.Logger
}

// NewService creates a service. A nil token issuer disables seat checks
// and every caller may act for any seat.
func NewService(sessions session.Manager, tokens *auth.TokenIssuer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{sessions: sessions, tokens: tokens, logger: logger}
}

func (s *Service) Sessions() session.Manager { return s.sessions }

// CreateGame starts a session and issues a token per human seat.
func (s *Service) CreateGame(ctx context.Context, req CreateGameRequest) (CreateGameResponse, error) {
	human := false
	for _, p := range req.Players {
		if !p.CPU {
			human = true
		}
	}
	if len(req.Players) > 0 && !human {
		return CreateGameResponse{}, ErrNoHumanSeat
	}

	sess, err := s.sessions.CreateSession(ctx, game.Options{Players: req.Players, HandSize: req.HandSize})
	if err != nil {
		return CreateGameResponse{}, err
	}

	snap := sess.Snapshot(Spectator)
	resp := CreateGameResponse{GameID: sess.ID}
	for _, p := range snap.Players {
		grant := SeatGrant{Seat: p.Seat, Name: p.Name, CPU: p.CPU}
		if !p.CPU && s.tokens != nil {
			grant.Token, err = s.tokens.Issue(sess.ID, p.Seat)
			if err != nil {
				s.sessions.RemoveSession(ctx, sess.ID)
				return CreateGameResponse{}, err
			}
		}
		resp.Seats = append(resp.Seats, grant)
	}
	s.logger.Info("game created",
		zap.String("game_id", sess.ID),
		zap.Int("players", len(resp.Seats)),
	)
	return resp, nil
}

// Lookup returns the session for gameID.
func (s *Service) Lookup(gameID string) (*session.Session, error) {
	gameID = strings.TrimSpace(gameID)
	if gameID == "" {
		return nil, ErrGameIDRequired
	}
	sess, ok := s.sessions.GetSession(gameID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", session.ErrSessionNotFound, gameID)
	}
	return sess, nil
}

// Authorize resolves the seat a token grants. Without an issuer the
// claimed seat is trusted.
func (s *Service) Authorize(gameID, token string, claimed int) (*session.Session, int, error) {
	sess, err := s.Lookup(gameID)
	if err != nil {
		return nil, 0, err
	}
	if s.tokens == nil {
		if claimed < 0 || claimed >= sess.NumPlayers() {
			return nil, 0, fmt.Errorf("%w: %d", session.ErrInvalidSeat, claimed)
		}
		return sess, claimed, nil
	}
	seat, err := s.tokens.Verify(token, sess.ID)
	if err != nil {
		return nil, 0, err
	}
	return sess, seat, nil
}

// State returns the snapshot for viewer.
func (s *Service) State(gameID string, viewer int) (game.Snapshot, error) {
	sess, err := s.Lookup(gameID)
	if err != nil {
		return game.Snapshot{}, err
	}
	return sess.Snapshot(viewer), nil
}

func (s *Service) Play(ctx context.Context, sess *session.Session, seat int, req MoveRequest) (ActionResponse, error) {
	move, err := req.Move()
	if err != nil {
		return ActionResponse{}, err
	}
	return s.respond(sess, seat)(sess.Play(ctx, seat, move))
}

func (s *Service) CannotPlay(ctx context.Context, sess *session.Session, seat int) (ActionResponse, error) {
	return s.respond(sess, seat)(sess.CannotPlay(ctx, seat))
}

func (s *Service) StoreJail(ctx context.Context, sess *session.Session, seat int, index *int) (ActionResponse, error) {
	if index == nil {
		return ActionResponse{}, fmt.Errorf("%w: card_index", game.ErrMissingInput)
	}
	return s.respond(sess, seat)(sess.StoreJail(ctx, seat, *index))
}

func (s *Service) Purchase(sess *session.Session, seat int, item string) (shop.Receipt, error) {
	return sess.Purchase(seat, shop.ItemID(strings.TrimSpace(item)))
}

func (s *Service) Cast(sess *session.Session, seat int, spell string, target *int) (spells.Cast, error) {
	return sess.Cast(seat, spells.SpellID(strings.TrimSpace(spell)), target)
}

// ListGames describes every running session.
func (s *Service) ListGames() []session.Info {
	return s.sessions.ListSessions()
}

// CloseGame ends a session.
func (s *Service) CloseGame(ctx context.Context, gameID string) error {
	if strings.TrimSpace(gameID) == "" {
		return ErrGameIDRequired
	}
	if !s.sessions.RemoveSession(ctx, gameID) {
		return fmt.Errorf("%w: %s", session.ErrSessionNotFound, gameID)
	}
	return nil
}

func (s *Service) respond(sess *session.Session, seat int) func(game.Result, error) (ActionResponse, error) {
	return func(res game.Result, err error) (ActionResponse, error) {
		if err != nil {
			return ActionResponse{}, err
		}
		return ActionResponse{Result: res, State: sess.Snapshot(seat)}, nil
	}
}
