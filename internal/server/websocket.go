package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/thraizz/uno-server-go/internal/session"
)

// Message types.
const (
	MsgCreateGame  = "create_game"
	MsgJoinGame    = "join_game"
	MsgPlay        = "play"
	MsgCannotPlay  = "cannot_play"
	MsgStoreJail   = "store_jail"
	MsgPurchase    = "purchase"
	MsgCast        = "cast"
	MsgState       = "state"
	MsgGameCreated = "game_created"
	MsgGameState   = "game_state"
	MsgResult      = "action_result"
	MsgReceipt     = "purchase_result"
	MsgCastResult  = "cast_result"
	MsgError       = "error"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 << 10
	sendBuffer     = 256
)

// WSMessage is the envelope for every websocket frame.
type WSMessage struct {
	Type   string          `json:"type"`
	GameID string          `json:"game_id,omitempty"`
	Player *int            `json:"player,omitempty"`
	Token  string          `json:"token,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// ErrorData is the payload of an error message.
type ErrorData struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	For   string `json:"for,omitempty"`
}

type storeJailData struct {
	CardIndex *int `json:"card_index"`
}

type purchaseData struct {
	Item string `json:"item"`
}

type castData struct {
	Spell  string `json:"spell"`
	Target *int   `json:"target,omitempty"`
}

// Client is one websocket connection. It follows at most one game.
type Client struct {
	conn      *websocket.Conn
	send      chan []byte
	closed    chan struct{}
	closeOnce sync.Once

	mu     sync.Mutex
	gameID string
	seat   int
}

func (c *Client) binding() (string, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gameID, c.seat
}

func (c *Client) bind(gameID string, seat int) {
	c.mu.Lock()
	c.gameID, c.seat = gameID, seat
	c.mu.Unlock()
}

func (c *Client) shutdown() {
	c.closeOnce.Do(func() { close(c.closed) })
}

// enqueue queues frame without blocking. It drops the frame when the
// buffer is full or the client is gone.
func (c *Client) enqueue(frame []byte) bool {
	select {
	case <-c.closed:
		return false
	default:
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// Hub tracks clients and pushes per-seat state after every change.
type Hub struct {
	service  *Service
	logger   *zap.Logger
	upgrader websocket.Upgrader

	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan string
	done       chan struct{}
}

// NewHub creates a hub. An empty allowedOrigins accepts any origin.
func NewHub(service *Service, allowedOrigins []string, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}
	return &Hub{
		service: service,
		logger:  logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				if len(origins) == 0 {
					return true
				}
				return origins[r.Header.Get("Origin")]
			},
		},
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan string, 64),
		done:       make(chan struct{}),
	}
}

// Run owns the client set until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				client.shutdown()
				client.conn.Close()
				delete(h.clients, client)
			}
			return

		case client := <-h.register:
			h.clients[client] = true
			h.logger.Debug("client registered", zap.Int("clients", len(h.clients)))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.shutdown()
				h.logger.Debug("client unregistered", zap.Int("clients", len(h.clients)))
			}

		case gameID := <-h.broadcast:
			h.broadcastGameState(gameID)
		}
	}
}

// broadcastGameState sends each follower of gameID the view of its seat.
// Runs on the hub goroutine.
func (h *Hub) broadcastGameState(gameID string) {
	sess, err := h.service.Lookup(gameID)
	if err != nil {
		return
	}
	views := make(map[int][]byte)
	for client := range h.clients {
		id, seat := client.binding()
		if id != gameID {
			continue
		}
		frame, ok := views[seat]
		if !ok {
			frame = encode(MsgGameState, gameID, sess.Snapshot(seat))
			views[seat] = frame
		}
		if !client.enqueue(frame) {
			h.logger.Warn("dropping game state for slow client", zap.String("game_id", gameID))
		}
	}
}

func (h *Hub) notify(gameID string) {
	select {
	case h.broadcast <- gameID:
	case <-h.done:
	}
}

func encode(msgType, gameID string, data any) []byte {
	raw, err := json.Marshal(data)
	if err != nil {
		raw, _ = json.Marshal(ErrorData{Error: err.Error(), Code: "Internal"})
		msgType = MsgError
	}
	frame, _ := json.Marshal(WSMessage{Type: msgType, GameID: gameID, Data: raw})
	return frame
}

func (h *Hub) reply(c *Client, msgType, gameID string, data any) {
	if !c.enqueue(encode(msgType, gameID, data)) {
		h.logger.Warn("dropping reply", zap.String("type", msgType))
	}
}

func (h *Hub) fail(c *Client, msg WSMessage, err error) {
	h.reply(c, MsgError, msg.GameID, ErrorData{Error: err.Error(), Code: errorCode(err).String(), For: msg.Type})
}

func decodeData(msg WSMessage, v any) error {
	if len(msg.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(msg.Data, v); err != nil {
		return fmt.Errorf("%w: %s data: %v", ErrMalformedRequest, msg.Type, err)
	}
	return nil
}

// actor resolves the game and seat a message acts for. A token or game id
// on the message rebinds the client first.
func (h *Hub) actor(c *Client, msg WSMessage) (string, int, error) {
	if msg.GameID != "" || msg.Token != "" {
		gameID := msg.GameID
		if gameID == "" {
			gameID, _ = c.binding()
		}
		claimed := Spectator
		if msg.Player != nil {
			claimed = *msg.Player
		}
		_, seat, err := h.service.Authorize(gameID, msg.Token, claimed)
		if err != nil {
			return "", 0, err
		}
		c.bind(gameID, seat)
	}
	gameID, seat := c.binding()
	if gameID == "" {
		return "", 0, ErrGameIDRequired
	}
	if seat < 0 {
		return "", 0, ErrSpectator
	}
	return gameID, seat, nil
}

func (h *Hub) handleMessage(ctx context.Context, c *Client, msg WSMessage) {
	h.logger.Debug("received message", zap.String("type", msg.Type), zap.String("game_id", msg.GameID))

	switch msg.Type {
	case MsgCreateGame:
		var req CreateGameRequest
		if err := decodeData(msg, &req); err != nil {
			h.fail(c, msg, err)
			return
		}
		resp, err := h.service.CreateGame(ctx, req)
		if err != nil {
			h.fail(c, msg, err)
			return
		}
		seat := Spectator
		for _, s := range resp.Seats {
			if !s.CPU {
				seat = s.Seat
				break
			}
		}
		c.bind(resp.GameID, seat)
		h.reply(c, MsgGameCreated, resp.GameID, resp)
		h.notify(resp.GameID)

	case MsgJoinGame:
		seat := Spectator
		if msg.Token != "" || msg.Player != nil {
			claimed := Spectator
			if msg.Player != nil {
				claimed = *msg.Player
			}
			_, granted, err := h.service.Authorize(msg.GameID, msg.Token, claimed)
			if err != nil {
				h.fail(c, msg, err)
				return
			}
			seat = granted
		} else if _, err := h.service.Lookup(msg.GameID); err != nil {
			h.fail(c, msg, err)
			return
		}
		c.bind(msg.GameID, seat)
		h.sendState(c, msg)

	case MsgState:
		h.sendState(c, msg)

	case MsgPlay, MsgCannotPlay, MsgStoreJail:
		h.handleAction(ctx, c, msg)

	case MsgPurchase:
		gameID, seat, sess, err := h.actingSession(c, msg)
		if err != nil {
			h.fail(c, msg, err)
			return
		}
		var data purchaseData
		if err := decodeData(msg, &data); err != nil {
			h.fail(c, msg, err)
			return
		}
		receipt, err := h.service.Purchase(sess, seat, data.Item)
		if err != nil {
			h.fail(c, msg, err)
			return
		}
		h.reply(c, MsgReceipt, gameID, receipt)
		h.notify(gameID)

	case MsgCast:
		gameID, seat, sess, err := h.actingSession(c, msg)
		if err != nil {
			h.fail(c, msg, err)
			return
		}
		var data castData
		if err := decodeData(msg, &data); err != nil {
			h.fail(c, msg, err)
			return
		}
		cast, err := h.service.Cast(sess, seat, data.Spell, data.Target)
		if err != nil {
			h.fail(c, msg, err)
			return
		}
		h.reply(c, MsgCastResult, gameID, cast)
		h.notify(gameID)

	default:
		h.fail(c, msg, fmt.Errorf("%w: unknown message type %q", ErrMalformedRequest, msg.Type))
	}
}

func (h *Hub) actingSession(c *Client, msg WSMessage) (string, int, *session.Session, error) {
	gameID, seat, err := h.actor(c, msg)
	if err != nil {
		return "", 0, nil, err
	}
	sess, err := h.service.Lookup(gameID)
	if err != nil {
		return "", 0, nil, err
	}
	return gameID, seat, sess, nil
}

func (h *Hub) handleAction(ctx context.Context, c *Client, msg WSMessage) {
	gameID, seat, sess, err := h.actingSession(c, msg)
	if err != nil {
		h.fail(c, msg, err)
		return
	}

	var resp ActionResponse
	switch msg.Type {
	case MsgPlay:
		var req MoveRequest
		if err = decodeData(msg, &req); err == nil {
			resp, err = h.service.Play(ctx, sess, seat, req)
		}
	case MsgCannotPlay:
		resp, err = h.service.CannotPlay(ctx, sess, seat)
	case MsgStoreJail:
		var data storeJailData
		if err = decodeData(msg, &data); err == nil {
			resp, err = h.service.StoreJail(ctx, sess, seat, data.CardIndex)
		}
	}
	if err != nil {
		h.fail(c, msg, err)
		return
	}
	h.reply(c, MsgResult, gameID, resp.Result)
	h.notify(gameID)
}

func (h *Hub) sendState(c *Client, msg WSMessage) {
	gameID, seat := c.binding()
	if gameID == "" {
		h.fail(c, msg, ErrGameIDRequired)
		return
	}
	snap, err := h.service.State(gameID, seat)
	if err != nil {
		h.fail(c, msg, err)
		return
	}
	h.reply(c, MsgGameState, gameID, snap)
}

func (h *Hub) readPump(ctx context.Context, c *Client) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.shutdown()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read failed", zap.Error(err))
			}
			return
		}

		var msg WSMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			h.fail(c, WSMessage{}, fmt.Errorf("%w: %v", ErrMalformedRequest, err))
			continue
		}
		h.handleMessage(ctx, c, msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.closed:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWS upgrades the request and starts the client pumps.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		closed: make(chan struct{}),
		seat:   Spectator,
	}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go h.readPump(context.WithoutCancel(r.Context()), client)
}
