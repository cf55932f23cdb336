package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/thraizz/uno-server-go/internal/config"
	"github.com/thraizz/uno-server-go/internal/repository"
)

// API serves the read-only HTTP endpoints.
type API struct {
	service *Service
	results repository.ResultStore
	logger  *zap.Logger
}

func NewAPI(service *Service, results repository.ResultStore, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	if results == nil {
		results = repository.NopStore{}
	}
	return &API{service: service, results: results, logger: logger}
}

// NewHandler routes the websocket endpoint and the API.
func NewHandler(api *API, hub *Hub) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", hub.ServeWS)
	mux.HandleFunc("GET /api/game_state", api.gameState)
	mux.HandleFunc("GET /api/shop", api.shopItems)
	mux.HandleFunc("GET /api/spells", api.spellList)
	mux.HandleFunc("GET /api/results", api.resultList)
	mux.HandleFunc("GET /healthz", api.healthz)
	return mux
}

// NewHTTPServer wraps handler with the configured address.
func NewHTTPServer(cfg config.HTTPConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Address,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// StartHTTPServer serves until ctx is cancelled, then shuts down.
func StartHTTPServer(ctx context.Context, srv *http.Server, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting http server", zap.String("address", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (a *API) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logger.Warn("failed to write response", zap.Error(err))
	}
}

func (a *API) writeError(w http.ResponseWriter, err error) {
	a.writeJSON(w, httpStatus(err), map[string]string{
		"error": err.Error(),
		"code":  errorCode(err).String(),
	})
}

// gameState returns the snapshot for a seat. The seat's token is required
// when seat tokens are enabled; without a seat the spectator view is
// returned.
func (a *API) gameState(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	gameID := q.Get("game_id")
	viewer := Spectator

	if raw := q.Get("seat"); raw != "" {
		seat, err := strconv.Atoi(raw)
		if err != nil {
			a.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "seat must be an integer"})
			return
		}
		token := q.Get("token")
		if token == "" {
			token = bearer(r)
		}
		_, granted, err := a.service.Authorize(gameID, token, seat)
		if err != nil {
			a.writeError(w, err)
			return
		}
		if granted != seat {
			a.writeJSON(w, http.StatusForbidden, map[string]string{"error": "token does not grant this seat"})
			return
		}
		viewer = seat
	}

	snap, err := a.service.State(gameID, viewer)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, snap)
}

func bearer(r *http.Request) string {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

func (a *API) shopItems(w http.ResponseWriter, _ *http.Request) {
	a.writeJSON(w, http.StatusOK, a.service.Sessions().Shop().Items())
}

func (a *API) spellList(w http.ResponseWriter, _ *http.Request) {
	a.writeJSON(w, http.StatusOK, a.service.Sessions().Spells().Spells())
}

func (a *API) resultList(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := a.results.ListResults(r.Context(), limit)
	if err != nil {
		a.logger.Error("failed to list results", zap.Error(err))
		a.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list results"})
		return
	}
	summaries := make([]any, 0, len(results))
	for _, res := range results {
		summaries = append(summaries, map[string]any{
			"game_id":     res.GameID,
			"finished":    res.Finished,
			"winner":      res.Winner,
			"winner_name": res.WinnerName,
			"turns":       res.Turns,
			"players":     res.Players,
			"recorded_at": res.RecordedAt,
		})
	}
	a.writeJSON(w, http.StatusOK, summaries)
}

func (a *API) healthz(w http.ResponseWriter, _ *http.Request) {
	a.writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": a.service.Sessions().Count(),
	})
}
