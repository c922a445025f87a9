package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/marble-solitaire/internal/apperror"
	"github.com/rocketscienceinc/marble-solitaire/internal/entity"
	"github.com/rocketscienceinc/marble-solitaire/internal/marble"
	"github.com/rocketscienceinc/marble-solitaire/internal/selector"
)

const shutdownTimeout = 5 * time.Second

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrMissingGameID = errors.New("game_id query parameter is required")
)

type gameUseCase interface {
	GetGame(ctx context.Context, id string) (*entity.Game, error)
	MakeMove(ctx context.Context, id string, from, to marble.Position) (*entity.Game, error)
	Click(ctx context.Context, id string, row, col int) (*entity.Game, selector.Result, error)
}

type handlerFunc func(ctx context.Context, gameID string, msg *Message) (*ResponsePayload, error)

type Server struct {
	logger   *slog.Logger
	games    gameUseCase
	hub      *Hub
	upgrader websocket.Upgrader
	conns    sync.WaitGroup

	handlers map[string]handlerFunc
}

func New(logger *slog.Logger, games gameUseCase) *Server {
	log := logger.With("component", "websocket")

	server := &Server{
		logger: log,
		games:  games,
		hub:    NewHub(log),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},

		handlers: make(map[string]handlerFunc),
	}

	server.handlers[actionState] = server.handleState
	server.handlers[actionClick] = server.handleClick
	server.handlers[actionMove] = server.handleMove

	return server
}

func (that *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", that.serveWS)

	return mux
}

// Start - starts WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()

		that.shutdown(srv)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	<-stopped

	return nil
}

// shutdown - stops accepting connections, then closes the hijacked ones,
// which Shutdown does not track, and waits for their read loops to end.
func (that *Server) shutdown(srv *http.Server) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		that.logger.Error("failed to shutdown WebSocket server", "error", err)
	}

	deadline, _ := shutdownCtx.Deadline()
	closed := that.hub.closeAll(deadline)

	done := make(chan struct{})
	go func() {
		that.conns.Wait()
		close(done)
	}()

	select {
	case <-done:
		that.logger.Info("closed websocket connections", "count", closed)
	case <-shutdownCtx.Done():
		that.logger.Warn("websocket connections still open after shutdown timeout", "count", closed)
	}
}

// serveWS - upgrades the connection and serves one game until the client leaves.
func (that *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "serveWS")

	gameID := r.URL.Query().Get("game_id")
	if gameID == "" {
		http.Error(w, ErrMissingGameID.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	game, err := that.games.GetGame(ctx, gameID)
	if errors.Is(err, apperror.ErrGameNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		log.Error("failed to get game", "gameID", gameID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	that.conns.Add(1)

	c := &client{conn: conn}
	that.hub.register(gameID, c)

	defer func() {
		that.hub.unregister(gameID, c)
		_ = conn.Close()
		that.conns.Done()
	}()

	log = log.With("gameID", gameID)
	log.Info("client connected")

	if err = c.send(Response{Action: actionState, Payload: &ResponsePayload{Game: game, GameOver: game.IsFinished()}}); err != nil {
		log.Error("failed to send initial state", "error", err)
		return
	}

	for {
		var msg Message
		if err = conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("connection closed", "error", err)
			}
			return
		}

		that.dispatch(ctx, gameID, c, &msg)
	}
}

func (that *Server) dispatch(ctx context.Context, gameID string, c *client, msg *Message) {
	log := that.logger.With("method", "dispatch", "gameID", gameID, "action", msg.Action)

	handler, ok := that.handlers[msg.Action]
	if !ok {
		that.sendError(c, msg.Action, ErrUnknownAction)
		return
	}

	payload, err := handler(ctx, gameID, msg)
	if err != nil {
		log.Debug("request rejected", "error", err)
		that.sendError(c, msg.Action, err)
		return
	}

	resp := Response{Action: msg.Action, Payload: payload}
	if err = c.send(resp); err != nil {
		log.Error("failed to send response", "error", err)
		return
	}

	if msg.Action != actionState {
		that.hub.broadcast(gameID, Response{Action: actionState, Payload: payload}, c)
	}
}

func (that *Server) handleState(ctx context.Context, gameID string, _ *Message) (*ResponsePayload, error) {
	game, err := that.games.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}

	return &ResponsePayload{Game: game, GameOver: game.IsFinished()}, nil
}

func (that *Server) handleClick(ctx context.Context, gameID string, msg *Message) (*ResponsePayload, error) {
	var req ClickPayload
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	game, result, err := that.games.Click(ctx, gameID, req.Row, req.Col)
	payload, err := finalState(game, err)
	if err != nil {
		return nil, err
	}

	payload.Outcome = string(result.Outcome)
	if result.Reason != nil {
		payload.Reason = result.Reason.Error()
	}

	return payload, nil
}

func (that *Server) handleMove(ctx context.Context, gameID string, msg *Message) (*ResponsePayload, error) {
	var req MovePayload
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	from := marble.Position{Row: req.FromRow, Col: req.FromCol}
	to := marble.Position{Row: req.ToRow, Col: req.ToCol}

	return finalState(that.games.MakeMove(ctx, gameID, from, to))
}

// finalState turns a finished game into a normal payload with GameOver set.
func finalState(game *entity.Game, err error) (*ResponsePayload, error) {
	switch {
	case err == nil:
		return &ResponsePayload{Game: game}, nil
	case errors.Is(err, apperror.ErrGameFinished) && game != nil:
		return &ResponsePayload{Game: game, GameOver: true}, nil
	default:
		return nil, err
	}
}

func (that *Server) sendError(c *client, action string, err error) {
	if sendErr := c.send(Response{Action: actionError, Error: fmt.Sprintf("%s: %v", action, err)}); sendErr != nil {
		that.logger.Error("failed to send error response", "error", sendErr)
	}
}
