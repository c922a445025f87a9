package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rocketscienceinc/marble-solitaire/internal/apperror"
	"github.com/rocketscienceinc/marble-solitaire/internal/entity"
	"github.com/rocketscienceinc/marble-solitaire/internal/marble"
)

var errEmptySlotPair = errors.New("empty_row and empty_col must be given together")

func (that *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req NewGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		that.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	var empty *marble.Position
	switch {
	case req.EmptyRow != nil && req.EmptyCol != nil:
		empty = &marble.Position{Row: *req.EmptyRow, Col: *req.EmptyCol}
	case req.EmptyRow != nil || req.EmptyCol != nil:
		that.writeError(w, r, http.StatusBadRequest, errEmptySlotPair)
		return
	}

	game, err := that.games.NewGame(r.Context(), req.ArmSize, empty)
	if err != nil {
		that.writeGameError(w, r, game, err)
		return
	}

	writeJSON(w, http.StatusCreated, GameResponse{Game: game})
}

func (that *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	game, err := that.games.GetGame(r.Context(), chi.URLParam(r, "gameID"))
	if err != nil {
		that.writeGameError(w, r, game, err)
		return
	}

	writeJSON(w, http.StatusOK, GameResponse{Game: game, GameOver: game.IsFinished()})
}

func (that *Server) handleRenderBoard(w http.ResponseWriter, r *http.Request) {
	game, err := that.games.GetGame(r.Context(), chi.URLParam(r, "gameID"))
	if err != nil {
		that.writeGameError(w, r, game, err)
		return
	}

	board, err := game.Board()
	if err != nil {
		that.writeGameError(w, r, nil, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(board.RenderText() + "\n" + game.Message + "\n"))
}

func (that *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		that.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	from := marble.Position{Row: req.FromRow, Col: req.FromCol}
	to := marble.Position{Row: req.ToRow, Col: req.ToCol}

	game, err := that.games.MakeMove(r.Context(), chi.URLParam(r, "gameID"), from, to)
	if err != nil {
		that.writeGameError(w, r, game, err)
		return
	}

	writeJSON(w, http.StatusOK, GameResponse{Game: game})
}

func (that *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	var req ClickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		that.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	game, result, err := that.games.Click(r.Context(), chi.URLParam(r, "gameID"), req.Row, req.Col)
	if err != nil && !errors.Is(err, apperror.ErrGameFinished) {
		that.writeGameError(w, r, game, err)
		return
	}

	resp := GameResponse{
		Game:     game,
		GameOver: errors.Is(err, apperror.ErrGameFinished),
		Outcome:  string(result.Outcome),
	}
	if result.Reason != nil {
		resp.Reason = result.Reason.Error()
	}

	writeJSON(w, http.StatusOK, resp)
}

func (that *Server) handleAbandon(w http.ResponseWriter, r *http.Request) {
	if err := that.games.Abandon(r.Context(), chi.URLParam(r, "gameID")); err != nil {
		that.writeGameError(w, r, nil, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// writeGameError maps use case errors to responses. A finished game is not a
// failure: the final state is sent with game_over set.
func (that *Server) writeGameError(w http.ResponseWriter, r *http.Request, game *entity.Game, err error) {
	switch {
	case errors.Is(err, apperror.ErrGameFinished) && game != nil:
		writeJSON(w, http.StatusOK, GameResponse{Game: game, GameOver: true})
	case errors.Is(err, apperror.ErrGameFinished):
		that.writeError(w, r, http.StatusConflict, err)
	case errors.Is(err, apperror.ErrGameNotFound):
		that.writeError(w, r, http.StatusNotFound, err)
	case errors.Is(err, marble.ErrInvalidMove):
		that.writeError(w, r, http.StatusUnprocessableEntity, err)
	case errors.Is(err, marble.ErrInvalidConfiguration), errors.Is(err, marble.ErrInvalidPosition):
		that.writeError(w, r, http.StatusBadRequest, err)
	default:
		that.logger.Error("request failed", "method", r.Method, "path", r.URL.Path,
			"requestID", middleware.GetReqID(r.Context()), "error", err)
		that.writeError(w, r, http.StatusInternalServerError, errors.New(http.StatusText(http.StatusInternalServerError)))
	}
}

func (that *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	that.logger.Debug("request rejected", "path", r.URL.Path, "status", status, "error", err)
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
