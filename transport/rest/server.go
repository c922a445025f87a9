package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rocketscienceinc/marble-solitaire/internal/entity"
	"github.com/rocketscienceinc/marble-solitaire/internal/marble"
	"github.com/rocketscienceinc/marble-solitaire/internal/selector"
)

const shutdownTimeout = 5 * time.Second

type gameUseCase interface {
	NewGame(ctx context.Context, armSize int, empty *marble.Position) (*entity.Game, error)
	GetGame(ctx context.Context, id string) (*entity.Game, error)
	MakeMove(ctx context.Context, id string, from, to marble.Position) (*entity.Game, error)
	Click(ctx context.Context, id string, row, col int) (*entity.Game, selector.Result, error)
	Abandon(ctx context.Context, id string) error
}

type Server struct {
	logger *slog.Logger
	games  gameUseCase
	router *chi.Mux
}

func New(logger *slog.Logger, games gameUseCase) *Server {
	server := &Server{
		logger: logger.With("component", "rest"),
		games:  games,
		router: chi.NewRouter(),
	}

	server.router.Use(middleware.RequestID)
	server.router.Use(middleware.RealIP)
	server.router.Use(middleware.Recoverer)
	server.router.Use(middleware.Timeout(10 * time.Second))

	server.router.Get("/ping", pingHandler)

	server.router.Route("/games", func(r chi.Router) {
		r.Post("/", server.handleNewGame)

		r.Route("/{gameID}", func(r chi.Router) {
			r.Get("/", server.handleGetGame)
			r.Get("/board", server.handleRenderBoard)
			r.Post("/move", server.handleMove)
			r.Post("/click", server.handleClick)
			r.Delete("/", server.handleAbandon)
		})
	})

	return server
}

func (that *Server) Handler() http.Handler {
	return that.router
}

// Start - serves HTTP until ctx is canceled.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shutdown HTTP server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	<-stopped

	return nil
}
