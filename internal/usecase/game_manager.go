package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/marble-solitaire/internal/apperror"
	"github.com/rocketscienceinc/marble-solitaire/internal/entity"
	"github.com/rocketscienceinc/marble-solitaire/internal/marble"
	"github.com/rocketscienceinc/marble-solitaire/internal/selector"
)

type gameRepo interface {
	CreateOrUpdate(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	DeleteByID(ctx context.Context, id string) error
}

// GameManager runs solitaire sessions on top of the session store. The engine
// is not safe for concurrent use, so every load-modify-save cycle holds mu.
type GameManager struct {
	logger   *slog.Logger
	gameRepo gameRepo

	defaultArmSize int
	maxArmSize     int

	mu sync.Mutex
}

// NewGameManager - zero defaultArmSize means the standard board, zero maxArmSize means the engine limit.
func NewGameManager(logger *slog.Logger, gameRepo gameRepo, defaultArmSize, maxArmSize int) *GameManager {
	if defaultArmSize == 0 {
		defaultArmSize = marble.StandardArmSize
	}

	if maxArmSize == 0 || maxArmSize > marble.MaxArmSize {
		maxArmSize = marble.MaxArmSize
	}

	return &GameManager{
		logger:         logger.With("component", "game_manager"),
		gameRepo:       gameRepo,
		defaultArmSize: defaultArmSize,
		maxArmSize:     maxArmSize,
	}
}

// NewGame - starts a session. Zero armSize uses the configured default, nil empty uses the centre.
func (that *GameManager) NewGame(ctx context.Context, armSize int, empty *marble.Position) (*entity.Game, error) {
	if armSize == 0 {
		armSize = that.defaultArmSize
	}

	if armSize > that.maxArmSize {
		return nil, fmt.Errorf("failed to create board: %w: arm size %d exceeds limit %d", marble.ErrInvalidConfiguration, armSize, that.maxArmSize)
	}

	var board *marble.Board
	var err error

	if empty == nil {
		board, err = marble.NewDefault(armSize)
	} else {
		board, err = marble.New(armSize, empty.Row, empty.Col)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create board: %w", err)
	}

	game := entity.NewGame(uuid.NewString(), board)

	if err = that.gameRepo.CreateOrUpdate(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	that.logger.Info("game created", "gameID", game.ID, "armSize", armSize, "score", game.Score)

	return game, nil
}

func (that *GameManager) GetGame(ctx context.Context, id string) (*entity.Game, error) {
	game, err := that.gameRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	return game, nil
}

// MakeMove - applies one jump. A move that ends the game returns the final
// state together with apperror.ErrGameFinished and removes the session.
func (that *GameManager) MakeMove(ctx context.Context, id string, from, to marble.Position) (*entity.Game, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	game, board, err := that.loadOngoing(ctx, id)
	if err != nil {
		return game, err
	}

	if err = board.Move(from.Row, from.Col, to.Row, to.Col); err != nil {
		return game, fmt.Errorf("failed make move: %w", err)
	}

	game.Apply(board)
	game.SetSelection(selector.Selection{})

	return that.save(ctx, game)
}

// Click - feeds one board click through the selection state stored with the session.
func (that *GameManager) Click(ctx context.Context, id string, row, col int) (*entity.Game, selector.Result, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	game, board, err := that.loadOngoing(ctx, id)
	if err != nil {
		return game, selector.Result{}, err
	}

	next, result, err := game.Selection().Click(board, row, col)
	if err != nil {
		return game, result, fmt.Errorf("failed to handle click: %w", err)
	}

	game.SetSelection(next)

	switch result.Outcome {
	case selector.OutcomeIgnored:
		return game, result, nil
	case selector.OutcomeMoved:
		game.Apply(board)
	case selector.OutcomeRejected, selector.OutcomeReselected:
		that.logger.Debug("move rejected", "gameID", id, "reason", result.Reason)
	}

	game, err = that.save(ctx, game)

	return game, result, err
}

// Abandon - drops a session before it is over.
func (that *GameManager) Abandon(ctx context.Context, id string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.gameRepo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}

	that.logger.Info("game abandoned", "gameID", id)

	return nil
}

func (that *GameManager) loadOngoing(ctx context.Context, id string) (*entity.Game, *marble.Board, error) {
	game, err := that.gameRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get game: %w", err)
	}

	if err = game.ConfirmOngoingState(); err != nil {
		if errors.Is(err, apperror.ErrGameFinished) {
			that.deleteGame(ctx, game)
		}

		return game, nil, err
	}

	board, err := game.Board()
	if err != nil {
		return nil, nil, err
	}

	return game, board, nil
}

func (that *GameManager) save(ctx context.Context, game *entity.Game) (*entity.Game, error) {
	if game.IsFinished() {
		that.deleteGame(ctx, game)

		return game, apperror.ErrGameFinished
	}

	if err := that.gameRepo.CreateOrUpdate(ctx, game); err != nil {
		return nil, fmt.Errorf("failed update game: %w", err)
	}

	return game, nil
}

func (that *GameManager) deleteGame(ctx context.Context, game *entity.Game) {
	log := that.logger.With("method", "deleteGame", "gameID", game.ID)

	if err := that.gameRepo.DeleteByID(ctx, game.ID); err != nil && !errors.Is(err, apperror.ErrGameNotFound) {
		log.Error("failed to delete game", "error", err)
		return
	}

	log.Info("game finished", "score", game.Score)
}
