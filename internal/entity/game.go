package entity

import (
	"errors"
	"fmt"

	"github.com/rocketscienceinc/marble-solitaire/internal/apperror"
	"github.com/rocketscienceinc/marble-solitaire/internal/marble"
	"github.com/rocketscienceinc/marble-solitaire/internal/selector"
)

const (
	StatusFinished = "finished"
	StatusOngoing  = "ongoing"
)

var ErrUnknownGameStatus = errors.New("unknown game status")

// Game is a live solitaire session as kept in the session store.
type Game struct {
	ID       string                `json:"id"`
	ArmSize  int                   `json:"arm_size"`
	Cells    [][]marble.CellStatus `json:"cells"`
	Score    int                   `json:"score"`
	Status   string                `json:"status"`
	Selected *marble.Position      `json:"selected,omitempty"`
	Message  string                `json:"message"`
}

func NewGame(id string, board *marble.Board) *Game {
	game := &Game{
		ID:      id,
		ArmSize: board.ArmSize(),
	}
	game.Apply(board)

	return game
}

// Board - rebuilds the engine from the stored cells.
func (that *Game) Board() (*marble.Board, error) {
	board, err := marble.Restore(that.ArmSize, that.Cells)
	if err != nil {
		return nil, fmt.Errorf("failed to restore board of game %s: %w", that.ID, err)
	}

	return board, nil
}

// Apply - copies the engine state into the session and derives the status.
func (that *Game) Apply(board *marble.Board) {
	that.Cells = board.Cells()
	that.Score = board.Score()

	gameOver := board.IsGameOver()
	if gameOver {
		that.Status = StatusFinished
		that.Selected = nil
	} else {
		that.Status = StatusOngoing
	}

	that.Message = selector.StatusLine(that.Score, gameOver)
}

// Selection - the pending click stored with the session.
func (that *Game) Selection() selector.Selection {
	if that.Selected == nil {
		return selector.Selection{}
	}

	return selector.Pending(*that.Selected)
}

func (that *Game) SetSelection(sel selector.Selection) {
	if source, ok := sel.Source(); ok {
		that.Selected = &source
		return
	}

	that.Selected = nil
}

func (that *Game) IsFinished() bool {
	return that.Status == StatusFinished
}

func (that *Game) IsOngoing() bool {
	return that.Status == StatusOngoing
}

func (that *Game) ConfirmOngoingState() error {
	switch {
	case that.IsFinished():
		return apperror.ErrGameFinished
	case that.IsOngoing():
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownGameStatus, that.Status)
	}
}
