package selector

import (
	"errors"
	"fmt"

	"github.com/rocketscienceinc/marble-solitaire/internal/marble"
)

// Outcome describes what a click did.
type Outcome string

const (
	OutcomeIgnored    Outcome = "ignored"
	OutcomeSelected   Outcome = "selected"
	OutcomeCleared    Outcome = "cleared"
	OutcomeMoved      Outcome = "moved"
	OutcomeReselected Outcome = "reselected"
	OutcomeRejected   Outcome = "rejected"
)

// Board is the part of the engine the selector drives.
type Board interface {
	CellStatus(row, col int) (marble.CellStatus, error)
	Move(fromRow, fromCol, toRow, toCol int) error
}

// Selection pairs two clicks into a move. The zero value has nothing selected.
type Selection struct {
	pending *marble.Position
}

// Pending returns a selection waiting for a destination at pos.
func Pending(pos marble.Position) Selection {
	return Selection{pending: &pos}
}

// Source - the selected marble, if any.
func (that Selection) Source() (marble.Position, bool) {
	if that.pending == nil {
		return marble.Position{}, false
	}

	return *that.pending, true
}

// Result is the effect of one click. Reason carries the rejected move's error
// for OutcomeReselected and OutcomeRejected.
type Result struct {
	Outcome Outcome
	Reason  error
}

// Click applies a click at (row, col) and returns the next selection. Only a
// click outside the board is an error; a rejected move is reported in Result.
func (that Selection) Click(board Board, row, col int) (Selection, Result, error) {
	status, err := board.CellStatus(row, col)
	if err != nil {
		return that, Result{Outcome: OutcomeIgnored}, fmt.Errorf("click: %w", err)
	}

	clicked := marble.Position{Row: row, Col: col}

	source, ok := that.Source()
	if !ok {
		if status != marble.Occupied {
			return that, Result{Outcome: OutcomeIgnored}, nil
		}

		return Pending(clicked), Result{Outcome: OutcomeSelected}, nil
	}

	if source == clicked {
		return Selection{}, Result{Outcome: OutcomeCleared}, nil
	}

	err = board.Move(source.Row, source.Col, row, col)
	switch {
	case err == nil:
		return Selection{}, Result{Outcome: OutcomeMoved}, nil
	case !errors.Is(err, marble.ErrInvalidMove):
		return that, Result{Outcome: OutcomeIgnored}, fmt.Errorf("click: %w", err)
	case status == marble.Occupied:
		// a bad second click on a marble starts a new selection
		return Pending(clicked), Result{Outcome: OutcomeReselected, Reason: err}, nil
	default:
		return Selection{}, Result{Outcome: OutcomeRejected, Reason: err}, nil
	}
}

// GameOverMessage and ScoreMessage are the two status line formats.
const (
	ScoreMessage    = "score: %d"
	GameOverMessage = "Game over. Your score is %d"
)

// StatusLine - the label a front end shows under the board.
func StatusLine(score int, gameOver bool) string {
	if gameOver {
		return fmt.Sprintf(GameOverMessage, score)
	}

	return fmt.Sprintf(ScoreMessage, score)
}
