package marble

import (
	"errors"
	"fmt"
)

// CellStatus is the state of a single board cell.
type CellStatus int

const (
	Forbidden CellStatus = iota
	Occupied
	Empty
)

var ErrUnknownCellStatus = errors.New("unknown cell status")

func (that CellStatus) String() string {
	switch that {
	case Forbidden:
		return "forbidden"
	case Occupied:
		return "occupied"
	case Empty:
		return "empty"
	default:
		return fmt.Sprintf("CellStatus(%d)", int(that))
	}
}

func (that CellStatus) MarshalText() ([]byte, error) {
	switch that {
	case Forbidden, Occupied, Empty:
		return []byte(that.String()), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCellStatus, int(that))
	}
}

func (that *CellStatus) UnmarshalText(text []byte) error {
	switch string(text) {
	case "forbidden":
		*that = Forbidden
	case "occupied":
		*that = Occupied
	case "empty":
		*that = Empty
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCellStatus, text)
	}

	return nil
}

// symbol - one character of the text rendering.
func (that CellStatus) symbol() string {
	switch that {
	case Occupied:
		return "O"
	case Empty:
		return "_"
	default:
		return " "
	}
}

// Position addresses a cell by zero-based row and column.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Jump is a single legal move: From jumps over Over and lands on To.
type Jump struct {
	From Position `json:"from"`
	Over Position `json:"over"`
	To   Position `json:"to"`
}

// directions are the four orthogonal unit steps.
var directions = [4]Position{
	{Row: -1, Col: 0},
	{Row: 1, Col: 0},
	{Row: 0, Col: -1},
	{Row: 0, Col: 1},
}
