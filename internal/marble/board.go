package marble

import (
	"errors"
	"fmt"
	"strings"
)

const (
	StandardArmSize = 3
	// MaxArmSize bounds a board to 511x511 cells.
	MaxArmSize = 255
)

var (
	ErrInvalidConfiguration = errors.New("invalid board configuration")
	ErrInvalidPosition      = errors.New("invalid cell position")
	ErrInvalidMove          = errors.New("invalid move")

	ErrSourceNotOccupied   = errors.New("source cell holds no marble")
	ErrDestinationNotEmpty = errors.New("destination cell is not an empty slot")
	ErrBadDisplacement     = errors.New("marble must move exactly two cells horizontally or vertically")
	ErrNothingToJump       = errors.New("marble must jump over exactly one marble")
)

// Board is a cross-shaped peg solitaire board. It is not safe for concurrent use.
type Board struct {
	armSize   int
	boardSize int
	cells     [][]CellStatus
	score     int
}

// New - creates a board with the given arm thickness and the empty slot at (emptyRow, emptyCol).
func New(armSize, emptyRow, emptyCol int) (*Board, error) {
	if err := validateArmSize(armSize); err != nil {
		return nil, err
	}

	board := &Board{
		armSize:   armSize,
		boardSize: 2*armSize + 1,
	}

	if !board.inBounds(emptyRow, emptyCol) || board.isForbidden(emptyRow, emptyCol) {
		return nil, fmt.Errorf("%w: empty slot (%d,%d) is not a playable cell", ErrInvalidConfiguration, emptyRow, emptyCol)
	}

	board.cells = make([][]CellStatus, board.boardSize)
	for row := range board.cells {
		board.cells[row] = make([]CellStatus, board.boardSize)
		for col := range board.cells[row] {
			switch {
			case board.isForbidden(row, col):
				board.cells[row][col] = Forbidden
			case row == emptyRow && col == emptyCol:
				board.cells[row][col] = Empty
			default:
				board.cells[row][col] = Occupied
			}
		}
	}

	forbidSize := board.forbidSize()
	board.score = board.boardSize*board.boardSize - 4*forbidSize*forbidSize - 1

	return board, nil
}

// NewDefault - creates a board with the empty slot in the centre.
func NewDefault(armSize int) (*Board, error) {
	return New(armSize, armSize, armSize)
}

// NewStandard - the classic 33-hole English board.
func NewStandard() *Board {
	board, err := NewDefault(StandardArmSize)
	if err != nil {
		panic(fmt.Errorf("standard board: %w", err))
	}

	return board
}

// Restore rebuilds a board from a Cells snapshot. The forbidden layout must
// match armSize exactly; the score is the number of occupied cells.
func Restore(armSize int, cells [][]CellStatus) (*Board, error) {
	if err := validateArmSize(armSize); err != nil {
		return nil, err
	}

	board := &Board{
		armSize:   armSize,
		boardSize: 2*armSize + 1,
	}

	if len(cells) != board.boardSize {
		return nil, fmt.Errorf("%w: expected %d rows, got %d", ErrInvalidConfiguration, board.boardSize, len(cells))
	}

	board.cells = make([][]CellStatus, board.boardSize)
	for row := range cells {
		if len(cells[row]) != board.boardSize {
			return nil, fmt.Errorf("%w: row %d has %d cells", ErrInvalidConfiguration, row, len(cells[row]))
		}

		board.cells[row] = make([]CellStatus, board.boardSize)
		for col, status := range cells[row] {
			if (status == Forbidden) != board.isForbidden(row, col) {
				return nil, fmt.Errorf("%w: cell (%d,%d) is %s", ErrInvalidConfiguration, row, col, status)
			}

			switch status {
			case Occupied:
				board.score++
			case Empty, Forbidden:
			default:
				return nil, fmt.Errorf("%w: cell (%d,%d): %w", ErrInvalidConfiguration, row, col, ErrUnknownCellStatus)
			}

			board.cells[row][col] = status
		}
	}

	return board, nil
}

func validateArmSize(armSize int) error {
	if armSize < StandardArmSize || armSize%2 == 0 {
		return fmt.Errorf("%w: arm size must be an odd integer >= %d, got %d", ErrInvalidConfiguration, StandardArmSize, armSize)
	}

	if armSize > MaxArmSize {
		return fmt.Errorf("%w: arm size must not exceed %d, got %d", ErrInvalidConfiguration, MaxArmSize, armSize)
	}

	return nil
}

func (that *Board) ArmSize() int {
	return that.armSize
}

func (that *Board) BoardSize() int {
	return that.boardSize
}

// Score - number of marbles left on the board.
func (that *Board) Score() int {
	return that.score
}

// CellStatus - returns the state of the cell at (row, col).
func (that *Board) CellStatus(row, col int) (CellStatus, error) {
	if !that.inBounds(row, col) {
		return Forbidden, fmt.Errorf("%w: (%d,%d)", ErrInvalidPosition, row, col)
	}

	return that.cells[row][col], nil
}

// Cells - deep copy of the board contents, indexed [row][col].
func (that *Board) Cells() [][]CellStatus {
	cells := make([][]CellStatus, that.boardSize)
	for row := range that.cells {
		cells[row] = append([]CellStatus(nil), that.cells[row]...)
	}

	return cells
}

// Move - jumps the marble at (fromRow, fromCol) over its neighbour into the
// empty slot at (toRow, toCol). On error the board is left untouched.
func (that *Board) Move(fromRow, fromCol, toRow, toCol int) error {
	from, err := that.CellStatus(fromRow, fromCol)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMove, err)
	}

	if from != Occupied {
		return fmt.Errorf("%w: %w: (%d,%d) is %s", ErrInvalidMove, ErrSourceNotOccupied, fromRow, fromCol, from)
	}

	to, err := that.CellStatus(toRow, toCol)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMove, err)
	}

	if to != Empty {
		return fmt.Errorf("%w: %w: (%d,%d) is %s", ErrInvalidMove, ErrDestinationNotEmpty, toRow, toCol, to)
	}

	rowDiff, colDiff := toRow-fromRow, toCol-fromCol
	if !isJumpDisplacement(rowDiff, colDiff) {
		return fmt.Errorf("%w: %w: (%d,%d) -> (%d,%d)", ErrInvalidMove, ErrBadDisplacement, fromRow, fromCol, toRow, toCol)
	}

	midRow, midCol := fromRow+rowDiff/2, fromCol+colDiff/2
	if that.cells[midRow][midCol] != Occupied {
		return fmt.Errorf("%w: %w: (%d,%d) is %s", ErrInvalidMove, ErrNothingToJump, midRow, midCol, that.cells[midRow][midCol])
	}

	that.cells[fromRow][fromCol] = Empty
	that.cells[midRow][midCol] = Empty
	that.cells[toRow][toCol] = Occupied
	that.score--

	return nil
}

func isJumpDisplacement(rowDiff, colDiff int) bool {
	return (abs(rowDiff) == 2 && colDiff == 0) || (rowDiff == 0 && abs(colDiff) == 2)
}

// LegalMoves - every jump that Move would accept right now, in row-major order of the source.
func (that *Board) LegalMoves() []Jump {
	var jumps []Jump

	for row := range that.cells {
		for col := range that.cells[row] {
			if that.cells[row][col] != Occupied {
				continue
			}

			for _, dir := range directions {
				if jump, ok := that.jumpFrom(row, col, dir); ok {
					jumps = append(jumps, jump)
				}
			}
		}
	}

	return jumps
}

// IsGameOver - true when no marble can make a legal jump.
func (that *Board) IsGameOver() bool {
	for row := range that.cells {
		for col := range that.cells[row] {
			if that.cells[row][col] != Occupied {
				continue
			}

			for _, dir := range directions {
				if _, ok := that.jumpFrom(row, col, dir); ok {
					return false
				}
			}
		}
	}

	return true
}

// jumpFrom checks a single direction; landings off the board are simply not candidates.
func (that *Board) jumpFrom(row, col int, dir Position) (Jump, bool) {
	overRow, overCol := row+dir.Row, col+dir.Col
	toRow, toCol := row+2*dir.Row, col+2*dir.Col

	if !that.inBounds(toRow, toCol) {
		return Jump{}, false
	}

	if that.cells[overRow][overCol] != Occupied || that.cells[toRow][toCol] != Empty {
		return Jump{}, false
	}

	return Jump{
		From: Position{Row: row, Col: col},
		Over: Position{Row: overRow, Col: overCol},
		To:   Position{Row: toRow, Col: toCol},
	}, true
}

// RenderText - one line per row, cells separated by a single space:
// "O" marble, "_" empty slot, " " forbidden.
func (that *Board) RenderText() string {
	var sb strings.Builder

	for row := range that.cells {
		if row > 0 {
			sb.WriteByte('\n')
		}

		for col, status := range that.cells[row] {
			if col > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(status.symbol())
		}
	}

	return sb.String()
}

func (that *Board) String() string {
	return that.RenderText()
}

func (that *Board) inBounds(row, col int) bool {
	return row >= 0 && row < that.boardSize && col >= 0 && col < that.boardSize
}

func (that *Board) forbidSize() int {
	return (that.boardSize - that.armSize) / 2
}

// isForbidden - true for the four corner squares outside the cross.
func (that *Board) isForbidden(row, col int) bool {
	forbidSize := that.forbidSize()
	far := forbidSize + that.armSize

	rowOutside := row < forbidSize || row >= far
	colOutside := col < forbidSize || col >= far

	return rowOutside && colOutside
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
