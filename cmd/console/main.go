// Command console plays one game of marble solitaire on stdin/stdout.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/rocketscienceinc/marble-solitaire/internal/marble"
	"github.com/rocketscienceinc/marble-solitaire/internal/selector"
)

var ErrBadInput = errors.New("expected four integers: fromRow fromCol toRow toCol")

func main() {
	armSize := flag.Int("arm", marble.StandardArmSize, "arm size of the cross, odd and at least 3")
	row := flag.Int("row", -1, "row of the initial empty slot, centre when negative")
	col := flag.Int("col", -1, "column of the initial empty slot, centre when negative")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	board, err := newBoard(*armSize, *row, *col)
	if err != nil {
		logger.Error("failed to create board", "error", err)
		os.Exit(1)
	}

	if err = play(board, os.Stdin, os.Stdout); err != nil {
		logger.Error("console failed", "error", err)
		os.Exit(1)
	}
}

func newBoard(armSize, row, col int) (*marble.Board, error) {
	if row < 0 || col < 0 {
		return marble.NewDefault(armSize)
	}

	return marble.New(armSize, row, col)
}

// play - reads moves until the game is over or input ends.
func play(board *marble.Board, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)

	for {
		gameOver := board.IsGameOver()
		if _, err := fmt.Fprintf(out, "%s\n%s\n", board.RenderText(), selector.StatusLine(board.Score(), gameOver)); err != nil {
			return fmt.Errorf("failed to write board: %w", err)
		}

		if gameOver {
			return nil
		}

		if !scanner.Scan() {
			return scanner.Err()
		}

		coords, err := parseMove(scanner.Text())
		if err != nil {
			fmt.Fprintln(out, err)
			continue
		}

		if err = board.Move(coords[0], coords[1], coords[2], coords[3]); err != nil {
			fmt.Fprintln(out, err)
		}
	}
}

// parseMove - exactly four integers separated by whitespace.
func parseMove(line string) ([4]int, error) {
	var coords [4]int

	fields := strings.Fields(line)
	if len(fields) != len(coords) {
		return coords, fmt.Errorf("%w: got %d fields", ErrBadInput, len(fields))
	}

	for i, field := range fields {
		value, err := strconv.Atoi(field)
		if err != nil {
			return coords, fmt.Errorf("%w: %q is not an integer", ErrBadInput, field)
		}
		coords[i] = value
	}

	return coords, nil
}
