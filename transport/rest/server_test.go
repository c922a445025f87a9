package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/marble-solitaire/internal/entity"
	"github.com/rocketscienceinc/marble-solitaire/internal/marble"
	"github.com/rocketscienceinc/marble-solitaire/internal/repository"
	"github.com/rocketscienceinc/marble-solitaire/internal/selector"
	"github.com/rocketscienceinc/marble-solitaire/internal/usecase"
)

func newTestServer(t *testing.T) (*httptest.Server, repository.GameRepository) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := repository.NewMemoryGameRepository(0)
	server := New(logger, usecase.NewGameManager(logger, repo, 0, 9))

	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)

	return ts, repo
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, data
}

func createGame(t *testing.T, baseURL string, req NewGameRequest) *entity.Game {
	t.Helper()

	resp, data := doJSON(t, http.MethodPost, baseURL+"/games", req)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))

	var gameResp GameResponse
	require.NoError(t, json.Unmarshal(data, &gameResp))

	return gameResp.Game
}

func intPtr(v int) *int {
	return &v
}

func TestPing(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, data := doJSON(t, http.MethodGet, ts.URL+"/ping", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "pong", string(data))
}

func TestServer_NewGame(t *testing.T) {
	t.Run("Default board", func(t *testing.T) {
		ts, _ := newTestServer(t)

		game := createGame(t, ts.URL, NewGameRequest{})

		assert.NotEmpty(t, game.ID)
		assert.Equal(t, 32, game.Score)
		assert.Equal(t, marble.Empty, game.Cells[3][3])
	})

	t.Run("Custom empty slot", func(t *testing.T) {
		ts, _ := newTestServer(t)

		game := createGame(t, ts.URL, NewGameRequest{ArmSize: 5, EmptyRow: intPtr(0), EmptyCol: intPtr(5)})

		assert.Equal(t, 5, game.ArmSize)
		assert.Equal(t, marble.Empty, game.Cells[0][5])
	})

	t.Run("Invalid configuration", func(t *testing.T) {
		ts, _ := newTestServer(t)

		resp, data := doJSON(t, http.MethodPost, ts.URL+"/games", NewGameRequest{ArmSize: 4})

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, string(data), "invalid board configuration")
	})

	t.Run("Oversized board", func(t *testing.T) {
		for _, armSize := range []int{1001, math.MaxInt / 2} {
			ts, _ := newTestServer(t)

			// When: ask for a board larger than the configured limit
			resp, data := doJSON(t, http.MethodPost, ts.URL+"/games", NewGameRequest{ArmSize: armSize})

			// Then: a small bad request comes back instead of a board
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Contains(t, string(data), "invalid board configuration")
			assert.Less(t, len(data), 1024)
		}
	})

	t.Run("Only one coordinate of the empty slot", func(t *testing.T) {
		ts, _ := newTestServer(t)

		resp, _ := doJSON(t, http.MethodPost, ts.URL+"/games", NewGameRequest{EmptyRow: intPtr(3)})

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Malformed body", func(t *testing.T) {
		ts, _ := newTestServer(t)

		resp, err := http.Post(ts.URL+"/games", "application/json", strings.NewReader("{"))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestServer_GetGame(t *testing.T) {
	t.Run("Existing game", func(t *testing.T) {
		ts, _ := newTestServer(t)
		game := createGame(t, ts.URL, NewGameRequest{})

		resp, data := doJSON(t, http.MethodGet, ts.URL+"/games/"+game.ID, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var gameResp GameResponse
		require.NoError(t, json.Unmarshal(data, &gameResp))
		assert.Equal(t, game, gameResp.Game)
		assert.False(t, gameResp.GameOver)
	})

	t.Run("Unknown game", func(t *testing.T) {
		ts, _ := newTestServer(t)

		resp, _ := doJSON(t, http.MethodGet, ts.URL+"/games/missing", nil)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("Text board", func(t *testing.T) {
		ts, _ := newTestServer(t)
		game := createGame(t, ts.URL, NewGameRequest{})

		resp, data := doJSON(t, http.MethodGet, ts.URL+"/games/"+game.ID+"/board", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
		require.Len(t, lines, 8)
		assert.Equal(t, "O O O _ O O O", lines[3])
		assert.Equal(t, "score: 32", lines[7])
	})
}

func TestServer_Move(t *testing.T) {
	t.Run("Legal move", func(t *testing.T) {
		ts, _ := newTestServer(t)
		game := createGame(t, ts.URL, NewGameRequest{})

		resp, data := doJSON(t, http.MethodPost, ts.URL+"/games/"+game.ID+"/move",
			MoveRequest{FromRow: 3, FromCol: 1, ToRow: 3, ToCol: 3})
		require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

		var gameResp GameResponse
		require.NoError(t, json.Unmarshal(data, &gameResp))
		assert.Equal(t, 31, gameResp.Game.Score)
		assert.Equal(t, marble.Occupied, gameResp.Game.Cells[3][3])
	})

	t.Run("Illegal move", func(t *testing.T) {
		ts, _ := newTestServer(t)
		game := createGame(t, ts.URL, NewGameRequest{})

		resp, data := doJSON(t, http.MethodPost, ts.URL+"/games/"+game.ID+"/move",
			MoveRequest{FromRow: 3, FromCol: 1, ToRow: 3, ToCol: 2})

		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		assert.Contains(t, string(data), "invalid move")
	})

	t.Run("Last move reports game over", func(t *testing.T) {
		ts, repo := newTestServer(t)

		// Given: a stored session with two marbles left
		cells := marble.NewStandard().Cells()
		for row := range cells {
			for col := range cells[row] {
				if cells[row][col] != marble.Forbidden {
					cells[row][col] = marble.Empty
				}
			}
		}
		cells[2][3] = marble.Occupied
		cells[3][3] = marble.Occupied
		board, err := marble.Restore(3, cells)
		require.NoError(t, err)
		require.NoError(t, repo.CreateOrUpdate(context.Background(), entity.NewGame("endgame", board)))

		// When: the last jump is made
		resp, data := doJSON(t, http.MethodPost, ts.URL+"/games/endgame/move",
			MoveRequest{FromRow: 2, FromCol: 3, ToRow: 4, ToCol: 3})
		require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

		// Then: the final state is reported and the session is gone
		var gameResp GameResponse
		require.NoError(t, json.Unmarshal(data, &gameResp))
		assert.True(t, gameResp.GameOver)
		assert.Equal(t, "Game over. Your score is 1", gameResp.Game.Message)

		resp, _ = doJSON(t, http.MethodGet, ts.URL+"/games/endgame", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestServer_Click(t *testing.T) {
	ts, _ := newTestServer(t)
	game := createGame(t, ts.URL, NewGameRequest{})
	url := ts.URL + "/games/" + game.ID + "/click"

	click := func(row, col int) GameResponse {
		resp, data := doJSON(t, http.MethodPost, url, ClickRequest{Row: row, Col: col})
		require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

		var gameResp GameResponse
		require.NoError(t, json.Unmarshal(data, &gameResp))

		return gameResp
	}

	// When: click a marble, a bad destination, then the centre
	resp := click(3, 1)
	assert.Equal(t, string(selector.OutcomeSelected), resp.Outcome)

	resp = click(5, 3)
	assert.Equal(t, string(selector.OutcomeReselected), resp.Outcome)
	assert.NotEmpty(t, resp.Reason)

	resp = click(3, 3)

	// Then: the reselected marble jumped
	assert.Equal(t, string(selector.OutcomeMoved), resp.Outcome)
	assert.Equal(t, 31, resp.Game.Score)
	assert.Equal(t, marble.Empty, resp.Game.Cells[5][3])

	// Then: out of range clicks are rejected
	httpResp, _ := doJSON(t, http.MethodPost, url, ClickRequest{Row: -1, Col: 0})
	assert.Equal(t, http.StatusBadRequest, httpResp.StatusCode)
}

func TestServer_Abandon(t *testing.T) {
	ts, _ := newTestServer(t)
	game := createGame(t, ts.URL, NewGameRequest{})

	resp, _ := doJSON(t, http.MethodDelete, ts.URL+"/games/"+game.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodDelete, ts.URL+"/games/"+game.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

type mockGameUseCase struct {
	mock.Mock
}

func (that *mockGameUseCase) NewGame(ctx context.Context, armSize int, empty *marble.Position) (*entity.Game, error) {
	args := that.Called(ctx, armSize, empty)
	game, _ := args.Get(0).(*entity.Game)
	return game, args.Error(1)
}

func (that *mockGameUseCase) GetGame(ctx context.Context, id string) (*entity.Game, error) {
	args := that.Called(ctx, id)
	game, _ := args.Get(0).(*entity.Game)
	return game, args.Error(1)
}

func (that *mockGameUseCase) MakeMove(ctx context.Context, id string, from, to marble.Position) (*entity.Game, error) {
	args := that.Called(ctx, id, from, to)
	game, _ := args.Get(0).(*entity.Game)
	return game, args.Error(1)
}

func (that *mockGameUseCase) Click(ctx context.Context, id string, row, col int) (*entity.Game, selector.Result, error) {
	args := that.Called(ctx, id, row, col)
	game, _ := args.Get(0).(*entity.Game)
	return game, args.Get(1).(selector.Result), args.Error(2)
}

func (that *mockGameUseCase) Abandon(ctx context.Context, id string) error {
	return that.Called(ctx, id).Error(0)
}

func TestServer_InternalError(t *testing.T) {
	// Given: a use case whose store is down
	games := &mockGameUseCase{}
	games.On("GetGame", mock.Anything, "g1").Return(nil, errors.New("redis down")).Once()

	server := New(slog.New(slog.NewTextHandler(io.Discard, nil)), games)
	rec := httptest.NewRecorder()

	// When: the game is requested
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/games/g1", nil))

	// Then: the internal error is hidden behind a 500
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "redis")
	games.AssertExpectations(t)
}
