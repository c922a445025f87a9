package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rocketscienceinc/marble-solitaire/internal/apperror"
	"github.com/rocketscienceinc/marble-solitaire/internal/entity"
)

type memoryEntry struct {
	gameJSON  []byte
	expiresAt time.Time
}

type memoryGame struct {
	ttl time.Duration
	now func() time.Time

	mu    sync.RWMutex
	games map[string]memoryEntry
}

// NewMemoryGameRepository - process local sessions for running without redis.
// Games are stored encoded so callers never share state with the store.
// Like the redis store, a session expires ttl after its last write; zero ttl keeps sessions forever.
func NewMemoryGameRepository(ttl time.Duration) GameRepository {
	return &memoryGame{
		ttl:   ttl,
		now:   time.Now,
		games: make(map[string]memoryEntry),
	}
}

func (that *memoryGame) CreateOrUpdate(_ context.Context, game *entity.Game) error {
	gameJSON, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("could not marshal game: %w", err)
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	now := that.now()
	that.evictExpired(now)

	entry := memoryEntry{gameJSON: gameJSON}
	if that.ttl > 0 {
		entry.expiresAt = now.Add(that.ttl)
	}

	that.games[game.ID] = entry

	return nil
}

func (that *memoryGame) GetByID(_ context.Context, id string) (*entity.Game, error) {
	that.mu.RLock()
	entry, ok := that.games[id]
	that.mu.RUnlock()

	if !ok || entry.expired(that.now()) {
		return nil, apperror.ErrGameNotFound
	}

	var existingGame entity.Game
	if err := json.Unmarshal(entry.gameJSON, &existingGame); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game: %w", err)
	}

	return &existingGame, nil
}

func (that *memoryGame) DeleteByID(_ context.Context, id string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	entry, ok := that.games[id]
	if !ok {
		return apperror.ErrGameNotFound
	}

	delete(that.games, id)

	if entry.expired(that.now()) {
		return apperror.ErrGameNotFound
	}

	return nil
}

// evictExpired drops stale sessions; callers hold mu.
func (that *memoryGame) evictExpired(now time.Time) {
	for id, entry := range that.games {
		if entry.expired(now) {
			delete(that.games, id)
		}
	}
}

func (that memoryEntry) expired(now time.Time) bool {
	return !that.expiresAt.IsZero() && !now.Before(that.expiresAt)
}
