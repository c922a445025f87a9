package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/marble-solitaire/internal/apperror"
	"github.com/rocketscienceinc/marble-solitaire/internal/config"
)

func TestNewGameRepository(t *testing.T) {
	t.Run("Memory storage", func(t *testing.T) {
		repo, closeRepo, err := newGameRepository(context.Background(), &config.Config{Storage: config.StorageMemory})
		require.NoError(t, err)
		defer func() { assert.NoError(t, closeRepo()) }()

		_, err = repo.GetByID(context.Background(), "missing")
		assert.ErrorIs(t, err, apperror.ErrGameNotFound)
	})

	t.Run("Redis storage without a host", func(t *testing.T) {
		_, _, err := newGameRepository(context.Background(), &config.Config{Storage: config.StorageRedis})

		assert.ErrorIs(t, err, ErrAddrNotFound)
	})
}
