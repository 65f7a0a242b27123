package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/treebbs/models"
)

func TestUserStore(t *testing.T) {
	users, _ := newStores(t)
	ctx := context.Background()

	alice := mustUser(t, users, "alice")
	assert.NotEmpty(t, alice.ID)
	assert.False(t, alice.CreatedAt.IsZero())

	t.Run("find by username", func(t *testing.T) {
		u, err := users.FindByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, alice.ID, u.ID)

		_, err = users.FindByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("find by id", func(t *testing.T) {
		u, err := users.FindByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", u.Username)

		_, err = users.FindByID(ctx, uuid.NewString())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("unique username", func(t *testing.T) {
		err := users.Create(ctx, &models.User{Username: "alice", PasswordHash: "other"})
		assert.ErrorIs(t, err, ErrDuplicateUsername)
	})
}
