package profile

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readmind/internal/testutil"
)

func TestPostgresRepo_Lifecycle(t *testing.T) {
	db := testutil.PostgresPool(t, "profiles")
	repo := NewPostgresRepo(db, 3*time.Second)
	ctx := context.Background()
	id := uuid.NewString()
	t.Cleanup(func() { _, _ = db.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, id) })

	_, err := repo.Get(ctx, id)
	require.ErrorIs(t, err, ErrNotFound)

	created, err := repo.Create(ctx, id, "p@example.com")
	require.NoError(t, err)
	assert.Equal(t, "p@example.com", created.Email)
	assert.Empty(t, created.FavoriteGenres)
	assert.Nil(t, created.ReadingGoal)

	again, err := repo.Create(ctx, id, "other@example.com")
	require.NoError(t, err)
	assert.Equal(t, "p@example.com", again.Email)

	updated, err := repo.Update(ctx, id, map[string]any{
		"bio":             "hello",
		"favorite_genres": []string{"sci-fi"},
		"reading_goal":    12,
		"email":           "ignored@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", *updated.Bio)
	assert.Equal(t, []string{"sci-fi"}, updated.FavoriteGenres)
	assert.Equal(t, 12, *updated.ReadingGoal)
	assert.Equal(t, "p@example.com", updated.Email)
}
