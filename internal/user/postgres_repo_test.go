package user

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readmind/internal/testutil"
)

func TestPostgresRepo_CreateAndGet(t *testing.T) {
	db := testutil.PostgresPool(t, "users")
	repo := NewPostgresRepo(db, 3*time.Second)
	ctx := context.Background()
	email := fmt.Sprintf("repo-%d@example.com", time.Now().UnixNano())
	t.Cleanup(func() { _, _ = db.Exec(ctx, `DELETE FROM users WHERE email = $1`, email) })

	u := &User{Email: email, PasswordHash: "hash"}
	require.NoError(t, repo.Create(ctx, u))
	require.NotEmpty(t, u.ID)
	require.NotZero(t, u.CreatedAt)

	byEmail, err := repo.GetByEmail(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	byID, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "hash", byID.PasswordHash)

	assert.ErrorIs(t, repo.Create(ctx, &User{Email: email, PasswordHash: "x"}), ErrAlreadyExists)

	_, err = repo.GetByID(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)
}
