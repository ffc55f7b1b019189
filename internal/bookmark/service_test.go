package bookmark

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readmind/internal/book"
	"readmind/internal/kvstore"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time {
	c.t = c.t.Add(time.Minute)
	return c.t
}

func newTestService() *Service {
	s := NewService(kvstore.NewMemoryStore())
	c := &clock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	s.now = c.now
	return s
}

func TestService_AddDefaultsToPlanned(t *testing.T) {
	s := newTestService()

	b, err := s.Add(context.Background(), "u1", book.Book{ID: "b1", Title: "Солярис"}, "")

	require.NoError(t, err)
	assert.Equal(t, StatusPlanned, b.Status)
	assert.Equal(t, b.AddedAt, b.UpdatedAt)
}

func TestService_AddUpsertKeepsAddedAt(t *testing.T) {
	ctx := context.Background()
	s := newTestService()
	first, err := s.Add(ctx, "u1", book.Book{ID: "b1", Title: "Old"}, StatusPlanned)
	require.NoError(t, err)

	second, err := s.Add(ctx, "u1", book.Book{ID: "b1", Title: "New"}, StatusReading)
	require.NoError(t, err)

	assert.Equal(t, first.AddedAt, second.AddedAt)
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
	all, err := s.All(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "New", all[0].Title)
	assert.Equal(t, StatusReading, all[0].Status)
}

func TestService_AddValidation(t *testing.T) {
	s := newTestService()

	_, err := s.Add(context.Background(), "u1", book.Book{ID: " "}, StatusPlanned)
	assert.ErrorIs(t, err, ErrInvalidBook)

	_, err = s.Add(context.Background(), "u1", book.Book{ID: "b1"}, "wishlist")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestService_StatusQueries(t *testing.T) {
	ctx := context.Background()
	s := newTestService()
	_, _ = s.Add(ctx, "u1", book.Book{ID: "b1"}, StatusReading)
	_, _ = s.Add(ctx, "u1", book.Book{ID: "b2"}, StatusFavourite)
	_, _ = s.Add(ctx, "u1", book.Book{ID: "b3"}, StatusReading)

	reading, err := s.ByStatus(ctx, "u1", StatusReading)
	require.NoError(t, err)
	require.Len(t, reading, 2)
	assert.Equal(t, "b1", reading[0].ID)
	assert.Equal(t, "b3", reading[1].ID)

	dropped, err := s.ByStatus(ctx, "u1", StatusDropped)
	require.NoError(t, err)
	assert.NotNil(t, dropped)
	assert.Empty(t, dropped)

	ok, err := s.IsBookmarked(ctx, "u1", "b2")
	require.NoError(t, err)
	assert.True(t, ok)

	status, err := s.Status(ctx, "u1", "b2")
	require.NoError(t, err)
	assert.Equal(t, StatusFavourite, status)

	_, err = s.Status(ctx, "u1", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_UpdateStatusAndRemove(t *testing.T) {
	ctx := context.Background()
	s := newTestService()
	_, _ = s.Add(ctx, "u1", book.Book{ID: "b1"}, StatusReading)

	updated, err := s.UpdateStatus(ctx, "u1", "b1", StatusFinished)
	require.NoError(t, err)
	assert.Equal(t, StatusFinished, updated.Status)

	_, err = s.UpdateStatus(ctx, "u1", "missing", StatusFinished)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Remove(ctx, "u1", "b1"))
	require.NoError(t, s.Remove(ctx, "u1", "b1"))
	ok, err := s.IsBookmarked(ctx, "u1", "b1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestService_ClearIsPerUser(t *testing.T) {
	ctx := context.Background()
	s := newTestService()
	_, _ = s.Add(ctx, "u1", book.Book{ID: "b1"}, StatusReading)
	_, _ = s.Add(ctx, "u2", book.Book{ID: "b1"}, StatusReading)

	require.NoError(t, s.Clear(ctx, "u1"))

	mine, err := s.All(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, mine)
	theirs, err := s.All(ctx, "u2")
	require.NoError(t, err)
	assert.Len(t, theirs, 1)
}
