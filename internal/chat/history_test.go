package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readmind/internal/kvstore"
)

func TestHistoryStore_InitDefault(t *testing.T) {
	ctx := context.Background()
	s := NewHistoryStore(kvstore.NewMemoryStore())

	h, err := s.InitDefault(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, h.Chats, 1)
	assert.Equal(t, DefaultChatTitle, h.Chats[0].Title)
	assert.Equal(t, h.Chats[0].ID, h.CurrentID)

	again, err := s.InitDefault(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, again.Chats, 1)
	assert.Equal(t, h.CurrentID, again.CurrentID)
}

func TestHistoryStore_CreatePrependsAndSelects(t *testing.T) {
	ctx := context.Background()
	s := NewHistoryStore(kvstore.NewMemoryStore())

	first, err := s.Create(ctx, "u1", "")
	require.NoError(t, err)
	assert.Equal(t, "Новый чат 1", first.Title)

	second, err := s.Create(ctx, "u1", "  Фантастика ")
	require.NoError(t, err)
	assert.Equal(t, "Фантастика", second.Title)

	h, err := s.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, h.Chats, 2)
	assert.Equal(t, second.ID, h.Chats[0].ID)
	assert.Equal(t, second.ID, h.CurrentID)
}

func TestHistoryStore_DeleteMovesSelection(t *testing.T) {
	ctx := context.Background()
	s := NewHistoryStore(kvstore.NewMemoryStore())
	a, _ := s.Create(ctx, "u1", "A")
	b, _ := s.Create(ctx, "u1", "B")

	h, err := s.Delete(ctx, "u1", b.ID)
	require.NoError(t, err)
	require.Len(t, h.Chats, 1)
	assert.Equal(t, a.ID, h.CurrentID)

	h, err = s.Delete(ctx, "u1", a.ID)
	require.NoError(t, err)
	assert.Empty(t, h.Chats)
	assert.Empty(t, h.CurrentID)
	assert.Nil(t, h.Current())

	_, err = s.Delete(ctx, "u1", a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHistoryStore_DeleteKeepsOtherSelection(t *testing.T) {
	ctx := context.Background()
	s := NewHistoryStore(kvstore.NewMemoryStore())
	a, _ := s.Create(ctx, "u1", "A")
	b, _ := s.Create(ctx, "u1", "B")
	_, err := s.Switch(ctx, "u1", a.ID)
	require.NoError(t, err)

	h, err := s.Delete(ctx, "u1", b.ID)

	require.NoError(t, err)
	assert.Equal(t, a.ID, h.CurrentID)
}

func TestHistoryStore_SwitchAndRename(t *testing.T) {
	ctx := context.Background()
	s := NewHistoryStore(kvstore.NewMemoryStore())
	a, _ := s.Create(ctx, "u1", "A")
	_, _ = s.Create(ctx, "u1", "B")

	c, err := s.Switch(ctx, "u1", a.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", c.Title)

	_, err = s.Switch(ctx, "u1", "chat_missing")
	assert.ErrorIs(t, err, ErrNotFound)

	renamed, err := s.Rename(ctx, "u1", a.ID, " Классика ")
	require.NoError(t, err)
	assert.Equal(t, "Классика", renamed.Title)

	_, err = s.Rename(ctx, "u1", a.ID, "   ")
	assert.ErrorIs(t, err, ErrEmptyTitle)

	h, err := s.List(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, a.ID, h.CurrentID)
	assert.Equal(t, "Классика", h.Current().Title)
}

func TestHistoryStore_ClearEmptiesCurrentOnly(t *testing.T) {
	ctx := context.Background()
	s := NewHistoryStore(kvstore.NewMemoryStore())
	a, _ := s.Create(ctx, "u1", "A")
	b, _ := s.Create(ctx, "u1", "B")
	_, err := s.update(ctx, "u1", func(h *History) error {
		h.find(a.ID).Messages = []Message{{Role: RoleUser, Content: "a"}}
		h.find(b.ID).Messages = []Message{{Role: RoleUser, Content: "b"}}
		return nil
	})
	require.NoError(t, err)

	h, err := s.Clear(ctx, "u1")

	require.NoError(t, err)
	assert.Empty(t, h.find(b.ID).Messages)
	assert.Len(t, h.find(a.ID).Messages, 1)
}

func TestHistoryStore_UsersAreIsolated(t *testing.T) {
	ctx := context.Background()
	s := NewHistoryStore(kvstore.NewMemoryStore())
	_, _ = s.Create(ctx, "u1", "A")

	h, err := s.List(ctx, "u2")

	require.NoError(t, err)
	assert.Empty(t, h.Chats)
	assert.NotNil(t, h.Chats)
}

func TestHistoryStore_StaleCurrentFallsBackToFirst(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemoryStore()
	s := NewHistoryStore(kv)
	a, _ := s.Create(ctx, "u1", "A")
	require.NoError(t, kvstore.PutJSON(ctx, kv, currentKeyPrefix+"u1", "chat_gone"))

	h, err := s.List(ctx, "u1")

	require.NoError(t, err)
	assert.Equal(t, a.ID, h.CurrentID)
}
