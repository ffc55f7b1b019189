package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"readmind/internal/kvstore"
)

const (
	chatsKeyPrefix   = "userChats_"
	currentKeyPrefix = "currentChatId_"
)

// HistoryStore keeps chats in the key-value store, one document per user
// plus the id of the selected chat.
type HistoryStore struct {
	store kvstore.Store
	locks kvstore.Locks
	now   func() time.Time
}

func NewHistoryStore(store kvstore.Store) *HistoryStore {
	return &HistoryStore{store: store, now: time.Now}
}

func (s *HistoryStore) load(ctx context.Context, userID string) (History, error) {
	var h History
	if _, err := kvstore.GetJSON(ctx, s.store, chatsKeyPrefix+userID, &h.Chats); err != nil {
		return History{}, err
	}
	if h.Chats == nil {
		h.Chats = []Chat{}
	}
	var current string
	if _, err := kvstore.GetJSON(ctx, s.store, currentKeyPrefix+userID, &current); err != nil {
		return History{}, err
	}
	switch {
	case h.find(current) != nil:
		h.CurrentID = current
	case len(h.Chats) > 0:
		h.CurrentID = h.Chats[0].ID
	}
	return h, nil
}

func (s *HistoryStore) save(ctx context.Context, userID string, h History) error {
	if err := kvstore.PutJSON(ctx, s.store, chatsKeyPrefix+userID, h.Chats); err != nil {
		return err
	}
	if h.CurrentID == "" {
		return s.store.Delete(ctx, currentKeyPrefix+userID)
	}
	return kvstore.PutJSON(ctx, s.store, currentKeyPrefix+userID, h.CurrentID)
}

// update runs fn on the user's history under the per-user lock and saves the
// result when fn succeeds.
func (s *HistoryStore) update(ctx context.Context, userID string, fn func(*History) error) (History, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	h, err := s.load(ctx, userID)
	if err != nil {
		return History{}, err
	}
	if err := fn(&h); err != nil {
		return History{}, err
	}
	if err := s.save(ctx, userID, h); err != nil {
		return History{}, fmt.Errorf("save chats: %w", err)
	}
	return h, nil
}

func (s *HistoryStore) List(ctx context.Context, userID string) (History, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()
	return s.load(ctx, userID)
}

// Create adds a chat in front of the others and selects it. An empty title
// becomes "Новый чат N".
func (s *HistoryStore) Create(ctx context.Context, userID, title string) (Chat, error) {
	var created Chat
	_, err := s.update(ctx, userID, func(h *History) error {
		created = s.newChat(title, len(h.Chats))
		h.Chats = append([]Chat{created}, h.Chats...)
		h.CurrentID = created.ID
		return nil
	})
	return created, err
}

func (s *HistoryStore) newChat(title string, existing int) Chat {
	title = strings.TrimSpace(title)
	if title == "" {
		title = fmt.Sprintf("%s %d", newChatPrefix, existing+1)
	}
	now := s.now()
	return Chat{
		ID:        "chat_" + uuid.NewString(),
		Title:     title,
		Messages:  []Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Delete removes a chat. When it was selected the first remaining chat, if
// any, becomes current.
func (s *HistoryStore) Delete(ctx context.Context, userID, chatID string) (History, error) {
	return s.update(ctx, userID, func(h *History) error {
		idx := -1
		for i := range h.Chats {
			if h.Chats[i].ID == chatID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return ErrNotFound
		}
		h.Chats = append(h.Chats[:idx], h.Chats[idx+1:]...)
		if h.CurrentID == chatID {
			h.CurrentID = ""
			if len(h.Chats) > 0 {
				h.CurrentID = h.Chats[0].ID
			}
		}
		return nil
	})
}

func (s *HistoryStore) Switch(ctx context.Context, userID, chatID string) (Chat, error) {
	var selected Chat
	_, err := s.update(ctx, userID, func(h *History) error {
		c := h.find(chatID)
		if c == nil {
			return ErrNotFound
		}
		h.CurrentID = chatID
		selected = *c
		return nil
	})
	return selected, err
}

func (s *HistoryStore) Rename(ctx context.Context, userID, chatID, title string) (Chat, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Chat{}, ErrEmptyTitle
	}
	var renamed Chat
	_, err := s.update(ctx, userID, func(h *History) error {
		c := h.find(chatID)
		if c == nil {
			return ErrNotFound
		}
		c.Title = title
		c.UpdatedAt = s.now()
		renamed = *c
		return nil
	})
	return renamed, err
}

// Clear empties the messages of the selected chat. Without a selected chat it
// does nothing.
func (s *HistoryStore) Clear(ctx context.Context, userID string) (History, error) {
	return s.update(ctx, userID, func(h *History) error {
		if c := h.Current(); c != nil {
			c.Messages = []Message{}
			c.UpdatedAt = s.now()
		}
		return nil
	})
}

// InitDefault creates the first chat for users that have none.
func (s *HistoryStore) InitDefault(ctx context.Context, userID string) (History, error) {
	return s.update(ctx, userID, func(h *History) error {
		if len(h.Chats) > 0 {
			return nil
		}
		c := s.newChat(DefaultChatTitle, 0)
		h.Chats = []Chat{c}
		h.CurrentID = c.ID
		return nil
	})
}
