// Package chat talks to the literary assistant and keeps per-user chat
// history.
package chat

import (
	"context"
	"errors"
	"time"

	"readmind/internal/mention"
	"readmind/internal/platform/openrouter"
	"readmind/internal/recommend"
)

var (
	ErrNotFound     = errors.New("chat not found")
	ErrEmptyMessage = errors.New("Сообщение не может быть пустым")
	ErrEmptyTitle   = errors.New("Название чата не может быть пустым")
	ErrNoMessages   = errors.New("Messages array is required and cannot be empty")
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"

	DefaultChatTitle = "Мой первый чат"
	newChatPrefix    = "Новый чат"
	autoTitleRunes   = 50
)

// SystemPrompt is prepended to conversations that carry no system message.
const SystemPrompt = "Ты - персональный литературный ассистент ReadMind AI. " +
	"Помогай пользователям с вопросами о книгах, рекомендациями, обсуждением литературных произведений. " +
	"Будь дружелюбным, знающим и полезным.\n\n" +
	"Если ты рекомендуешь или упоминаешь конкретные книги, добавь в конец ответа блок:\n" +
	mention.BlockStart + "\n" +
	`[{"title": "Название", "author": "Автор"}]` + "\n" +
	mention.BlockEnd

type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type Chat struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// History is everything stored for one user.
type History struct {
	Chats     []Chat `json:"chats"`
	CurrentID string `json:"current_id,omitempty"`
}

// Current returns the selected chat, or nil.
func (h *History) Current() *Chat {
	return h.find(h.CurrentID)
}

func (h *History) find(id string) *Chat {
	if id == "" {
		return nil
	}
	for i := range h.Chats {
		if h.Chats[i].ID == id {
			return &h.Chats[i]
		}
	}
	return nil
}

// Reply is the assistant answer together with the books it mentions.
type Reply struct {
	Message  string            `json:"message"`
	Usage    *openrouter.Usage `json:"usage,omitempty"`
	Mentions []mention.Mention `json:"mentions"`
	Items    []recommend.Item  `json:"items,omitempty"`
}

type Completer interface {
	Complete(ctx context.Context, messages []openrouter.Message) (*openrouter.Completion, error)
}

type MentionResolver interface {
	ResolveMentions(ctx context.Context, mentions []mention.Mention) ([]recommend.Item, error)
}
