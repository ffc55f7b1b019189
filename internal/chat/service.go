package chat

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"readmind/internal/mention"
	"readmind/internal/platform/openrouter"
)

type Service struct {
	history   *HistoryStore
	completer Completer
	resolver  MentionResolver
	extractor *mention.Extractor
	log       *zap.Logger
	now       func() time.Time
}

// NewService builds the chat service. resolver may be nil, in which case
// replies never carry catalog items.
func NewService(history *HistoryStore, completer Completer, resolver MentionResolver, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		history:   history,
		completer: completer,
		resolver:  resolver,
		extractor: mention.NewExtractor(log),
		log:       log,
		now:       time.Now,
	}
}

// CompleteOptions tune a single completion.
type CompleteOptions struct {
	// ContextData is onboarding or profile data the client wants the
	// assistant to take into account.
	ContextData map[string]any
	// ResolveCovers looks the mentioned books up in the catalog.
	ResolveCovers bool
}

// Complete answers a conversation without touching stored history.
func (s *Service) Complete(ctx context.Context, messages []openrouter.Message, opts CompleteOptions) (*Reply, error) {
	if len(messages) == 0 {
		return nil, ErrNoMessages
	}

	out, err := s.completer.Complete(ctx, buildPrompt(messages, opts.ContextData))
	if err != nil {
		return nil, err
	}

	reply := &Reply{
		Message:  out.Message,
		Usage:    out.Usage,
		Mentions: s.extractor.Extract(out.Message),
	}
	if opts.ResolveCovers && s.resolver != nil && len(reply.Mentions) > 0 {
		items, err := s.resolver.ResolveMentions(ctx, reply.Mentions)
		if err != nil {
			s.log.Warn("resolving mentioned books failed", zap.Error(err))
		} else {
			reply.Items = items
		}
	}
	return reply, nil
}

// buildPrompt prepends the assistant persona unless the caller supplied its
// own system message, and appends the user context as a system note.
func buildPrompt(messages []openrouter.Message, contextData map[string]any) []openrouter.Message {
	hasSystem := false
	for _, m := range messages {
		if m.Role == RoleSystem {
			hasSystem = true
			break
		}
	}

	out := make([]openrouter.Message, 0, len(messages)+2)
	if !hasSystem {
		out = append(out, openrouter.Message{Role: RoleSystem, Content: SystemPrompt})
	}
	if len(contextData) > 0 {
		if raw, err := json.Marshal(contextData); err == nil {
			out = append(out, openrouter.Message{
				Role:    RoleSystem,
				Content: "Контекст пользователя (ответы онбординга и профиль): " + string(raw),
			})
		}
	}
	return append(out, messages...)
}

// Send appends a user message to a stored chat, asks the assistant and stores
// the reply. When the completion fails the user message stays in the chat.
func (s *Service) Send(ctx context.Context, userID, chatID, content string, opts CompleteOptions) (*Reply, Chat, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, Chat{}, ErrEmptyMessage
	}

	var conversation []openrouter.Message
	_, err := s.history.update(ctx, userID, func(h *History) error {
		c := h.find(chatID)
		if c == nil {
			return ErrNotFound
		}
		now := s.now()
		c.Messages = append(c.Messages, Message{Role: RoleUser, Content: content, Timestamp: now})
		c.UpdatedAt = now
		conversation = toWire(c.Messages)
		return nil
	})
	if err != nil {
		return nil, Chat{}, err
	}

	reply, err := s.Complete(ctx, conversation, opts)
	if err != nil {
		return nil, Chat{}, err
	}

	var saved Chat
	_, err = s.history.update(ctx, userID, func(h *History) error {
		c := h.find(chatID)
		if c == nil {
			return ErrNotFound
		}
		now := s.now()
		c.Messages = append(c.Messages, Message{Role: RoleAssistant, Content: reply.Message, Timestamp: now})
		c.UpdatedAt = now
		autoTitle(c)
		saved = *c
		return nil
	})
	if err != nil {
		return nil, Chat{}, err
	}
	return reply, saved, nil
}

func toWire(msgs []Message) []openrouter.Message {
	out := make([]openrouter.Message, len(msgs))
	for i, m := range msgs {
		out[i] = openrouter.Message{Role: m.Role, Content: m.Content}
	}
	return out
}

// autoTitle names a chat after its first question once the first exchange
// is complete, unless the user already renamed it.
func autoTitle(c *Chat) {
	if len(c.Messages) != 2 {
		return
	}
	if !strings.HasPrefix(c.Title, newChatPrefix) && c.Title != DefaultChatTitle {
		return
	}
	for _, m := range c.Messages {
		if m.Role != RoleUser {
			continue
		}
		runes := []rune(m.Content)
		title := strings.TrimSpace(string(runes[:min(len(runes), autoTitleRunes)]))
		if title == "" {
			return
		}
		if len(runes) > autoTitleRunes {
			title += "..."
		}
		c.Title = title
		return
	}
}
