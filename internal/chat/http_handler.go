package chat

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"readmind/internal/httpx"
	"readmind/internal/platform/openrouter"
)

type HTTPHandler struct {
	service *Service
	history *HistoryStore
	log     *zap.Logger
}

func NewHTTPHandler(service *Service, history *HistoryStore, log *zap.Logger) *HTTPHandler {
	return &HTTPHandler{service: service, history: history, log: log}
}

type wireMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant system"`
	Content string `json:"content" validate:"required"`
}

type completeRequest struct {
	Messages    []wireMessage  `json:"messages" validate:"required,min=1,dive"`
	ContextData map[string]any `json:"context_data,omitempty"`
	// ContextDataCamel is the key older web clients send.
	ContextDataCamel map[string]any `json:"contextData,omitempty"`
}

func (r completeRequest) contextData() map[string]any {
	if len(r.ContextData) > 0 {
		return r.ContextData
	}
	return r.ContextDataCamel
}

func resolveCovers(r *http.Request) bool {
	return r.URL.Query().Get("resolve_covers") == "true"
}

// Complete godoc
// @Summary Ask the literary assistant
// @Tags chat
// @Accept json
// @Produce json
// @Param resolve_covers query bool false "Look mentioned books up"
// @Success 200 {object} httpx.SuccessResponse{data=Reply}
// @Router /api/chat [post]
func (h *HTTPHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, httpx.CodeBadRequest, "Invalid request body", nil)
		return
	}
	if len(req.Messages) == 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, httpx.CodeValidation, ErrNoMessages.Error(), nil)
		return
	}
	if details := httpx.ValidateStruct(req); len(details) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, httpx.CodeValidation, "Validation failed", details)
		return
	}

	messages := make([]openrouter.Message, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = openrouter.Message{Role: m.Role, Content: m.Content}
	}

	reply, err := h.service.Complete(r.Context(), messages, CompleteOptions{
		ContextData:   req.contextData(),
		ResolveCovers: resolveCovers(r),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, reply)
}

// List godoc
// @Summary List the caller's chats
// @Tags chat
// @Produce json
// @Success 200 {object} httpx.SuccessResponse{data=History}
// @Router /api/chats [get]
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	hist, err := h.history.List(r.Context(), httpx.UserIDFrom(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, hist)
}

type titleRequest struct {
	Title string `json:"title" validate:"max=200"`
}

// Create handles POST /api/chats
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req titleRequest
	if r.ContentLength != 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.JSONError(w, r, http.StatusBadRequest, httpx.CodeBadRequest, "Invalid request body", nil)
			return
		}
	}
	if details := httpx.ValidateStruct(req); len(details) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, httpx.CodeValidation, "Validation failed", details)
		return
	}

	c, err := h.history.Create(r.Context(), httpx.UserIDFrom(r), req.Title)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONCreated(w, r, c)
}

// InitDefault handles POST /api/chats/init
func (h *HTTPHandler) InitDefault(w http.ResponseWriter, r *http.Request) {
	hist, err := h.history.InitDefault(r.Context(), httpx.UserIDFrom(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, hist)
}

// Delete handles DELETE /api/chats/{id}
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	hist, err := h.history.Delete(r.Context(), httpx.UserIDFrom(r), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, hist)
}

// Switch handles POST /api/chats/{id}/switch
func (h *HTTPHandler) Switch(w http.ResponseWriter, r *http.Request) {
	c, err := h.history.Switch(r.Context(), httpx.UserIDFrom(r), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, c)
}

// Rename handles PATCH /api/chats/{id}
func (h *HTTPHandler) Rename(w http.ResponseWriter, r *http.Request) {
	var req titleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, httpx.CodeBadRequest, "Invalid request body", nil)
		return
	}
	c, err := h.history.Rename(r.Context(), httpx.UserIDFrom(r), r.PathValue("id"), req.Title)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, c)
}

// Clear handles POST /api/chats/clear
func (h *HTTPHandler) Clear(w http.ResponseWriter, r *http.Request) {
	hist, err := h.history.Clear(r.Context(), httpx.UserIDFrom(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, hist)
}

type sendRequest struct {
	Content          string         `json:"content"`
	ContextData      map[string]any `json:"context_data,omitempty"`
	ContextDataCamel map[string]any `json:"contextData,omitempty"`
}

type sendResponse struct {
	Reply *Reply `json:"reply"`
	Chat  Chat   `json:"chat"`
}

// Send godoc
// @Summary Post a message to a stored chat
// @Tags chat
// @Accept json
// @Produce json
// @Param id path string true "Chat id"
// @Success 200 {object} httpx.SuccessResponse
// @Router /api/chats/{id}/messages [post]
func (h *HTTPHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, httpx.CodeBadRequest, "Invalid request body", nil)
		return
	}
	contextData := req.ContextData
	if len(contextData) == 0 {
		contextData = req.ContextDataCamel
	}

	reply, c, err := h.service.Send(r.Context(), httpx.UserIDFrom(r), r.PathValue("id"), req.Content, CompleteOptions{
		ContextData:   contextData,
		ResolveCovers: resolveCovers(r),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, sendResponse{Reply: reply, Chat: c})
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *openrouter.APIError
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, httpx.CodeNotFound, "Чат не найден", nil)
	case errors.Is(err, ErrEmptyMessage), errors.Is(err, ErrEmptyTitle), errors.Is(err, ErrNoMessages):
		httpx.JSONError(w, r, http.StatusBadRequest, httpx.CodeValidation, err.Error(), nil)
	case errors.Is(err, openrouter.ErrNotConfigured):
		httpx.JSONError(w, r, http.StatusInternalServerError, httpx.CodeInternal, err.Error(), nil)
	case errors.Is(err, openrouter.ErrEmptyResponse):
		httpx.JSONError(w, r, http.StatusBadGateway, httpx.CodeUpstream, err.Error(), nil)
	case errors.As(err, &apiErr):
		msg := apiErr.Message
		if msg == "" {
			msg = "Ошибка OpenRouter API"
		}
		httpx.JSONError(w, r, apiErr.StatusCode, httpx.CodeUpstream, msg, nil)
	default:
		h.log.Error("chat request failed", zap.Error(err), zap.String("request_id", httpx.RequestIDFrom(r)))
		httpx.JSONError(w, r, http.StatusInternalServerError, httpx.CodeInternal, "Ошибка при обработке запроса к ИИ", nil)
	}
}
