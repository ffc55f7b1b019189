package recommend

import (
	"net/http"

	"go.uber.org/zap"

	"readmind/internal/httpx"
	"readmind/internal/mention"
)

type HTTPHandler struct {
	resolver *Resolver
	log      *zap.Logger
}

func NewHTTPHandler(resolver *Resolver, log *zap.Logger) *HTTPHandler {
	return &HTTPHandler{resolver: resolver, log: log}
}

type resolveRequest struct {
	Text string `json:"text" validate:"required,max=20000"`
}

type resolveResponse struct {
	Mentions []mention.Mention `json:"mentions"`
	Items    []Item            `json:"items"`
}

// Resolve godoc
// @Summary Extract book mentions from text and attach catalog data
// @Tags recommendations
// @Accept json
// @Produce json
// @Success 200 {object} httpx.SuccessResponse
// @Router /api/recommendations [post]
func (h *HTTPHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, httpx.CodeBadRequest, "Invalid request body", nil)
		return
	}
	if details := httpx.ValidateStruct(req); len(details) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, httpx.CodeValidation, "Validation failed", details)
		return
	}

	items, err := h.resolver.Resolve(r.Context(), req.Text)
	if err != nil {
		h.log.Warn("recommendation resolve aborted", zap.Error(err))
		httpx.JSONError(w, r, http.StatusServiceUnavailable, httpx.CodeUpstream, "Запрос прерван", nil)
		return
	}

	mentions := make([]mention.Mention, len(items))
	for i, it := range items {
		mentions[i] = it.Mention
	}
	httpx.JSONSuccess(w, r, resolveResponse{Mentions: mentions, Items: items})
}
