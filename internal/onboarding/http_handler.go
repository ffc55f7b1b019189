package onboarding

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"readmind/internal/httpx"
)

type HTTPHandler struct {
	service *Service
	log     *zap.Logger
}

func NewHTTPHandler(service *Service, log *zap.Logger) *HTTPHandler {
	return &HTTPHandler{service: service, log: log}
}

type answerRequest struct {
	Value any `json:"value"`
}

// Get godoc
// @Summary Questionnaire steps, answers and progress
// @Tags onboarding
// @Produce json
// @Success 200 {object} httpx.SuccessResponse{data=State}
// @Router /api/onboarding [get]
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.State(r.Context(), httpx.UserIDFrom(r))
	h.respond(w, r, st, err)
}

// SetAnswer godoc
// @Summary Answer one step
// @Tags onboarding
// @Accept json
// @Produce json
// @Param step path string true "Step id"
// @Success 200 {object} httpx.SuccessResponse{data=State}
// @Router /api/onboarding/answers/{step} [put]
func (h *HTTPHandler) SetAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, httpx.CodeBadRequest, "Invalid request body", nil)
		return
	}
	st, err := h.service.SetAnswer(r.Context(), httpx.UserIDFrom(r), r.PathValue("step"), req.Value)
	h.respond(w, r, st, err)
}

// Next handles POST /api/onboarding/next
func (h *HTTPHandler) Next(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.Next(r.Context(), httpx.UserIDFrom(r))
	h.respond(w, r, st, err)
}

// Back handles POST /api/onboarding/back
func (h *HTTPHandler) Back(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.Back(r.Context(), httpx.UserIDFrom(r))
	h.respond(w, r, st, err)
}

// Finish handles POST /api/onboarding/finish
func (h *HTTPHandler) Finish(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.Finish(r.Context(), httpx.UserIDFrom(r))
	h.respond(w, r, st, err)
}

// Reset handles DELETE /api/onboarding
func (h *HTTPHandler) Reset(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.Reset(r.Context(), httpx.UserIDFrom(r))
	h.respond(w, r, st, err)
}

func (h *HTTPHandler) respond(w http.ResponseWriter, r *http.Request, st State, err error) {
	switch {
	case err == nil:
		httpx.JSONSuccess(w, r, st)
	case errors.Is(err, ErrUnknownStep):
		httpx.JSONError(w, r, http.StatusNotFound, httpx.CodeNotFound, err.Error(), nil)
	case errors.Is(err, ErrInvalidAnswer):
		httpx.JSONError(w, r, http.StatusBadRequest, httpx.CodeValidation, err.Error(), nil)
	default:
		h.log.Error("onboarding request failed", zap.Error(err))
		httpx.JSONError(w, r, http.StatusInternalServerError, httpx.CodeInternal, "Ошибка сохранения онбординга", nil)
	}
}
