package profile

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

// Get handles GET /api/profile
// @Summary Get own profile
// @Description Returns the caller's profile, creating an empty one on first access
// @Tags profiles
// @Produce json
// @Security Bearer
// @Success 200 {object} httpx.SuccessResponse{data=Profile}
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 500 {object} httpx.ErrorResponse
// @Router /api/profile [get]
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), httpx.UserIDFrom(r), httpx.EmailFrom(r))
	if err != nil {
		h.log.Error("profile load failed", zap.String("user_id", httpx.UserIDFrom(r)), zap.Error(err))
		httpx.JSONError(w, r, http.StatusInternalServerError, httpx.CodeInternal, "Ошибка при получении профиля", nil)
		return
	}
	httpx.JSONSuccess(w, r, p)
}

// Update handles PATCH /api/profile
// @Summary Update own profile
// @Tags profiles
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body UpdateCommand true "Fields to change"
// @Success 200 {object} httpx.SuccessResponse{data=Profile}
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 500 {object} httpx.ErrorResponse
// @Router /api/profile [patch]
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	var cmd UpdateCommand
	if err := httpx.DecodeJSON(r, &cmd); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, httpx.CodeBadRequest, "Invalid request body", nil)
		return
	}

	p, err := h.service.Update(r.Context(), httpx.UserIDFrom(r), httpx.EmailFrom(r), cmd)
	switch {
	case err == nil:
		httpx.JSON(w, r, http.StatusOK, p, map[string]any{"message": "Профиль успешно обновлен"})
	case errors.Is(err, ErrEmptyUpdate), errors.Is(err, ErrReadingGoalRange), errors.Is(err, ErrTooManyGenres):
		httpx.JSONError(w, r, http.StatusBadRequest, httpx.CodeValidation, err.Error(), nil)
	default:
		h.log.Error("profile update failed", zap.String("user_id", httpx.UserIDFrom(r)), zap.Error(err))
		httpx.JSONError(w, r, http.StatusInternalServerError, httpx.CodeInternal, "Ошибка при обновлении профиля", nil)
	}
}
