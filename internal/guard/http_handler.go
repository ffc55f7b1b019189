package guard

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"readmind/internal/httpx"
)

// OnboardingState reports whether a user finished the questionnaire.
type OnboardingState interface {
	Completed(ctx context.Context, userID string) (bool, error)
}

type HTTPHandler struct {
	onboarding OnboardingState
	log        *zap.Logger
}

func NewHTTPHandler(onboarding OnboardingState, log *zap.Logger) *HTTPHandler {
	return &HTTPHandler{onboarding: onboarding, log: log}
}

// Check godoc
// @Summary Where may the caller navigate
// @Tags guard
// @Produce json
// @Param path query string true "Requested page, with query string"
// @Success 200 {object} httpx.SuccessResponse{data=Decision}
// @Router /api/guard [get]
func (h *HTTPHandler) Check(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r)
	loggedIn := userID != ""

	onboarded := false
	if loggedIn {
		done, err := h.onboarding.Completed(r.Context(), userID)
		if err != nil {
			h.log.Error("guard onboarding lookup failed", zap.String("user_id", userID), zap.Error(err))
			httpx.JSONError(w, r, http.StatusInternalServerError, httpx.CodeInternal, "Internal server error", nil)
			return
		}
		onboarded = done
	}

	httpx.JSONSuccess(w, r, Decide(r.URL.Query().Get("path"), loggedIn, onboarded))
}
