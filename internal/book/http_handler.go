package book

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"readmind/internal/httpx"
	"readmind/internal/platform/googlebooks"
)

type HTTPHandler struct {
	service *Service
	log     *zap.Logger
}

func NewHTTPHandler(service *Service, log *zap.Logger) *HTTPHandler {
	return &HTTPHandler{service: service, log: log}
}

// Search godoc
// @Summary Search books in the catalog
// @Tags books
// @Produce json
// @Param query query string false "Free text"
// @Param author query string false "Author"
// @Param category query string false "Subject"
// @Param language query string false "ru, en, de, fr, es or it"
// @Param orderBy query string false "relevance or newest"
// @Param page query int false "Page, from 1"
// @Param limit query int false "Page size, 1..40"
// @Success 200 {object} httpx.SuccessResponse{data=Page}
// @Router /api/books [get]
func (h *HTTPHandler) Search(w http.ResponseWriter, r *http.Request) {
	params, err := ParseSearchParams(r.URL.Query().Get)
	if err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, httpx.CodeValidation, err.Error(), nil)
		return
	}

	page, err := h.service.Search(r.Context(), params)
	if err != nil {
		h.log.Error("book search failed", zap.Error(err), zap.String("request_id", httpx.RequestIDFrom(r)))
		WriteCatalogError(w, r, err, "Ошибка при получении книг")
		return
	}
	httpx.JSONSuccess(w, r, page)
}

// Get godoc
// @Summary Get a book by id
// @Tags books
// @Produce json
// @Param id path string true "Volume id"
// @Success 200 {object} httpx.SuccessResponse{data=Book}
// @Failure 404 {object} httpx.ErrorResponse
// @Router /api/books/{id} [get]
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		httpx.JSONError(w, r, http.StatusBadRequest, httpx.CodeBadRequest, "ID книги обязателен", nil)
		return
	}

	b, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.JSONError(w, r, http.StatusNotFound, httpx.CodeNotFound, "Книга не найдена", nil)
			return
		}
		h.log.Error("book lookup failed", zap.Error(err), zap.String("id", id))
		WriteCatalogError(w, r, err, "Ошибка при получении информации о книге")
		return
	}
	httpx.JSONSuccess(w, r, b)
}

// WriteCatalogError maps catalog client failures onto the JSON envelope,
// passing the upstream status through.
func WriteCatalogError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var apiErr *googlebooks.APIError
	switch {
	case errors.Is(err, googlebooks.ErrNotConfigured):
		httpx.JSONError(w, r, http.StatusInternalServerError, httpx.CodeInternal, err.Error(), nil)
	case errors.As(err, &apiErr):
		msg := apiErr.Message
		if msg == "" {
			msg = "Ошибка Google Books API"
		}
		httpx.JSONError(w, r, apiErr.StatusCode, httpx.CodeUpstream, msg, nil)
	default:
		httpx.JSONError(w, r, http.StatusInternalServerError, httpx.CodeInternal, fallback, nil)
	}
}
