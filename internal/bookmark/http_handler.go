package bookmark

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"readmind/internal/book"
	"readmind/internal/httpx"
)

// BookGetter fetches a catalog record when the client sends only an id.
type BookGetter interface {
	Get(ctx context.Context, id string) (book.Book, error)
}

type HTTPHandler struct {
	service *Service
	books   BookGetter
	log     *zap.Logger
}

func NewHTTPHandler(service *Service, books BookGetter, log *zap.Logger) *HTTPHandler {
	return &HTTPHandler{service: service, books: books, log: log}
}

type addRequest struct {
	BookID string     `json:"book_id"`
	Book   *book.Book `json:"book"`
	Status Status     `json:"status"`
}

type statusRequest struct {
	Status Status `json:"status" validate:"required"`
}

type statusResponse struct {
	BookID     string  `json:"book_id"`
	Bookmarked bool    `json:"bookmarked"`
	Status     *Status `json:"status"`
}

// List godoc
// @Summary List bookmarks, optionally by status
// @Tags bookmarks
// @Produce json
// @Param status query string false "reading|planned|finished|shelved|dropped|favourite"
// @Success 200 {object} httpx.SuccessResponse{data=[]Bookmark}
// @Router /api/bookmarks [get]
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r)

	var (
		list []Bookmark
		err  error
	)
	if status := r.URL.Query().Get("status"); status != "" {
		list, err = h.service.ByStatus(r.Context(), userID, Status(status))
	} else {
		list, err = h.service.All(r.Context(), userID)
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, r, http.StatusOK, list, map[string]any{"total": len(list)})
}

// Add godoc
// @Summary Save a book to a shelf
// @Description Send either the full book or a book_id to look up in the catalog.
// @Tags bookmarks
// @Accept json
// @Produce json
// @Success 201 {object} httpx.SuccessResponse{data=Bookmark}
// @Router /api/bookmarks [post]
func (h *HTTPHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, httpx.CodeBadRequest, "Invalid request body", nil)
		return
	}

	var b book.Book
	switch {
	case req.Book != nil:
		b = *req.Book
	case req.BookID != "" && h.books != nil:
		found, err := h.books.Get(r.Context(), req.BookID)
		if errors.Is(err, book.ErrNotFound) {
			httpx.JSONError(w, r, http.StatusNotFound, httpx.CodeNotFound, "Книга не найдена", nil)
			return
		}
		if err != nil {
			h.log.Warn("bookmark catalog lookup failed", zap.String("book_id", req.BookID), zap.Error(err))
			book.WriteCatalogError(w, r, err, "Ошибка при получении книги")
			return
		}
		b = found
	default:
		b.ID = req.BookID
	}

	saved, err := h.service.Add(r.Context(), httpx.UserIDFrom(r), b, req.Status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONCreated(w, r, saved)
}

// Status handles GET /api/bookmarks/{id}
func (h *HTTPHandler) Status(w http.ResponseWriter, r *http.Request) {
	bookID := r.PathValue("id")
	resp := statusResponse{BookID: bookID}

	status, err := h.service.Status(r.Context(), httpx.UserIDFrom(r), bookID)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		h.writeError(w, r, err)
		return
	default:
		resp.Bookmarked = true
		resp.Status = &status
	}
	httpx.JSONSuccess(w, r, resp)
}

// UpdateStatus handles PATCH /api/bookmarks/{id}
func (h *HTTPHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, httpx.CodeBadRequest, "Invalid request body", nil)
		return
	}
	if details := httpx.ValidateStruct(req); len(details) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, httpx.CodeValidation, "Validation failed", details)
		return
	}

	saved, err := h.service.UpdateStatus(r.Context(), httpx.UserIDFrom(r), r.PathValue("id"), req.Status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, saved)
}

// Remove handles DELETE /api/bookmarks/{id}
func (h *HTTPHandler) Remove(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Remove(r.Context(), httpx.UserIDFrom(r), r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONNoContent(w)
}

// Clear handles DELETE /api/bookmarks
func (h *HTTPHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Clear(r.Context(), httpx.UserIDFrom(r)); err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONNoContent(w)
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, httpx.CodeNotFound, "Книга не найдена в закладках", nil)
	case errors.Is(err, ErrInvalidStatus):
		httpx.JSONError(w, r, http.StatusBadRequest, httpx.CodeValidation, "Недопустимый статус", []httpx.ErrorDetail{
			{Field: "status", Message: "status must be one of: reading planned finished shelved dropped favourite"},
		})
	case errors.Is(err, ErrInvalidBook):
		httpx.JSONError(w, r, http.StatusBadRequest, httpx.CodeValidation, "Validation failed", []httpx.ErrorDetail{
			{Field: "book_id", Message: err.Error()},
		})
	default:
		h.log.Error("bookmark request failed", zap.Error(err))
		httpx.JSONError(w, r, http.StatusInternalServerError, httpx.CodeInternal, "Ошибка при работе с закладками", nil)
	}
}
