package library

import (
	"errors"
	"net/http"

	"libri/internal/httpx"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

type saveReq struct {
	CatalogID   string   `json:"catalogId" validate:"max=256"`
	Title       string   `json:"title" validate:"max=1024"`
	Authors     []string `json:"authors" validate:"max=50,dive,max=512"`
	Thumbnail   string   `json:"thumbnail" validate:"omitempty,url,max=2048"`
	PreviewLink string   `json:"previewLink" validate:"omitempty,url,max=2048"`
}

// List handles GET /api/library
// @Summary List saved books
// @Description Get the authenticated user's library, most recently updated first
// @Tags library
// @Produce json
// @Security Bearer
// @Success 200 {object} httpx.SuccessResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Router /api/library [get]
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r)
	if userID == "" {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return
	}

	books, err := h.service.ListBooks(r.Context(), userID)
	if err != nil {
		httpx.InternalError(w, r, err)
		return
	}

	httpx.JSONSuccess(w, r, books, map[string]any{"total": len(books)})
}

// Save handles POST /api/library
// @Summary Save a book
// @Description Add a catalog item to the authenticated user's library
// @Tags library
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body saveReq true "Book to save"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Router /api/library [post]
func (h *HTTPHandler) Save(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r)
	if userID == "" {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return
	}

	var req saveReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.DecodeError(w, r, err)
		return
	}
	if details := httpx.ValidateStruct(req); len(details) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", details)
		return
	}

	book, err := h.service.SaveBook(r.Context(), userID, SaveCommand{
		CatalogID:   req.CatalogID,
		Title:       req.Title,
		Authors:     req.Authors,
		Thumbnail:   req.Thumbnail,
		PreviewLink: req.PreviewLink,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httpx.JSONSuccess(w, r, book, nil)
}

// Update handles PUT /api/library/{id}
// @Summary Update a saved book
// @Description Change status, rating, review or cached display fields
// @Tags library
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "Saved book ID"
// @Param request body Patch true "Fields to change"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 403 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /api/library/{id} [put]
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r)
	if userID == "" {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return
	}

	var patch Patch
	if err := httpx.DecodeJSON(r, &patch); err != nil {
		httpx.DecodeError(w, r, err)
		return
	}

	book, err := h.service.UpdateBook(r.Context(), userID, r.PathValue("id"), patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httpx.JSONSuccess(w, r, book, nil)
}

// Delete handles DELETE /api/library/{id}
// @Summary Remove a saved book
// @Tags library
// @Produce json
// @Security Bearer
// @Param id path string true "Saved book ID"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 403 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /api/library/{id} [delete]
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r)
	if userID == "" {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return
	}

	id, err := h.service.DeleteBook(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httpx.JSONSuccess(w, r, map[string]string{"id": id}, nil)
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrMissingFields):
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Please include book details", nil)
	case errors.Is(err, ErrAlreadySaved):
		httpx.JSONError(w, r, http.StatusBadRequest, "ALREADY_EXISTS", "Book already in library", nil)
	case errors.Is(err, ErrInvalidAnnotation):
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
	case errors.Is(err, ErrForbidden):
		httpx.JSONError(w, r, http.StatusForbidden, "FORBIDDEN", "User not authorized", nil)
	default:
		httpx.InternalError(w, r, err)
	}
}
