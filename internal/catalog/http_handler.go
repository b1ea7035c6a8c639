package catalog

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"libri/internal/httpx"
)

type HTTPHandler struct {
	svc *Service
}

func NewHTTPHandler(svc *Service) *HTTPHandler {
	return &HTTPHandler{svc: svc}
}

// Search handles GET /api/books/search
// @Summary Search the book catalog
// @Description Proxy a search to Google Books, dropping results without a cover or description
// @Tags catalog
// @Produce json
// @Param q query string true "Search query"
// @Param startIndex query int false "Offset of the first result" default(0)
// @Param maxResults query int false "Page size (1-40)" default(10)
// @Param printType query string false "all, books or magazines" default(all)
// @Param filter query string false "free-ebooks, paid-ebooks, ebooks, full or partial"
// @Param orderBy query string false "relevance or newest" default(relevance)
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 500 {object} httpx.ErrorResponse
// @Router /api/books/search [get]
func (h *HTTPHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	startIndex, err := intParam(query.Get("startIndex"))
	if err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "startIndex must be an integer", nil)
		return
	}
	pageSize, err := intParam(query.Get("maxResults"))
	if err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "maxResults must be an integer", nil)
		return
	}

	q := SearchQuery{
		Query:      query.Get("q"),
		StartIndex: startIndex,
		PageSize:   pageSize,
		PrintType:  query.Get("printType"),
		Filter:     query.Get("filter"),
		OrderBy:    query.Get("orderBy"),
	}

	page, err := h.svc.Search(r.Context(), q)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingQuery):
			httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Search query is required", nil)
		case errors.Is(err, ErrInvalidParameter):
			httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		case errors.Is(err, ErrConfiguration):
			slog.Error("catalog search unavailable", "error", err, "request_id", httpx.RequestIDFrom(r))
			httpx.JSONError(w, r, http.StatusInternalServerError, "CONFIGURATION_ERROR", "Book search is not configured", nil)
		case errors.Is(err, ErrUpstream):
			slog.Error("catalog upstream failed", "error", err, "request_id", httpx.RequestIDFrom(r))
			httpx.JSONError(w, r, http.StatusInternalServerError, "UPSTREAM_ERROR", "Error fetching data from Google Books API", nil)
		default:
			httpx.InternalError(w, r, err)
		}
		return
	}

	normalized, _ := Normalize(q)
	httpx.JSONSuccess(w, r, page, map[string]any{
		"startIndex": normalized.StartIndex,
		"pageSize":   normalized.PageSize,
		"returned":   len(page.Items),
	})
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
