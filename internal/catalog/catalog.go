package catalog

import (
	"errors"
)

var (
	ErrMissingQuery     = errors.New("search query is required")
	ErrConfiguration    = errors.New("catalog api key is not configured")
	ErrUpstream         = errors.New("catalog upstream failed")
	ErrInvalidParameter = errors.New("invalid search parameter")
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 40
)

var (
	printTypes = []string{"all", "books", "magazines"}
	filters    = []string{"", "free-ebooks", "paid-ebooks", "ebooks", "full", "partial"}
	orderings  = []string{"relevance", "newest"}
)

// SearchQuery is a catalog search as the client asks for it. Zero values
// select the defaults.
type SearchQuery struct {
	Query      string
	StartIndex int
	PageSize   int
	PrintType  string
	Filter     string
	OrderBy    string
}

// Item is a catalog volume that passed the quality gate: it always has an
// id, a title, a thumbnail and a description.
type Item struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Subtitle      string   `json:"subtitle,omitempty"`
	Authors       []string `json:"authors"`
	Publisher     string   `json:"publisher,omitempty"`
	PublishedDate string   `json:"publishedDate,omitempty"`
	Description   string   `json:"description"`
	PageCount     int      `json:"pageCount,omitempty"`
	Categories    []string `json:"categories,omitempty"`
	AverageRating float64  `json:"averageRating,omitempty"`
	RatingsCount  int      `json:"ratingsCount,omitempty"`
	Language      string   `json:"language,omitempty"`
	Thumbnail     string   `json:"thumbnail"`
	PreviewLink   string   `json:"previewLink,omitempty"`
	InfoLink      string   `json:"infoLink,omitempty"`
}

// Page is one filtered result page. TotalItems is the count the upstream
// reported before filtering, so Items may hold fewer than PageSize entries
// even when more pages exist.
type Page struct {
	TotalItems int    `json:"totalItems"`
	Items      []Item `json:"items"`
}
