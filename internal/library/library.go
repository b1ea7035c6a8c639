package library

import (
	"errors"
	"time"
)

var (
	ErrNotFound          = errors.New("book not found")
	ErrForbidden         = errors.New("user not authorized")
	ErrAlreadySaved      = errors.New("book already in library")
	ErrMissingFields     = errors.New("missing book details")
	ErrInvalidAnnotation = errors.New("invalid annotation")
)

type Status string

const (
	StatusWantToRead Status = "Want to Read"
	StatusReading    Status = "Reading"
	StatusCompleted  Status = "Completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusWantToRead, StatusReading, StatusCompleted:
		return true
	default:
		return false
	}
}

const (
	MinRating = 0 // unset
	MaxRating = 5
)

// SavedBook is a user's annotated reference to a catalog item. Title,
// Authors, Thumbnail and PreviewLink are copies taken when the book was saved.
type SavedBook struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	CatalogID   string    `json:"catalogId"`
	Title       string    `json:"title"`
	Authors     []string  `json:"authors"`
	Thumbnail   string    `json:"thumbnail"`
	PreviewLink string    `json:"previewLink"`
	Status      Status    `json:"status"`
	Rating      int       `json:"rating"`
	Review      string    `json:"review"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type SaveCommand struct {
	CatalogID   string
	Title       string
	Authors     []string
	Thumbnail   string
	PreviewLink string
}

// Patch holds the fields an update may change; nil means unchanged.
type Patch struct {
	Status      *Status   `json:"status,omitempty"`
	Rating      *int      `json:"rating,omitempty"`
	Review      *string   `json:"review,omitempty"`
	Title       *string   `json:"title,omitempty"`
	Authors     *[]string `json:"authors,omitempty"`
	Thumbnail   *string   `json:"thumbnail,omitempty"`
	PreviewLink *string   `json:"previewLink,omitempty"`
}

func (p Patch) Empty() bool {
	return p.Status == nil && p.Rating == nil && p.Review == nil && p.Title == nil &&
		p.Authors == nil && p.Thumbnail == nil && p.PreviewLink == nil
}

// Apply returns b with the patch applied, without touching the stored copy.
func (p Patch) Apply(b SavedBook) SavedBook {
	if p.Status != nil {
		b.Status = *p.Status
	}
	if p.Rating != nil {
		b.Rating = *p.Rating
	}
	if p.Review != nil {
		b.Review = *p.Review
	}
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Authors != nil {
		b.Authors = append([]string(nil), (*p.Authors)...)
	}
	if p.Thumbnail != nil {
		b.Thumbnail = *p.Thumbnail
	}
	if p.PreviewLink != nil {
		b.PreviewLink = *p.PreviewLink
	}
	return b
}
