package library

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) ListBooks(ctx context.Context, userID string) ([]SavedBook, error) {
	books, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	if books == nil {
		books = []SavedBook{}
	}
	return books, nil
}

func (s *Service) SaveBook(ctx context.Context, userID string, cmd SaveCommand) (SavedBook, error) {
	catalogID := strings.TrimSpace(cmd.CatalogID)
	title := strings.TrimSpace(cmd.Title)
	if catalogID == "" || title == "" {
		return SavedBook{}, ErrMissingFields
	}

	now := s.now().UTC()
	b := &SavedBook{
		ID:          uuid.NewString(),
		UserID:      userID,
		CatalogID:   catalogID,
		Title:       title,
		Authors:     cleanAuthors(cmd.Authors),
		Thumbnail:   strings.TrimSpace(cmd.Thumbnail),
		PreviewLink: strings.TrimSpace(cmd.PreviewLink),
		Status:      StatusWantToRead,
		Rating:      MinRating,
		Review:      "",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return SavedBook{}, err
	}
	return *b, nil
}

func (s *Service) UpdateBook(ctx context.Context, userID, bookID string, patch Patch) (SavedBook, error) {
	current, err := s.owned(ctx, userID, bookID)
	if err != nil {
		return SavedBook{}, err
	}

	updated := patch.Apply(current)
	if err := validate(updated); err != nil {
		return SavedBook{}, err
	}
	updated.Authors = cleanAuthors(updated.Authors)
	updated.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, &updated); err != nil {
		return SavedBook{}, err
	}
	return updated, nil
}

func (s *Service) DeleteBook(ctx context.Context, userID, bookID string) (string, error) {
	b, err := s.owned(ctx, userID, bookID)
	if err != nil {
		return "", err
	}
	if err := s.repo.Delete(ctx, userID, b.ID); err != nil {
		return "", err
	}
	return b.ID, nil
}

// owned loads bookID and checks that userID owns it. Any UUID spelling is
// accepted; stores are queried with the canonical lower-case form.
func (s *Service) owned(ctx context.Context, userID, bookID string) (SavedBook, error) {
	parsed, err := uuid.Parse(bookID)
	if err != nil {
		return SavedBook{}, ErrNotFound
	}
	b, err := s.repo.GetByID(ctx, parsed.String())
	if err != nil {
		return SavedBook{}, err
	}
	if b.UserID != userID {
		return SavedBook{}, ErrForbidden
	}
	return b, nil
}

func validate(b SavedBook) error {
	if !b.Status.Valid() {
		return fmt.Errorf("%w: status must be one of %q, %q, %q", ErrInvalidAnnotation, StatusWantToRead, StatusReading, StatusCompleted)
	}
	if b.Rating < MinRating || b.Rating > MaxRating {
		return fmt.Errorf("%w: rating must be between %d and %d", ErrInvalidAnnotation, MinRating, MaxRating)
	}
	if strings.TrimSpace(b.Title) == "" {
		return fmt.Errorf("%w: title cannot be empty", ErrInvalidAnnotation)
	}
	return nil
}

func cleanAuthors(authors []string) []string {
	out := make([]string, 0, len(authors))
	for _, a := range authors {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}
