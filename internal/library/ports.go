package library

import (
	"context"
)

//go:generate mockgen -source=ports.go -destination=mock_repository.go -package=library

type Repository interface {
	// Create inserts b. It must fail with ErrAlreadySaved, atomically, when
	// the owner already has an entry for b.CatalogID.
	Create(ctx context.Context, b *SavedBook) error
	GetByID(ctx context.Context, id string) (SavedBook, error)
	// ListByUser returns the user's entries, most recently updated first.
	ListByUser(ctx context.Context, userID string) ([]SavedBook, error)
	// Update overwrites the mutable fields of b, scoped to b.UserID.
	Update(ctx context.Context, b *SavedBook) error
	// Delete removes the entry id owned by userID.
	Delete(ctx context.Context, userID, id string) error
}
