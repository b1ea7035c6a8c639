package store

import (
	"context"
	"slices"
	"sync"

	"libri/internal/library"
)

type libraryKey struct {
	userID    string
	catalogID string
}

type LibraryMemory struct {
	mu     sync.RWMutex
	byID   map[string]library.SavedBook
	byPair map[libraryKey]string
}

func NewLibraryMemory() *LibraryMemory {
	return &LibraryMemory{
		byID:   make(map[string]library.SavedBook),
		byPair: make(map[libraryKey]string),
	}
}

// Create checks and claims the (user, catalog item) pair under one lock.
func (r *LibraryMemory) Create(ctx context.Context, b *library.SavedBook) error {
	key := libraryKey{userID: b.UserID, catalogID: b.CatalogID}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byPair[key]; taken {
		return library.ErrAlreadySaved
	}
	r.byID[b.ID] = clone(*b)
	r.byPair[key] = b.ID
	return nil
}

func (r *LibraryMemory) GetByID(ctx context.Context, id string) (library.SavedBook, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.byID[id]
	if !ok {
		return library.SavedBook{}, library.ErrNotFound
	}
	return clone(b), nil
}

func (r *LibraryMemory) ListByUser(ctx context.Context, userID string) ([]library.SavedBook, error) {
	r.mu.RLock()
	books := []library.SavedBook{}
	for _, b := range r.byID {
		if b.UserID == userID {
			books = append(books, clone(b))
		}
	}
	r.mu.RUnlock()

	slices.SortFunc(books, func(a, b library.SavedBook) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return books, nil
}

func (r *LibraryMemory) Update(ctx context.Context, b *library.SavedBook) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.byID[b.ID]
	if !ok || current.UserID != b.UserID {
		return library.ErrNotFound
	}
	updated := clone(*b)
	updated.CatalogID = current.CatalogID
	updated.CreatedAt = current.CreatedAt
	r.byID[b.ID] = updated
	return nil
}

func (r *LibraryMemory) Delete(ctx context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.byID[id]
	if !ok || b.UserID != userID {
		return library.ErrNotFound
	}
	delete(r.byID, id)
	delete(r.byPair, libraryKey{userID: b.UserID, catalogID: b.CatalogID})
	return nil
}

func clone(b library.SavedBook) library.SavedBook {
	b.Authors = append([]string{}, b.Authors...)
	return b
}
