// Package store holds the in-memory repositories used when STORE=memory and
// by the end-to-end tests. They satisfy the same contracts as the Postgres
// repositories, including the uniqueness rules.
package store

import (
	"context"
	"sync"

	"libri/internal/user"
)

type UserMemory struct {
	mu      sync.RWMutex
	byID    map[string]user.User
	byEmail map[string]string
}

func NewUserMemory() *UserMemory {
	return &UserMemory{
		byID:    make(map[string]user.User),
		byEmail: make(map[string]string),
	}
}

func (r *UserMemory) Create(ctx context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byEmail[u.Email]; taken {
		return user.ErrAlreadyExists
	}
	r.byID[u.ID] = *u
	r.byEmail[u.Email] = u.ID
	return nil
}

func (r *UserMemory) GetByEmail(ctx context.Context, email string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[email]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return r.byID[id], nil
}

func (r *UserMemory) GetByID(ctx context.Context, id string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (r *UserMemory) Update(ctx context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.byID[u.ID]
	if !ok {
		return user.ErrNotFound
	}
	if owner, taken := r.byEmail[u.Email]; taken && owner != u.ID {
		return user.ErrAlreadyExists
	}
	delete(r.byEmail, current.Email)
	r.byEmail[u.Email] = u.ID
	r.byID[u.ID] = *u
	return nil
}
