package user

import (
	"context"
)

type Repository interface {
	// Create stores u, returning ErrAlreadyExists when the email is taken.
	Create(ctx context.Context, u *User) error
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
	// Update persists name, email and credential fields of u.
	Update(ctx context.Context, u *User) error
}
