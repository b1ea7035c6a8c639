package auth

import (
	"errors"
	"fmt"

	"libri/internal/user"
)

var (
	ErrMissingFields      = errors.New("missing required fields")
	ErrDuplicateIdentity  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrFederatedProvider  = errors.New("federated provider could not validate token")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrEmailInUse         = errors.New("email already in use")

	ErrCurrentPasswordRequired = fmt.Errorf("current password required: %w", ErrMissingFields)
	ErrWrongCurrentPassword    = fmt.Errorf("current password does not match: %w", ErrInvalidCredentials)
	ErrFederatedNoEmail        = fmt.Errorf("federated account has no email: %w", ErrMissingFields)
)

// Session is an identity together with a freshly issued bearer token.
type Session struct {
	User  user.User
	Token string
}

// ProfileUpdate carries the optional fields of a profile edit. Empty strings
// leave the corresponding field unchanged.
type ProfileUpdate struct {
	Name            string
	Email           string
	CurrentPassword string
	NewPassword     string
}
