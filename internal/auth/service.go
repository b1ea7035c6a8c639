package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"libri/internal/platform/crypto"
	"libri/internal/user"
)

const placeholderSecretBytes = 24

type Options struct {
	Secret     string
	TokenTTL   time.Duration
	BcryptCost int
}

type Service struct {
	users    *user.Service
	provider IdentityProvider
	opts     Options
}

func NewService(users *user.Service, provider IdentityProvider, opts Options) *Service {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 30 * 24 * time.Hour
	}
	return &Service{users: users, provider: provider, opts: opts}
}

func (s *Service) Register(ctx context.Context, name, email, password string) (Session, error) {
	name = strings.TrimSpace(name)
	email = user.NormalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return Session{}, ErrMissingFields
	}

	hash, err := crypto.HashPassword(password, s.opts.BcryptCost)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.users.Create(ctx, name, email, hash, true)
	if err != nil {
		if errors.Is(err, user.ErrAlreadyExists) {
			return Session{}, ErrDuplicateIdentity
		}
		return Session{}, fmt.Errorf("create user: %w", err)
	}
	return s.issue(u)
}

func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	email = user.NormalizeEmail(email)
	if email == "" || password == "" {
		return Session{}, ErrMissingFields
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, fmt.Errorf("lookup user: %w", err)
	}
	if !crypto.VerifyPassword(u.PasswordHash, password) {
		return Session{}, ErrInvalidCredentials
	}
	return s.issue(u)
}

// FederatedLogin signs in the account matching the provider's email, creating
// it on first use. created reports whether a new account was registered.
func (s *Service) FederatedLogin(ctx context.Context, accessToken string) (sess Session, created bool, err error) {
	if strings.TrimSpace(accessToken) == "" {
		return Session{}, false, ErrMissingFields
	}

	ident, err := s.provider.Verify(ctx, accessToken)
	if err != nil {
		return Session{}, false, fmt.Errorf("%w: %w", ErrFederatedProvider, err)
	}
	email := user.NormalizeEmail(ident.Email)
	if email == "" {
		return Session{}, false, ErrFederatedNoEmail
	}

	u, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		sess, err = s.issue(u)
		return sess, false, err
	case !errors.Is(err, user.ErrNotFound):
		return Session{}, false, fmt.Errorf("lookup user: %w", err)
	}

	placeholder, err := crypto.RandomSecret(placeholderSecretBytes)
	if err != nil {
		return Session{}, false, err
	}
	hash, err := crypto.HashPassword(placeholder, s.opts.BcryptCost)
	if err != nil {
		return Session{}, false, fmt.Errorf("hash password: %w", err)
	}

	name := ident.Name
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	u, err = s.users.Create(ctx, name, email, hash, false)
	if errors.Is(err, user.ErrAlreadyExists) {
		// registered concurrently; sign in to that account instead
		if u, err = s.users.GetByEmail(ctx, email); err == nil {
			sess, err = s.issue(u)
			return sess, false, err
		}
	}
	if err != nil {
		return Session{}, false, fmt.Errorf("create user: %w", err)
	}
	sess, err = s.issue(u)
	return sess, true, err
}

// CurrentIdentity resolves a bearer token to its user.
func (s *Service) CurrentIdentity(ctx context.Context, token string) (user.User, error) {
	claims, err := crypto.ParseToken(s.opts.Secret, token)
	if err != nil {
		return user.User{}, ErrUnauthenticated
	}
	return s.Identity(ctx, claims.Sub)
}

// Identity loads the user behind an already verified subject.
func (s *Service) Identity(ctx context.Context, userID string) (user.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, ErrUnauthenticated
		}
		return user.User{}, fmt.Errorf("lookup user: %w", err)
	}
	return u, nil
}

// UpdateProfile applies upd to the user and returns a new token. Tokens issued
// earlier stay valid until they expire.
func (s *Service) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (Session, error) {
	u, err := s.Identity(ctx, userID)
	if err != nil {
		return Session{}, err
	}

	if name := strings.TrimSpace(upd.Name); name != "" {
		u.Name = name
	}

	if email := user.NormalizeEmail(upd.Email); email != "" && email != u.Email {
		other, err := s.users.GetByEmail(ctx, email)
		switch {
		case err == nil && other.ID != u.ID:
			return Session{}, ErrEmailInUse
		case err != nil && !errors.Is(err, user.ErrNotFound):
			return Session{}, fmt.Errorf("lookup user: %w", err)
		}
		u.Email = email
	}

	if upd.NewPassword != "" {
		if u.PasswordSet {
			if upd.CurrentPassword == "" {
				return Session{}, ErrCurrentPasswordRequired
			}
			if !crypto.VerifyPassword(u.PasswordHash, upd.CurrentPassword) {
				return Session{}, ErrWrongCurrentPassword
			}
		}
		hash, err := crypto.HashPassword(upd.NewPassword, s.opts.BcryptCost)
		if err != nil {
			return Session{}, fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = hash
		u.PasswordSet = true
	}

	if err := s.users.Save(ctx, &u); err != nil {
		switch {
		case errors.Is(err, user.ErrAlreadyExists):
			return Session{}, ErrEmailInUse
		case errors.Is(err, user.ErrNotFound):
			return Session{}, ErrUnauthenticated
		}
		return Session{}, fmt.Errorf("save user: %w", err)
	}
	return s.issue(u)
}

func (s *Service) issue(u user.User) (Session, error) {
	token, _, err := crypto.GenerateToken(s.opts.Secret, u.ID, s.opts.TokenTTL)
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}
	return Session{User: u, Token: token}, nil
}
