package auth

import (
	"context"

	"libri/internal/platform/googleid"
)

// IdentityProvider resolves an external access token to the account it
// belongs to.
type IdentityProvider interface {
	Verify(ctx context.Context, accessToken string) (googleid.Identity, error)
}
