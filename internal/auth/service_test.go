package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"libri/internal/platform/crypto"
	"libri/internal/platform/googleid"
	"libri/internal/store"
	"libri/internal/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-test-secret-test-secret"

type fakeProvider struct {
	identities map[string]googleid.Identity
	err        error
}

func (p *fakeProvider) Verify(_ context.Context, token string) (googleid.Identity, error) {
	if p.err != nil {
		return googleid.Identity{}, p.err
	}
	id, ok := p.identities[token]
	if !ok {
		return googleid.Identity{}, googleid.ErrRejected
	}
	return id, nil
}

func newTestService(t *testing.T) (*Service, *user.Service, *fakeProvider) {
	t.Helper()
	users := user.NewService(store.NewUserMemory())
	provider := &fakeProvider{identities: map[string]googleid.Identity{}}
	svc := NewService(users, provider, Options{Secret: testSecret, TokenTTL: time.Hour, BcryptCost: bcrypt.MinCost})
	return svc, users, provider
}

func TestService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		sess, err := svc.Register(ctx, "Ann", "Ann@X.com", "secret1")
		require.NoError(t, err)
		assert.Equal(t, "ann@x.com", sess.User.Email)
		assert.NotEqual(t, "secret1", sess.User.PasswordHash)
		assert.True(t, sess.User.PasswordSet)

		claims, err := crypto.ParseToken(testSecret, sess.Token)
		require.NoError(t, err)
		assert.Equal(t, sess.User.ID, claims.Sub)
	})

	t.Run("missing fields", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		for _, in := range [][3]string{{"", "a@x.com", "pw"}, {"Ann", " ", "pw"}, {"Ann", "a@x.com", ""}} {
			_, err := svc.Register(ctx, in[0], in[1], in[2])
			assert.ErrorIs(t, err, ErrMissingFields)
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		_, err := svc.Register(ctx, "Ann", "ann@x.com", "secret1")
		require.NoError(t, err)
		_, err = svc.Register(ctx, "Ann Again", " ANN@x.com", "other")
		assert.ErrorIs(t, err, ErrDuplicateIdentity)
	})
}

func TestService_Login(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	_, err := svc.Register(ctx, "Ann", "ann@x.com", "secret1")
	require.NoError(t, err)

	sess, err := svc.Login(ctx, "ann@x.com", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)

	_, err = svc.Login(ctx, "ann@x.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@x.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "ann@x.com", "")
	assert.ErrorIs(t, err, ErrMissingFields)
}

func TestService_FederatedLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("registers then logs in", func(t *testing.T) {
		svc, _, provider := newTestService(t)
		provider.identities["g-token"] = googleid.Identity{Subject: "1", Email: "Gina@Example.com", Name: "Gina"}

		first, created, err := svc.FederatedLogin(ctx, "g-token")
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, "gina@example.com", first.User.Email)
		assert.False(t, first.User.PasswordSet)

		second, created, err := svc.FederatedLogin(ctx, "g-token")
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.User.ID, second.User.ID)
	})

	t.Run("placeholder password is unusable", func(t *testing.T) {
		svc, _, provider := newTestService(t)
		provider.identities["g-token"] = googleid.Identity{Email: "gina@example.com"}

		sess, _, err := svc.FederatedLogin(ctx, "g-token")
		require.NoError(t, err)
		assert.Equal(t, "gina", sess.User.Name)

		for _, guess := range []string{"", "password", "gina@example.com"} {
			_, err := svc.Login(ctx, "gina@example.com", guess)
			assert.Error(t, err)
		}
	})

	t.Run("existing password account", func(t *testing.T) {
		svc, _, provider := newTestService(t)
		reg, err := svc.Register(ctx, "Ann", "ann@x.com", "secret1")
		require.NoError(t, err)
		provider.identities["g-token"] = googleid.Identity{Email: "ann@x.com", Name: "Ann G"}

		sess, created, err := svc.FederatedLogin(ctx, "g-token")
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, reg.User.ID, sess.User.ID)
	})

	t.Run("provider rejects", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		_, _, err := svc.FederatedLogin(ctx, "forged")
		assert.ErrorIs(t, err, ErrFederatedProvider)
		assert.ErrorIs(t, err, googleid.ErrRejected)
	})

	t.Run("provider down", func(t *testing.T) {
		svc, _, provider := newTestService(t)
		provider.err = errors.New("dial tcp: timeout")
		_, _, err := svc.FederatedLogin(ctx, "any")
		assert.ErrorIs(t, err, ErrFederatedProvider)
	})

	t.Run("no email", func(t *testing.T) {
		svc, _, provider := newTestService(t)
		provider.identities["g-token"] = googleid.Identity{Subject: "1", Name: "No Mail"}
		_, _, err := svc.FederatedLogin(ctx, "g-token")
		assert.ErrorIs(t, err, ErrFederatedNoEmail)
		assert.ErrorIs(t, err, ErrMissingFields)
	})
}

func TestService_CurrentIdentity(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	sess, err := svc.Register(ctx, "Ann", "ann@x.com", "secret1")
	require.NoError(t, err)

	u, err := svc.CurrentIdentity(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, u.ID)

	_, err = svc.CurrentIdentity(ctx, "garbage")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	expired, _, err := crypto.GenerateToken(testSecret, sess.User.ID, -time.Minute)
	require.NoError(t, err)
	_, err = svc.CurrentIdentity(ctx, expired)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	ghost, _, err := crypto.GenerateToken(testSecret, "00000000-0000-0000-0000-000000000000", time.Hour)
	require.NoError(t, err)
	_, err = svc.CurrentIdentity(ctx, ghost)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestService_UpdateProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("name and email", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		sess, err := svc.Register(ctx, "Ann", "ann@x.com", "secret1")
		require.NoError(t, err)

		updated, err := svc.UpdateProfile(ctx, sess.User.ID, ProfileUpdate{Name: "Annie", Email: "Annie@X.com"})
		require.NoError(t, err)
		assert.Equal(t, "Annie", updated.User.Name)
		assert.Equal(t, "annie@x.com", updated.User.Email)
		assert.NotEmpty(t, updated.Token)

		// the earlier token remains usable until it expires
		_, err = svc.CurrentIdentity(ctx, sess.Token)
		assert.NoError(t, err)
	})

	t.Run("email taken", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		_, err := svc.Register(ctx, "Bob", "bob@x.com", "secret1")
		require.NoError(t, err)
		ann, err := svc.Register(ctx, "Ann", "ann@x.com", "secret1")
		require.NoError(t, err)

		_, err = svc.UpdateProfile(ctx, ann.User.ID, ProfileUpdate{Email: "BOB@x.com"})
		assert.ErrorIs(t, err, ErrEmailInUse)

		// unchanged email is not a conflict
		_, err = svc.UpdateProfile(ctx, ann.User.ID, ProfileUpdate{Email: "ann@x.com"})
		assert.NoError(t, err)
	})

	t.Run("password change", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		ann, err := svc.Register(ctx, "Ann", "ann@x.com", "secret1")
		require.NoError(t, err)

		_, err = svc.UpdateProfile(ctx, ann.User.ID, ProfileUpdate{NewPassword: "secret2"})
		assert.ErrorIs(t, err, ErrCurrentPasswordRequired)

		_, err = svc.UpdateProfile(ctx, ann.User.ID, ProfileUpdate{CurrentPassword: "nope", NewPassword: "secret2"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)

		_, err = svc.UpdateProfile(ctx, ann.User.ID, ProfileUpdate{CurrentPassword: "secret1", NewPassword: "secret2"})
		require.NoError(t, err)

		_, err = svc.Login(ctx, "ann@x.com", "secret1")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		_, err = svc.Login(ctx, "ann@x.com", "secret2")
		assert.NoError(t, err)
	})

	t.Run("federated account sets first password", func(t *testing.T) {
		svc, _, provider := newTestService(t)
		provider.identities["g"] = googleid.Identity{Email: "gina@example.com", Name: "Gina"}
		sess, _, err := svc.FederatedLogin(ctx, "g")
		require.NoError(t, err)

		updated, err := svc.UpdateProfile(ctx, sess.User.ID, ProfileUpdate{NewPassword: "chosen1"})
		require.NoError(t, err)
		assert.True(t, updated.User.PasswordSet)

		_, err = svc.Login(ctx, "gina@example.com", "chosen1")
		assert.NoError(t, err)

		_, err = svc.UpdateProfile(ctx, sess.User.ID, ProfileUpdate{NewPassword: "chosen2"})
		assert.ErrorIs(t, err, ErrCurrentPasswordRequired)
	})

	t.Run("unknown user", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		_, err := svc.UpdateProfile(ctx, "00000000-0000-0000-0000-000000000000", ProfileUpdate{Name: "x"})
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})
}
