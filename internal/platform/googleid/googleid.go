// Package googleid resolves a Google OAuth access token to the account it was
// issued for, using the OpenID userinfo endpoint.
package googleid

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const DefaultUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

// ErrRejected means the provider did not accept the token.
var ErrRejected = errors.New("googleid: token rejected")

type Identity struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

type Verifier struct {
	httpClient  *http.Client
	userInfoURL string
}

func NewVerifier(userInfoURL string, timeout time.Duration) *Verifier {
	if userInfoURL == "" {
		userInfoURL = DefaultUserInfoURL
	}
	return &Verifier{
		httpClient:  &http.Client{Timeout: timeout},
		userInfoURL: userInfoURL,
	}
}

// Verify fetches the identity behind accessToken. A 401 or 403 from the
// provider is reported as ErrRejected.
func (v *Verifier) Verify(ctx context.Context, accessToken string) (Identity, error) {
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return Identity{}, ErrRejected
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, v.httpClient)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.userInfoURL, nil)
	if err != nil {
		return Identity{}, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("googleid: userinfo request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return Identity{}, ErrRejected
	case resp.StatusCode != http.StatusOK:
		return Identity{}, fmt.Errorf("googleid: unexpected status code: %d", resp.StatusCode)
	}

	var id Identity
	if err := json.NewDecoder(resp.Body).Decode(&id); err != nil {
		return Identity{}, fmt.Errorf("googleid: decode userinfo: %w", err)
	}
	id.Email = strings.TrimSpace(id.Email)
	id.Name = strings.TrimSpace(id.Name)
	return id, nil
}
