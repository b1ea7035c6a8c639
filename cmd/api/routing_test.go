package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"libri/internal/apiclient"
	"libri/internal/config"
	"libri/internal/library"
	"libri/internal/platform/googlebooks"
	"libri/internal/platform/googleid"
	"libri/internal/store"
	"libri/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUpstream struct {
	res *googlebooks.VolumesResponse
}

func (f fakeUpstream) HasAPIKey() bool { return true }

func (f fakeUpstream) Volumes(ctx context.Context, req googlebooks.VolumesRequest) (*googlebooks.VolumesResponse, error) {
	return f.res, nil
}

type fakeIdentity struct {
	id googleid.Identity
}

func (f fakeIdentity) Verify(ctx context.Context, accessToken string) (googleid.Identity, error) {
	if accessToken != "good" {
		return googleid.Identity{}, googleid.ErrRejected
	}
	return f.id, nil
}

func testConfig() config.Config {
	return config.Config{
		Store:          config.StoreMemory,
		JWTSecret:      testutil.TestSecret,
		TokenTTL:       time.Hour,
		BcryptCost:     4,
		AllowedOrigins: []string{"http://localhost:3000"},
		MaxBodyBytes:   1 << 20,
	}
}

func newTestServer(t *testing.T, d deps) *httptest.Server {
	t.Helper()
	if d.users == nil {
		d.users = store.NewUserMemory()
	}
	if d.library == nil {
		d.library = store.NewLibraryMemory()
	}
	if d.catalog == nil {
		d.catalog = fakeUpstream{res: &googlebooks.VolumesResponse{}}
	}
	if d.identity == nil {
		d.identity = fakeIdentity{}
	}
	srv := httptest.NewServer(newRouter(testConfig(), d))
	t.Cleanup(srv.Close)
	return srv
}

func newClient(srv *httptest.Server) *apiclient.Client {
	return apiclient.New(srv.URL, &apiclient.MemoryTokenStore{}, srv.Client())
}

func apiError(t *testing.T, err error) *apiclient.APIError {
	t.Helper()
	var apiErr *apiclient.APIError
	require.True(t, errors.As(err, &apiErr), "expected APIError, got %v", err)
	return apiErr
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, deps{})

	for _, path := range []string{"/api/health", "/api/ready"} {
		res, err := srv.Client().Get(srv.URL + path)
		require.NoError(t, err)
		res.Body.Close()
		assert.Equal(t, http.StatusOK, res.StatusCode, path)
		assert.NotEmpty(t, res.Header.Get("X-Request-ID"), path)
	}
}

func TestReady_StoreDown(t *testing.T) {
	srv := newTestServer(t, deps{ready: func(ctx context.Context) error {
		return errors.New("connection refused")
	}})

	res, err := srv.Client().Get(srv.URL + "/api/ready")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode)
}

func TestLibraryLifecycle(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t, deps{})
	c := newClient(srv)

	ann, err := c.Register(ctx, "Ann", "ann@x.com", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, ann.Token)
	assert.True(t, c.Authenticated())

	saved, err := c.SaveBook(ctx, apiclient.SaveRequest{CatalogID: "gb1", Title: "Dune", Authors: []string{"Frank Herbert"}})
	require.NoError(t, err)
	assert.Equal(t, library.StatusWantToRead, saved.Status)
	assert.Equal(t, 0, saved.Rating)
	assert.Equal(t, ann.ID, saved.UserID)

	_, err = c.SaveBook(ctx, apiclient.SaveRequest{CatalogID: "gb1", Title: "Dune", Authors: []string{"Frank Herbert"}})
	apiErr := apiError(t, err)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Book already in library", apiErr.Message)

	status, rating := library.StatusReading, 4
	updated, err := c.UpdateBook(ctx, saved.ID, library.Patch{Status: &status, Rating: &rating})
	require.NoError(t, err)
	assert.Equal(t, library.StatusReading, updated.Status)
	assert.Equal(t, 4, updated.Rating)
	assert.Equal(t, "Dune", updated.Title)

	books, err := c.ListLibrary(ctx)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, saved.ID, books[0].ID)

	id, err := c.DeleteBook(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, id)

	books, err = c.ListLibrary(ctx)
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestAuthFailures(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t, deps{})
	c := newClient(srv)

	_, err := c.Register(ctx, "Ann", "ann@x.com", "secret1")
	require.NoError(t, err)
	c.Logout()

	_, err = c.Login(ctx, "ann@x.com", "wrong")
	apiErr := apiError(t, err)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Invalid credentials", apiErr.Message)

	_, err = c.Register(ctx, "Bob", "bob@x.com", "")
	apiErr = apiError(t, err)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Please add all fields", apiErr.Message)

	_, err = c.Register(ctx, "Ann Again", "ANN@x.com", "secret1")
	apiErr = apiError(t, err)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "User already exists", apiErr.Message)

	_, err = c.ListLibrary(ctx)
	assert.True(t, errors.Is(err, apiclient.ErrUnauthorized))

	_, err = c.Me(ctx)
	assert.True(t, errors.Is(err, apiclient.ErrUnauthorized))
}

func TestLibrary_OtherUsersEntry(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t, deps{})

	ann := newClient(srv)
	_, err := ann.Register(ctx, "Ann", "ann@x.com", "secret1")
	require.NoError(t, err)
	saved, err := ann.SaveBook(ctx, apiclient.SaveRequest{CatalogID: "gb1", Title: "Dune", Authors: []string{"Frank Herbert"}})
	require.NoError(t, err)

	bob := newClient(srv)
	_, err = bob.Register(ctx, "Bob", "bob@x.com", "secret2")
	require.NoError(t, err)

	rating := 1
	_, err = bob.UpdateBook(ctx, saved.ID, library.Patch{Rating: &rating})
	apiErr := apiError(t, err)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "User not authorized", apiErr.Message)

	_, err = bob.DeleteBook(ctx, saved.ID)
	assert.Equal(t, http.StatusForbidden, apiError(t, err).StatusCode)

	_, err = bob.DeleteBook(ctx, "00000000-0000-0000-0000-000000000000")
	assert.Equal(t, http.StatusNotFound, apiError(t, err).StatusCode)

	// Bob may save the same catalog item for himself.
	_, err = bob.SaveBook(ctx, apiclient.SaveRequest{CatalogID: "gb1", Title: "Dune", Authors: []string{"Frank Herbert"}})
	require.NoError(t, err)

	books, err := ann.ListLibrary(ctx)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, 0, books[0].Rating)
}

func TestProfileUpdate(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t, deps{})
	c := newClient(srv)

	_, err := c.Register(ctx, "Ann", "ann@x.com", "secret1")
	require.NoError(t, err)

	_, err = c.UpdateProfile(ctx, apiclient.ProfileUpdate{NewPassword: "secret2"})
	apiErr := apiError(t, err)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Please provide current password to change password", apiErr.Message)

	_, err = c.UpdateProfile(ctx, apiclient.ProfileUpdate{CurrentPassword: "nope", NewPassword: "secret2"})
	assert.Equal(t, http.StatusUnauthorized, apiError(t, err).StatusCode)
	assert.False(t, c.Authenticated())

	_, err = c.Login(ctx, "ann@x.com", "secret1")
	require.NoError(t, err)

	id, err := c.UpdateProfile(ctx, apiclient.ProfileUpdate{Name: "Annie", CurrentPassword: "secret1", NewPassword: "secret2"})
	require.NoError(t, err)
	assert.Equal(t, "Annie", id.Name)

	me, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Annie", me.Name)

	c.Logout()
	_, err = c.Login(ctx, "ann@x.com", "secret2")
	require.NoError(t, err)
}

func TestGoogleLogin(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t, deps{identity: fakeIdentity{id: googleid.Identity{
		Subject: "g-1",
		Email:   "carol@x.com",
		Name:    "Carol",
	}}})

	c := newClient(srv)
	_, err := c.GoogleLogin(ctx, "bad")
	assert.Equal(t, http.StatusUnauthorized, apiError(t, err).StatusCode)

	first, err := c.GoogleLogin(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, "Carol", first.Name)

	second, err := c.GoogleLogin(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestSearch_FiltersIncompleteItems(t *testing.T) {
	var res googlebooks.VolumesResponse
	require.NoError(t, json.Unmarshal([]byte(`{
		"totalItems": 57,
		"items": [
			{"id": "a", "volumeInfo": {"title": "Dune", "description": "Spice.", "imageLinks": {"thumbnail": "http://t/a"}}},
			{"id": "b", "volumeInfo": {"title": "No cover", "description": "Text."}},
			{"id": "c", "volumeInfo": {"title": "No blurb", "imageLinks": {"thumbnail": "http://t/c"}}}
		]
	}`), &res))
	srv := newTestServer(t, deps{catalog: fakeUpstream{res: &res}})
	c := newClient(srv)

	page, err := c.Search(context.Background(), apiclient.SearchParams{Query: "dune"})
	require.NoError(t, err)
	assert.Equal(t, 57, page.TotalItems)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "a", page.Items[0].ID)

	_, err = c.Search(context.Background(), apiclient.SearchParams{Query: "  "})
	assert.Equal(t, http.StatusBadRequest, apiError(t, err).StatusCode)
}

func TestUnknownMethod(t *testing.T) {
	srv := newTestServer(t, deps{})

	req, err := http.NewRequest(http.MethodPatch, srv.URL+"/api/library", nil)
	require.NoError(t, err)
	res, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, res.StatusCode)
}

func TestLibrary_IDSpelling(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t, deps{})
	c := newClient(srv)

	_, err := c.Register(ctx, "Ann", "ann@x.com", "secret1")
	require.NoError(t, err)
	saved, err := c.SaveBook(ctx, apiclient.SaveRequest{CatalogID: "gb1", Title: "Dune"})
	require.NoError(t, err)

	rating := 5
	updated, err := c.UpdateBook(ctx, strings.ToUpper(saved.ID), library.Patch{Rating: &rating})
	require.NoError(t, err)
	assert.Equal(t, saved.ID, updated.ID)
	assert.Equal(t, 5, updated.Rating)

	id, err := c.DeleteBook(ctx, strings.ToUpper(saved.ID))
	require.NoError(t, err)
	assert.Equal(t, saved.ID, id)
}

func TestAuth_InputEdges(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t, deps{})
	c := newClient(srv)

	_, err := c.Register(ctx, "Eve", "eve@x.com", strings.Repeat("é", 40))
	apiErr := apiError(t, err)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", apiErr.Code)

	bob, err := c.Register(ctx, "Bob", " bob@x.com ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "bob@x.com", bob.Email)
}
