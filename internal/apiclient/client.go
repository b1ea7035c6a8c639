// Package apiclient talks to the Libri HTTP API on behalf of a client. It
// attaches the stored bearer token to every request and forgets it as soon as
// the server answers 401.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"libri/internal/catalog"
	"libri/internal/library"
)

// ErrUnauthorized matches any APIError with status 401.
var ErrUnauthorized = errors.New("apiclient: unauthorized")

type TokenStore interface {
	Token() string
	SetToken(token string)
	Clear()
}

// MemoryTokenStore keeps the token for the life of the process.
type MemoryTokenStore struct {
	mu    sync.RWMutex
	token string
}

func (s *MemoryTokenStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *MemoryTokenStore) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

func (s *MemoryTokenStore) Clear() {
	s.SetToken("")
}

// APIError is a non-2xx answer decoded from the error envelope.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d %s: %s", e.StatusCode, e.Code, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

type Identity struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Token     string    `json:"token,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

type ProfileUpdate struct {
	Name            string `json:"name,omitempty"`
	Email           string `json:"email,omitempty"`
	CurrentPassword string `json:"currentPassword,omitempty"`
	NewPassword     string `json:"newPassword,omitempty"`
}

// SearchParams mirrors the query string of GET /api/books/search.
type SearchParams struct {
	Query      string
	StartIndex int
	MaxResults int
	PrintType  string
	Filter     string
	OrderBy    string
}

type SaveRequest struct {
	CatalogID   string   `json:"catalogId"`
	Title       string   `json:"title"`
	Authors     []string `json:"authors"`
	Thumbnail   string   `json:"thumbnail,omitempty"`
	PreviewLink string   `json:"previewLink,omitempty"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenStore
}

func New(baseURL string, tokens TokenStore, httpClient *http.Client) *Client {
	if tokens == nil {
		tokens = &MemoryTokenStore{}
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		tokens:     tokens,
	}
}

func (c *Client) Authenticated() bool {
	return c.tokens.Token() != ""
}

func (c *Client) Logout() {
	c.tokens.Clear()
}

func (c *Client) Register(ctx context.Context, name, email, password string) (Identity, error) {
	body := map[string]string{"name": name, "email": email, "password": password}
	return c.authenticate(ctx, http.MethodPost, "/api/auth/register", body)
}

func (c *Client) Login(ctx context.Context, email, password string) (Identity, error) {
	body := map[string]string{"email": email, "password": password}
	return c.authenticate(ctx, http.MethodPost, "/api/auth/login", body)
}

func (c *Client) GoogleLogin(ctx context.Context, accessToken string) (Identity, error) {
	return c.authenticate(ctx, http.MethodPost, "/api/auth/google", map[string]string{"accessToken": accessToken})
}

// UpdateProfile stores the token the server issues with the updated identity.
func (c *Client) UpdateProfile(ctx context.Context, upd ProfileUpdate) (Identity, error) {
	return c.authenticate(ctx, http.MethodPut, "/api/auth/profile", upd)
}

func (c *Client) Me(ctx context.Context) (Identity, error) {
	var id Identity
	err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &id)
	return id, err
}

func (c *Client) Search(ctx context.Context, p SearchParams) (catalog.Page, error) {
	q := url.Values{}
	q.Set("q", p.Query)
	q.Set("startIndex", strconv.Itoa(p.StartIndex))
	if p.MaxResults > 0 {
		q.Set("maxResults", strconv.Itoa(p.MaxResults))
	}
	if p.PrintType != "" {
		q.Set("printType", p.PrintType)
	}
	if p.Filter != "" {
		q.Set("filter", p.Filter)
	}
	if p.OrderBy != "" {
		q.Set("orderBy", p.OrderBy)
	}

	var page catalog.Page
	err := c.do(ctx, http.MethodGet, "/api/books/search?"+q.Encode(), nil, &page)
	return page, err
}

func (c *Client) ListLibrary(ctx context.Context) ([]library.SavedBook, error) {
	var books []library.SavedBook
	err := c.do(ctx, http.MethodGet, "/api/library", nil, &books)
	return books, err
}

func (c *Client) SaveBook(ctx context.Context, req SaveRequest) (library.SavedBook, error) {
	var b library.SavedBook
	err := c.do(ctx, http.MethodPost, "/api/library", req, &b)
	return b, err
}

func (c *Client) UpdateBook(ctx context.Context, id string, patch library.Patch) (library.SavedBook, error) {
	var b library.SavedBook
	err := c.do(ctx, http.MethodPut, "/api/library/"+url.PathEscape(id), patch, &b)
	return b, err
}

func (c *Client) DeleteBook(ctx context.Context, id string) (string, error) {
	var res struct {
		ID string `json:"id"`
	}
	err := c.do(ctx, http.MethodDelete, "/api/library/"+url.PathEscape(id), nil, &res)
	return res.ID, err
}

func (c *Client) authenticate(ctx context.Context, method, path string, body any) (Identity, error) {
	var id Identity
	if err := c.do(ctx, method, path, body, &id); err != nil {
		return Identity{}, err
	}
	if id.Token != "" {
		c.tokens.SetToken(id.Token)
	}
	return id, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if resp.StatusCode == http.StatusUnauthorized {
			c.tokens.Clear()
		}
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		if decodeErr == nil && env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		return apiErr
	}

	if decodeErr != nil {
		return fmt.Errorf("decode response: %w", decodeErr)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}
