package browse

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"libri/internal/apiclient"
	"libri/internal/catalog"
	"libri/internal/library"
)

// ErrLoginRequired is returned for library actions attempted without a token,
// and after the server rejected the token.
var ErrLoginRequired = errors.New("browse: log in to manage your library")

// NoticeTTL is how long a notice stays visible.
const NoticeTTL = 3 * time.Second

type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
	NoticeInfo    NoticeKind = "info"
)

// Notice is a transient message about the outcome of an action.
type Notice struct {
	Kind      NoticeKind
	Message   string
	ExpiresAt time.Time
}

// API is the part of apiclient.Client the controller uses.
type API interface {
	Authenticated() bool
	Search(ctx context.Context, p apiclient.SearchParams) (catalog.Page, error)
	ListLibrary(ctx context.Context) ([]library.SavedBook, error)
	SaveBook(ctx context.Context, req apiclient.SaveRequest) (library.SavedBook, error)
	UpdateBook(ctx context.Context, id string, patch library.Patch) (library.SavedBook, error)
	DeleteBook(ctx context.Context, id string) (string, error)
}

// Result is a catalog item with the user's saved entry for it, if any.
type Result struct {
	catalog.Item
	Saved *library.SavedBook
}

type Controller struct {
	api API
	now func() time.Time

	mu      sync.Mutex
	state   State
	saved   map[string]library.SavedBook // by catalog id
	notices []Notice
}

func NewController(api API) *Controller {
	return &Controller{
		api:   api,
		now:   time.Now,
		state: NewState(),
		saved: make(map[string]library.SavedBook),
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Dispatch applies ev and performs the search it triggers, if any. The lock
// is not held during the request, so a slower earlier search that finishes
// after a newer one is discarded by its sequence number.
func (c *Controller) Dispatch(ctx context.Context, ev Event) error {
	c.mu.Lock()
	next, req, err := Reduce(c.state, ev)
	c.state = next
	c.mu.Unlock()
	if err != nil || req == nil {
		return err
	}

	page, fetchErr := c.api.Search(ctx, req.Params)

	c.mu.Lock()
	defer c.mu.Unlock()
	if fetchErr != nil {
		c.state, _, _ = Reduce(c.state, FetchFailed{Seq: req.Seq, Err: fetchErr})
		return fetchErr
	}
	c.state, _, _ = Reduce(c.state, FetchSucceeded{Seq: req.Seq, Page: page})
	return nil
}

// Results overlays the user's saved entries on the displayed items.
func (c *Controller) Results() []Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Result, 0, len(c.state.Items))
	for _, item := range c.state.Items {
		r := Result{Item: item}
		if b, ok := c.saved[item.ID]; ok {
			r.Saved = &b
		}
		out = append(out, r)
	}
	return out
}

// RefreshLibrary reloads the saved entries from the server.
func (c *Controller) RefreshLibrary(ctx context.Context) error {
	if !c.api.Authenticated() {
		c.resetLibrary()
		return ErrLoginRequired
	}
	books, err := c.api.ListLibrary(ctx)
	if err != nil {
		return c.fail(err, "Failed to load your library")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.saved = make(map[string]library.SavedBook, len(books))
	for _, b := range books {
		c.saved[b.CatalogID] = b
	}
	return nil
}

// Library returns saved entries, most recently updated first. An empty status
// returns every entry.
func (c *Controller) Library(status library.Status) []library.SavedBook {
	c.mu.Lock()
	books := make([]library.SavedBook, 0, len(c.saved))
	for _, b := range c.saved {
		if status == "" || b.Status == status {
			books = append(books, b)
		}
	}
	c.mu.Unlock()

	slices.SortFunc(books, func(a, b library.SavedBook) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return books
}

func (c *Controller) Save(ctx context.Context, item catalog.Item) error {
	if !c.api.Authenticated() {
		c.notify(NoticeInfo, "Please log in to save books to your library")
		return ErrLoginRequired
	}
	b, err := c.api.SaveBook(ctx, apiclient.SaveRequest{
		CatalogID:   item.ID,
		Title:       item.Title,
		Authors:     item.Authors,
		Thumbnail:   item.Thumbnail,
		PreviewLink: item.PreviewLink,
	})
	if err != nil {
		return c.fail(err, "Failed to add book")
	}

	c.mu.Lock()
	c.saved[b.CatalogID] = b
	c.mu.Unlock()
	c.notify(NoticeSuccess, "Book added to your library")
	return nil
}

func (c *Controller) Update(ctx context.Context, bookID string, patch library.Patch) error {
	if !c.api.Authenticated() {
		c.notify(NoticeInfo, "Please log in to update your library")
		return ErrLoginRequired
	}
	b, err := c.api.UpdateBook(ctx, bookID, patch)
	if err != nil {
		return c.fail(err, "Failed to update book")
	}

	c.mu.Lock()
	c.saved[b.CatalogID] = b
	c.mu.Unlock()
	c.notify(NoticeSuccess, "Book updated")
	return nil
}

func (c *Controller) Delete(ctx context.Context, bookID string) error {
	if !c.api.Authenticated() {
		c.notify(NoticeInfo, "Please log in to update your library")
		return ErrLoginRequired
	}
	if _, err := c.api.DeleteBook(ctx, bookID); err != nil {
		return c.fail(err, "Failed to remove book")
	}

	c.mu.Lock()
	for catalogID, b := range c.saved {
		if b.ID == bookID {
			delete(c.saved, catalogID)
		}
	}
	c.mu.Unlock()
	c.notify(NoticeSuccess, "Book removed from your library")
	return nil
}

// Notices returns the notices that have not expired yet and drops the rest.
func (c *Controller) Notices() []Notice {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notices = slices.DeleteFunc(c.notices, func(n Notice) bool {
		return !now.Before(n.ExpiresAt)
	})
	return slices.Clone(c.notices)
}

func (c *Controller) notify(kind NoticeKind, message string) {
	n := Notice{Kind: kind, Message: message, ExpiresAt: c.now().Add(NoticeTTL)}
	c.mu.Lock()
	c.notices = append(c.notices, n)
	c.mu.Unlock()
}

// fail turns an API error into a notice. A rejected token means the user must
// log in again, so the overlay is dropped with it.
func (c *Controller) fail(err error, fallback string) error {
	if errors.Is(err, apiclient.ErrUnauthorized) {
		c.resetLibrary()
		c.notify(NoticeInfo, "Your session has expired. Please log in again")
		return fmt.Errorf("%w: %w", ErrLoginRequired, err)
	}

	msg := fallback
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		msg = apiErr.Message
	}
	c.notify(NoticeError, msg)
	return err
}

func (c *Controller) resetLibrary() {
	c.mu.Lock()
	c.saved = make(map[string]library.SavedBook)
	c.mu.Unlock()
}
