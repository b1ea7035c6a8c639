// Package browse holds the client-side view state for catalog browsing. State
// changes only through Reduce; Controller runs the requests Reduce asks for.
package browse

import (
	"errors"

	"libri/internal/apiclient"
	"libri/internal/catalog"
)

var (
	ErrEmptyQuery      = errors.New("browse: empty search query")
	ErrPageOutOfRange  = errors.New("browse: page out of range")
	ErrUnknownCategory = errors.New("browse: unknown category")
	ErrInvalidFilter   = errors.New("browse: invalid filter value")
)

type Mode int

const (
	ModeIdle Mode = iota
	ModeTrending
	ModeSearching
)

func (m Mode) String() string {
	switch m {
	case ModeTrending:
		return "trending"
	case ModeSearching:
		return "searching"
	default:
		return "idle"
	}
}

type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusLoaded
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

type ViewMode string

const (
	ViewGrid ViewMode = "grid"
	ViewList ViewMode = "list"
)

const (
	TrendingQuery   = "subject:fiction"
	DefaultPageSize = catalog.DefaultPageSize

	OrderRelevance = "relevance"
	OrderNewest    = "newest"

	PrintAll       = "all"
	PrintBooks     = "books"
	PrintMagazines = "magazines"

	FetchFailedMessage = "Failed to fetch books. Please try again."
)

// Categories are the quick-pick searches; each maps to "subject:<name>".
var Categories = []string{"biographies", "design", "history", "sci-fi"}

type Filters struct {
	PrintType string
	FreeOnly  bool
	OrderBy   string
}

func defaultFilters(mode Mode) Filters {
	f := Filters{PrintType: PrintAll, OrderBy: OrderRelevance}
	if mode == ModeTrending {
		f.OrderBy = OrderNewest
	}
	return f
}

type State struct {
	Mode     Mode
	Status   Status
	Query    string
	Category string
	Filters  Filters
	Page     int
	PageSize int
	View     ViewMode

	TotalItems int
	Items      []catalog.Item
	// Err is the retryable message shown while Status is StatusError. It is
	// kept through later Loading states and cleared by the next success.
	Err string

	// Seq identifies the request in flight; responses carrying another
	// sequence number are stale.
	Seq uint64
}

func NewState() State {
	return State{
		Mode:     ModeIdle,
		Status:   StatusIdle,
		Filters:  defaultFilters(ModeIdle),
		Page:     1,
		PageSize: DefaultPageSize,
		View:     ViewGrid,
	}
}

// LastPage is the highest page the current total allows, 0 when nothing has
// been loaded.
func (s State) LastPage() int {
	if s.PageSize <= 0 || s.TotalItems <= 0 {
		return 0
	}
	return (s.TotalItems + s.PageSize - 1) / s.PageSize
}

// Request is a search the caller must perform and answer with FetchSucceeded
// or FetchFailed carrying the same Seq.
type Request struct {
	Seq    uint64
	Params apiclient.SearchParams
}

func (s State) params() apiclient.SearchParams {
	p := apiclient.SearchParams{
		Query:      s.Query,
		StartIndex: (s.Page - 1) * s.PageSize,
		MaxResults: s.PageSize,
		PrintType:  s.Filters.PrintType,
		OrderBy:    s.Filters.OrderBy,
	}
	if s.Filters.FreeOnly {
		p.Filter = "free-ebooks"
	}
	return p
}
