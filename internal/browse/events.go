package browse

import "libri/internal/catalog"

// Event is anything Reduce accepts.
type Event interface {
	event()
}

// Start leaves Idle for the trending view.
type Start struct{}

type SubmitQuery struct {
	Query string
}

type SelectCategory struct {
	Category string
}

type SetPrintType struct {
	PrintType string
}

type SetFreeOnly struct {
	FreeOnly bool
}

type SetOrderBy struct {
	OrderBy string
}

type ResetFilters struct{}

type GoToPage struct {
	Page int
}

// Retry repeats the failed request.
type Retry struct{}

type ShowTrending struct{}

type SetViewMode struct {
	View ViewMode
}

type FetchSucceeded struct {
	Seq  uint64
	Page catalog.Page
}

type FetchFailed struct {
	Seq uint64
	Err error
}

func (Start) event()          {}
func (SubmitQuery) event()    {}
func (SelectCategory) event() {}
func (SetPrintType) event()   {}
func (SetFreeOnly) event()    {}
func (SetOrderBy) event()     {}
func (ResetFilters) event()   {}
func (GoToPage) event()       {}
func (Retry) event()          {}
func (ShowTrending) event()   {}
func (SetViewMode) event()    {}
func (FetchSucceeded) event() {}
func (FetchFailed) event()    {}
