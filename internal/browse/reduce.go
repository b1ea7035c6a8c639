package browse

import (
	"fmt"
	"slices"
	"strings"
)

// Reduce returns the state after ev and, when ev needs one, the search to run.
// A rejected event returns s unchanged together with the error.
func Reduce(s State, ev Event) (State, *Request, error) {
	switch ev := ev.(type) {
	case Start:
		if s.Mode != ModeIdle {
			return s, nil, nil
		}
		return trending(s)

	case ShowTrending:
		return trending(s)

	case SubmitQuery:
		q := strings.TrimSpace(ev.Query)
		if q == "" {
			return s, nil, ErrEmptyQuery
		}
		return search(s, q, "")

	case SelectCategory:
		c := strings.ToLower(strings.TrimSpace(ev.Category))
		if !slices.Contains(Categories, c) {
			return s, nil, fmt.Errorf("%w: %q", ErrUnknownCategory, ev.Category)
		}
		return search(s, "subject:"+c, c)

	case SetPrintType:
		pt := strings.ToLower(strings.TrimSpace(ev.PrintType))
		if pt != PrintAll && pt != PrintBooks && pt != PrintMagazines {
			return s, nil, fmt.Errorf("%w: print type %q", ErrInvalidFilter, ev.PrintType)
		}
		s.Filters.PrintType = pt
		return refilter(s)

	case SetFreeOnly:
		s.Filters.FreeOnly = ev.FreeOnly
		return refilter(s)

	case SetOrderBy:
		o := strings.ToLower(strings.TrimSpace(ev.OrderBy))
		if o != OrderRelevance && o != OrderNewest {
			return s, nil, fmt.Errorf("%w: order %q", ErrInvalidFilter, ev.OrderBy)
		}
		s.Filters.OrderBy = o
		return refilter(s)

	case ResetFilters:
		s.Filters = defaultFilters(s.Mode)
		return refilter(s)

	case GoToPage:
		if s.Mode == ModeIdle || ev.Page < 1 || ev.Page > s.LastPage() {
			return s, nil, fmt.Errorf("%w: %d of %d", ErrPageOutOfRange, ev.Page, s.LastPage())
		}
		s.Page = ev.Page
		return fetch(s)

	case Retry:
		if s.Status != StatusError {
			return s, nil, nil
		}
		return fetch(s)

	case SetViewMode:
		if ev.View != ViewGrid && ev.View != ViewList {
			return s, nil, fmt.Errorf("%w: view %q", ErrInvalidFilter, ev.View)
		}
		s.View = ev.View
		return s, nil, nil

	case FetchSucceeded:
		if ev.Seq != s.Seq || s.Status != StatusLoading {
			return s, nil, nil
		}
		s.Status = StatusLoaded
		s.TotalItems = ev.Page.TotalItems
		s.Items = ev.Page.Items
		s.Err = ""
		return s, nil, nil

	case FetchFailed:
		if ev.Seq != s.Seq || s.Status != StatusLoading {
			return s, nil, nil
		}
		s.Status = StatusError
		s.Items = nil
		s.Err = FetchFailedMessage
		return s, nil, nil

	default:
		return s, nil, fmt.Errorf("browse: unhandled event %T", ev)
	}
}

func trending(s State) (State, *Request, error) {
	s.Mode = ModeTrending
	s.Query = TrendingQuery
	s.Category = ""
	s.Filters = defaultFilters(ModeTrending)
	return firstPage(s)
}

func search(s State, query, category string) (State, *Request, error) {
	s.Mode = ModeSearching
	s.Query = query
	s.Category = category
	s.Filters.OrderBy = OrderRelevance
	return firstPage(s)
}

// refilter re-runs the active query from page 1. In Idle only the filter
// value changes.
func refilter(s State) (State, *Request, error) {
	if s.Mode == ModeIdle {
		return s, nil, nil
	}
	return firstPage(s)
}

func firstPage(s State) (State, *Request, error) {
	s.Page = 1
	s.TotalItems = 0
	return fetch(s)
}

func fetch(s State) (State, *Request, error) {
	s.Seq++
	s.Status = StatusLoading
	return s, &Request{Seq: s.Seq, Params: s.params()}, nil
}
