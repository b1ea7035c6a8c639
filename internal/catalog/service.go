package catalog

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"libri/internal/platform/googlebooks"
)

type Service struct {
	upstream Upstream
}

func NewService(upstream Upstream) *Service {
	return &Service{upstream: upstream}
}

// Search validates q, forwards it upstream and applies the quality gate to
// the returned volumes. An empty query fails before anything else is checked.
func (s *Service) Search(ctx context.Context, q SearchQuery) (Page, error) {
	q, err := Normalize(q)
	if err != nil {
		return Page{}, err
	}
	if !s.upstream.HasAPIKey() {
		return Page{}, ErrConfiguration
	}

	res, err := s.upstream.Volumes(ctx, googlebooks.VolumesRequest{
		Query:      q.Query,
		StartIndex: q.StartIndex,
		MaxResults: q.PageSize,
		PrintType:  q.PrintType,
		Filter:     q.Filter,
		OrderBy:    q.OrderBy,
	})
	if err != nil {
		return Page{}, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	return Page{
		TotalItems: res.TotalItems,
		Items:      Filter(res.Items),
	}, nil
}

// Normalize trims q and fills defaults, rejecting values the upstream would
// not understand.
func Normalize(q SearchQuery) (SearchQuery, error) {
	q.Query = strings.TrimSpace(q.Query)
	if q.Query == "" {
		return q, ErrMissingQuery
	}

	if q.StartIndex < 0 {
		return q, fmt.Errorf("%w: startIndex must not be negative", ErrInvalidParameter)
	}
	switch {
	case q.PageSize == 0:
		q.PageSize = DefaultPageSize
	case q.PageSize < 1 || q.PageSize > MaxPageSize:
		return q, fmt.Errorf("%w: maxResults must be between 1 and %d", ErrInvalidParameter, MaxPageSize)
	}

	q.PrintType = strings.ToLower(strings.TrimSpace(q.PrintType))
	if q.PrintType == "" {
		q.PrintType = "all"
	}
	if !slices.Contains(printTypes, q.PrintType) {
		return q, fmt.Errorf("%w: printType must be one of %s", ErrInvalidParameter, strings.Join(printTypes, ", "))
	}

	q.Filter = strings.ToLower(strings.TrimSpace(q.Filter))
	if !slices.Contains(filters, q.Filter) {
		return q, fmt.Errorf("%w: filter must be one of %s", ErrInvalidParameter, strings.Join(filters[1:], ", "))
	}

	q.OrderBy = strings.ToLower(strings.TrimSpace(q.OrderBy))
	if q.OrderBy == "" {
		q.OrderBy = "relevance"
	}
	if !slices.Contains(orderings, q.OrderBy) {
		return q, fmt.Errorf("%w: orderBy must be one of %s", ErrInvalidParameter, strings.Join(orderings, ", "))
	}
	return q, nil
}

// Filter converts upstream volumes to items, dropping malformed entries and
// any volume without both a thumbnail and a description.
func Filter(volumes []googlebooks.Volume) []Item {
	items := make([]Item, 0, len(volumes))
	for _, v := range volumes {
		if item, ok := toItem(v); ok {
			items = append(items, item)
		}
	}
	return items
}

func toItem(v googlebooks.Volume) (Item, bool) {
	info := v.VolumeInfo
	id := strings.TrimSpace(v.ID)
	title := strings.TrimSpace(info.Title)
	description := strings.TrimSpace(info.Description)
	thumbnail := thumbnailOf(info.ImageLinks)
	if id == "" || title == "" || description == "" || thumbnail == "" {
		return Item{}, false
	}

	authors := info.Authors
	if authors == nil {
		authors = []string{}
	}
	return Item{
		ID:            id,
		Title:         title,
		Subtitle:      info.Subtitle,
		Authors:       authors,
		Publisher:     info.Publisher,
		PublishedDate: info.PublishedDate,
		Description:   description,
		PageCount:     info.PageCount,
		Categories:    info.Categories,
		AverageRating: info.AverageRating,
		RatingsCount:  info.RatingsCount,
		Language:      info.Language,
		Thumbnail:     thumbnail,
		PreviewLink:   info.PreviewLink,
		InfoLink:      info.InfoLink,
	}, true
}

func thumbnailOf(links *googlebooks.ImageLinks) string {
	if links == nil {
		return ""
	}
	u := strings.TrimSpace(links.Thumbnail)
	if u == "" {
		u = strings.TrimSpace(links.SmallThumbnail)
	}
	if rest, ok := strings.CutPrefix(u, "http://"); ok {
		u = "https://" + rest
	}
	return u
}
