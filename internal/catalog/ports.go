package catalog

import (
	"context"

	"libri/internal/platform/googlebooks"
)

//go:generate mockgen -source=ports.go -destination=mock_upstream.go -package=catalog

type Upstream interface {
	Volumes(ctx context.Context, req googlebooks.VolumesRequest) (*googlebooks.VolumesResponse, error)
	HasAPIKey() bool
}
