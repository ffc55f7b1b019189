package book

import (
	"context"

	"readmind/internal/platform/googlebooks"
)

//go:generate mockgen -source=ports.go -destination=mock_ports.go -package=book

// Catalog is the upstream volume source.
type Catalog interface {
	SearchVolumes(ctx context.Context, p googlebooks.SearchParams) (*googlebooks.VolumesResponse, error)
	GetVolume(ctx context.Context, id string) (*googlebooks.Volume, error)
}
