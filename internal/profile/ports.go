package profile

import (
	"context"
)

//go:generate mockgen -source=ports.go -destination=mock_ports.go -package=profile

type Repository interface {
	Get(ctx context.Context, id string) (Profile, error)
	// Create inserts a blank profile and returns the stored row. Creating an
	// existing profile returns it unchanged.
	Create(ctx context.Context, id, email string) (Profile, error)
	Update(ctx context.Context, id string, updates map[string]any) (Profile, error)
}
