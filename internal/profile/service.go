package profile

import (
	"context"
	"errors"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns the caller's profile, creating a blank one on first access.
func (s *Service) Get(ctx context.Context, userID, email string) (Profile, error) {
	p, err := s.repo.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return s.repo.Create(ctx, userID, email)
	}
	return p, err
}

func (s *Service) Update(ctx context.Context, userID, email string, cmd UpdateCommand) (Profile, error) {
	updates := cmd.ToMap()
	if len(updates) == 0 {
		return Profile{}, ErrEmptyUpdate
	}
	if err := cmd.Validate(); err != nil {
		return Profile{}, err
	}

	if _, err := s.Get(ctx, userID, email); err != nil {
		return Profile{}, err
	}
	return s.repo.Update(ctx, userID, updates)
}
