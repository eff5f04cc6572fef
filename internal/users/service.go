package users

import (
	"context"
)

// RepositoryPort defines data access methods for the user directory.
type RepositoryPort interface {
	Get(ctx context.Context, id int64) (User, error)
	Search(ctx context.Context, term string, limit int) ([]User, error)
}

// Service handles user directory lookups for the assignment UI.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Get returns a user by ID.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	return s.repo.Get(ctx, id)
}

// Search finds users for the assignment picker.
func (s *Service) Search(ctx context.Context, term string, limit int) ([]User, error) {
	return s.repo.Search(ctx, term, limit)
}
