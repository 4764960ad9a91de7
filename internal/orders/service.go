package orders

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the persistence port for orders.
type Repository interface {
	RecentByTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]Order, error)
	StatusCounts(ctx context.Context, tenantID uuid.UUID) (map[string]int64, error)
	Count(ctx context.Context) (int64, error)
}

// Service wraps order queries feeding the dashboards.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Recent returns the establishment's latest orders.
func (s *Service) Recent(ctx context.Context, tenantID uuid.UUID, limit int) ([]Order, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	return s.repo.RecentByTenant(ctx, tenantID, limit)
}

// StatusCounts returns how many orders the establishment has per status.
func (s *Service) StatusCounts(ctx context.Context, tenantID uuid.UUID) (map[string]int64, error) {
	return s.repo.StatusCounts(ctx, tenantID)
}

// Count returns the number of orders on the platform.
func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}
