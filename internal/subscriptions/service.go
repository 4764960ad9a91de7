package subscriptions

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence port for subscriptions.
type Repository interface {
	FindByTenant(ctx context.Context, tenantID uuid.UUID) (*Subscription, error)
	MarkExpired(ctx context.Context, now time.Time) (int64, error)
	CountByStatus(ctx context.Context, status Status) (int64, error)
}

// Service wraps subscription business rules.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// ForTenant loads the establishment's subscription.
func (s *Service) ForTenant(ctx context.Context, tenantID uuid.UUID) (*Subscription, error) {
	return s.repo.FindByTenant(ctx, tenantID)
}

// ExpireDue flips active subscriptions whose expiry has passed to inactive.
// The worker runs this periodically.
func (s *Service) ExpireDue(ctx context.Context) (int64, error) {
	n, err := s.repo.MarkExpired(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("expired subscriptions", slog.Int64("count", n))
	}
	return n, nil
}

// CountActive returns the number of active subscriptions.
func (s *Service) CountActive(ctx context.Context) (int64, error) {
	return s.repo.CountByStatus(ctx, StatusActive)
}
