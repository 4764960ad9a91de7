package tenants

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/alimmenta/alimmenta/internal/shared"
)

// ErrOwnerHasTenant reports that the account already runs an establishment.
// Like a duplicate role assignment, it is an outcome the UI explains rather
// than a failure to retry.
var ErrOwnerHasTenant = errors.New("tenants: owner already has an establishment")

// Repository is the persistence port for tenants. CreateWithSubscription
// must create the tenant and its starter subscription atomically.
type Repository interface {
	CreateWithSubscription(ctx context.Context, tenant *Tenant) error
	Update(ctx context.Context, tenant *Tenant) error
	FindByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	FindByOwner(ctx context.Context, ownerID uuid.UUID) (*Tenant, error)
	ListActive(ctx context.Context, query string, limit int) ([]Tenant, error)
	Count(ctx context.Context) (int64, error)
}

// CreateInput carries the onboarding form fields.
type CreateInput struct {
	OwnerID     uuid.UUID
	Name        string
	Type        string
	Description string
	Address     string
	City        string
	Phone       string
	Email       string
}

// Service wraps establishment business rules.
type Service struct {
	repo   Repository
	logger *slog.Logger
	audit  *shared.AuditLogger
}

// NewService constructs a Service. The audit logger is optional.
func NewService(repo Repository, logger *slog.Logger, audit *shared.AuditLogger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger, audit: audit}
}

// Create registers an establishment together with its free starter
// subscription. A second establishment for the same owner surfaces as
// ErrOwnerHasTenant.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Tenant, error) {
	if in.OwnerID == uuid.Nil {
		return nil, errors.New("tenants: owner required")
	}
	name := strings.TrimSpace(in.Name)
	if len(name) < 2 {
		return nil, errors.New("tenants: name too short")
	}
	estType, ok := ParseType(in.Type)
	if !ok {
		return nil, errors.New("tenants: unsupported establishment type")
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return nil, err
	}
	tenant := &Tenant{
		ID:          id,
		OwnerID:     in.OwnerID,
		Name:        name,
		Type:        estType,
		Description: strings.TrimSpace(in.Description),
		Address:     strings.TrimSpace(in.Address),
		City:        strings.TrimSpace(in.City),
		Phone:       strings.TrimSpace(in.Phone),
		Email:       strings.ToLower(strings.TrimSpace(in.Email)),
		IsActive:    true,
	}
	if err := s.repo.CreateWithSubscription(ctx, tenant); err != nil {
		return nil, err
	}

	if s.audit != nil {
		if err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:  in.OwnerID.String(),
			Action:   "tenant.create",
			Entity:   "tenant",
			EntityID: id.String(),
			Meta:     map[string]any{"name": name, "type": string(estType)},
		}); err != nil {
			s.logger.Warn("audit tenant creation", slog.Any("error", err))
		}
	}
	return tenant, nil
}

// Update persists profile changes to an establishment. Only the owner may
// update it.
func (s *Service) Update(ctx context.Context, actorID uuid.UUID, tenant *Tenant) error {
	if tenant.OwnerID != actorID {
		return shared.ErrAccessDenied
	}
	if err := s.repo.Update(ctx, tenant); err != nil {
		return err
	}
	if s.audit != nil {
		if err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID.String(),
			Action:   "tenant.update",
			Entity:   "tenant",
			EntityID: tenant.ID.String(),
		}); err != nil {
			s.logger.Warn("audit tenant update", slog.Any("error", err))
		}
	}
	return nil
}

// ForOwner loads the establishment run by an account, shared.ErrNotFound
// when the account has none.
func (s *Service) ForOwner(ctx context.Context, ownerID uuid.UUID) (*Tenant, error) {
	return s.repo.FindByOwner(ctx, ownerID)
}

// Find loads an establishment by ID.
func (s *Service) Find(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	return s.repo.FindByID(ctx, id)
}

// Browse lists active establishments, optionally filtered by a free-text
// query over name and city.
func (s *Service) Browse(ctx context.Context, query string, limit int) ([]Tenant, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.ListActive(ctx, strings.TrimSpace(query), limit)
}

// Count returns the number of registered establishments.
func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}
