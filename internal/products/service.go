package products

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/alimmenta/alimmenta/internal/shared"
)

// Repository is the persistence port for the product catalogue.
type Repository interface {
	Create(ctx context.Context, product *Product) error
	Update(ctx context.Context, product *Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]Product, error)
	ListAvailable(ctx context.Context, limit int) ([]Product, error)
	ListCategories(ctx context.Context) ([]Category, error)
	Count(ctx context.Context) (int64, error)
}

// Input carries the product form fields.
type Input struct {
	TenantID    uuid.UUID
	CategoryID  uuid.UUID
	Name        string
	Description string
	PriceCents  int64
	SKU         string
	Available   bool
	SafeFor     []uuid.UUID
}

// Service wraps catalogue business rules.
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

// Create adds a product to the establishment's catalogue.
func (s *Service) Create(ctx context.Context, actorID uuid.UUID, in Input) (*Product, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, err
	}
	product := &Product{
		ID:          id,
		TenantID:    in.TenantID,
		CategoryID:  in.CategoryID,
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		PriceCents:  in.PriceCents,
		SKU:         strings.TrimSpace(in.SKU),
		Available:   in.Available,
		SafeFor:     in.SafeFor,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	s.record(ctx, actorID, "product.create", product)
	return product, nil
}

// Update replaces the mutable fields of a product. The product must belong
// to the given tenant.
func (s *Service) Update(ctx context.Context, actorID, tenantID, productID uuid.UUID, in Input) (*Product, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.TenantID != tenantID {
		return nil, shared.ErrAccessDenied
	}
	product.CategoryID = in.CategoryID
	product.Name = strings.TrimSpace(in.Name)
	product.Description = strings.TrimSpace(in.Description)
	product.PriceCents = in.PriceCents
	product.SKU = strings.TrimSpace(in.SKU)
	product.Available = in.Available
	product.SafeFor = in.SafeFor
	if err := s.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	s.record(ctx, actorID, "product.update", product)
	return product, nil
}

// Find loads one product.
func (s *Service) Find(ctx context.Context, id uuid.UUID) (*Product, error) {
	return s.repo.FindByID(ctx, id)
}

// ForTenant lists the establishment's full catalogue.
func (s *Service) ForTenant(ctx context.Context, tenantID uuid.UUID) ([]Product, error) {
	return s.repo.ListByTenant(ctx, tenantID)
}

// Browse returns available products matching a free-text query and safe for
// every required restriction. Matching is accent insensitive.
func (s *Service) Browse(ctx context.Context, query string, required []uuid.UUID, limit int) ([]Product, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	items, err := s.repo.ListAvailable(ctx, limit)
	if err != nil {
		return nil, err
	}
	return Filter(items, query, required), nil
}

// Categories returns the category catalogue.
func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	return s.repo.ListCategories(ctx)
}

// Count returns the number of products on the platform.
func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

// ExportCSV writes the establishment's catalogue as CSV.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer, tenantID uuid.UUID) error {
	items, err := s.repo.ListByTenant(ctx, tenantID)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"nome", "categoria", "preco_centavos", "sku", "disponivel", "restricoes_atendidas"}); err != nil {
		return err
	}
	for i := range items {
		p := &items[i]
		row := []string{
			p.Name,
			p.CategoryName,
			strconv.FormatInt(p.PriceCents, 10),
			p.SKU,
			strconv.FormatBool(p.Available),
			strings.Join(p.RestrictionNames, ";"),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (s *Service) record(ctx context.Context, actorID uuid.UUID, action string, product *Product) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID.String(),
		Action:   action,
		Entity:   "product",
		EntityID: product.ID.String(),
		Meta:     map[string]any{"tenant_id": product.TenantID.String(), "name": product.Name},
	}); err != nil {
		s.logger.Warn("audit product change", slog.Any("error", err))
	}
}

func validate(in Input) error {
	if in.TenantID == uuid.Nil {
		return errors.New("products: tenant required")
	}
	if len(strings.TrimSpace(in.Name)) < 2 {
		return errors.New("products: name too short")
	}
	if in.PriceCents < 0 {
		return errors.New("products: negative price")
	}
	return nil
}
