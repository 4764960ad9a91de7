package profiles

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/alimmenta/alimmenta/internal/shared"
)

// Repository is the persistence port for profiles and the restriction
// catalogue.
type Repository interface {
	ListRestrictions(ctx context.Context) ([]Restriction, error)
	FindProfile(ctx context.Context, userID uuid.UUID) (*Profile, error)
	UpsertProfile(ctx context.Context, profile *Profile) error
}

// Service wraps dietary profile business rules.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Catalogue returns every known dietary restriction.
func (s *Service) Catalogue(ctx context.Context) ([]Restriction, error) {
	return s.repo.ListRestrictions(ctx)
}

// Get loads the user's profile, shared.ErrNotFound when none exists yet.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	return s.repo.FindProfile(ctx, userID)
}

// HasProfile reports whether the user already saved a dietary profile.
func (s *Service) HasProfile(ctx context.Context, userID uuid.UUID) (bool, error) {
	_, err := s.repo.FindProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Save creates or replaces the user's profile. Unknown restriction IDs are
// dropped rather than rejected so a stale form cannot block the save.
func (s *Service) Save(ctx context.Context, userID uuid.UUID, restrictionIDs []uuid.UUID, notes string) (*Profile, error) {
	if userID == uuid.Nil {
		return nil, errors.New("profiles: user required")
	}

	catalogue, err := s.repo.ListRestrictions(ctx)
	if err != nil {
		return nil, err
	}
	known := make(map[uuid.UUID]bool, len(catalogue))
	for _, r := range catalogue {
		known[r.ID] = true
	}
	kept := make([]uuid.UUID, 0, len(restrictionIDs))
	seen := make(map[uuid.UUID]bool, len(restrictionIDs))
	for _, id := range restrictionIDs {
		if known[id] && !seen[id] {
			kept = append(kept, id)
			seen[id] = true
		}
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return nil, err
	}
	profile := &Profile{
		ID:           id,
		UserID:       userID,
		Restrictions: kept,
		Notes:        strings.TrimSpace(notes),
	}
	if err := s.repo.UpsertProfile(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// RestrictionNames resolves the user's restriction IDs to display names.
func (s *Service) RestrictionNames(ctx context.Context, userID uuid.UUID) ([]string, error) {
	profile, err := s.repo.FindProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	catalogue, err := s.repo.ListRestrictions(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(catalogue))
	for _, r := range catalogue {
		names[r.ID] = r.Name
	}
	out := make([]string, 0, len(profile.Restrictions))
	for _, id := range profile.Restrictions {
		if name, ok := names[id]; ok {
			out = append(out, name)
		}
	}
	return out, nil
}
