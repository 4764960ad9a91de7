package roles

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/alimmenta/alimmenta/internal/shared"
)

// ErrRoleAlreadyAssigned reports a duplicate (identity, role) insert. It is
// an outcome, not a failure: callers inform the user the role is already held
// and re-resolve instead of retrying the insert.
var ErrRoleAlreadyAssigned = errors.New("roles: role already assigned")

// Assignment is the immutable fact binding one identity to one role. Rows
// are inserted once and never mutated.
type Assignment struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Role      Role
	CreatedAt time.Time
}

// AssignmentStore is the persistence port for role assignments. ListRoles
// returns raw labels in the store's natural order so the resolver can apply
// its own defensive filtering.
type AssignmentStore interface {
	ListRoles(ctx context.Context, userID uuid.UUID) ([]string, error)
	Insert(ctx context.Context, id, userID uuid.UUID, role Role) error
}

// Resolver produces the RoleSet for an identity and records initial role
// assignments. It is safe for concurrent use.
type Resolver struct {
	store  AssignmentStore
	logger *slog.Logger
	audit  *shared.AuditLogger
	group  singleflight.Group
}

// NewResolver constructs a Resolver. The audit logger is optional.
func NewResolver(store AssignmentStore, logger *slog.Logger, audit *shared.AuditLogger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{store: store, logger: logger, audit: audit}
}

// Resolve returns the roles held by the given identity. An unauthenticated
// identity (zero UUID) resolves to the empty set without touching the store.
// A store failure also resolves to the empty set: navigation must never
// crash on an unresolvable role, and the default is the least-privileged
// destination, never an elevated one. Concurrent resolutions for the same
// identity are collapsed into a single store query.
func (r *Resolver) Resolve(ctx context.Context, userID uuid.UUID) RoleSet {
	if userID == uuid.Nil {
		return nil
	}

	raw, err, _ := r.group.Do(userID.String(), func() (any, error) {
		return r.store.ListRoles(ctx, userID)
	})
	if err != nil {
		r.logger.Warn("resolve roles", slog.String("user_id", userID.String()), slog.Any("error", err))
		return nil
	}

	labels, _ := raw.([]string)
	set := make(RoleSet, 0, len(labels))
	for _, label := range labels {
		role, ok := ParseRole(label)
		if !ok {
			// Unknown labels are forward-compatibility slack, not errors.
			r.logger.Debug("ignoring unknown role label", slog.String("role", label))
			continue
		}
		set = append(set, role)
	}
	return set
}

// AssignInitial records the role an identity picked at onboarding. A
// duplicate assignment surfaces as ErrRoleAlreadyAssigned.
func (r *Resolver) AssignInitial(ctx context.Context, userID uuid.UUID, role Role) error {
	if userID == uuid.Nil {
		return errors.New("roles: identity required")
	}
	if _, ok := ParseRole(string(role)); !ok {
		return errors.New("roles: unsupported role")
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return err
	}
	if err := r.store.Insert(ctx, id, userID, role); err != nil {
		return err
	}

	if r.audit != nil {
		if err := r.audit.Record(ctx, shared.AuditLog{
			ActorID:  userID.String(),
			Action:   "role.assign",
			Entity:   "user_role",
			EntityID: id.String(),
			Meta:     map[string]any{"role": string(role)},
		}); err != nil {
			r.logger.Warn("audit role assignment", slog.Any("error", err))
		}
	}
	return nil
}
