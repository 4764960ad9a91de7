package identity

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered account. Roles are not stored here; they live
// in user_roles and are observed through the roles resolver.
type User struct {
	ID           uuid.UUID
	Email        string
	Name         string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
