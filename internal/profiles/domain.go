package profiles

import (
	"time"

	"github.com/google/uuid"
)

// Restriction is a dietary restriction from the reference catalogue, e.g.
// gluten-free or lactose-free. The catalogue is seeded, not user-editable.
type Restriction struct {
	ID          uuid.UUID
	Code        string
	Name        string
	Description string
	Icon        string
	Severity    string
	CreatedAt   time.Time
}

// Profile is a user's dietary profile: the restrictions that apply to them
// plus free-form notes. One profile per user.
type Profile struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	Restrictions []uuid.UUID
	Notes        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
