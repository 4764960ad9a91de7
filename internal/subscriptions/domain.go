package subscriptions

import (
	"time"

	"github.com/google/uuid"
)

// Plan is a subscription tier.
type Plan string

const (
	PlanFree       Plan = "free"
	PlanBasic      Plan = "basic"
	PlanPremium    Plan = "premium"
	PlanEnterprise Plan = "enterprise"
)

// Status is the lifecycle state of a subscription.
type Status string

const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusSuspended Status = "suspended"
	StatusCancelled Status = "cancelled"
)

// Subscription binds an establishment to a plan. Every tenant has exactly
// one, created together with the tenant.
type Subscription struct {
	ID              uuid.UUID
	TenantID        uuid.UUID
	Plan            Plan
	Status          Status
	PriceCents      int64
	StartedAt       time.Time
	ExpiresAt       time.Time
	LastPaymentDate time.Time
	PaymentGateway  string
	PaymentMethod   string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
