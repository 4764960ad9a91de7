package orders

import (
	"time"

	"github.com/google/uuid"
)

// Order statuses follow the kitchen flow.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusPreparing = "preparing"
	StatusDelivered = "delivered"
	StatusCancelled = "cancelled"
)

// Order is a purchase placed with one establishment.
type Order struct {
	ID              uuid.UUID
	TenantID        uuid.UUID
	UserID          uuid.UUID
	Status          string
	TotalCents      int64
	DeliveryAddress string
	Notes           string
	Items           []Item
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Item is one product line inside an order.
type Item struct {
	ID             uuid.UUID
	OrderID        uuid.UUID
	ProductID      uuid.UUID
	Quantity       int
	UnitPriceCents int64
	SubtotalCents  int64
	CreatedAt      time.Time
}
