package tenants

import (
	"time"

	"github.com/google/uuid"
)

// EstablishmentType categorises a tenant's business.
type EstablishmentType string

const (
	TypeMercado     EstablishmentType = "mercado"
	TypeRestaurante EstablishmentType = "restaurante"
	TypeLoja        EstablishmentType = "loja"
	TypePadaria     EstablishmentType = "padaria"
	TypeCafeteria   EstablishmentType = "cafeteria"
)

// Types lists every supported establishment type in display order.
func Types() []EstablishmentType {
	return []EstablishmentType{TypeMercado, TypeRestaurante, TypeLoja, TypePadaria, TypeCafeteria}
}

// ParseType validates an establishment type label.
func ParseType(label string) (EstablishmentType, bool) {
	switch EstablishmentType(label) {
	case TypeMercado, TypeRestaurante, TypeLoja, TypePadaria, TypeCafeteria:
		return EstablishmentType(label), true
	default:
		return "", false
	}
}

// Tenant is an establishment owned by one account. Each owner can run at
// most one tenant.
type Tenant struct {
	ID          uuid.UUID
	OwnerID     uuid.UUID
	Name        string
	Type        EstablishmentType
	Description string
	Address     string
	City        string
	Phone       string
	Email       string
	LogoURL     string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
