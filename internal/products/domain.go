package products

import (
	"time"

	"github.com/google/uuid"
)

// Category groups products for browsing, e.g. pães, bebidas, doces.
type Category struct {
	ID          uuid.UUID
	Name        string
	Description string
	Icon        string
	CreatedAt   time.Time
}

// Product is a catalogue item offered by one establishment. Prices are kept
// in centavos to avoid floating point drift.
type Product struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	CategoryID    uuid.UUID
	CategoryName  string
	Name          string
	Description   string
	PriceCents    int64
	SKU           string
	Barcode       string
	ImageURL      string
	Ingredients   []string
	Allergens     []string
	StockQuantity int
	Available     bool

	// SafeFor lists the dietary restrictions this product was marked safe
	// for, resolved to IDs and display names.
	SafeFor          []uuid.UUID
	RestrictionNames []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SafeForAll reports whether the product is marked safe for every given
// restriction. An empty requirement set matches everything.
func (p *Product) SafeForAll(required []uuid.UUID) bool {
	for _, want := range required {
		found := false
		for _, have := range p.SafeFor {
			if have == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
