package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the model for the 'products' table / collection.
// Stock is only ever changed through the stores' conditional updates so it never goes negative.
type Product struct {
	ID          string          `json:"_id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description" db:"description"`
	Category    string          `json:"category" db:"category"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Image       string          `json:"image,omitempty" db:"image"`
	Stock       int             `json:"stock" db:"stock"`
	IsFeatured  bool            `json:"isFeatured" db:"is_featured"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
}

// ImageOrPlaceholder returns the product image, falling back to the shared placeholder.
func (p *Product) ImageOrPlaceholder() string {
	if p.Image == "" {
		return PlaceholderImage
	}
	return p.Image
}

// ProductFilter narrows catalog listings. Zero values mean "no constraint".
type ProductFilter struct {
	Category     string
	FeaturedOnly bool
}
