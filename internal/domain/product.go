package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ProductType string

const (
	ProductTypeSale ProductType = "sale"
	ProductTypeRent ProductType = "rent"
	ProductTypeBoth ProductType = "both"
)

func ParseProductType(s string) (ProductType, error) {
	switch ProductType(s) {
	case ProductTypeSale, ProductTypeRent, ProductTypeBoth:
		return ProductType(s), nil
	}
	return "", NewValidationError("type", "must be one of sale, rent, both")
}

// Rentable reports whether the product can appear on a rental line.
func (t ProductType) Rentable() bool {
	return t == ProductTypeRent || t == ProductTypeBoth
}

// Sellable reports whether the product can appear on a sale line.
func (t ProductType) Sellable() bool {
	return t == ProductTypeSale || t == ProductTypeBoth
}

type Product struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	SKU         string      `json:"sku,omitempty"`
	Category    string      `json:"category,omitempty"`
	Unit        string      `json:"unit"`
	Type        ProductType `json:"type"`

	// CurrentStock is advisory for rentals: availability checks compare
	// against it at creation time but rentals never reserve or decrement it.
	// Only sales mutate stock.
	CurrentStock  int `json:"current_stock"`
	MinStockLevel int `json:"min_stock_level"`

	SalePrice decimal.NullDecimal `json:"sale_price"`

	RentPricePerDay   decimal.NullDecimal `json:"rent_price_per_day"`
	RentPricePerWeek  decimal.NullDecimal `json:"rent_price_per_week"`
	RentPricePerMonth decimal.NullDecimal `json:"rent_price_per_month"`

	SecurityDeposit decimal.NullDecimal `json:"security_deposit"`

	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RentRate returns the product's current rate for the given rate type, if set.
func (p *Product) RentRate(rt RateType) decimal.NullDecimal {
	switch rt {
	case RateTypeDaily:
		return p.RentPricePerDay
	case RateTypeWeekly:
		return p.RentPricePerWeek
	case RateTypeMonthly:
		return p.RentPricePerMonth
	}
	return decimal.NullDecimal{}
}
