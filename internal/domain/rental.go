package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type RentalStatus string

const (
	RentalStatusActive        RentalStatus = "active"
	RentalStatusPartialReturn RentalStatus = "partial_return"
	RentalStatusReturned      RentalStatus = "returned"
	RentalStatusOverdue       RentalStatus = "overdue"
	RentalStatusCancelled     RentalStatus = "cancelled"
)

// ParseRentalStatus rejects unrecognized status strings at the boundary
// instead of coercing them.
func ParseRentalStatus(s string) (RentalStatus, error) {
	switch RentalStatus(s) {
	case RentalStatusActive, RentalStatusPartialReturn, RentalStatusReturned,
		RentalStatusOverdue, RentalStatusCancelled:
		return RentalStatus(s), nil
	}
	return "", NewValidationError("status", "must be one of active, partial_return, returned, overdue, cancelled")
}

type RateType string

const (
	RateTypeDaily   RateType = "daily"
	RateTypeWeekly  RateType = "weekly"
	RateTypeMonthly RateType = "monthly"
)

func ParseRateType(s string) (RateType, error) {
	switch RateType(s) {
	case RateTypeDaily, RateTypeWeekly, RateTypeMonthly:
		return RateType(s), nil
	}
	return "", NewValidationError("rate_type", "must be one of daily, weekly, monthly")
}

type Rental struct {
	ID           uuid.UUID `json:"id"`
	RentalNumber string    `json:"rental_number"`
	CustomerID   uuid.UUID `json:"customer_id"`
	UserID       uuid.UUID `json:"user_id"`

	StartDate          Date     `json:"start_date"`
	ExpectedReturnDate Date     `json:"expected_return_date"`
	ActualReturnDate   NullDate `json:"actual_return_date"`

	Status RentalStatus `json:"status"`

	Subtotal        decimal.Decimal `json:"subtotal"`
	SecurityDeposit decimal.Decimal `json:"security_deposit"`
	// TotalCharges starts as the creation-time estimate and is overwritten
	// with the actual charges when a return is processed.
	TotalCharges  decimal.Decimal `json:"total_charges"`
	LateFee       decimal.Decimal `json:"late_fee"`
	DamageCharges decimal.Decimal `json:"damage_charges"`

	AmountPaid      decimal.Decimal `json:"amount_paid"`
	AmountDue       decimal.Decimal `json:"amount_due"`
	DepositReturned bool            `json:"deposit_returned"`

	ReturnPaymentMethod PaymentMethod   `json:"return_payment_method,omitempty"`
	ReturnPaymentAmount decimal.Decimal `json:"return_payment_amount"`
	ReturnNotes         string          `json:"return_notes,omitempty"`
	NextReturnDate      NullDate        `json:"next_return_date"`

	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Populated from the customer join when listing.
	CustomerName string `json:"customer_name,omitempty"`

	Items []RentalItem `json:"items,omitempty"`
}

// AllItemsReturned reports whether every line has its full quantity back.
func (r *Rental) AllItemsReturned() bool {
	if len(r.Items) == 0 {
		return false
	}
	for i := range r.Items {
		if r.Items[i].QuantityReturned < r.Items[i].Quantity {
			return false
		}
	}
	return true
}

// AnyItemsReturned reports whether any line has a recorded return.
func (r *Rental) AnyItemsReturned() bool {
	for i := range r.Items {
		if r.Items[i].QuantityReturned > 0 {
			return true
		}
	}
	return false
}

type RentalItem struct {
	ID        uuid.UUID `json:"id"`
	RentalID  uuid.UUID `json:"rental_id"`
	ProductID uuid.UUID `json:"product_id"`

	Quantity int      `json:"quantity"`
	RateType RateType `json:"rate_type"`
	// RateAmount is snapshotted from the product at rental creation and never
	// follows later price changes.
	RateAmount decimal.Decimal `json:"rate_amount"`

	TotalDays int             `json:"total_days"`
	Total     decimal.Decimal `json:"total"`

	QuantityReturned int      `json:"quantity_returned"`
	ReturnDate       NullDate `json:"return_date"`

	CreatedAt time.Time `json:"created_at"`

	// Populated when fetching rental details.
	ProductName string `json:"product_name,omitempty"`
	ProductUnit string `json:"product_unit,omitempty"`
}

// Remaining returns the quantity still out with the customer.
func (it *RentalItem) Remaining() int {
	return it.Quantity - it.QuantityReturned
}
