package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusPartial PaymentStatus = "partial"
	PaymentStatusPending PaymentStatus = "pending"
)

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch PaymentStatus(s) {
	case PaymentStatusPaid, PaymentStatusPartial, PaymentStatusPending:
		return PaymentStatus(s), nil
	}
	return "", NewValidationError("payment_status", "must be one of paid, partial, pending")
}

type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodUPI          PaymentMethod = "upi"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCheque       PaymentMethod = "cheque"
)

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch PaymentMethod(s) {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodUPI, PaymentMethodBankTransfer, PaymentMethodCheque:
		return PaymentMethod(s), nil
	}
	return "", NewValidationError("payment_method", "must be one of cash, card, upi, bank_transfer, cheque")
}

type Sale struct {
	ID            uuid.UUID `json:"id"`
	InvoiceNumber string    `json:"invoice_number"`
	CustomerID    uuid.UUID `json:"customer_id"`
	UserID        uuid.UUID `json:"user_id"`

	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`

	PaymentStatus PaymentStatus `json:"payment_status"`
	PaymentMethod PaymentMethod `json:"payment_method,omitempty"`

	AmountPaid decimal.Decimal `json:"amount_paid"`
	AmountDue  decimal.Decimal `json:"amount_due"`

	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Items []SaleItem `json:"items,omitempty"`
}

type SaleItem struct {
	ID        uuid.UUID `json:"id"`
	SaleID    uuid.UUID `json:"sale_id"`
	ProductID uuid.UUID `json:"product_id"`

	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Discount  decimal.Decimal `json:"discount"`
	Total     decimal.Decimal `json:"total"`

	CreatedAt time.Time `json:"created_at"`

	// Populated when fetching sale details.
	ProductName string `json:"product_name,omitempty"`
	ProductUnit string `json:"product_unit,omitempty"`
}
