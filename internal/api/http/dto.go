package http

import (
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storekeeper-backend/internal/domain"
)

// validate is shared across handlers; validator instances cache struct
// metadata and are safe for concurrent use.
var validate = validator.New()

type customerRequest struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"omitempty,email"`
	Phone   string `json:"phone" validate:"required"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
	Notes   string `json:"notes"`
}

type productRequest struct {
	Name              string `json:"name" validate:"required"`
	Description       string `json:"description"`
	SKU               string `json:"sku" validate:"required"`
	Category          string `json:"category"`
	Unit              string `json:"unit"`
	Type              string `json:"type" validate:"required,oneof=sale rent both"`
	CurrentStock      int    `json:"current_stock" validate:"gte=0"`
	MinStockLevel     int    `json:"min_stock_level" validate:"gte=0"`
	SalePrice         string `json:"sale_price"`
	RentPricePerDay   string `json:"rent_price_per_day"`
	RentPricePerWeek  string `json:"rent_price_per_week"`
	RentPricePerMonth string `json:"rent_price_per_month"`
	SecurityDeposit   string `json:"security_deposit"`
	IsActive          bool   `json:"is_active"`
}

type saleItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"gte=1"`
	UnitPrice string `json:"unit_price" validate:"required"`
	Discount  string `json:"discount"`
}

type saleRequest struct {
	CustomerID    string            `json:"customer_id" validate:"required,uuid"`
	UserID        string            `json:"user_id" validate:"required,uuid"`
	Items         []saleItemRequest `json:"items" validate:"required,min=1,dive"`
	Discount      string            `json:"discount"`
	Tax           string            `json:"tax"`
	PaymentStatus string            `json:"payment_status" validate:"required,oneof=paid partial pending"`
	PaymentMethod string            `json:"payment_method" validate:"omitempty,oneof=cash card upi bank_transfer cheque"`
	AmountPaid    string            `json:"amount_paid"`
	Notes         string            `json:"notes"`
}

type rentalItemRequest struct {
	ProductID  string `json:"product_id" validate:"required,uuid"`
	Quantity   int    `json:"quantity" validate:"gte=1"`
	RateType   string `json:"rate_type" validate:"required,oneof=daily weekly monthly"`
	RateAmount string `json:"rate_amount" validate:"required"`
}

type rentalRequest struct {
	CustomerID         string              `json:"customer_id" validate:"required,uuid"`
	UserID             string              `json:"user_id" validate:"required,uuid"`
	StartDate          string              `json:"start_date" validate:"required"`
	ExpectedReturnDate string              `json:"expected_return_date" validate:"required"`
	Items              []rentalItemRequest `json:"items" validate:"required,min=1,dive"`
	SecurityDeposit    string              `json:"security_deposit"`
	AmountPaid         string              `json:"amount_paid"`
	Notes              string              `json:"notes"`
}

type returnItemRequest struct {
	RentalItemID     string `json:"rental_item_id" validate:"required,uuid"`
	QuantityReturned int    `json:"quantity_returned" validate:"gte=0"`
}

type returnRequest struct {
	ReturnDate      string              `json:"return_date" validate:"required"`
	Items           []returnItemRequest `json:"items" validate:"required,min=1,dive"`
	LateFee         string              `json:"late_fee"`
	DamageCharges   string              `json:"damage_charges"`
	DepositReturned bool                `json:"deposit_returned"`
	PaymentMethod   string              `json:"payment_method" validate:"omitempty,oneof=cash card upi bank_transfer cheque"`
	PaymentAmount   string              `json:"payment_amount"`
	Notes           string              `json:"notes"`
	NextReturnDate  string              `json:"next_return_date"`
}

type stockAdjustmentRequest struct {
	// Delta is the signed stock change; zero is rejected as a no-op.
	Delta int `json:"delta" validate:"required"`
}

type rentalStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=overdue cancelled"`
}

// decodeAndValidate parses the JSON body into dst and runs its validation
// tags, reporting the first offending field.
func decodeAndValidate(body io.Reader, dst any) error {
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		return domain.NewValidationError("body", "invalid JSON: "+err.Error())
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return domain.NewValidationError(fieldName(fe), "failed "+fe.Tag()+" validation")
		}
		return domain.NewValidationError("body", err.Error())
	}
	return nil
}

func fieldName(fe validator.FieldError) string {
	// StructNamespace like "saleRequest.Items[0].UnitPrice"; drop the root.
	ns := fe.StructNamespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	return ns
}

func parseUUID(field, s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, domain.NewValidationError(field, "must be a valid UUID")
	}
	return id, nil
}

func parseDate(field, s string) (domain.Date, error) {
	d, err := domain.ParseDate(s)
	if err != nil {
		return domain.Date{}, domain.NewValidationError(field, "must be a yyyy-mm-dd date")
	}
	return d, nil
}

// parseMoney parses a 2-decimal money string; empty means zero.
func parseMoney(field, s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, domain.NewValidationError(field, "must be a decimal amount")
	}
	return d, nil
}

// parseNullMoney parses an optional money string into a nullable decimal.
func parseNullMoney(field, s string) (decimal.NullDecimal, error) {
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := parseMoney(field, s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}
