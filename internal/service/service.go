package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storekeeper-backend/internal/billing"
	"storekeeper-backend/internal/domain"
	"storekeeper-backend/internal/repository"
)

type CustomerService interface {
	Create(ctx context.Context, customer *domain.Customer) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Customer, error)
	Update(ctx context.Context, customer *domain.Customer) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter repository.CustomerFilter, page, pageSize int) ([]domain.Customer, int64, error)
}

type ProductService interface {
	Create(ctx context.Context, product *domain.Product) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter repository.ProductFilter, page, pageSize int) ([]domain.Product, int64, error)
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) error
}

// SaleItemInput is one line of a new sale.
type SaleItemInput struct {
	ProductID uuid.UUID
	Quantity  int
	UnitPrice decimal.Decimal
	Discount  decimal.Decimal
}

type CreateSaleInput struct {
	CustomerID    uuid.UUID
	UserID        uuid.UUID
	Items         []SaleItemInput
	Discount      decimal.Decimal
	Tax           decimal.Decimal
	PaymentStatus domain.PaymentStatus
	PaymentMethod domain.PaymentMethod
	AmountPaid    decimal.Decimal
	Notes         string
}

type SaleService interface {
	Create(ctx context.Context, input CreateSaleInput) (*domain.Sale, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Sale, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter repository.SaleFilter, page, pageSize int) ([]domain.Sale, int64, error)
}

// RentalItemInput is one line of a new or edited rental.
type RentalItemInput struct {
	ProductID  uuid.UUID
	Quantity   int
	RateType   domain.RateType
	RateAmount decimal.Decimal
}

type CreateRentalInput struct {
	CustomerID         uuid.UUID
	UserID             uuid.UUID
	StartDate          domain.Date
	ExpectedReturnDate domain.Date
	Items              []RentalItemInput
	SecurityDeposit    decimal.Decimal
	AmountPaid         decimal.Decimal
	Notes              string
}

// ReturnItemInput names one rental item and how many units came back now.
type ReturnItemInput struct {
	RentalItemID     uuid.UUID
	QuantityReturned int // delta, not cumulative
}

type ProcessReturnInput struct {
	RentalID        uuid.UUID
	ReturnDate      domain.Date
	Items           []ReturnItemInput
	LateFee         decimal.Decimal
	DamageCharges   decimal.Decimal
	DepositReturned bool
	PaymentMethod   domain.PaymentMethod
	PaymentAmount   decimal.Decimal
	Notes           string
	NextReturnDate  domain.NullDate // required when items remain out
}

type EditRentalInput struct {
	RentalID           uuid.UUID
	CustomerID         uuid.UUID
	UserID             uuid.UUID
	StartDate          domain.Date
	ExpectedReturnDate domain.Date
	Items              []RentalItemInput
	SecurityDeposit    decimal.Decimal
	AmountPaid         decimal.Decimal
	Notes              string
}

type RentalService interface {
	Create(ctx context.Context, input CreateRentalInput) (*domain.Rental, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Rental, error)
	// ProcessReturn applies return deltas, re-derives status and recomputes
	// the settlement in a single locked transaction.
	ProcessReturn(ctx context.Context, input ProcessReturnInput) (*domain.Rental, error)
	// Edit replaces the rental wholesale; rejected once any return exists.
	Edit(ctx context.Context, input EditRentalInput) (*domain.Rental, error)
	// UpdateStatus applies the externally driven transitions (overdue,
	// cancelled); engine-derived states cannot be set manually.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.RentalStatus) (*domain.Rental, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter repository.RentalFilter, page, pageSize int) ([]domain.Rental, int64, error)
	// SettlementPreview computes the would-be settlement for a return on the
	// given date without persisting anything.
	SettlementPreview(ctx context.Context, id uuid.UUID, returnDate domain.Date) (*billing.Settlement, error)
}

type EmailService interface {
	SendReturnReminder(ctx context.Context, customer *domain.Customer, rental *domain.Rental) error
	SendOverdueNotice(ctx context.Context, customer *domain.Customer, rental *domain.Rental, daysLate int) error
	SendSettlementReceipt(ctx context.Context, customer *domain.Customer, rental *domain.Rental) error
}
