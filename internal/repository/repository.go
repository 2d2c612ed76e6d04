package repository

import (
	"context"

	"github.com/google/uuid"

	"storekeeper-backend/internal/domain"
)

// CustomerFilter narrows customer listings.
type CustomerFilter struct {
	Search string // matches name, phone or email
}

type CustomerRepository interface {
	Create(ctx context.Context, customer *domain.Customer) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error)
	Update(ctx context.Context, customer *domain.Customer) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter CustomerFilter, page, pageSize int) ([]domain.Customer, int64, error)
}

// ProductFilter narrows product listings.
type ProductFilter struct {
	Search       string // matches name or SKU
	Category     string
	Type         domain.ProductType
	ActiveOnly   bool
	RentableOnly bool // active products with type rent or both
}

type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter ProductFilter, page, pageSize int) ([]domain.Product, int64, error)
	// AdjustStock changes current stock by delta (positive or negative) and
	// fails with a validation error when the result would go below zero.
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) error
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// SaleFilter narrows sale listings.
type SaleFilter struct {
	Search        string // matches invoice number
	PaymentStatus domain.PaymentStatus
}

type SaleRepository interface {
	// Create persists the sale with its items and decrements product stock,
	// all in one transaction.
	Create(ctx context.Context, sale *domain.Sale) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Sale, error)
	// Delete removes the sale (items cascade) and restores product stock in
	// one transaction.
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter SaleFilter, page, pageSize int) ([]domain.Sale, int64, error)
}

// RentalFilter narrows rental listings.
type RentalFilter struct {
	Search string // matches rental number or customer name/phone
	Status domain.RentalStatus
}

// RentalTxRepository exposes the operations available inside a rental
// transaction. The rental row is locked for the duration, serializing
// concurrent return processing per rental id.
type RentalTxRepository interface {
	// GetByIDForUpdate loads the rental with its items, locking the rental
	// row until the transaction ends.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Rental, error)
	// SaveReturn persists the rental's settlement fields and each item's
	// quantity-returned and return-date columns.
	SaveReturn(ctx context.Context, rental *domain.Rental) error
}

type RentalRepository interface {
	// Create persists the rental with all its items as one transaction; a
	// rental is never visible without its items.
	Create(ctx context.Context, rental *domain.Rental) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Rental, error)
	// Replace rewrites the rental header and swaps the full item set
	// (delete-all, insert-new) in one transaction.
	Replace(ctx context.Context, rental *domain.Rental) error
	// UpdateStatus sets the status only, for externally driven transitions
	// (overdue marking, cancellation).
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.RentalStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter RentalFilter, page, pageSize int) ([]domain.Rental, int64, error)
	// ListDueOn returns open rentals (active or partial_return) whose
	// expected or next return date falls on the given date.
	ListDueOn(ctx context.Context, due domain.Date) ([]domain.Rental, error)
	// InTransaction runs fn inside a database transaction; the transaction
	// commits when fn returns nil and rolls back otherwise.
	InTransaction(ctx context.Context, fn func(tx RentalTxRepository) error) error
}
