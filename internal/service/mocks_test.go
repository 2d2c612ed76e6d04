package service_test

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"storekeeper-backend/internal/domain"
	"storekeeper-backend/internal/repository"
)

// MockCustomerRepo
type MockCustomerRepo struct {
	mock.Mock
}

func (m *MockCustomerRepo) Create(ctx context.Context, c *domain.Customer) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}
func (m *MockCustomerRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Customer), args.Error(1)
}
func (m *MockCustomerRepo) Update(ctx context.Context, c *domain.Customer) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}
func (m *MockCustomerRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockCustomerRepo) List(ctx context.Context, filter repository.CustomerFilter, page, pageSize int) ([]domain.Customer, int64, error) {
	args := m.Called(ctx, filter, page, pageSize)
	return args.Get(0).([]domain.Customer), args.Get(1).(int64), args.Error(2)
}

// MockProductRepo
// MockUserRepo
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}
func (m *MockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type MockProductRepo struct {
	mock.Mock
}

func (m *MockProductRepo) Create(ctx context.Context, p *domain.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}
func (m *MockProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}
func (m *MockProductRepo) Update(ctx context.Context, p *domain.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}
func (m *MockProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockProductRepo) List(ctx context.Context, filter repository.ProductFilter, page, pageSize int) ([]domain.Product, int64, error) {
	args := m.Called(ctx, filter, page, pageSize)
	return args.Get(0).([]domain.Product), args.Get(1).(int64), args.Error(2)
}
func (m *MockProductRepo) AdjustStock(ctx context.Context, id uuid.UUID, delta int) error {
	args := m.Called(ctx, id, delta)
	return args.Error(0)
}

// MockSaleRepo
type MockSaleRepo struct {
	mock.Mock
}

func (m *MockSaleRepo) Create(ctx context.Context, s *domain.Sale) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}
func (m *MockSaleRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Sale, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Sale), args.Error(1)
}
func (m *MockSaleRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockSaleRepo) List(ctx context.Context, filter repository.SaleFilter, page, pageSize int) ([]domain.Sale, int64, error) {
	args := m.Called(ctx, filter, page, pageSize)
	return args.Get(0).([]domain.Sale), args.Get(1).(int64), args.Error(2)
}

// MockRentalTx backs InTransaction calls; the return engine sees it as the
// transaction-scoped repository.
type MockRentalTx struct {
	mock.Mock
}

func (m *MockRentalTx) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Rental, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rental), args.Error(1)
}
func (m *MockRentalTx) SaveReturn(ctx context.Context, r *domain.Rental) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

// MockRentalRepo
type MockRentalRepo struct {
	mock.Mock
	Tx *MockRentalTx
}

func (m *MockRentalRepo) Create(ctx context.Context, r *domain.Rental) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}
func (m *MockRentalRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Rental, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rental), args.Error(1)
}
func (m *MockRentalRepo) Replace(ctx context.Context, r *domain.Rental) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}
func (m *MockRentalRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.RentalStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}
func (m *MockRentalRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockRentalRepo) List(ctx context.Context, filter repository.RentalFilter, page, pageSize int) ([]domain.Rental, int64, error) {
	args := m.Called(ctx, filter, page, pageSize)
	return args.Get(0).([]domain.Rental), args.Get(1).(int64), args.Error(2)
}
func (m *MockRentalRepo) ListDueOn(ctx context.Context, due domain.Date) ([]domain.Rental, error) {
	args := m.Called(ctx, due)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Rental), args.Error(1)
}

// InTransaction hands the engine the mock transaction directly; commit and
// rollback are not simulated.
func (m *MockRentalRepo) InTransaction(ctx context.Context, fn func(tx repository.RentalTxRepository) error) error {
	return fn(m.Tx)
}

// MockEmailService
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendReturnReminder(ctx context.Context, c *domain.Customer, r *domain.Rental) error {
	args := m.Called(ctx, c, r)
	return args.Error(0)
}
func (m *MockEmailService) SendOverdueNotice(ctx context.Context, c *domain.Customer, r *domain.Rental, daysLate int) error {
	args := m.Called(ctx, c, r, daysLate)
	return args.Error(0)
}
func (m *MockEmailService) SendSettlementReceipt(ctx context.Context, c *domain.Customer, r *domain.Rental) error {
	args := m.Called(ctx, c, r)
	return args.Error(0)
}
