package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"storekeeper-backend/internal/domain"
	"storekeeper-backend/internal/repository"
)

type customerService struct {
	customerRepo repository.CustomerRepository
}

func NewCustomerService(customerRepo repository.CustomerRepository) CustomerService {
	return &customerService{customerRepo: customerRepo}
}

func validateCustomer(c *domain.Customer) error {
	if strings.TrimSpace(c.Name) == "" {
		return domain.NewValidationError("name", "is required")
	}
	if strings.TrimSpace(c.Phone) == "" {
		return domain.NewValidationError("phone", "is required")
	}
	return nil
}

func (s *customerService) Create(ctx context.Context, c *domain.Customer) error {
	if err := validateCustomer(c); err != nil {
		return err
	}
	return s.customerRepo.Create(ctx, c)
}

func (s *customerService) Get(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	return s.customerRepo.GetByID(ctx, id)
}

func (s *customerService) Update(ctx context.Context, c *domain.Customer) error {
	if err := validateCustomer(c); err != nil {
		return err
	}
	return s.customerRepo.Update(ctx, c)
}

func (s *customerService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.customerRepo.Delete(ctx, id)
}

func (s *customerService) List(ctx context.Context, filter repository.CustomerFilter, page, pageSize int) ([]domain.Customer, int64, error) {
	page, pageSize = normalizePage(page, pageSize)
	return s.customerRepo.List(ctx, filter, page, pageSize)
}

// normalizePage clamps paging inputs to sane bounds.
func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
