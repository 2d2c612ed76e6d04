package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"storekeeper-backend/internal/domain"
	"storekeeper-backend/internal/repository"
)

type productService struct {
	productRepo repository.ProductRepository
}

func NewProductService(productRepo repository.ProductRepository) ProductService {
	return &productService{productRepo: productRepo}
}

func validateProduct(p *domain.Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return domain.NewValidationError("name", "is required")
	}
	if strings.TrimSpace(p.SKU) == "" {
		return domain.NewValidationError("sku", "is required")
	}
	if _, err := domain.ParseProductType(string(p.Type)); err != nil {
		return err
	}
	if p.CurrentStock < 0 {
		return domain.NewValidationError("current_stock", "must not be negative")
	}
	if p.Type.Sellable() && !p.SalePrice.Valid {
		return domain.NewValidationError("sale_price", "is required for sellable products")
	}
	if p.Type.Rentable() && !p.RentPricePerDay.Valid && !p.RentPricePerWeek.Valid && !p.RentPricePerMonth.Valid {
		return domain.NewValidationError("rent_price", "at least one rental rate is required")
	}
	return nil
}

func (s *productService) Create(ctx context.Context, p *domain.Product) error {
	if err := validateProduct(p); err != nil {
		return err
	}
	return s.productRepo.Create(ctx, p)
}

func (s *productService) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.productRepo.GetByID(ctx, id)
}

func (s *productService) Update(ctx context.Context, p *domain.Product) error {
	if err := validateProduct(p); err != nil {
		return err
	}
	return s.productRepo.Update(ctx, p)
}

func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.productRepo.Delete(ctx, id)
}

func (s *productService) List(ctx context.Context, filter repository.ProductFilter, page, pageSize int) ([]domain.Product, int64, error) {
	page, pageSize = normalizePage(page, pageSize)
	return s.productRepo.List(ctx, filter, page, pageSize)
}

func (s *productService) AdjustStock(ctx context.Context, id uuid.UUID, delta int) error {
	if delta == 0 {
		return nil
	}
	return s.productRepo.AdjustStock(ctx, id, delta)
}
