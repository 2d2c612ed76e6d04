package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storekeeper-backend/internal/domain"
	"storekeeper-backend/internal/repository"
)

type saleService struct {
	saleRepo     repository.SaleRepository
	customerRepo repository.CustomerRepository
	productRepo  repository.ProductRepository
	userRepo     repository.UserRepository
}

func NewSaleService(
	saleRepo repository.SaleRepository,
	customerRepo repository.CustomerRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
) SaleService {
	return &saleService{
		saleRepo:     saleRepo,
		customerRepo: customerRepo,
		productRepo:  productRepo,
		userRepo:     userRepo,
	}
}

func (s *saleService) Create(ctx context.Context, input CreateSaleInput) (*domain.Sale, error) {
	if len(input.Items) == 0 {
		return nil, domain.NewValidationError("items", "at least one item is required")
	}
	if _, err := domain.ParsePaymentStatus(string(input.PaymentStatus)); err != nil {
		return nil, err
	}
	if input.PaymentMethod != "" {
		if _, err := domain.ParsePaymentMethod(string(input.PaymentMethod)); err != nil {
			return nil, err
		}
	}

	if _, err := s.customerRepo.GetByID(ctx, input.CustomerID); err != nil {
		return nil, err
	}
	if _, err := s.userRepo.GetByID(ctx, input.UserID); err != nil {
		return nil, err
	}

	subtotal := decimal.Zero
	items := make([]domain.SaleItem, 0, len(input.Items))
	for i, in := range input.Items {
		if in.Quantity < 1 {
			return nil, domain.NewValidationError(fmt.Sprintf("items[%d].quantity", i), "must be at least 1")
		}
		if in.UnitPrice.IsNegative() {
			return nil, domain.NewValidationError(fmt.Sprintf("items[%d].unit_price", i), "must not be negative")
		}
		product, err := s.productRepo.GetByID(ctx, in.ProductID)
		if err != nil {
			return nil, err
		}
		if !product.Type.Sellable() {
			return nil, domain.NewValidationError(fmt.Sprintf("items[%d].product_id", i), "product is not for sale")
		}

		lineTotal := in.UnitPrice.
			Mul(decimal.NewFromInt(int64(in.Quantity))).
			Sub(in.Discount).
			Round(2)
		subtotal = subtotal.Add(lineTotal)

		items = append(items, domain.SaleItem{
			ProductID: in.ProductID,
			Quantity:  in.Quantity,
			UnitPrice: in.UnitPrice,
			Discount:  in.Discount,
			Total:     lineTotal,
		})
	}

	total := subtotal.Sub(input.Discount).Add(input.Tax).Round(2)

	amountPaid := input.AmountPaid
	switch input.PaymentStatus {
	case domain.PaymentStatusPaid:
		amountPaid = total
	case domain.PaymentStatusPending:
		amountPaid = decimal.Zero
	}

	sale := &domain.Sale{
		InvoiceNumber: fmt.Sprintf("INV-%d", time.Now().UnixMilli()),
		CustomerID:    input.CustomerID,
		UserID:        input.UserID,
		Subtotal:      subtotal,
		Discount:      input.Discount,
		Tax:           input.Tax,
		Total:         total,
		PaymentStatus: input.PaymentStatus,
		PaymentMethod: input.PaymentMethod,
		AmountPaid:    amountPaid,
		AmountDue:     total.Sub(amountPaid),
		Notes:         input.Notes,
		Items:         items,
	}

	// Stock validation happens inside the transaction, where it cannot race
	// with a concurrent sale of the same product.
	if err := s.saleRepo.Create(ctx, sale); err != nil {
		return nil, err
	}
	return sale, nil
}

func (s *saleService) Get(ctx context.Context, id uuid.UUID) (*domain.Sale, error) {
	return s.saleRepo.GetByID(ctx, id)
}

func (s *saleService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.saleRepo.Delete(ctx, id)
}

func (s *saleService) List(ctx context.Context, filter repository.SaleFilter, page, pageSize int) ([]domain.Sale, int64, error) {
	page, pageSize = normalizePage(page, pageSize)
	return s.saleRepo.List(ctx, filter, page, pageSize)
}
