package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"storekeeper-backend/internal/domain"
	"storekeeper-backend/internal/service"
)

func sellableProduct(id uuid.UUID) *domain.Product {
	return &domain.Product{
		ID:           id,
		Name:         "Cement Bag",
		SKU:          "CEM-01",
		Type:         domain.ProductTypeSale,
		SalePrice:    decimal.NewNullDecimal(money("350.00")),
		CurrentStock: 40,
		IsActive:     true,
	}
}

func TestSaleService_Create(t *testing.T) {
	ctx := context.Background()
	customerID := uuid.New()
	productID := uuid.New()

	newSvc := func() (*MockSaleRepo, *MockCustomerRepo, *MockProductRepo, service.SaleService) {
		saleRepo := new(MockSaleRepo)
		customerRepo := new(MockCustomerRepo)
		productRepo := new(MockProductRepo)
		userRepo := new(MockUserRepo)
		userRepo.On("GetByID", mock.Anything, mock.Anything).Return(&domain.User{Name: "Staff"}, nil)
		return saleRepo, customerRepo, productRepo, service.NewSaleService(saleRepo, customerRepo, productRepo, userRepo)
	}

	t.Run("Success", func(t *testing.T) {
		saleRepo, customerRepo, productRepo, svc := newSvc()
		customerRepo.On("GetByID", ctx, customerID).Return(&domain.Customer{ID: customerID}, nil)
		productRepo.On("GetByID", ctx, productID).Return(sellableProduct(productID), nil)
		saleRepo.On("Create", ctx, mock.AnythingOfType("*domain.Sale")).Return(nil)

		// 3 x 350 = 1050, line discount 50 => 1000; tax 180 => 1180 total
		res, err := svc.Create(ctx, service.CreateSaleInput{
			CustomerID: customerID,
			UserID:     uuid.New(),
			Items: []service.SaleItemInput{{
				ProductID: productID,
				Quantity:  3,
				UnitPrice: money("350.00"),
				Discount:  money("50.00"),
			}},
			Tax:           money("180.00"),
			PaymentStatus: domain.PaymentStatusPaid,
			PaymentMethod: domain.PaymentMethodUPI,
		})
		assert.NoError(t, err)
		assert.True(t, res.Subtotal.Equal(money("1000.00")), "subtotal %s", res.Subtotal)
		assert.True(t, res.Total.Equal(money("1180.00")), "total %s", res.Total)
		assert.True(t, res.AmountPaid.Equal(money("1180.00")))
		assert.True(t, res.AmountDue.IsZero())
		assert.Regexp(t, `^INV-\d+$`, res.InvoiceNumber)
	})

	t.Run("PendingPaymentOwesFullTotal", func(t *testing.T) {
		saleRepo, customerRepo, productRepo, svc := newSvc()
		customerRepo.On("GetByID", ctx, customerID).Return(&domain.Customer{ID: customerID}, nil)
		productRepo.On("GetByID", ctx, productID).Return(sellableProduct(productID), nil)
		saleRepo.On("Create", ctx, mock.AnythingOfType("*domain.Sale")).Return(nil)

		res, err := svc.Create(ctx, service.CreateSaleInput{
			CustomerID:    customerID,
			Items:         []service.SaleItemInput{{ProductID: productID, Quantity: 1, UnitPrice: money("350.00")}},
			PaymentStatus: domain.PaymentStatusPending,
		})
		assert.NoError(t, err)
		assert.True(t, res.AmountPaid.IsZero())
		assert.True(t, res.AmountDue.Equal(money("350.00")))
	})

	t.Run("RejectsNonSellableProduct", func(t *testing.T) {
		_, customerRepo, productRepo, svc := newSvc()
		customerRepo.On("GetByID", ctx, customerID).Return(&domain.Customer{ID: customerID}, nil)
		rentOnly := rentableProduct(productID)
		productRepo.On("GetByID", ctx, productID).Return(rentOnly, nil)

		_, err := svc.Create(ctx, service.CreateSaleInput{
			CustomerID:    customerID,
			Items:         []service.SaleItemInput{{ProductID: productID, Quantity: 1, UnitPrice: money("350.00")}},
			PaymentStatus: domain.PaymentStatusPaid,
		})
		var ve *domain.ValidationError
		assert.ErrorAs(t, err, &ve)
	})

	t.Run("RejectsEmptyItems", func(t *testing.T) {
		_, _, _, svc := newSvc()
		_, err := svc.Create(ctx, service.CreateSaleInput{
			CustomerID:    customerID,
			PaymentStatus: domain.PaymentStatusPaid,
		})
		var ve *domain.ValidationError
		assert.ErrorAs(t, err, &ve)
	})
}
