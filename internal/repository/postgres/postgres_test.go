package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"storekeeper-backend/internal/domain"
	"storekeeper-backend/internal/repository"
	"storekeeper-backend/internal/repository/postgres"
)

func newMock(t *testing.T) (sqlmock.Sqlmock, *postgres.Store) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return mock, postgres.NewStore(db)
}

func sqlmockTime() time.Time {
	return time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
}

func TestCustomerRepository_Create(t *testing.T) {
	mock, repo := newMock(t)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		c := &domain.Customer{Name: "Ravi Kumar", Phone: "9876543210"}

		mock.ExpectExec("INSERT INTO customers").
			WithArgs(sqlmock.AnyArg(), c.Name, c.Email, c.Phone, c.Address,
				c.City, c.State, c.Pincode, c.Notes, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.CustomerRepository.Create(ctx, c)
		assert.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, c.ID)
	})
}

func TestCustomerRepository_GetByID_NotFound(t *testing.T) {
	mock, repo := newMock(t)
	ctx := context.Background()

	id := uuid.New()
	mock.ExpectQuery("SELECT (.+) FROM customers WHERE id").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.CustomerRepository.GetByID(ctx, id)
	var nfe *domain.NotFoundError
	assert.ErrorAs(t, err, &nfe)
}

func TestProductRepository_AdjustStock(t *testing.T) {
	mock, repo := newMock(t)
	ctx := context.Background()

	id := uuid.New()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec("UPDATE products SET current_stock = current_stock").
			WithArgs(-2, sqlmock.AnyArg(), id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.ProductRepository.AdjustStock(ctx, id, -2)
		assert.NoError(t, err)
	})

	t.Run("InsufficientStock", func(t *testing.T) {
		mock.ExpectExec("UPDATE products SET current_stock = current_stock").
			WithArgs(-10, sqlmock.AnyArg(), id).
			WillReturnResult(sqlmock.NewResult(0, 0))
		// Guard trips: repo re-reads the row to tell "missing" from "short".
		mock.ExpectQuery("SELECT (.+) FROM products WHERE id").
			WithArgs(id).
			WillReturnRows(productRows(id, 3))

		err := repo.ProductRepository.AdjustStock(ctx, id, -10)
		var ve *domain.ValidationError
		assert.ErrorAs(t, err, &ve)
		assert.Equal(t, "quantity", ve.Field)
	})

	t.Run("NotFound", func(t *testing.T) {
		missing := uuid.New()
		mock.ExpectExec("UPDATE products SET current_stock = current_stock").
			WithArgs(1, sqlmock.AnyArg(), missing).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT (.+) FROM products WHERE id").
			WithArgs(missing).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		err := repo.ProductRepository.AdjustStock(ctx, missing, 1)
		var nfe *domain.NotFoundError
		assert.ErrorAs(t, err, &nfe)
	})
}

func productRows(id uuid.UUID, stock int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "description", "sku", "category", "unit",
		"type", "current_stock", "min_stock_level", "sale_price", "rent_price_per_day",
		"rent_price_per_week", "rent_price_per_month", "security_deposit", "is_active",
		"created_at", "updated_at"}).
		AddRow(id, "Ladder", "", "SKU-1", "tools", "pcs", "both", stock, 1,
			"500.00", "100.00", "600.00", "2000.00", "500.00", true,
			sqlmockTime(), sqlmockTime())
}

func TestSaleRepository_Create_RollsBackOnShortStock(t *testing.T) {
	mock, repo := newMock(t)
	ctx := context.Background()

	productID := uuid.New()
	sale := &domain.Sale{
		InvoiceNumber: "INV-202608-0001",
		CustomerID:    uuid.New(),
		UserID:        uuid.New(),
		Subtotal:      decimal.RequireFromString("500.00"),
		Total:         decimal.RequireFromString("500.00"),
		PaymentStatus: domain.PaymentStatusPaid,
		Items: []domain.SaleItem{{
			ProductID: productID,
			Quantity:  5,
			UnitPrice: decimal.RequireFromString("100.00"),
			Total:     decimal.RequireFromString("500.00"),
		}},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO sales").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO sale_items").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE products SET current_stock = current_stock -").
		WithArgs(5, sqlmock.AnyArg(), productID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.SaleRepository.Create(ctx, sale)
	var ve *domain.ValidationError
	assert.ErrorAs(t, err, &ve)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRentalRepository_Create(t *testing.T) {
	mock, repo := newMock(t)
	ctx := context.Background()

	rental := &domain.Rental{
		RentalNumber:       "RNT-202608-0001",
		CustomerID:         uuid.New(),
		UserID:             uuid.New(),
		StartDate:          domain.NewDate(2026, 8, 1),
		ExpectedReturnDate: domain.NewDate(2026, 8, 6),
		Status:             domain.RentalStatusActive,
		Subtotal:           decimal.RequireFromString("500.00"),
		SecurityDeposit:    decimal.RequireFromString("600.00"),
		TotalCharges:       decimal.RequireFromString("500.00"),
		Items: []domain.RentalItem{{
			ProductID:  uuid.New(),
			Quantity:   1,
			RateType:   domain.RateTypeDaily,
			RateAmount: decimal.RequireFromString("100.00"),
			TotalDays:  5,
			Total:      decimal.RequireFromString("500.00"),
		}},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO rentals").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO rental_items").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.RentalRepository.Create(ctx, rental)
	assert.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, rental.ID)
	assert.Equal(t, rental.ID, rental.Items[0].RentalID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRentalRepository_InTransaction_LocksAndSaves(t *testing.T) {
	mock, repo := newMock(t)
	ctx := context.Background()

	rentalID := uuid.New()
	itemID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM rentals WHERE id = \\$1 FOR UPDATE").
		WithArgs(rentalID).
		WillReturnRows(rentalRows(rentalID))
	mock.ExpectQuery("SELECT (.+) FROM rental_items ri").
		WithArgs(pq.Array([]uuid.UUID{rentalID})).
		WillReturnRows(rentalItemRows(itemID, rentalID))
	mock.ExpectExec("UPDATE rentals SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE rental_items SET quantity_returned").
		WithArgs(1, sqlmock.AnyArg(), itemID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.RentalRepository.InTransaction(ctx, func(tx repository.RentalTxRepository) error {
		rt, err := tx.GetByIDForUpdate(ctx, rentalID)
		if err != nil {
			return err
		}
		rt.Items[0].QuantityReturned = 1
		rt.Items[0].ReturnDate = domain.SomeDate(domain.NewDate(2026, 8, 6))
		rt.Status = domain.RentalStatusReturned
		return tx.SaveReturn(ctx, rt)
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRentalRepository_InTransaction_RollsBackOnError(t *testing.T) {
	mock, repo := newMock(t)
	ctx := context.Background()

	rentalID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM rentals WHERE id = \\$1 FOR UPDATE").
		WithArgs(rentalID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	err := repo.RentalRepository.InTransaction(ctx, func(tx repository.RentalTxRepository) error {
		_, err := tx.GetByIDForUpdate(ctx, rentalID)
		return err
	})
	var nfe *domain.NotFoundError
	assert.ErrorAs(t, err, &nfe)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRentalRepository_UpdateStatus_NotFound(t *testing.T) {
	mock, repo := newMock(t)
	ctx := context.Background()

	id := uuid.New()
	mock.ExpectExec("UPDATE rentals SET status").
		WithArgs(domain.RentalStatusOverdue, sqlmock.AnyArg(), id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.RentalRepository.UpdateStatus(ctx, id, domain.RentalStatusOverdue)
	var nfe *domain.NotFoundError
	assert.ErrorAs(t, err, &nfe)
}

func rentalRows(id uuid.UUID) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "rental_number", "customer_id", "user_id",
		"start_date", "expected_return_date", "actual_return_date", "status", "subtotal",
		"security_deposit", "total_charges", "late_fee", "damage_charges", "amount_paid",
		"amount_due", "deposit_returned", "return_payment_method", "return_payment_amount",
		"return_notes", "next_return_date", "notes", "created_at", "updated_at"}).
		AddRow(id, "RNT-202608-0001", uuid.New(), uuid.New(),
			domain.NewDate(2026, 8, 1).Time(), domain.NewDate(2026, 8, 6).Time(), nil,
			"active", "500.00", "600.00", "500.00", "0", "0", "0", "500.00", false,
			nil, "0", nil, nil, nil, sqlmockTime(), sqlmockTime())
}

func rentalItemRows(itemID, rentalID uuid.UUID) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "rental_id", "product_id", "quantity", "rate_type",
		"rate_amount", "total_days", "total", "quantity_returned", "return_date", "created_at",
		"name", "unit"}).
		AddRow(itemID, rentalID, uuid.New(), 1, "daily", "100.00", 5, "500.00", 0, nil,
			sqlmockTime(), "Ladder", "pcs")
}

func rentalListRows(id uuid.UUID) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "rental_number", "customer_id", "user_id",
		"start_date", "expected_return_date", "actual_return_date", "status", "subtotal",
		"security_deposit", "total_charges", "late_fee", "damage_charges", "amount_paid",
		"amount_due", "deposit_returned", "return_payment_method", "return_payment_amount",
		"return_notes", "next_return_date", "notes", "created_at", "updated_at", "name"}).
		AddRow(id, "RNT-202608-0001", uuid.New(), uuid.New(),
			domain.NewDate(2026, 8, 1).Time(), domain.NewDate(2026, 8, 6).Time(), nil,
			"active", "500.00", "600.00", "500.00", "0", "0", "0", "500.00", false,
			nil, "0", nil, nil, nil, sqlmockTime(), sqlmockTime(), "Ravi")
}

func TestRentalRepository_List_LoadsItemsForPage(t *testing.T) {
	mock, repo := newMock(t)
	ctx := context.Background()

	rentalID := uuid.New()
	itemID := uuid.New()

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM rentals r LEFT JOIN customers c").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT r.id, (.+), c.name FROM rentals r LEFT JOIN customers c").
		WithArgs(20, 0).
		WillReturnRows(rentalListRows(rentalID))
	mock.ExpectQuery("SELECT ri.id, (.+) FROM rental_items ri").
		WithArgs(pq.Array([]uuid.UUID{rentalID})).
		WillReturnRows(rentalItemRows(itemID, rentalID))

	rentals, total, err := repo.RentalRepository.List(ctx, repository.RentalFilter{}, 1, 20)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, rentals, 1)
	assert.Equal(t, "Ravi", rentals[0].CustomerName)
	assert.Len(t, rentals[0].Items, 1)
	assert.Equal(t, itemID, rentals[0].Items[0].ID)
	assert.Equal(t, "Ladder", rentals[0].Items[0].ProductName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaleRepository_List_LoadsItemsForPage(t *testing.T) {
	mock, repo := newMock(t)
	ctx := context.Background()

	saleID := uuid.New()
	itemID := uuid.New()

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM sales").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT id, invoice_number, (.+) FROM sales").
		WithArgs(20, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "invoice_number", "customer_id", "user_id",
			"subtotal", "discount", "tax", "total", "payment_status", "payment_method",
			"amount_paid", "amount_due", "notes", "created_at", "updated_at"}).
			AddRow(saleID, "INV-202608-0001", uuid.New(), uuid.New(),
				"1050.00", "50.00", "180.00", "1180.00", "paid", "upi",
				"1180.00", "0", nil, sqlmockTime(), sqlmockTime()))
	mock.ExpectQuery("SELECT si.id, (.+) FROM sale_items si").
		WithArgs(pq.Array([]uuid.UUID{saleID})).
		WillReturnRows(sqlmock.NewRows([]string{"id", "sale_id", "product_id", "quantity",
			"unit_price", "discount", "total", "created_at", "name", "unit"}).
			AddRow(itemID, saleID, uuid.New(), 3, "350.00", "50.00", "1000.00",
				sqlmockTime(), "Cement Bag", "bag"))

	sales, total, err := repo.SaleRepository.List(ctx, repository.SaleFilter{}, 1, 20)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, sales, 1)
	assert.Len(t, sales[0].Items, 1)
	assert.Equal(t, "Cement Bag", sales[0].Items[0].ProductName)
	assert.NoError(t, mock.ExpectationsWereMet())
}
