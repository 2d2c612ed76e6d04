package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storekeeper-backend/internal/billing"
	"storekeeper-backend/internal/domain"
	"storekeeper-backend/internal/logger"
	"storekeeper-backend/internal/repository"
)

type rentalService struct {
	rentalRepo   repository.RentalRepository
	customerRepo repository.CustomerRepository
	productRepo  repository.ProductRepository
	userRepo     repository.UserRepository
	email        EmailService
}

func NewRentalService(
	rentalRepo repository.RentalRepository,
	customerRepo repository.CustomerRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	email EmailService,
) RentalService {
	return &rentalService{
		rentalRepo:   rentalRepo,
		customerRepo: customerRepo,
		productRepo:  productRepo,
		userRepo:     userRepo,
		email:        email,
	}
}

// buildItems validates the item inputs and computes the per-line snapshots
// for the span startDate..expectedReturnDate. Shared by Create and Edit.
func (s *rentalService) buildItems(ctx context.Context, start, end domain.Date, inputs []RentalItemInput) ([]domain.RentalItem, decimal.Decimal, error) {
	if len(inputs) == 0 {
		return nil, decimal.Zero, domain.NewValidationError("items", "at least one item is required")
	}

	totalDays := billing.DiffDays(start, end)
	subtotal := decimal.Zero
	items := make([]domain.RentalItem, 0, len(inputs))
	for i, in := range inputs {
		if in.ProductID == uuid.Nil {
			return nil, decimal.Zero, domain.NewValidationError(fmt.Sprintf("items[%d].product_id", i), "is required")
		}
		if in.Quantity < 1 {
			return nil, decimal.Zero, domain.NewValidationError(fmt.Sprintf("items[%d].quantity", i), "must be at least 1")
		}
		if _, err := domain.ParseRateType(string(in.RateType)); err != nil {
			return nil, decimal.Zero, err
		}
		if in.RateAmount.IsNegative() {
			return nil, decimal.Zero, domain.NewValidationError(fmt.Sprintf("items[%d].rate_amount", i), "must not be negative")
		}

		product, err := s.productRepo.GetByID(ctx, in.ProductID)
		if err != nil {
			return nil, decimal.Zero, err
		}
		if !product.Type.Rentable() {
			return nil, decimal.Zero, domain.NewValidationError(fmt.Sprintf("items[%d].product_id", i), "product is not rentable")
		}

		periods := billing.PeriodCount(start, end, in.RateType)
		lineTotal := billing.LineTotal(in.RateAmount, periods, in.Quantity)
		subtotal = subtotal.Add(lineTotal)

		items = append(items, domain.RentalItem{
			ProductID:  in.ProductID,
			Quantity:   in.Quantity,
			RateType:   in.RateType,
			RateAmount: in.RateAmount,
			TotalDays:  totalDays,
			Total:      lineTotal,
		})
	}
	return items, subtotal, nil
}

func (s *rentalService) Create(ctx context.Context, input CreateRentalInput) (*domain.Rental, error) {
	if input.StartDate.IsZero() {
		return nil, domain.NewValidationError("start_date", "is required")
	}
	if input.ExpectedReturnDate.IsZero() {
		return nil, domain.NewValidationError("expected_return_date", "is required")
	}
	if input.ExpectedReturnDate.Before(input.StartDate) {
		return nil, domain.NewValidationError("expected_return_date", "must not be before start date")
	}

	if _, err := s.customerRepo.GetByID(ctx, input.CustomerID); err != nil {
		return nil, err
	}
	if _, err := s.userRepo.GetByID(ctx, input.UserID); err != nil {
		return nil, err
	}

	items, subtotal, err := s.buildItems(ctx, input.StartDate, input.ExpectedReturnDate, input.Items)
	if err != nil {
		return nil, err
	}

	rental := &domain.Rental{
		RentalNumber:       fmt.Sprintf("RNT-%d", time.Now().UnixMilli()),
		CustomerID:         input.CustomerID,
		UserID:             input.UserID,
		StartDate:          input.StartDate,
		ExpectedReturnDate: input.ExpectedReturnDate,
		Status:             domain.RentalStatusActive,
		Subtotal:           subtotal,
		SecurityDeposit:    input.SecurityDeposit,
		TotalCharges:       subtotal,
		AmountPaid:         input.AmountPaid,
		AmountDue:          subtotal.Sub(input.AmountPaid),
		Notes:              input.Notes,
		Items:              items,
	}

	if err := s.rentalRepo.Create(ctx, rental); err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "rental created",
		"rental_number", rental.RentalNumber, "customer_id", rental.CustomerID)
	return rental, nil
}

func (s *rentalService) Get(ctx context.Context, id uuid.UUID) (*domain.Rental, error) {
	return s.rentalRepo.GetByID(ctx, id)
}

func (s *rentalService) ProcessReturn(ctx context.Context, input ProcessReturnInput) (*domain.Rental, error) {
	if input.ReturnDate.IsZero() {
		return nil, domain.NewValidationError("return_date", "is required")
	}
	for i, in := range input.Items {
		if in.QuantityReturned < 0 {
			return nil, domain.NewValidationError(fmt.Sprintf("items[%d].quantity_returned", i), "must not be negative")
		}
	}
	if input.LateFee.IsNegative() {
		return nil, domain.NewValidationError("late_fee", "must not be negative")
	}
	if input.DamageCharges.IsNegative() {
		return nil, domain.NewValidationError("damage_charges", "must not be negative")
	}
	if input.PaymentMethod != "" {
		if _, err := domain.ParsePaymentMethod(string(input.PaymentMethod)); err != nil {
			return nil, err
		}
	}

	var result *domain.Rental
	err := s.rentalRepo.InTransaction(ctx, func(tx repository.RentalTxRepository) error {
		rental, err := tx.GetByIDForUpdate(ctx, input.RentalID)
		if err != nil {
			return err
		}
		switch rental.Status {
		case domain.RentalStatusReturned:
			return domain.NewValidationError("status", "rental is already fully returned")
		case domain.RentalStatusCancelled:
			return domain.NewValidationError("status", "rental is cancelled")
		}

		// Validate every delta against the full item set before touching any
		// line, so a bad request leaves the rental untouched.
		byID := make(map[uuid.UUID]*domain.RentalItem, len(rental.Items))
		for i := range rental.Items {
			byID[rental.Items[i].ID] = &rental.Items[i]
		}
		for i, in := range input.Items {
			item, ok := byID[in.RentalItemID]
			if !ok {
				return domain.NewNotFoundError("rental item", in.RentalItemID.String())
			}
			if item.QuantityReturned+in.QuantityReturned > item.Quantity {
				return domain.NewValidationError(
					fmt.Sprintf("items[%d].quantity_returned", i),
					fmt.Sprintf("would exceed rented quantity %d", item.Quantity))
			}
		}

		for _, in := range input.Items {
			if in.QuantityReturned == 0 {
				continue
			}
			item := byID[in.RentalItemID]
			item.QuantityReturned += in.QuantityReturned
			item.ReturnDate = domain.SomeDate(input.ReturnDate)
		}

		// Nothing has ever come back: the call is a no-op. Status stays
		// active and the creation-time estimate is left alone.
		if !rental.AnyItemsReturned() {
			result = rental
			return nil
		}

		// Status is derived from the full item set, not just the lines this
		// request touched.
		if rental.AllItemsReturned() {
			rental.Status = domain.RentalStatusReturned
			rental.ActualReturnDate = domain.SomeDate(input.ReturnDate)
			rental.NextReturnDate = domain.NullDate{}
		} else {
			if !input.NextReturnDate.Valid {
				return domain.NewValidationError("next_return_date", "is required for a partial return")
			}
			rental.Status = domain.RentalStatusPartialReturn
			rental.NextReturnDate = input.NextReturnDate
		}

		settlement := billing.Settle(rental, input.ReturnDate, input.LateFee, input.DamageCharges, input.DepositReturned)

		rental.TotalCharges = settlement.ActualCharges
		rental.LateFee = settlement.LateFee
		rental.DamageCharges = settlement.DamageCharges
		rental.DepositReturned = input.DepositReturned
		rental.AmountPaid = rental.AmountPaid.Add(input.PaymentAmount)
		rental.AmountDue = settlement.FinalAmount.Sub(rental.AmountPaid)
		rental.ReturnPaymentMethod = input.PaymentMethod
		rental.ReturnPaymentAmount = rental.ReturnPaymentAmount.Add(input.PaymentAmount)
		if input.Notes != "" {
			rental.ReturnNotes = input.Notes
		}

		if err := tx.SaveReturn(ctx, rental); err != nil {
			return err
		}
		result = rental
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "rental return processed",
		"rental_number", result.RentalNumber, "status", result.Status,
		"amount_due", result.AmountDue)

	// The receipt is best effort; a mail failure never fails the return.
	if result.Status == domain.RentalStatusReturned {
		if customer, err := s.customerRepo.GetByID(ctx, result.CustomerID); err != nil {
			logger.WarnContext(ctx, "failed to load customer for settlement receipt",
				"rental_number", result.RentalNumber, "error", err)
		} else if err := s.email.SendSettlementReceipt(ctx, customer, result); err != nil {
			logger.WarnContext(ctx, "failed to send settlement receipt",
				"rental_number", result.RentalNumber, "error", err)
		}
	}
	return result, nil
}

func (s *rentalService) Edit(ctx context.Context, input EditRentalInput) (*domain.Rental, error) {
	if input.ExpectedReturnDate.Before(input.StartDate) {
		return nil, domain.NewValidationError("expected_return_date", "must not be before start date")
	}

	existing, err := s.rentalRepo.GetByID(ctx, input.RentalID)
	if err != nil {
		return nil, err
	}
	// Editing would wipe the recorded return history, so it is refused as
	// soon as any quantity has come back.
	if existing.AnyItemsReturned() {
		return nil, domain.NewValidationError("rental", "cannot edit a rental with recorded returns")
	}

	if _, err := s.customerRepo.GetByID(ctx, input.CustomerID); err != nil {
		return nil, err
	}
	if _, err := s.userRepo.GetByID(ctx, input.UserID); err != nil {
		return nil, err
	}

	items, subtotal, err := s.buildItems(ctx, input.StartDate, input.ExpectedReturnDate, input.Items)
	if err != nil {
		return nil, err
	}

	rental := &domain.Rental{
		ID:                 existing.ID,
		RentalNumber:       existing.RentalNumber,
		CustomerID:         input.CustomerID,
		UserID:             input.UserID,
		StartDate:          input.StartDate,
		ExpectedReturnDate: input.ExpectedReturnDate,
		Status:             existing.Status,
		Subtotal:           subtotal,
		SecurityDeposit:    input.SecurityDeposit,
		TotalCharges:       subtotal,
		AmountPaid:         input.AmountPaid,
		AmountDue:          subtotal.Sub(input.AmountPaid),
		Notes:              input.Notes,
		CreatedAt:          existing.CreatedAt,
		Items:              items,
	}

	if err := s.rentalRepo.Replace(ctx, rental); err != nil {
		return nil, err
	}
	return rental, nil
}

func (s *rentalService) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.RentalStatus) (*domain.Rental, error) {
	switch status {
	case domain.RentalStatusOverdue, domain.RentalStatusCancelled:
	default:
		return nil, domain.NewValidationError("status", "only overdue or cancelled can be set manually")
	}

	rental, err := s.rentalRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch rental.Status {
	case domain.RentalStatusReturned:
		return nil, domain.NewValidationError("status", "rental is already fully returned")
	case domain.RentalStatusCancelled:
		return nil, domain.NewValidationError("status", "rental is cancelled")
	}

	if err := s.rentalRepo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	rental.Status = status
	logger.InfoContext(ctx, "Rental status updated",
		"rental_number", rental.RentalNumber, "status", status)
	return rental, nil
}

func (s *rentalService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.rentalRepo.Delete(ctx, id)
}

func (s *rentalService) List(ctx context.Context, filter repository.RentalFilter, page, pageSize int) ([]domain.Rental, int64, error) {
	page, pageSize = normalizePage(page, pageSize)
	return s.rentalRepo.List(ctx, filter, page, pageSize)
}

func (s *rentalService) SettlementPreview(ctx context.Context, id uuid.UUID, returnDate domain.Date) (*billing.Settlement, error) {
	if returnDate.IsZero() {
		return nil, domain.NewValidationError("return_date", "is required")
	}
	rental, err := s.rentalRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch rental.Status {
	case domain.RentalStatusReturned:
		return nil, domain.NewValidationError("status", "rental is already fully returned")
	case domain.RentalStatusCancelled:
		return nil, domain.NewValidationError("status", "rental is cancelled")
	}

	suggested := billing.SuggestedLateFee(
		billing.DiffDays(rental.StartDate, rental.ExpectedReturnDate),
		billing.DiffDays(rental.StartDate, returnDate))
	settlement := billing.Settle(rental, returnDate, suggested, decimal.Zero, rental.DepositReturned)
	return &settlement, nil
}
