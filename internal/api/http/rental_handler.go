package http

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"storekeeper-backend/internal/domain"
	"storekeeper-backend/internal/repository"
	"storekeeper-backend/internal/service"
)

type RentalHandler struct {
	rentals service.RentalService
}

func NewRentalHandler(rentals service.RentalService) *RentalHandler {
	return &RentalHandler{rentals: rentals}
}

func (h *RentalHandler) rentalInput(req *rentalRequest) (uuid.UUID, uuid.UUID, domain.Date, domain.Date, []service.RentalItemInput, error) {
	var zero domain.Date
	customerID, err := parseUUID("customer_id", req.CustomerID)
	if err != nil {
		return uuid.Nil, uuid.Nil, zero, zero, nil, err
	}
	userID, err := parseUUID("user_id", req.UserID)
	if err != nil {
		return uuid.Nil, uuid.Nil, zero, zero, nil, err
	}
	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		return uuid.Nil, uuid.Nil, zero, zero, nil, err
	}
	end, err := parseDate("expected_return_date", req.ExpectedReturnDate)
	if err != nil {
		return uuid.Nil, uuid.Nil, zero, zero, nil, err
	}

	items := make([]service.RentalItemInput, 0, len(req.Items))
	for i, it := range req.Items {
		productID, err := parseUUID(fmt.Sprintf("items[%d].product_id", i), it.ProductID)
		if err != nil {
			return uuid.Nil, uuid.Nil, zero, zero, nil, err
		}
		rateAmount, err := parseMoney(fmt.Sprintf("items[%d].rate_amount", i), it.RateAmount)
		if err != nil {
			return uuid.Nil, uuid.Nil, zero, zero, nil, err
		}
		items = append(items, service.RentalItemInput{
			ProductID:  productID,
			Quantity:   it.Quantity,
			RateType:   domain.RateType(it.RateType),
			RateAmount: rateAmount,
		})
	}
	return customerID, userID, start, end, items, nil
}

func (h *RentalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req rentalRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		respondError(w, err)
		return
	}
	customerID, userID, start, end, items, err := h.rentalInput(&req)
	if err != nil {
		respondError(w, err)
		return
	}
	deposit, err := parseMoney("security_deposit", req.SecurityDeposit)
	if err != nil {
		respondError(w, err)
		return
	}
	amountPaid, err := parseMoney("amount_paid", req.AmountPaid)
	if err != nil {
		respondError(w, err)
		return
	}

	rental, err := h.rentals.Create(r.Context(), service.CreateRentalInput{
		CustomerID:         customerID,
		UserID:             userID,
		StartDate:          start,
		ExpectedReturnDate: end,
		Items:              items,
		SecurityDeposit:    deposit,
		AmountPaid:         amountPaid,
		Notes:              req.Notes,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusCreated, rental)
}

func (h *RentalHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID("id", mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}
	rental, err := h.rentals.Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, rental)
}

func (h *RentalHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID("id", mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}
	var req rentalRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		respondError(w, err)
		return
	}
	customerID, userID, start, end, items, err := h.rentalInput(&req)
	if err != nil {
		respondError(w, err)
		return
	}
	deposit, err := parseMoney("security_deposit", req.SecurityDeposit)
	if err != nil {
		respondError(w, err)
		return
	}
	amountPaid, err := parseMoney("amount_paid", req.AmountPaid)
	if err != nil {
		respondError(w, err)
		return
	}

	rental, err := h.rentals.Edit(r.Context(), service.EditRentalInput{
		RentalID:           id,
		CustomerID:         customerID,
		UserID:             userID,
		StartDate:          start,
		ExpectedReturnDate: end,
		Items:              items,
		SecurityDeposit:    deposit,
		AmountPaid:         amountPaid,
		Notes:              req.Notes,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, rental)
}

func (h *RentalHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID("id", mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}
	var req rentalStatusRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		respondError(w, err)
		return
	}
	status, err := domain.ParseRentalStatus(req.Status)
	if err != nil {
		respondError(w, err)
		return
	}

	rental, err := h.rentals.UpdateStatus(r.Context(), id, status)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, rental)
}

func (h *RentalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID("id", mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}
	if err := h.rentals.Delete(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respondMessage(w, http.StatusOK, "rental deleted")
}

func (h *RentalHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	q := r.URL.Query()
	filter := repository.RentalFilter{Search: q.Get("search")}
	if s := q.Get("status"); s != "" {
		status, err := domain.ParseRentalStatus(s)
		if err != nil {
			respondError(w, err)
			return
		}
		filter.Status = status
	}

	rentals, total, err := h.rentals.List(r.Context(), filter, page, limit)
	if err != nil {
		respondError(w, err)
		return
	}
	if rentals == nil {
		rentals = []domain.Rental{}
	}
	respondPaged(w, rentals, newPagination(page, limit, total))
}

func (h *RentalHandler) ProcessReturn(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID("id", mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}
	var req returnRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		respondError(w, err)
		return
	}

	returnDate, err := parseDate("return_date", req.ReturnDate)
	if err != nil {
		respondError(w, err)
		return
	}
	lateFee, err := parseMoney("late_fee", req.LateFee)
	if err != nil {
		respondError(w, err)
		return
	}
	damage, err := parseMoney("damage_charges", req.DamageCharges)
	if err != nil {
		respondError(w, err)
		return
	}
	paymentAmount, err := parseMoney("payment_amount", req.PaymentAmount)
	if err != nil {
		respondError(w, err)
		return
	}
	var nextReturn domain.NullDate
	if req.NextReturnDate != "" {
		d, err := parseDate("next_return_date", req.NextReturnDate)
		if err != nil {
			respondError(w, err)
			return
		}
		nextReturn = domain.SomeDate(d)
	}

	items := make([]service.ReturnItemInput, 0, len(req.Items))
	for i, it := range req.Items {
		itemID, err := parseUUID(fmt.Sprintf("items[%d].rental_item_id", i), it.RentalItemID)
		if err != nil {
			respondError(w, err)
			return
		}
		items = append(items, service.ReturnItemInput{
			RentalItemID:     itemID,
			QuantityReturned: it.QuantityReturned,
		})
	}

	rental, err := h.rentals.ProcessReturn(r.Context(), service.ProcessReturnInput{
		RentalID:        id,
		ReturnDate:      returnDate,
		Items:           items,
		LateFee:         lateFee,
		DamageCharges:   damage,
		DepositReturned: req.DepositReturned,
		PaymentMethod:   domain.PaymentMethod(req.PaymentMethod),
		PaymentAmount:   paymentAmount,
		Notes:           req.Notes,
		NextReturnDate:  nextReturn,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, rental)
}

func (h *RentalHandler) SettlementPreview(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID("id", mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}
	returnDate, err := parseDate("return_date", r.URL.Query().Get("return_date"))
	if err != nil {
		respondError(w, err)
		return
	}

	preview, err := h.rentals.SettlementPreview(r.Context(), id, returnDate)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, preview)
}
