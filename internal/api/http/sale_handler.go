package http

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"storekeeper-backend/internal/domain"
	"storekeeper-backend/internal/repository"
	"storekeeper-backend/internal/service"
)

type SaleHandler struct {
	sales service.SaleService
}

func NewSaleHandler(sales service.SaleService) *SaleHandler {
	return &SaleHandler{sales: sales}
}

func (h *SaleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req saleRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		respondError(w, err)
		return
	}

	input, err := h.inputFromRequest(&req)
	if err != nil {
		respondError(w, err)
		return
	}
	sale, err := h.sales.Create(r.Context(), *input)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusCreated, sale)
}

func (h *SaleHandler) inputFromRequest(req *saleRequest) (*service.CreateSaleInput, error) {
	customerID, err := parseUUID("customer_id", req.CustomerID)
	if err != nil {
		return nil, err
	}
	userID, err := parseUUID("user_id", req.UserID)
	if err != nil {
		return nil, err
	}
	discount, err := parseMoney("discount", req.Discount)
	if err != nil {
		return nil, err
	}
	tax, err := parseMoney("tax", req.Tax)
	if err != nil {
		return nil, err
	}
	amountPaid, err := parseMoney("amount_paid", req.AmountPaid)
	if err != nil {
		return nil, err
	}

	items := make([]service.SaleItemInput, 0, len(req.Items))
	for i, it := range req.Items {
		productID, err := parseUUID(fmt.Sprintf("items[%d].product_id", i), it.ProductID)
		if err != nil {
			return nil, err
		}
		unitPrice, err := parseMoney(fmt.Sprintf("items[%d].unit_price", i), it.UnitPrice)
		if err != nil {
			return nil, err
		}
		itemDiscount, err := parseMoney(fmt.Sprintf("items[%d].discount", i), it.Discount)
		if err != nil {
			return nil, err
		}
		items = append(items, service.SaleItemInput{
			ProductID: productID,
			Quantity:  it.Quantity,
			UnitPrice: unitPrice,
			Discount:  itemDiscount,
		})
	}

	return &service.CreateSaleInput{
		CustomerID:    customerID,
		UserID:        userID,
		Items:         items,
		Discount:      discount,
		Tax:           tax,
		PaymentStatus: domain.PaymentStatus(req.PaymentStatus),
		PaymentMethod: domain.PaymentMethod(req.PaymentMethod),
		AmountPaid:    amountPaid,
		Notes:         req.Notes,
	}, nil
}

func (h *SaleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID("id", mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}
	sale, err := h.sales.Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, sale)
}

func (h *SaleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID("id", mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}
	if err := h.sales.Delete(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respondMessage(w, http.StatusOK, "sale deleted")
}

func (h *SaleHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	q := r.URL.Query()
	filter := repository.SaleFilter{Search: q.Get("search")}
	if s := q.Get("payment_status"); s != "" {
		status, err := domain.ParsePaymentStatus(s)
		if err != nil {
			respondError(w, err)
			return
		}
		filter.PaymentStatus = status
	}

	sales, total, err := h.sales.List(r.Context(), filter, page, limit)
	if err != nil {
		respondError(w, err)
		return
	}
	if sales == nil {
		sales = []domain.Sale{}
	}
	respondPaged(w, sales, newPagination(page, limit, total))
}
