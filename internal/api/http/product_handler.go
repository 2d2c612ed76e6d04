package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"storekeeper-backend/internal/domain"
	"storekeeper-backend/internal/repository"
	"storekeeper-backend/internal/service"
)

type ProductHandler struct {
	products service.ProductService
}

func NewProductHandler(products service.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

func (h *ProductHandler) productFromRequest(req *productRequest) (*domain.Product, error) {
	salePrice, err := parseNullMoney("sale_price", req.SalePrice)
	if err != nil {
		return nil, err
	}
	perDay, err := parseNullMoney("rent_price_per_day", req.RentPricePerDay)
	if err != nil {
		return nil, err
	}
	perWeek, err := parseNullMoney("rent_price_per_week", req.RentPricePerWeek)
	if err != nil {
		return nil, err
	}
	perMonth, err := parseNullMoney("rent_price_per_month", req.RentPricePerMonth)
	if err != nil {
		return nil, err
	}
	deposit, err := parseNullMoney("security_deposit", req.SecurityDeposit)
	if err != nil {
		return nil, err
	}

	return &domain.Product{
		Name:              req.Name,
		Description:       req.Description,
		SKU:               req.SKU,
		Category:          req.Category,
		Unit:              req.Unit,
		Type:              domain.ProductType(req.Type),
		CurrentStock:      req.CurrentStock,
		MinStockLevel:     req.MinStockLevel,
		SalePrice:         salePrice,
		RentPricePerDay:   perDay,
		RentPricePerWeek:  perWeek,
		RentPricePerMonth: perMonth,
		SecurityDeposit:   deposit,
		IsActive:          req.IsActive,
	}, nil
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		respondError(w, err)
		return
	}
	product, err := h.productFromRequest(&req)
	if err != nil {
		respondError(w, err)
		return
	}
	if err := h.products.Create(r.Context(), product); err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusCreated, product)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID("id", mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}
	product, err := h.products.Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, product)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID("id", mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}
	var req productRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		respondError(w, err)
		return
	}
	product, err := h.productFromRequest(&req)
	if err != nil {
		respondError(w, err)
		return
	}
	product.ID = id
	if err := h.products.Update(r.Context(), product); err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, product)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID("id", mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}
	if err := h.products.Delete(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respondMessage(w, http.StatusOK, "product deleted")
}

func (h *ProductHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID("id", mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}
	var req stockAdjustmentRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := h.products.AdjustStock(r.Context(), id, req.Delta); err != nil {
		respondError(w, err)
		return
	}
	product, err := h.products.Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, product)
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	q := r.URL.Query()
	filter := repository.ProductFilter{
		Search:       q.Get("search"),
		Category:     q.Get("category"),
		ActiveOnly:   q.Get("active") == "true",
		RentableOnly: q.Get("rentable") == "true",
	}
	if t := q.Get("type"); t != "" {
		pt, err := domain.ParseProductType(t)
		if err != nil {
			respondError(w, err)
			return
		}
		filter.Type = pt
	}

	products, total, err := h.products.List(r.Context(), filter, page, limit)
	if err != nil {
		respondError(w, err)
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	respondPaged(w, products, newPagination(page, limit, total))
}
