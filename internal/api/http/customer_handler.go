package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"storekeeper-backend/internal/domain"
	"storekeeper-backend/internal/repository"
	"storekeeper-backend/internal/service"
)

type CustomerHandler struct {
	customers service.CustomerService
}

func NewCustomerHandler(customers service.CustomerService) *CustomerHandler {
	return &CustomerHandler{customers: customers}
}

func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		respondError(w, err)
		return
	}

	customer := &domain.Customer{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
		City:    req.City,
		State:   req.State,
		Pincode: req.Pincode,
		Notes:   req.Notes,
	}
	if err := h.customers.Create(r.Context(), customer); err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusCreated, customer)
}

func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID("id", mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}
	customer, err := h.customers.Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, customer)
}

func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID("id", mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}
	var req customerRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		respondError(w, err)
		return
	}

	customer := &domain.Customer{
		ID:      id,
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
		City:    req.City,
		State:   req.State,
		Pincode: req.Pincode,
		Notes:   req.Notes,
	}
	if err := h.customers.Update(r.Context(), customer); err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, customer)
}

func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID("id", mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}
	if err := h.customers.Delete(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respondMessage(w, http.StatusOK, "customer deleted")
}

func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	filter := repository.CustomerFilter{Search: r.URL.Query().Get("search")}

	customers, total, err := h.customers.List(r.Context(), filter, page, limit)
	if err != nil {
		respondError(w, err)
		return
	}
	if customers == nil {
		customers = []domain.Customer{}
	}
	respondPaged(w, customers, newPagination(page, limit, total))
}
