package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"storekeeper-backend/internal/logger"
	"storekeeper-backend/internal/service"
)

// NewRouter wires every service operation to its route.
func NewRouter(
	customers service.CustomerService,
	products service.ProductService,
	sales service.SaleService,
	rentals service.RentalService,
) *mux.Router {
	customerHandler := NewCustomerHandler(customers)
	productHandler := NewProductHandler(products)
	saleHandler := NewSaleHandler(sales)
	rentalHandler := NewRentalHandler(rentals)

	r := mux.NewRouter()
	r.Use(loggingMiddleware)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/customers", customerHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/customers", customerHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/customers/{id}", customerHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/customers/{id}", customerHandler.Update).Methods(http.MethodPut)
	api.HandleFunc("/customers/{id}", customerHandler.Delete).Methods(http.MethodDelete)

	api.HandleFunc("/products", productHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/products", productHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/products/{id}", productHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/products/{id}", productHandler.Update).Methods(http.MethodPut)
	api.HandleFunc("/products/{id}", productHandler.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/products/{id}/stock", productHandler.AdjustStock).Methods(http.MethodPost)

	api.HandleFunc("/sales", saleHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/sales", saleHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/sales/{id}", saleHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/sales/{id}", saleHandler.Delete).Methods(http.MethodDelete)

	api.HandleFunc("/rentals", rentalHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/rentals", rentalHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/rentals/{id}", rentalHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/rentals/{id}", rentalHandler.Update).Methods(http.MethodPut)
	api.HandleFunc("/rentals/{id}", rentalHandler.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/rentals/{id}/status", rentalHandler.UpdateStatus).Methods(http.MethodPatch)
	api.HandleFunc("/rentals/{id}/return", rentalHandler.ProcessReturn).Methods(http.MethodPost)
	api.HandleFunc("/rentals/{id}/settlement-preview", rentalHandler.SettlementPreview).Methods(http.MethodGet)

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondMessage(w, http.StatusOK, "ok")
	}).Methods(http.MethodGet)

	return r
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.InfoContext(r.Context(), "http request",
			"method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
