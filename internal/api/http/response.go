package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"storekeeper-backend/internal/domain"
	"storekeeper-backend/internal/logger"
)

// pageParams reads page/limit query parameters with sane bounds.
func pageParams(r *http.Request) (page, limit int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

// apiResponse is the envelope every endpoint answers with.
type apiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// pagination echoes the paging of a list response.
type pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// pagedData wraps a list payload with its pagination block.
type pagedData struct {
	Data       any        `json:"data"`
	Pagination pagination `json:"pagination"`
}

func newPagination(page, limit int, total int64) pagination {
	totalPages := int(total) / limit
	if int(total)%limit != 0 {
		totalPages++
	}
	return pagination{Page: page, Limit: limit, Total: total, TotalPages: totalPages}
}

func respondData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, apiResponse{Success: true, Data: data})
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, apiResponse{Success: true, Message: message})
}

func respondPaged(w http.ResponseWriter, data any, p pagination) {
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: pagedData{Data: data, Pagination: p}})
}

// respondError maps the error kind to an HTTP status: validation 400,
// not-found 404, conflict 409, everything else 500.
func respondError(w http.ResponseWriter, err error) {
	var (
		ve  *domain.ValidationError
		nfe *domain.NotFoundError
		ce  *domain.ConflictError
	)
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Error: ve.Error()})
	case errors.As(err, &nfe):
		writeJSON(w, http.StatusNotFound, apiResponse{Success: false, Error: nfe.Error()})
	case errors.As(err, &ce):
		writeJSON(w, http.StatusConflict, apiResponse{Success: false, Error: ce.Error()})
	default:
		logger.Error("internal error", "error", err)
		writeJSON(w, http.StatusInternalServerError, apiResponse{Success: false, Error: "internal server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}
