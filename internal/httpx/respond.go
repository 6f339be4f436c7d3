package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/safar/go-marketplace/internal/database"
	"go.uber.org/zap"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Error("encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondStoreError maps the store's error taxonomy onto HTTP statuses so the
// caller can tell retryable failures from terminal ones.
func (h *Handler) respondStoreError(w http.ResponseWriter, err error) {
	var validationErr *database.ValidationError
	var stockErr *database.InsufficientStockError
	var notFoundErr *database.ProductNotFoundError

	switch {
	case errors.As(err, &validationErr):
		respondError(w, http.StatusBadRequest, validationErr.Error())
	case errors.As(err, &stockErr):
		respondJSON(w, http.StatusConflict, map[string]string{
			"error":      stockErr.Error(),
			"product_id": stockErr.ProductID,
		})
	case errors.As(err, &notFoundErr):
		respondError(w, http.StatusNotFound, notFoundErr.Error())
	case errors.Is(err, database.ErrOrderNotFound),
		errors.Is(err, database.ErrSellerNotFound),
		errors.Is(err, database.ErrCustomerNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, database.ErrDuplicateEmail),
		errors.Is(err, database.ErrDuplicateName),
		errors.Is(err, database.ErrProductInUse):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, database.ErrBadCredentials):
		respondError(w, http.StatusUnauthorized, err.Error())
	case database.IsRetryable(err):
		respondError(w, http.StatusServiceUnavailable, "temporary failure, please retry")
	default:
		h.Logger.Error("request failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

// Identity is established by the upstream auth gateway and forwarded in
// headers; this service only enforces that a principal is present.

func customerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.Header.Get("X-Customer-ID")
	if id == "" {
		respondError(w, http.StatusUnauthorized, "missing customer identity")
		return "", false
	}
	return id, true
}

func sellerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.Header.Get("X-Seller-ID")
	if id == "" {
		respondError(w, http.StatusUnauthorized, "missing seller identity")
		return "", false
	}
	return id, true
}
