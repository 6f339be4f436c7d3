package httpx

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/safar/go-marketplace/internal/database"
	"github.com/safar/go-marketplace/internal/metrics"
	"github.com/safar/go-marketplace/internal/store"
	"go.uber.org/zap"
)

// checkout turns the customer's cart into a committed order. The cart is
// cleared only after the transaction commits; on any failure it stays intact
// so the customer can retry or edit it.
func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	customer, ok := customerID(w, r)
	if !ok {
		return
	}

	lines, err := h.Cart.Get(r.Context(), customer)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}
	if len(lines) == 0 {
		respondError(w, http.StatusBadRequest, "cart is empty")
		return
	}

	start := time.Now()
	order, err := store.PlaceOrder(r.Context(), h.DB, store.CheckoutRequest{
		CustomerID: customer,
		Lines:      lines,
		MaxRetries: h.CheckoutRetries,
	})
	metrics.CheckoutDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.CheckoutFailuresTotal.WithLabelValues(failureReason(err)).Inc()
		h.respondStoreError(w, err)
		return
	}

	metrics.OrdersPlacedTotal.Inc()
	metrics.OrderLinesPlacedTotal.Add(float64(len(order.Lines)))
	for _, line := range order.Lines {
		metrics.StockDebitedTotal.Add(float64(line.Quantity))
	}

	if err := h.Cart.Clear(r.Context(), customer); err != nil {
		// The order stands; a stale cart is recoverable, a lost order is not.
		h.Logger.Warn("clear cart after checkout failed",
			zap.String("customer_id", customer),
			zap.String("order_id", order.OrderID),
			zap.Error(err))
	}

	if h.Producer != nil {
		h.Producer.PublishOrderPlaced(order)
	}

	h.Logger.Info("order placed",
		zap.String("order_id", order.OrderID),
		zap.String("customer_id", customer),
		zap.Int("lines", len(order.Lines)),
		zap.String("total", order.TotalAmount.String()))

	respondJSON(w, http.StatusCreated, order)
}

func failureReason(err error) string {
	var stockErr *database.InsufficientStockError
	var notFoundErr *database.ProductNotFoundError
	var validationErr *database.ValidationError

	switch {
	case errors.As(err, &stockErr):
		return "insufficient_stock"
	case errors.As(err, &notFoundErr):
		return "product_not_found"
	case errors.As(err, &validationErr):
		return "validation"
	case database.IsRetryable(err):
		return "transaction_abort"
	default:
		return "internal"
	}
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	order, err := store.GetOrder(r.Context(), h.DB, chi.URLParam(r, "orderID"))
	if err != nil {
		h.respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, order)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	customer, ok := customerID(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	page, err := store.ListOrderLinesCursor(r.Context(), h.DB, customer, r.URL.Query().Get("cursor"), limit)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, page)
}

func (h *Handler) sellerDashboard(w http.ResponseWriter, r *http.Request) {
	seller, ok := sellerID(w, r)
	if !ok {
		return
	}

	dashboard, err := store.GetSellerDashboard(r.Context(), h.DB, seller)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dashboard)
}

func (h *Handler) customerDashboard(w http.ResponseWriter, r *http.Request) {
	customer, ok := customerID(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	dashboard, err := store.GetCustomerDashboard(r.Context(), h.DB, customer, limit)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dashboard)
}
