package httpx

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/safar/go-marketplace/internal/store"
	"github.com/shopspring/decimal"
)

type createProductRequest struct {
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Manufacturer  string          `json:"manufacturer"`
	MfgDate       string          `json:"mfg_date"`
	ExpDate       string          `json:"exp_date"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	StockQuantity int             `json:"stock_quantity"`
	MinStockLevel *int            `json:"min_stock_level"`
}

type updateProductRequest struct {
	Name          *string          `json:"name"`
	Description   *string          `json:"description"`
	UnitPrice     *decimal.Decimal `json:"unit_price"`
	StockQuantity *int             `json:"stock_quantity"`
	MinStockLevel *int             `json:"min_stock_level"`
}

type restockRequest struct {
	Quantity int `json:"quantity"`
}

func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	seller, ok := sellerID(w, r)
	if !ok {
		return
	}

	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	mfgDate, err := parseDate(req.MfgDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid mfg_date, expected YYYY-MM-DD")
		return
	}
	expDate, err := parseDate(req.ExpDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid exp_date, expected YYYY-MM-DD")
		return
	}

	minStockLevel := store.DefaultMinStockLevel
	if req.MinStockLevel != nil {
		minStockLevel = *req.MinStockLevel
	}

	product, err := store.CreateProduct(r.Context(), h.DB, store.CreateProductRequest{
		SellerID:      seller,
		Name:          req.Name,
		Description:   req.Description,
		Manufacturer:  req.Manufacturer,
		MfgDate:       mfgDate,
		ExpDate:       expDate,
		UnitPrice:     req.UnitPrice,
		StockQuantity: req.StockQuantity,
		MinStockLevel: minStockLevel,
	})
	if err != nil {
		h.respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, product)
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	result, err := store.ListAvailableProducts(r.Context(), h.DB, page, pageSize)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	product, err := store.GetProduct(r.Context(), h.DB, chi.URLParam(r, "productID"))
	if err != nil {
		h.respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, product)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	seller, ok := sellerID(w, r)
	if !ok {
		return
	}

	var req updateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := store.UpdateProduct(r.Context(), h.DB, chi.URLParam(r, "productID"), seller,
		store.ProductUpdate{
			Name:          req.Name,
			Description:   req.Description,
			UnitPrice:     req.UnitPrice,
			StockQuantity: req.StockQuantity,
			MinStockLevel: req.MinStockLevel,
		})
	if err != nil {
		h.respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, product)
}

func (h *Handler) restockProduct(w http.ResponseWriter, r *http.Request) {
	seller, ok := sellerID(w, r)
	if !ok {
		return
	}

	var req restockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := store.RestockProduct(r.Context(), h.DB, chi.URLParam(r, "productID"), seller, req.Quantity)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, product)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	seller, ok := sellerID(w, r)
	if !ok {
		return
	}

	if err := store.DeleteProduct(r.Context(), h.DB, chi.URLParam(r, "productID"), seller); err != nil {
		h.respondStoreError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
