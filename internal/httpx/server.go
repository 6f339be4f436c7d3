package httpx

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/safar/go-marketplace/internal/cart"
	"github.com/safar/go-marketplace/internal/events"
	"go.uber.org/zap"
)

type Handler struct {
	DB              *sql.DB
	Cart            *cart.Store
	Producer        *events.Producer // nil disables event publishing
	Logger          *zap.Logger
	CheckoutRetries int
}

func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/sellers", h.registerSeller)
	r.Post("/customers", h.registerCustomer)
	r.Post("/auth/seller", h.loginSeller)
	r.Post("/auth/customer", h.loginCustomer)

	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.listProducts)
		r.Post("/", h.createProduct)
		r.Get("/{productID}", h.getProduct)
		r.Patch("/{productID}", h.updateProduct)
		r.Post("/{productID}/restock", h.restockProduct)
		r.Delete("/{productID}", h.deleteProduct)
	})

	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.getCart)
		r.Post("/items", h.addCartLine)
		r.Delete("/items/{index}", h.removeCartLine)
		r.Delete("/", h.clearCart)
	})

	r.Post("/checkout", h.checkout)
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{orderID}", h.getOrder)

	r.Get("/dashboard/seller", h.sellerDashboard)
	r.Get("/dashboard/customer", h.customerDashboard)

	return r
}
