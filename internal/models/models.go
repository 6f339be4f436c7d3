package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Seller struct {
	ID          string    `json:"seller_id"`
	CompanyName string    `json:"company_name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	Address     string    `json:"address,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

type Customer struct {
	ID        string    `json:"customer_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Product struct {
	ID            string          `json:"product_id"`
	SellerID      string          `json:"seller_id"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	Manufacturer  string          `json:"manufacturer"`
	MfgDate       time.Time       `json:"mfg_date"`
	ExpDate       time.Time       `json:"exp_date"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	StockQuantity int             `json:"stock_quantity"`
	MinStockLevel int             `json:"min_stock_level"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// CartLine is one buyer-selected product pending checkout. Lines live in the
// customer's cart until checkout commits or the customer removes them; they
// are never persisted to the database.
type CartLine struct {
	ProductID string          `json:"product_id"`
	SellerID  string          `json:"seller_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// Order groups the lines committed by a single checkout under one order id.
// The order id is a grouping key over order_item rows, not a separate table.
type Order struct {
	OrderID     string          `json:"order_id"`
	CustomerID  string          `json:"customer_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	PlacedAt    time.Time       `json:"placed_at"`
	Lines       []OrderLine     `json:"lines,omitempty"`
}

type OrderLine struct {
	ID         int64           `json:"id"`
	OrderID    string          `json:"order_id"`
	ProductID  string          `json:"product_id"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	CustomerID string          `json:"customer_id"`
	SellerID   string          `json:"seller_id"`
	Status     string          `json:"status"`
	OrderDate  time.Time       `json:"order_date"`
}

const (
	ProductStatusAvailable  = "available"
	ProductStatusLowStock   = "low_stock"
	ProductStatusOutOfStock = "out_of_stock"
)

// Values of order_item.status. Checkout writes processing; the remaining
// states belong to the fulfillment workflow that consumes OrderPlaced events
// and advances lines after shipment.
const (
	OrderLineStatusProcessing = "processing"
	OrderLineStatusShipped    = "shipped"
	OrderLineStatusDelivered  = "delivered"
	OrderLineStatusCancelled  = "cancelled"
)

const (
	SellerStatusActive    = "active"
	SellerStatusSuspended = "suspended"
)
