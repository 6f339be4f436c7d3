package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/safar/go-marketplace/internal/models"
	"github.com/shopspring/decimal"
)

// Dashboards are read-only aggregations over the stock ledger and the order
// record store; they never mutate either.

type ProductStats struct {
	Total      int `json:"total_products"`
	Available  int `json:"available_products"`
	LowStock   int `json:"low_stock_products"`
	OutOfStock int `json:"out_of_stock_products"`
}

type LowStockProduct struct {
	ProductID     string `json:"product_id"`
	Name          string `json:"name"`
	StockQuantity int    `json:"stock_quantity"`
	MinStockLevel int    `json:"min_stock_level"`
	Status        string `json:"status"`
}

type SalesSummary struct {
	TotalOrders int64           `json:"total_orders"`
	UnitsSold   int64           `json:"units_sold"`
	Revenue     decimal.Decimal `json:"revenue"`
}

type SellerDashboard struct {
	ProductStats ProductStats      `json:"product_stats"`
	LowStock     []LowStockProduct `json:"low_stock"`
	Sales        SalesSummary      `json:"sales"`
}

type CustomerOrderLine struct {
	models.OrderLine
	ProductName string `json:"product_name"`
	SellerName  string `json:"seller_name"`
}

type CustomerDashboard struct {
	RecentLines []CustomerOrderLine `json:"recent_lines"`
}

func GetSellerDashboard(ctx context.Context, db *sql.DB, sellerID string) (*SellerDashboard, error) {
	dashboard := &SellerDashboard{}

	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN status = 'available' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN status = 'low_stock' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN status = 'out_of_stock' THEN 1 ELSE 0 END), 0)
		FROM product
		WHERE seller_id = $1`,
		sellerID).Scan(
		&dashboard.ProductStats.Total,
		&dashboard.ProductStats.Available,
		&dashboard.ProductStats.LowStock,
		&dashboard.ProductStats.OutOfStock,
	)
	if err != nil {
		return nil, fmt.Errorf("product stats: %w", err)
	}

	rows, err := db.QueryContext(ctx, `
		SELECT product_id, name, stock_quantity, min_stock_level, status
		FROM product
		WHERE seller_id = $1 AND stock_quantity <= min_stock_level
		ORDER BY stock_quantity`,
		sellerID)
	if err != nil {
		return nil, fmt.Errorf("low stock products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p LowStockProduct
		if err := rows.Scan(&p.ProductID, &p.Name, &p.StockQuantity, &p.MinStockLevel, &p.Status); err != nil {
			return nil, fmt.Errorf("scan low stock product: %w", err)
		}
		dashboard.LowStock = append(dashboard.LowStock, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	err = db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT order_id),
		       COALESCE(SUM(quantity), 0),
		       COALESCE(SUM(subtotal), 0)
		FROM order_item
		WHERE seller_id = $1`,
		sellerID).Scan(
		&dashboard.Sales.TotalOrders,
		&dashboard.Sales.UnitsSold,
		&dashboard.Sales.Revenue,
	)
	if err != nil {
		return nil, fmt.Errorf("sales summary: %w", err)
	}

	return dashboard, nil
}

func GetCustomerDashboard(ctx context.Context, db *sql.DB, customerID string, limit int) (*CustomerDashboard, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := db.QueryContext(ctx, `
		SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.unit_price, oi.subtotal,
		       oi.customer_id, oi.seller_id, oi.status, oi.order_date,
		       p.name, s.company_name
		FROM order_item oi
		JOIN product p ON oi.product_id = p.product_id
		JOIN seller s ON oi.seller_id = s.seller_id
		WHERE oi.customer_id = $1
		ORDER BY oi.order_date DESC, oi.id DESC
		LIMIT $2`,
		customerID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent order lines: %w", err)
	}
	defer rows.Close()

	dashboard := &CustomerDashboard{}
	for rows.Next() {
		var line CustomerOrderLine
		err := rows.Scan(
			&line.ID,
			&line.OrderID,
			&line.ProductID,
			&line.Quantity,
			&line.UnitPrice,
			&line.Subtotal,
			&line.CustomerID,
			&line.SellerID,
			&line.Status,
			&line.OrderDate,
			&line.ProductName,
			&line.SellerName,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		dashboard.RecentLines = append(dashboard.RecentLines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return dashboard, nil
}
