package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/safar/go-marketplace/internal/database"
	"github.com/safar/go-marketplace/internal/models"
	"github.com/shopspring/decimal"
)

// DefaultMinStockLevel applies when a seller does not set a threshold.
const DefaultMinStockLevel = 10

const productColumns = `product_id, seller_id, name, description, manufacturer, mfg_date, exp_date,
	 unit_price, stock_quantity, min_stock_level, status, created_at, updated_at`

type CreateProductRequest struct {
	SellerID      string
	Name          string
	Description   string
	Manufacturer  string
	MfgDate       time.Time
	ExpDate       time.Time
	UnitPrice     decimal.Decimal
	StockQuantity int
	MinStockLevel int
}

func generateProductID() string {
	return "P" + strings.ReplaceAll(uuid.NewString(), "-", "")[:19]
}

func CreateProduct(ctx context.Context, db *sql.DB, req CreateProductRequest) (*models.Product, error) {
	if err := validateProductFields(req.Name, req.Manufacturer, req.MfgDate, req.ExpDate,
		req.UnitPrice, req.StockQuantity, req.MinStockLevel); err != nil {
		return nil, err
	}

	status := models.DeriveStatus(req.StockQuantity, req.MinStockLevel)
	productID := generateProductID()

	query := `
		INSERT INTO product (product_id, seller_id, name, description, manufacturer, mfg_date, exp_date,
		                     unit_price, stock_quantity, min_stock_level, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		RETURNING ` + productColumns

	product := &models.Product{}
	err := db.QueryRowContext(ctx, query,
		productID, req.SellerID, req.Name, req.Description, req.Manufacturer,
		req.MfgDate, req.ExpDate, req.UnitPrice, req.StockQuantity, req.MinStockLevel, status).
		Scan(productFields(product)...)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch {
			case pqErr.Code == "23505":
				return nil, database.ErrDuplicateName
			case pqErr.Code == "23503":
				return nil, database.ErrSellerNotFound
			}
		}
		return nil, fmt.Errorf("create product: %w", err)
	}

	return product, nil
}

func GetProduct(ctx context.Context, db *sql.DB, id string) (*models.Product, error) {
	product := &models.Product{}

	query := `SELECT ` + productColumns + ` FROM product WHERE product_id = $1`

	err := db.QueryRowContext(ctx, query, id).Scan(productFields(product)...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, &database.ProductNotFoundError{ProductID: id}
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return product, nil
}

// ProductUpdate enumerates the fields a seller may change. Nil means
// "leave unchanged". Field names never come from the caller; the update
// statement is fixed.
type ProductUpdate struct {
	Name          *string
	Description   *string
	UnitPrice     *decimal.Decimal
	StockQuantity *int
	MinStockLevel *int
}

func (u ProductUpdate) empty() bool {
	return u.Name == nil && u.Description == nil && u.UnitPrice == nil &&
		u.StockQuantity == nil && u.MinStockLevel == nil
}

// UpdateProduct applies an enumerated field update under a row lock and
// recomputes the derived status from the merged quantity and threshold.
func UpdateProduct(ctx context.Context, db *sql.DB, productID, sellerID string, update ProductUpdate) (*models.Product, error) {
	if update.empty() {
		return nil, &database.ValidationError{Field: "update", Reason: "no recognized fields set"}
	}
	if update.Name != nil && *update.Name == "" {
		return nil, &database.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if update.UnitPrice != nil && !update.UnitPrice.IsPositive() {
		return nil, &database.ValidationError{Field: "unit_price", Reason: "must be greater than 0"}
	}
	if update.StockQuantity != nil && *update.StockQuantity < 0 {
		return nil, &database.ValidationError{Field: "stock_quantity", Reason: "must not be negative"}
	}
	if update.MinStockLevel != nil && *update.MinStockLevel < 0 {
		return nil, &database.ValidationError{Field: "min_stock_level", Reason: "must not be negative"}
	}

	product := &models.Product{}

	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		current := &models.Product{}
		err := tx.QueryRowContext(ctx,
			`SELECT `+productColumns+` FROM product
			 WHERE product_id = $1 AND seller_id = $2
			 FOR UPDATE`,
			productID, sellerID).Scan(productFields(current)...)
		if err != nil {
			if err == sql.ErrNoRows {
				return &database.ProductNotFoundError{ProductID: productID}
			}
			return fmt.Errorf("lock product: %w", err)
		}

		if update.Name != nil {
			current.Name = *update.Name
		}
		if update.Description != nil {
			current.Description = *update.Description
		}
		if update.UnitPrice != nil {
			current.UnitPrice = *update.UnitPrice
		}
		if update.StockQuantity != nil {
			current.StockQuantity = *update.StockQuantity
		}
		if update.MinStockLevel != nil {
			current.MinStockLevel = *update.MinStockLevel
		}
		current.Status = models.DeriveStatus(current.StockQuantity, current.MinStockLevel)

		err = tx.QueryRowContext(ctx,
			`UPDATE product
			 SET name = $1, description = $2, unit_price = $3,
			     stock_quantity = $4, min_stock_level = $5, status = $6,
			     updated_at = NOW()
			 WHERE product_id = $7 AND seller_id = $8
			 RETURNING `+productColumns,
			current.Name, current.Description, current.UnitPrice,
			current.StockQuantity, current.MinStockLevel, current.Status,
			productID, sellerID).Scan(productFields(product)...)
		if err != nil {
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
				return database.ErrDuplicateName
			}
			return fmt.Errorf("update product: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return product, nil
}

// RestockProduct adds quantity to a product's stock and recomputes its status,
// serialized against in-flight checkouts by the same row lock they take.
func RestockProduct(ctx context.Context, db *sql.DB, productID, sellerID string, quantity int) (*models.Product, error) {
	if quantity <= 0 {
		return nil, &database.ValidationError{Field: "quantity", Reason: "must be greater than 0"}
	}

	product := &models.Product{}

	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		var stockQuantity, minStockLevel int
		err := tx.QueryRowContext(ctx,
			`SELECT stock_quantity, min_stock_level
			 FROM product
			 WHERE product_id = $1 AND seller_id = $2
			 FOR UPDATE`,
			productID, sellerID).Scan(&stockQuantity, &minStockLevel)
		if err != nil {
			if err == sql.ErrNoRows {
				return &database.ProductNotFoundError{ProductID: productID}
			}
			return fmt.Errorf("lock product: %w", err)
		}

		newStatus := models.DeriveStatus(stockQuantity+quantity, minStockLevel)

		err = tx.QueryRowContext(ctx,
			`UPDATE product
			 SET stock_quantity = stock_quantity + $1,
			     status = $2,
			     updated_at = NOW()
			 WHERE product_id = $3
			 RETURNING `+productColumns,
			quantity, newStatus, productID).Scan(productFields(product)...)
		if err != nil {
			return fmt.Errorf("restock product: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return product, nil
}

func DeleteProduct(ctx context.Context, db *sql.DB, productID, sellerID string) error {
	result, err := db.ExecContext(ctx,
		`DELETE FROM product WHERE product_id = $1 AND seller_id = $2`,
		productID, sellerID)
	if err != nil {
		// Order lines are append-only history; a referenced product stays.
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return database.ErrProductInUse
		}
		return fmt.Errorf("delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return &database.ProductNotFoundError{ProductID: productID}
	}

	return nil
}

// ListAvailableProducts is the storefront listing: purchasable products only.
func ListAvailableProducts(ctx context.Context, db *sql.DB, page, pageSize int) (*OffsetPage, error) {
	if page < 1 {
		return nil, &database.ValidationError{Field: "page", Reason: "must be at least 1"}
	}
	if pageSize < 1 {
		return nil, &database.ValidationError{Field: "page_size", Reason: "must be at least 1"}
	}

	var total int64
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM product WHERE status <> $1 AND stock_quantity > 0`,
		models.ProductStatusOutOfStock).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	offset := (page - 1) * pageSize
	query := `
		SELECT ` + productColumns + `
		FROM product
		WHERE status <> $1 AND stock_quantity > 0
		ORDER BY name
		LIMIT $2 OFFSET $3`

	rows, err := db.QueryContext(ctx, query, models.ProductStatusOutOfStock, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var product models.Product
		if err := rows.Scan(productFields(&product)...); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	return &OffsetPage{
		Items:      products,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

func validateProductFields(name, manufacturer string, mfgDate, expDate time.Time,
	unitPrice decimal.Decimal, stockQuantity, minStockLevel int) error {
	if name == "" {
		return &database.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if manufacturer == "" {
		return &database.ValidationError{Field: "manufacturer", Reason: "must not be empty"}
	}
	if mfgDate.IsZero() || expDate.IsZero() {
		return &database.ValidationError{Field: "mfg_date", Reason: "manufacture and expiry dates are required"}
	}
	if !expDate.After(mfgDate) {
		return &database.ValidationError{Field: "exp_date", Reason: "must be after manufacture date"}
	}
	if !unitPrice.IsPositive() {
		return &database.ValidationError{Field: "unit_price", Reason: "must be greater than 0"}
	}
	if stockQuantity < 0 {
		return &database.ValidationError{Field: "stock_quantity", Reason: "must not be negative"}
	}
	if minStockLevel < 0 {
		return &database.ValidationError{Field: "min_stock_level", Reason: "must not be negative"}
	}
	return nil
}

func productFields(p *models.Product) []interface{} {
	return []interface{}{
		&p.ID,
		&p.SellerID,
		&p.Name,
		&p.Description,
		&p.Manufacturer,
		&p.MfgDate,
		&p.ExpDate,
		&p.UnitPrice,
		&p.StockQuantity,
		&p.MinStockLevel,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	}
}
