package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/safar/go-marketplace/internal/database"
	"github.com/safar/go-marketplace/internal/models"
	"github.com/shopspring/decimal"
)

type CheckoutRequest struct {
	CustomerID string
	Lines      []models.CartLine
	MaxRetries int
}

// generateOrderID returns a fresh order identifier. The timestamp prefix keeps
// ids display-sortable; the uuid suffix makes collisions between concurrent
// checkouts negligible, which a bare second-granularity timestamp is not.
func generateOrderID() string {
	u := uuid.New()
	return fmt.Sprintf("ORD-%s-%X", time.Now().UTC().Format("20060102150405"), u[:5])
}

// PlaceOrder converts a cart into a committed order as one atomic unit: every
// line debits its product's stock and appends an order_item row, or nothing is
// retained. Product rows are locked in ascending product-id order so that
// concurrent checkouts touching overlapping product sets cannot deadlock on
// each other. Backend aborts (deadlock, lock timeout, serialization) are
// retried with a fresh order id; business failures such as insufficient stock
// surface immediately with the cart untouched.
func PlaceOrder(ctx context.Context, db *sql.DB, req CheckoutRequest) (*models.Order, error) {
	if err := validateCheckout(req); err != nil {
		return nil, err
	}

	lines := coalesceLines(req.Lines)
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })

	maxRetries := req.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	var order *models.Order

	err := database.WithRetry(ctx, db, database.TxOptions{
		IsolationLevel: sql.LevelReadCommitted,
		MaxRetries:     maxRetries,
	}, func(tx *sql.Tx) error {
		var exists bool
		err := tx.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM customer WHERE customer_id = $1)",
			req.CustomerID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check customer exists: %w", err)
		}
		if !exists {
			return database.ErrCustomerNotFound
		}

		// Fresh id on every attempt: an aborted attempt must not leak its
		// identifier into a later one.
		orderID := generateOrderID()

		attempt := &models.Order{
			OrderID:    orderID,
			CustomerID: req.CustomerID,
		}

		for _, line := range lines {
			var sellerID string
			var stockQuantity, minStockLevel int

			err := tx.QueryRowContext(ctx,
				`SELECT seller_id, stock_quantity, min_stock_level
				 FROM product
				 WHERE product_id = $1
				 FOR UPDATE`,
				line.ProductID).Scan(&sellerID, &stockQuantity, &minStockLevel)
			if err != nil {
				if err == sql.ErrNoRows {
					return &database.ProductNotFoundError{ProductID: line.ProductID}
				}
				return fmt.Errorf("lock product %s: %w", line.ProductID, err)
			}

			if stockQuantity < line.Quantity {
				return &database.InsufficientStockError{
					ProductID: line.ProductID,
					Requested: line.Quantity,
					Available: stockQuantity,
				}
			}

			newStatus := models.DeriveStatus(stockQuantity-line.Quantity, minStockLevel)

			result, err := tx.ExecContext(ctx,
				`UPDATE product
				 SET stock_quantity = stock_quantity - $1,
				     status = $2,
				     updated_at = NOW()
				 WHERE product_id = $3
				   AND stock_quantity >= $1`,
				line.Quantity, newStatus, line.ProductID)
			if err != nil {
				return fmt.Errorf("debit stock for %s: %w", line.ProductID, err)
			}

			rowsAffected, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("get rows affected: %w", err)
			}
			if rowsAffected == 0 {
				// Unreachable while the row lock is held; kept as a backstop
				// against the quantity going negative.
				return &database.InsufficientStockError{
					ProductID: line.ProductID,
					Requested: line.Quantity,
					Available: stockQuantity,
				}
			}

			// Price is the cart-time snapshot, not the live product price.
			subtotal := line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))

			orderLine := models.OrderLine{
				OrderID:    orderID,
				ProductID:  line.ProductID,
				Quantity:   line.Quantity,
				UnitPrice:  line.UnitPrice,
				Subtotal:   subtotal,
				CustomerID: req.CustomerID,
				SellerID:   sellerID,
				Status:     models.OrderLineStatusProcessing,
			}

			err = tx.QueryRowContext(ctx,
				`INSERT INTO order_item (order_id, product_id, quantity, unit_price, subtotal, customer_id, seller_id, status, order_date)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
				 RETURNING id, order_date`,
				orderID, line.ProductID, line.Quantity, line.UnitPrice, subtotal,
				req.CustomerID, sellerID, models.OrderLineStatusProcessing).
				Scan(&orderLine.ID, &orderLine.OrderDate)
			if err != nil {
				return fmt.Errorf("create order line for %s: %w", line.ProductID, err)
			}

			attempt.Lines = append(attempt.Lines, orderLine)
			attempt.TotalAmount = attempt.TotalAmount.Add(subtotal)
		}

		attempt.PlacedAt = attempt.Lines[0].OrderDate
		order = attempt
		return nil
	})

	if err != nil {
		return nil, err
	}

	return order, nil
}

// coalesceLines merges repeated cart lines for the same product into one,
// keeping the first line's price snapshot. One order carries at most one line
// per product.
func coalesceLines(in []models.CartLine) []models.CartLine {
	out := make([]models.CartLine, 0, len(in))
	index := make(map[string]int, len(in))
	for _, line := range in {
		if i, ok := index[line.ProductID]; ok {
			out[i].Quantity += line.Quantity
			continue
		}
		index[line.ProductID] = len(out)
		out = append(out, line)
	}
	return out
}

func validateCheckout(req CheckoutRequest) error {
	if req.CustomerID == "" {
		return &database.ValidationError{Field: "customer_id", Reason: "must not be empty"}
	}
	if len(req.Lines) == 0 {
		return &database.ValidationError{Field: "cart", Reason: "must not be empty"}
	}
	for _, line := range req.Lines {
		if line.ProductID == "" {
			return &database.ValidationError{Field: "product_id", Reason: "must not be empty"}
		}
		if line.Quantity <= 0 {
			return &database.ValidationError{Field: "quantity", Reason: "must be greater than 0"}
		}
		if !line.UnitPrice.IsPositive() {
			return &database.ValidationError{Field: "unit_price", Reason: "must be greater than 0"}
		}
	}
	return nil
}

func GetOrder(ctx context.Context, db *sql.DB, orderID string) (*models.Order, error) {
	query := `
		SELECT id, order_id, product_id, quantity, unit_price, subtotal, customer_id, seller_id, status, order_date
		FROM order_item
		WHERE order_id = $1
		ORDER BY id`

	rows, err := db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	defer rows.Close()

	order := &models.Order{OrderID: orderID}
	for rows.Next() {
		var line models.OrderLine
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
		)
		if err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		order.Lines = append(order.Lines, line)
		order.TotalAmount = order.TotalAmount.Add(line.Subtotal)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	if len(order.Lines) == 0 {
		return nil, database.ErrOrderNotFound
	}

	order.CustomerID = order.Lines[0].CustomerID
	order.PlacedAt = order.Lines[0].OrderDate

	return order, nil
}

// ListOrderLinesCursor pages through a customer's order history, newest first.
func ListOrderLinesCursor(ctx context.Context, db *sql.DB, customerID string, cursor string, limit int) (*CursorPage, error) {
	cursorData, err := DecodeCursor(cursor)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}

	query := `
		SELECT id, order_id, product_id, quantity, unit_price, subtotal, customer_id, seller_id, status, order_date
		FROM order_item
		WHERE customer_id = $1
		  AND (order_date, id) < ($2, $3)
		ORDER BY order_date DESC, id DESC
		LIMIT $4`

	rows, err := db.QueryContext(ctx, query, customerID, cursorData.OrderDate, cursorData.ID, limit+1)
	if err != nil {
		return nil, fmt.Errorf("list order lines: %w", err)
	}
	defer rows.Close()

	var lines []models.OrderLine
	for rows.Next() {
		var line models.OrderLine
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
		)
		if err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	hasMore := len(lines) > limit
	if hasMore {
		lines = lines[:limit]
	}

	var nextCursor string
	if hasMore && len(lines) > 0 {
		last := lines[len(lines)-1]
		nextCursor = EncodeCursor(LineCursor{
			OrderDate: last.OrderDate,
			ID:        last.ID,
		})
	}

	return &CursorPage{
		Items:      lines,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}
