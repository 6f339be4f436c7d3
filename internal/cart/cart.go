// Package cart keeps each customer's pending checkout lines in Redis. A cart
// is private to its customer's session, so operations need no cross-request
// locking; the checkout handler clears it only after the order committed.
package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/safar/go-marketplace/internal/database"
	"github.com/safar/go-marketplace/internal/models"
	"github.com/shopspring/decimal"
)

const keyCart = "cart:%s"

type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func New(addr string, ttl time.Duration) *Store {
	return &Store{
		rdb: redis.NewClient(&redis.Options{Addr: addr}),
		ttl: ttl,
	}
}

func NewWithClient(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.rdb.Close()
}

// Add appends a line to the end of the cart. The unit price is snapshotted
// here; checkout charges this price even if the product's live price changes.
func (s *Store) Add(ctx context.Context, customerID string, line models.CartLine) error {
	if line.ProductID == "" {
		return &database.ValidationError{Field: "product_id", Reason: "must not be empty"}
	}
	if line.Quantity <= 0 {
		return &database.ValidationError{Field: "quantity", Reason: "must be greater than 0"}
	}
	if !line.UnitPrice.IsPositive() {
		return &database.ValidationError{Field: "unit_price", Reason: "must be greater than 0"}
	}

	line.Subtotal = line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))

	data, err := json.Marshal(line)
	if err != nil {
		return fmt.Errorf("encode cart line: %w", err)
	}

	key := fmt.Sprintf(keyCart, customerID)
	pipe := s.rdb.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("push cart line: %w", err)
	}

	return nil
}

// Get returns the cart's lines in the order they were added.
func (s *Store) Get(ctx context.Context, customerID string) ([]models.CartLine, error) {
	raw, err := s.rdb.LRange(ctx, fmt.Sprintf(keyCart, customerID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}

	lines := make([]models.CartLine, 0, len(raw))
	for _, item := range raw {
		var line models.CartLine
		if err := json.Unmarshal([]byte(item), &line); err != nil {
			return nil, fmt.Errorf("decode cart line: %w", err)
		}
		lines = append(lines, line)
	}

	return lines, nil
}

// Remove drops the line at the given position. The cart is session-private,
// so read-modify-write without a lock is safe.
func (s *Store) Remove(ctx context.Context, customerID string, index int) error {
	lines, err := s.Get(ctx, customerID)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(lines) {
		return &database.ValidationError{Field: "index", Reason: "out of range"}
	}

	lines = append(lines[:index], lines[index+1:]...)

	key := fmt.Sprintf(keyCart, customerID)
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, key)
	for _, line := range lines {
		data, err := json.Marshal(line)
		if err != nil {
			return fmt.Errorf("encode cart line: %w", err)
		}
		pipe.RPush(ctx, key, data)
	}
	if len(lines) > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("rewrite cart: %w", err)
	}

	return nil
}

func (s *Store) Clear(ctx context.Context, customerID string) error {
	if err := s.rdb.Del(ctx, fmt.Sprintf(keyCart, customerID)).Err(); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
