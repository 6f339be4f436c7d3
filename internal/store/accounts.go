package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/safar/go-marketplace/internal/database"
	"github.com/safar/go-marketplace/internal/models"
	"golang.org/x/crypto/bcrypt"
)

type RegisterSellerRequest struct {
	CompanyName string
	Email       string
	Phone       string
	Address     string
	Password    string
}

type RegisterCustomerRequest struct {
	Name     string
	Email    string
	Phone    string
	Address  string
	Password string
}

func generateAccountID(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:19]
}

func RegisterSeller(ctx context.Context, db *sql.DB, req RegisterSellerRequest) (*models.Seller, error) {
	if err := validateAccountFields(req.CompanyName, "company_name", req.Email, req.Password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	seller := &models.Seller{}

	query := `
		INSERT INTO seller (seller_id, company_name, email, phone, address, password_hash, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING seller_id, company_name, email, phone, address, status, created_at`

	err = db.QueryRowContext(ctx, query,
		generateAccountID("S"), req.CompanyName, req.Email, req.Phone, req.Address,
		string(hash), models.SellerStatusActive).Scan(
		&seller.ID,
		&seller.CompanyName,
		&seller.Email,
		&seller.Phone,
		&seller.Address,
		&seller.Status,
		&seller.CreatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, database.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("register seller: %w", err)
	}

	return seller, nil
}

func RegisterCustomer(ctx context.Context, db *sql.DB, req RegisterCustomerRequest) (*models.Customer, error) {
	if err := validateAccountFields(req.Name, "name", req.Email, req.Password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	customer := &models.Customer{}

	query := `
		INSERT INTO customer (customer_id, name, email, phone, address, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING customer_id, name, email, phone, address, created_at`

	err = db.QueryRowContext(ctx, query,
		generateAccountID("C"), req.Name, req.Email, req.Phone, req.Address, string(hash)).Scan(
		&customer.ID,
		&customer.Name,
		&customer.Email,
		&customer.Phone,
		&customer.Address,
		&customer.CreatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, database.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("register customer: %w", err)
	}

	return customer, nil
}

// AuthenticateSeller verifies credentials for the upstream session layer.
func AuthenticateSeller(ctx context.Context, db *sql.DB, email, password string) (*models.Seller, error) {
	seller := &models.Seller{}
	var hash string

	query := `
		SELECT seller_id, company_name, email, phone, address, status, created_at, password_hash
		FROM seller
		WHERE email = $1`

	err := db.QueryRowContext(ctx, query, email).Scan(
		&seller.ID,
		&seller.CompanyName,
		&seller.Email,
		&seller.Phone,
		&seller.Address,
		&seller.Status,
		&seller.CreatedAt,
		&hash,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrBadCredentials
		}
		return nil, fmt.Errorf("authenticate seller: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, database.ErrBadCredentials
	}

	return seller, nil
}

func AuthenticateCustomer(ctx context.Context, db *sql.DB, email, password string) (*models.Customer, error) {
	customer := &models.Customer{}
	var hash string

	query := `
		SELECT customer_id, name, email, phone, address, created_at, password_hash
		FROM customer
		WHERE email = $1`

	err := db.QueryRowContext(ctx, query, email).Scan(
		&customer.ID,
		&customer.Name,
		&customer.Email,
		&customer.Phone,
		&customer.Address,
		&customer.CreatedAt,
		&hash,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrBadCredentials
		}
		return nil, fmt.Errorf("authenticate customer: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, database.ErrBadCredentials
	}

	return customer, nil
}

func GetSeller(ctx context.Context, db *sql.DB, id string) (*models.Seller, error) {
	seller := &models.Seller{}

	query := `
		SELECT seller_id, company_name, email, phone, address, status, created_at
		FROM seller
		WHERE seller_id = $1`

	err := db.QueryRowContext(ctx, query, id).Scan(
		&seller.ID,
		&seller.CompanyName,
		&seller.Email,
		&seller.Phone,
		&seller.Address,
		&seller.Status,
		&seller.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrSellerNotFound
		}
		return nil, fmt.Errorf("get seller: %w", err)
	}

	return seller, nil
}

func GetCustomer(ctx context.Context, db *sql.DB, id string) (*models.Customer, error) {
	customer := &models.Customer{}

	query := `
		SELECT customer_id, name, email, phone, address, created_at
		FROM customer
		WHERE customer_id = $1`

	err := db.QueryRowContext(ctx, query, id).Scan(
		&customer.ID,
		&customer.Name,
		&customer.Email,
		&customer.Phone,
		&customer.Address,
		&customer.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}

	return customer, nil
}

func validateAccountFields(name, nameField, email, password string) error {
	if name == "" {
		return &database.ValidationError{Field: nameField, Reason: "must not be empty"}
	}
	if email == "" || !strings.Contains(email, "@") {
		return &database.ValidationError{Field: "email", Reason: "must be a valid address"}
	}
	if len(password) < 8 {
		return &database.ValidationError{Field: "password", Reason: "must be at least 8 characters"}
	}
	return nil
}
