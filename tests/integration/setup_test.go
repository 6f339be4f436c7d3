package integration

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/safar/go-marketplace/internal/cart"
	"github.com/safar/go-marketplace/internal/models"
	"github.com/safar/go-marketplace/internal/store"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestDB(t *testing.T) (*sql.DB, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:14-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	postgres, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}

	host, err := postgres.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := postgres.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	dsn := fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port())

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Fatalf("Failed to ping database: %v", err)
	}

	if err := runMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	cleanup := func() {
		if err := db.Close(); err != nil {
			t.Logf("Failed to close database: %v", err)
		}
		if err := postgres.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	}

	return db, cleanup
}

func setupTestCart(t *testing.T) (*cart.Store, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor: wait.ForLog("Ready to accept connections").
			WithStartupTimeout(30 * time.Second),
	}

	redis, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start redis container: %v", err)
	}

	host, err := redis.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := redis.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	cartStore := cart.New(fmt.Sprintf("%s:%s", host, port.Port()), time.Hour)
	if err := cartStore.Ping(ctx); err != nil {
		t.Fatalf("Failed to ping redis: %v", err)
	}

	cleanup := func() {
		if err := cartStore.Close(); err != nil {
			t.Logf("Failed to close cart store: %v", err)
		}
		if err := redis.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	}

	return cartStore, cleanup
}

func runMigrations(db *sql.DB) error {
	migrationDir := "../../migrations"
	files, err := os.ReadDir(migrationDir)
	if err != nil {
		return fmt.Errorf("read migration directory: %w", err)
	}

	var migrationFiles []string
	for _, file := range files {
		if !file.IsDir() && strings.HasSuffix(file.Name(), ".up.sql") {
			migrationFiles = append(migrationFiles, file.Name())
		}
	}

	sort.Strings(migrationFiles)

	for _, filename := range migrationFiles {
		filePath := filepath.Join(migrationDir, filename)
		content, err := os.ReadFile(filePath)
		if err != nil {
			return fmt.Errorf("read migration file %s: %w", filename, err)
		}

		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("execute migration %s: %w", filename, err)
		}
	}

	return nil
}

var testAccountSeq int

func newTestSeller(t *testing.T, db *sql.DB) *models.Seller {
	testAccountSeq++
	seller, err := store.RegisterSeller(context.Background(), db, store.RegisterSellerRequest{
		CompanyName: fmt.Sprintf("Test Seller %d", testAccountSeq),
		Email:       fmt.Sprintf("seller%d@example.com", testAccountSeq),
		Password:    "supersecret",
	})
	if err != nil {
		t.Fatalf("Register seller: %v", err)
	}
	return seller
}

func newTestCustomer(t *testing.T, db *sql.DB) *models.Customer {
	testAccountSeq++
	customer, err := store.RegisterCustomer(context.Background(), db, store.RegisterCustomerRequest{
		Name:     fmt.Sprintf("Test Customer %d", testAccountSeq),
		Email:    fmt.Sprintf("customer%d@example.com", testAccountSeq),
		Password: "supersecret",
	})
	if err != nil {
		t.Fatalf("Register customer: %v", err)
	}
	return customer
}

func newTestProduct(t *testing.T, db *sql.DB, sellerID, name string, price decimal.Decimal, stock, minLevel int) *models.Product {
	product, err := store.CreateProduct(context.Background(), db, store.CreateProductRequest{
		SellerID:      sellerID,
		Name:          name,
		Manufacturer:  "Test Labs",
		MfgDate:       time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		ExpDate:       time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
		UnitPrice:     price,
		StockQuantity: stock,
		MinStockLevel: minLevel,
	})
	if err != nil {
		t.Fatalf("Create product %s: %v", name, err)
	}
	return product
}

func cartLine(p *models.Product, quantity int) models.CartLine {
	return models.CartLine{
		ProductID: p.ID,
		SellerID:  p.SellerID,
		Quantity:  quantity,
		UnitPrice: p.UnitPrice,
	}
}
