package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/safar/go-marketplace/internal/database"
	"github.com/safar/go-marketplace/internal/models"
	"github.com/safar/go-marketplace/internal/store"
	"github.com/shopspring/decimal"
)

func TestCreateProductDerivesStatus(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	seller := newTestSeller(t, db)

	cases := []struct {
		name     string
		stock    int
		minLevel int
		want     string
	}{
		{"Aspirin 100mg", 50, 10, models.ProductStatusAvailable},
		{"Antiseptic Wipes", 10, 10, models.ProductStatusLowStock},
		{"Thermometer", 0, 5, models.ProductStatusOutOfStock},
	}

	for _, tc := range cases {
		product := newTestProduct(t, db, seller.ID, tc.name, decimal.NewFromInt(15), tc.stock, tc.minLevel)
		if product.Status != tc.want {
			t.Errorf("%s: expected status %q, got %q", tc.name, tc.want, product.Status)
		}
	}
}

func TestCreateProductValidation(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	seller := newTestSeller(t, db)

	mfg := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	exp := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)

	base := store.CreateProductRequest{
		SellerID:      seller.ID,
		Name:          "Valid Product",
		Manufacturer:  "Test Labs",
		MfgDate:       mfg,
		ExpDate:       exp,
		UnitPrice:     decimal.NewFromInt(10),
		StockQuantity: 5,
		MinStockLevel: 2,
	}

	cases := []struct {
		name   string
		mutate func(*store.CreateProductRequest)
	}{
		{"empty name", func(r *store.CreateProductRequest) { r.Name = "" }},
		{"zero price", func(r *store.CreateProductRequest) { r.UnitPrice = decimal.Zero }},
		{"negative price", func(r *store.CreateProductRequest) { r.UnitPrice = decimal.NewFromInt(-3) }},
		{"negative stock", func(r *store.CreateProductRequest) { r.StockQuantity = -1 }},
		{"negative min level", func(r *store.CreateProductRequest) { r.MinStockLevel = -1 }},
		{"expiry before manufacture", func(r *store.CreateProductRequest) { r.ExpDate = mfg.AddDate(-1, 0, 0) }},
		{"expiry equals manufacture", func(r *store.CreateProductRequest) { r.ExpDate = mfg }},
		{"missing manufacturer", func(r *store.CreateProductRequest) { r.Manufacturer = "" }},
	}

	for _, tc := range cases {
		req := base
		tc.mutate(&req)
		_, err := store.CreateProduct(ctx, db, req)
		var validationErr *database.ValidationError
		if !errors.As(err, &validationErr) {
			t.Errorf("%s: expected ValidationError, got %v", tc.name, err)
		}
	}
}

func TestCreateProductDuplicateName(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	seller := newTestSeller(t, db)
	newTestProduct(t, db, seller.ID, "Eye Drops", decimal.NewFromInt(9), 10, 2)

	_, err := store.CreateProduct(context.Background(), db, store.CreateProductRequest{
		SellerID:      seller.ID,
		Name:          "eye drops",
		Manufacturer:  "Test Labs",
		MfgDate:       time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		ExpDate:       time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
		UnitPrice:     decimal.NewFromInt(9),
		StockQuantity: 10,
		MinStockLevel: 2,
	})
	if !errors.Is(err, database.ErrDuplicateName) {
		t.Errorf("Expected ErrDuplicateName for case-insensitive duplicate, got: %v", err)
	}

	// A different seller may reuse the name.
	other := newTestSeller(t, db)
	newTestProduct(t, db, other.ID, "Eye Drops", decimal.NewFromInt(9), 10, 2)
}

func TestUpdateProductRecomputesStatus(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	seller := newTestSeller(t, db)
	product := newTestProduct(t, db, seller.ID, "Multivitamins", decimal.NewFromInt(25), 50, 10)

	newStock := 3
	updated, err := store.UpdateProduct(ctx, db, product.ID, seller.ID, store.ProductUpdate{
		StockQuantity: &newStock,
	})
	if err != nil {
		t.Fatalf("Update product: %v", err)
	}
	if updated.Status != models.ProductStatusLowStock {
		t.Errorf("Stock 3 <= min 10: expected %q, got %q", models.ProductStatusLowStock, updated.Status)
	}

	newMin := 2
	updated, err = store.UpdateProduct(ctx, db, product.ID, seller.ID, store.ProductUpdate{
		MinStockLevel: &newMin,
	})
	if err != nil {
		t.Fatalf("Update min level: %v", err)
	}
	if updated.Status != models.ProductStatusAvailable {
		t.Errorf("Stock 3 > min 2: expected %q, got %q", models.ProductStatusAvailable, updated.Status)
	}

	price := decimal.NewFromFloat(27.50)
	name := "Multivitamins Plus"
	updated, err = store.UpdateProduct(ctx, db, product.ID, seller.ID, store.ProductUpdate{
		Name:      &name,
		UnitPrice: &price,
	})
	if err != nil {
		t.Fatalf("Update name/price: %v", err)
	}
	if updated.Name != name {
		t.Errorf("Expected name %q, got %q", name, updated.Name)
	}
	if !updated.UnitPrice.Equal(price) {
		t.Errorf("Expected price %s, got %s", price, updated.UnitPrice)
	}
}

func TestUpdateProductValidation(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	seller := newTestSeller(t, db)
	product := newTestProduct(t, db, seller.ID, "Hand Sanitizer", decimal.NewFromInt(6), 20, 5)

	_, err := store.UpdateProduct(ctx, db, product.ID, seller.ID, store.ProductUpdate{})
	var validationErr *database.ValidationError
	if !errors.As(err, &validationErr) {
		t.Errorf("Empty update: expected ValidationError, got %v", err)
	}

	badPrice := decimal.Zero
	_, err = store.UpdateProduct(ctx, db, product.ID, seller.ID, store.ProductUpdate{UnitPrice: &badPrice})
	if !errors.As(err, &validationErr) {
		t.Errorf("Zero price: expected ValidationError, got %v", err)
	}

	badStock := -5
	_, err = store.UpdateProduct(ctx, db, product.ID, seller.ID, store.ProductUpdate{StockQuantity: &badStock})
	if !errors.As(err, &validationErr) {
		t.Errorf("Negative stock: expected ValidationError, got %v", err)
	}
}

func TestUpdateProductOwnership(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	owner := newTestSeller(t, db)
	intruder := newTestSeller(t, db)
	product := newTestProduct(t, db, owner.ID, "Face Masks", decimal.NewFromInt(1), 200, 20)

	stock := 5
	_, err := store.UpdateProduct(ctx, db, product.ID, intruder.ID, store.ProductUpdate{StockQuantity: &stock})
	var notFoundErr *database.ProductNotFoundError
	if !errors.As(err, &notFoundErr) {
		t.Errorf("Expected ProductNotFoundError for foreign seller, got: %v", err)
	}
}

func TestRestockProduct(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	seller := newTestSeller(t, db)
	product := newTestProduct(t, db, seller.ID, "Allergy Tablets", decimal.NewFromInt(11), 0, 5)

	if product.Status != models.ProductStatusOutOfStock {
		t.Fatalf("Expected initial status %q, got %q", models.ProductStatusOutOfStock, product.Status)
	}

	restocked, err := store.RestockProduct(ctx, db, product.ID, seller.ID, 20)
	if err != nil {
		t.Fatalf("Restock: %v", err)
	}
	if restocked.StockQuantity != 20 {
		t.Errorf("Expected stock 20, got %d", restocked.StockQuantity)
	}
	if restocked.Status != models.ProductStatusAvailable {
		t.Errorf("Expected status %q, got %q", models.ProductStatusAvailable, restocked.Status)
	}

	_, err = store.RestockProduct(ctx, db, product.ID, seller.ID, 0)
	var validationErr *database.ValidationError
	if !errors.As(err, &validationErr) {
		t.Errorf("Zero restock: expected ValidationError, got %v", err)
	}
}

func TestDeleteProduct(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	seller := newTestSeller(t, db)
	product := newTestProduct(t, db, seller.ID, "Cotton Swabs", decimal.NewFromInt(2), 30, 5)

	if err := store.DeleteProduct(ctx, db, product.ID, seller.ID); err != nil {
		t.Fatalf("Delete product: %v", err)
	}

	_, err := store.GetProduct(ctx, db, product.ID)
	var notFoundErr *database.ProductNotFoundError
	if !errors.As(err, &notFoundErr) {
		t.Errorf("Expected ProductNotFoundError after delete, got: %v", err)
	}
}

func TestDeleteProductWithOrderHistory(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	seller := newTestSeller(t, db)
	customer := newTestCustomer(t, db)
	product := newTestProduct(t, db, seller.ID, "Glucose Meter", decimal.NewFromInt(45), 10, 2)

	_, err := store.PlaceOrder(ctx, db, store.CheckoutRequest{
		CustomerID: customer.ID,
		Lines:      []models.CartLine{cartLine(product, 1)},
	})
	if err != nil {
		t.Fatalf("Place order: %v", err)
	}

	err = store.DeleteProduct(ctx, db, product.ID, seller.ID)
	if !errors.Is(err, database.ErrProductInUse) {
		t.Errorf("Expected ErrProductInUse, got: %v", err)
	}
}

func TestListAvailableProducts(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	seller := newTestSeller(t, db)

	newTestProduct(t, db, seller.ID, "Listed A", decimal.NewFromInt(5), 50, 5)
	newTestProduct(t, db, seller.ID, "Listed B", decimal.NewFromInt(5), 6, 5)
	newTestProduct(t, db, seller.ID, "Hidden", decimal.NewFromInt(5), 0, 5)

	page, err := store.ListAvailableProducts(ctx, db, 1, 20)
	if err != nil {
		t.Fatalf("List products: %v", err)
	}

	products, ok := page.Items.([]models.Product)
	if !ok {
		t.Fatalf("Unexpected items type %T", page.Items)
	}
	if len(products) != 2 {
		t.Fatalf("Expected 2 purchasable products, got %d", len(products))
	}
	for _, p := range products {
		if p.Status == models.ProductStatusOutOfStock {
			t.Errorf("Out-of-stock product %s should not be listed", p.ID)
		}
	}

	var validationErr *database.ValidationError
	if _, err := store.ListAvailableProducts(ctx, db, 0, 20); !errors.As(err, &validationErr) {
		t.Errorf("Page 0: expected ValidationError, got %v", err)
	}
	if _, err := store.ListAvailableProducts(ctx, db, 1, 0); !errors.As(err, &validationErr) {
		t.Errorf("Page size 0: expected ValidationError, got %v", err)
	}
}
