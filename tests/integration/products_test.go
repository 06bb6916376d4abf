package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/safar/commerce-admin/internal/database"
	"github.com/safar/commerce-admin/internal/store"
)

func TestSlugUniqueness(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	first, err := store.CreateProduct(ctx, db, store.CreateProductInput{
		Name: "Red Shoe", SKU: "SHOE-001", Price: decimal.RequireFromString("25.00"),
	})
	if err != nil {
		t.Fatalf("Create first product: %v", err)
	}
	if first.Slug != "red-shoe" {
		t.Errorf("Expected slug red-shoe, got %q", first.Slug)
	}

	second, err := store.CreateProduct(ctx, db, store.CreateProductInput{
		Name: "Red Shoe", SKU: "SHOE-002", Price: decimal.RequireFromString("30.00"),
	})
	if err != nil {
		t.Fatalf("Create second product: %v", err)
	}
	if second.Slug != "red-shoe-1" {
		t.Errorf("Expected slug red-shoe-1, got %q", second.Slug)
	}
}

func TestDuplicateSKURejected(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	_, err := store.CreateProduct(ctx, db, store.CreateProductInput{
		Name: "Widget", SKU: "W-001", Price: decimal.NewFromInt(10),
	})
	if err != nil {
		t.Fatalf("Create product: %v", err)
	}

	_, err = store.CreateProduct(ctx, db, store.CreateProductInput{
		Name: "Other Widget", SKU: "W-001", Price: decimal.NewFromInt(12),
	})
	if !errors.Is(err, database.ErrDuplicateSKU) {
		t.Errorf("Expected duplicate SKU error, got: %v", err)
	}
}

func TestSoftDeleteProduct(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	product, err := store.CreateProduct(ctx, db, store.CreateProductInput{
		Name: "Vanishing Act", SKU: "V-001", Price: decimal.NewFromInt(5),
	})
	if err != nil {
		t.Fatalf("Create product: %v", err)
	}

	if err := store.SoftDeleteProduct(ctx, db, product.ID); err != nil {
		t.Fatalf("Delete product: %v", err)
	}

	// Gone from the default listing.
	page, err := store.ListProducts(ctx, db, store.ListProductsFilter{Page: 1, PageSize: 20})
	if err != nil {
		t.Fatalf("List products: %v", err)
	}
	if page.Total != 0 {
		t.Errorf("Expected 0 active products, got %d", page.Total)
	}

	// Still fetchable directly.
	fetched, err := store.GetProduct(ctx, db, product.ID)
	if err != nil {
		t.Fatalf("Get deleted product: %v", err)
	}
	if fetched.IsActive {
		t.Error("Deleted product should be inactive")
	}
}

func TestUpdateProductNameRegeneratesSlug(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	product, err := store.CreateProduct(ctx, db, store.CreateProductInput{
		Name: "Old Name", SKU: "U-001", Price: decimal.NewFromInt(10),
	})
	if err != nil {
		t.Fatalf("Create product: %v", err)
	}
	if product.Slug != "old-name" {
		t.Fatalf("Expected slug old-name, got %q", product.Slug)
	}

	newName := "Brand New Name"
	updated, err := store.UpdateProduct(ctx, db, product.ID, store.UpdateProductInput{Name: &newName})
	if err != nil {
		t.Fatalf("Update product: %v", err)
	}
	if updated.Slug != "brand-new-name" {
		t.Errorf("Expected regenerated slug brand-new-name, got %q", updated.Slug)
	}
}

func TestAdjustStock(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	product, err := store.CreateProduct(ctx, db, store.CreateProductInput{
		Name: "Stocked", SKU: "S-001", Price: decimal.NewFromInt(10), Stock: 5,
	})
	if err != nil {
		t.Fatalf("Create product: %v", err)
	}

	updated, err := store.AdjustStock(ctx, db, product.ID, -3)
	if err != nil {
		t.Fatalf("Adjust stock: %v", err)
	}
	if updated.StockQuantity != 2 {
		t.Errorf("Expected stock 2, got %d", updated.StockQuantity)
	}

	_, err = store.AdjustStock(ctx, db, product.ID, -3)
	if !errors.Is(err, database.ErrInsufficientStock) {
		t.Errorf("Expected insufficient stock error, got: %v", err)
	}
}

func TestCategorySlugUniqueness(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	first, err := store.CreateCategory(ctx, db, "Shoes & Boots", "")
	if err != nil {
		t.Fatalf("Create category: %v", err)
	}
	if first.Slug != "shoes-boots" {
		t.Errorf("Expected slug shoes-boots, got %q", first.Slug)
	}

	_, err = store.CreateCategory(ctx, db, "Shoes & Boots", "")
	if !errors.Is(err, database.ErrDuplicateCategory) {
		t.Errorf("Expected duplicate category error, got: %v", err)
	}
}
