package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/safar/commerce-admin/internal/database"
	"github.com/safar/commerce-admin/internal/models"
	"github.com/safar/commerce-admin/internal/slug"
)

// maxSlugAttempts bounds the suffix retry loop when concurrent creates
// race on the same display name.
const maxSlugAttempts = 50

const productColumns = `id, name, slug, sku, description, price, cost_price, stock_quantity,
		category_id, image_url, is_active, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (*models.Product, error) {
	var p models.Product
	var costPrice decimal.NullDecimal
	var categoryID sql.NullInt64

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Slug,
		&p.SKU,
		&p.Description,
		&p.Price,
		&costPrice,
		&p.StockQuantity,
		&categoryID,
		&p.ImageURL,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if costPrice.Valid {
		p.CostPrice = &costPrice.Decimal
	}
	if categoryID.Valid {
		p.CategoryID = &categoryID.Int64
	}

	return &p, nil
}

type CreateProductInput struct {
	Name        string
	SKU         string
	Description string
	Price       decimal.Decimal
	CostPrice   *decimal.Decimal
	Stock       int
	CategoryID  *int64
	ImageURL    string
}

func CreateProduct(ctx context.Context, db *sql.DB, in CreateProductInput) (*models.Product, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: product name is required", database.ErrValidation)
	}
	if strings.TrimSpace(in.SKU) == "" {
		return nil, fmt.Errorf("%w: product SKU is required", database.ErrValidation)
	}
	if in.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price must not be negative", database.ErrValidation)
	}
	if in.Stock < 0 {
		return nil, fmt.Errorf("%w: stock quantity must not be negative", database.ErrValidation)
	}

	base := slug.Make(in.Name)

	query := `
		INSERT INTO products (name, slug, sku, description, price, cost_price, stock_quantity,
		                      category_id, image_url, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, TRUE, NOW(), NOW())
		RETURNING ` + productColumns

	// Slug uniqueness is the database's job; on a slug conflict retry
	// with the next numbered candidate.
	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		product, err := scanProduct(db.QueryRowContext(ctx, query,
			in.Name, slug.Candidate(base, attempt), in.SKU, in.Description,
			in.Price, in.CostPrice, in.Stock, in.CategoryID, in.ImageURL))
		if err == nil {
			return product, nil
		}

		switch database.UniqueConstraint(err) {
		case "products_slug_key":
			continue
		case "products_sku_key":
			return nil, database.ErrDuplicateSKU
		}
		return nil, fmt.Errorf("create product: %w", err)
	}

	return nil, fmt.Errorf("create product: no free slug after %d attempts", maxSlugAttempts)
}

// GetProduct fetches by id regardless of the active flag, so soft-deleted
// products stay resolvable from historical orders.
func GetProduct(ctx context.Context, db *sql.DB, id int64) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := scanProduct(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return product, nil
}

type ListProductsFilter struct {
	CategoryID *int64
	Search     string
	Page       int
	PageSize   int
}

func ListProducts(ctx context.Context, db *sql.DB, f ListProductsFilter) (*OffsetPage, error) {
	where := []string{"is_active = TRUE"}
	args := []interface{}{}

	if f.CategoryID != nil {
		args = append(args, *f.CategoryID)
		where = append(where, "category_id = $"+strconv.Itoa(len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		where = append(where, "name ILIKE $"+strconv.Itoa(len(args)))
	}
	whereClause := strings.Join(where, " AND ")

	var total int64
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products WHERE `+whereClause, args...).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	args = append(args, f.PageSize, (f.Page-1)*f.PageSize)
	query := `SELECT ` + productColumns + `
		FROM products
		WHERE ` + whereClause + `
		ORDER BY created_at DESC
		LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return newOffsetPage(products, total, f.Page, f.PageSize), nil
}

type UpdateProductInput struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	CostPrice   *decimal.Decimal
	CategoryID  *int64
	ImageURL    *string
	IsActive    *bool
}

// UpdateProduct applies a partial patch. A name change regenerates the
// slug from the new name, which can break links that used the old one.
func UpdateProduct(ctx context.Context, db *sql.DB, id int64, in UpdateProductInput) (*models.Product, error) {
	if in.Price != nil && in.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price must not be negative", database.ErrValidation)
	}

	set := []string{"updated_at = NOW()"}
	args := []interface{}{}
	addSet := func(column string, value interface{}) {
		args = append(args, value)
		set = append(set, column+" = $"+strconv.Itoa(len(args)))
	}

	if in.Description != nil {
		addSet("description", *in.Description)
	}
	if in.Price != nil {
		addSet("price", *in.Price)
	}
	if in.CostPrice != nil {
		addSet("cost_price", *in.CostPrice)
	}
	if in.CategoryID != nil {
		addSet("category_id", *in.CategoryID)
	}
	if in.ImageURL != nil {
		addSet("image_url", *in.ImageURL)
	}
	if in.IsActive != nil {
		addSet("is_active", *in.IsActive)
	}

	var base string
	slugIndex := -1
	if in.Name != nil {
		addSet("name", *in.Name)
		base = slug.Make(*in.Name)
		addSet("slug", base)
		slugIndex = len(args) - 1
	}

	args = append(args, id)
	query := `UPDATE products SET ` + strings.Join(set, ", ") +
		` WHERE id = $` + strconv.Itoa(len(args)) +
		` RETURNING ` + productColumns

	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		if slugIndex >= 0 {
			args[slugIndex] = slug.Candidate(base, attempt)
		}

		product, err := scanProduct(db.QueryRowContext(ctx, query, args...))
		if err == nil {
			return product, nil
		}
		if err == sql.ErrNoRows {
			return nil, database.ErrProductNotFound
		}
		if slugIndex >= 0 && database.UniqueConstraint(err) == "products_slug_key" {
			continue
		}
		return nil, fmt.Errorf("update product: %w", err)
	}

	return nil, fmt.Errorf("update product: no free slug after %d attempts", maxSlugAttempts)
}

// SoftDeleteProduct flips is_active; the row stays for historical orders.
func SoftDeleteProduct(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx,
		`UPDATE products SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrProductNotFound
	}

	return nil
}

// AdjustStock changes stock by delta, refusing to take it negative.
func AdjustStock(ctx context.Context, db *sql.DB, id int64, delta int) (*models.Product, error) {
	query := `
		UPDATE products
		SET stock_quantity = stock_quantity + $1, updated_at = NOW()
		WHERE id = $2 AND stock_quantity + $1 >= 0
		RETURNING ` + productColumns

	product, err := scanProduct(db.QueryRowContext(ctx, query, delta, id))
	if err != nil {
		if err == sql.ErrNoRows {
			if _, getErr := GetProduct(ctx, db, id); getErr != nil {
				return nil, getErr
			}
			return nil, database.ErrInsufficientStock
		}
		return nil, fmt.Errorf("adjust stock: %w", err)
	}

	return product, nil
}
