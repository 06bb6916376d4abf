package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/safar/commerce-admin/internal/database"
	"github.com/safar/commerce-admin/internal/models"
	"github.com/safar/commerce-admin/internal/slug"
)

func CreateCategory(ctx context.Context, db *sql.DB, name, description string) (*models.ProductCategory, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: category name is required", database.ErrValidation)
	}

	base := slug.Make(name)

	query := `
		INSERT INTO product_categories (name, slug, description, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, name, slug, description, created_at`

	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		category := &models.ProductCategory{}
		err := db.QueryRowContext(ctx, query, name, slug.Candidate(base, attempt), description).Scan(
			&category.ID,
			&category.Name,
			&category.Slug,
			&category.Description,
			&category.CreatedAt,
		)
		if err == nil {
			return category, nil
		}

		switch database.UniqueConstraint(err) {
		case "product_categories_slug_key":
			continue
		case "product_categories_name_key":
			return nil, database.ErrDuplicateCategory
		}
		return nil, fmt.Errorf("create category: %w", err)
	}

	return nil, fmt.Errorf("create category: no free slug after %d attempts", maxSlugAttempts)
}

func GetCategory(ctx context.Context, db *sql.DB, id int64) (*models.ProductCategory, error) {
	category := &models.ProductCategory{}

	query := `
		SELECT id, name, slug, description, created_at
		FROM product_categories
		WHERE id = $1`

	err := db.QueryRowContext(ctx, query, id).Scan(
		&category.ID,
		&category.Name,
		&category.Slug,
		&category.Description,
		&category.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("get category: %w", err)
	}

	return category, nil
}

func ListCategories(ctx context.Context, db *sql.DB) ([]models.ProductCategory, error) {
	query := `
		SELECT id, name, slug, description, created_at
		FROM product_categories
		ORDER BY name`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []models.ProductCategory
	for rows.Next() {
		var category models.ProductCategory
		err := rows.Scan(
			&category.ID,
			&category.Name,
			&category.Slug,
			&category.Description,
			&category.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return categories, nil
}
