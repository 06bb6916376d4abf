package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/safar/commerce-admin/internal/database"
	"github.com/safar/commerce-admin/internal/models"
)

const customerColumns = `id, email, first_name, last_name, phone, address, city, country,
		is_active, created_at, updated_at`

func scanCustomer(row rowScanner) (*models.Customer, error) {
	var c models.Customer
	err := row.Scan(
		&c.ID,
		&c.Email,
		&c.FirstName,
		&c.LastName,
		&c.Phone,
		&c.Address,
		&c.City,
		&c.Country,
		&c.IsActive,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

type CreateCustomerInput struct {
	Email     string
	FirstName string
	LastName  string
	Phone     string
	Address   string
	City      string
	Country   string
}

func CreateCustomer(ctx context.Context, db *sql.DB, in CreateCustomerInput) (*models.Customer, error) {
	if strings.TrimSpace(in.Email) == "" || !strings.Contains(in.Email, "@") {
		return nil, fmt.Errorf("%w: a valid email is required", database.ErrValidation)
	}
	if strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.LastName) == "" {
		return nil, fmt.Errorf("%w: first and last name are required", database.ErrValidation)
	}

	query := `
		INSERT INTO customers (email, first_name, last_name, phone, address, city, country,
		                       is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, NOW(), NOW())
		RETURNING ` + customerColumns

	customer, err := scanCustomer(db.QueryRowContext(ctx, query,
		in.Email, in.FirstName, in.LastName, in.Phone, in.Address, in.City, in.Country))
	if err != nil {
		if database.UniqueConstraint(err) == "customers_email_key" {
			return nil, database.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("create customer: %w", err)
	}

	return customer, nil
}

// GetCustomer fetches by id regardless of the active flag.
func GetCustomer(ctx context.Context, db *sql.DB, id int64) (*models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`

	customer, err := scanCustomer(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}

	return customer, nil
}

type ListCustomersFilter struct {
	Search   string
	Page     int
	PageSize int
}

func ListCustomers(ctx context.Context, db *sql.DB, f ListCustomersFilter) (*OffsetPage, error) {
	where := []string{"is_active = TRUE"}
	args := []interface{}{}

	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		n := strconv.Itoa(len(args))
		where = append(where, "(email ILIKE $"+n+" OR first_name ILIKE $"+n+" OR last_name ILIKE $"+n+")")
	}
	whereClause := strings.Join(where, " AND ")

	var total int64
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM customers WHERE `+whereClause, args...).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count customers: %w", err)
	}

	args = append(args, f.PageSize, (f.Page-1)*f.PageSize)
	query := `SELECT ` + customerColumns + `
		FROM customers
		WHERE ` + whereClause + `
		ORDER BY created_at DESC
		LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var customers []models.Customer
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, *customer)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return newOffsetPage(customers, total, f.Page, f.PageSize), nil
}

type UpdateCustomerInput struct {
	Email     *string
	FirstName *string
	LastName  *string
	Phone     *string
	Address   *string
	City      *string
	Country   *string
	IsActive  *bool
}

func UpdateCustomer(ctx context.Context, db *sql.DB, id int64, in UpdateCustomerInput) (*models.Customer, error) {
	if in.Email != nil && (strings.TrimSpace(*in.Email) == "" || !strings.Contains(*in.Email, "@")) {
		return nil, fmt.Errorf("%w: a valid email is required", database.ErrValidation)
	}

	set := []string{"updated_at = NOW()"}
	args := []interface{}{}
	addSet := func(column string, value interface{}) {
		args = append(args, value)
		set = append(set, column+" = $"+strconv.Itoa(len(args)))
	}

	if in.Email != nil {
		addSet("email", *in.Email)
	}
	if in.FirstName != nil {
		addSet("first_name", *in.FirstName)
	}
	if in.LastName != nil {
		addSet("last_name", *in.LastName)
	}
	if in.Phone != nil {
		addSet("phone", *in.Phone)
	}
	if in.Address != nil {
		addSet("address", *in.Address)
	}
	if in.City != nil {
		addSet("city", *in.City)
	}
	if in.Country != nil {
		addSet("country", *in.Country)
	}
	if in.IsActive != nil {
		addSet("is_active", *in.IsActive)
	}

	args = append(args, id)
	query := `UPDATE customers SET ` + strings.Join(set, ", ") +
		` WHERE id = $` + strconv.Itoa(len(args)) +
		` RETURNING ` + customerColumns

	customer, err := scanCustomer(db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrCustomerNotFound
		}
		if database.UniqueConstraint(err) == "customers_email_key" {
			return nil, database.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("update customer: %w", err)
	}

	return customer, nil
}

// SoftDeleteCustomer flips is_active; historical orders keep referencing
// the row.
func SoftDeleteCustomer(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx,
		`UPDATE customers SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrCustomerNotFound
	}

	return nil
}
