package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/safar/commerce-admin/internal/database"
	"github.com/safar/commerce-admin/internal/models"
	"github.com/safar/commerce-admin/internal/pricing"
)

// orderNumberAttempts bounds regeneration when a random order number
// collides with an existing one.
const orderNumberAttempts = 5

const orderColumns = `id, order_number, customer_id, status, subtotal, tax_amount,
		shipping_amount, discount_amount, total_amount, shipping_address, notes,
		created_at, updated_at`

func scanOrder(row rowScanner) (*models.Order, error) {
	var o models.Order
	err := row.Scan(
		&o.ID,
		&o.OrderNumber,
		&o.CustomerID,
		&o.Status,
		&o.Subtotal,
		&o.TaxAmount,
		&o.ShippingAmount,
		&o.DiscountAmount,
		&o.TotalAmount,
		&o.ShippingAddress,
		&o.Notes,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func generateOrderNumber() string {
	id := uuid.New()
	return fmt.Sprintf("ORD-%X", id[:4])
}

type CreateOrderRequest struct {
	CustomerID      int64
	ShippingAddress string
	Notes           string
	Items           []pricing.LineInput
}

// CreateOrder resolves every line item, computes totals and persists the
// order with its item snapshots in one transaction. Any missing product
// or invalid quantity aborts the whole operation with nothing committed.
// Order-number collisions restart the transaction with a fresh token.
func CreateOrder(ctx context.Context, db *sql.DB, req CreateOrderRequest) (*models.Order, error) {
	var lastErr error

	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		order, err := createOrderOnce(ctx, db, req)
		if err == nil {
			return order, nil
		}
		if database.UniqueConstraint(err) == "orders_order_number_key" {
			lastErr = err
			continue
		}
		return nil, err
	}

	return nil, fmt.Errorf("create order: order number collided %d times: %w", orderNumberAttempts, lastErr)
}

func createOrderOnce(ctx context.Context, db *sql.DB, req CreateOrderRequest) (*models.Order, error) {
	var order *models.Order

	err := database.WithRetry(ctx, db, database.TxOptions{
		IsolationLevel: sql.LevelSerializable,
		MaxRetries:     3,
	}, func(tx *sql.Tx) error {
		var exists bool
		err := tx.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM customers WHERE id = $1)",
			req.CustomerID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check customer exists: %w", err)
		}
		if !exists {
			return database.ErrCustomerNotFound
		}

		totals, err := pricing.Calculate(ctx, func(ctx context.Context, productID int64) (pricing.ProductInfo, error) {
			var info pricing.ProductInfo
			err := tx.QueryRowContext(ctx,
				`SELECT id, name, price FROM products WHERE id = $1`,
				productID).Scan(&info.ID, &info.Name, &info.UnitPrice)
			if err == sql.ErrNoRows {
				return info, database.ErrProductNotFound
			}
			return info, err
		}, req.Items)
		if err != nil {
			return err
		}

		created := &models.Order{}
		err = tx.QueryRowContext(ctx,
			`INSERT INTO orders (order_number, customer_id, status, subtotal, tax_amount,
			                     shipping_amount, discount_amount, total_amount,
			                     shipping_address, notes, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
			 RETURNING `+orderColumns,
			generateOrderNumber(), req.CustomerID, models.OrderStatusPending,
			totals.Subtotal, totals.TaxAmount, totals.ShippingAmount,
			totals.DiscountAmount, totals.TotalAmount,
			req.ShippingAddress, req.Notes,
		).Scan(
			&created.ID,
			&created.OrderNumber,
			&created.CustomerID,
			&created.Status,
			&created.Subtotal,
			&created.TaxAmount,
			&created.ShippingAmount,
			&created.DiscountAmount,
			&created.TotalAmount,
			&created.ShippingAddress,
			&created.Notes,
			&created.CreatedAt,
			&created.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		for _, line := range totals.Lines {
			item := models.OrderItem{
				OrderID:     created.ID,
				ProductID:   line.ProductID,
				ProductName: line.ProductName,
				Quantity:    line.Quantity,
				UnitPrice:   line.UnitPrice,
				TotalPrice:  line.TotalPrice,
			}
			err = tx.QueryRowContext(ctx,
				`INSERT INTO order_items (order_id, product_id, product_name, quantity, unit_price, total_price)
				 VALUES ($1, $2, $3, $4, $5, $6)
				 RETURNING id`,
				item.OrderID, item.ProductID, item.ProductName,
				item.Quantity, item.UnitPrice, item.TotalPrice,
			).Scan(&item.ID)
			if err != nil {
				return fmt.Errorf("create order item: %w", err)
			}
			created.Items = append(created.Items, item)
		}

		order = created
		return nil
	})

	if err != nil {
		return nil, err
	}

	return order, nil
}

func GetOrder(ctx context.Context, db *sql.DB, id int64) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	items, err := getOrderItems(ctx, db, id)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return order, nil
}

func getOrderItems(ctx context.Context, db *sql.DB, orderID int64) ([]models.OrderItem, error) {
	query := `
		SELECT id, order_id, product_id, product_name, quantity, unit_price, total_price
		FROM order_items
		WHERE order_id = $1
		ORDER BY id`

	rows, err := db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var item models.OrderItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.ProductName,
			&item.Quantity,
			&item.UnitPrice,
			&item.TotalPrice,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return items, nil
}

type ListOrdersFilter struct {
	Status   string
	Page     int
	PageSize int
}

func ListOrders(ctx context.Context, db *sql.DB, f ListOrdersFilter) (*OffsetPage, error) {
	if f.Status != "" && !models.ValidOrderStatus(f.Status) {
		return nil, fmt.Errorf("%w: unknown order status %q", database.ErrValidation, f.Status)
	}

	where := "TRUE"
	args := []interface{}{}
	if f.Status != "" {
		args = append(args, f.Status)
		where = "status = $1"
	}

	var total int64
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders WHERE `+where, args...).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}

	args = append(args, f.PageSize, (f.Page-1)*f.PageSize)
	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE ` + where + `
		ORDER BY created_at DESC
		LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return newOffsetPage(orders, total, f.Page, f.PageSize), nil
}

// ListCustomerOrders pages through one customer's order history, newest
// first, with an opaque cursor.
func ListCustomerOrders(ctx context.Context, db *sql.DB, customerID int64, cursor string, limit int) (*CursorPage, error) {
	cursorData, err := DecodeCursor(cursor)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed cursor", database.ErrValidation)
	}

	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE customer_id = $1
		  AND (created_at, id) < ($2, $3)
		ORDER BY created_at DESC, id DESC
		LIMIT $4`

	rows, err := db.QueryContext(ctx, query, customerID, cursorData.CreatedAt, cursorData.ID, limit+1)
	if err != nil {
		return nil, fmt.Errorf("list customer orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	hasMore := len(orders) > limit
	if hasMore {
		orders = orders[:limit]
	}

	var nextCursor string
	if hasMore && len(orders) > 0 {
		last := orders[len(orders)-1]
		nextCursor = EncodeCursor(OrderCursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}

	return &CursorPage{
		Items:      orders,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

type UpdateOrderInput struct {
	Status          *string
	ShippingAddress *string
	Notes           *string
}

// UpdateOrder applies a partial patch. Orders are never deleted; state
// changes go through the status field.
func UpdateOrder(ctx context.Context, db *sql.DB, id int64, in UpdateOrderInput) (*models.Order, error) {
	if in.Status != nil && !models.ValidOrderStatus(*in.Status) {
		return nil, fmt.Errorf("%w: unknown order status %q", database.ErrValidation, *in.Status)
	}

	set := []string{"updated_at = NOW()"}
	args := []interface{}{}
	addSet := func(column string, value interface{}) {
		args = append(args, value)
		set = append(set, column+" = $"+strconv.Itoa(len(args)))
	}

	if in.Status != nil {
		addSet("status", *in.Status)
	}
	if in.ShippingAddress != nil {
		addSet("shipping_address", *in.ShippingAddress)
	}
	if in.Notes != nil {
		addSet("notes", *in.Notes)
	}

	args = append(args, id)
	query := `UPDATE orders SET ` + strings.Join(set, ", ") +
		` WHERE id = $` + strconv.Itoa(len(args)) +
		` RETURNING ` + orderColumns

	order, err := scanOrder(db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("update order: %w", err)
	}

	items, err := getOrderItems(ctx, db, id)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return order, nil
}
