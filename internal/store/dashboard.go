package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/safar/commerce-admin/internal/models"
)

type DashboardStats struct {
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	TotalOrders    int64           `json:"total_orders"`
	TotalCustomers int64           `json:"total_customers"`
	AvgOrderValue  decimal.Decimal `json:"avg_order_value"`
	RevenueTrend   float64         `json:"revenue_trend"`
	OrdersTrend    float64         `json:"orders_trend"`
	CustomersTrend float64         `json:"customers_trend"`
}

type SalesPoint struct {
	Date    string          `json:"date"`
	Revenue decimal.Decimal `json:"revenue"`
	Orders  int64           `json:"orders"`
}

type TopProduct struct {
	ProductID  int64           `json:"id"`
	Name       string          `json:"name"`
	SalesCount int64           `json:"sales_count"`
	Revenue    decimal.Decimal `json:"revenue"`
}

type RecentOrder struct {
	ID           int64           `json:"id"`
	OrderNumber  string          `json:"order_number"`
	CustomerName string          `json:"customer_name"`
	Amount       decimal.Decimal `json:"amount"`
	Status       string          `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
}

type DashboardData struct {
	Stats        *DashboardStats `json:"stats"`
	SalesChart   []SalesPoint    `json:"sales_chart"`
	TopProducts  []TopProduct    `json:"top_products"`
	RecentOrders []RecentOrder   `json:"recent_orders"`
}

// GetDashboardStats aggregates revenue and volume totals. Trends compare
// the trailing 30 days against the 30 days before that, as percentage
// change; a zero previous period reports a zero trend.
func GetDashboardStats(ctx context.Context, db *sql.DB) (*DashboardStats, error) {
	stats := &DashboardStats{}

	err := db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(total_amount), 0), COUNT(*)
		 FROM orders
		 WHERE status NOT IN ($1, $2)`,
		models.OrderStatusCancelled, models.OrderStatusRefunded,
	).Scan(&stats.TotalRevenue, &stats.TotalOrders)
	if err != nil {
		return nil, fmt.Errorf("aggregate orders: %w", err)
	}

	err = db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM customers WHERE is_active = TRUE`).Scan(&stats.TotalCustomers)
	if err != nil {
		return nil, fmt.Errorf("count customers: %w", err)
	}

	if stats.TotalOrders > 0 {
		stats.AvgOrderValue = stats.TotalRevenue.
			Div(decimal.NewFromInt(stats.TotalOrders)).
			Round(2)
	}

	var curRevenue, prevRevenue decimal.Decimal
	var curOrders, prevOrders, curCustomers, prevCustomers int64

	err = db.QueryRowContext(ctx,
		`SELECT
			COALESCE(SUM(total_amount) FILTER (WHERE created_at >= NOW() - INTERVAL '30 days'), 0),
			COALESCE(SUM(total_amount) FILTER (WHERE created_at >= NOW() - INTERVAL '60 days'
			                                    AND created_at < NOW() - INTERVAL '30 days'), 0),
			COUNT(*) FILTER (WHERE created_at >= NOW() - INTERVAL '30 days'),
			COUNT(*) FILTER (WHERE created_at >= NOW() - INTERVAL '60 days'
			                  AND created_at < NOW() - INTERVAL '30 days')
		 FROM orders
		 WHERE status NOT IN ($1, $2)`,
		models.OrderStatusCancelled, models.OrderStatusRefunded,
	).Scan(&curRevenue, &prevRevenue, &curOrders, &prevOrders)
	if err != nil {
		return nil, fmt.Errorf("order trends: %w", err)
	}

	err = db.QueryRowContext(ctx,
		`SELECT
			COUNT(*) FILTER (WHERE created_at >= NOW() - INTERVAL '30 days'),
			COUNT(*) FILTER (WHERE created_at >= NOW() - INTERVAL '60 days'
			                  AND created_at < NOW() - INTERVAL '30 days')
		 FROM customers`,
	).Scan(&curCustomers, &prevCustomers)
	if err != nil {
		return nil, fmt.Errorf("customer trends: %w", err)
	}

	stats.RevenueTrend = trendPercent(curRevenue, prevRevenue)
	stats.OrdersTrend = trendPercentInt(curOrders, prevOrders)
	stats.CustomersTrend = trendPercentInt(curCustomers, prevCustomers)

	return stats, nil
}

func trendPercent(current, previous decimal.Decimal) float64 {
	if previous.IsZero() {
		return 0
	}
	pct, _ := current.Sub(previous).
		Div(previous).
		Mul(decimal.NewFromInt(100)).
		Round(1).
		Float64()
	return pct
}

func trendPercentInt(current, previous int64) float64 {
	if previous == 0 {
		return 0
	}
	return float64(current-previous) / float64(previous) * 100
}

// GetSalesChart returns one point per day over the trailing `days` days,
// including zero-revenue days.
func GetSalesChart(ctx context.Context, db *sql.DB, days int) ([]SalesPoint, error) {
	query := `
		SELECT d::date::text,
		       COALESCE(SUM(o.total_amount), 0),
		       COUNT(o.id)
		FROM generate_series(CURRENT_DATE - ($1 - 1) * INTERVAL '1 day', CURRENT_DATE, INTERVAL '1 day') d
		LEFT JOIN orders o
		       ON o.created_at::date = d::date
		      AND o.status NOT IN ($2, $3)
		GROUP BY d
		ORDER BY d`

	rows, err := db.QueryContext(ctx, query, days,
		models.OrderStatusCancelled, models.OrderStatusRefunded)
	if err != nil {
		return nil, fmt.Errorf("sales chart: %w", err)
	}
	defer rows.Close()

	var points []SalesPoint
	for rows.Next() {
		var p SalesPoint
		if err := rows.Scan(&p.Date, &p.Revenue, &p.Orders); err != nil {
			return nil, fmt.Errorf("scan sales point: %w", err)
		}
		points = append(points, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return points, nil
}

// GetTopProducts ranks products by units sold across committed orders.
func GetTopProducts(ctx context.Context, db *sql.DB, limit int) ([]TopProduct, error) {
	query := `
		SELECT oi.product_id, oi.product_name,
		       SUM(oi.quantity), SUM(oi.total_price)
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.status NOT IN ($1, $2)
		GROUP BY oi.product_id, oi.product_name
		ORDER BY SUM(oi.quantity) DESC
		LIMIT $3`

	rows, err := db.QueryContext(ctx, query,
		models.OrderStatusCancelled, models.OrderStatusRefunded, limit)
	if err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}
	defer rows.Close()

	var products []TopProduct
	for rows.Next() {
		var p TopProduct
		if err := rows.Scan(&p.ProductID, &p.Name, &p.SalesCount, &p.Revenue); err != nil {
			return nil, fmt.Errorf("scan top product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return products, nil
}

func GetRecentOrders(ctx context.Context, db *sql.DB, limit int) ([]RecentOrder, error) {
	query := `
		SELECT o.id, o.order_number, c.first_name || ' ' || c.last_name,
		       o.total_amount, o.status, o.created_at
		FROM orders o
		JOIN customers c ON c.id = o.customer_id
		ORDER BY o.created_at DESC
		LIMIT $1`

	rows, err := db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("recent orders: %w", err)
	}
	defer rows.Close()

	var orders []RecentOrder
	for rows.Next() {
		var o RecentOrder
		err := rows.Scan(&o.ID, &o.OrderNumber, &o.CustomerName, &o.Amount, &o.Status, &o.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan recent order: %w", err)
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return orders, nil
}

func GetDashboard(ctx context.Context, db *sql.DB) (*DashboardData, error) {
	stats, err := GetDashboardStats(ctx, db)
	if err != nil {
		return nil, err
	}

	chart, err := GetSalesChart(ctx, db, 30)
	if err != nil {
		return nil, err
	}

	top, err := GetTopProducts(ctx, db, 5)
	if err != nil {
		return nil, err
	}

	recent, err := GetRecentOrders(ctx, db, 5)
	if err != nil {
		return nil, err
	}

	return &DashboardData{
		Stats:        stats,
		SalesChart:   chart,
		TopProducts:  top,
		RecentOrders: recent,
	}, nil
}
