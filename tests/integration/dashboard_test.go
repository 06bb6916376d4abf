package integration

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/safar/commerce-admin/internal/models"
	"github.com/safar/commerce-admin/internal/pricing"
	"github.com/safar/commerce-admin/internal/store"
)

func TestDashboardAggregates(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	customer := createTestCustomer(t, db, "dash@example.com")
	product := createTestProduct(t, db, "Bestseller", "DB-P1", "100.00")

	order, err := store.CreateOrder(ctx, db, store.CreateOrderRequest{
		CustomerID: customer.ID,
		Items:      []pricing.LineInput{{ProductID: product.ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("Create order: %v", err)
	}

	cancelled, err := store.CreateOrder(ctx, db, store.CreateOrderRequest{
		CustomerID: customer.ID,
		Items:      []pricing.LineInput{{ProductID: product.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("Create second order: %v", err)
	}
	status := models.OrderStatusCancelled
	if _, err := store.UpdateOrder(ctx, db, cancelled.ID, store.UpdateOrderInput{Status: &status}); err != nil {
		t.Fatalf("Cancel order: %v", err)
	}

	stats, err := store.GetDashboardStats(ctx, db)
	if err != nil {
		t.Fatalf("Get dashboard stats: %v", err)
	}

	// Cancelled orders stay out of revenue: 200 + 13% tax.
	if !stats.TotalRevenue.Equal(decimal.RequireFromString("226.00")) {
		t.Errorf("Expected revenue 226.00, got %s", stats.TotalRevenue)
	}
	if stats.TotalOrders != 1 {
		t.Errorf("Expected 1 counted order, got %d", stats.TotalOrders)
	}
	if stats.TotalCustomers != 1 {
		t.Errorf("Expected 1 customer, got %d", stats.TotalCustomers)
	}

	top, err := store.GetTopProducts(ctx, db, 5)
	if err != nil {
		t.Fatalf("Get top products: %v", err)
	}
	if len(top) != 1 || top[0].SalesCount != 2 {
		t.Errorf("Expected Bestseller with 2 units, got %+v", top)
	}

	recent, err := store.GetRecentOrders(ctx, db, 5)
	if err != nil {
		t.Fatalf("Get recent orders: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("Expected 2 recent orders, got %d", len(recent))
	}
	if recent[0].CustomerName != "Test Customer" {
		t.Errorf("Expected joined customer name, got %q", recent[0].CustomerName)
	}

	chart, err := store.GetSalesChart(ctx, db, 7)
	if err != nil {
		t.Fatalf("Get sales chart: %v", err)
	}
	if len(chart) != 7 {
		t.Fatalf("Expected 7 daily points, got %d", len(chart))
	}
	today := chart[len(chart)-1]
	if today.Orders != 1 {
		t.Errorf("Expected 1 committed order today, got %d", today.Orders)
	}
	if !today.Revenue.Equal(order.TotalAmount) {
		t.Errorf("Expected today's revenue %s, got %s", order.TotalAmount, today.Revenue)
	}
}
