package pricing

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/safar/commerce-admin/internal/database"
)

func catalogLookup(products map[int64]ProductInfo) Lookup {
	return func(_ context.Context, id int64) (ProductInfo, error) {
		p, ok := products[id]
		if !ok {
			return ProductInfo{}, database.ErrProductNotFound
		}
		return p, nil
	}
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCalculateTotals(t *testing.T) {
	lookup := catalogLookup(map[int64]ProductInfo{
		1: {ID: 1, Name: "Red Shoe", UnitPrice: price("25.00")},
		2: {ID: 2, Name: "Blue Hat", UnitPrice: price("50.00")},
	})

	totals, err := Calculate(context.Background(), lookup, []LineInput{
		{ProductID: 1, Quantity: 2},
		{ProductID: 2, Quantity: 1},
	})
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	if !totals.Subtotal.Equal(price("100.00")) {
		t.Errorf("expected subtotal 100.00, got %s", totals.Subtotal)
	}
	if !totals.TaxAmount.Equal(price("13.00")) {
		t.Errorf("expected tax 13.00, got %s", totals.TaxAmount)
	}
	if !totals.TotalAmount.Equal(price("113.00")) {
		t.Errorf("expected total 113.00, got %s", totals.TotalAmount)
	}

	if len(totals.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(totals.Lines))
	}
	if totals.Lines[0].ProductName != "Red Shoe" {
		t.Errorf("expected snapshotted product name, got %q", totals.Lines[0].ProductName)
	}
	if !totals.Lines[0].TotalPrice.Equal(price("50.00")) {
		t.Errorf("expected line total 50.00, got %s", totals.Lines[0].TotalPrice)
	}
}

func TestCalculateTaxIsExactToTheCent(t *testing.T) {
	subtotals := []string{"0.01", "0.99", "1.00", "33.33", "100.00", "9999.99", "123456.78"}

	for _, s := range subtotals {
		lookup := catalogLookup(map[int64]ProductInfo{
			1: {ID: 1, Name: "Item", UnitPrice: price(s)},
		})

		totals, err := Calculate(context.Background(), lookup, []LineInput{{ProductID: 1, Quantity: 1}})
		if err != nil {
			t.Fatalf("Calculate(%s): %v", s, err)
		}

		subtotal := price(s)
		wantTax := subtotal.Mul(TaxRate)
		wantTotal := subtotal.Add(wantTax)

		if !totals.TaxAmount.Equal(wantTax) {
			t.Errorf("subtotal %s: expected tax %s, got %s", s, wantTax, totals.TaxAmount)
		}
		if !totals.TotalAmount.Equal(wantTotal) {
			t.Errorf("subtotal %s: expected total %s, got %s", s, wantTotal, totals.TotalAmount)
		}
	}
}

func TestCalculateTaxOnSubtotalNotPerLine(t *testing.T) {
	// 3 lines of 0.01: per-line tax would round each 0.0013 away; on the
	// subtotal the tax is exactly 0.0039.
	lookup := catalogLookup(map[int64]ProductInfo{
		1: {ID: 1, Name: "Penny", UnitPrice: price("0.01")},
	})

	totals, err := Calculate(context.Background(), lookup, []LineInput{{ProductID: 1, Quantity: 3}})
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	if want := price("0.03").Mul(TaxRate); !totals.TaxAmount.Equal(want) {
		t.Errorf("expected tax %s, got %s", want, totals.TaxAmount)
	}
}

func TestCalculateRejectsMissingProduct(t *testing.T) {
	lookup := catalogLookup(map[int64]ProductInfo{
		1: {ID: 1, Name: "Exists", UnitPrice: price("10.00")},
	})

	_, err := Calculate(context.Background(), lookup, []LineInput{
		{ProductID: 1, Quantity: 1},
		{ProductID: 99, Quantity: 1},
	})
	if !errors.Is(err, database.ErrProductNotFound) {
		t.Fatalf("expected product not found, got %v", err)
	}
	if !strings.Contains(err.Error(), "99") {
		t.Errorf("error should identify the offending product id: %v", err)
	}
}

func TestCalculateRejectsNonPositiveQuantity(t *testing.T) {
	lookup := catalogLookup(map[int64]ProductInfo{
		1: {ID: 1, Name: "Item", UnitPrice: price("10.00")},
	})

	for _, qty := range []int{0, -1} {
		_, err := Calculate(context.Background(), lookup, []LineInput{{ProductID: 1, Quantity: qty}})
		if !errors.Is(err, database.ErrValidation) {
			t.Errorf("quantity %d: expected validation error, got %v", qty, err)
		}
	}
}

func TestCalculateRejectsEmptyOrder(t *testing.T) {
	lookup := catalogLookup(nil)

	_, err := Calculate(context.Background(), lookup, nil)
	if !errors.Is(err, database.ErrValidation) {
		t.Fatalf("expected validation error for empty order, got %v", err)
	}
}
