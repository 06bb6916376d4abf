// Package pricing computes money amounts for a cart of line items using
// exact decimal arithmetic.
package pricing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/safar/commerce-admin/internal/database"
)

// TaxRate is applied once to the order subtotal.
var TaxRate = decimal.RequireFromString("0.13")

// ProductInfo is the snapshot a lookup must supply for each requested
// product.
type ProductInfo struct {
	ID        int64
	Name      string
	UnitPrice decimal.Decimal
}

// Lookup resolves a product id. Implementations return
// database.ErrProductNotFound (possibly wrapped) when the id is unknown.
type Lookup func(ctx context.Context, productID int64) (ProductInfo, error)

type LineInput struct {
	ProductID int64
	Quantity  int
}

type Line struct {
	ProductID   int64
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
	TotalPrice  decimal.Decimal
}

type Totals struct {
	Lines          []Line
	Subtotal       decimal.Decimal
	TaxAmount      decimal.Decimal
	ShippingAmount decimal.Decimal
	DiscountAmount decimal.Decimal
	TotalAmount    decimal.Decimal
}

// Calculate resolves every requested line and computes subtotal, tax and
// total. Any unresolvable product or non-positive quantity fails the whole
// computation; no partial result is returned. Shipping and discount
// default to zero and feed the total additively.
func Calculate(ctx context.Context, lookup Lookup, items []LineInput) (*Totals, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: order must contain at least one item", database.ErrValidation)
	}

	totals := &Totals{
		Subtotal:       decimal.Zero,
		ShippingAmount: decimal.Zero,
		DiscountAmount: decimal.Zero,
	}

	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity for product %d must be positive", database.ErrValidation, item.ProductID)
		}

		product, err := lookup(ctx, item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("product %d: %w", item.ProductID, err)
		}

		lineTotal := product.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		totals.Lines = append(totals.Lines, Line{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    item.Quantity,
			UnitPrice:   product.UnitPrice,
			TotalPrice:  lineTotal,
		})
		totals.Subtotal = totals.Subtotal.Add(lineTotal)
	}

	totals.TaxAmount = totals.Subtotal.Mul(TaxRate)
	totals.TotalAmount = totals.Subtotal.
		Add(totals.TaxAmount).
		Add(totals.ShippingAmount).
		Sub(totals.DiscountAmount)

	return totals, nil
}
