package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/fjod/storefront/internal/domain"
)

// OrderSummary is derived from the cart on every call and never stored.
type OrderSummary struct {
	ItemCount int             `json:"itemCount"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Shipping  decimal.Decimal `json:"shipping"`
	Tax       decimal.Decimal `json:"tax"`
	Discount  decimal.Decimal `json:"discount"`
	Total     decimal.Decimal `json:"total"`
}

// Summarize computes subtotal, tax and total for the given lines.
// total = subtotal + shipping + tax - discount. Amounts are kept at full
// precision; use Rounded for presentation.
func Summarize(items []domain.CartItem, shipping, taxRate, discount decimal.Decimal) OrderSummary {
	subtotal := decimal.Zero
	count := 0
	for _, it := range items {
		subtotal = subtotal.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
		count += it.Quantity
	}
	tax := subtotal.Mul(taxRate)

	return OrderSummary{
		ItemCount: count,
		Subtotal:  subtotal,
		Shipping:  shipping,
		Tax:       tax,
		Discount:  discount,
		Total:     subtotal.Add(shipping).Add(tax).Sub(discount),
	}
}

// Rounded returns a copy with every amount rounded to cents.
func (s OrderSummary) Rounded() OrderSummary {
	return OrderSummary{
		ItemCount: s.ItemCount,
		Subtotal:  s.Subtotal.Round(2),
		Shipping:  s.Shipping.Round(2),
		Tax:       s.Tax.Round(2),
		Discount:  s.Discount.Round(2),
		Total:     s.Total.Round(2),
	}
}
