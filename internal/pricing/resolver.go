// Package pricing resolves the price a shopper sees for a variant and builds
// order summaries from cart lines.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fjod/storefront/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Resolution is the outcome of pricing a single variant at a point in time.
type Resolution struct {
	Original    domain.Amount   `json:"original"`
	Discount    domain.Amount   `json:"discount"`
	Display     domain.Amount   `json:"display"`
	HasDiscount bool            `json:"hasDiscount"`
	Percentage  decimal.Decimal `json:"percentage"`
}

// ResolveVariant applies the product promotion to a variant. The discount
// price is only shown while the promotion is live and the discount is a
// real reduction of the original price; otherwise the original is shown.
func ResolveVariant(v domain.ProductVariant, promo domain.PromotionWindow, now time.Time) Resolution {
	res := Resolution{
		Original:   v.OriginalPrice,
		Display:    v.OriginalPrice,
		Percentage: decimal.Zero,
	}
	if !discountApplies(v, promo, now) {
		return res
	}

	res.Discount = v.DiscountPrice
	res.Display = v.DiscountPrice
	res.HasDiscount = true
	res.Percentage = percentage(v, promo)
	return res
}

func discountApplies(v domain.ProductVariant, promo domain.PromotionWindow, now time.Time) bool {
	if !promo.LiveAt(now) {
		return false
	}
	if !v.DiscountPrice.Positive() || !v.OriginalPrice.Valid {
		return false
	}
	return v.DiscountPrice.Value.LessThan(v.OriginalPrice.Value)
}

// percentage prefers the promotion's own figure and falls back to the
// reduction implied by the two prices.
func percentage(v domain.ProductVariant, promo domain.PromotionWindow) decimal.Decimal {
	if promo.Percentage.Positive() {
		return promo.Percentage.Value
	}
	if !v.OriginalPrice.Positive() {
		return decimal.Zero
	}
	off := v.OriginalPrice.Value.Sub(v.DiscountPrice.Value)
	return off.Div(v.OriginalPrice.Value).Mul(hundred).Round(0)
}

// Best is the cheapest variant of a product.
type Best struct {
	VariantID  string     `json:"variantId"`
	Resolution Resolution `json:"resolution"`
}

// Price returns the display price, absent when no variant had one.
func (b Best) Price() domain.Amount {
	return b.Resolution.Display
}

// BestPrice returns the minimum display price across the product's variants.
// Variants without a usable display price are skipped and the first variant
// wins a tie. The second result is false when no variant could be priced.
func BestPrice(p domain.Product, now time.Time) (Best, bool) {
	var (
		best  Best
		found bool
	)
	for _, v := range p.Variants {
		res := ResolveVariant(v, p.Promotion, now)
		if !res.Display.Valid {
			continue
		}
		if !found || res.Display.Value.LessThan(best.Resolution.Display.Value) {
			best = Best{VariantID: v.ID, Resolution: res}
			found = true
		}
	}
	return best, found
}

// FormatPrice renders an amount in dollars with two decimals, or "N/A".
func FormatPrice(a domain.Amount) string {
	if !a.Valid {
		return "N/A"
	}
	return "$" + a.Value.StringFixed(2)
}
