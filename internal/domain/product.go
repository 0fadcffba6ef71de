package domain

import "time"

type Product struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Slug        string           `json:"slug,omitempty"`
	Description string           `json:"description,omitempty"`
	Image       string           `json:"image,omitempty"`
	Images      []string         `json:"images,omitempty"`
	Category    string           `json:"category,omitempty"`
	Variants    []ProductVariant `json:"variants"`
	Promotion   PromotionWindow  `json:"promotion"`
	CreatedAt   Time             `json:"createdAt"`
}

// ProductVariant is a purchasable size/option of a product. The storefront
// only ever reads it.
type ProductVariant struct {
	ID            string `json:"id"`
	SizeLabel     string `json:"sizeLabel"`
	Stock         Count  `json:"stock"`
	OriginalPrice Amount `json:"originalPrice"`
	DiscountPrice Amount `json:"discountPrice"`
}

func (v ProductVariant) InStock() bool {
	return v.Stock > 0
}

// PromotionWindow makes variant discount prices live while active and
// inside [StartDate, EndDate].
type PromotionWindow struct {
	Active     bool      `json:"active"`
	StartDate  time.Time `json:"startDate"`
	EndDate    time.Time `json:"endDate"`
	Percentage Amount    `json:"percentage"`
}

// LiveAt reports whether the promotion applies at now. A window with a
// missing bound is never live.
func (p PromotionWindow) LiveAt(now time.Time) bool {
	if !p.Active || p.StartDate.IsZero() || p.EndDate.IsZero() {
		return false
	}
	return !now.Before(p.StartDate) && !now.After(p.EndDate)
}

// Remaining is the countdown until the promotion ends, zero once over.
func (p PromotionWindow) Remaining(now time.Time) time.Duration {
	if !p.LiveAt(now) {
		return 0
	}
	return p.EndDate.Sub(now)
}

func (p Product) Variant(id string) (ProductVariant, bool) {
	for _, v := range p.Variants {
		if v.ID == id {
			return v, true
		}
	}
	return ProductVariant{}, false
}

type Category struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug,omitempty"`
	ParentID string `json:"parentId,omitempty"`
}

type Banner struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	Image    string `json:"image"`
	Link     string `json:"link,omitempty"`
}

// PromoBar is the announcement strip shown above the header, optionally with
// a countdown to EndsAt.
type PromoBar struct {
	Message string    `json:"message"`
	Link    string    `json:"link,omitempty"`
	Active  bool      `json:"active"`
	EndsAt  time.Time `json:"endsAt"`
}

func (p PromoBar) Remaining(now time.Time) time.Duration {
	if !p.Active || p.EndsAt.IsZero() || !now.Before(p.EndsAt) {
		return 0
	}
	return p.EndsAt.Sub(now)
}

// Page is a promotional landing page resolved by slug.
type Page struct {
	Slug      string          `json:"slug"`
	Title     string          `json:"title"`
	Type      string          `json:"type,omitempty"`
	Banners   []Banner        `json:"banners,omitempty"`
	Products  []Product       `json:"products,omitempty"`
	Promotion PromotionWindow `json:"promotion"`
}
