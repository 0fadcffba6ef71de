package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/fjod/storefront/internal/domain"
)

// ItemFilter mirrors the query accepted by /items/filter.
type ItemFilter struct {
	Query    string
	Category string
	MinPrice string
	MaxPrice string
	Sort     string
	Page     int
	Limit    int
}

func (f ItemFilter) values() url.Values {
	q := url.Values{}
	set := func(k, v string) {
		if v != "" {
			q.Set(k, v)
		}
	}
	set("q", f.Query)
	set("category", f.Category)
	set("minPrice", f.MinPrice)
	set("maxPrice", f.MaxPrice)
	set("sort", f.Sort)
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	return q
}

type ItemPage struct {
	Items      []domain.Product `json:"items"`
	Page       domain.Count     `json:"page"`
	TotalPages domain.Count     `json:"totalPages"`
	Total      domain.Count     `json:"total"`
}

func (c *Client) FilterItems(ctx context.Context, f ItemFilter) (*ItemPage, error) {
	var page ItemPage
	if err := c.do(ctx, http.MethodGet, "/items/filter", f.values(), nil, &page, "products"); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) SuggestItems(ctx context.Context, query string) ([]domain.Product, error) {
	var items []domain.Product
	q := url.Values{"q": {query}}
	if err := c.do(ctx, http.MethodGet, "/items/suggest", q, nil, &items, "suggestions"); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	var cats []domain.Category
	if err := c.do(ctx, http.MethodGet, "/category", nil, nil, &cats, "categories"); err != nil {
		return nil, err
	}
	return cats, nil
}

func (c *Client) HeroBanners(ctx context.Context) ([]domain.Banner, error) {
	var banners []domain.Banner
	if err := c.do(ctx, http.MethodGet, "/utils/banner-hero", nil, nil, &banners, "banners"); err != nil {
		return nil, err
	}
	return banners, nil
}

func (c *Client) FeaturedItems(ctx context.Context) ([]domain.Product, error) {
	var items []domain.Product
	if err := c.do(ctx, http.MethodGet, "/utils/featured-items", nil, nil, &items, "featured products"); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) RecentlyAdded(ctx context.Context) ([]domain.Product, error) {
	var items []domain.Product
	if err := c.do(ctx, http.MethodGet, "/utils/recently-added", nil, nil, &items, "new arrivals"); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) PromoBar(ctx context.Context) (*domain.PromoBar, error) {
	var bar domain.PromoBar
	if err := c.do(ctx, http.MethodGet, "/utils/promo-bar", nil, nil, &bar, "promo bar"); err != nil {
		return nil, err
	}
	return &bar, nil
}

// ResolvePage looks up a promotional landing page by slug.
func (c *Client) ResolvePage(ctx context.Context, slug string) (*domain.Page, error) {
	var page domain.Page
	q := url.Values{"slug": {slug}}
	if err := c.do(ctx, http.MethodGet, "/page/resolve", q, nil, &page, "page"); err != nil {
		return nil, err
	}
	return &page, nil
}
