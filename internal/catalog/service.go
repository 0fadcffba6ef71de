// Package catalog serves product listings, search and home content from the
// shop backend, priced for display.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fjod/storefront/internal/backend"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/pricing"
)

const (
	DefaultPageSize = 24
	MaxPageSize     = 100
	MinSuggestQuery = 2
)

type Backend interface {
	FilterItems(ctx context.Context, f backend.ItemFilter) (*backend.ItemPage, error)
	SuggestItems(ctx context.Context, query string) ([]domain.Product, error)
	Categories(ctx context.Context) ([]domain.Category, error)
	HeroBanners(ctx context.Context) ([]domain.Banner, error)
	FeaturedItems(ctx context.Context) ([]domain.Product, error)
	RecentlyAdded(ctx context.Context) ([]domain.Product, error)
	PromoBar(ctx context.Context) (*domain.PromoBar, error)
	ResolvePage(ctx context.Context, slug string) (*domain.Page, error)
}

// Card is a product as shown in a grid: its cheapest variant priced at the
// time of the request.
type Card struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Slug        string             `json:"slug,omitempty"`
	Image       string             `json:"image,omitempty"`
	Category    string             `json:"category,omitempty"`
	VariantID   string             `json:"variantId,omitempty"`
	Price       pricing.Resolution `json:"price"`
	PriceLabel  string             `json:"priceLabel"`
	InStock     bool               `json:"inStock"`
	PromoEndsIn time.Duration      `json:"promoEndsIn,omitempty"`
}

type SearchResult struct {
	Cards      []Card `json:"cards"`
	Page       int    `json:"page"`
	TotalPages int    `json:"totalPages"`
	Total      int    `json:"total"`
}

type PromoBar struct {
	domain.PromoBar
	Remaining time.Duration `json:"remaining"`
}

type Home struct {
	Banners  []domain.Banner `json:"banners"`
	Featured []Card          `json:"featured"`
	Recent   []Card          `json:"recent"`
	PromoBar *PromoBar       `json:"promoBar,omitempty"`
}

type LandingPage struct {
	Slug      string          `json:"slug"`
	Title     string          `json:"title"`
	Type      string          `json:"type,omitempty"`
	Banners   []domain.Banner `json:"banners,omitempty"`
	Cards     []Card          `json:"cards"`
	Remaining time.Duration   `json:"remaining"`
}

type Service struct {
	backend Backend
	search  *SearchCache[*backend.ItemPage]
	logger  *zap.Logger
	now     func() time.Time
}

func NewService(be Backend, searchTTL time.Duration, logger *zap.Logger) *Service {
	return &Service{
		backend: be,
		search:  NewSearchCache[*backend.ItemPage](searchTTL),
		logger:  logger,
		now:     time.Now,
	}
}

// Search runs a filtered listing. Results are cached per normalized filter
// but priced on every call so promotion windows are honored.
func (s *Service) Search(ctx context.Context, f backend.ItemFilter) (*SearchResult, error) {
	f.Query = NormalizeQuery(f.Query)
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > MaxPageSize {
		f.Limit = DefaultPageSize
	}

	page, err := s.search.Get(filterKey(f), func() (*backend.ItemPage, error) {
		return s.backend.FilterItems(ctx, f)
	})
	if err != nil {
		return nil, err
	}

	return &SearchResult{
		Cards:      s.cards(page.Items),
		Page:       int(page.Page),
		TotalPages: int(page.TotalPages),
		Total:      int(page.Total),
	}, nil
}

// Suggest returns typeahead cards. Queries shorter than MinSuggestQuery
// return nothing without calling the backend.
func (s *Service) Suggest(ctx context.Context, query string) ([]Card, error) {
	query = NormalizeQuery(query)
	if len([]rune(query)) < MinSuggestQuery {
		return []Card{}, nil
	}
	items, err := s.backend.SuggestItems(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.cards(items), nil
}

func (s *Service) Categories(ctx context.Context) ([]domain.Category, error) {
	cats, err := s.backend.Categories(ctx)
	if err != nil {
		return nil, err
	}
	if cats == nil {
		cats = []domain.Category{}
	}
	return cats, nil
}

// Home loads the landing sections in parallel. The promo bar is optional: a
// failure there is logged and the section left out.
func (s *Service) Home(ctx context.Context) (*Home, error) {
	var (
		home             Home
		featured, recent []domain.Product
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		banners, err := s.backend.HeroBanners(gctx)
		home.Banners = banners
		return err
	})
	g.Go(func() error {
		var err error
		featured, err = s.backend.FeaturedItems(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		recent, err = s.backend.RecentlyAdded(gctx)
		return err
	})
	g.Go(func() error {
		bar, err := s.backend.PromoBar(gctx)
		if err != nil {
			s.logger.Warn("promo bar unavailable", zap.Error(err))
			return nil
		}
		if bar != nil && bar.Active {
			home.PromoBar = &PromoBar{PromoBar: *bar, Remaining: bar.Remaining(s.now())}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if home.Banners == nil {
		home.Banners = []domain.Banner{}
	}
	home.Featured = s.cards(featured)
	home.Recent = s.cards(recent)
	return &home, nil
}

func (s *Service) Page(ctx context.Context, slug string) (*LandingPage, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, domain.NewDomainError(domain.CodeInvalidInput, "page slug is required")
	}
	p, err := s.backend.ResolvePage(ctx, slug)
	if err != nil {
		return nil, err
	}
	return &LandingPage{
		Slug:      p.Slug,
		Title:     p.Title,
		Type:      p.Type,
		Banners:   p.Banners,
		Cards:     s.cards(p.Products),
		Remaining: p.Promotion.Remaining(s.now()),
	}, nil
}

func (s *Service) cards(products []domain.Product) []Card {
	now := s.now()
	out := make([]Card, 0, len(products))
	for _, p := range products {
		out = append(out, NewCard(p, now))
	}
	return out
}

// NewCard prices p at now. A product without any priced variant still gets a
// card, labelled "N/A".
func NewCard(p domain.Product, now time.Time) Card {
	c := Card{
		ID:          p.ID,
		Name:        p.Name,
		Slug:        p.Slug,
		Image:       p.Image,
		Category:    p.Category,
		PriceLabel:  pricing.FormatPrice(domain.Amount{}),
		PromoEndsIn: p.Promotion.Remaining(now),
	}
	if c.Image == "" && len(p.Images) > 0 {
		c.Image = p.Images[0]
	}
	for _, v := range p.Variants {
		if v.InStock() {
			c.InStock = true
			break
		}
	}
	if best, ok := pricing.BestPrice(p, now); ok {
		c.VariantID = best.VariantID
		c.Price = best.Resolution
		c.PriceLabel = pricing.FormatPrice(best.Price())
	}
	return c
}

func filterKey(f backend.ItemFilter) string {
	return fmt.Sprintf("q=%s|c=%s|min=%s|max=%s|s=%s|p=%d|l=%d",
		f.Query, strings.ToLower(f.Category), f.MinPrice, f.MaxPrice, f.Sort, f.Page, f.Limit)
}
