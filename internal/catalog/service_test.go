package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fjod/storefront/internal/backend"
	"github.com/fjod/storefront/internal/domain"
)

var fixedNow = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

type mockBackend struct {
	mu          sync.Mutex
	filterCalls int
	lastFilter  backend.ItemFilter
	suggestCall int

	page      *backend.ItemPage
	products  []domain.Product
	banners   []domain.Banner
	promo     *domain.PromoBar
	promoErr  error
	bannerErr error
	landing   *domain.Page
}

func (m *mockBackend) FilterItems(_ context.Context, f backend.ItemFilter) (*backend.ItemPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filterCalls++
	m.lastFilter = f
	return m.page, nil
}

func (m *mockBackend) SuggestItems(context.Context, string) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.suggestCall++
	return m.products, nil
}

func (m *mockBackend) Categories(context.Context) ([]domain.Category, error) {
	return nil, nil
}

func (m *mockBackend) HeroBanners(context.Context) ([]domain.Banner, error) {
	return m.banners, m.bannerErr
}

func (m *mockBackend) FeaturedItems(context.Context) ([]domain.Product, error) {
	return m.products, nil
}

func (m *mockBackend) RecentlyAdded(context.Context) ([]domain.Product, error) {
	return nil, nil
}

func (m *mockBackend) PromoBar(context.Context) (*domain.PromoBar, error) {
	return m.promo, m.promoErr
}

func (m *mockBackend) ResolvePage(_ context.Context, slug string) (*domain.Page, error) {
	if m.landing == nil || m.landing.Slug != slug {
		return nil, &backend.APIError{Status: 404, Message: "Página no encontrada"}
	}
	return m.landing, nil
}

func newTestService(be *mockBackend) *Service {
	s := NewService(be, time.Minute, zap.NewNop())
	s.now = func() time.Time { return fixedNow }
	return s
}

func promoProduct() domain.Product {
	return domain.Product{
		ID:   "p1",
		Name: "Zapatilla",
		Variants: []domain.ProductVariant{
			{ID: "v1", Stock: 0, OriginalPrice: domain.MustAmount("50"), DiscountPrice: domain.MustAmount("40")},
			{ID: "v2", Stock: 3, OriginalPrice: domain.MustAmount("45")},
		},
		Promotion: domain.PromotionWindow{
			Active:    true,
			StartDate: fixedNow.Add(-time.Hour),
			EndDate:   fixedNow.Add(2 * time.Hour),
		},
	}
}

func TestNewCard_PicksCheapestResolvedVariant(t *testing.T) {
	c := NewCard(promoProduct(), fixedNow)

	assert.Equal(t, "v1", c.VariantID)
	assert.Equal(t, "$40.00", c.PriceLabel)
	assert.True(t, c.Price.HasDiscount)
	assert.Equal(t, "20", c.Price.Percentage.String())
	assert.True(t, c.InStock)
	assert.Equal(t, 2*time.Hour, c.PromoEndsIn)
}

func TestNewCard_ExpiredPromotionUsesOriginal(t *testing.T) {
	c := NewCard(promoProduct(), fixedNow.Add(3*time.Hour))

	assert.Equal(t, "v2", c.VariantID)
	assert.Equal(t, "$45.00", c.PriceLabel)
	assert.False(t, c.Price.HasDiscount)
	assert.Zero(t, c.PromoEndsIn)
}

func TestNewCard_NoPriceIsNA(t *testing.T) {
	c := NewCard(domain.Product{ID: "p2", Images: []string{"a.jpg"}}, fixedNow)

	assert.Equal(t, "N/A", c.PriceLabel)
	assert.Empty(t, c.VariantID)
	assert.Equal(t, "a.jpg", c.Image)
	assert.False(t, c.InStock)
}

func TestService_SearchCachesNormalizedQuery(t *testing.T) {
	be := &mockBackend{page: &backend.ItemPage{Items: []domain.Product{promoProduct()}, Page: 1, TotalPages: 1, Total: 1}}
	svc := newTestService(be)

	res, err := svc.Search(context.Background(), backend.ItemFilter{Query: "  Zapatilla "})
	require.NoError(t, err)
	require.Len(t, res.Cards, 1)
	assert.Equal(t, "$40.00", res.Cards[0].PriceLabel)

	_, err = svc.Search(context.Background(), backend.ItemFilter{Query: "zapatilla"})
	require.NoError(t, err)

	assert.Equal(t, 1, be.filterCalls)
	assert.Equal(t, "zapatilla", be.lastFilter.Query)
	assert.Equal(t, 1, be.lastFilter.Page)
	assert.Equal(t, DefaultPageSize, be.lastFilter.Limit)
}

func TestService_SuggestShortQuerySkipsBackend(t *testing.T) {
	be := &mockBackend{}
	svc := newTestService(be)

	cards, err := svc.Suggest(context.Background(), " z ")

	require.NoError(t, err)
	assert.Empty(t, cards)
	assert.Equal(t, 0, be.suggestCall)
}

func TestService_HomeToleratesPromoBarFailure(t *testing.T) {
	be := &mockBackend{
		banners:  []domain.Banner{{ID: "b1", Title: "Verano"}},
		products: []domain.Product{promoProduct()},
		promoErr: errors.New("down"),
	}
	svc := newTestService(be)

	home, err := svc.Home(context.Background())

	require.NoError(t, err)
	assert.Len(t, home.Banners, 1)
	assert.Len(t, home.Featured, 1)
	assert.Empty(t, home.Recent)
	assert.Nil(t, home.PromoBar)
}

func TestService_HomePromoBarRemaining(t *testing.T) {
	be := &mockBackend{promo: &domain.PromoBar{Message: "Envío gratis", Active: true, EndsAt: fixedNow.Add(90 * time.Minute)}}
	svc := newTestService(be)

	home, err := svc.Home(context.Background())

	require.NoError(t, err)
	require.NotNil(t, home.PromoBar)
	assert.Equal(t, 90*time.Minute, home.PromoBar.Remaining)
}

func TestService_HomeFailsOnRequiredSection(t *testing.T) {
	be := &mockBackend{bannerErr: errors.New("down")}
	svc := newTestService(be)

	_, err := svc.Home(context.Background())

	assert.Error(t, err)
}

func TestService_Page(t *testing.T) {
	be := &mockBackend{landing: &domain.Page{Slug: "black-friday", Title: "Black Friday", Products: []domain.Product{promoProduct()}}}
	svc := newTestService(be)

	page, err := svc.Page(context.Background(), "black-friday")
	require.NoError(t, err)
	assert.Equal(t, "Black Friday", page.Title)
	assert.Len(t, page.Cards, 1)

	_, err = svc.Page(context.Background(), "missing")
	apiErr, ok := backend.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, 404, apiErr.Status)

	_, err = svc.Page(context.Background(), "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
