package http

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fjod/storefront/internal/checkout"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/wallet"
)

type cartMock struct {
	mu      sync.Mutex
	cart    *domain.Cart
	err     error
	added   []domain.CartItem
	session string
}

func (m *cartMock) result(sessionID string) (*domain.Cart, error) {
	m.session = sessionID
	if m.err != nil {
		return nil, m.err
	}
	if m.cart == nil {
		return &domain.Cart{SessionID: sessionID}, nil
	}
	return m.cart, nil
}

func (m *cartMock) Get(_ context.Context, sessionID string) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.result(sessionID)
}

func (m *cartMock) Add(_ context.Context, sessionID string, item domain.CartItem) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.added = append(m.added, item)
	return m.result(sessionID)
}

func (m *cartMock) UpdateQuantity(_ context.Context, sessionID, _ string, _ int) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.result(sessionID)
}

func (m *cartMock) Remove(_ context.Context, sessionID, _ string) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.result(sessionID)
}

func (m *cartMock) Clear(context.Context, string) error {
	return m.err
}

type checkoutMock struct {
	mu      sync.Mutex
	view    *checkout.View
	err     error
	lastKey string
	sel     checkout.Selection
}

func (m *checkoutMock) respond() (*checkout.View, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.view == nil {
		return &checkout.View{}, nil
	}
	return m.view, nil
}

func (m *checkoutMock) Get(context.Context, string) (*checkout.View, error) {
	return m.respond()
}

func (m *checkoutMock) Update(_ context.Context, _ string, sel checkout.Selection) (*checkout.View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sel = sel
	return m.respond()
}

func (m *checkoutMock) Next(context.Context, string) (*checkout.View, error) {
	return m.respond()
}

func (m *checkoutMock) Previous(context.Context, string) (*checkout.View, error) {
	return m.respond()
}

func (m *checkoutMock) ApplyDiscount(context.Context, string, string) (*checkout.View, error) {
	return m.respond()
}

func (m *checkoutMock) Complete(_ context.Context, _ string, key string) (*checkout.View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastKey = key
	return m.respond()
}

func (m *checkoutMock) Retry(context.Context, string) (*checkout.View, error) {
	return m.respond()
}

func (m *checkoutMock) Reset(context.Context, string) error {
	return m.err
}

type walletMock struct {
	out *wallet.RedeemOutcome
	err error
}

func (m *walletMock) Summary(context.Context) (*domain.WalletSummary, error) {
	return &domain.WalletSummary{Balance: domain.MustAmount("20")}, m.err
}

func (m *walletMock) Transactions(_ context.Context, page, _ int) (*domain.WalletTransactionPage, error) {
	return &domain.WalletTransactionPage{Page: domain.Count(page)}, m.err
}

func (m *walletMock) Redeem(context.Context, string) (*wallet.RedeemOutcome, error) {
	return m.out, m.err
}

func newTestRouter(svc Services) *testRouter {
	return &testRouter{handler: NewRouter(svc, RouterConfig{
		RequestTimeout: 5 * time.Second,
		PaymentTimeout: 5 * time.Second,
		MaxBodySize:    1 << 20,
		TaxRate:        decimal.RequireFromString("0.15"),
	}, zap.NewNop())}
}
