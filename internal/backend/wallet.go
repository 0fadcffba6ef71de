package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/fjod/storefront/internal/domain"
)

func (c *Client) WalletSummary(ctx context.Context) (*domain.WalletSummary, error) {
	var s domain.WalletSummary
	if err := c.do(ctx, http.MethodGet, "/wallet/summary", nil, nil, &s, "wallet"); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) WalletTransactions(ctx context.Context, page, limit int) (*domain.WalletTransactionPage, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var p domain.WalletTransactionPage
	if err := c.do(ctx, http.MethodGet, "/wallet/me/transactions", q, nil, &p, "wallet movements"); err != nil {
		return nil, err
	}
	return &p, nil
}

// Redeem submits a credit code. A rejected code comes back as *APIError,
// possibly with NewBalance set.
func (c *Client) Redeem(ctx context.Context, code string) (*domain.RedeemResult, error) {
	body := struct {
		Code string `json:"code"`
	}{Code: code}

	var r domain.RedeemResult
	if err := c.do(ctx, http.MethodPost, "/wallet/redeem", nil, body, &r, "redemption"); err != nil {
		return nil, err
	}
	return &r, nil
}
