package backend

import (
	"context"
	"net/http"

	"github.com/fjod/storefront/internal/domain"
)

func (c *Client) Profile(ctx context.Context) (*domain.Profile, error) {
	var p domain.Profile
	if err := c.do(ctx, http.MethodGet, "/user/my-profile", nil, nil, &p, "profile"); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) ShippingAddresses(ctx context.Context) ([]domain.Address, error) {
	var addrs []domain.Address
	if err := c.do(ctx, http.MethodGet, "/config/shipping-addresses", nil, nil, &addrs, "addresses"); err != nil {
		return nil, err
	}
	return addrs, nil
}

// ReplaceShippingAddresses stores the full address list, default flag
// included, and returns what the backend kept.
func (c *Client) ReplaceShippingAddresses(ctx context.Context, addrs []domain.Address) ([]domain.Address, error) {
	body := struct {
		Addresses []domain.Address `json:"addresses"`
	}{Addresses: addrs}

	var out []domain.Address
	if err := c.do(ctx, http.MethodPut, "/config/shipping-addresses", nil, body, &out, "addresses"); err != nil {
		return nil, err
	}
	return out, nil
}
