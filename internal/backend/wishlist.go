package backend

import (
	"context"
	"net/http"

	"github.com/fjod/storefront/internal/domain"
)

func (c *Client) Wishlist(ctx context.Context) ([]domain.Product, error) {
	var items []domain.Product
	if err := c.do(ctx, http.MethodGet, "/wishlist", nil, nil, &items, "wishlist"); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) AddToWishlist(ctx context.Context, productID string) error {
	body := struct {
		ProductID string `json:"productId"`
	}{ProductID: productID}
	return c.do(ctx, http.MethodPost, "/wishlist", nil, body, nil, "wishlist")
}

func (c *Client) RemoveFromWishlist(ctx context.Context, productID string) error {
	return c.do(ctx, http.MethodDelete, "/wishlist/"+pathEscape(productID), nil, nil, nil, "wishlist")
}
