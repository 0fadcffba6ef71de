package backend

import (
	"context"
	"net/http"

	"github.com/fjod/storefront/internal/domain"
)

type DiscountResult struct {
	Valid          bool          `json:"valid"`
	DiscountAmount domain.Amount `json:"discountAmount"`
	Message        string        `json:"message,omitempty"`
}

func (c *Client) ValidateDiscount(ctx context.Context, code string, itemIDs []string) (*DiscountResult, error) {
	body := struct {
		Code    string   `json:"code"`
		ItemIDs []string `json:"itemIds"`
	}{Code: code, ItemIDs: itemIDs}

	var r DiscountResult
	if err := c.do(ctx, http.MethodPost, "/discount/validate", nil, body, &r, "discount"); err != nil {
		return nil, err
	}
	return &r, nil
}
