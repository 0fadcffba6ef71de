package backend

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/fjod/storefront/internal/domain"
)

type TransactionItem struct {
	ProductID string          `json:"productId"`
	VariantID string          `json:"variantId,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// TransactionRequest is the single payment request issued when an order is
// placed.
type TransactionRequest struct {
	IdempotencyKey  string            `json:"idempotencyKey"`
	Items           []TransactionItem `json:"items"`
	AddressID       string            `json:"addressId,omitempty"`
	ShippingAddress map[string]string `json:"shippingAddress,omitempty"`
	ShippingMethod  string            `json:"shippingMethod,omitempty"`
	PaymentMethod   string            `json:"paymentMethod"`
	Notes           string            `json:"notes,omitempty"`
	DiscountCode    string            `json:"discountCode,omitempty"`
	Subtotal        decimal.Decimal   `json:"subtotal"`
	Shipping        decimal.Decimal   `json:"shipping"`
	Tax             decimal.Decimal   `json:"tax"`
	Discount        decimal.Decimal   `json:"discount"`
	Total           decimal.Decimal   `json:"total"`
}

// CreateTransaction charges the order. A declined payment may come back
// either as a 2xx transaction with a declined status or as *APIError whose
// Code is the decline code.
func (c *Client) CreateTransaction(ctx context.Context, req TransactionRequest) (*domain.Transaction, error) {
	var tx domain.Transaction
	if err := c.do(ctx, http.MethodPost, "/transaction", nil, req, &tx, "payment"); err != nil {
		return nil, err
	}
	return &tx, nil
}
