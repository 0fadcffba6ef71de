package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/fjod/storefront/internal/domain"
)

type OrderFilter struct {
	Page   int
	Limit  int
	Status string
}

func (c *Client) Orders(ctx context.Context, f OrderFilter) (*domain.OrderPage, error) {
	q := url.Values{}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Status != "" {
		q.Set("status", f.Status)
	}

	var p domain.OrderPage
	if err := c.do(ctx, http.MethodGet, "/orders", q, nil, &p, "orders"); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) Order(ctx context.Context, id string) (*domain.Order, error) {
	var o domain.Order
	if err := c.do(ctx, http.MethodGet, "/orders/"+pathEscape(id), nil, nil, &o, "order"); err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *Client) OrderTransaction(ctx context.Context, orderID string) (*domain.Transaction, error) {
	var tx domain.Transaction
	if err := c.do(ctx, http.MethodGet, "/transaction/order/"+pathEscape(orderID), nil, nil, &tx, "payment"); err != nil {
		return nil, err
	}
	return &tx, nil
}
