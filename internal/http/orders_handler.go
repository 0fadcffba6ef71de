package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fjod/storefront/internal/backend"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/orders"
)

type OrdersService interface {
	List(ctx context.Context, f backend.OrderFilter) (*domain.OrderPage, error)
	Detail(ctx context.Context, id string) (*orders.Detail, error)
	Transaction(ctx context.Context, orderID string) (*domain.Transaction, error)
}

type OrdersHandler struct {
	orders  OrdersService
	timeout time.Duration
}

func NewOrdersHandler(svc OrdersService, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{orders: svc, timeout: timeout}
}

func (h *OrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	page, err := h.orders.List(ctx, backend.OrderFilter{
		Page:   queryInt(r, "page"),
		Limit:  queryInt(r, "limit"),
		Status: r.URL.Query().Get("status"),
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, page)
}

func (h *OrdersHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	d, err := h.orders.Detail(ctx, chi.URLParam(r, "order_id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, d)
}

func (h *OrdersHandler) Transaction(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	tx, err := h.orders.Transaction(ctx, chi.URLParam(r, "order_id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, tx)
}
