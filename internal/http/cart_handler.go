package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/pricing"
	"github.com/fjod/storefront/internal/validation"
)

type CartService interface {
	Get(ctx context.Context, sessionID string) (*domain.Cart, error)
	Add(ctx context.Context, sessionID string, item domain.CartItem) (*domain.Cart, error)
	UpdateQuantity(ctx context.Context, sessionID, itemID string, qty int) (*domain.Cart, error)
	Remove(ctx context.Context, sessionID, itemID string) (*domain.Cart, error)
	Clear(ctx context.Context, sessionID string) error
}

type CartHandler struct {
	carts    CartService
	taxRate  decimal.Decimal
	timeout  time.Duration
	validate *validator.Validate
}

func NewCartHandler(carts CartService, taxRate decimal.Decimal, timeout time.Duration) *CartHandler {
	return &CartHandler{
		carts:    carts,
		taxRate:  taxRate,
		timeout:  timeout,
		validate: validation.New(),
	}
}

type AddItemRequestDTO struct {
	ProductID    string          `json:"productId" validate:"required,max=64"`
	VariantID    string          `json:"variantId" validate:"max=64"`
	Name         string          `json:"name" validate:"required"`
	Image        string          `json:"image"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	VariantLabel string          `json:"variantLabel"`
	Quantity     int             `json:"quantity" validate:"min=0,max=99"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity" validate:"min=0,max=99"`
}

// CartResponse is the cart with its running totals. Shipping and discount
// are only known at checkout.
type CartResponse struct {
	Cart    *domain.Cart         `json:"cart"`
	Summary pricing.OrderSummary `json:"summary"`
}

func (h *CartHandler) response(c *domain.Cart) CartResponse {
	summary := pricing.Summarize(c.Items, decimal.Zero, h.taxRate, decimal.Zero)
	return CartResponse{Cart: c, Summary: summary.Rounded()}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	c, err := h.carts.Get(ctx, sessionFrom(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, h.response(c))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if !decodeJSON(w, r, h.validate, &req) {
		return
	}
	if req.UnitPrice.IsNegative() {
		respondError(w, r, http.StatusBadRequest, "invalid_price", "unitPrice must not be negative")
		return
	}

	c, err := h.carts.Add(ctx, sessionFrom(r.Context()), domain.CartItem{
		ProductID:    req.ProductID,
		VariantID:    req.VariantID,
		Name:         req.Name,
		Image:        req.Image,
		UnitPrice:    req.UnitPrice,
		VariantLabel: req.VariantLabel,
		Quantity:     req.Quantity,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, h.response(c))
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req UpdateQuantityRequestDTO
	if !decodeJSON(w, r, h.validate, &req) {
		return
	}

	c, err := h.carts.UpdateQuantity(ctx, sessionFrom(r.Context()), chi.URLParam(r, "item_id"), req.Quantity)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, h.response(c))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	c, err := h.carts.Remove(ctx, sessionFrom(r.Context()), chi.URLParam(r, "item_id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, h.response(c))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.carts.Clear(ctx, sessionFrom(r.Context())); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
