package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/fjod/storefront/internal/checkout"
	"github.com/fjod/storefront/internal/validation"
)

const IdempotencyHeader = "Idempotency-Key"

type CheckoutService interface {
	Get(ctx context.Context, sessionID string) (*checkout.View, error)
	Update(ctx context.Context, sessionID string, sel checkout.Selection) (*checkout.View, error)
	Next(ctx context.Context, sessionID string) (*checkout.View, error)
	Previous(ctx context.Context, sessionID string) (*checkout.View, error)
	ApplyDiscount(ctx context.Context, sessionID, code string) (*checkout.View, error)
	Complete(ctx context.Context, sessionID, idempotencyKey string) (*checkout.View, error)
	Retry(ctx context.Context, sessionID string) (*checkout.View, error)
	Reset(ctx context.Context, sessionID string) error
}

// CheckoutHandler uses two timeouts: placing the order waits on the payment
// call, every other step on a regular backend round trip.
type CheckoutHandler struct {
	checkout        CheckoutService
	timeout         time.Duration
	completeTimeout time.Duration
	validate        *validator.Validate
}

func NewCheckoutHandler(svc CheckoutService, timeout, completeTimeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		checkout:        svc,
		timeout:         timeout,
		completeTimeout: completeTimeout,
		validate:        validation.New(),
	}
}

type DiscountRequestDTO struct {
	Code string `json:"code" validate:"max=64"`
}

type CompleteRequestDTO struct {
	IdempotencyKey string `json:"idempotencyKey" validate:"max=128"`
}

func (h *CheckoutHandler) run(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, sessionID string) (*checkout.View, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	v, err := fn(ctx, sessionFrom(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, v)
}

func (h *CheckoutHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.checkout.Get)
}

func (h *CheckoutHandler) Update(w http.ResponseWriter, r *http.Request) {
	var sel checkout.Selection
	if !decodeJSON(w, r, nil, &sel) {
		return
	}
	h.run(w, r, func(ctx context.Context, sessionID string) (*checkout.View, error) {
		return h.checkout.Update(ctx, sessionID, sel)
	})
}

func (h *CheckoutHandler) Next(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.checkout.Next)
}

func (h *CheckoutHandler) Previous(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.checkout.Previous)
}

func (h *CheckoutHandler) ApplyDiscount(w http.ResponseWriter, r *http.Request) {
	var req DiscountRequestDTO
	if !decodeJSON(w, r, h.validate, &req) {
		return
	}
	h.run(w, r, func(ctx context.Context, sessionID string) (*checkout.View, error) {
		return h.checkout.ApplyDiscount(ctx, sessionID, req.Code)
	})
}

// Complete places the order. The idempotency key comes from the
// Idempotency-Key header, or the body when the header is absent.
func (h *CheckoutHandler) Complete(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
	if key == "" && r.ContentLength != 0 {
		var req CompleteRequestDTO
		if !decodeJSON(w, r, h.validate, &req) {
			return
		}
		key = strings.TrimSpace(req.IdempotencyKey)
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.completeTimeout)
	defer cancel()

	v, err := h.checkout.Complete(ctx, sessionFrom(r.Context()), key)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, v)
}

func (h *CheckoutHandler) Retry(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.checkout.Retry)
}

func (h *CheckoutHandler) Reset(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.checkout.Reset(ctx, sessionFrom(r.Context())); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
