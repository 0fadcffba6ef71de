package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/wishlist"
)

type WishlistService interface {
	List(ctx context.Context, owner string) ([]domain.Product, error)
	Toggle(ctx context.Context, owner, productID string) (*wishlist.ToggleResult, error)
}

type WishlistHandler struct {
	wishlist WishlistService
	timeout  time.Duration
}

func NewWishlistHandler(svc WishlistService, timeout time.Duration) *WishlistHandler {
	return &WishlistHandler{wishlist: svc, timeout: timeout}
}

func (h *WishlistHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	items, err := h.wishlist.List(ctx, sessionFrom(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, items)
}

func (h *WishlistHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	res, err := h.wishlist.Toggle(ctx, sessionFrom(r.Context()), chi.URLParam(r, "product_id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, res)
}
