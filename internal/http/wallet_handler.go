package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/validation"
	"github.com/fjod/storefront/internal/wallet"
)

type WalletService interface {
	Summary(ctx context.Context) (*domain.WalletSummary, error)
	Transactions(ctx context.Context, page, limit int) (*domain.WalletTransactionPage, error)
	Redeem(ctx context.Context, code string) (*wallet.RedeemOutcome, error)
}

type WalletHandler struct {
	wallet   WalletService
	timeout  time.Duration
	validate *validator.Validate
}

func NewWalletHandler(svc WalletService, timeout time.Duration) *WalletHandler {
	return &WalletHandler{wallet: svc, timeout: timeout, validate: validation.New()}
}

type RedeemRequestDTO struct {
	Code string `json:"code" validate:"max=64"`
}

func (h *WalletHandler) Summary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	s, err := h.wallet.Summary(ctx)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, s)
}

func (h *WalletHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	page := queryInt(r, "page")
	limit := queryInt(r, "limit")
	p, err := h.wallet.Transactions(ctx, page, limit)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, p)
}

// Redeem answers 200 for both outcomes of the dialog; a rejected code is
// reported in flow.error.
func (h *WalletHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req RedeemRequestDTO
	if !decodeJSON(w, r, h.validate, &req) {
		return
	}

	out, err := h.wallet.Redeem(ctx, req.Code)
	if err != nil {
		if out != nil && out.Flow != nil && out.Flow.ValidationMessage != "" {
			respondJSON(w, r, http.StatusBadRequest, ErrorResponse{
				Error:   out.Flow.ValidationMessage,
				Code:    "code_too_short",
				Details: out.Flow,
			})
			return
		}
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, out)
}

// queryInt returns 0 for a missing or malformed parameter so services apply
// their defaults.
func queryInt(r *http.Request, name string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0
	}
	return n
}
