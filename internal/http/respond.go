package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/fjod/storefront/internal/backend"
	"github.com/fjod/storefront/internal/cart"
	"github.com/fjod/storefront/internal/checkout"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/logger"
	"github.com/fjod/storefront/internal/validation"
	"github.com/fjod/storefront/internal/wallet"
	"github.com/fjod/storefront/internal/wishlist"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.FromContext(r.Context()).Warn("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	respondJSON(w, r, status, ErrorResponse{Error: message, Code: code})
}

// decodeJSON reads a request body into dst and validates it.
func decodeJSON(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	if v == nil {
		return true
	}
	if err := v.Struct(dst); err != nil {
		respondJSON(w, r, http.StatusBadRequest, ErrorResponse{
			Error:   "request validation failed",
			Code:    "invalid_request",
			Details: validation.Details(err),
		})
		return false
	}
	return true
}

type errorMapping struct {
	target error
	status int
	code   string
}

var sentinelErrors = []errorMapping{
	{cart.ErrItemNotFound, http.StatusNotFound, "item_not_found"},
	{cart.ErrInvalidItem, http.StatusBadRequest, "invalid_item"},
	{checkout.ErrEmptyCart, http.StatusConflict, "empty_cart"},
	{checkout.ErrIllegalTransition, http.StatusConflict, "illegal_transition"},
	{checkout.ErrNotInProgress, http.StatusConflict, "not_in_progress"},
	{checkout.ErrNoNextStep, http.StatusConflict, "no_next_step"},
	{checkout.ErrNoPreviousStep, http.StatusConflict, "no_previous_step"},
	{checkout.ErrUnknownShippingMethod, http.StatusBadRequest, "unknown_shipping_method"},
	{checkout.ErrSessionNotFound, http.StatusNotFound, "session_not_found"},
	{checkout.ErrIdempotencyKeyConflict, http.StatusConflict, "idempotency_conflict"},
	{checkout.ErrPaymentInFlight, http.StatusConflict, "payment_in_flight"},
	{wallet.ErrCodeTooShort, http.StatusBadRequest, "code_too_short"},
	{wishlist.ErrProductRequired, http.StatusBadRequest, "invalid_request"},
	{domain.ErrAddressNotFound, http.StatusNotFound, "address_not_found"},
	{domain.ErrDefaultAddressDelete, http.StatusConflict, "default_address"},
}

var domainStatus = map[string]int{
	domain.CodeNotFound:     http.StatusNotFound,
	domain.CodeInvalidInput: http.StatusBadRequest,
	domain.CodeInvalidState: http.StatusConflict,
	domain.CodeUnauthorized: http.StatusUnauthorized,
	domain.CodeUnavailable:  http.StatusServiceUnavailable,
}

// handleError renders err with the status its kind maps to. Backend error
// messages are passed through verbatim.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	var gate *checkout.GateError
	if errors.As(err, &gate) {
		respondJSON(w, r, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   gate.Message,
			Code:    "step_blocked",
			Details: gate.Fields,
		})
		return
	}

	for _, m := range sentinelErrors {
		if errors.Is(err, m.target) {
			respondError(w, r, m.status, m.code, err.Error())
			return
		}
	}

	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		status, ok := domainStatus[domainErr.Code]
		if !ok {
			status = http.StatusBadRequest
		}
		respondError(w, r, status, domainErr.Code, domainErr.Message)
		return
	}

	if apiErr, ok := backend.AsAPIError(err); ok {
		status := apiErr.Status
		if status >= http.StatusInternalServerError || status < http.StatusBadRequest {
			status = http.StatusBadGateway
		}
		code := apiErr.Code
		if code == "" {
			code = "backend_error"
		}
		respondError(w, r, status, code, apiErr.Error())
		return
	}

	switch {
	case errors.Is(err, backend.ErrTransport):
		respondError(w, r, http.StatusBadGateway, "backend_unavailable", err.Error())
	case errors.Is(err, backend.ErrDecode):
		respondError(w, r, http.StatusBadGateway, "backend_invalid_response", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, r, http.StatusGatewayTimeout, "timeout", "request timed out")
	default:
		logger.FromContext(r.Context()).Error("unhandled error", zap.Error(err))
		respondError(w, r, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
