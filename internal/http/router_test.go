package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/storefront/internal/backend"
	"github.com/fjod/storefront/internal/checkout"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/validation"
	"github.com/fjod/storefront/internal/wallet"
)

type testRouter struct {
	handler http.Handler
}

func (tr *testRouter) do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			_ = json.NewEncoder(&buf).Encode(body)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	tr.handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u1", "exp": exp.Unix()})
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func TestSession_GeneratedWhenMissing(t *testing.T) {
	carts := &cartMock{}
	tr := newTestRouter(Services{Cart: carts})

	rec := tr.do(http.MethodGet, "/api/v1/cart", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	id := rec.Header().Get(SessionHeader)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, carts.session)
}

func TestSession_EchoedWhenPresent(t *testing.T) {
	carts := &cartMock{}
	tr := newTestRouter(Services{Cart: carts})

	rec := tr.do(http.MethodGet, "/api/v1/cart", nil, map[string]string{SessionHeader: "abc-123"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc-123", rec.Header().Get(SessionHeader))
	assert.Equal(t, "abc-123", carts.session)
}

func TestToken_RequiredForAccountRoutes(t *testing.T) {
	tr := newTestRouter(Services{Wallet: &walletMock{}})

	rec := tr.do(http.MethodGet, "/api/v1/wallet/summary", nil, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", decodeError(t, rec).Code)
}

func TestToken_ExpiredRejected(t *testing.T) {
	tr := newTestRouter(Services{Wallet: &walletMock{}})
	token := signedToken(t, time.Now().Add(-time.Hour))

	rec := tr.do(http.MethodGet, "/api/v1/wallet/summary", nil, map[string]string{backend.TokenHeader: token})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "token_expired", decodeError(t, rec).Code)
}

func TestToken_ValidAndOpaqueForwarded(t *testing.T) {
	tr := newTestRouter(Services{Wallet: &walletMock{}})

	for _, token := range []string{signedToken(t, time.Now().Add(time.Hour)), "opaque-session-token"} {
		rec := tr.do(http.MethodGet, "/api/v1/wallet/summary", nil, map[string]string{backend.TokenHeader: token})
		assert.Equal(t, http.StatusOK, rec.Code, token)
	}
}

func TestCart_AddItem(t *testing.T) {
	carts := &cartMock{cart: &domain.Cart{Items: []domain.CartItem{
		{ID: "p1:v1", ProductID: "p1", UnitPrice: decimal.RequireFromString("10"), Quantity: 2},
	}}}
	tr := newTestRouter(Services{Cart: carts})

	rec := tr.do(http.MethodPost, "/api/v1/cart/items", map[string]any{
		"productId": "p1", "variantId": "v1", "name": "Camisa", "unitPrice": "10", "quantity": 1,
	}, nil)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp CartResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 2, resp.Summary.ItemCount)
	assert.Equal(t, "20", resp.Summary.Subtotal.String())
	assert.Equal(t, "3", resp.Summary.Tax.String())
	require.Len(t, carts.added, 1)
	assert.Equal(t, "Camisa", carts.added[0].Name)
}

func TestCart_AddItemValidation(t *testing.T) {
	tr := newTestRouter(Services{Cart: &cartMock{}})

	rec := tr.do(http.MethodPost, "/api/v1/cart/items", map[string]any{"quantity": 1}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "invalid_request", resp.Code)
	assert.NotEmpty(t, resp.Details)

	rec = tr.do(http.MethodPost, "/api/v1/cart/items", "{not json", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = tr.do(http.MethodPost, "/api/v1/cart/items", map[string]any{
		"productId": "p1", "name": "x", "unitPrice": "-1",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_price", decodeError(t, rec).Code)
}

func TestCheckout_CompleteUsesIdempotencyHeader(t *testing.T) {
	co := &checkoutMock{}
	tr := newTestRouter(Services{Checkout: co})

	rec := tr.do(http.MethodPost, "/api/v1/checkout/complete", nil, map[string]string{IdempotencyHeader: "key-1"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "key-1", co.lastKey)

	rec = tr.do(http.MethodPost, "/api/v1/checkout/complete", map[string]string{"idempotencyKey": "key-2"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "key-2", co.lastKey)
}

func TestCheckout_UpdatePassesSelection(t *testing.T) {
	co := &checkoutMock{}
	tr := newTestRouter(Services{Checkout: co})

	rec := tr.do(http.MethodPut, "/api/v1/checkout", map[string]any{"shippingMethod": "express"}, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, co.sel.ShippingMethod)
	assert.Equal(t, "express", *co.sel.ShippingMethod)
	assert.Nil(t, co.sel.PaymentMethod)
}

func TestCheckout_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"empty cart", checkout.ErrEmptyCart, http.StatusConflict, "empty_cart"},
		{"illegal transition", fmt.Errorf("complete: %w", checkout.ErrIllegalTransition), http.StatusConflict, "illegal_transition"},
		{"unknown shipping", checkout.ErrUnknownShippingMethod, http.StatusBadRequest, "unknown_shipping_method"},
		{"key conflict", checkout.ErrIdempotencyKeyConflict, http.StatusConflict, "idempotency_conflict"},
		{
			"gate",
			&checkout.GateError{Step: checkout.StepAddress, Message: "Completa los datos de envío", Fields: []validation.FieldDetail{{Field: "email", Message: "This field is required"}}},
			http.StatusUnprocessableEntity,
			"step_blocked",
		},
		{"backend 4xx", &backend.APIError{Status: 400, Code: "invalid_code", Message: "Código no válido"}, http.StatusBadRequest, "invalid_code"},
		{"backend 5xx", &backend.APIError{Status: 503, Message: "mantenimiento"}, http.StatusBadGateway, "backend_error"},
		{"transport", fmt.Errorf("could not load payment: %w: dial", backend.ErrTransport), http.StatusBadGateway, "backend_unavailable"},
		{"unreadable body", fmt.Errorf("could not load orders: %w: eof", backend.ErrDecode), http.StatusBadGateway, "backend_invalid_response"},
		{"payment in flight", checkout.ErrPaymentInFlight, http.StatusConflict, "payment_in_flight"},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, "timeout"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTestRouter(Services{Checkout: &checkoutMock{err: tt.err}})

			rec := tr.do(http.MethodPost, "/api/v1/checkout/next", nil, nil)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
		})
	}
}

func TestCheckout_BackendMessageVerbatim(t *testing.T) {
	tr := newTestRouter(Services{Checkout: &checkoutMock{err: &backend.APIError{Status: 402, Message: "Fondos insuficientes"}}})

	rec := tr.do(http.MethodPost, "/api/v1/checkout/complete", nil, map[string]string{IdempotencyHeader: "k"})

	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Equal(t, "Fondos insuficientes", decodeError(t, rec).Error)
}

func TestWallet_RedeemShortCode(t *testing.T) {
	flow := wallet.NewRedeemFlow()
	flow.ValidationMessage = "El código debe tener al menos 4 caracteres"
	tr := newTestRouter(Services{Wallet: &walletMock{out: &wallet.RedeemOutcome{Flow: flow}, err: wallet.ErrCodeTooShort}})

	rec := tr.do(http.MethodPost, "/api/v1/wallet/redeem", map[string]string{"code": "ab"}, map[string]string{backend.TokenHeader: "opaque"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "code_too_short", resp.Code)
	assert.Equal(t, flow.ValidationMessage, resp.Error)
}

func TestWallet_RedeemErrorStateIs200(t *testing.T) {
	flow := &wallet.RedeemFlow{State: wallet.StateError, Error: "Invalid code"}
	tr := newTestRouter(Services{Wallet: &walletMock{out: &wallet.RedeemOutcome{Flow: flow}}})

	rec := tr.do(http.MethodPost, "/api/v1/wallet/redeem", map[string]string{"code": "WRONG"}, map[string]string{backend.TokenHeader: "opaque"})

	require.Equal(t, http.StatusOK, rec.Code)
	var out wallet.RedeemOutcome
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	assert.Equal(t, wallet.StateError, out.Flow.State)
	assert.Equal(t, "Invalid code", out.Flow.Error)
}

func TestHealth(t *testing.T) {
	tr := newTestRouter(Services{Health: map[string]HealthCheck{
		"redis": func(context.Context) error { return nil },
	}})
	rec := tr.do(http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	tr = newTestRouter(Services{Health: map[string]HealthCheck{
		"postgres": func(context.Context) error { return errors.New("connection refused") },
	}})
	rec = tr.do(http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "connection refused", body["postgres"])
}
