package wallet

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/storefront/internal/backend"
	"github.com/fjod/storefront/internal/domain"
)

type redeemFunc func(ctx context.Context, code string) (*domain.RedeemResult, error)

func (f redeemFunc) Redeem(ctx context.Context, code string) (*domain.RedeemResult, error) {
	return f(ctx, code)
}

func TestRedeemFlow_ShortCodeStaysInForm(t *testing.T) {
	called := false
	r := redeemFunc(func(context.Context, string) (*domain.RedeemResult, error) {
		called = true
		return nil, nil
	})
	f := NewRedeemFlow()

	err := f.Submit(context.Background(), r, "  AB1 ")

	assert.ErrorIs(t, err, ErrCodeTooShort)
	assert.Equal(t, StateForm, f.State)
	assert.NotEmpty(t, f.ValidationMessage)
	assert.False(t, called)
}

func TestRedeemFlow_Success(t *testing.T) {
	r := redeemFunc(func(_ context.Context, code string) (*domain.RedeemResult, error) {
		assert.Equal(t, "GIFT-2026", code)
		return &domain.RedeemResult{Amount: domain.MustAmount("10"), NewBalance: domain.MustAmount("35.5")}, nil
	})
	f := NewRedeemFlow()

	require.NoError(t, f.Submit(context.Background(), r, " GIFT-2026 "))

	assert.Equal(t, StateSuccess, f.State)
	assert.Equal(t, "35.5", f.Result.NewBalance.Value.String())
	assert.Equal(t, "Nuevo saldo: $35.50", f.BalanceInfo)
}

func TestRedeemFlow_ErrorMessageShownVerbatim(t *testing.T) {
	r := redeemFunc(func(context.Context, string) (*domain.RedeemResult, error) {
		return nil, errors.New("Invalid code")
	})
	f := NewRedeemFlow()

	require.NoError(t, f.Submit(context.Background(), r, "WRONG"))

	assert.Equal(t, StateError, f.State)
	assert.Equal(t, "Invalid code", f.Error)
	assert.Empty(t, f.BalanceInfo)
}

func TestRedeemFlow_ErrorWithBalanceHint(t *testing.T) {
	r := redeemFunc(func(context.Context, string) (*domain.RedeemResult, error) {
		return nil, &backend.APIError{Status: 400, Message: "Código ya canjeado", NewBalance: domain.MustAmount("12")}
	})
	f := NewRedeemFlow()

	require.NoError(t, f.Submit(context.Background(), r, "USED-CODE"))

	assert.Equal(t, StateError, f.State)
	assert.Equal(t, "Código ya canjeado", f.Error)
	assert.Equal(t, "Tu saldo actual es $12.00", f.BalanceInfo)
}

func TestRedeemFlow_NoRedeemer(t *testing.T) {
	f := NewRedeemFlow()

	err := f.Submit(context.Background(), nil, "VALID-CODE")

	assert.ErrorIs(t, err, ErrNoRedeemer)
	assert.Equal(t, StateForm, f.State)
}

func TestRedeemFlow_SubmitOnlyFromForm(t *testing.T) {
	r := redeemFunc(func(context.Context, string) (*domain.RedeemResult, error) {
		return nil, errors.New("Invalid code")
	})
	f := NewRedeemFlow()
	require.NoError(t, f.Submit(context.Background(), r, "CODE1"))

	assert.ErrorIs(t, f.Submit(context.Background(), r, "CODE2"), ErrNotInForm)

	f.Reset()
	assert.Equal(t, StateForm, f.State)
	assert.Empty(t, f.Error)
}
