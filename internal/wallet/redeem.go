// Package wallet covers store credit: balance, movements and code redemption.
package wallet

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/pricing"
)

const MinCodeLength = 4

var (
	ErrCodeTooShort = errors.New("redeem code is too short")
	ErrNoRedeemer   = errors.New("no redeem handler configured")
	ErrNotInForm    = errors.New("redeem flow is not accepting a code")
)

type State string

const (
	StateForm       State = "form"
	StateProcessing State = "processing"
	StateSuccess    State = "success"
	StateError      State = "error"
)

// Redeemer submits a code to whoever owns the balance.
type Redeemer interface {
	Redeem(ctx context.Context, code string) (*domain.RedeemResult, error)
}

// balanceHinter is implemented by errors that carry the current balance.
type balanceHinter interface {
	BalanceHint() domain.Amount
}

// RedeemFlow is the redeem dialog: form -> processing -> success | error.
type RedeemFlow struct {
	State             State                `json:"state"`
	Code              string               `json:"code,omitempty"`
	ValidationMessage string               `json:"validationMessage,omitempty"`
	Result            *domain.RedeemResult `json:"result,omitempty"`
	Error             string               `json:"error,omitempty"`
	BalanceInfo       string               `json:"balanceInfo,omitempty"`
}

func NewRedeemFlow() *RedeemFlow {
	return &RedeemFlow{State: StateForm}
}

// Submit runs the flow for code. Short codes keep the flow in the form state.
// A redeemer error ends in the error state with the error text as is; it is
// not returned.
func (f *RedeemFlow) Submit(ctx context.Context, r Redeemer, code string) error {
	if f.State != StateForm {
		return ErrNotInForm
	}
	code = strings.TrimSpace(code)
	f.Code = code
	if utf8.RuneCountInString(code) < MinCodeLength {
		f.ValidationMessage = "El código debe tener al menos 4 caracteres"
		return ErrCodeTooShort
	}
	if r == nil {
		return ErrNoRedeemer
	}
	f.ValidationMessage = ""
	f.State = StateProcessing

	res, err := r.Redeem(ctx, code)
	if err != nil {
		f.State = StateError
		f.Error = err.Error()
		var hint balanceHinter
		if errors.As(err, &hint) {
			if balance := hint.BalanceHint(); balance.Valid {
				f.BalanceInfo = "Tu saldo actual es " + pricing.FormatPrice(balance)
			}
		}
		return nil
	}

	f.State = StateSuccess
	f.Result = res
	if res.NewBalance.Valid {
		f.BalanceInfo = "Nuevo saldo: " + pricing.FormatPrice(res.NewBalance)
	}
	return nil
}

// Reset returns the dialog to an empty form.
func (f *RedeemFlow) Reset() {
	*f = RedeemFlow{State: StateForm}
}
