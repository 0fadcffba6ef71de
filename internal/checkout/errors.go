package checkout

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fjod/storefront/internal/validation"
)

var (
	ErrEmptyCart              = errors.New("cart is empty, nothing to checkout")
	ErrIllegalTransition      = errors.New("illegal transition of checkout status")
	ErrNotInProgress          = errors.New("checkout is not in progress")
	ErrNoNextStep             = errors.New("already at the last step")
	ErrNoPreviousStep         = errors.New("already at the first step")
	ErrUnknownShippingMethod  = errors.New("unknown shipping method")
	ErrSessionNotFound        = errors.New("checkout session not found")
	ErrIdempotencyKeyNotFound = errors.New("idempotency key not found")
	ErrIdempotencyKeyConflict = errors.New("idempotency key belongs to another checkout")
	ErrPaymentInFlight        = errors.New("payment is still being processed")

	// ErrStepBlocked is matched by every *GateError.
	ErrStepBlocked = errors.New("checkout step is incomplete")
)

// GateError explains why Next refused to leave a step.
type GateError struct {
	Step    Step
	Message string
	Fields  []validation.FieldDetail
}

func (e *GateError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = f.Field
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(names, ", "))
}

func (e *GateError) Is(target error) bool {
	return target == ErrStepBlocked
}
