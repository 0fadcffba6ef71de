package checkout

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/pricing"
	"github.com/fjod/storefront/internal/validation"
)

var validate = validation.New()

// Mode tells which address gate applies at the address step.
type Mode string

const (
	ModeGuest         Mode = "guest"
	ModeAuthenticated Mode = "authenticated"
)

// GuestAddress is the address form filled by shoppers without an account.
// Every field must be non-blank to leave the address step.
type GuestAddress struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required"`
	Phone     string `json:"phone" validate:"required"`
	Country   string `json:"country" validate:"required"`
	City      string `json:"city" validate:"required"`
	Address   string `json:"address" validate:"required"`
	Zip       string `json:"zip" validate:"required"`
}

func (a GuestAddress) trimmed() GuestAddress {
	return GuestAddress{
		FirstName: strings.TrimSpace(a.FirstName),
		LastName:  strings.TrimSpace(a.LastName),
		Email:     strings.TrimSpace(a.Email),
		Phone:     strings.TrimSpace(a.Phone),
		Country:   strings.TrimSpace(a.Country),
		City:      strings.TrimSpace(a.City),
		Address:   strings.TrimSpace(a.Address),
		Zip:       strings.TrimSpace(a.Zip),
	}
}

func (a GuestAddress) fields() map[string]string {
	return map[string]string{
		"firstName": a.FirstName,
		"lastName":  a.LastName,
		"email":     a.Email,
		"phone":     a.Phone,
		"country":   a.Country,
		"city":      a.City,
		"address":   a.Address,
		"zip":       a.Zip,
	}
}

// Session is one shopper's progress through checkout.
type Session struct {
	ID        string `json:"id"`
	SessionID string `json:"sessionId"`
	Step      Step   `json:"step"`
	Status    Status `json:"status"`
	Mode      Mode   `json:"mode"`

	GuestAddress   GuestAddress `json:"guestAddress"`
	SavedAddressID string       `json:"savedAddressId,omitempty"`
	ShippingMethod string       `json:"shippingMethod,omitempty"`
	PaymentMethod  string       `json:"paymentMethod,omitempty"`
	Notes          string       `json:"notes,omitempty"`

	DiscountCode    string          `json:"discountCode,omitempty"`
	DiscountAmount  decimal.Decimal `json:"discountAmount"`
	DiscountMessage string          `json:"discountMessage,omitempty"`

	IdempotencyKey string                `json:"idempotencyKey,omitempty"`
	TransactionID  string                `json:"transactionId,omitempty"`
	OrderID        string                `json:"orderId,omitempty"`
	InvoiceURL     string                `json:"invoiceUrl,omitempty"`
	PaymentStatus  domain.PaymentStatus  `json:"paymentStatus,omitempty"`
	Failure        *Failure              `json:"failure,omitempty"`
	Placed         *pricing.OrderSummary `json:"placed,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func NewSession(id, sessionID string, mode Mode, now time.Time) *Session {
	if mode == "" {
		mode = ModeGuest
	}
	return &Session{
		ID:        id,
		SessionID: sessionID,
		Step:      StepReview,
		Status:    StatusInProgress,
		Mode:      mode,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Selection carries the form values a shopper changes. Nil fields are left
// untouched.
type Selection struct {
	Mode           *Mode         `json:"mode,omitempty"`
	GuestAddress   *GuestAddress `json:"guestAddress,omitempty"`
	SavedAddressID *string       `json:"savedAddressId,omitempty"`
	ShippingMethod *string       `json:"shippingMethod,omitempty"`
	PaymentMethod  *string       `json:"paymentMethod,omitempty"`
	Notes          *string       `json:"notes,omitempty"`
}

func (s *Session) apply(sel Selection, now time.Time) error {
	if s.Status != StatusInProgress {
		return ErrNotInProgress
	}
	if sel.Mode != nil {
		s.Mode = *sel.Mode
	}
	if sel.GuestAddress != nil {
		s.GuestAddress = *sel.GuestAddress
	}
	if sel.SavedAddressID != nil {
		s.SavedAddressID = strings.TrimSpace(*sel.SavedAddressID)
	}
	if sel.ShippingMethod != nil {
		s.ShippingMethod = strings.TrimSpace(*sel.ShippingMethod)
	}
	if sel.PaymentMethod != nil {
		s.PaymentMethod = strings.TrimSpace(*sel.PaymentMethod)
	}
	if sel.Notes != nil {
		s.Notes = *sel.Notes
	}
	s.UpdatedAt = now
	return nil
}

// paymentChosen is the only check made on the payment step.
func (s *Session) paymentChosen() bool {
	return s.PaymentMethod != ""
}

// addressGate checks the address step for the session's mode. Whether a
// saved address id exists is checked by the service.
func (s *Session) addressGate() error {
	if s.Mode == ModeAuthenticated {
		if s.SavedAddressID == "" {
			return &GateError{Step: StepAddress, Message: "select a shipping address"}
		}
		return nil
	}

	if err := validate.Struct(s.GuestAddress.trimmed()); err != nil {
		return &GateError{
			Step:    StepAddress,
			Message: "complete the required address fields",
			Fields:  validation.Details(err),
		}
	}
	return nil
}

// next advances one step if the current step's gate passes.
func (s *Session) next(now time.Time) error {
	if s.Status != StatusInProgress {
		return ErrNotInProgress
	}
	switch s.Step {
	case StepAddress:
		if err := s.addressGate(); err != nil {
			return err
		}
	case StepPayment:
		if !s.paymentChosen() {
			return &GateError{Step: StepPayment, Message: "choose a payment method"}
		}
	case StepNotes:
		return ErrNoNextStep
	}
	s.Step++
	s.UpdatedAt = now
	return nil
}

func (s *Session) previous(now time.Time) error {
	if s.Status != StatusInProgress {
		return ErrNotInProgress
	}
	if s.Step <= StepReview {
		return ErrNoPreviousStep
	}
	s.Step--
	s.UpdatedAt = now
	return nil
}

// canComplete reports whether the order can be placed from here: from the
// notes step, or straight from the payment step once a method is chosen.
func (s *Session) canComplete() bool {
	if s.Status != StatusInProgress {
		return false
	}
	return s.Step == StepNotes || (s.Step == StepPayment && s.paymentChosen())
}

func (s *Session) transition(to Status, now time.Time) error {
	if !CanTransitionTo(s.Status, to) {
		return ErrIllegalTransition
	}
	s.Status = to
	s.UpdatedAt = now
	return nil
}

func (s *Session) setDiscount(code string, amount decimal.Decimal, message string) {
	s.DiscountCode = code
	s.DiscountAmount = amount
	s.DiscountMessage = message
}

func (s *Session) clearDiscount(message string) {
	s.setDiscount("", decimal.Zero, message)
}
