// Package checkout drives the five-step checkout wizard and places the order.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fjod/storefront/internal/backend"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/events"
	"github.com/fjod/storefront/internal/keylock"
	"github.com/fjod/storefront/internal/pricing"
)

type CartStore interface {
	Get(ctx context.Context, sessionID string) (*domain.Cart, error)
	Clear(ctx context.Context, sessionID string) error
}

// Backend is the part of the shop backend checkout talks to.
type Backend interface {
	ValidateDiscount(ctx context.Context, code string, itemIDs []string) (*backend.DiscountResult, error)
	CreateTransaction(ctx context.Context, req backend.TransactionRequest) (*domain.Transaction, error)
	ShippingAddresses(ctx context.Context) ([]domain.Address, error)
}

type ShippingMethod struct {
	ID    string          `json:"id"`
	Label string          `json:"label"`
	Cost  decimal.Decimal `json:"cost"`
}

type Config struct {
	TaxRate         decimal.Decimal
	ShippingMethods []ShippingMethod
	PaymentTimeout  time.Duration
}

// View is a session together with the summary derived from the current cart.
type View struct {
	Session         *Session             `json:"session"`
	Items           []domain.CartItem    `json:"items"`
	Summary         pricing.OrderSummary `json:"summary"`
	ShippingMethods []ShippingMethod     `json:"shippingMethods"`
	CanComplete     bool                 `json:"canComplete"`
}

type Service struct {
	repo    Repository
	carts   CartStore
	backend Backend
	cfg     Config
	logger  *zap.Logger
	locks   *keylock.Locks
	now     func() time.Time
	newID   func() string
}

func NewService(repo Repository, carts CartStore, be Backend, cfg Config, logger *zap.Logger) *Service {
	if cfg.PaymentTimeout <= 0 {
		cfg.PaymentTimeout = 30 * time.Second
	}
	return &Service{
		repo:    repo,
		carts:   carts,
		backend: be,
		cfg:     cfg,
		logger:  logger,
		locks:   keylock.New(),
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}
}

func (s *Service) shippingMethod(id string) (ShippingMethod, bool) {
	for _, m := range s.cfg.ShippingMethods {
		if m.ID == id {
			return m, true
		}
	}
	return ShippingMethod{}, false
}

// load returns the session for sessionID, starting a new one if none exists.
func (s *Service) load(ctx context.Context, sessionID string) (*Session, error) {
	sess, err := s.repo.Get(ctx, sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		mode := ModeGuest
		if backend.TokenFrom(ctx) != "" {
			mode = ModeAuthenticated
		}
		sess = NewSession(s.newID(), sessionID, mode, s.now())
		if err := s.repo.Save(ctx, sess); err != nil {
			return nil, err
		}
		return sess, nil
	}
	if err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *Service) view(ctx context.Context, sess *Session) (*View, error) {
	c, err := s.carts.Get(ctx, sess.SessionID)
	if err != nil {
		return nil, err
	}
	shipping := decimal.Zero
	if m, ok := s.shippingMethod(sess.ShippingMethod); ok {
		shipping = m.Cost
	}
	return &View{
		Session:         sess,
		Items:           c.Items,
		Summary:         pricing.Summarize(c.Items, shipping, s.cfg.TaxRate, sess.DiscountAmount).Rounded(),
		ShippingMethods: s.cfg.ShippingMethods,
		CanComplete:     sess.canComplete() && !c.IsEmpty(),
	}, nil
}

// withSession runs fn on the locked session and saves it when fn succeeds.
func (s *Service) withSession(ctx context.Context, sessionID string, fn func(*Session) error) (*View, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	sess, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, sess); err != nil {
		return nil, err
	}
	return s.view(ctx, sess)
}

func (s *Service) Get(ctx context.Context, sessionID string) (*View, error) {
	sess, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, sess)
}

// Update stores form selections without moving between steps.
func (s *Service) Update(ctx context.Context, sessionID string, sel Selection) (*View, error) {
	if sel.ShippingMethod != nil && *sel.ShippingMethod != "" {
		if _, ok := s.shippingMethod(strings.TrimSpace(*sel.ShippingMethod)); !ok {
			return nil, ErrUnknownShippingMethod
		}
	}
	if sel.Mode != nil && *sel.Mode != ModeGuest && *sel.Mode != ModeAuthenticated {
		return nil, fmt.Errorf("%w: mode %q", domain.ErrInvalidInput, *sel.Mode)
	}
	return s.withSession(ctx, sessionID, func(sess *Session) error {
		return sess.apply(sel, s.now())
	})
}

func (s *Service) Next(ctx context.Context, sessionID string) (*View, error) {
	return s.withSession(ctx, sessionID, func(sess *Session) error {
		if sess.Step == StepAddress && sess.Mode == ModeAuthenticated && sess.SavedAddressID != "" {
			if err := s.checkSavedAddress(ctx, sess.SavedAddressID); err != nil {
				return err
			}
		}
		return sess.next(s.now())
	})
}

func (s *Service) checkSavedAddress(ctx context.Context, id string) error {
	addrs, err := s.backend.ShippingAddresses(ctx)
	if err != nil {
		return err
	}
	if _, ok := domain.NewAddressBook(addrs).Get(id); !ok {
		return &GateError{Step: StepAddress, Message: "select a shipping address"}
	}
	return nil
}

func (s *Service) Previous(ctx context.Context, sessionID string) (*View, error) {
	return s.withSession(ctx, sessionID, func(sess *Session) error {
		return sess.previous(s.now())
	})
}

// ApplyDiscount validates code against the current cart. A rejected code
// clears any previous discount and keeps the backend message on the session;
// only failures to reach the backend are returned as errors.
func (s *Service) ApplyDiscount(ctx context.Context, sessionID, code string) (*View, error) {
	code = strings.TrimSpace(code)
	return s.withSession(ctx, sessionID, func(sess *Session) error {
		if sess.Status != StatusInProgress {
			return ErrNotInProgress
		}
		if code == "" {
			sess.clearDiscount("")
			return nil
		}

		c, err := s.carts.Get(ctx, sessionID)
		if err != nil {
			return err
		}
		res, err := s.backend.ValidateDiscount(ctx, code, c.ItemIDs())
		if apiErr, ok := backend.AsAPIError(err); ok {
			sess.clearDiscount(apiErr.Message)
			return nil
		}
		if err != nil {
			return err
		}

		if !res.Valid || !res.DiscountAmount.Positive() {
			msg := res.Message
			if msg == "" {
				msg = "El código no es válido"
			}
			sess.clearDiscount(msg)
			return nil
		}
		sess.setDiscount(code, res.DiscountAmount.Value, res.Message)
		sess.UpdatedAt = s.now()
		return nil
	})
}

// Complete places the order with a single transaction request. Repeating a
// key returns the recorded outcome without charging again.
func (s *Service) Complete(ctx context.Context, sessionID, idempotencyKey string) (*View, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	if idempotencyKey == "" {
		idempotencyKey = s.newID()
	}
	existing, err := s.repo.FindByIdempotencyKey(ctx, idempotencyKey)
	if err != nil && !errors.Is(err, ErrIdempotencyKeyNotFound) {
		return nil, fmt.Errorf("failed to check idempotency: %w", err)
	}
	if existing != nil {
		if existing.SessionID != sessionID {
			return nil, ErrIdempotencyKeyConflict
		}
		s.logger.Info("duplicate checkout completion",
			zap.String("idempotency_key", idempotencyKey),
			zap.String("checkout_id", existing.ID),
			zap.String("status", existing.Status.String()),
		)
		return s.view(ctx, existing)
	}

	sess, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.canComplete() {
		return nil, ErrIllegalTransition
	}
	c, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, ErrEmptyCart
	}

	v, err := s.view(ctx, sess)
	if err != nil {
		return nil, err
	}
	summary := v.Summary

	sess.IdempotencyKey = idempotencyKey
	sess.Placed = &summary
	if err := sess.transition(StatusProcessing, s.now()); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, sess); err != nil {
		return nil, err
	}

	payCtx, cancel := context.WithTimeout(ctx, s.cfg.PaymentTimeout)
	defer cancel()
	tx, payErr := s.backend.CreateTransaction(payCtx, s.transactionRequest(sess, c, summary))

	if failure := paymentFailure(tx, payErr); failure != nil {
		return s.fail(ctx, sess, failure)
	}
	if tx == nil {
		s.logger.Warn("payment accepted with an unreadable response",
			zap.String("checkout_id", sess.ID),
			zap.Error(payErr),
		)
		tx = &domain.Transaction{Status: domain.PaymentStatusUnknown}
	}
	return s.succeed(ctx, sess, c, summary, tx)
}

func (s *Service) transactionRequest(sess *Session, c *domain.Cart, summary pricing.OrderSummary) backend.TransactionRequest {
	items := make([]backend.TransactionItem, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, backend.TransactionItem{
			ProductID: it.ProductID,
			VariantID: it.VariantID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	req := backend.TransactionRequest{
		IdempotencyKey: sess.IdempotencyKey,
		Items:          items,
		ShippingMethod: sess.ShippingMethod,
		PaymentMethod:  sess.PaymentMethod,
		Notes:          sess.Notes,
		DiscountCode:   sess.DiscountCode,
		Subtotal:       summary.Subtotal,
		Shipping:       summary.Shipping,
		Tax:            summary.Tax,
		Discount:       summary.Discount,
		Total:          summary.Total,
	}
	if sess.Mode == ModeAuthenticated {
		req.AddressID = sess.SavedAddressID
	} else {
		req.ShippingAddress = sess.GuestAddress.trimmed().fields()
	}
	return req
}

// paymentFailure classifies the transaction outcome from the backend's
// decline code only; message text is shown but never inspected. Only an
// error answer or an explicit decline fails the checkout. Any other 2xx
// places the order, including a pending or unrecognised payment status and
// a body that could not be read; the payment status is kept on the session.
func paymentFailure(tx *domain.Transaction, err error) *Failure {
	if apiErr, ok := backend.AsAPIError(err); ok {
		return NewFailure(ParseDeclineCode(apiErr.Code), apiErr.Message)
	}
	if errors.Is(err, backend.ErrDecode) {
		return nil
	}
	if err != nil {
		return NewFailure(DeclineProcessingError, err.Error())
	}
	if tx.Status == domain.PaymentStatusDeclined {
		return NewFailure(ParseDeclineCode(tx.DeclineCode), tx.Message)
	}
	return nil
}

func (s *Service) fail(ctx context.Context, sess *Session, failure *Failure) (*View, error) {
	sess.Failure = failure
	if err := sess.transition(StatusFailed, s.now()); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, sess); err != nil {
		return nil, err
	}
	s.logger.Info("payment declined",
		zap.String("checkout_id", sess.ID),
		zap.String("decline_code", string(failure.Code)),
	)
	return s.view(ctx, sess)
}

func (s *Service) succeed(ctx context.Context, sess *Session, c *domain.Cart, summary pricing.OrderSummary, tx *domain.Transaction) (*View, error) {
	sess.TransactionID = tx.ID
	sess.OrderID = tx.OrderID
	sess.InvoiceURL = tx.InvoiceURL
	sess.PaymentStatus = tx.Status
	if err := sess.transition(StatusSuccess, s.now()); err != nil {
		return nil, err
	}

	items := make([]events.OrderCompletedItem, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, events.OrderCompletedItem{
			ProductID: it.ProductID,
			VariantID: it.VariantID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	event, err := events.NewOrderCompletedEvent(events.OrderCompleted{
		CheckoutID:    sess.ID,
		SessionID:     sess.SessionID,
		TransactionID: tx.ID,
		OrderID:       tx.OrderID,
		Items:         items,
		Total:         summary.Total,
		CompletedAt:   sess.UpdatedAt,
	})
	if err != nil {
		return nil, err
	}
	// The cart is cleared even when the session cannot be recorded: the
	// charge has been made.
	if err := s.repo.Complete(ctx, sess, event); err != nil {
		s.logger.Error("failed to record order event, saving checkout without it",
			zap.String("checkout_id", sess.ID),
			zap.Error(err),
		)
		if err := s.repo.Save(ctx, sess); err != nil {
			s.clearCart(ctx, sess)
			return nil, fmt.Errorf("record completed checkout: %w", err)
		}
	}
	s.clearCart(ctx, sess)

	s.logger.Info("checkout completed",
		zap.String("checkout_id", sess.ID),
		zap.String("transaction_id", tx.ID),
	)
	return s.view(ctx, sess)
}

func (s *Service) clearCart(ctx context.Context, sess *Session) {
	if err := s.carts.Clear(ctx, sess.SessionID); err != nil {
		s.logger.Error("failed to clear cart after checkout",
			zap.String("checkout_id", sess.ID),
			zap.Error(err),
		)
	}
}

// Retry returns a failed checkout to the payment step. A checkout left in
// processing, because its outcome could not be recorded, can be retried once
// the payment timeout has passed since it started.
func (s *Service) Retry(ctx context.Context, sessionID string) (*View, error) {
	return s.withSession(ctx, sessionID, func(sess *Session) error {
		if sess.Status == StatusProcessing {
			if s.now().Sub(sess.UpdatedAt) < s.cfg.PaymentTimeout {
				return ErrPaymentInFlight
			}
			s.logger.Warn("abandoning checkout stuck in processing",
				zap.String("checkout_id", sess.ID),
				zap.Time("since", sess.UpdatedAt),
			)
			if err := sess.transition(StatusFailed, s.now()); err != nil {
				return err
			}
		}
		if err := sess.transition(StatusInProgress, s.now()); err != nil {
			return err
		}
		sess.Step = StepPayment
		sess.Failure = nil
		sess.Placed = nil
		sess.IdempotencyKey = ""
		return nil
	})
}

// Reset discards the session so the next call starts a fresh checkout.
func (s *Service) Reset(ctx context.Context, sessionID string) error {
	unlock := s.locks.Lock(sessionID)
	defer unlock()
	return s.repo.Delete(ctx, sessionID)
}
