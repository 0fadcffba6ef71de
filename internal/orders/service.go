// Package orders serves the shopper's order history.
package orders

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/fjod/storefront/internal/backend"
	"github.com/fjod/storefront/internal/domain"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 50
)

type Backend interface {
	Orders(ctx context.Context, f backend.OrderFilter) (*domain.OrderPage, error)
	Order(ctx context.Context, id string) (*domain.Order, error)
	OrderTransaction(ctx context.Context, orderID string) (*domain.Transaction, error)
}

// Detail is an order with its payment record, when the backend has one.
type Detail struct {
	Order       *domain.Order       `json:"order"`
	Transaction *domain.Transaction `json:"transaction,omitempty"`
}

type Service struct {
	backend Backend
	logger  *zap.Logger
}

func NewService(be Backend, logger *zap.Logger) *Service {
	return &Service{backend: be, logger: logger}
}

// List returns one page of orders. Status filters are normalized the same
// way statuses are read, so "Enviado" and "shipped" select the same orders.
func (s *Service) List(ctx context.Context, f backend.OrderFilter) (*domain.OrderPage, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > MaxPageSize {
		f.Limit = DefaultPageSize
	}
	if f.Status != "" {
		status := domain.NormalizeOrderStatus(f.Status)
		if status == domain.OrderStatusUnknown {
			return nil, domain.NewDomainError(domain.CodeInvalidInput, "unknown order status "+f.Status)
		}
		f.Status = string(status)
	}

	page, err := s.backend.Orders(ctx, f)
	if err != nil {
		return nil, err
	}
	if page.Orders == nil {
		page.Orders = []domain.Order{}
	}
	return page, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Order, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}
	return s.backend.Order(ctx, id)
}

func (s *Service) Transaction(ctx context.Context, orderID string) (*domain.Transaction, error) {
	if orderID == "" {
		return nil, domain.ErrInvalidInput
	}
	return s.backend.OrderTransaction(ctx, orderID)
}

// Detail loads the order and its transaction. A missing transaction is not
// an error; any other transaction failure is logged and the order returned
// without it.
func (s *Service) Detail(ctx context.Context, id string) (*Detail, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	d := &Detail{Order: o}

	tx, err := s.backend.OrderTransaction(ctx, id)
	switch {
	case err == nil:
		d.Transaction = tx
		if o.InvoiceURL == "" {
			o.InvoiceURL = tx.InvoiceURL
		}
	case isNotFound(err):
	default:
		s.logger.Warn("order transaction unavailable", zap.String("order_id", id), zap.Error(err))
	}
	return d, nil
}

func isNotFound(err error) bool {
	apiErr, ok := backend.AsAPIError(err)
	return ok && apiErr.Status == http.StatusNotFound
}
