package wallet

import (
	"context"

	"go.uber.org/zap"

	"github.com/fjod/storefront/internal/domain"
)

type Backend interface {
	Redeemer
	WalletSummary(ctx context.Context) (*domain.WalletSummary, error)
	WalletTransactions(ctx context.Context, page, limit int) (*domain.WalletTransactionPage, error)
}

type Service struct {
	backend Backend
	logger  *zap.Logger
}

func NewService(be Backend, logger *zap.Logger) *Service {
	return &Service{backend: be, logger: logger}
}

func (s *Service) Summary(ctx context.Context) (*domain.WalletSummary, error) {
	return s.backend.WalletSummary(ctx)
}

func (s *Service) Transactions(ctx context.Context, page, limit int) (*domain.WalletTransactionPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.backend.WalletTransactions(ctx, page, limit)
}

// RedeemOutcome is the dialog state plus the balance to show next to it.
type RedeemOutcome struct {
	Flow       *RedeemFlow           `json:"flow"`
	Summary    *domain.WalletSummary `json:"summary,omitempty"`
	Reconciled bool                  `json:"reconciled"`
}

// Redeem submits code and, on success, shows the balance from the redeem
// payload right away, then replaces it with a fresh summary. If the summary
// cannot be fetched the payload balance stays.
func (s *Service) Redeem(ctx context.Context, code string) (*RedeemOutcome, error) {
	flow := NewRedeemFlow()
	if err := flow.Submit(ctx, s.backend, code); err != nil {
		return &RedeemOutcome{Flow: flow}, err
	}
	out := &RedeemOutcome{Flow: flow}
	if flow.State != StateSuccess {
		return out, nil
	}

	out.Summary = optimisticSummary(flow.Result)

	fresh, err := s.backend.WalletSummary(ctx)
	if err != nil {
		s.logger.Warn("wallet reconciliation failed, keeping redeem balance", zap.Error(err))
		return out, nil
	}
	if out.Summary.Balance.Valid && fresh.Balance.Valid && !out.Summary.Balance.Value.Equal(fresh.Balance.Value) {
		s.logger.Info("wallet balance corrected by backend",
			zap.String("optimistic", out.Summary.Balance.Value.String()),
			zap.String("authoritative", fresh.Balance.Value.String()),
		)
	}
	out.Summary = fresh
	out.Reconciled = true
	return out, nil
}

func optimisticSummary(r *domain.RedeemResult) *domain.WalletSummary {
	return &domain.WalletSummary{Balance: r.NewBalance}
}
