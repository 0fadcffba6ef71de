// Package wishlist toggles saved products optimistically and reconciles the
// local view with the backend list.
package wishlist

import (
	"context"
	"errors"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/keylock"
)

var ErrProductRequired = errors.New("wishlist toggle requires a product id")

type Backend interface {
	Wishlist(ctx context.Context) ([]domain.Product, error)
	AddToWishlist(ctx context.Context, productID string) error
	RemoveFromWishlist(ctx context.Context, productID string) error
}

// ToggleResult is the wishlist after a toggle. Reconciled is false when the
// authoritative list could not be fetched and the optimistic view stands.
type ToggleResult struct {
	ProductIDs []string `json:"productIds"`
	Saved      bool     `json:"saved"`
	Reconciled bool     `json:"reconciled"`
}

// Service keeps one local view per owner (the shopper's session).
type Service struct {
	backend Backend
	logger  *zap.Logger
	locks   *keylock.Locks

	mu    sync.RWMutex
	views map[string][]string
}

func NewService(be Backend, logger *zap.Logger) *Service {
	return &Service{
		backend: be,
		logger:  logger,
		locks:   keylock.New(),
		views:   make(map[string][]string),
	}
}

// List fetches the authoritative wishlist and refreshes the local view.
func (s *Service) List(ctx context.Context, owner string) ([]domain.Product, error) {
	items, err := s.backend.Wishlist(ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Product{}
	}
	s.setView(owner, productIDs(items))
	return items, nil
}

// Contains reports whether productID is in the owner's local view.
func (s *Service) Contains(owner, productID string) bool {
	return slices.Contains(s.view(owner), productID)
}

// Toggle adds productID when absent and removes it otherwise. The local view
// changes before the backend call and is reverted if the call fails.
func (s *Service) Toggle(ctx context.Context, owner, productID string) (*ToggleResult, error) {
	if productID == "" {
		return nil, ErrProductRequired
	}

	unlock := s.locks.Lock(owner)
	defer unlock()

	before, known := s.lookup(owner)
	if !known {
		items, err := s.backend.Wishlist(ctx)
		if err != nil {
			return nil, err
		}
		before = productIDs(items)
	}

	saved := !slices.Contains(before, productID)
	var optimistic []string
	if saved {
		optimistic = append(slices.Clone(before), productID)
	} else {
		optimistic = slices.DeleteFunc(slices.Clone(before), func(id string) bool { return id == productID })
	}
	s.setView(owner, optimistic)

	var err error
	if saved {
		err = s.backend.AddToWishlist(ctx, productID)
	} else {
		err = s.backend.RemoveFromWishlist(ctx, productID)
	}
	if err != nil {
		s.setView(owner, before)
		return nil, err
	}

	res := &ToggleResult{ProductIDs: optimistic, Saved: saved}
	items, err := s.backend.Wishlist(ctx)
	if err != nil {
		s.logger.Warn("wishlist reconciliation failed, keeping local view",
			zap.String("product_id", productID), zap.Error(err))
		return res, nil
	}

	authoritative := productIDs(items)
	if !sameSet(authoritative, optimistic) {
		s.logger.Info("wishlist corrected by backend",
			zap.Strings("local", optimistic), zap.Strings("backend", authoritative))
	}
	s.setView(owner, authoritative)
	res.ProductIDs = authoritative
	res.Saved = slices.Contains(authoritative, productID)
	res.Reconciled = true
	return res, nil
}

// Forget drops the owner's local view.
func (s *Service) Forget(owner string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.views, owner)
}

func (s *Service) lookup(owner string) ([]string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids, ok := s.views[owner]
	return slices.Clone(ids), ok
}

func (s *Service) view(owner string) []string {
	ids, _ := s.lookup(owner)
	return ids
}

func (s *Service) setView(owner string, ids []string) {
	if ids == nil {
		ids = []string{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.views[owner] = slices.Clone(ids)
}

func productIDs(items []domain.Product) []string {
	ids := make([]string, 0, len(items))
	for _, p := range items {
		ids = append(ids, p.ID)
	}
	return ids
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	x, y := slices.Clone(a), slices.Clone(b)
	slices.Sort(x)
	slices.Sort(y)
	return slices.Equal(x, y)
}
