// Package cart keeps the shopper's cart as a per-session snapshot.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/keylock"
	"github.com/fjod/storefront/internal/storage"
)

var (
	ErrItemNotFound = errors.New("item not found in cart")
	ErrInvalidItem  = errors.New("cart item requires a product id")
)

// Store loads, mutates and persists carts. Every mutation is written back
// before it returns; writes for one session never interleave.
type Store struct {
	snapshots storage.SnapshotStore
	logger    *zap.Logger
	sfg       singleflight.Group
	locks     *keylock.Locks
	now       func() time.Time
}

func NewStore(snapshots storage.SnapshotStore, logger *zap.Logger) *Store {
	return &Store{
		snapshots: snapshots,
		logger:    logger,
		locks:     keylock.New(),
		now:       time.Now,
	}
}

// Get rehydrates the cart for a session. A missing or unreadable snapshot
// yields an empty cart. Concurrent reads of one session share a single load.
func (s *Store) Get(ctx context.Context, sessionID string) (*domain.Cart, error) {
	v, err, _ := s.sfg.Do(sessionID, func() (interface{}, error) {
		return s.load(ctx, sessionID)
	})
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	return s.decode(sessionID, v.([]byte)), nil
}

func (s *Store) load(ctx context.Context, sessionID string) ([]byte, error) {
	data, err := s.snapshots.Load(ctx, sessionID)
	if errors.Is(err, storage.ErrSnapshotMiss) {
		return nil, nil
	}
	return data, err
}

func (s *Store) decode(sessionID string, data []byte) *domain.Cart {
	empty := &domain.Cart{SessionID: sessionID, CreatedAt: s.now(), UpdatedAt: s.now()}
	if len(data) == 0 {
		return empty
	}

	var c domain.Cart
	if err := json.Unmarshal(data, &c); err != nil {
		s.logger.Warn("discarding unreadable cart snapshot",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return empty
	}
	c.SessionID = sessionID
	return &c
}

func (s *Store) Add(ctx context.Context, sessionID string, item domain.CartItem) (*domain.Cart, error) {
	if item.ProductID == "" {
		return nil, ErrInvalidItem
	}
	return s.mutate(ctx, sessionID, func(c *domain.Cart, now time.Time) error {
		c.Add(item, now)
		return nil
	})
}

// UpdateQuantity sets the quantity of a line; zero or less removes it.
func (s *Store) UpdateQuantity(ctx context.Context, sessionID, itemID string, qty int) (*domain.Cart, error) {
	return s.mutate(ctx, sessionID, func(c *domain.Cart, now time.Time) error {
		if !c.UpdateQuantity(itemID, qty, now) {
			return ErrItemNotFound
		}
		return nil
	})
}

// Remove drops a line. Removing an absent line is not an error.
func (s *Store) Remove(ctx context.Context, sessionID, itemID string) (*domain.Cart, error) {
	return s.mutate(ctx, sessionID, func(c *domain.Cart, now time.Time) error {
		c.Remove(itemID, now)
		return nil
	})
}

// Clear empties the cart and erases its snapshot.
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	if err := s.snapshots.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	s.logger.Debug("cart cleared", zap.String("session_id", sessionID))
	return nil
}

func (s *Store) mutate(ctx context.Context, sessionID string, fn func(*domain.Cart, time.Time) error) (*domain.Cart, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	// Writers read the snapshot directly: a shared in-flight read may predate
	// the previous write.
	data, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	c := s.decode(sessionID, data)
	if err := fn(c, s.now()); err != nil {
		return nil, err
	}

	data, err = json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal cart failed: %w", err)
	}
	if err := s.snapshots.Save(ctx, sessionID, data); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return c, nil
}

// ClearPlaced empties the cart of a completed order unless the shopper has
// touched it after placedAt. It reports whether the cart was cleared.
func (s *Store) ClearPlaced(ctx context.Context, sessionID string, placedAt time.Time) (bool, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	data, err := s.load(ctx, sessionID)
	if err != nil {
		return false, fmt.Errorf("load cart: %w", err)
	}
	if data == nil {
		return false, nil
	}
	if c := s.decode(sessionID, data); c.UpdatedAt.After(placedAt) {
		return false, nil
	}
	if err := s.snapshots.Delete(ctx, sessionID); err != nil {
		return false, fmt.Errorf("clear cart: %w", err)
	}
	return true, nil
}
