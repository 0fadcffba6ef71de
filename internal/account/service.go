// Package account serves the shopper's profile and saved shipping addresses.
package account

import (
	"context"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/keylock"
)

type Backend interface {
	Profile(ctx context.Context) (*domain.Profile, error)
	ShippingAddresses(ctx context.Context) ([]domain.Address, error)
	ReplaceShippingAddresses(ctx context.Context, addrs []domain.Address) ([]domain.Address, error)
}

type Service struct {
	backend Backend
	locks   *keylock.Locks
}

func NewService(be Backend) *Service {
	return &Service{backend: be, locks: keylock.New()}
}

func (s *Service) Profile(ctx context.Context) (*domain.Profile, error) {
	return s.backend.Profile(ctx)
}

// Addresses fetches the saved addresses. Extra default flags from the backend
// are dropped so the book has at most one default.
func (s *Service) Addresses(ctx context.Context) (*domain.AddressBook, error) {
	addrs, err := s.backend.ShippingAddresses(ctx)
	if err != nil {
		return nil, err
	}
	return domain.NewAddressBook(addrs), nil
}

// SetDefault makes id the only default address and stores the list.
func (s *Service) SetDefault(ctx context.Context, owner, id string) (*domain.AddressBook, error) {
	return s.edit(ctx, owner, func(b *domain.AddressBook) error {
		return b.SetDefault(id)
	})
}

// Remove deletes a non-default address and stores the list.
func (s *Service) Remove(ctx context.Context, owner, id string) (*domain.AddressBook, error) {
	return s.edit(ctx, owner, func(b *domain.AddressBook) error {
		return b.Remove(id)
	})
}

// Add stores a new address. The first address of a book becomes the default.
func (s *Service) Add(ctx context.Context, owner string, a domain.Address) (*domain.AddressBook, error) {
	return s.edit(ctx, owner, func(b *domain.AddressBook) error {
		if _, ok := b.Default(); !ok {
			a.IsDefault = true
		}
		b.Add(a)
		return nil
	})
}

// edit reads the current list, applies fn and writes the whole list back.
// Edits by one owner are serialized.
func (s *Service) edit(ctx context.Context, owner string, fn func(*domain.AddressBook) error) (*domain.AddressBook, error) {
	unlock := s.locks.Lock(owner)
	defer unlock()

	book, err := s.Addresses(ctx)
	if err != nil {
		return nil, err
	}
	if err := fn(book); err != nil {
		return nil, err
	}

	stored, err := s.backend.ReplaceShippingAddresses(ctx, book.All())
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return book, nil
	}
	return domain.NewAddressBook(stored), nil
}
