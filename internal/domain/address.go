package domain

import "errors"

var (
	ErrAddressNotFound      = errors.New("address not found")
	ErrDefaultAddressDelete = errors.New("default address cannot be removed, choose another default first")
)

// Address is a saved shipping address. City, State and Parish carry the
// canton, provincia and parroquia of the shop's address format.
type Address struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	Parish     string `json:"parish"`
	PostalCode string `json:"postalCode"`
	Phone      string `json:"phone"`
	IsDefault  bool   `json:"isDefault"`
}

// AddressBook holds a user's addresses with at most one default.
type AddressBook struct {
	addresses []Address
}

// NewAddressBook copies addrs. If the backend sent several defaults only the
// first one keeps the flag.
func NewAddressBook(addrs []Address) *AddressBook {
	b := &AddressBook{addresses: make([]Address, 0, len(addrs))}
	seenDefault := false
	for _, a := range addrs {
		if a.IsDefault {
			if seenDefault {
				a.IsDefault = false
			}
			seenDefault = true
		}
		b.addresses = append(b.addresses, a)
	}
	return b
}

func (b *AddressBook) All() []Address {
	out := make([]Address, len(b.addresses))
	copy(out, b.addresses)
	return out
}

func (b *AddressBook) Get(id string) (Address, bool) {
	for _, a := range b.addresses {
		if a.ID == id {
			return a, true
		}
	}
	return Address{}, false
}

func (b *AddressBook) Default() (Address, bool) {
	for _, a := range b.addresses {
		if a.IsDefault {
			return a, true
		}
	}
	return Address{}, false
}

// Add appends a; a default address takes the flag from any other.
func (b *AddressBook) Add(a Address) {
	if a.IsDefault {
		b.clearDefault()
	}
	b.addresses = append(b.addresses, a)
}

func (b *AddressBook) SetDefault(id string) error {
	idx := b.index(id)
	if idx < 0 {
		return ErrAddressNotFound
	}
	b.clearDefault()
	b.addresses[idx].IsDefault = true
	return nil
}

// Remove deletes a non-default address.
func (b *AddressBook) Remove(id string) error {
	idx := b.index(id)
	if idx < 0 {
		return ErrAddressNotFound
	}
	if b.addresses[idx].IsDefault {
		return ErrDefaultAddressDelete
	}
	b.addresses = append(b.addresses[:idx], b.addresses[idx+1:]...)
	return nil
}

func (b *AddressBook) index(id string) int {
	for i, a := range b.addresses {
		if a.ID == id {
			return i
		}
	}
	return -1
}

func (b *AddressBook) clearDefault() {
	for i := range b.addresses {
		b.addresses[i].IsDefault = false
	}
}
