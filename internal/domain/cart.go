package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Cart struct {
	SessionID string     `json:"sessionId"`
	Items     []CartItem `json:"items"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type CartItem struct {
	ID           string          `json:"id"`
	ProductID    string          `json:"productId"`
	VariantID    string          `json:"variantId"`
	Name         string          `json:"name"`
	Image        string          `json:"image,omitempty"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	VariantLabel string          `json:"variantLabel,omitempty"`
	Quantity     int             `json:"quantity"`
	AddedAt      time.Time       `json:"addedAt"`
}

// ItemID builds the composite line id for a product variant.
func ItemID(productID, variantID string) string {
	if variantID == "" {
		return productID
	}
	return productID + ":" + variantID
}

// Add merges item into the cart. A line with the same composite id gets its
// quantity bumped by one; otherwise the item is appended with quantity >= 1.
func (c *Cart) Add(item CartItem, now time.Time) {
	if item.ProductID != "" {
		item.ID = ItemID(item.ProductID, item.VariantID)
	}
	for i := range c.Items {
		if c.Items[i].ID == item.ID {
			c.Items[i].Quantity++
			c.UpdatedAt = now
			return
		}
	}
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	item.AddedAt = now
	c.Items = append(c.Items, item)
	c.UpdatedAt = now
}

// UpdateQuantity sets the quantity of a line; qty <= 0 drops the line.
// It reports whether the line existed.
func (c *Cart) UpdateQuantity(id string, qty int, now time.Time) bool {
	for i := range c.Items {
		if c.Items[i].ID != id {
			continue
		}
		if qty <= 0 {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
		} else {
			c.Items[i].Quantity = qty
		}
		c.UpdatedAt = now
		return true
	}
	return false
}

func (c *Cart) Remove(id string, now time.Time) bool {
	return c.UpdateQuantity(id, 0, now)
}

func (c *Cart) Clear(now time.Time) {
	c.Items = nil
	c.UpdatedAt = now
}

func (c *Cart) Find(id string) (CartItem, bool) {
	for _, item := range c.Items {
		if item.ID == id {
			return item, true
		}
	}
	return CartItem{}, false
}

// Count is the number of units across all lines.
func (c *Cart) Count() int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// ItemIDs lists the line ids in cart order.
func (c *Cart) ItemIDs() []string {
	ids := make([]string, 0, len(c.Items))
	for _, item := range c.Items {
		ids = append(ids, item.ID)
	}
	return ids
}
