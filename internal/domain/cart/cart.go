package cart

import (
	"github.com/example/luxejewel-storefront/internal/domain/product"
	"github.com/shopspring/decimal"
)

// Item is one cart line. A product appears at most once per cart.
type Item struct {
	Product  product.Product `json:"product"`
	Quantity int             `json:"quantity"`
}

// Subtotal is the unit price multiplied by the quantity.
func (i Item) Subtotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart mirrors the backend's authoritative cart for one user.
type Cart struct {
	Items []Item `json:"items"`
}

// Empty returns a cart with no lines.
func Empty() Cart {
	return Cart{Items: []Item{}}
}

func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Total is the sum of price × quantity over all lines.
func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// ItemCount is the sum of quantities over all lines.
func (c Cart) ItemCount() int {
	count := 0
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// Find returns the line holding productID.
func (c Cart) Find(productID string) (Item, bool) {
	for _, item := range c.Items {
		if item.Product.ID == productID {
			return item, true
		}
	}
	return Item{}, false
}

// Clone returns a copy whose item slice is not shared with c.
func (c Cart) Clone() Cart {
	items := make([]Item, len(c.Items))
	copy(items, c.Items)
	return Cart{Items: items}
}
