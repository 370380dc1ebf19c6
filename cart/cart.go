// Package cart holds the storefront cart as an immutable value and a store
// that persists every new value after a mutation.
package cart

import (
	"strings"

	"github.com/brianfeister/rawelegancecreations/models"
)

// productIDPrefix distinguishes product ids from price ids in Remove.
const productIDPrefix = "prod_"

// Cart is an ordered list of products with per-price quantities. Methods
// never modify the receiver; they return a new Cart.
type Cart struct {
	Products []models.CartProduct `json:"products"`
}

// New returns a cart holding a private copy of products.
func New(products []models.CartProduct) Cart {
	return Cart{Products: cloneProducts(products)}
}

// Add puts qty units of priceID into the cart. If the price is already in
// the cart its quantity is increased; otherwise the product (or the missing
// price on an existing product) is added.
func (c Cart) Add(product models.CartProduct, priceID string, qty int) Cart {
	next := c.clone()
	if qty <= 0 {
		return next
	}

	for i := range next.Products {
		for j := range next.Products[i].Prices {
			if next.Products[i].Prices[j].ID == priceID {
				next.Products[i].Prices[j].Quantity += qty
				return next
			}
		}
	}

	// Only priceID is being added; client-sent quantities on the other
	// prices are ignored.
	added := cloneProduct(product)
	for j := range added.Prices {
		added.Prices[j].Quantity = 0
		if added.Prices[j].ID == priceID {
			added.Prices[j].Quantity = qty
		}
	}

	for i := range next.Products {
		if next.Products[i].ID == product.ID {
			for _, p := range added.Prices {
				if p.ID == priceID {
					next.Products[i].Prices = append(next.Products[i].Prices, p)
				}
			}
			return next
		}
	}

	next.Products = append(next.Products, added)
	return next
}

// Remove drops a whole product when id is a product id, otherwise zeroes
// the quantity of the matching price. Products left without prices are
// dropped.
func (c Cart) Remove(id string) Cart {
	next := c.clone()
	if strings.HasPrefix(id, productIDPrefix) {
		kept := next.Products[:0]
		for _, p := range next.Products {
			if p.ID != id {
				kept = append(kept, p)
			}
		}
		next.Products = kept
		return next
	}

	kept := next.Products[:0]
	for _, p := range next.Products {
		for j := range p.Prices {
			if p.Prices[j].ID == id {
				p.Prices[j].Quantity = 0
			}
		}
		if len(p.Prices) > 0 {
			kept = append(kept, p)
		}
	}
	next.Products = kept
	return next
}

// SetQuantity sets the quantity of priceID. A quantity of zero keeps the
// variant in the cart but excludes it from checkout.
func (c Cart) SetQuantity(priceID string, qty int) Cart {
	next := c.clone()
	if qty < 0 {
		qty = 0
	}
	for i := range next.Products {
		for j := range next.Products[i].Prices {
			if next.Products[i].Prices[j].ID == priceID {
				next.Products[i].Prices[j].Quantity = qty
			}
		}
	}
	return next
}

// Subtotal is the sum of unit amount times quantity over all variants with
// a quantity of at least one.
func (c Cart) Subtotal() int64 {
	var subtotal int64
	for _, p := range c.Products {
		for _, price := range p.Prices {
			if price.Quantity >= 1 {
				subtotal += price.UnitAmount * int64(price.Quantity)
			}
		}
	}
	return subtotal
}

// ItemCount is the number of units across all variants.
func (c Cart) ItemCount() int {
	n := 0
	for _, p := range c.Products {
		for _, price := range p.Prices {
			if price.Quantity > 0 {
				n += price.Quantity
			}
		}
	}
	return n
}

// IsEmpty reports whether nothing in the cart would be charged.
func (c Cart) IsEmpty() bool {
	return c.ItemCount() == 0
}

// LineItems flattens active variants with a positive quantity into
// checkout line items.
func (c Cart) LineItems() []models.CartLineItem {
	var items []models.CartLineItem
	for _, p := range c.Products {
		for _, price := range p.Prices {
			if price.Quantity <= 0 || !price.Active {
				continue
			}
			name := p.Name
			if price.Nickname != "" {
				name = p.Name + " (" + price.Nickname + ")"
			}
			items = append(items, models.CartLineItem{
				ProductID:   p.ID,
				Name:        name,
				Description: p.Description,
				Images:      append([]string(nil), p.Images...),
				UnitAmount:  price.UnitAmount,
				Quantity:    int64(price.Quantity),
				PriceID:     price.ID,
			})
		}
	}
	return items
}

func (c Cart) clone() Cart {
	return Cart{Products: cloneProducts(c.Products)}
}

func cloneProducts(products []models.CartProduct) []models.CartProduct {
	if products == nil {
		return nil
	}
	out := make([]models.CartProduct, len(products))
	for i, p := range products {
		out[i] = cloneProduct(p)
	}
	return out
}

func cloneProduct(p models.CartProduct) models.CartProduct {
	p.Images = append([]string(nil), p.Images...)
	p.Prices = append([]models.CartPrice(nil), p.Prices...)
	return p
}
