package models

// CartPrice is one purchasable price variant of a product. Quantity is the
// amount of this variant currently in the cart.
type CartPrice struct {
	ID         string `json:"id"`
	Nickname   string `json:"nickname,omitempty"`
	UnitAmount int64  `json:"unit_amount"` // minor currency units
	Active     bool   `json:"active"`
	Quantity   int    `json:"quantity,omitempty"`
}

// CartProduct is a product as the storefront keeps it in the cart, with its
// price variants nested.
type CartProduct struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Images      []string    `json:"images,omitempty"`
	Prices      []CartPrice `json:"prices"`
}

// CartLineItem is a single price variant flattened out of the cart for checkout.
type CartLineItem struct {
	ProductID   string   `json:"product_id,omitempty"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Images      []string `json:"images,omitempty"`
	UnitAmount  int64    `json:"unit_amount"`
	Quantity    int64    `json:"quantity"`
	PriceID     string   `json:"price_id"`
}

// AddCartItemRequest is the payload for POST /cart/:id/items.
type AddCartItemRequest struct {
	Product  CartProduct `json:"product"`
	PriceID  string      `json:"price_id" binding:"required"`
	Quantity int         `json:"quantity" binding:"required,min=1"`
}

// SetQuantityRequest is the payload for PATCH /cart/:id/items/:priceID.
type SetQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required,min=0"`
}
