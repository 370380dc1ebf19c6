package models

import "time"

// CheckoutSessionRequest is the body accepted by POST /checkout.
type CheckoutSessionRequest struct {
	Cart    []CartLineItem `json:"cart"`
	Email   string         `json:"email,omitempty"`
	Consent bool           `json:"consent,omitempty"`
}

// CheckoutSessionResponse is returned to the storefront so it can redirect
// to the hosted checkout page.
type CheckoutSessionResponse struct {
	SessionID      string `json:"sessionId"`
	PublishableKey string `json:"publishableKey"`
	URL            string `json:"url,omitempty"`
}

// CheckoutLineItem is the normalized, provider-agnostic line item produced
// by the request builder.
type CheckoutLineItem struct {
	UnitAmount  int64             `json:"unit_amount"`
	Currency    string            `json:"currency"`
	TaxBehavior string            `json:"tax_behavior"`
	ProductName string            `json:"product_name"`
	Description string            `json:"description,omitempty"`
	Images      []string          `json:"images,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Quantity    int64             `json:"quantity"`
}

// ShippingOption is a fixed-amount shipping rate offered on the checkout page.
type ShippingOption struct {
	DisplayName string
	Amount      int64
	Currency    string
	MinDays     int64
	MaxDays     int64
}

// SessionOptions carries everything needed to create a checkout session.
// Exactly one of CustomerID or CustomerEmail is set, or neither.
// PromotionCodeID and AllowPromotionCodes are mutually exclusive.
type SessionOptions struct {
	LineItems           []CheckoutLineItem
	CustomerID          string
	CustomerEmail       string
	PromotionCodeID     string
	AllowPromotionCodes bool
	AllowedCountries    []string
	Shipping            ShippingOption
	SuccessURL          string
	CancelURL           string
	ExpiresAt           time.Time
}

// CheckoutSession is the subset of the provider's session the service uses.
type CheckoutSession struct {
	ID        string    `json:"id"`
	URL       string    `json:"url,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}
