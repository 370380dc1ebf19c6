package models

const (
	// MetadataPromotionalConsent marks customers who opted into promotions.
	MetadataPromotionalConsent = "promotional_consent"
	ConsentYes                 = "yes"
)

// Customer is a payment-provider customer.
type Customer struct {
	ID       string            `json:"id"`
	Email    string            `json:"email"`
	Name     string            `json:"name,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// HasPromotionalConsent reports whether the customer carries the consent marker.
func (c *Customer) HasPromotionalConsent() bool {
	return c != nil && c.Metadata[MetadataPromotionalConsent] == ConsentYes
}

// ProductSummary is the marketing view of a product.
type ProductSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

// PromotionCode is a redeemable code bound to a coupon.
type PromotionCode struct {
	ID             string `json:"id"`
	Code           string `json:"code"`
	CouponID       string `json:"coupon_id"`
	CustomerID     string `json:"customer_id,omitempty"`
	MaxRedemptions int64  `json:"max_redemptions"`
	Active         bool   `json:"active"`
}

// CreatePromotionRequest is the body accepted by POST /promotions/new-customer.
type CreatePromotionRequest struct {
	Customer struct {
		ID string `json:"id"`
	} `json:"customer"`
}
