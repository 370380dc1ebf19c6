package models

import "time"

// WebhookEventType is a provider event type this service understands.
type WebhookEventType string

const (
	EventCheckoutSessionExpired WebhookEventType = "checkout.session.expired"
	EventCustomerCreated        WebhookEventType = "customer.created"
)

// WebhookEvent is a verified provider event decoded into a typed payload.
// Exactly one of SessionExpired or CustomerCreated is set for the handled
// types; both are nil for any other type.
type WebhookEvent struct {
	ID              string
	Type            WebhookEventType
	Raw             []byte // data.object as delivered
	SessionExpired  *SessionExpiredEvent
	CustomerCreated *CustomerCreatedEvent
}

// SessionExpiredEvent is the payload of checkout.session.expired.
type SessionExpiredEvent struct {
	SessionID   string
	Email       string
	Name        string
	RecoveryURL string
}

// CustomerCreatedEvent is the payload of customer.created.
type CustomerCreatedEvent struct {
	CustomerID         string
	Email              string
	Name               string
	PromotionalConsent bool
}

// Marketing event types published after a successful subscriber upsert.
const (
	MarketingAbandonedCartSubscribed = "abandoned_cart.subscribed"
	MarketingVIPSubscribed           = "vip.subscribed"
)

// MarketingEvent is published to SNS once a subscriber has been upserted.
type MarketingEvent struct {
	Type            string    `json:"type"`
	Email           string    `json:"email"`
	Groups          []string  `json:"groups"`
	SourceEventID   string    `json:"source_event_id"`
	SourceEventType string    `json:"source_event_type"`
	Timestamp       time.Time `json:"timestamp"`
}
