package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/brianfeister/rawelegancecreations/models"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/webhook"
)

// MaxWebhookBodyBytes caps the webhook payload read from the request.
const MaxWebhookBodyBytes = 65536

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrMalformedEvent   = errors.New("malformed webhook event")
	ErrPayloadTooLarge  = errors.New("webhook payload too large")
)

// WebhookVerifier authenticates provider webhooks signed with one secret.
type WebhookVerifier struct {
	secret string
}

func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: secret}
}

// ParseWebhook reads the raw body of r and verifies it. The body is
// consumed; the signature covers the exact bytes received.
func (v *WebhookVerifier) ParseWebhook(r *http.Request) (*models.WebhookEvent, error) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, MaxWebhookBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrMalformedEvent, err)
	}
	if len(payload) > MaxWebhookBodyBytes {
		return nil, ErrPayloadTooLarge
	}
	return v.Verify(payload, r.Header.Get("Stripe-Signature"))
}

// Verify checks the signature header against payload and decodes the event.
// The API version of the event is not enforced because the dashboard
// endpoint version can differ from the one the SDK is pinned to.
func (v *WebhookVerifier) Verify(payload []byte, sigHeader string) (*models.WebhookEvent, error) {
	if v.secret == "" {
		return nil, fmt.Errorf("%w: no signing secret configured", ErrInvalidSignature)
	}

	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, v.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return DecodeEvent(event)
}

// DecodeEvent converts a verified provider event into the typed event the
// fulfillment pipeline branches on. Unknown types decode to an event with
// neither payload set.
func DecodeEvent(event stripe.Event) (*models.WebhookEvent, error) {
	if event.Data == nil {
		return nil, fmt.Errorf("%w: event %s has no data", ErrMalformedEvent, event.ID)
	}

	out := &models.WebhookEvent{
		ID:   event.ID,
		Type: models.WebhookEventType(event.Type),
		Raw:  event.Data.Raw,
	}

	switch out.Type {
	case models.EventCheckoutSessionExpired:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("%w: checkout session: %v", ErrMalformedEvent, err)
		}
		if sess.ID == "" {
			return nil, fmt.Errorf("%w: checkout session without id", ErrMalformedEvent)
		}
		expired := &models.SessionExpiredEvent{SessionID: sess.ID, Email: sess.CustomerEmail}
		if sess.CustomerDetails != nil {
			if sess.CustomerDetails.Email != "" {
				expired.Email = sess.CustomerDetails.Email
			}
			expired.Name = sess.CustomerDetails.Name
		}
		if sess.AfterExpiration != nil && sess.AfterExpiration.Recovery != nil {
			expired.RecoveryURL = sess.AfterExpiration.Recovery.URL
		}
		out.SessionExpired = expired

	case models.EventCustomerCreated:
		var cust stripe.Customer
		if err := json.Unmarshal(event.Data.Raw, &cust); err != nil {
			return nil, fmt.Errorf("%w: customer: %v", ErrMalformedEvent, err)
		}
		if cust.ID == "" {
			return nil, fmt.Errorf("%w: customer without id", ErrMalformedEvent)
		}
		out.CustomerCreated = &models.CustomerCreatedEvent{
			CustomerID:         cust.ID,
			Email:              cust.Email,
			Name:               cust.Name,
			PromotionalConsent: cust.Metadata[models.MetadataPromotionalConsent] == models.ConsentYes,
		}
	}
	return out, nil
}
