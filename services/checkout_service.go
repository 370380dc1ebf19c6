package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/brianfeister/rawelegancecreations/models"
	aws_pkg "github.com/brianfeister/rawelegancecreations/pkg/aws"

	"go.uber.org/zap"
)

// MetricsRecorder records business counters. *aws_pkg.MetricsClient
// satisfies it and is a no-op when disabled or nil.
type MetricsRecorder interface {
	RecordCount(ctx context.Context, metricName string, dimensions map[string]string) error
}

// CheckoutService creates hosted checkout sessions from a cart.
type CheckoutService interface {
	CreateSession(ctx context.Context, req *models.CheckoutSessionRequest) (*models.CheckoutSessionResponse, *ServiceError)
}

// CheckoutSettings are the static inputs of every session.
type CheckoutSettings struct {
	PublishableKey   string
	SiteURL          string
	AllowedCountries []string
	Shipping         models.ShippingOption
	SessionTTL       time.Duration
	// NewCustomerPromotionCodeID is attached as the session discount when
	// the checkout created the customer. Empty disables the discount.
	NewCustomerPromotionCodeID string
	// Now defaults to time.Now.
	Now func() time.Time
}

type checkoutServiceImpl struct {
	provider PaymentProvider
	settings CheckoutSettings
	metrics  MetricsRecorder
	logger   *zap.Logger
}

func NewCheckoutService(provider PaymentProvider, settings CheckoutSettings, metrics MetricsRecorder, logger *zap.Logger) CheckoutService {
	if settings.Now == nil {
		settings.Now = time.Now
	}
	if settings.SessionTTL == 0 {
		settings.SessionTTL = 2 * time.Hour
	}
	return &checkoutServiceImpl{
		provider: provider,
		settings: settings,
		metrics:  metrics,
		logger:   logger,
	}
}

// SuccessURL and CancelURL are the fixed storefront return routes.
func SuccessURL(siteURL string) string { return siteURL + "/checkout?checkout=success" }
func CancelURL(siteURL string) string  { return siteURL + "/checkout" }

func (s *checkoutServiceImpl) CreateSession(ctx context.Context, req *models.CheckoutSessionRequest) (*models.CheckoutSessionResponse, *ServiceError) {
	items, err := BuildLineItems(req.Cart)
	if err != nil {
		return nil, badRequest(err.Error(), err)
	}
	if len(items) == 0 {
		return nil, badRequest("Cart is empty", nil)
	}

	opts := models.SessionOptions{
		LineItems:        items,
		AllowedCountries: s.settings.AllowedCountries,
		Shipping:         s.settings.Shipping,
		SuccessURL:       SuccessURL(s.settings.SiteURL),
		CancelURL:        CancelURL(s.settings.SiteURL),
		ExpiresAt:        s.settings.Now().Add(s.settings.SessionTTL),
	}

	email := strings.TrimSpace(req.Email)
	if email != "" && req.Consent {
		customer, created, svcErr := s.findOrCreateCustomer(ctx, email)
		if svcErr != nil {
			return nil, svcErr
		}
		opts.CustomerID = customer.ID
		if created && s.settings.NewCustomerPromotionCodeID != "" {
			opts.PromotionCodeID = s.settings.NewCustomerPromotionCodeID
		} else {
			opts.AllowPromotionCodes = true
		}
	} else {
		opts.CustomerEmail = email
		opts.AllowPromotionCodes = true
	}

	session, err := s.provider.CreateCheckoutSession(ctx, opts)
	if err != nil {
		s.logger.Error("Checkout session creation failed",
			zap.String("operation", "create_checkout_session"),
			zap.String("customer_id", opts.CustomerID),
			zap.Error(err),
		)
		return nil, upstreamError("Failed to create checkout session", err)
	}

	s.record(ctx, aws_pkg.MetricCheckoutSessionsCreated)
	s.logger.Info("Checkout session created",
		zap.String("session_id", session.ID),
		zap.Int("line_items", len(items)),
		zap.Bool("discount_attached", opts.PromotionCodeID != ""),
	)

	return &models.CheckoutSessionResponse{
		SessionID:      session.ID,
		PublishableKey: s.settings.PublishableKey,
		URL:            session.URL,
	}, nil
}

// findOrCreateCustomer reuses the customer with this exact email. The
// provider's list endpoint may lag a fresh create by a few seconds, so two
// near-simultaneous first checkouts can still create two customers.
func (s *checkoutServiceImpl) findOrCreateCustomer(ctx context.Context, email string) (*models.Customer, bool, *ServiceError) {
	customer, err := s.provider.FindCustomerByEmail(ctx, email)
	if err != nil {
		s.logger.Error("Customer lookup failed", zap.String("operation", "find_customer"), zap.Error(err))
		return nil, false, upstreamError("Failed to look up customer", err)
	}
	if customer != nil {
		s.logger.Info("Reusing existing customer", zap.String("customer_id", customer.ID))
		return customer, false, nil
	}

	customer, err = s.provider.CreateCustomer(ctx, email, map[string]string{
		models.MetadataPromotionalConsent: models.ConsentYes,
	})
	if err != nil {
		s.logger.Error("Customer creation failed", zap.String("operation", "create_customer"), zap.Error(err))
		return nil, false, upstreamError("Failed to create customer", err)
	}
	if customer == nil || customer.ID == "" {
		err := errors.New("provider returned no customer id")
		s.logger.Error("Customer creation failed", zap.String("operation", "create_customer"), zap.Error(err))
		return nil, false, upstreamError("Failed to create customer", err)
	}

	s.record(ctx, aws_pkg.MetricCustomersCreated)
	s.logger.Info("Customer created", zap.String("customer_id", customer.ID))
	return customer, true, nil
}

func (s *checkoutServiceImpl) record(ctx context.Context, metric string) {
	if s.metrics == nil {
		return
	}
	if err := s.metrics.RecordCount(ctx, metric, map[string]string{"Service": "storefront-service"}); err != nil {
		s.logger.Warn("Failed to record metric", zap.String("metric", metric), zap.Error(err))
	}
}
