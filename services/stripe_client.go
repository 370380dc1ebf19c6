package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/brianfeister/rawelegancecreations/models"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/client"
)

// PaymentProvider is the subset of the payment provider the checkout,
// fulfillment and promo flows depend on.
type PaymentProvider interface {
	// FindCustomerByEmail returns nil when no customer has that exact email.
	FindCustomerByEmail(ctx context.Context, email string) (*models.Customer, error)
	CreateCustomer(ctx context.Context, email string, metadata map[string]string) (*models.Customer, error)
	CreateCheckoutSession(ctx context.Context, opts models.SessionOptions) (*models.CheckoutSession, error)
	// FirstLineItemProductID returns "" when the session has no line items.
	FirstLineItemProductID(ctx context.Context, sessionID string) (string, error)
	GetProduct(ctx context.Context, productID string) (*models.ProductSummary, error)
	CreatePromotionCode(ctx context.Context, couponID, customerID, code string) (*models.PromotionCode, error)
}

// StripeOptions configures the Stripe API client.
type StripeOptions struct {
	SecretKey         string
	MaxNetworkRetries int64
	// APIURL overrides the API base URL, e.g. for stripe-mock.
	APIURL string
}

type StripeService struct {
	sc *client.API
}

// NewStripeService builds a client bound to its own backend so the package
// level stripe.Key is never touched.
func NewStripeService(opts StripeOptions) *StripeService {
	backendConfig := &stripe.BackendConfig{
		MaxNetworkRetries: stripe.Int64(opts.MaxNetworkRetries),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelError},
	}
	if opts.APIURL != "" {
		backendConfig.URL = stripe.String(opts.APIURL)
	}

	sc := &client.API{}
	sc.Init(opts.SecretKey, &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, backendConfig),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, backendConfig),
	})
	return &StripeService{sc: sc}
}

func (s *StripeService) FindCustomerByEmail(ctx context.Context, email string) (*models.Customer, error) {
	params := &stripe.CustomerListParams{Email: stripe.String(email)}
	params.Context = ctx
	params.Limit = stripe.Int64(1)

	iter := s.sc.Customers.List(params)
	if iter.Next() {
		return toCustomer(iter.Customer()), nil
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return nil, nil
}

func (s *StripeService) CreateCustomer(ctx context.Context, email string, metadata map[string]string) (*models.Customer, error) {
	params := &stripe.CustomerParams{Email: stripe.String(email)}
	params.Context = ctx
	params.SetIdempotencyKey(uuid.NewString())
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	c, err := s.sc.Customers.New(params)
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	return toCustomer(c), nil
}

func (s *StripeService) CreateCheckoutSession(ctx context.Context, opts models.SessionOptions) (*models.CheckoutSession, error) {
	if opts.PromotionCodeID != "" && opts.AllowPromotionCodes {
		return nil, errors.New("create checkout session: a discount and promotion code entry are mutually exclusive")
	}

	params := &stripe.CheckoutSessionParams{
		Mode:                     stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes:       stripe.StringSlice([]string{"card"}),
		BillingAddressCollection: stripe.String(string(stripe.CheckoutSessionBillingAddressCollectionRequired)),
		ShippingAddressCollection: &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice(opts.AllowedCountries),
		},
		ConsentCollection: &stripe.CheckoutSessionConsentCollectionParams{
			Promotions: stripe.String(string(stripe.CheckoutSessionConsentCollectionPromotionsAuto)),
		},
		AutomaticTax: &stripe.CheckoutSessionAutomaticTaxParams{Enabled: stripe.Bool(true)},
		SuccessURL:   stripe.String(opts.SuccessURL),
		CancelURL:    stripe.String(opts.CancelURL),
		ExpiresAt:    stripe.Int64(opts.ExpiresAt.Unix()),
		AfterExpiration: &stripe.CheckoutSessionAfterExpirationParams{
			Recovery: &stripe.CheckoutSessionAfterExpirationRecoveryParams{
				Enabled:             stripe.Bool(true),
				AllowPromotionCodes: stripe.Bool(true),
			},
		},
		LineItems:       toStripeLineItems(opts.LineItems),
		ShippingOptions: []*stripe.CheckoutSessionShippingOptionParams{toStripeShipping(opts.Shipping)},
	}
	params.Context = ctx

	switch {
	case opts.CustomerID != "":
		params.Customer = stripe.String(opts.CustomerID)
		// Automatic tax needs the collected address stored on the customer.
		params.CustomerUpdate = &stripe.CheckoutSessionCustomerUpdateParams{
			Address:  stripe.String("auto"),
			Shipping: stripe.String("auto"),
		}
	case opts.CustomerEmail != "":
		params.CustomerEmail = stripe.String(opts.CustomerEmail)
	}

	if opts.PromotionCodeID != "" {
		params.Discounts = []*stripe.CheckoutSessionDiscountParams{
			{PromotionCode: stripe.String(opts.PromotionCodeID)},
		}
	} else if opts.AllowPromotionCodes {
		params.AllowPromotionCodes = stripe.Bool(true)
	}

	sess, err := s.sc.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return &models.CheckoutSession{
		ID:        sess.ID,
		URL:       sess.URL,
		ExpiresAt: time.Unix(sess.ExpiresAt, 0).UTC(),
	}, nil
}

func (s *StripeService) FirstLineItemProductID(ctx context.Context, sessionID string) (string, error) {
	params := &stripe.CheckoutSessionListLineItemsParams{Session: stripe.String(sessionID)}
	params.Context = ctx
	params.Limit = stripe.Int64(1)

	iter := s.sc.CheckoutSessions.ListLineItems(params)
	if iter.Next() {
		li := iter.LineItem()
		if li.Price == nil || li.Price.Product == nil {
			return "", nil
		}
		return li.Price.Product.ID, nil
	}
	if err := iter.Err(); err != nil {
		return "", fmt.Errorf("list line items for session %s: %w", sessionID, err)
	}
	return "", nil
}

func (s *StripeService) GetProduct(ctx context.Context, productID string) (*models.ProductSummary, error) {
	params := &stripe.ProductParams{}
	params.Context = ctx

	p, err := s.sc.Products.Get(productID, params)
	if err != nil {
		return nil, fmt.Errorf("get product %s: %w", productID, err)
	}
	summary := &models.ProductSummary{ID: p.ID, Name: p.Name}
	if len(p.Images) > 0 {
		summary.Image = p.Images[0]
	}
	return summary, nil
}

func (s *StripeService) CreatePromotionCode(ctx context.Context, couponID, customerID, code string) (*models.PromotionCode, error) {
	params := &stripe.PromotionCodeParams{
		Coupon:         stripe.String(couponID),
		Customer:       stripe.String(customerID),
		MaxRedemptions: stripe.Int64(1),
	}
	if code != "" {
		params.Code = stripe.String(code)
	}
	params.Context = ctx

	pc, err := s.sc.PromotionCodes.New(params)
	if err != nil {
		return nil, fmt.Errorf("create promotion code: %w", err)
	}

	out := &models.PromotionCode{
		ID:             pc.ID,
		Code:           pc.Code,
		MaxRedemptions: pc.MaxRedemptions,
		Active:         pc.Active,
	}
	if pc.Coupon != nil {
		out.CouponID = pc.Coupon.ID
	}
	if pc.Customer != nil {
		out.CustomerID = pc.Customer.ID
	}
	return out, nil
}

func toCustomer(c *stripe.Customer) *models.Customer {
	return &models.Customer{
		ID:       c.ID,
		Email:    c.Email,
		Name:     c.Name,
		Metadata: c.Metadata,
	}
}

func toStripeLineItems(items []models.CheckoutLineItem) []*stripe.CheckoutSessionLineItemParams {
	out := make([]*stripe.CheckoutSessionLineItemParams, 0, len(items))
	for _, item := range items {
		productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name:     stripe.String(item.ProductName),
			Metadata: item.Metadata,
		}
		if item.Description != "" {
			productData.Description = stripe.String(item.Description)
		}
		if len(item.Images) > 0 {
			productData.Images = stripe.StringSlice(item.Images)
		}

		out = append(out, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(item.Currency),
				UnitAmount:  stripe.Int64(item.UnitAmount),
				TaxBehavior: stripe.String(item.TaxBehavior),
				ProductData: productData,
			},
			Quantity: stripe.Int64(item.Quantity),
		})
	}
	return out
}

func toStripeShipping(opt models.ShippingOption) *stripe.CheckoutSessionShippingOptionParams {
	return &stripe.CheckoutSessionShippingOptionParams{
		ShippingRateData: &stripe.CheckoutSessionShippingOptionShippingRateDataParams{
			Type:        stripe.String("fixed_amount"),
			DisplayName: stripe.String(opt.DisplayName),
			TaxBehavior: stripe.String(TaxBehaviorExclusive),
			FixedAmount: &stripe.CheckoutSessionShippingOptionShippingRateDataFixedAmountParams{
				Amount:   stripe.Int64(opt.Amount),
				Currency: stripe.String(opt.Currency),
			},
			DeliveryEstimate: &stripe.CheckoutSessionShippingOptionShippingRateDataDeliveryEstimateParams{
				Minimum: &stripe.CheckoutSessionShippingOptionShippingRateDataDeliveryEstimateMinimumParams{
					Unit:  stripe.String("business_day"),
					Value: stripe.Int64(opt.MinDays),
				},
				Maximum: &stripe.CheckoutSessionShippingOptionShippingRateDataDeliveryEstimateMaximumParams{
					Unit:  stripe.String("business_day"),
					Value: stripe.Int64(opt.MaxDays),
				},
			},
		},
	}
}
