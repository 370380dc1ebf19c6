package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	aws_pkg "github.com/brianfeister/rawelegancecreations/pkg/aws"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	ProviderMailerLite = "mailerlite"
	ProviderMailchimp  = "mailchimp"

	// StripeSecretName is the Secrets Manager entry holding provider keys
	// when AWS_USE_SECRETS is "true".
	StripeSecretName = "storefront/STRIPE_KEYS"
)

// Config holds all configuration for the storefront service.
type Config struct {
	Port string
	Env  string

	StripeSecretKey                string
	StripePublishableKey           string
	AbandonedCheckoutWebhookSecret string
	CustomerCreatedWebhookSecret   string
	StripeMaxNetworkRetries        int64
	// StripeAPIURL points the SDK at another backend, e.g. stripe-mock.
	StripeAPIURL string

	SiteURL string

	MailingListProvider   string
	MailerLiteSecret      string
	MailchimpAPIKey       string
	MailchimpListID       string
	AbandonedCartGroupID  string
	VIPSubscribersGroupID string

	NewCustomerCouponID        string
	NewCustomerPromoCode       string
	NewCustomerPromotionCodeID string

	AllowedCountries    []string
	ShippingAmount      int64
	ShippingDisplayName string
	ShippingMinDays     int64
	ShippingMaxDays     int64
	CheckoutSessionTTL  time.Duration

	RedisURL string
	CartTTL  time.Duration

	MarketingSNSTopicARN string
	AllowedOrigins       []string
}

// Load reads a .env file when present, then the environment, applies the
// optional Secrets Manager override and validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg, err := fromEnv()
	if err != nil {
		return nil, err
	}

	if os.Getenv("AWS_USE_SECRETS") == "true" {
		ctx := context.Background()
		awsCfg, err := aws_pkg.LoadAWSConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("AWS_USE_SECRETS is set but %w", err)
		}
		if err := applySecrets(ctx, cfg, aws_pkg.NewSecretsClient(awsCfg)); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromEnv() (*Config, error) {
	cfg := &Config{
		Port:                           getEnv("PORT", "8080"),
		Env:                            getEnv("ENV", "development"),
		StripeSecretKey:                getEnv("STRIPE_SECRET_KEY", os.Getenv("GATSBY_STRIPE_SECRET_KEY")),
		StripePublishableKey:           os.Getenv("STRIPE_PUBLISHABLE_KEY"),
		AbandonedCheckoutWebhookSecret: os.Getenv("STRIPE_ABANDONED_CHECKOUT_WEBHOOK_SECRET"),
		CustomerCreatedWebhookSecret:   os.Getenv("STRIPE_CUSTOMER_CREATED_WEBHOOK_SECRET"),
		StripeAPIURL:                   os.Getenv("STRIPE_API_URL"),
		SiteURL:                        strings.TrimSuffix(os.Getenv("URL"), "/"),
		MailingListProvider:            strings.ToLower(getEnv("MAILING_LIST_PROVIDER", ProviderMailerLite)),
		MailerLiteSecret:               os.Getenv("MAILERLITE_SECRET"),
		MailchimpAPIKey:                os.Getenv("MAILCHIMP_API_KEY"),
		MailchimpListID:                os.Getenv("MAILCHIMP_LIST_ID"),
		AbandonedCartGroupID:           os.Getenv("MAIL_ABANDONED_CART_GROUP_ID"),
		VIPSubscribersGroupID:          os.Getenv("MAIL_VIP_SUBSCRIBERS_GROUP_ID"),
		NewCustomerCouponID:            os.Getenv("NEW_CUSTOMER_COUPON_ID"),
		NewCustomerPromoCode:           os.Getenv("NEW_CUSTOMER_PROMO_CODE"),
		NewCustomerPromotionCodeID:     os.Getenv("NEW_CUSTOMER_PROMOTION_CODE_ID"),
		AllowedCountries:               splitList(getEnv("CHECKOUT_ALLOWED_COUNTRIES", "US,CA")),
		ShippingDisplayName:            getEnv("SHIPPING_DISPLAY_NAME", "Standard shipping"),
		RedisURL:                       getEnv("REDIS_URL", "redis://localhost:6379/0"),
		MarketingSNSTopicARN:           os.Getenv("MARKETING_SNS_TOPIC_ARN"),
		AllowedOrigins:                 splitList(os.Getenv("ALLOWED_ORIGINS")),
	}

	if len(cfg.AllowedOrigins) == 0 && cfg.SiteURL != "" {
		cfg.AllowedOrigins = []string{cfg.SiteURL}
	}

	var err error
	if cfg.StripeMaxNetworkRetries, err = getInt("STRIPE_MAX_NETWORK_RETRIES", 2); err != nil {
		return nil, err
	}
	if cfg.ShippingAmount, err = getInt("SHIPPING_AMOUNT", 800); err != nil {
		return nil, err
	}
	if cfg.ShippingMinDays, err = getInt("SHIPPING_MIN_DAYS", 5); err != nil {
		return nil, err
	}
	if cfg.ShippingMaxDays, err = getInt("SHIPPING_MAX_DAYS", 7); err != nil {
		return nil, err
	}
	if cfg.CheckoutSessionTTL, err = getDuration("CHECKOUT_SESSION_TTL", 2*time.Hour); err != nil {
		return nil, err
	}
	if cfg.CartTTL, err = getDuration("CART_TTL", 7*24*time.Hour); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applySecrets overrides provider credentials with the values stored in
// the StripeSecretName JSON document. Missing keys keep the env value.
func applySecrets(ctx context.Context, cfg *Config, sm aws_pkg.SecretGetter) error {
	raw, err := sm.GetSecret(ctx, StripeSecretName)
	if err != nil {
		return fmt.Errorf("read secret %s: %w", StripeSecretName, err)
	}
	if raw == "" {
		return nil
	}

	var m map[string]string
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return fmt.Errorf("invalid secret %s: %w", StripeSecretName, err)
	}

	overrides := map[string]*string{
		"STRIPE_SECRET_KEY":                        &cfg.StripeSecretKey,
		"STRIPE_PUBLISHABLE_KEY":                   &cfg.StripePublishableKey,
		"STRIPE_ABANDONED_CHECKOUT_WEBHOOK_SECRET": &cfg.AbandonedCheckoutWebhookSecret,
		"STRIPE_CUSTOMER_CREATED_WEBHOOK_SECRET":   &cfg.CustomerCreatedWebhookSecret,
		"MAILERLITE_SECRET":                        &cfg.MailerLiteSecret,
		"MAILCHIMP_API_KEY":                        &cfg.MailchimpAPIKey,
	}
	for key, field := range overrides {
		if v, ok := m[key]; ok && v != "" {
			*field = v
		}
	}
	return nil
}

var validate = validator.New()

// Validate reports the first missing or inconsistent setting.
func (c *Config) Validate() error {
	if c.StripeSecretKey == "" || c.StripePublishableKey == "" {
		return fmt.Errorf("missing required environment variables: STRIPE_SECRET_KEY, STRIPE_PUBLISHABLE_KEY")
	}
	if c.SiteURL == "" {
		return fmt.Errorf("missing required environment variable: URL")
	}
	if err := validate.Var(c.SiteURL, "http_url"); err != nil {
		return fmt.Errorf("URL must be an absolute http(s) URL: %q", c.SiteURL)
	}
	if len(c.AllowedCountries) == 0 {
		return fmt.Errorf("CHECKOUT_ALLOWED_COUNTRIES must name at least one country")
	}
	if err := validate.Var(c.AllowedCountries, "dive,iso3166_1_alpha2"); err != nil {
		return fmt.Errorf("CHECKOUT_ALLOWED_COUNTRIES must be ISO 3166-1 alpha-2 codes: %v", c.AllowedCountries)
	}
	if c.ShippingAmount < 0 {
		return fmt.Errorf("SHIPPING_AMOUNT must not be negative")
	}
	if c.ShippingMinDays < 1 || c.ShippingMaxDays < c.ShippingMinDays {
		return fmt.Errorf("invalid shipping window %d-%d days", c.ShippingMinDays, c.ShippingMaxDays)
	}
	if c.CheckoutSessionTTL < 30*time.Minute || c.CheckoutSessionTTL > 24*time.Hour {
		return fmt.Errorf("CHECKOUT_SESSION_TTL must be between 30m and 24h")
	}
	for _, o := range c.AllowedOrigins {
		if o == "*" {
			continue
		}
		if err := validate.Var(o, "http_url"); err != nil {
			return fmt.Errorf("ALLOWED_ORIGINS entries must be absolute http(s) origins or \"*\": %q", o)
		}
	}

	switch c.MailingListProvider {
	case ProviderMailerLite:
		if c.MailerLiteSecret == "" {
			return fmt.Errorf("MAILERLITE_SECRET is required for the mailerlite provider")
		}
	case ProviderMailchimp:
		if c.MailchimpListID == "" {
			return fmt.Errorf("MAILCHIMP_LIST_ID is required for the mailchimp provider")
		}
		if c.MailchimpAPIKey == "" {
			return fmt.Errorf("MAILCHIMP_API_KEY is required for the mailchimp provider")
		}
	default:
		return fmt.Errorf("unknown MAILING_LIST_PROVIDER %q", c.MailingListProvider)
	}
	if c.AbandonedCartGroupID == "" || c.VIPSubscribersGroupID == "" {
		return fmt.Errorf("missing required environment variables: MAIL_ABANDONED_CART_GROUP_ID, MAIL_VIP_SUBSCRIBERS_GROUP_ID")
	}
	return nil
}

// IsProduction reports whether ENV is "production".
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int64) (int64, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(val string) []string {
	var out []string
	for _, v := range strings.Split(val, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
