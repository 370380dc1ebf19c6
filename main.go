package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brianfeister/rawelegancecreations/cart"
	"github.com/brianfeister/rawelegancecreations/config"
	"github.com/brianfeister/rawelegancecreations/controllers"
	"github.com/brianfeister/rawelegancecreations/mailinglist"
	"github.com/brianfeister/rawelegancecreations/middleware"
	"github.com/brianfeister/rawelegancecreations/models"
	aws_pkg "github.com/brianfeister/rawelegancecreations/pkg/aws"
	"github.com/brianfeister/rawelegancecreations/pkg/logger"
	"github.com/brianfeister/rawelegancecreations/repository"
	"github.com/brianfeister/rawelegancecreations/routes"
	"github.com/brianfeister/rawelegancecreations/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const serviceName = "storefront-service"

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Storefront] failed to load config: %v", err)
	}

	var cloudWatch *aws_pkg.CloudWatchLogsClient
	if cw, err := aws_pkg.NewCloudWatchLogsClient(ctx, serviceName); err != nil {
		log.Printf("[Storefront] CloudWatch Logs disabled: %v", err)
	} else if cw.IsEnabled() {
		cloudWatch = cw
	}

	var zapLogger *zap.Logger
	if cloudWatch != nil {
		zapLogger, err = logger.New(cfg.Env, cloudWatch)
	} else {
		zapLogger, err = logger.New(cfg.Env, nil)
	}
	if err != nil {
		log.Fatalf("[Storefront] failed to initialize logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// AWS is optional outside production: without it marketing events are
	// not published and metrics are not recorded.
	var snsClient aws_pkg.EventPublisher
	if awsCfg, err := aws_pkg.LoadAWSConfig(ctx); err != nil {
		zapLogger.Warn("AWS config unavailable, marketing events disabled", zap.Error(err))
	} else {
		snsClient = aws_pkg.NewSNSClient(awsCfg)
	}

	metricsClient, err := aws_pkg.NewMetricsClient(ctx)
	if err != nil {
		zapLogger.Warn("Failed to initialize metrics client", zap.Error(err))
	}

	mailingList, err := mailinglist.NewFromConfig(cfg)
	if err != nil {
		zapLogger.Fatal("Failed to initialize mailing list client", zap.Error(err))
	}

	stripeSvc := services.NewStripeService(services.StripeOptions{
		SecretKey:         cfg.StripeSecretKey,
		MaxNetworkRetries: cfg.StripeMaxNetworkRetries,
		APIURL:            cfg.StripeAPIURL,
	})

	checkoutSvc := services.NewCheckoutService(stripeSvc, services.CheckoutSettings{
		PublishableKey:   cfg.StripePublishableKey,
		SiteURL:          cfg.SiteURL,
		AllowedCountries: cfg.AllowedCountries,
		Shipping: models.ShippingOption{
			DisplayName: cfg.ShippingDisplayName,
			Amount:      cfg.ShippingAmount,
			Currency:    services.DefaultCurrency,
			MinDays:     cfg.ShippingMinDays,
			MaxDays:     cfg.ShippingMaxDays,
		},
		SessionTTL:                 cfg.CheckoutSessionTTL,
		NewCustomerPromotionCodeID: cfg.NewCustomerPromotionCodeID,
	}, metricsClient, zapLogger)

	fulfillmentSvc := services.NewFulfillmentService(stripeSvc, mailingList, snsClient, services.FulfillmentSettings{
		AbandonedCartGroupID:  cfg.AbandonedCartGroupID,
		VIPSubscribersGroupID: cfg.VIPSubscribersGroupID,
		MarketingTopicARN:     cfg.MarketingSNSTopicARN,
	}, metricsClient, zapLogger)

	promoSvc := services.NewPromoService(stripeSvc, cfg.NewCustomerCouponID, cfg.NewCustomerPromoCode, metricsClient, zapLogger)

	ctrl := routes.Controllers{
		Checkout:                controllers.NewCheckoutController(checkoutSvc),
		Promo:                   controllers.NewPromoController(promoSvc),
		Webhook:                 controllers.NewWebhookController(fulfillmentSvc, metricsClient, zapLogger),
		AbandonedCheckoutParser: services.NewWebhookVerifier(cfg.AbandonedCheckoutWebhookSecret),
		CustomerCreatedParser:   services.NewWebhookVerifier(cfg.CustomerCreatedWebhookSecret),
	}

	// The cart API is only served when Redis is reachable at startup.
	var cartHealth controllers.Pinger
	redisCtx, cancelRedis := context.WithTimeout(ctx, 5*time.Second)
	redisClient, err := repository.NewRedisClient(redisCtx, cfg.RedisURL)
	cancelRedis()
	if err != nil {
		zapLogger.Warn("Redis unavailable, cart routes disabled", zap.Error(err))
	} else {
		defer func() { _ = redisClient.Close() }()
		cartRepo := repository.NewCartRepository(redisClient, cfg.CartTTL)
		ctrl.Cart = controllers.NewCartController(cart.NewStore(cartRepo), checkoutSvc, metricsClient, zapLogger)
		cartHealth = cartRepo
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(zapLogger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middleware.MetricsMiddleware(metricsClient, serviceName))
	r.Use(middleware.Timeout(30 * time.Second))

	r.GET("/health", controllers.Health(serviceName, cartHealth))

	// 100 requests per minute per IP with a burst of 50.
	stopCleanup := make(chan struct{})
	limiter := middleware.NewRateLimiter(rate.Every(time.Minute/100), 50, 10*time.Minute)
	limiter.StartCleanup(stopCleanup)

	routes.RegisterRoutes(r, ctrl, middleware.RateLimitMiddleware(limiter))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zapLogger.Info("Storefront service listening",
			zap.String("port", cfg.Port),
			zap.String("env", cfg.Env),
			zap.String("mailing_list_provider", cfg.MailingListProvider),
			zap.Bool("cart_enabled", ctrl.Cart != nil),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	zapLogger.Info("Shutting down gracefully...")
	close(stopCleanup)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Shutdown error", zap.Error(err))
	}
	zapLogger.Info("Server shutdown complete")
}
