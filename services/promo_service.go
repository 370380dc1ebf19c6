package services

import (
	"context"
	"strings"

	"github.com/brianfeister/rawelegancecreations/models"
	aws_pkg "github.com/brianfeister/rawelegancecreations/pkg/aws"

	"go.uber.org/zap"
)

// PromoService issues single-use promotion codes to new customers.
type PromoService interface {
	IssueNewCustomerCode(ctx context.Context, customerID string) (*models.PromotionCode, *ServiceError)
}

type promoServiceImpl struct {
	provider PaymentProvider
	couponID string
	code     string
	metrics  MetricsRecorder
	logger   *zap.Logger
}

// NewPromoService binds issued codes to couponID. A non-empty code is used
// as the customer-facing string; otherwise the provider generates one.
func NewPromoService(provider PaymentProvider, couponID, code string, metrics MetricsRecorder, logger *zap.Logger) PromoService {
	return &promoServiceImpl{
		provider: provider,
		couponID: couponID,
		code:     code,
		metrics:  metrics,
		logger:   logger,
	}
}

func (s *promoServiceImpl) IssueNewCustomerCode(ctx context.Context, customerID string) (*models.PromotionCode, *ServiceError) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return nil, badRequest("customer.id is required", nil)
	}
	if s.couponID == "" {
		s.logger.Error("New customer coupon is not configured", zap.String("operation", "create_promotion_code"))
		return nil, &ServiceError{StatusCode: 500, Message: "New customer coupon is not configured"}
	}

	promo, err := s.provider.CreatePromotionCode(ctx, s.couponID, customerID, s.code)
	if err != nil {
		s.logger.Error("Promotion code creation failed",
			zap.String("operation", "create_promotion_code"),
			zap.String("customer_id", customerID),
			zap.Error(err),
		)
		return nil, upstreamError("Failed to create promotion code", err)
	}

	if s.metrics != nil {
		if err := s.metrics.RecordCount(ctx, aws_pkg.MetricPromotionCodesIssued, map[string]string{"Service": "storefront-service"}); err != nil {
			s.logger.Warn("Failed to record metric", zap.Error(err))
		}
	}
	s.logger.Info("Promotion code issued",
		zap.String("promotion_code_id", promo.ID),
		zap.String("customer_id", customerID),
	)
	return promo, nil
}
