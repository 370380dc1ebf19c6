package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/brianfeister/rawelegancecreations/models"
	aws_pkg "github.com/brianfeister/rawelegancecreations/pkg/aws"
	"github.com/brianfeister/rawelegancecreations/pkg/logger"
	"github.com/brianfeister/rawelegancecreations/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// WebhookParser authenticates a webhook request and decodes its event.
type WebhookParser interface {
	ParseWebhook(r *http.Request) (*models.WebhookEvent, error)
}

// WebhookController runs verify-then-dispatch for every webhook route.
// Routes differ only in the parser, which carries the route's secret.
type WebhookController struct {
	fulfillment services.FulfillmentService
	metrics     services.MetricsRecorder
	logger      *zap.Logger
}

func NewWebhookController(fulfillment services.FulfillmentService, metrics services.MetricsRecorder, logger *zap.Logger) *WebhookController {
	return &WebhookController{fulfillment: fulfillment, metrics: metrics, logger: logger}
}

// Handle returns the handler for a webhook route verified by parser. A
// handled or ignored event is answered with its data.object.
func (wc *WebhookController) Handle(route string, parser WebhookParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.ForRequest(c, wc.logger).With(zap.String("route", route))

		event, err := parser.ParseWebhook(c.Request)
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, services.ErrPayloadTooLarge) {
				status = http.StatusRequestEntityTooLarge
			}
			log.Warn("Webhook rejected", zap.String("operation", "verify_webhook"), zap.Error(err))
			wc.recordRejected(c.Request.Context(), route)
			c.JSON(status, gin.H{"error": "Webhook Error: " + err.Error()})
			return
		}

		if svcErr := wc.fulfillment.Handle(c.Request.Context(), event); svcErr != nil {
			c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
			return
		}

		body := event.Raw
		if len(body) == 0 {
			body = []byte("{}")
		}
		c.Data(http.StatusOK, "application/json; charset=utf-8", body)
	}
}

func (wc *WebhookController) recordRejected(ctx context.Context, route string) {
	if wc.metrics == nil {
		return
	}
	if err := wc.metrics.RecordCount(ctx, aws_pkg.MetricWebhooksRejected, map[string]string{"Route": route}); err != nil {
		wc.logger.Warn("Failed to record metric", zap.Error(err))
	}
}
