package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/brianfeister/rawelegancecreations/models"
	aws_pkg "github.com/brianfeister/rawelegancecreations/pkg/aws"

	"go.uber.org/zap"
)

// MailingList upserts subscribers by email.
type MailingList interface {
	// GetSubscriber returns nil when the email is not on the list.
	GetSubscriber(ctx context.Context, email string) (*models.Subscriber, error)
	UpsertSubscriber(ctx context.Context, sub models.Subscriber) (*models.Subscriber, error)
}

// FulfillmentService reacts to verified webhook events.
type FulfillmentService interface {
	Handle(ctx context.Context, event *models.WebhookEvent) *ServiceError
}

// FulfillmentSettings holds the mailing-list groups and the topic that
// marketing events go to. An empty topic disables publishing.
type FulfillmentSettings struct {
	AbandonedCartGroupID  string
	VIPSubscribersGroupID string
	MarketingTopicARN     string
}

type eventHandler func(ctx context.Context, event *models.WebhookEvent) *ServiceError

type fulfillmentServiceImpl struct {
	provider  PaymentProvider
	list      MailingList
	snsClient aws_pkg.EventPublisher
	settings  FulfillmentSettings
	metrics   MetricsRecorder
	logger    *zap.Logger
	handlers  map[models.WebhookEventType]eventHandler
}

func NewFulfillmentService(
	provider PaymentProvider,
	list MailingList,
	snsClient aws_pkg.EventPublisher,
	settings FulfillmentSettings,
	metrics MetricsRecorder,
	logger *zap.Logger,
) FulfillmentService {
	s := &fulfillmentServiceImpl{
		provider:  provider,
		list:      list,
		snsClient: snsClient,
		settings:  settings,
		metrics:   metrics,
		logger:    logger,
	}
	s.handlers = map[models.WebhookEventType]eventHandler{
		models.EventCheckoutSessionExpired: s.handleSessionExpired,
		models.EventCustomerCreated:        s.handleCustomerCreated,
	}
	return s
}

// Handle dispatches event by type. Unknown types are acknowledged.
func (s *fulfillmentServiceImpl) Handle(ctx context.Context, event *models.WebhookEvent) *ServiceError {
	handler, ok := s.handlers[event.Type]
	if !ok {
		s.logger.Info("Unhandled webhook event type",
			zap.String("event_type", string(event.Type)),
			zap.String("event_id", event.ID),
		)
		return nil
	}

	s.logger.Info("Processing webhook",
		zap.String("event_type", string(event.Type)),
		zap.String("event_id", event.ID),
	)
	if svcErr := handler(ctx, event); svcErr != nil {
		return svcErr
	}
	s.record(ctx, aws_pkg.MetricWebhooksProcessed, string(event.Type))
	return nil
}

func (s *fulfillmentServiceImpl) handleSessionExpired(ctx context.Context, event *models.WebhookEvent) *ServiceError {
	ev := event.SessionExpired
	if ev == nil || ev.Email == "" {
		s.logger.Info("Expired session has no email, skipping", zap.String("event_id", event.ID))
		return nil
	}

	// Empty values are left out so a redelivered event cannot blank a
	// field saved earlier.
	fields := map[string]string{}
	if ev.RecoveryURL != "" {
		fields[models.FieldAbandonedCartURL] = ev.RecoveryURL
	}

	productID, err := s.provider.FirstLineItemProductID(ctx, ev.SessionID)
	if err != nil {
		return s.fail("list_line_items", event, err, "Failed to fetch session line items")
	}
	if productID != "" {
		product, err := s.provider.GetProduct(ctx, productID)
		if err != nil {
			return s.fail("get_product", event, err, "Failed to fetch product")
		}
		if product.Name != "" {
			fields[models.FieldAbandonedCartProduct] = product.Name
		}
		if product.Image != "" {
			fields[models.FieldAbandonedCartImage] = product.Image
		}
	}

	return s.subscribe(ctx, event, ev.Email, ev.Name, s.settings.AbandonedCartGroupID, fields, models.MarketingAbandonedCartSubscribed)
}

func (s *fulfillmentServiceImpl) handleCustomerCreated(ctx context.Context, event *models.WebhookEvent) *ServiceError {
	ev := event.CustomerCreated
	if ev == nil || ev.Email == "" {
		s.logger.Info("Customer has no email, skipping", zap.String("event_id", event.ID))
		return nil
	}
	if !ev.PromotionalConsent {
		s.logger.Info("Customer has not consented to promotions, skipping",
			zap.String("event_id", event.ID),
			zap.String("customer_id", ev.CustomerID),
		)
		return nil
	}

	return s.subscribe(ctx, event, ev.Email, ev.Name, s.settings.VIPSubscribersGroupID, nil, models.MarketingVIPSubscribed)
}

// subscribe merges group into the existing membership and upserts the
// subscriber. Repeating it with the same input leaves the same state.
func (s *fulfillmentServiceImpl) subscribe(
	ctx context.Context,
	event *models.WebhookEvent,
	email, name, group string,
	fields map[string]string,
	marketingType string,
) *ServiceError {
	existing, err := s.list.GetSubscriber(ctx, email)
	if err != nil {
		return s.fail("get_subscriber", event, err, "Failed to look up subscriber")
	}

	sub := models.Subscriber{
		Email:  email,
		Name:   name,
		Status: models.SubscriberStatusActive,
		Groups: models.MergeGroups(nil, group),
		Fields: fields,
	}
	if existing != nil {
		if sub.Name == "" {
			sub.Name = existing.Name
		}
		sub.Groups = models.MergeGroups(existing.Groups, group)
	}

	saved, err := s.list.UpsertSubscriber(ctx, sub)
	if err != nil {
		return s.fail("upsert_subscriber", event, err, "Failed to upsert subscriber")
	}
	if saved == nil {
		saved = &sub
	}

	s.record(ctx, aws_pkg.MetricSubscribersUpserted, string(event.Type))
	s.logger.Info("Subscriber upserted",
		zap.String("event_id", event.ID),
		zap.String("subscriber_id", saved.ID),
		zap.Strings("groups", sub.Groups),
	)

	s.publishMarketingEvent(ctx, models.MarketingEvent{
		Type:            marketingType,
		Email:           email,
		Groups:          sub.Groups,
		SourceEventID:   event.ID,
		SourceEventType: string(event.Type),
		Timestamp:       time.Now().UTC(),
	})
	return nil
}

func (s *fulfillmentServiceImpl) fail(operation string, event *models.WebhookEvent, err error, message string) *ServiceError {
	s.logger.Error(message,
		zap.String("operation", operation),
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.Error(err),
	)
	return upstreamError(message, err)
}

// publishMarketingEvent publishes a marketing event to SNS. Failures are
// logged only; the subscriber is already saved.
func (s *fulfillmentServiceImpl) publishMarketingEvent(ctx context.Context, event models.MarketingEvent) {
	if s.snsClient == nil || s.settings.MarketingTopicARN == "" {
		s.logger.Debug("SNS not configured, skipping marketing event", zap.String("type", event.Type))
		return
	}

	eventBytes, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("Failed to marshal marketing event", zap.Error(err))
		return
	}

	if err := s.snsClient.PublishEvent(ctx, s.settings.MarketingTopicARN, event.Type, eventBytes); err != nil {
		s.logger.Error("Failed to publish marketing event", zap.String("type", event.Type), zap.Error(err))
		return
	}
	s.logger.Info("Published marketing event", zap.String("type", event.Type))
}

func (s *fulfillmentServiceImpl) record(ctx context.Context, metric, eventType string) {
	if s.metrics == nil {
		return
	}
	dims := map[string]string{"Service": "storefront-service", "EventType": eventType}
	if err := s.metrics.RecordCount(ctx, metric, dims); err != nil {
		s.logger.Warn("Failed to record metric", zap.String("metric", metric), zap.Error(err))
	}
}
