package aws

import (
	"context"
	"errors"
	"fmt"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// EventTypeAttribute is the SNS message attribute carrying the event type,
// so subscriptions can filter on it without parsing the body.
const EventTypeAttribute = "event_type"

var ErrNoTopic = errors.New("no topic configured")

// EventPublisher publishes typed JSON events to a topic.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topicArn, eventType string, payload []byte) error
}

type snsAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type SNSClient struct {
	api snsAPI
}

func NewSNSClient(cfg sdkaws.Config) *SNSClient {
	return &SNSClient{api: sns.NewFromConfig(cfg)}
}

// PublishEvent sends payload to topicArn tagged with eventType.
func (s *SNSClient) PublishEvent(ctx context.Context, topicArn, eventType string, payload []byte) error {
	if topicArn == "" {
		return ErrNoTopic
	}
	if _, err := s.api.Publish(ctx, newPublishInput(topicArn, eventType, payload)); err != nil {
		return fmt.Errorf("publish %s to %s: %w", eventType, topicArn, err)
	}
	return nil
}

func newPublishInput(topicArn, eventType string, payload []byte) *sns.PublishInput {
	in := &sns.PublishInput{
		TopicArn: sdkaws.String(topicArn),
		Message:  sdkaws.String(string(payload)),
	}
	if eventType != "" {
		in.MessageAttributes = map[string]types.MessageAttributeValue{
			EventTypeAttribute: {
				DataType:    sdkaws.String("String"),
				StringValue: sdkaws.String(eventType),
			},
		}
	}
	return in
}
