package aws

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

type metricsAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Datum is one data point. Dimensions are sent sorted by name.
type Datum struct {
	Name       string
	Value      float64
	Unit       types.StandardUnit
	Dimensions map[string]string
}

// Count is a datum of one occurrence.
func Count(name string, dimensions map[string]string) Datum {
	return Datum{Name: name, Value: 1, Unit: types.StandardUnitCount, Dimensions: dimensions}
}

// Latency is a datum of d in milliseconds.
func Latency(name string, d time.Duration, dimensions map[string]string) Datum {
	return Datum{Name: name, Value: float64(d.Milliseconds()), Unit: types.StandardUnitMilliseconds, Dimensions: dimensions}
}

// MetricsClient writes storefront metrics to one CloudWatch namespace. A nil
// or disabled client accepts and drops every datum.
type MetricsClient struct {
	api       metricsAPI
	namespace string
	enabled   bool
	now       func() time.Time
}

// NewMetricsClient reads CLOUDWATCH_ENABLED and CLOUDWATCH_NAMESPACE.
func NewMetricsClient(ctx context.Context) (*MetricsClient, error) {
	cfg, err := LoadAWSConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	namespace := os.Getenv("CLOUDWATCH_NAMESPACE")
	if namespace == "" {
		namespace = "Storefront"
	}
	return NewMetricsClientFromConfig(cfg, namespace, os.Getenv("CLOUDWATCH_ENABLED") == "true"), nil
}

func NewMetricsClientFromConfig(cfg aws.Config, namespace string, enabled bool) *MetricsClient {
	return newMetricsClient(cloudwatch.NewFromConfig(cfg), namespace, enabled)
}

func newMetricsClient(api metricsAPI, namespace string, enabled bool) *MetricsClient {
	return &MetricsClient{api: api, namespace: namespace, enabled: enabled, now: time.Now}
}

// Put sends data in a single PutMetricData call.
func (m *MetricsClient) Put(ctx context.Context, data ...Datum) error {
	if !m.IsEnabled() || len(data) == 0 {
		return nil
	}

	ts := aws.Time(m.now())
	metricData := make([]types.MetricDatum, 0, len(data))
	for _, d := range data {
		metricData = append(metricData, types.MetricDatum{
			MetricName: aws.String(d.Name),
			Value:      aws.Float64(d.Value),
			Unit:       d.Unit,
			Timestamp:  ts,
			Dimensions: toDimensions(d.Dimensions),
		})
	}

	if _, err := m.api.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: metricData,
	}); err != nil {
		return fmt.Errorf("put %d metric(s) to %s: %w", len(data), m.namespace, err)
	}
	return nil
}

// RecordCount records one occurrence of metricName.
func (m *MetricsClient) RecordCount(ctx context.Context, metricName string, dimensions map[string]string) error {
	return m.Put(ctx, Count(metricName, dimensions))
}

func (m *MetricsClient) IsEnabled() bool {
	return m != nil && m.enabled
}

func toDimensions(dimensions map[string]string) []types.Dimension {
	names := make([]string, 0, len(dimensions))
	for name := range dimensions {
		names = append(names, name)
	}
	sort.Strings(names)

	dims := make([]types.Dimension, 0, len(names))
	for _, name := range names {
		dims = append(dims, types.Dimension{Name: aws.String(name), Value: aws.String(dimensions[name])})
	}
	return dims
}

const (
	// HTTP metrics
	MetricHTTPRequests = "HTTPRequests"
	MetricHTTPErrors   = "HTTPErrors"
	MetricHTTPLatency  = "HTTPLatency"
	MetricHTTP4xx      = "HTTP4xxErrors"
	MetricHTTP5xx      = "HTTP5xxErrors"

	// Business metrics
	MetricCheckoutSessionsCreated = "CheckoutSessionsCreated"
	MetricCustomersCreated        = "CustomersCreated"
	MetricPromotionCodesIssued    = "PromotionCodesIssued"
	MetricWebhooksRejected        = "WebhooksRejected"
	MetricWebhooksProcessed       = "WebhooksProcessed"
	MetricSubscribersUpserted     = "SubscribersUpserted"
	MetricCartUpdates             = "CartUpdates"
)
