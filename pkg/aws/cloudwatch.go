package aws

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
)

const (
	defaultLogGroup      = "/storefront/services"
	defaultRetentionDays = 30
	logWriteTimeout      = 5 * time.Second
)

type logsAPI interface {
	CreateLogGroup(ctx context.Context, params *cloudwatchlogs.CreateLogGroupInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogGroupOutput, error)
	PutRetentionPolicy(ctx context.Context, params *cloudwatchlogs.PutRetentionPolicyInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutRetentionPolicyOutput, error)
	CreateLogStream(ctx context.Context, params *cloudwatchlogs.CreateLogStreamInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogStreamOutput, error)
	PutLogEvents(ctx context.Context, params *cloudwatchlogs.PutLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutLogEventsOutput, error)
}

// CloudWatchLogsClient ships log entries to a CloudWatch Logs stream, one
// event per Write. It implements io.Writer so it can back a zap core.
type CloudWatchLogsClient struct {
	api     logsAPI
	group   string
	stream  string
	enabled bool

	mu sync.Mutex
}

// NewCloudWatchLogsClient reads CLOUDWATCH_ENABLED, CLOUDWATCH_LOG_GROUP and
// CLOUDWATCH_LOG_RETENTION_DAYS. When enabled it makes sure the group exists
// and opens a stream named after serviceName and the start time.
func NewCloudWatchLogsClient(ctx context.Context, serviceName string) (*CloudWatchLogsClient, error) {
	cfg, err := LoadAWSConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	group := os.Getenv("CLOUDWATCH_LOG_GROUP")
	if group == "" {
		group = defaultLogGroup
	}
	retention := int32(defaultRetentionDays)
	if v := os.Getenv("CLOUDWATCH_LOG_RETENTION_DAYS"); v != "" {
		days, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid CLOUDWATCH_LOG_RETENTION_DAYS %q: %w", v, err)
		}
		retention = int32(days)
	}

	cw := &CloudWatchLogsClient{
		api:     cloudwatchlogs.NewFromConfig(cfg),
		group:   group,
		stream:  fmt.Sprintf("%s-%d", serviceName, time.Now().Unix()),
		enabled: os.Getenv("CLOUDWATCH_ENABLED") == "true",
	}
	if cw.enabled {
		if err := cw.open(ctx, retention); err != nil {
			return nil, err
		}
	}
	return cw, nil
}

func (c *CloudWatchLogsClient) open(ctx context.Context, retentionDays int32) error {
	if _, err := c.api.CreateLogGroup(ctx, &cloudwatchlogs.CreateLogGroupInput{
		LogGroupName: aws.String(c.group),
	}); err != nil {
		var exists *types.ResourceAlreadyExistsException
		if !errors.As(err, &exists) {
			return fmt.Errorf("create log group %s: %w", c.group, err)
		}
	}

	if _, err := c.api.PutRetentionPolicy(ctx, &cloudwatchlogs.PutRetentionPolicyInput{
		LogGroupName:    aws.String(c.group),
		RetentionInDays: aws.Int32(retentionDays),
	}); err != nil {
		return fmt.Errorf("set retention on %s: %w", c.group, err)
	}

	if _, err := c.api.CreateLogStream(ctx, &cloudwatchlogs.CreateLogStreamInput{
		LogGroupName:  aws.String(c.group),
		LogStreamName: aws.String(c.stream),
	}); err != nil {
		return fmt.Errorf("create log stream %s: %w", c.stream, err)
	}
	return nil
}

// Write sends p as one log event. Delivery failures go to stderr and never
// fail the logger.
func (c *CloudWatchLogsClient) Write(p []byte) (int, error) {
	if !c.enabled {
		return len(p), nil
	}
	msg := string(bytes.TrimRight(p, "\n"))
	if msg == "" {
		return len(p), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), logWriteTimeout)
	defer cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.api.PutLogEvents(ctx, &cloudwatchlogs.PutLogEventsInput{
		LogGroupName:  aws.String(c.group),
		LogStreamName: aws.String(c.stream),
		LogEvents: []types.InputLogEvent{{
			Message:   aws.String(msg),
			Timestamp: aws.Int64(time.Now().UnixMilli()),
		}},
	}); err != nil {
		fmt.Fprintf(os.Stderr, "cloudwatch logs: %v\n", err)
	}
	return len(p), nil
}

func (c *CloudWatchLogsClient) IsEnabled() bool {
	return c != nil && c.enabled
}
