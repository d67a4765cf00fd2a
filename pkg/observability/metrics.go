package observability

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// Metrics publishes application metrics to CloudWatch. A nil client
// turns every method into a no-op, which keeps local development quiet.
type Metrics struct {
	namespace string
	client    *cloudwatch.Client
	logger    *zap.Logger
}

// NewMetrics creates a new metrics instance
func NewMetrics(namespace string, client *cloudwatch.Client, logger *zap.Logger) *Metrics {
	return &Metrics{
		namespace: namespace,
		client:    client,
		logger:    logger,
	}
}

// RecordCommand records execution metrics for a command
func (m *Metrics) RecordCommand(ctx context.Context, command string, duration time.Duration, success bool) {
	if m.client == nil {
		return
	}

	status := "success"
	if !success {
		status = "failure"
	}

	dimensions := []types.Dimension{
		{Name: aws.String("Command"), Value: aws.String(command)},
		{Name: aws.String("Status"), Value: aws.String(status)},
	}

	m.put(ctx, []types.MetricDatum{
		{
			MetricName: aws.String("CommandDuration"),
			Dimensions: dimensions,
			Value:      aws.Float64(float64(duration.Milliseconds())),
			Unit:       types.StandardUnitMilliseconds,
			Timestamp:  aws.Time(time.Now()),
		},
		{
			MetricName: aws.String("CommandCount"),
			Dimensions: dimensions,
			Value:      aws.Float64(1),
			Unit:       types.StandardUnitCount,
			Timestamp:  aws.Time(time.Now()),
		},
	})
}

// RecordLatency records latency for any named operation
func (m *Metrics) RecordLatency(ctx context.Context, operation string, latency time.Duration) {
	if m.client == nil {
		return
	}

	m.put(ctx, []types.MetricDatum{
		{
			MetricName: aws.String("OperationLatency"),
			Dimensions: []types.Dimension{
				{Name: aws.String("Operation"), Value: aws.String(operation)},
			},
			Value:     aws.Float64(float64(latency.Milliseconds())),
			Unit:      types.StandardUnitMilliseconds,
			Timestamp: aws.Time(time.Now()),
		},
	})
}

// RecordDataSourceSwitch records a flip of the synthetic data toggle
func (m *Metrics) RecordDataSourceSwitch(ctx context.Context, syntheticEnabled bool) {
	if m.client == nil {
		return
	}

	source := "real"
	if syntheticEnabled {
		source = "synthetic"
	}

	m.put(ctx, []types.MetricDatum{
		{
			MetricName: aws.String("DataSourceSwitch"),
			Dimensions: []types.Dimension{
				{Name: aws.String("Source"), Value: aws.String(source)},
			},
			Value:     aws.Float64(1),
			Unit:      types.StandardUnitCount,
			Timestamp: aws.Time(time.Now()),
		},
	})
}

// RecordError records an error occurrence by type
func (m *Metrics) RecordError(ctx context.Context, errorType, errorCode string) {
	if m.client == nil {
		return
	}

	m.put(ctx, []types.MetricDatum{
		{
			MetricName: aws.String("Errors"),
			Dimensions: []types.Dimension{
				{Name: aws.String("ErrorType"), Value: aws.String(errorType)},
				{Name: aws.String("ErrorCode"), Value: aws.String(errorCode)},
			},
			Value:     aws.Float64(1),
			Unit:      types.StandardUnitCount,
			Timestamp: aws.Time(time.Now()),
		},
	})
}

func (m *Metrics) put(ctx context.Context, data []types.MetricDatum) {
	_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: data,
	})
	if err != nil && m.logger != nil {
		m.logger.Warn("failed to publish metrics", zap.Error(err))
	}
}
