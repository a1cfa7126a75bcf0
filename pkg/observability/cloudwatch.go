package observability

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

const (
	// putMetricBatch stays under the PutMetricData per-request datum limit
	putMetricBatch = 500
	// maxBufferedDatums caps memory when Flush is never called
	maxBufferedDatums = 5000
)

// CloudWatchClient is the subset of the CloudWatch API the recorder uses
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchMetrics buffers observations and sends them on Flush. Under Lambda
// there is nothing to scrape, so the entry point flushes after each invocation.
type CloudWatchMetrics struct {
	namespace string
	client    CloudWatchClient
	logger    *zap.Logger

	mu      sync.Mutex
	pending []types.MetricDatum
	dropped int
}

// NewCloudWatchMetrics creates a recorder publishing under namespace
func NewCloudWatchMetrics(namespace string, client CloudWatchClient, logger *zap.Logger) *CloudWatchMetrics {
	return &CloudWatchMetrics{
		namespace: namespace,
		client:    client,
		logger:    logger,
	}
}

// RecordHTTPRequest records one served request
func (m *CloudWatchMetrics) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	dims := dimensions("Method", method, "Route", route, "Status", strconv.Itoa(status))
	m.add(
		datum("HTTPRequests", 1, types.StandardUnitCount, dims),
		datum("HTTPLatency", milliseconds(duration), types.StandardUnitMilliseconds, dims[:2]),
	)
}

// RecordStoreOperation records one store call
func (m *CloudWatchMetrics) RecordStoreOperation(operation string, duration time.Duration, err error) {
	dims := dimensions("Operation", operation, "Status", storeStatus(err))
	m.add(
		datum("StoreOperations", 1, types.StandardUnitCount, dims),
		datum("StoreLatency", milliseconds(duration), types.StandardUnitMilliseconds, dims[:1]),
	)
}

// RecordLibrary records one library assembly
func (m *CloudWatchMetrics) RecordLibrary(candidates, entries int, partial bool) {
	m.add(
		datum("LibraryRequests", 1, types.StandardUnitCount, dimensions("Partial", strconv.FormatBool(partial))),
		datum("LibraryCandidates", float64(candidates), types.StandardUnitCount, nil),
	)
}

// Pending reports how many datums wait for the next Flush
func (m *CloudWatchMetrics) Pending() int {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Flush sends everything buffered. Failures are logged and the batch is
// discarded; metrics never fail a request.
func (m *CloudWatchMetrics) Flush(ctx context.Context) {
	if m == nil {
		return
	}
	m.mu.Lock()
	pending, dropped := m.pending, m.dropped
	m.pending, m.dropped = nil, 0
	m.mu.Unlock()

	if dropped > 0 {
		m.logger.Warn("Dropped metrics over the buffer cap", zap.Int("dropped", dropped))
	}

	for start := 0; start < len(pending); start += putMetricBatch {
		end := start + putMetricBatch
		if end > len(pending) {
			end = len(pending)
		}
		_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(m.namespace),
			MetricData: pending[start:end],
		})
		if err != nil {
			m.logger.Warn("Failed to send metrics",
				zap.String("namespace", m.namespace),
				zap.Int("datums", end-start),
				zap.Error(err))
		}
	}
}

func (m *CloudWatchMetrics) add(data ...types.MetricDatum) {
	m.mu.Lock()
	defer m.mu.Unlock()
	room := maxBufferedDatums - len(m.pending)
	if room < len(data) {
		if room < 0 {
			room = 0
		}
		m.dropped += len(data) - room
		data = data[:room]
	}
	m.pending = append(m.pending, data...)
}

func datum(name string, value float64, unit types.StandardUnit, dims []types.Dimension) types.MetricDatum {
	return types.MetricDatum{
		MetricName: aws.String(name),
		Dimensions: dims,
		Value:      aws.Float64(value),
		Unit:       unit,
		Timestamp:  aws.Time(time.Now()),
	}
}

// dimensions takes name, value pairs
func dimensions(pairs ...string) []types.Dimension {
	dims := make([]types.Dimension, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		dims = append(dims, types.Dimension{Name: aws.String(pairs[i]), Value: aws.String(pairs[i+1])})
	}
	return dims
}

func milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
