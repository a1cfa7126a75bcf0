package dynamodb

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Client is the subset of the DynamoDB API the stores use.
// *dynamodb.Client satisfies it; tests substitute a mock.
type Client interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	BatchGetItem(ctx context.Context, params *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error)
}

var _ Client = (*dynamodb.Client)(nil)

// BreakerConfig holds circuit breaker thresholds for the store client
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig returns the default store breaker thresholds
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:             "dynamodb",
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// BreakerClient fails fast with gobreaker.ErrOpenState while the store is unhealthy
type BreakerClient struct {
	inner Client
	cb    *gobreaker.CircuitBreaker
}

var _ Client = (*BreakerClient)(nil)

// NewBreakerClient wraps inner with a circuit breaker
func NewBreakerClient(inner Client, cfg BreakerConfig, logger *zap.Logger) *BreakerClient {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		IsSuccessful: func(err error) bool {
			// a lost conditional write means the store answered
			return err == nil || isConditionalCheckFailed(err)
		},
	})
	return &BreakerClient{inner: inner, cb: cb}
}

// State exposes the breaker state for readiness checks
func (c *BreakerClient) State() gobreaker.State {
	return c.cb.State()
}

func execute[T any](cb *gobreaker.CircuitBreaker, fn func() (*T, error)) (*T, error) {
	out, err := cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		return nil, err
	}
	return out.(*T), nil
}

func (c *BreakerClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	return execute(c.cb, func() (*dynamodb.PutItemOutput, error) {
		return c.inner.PutItem(ctx, params, optFns...)
	})
}

func (c *BreakerClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return execute(c.cb, func() (*dynamodb.GetItemOutput, error) {
		return c.inner.GetItem(ctx, params, optFns...)
	})
}

func (c *BreakerClient) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	return execute(c.cb, func() (*dynamodb.QueryOutput, error) {
		return c.inner.Query(ctx, params, optFns...)
	})
}

func (c *BreakerClient) BatchGetItem(ctx context.Context, params *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error) {
	return execute(c.cb, func() (*dynamodb.BatchGetItemOutput, error) {
		return c.inner.BatchGetItem(ctx, params, optFns...)
	})
}
