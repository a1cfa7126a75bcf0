// Package dynamodb implements the progress store, event log, story catalog
// and child directory on DynamoDB tables laid out by the schema package.
package dynamodb

import (
	"context"
	"time"

	"twinklepod/infrastructure/persistence/schema"
	pkgerrors "twinklepod/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// OperationRecorder observes every store call
type OperationRecorder interface {
	RecordStoreOperation(operation string, duration time.Duration, err error)
}

type nopRecorder struct{}

func (nopRecorder) RecordStoreOperation(string, time.Duration, error) {}

// Options configures every DynamoDB-backed store
type Options struct {
	Tables   schema.Tables
	Timeout  time.Duration
	Recorder OperationRecorder
}

// store holds what the DynamoDB adapters share
type store struct {
	client   Client
	tables   schema.Tables
	timeout  time.Duration
	recorder OperationRecorder
	logger   *zap.Logger
}

func newStore(client Client, opts Options, logger *zap.Logger) store {
	recorder := opts.Recorder
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return store{
		client:   client,
		tables:   opts.Tables,
		timeout:  opts.Timeout,
		recorder: recorder,
		logger:   logger,
	}
}

// call runs fn under the per-call timeout, records it and maps any client
// failure to Unavailable. There is no retry.
func (s *store) call(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	err := fn(ctx)
	s.recorder.RecordStoreOperation(operation, time.Since(start), err)

	if err != nil && !pkgerrors.IsAppError(err) {
		s.logger.Warn("store call failed",
			zap.String("operation", operation),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
	}
	return mapError(operation, err)
}

// keyToToken encodes a last-evaluated key; every key attribute is a string
func keyToToken(key map[string]types.AttributeValue) string {
	flat := make(map[string]string, len(key))
	for name, v := range key {
		if s, ok := v.(*types.AttributeValueMemberS); ok {
			flat[name] = s.Value
		}
	}
	return schema.EncodeToken(flat)
}

func tokenToKey(token string) (map[string]types.AttributeValue, error) {
	flat, err := schema.DecodeToken(token)
	if err != nil || flat == nil {
		return nil, err
	}
	key := make(map[string]types.AttributeValue, len(flat))
	for name, v := range flat {
		key[name] = &types.AttributeValueMemberS{Value: v}
	}
	return key, nil
}

func limitPtr(limit int) *int32 {
	if limit <= 0 {
		return nil
	}
	l := int32(limit)
	return &l
}
