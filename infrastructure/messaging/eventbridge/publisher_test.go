package eventbridge

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"twinklepod/domain/core/entities"
	"twinklepod/domain/core/valueobjects"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*eventbridge.PutEventsOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func events(n int) []*entities.InteractionEvent {
	at := time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC)
	out := make([]*entities.InteractionEvent, n)
	for i := range out {
		out[i] = entities.NewInteractionEvent("U1", "C1", valueobjects.StoryID(fmt.Sprintf("S%d", i)),
			valueobjects.EventTypeView, entities.EventMetadata{}, at)
	}
	return out
}

func TestPublisher_BatchesByTen(t *testing.T) {
	client := new(mockClient)
	publisher := NewPublisher(client, "reading-bus", zap.NewNop())

	var sizes []int
	client.On("PutEvents", mock.Anything, mock.MatchedBy(func(in *eventbridge.PutEventsInput) bool {
		first := in.Entries[0]
		return aws.ToString(first.EventBusName) == "reading-bus" &&
			aws.ToString(first.Source) == Source &&
			aws.ToString(first.DetailType) == "view"
	})).Run(func(args mock.Arguments) {
		sizes = append(sizes, len(args.Get(1).(*eventbridge.PutEventsInput).Entries))
	}).Return(&eventbridge.PutEventsOutput{}, nil)

	err := publisher.Publish(context.Background(), events(23))

	require.NoError(t, err)
	assert.Equal(t, []int{10, 10, 3}, sizes)
	client.AssertNumberOfCalls(t, "PutEvents", 3)
}

func TestPublisher_NothingToSend(t *testing.T) {
	client := new(mockClient)
	publisher := NewPublisher(client, "reading-bus", zap.NewNop())

	require.NoError(t, publisher.Publish(context.Background(), nil))
	client.AssertNotCalled(t, "PutEvents", mock.Anything, mock.Anything)
}

func TestPublisher_Failures(t *testing.T) {
	t.Run("client error", func(t *testing.T) {
		client := new(mockClient)
		client.On("PutEvents", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))

		err := NewPublisher(client, "bus", zap.NewNop()).Publish(context.Background(), events(2))

		assert.ErrorContains(t, err, "throttled")
	})

	t.Run("failed entries", func(t *testing.T) {
		client := new(mockClient)
		client.On("PutEvents", mock.Anything, mock.Anything).Return(&eventbridge.PutEventsOutput{
			FailedEntryCount: 1,
			Entries: []types.PutEventsResultEntry{
				{EventId: aws.String("ok")},
				{ErrorCode: aws.String("InternalFailure"), ErrorMessage: aws.String("try later")},
			},
		}, nil)

		err := NewPublisher(client, "bus", zap.NewNop()).Publish(context.Background(), events(2))

		assert.ErrorContains(t, err, "1 events failed")
	})
}
