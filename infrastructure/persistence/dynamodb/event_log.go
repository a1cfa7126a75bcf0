package dynamodb

import (
	"context"
	"time"

	"twinklepod/application/ports"
	"twinklepod/domain/core/entities"
	"twinklepod/domain/core/valueobjects"
	"twinklepod/infrastructure/persistence/schema"
	pkgerrors "twinklepod/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// scanPageSize is the page size of filtered index scans
const scanPageSize = 100

// EventLog appends interaction events to the events table and reads them
// back through the child, child-story and favorite indexes
type EventLog struct {
	store
}

var _ ports.EventLog = (*EventLog)(nil)

// NewEventLog creates a DynamoDB event log
func NewEventLog(client Client, opts Options, logger *zap.Logger) *EventLog {
	return &EventLog{store: newStore(client, opts, logger)}
}

// Append writes the event; it fails rather than overwrite an existing event id
func (l *EventLog) Append(ctx context.Context, event *entities.InteractionEvent) error {
	item, err := attributevalue.MarshalMap(toEventItem(event))
	if err != nil {
		return pkgerrors.NewInternalError("failed to marshal event").WithCause(err)
	}

	expr, err := expression.NewBuilder().
		WithCondition(expression.Name(schema.AttrEventID).AttributeNotExists()).
		Build()
	if err != nil {
		return pkgerrors.NewInternalError("failed to build expression").WithCause(err)
	}

	return l.call(ctx, "events.append", func(ctx context.Context) error {
		_, err := l.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName:                 aws.String(l.tables.Events),
			Item:                      item,
			ConditionExpression:       expr.Condition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
		})
		if isConditionalCheckFailed(err) {
			return pkgerrors.NewInternalError("event id already exists: " + event.EventID.String()).WithCause(err)
		}
		return err
	})
}

// ListForChild reads the child index newest first. A non-zero since bounds
// the key condition so older events are never read.
func (l *EventLog) ListForChild(ctx context.Context, childID valueobjects.ChildID, since time.Time, page ports.PageRequest) (*ports.EventPage, error) {
	keyCond := expression.Key(schema.AttrChildKey).Equal(expression.Value(schema.ChildIndexKey(childID)))
	if !since.IsZero() {
		keyCond = keyCond.And(expression.Key(schema.AttrEventSort).GreaterThan(expression.Value(schema.EventSortLowerBound(since))))
	}
	return l.queryPage(ctx, "events.list", l.tables.ChildEventsIndex, keyCond, page)
}

// ListForChildStory reads one story's history for the child, newest first
func (l *EventLog) ListForChildStory(ctx context.Context, childID valueobjects.ChildID, storyID valueobjects.StoryID, page ports.PageRequest) (*ports.EventPage, error) {
	keyCond := expression.Key(schema.AttrChildStoryKey).Equal(expression.Value(schema.ChildStoryIndexKey(childID, storyID)))
	return l.queryPage(ctx, "events.list_story", l.tables.ChildStoryEventsIndex, keyCond, page)
}

// LastEventOfTypeSet returns the winner among types for the pair. Index order
// is timestamp then event id, so the first item read descending is the winner.
// The full favorite toggle set is one Limit 1 read of the sparse favorite index.
func (l *EventLog) LastEventOfTypeSet(ctx context.Context, childID valueobjects.ChildID, storyID valueobjects.StoryID, types []valueobjects.EventType) (*entities.InteractionEvent, error) {
	if len(types) == 0 {
		return nil, nil
	}

	if valueobjects.OnlyFavoriteToggles(types) {
		keyCond := expression.Key(schema.AttrFavoriteKey).Equal(expression.Value(schema.FavoriteIndexKey(childID, storyID)))
		if len(dedupeTypes(types)) == len(valueobjects.FavoriteEventTypes) {
			return l.firstMatch(ctx, l.tables.FavoriteIndex, keyCond, nil, 1)
		}
		return l.firstMatch(ctx, l.tables.FavoriteIndex, keyCond, typeFilter(types), scanPageSize)
	}

	keyCond := expression.Key(schema.AttrChildStoryKey).Equal(expression.Value(schema.ChildStoryIndexKey(childID, storyID)))
	return l.firstMatch(ctx, l.tables.ChildStoryEventsIndex, keyCond, typeFilter(types), scanPageSize)
}

func (l *EventLog) queryPage(ctx context.Context, operation, index string, keyCond expression.KeyConditionBuilder, page ports.PageRequest) (*ports.EventPage, error) {
	startKey, err := tokenToKey(page.Token)
	if err != nil {
		return nil, err
	}

	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to build expression").WithCause(err)
	}

	var out *dynamodb.QueryOutput
	err = l.call(ctx, operation, func(ctx context.Context) error {
		var err error
		out, err = l.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(l.tables.Events),
			IndexName:                 aws.String(index),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ScanIndexForward:          aws.Bool(false),
			ExclusiveStartKey:         startKey,
			Limit:                     limitPtr(page.Limit),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	return &ports.EventPage{
		Events:    l.decodeEvents(out.Items),
		NextToken: keyToToken(out.LastEvaluatedKey),
	}, nil
}

// firstMatch walks an index descending until an item passes filter
func (l *EventLog) firstMatch(ctx context.Context, index string, keyCond expression.KeyConditionBuilder, filter *expression.ConditionBuilder, limit int) (*entities.InteractionEvent, error) {
	builder := expression.NewBuilder().WithKeyCondition(keyCond)
	if filter != nil {
		builder = builder.WithFilter(*filter)
	}
	expr, err := builder.Build()
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to build expression").WithCause(err)
	}

	var startKey map[string]types.AttributeValue
	for {
		var out *dynamodb.QueryOutput
		err := l.call(ctx, "events.last_of_types", func(ctx context.Context) error {
			var err error
			out, err = l.client.Query(ctx, &dynamodb.QueryInput{
				TableName:                 aws.String(l.tables.Events),
				IndexName:                 aws.String(index),
				KeyConditionExpression:    expr.KeyCondition(),
				FilterExpression:          expr.Filter(),
				ExpressionAttributeNames:  expr.Names(),
				ExpressionAttributeValues: expr.Values(),
				ScanIndexForward:          aws.Bool(false),
				ExclusiveStartKey:         startKey,
				Limit:                     aws.Int32(int32(limit)),
			})
			return err
		})
		if err != nil {
			return nil, err
		}

		// The first item read is the winner; an unreadable winner must not
		// fall through to an older event or to "absent".
		if len(out.Items) > 0 {
			return decodeEvent(out.Items[0])
		}
		if len(out.LastEvaluatedKey) == 0 || filter == nil {
			return nil, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, pkgerrors.NewUnavailableError("events.last_of_types", err)
		}
		startKey = out.LastEvaluatedKey
	}
}

func decodeEvent(av map[string]types.AttributeValue) (*entities.InteractionEvent, error) {
	var item eventItem
	if err := attributevalue.UnmarshalMap(av, &item); err != nil {
		return nil, pkgerrors.NewInternalError("failed to unmarshal event").WithCause(err)
	}
	event, err := item.toEntity()
	if err != nil {
		return nil, pkgerrors.NewInternalError("corrupt event item").WithCause(err)
	}
	return event, nil
}

func (l *EventLog) decodeEvents(items []map[string]types.AttributeValue) []*entities.InteractionEvent {
	events := make([]*entities.InteractionEvent, 0, len(items))
	for _, av := range items {
		event, err := decodeEvent(av)
		if err != nil {
			l.logger.Warn("skipping unreadable event item", zap.Error(err))
			continue
		}
		events = append(events, event)
	}
	return events
}

func typeFilter(types []valueobjects.EventType) *expression.ConditionBuilder {
	unique := dedupeTypes(types)
	values := make([]expression.OperandBuilder, 0, len(unique))
	for _, t := range unique {
		values = append(values, expression.Value(string(t)))
	}
	var cond expression.ConditionBuilder
	if len(values) == 1 {
		cond = expression.Name(schema.AttrEventType).Equal(values[0])
	} else {
		cond = expression.Name(schema.AttrEventType).In(values[0], values[1:]...)
	}
	return &cond
}

func dedupeTypes(types []valueobjects.EventType) []valueobjects.EventType {
	seen := make(map[valueobjects.EventType]bool, len(types))
	out := make([]valueobjects.EventType, 0, len(types))
	for _, t := range types {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
