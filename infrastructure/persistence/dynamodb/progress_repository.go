package dynamodb

import (
	"context"
	"errors"
	"fmt"

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

// ProgressRepository stores one item per (child, story) in the progress table
type ProgressRepository struct {
	store
}

var _ ports.ProgressRepository = (*ProgressRepository)(nil)

// NewProgressRepository creates a DynamoDB progress store
func NewProgressRepository(client Client, opts Options, logger *zap.Logger) *ProgressRepository {
	return &ProgressRepository{store: newStore(client, opts, logger)}
}

// Upsert writes the record only when no stored record has a later last_read.
// When the write loses, the stored record is returned instead.
func (r *ProgressRepository) Upsert(ctx context.Context, record *entities.ProgressRecord) (*entities.ProgressRecord, error) {
	item, err := attributevalue.MarshalMap(toProgressItem(record))
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to marshal progress").WithCause(err)
	}

	cond := expression.Name(schema.AttrPK).AttributeNotExists().
		Or(expression.Name(schema.AttrLastRead).LessThanEqual(expression.Value(schema.FormatTimestamp(record.LastRead))))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to build expression").WithCause(err)
	}

	var stored map[string]types.AttributeValue
	err = r.call(ctx, "progress.upsert", func(ctx context.Context) error {
		_, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName:                           aws.String(r.tables.Progress),
			Item:                                item,
			ConditionExpression:                 expr.Condition(),
			ExpressionAttributeNames:            expr.Names(),
			ExpressionAttributeValues:           expr.Values(),
			ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
		})
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			stored = ccf.Item
			if stored == nil {
				stored = map[string]types.AttributeValue{}
			}
			return nil
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	if stored == nil {
		return record, nil
	}

	r.logger.Debug("stale progress write ignored",
		zap.String("child_id", record.ChildID.String()),
		zap.String("story_id", record.StoryID.String()))
	if len(stored) == 0 {
		return r.Get(ctx, record.ChildID, record.StoryID)
	}
	return unmarshalProgress(stored)
}

// Get reads the pair's record with a strongly consistent read
func (r *ProgressRepository) Get(ctx context.Context, childID valueobjects.ChildID, storyID valueobjects.StoryID) (*entities.ProgressRecord, error) {
	var out *dynamodb.GetItemOutput
	err := r.call(ctx, "progress.get", func(ctx context.Context) error {
		var err error
		out, err = r.client.GetItem(ctx, &dynamodb.GetItemInput{
			TableName: aws.String(r.tables.Progress),
			Key: map[string]types.AttributeValue{
				schema.AttrPK: &types.AttributeValueMemberS{Value: schema.ProgressKey(childID, storyID)},
			},
			ConsistentRead: aws.Bool(true),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(out.Item) == 0 {
		return nil, pkgerrors.NewNotFoundError("progress")
	}
	return unmarshalProgress(out.Item)
}

// ListForChild queries the child index newest first
func (r *ProgressRepository) ListForChild(ctx context.Context, childID valueobjects.ChildID, page ports.PageRequest) (*ports.ProgressPage, error) {
	startKey, err := tokenToKey(page.Token)
	if err != nil {
		return nil, err
	}

	keyCond := expression.Key(schema.AttrChildKey).Equal(expression.Value(schema.ChildIndexKey(childID)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to build expression").WithCause(err)
	}

	var out *dynamodb.QueryOutput
	err = r.call(ctx, "progress.list", func(ctx context.Context) error {
		var err error
		out, err = r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(r.tables.Progress),
			IndexName:                 aws.String(r.tables.ChildProgressIndex),
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

	result := &ports.ProgressPage{
		Records:   make([]*entities.ProgressRecord, 0, len(out.Items)),
		NextToken: keyToToken(out.LastEvaluatedKey),
	}
	for _, item := range out.Items {
		rec, err := unmarshalProgress(item)
		if err != nil {
			r.logger.Warn("skipping unreadable progress item", zap.Error(err))
			continue
		}
		result.Records = append(result.Records, rec)
	}
	return result, nil
}

func unmarshalProgress(av map[string]types.AttributeValue) (*entities.ProgressRecord, error) {
	var item progressItem
	if err := attributevalue.UnmarshalMap(av, &item); err != nil {
		return nil, pkgerrors.NewInternalError("failed to unmarshal progress").WithCause(err)
	}
	rec, err := item.toEntity()
	if err != nil {
		return nil, pkgerrors.NewInternalError(fmt.Sprintf("corrupt progress item %s", item.PK)).WithCause(err)
	}
	return rec, nil
}
