package dynamodb

import (
	"context"
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

// batchGetLimit is the BatchGetItem key limit
const batchGetLimit = 100

// maxUnprocessedRounds bounds how often unprocessed keys are re-requested
const maxUnprocessedRounds = 3

// StoryCatalog reads story metadata items and the denormalized listing partitions
type StoryCatalog struct {
	store
}

var _ ports.StoryCatalog = (*StoryCatalog)(nil)

// NewStoryCatalog creates a DynamoDB story catalog
func NewStoryCatalog(client Client, opts Options, logger *zap.Logger) *StoryCatalog {
	return &StoryCatalog{store: newStore(client, opts, logger)}
}

func storyKey(id valueobjects.StoryID) map[string]types.AttributeValue {
	pk, sk := schema.StoryKey(id)
	return map[string]types.AttributeValue{
		schema.AttrPK: &types.AttributeValueMemberS{Value: pk},
		schema.AttrSK: &types.AttributeValueMemberS{Value: sk},
	}
}

// Lookup returns nil when the story is absent or unpublished
func (c *StoryCatalog) Lookup(ctx context.Context, storyID valueobjects.StoryID) (*entities.Story, error) {
	var out *dynamodb.GetItemOutput
	err := c.call(ctx, "catalog.lookup", func(ctx context.Context) error {
		var err error
		out, err = c.client.GetItem(ctx, &dynamodb.GetItemInput{
			TableName: aws.String(c.tables.Stories),
			Key:       storyKey(storyID),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(out.Item) == 0 {
		return nil, nil
	}

	story, err := unmarshalStory(out.Item)
	if err != nil {
		return nil, err
	}
	if !story.Published {
		return nil, nil
	}
	return story, nil
}

// LookupMany batch-reads the metadata items. Missing or unpublished stories
// are left out of the result.
func (c *StoryCatalog) LookupMany(ctx context.Context, storyIDs []valueobjects.StoryID) (map[valueobjects.StoryID]*entities.Story, error) {
	found := make(map[valueobjects.StoryID]*entities.Story, len(storyIDs))

	unique := make([]valueobjects.StoryID, 0, len(storyIDs))
	seen := make(map[valueobjects.StoryID]bool, len(storyIDs))
	for _, id := range storyIDs {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	for start := 0; start < len(unique); start += batchGetLimit {
		end := start + batchGetLimit
		if end > len(unique) {
			end = len(unique)
		}

		keys := make([]map[string]types.AttributeValue, 0, end-start)
		for _, id := range unique[start:end] {
			keys = append(keys, storyKey(id))
		}
		if err := c.batchGet(ctx, keys, found); err != nil {
			return nil, err
		}
	}
	return found, nil
}

func (c *StoryCatalog) batchGet(ctx context.Context, keys []map[string]types.AttributeValue, found map[valueobjects.StoryID]*entities.Story) error {
	request := map[string]types.KeysAndAttributes{
		c.tables.Stories: {Keys: keys},
	}

	for round := 0; round < maxUnprocessedRounds && len(request) > 0; round++ {
		var out *dynamodb.BatchGetItemOutput
		err := c.call(ctx, "catalog.lookup_many", func(ctx context.Context) error {
			var err error
			out, err = c.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{RequestItems: request})
			return err
		})
		if err != nil {
			return err
		}

		for _, item := range out.Responses[c.tables.Stories] {
			story, err := unmarshalStory(item)
			if err != nil {
				c.logger.Warn("skipping unreadable story item", zap.Error(err))
				continue
			}
			if story.Published {
				found[story.StoryID] = story
			}
		}

		request = out.UnprocessedKeys
		if len(request[c.tables.Stories].Keys) == 0 {
			return nil
		}
	}

	remaining := len(request[c.tables.Stories].Keys)
	return pkgerrors.NewUnavailableError("catalog.lookup_many",
		fmt.Errorf("%d keys left unprocessed", remaining))
}

// List queries one listing partition newest first
func (c *StoryCatalog) List(ctx context.Context, filter ports.StoryFilter, page ports.PageRequest) (*ports.StoryPage, error) {
	startKey, err := tokenToKey(page.Token)
	if err != nil {
		return nil, err
	}

	partition := schema.PublishedListKey
	switch {
	case filter.Category != "":
		partition = schema.CategoryListKey(filter.Category)
	case filter.AgeRange != "":
		partition = schema.AgeListKey(filter.AgeRange)
	}

	keyCond := expression.Key(schema.AttrPK).Equal(expression.Value(partition))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to build expression").WithCause(err)
	}

	var out *dynamodb.QueryOutput
	err = c.call(ctx, "catalog.list", func(ctx context.Context) error {
		var err error
		out, err = c.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(c.tables.Stories),
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

	result := &ports.StoryPage{
		Stories:   make([]*entities.Story, 0, len(out.Items)),
		NextToken: keyToToken(out.LastEvaluatedKey),
	}
	for _, item := range out.Items {
		story, err := unmarshalStory(item)
		if err != nil {
			c.logger.Warn("skipping unreadable listing item", zap.Error(err))
			continue
		}
		if story.Published {
			result.Stories = append(result.Stories, story)
		}
	}
	return result, nil
}

func unmarshalStory(av map[string]types.AttributeValue) (*entities.Story, error) {
	var item storyItem
	if err := attributevalue.UnmarshalMap(av, &item); err != nil {
		return nil, pkgerrors.NewInternalError("failed to unmarshal story").WithCause(err)
	}
	return item.toEntity(), nil
}
