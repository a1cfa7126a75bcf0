package dynamodb

import (
	"context"

	"twinklepod/application/ports"
	"twinklepod/domain/core/valueobjects"
	"twinklepod/infrastructure/persistence/schema"
	pkgerrors "twinklepod/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// ChildDirectory reads owners from the child-profiles table
type ChildDirectory struct {
	store
}

var _ ports.ChildDirectory = (*ChildDirectory)(nil)

// NewChildDirectory creates a DynamoDB child directory
func NewChildDirectory(client Client, opts Options, logger *zap.Logger) *ChildDirectory {
	return &ChildDirectory{store: newStore(client, opts, logger)}
}

// OwnerOf returns the account that owns childID
func (d *ChildDirectory) OwnerOf(ctx context.Context, childID valueobjects.ChildID) (valueobjects.UserID, error) {
	var out *dynamodb.GetItemOutput
	err := d.call(ctx, "children.owner", func(ctx context.Context) error {
		var err error
		out, err = d.client.GetItem(ctx, &dynamodb.GetItemInput{
			TableName: aws.String(d.tables.Children),
			Key: map[string]types.AttributeValue{
				schema.AttrChildID: &types.AttributeValueMemberS{Value: childID.String()},
			},
			ProjectionExpression: aws.String(schema.AttrChildID + ", " + schema.AttrUserID),
		})
		return err
	})
	if err != nil {
		return "", err
	}
	if len(out.Item) == 0 {
		return "", pkgerrors.NewNotFoundError("child")
	}

	var item childItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return "", pkgerrors.NewInternalError("failed to unmarshal child").WithCause(err)
	}
	return valueobjects.UserID(item.UserID), nil
}
