package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"

	"github.com/example/storefront/internal/domain/inventory"
)

// MovementArchive mirrors the stock movement log into DynamoDB for long-term
// retention and cross-system reporting. Postgres remains the system of
// record; archive writes happen after commit and are best effort.
type MovementArchive struct {
	client    *dynamodb.Client
	tableName string
	logger    zerolog.Logger
}

// movementItem is the DynamoDB item layout: partition key product_id, sort
// key created_at#id so range queries return movements in order.
type movementItem struct {
	ProductID string `dynamodbav:"product_id"`
	SortKey   string `dynamodbav:"sk"`
	ID        string `dynamodbav:"id"`
	VariantID string `dynamodbav:"variant_id"`
	Delta     int    `dynamodbav:"delta"`
	Resulting int    `dynamodbav:"resulting"`
	Reason    string `dynamodbav:"reason"`
	OrderID   string `dynamodbav:"order_id"`
	CreatedAt string `dynamodbav:"created_at"`
}

func NewMovementArchive(ctx context.Context, tableName string, logger zerolog.Logger) (*MovementArchive, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return &MovementArchive{
		client:    dynamodb.NewFromConfig(cfg),
		tableName: tableName,
		logger:    logger.With().Str("component", "movement-archive").Logger(),
	}, nil
}

// Archive writes one movement item. The conditional put makes replays
// harmless: an already-archived movement id is silently kept, not duplicated.
func (a *MovementArchive) Archive(ctx context.Context, m inventory.Movement) error {
	item := movementItem{
		ProductID: m.ProductID,
		SortKey:   m.CreatedAt.Format(time.RFC3339Nano) + "#" + m.ID,
		ID:        m.ID,
		VariantID: m.VariantID,
		Delta:     m.Delta,
		Resulting: m.Resulting,
		Reason:    string(m.Reason),
		OrderID:   m.OrderID,
		CreatedAt: m.CreatedAt.Format(time.RFC3339Nano),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal movement: %w", err)
	}

	_, err = a.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(a.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(product_id) AND attribute_not_exists(sk)"),
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return nil
		}
		return fmt.Errorf("failed to put movement: %w", err)
	}
	return nil
}

// ListByProduct returns archived movements for a product in time order.
func (a *MovementArchive) ListByProduct(ctx context.Context, productID string) ([]inventory.Movement, error) {
	result, err := a.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(a.tableName),
		KeyConditionExpression: aws.String("product_id = :pid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pid": &types.AttributeValueMemberS{Value: productID},
		},
		ScanIndexForward: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query movements: %w", err)
	}

	movements := make([]inventory.Movement, 0, len(result.Items))
	for _, raw := range result.Items {
		var item movementItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			a.logger.Error().Err(err).Msg("failed to unmarshal movement item")
			continue
		}
		createdAt, err := time.Parse(time.RFC3339Nano, item.CreatedAt)
		if err != nil {
			a.logger.Error().Err(err).Str("id", item.ID).Msg("bad created_at on movement item")
			continue
		}
		movements = append(movements, inventory.Movement{
			ID:        item.ID,
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Delta:     item.Delta,
			Resulting: item.Resulting,
			Reason:    inventory.Reason(item.Reason),
			OrderID:   item.OrderID,
			CreatedAt: createdAt,
		})
	}
	return movements, nil
}
