package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-passwordless-api/internal/domain"
)

// CallbackTokenRepo manages callback tokens.
// PK: user_id, SK: token_id. A user may hold several active tokens of the
// same type at once; rows are never deleted here; expires_at doubles as a
// DynamoDB TTL so dead rows get swept by the table itself.
type CallbackTokenRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewCallbackTokenRepo(client *dynamodb.Client, tableName string) *CallbackTokenRepo {
	return &CallbackTokenRepo{client: client, tableName: tableName}
}

func (r *CallbackTokenRepo) Create(ctx context.Context, t *domain.CallbackToken) error {
	item, err := attributevalue.MarshalMap(t)
	if err != nil {
		return fmt.Errorf("marshal callback token: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// FindActive returns the first active token matching (user, key, type).
func (r *CallbackTokenRepo) FindActive(ctx context.Context, userID, key string, tokenType domain.TokenType) (*domain.CallbackToken, error) {
	out, err := r.queryUser(ctx, userID, key, tokenType)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("callback token not found: %w", domain.ErrNotFound)
	}
	return &out[0], nil
}

// ActiveKeyExists reports whether an active token of the given type already
// uses this key for the user. The generator's collision check; a race here
// is benign because the caller retries generation.
func (r *CallbackTokenRepo) ActiveKeyExists(ctx context.Context, userID, key string, tokenType domain.TokenType) (bool, error) {
	out, err := r.queryUser(ctx, userID, key, tokenType)
	if err != nil {
		return false, err
	}
	return len(out) > 0, nil
}

// Consume atomically flips is_active to false. The ConditionExpression
// makes this a row-level compare-and-swap: of N concurrent consumers
// exactly one succeeds, the rest get ErrTokenConsumed.
func (r *CallbackTokenRepo) Consume(ctx context.Context, t *domain.CallbackToken) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 compositeKey("user_id", t.UserID, "token_id", t.TokenID),
		UpdateExpression:    aws.String("SET #a = :f"),
		ConditionExpression: aws.String("#a = :t"),
		ExpressionAttributeNames: map[string]string{
			"#a": fieldIsActive,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":f": &types.AttributeValueMemberBOOL{Value: false},
			":t": &types.AttributeValueMemberBOOL{Value: true},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("callback token %s: %w", t.TokenID, domain.ErrTokenConsumed)
		}
		return err
	}
	t.IsActive = false
	return nil
}

func (r *CallbackTokenRepo) queryUser(ctx context.Context, userID, key string, tokenType domain.TokenType) ([]domain.CallbackToken, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("user_id = :uid"),
		FilterExpression:       aws.String("#k = :key AND #t = :type AND #a = :active"),
		ExpressionAttributeNames: map[string]string{
			"#k": "key", // reserved word in DynamoDB expressions
			"#t": "type",
			"#a": fieldIsActive,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid":    &types.AttributeValueMemberS{Value: userID},
			":key":    &types.AttributeValueMemberS{Value: key},
			":type":   &types.AttributeValueMemberS{Value: string(tokenType)},
			":active": &types.AttributeValueMemberBOOL{Value: true},
		},
	})
	if err != nil {
		return nil, err
	}
	var tokens []domain.CallbackToken
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &tokens); err != nil {
		return nil, err
	}
	return tokens, nil
}
