package dynamodb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/stk-confirmation/pkg/models"
	"github.com/chris/stk-confirmation/pkg/storage"
)

// CompareAndSetStatus atomically moves a transaction out of the expected status.
// The condition is evaluated by DynamoDB, so concurrent callers cannot both succeed.
func (s *Store) CompareAndSetStatus(ctx context.Context, sessionID string, expected models.TransactionStatus, update storage.StatusUpdate) (bool, error) {
	updateExpr := "SET #status = :status, resolved_at = :resolved_at"
	values := map[string]types.AttributeValue{
		":status":      &types.AttributeValueMemberS{Value: string(update.Status)},
		":expected":    &types.AttributeValueMemberS{Value: string(expected)},
		":resolved_at": &types.AttributeValueMemberN{Value: strconv.FormatInt(update.ResolvedAt.UnixMilli(), 10)},
	}
	if update.ReceiptReference != nil {
		updateExpr += ", receipt_reference = :receipt"
		values[":receipt"] = &types.AttributeValueMemberS{Value: *update.ReceiptReference}
	}
	if len(update.RawOutcome) > 0 {
		updateExpr += ", raw_outcome = :raw"
		values[":raw"] = &types.AttributeValueMemberS{Value: string(update.RawOutcome)}
	}

	return s.conditionalUpdate(ctx, sessionID, updateExpr, values)
}

// UpdateRawOutcome replaces the stored raw outcome while the status still equals status.
func (s *Store) UpdateRawOutcome(ctx context.Context, sessionID string, status models.TransactionStatus, raw json.RawMessage) (bool, error) {
	return s.conditionalUpdate(ctx, sessionID, "SET raw_outcome = :raw", map[string]types.AttributeValue{
		":raw":      &types.AttributeValueMemberS{Value: string(raw)},
		":expected": &types.AttributeValueMemberS{Value: string(status)},
	})
}

func (s *Store) conditionalUpdate(ctx context.Context, sessionID, updateExpr string, values map[string]types.AttributeValue) (bool, error) {
	input := &dynamodb.UpdateItemInput{
		TableName: aws.String(s.TransactionsTableName),
		Key: map[string]types.AttributeValue{
			"session_id": &types.AttributeValueMemberS{Value: sessionID},
		},
		UpdateExpression:    aws.String(updateExpr),
		ConditionExpression: aws.String("attribute_exists(session_id) AND #status = :expected"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues:           values,
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	}

	_, err := s.Client.UpdateItem(ctx, input)
	if err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			// The old item is only returned when the record exists.
			if condCheckFailed.Item == nil {
				return false, fmt.Errorf("session %s: %w", sessionID, storage.ErrTransactionNotFound)
			}
			return false, nil
		}
		return false, fmt.Errorf("failed to update transaction status: %w", err)
	}

	return true, nil
}
