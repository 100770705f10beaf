package dynamodb

import (
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/stk-confirmation/pkg/models"
	"github.com/shopspring/decimal"
)

func testTransaction() *models.Transaction {
	created := time.UnixMilli(1_700_000_000_000).UTC()
	return &models.Transaction{
		SessionId:         "ws_CO_123",
		MerchantRequestId: "29115-34620561-1",
		Phone:             "254712345678",
		Amount:            decimal.RequireFromString("150.50"),
		AccountReference:  "INV001",
		TransactionType:   models.PAYBILL,
		Status:            models.PENDING,
		CreatedAt:         created,
		Deadline:          created.Add(time.Minute),
	}
}

func marshalTransaction(t *testing.T, tx *models.Transaction) map[string]types.AttributeValue {
	t.Helper()
	item, err := attributevalue.MarshalMap((&Store{}).toRecord(tx))
	if err != nil {
		t.Fatalf("failed to marshal record: %v", err)
	}
	return item
}
