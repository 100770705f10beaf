package dynamodb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/chris/stk-confirmation/pkg/models"
	"github.com/chris/stk-confirmation/pkg/storage"
	"github.com/shopspring/decimal"
)

const (
	expiredTransactionsGSI = "status-deadline-index"
	phoneIndex             = "phone-created_at-index"
)

// DynamoDBAPI is the subset of the DynamoDB client used by the Store.
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Store implements the Repository interface using AWS DynamoDB.
type Store struct {
	Client                DynamoDBAPI
	TransactionsTableName string
	// RecordTTL, when set, stamps each record with an expiry relative to its deadline.
	RecordTTL time.Duration
}

// New creates a new Store.
func New(client DynamoDBAPI, transactionsTable string, recordTTL time.Duration) *Store {
	return &Store{
		Client:                client,
		TransactionsTableName: transactionsTable,
		RecordTTL:             recordTTL,
	}
}

// Make sure we conform to the interface
var _ storage.Repository = (*Store)(nil)

// transactionRecord is the item layout. Timestamps are epoch milliseconds so the
// deadline index sorts numerically.
type transactionRecord struct {
	SessionID         string  `dynamodbav:"session_id"`
	MerchantRequestID string  `dynamodbav:"merchant_request_id,omitempty"`
	Phone             string  `dynamodbav:"phone"`
	Amount            string  `dynamodbav:"amount"`
	AccountReference  string  `dynamodbav:"account_reference"`
	TransactionType   string  `dynamodbav:"transaction_type"`
	Description       string  `dynamodbav:"description,omitempty"`
	Status            string  `dynamodbav:"status"`
	CreatedAt         int64   `dynamodbav:"created_at"`
	Deadline          int64   `dynamodbav:"deadline"`
	ResolvedAt        *int64  `dynamodbav:"resolved_at,omitempty"`
	ReceiptReference  *string `dynamodbav:"receipt_reference,omitempty"`
	RawOutcome        string  `dynamodbav:"raw_outcome,omitempty"`
	TTL               int64   `dynamodbav:"ttl,omitempty"`
}

func (s *Store) toRecord(tx *models.Transaction) transactionRecord {
	rec := transactionRecord{
		SessionID:         tx.SessionId,
		MerchantRequestID: tx.MerchantRequestId,
		Phone:             tx.Phone,
		Amount:            tx.Amount.String(),
		AccountReference:  tx.AccountReference,
		TransactionType:   string(tx.TransactionType),
		Description:       tx.Description,
		Status:            string(tx.Status),
		CreatedAt:         tx.CreatedAt.UnixMilli(),
		Deadline:          tx.Deadline.UnixMilli(),
		ReceiptReference:  tx.ReceiptReference,
		RawOutcome:        string(tx.RawOutcome),
	}
	if tx.ResolvedAt != nil {
		ms := tx.ResolvedAt.UnixMilli()
		rec.ResolvedAt = &ms
	}
	if s.RecordTTL > 0 {
		rec.TTL = tx.Deadline.Add(s.RecordTTL).Unix()
	}
	return rec
}

func fromRecord(rec transactionRecord) (*models.Transaction, error) {
	amount, err := decimal.NewFromString(rec.Amount)
	if err != nil {
		return nil, fmt.Errorf("failed to parse amount %q: %w", rec.Amount, err)
	}
	tx := &models.Transaction{
		SessionId:         rec.SessionID,
		MerchantRequestId: rec.MerchantRequestID,
		Phone:             rec.Phone,
		Amount:            amount,
		AccountReference:  rec.AccountReference,
		TransactionType:   models.TransactionType(rec.TransactionType),
		Description:       rec.Description,
		Status:            models.TransactionStatus(rec.Status),
		CreatedAt:         time.UnixMilli(rec.CreatedAt).UTC(),
		Deadline:          time.UnixMilli(rec.Deadline).UTC(),
		ReceiptReference:  rec.ReceiptReference,
	}
	if rec.ResolvedAt != nil {
		t := time.UnixMilli(*rec.ResolvedAt).UTC()
		tx.ResolvedAt = &t
	}
	if rec.RawOutcome != "" {
		tx.RawOutcome = json.RawMessage(rec.RawOutcome)
	}
	return tx, nil
}
