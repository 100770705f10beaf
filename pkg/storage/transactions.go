package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/chris/stk-confirmation/pkg/models"
)

// StatusUpdate carries the fields written when a transaction leaves Pending.
type StatusUpdate struct {
	Status           models.TransactionStatus
	ResolvedAt       time.Time
	ReceiptReference *string
	RawOutcome       json.RawMessage
}

// TransactionReader defines the interface for reading transaction data.
type TransactionReader interface {
	// GetTransaction retrieves a transaction by its session id.
	GetTransaction(ctx context.Context, sessionID string) (*models.Transaction, error)

	// ListExpiredTransactions returns up to limit Pending transactions whose deadline is at or before now.
	ListExpiredTransactions(ctx context.Context, now time.Time, limit int32) ([]models.Transaction, error)

	// ListTransactionsByPhone returns the most recent transactions for a phone number, newest first.
	ListTransactionsByPhone(ctx context.Context, phone string, limit int32) ([]models.Transaction, error)
}

// TransactionWriter defines the write side. CompareAndSetStatus is the only
// operation allowed to change a status.
type TransactionWriter interface {
	// CreateTransaction inserts a new Pending record. It fails with ErrTransactionExists on duplicates.
	CreateTransaction(ctx context.Context, tx *models.Transaction) error

	// CompareAndSetStatus applies update only if the current status equals expected.
	// It returns false with a nil error when the status did not match, and
	// ErrTransactionNotFound when no record exists.
	CompareAndSetStatus(ctx context.Context, sessionID string, expected models.TransactionStatus, update StatusUpdate) (bool, error)

	// UpdateRawOutcome overwrites the raw outcome only if the record's status equals status.
	UpdateRawOutcome(ctx context.Context, sessionID string, status models.TransactionStatus, raw json.RawMessage) (bool, error)
}
