package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chris/stk-confirmation/pkg/models"
	"github.com/chris/stk-confirmation/pkg/storage"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// PostgreSQL unique_violation.
const pgErrUniqueViolation = "23505"

// transactionRow is the table layout for a transaction.
type transactionRow struct {
	SessionID         string          `gorm:"column:session_id;primaryKey;type:varchar(64)"`
	MerchantRequestID string          `gorm:"column:merchant_request_id;type:varchar(64)"`
	Phone             string          `gorm:"column:phone;type:varchar(20);not null;index:idx_phone_created,priority:1"`
	Amount            decimal.Decimal `gorm:"column:amount;type:numeric(14,2);not null"`
	AccountReference  string          `gorm:"column:account_reference;type:varchar(32);not null"`
	TransactionType   string          `gorm:"column:transaction_type;type:varchar(16);not null"`
	Description       string          `gorm:"column:description;type:varchar(64)"`
	Status            string          `gorm:"column:status;type:varchar(16);not null;index:idx_status_deadline,priority:1"`
	CreatedAt         time.Time       `gorm:"column:created_at;not null;index:idx_phone_created,priority:2"`
	Deadline          time.Time       `gorm:"column:deadline;not null;index:idx_status_deadline,priority:2"`
	ResolvedAt        *time.Time      `gorm:"column:resolved_at"`
	ReceiptReference  *string         `gorm:"column:receipt_reference;type:varchar(64)"`
	RawOutcome        []byte          `gorm:"column:raw_outcome;type:jsonb"`
}

func (transactionRow) TableName() string {
	return "stk_transactions"
}

// Store implements the Repository interface on top of gorm.
type Store struct {
	db *gorm.DB
}

// NewStore wraps an open gorm connection.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

var _ storage.Repository = (*Store)(nil)

// Open connects to Postgres, retrying while the database comes up.
func Open(ctx context.Context, dsn string, attempts int, log *slog.Logger) (*gorm.DB, error) {
	var lastErr error
	for i := range attempts {
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
			TranslateError: true,
			Logger:         logger.Default.LogMode(logger.Warn),
		})
		if err == nil {
			log.Info("Connected to Postgres", "attempt", i+1)
			return db, nil
		}
		lastErr = err
		log.Warn("Postgres connection attempt failed", "attempt", i+1, "error", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	return nil, fmt.Errorf("failed to connect to Postgres after %d attempts: %w", attempts, lastErr)
}

// Migrate creates or updates the transactions table and its indexes.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&transactionRow{}); err != nil {
		return fmt.Errorf("failed to migrate transactions table: %w", err)
	}
	return nil
}

func toRow(tx *models.Transaction) *transactionRow {
	return &transactionRow{
		SessionID:         tx.SessionId,
		MerchantRequestID: tx.MerchantRequestId,
		Phone:             tx.Phone,
		Amount:            tx.Amount,
		AccountReference:  tx.AccountReference,
		TransactionType:   string(tx.TransactionType),
		Description:       tx.Description,
		Status:            string(tx.Status),
		CreatedAt:         tx.CreatedAt.UTC(),
		Deadline:          tx.Deadline.UTC(),
		ResolvedAt:        tx.ResolvedAt,
		ReceiptReference:  tx.ReceiptReference,
		RawOutcome:        tx.RawOutcome,
	}
}

func (r *transactionRow) toModel() *models.Transaction {
	return &models.Transaction{
		SessionId:         r.SessionID,
		MerchantRequestId: r.MerchantRequestID,
		Phone:             r.Phone,
		Amount:            r.Amount,
		AccountReference:  r.AccountReference,
		TransactionType:   models.TransactionType(r.TransactionType),
		Description:       r.Description,
		Status:            models.TransactionStatus(r.Status),
		CreatedAt:         r.CreatedAt,
		Deadline:          r.Deadline,
		ResolvedAt:        r.ResolvedAt,
		ReceiptReference:  r.ReceiptReference,
		RawOutcome:        r.RawOutcome,
	}
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation
}
