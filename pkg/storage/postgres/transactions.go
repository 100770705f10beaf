package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/chris/stk-confirmation/pkg/models"
	"github.com/chris/stk-confirmation/pkg/storage"
	"gorm.io/gorm"
)

func (s *Store) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	if err := s.db.WithContext(ctx).Create(toRow(tx)).Error; err != nil {
		if isDuplicate(err) {
			return storage.ErrTransactionExists
		}
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

func (s *Store) GetTransaction(ctx context.Context, sessionID string) (*models.Transaction, error) {
	var row transactionRow
	err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("session %s: %w", sessionID, storage.ErrTransactionNotFound)
		}
		return nil, fmt.Errorf("failed to load transaction: %w", err)
	}
	return row.toModel(), nil
}

// CompareAndSetStatus issues a single conditional UPDATE; the row count tells whether it applied.
func (s *Store) CompareAndSetStatus(ctx context.Context, sessionID string, expected models.TransactionStatus, update storage.StatusUpdate) (bool, error) {
	fields := map[string]interface{}{
		"status":      string(update.Status),
		"resolved_at": update.ResolvedAt.UTC(),
	}
	if update.ReceiptReference != nil {
		fields["receipt_reference"] = *update.ReceiptReference
	}
	if len(update.RawOutcome) > 0 {
		fields["raw_outcome"] = []byte(update.RawOutcome)
	}
	return s.conditionalUpdate(ctx, sessionID, expected, fields)
}

func (s *Store) UpdateRawOutcome(ctx context.Context, sessionID string, status models.TransactionStatus, raw json.RawMessage) (bool, error) {
	return s.conditionalUpdate(ctx, sessionID, status, map[string]interface{}{"raw_outcome": []byte(raw)})
}

func (s *Store) conditionalUpdate(ctx context.Context, sessionID string, expected models.TransactionStatus, fields map[string]interface{}) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&transactionRow{}).
		Where("session_id = ? AND status = ?", sessionID, string(expected)).
		Updates(fields)
	if res.Error != nil {
		return false, fmt.Errorf("failed to update transaction status: %w", res.Error)
	}
	if res.RowsAffected == 1 {
		return true, nil
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&transactionRow{}).Where("session_id = ?", sessionID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check transaction existence: %w", err)
	}
	if count == 0 {
		return false, fmt.Errorf("session %s: %w", sessionID, storage.ErrTransactionNotFound)
	}
	return false, nil
}

func (s *Store) ListExpiredTransactions(ctx context.Context, now time.Time, limit int32) ([]models.Transaction, error) {
	var rows []transactionRow
	q := s.db.WithContext(ctx).
		Where("status = ? AND deadline <= ?", string(models.PENDING), now.UTC()).
		Order("deadline ASC")
	if limit > 0 {
		q = q.Limit(int(limit))
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query for expired transactions: %w", err)
	}
	return toModels(rows), nil
}

func (s *Store) ListTransactionsByPhone(ctx context.Context, phone string, limit int32) ([]models.Transaction, error) {
	var rows []transactionRow
	q := s.db.WithContext(ctx).
		Where("phone = ?", phone).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(int(limit))
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query for transactions by phone: %w", err)
	}
	return toModels(rows), nil
}

func toModels(rows []transactionRow) []models.Transaction {
	out := make([]models.Transaction, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].toModel())
	}
	return out
}
