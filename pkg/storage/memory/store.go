package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/chris/stk-confirmation/pkg/models"
	"github.com/chris/stk-confirmation/pkg/storage"
)

// Store is an in-process Repository. All access goes through one mutex so the
// compare-and-set is linearizable.
type Store struct {
	mu           sync.Mutex
	transactions map[string]*models.Transaction
}

// New creates an empty Store.
func New() *Store {
	return &Store{transactions: make(map[string]*models.Transaction)}
}

var _ storage.Repository = (*Store)(nil)

func (s *Store) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.transactions[tx.SessionId]; ok {
		return storage.ErrTransactionExists
	}
	s.transactions[tx.SessionId] = clone(tx)
	return nil
}

func (s *Store) GetTransaction(ctx context.Context, sessionID string) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactions[sessionID]
	if !ok {
		return nil, storage.ErrTransactionNotFound
	}
	return clone(tx), nil
}

func (s *Store) CompareAndSetStatus(ctx context.Context, sessionID string, expected models.TransactionStatus, update storage.StatusUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactions[sessionID]
	if !ok {
		return false, storage.ErrTransactionNotFound
	}
	if tx.Status != expected {
		return false, nil
	}

	resolvedAt := update.ResolvedAt
	tx.Status = update.Status
	tx.ResolvedAt = &resolvedAt
	if update.ReceiptReference != nil {
		receipt := *update.ReceiptReference
		tx.ReceiptReference = &receipt
	}
	tx.RawOutcome = append(json.RawMessage(nil), update.RawOutcome...)
	return true, nil
}

func (s *Store) UpdateRawOutcome(ctx context.Context, sessionID string, status models.TransactionStatus, raw json.RawMessage) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactions[sessionID]
	if !ok {
		return false, storage.ErrTransactionNotFound
	}
	if tx.Status != status {
		return false, nil
	}
	tx.RawOutcome = append(json.RawMessage(nil), raw...)
	return true, nil
}

func (s *Store) ListExpiredTransactions(ctx context.Context, now time.Time, limit int32) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []models.Transaction
	for _, tx := range s.transactions {
		if tx.Status == models.PENDING && tx.Expired(now) {
			expired = append(expired, *clone(tx))
		}
	}
	sort.Slice(expired, func(i, j int) bool { return expired[i].Deadline.Before(expired[j].Deadline) })
	return truncate(expired, limit), nil
}

func (s *Store) ListTransactionsByPhone(ctx context.Context, phone string, limit int32) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matches []models.Transaction
	for _, tx := range s.transactions {
		if tx.Phone == phone {
			matches = append(matches, *clone(tx))
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].CreatedAt.After(matches[j].CreatedAt) })
	return truncate(matches, limit), nil
}

func truncate(txs []models.Transaction, limit int32) []models.Transaction {
	if limit > 0 && len(txs) > int(limit) {
		return txs[:limit]
	}
	return txs
}

func clone(tx *models.Transaction) *models.Transaction {
	c := *tx
	if tx.ResolvedAt != nil {
		t := *tx.ResolvedAt
		c.ResolvedAt = &t
	}
	if tx.ReceiptReference != nil {
		r := *tx.ReceiptReference
		c.ReceiptReference = &r
	}
	if tx.RawOutcome != nil {
		c.RawOutcome = append(json.RawMessage(nil), tx.RawOutcome...)
	}
	return &c
}
