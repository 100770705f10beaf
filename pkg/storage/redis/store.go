package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/chris/stk-confirmation/pkg/models"
	"github.com/chris/stk-confirmation/pkg/storage"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const (
	keyPrefix   = "stk:tx:"
	pendingKey  = "stk:pending"
	phonePrefix = "stk:phone:"
)

// KEYS: tx hash, pending set, phone set. ARGV: session id, deadline ms, created ms, field/value pairs.
var createScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
  return 0
end
redis.call('HSET', KEYS[1], unpack(ARGV, 4))
redis.call('ZADD', KEYS[2], ARGV[2], ARGV[1])
redis.call('ZADD', KEYS[3], ARGV[3], ARGV[1])
return 1
`)

// KEYS: tx hash, pending set. ARGV: expected status, session id, field/value pairs.
// Returns -1 when the record is missing, 0 on status mismatch and 1 when applied.
var compareAndSetScript = redis.NewScript(`
local status = redis.call('HGET', KEYS[1], 'status')
if not status then
  return -1
end
if status ~= ARGV[1] then
  return 0
end
redis.call('HSET', KEYS[1], unpack(ARGV, 3))
if redis.call('HGET', KEYS[1], 'status') ~= 'Pending' then
  redis.call('ZREM', KEYS[2], ARGV[2])
end
return 1
`)

// Store implements the Repository interface on Redis. Each transaction is a hash;
// sorted sets index pending deadlines and per-phone history.
type Store struct {
	client *redis.Client
}

// New creates a Store over an existing client.
func New(client *redis.Client) *Store {
	return &Store{client: client}
}

var _ storage.Repository = (*Store)(nil)

func txKey(sessionID string) string { return keyPrefix + sessionID }

func phoneKey(phone string) string { return phonePrefix + phone }

func millis(t time.Time) string { return strconv.FormatInt(t.UnixMilli(), 10) }

func (s *Store) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	fields := []interface{}{
		"session_id", tx.SessionId,
		"merchant_request_id", tx.MerchantRequestId,
		"phone", tx.Phone,
		"amount", tx.Amount.String(),
		"account_reference", tx.AccountReference,
		"transaction_type", string(tx.TransactionType),
		"description", tx.Description,
		"status", string(tx.Status),
		"created_at", millis(tx.CreatedAt),
		"deadline", millis(tx.Deadline),
	}
	args := append([]interface{}{tx.SessionId, millis(tx.Deadline), millis(tx.CreatedAt)}, fields...)

	created, err := createScript.Run(ctx, s.client, []string{txKey(tx.SessionId), pendingKey, phoneKey(tx.Phone)}, args...).Int()
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	if created == 0 {
		return storage.ErrTransactionExists
	}
	return nil
}

func (s *Store) GetTransaction(ctx context.Context, sessionID string) (*models.Transaction, error) {
	values, err := s.client.HGetAll(ctx, txKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction: %w", err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("session %s: %w", sessionID, storage.ErrTransactionNotFound)
	}
	return fromHash(values)
}

func (s *Store) CompareAndSetStatus(ctx context.Context, sessionID string, expected models.TransactionStatus, update storage.StatusUpdate) (bool, error) {
	fields := []interface{}{
		"status", string(update.Status),
		"resolved_at", millis(update.ResolvedAt),
	}
	if update.ReceiptReference != nil {
		fields = append(fields, "receipt_reference", *update.ReceiptReference)
	}
	if len(update.RawOutcome) > 0 {
		fields = append(fields, "raw_outcome", string(update.RawOutcome))
	}
	return s.conditionalUpdate(ctx, sessionID, expected, fields)
}

func (s *Store) UpdateRawOutcome(ctx context.Context, sessionID string, status models.TransactionStatus, raw json.RawMessage) (bool, error) {
	return s.conditionalUpdate(ctx, sessionID, status, []interface{}{"raw_outcome", string(raw)})
}

func (s *Store) conditionalUpdate(ctx context.Context, sessionID string, expected models.TransactionStatus, fields []interface{}) (bool, error) {
	args := append([]interface{}{string(expected), sessionID}, fields...)
	result, err := compareAndSetScript.Run(ctx, s.client, []string{txKey(sessionID), pendingKey}, args...).Int()
	if err != nil {
		return false, fmt.Errorf("failed to update transaction status: %w", err)
	}
	switch result {
	case -1:
		return false, fmt.Errorf("session %s: %w", sessionID, storage.ErrTransactionNotFound)
	case 0:
		return false, nil
	default:
		return true, nil
	}
}

func (s *Store) ListExpiredTransactions(ctx context.Context, now time.Time, limit int32) ([]models.Transaction, error) {
	ids, err := s.client.ZRangeByScore(ctx, pendingKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   millis(now),
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to query for expired transactions: %w", err)
	}

	txs, err := s.loadAll(ctx, ids)
	if err != nil {
		return nil, err
	}
	expired := txs[:0]
	for _, tx := range txs {
		if tx.Status == models.PENDING {
			expired = append(expired, tx)
		}
	}
	return expired, nil
}

func (s *Store) ListTransactionsByPhone(ctx context.Context, phone string, limit int32) ([]models.Transaction, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	ids, err := s.client.ZRevRange(ctx, phoneKey(phone), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to query for transactions by phone: %w", err)
	}
	return s.loadAll(ctx, ids)
}

func (s *Store) loadAll(ctx context.Context, ids []string) ([]models.Transaction, error) {
	if len(ids) == 0 {
		return []models.Transaction{}, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, txKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	txs := make([]models.Transaction, 0, len(ids))
	for _, cmd := range cmds {
		values := cmd.Val()
		if len(values) == 0 {
			continue
		}
		tx, err := fromHash(values)
		if err != nil {
			return nil, err
		}
		txs = append(txs, *tx)
	}
	return txs, nil
}

func fromHash(h map[string]string) (*models.Transaction, error) {
	amount, err := decimal.NewFromString(h["amount"])
	if err != nil {
		return nil, fmt.Errorf("failed to parse amount %q: %w", h["amount"], err)
	}
	created, err := parseMillis(h["created_at"])
	if err != nil {
		return nil, err
	}
	deadline, err := parseMillis(h["deadline"])
	if err != nil {
		return nil, err
	}

	tx := &models.Transaction{
		SessionId:         h["session_id"],
		MerchantRequestId: h["merchant_request_id"],
		Phone:             h["phone"],
		Amount:            amount,
		AccountReference:  h["account_reference"],
		TransactionType:   models.TransactionType(h["transaction_type"]),
		Description:       h["description"],
		Status:            models.TransactionStatus(h["status"]),
		CreatedAt:         created,
		Deadline:          deadline,
	}
	if v, ok := h["resolved_at"]; ok {
		resolved, err := parseMillis(v)
		if err != nil {
			return nil, err
		}
		tx.ResolvedAt = &resolved
	}
	if v, ok := h["receipt_reference"]; ok {
		tx.ReceiptReference = &v
	}
	if v := h["raw_outcome"]; v != "" {
		tx.RawOutcome = json.RawMessage(v)
	}
	return tx, nil
}

func parseMillis(v string) (time.Time, error) {
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", v, err)
	}
	return time.UnixMilli(ms).UTC(), nil
}
