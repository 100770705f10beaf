package confirmation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chris/stk-confirmation/pkg/models"
	"github.com/chris/stk-confirmation/pkg/notify"
	"github.com/chris/stk-confirmation/pkg/storage"
	"github.com/google/uuid"
)

// Result describes what Resolve did with an outcome.
type Result struct {
	Transaction *models.Transaction
	// Applied is true only for the call that moved the record out of Pending.
	Applied bool
	// Duplicate is true when the record already held the same terminal status.
	Duplicate bool
	// Conflict is true when the record already held a different terminal status.
	Conflict bool
}

// Reconciler is the only component that changes a transaction's status.
type Reconciler struct {
	store              storage.Repository
	publisher          notify.Publisher
	codes              ResultCodes
	notFoundRetryDelay time.Duration
	logger             *slog.Logger
	now                func() time.Time
}

// NewReconciler creates a Reconciler. A zero notFoundRetryDelay disables the retry
// for outcomes that arrive before their record is visible.
func NewReconciler(store storage.Repository, publisher notify.Publisher, codes ResultCodes, notFoundRetryDelay time.Duration, logger *slog.Logger) *Reconciler {
	if publisher == nil {
		publisher = &notify.NoOpPublisher{}
	}
	return &Reconciler{
		store:              store,
		publisher:          publisher,
		codes:              codes,
		notFoundRetryDelay: notFoundRetryDelay,
		logger:             logger,
		now:                time.Now,
	}
}

// Resolve applies an outcome to the session's record. The first terminal outcome
// wins; later ones never change status or receipt.
func (r *Reconciler) Resolve(ctx context.Context, sessionID string, outcome models.Outcome) (*Result, error) {
	log := r.logger.With("session_id", sessionID, "source", outcome.Source)

	if outcome.Pending {
		tx, err := r.load(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		return &Result{Transaction: tx}, nil
	}

	target := r.codes.Status(outcome)
	var receipt *string
	if target == models.SUCCESS {
		if ref := outcome.Receipt(); ref != "" {
			receipt = &ref
		} else {
			log.Warn("Success outcome without receipt, downgrading to Failed",
				"anomaly", "MissingReceipt", "result_code", outcome.ResultCode)
			target = models.FAILED
		}
	}

	raw, err := rawOutcome(outcome)
	if err != nil {
		return nil, err
	}

	update := storage.StatusUpdate{
		Status:           target,
		ResolvedAt:       r.now().UTC(),
		ReceiptReference: receipt,
		RawOutcome:       raw,
	}

	applied, err := r.store.CompareAndSetStatus(ctx, sessionID, models.PENDING, update)
	if errors.Is(err, storage.ErrTransactionNotFound) && r.notFoundRetryDelay > 0 {
		// The push may have been accepted before its record was committed.
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.notFoundRetryDelay):
		}
		applied, err = r.store.CompareAndSetStatus(ctx, sessionID, models.PENDING, update)
	}
	if errors.Is(err, storage.ErrTransactionNotFound) {
		log.Warn("Outcome for unknown session dropped", "anomaly", "NotFound", "result_code", outcome.ResultCode)
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to apply outcome: %w", err)
	}

	tx, err := r.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if applied {
		log.Info("Transaction resolved", "status", target, "result_code", outcome.ResultCode)
		r.publish(ctx, tx)
		return &Result{Transaction: tx, Applied: true}, nil
	}

	if tx.Status == target {
		if outcome.Source != models.SOURCE_SWEEPER {
			if _, err := r.store.UpdateRawOutcome(ctx, sessionID, target, raw); err != nil {
				log.Error("Failed to record duplicate outcome", "error", err)
			}
		}
		log.Debug("Duplicate outcome ignored", "status", target)
		return &Result{Transaction: tx, Duplicate: true}, nil
	}

	log.Warn("Conflicting outcome ignored",
		"anomaly", "ConflictIgnored",
		"current_status", tx.Status,
		"attempted_status", target,
		"result_code", outcome.ResultCode,
	)
	return &Result{Transaction: tx, Conflict: true}, nil
}

func (r *Reconciler) load(ctx context.Context, sessionID string) (*models.Transaction, error) {
	tx, err := r.store.GetTransaction(ctx, sessionID)
	if errors.Is(err, storage.ErrTransactionNotFound) {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction: %w", err)
	}
	return tx, nil
}

func (r *Reconciler) publish(ctx context.Context, tx *models.Transaction) {
	resolvedAt := r.now().UTC()
	if tx.ResolvedAt != nil {
		resolvedAt = *tx.ResolvedAt
	}
	msg := notify.Message{
		ID:        uuid.New().String(),
		Type:      notify.MessageTypeStatusUpdate,
		SessionID: tx.SessionId,
		Payload: notify.StatusUpdatePayload{
			SessionID:        tx.SessionId,
			Status:           string(tx.Status),
			ReceiptReference: tx.ReceiptReference,
			ResolvedAt:       resolvedAt,
		},
	}
	if err := r.publisher.Publish(ctx, msg); err != nil {
		r.logger.Error("Failed to publish status update", "session_id", tx.SessionId, "error", err)
	}
}

func rawOutcome(o models.Outcome) (json.RawMessage, error) {
	if len(o.Raw) > 0 {
		return o.Raw, nil
	}
	raw, err := json.Marshal(o)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal outcome: %w", err)
	}
	return raw, nil
}
