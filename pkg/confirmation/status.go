package confirmation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chris/stk-confirmation/pkg/gateway"
	"github.com/chris/stk-confirmation/pkg/models"
	"github.com/chris/stk-confirmation/pkg/storage"
)

// StatusService answers polls for a session's status, optionally asking the gateway
// when the record is still Pending.
type StatusService struct {
	store        storage.TransactionReader
	gateway      gateway.Client
	reconciler   *Reconciler
	queryTimeout time.Duration
	logger       *slog.Logger
}

// NewStatusService creates a StatusService.
func NewStatusService(store storage.TransactionReader, gw gateway.Client, reconciler *Reconciler, queryTimeout time.Duration, logger *slog.Logger) *StatusService {
	return &StatusService{
		store:        store,
		gateway:      gw,
		reconciler:   reconciler,
		queryTimeout: queryTimeout,
		logger:       logger,
	}
}

// GetStatus returns the session's record. With activeQuery set and the record still
// Pending, the gateway is queried and its answer applied. Gateway failures are not
// surfaced; the caller sees Pending and keeps polling.
func (s *StatusService) GetStatus(ctx context.Context, sessionID string, activeQuery bool) (*models.Transaction, error) {
	tx, err := s.store.GetTransaction(ctx, sessionID)
	if errors.Is(err, storage.ErrTransactionNotFound) {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction: %w", err)
	}

	if tx.Status.IsTerminal() || !activeQuery {
		return tx, nil
	}

	qctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	outcome, err := s.gateway.Query(qctx, sessionID)
	if err != nil {
		s.logger.Warn("Active query failed, reporting Pending", "session_id", sessionID, "error", err)
		return tx, nil
	}
	if outcome.Pending {
		return tx, nil
	}

	if outcome.Source == models.SOURCE_QUERY && s.reconciler.codes.Status(*outcome) == models.SUCCESS && outcome.Receipt() == "" {
		// Query responses carry no receipt. The webhook or the sweeper settles it.
		s.logger.Warn("Queried success has no receipt, leaving Pending",
			"session_id", sessionID, "anomaly", "QueryWithoutReceipt")
		return tx, nil
	}

	res, err := s.reconciler.Resolve(ctx, sessionID, *outcome)
	if err != nil {
		s.logger.Error("Failed to apply queried outcome", "session_id", sessionID, "error", err)
		return tx, nil
	}
	return res.Transaction, nil
}
