package confirmation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chris/stk-confirmation/pkg/models"
	"github.com/chris/stk-confirmation/pkg/storage"
)

// Bounds a single sweep when an index lags behind the table.
const maxBatchesPerSweep = 50

// SweepReport summarises one sweep.
type SweepReport struct {
	Scanned  int
	TimedOut int
	// Skipped counts records that resolved through another path after being selected.
	Skipped int
	Errors  int
}

// Sweeper times out Pending transactions whose confirmation window has elapsed.
type Sweeper struct {
	store      storage.TransactionReader
	reconciler *Reconciler
	batchSize  int32
	logger     *slog.Logger
	now        func() time.Time
}

// NewSweeper creates a Sweeper.
func NewSweeper(store storage.TransactionReader, reconciler *Reconciler, batchSize int32, logger *slog.Logger) *Sweeper {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Sweeper{
		store:      store,
		reconciler: reconciler,
		batchSize:  batchSize,
		logger:     logger,
		now:        time.Now,
	}
}

// Sweep resolves every expired Pending record as TimedOut. It keeps pulling batches
// until a batch comes back short or makes no progress.
func (s *Sweeper) Sweep(ctx context.Context) (SweepReport, error) {
	var report SweepReport
	now := s.now()

	for i := 0; i < maxBatchesPerSweep; i++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		batch, err := s.store.ListExpiredTransactions(ctx, now, s.batchSize)
		if err != nil {
			return report, fmt.Errorf("failed to list expired transactions: %w", err)
		}
		report.Scanned += len(batch)

		progressed := 0
		for _, tx := range batch {
			res, err := s.reconciler.Resolve(ctx, tx.SessionId, models.ExpiredOutcome(tx.SessionId, now))
			if err != nil {
				report.Errors++
				s.logger.Error("Failed to time out transaction", "session_id", tx.SessionId, "error", err)
				continue
			}
			if res.Applied {
				report.TimedOut++
			} else {
				report.Skipped++
			}
			progressed++
		}

		if len(batch) < int(s.batchSize) || progressed == 0 {
			break
		}
	}

	if report.Scanned > 0 {
		s.logger.Info("Sweep complete",
			"scanned", report.Scanned,
			"timed_out", report.TimedOut,
			"skipped", report.Skipped,
			"errors", report.Errors,
		)
	}
	return report, nil
}
