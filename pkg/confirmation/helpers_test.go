package confirmation

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/chris/stk-confirmation/pkg/models"
	"github.com/chris/stk-confirmation/pkg/notify"
	"github.com/chris/stk-confirmation/pkg/storage/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (p *recordingPublisher) Publish(ctx context.Context, message notify.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, message)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.msgs)
}

func seedPending(t *testing.T, store *memory.Store, sessionID string, deadline time.Time) {
	t.Helper()
	require.NoError(t, store.CreateTransaction(context.Background(), &models.Transaction{
		SessionId:        sessionID,
		Phone:            "254712345678",
		Amount:           decimal.NewFromInt(100),
		AccountReference: "INV001",
		TransactionType:  models.PAYBILL,
		Status:           models.PENDING,
		CreatedAt:        deadline.Add(-time.Minute),
		Deadline:         deadline,
	}))
}

func successOutcome(sessionID, receipt string) models.Outcome {
	return models.Outcome{
		SessionId:  sessionID,
		ResultCode: 0,
		Source:     models.SOURCE_WEBHOOK,
		Metadata:   []models.MetadataItem{{Name: "MpesaReceiptNumber", Value: receipt}},
		ReceivedAt: time.Now(),
	}
}
