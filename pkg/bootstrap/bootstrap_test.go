package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/chris/stk-confirmation/pkg/config"
	"github.com/chris/stk-confirmation/pkg/confirmation"
	"github.com/chris/stk-confirmation/pkg/dispatch"
	"github.com/chris/stk-confirmation/pkg/gateway"
	gwmocks "github.com/chris/stk-confirmation/pkg/gateway/mocks"
	"github.com/chris/stk-confirmation/pkg/models"
	"github.com/chris/stk-confirmation/pkg/storage/memory"
	redisstore "github.com/chris/stk-confirmation/pkg/storage/redis"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func testConfig() *config.Config {
	return &config.Config{
		StoreBackend:       config.BackendMemory,
		Gateway:            gateway.Config{Timeout: time.Second},
		ConfirmationWindow: time.Minute,
		StatusQueryTimeout: time.Second,
		SweepInterval:      time.Second,
		SweepBatchSize:     10,
		ResultCodes:        confirmation.DefaultResultCodes,
	}
}

func TestNewRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Memory", func(t *testing.T) {
		store, closer, err := NewRepository(ctx, testConfig(), testLogger)
		require.NoError(t, err)
		assert.IsType(t, &memory.Store{}, store)
		assert.Nil(t, closer)
	})

	t.Run("Redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := testConfig()
		cfg.StoreBackend = config.BackendRedis
		cfg.RedisAddr = mr.Addr()

		store, closer, err := NewRepository(ctx, cfg, testLogger)
		require.NoError(t, err)
		assert.IsType(t, &redisstore.Store{}, store)
		assert.NoError(t, closer())
	})

	t.Run("Redis Unreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		cfg := testConfig()
		cfg.StoreBackend = config.BackendRedis
		cfg.RedisAddr = addr

		_, _, err := NewRepository(ctx, cfg, testLogger)
		assert.Error(t, err)
	})

	t.Run("Unknown Backend", func(t *testing.T) {
		cfg := testConfig()
		cfg.StoreBackend = "mongo"

		_, _, err := NewRepository(ctx, cfg, testLogger)
		assert.Error(t, err)
	})
}

func TestNewEngine(t *testing.T) {
	ctx := context.Background()
	gw := new(gwmocks.Client)

	e, err := New(ctx, testConfig(), testLogger, WithGateway(gw))
	require.NoError(t, err)
	defer e.Close()

	assert.IsType(t, &dispatch.InlineDispatcher{}, e.Dispatcher)

	gw.On("Initiate", mock.Anything, mock.Anything).Return(&gateway.PushResponse{SessionID: "ABC123"}, nil)

	res, err := e.Initiator.Initiate(ctx, confirmation.InitiateRequest{
		Phone:            "254712345678",
		Amount:           decimal.NewFromInt(10),
		AccountReference: "INV001",
	})
	require.NoError(t, err)

	updates, unsubscribe := e.Hub.Subscribe(res.SessionID)
	defer unsubscribe()

	require.NoError(t, e.Dispatcher.Dispatch(ctx, models.Outcome{
		SessionId:  res.SessionID,
		ResultCode: 1032,
		Source:     models.SOURCE_WEBHOOK,
	}))

	select {
	case msg := <-updates:
		assert.Equal(t, "ABC123", msg.SessionID)
	case <-time.After(time.Second):
		t.Fatal("no status update published")
	}

	tx, err := e.Status.GetStatus(ctx, "ABC123", false)
	require.NoError(t, err)
	assert.Equal(t, models.CANCELLED, tx.Status)
}
