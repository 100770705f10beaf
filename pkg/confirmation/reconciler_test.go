package confirmation

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chris/stk-confirmation/pkg/models"
	"github.com/chris/stk-confirmation/pkg/storage"
	"github.com/chris/stk-confirmation/pkg/storage/memory"
	"github.com/chris/stk-confirmation/pkg/storage/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("Success With Receipt", func(t *testing.T) {
		store := memory.New()
		pub := &recordingPublisher{}
		r := NewReconciler(store, pub, DefaultResultCodes, 0, testLogger)
		seedPending(t, store, "ABC123", time.Now().Add(time.Minute))

		res, err := r.Resolve(ctx, "ABC123", successOutcome("ABC123", "RJ12XYZ"))
		require.NoError(t, err)
		assert.True(t, res.Applied)
		assert.Equal(t, models.SUCCESS, res.Transaction.Status)
		require.NotNil(t, res.Transaction.ReceiptReference)
		assert.Equal(t, "RJ12XYZ", *res.Transaction.ReceiptReference)
		assert.NotNil(t, res.Transaction.ResolvedAt)
		assert.Equal(t, 1, pub.count())
	})

	t.Run("Duplicate Delivery Is No-Op", func(t *testing.T) {
		store := memory.New()
		pub := &recordingPublisher{}
		r := NewReconciler(store, pub, DefaultResultCodes, 0, testLogger)
		seedPending(t, store, "ABC123", time.Now().Add(time.Minute))

		_, err := r.Resolve(ctx, "ABC123", successOutcome("ABC123", "RJ12XYZ"))
		require.NoError(t, err)

		res, err := r.Resolve(ctx, "ABC123", successOutcome("ABC123", "OTHER99"))
		require.NoError(t, err)
		assert.False(t, res.Applied)
		assert.True(t, res.Duplicate)
		assert.Equal(t, "RJ12XYZ", *res.Transaction.ReceiptReference)
		assert.Equal(t, 1, pub.count())
	})

	t.Run("Conflicting Terminal Status Ignored", func(t *testing.T) {
		store := memory.New()
		r := NewReconciler(store, nil, DefaultResultCodes, 0, testLogger)
		seedPending(t, store, "ABC123", time.Now().Add(time.Minute))

		_, err := r.Resolve(ctx, "ABC123", models.Outcome{SessionId: "ABC123", ResultCode: 1032, Source: models.SOURCE_WEBHOOK})
		require.NoError(t, err)

		res, err := r.Resolve(ctx, "ABC123", successOutcome("ABC123", "RJ12XYZ"))
		require.NoError(t, err)
		assert.True(t, res.Conflict)
		assert.Equal(t, models.CANCELLED, res.Transaction.Status)
		assert.Nil(t, res.Transaction.ReceiptReference)
	})

	t.Run("Missing Receipt Downgrades To Failed", func(t *testing.T) {
		store := memory.New()
		r := NewReconciler(store, nil, DefaultResultCodes, 0, testLogger)
		seedPending(t, store, "ABC123", time.Now().Add(time.Minute))

		res, err := r.Resolve(ctx, "ABC123", models.Outcome{SessionId: "ABC123", ResultCode: 0, Source: models.SOURCE_WEBHOOK})
		require.NoError(t, err)
		assert.True(t, res.Applied)
		assert.Equal(t, models.FAILED, res.Transaction.Status)
		assert.Nil(t, res.Transaction.ReceiptReference)
	})

	t.Run("Unknown Session Never Fabricated", func(t *testing.T) {
		store := memory.New()
		r := NewReconciler(store, nil, DefaultResultCodes, time.Millisecond, testLogger)

		_, err := r.Resolve(ctx, "ghost", successOutcome("ghost", "RJ12XYZ"))
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = store.GetTransaction(ctx, "ghost")
		assert.ErrorIs(t, err, storage.ErrTransactionNotFound)
	})

	t.Run("Record Appears Before Retry", func(t *testing.T) {
		store := memory.New()
		r := NewReconciler(store, nil, DefaultResultCodes, 50*time.Millisecond, testLogger)

		type result struct {
			res *Result
			err error
		}
		done := make(chan result, 1)
		go func() {
			res, err := r.Resolve(ctx, "late", successOutcome("late", "RJ12XYZ"))
			done <- result{res, err}
		}()

		time.Sleep(5 * time.Millisecond)
		seedPending(t, store, "late", time.Now().Add(time.Minute))

		got := <-done
		require.NoError(t, got.err)
		assert.True(t, got.res.Applied)
	})

	t.Run("Pending Query Outcome Changes Nothing", func(t *testing.T) {
		store := memory.New()
		r := NewReconciler(store, nil, DefaultResultCodes, 0, testLogger)
		seedPending(t, store, "ABC123", time.Now().Add(time.Minute))

		res, err := r.Resolve(ctx, "ABC123", models.Outcome{SessionId: "ABC123", Pending: true, Source: models.SOURCE_QUERY})
		require.NoError(t, err)
		assert.False(t, res.Applied)
		assert.Equal(t, models.PENDING, res.Transaction.Status)
	})

	t.Run("Storage Error", func(t *testing.T) {
		store := new(mocks.Repository)
		r := NewReconciler(store, nil, DefaultResultCodes, 0, testLogger)

		store.On("CompareAndSetStatus", mock.Anything, "ABC123", models.PENDING, mock.Anything).Return(false, errors.New("connection reset"))

		_, err := r.Resolve(ctx, "ABC123", successOutcome("ABC123", "RJ12XYZ"))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to apply outcome")
		store.AssertExpectations(t)
	})
}

func TestResolveRace(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	pub := &recordingPublisher{}
	r := NewReconciler(store, pub, DefaultResultCodes, 0, testLogger)
	seedPending(t, store, "ABC123", time.Now().Add(-time.Second))

	var applied int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			res, err := r.Resolve(ctx, "ABC123", successOutcome("ABC123", "RJ12XYZ"))
			if assert.NoError(t, err) && res.Applied {
				atomic.AddInt32(&applied, 1)
			}
		}()
		go func() {
			defer wg.Done()
			res, err := r.Resolve(ctx, "ABC123", models.ExpiredOutcome("ABC123", time.Now()))
			if assert.NoError(t, err) && res.Applied {
				atomic.AddInt32(&applied, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), applied)
	assert.Equal(t, 1, pub.count())

	tx, err := store.GetTransaction(ctx, "ABC123")
	require.NoError(t, err)
	assert.True(t, tx.Status == models.SUCCESS || tx.Status == models.TIMED_OUT)
	if tx.Status == models.SUCCESS {
		assert.NotNil(t, tx.ReceiptReference)
	}
}
