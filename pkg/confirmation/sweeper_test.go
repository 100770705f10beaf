package confirmation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chris/stk-confirmation/pkg/models"
	"github.com/chris/stk-confirmation/pkg/storage/memory"
	"github.com/chris/stk-confirmation/pkg/storage/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSweep(t *testing.T) {
	ctx := context.Background()

	t.Run("Times Out Expired Records", func(t *testing.T) {
		store := memory.New()
		pub := &recordingPublisher{}
		r := NewReconciler(store, pub, DefaultResultCodes, 0, testLogger)
		s := NewSweeper(store, r, 2, testLogger)

		for _, id := range []string{"a", "b", "c", "d", "e"} {
			seedPending(t, store, id, time.Now().Add(-time.Second))
		}
		seedPending(t, store, "fresh", time.Now().Add(time.Minute))

		report, err := s.Sweep(ctx)
		require.NoError(t, err)
		assert.Equal(t, 5, report.TimedOut)
		assert.Equal(t, 0, report.Errors)
		assert.Equal(t, 5, pub.count())

		for _, id := range []string{"a", "b", "c", "d", "e"} {
			tx, err := store.GetTransaction(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, models.TIMED_OUT, tx.Status, id)
		}
		tx, err := store.GetTransaction(ctx, "fresh")
		require.NoError(t, err)
		assert.Equal(t, models.PENDING, tx.Status)
	})

	t.Run("Resolved Records Are Left Alone", func(t *testing.T) {
		store := memory.New()
		r := NewReconciler(store, nil, DefaultResultCodes, 0, testLogger)
		s := NewSweeper(store, r, 10, testLogger)
		seedPending(t, store, "ABC123", time.Now().Add(-time.Second))

		_, err := r.Resolve(ctx, "ABC123", successOutcome("ABC123", "RJ12XYZ"))
		require.NoError(t, err)

		report, err := s.Sweep(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, report.Scanned)

		tx, _ := store.GetTransaction(ctx, "ABC123")
		assert.Equal(t, models.SUCCESS, tx.Status)
	})

	t.Run("List Fails", func(t *testing.T) {
		repo := new(mocks.Repository)
		r := NewReconciler(repo, nil, DefaultResultCodes, 0, testLogger)
		s := NewSweeper(repo, r, 10, testLogger)

		repo.On("ListExpiredTransactions", mock.Anything, mock.Anything, int32(10)).Return(nil, errors.New("index unavailable"))

		_, err := s.Sweep(ctx)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to list expired transactions")
		repo.AssertExpectations(t)
	})

	t.Run("Stale Index Does Not Spin", func(t *testing.T) {
		repo := new(mocks.Repository)
		r := NewReconciler(repo, nil, DefaultResultCodes, 0, testLogger)
		s := NewSweeper(repo, r, 1, testLogger)

		stale := models.Transaction{SessionId: "ABC123", Status: models.PENDING}
		resolved := &models.Transaction{SessionId: "ABC123", Status: models.SUCCESS}
		repo.On("ListExpiredTransactions", mock.Anything, mock.Anything, int32(1)).Return([]models.Transaction{stale}, nil)
		repo.On("CompareAndSetStatus", mock.Anything, "ABC123", models.PENDING, mock.Anything).Return(false, nil)
		repo.On("GetTransaction", mock.Anything, "ABC123").Return(resolved, nil)

		report, err := s.Sweep(ctx)
		require.NoError(t, err)
		assert.Equal(t, maxBatchesPerSweep, report.Skipped)
		assert.Equal(t, 0, report.TimedOut)
	})
}
