package confirmation

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chris/stk-confirmation/pkg/gateway"
	gwmocks "github.com/chris/stk-confirmation/pkg/gateway/mocks"
	"github.com/chris/stk-confirmation/pkg/models"
	"github.com/chris/stk-confirmation/pkg/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newStatusFixture(t *testing.T) (*StatusService, *Reconciler, *gwmocks.Client, *memory.Store) {
	t.Helper()
	store := memory.New()
	gw := new(gwmocks.Client)
	r := NewReconciler(store, nil, DefaultResultCodes, 0, testLogger)
	return NewStatusService(store, gw, r, time.Second, testLogger), r, gw, store
}

func TestGetStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("Passive Poll Returns Pending", func(t *testing.T) {
		svc, _, gw, store := newStatusFixture(t)
		seedPending(t, store, "ABC123", time.Now().Add(time.Minute))

		tx, err := svc.GetStatus(ctx, "ABC123", false)
		require.NoError(t, err)
		assert.Equal(t, models.PENDING, tx.Status)
		gw.AssertNotCalled(t, "Query", mock.Anything, mock.Anything)
	})

	t.Run("Unknown Session", func(t *testing.T) {
		svc, _, _, _ := newStatusFixture(t)

		_, err := svc.GetStatus(ctx, "missing", true)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Webhook Then Poll", func(t *testing.T) {
		svc, r, _, store := newStatusFixture(t)
		seedPending(t, store, "ABC123", time.Now().Add(time.Minute))

		_, err := r.Resolve(ctx, "ABC123", successOutcome("ABC123", "RJ12XYZ"))
		require.NoError(t, err)

		tx, err := svc.GetStatus(ctx, "ABC123", false)
		require.NoError(t, err)
		assert.Equal(t, models.SUCCESS, tx.Status)
		assert.Equal(t, "RJ12XYZ", *tx.ReceiptReference)
	})

	t.Run("Terminal Record Skips Live Query", func(t *testing.T) {
		svc, r, gw, store := newStatusFixture(t)
		seedPending(t, store, "ABC123", time.Now().Add(time.Minute))

		_, err := r.Resolve(ctx, "ABC123", models.Outcome{SessionId: "ABC123", ResultCode: 1032, Source: models.SOURCE_WEBHOOK})
		require.NoError(t, err)

		tx, err := svc.GetStatus(ctx, "ABC123", true)
		require.NoError(t, err)
		assert.Equal(t, models.CANCELLED, tx.Status)
		gw.AssertNotCalled(t, "Query", mock.Anything, mock.Anything)
	})

	t.Run("Active Query Resolves", func(t *testing.T) {
		svc, _, gw, store := newStatusFixture(t)
		seedPending(t, store, "ABC123", time.Now().Add(time.Minute))

		outcome := successOutcome("ABC123", "QRY123")
		outcome.Source = models.SOURCE_QUERY
		gw.On("Query", mock.Anything, "ABC123").Return(&outcome, nil)

		tx, err := svc.GetStatus(ctx, "ABC123", true)
		require.NoError(t, err)
		assert.Equal(t, models.SUCCESS, tx.Status)
		assert.Equal(t, "QRY123", *tx.ReceiptReference)
		gw.AssertExpectations(t)
	})

	t.Run("Active Query Still Processing", func(t *testing.T) {
		svc, _, gw, store := newStatusFixture(t)
		seedPending(t, store, "ABC123", time.Now().Add(time.Minute))

		gw.On("Query", mock.Anything, "ABC123").Return(&models.Outcome{SessionId: "ABC123", Pending: true, Source: models.SOURCE_QUERY}, nil)

		tx, err := svc.GetStatus(ctx, "ABC123", true)
		require.NoError(t, err)
		assert.Equal(t, models.PENDING, tx.Status)
	})

	t.Run("Gateway Failure Reports Pending", func(t *testing.T) {
		svc, _, gw, store := newStatusFixture(t)
		seedPending(t, store, "ABC123", time.Now().Add(time.Minute))

		gw.On("Query", mock.Anything, "ABC123").Return(nil, gateway.ErrGatewayUnavailable)

		tx, err := svc.GetStatus(ctx, "ABC123", true)
		require.NoError(t, err)
		assert.Equal(t, models.PENDING, tx.Status)
		gw.AssertExpectations(t)
	})
}

func TestGetStatusQueriedSuccessWithoutReceipt(t *testing.T) {
	ctx := context.Background()

	t.Run("Stays Pending", func(t *testing.T) {
		svc, _, gw, store := newStatusFixture(t)
		seedPending(t, store, "ABC123", time.Now().Add(time.Minute))

		gw.On("Query", mock.Anything, "ABC123").Return(&models.Outcome{
			SessionId:  "ABC123",
			ResultCode: 0,
			Source:     models.SOURCE_QUERY,
			ReceivedAt: time.Now(),
		}, nil)

		tx, err := svc.GetStatus(ctx, "ABC123", true)
		require.NoError(t, err)
		assert.Equal(t, models.PENDING, tx.Status)
		assert.Nil(t, tx.ReceiptReference)
	})

	t.Run("Daraja Query Then Webhook Settles Success", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/oauth/v1/generate", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"access_token":"tok123","expires_in":"3599"}`))
		})
		mux.HandleFunc("/mpesa/stkpushquery/v1/query", func(w http.ResponseWriter, r *http.Request) {
			io.Copy(io.Discard, r.Body)
			w.Write([]byte(`{"ResponseCode":"0","MerchantRequestID":"m-1","CheckoutRequestID":"ABC123","ResultCode":"0","ResultDesc":"The service request is processed successfully."}`))
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		store := memory.New()
		gw := gateway.NewDarajaClient(gateway.Config{
			BaseURL:        srv.URL,
			ConsumerKey:    "key",
			ConsumerSecret: "secret",
			ShortCode:      "174379",
			Passkey:        "passkey",
			Timeout:        2 * time.Second,
		}, testLogger)
		r := NewReconciler(store, nil, DefaultResultCodes, 0, testLogger)
		svc := NewStatusService(store, gw, r, 2*time.Second, testLogger)
		seedPending(t, store, "ABC123", time.Now().Add(time.Minute))

		tx, err := svc.GetStatus(ctx, "ABC123", true)
		require.NoError(t, err)
		assert.Equal(t, models.PENDING, tx.Status)

		res, err := r.Resolve(ctx, "ABC123", successOutcome("ABC123", "RJ12XYZ"))
		require.NoError(t, err)
		assert.True(t, res.Applied)

		tx, err = svc.GetStatus(ctx, "ABC123", false)
		require.NoError(t, err)
		assert.Equal(t, models.SUCCESS, tx.Status)
		require.NotNil(t, tx.ReceiptReference)
		assert.Equal(t, "RJ12XYZ", *tx.ReceiptReference)
	})
}
