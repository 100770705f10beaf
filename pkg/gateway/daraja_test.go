package gateway

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chris/stk-confirmation/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	tokenCalls int32
	push       http.HandlerFunc
	query      http.HandlerFunc
	lastPush   pushBody
}

func (f *fakeProvider) server(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/v1/generate", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.tokenCalls, 1)
		user, pass, ok := r.BasicAuth()
		if !ok || user != "key" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"access_token":"tok123","expires_in":"3599"}`))
	})
	mux.HandleFunc(pushPath, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &f.lastPush)
		f.push(w, r)
	})
	mux.HandleFunc(queryPath, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		f.query(w, r)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(srv *httptest.Server) *DarajaClient {
	return NewDarajaClient(Config{
		BaseURL:        srv.URL,
		ConsumerKey:    "key",
		ConsumerSecret: "secret",
		ShortCode:      "174379",
		Passkey:        "passkey",
		CallbackURL:    "https://example.com/callback",
		Timeout:        2 * time.Second,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestInitiate(t *testing.T) {
	req := PushRequest{
		Phone:            "254712345678",
		Amount:           decimal.NewFromInt(100),
		AccountReference: "INV001",
		TransactionType:  models.PAYBILL,
	}

	t.Run("Success", func(t *testing.T) {
		f := &fakeProvider{push: func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"MerchantRequestID":"m-1","CheckoutRequestID":"ws_CO_1","ResponseCode":"0","ResponseDescription":"Success. Request accepted for processing","CustomerMessage":"ok"}`))
		}}
		client := newTestClient(f.server(t))

		resp, err := client.Initiate(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, "ws_CO_1", resp.SessionID)
		assert.Equal(t, "m-1", resp.MerchantRequestID)
		assert.Equal(t, "CustomerPayBillOnline", f.lastPush.TransactionType)
		assert.Equal(t, "174379", f.lastPush.PartyB)
		assert.Equal(t, int64(100), f.lastPush.Amount)
		assert.Equal(t, Password("174379", "passkey", f.lastPush.Timestamp), f.lastPush.Password)

		_, err = client.Initiate(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, int32(1), atomic.LoadInt32(&f.tokenCalls), "token should be reused")
	})

	t.Run("Buy Goods Uses Till", func(t *testing.T) {
		f := &fakeProvider{push: func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"CheckoutRequestID":"ws_CO_2","ResponseCode":"0"}`))
		}}
		client := newTestClient(f.server(t))

		till := req
		till.TransactionType = models.BUY_GOODS
		till.AccountReference = "5432100"
		_, err := client.Initiate(context.Background(), till)
		require.NoError(t, err)
		assert.Equal(t, "CustomerBuyGoodsOnline", f.lastPush.TransactionType)
		assert.Equal(t, "5432100", f.lastPush.PartyB)
	})

	t.Run("Rejected", func(t *testing.T) {
		f := &fakeProvider{push: func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"errorCode":"400.002.02","errorMessage":"Bad Request - Invalid PhoneNumber"}`))
		}}
		client := newTestClient(f.server(t))

		_, err := client.Initiate(context.Background(), req)
		assert.ErrorIs(t, err, ErrPushRejected)
	})

	t.Run("Non Zero Response Code", func(t *testing.T) {
		f := &fakeProvider{push: func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"ResponseCode":"1","ResponseDescription":"declined"}`))
		}}
		client := newTestClient(f.server(t))

		_, err := client.Initiate(context.Background(), req)
		assert.ErrorIs(t, err, ErrPushRejected)
	})

	t.Run("Server Error", func(t *testing.T) {
		f := &fakeProvider{push: func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}}
		client := newTestClient(f.server(t))

		_, err := client.Initiate(context.Background(), req)
		assert.ErrorIs(t, err, ErrGatewayUnavailable)
	})

	t.Run("Unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		client := newTestClient(srv)
		srv.Close()

		_, err := client.Initiate(context.Background(), req)
		assert.ErrorIs(t, err, ErrGatewayUnavailable)
	})
}

func TestQuery(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		f := &fakeProvider{query: func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"ResponseCode":"0","ResponseDescription":"The service request has been accepted successsfully","MerchantRequestID":"m-1","CheckoutRequestID":"ws_CO_1","ResultCode":"0","ResultDesc":"The service request is processed successfully."}`))
		}}
		client := newTestClient(f.server(t))

		outcome, err := client.Query(context.Background(), "ws_CO_1")
		require.NoError(t, err)
		assert.Equal(t, 0, outcome.ResultCode)
		assert.False(t, outcome.Pending)
		assert.Equal(t, models.SOURCE_QUERY, outcome.Source)
		assert.Empty(t, outcome.Receipt())
	})

	t.Run("Cancelled", func(t *testing.T) {
		f := &fakeProvider{query: func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"ResponseCode":"0","MerchantRequestID":"m-1","CheckoutRequestID":"ws_CO_1","ResultCode":"1032","ResultDesc":"Request cancelled by user"}`))
		}}
		client := newTestClient(f.server(t))

		outcome, err := client.Query(context.Background(), "ws_CO_1")
		require.NoError(t, err)
		assert.Equal(t, 1032, outcome.ResultCode)
		assert.Equal(t, models.SOURCE_QUERY, outcome.Source)
		assert.False(t, outcome.Pending)
		assert.NotEmpty(t, outcome.Raw)
	})

	t.Run("Still Processing", func(t *testing.T) {
		f := &fakeProvider{query: func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"requestId":"r-1","errorCode":"500.001.1001","errorMessage":"The transaction is being processed"}`))
		}}
		client := newTestClient(f.server(t))

		outcome, err := client.Query(context.Background(), "ws_CO_1")
		require.NoError(t, err)
		assert.True(t, outcome.Pending)
	})

	t.Run("Server Error", func(t *testing.T) {
		f := &fakeProvider{query: func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte(`{}`))
		}}
		client := newTestClient(f.server(t))

		_, err := client.Query(context.Background(), "ws_CO_1")
		assert.ErrorIs(t, err, ErrGatewayUnavailable)
	})
}

func TestTimestampAndPassword(t *testing.T) {
	ts := Timestamp(time.Date(2024, 1, 2, 21, 4, 5, 0, time.UTC))
	assert.Equal(t, "20240103000405", ts)
	assert.Equal(t, "MTc0Mzc5cGFzc2tleTIwMjQwMTAzMDAwNDA1", Password("174379", "passkey", ts))
}
