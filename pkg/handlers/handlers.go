package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/chris/stk-confirmation/pkg/api"
	"github.com/chris/stk-confirmation/pkg/confirmation"
	"github.com/chris/stk-confirmation/pkg/dispatch"
	"github.com/chris/stk-confirmation/pkg/middleware"
	"github.com/chris/stk-confirmation/pkg/models"
	"github.com/chris/stk-confirmation/pkg/notify"
	"github.com/chris/stk-confirmation/pkg/storage"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// PaymentInitiator starts a push and records it.
type PaymentInitiator interface {
	Initiate(ctx context.Context, req confirmation.InitiateRequest) (*confirmation.InitiateResult, error)
}

// StatusQuerier answers status polls.
type StatusQuerier interface {
	GetStatus(ctx context.Context, sessionID string, activeQuery bool) (*models.Transaction, error)
}

// Subscriber hands out per-session update feeds.
type Subscriber interface {
	Subscribe(sessionID string) (<-chan notify.Message, func())
}

// ApiHandler implements api.ServerInterface on top of the confirmation engine.
type ApiHandler struct {
	Initiator  PaymentInitiator
	Status     StatusQuerier
	Store      storage.TransactionReader
	Dispatcher dispatch.Dispatcher
	Hub        Subscriber
	Logger     *slog.Logger

	now func() time.Time
}

// NewApiHandler creates a new ApiHandler.
func NewApiHandler(initiator PaymentInitiator, status StatusQuerier, store storage.TransactionReader, dispatcher dispatch.Dispatcher, hub Subscriber, logger *slog.Logger) *ApiHandler {
	return &ApiHandler{
		Initiator:  initiator,
		Status:     status,
		Store:      store,
		Dispatcher: dispatcher,
		Hub:        hub,
		Logger:     logger,
		now:        time.Now,
	}
}

// Make sure we conform to the interface
var _ api.ServerInterface = (*ApiHandler)(nil)

// NewRouter mounts the handler. limit wraps the public routes; the webhook is never limited.
func NewRouter(h *ApiHandler, limit func(http.Handler) http.Handler, logger *slog.Logger) http.Handler {
	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(middleware.NewStructuredLogger(logger))
	router.Use(chimw.Recoverer)

	wrapper := &api.ServerInterfaceWrapper{
		Handler: h,
		ErrorHandlerFunc: func(w http.ResponseWriter, r *http.Request, err error) {
			writeError(w, http.StatusBadRequest, err.Error())
		},
	}

	router.Post("/callback", wrapper.ReceiveCallback)

	router.Group(func(r chi.Router) {
		if limit != nil {
			r.Use(limit)
		}
		r.Post("/payments", wrapper.InitiatePayment)
		r.Get("/status", wrapper.GetStatus)
		r.Get("/transactions", wrapper.ListTransactions)
		r.Get("/transactions/{sessionId}", wrapper.GetTransaction)
		r.Get("/transactions/{sessionId}/stream", wrapper.StreamTransaction)
	})

	return router
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, api.Error{Error: msg})
}
