package gateway

import (
	"context"
	"errors"

	"github.com/chris/stk-confirmation/pkg/models"
	"github.com/shopspring/decimal"
)

var (
	// ErrGatewayUnavailable marks transport-level failures talking to the provider.
	ErrGatewayUnavailable = errors.New("gateway unavailable")
	// ErrPushRejected is returned when the provider refuses to start a push.
	ErrPushRejected = errors.New("push rejected by gateway")
	// ErrMissingSessionID is returned for callbacks that carry no session id.
	ErrMissingSessionID = errors.New("callback missing session id")
	// ErrMissingResultCode is returned for callbacks that carry no result code.
	ErrMissingResultCode = errors.New("callback missing result code")
)

// PushRequest is what the engine asks the gateway to push to a subscriber's handset.
type PushRequest struct {
	Phone            string
	Amount           decimal.Decimal
	AccountReference string
	Description      string
	TransactionType  models.TransactionType
	// PartyB overrides the receiving party. Empty means the configured short code,
	// or the account reference for BuyGoods.
	PartyB string
}

// PushResponse carries the identifiers the gateway issued for an accepted push.
type PushResponse struct {
	SessionID         string
	MerchantRequestID string
	Description       string
	CustomerMessage   string
}

// Client is the network boundary to the push-payment provider.
type Client interface {
	// Initiate starts a push. Transport failures wrap ErrGatewayUnavailable.
	Initiate(ctx context.Context, req PushRequest) (*PushResponse, error)
	// Query asks the provider for the current outcome of a session.
	Query(ctx context.Context, sessionID string) (*models.Outcome, error)
}
