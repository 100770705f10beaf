// Package api holds the wire types of the HTTP surface and the adapter that binds
// request parameters before calling a ServerInterface.
package api

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus is the status of a push as reported to callers.
type TransactionStatus string

const (
	Pending   TransactionStatus = "Pending"
	Success   TransactionStatus = "Success"
	Failed    TransactionStatus = "Failed"
	Cancelled TransactionStatus = "Cancelled"
	TimedOut  TransactionStatus = "TimedOut"
)

// InitiatePaymentRequest is the body of POST /payments.
type InitiatePaymentRequest struct {
	Phone             string          `json:"phone"`
	Amount            decimal.Decimal `json:"amount"`
	AccountReference  string          `json:"accountReference"`
	TransactionType   *string         `json:"transactionType,omitempty"`
	Description       *string         `json:"description,omitempty"`
	BusinessShortCode *string         `json:"businessShortCode,omitempty"`
}

// InitiatePaymentResponse is returned once the push is accepted.
type InitiatePaymentResponse struct {
	SessionId         string            `json:"sessionId"`
	MerchantRequestId string            `json:"merchantRequestId,omitempty"`
	Status            TransactionStatus `json:"status"`
	Deadline          time.Time         `json:"deadline"`
	CustomerMessage   string            `json:"customerMessage,omitempty"`
}

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	SessionId        string            `json:"sessionId"`
	Status           TransactionStatus `json:"status"`
	ReceiptReference *string           `json:"receiptReference,omitempty"`
}

// Transaction is the full record returned by the lookup endpoints.
type Transaction struct {
	SessionId         string            `json:"sessionId"`
	MerchantRequestId string            `json:"merchantRequestId,omitempty"`
	Phone             string            `json:"phone"`
	Amount            decimal.Decimal   `json:"amount"`
	AccountReference  string            `json:"accountReference"`
	TransactionType   string            `json:"transactionType"`
	Description       string            `json:"description,omitempty"`
	Status            TransactionStatus `json:"status"`
	CreatedAt         time.Time         `json:"createdAt"`
	Deadline          time.Time         `json:"deadline"`
	ResolvedAt        *time.Time        `json:"resolvedAt,omitempty"`
	ReceiptReference  *string           `json:"receiptReference,omitempty"`
	RawOutcome        json.RawMessage   `json:"rawOutcome,omitempty"`
}

// StatusEvent is a frame on the status stream.
type StatusEvent struct {
	SessionId        string            `json:"sessionId"`
	Status           TransactionStatus `json:"status"`
	ReceiptReference *string           `json:"receiptReference,omitempty"`
	ResolvedAt       *time.Time        `json:"resolvedAt,omitempty"`
}

// CallbackAck is the acknowledgement the gateway expects from the webhook.
type CallbackAck struct {
	ResultCode int    `json:"ResultCode"`
	ResultDesc string `json:"ResultDesc"`
}

// Error is the body of every non-2xx response except the webhook's.
type Error struct {
	Error string `json:"error"`
}

// GetStatusParams defines parameters for GetStatus.
type GetStatusParams struct {
	SessionId   string `form:"sessionId" json:"sessionId"`
	ActiveQuery *bool  `form:"activeQuery,omitempty" json:"activeQuery,omitempty"`
}

// ListTransactionsParams defines parameters for ListTransactions.
type ListTransactionsParams struct {
	Phone string `form:"phone" json:"phone"`
	Limit *int32 `form:"limit,omitempty" json:"limit,omitempty"`
}
