package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus defines the possible states of a push payment.
type TransactionStatus string

const (
	PENDING   TransactionStatus = "Pending"
	SUCCESS   TransactionStatus = "Success"
	FAILED    TransactionStatus = "Failed"
	CANCELLED TransactionStatus = "Cancelled"
	TIMED_OUT TransactionStatus = "TimedOut"
)

// IsTerminal reports whether no further transition is permitted from s.
func (s TransactionStatus) IsTerminal() bool {
	switch s {
	case SUCCESS, FAILED, CANCELLED, TIMED_OUT:
		return true
	}
	return false
}

// Valid reports whether s is one of the known statuses.
func (s TransactionStatus) Valid() bool {
	return s == PENDING || s.IsTerminal()
}

// TransactionType selects how the push is addressed on the gateway side.
type TransactionType string

const (
	PAYBILL    TransactionType = "PayBill"
	BUY_GOODS  TransactionType = "BuyGoods"
	SEND_MONEY TransactionType = "SendMoney"
)

// Transaction is the unit of confirmation. It is keyed by the gateway-issued session id.
type Transaction struct {
	SessionId         string            `json:"session_id"`
	MerchantRequestId string            `json:"merchant_request_id,omitempty"`
	Phone             string            `json:"phone"`
	Amount            decimal.Decimal   `json:"amount"`
	AccountReference  string            `json:"account_reference"`
	TransactionType   TransactionType   `json:"transaction_type"`
	Description       string            `json:"description,omitempty"`
	Status            TransactionStatus `json:"status"`
	CreatedAt         time.Time         `json:"created_at"`
	Deadline          time.Time         `json:"deadline"`
	ResolvedAt        *time.Time        `json:"resolved_at,omitempty"`
	ReceiptReference  *string           `json:"receipt_reference,omitempty"`
	RawOutcome        json.RawMessage   `json:"raw_outcome,omitempty"`
}

// Expired reports whether the confirmation window has elapsed at now.
func (t *Transaction) Expired(now time.Time) bool {
	return !t.Deadline.After(now)
}
