package models

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// OutcomeSource records which path delivered an outcome.
type OutcomeSource string

const (
	SOURCE_WEBHOOK OutcomeSource = "webhook"
	SOURCE_QUERY   OutcomeSource = "query"
	SOURCE_SWEEPER OutcomeSource = "sweeper"
)

// MetadataItem is a single name/value pair from the gateway's callback metadata.
// Value is a string or a json.Number depending on what the gateway sent.
type MetadataItem struct {
	Name  string      `json:"Name"`
	Value interface{} `json:"Value,omitempty"`
}

// String renders the value without exponent notation.
func (m MetadataItem) String() string {
	switch v := m.Value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// Outcome is the gateway's report on a session, normalised from either the webhook
// envelope or an active query response.
type Outcome struct {
	SessionId         string         `json:"session_id"`
	MerchantRequestId string         `json:"merchant_request_id,omitempty"`
	ResultCode        int            `json:"result_code"`
	ResultDesc        string         `json:"result_desc,omitempty"`
	Metadata          []MetadataItem `json:"metadata,omitempty"`
	Source            OutcomeSource  `json:"source"`
	// Pending is set when an active query reports the push as still being processed.
	Pending    bool      `json:"pending,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
	// Raw is the payload exactly as the gateway sent it.
	Raw json.RawMessage `json:"raw,omitempty"`
}

// ExpiredOutcome is the synthetic outcome used when a confirmation window elapses.
func ExpiredOutcome(sessionID string, now time.Time) Outcome {
	return Outcome{
		SessionId:  sessionID,
		ResultDesc: "confirmation window elapsed",
		Source:     SOURCE_SWEEPER,
		ReceivedAt: now,
	}
}

// Receipt returns the gateway-issued receipt reference carried in the metadata, if any.
func (o Outcome) Receipt() string {
	for _, item := range o.Metadata {
		if isReceiptField(item.Name) {
			if v := strings.TrimSpace(item.String()); v != "" {
				return v
			}
		}
	}
	return ""
}

// MetadataValue returns the value of the named metadata item.
func (o Outcome) MetadataValue(name string) (string, bool) {
	for _, item := range o.Metadata {
		if strings.EqualFold(item.Name, name) {
			return item.String(), true
		}
	}
	return "", false
}

func isReceiptField(name string) bool {
	normalized := strings.ToLower(strings.Join(strings.Fields(name), ""))
	return strings.Contains(normalized, "receipt")
}
