package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chris/stk-confirmation/pkg/models"
)

type stkCallback struct {
	MerchantRequestID string       `json:"MerchantRequestID"`
	CheckoutRequestID string       `json:"CheckoutRequestID"`
	ResultCode        *json.Number `json:"ResultCode"`
	ResultDesc        string       `json:"ResultDesc"`
	CallbackMetadata  *struct {
		Item []models.MetadataItem `json:"Item"`
	} `json:"CallbackMetadata"`
}

// callbackEnvelope accepts both the nested Daraja body and the flat envelope.
type callbackEnvelope struct {
	Body *struct {
		StkCallback *stkCallback `json:"stkCallback"`
	} `json:"Body"`

	ResultCode        *json.Number          `json:"resultCode"`
	ResultDescription string                `json:"resultDescription"`
	SessionID         string                `json:"sessionId"`
	Metadata          []models.MetadataItem `json:"metadata"`
}

// ParseCallback normalises a webhook body into an Outcome. When the result code is
// missing the partially filled outcome is returned alongside ErrMissingResultCode.
func ParseCallback(body []byte, receivedAt time.Time) (*models.Outcome, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var env callbackEnvelope
	if err := dec.Decode(&env); err != nil {
		return nil, fmt.Errorf("invalid callback payload: %w", err)
	}

	outcome := &models.Outcome{
		Source:     models.SOURCE_WEBHOOK,
		ReceivedAt: receivedAt,
		Raw:        json.RawMessage(body),
	}

	var code *json.Number
	if env.Body != nil && env.Body.StkCallback != nil {
		cb := env.Body.StkCallback
		outcome.SessionId = cb.CheckoutRequestID
		outcome.MerchantRequestId = cb.MerchantRequestID
		outcome.ResultDesc = cb.ResultDesc
		if cb.CallbackMetadata != nil {
			outcome.Metadata = cb.CallbackMetadata.Item
		}
		code = cb.ResultCode
	} else {
		outcome.SessionId = env.SessionID
		outcome.ResultDesc = env.ResultDescription
		outcome.Metadata = env.Metadata
		code = env.ResultCode
	}

	if outcome.SessionId == "" {
		return nil, ErrMissingSessionID
	}
	if code == nil || *code == "" {
		return outcome, ErrMissingResultCode
	}
	n, err := code.Int64()
	if err != nil {
		return outcome, fmt.Errorf("%w: %q is not an integer", ErrMissingResultCode, code.String())
	}
	outcome.ResultCode = int(n)
	return outcome, nil
}
