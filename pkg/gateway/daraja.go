package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/chris/stk-confirmation/pkg/models"
	"golang.org/x/oauth2"
)

const (
	tokenPath = "/oauth/v1/generate?grant_type=client_credentials"
	pushPath  = "/mpesa/stkpush/v1/processrequest"
	queryPath = "/mpesa/stkpushquery/v1/query"

	// Returned by the query endpoint while the subscriber has not yet answered.
	errCodeStillProcessing = "500.001.1001"

	maxResponseBytes = 1 << 20
)

// Config holds the credentials and endpoints for a Daraja-style provider.
type Config struct {
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	ShortCode      string
	Passkey        string
	CallbackURL    string
	Timeout        time.Duration
}

// DarajaClient implements Client against the M-Pesa STK push API.
type DarajaClient struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time
}

// NewDarajaClient builds a client whose requests carry a cached bearer token.
func NewDarajaClient(cfg Config, logger *slog.Logger) *DarajaClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	ts := &tokenSource{
		client: &http.Client{Timeout: cfg.Timeout},
		url:    cfg.BaseURL + tokenPath,
		key:    cfg.ConsumerKey,
		secret: cfg.ConsumerSecret,
		now:    time.Now,
	}

	return &DarajaClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &oauth2.Transport{
				Source: oauth2.ReuseTokenSource(nil, ts),
				Base:   http.DefaultTransport,
			},
		},
		logger: logger,
		now:    time.Now,
	}
}

var _ Client = (*DarajaClient)(nil)

type pushBody struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            int64  `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

type pushResult struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
	ErrorCode           string `json:"errorCode"`
	ErrorMessage        string `json:"errorMessage"`
}

type queryBody struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
}

type queryResult struct {
	ResponseCode        string      `json:"ResponseCode"`
	ResponseDescription string      `json:"ResponseDescription"`
	MerchantRequestID   string      `json:"MerchantRequestID"`
	CheckoutRequestID   string      `json:"CheckoutRequestID"`
	ResultCode          json.Number `json:"ResultCode"`
	ResultDesc          string      `json:"ResultDesc"`
	ErrorCode           string      `json:"errorCode"`
	ErrorMessage        string      `json:"errorMessage"`
}

func (c *DarajaClient) Initiate(ctx context.Context, req PushRequest) (*PushResponse, error) {
	timestamp := Timestamp(c.now())

	txType := "CustomerPayBillOnline"
	partyB := c.cfg.ShortCode
	if req.TransactionType == models.BUY_GOODS {
		txType = "CustomerBuyGoodsOnline"
		partyB = req.AccountReference
	}
	if req.PartyB != "" {
		partyB = req.PartyB
	}
	desc := req.Description
	if desc == "" {
		desc = "Payment"
	}

	body := pushBody{
		BusinessShortCode: c.cfg.ShortCode,
		Password:          Password(c.cfg.ShortCode, c.cfg.Passkey, timestamp),
		Timestamp:         timestamp,
		TransactionType:   txType,
		Amount:            req.Amount.IntPart(),
		PartyA:            req.Phone,
		PartyB:            partyB,
		PhoneNumber:       req.Phone,
		CallBackURL:       c.cfg.CallbackURL,
		AccountReference:  req.AccountReference,
		TransactionDesc:   desc,
	}

	status, raw, err := c.post(ctx, pushPath, body)
	if err != nil {
		return nil, err
	}

	var result pushResult
	if err := json.Unmarshal(raw, &result); err != nil {
		if status >= http.StatusInternalServerError {
			return nil, fmt.Errorf("%w: push returned %d", ErrGatewayUnavailable, status)
		}
		return nil, fmt.Errorf("%w: undecodable response (%d)", ErrPushRejected, status)
	}

	switch {
	case status >= http.StatusInternalServerError:
		return nil, fmt.Errorf("%w: push returned %d %s", ErrGatewayUnavailable, status, result.ErrorMessage)
	case status >= http.StatusBadRequest:
		return nil, fmt.Errorf("%w: %s %s", ErrPushRejected, result.ErrorCode, result.ErrorMessage)
	case result.ResponseCode != "0":
		return nil, fmt.Errorf("%w: response code %s: %s", ErrPushRejected, result.ResponseCode, result.ResponseDescription)
	case result.CheckoutRequestID == "":
		return nil, fmt.Errorf("%w: no checkout request id", ErrPushRejected)
	}

	c.logger.Info("Push accepted by gateway",
		"session_id", result.CheckoutRequestID,
		"merchant_request_id", result.MerchantRequestID,
	)

	return &PushResponse{
		SessionID:         result.CheckoutRequestID,
		MerchantRequestID: result.MerchantRequestID,
		Description:       result.ResponseDescription,
		CustomerMessage:   result.CustomerMessage,
	}, nil
}

func (c *DarajaClient) Query(ctx context.Context, sessionID string) (*models.Outcome, error) {
	timestamp := Timestamp(c.now())
	body := queryBody{
		BusinessShortCode: c.cfg.ShortCode,
		Password:          Password(c.cfg.ShortCode, c.cfg.Passkey, timestamp),
		Timestamp:         timestamp,
		CheckoutRequestID: sessionID,
	}

	status, raw, err := c.post(ctx, queryPath, body)
	if err != nil {
		return nil, err
	}

	var result queryResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("%w: undecodable query response (%d)", ErrGatewayUnavailable, status)
	}

	outcome := &models.Outcome{
		SessionId:         sessionID,
		MerchantRequestId: result.MerchantRequestID,
		ResultDesc:        result.ResultDesc,
		Source:            models.SOURCE_QUERY,
		ReceivedAt:        c.now(),
		Raw:               json.RawMessage(raw),
	}

	if result.ErrorCode == errCodeStillProcessing {
		outcome.Pending = true
		outcome.ResultDesc = result.ErrorMessage
		return outcome, nil
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: query returned %d %s %s", ErrGatewayUnavailable, status, result.ErrorCode, result.ErrorMessage)
	}
	if result.ResultCode == "" {
		outcome.Pending = true
		return outcome, nil
	}

	code, err := result.ResultCode.Int64()
	if err != nil {
		return nil, fmt.Errorf("%w: invalid result code %q", ErrGatewayUnavailable, result.ResultCode)
	}
	outcome.ResultCode = int(code)
	return outcome, nil
}

// post sends a JSON body and returns the status and raw response. Only transport
// failures are returned as errors.
func (c *DarajaClient) post(ctx context.Context, path string, body interface{}) (int, []byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("%w: failed to read response: %v", ErrGatewayUnavailable, err)
	}
	return resp.StatusCode, raw, nil
}
