package confirmation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/chris/stk-confirmation/pkg/gateway"
	"github.com/chris/stk-confirmation/pkg/models"
	"github.com/chris/stk-confirmation/pkg/storage"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// DefaultPhonePattern accepts Kenyan mobile numbers in international form.
const DefaultPhonePattern = `^2547\d{8}$|^2541\d{8}$`

// InitiateRequest is a caller's request to push a payment prompt.
type InitiateRequest struct {
	Phone            string                 `validate:"required,msisdn"`
	Amount           decimal.Decimal        `validate:"-"`
	AccountReference string                 `validate:"required,max=12"`
	TransactionType  models.TransactionType `validate:"omitempty,oneof=PayBill BuyGoods SendMoney"`
	Description      string                 `validate:"max=13"`
	// BusinessShortCode overrides the receiving short code for SendMoney.
	BusinessShortCode string `validate:"omitempty,numeric"`
}

// InitiateResult is returned once a push is accepted and its record written.
type InitiateResult struct {
	SessionID         string
	MerchantRequestID string
	Status            models.TransactionStatus
	Deadline          time.Time
	CustomerMessage   string
}

// Initiator starts pushes and writes their Pending records.
type Initiator struct {
	gateway        gateway.Client
	store          storage.TransactionWriter
	validate       *validator.Validate
	window         time.Duration
	gatewayTimeout time.Duration
	logger         *slog.Logger
	now            func() time.Time
}

// NewInitiator creates an Initiator. phonePattern is the accepted subscriber number format.
func NewInitiator(gw gateway.Client, store storage.TransactionWriter, window, gatewayTimeout time.Duration, phonePattern string, logger *slog.Logger) (*Initiator, error) {
	v, err := newValidator(phonePattern)
	if err != nil {
		return nil, err
	}
	return &Initiator{
		gateway:        gw,
		store:          store,
		validate:       v,
		window:         window,
		gatewayTimeout: gatewayTimeout,
		logger:         logger,
		now:            time.Now,
	}, nil
}

func newValidator(phonePattern string) (*validator.Validate, error) {
	if phonePattern == "" {
		phonePattern = DefaultPhonePattern
	}
	re, err := regexp.Compile(phonePattern)
	if err != nil {
		return nil, fmt.Errorf("invalid phone pattern: %w", err)
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("msisdn", func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}); err != nil {
		return nil, err
	}
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		req := sl.Current().Interface().(InitiateRequest)
		// The gateway only takes whole shillings.
		if !req.Amount.IsPositive() {
			sl.ReportError(req.Amount, "Amount", "Amount", "gt", "0")
		} else if !req.Amount.IsInteger() {
			sl.ReportError(req.Amount, "Amount", "Amount", "whole", "")
		}
		if req.TransactionType == models.BUY_GOODS && !isDigits(req.AccountReference) {
			sl.ReportError(req.AccountReference, "AccountReference", "AccountReference", "till", "")
		}
	}, InitiateRequest{})
	return v, nil
}

// NormalizePhone converts local and +-prefixed numbers to international form.
func NormalizePhone(phone string) string {
	p := strings.TrimSpace(phone)
	p = strings.TrimPrefix(p, "+")
	p = strings.ReplaceAll(p, " ", "")
	if strings.HasPrefix(p, "0") && len(p) == 10 {
		p = "254" + p[1:]
	}
	return p
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Initiate validates the request, asks the gateway to push, and records the session
// as Pending. A gateway failure leaves no record behind.
func (i *Initiator) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error) {
	req.Phone = NormalizePhone(req.Phone)
	if req.TransactionType == "" {
		req.TransactionType = models.PAYBILL
	}
	if err := i.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}

	gctx, cancel := context.WithTimeout(ctx, i.gatewayTimeout)
	defer cancel()

	resp, err := i.gateway.Initiate(gctx, gateway.PushRequest{
		Phone:            req.Phone,
		Amount:           req.Amount,
		AccountReference: req.AccountReference,
		Description:      req.Description,
		TransactionType:  req.TransactionType,
		PartyB:           req.BusinessShortCode,
	})
	if err != nil {
		if errors.Is(gctx.Err(), context.DeadlineExceeded) && !errors.Is(err, gateway.ErrGatewayUnavailable) {
			err = fmt.Errorf("%w: %v", gateway.ErrGatewayUnavailable, err)
		}
		i.logger.Warn("Push initiation failed", "phone", req.Phone, "error", err)
		return nil, err
	}

	now := i.now().UTC()
	tx := &models.Transaction{
		SessionId:         resp.SessionID,
		MerchantRequestId: resp.MerchantRequestID,
		Phone:             req.Phone,
		Amount:            req.Amount,
		AccountReference:  req.AccountReference,
		TransactionType:   req.TransactionType,
		Description:       req.Description,
		Status:            models.PENDING,
		CreatedAt:         now,
		Deadline:          now.Add(i.window),
	}
	// The subscriber is already being prompted, so the record must outlive the caller.
	wctx, wcancel := context.WithTimeout(context.WithoutCancel(ctx), i.gatewayTimeout)
	defer wcancel()
	if err := i.store.CreateTransaction(wctx, tx); err != nil {
		i.logger.Error("Push accepted but record not written", "session_id", resp.SessionID, "error", err)
		return nil, fmt.Errorf("failed to record transaction: %w", err)
	}

	i.logger.Info("Push initiated",
		"session_id", tx.SessionId,
		"transaction_type", tx.TransactionType,
		"deadline", tx.Deadline,
	)

	return &InitiateResult{
		SessionID:         tx.SessionId,
		MerchantRequestID: tx.MerchantRequestId,
		Status:            tx.Status,
		Deadline:          tx.Deadline,
		CustomerMessage:   resp.CustomerMessage,
	}, nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(fields, ", "))
}
