package mapping

import (
	"github.com/chris/stk-confirmation/pkg/api"
	"github.com/chris/stk-confirmation/pkg/confirmation"
	"github.com/chris/stk-confirmation/pkg/models"
	"github.com/chris/stk-confirmation/pkg/notify"
)

// ToApiTransaction converts a domain Transaction model to an API Transaction model.
func ToApiTransaction(tx *models.Transaction) *api.Transaction {
	return &api.Transaction{
		SessionId:         tx.SessionId,
		MerchantRequestId: tx.MerchantRequestId,
		Phone:             tx.Phone,
		Amount:            tx.Amount,
		AccountReference:  tx.AccountReference,
		TransactionType:   string(tx.TransactionType),
		Description:       tx.Description,
		Status:            api.TransactionStatus(tx.Status),
		CreatedAt:         tx.CreatedAt,
		Deadline:          tx.Deadline,
		ResolvedAt:        tx.ResolvedAt,
		ReceiptReference:  tx.ReceiptReference,
		RawOutcome:        tx.RawOutcome,
	}
}

// ToApiStatus converts a domain Transaction to the status poll response.
func ToApiStatus(tx *models.Transaction) *api.StatusResponse {
	return &api.StatusResponse{
		SessionId:        tx.SessionId,
		Status:           api.TransactionStatus(tx.Status),
		ReceiptReference: tx.ReceiptReference,
	}
}

// ToApiStatusEvent converts a domain Transaction to a stream frame.
func ToApiStatusEvent(tx *models.Transaction) *api.StatusEvent {
	return &api.StatusEvent{
		SessionId:        tx.SessionId,
		Status:           api.TransactionStatus(tx.Status),
		ReceiptReference: tx.ReceiptReference,
		ResolvedAt:       tx.ResolvedAt,
	}
}

// StatusEventFromPayload converts a published status update to a stream frame.
func StatusEventFromPayload(p notify.StatusUpdatePayload) *api.StatusEvent {
	resolvedAt := p.ResolvedAt
	return &api.StatusEvent{
		SessionId:        p.SessionID,
		Status:           api.TransactionStatus(p.Status),
		ReceiptReference: p.ReceiptReference,
		ResolvedAt:       &resolvedAt,
	}
}

// ToDomainInitiateRequest converts the POST /payments body to an initiator request.
func ToDomainInitiateRequest(req *api.InitiatePaymentRequest) confirmation.InitiateRequest {
	out := confirmation.InitiateRequest{
		Phone:            req.Phone,
		Amount:           req.Amount,
		AccountReference: req.AccountReference,
	}
	if req.TransactionType != nil {
		out.TransactionType = models.TransactionType(*req.TransactionType)
	}
	if req.Description != nil {
		out.Description = *req.Description
	}
	if req.BusinessShortCode != nil {
		out.BusinessShortCode = *req.BusinessShortCode
	}
	return out
}

// ToApiInitiateResponse converts an initiator result to the POST /payments response.
func ToApiInitiateResponse(res *confirmation.InitiateResult) *api.InitiatePaymentResponse {
	return &api.InitiatePaymentResponse{
		SessionId:         res.SessionID,
		MerchantRequestId: res.MerchantRequestID,
		Status:            api.TransactionStatus(res.Status),
		Deadline:          res.Deadline,
		CustomerMessage:   res.CustomerMessage,
	}
}
