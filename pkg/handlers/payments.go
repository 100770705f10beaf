package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/chris/stk-confirmation/pkg/api"
	"github.com/chris/stk-confirmation/pkg/confirmation"
	"github.com/chris/stk-confirmation/pkg/gateway"
	"github.com/chris/stk-confirmation/pkg/mapping"
)

// InitiatePayment pushes a payment prompt to the subscriber's handset.
func (h *ApiHandler) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	var req api.InitiatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	res, err := h.Initiator.Initiate(r.Context(), mapping.ToDomainInitiateRequest(&req))
	if err != nil {
		switch {
		case errors.Is(err, confirmation.ErrInvalidRequest):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, gateway.ErrGatewayUnavailable), errors.Is(err, gateway.ErrPushRejected):
			writeError(w, http.StatusBadGateway, err.Error())
		default:
			h.Logger.Error("Failed to initiate payment", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to initiate payment")
		}
		return
	}

	writeJSON(w, http.StatusCreated, mapping.ToApiInitiateResponse(res))
}
