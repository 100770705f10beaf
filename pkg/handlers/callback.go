package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/chris/stk-confirmation/pkg/api"
	"github.com/chris/stk-confirmation/pkg/confirmation"
	"github.com/chris/stk-confirmation/pkg/gateway"
)

const maxCallbackBytes = 1 << 20

var callbackAccepted = api.CallbackAck{ResultCode: 0, ResultDesc: "Accepted"}

// ReceiveCallback accepts the gateway's webhook. Anything that parses is acknowledged;
// failures to apply it are logged, never returned to the gateway.
func (h *ApiHandler) ReceiveCallback(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxCallbackBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	outcome, err := gateway.ParseCallback(body, h.now().UTC())
	switch {
	case errors.Is(err, gateway.ErrMissingSessionID):
		h.Logger.Warn("Callback without session id", "anomaly", "MissingSessionId")
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, gateway.ErrMissingResultCode):
		h.Logger.Warn("Callback without result code, not applied", "session_id", outcome.SessionId, "error", err)
		writeJSON(w, http.StatusOK, callbackAccepted)
		return
	case err != nil:
		h.Logger.Warn("Malformed callback", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.Dispatcher.Dispatch(r.Context(), *outcome); err != nil {
		if errors.Is(err, confirmation.ErrNotFound) {
			h.Logger.Warn("Callback for unknown session", "session_id", outcome.SessionId)
		} else {
			h.Logger.Error("Failed to apply callback", "session_id", outcome.SessionId, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, callbackAccepted)
}
