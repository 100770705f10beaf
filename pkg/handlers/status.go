package handlers

import (
	"errors"
	"net/http"

	"github.com/chris/stk-confirmation/pkg/api"
	"github.com/chris/stk-confirmation/pkg/confirmation"
	"github.com/chris/stk-confirmation/pkg/mapping"
)

// GetStatus reports the session's current status, asking the gateway first when
// activeQuery is set and the record is still Pending.
func (h *ApiHandler) GetStatus(w http.ResponseWriter, r *http.Request, params api.GetStatusParams) {
	if params.SessionId == "" {
		writeError(w, http.StatusBadRequest, "sessionId is required")
		return
	}
	active := params.ActiveQuery != nil && *params.ActiveQuery

	tx, err := h.Status.GetStatus(r.Context(), params.SessionId, active)
	if err != nil {
		if errors.Is(err, confirmation.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Transaction not found")
			return
		}
		h.Logger.Error("Failed to get status", "session_id", params.SessionId, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to get status")
		return
	}

	writeJSON(w, http.StatusOK, mapping.ToApiStatus(tx))
}
