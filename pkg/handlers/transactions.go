package handlers

import (
	"errors"
	"net/http"

	"github.com/chris/stk-confirmation/pkg/api"
	"github.com/chris/stk-confirmation/pkg/confirmation"
	"github.com/chris/stk-confirmation/pkg/mapping"
	"github.com/chris/stk-confirmation/pkg/storage"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// GetTransaction returns the full record, including the raw outcome that resolved it.
func (h *ApiHandler) GetTransaction(w http.ResponseWriter, r *http.Request, sessionId string) {
	tx, err := h.Store.GetTransaction(r.Context(), sessionId)
	if err != nil {
		if errors.Is(err, storage.ErrTransactionNotFound) {
			writeError(w, http.StatusNotFound, "Transaction not found")
			return
		}
		h.Logger.Error("Failed to retrieve transaction", "session_id", sessionId, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to retrieve transaction")
		return
	}

	writeJSON(w, http.StatusOK, mapping.ToApiTransaction(tx))
}

// ListTransactions returns the most recent transactions for a phone number.
func (h *ApiHandler) ListTransactions(w http.ResponseWriter, r *http.Request, params api.ListTransactionsParams) {
	phone := confirmation.NormalizePhone(params.Phone)
	if phone == "" {
		writeError(w, http.StatusBadRequest, "phone is required")
		return
	}

	limit := int32(defaultHistoryLimit)
	if params.Limit != nil {
		limit = *params.Limit
	}
	if limit <= 0 || limit > maxHistoryLimit {
		writeError(w, http.StatusBadRequest, "limit must be between 1 and 100")
		return
	}

	txs, err := h.Store.ListTransactionsByPhone(r.Context(), phone, limit)
	if err != nil {
		h.Logger.Error("Failed to retrieve transactions", "phone", phone, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to retrieve transactions")
		return
	}

	apiTxs := make([]*api.Transaction, len(txs))
	for i := range txs {
		apiTxs[i] = mapping.ToApiTransaction(&txs[i])
	}
	writeJSON(w, http.StatusOK, apiTxs)
}
