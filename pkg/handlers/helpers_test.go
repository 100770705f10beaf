package handlers

import (
	"encoding/json"
	"time"

	"github.com/chris/stk-confirmation/pkg/models"
	"github.com/chris/stk-confirmation/pkg/storage"
)

func storageUpdate(status models.TransactionStatus, receipt *string) storage.StatusUpdate {
	return storage.StatusUpdate{
		Status:           status,
		ResolvedAt:       time.Now().UTC(),
		ReceiptReference: receipt,
		RawOutcome:       json.RawMessage(`{"resultCode":0}`),
	}
}
