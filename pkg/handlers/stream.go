package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/chris/stk-confirmation/pkg/api"
	"github.com/chris/stk-confirmation/pkg/mapping"
	"github.com/chris/stk-confirmation/pkg/notify"
	"github.com/chris/stk-confirmation/pkg/storage"
	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// streamRecheckInterval is how often a stream re-reads a record that is past its
// deadline. Outcomes applied by another process never reach the in-process Hub.
var streamRecheckInterval = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// StreamTransaction upgrades to a WebSocket, sends the current status and then each
// update for the session. The server closes the stream once the status is terminal.
// Past the record's deadline the store is polled as well.
func (h *ApiHandler) StreamTransaction(w http.ResponseWriter, r *http.Request, sessionId string) {
	// Subscribe before reading the record so an update landing in between is not lost.
	updates, unsubscribe := h.Hub.Subscribe(sessionId)
	defer unsubscribe()

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

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Logger.Error("failed to upgrade connection", "error", err)
		return
	}
	defer conn.Close()

	log := h.Logger.With("session_id", sessionId)
	log.Info("Stream opened")

	if err := writeEvent(conn, mapping.ToApiStatusEvent(tx)); err != nil || tx.Status.IsTerminal() {
		closeStream(conn)
		return
	}

	// Reads only detect the client going away; clients are not expected to send anything.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Warn("unexpected close error", "error", err)
				}
				return
			}
		}
	}()

	recheck := time.NewTimer(time.Until(tx.Deadline))
	defer recheck.Stop()

	for {
		select {
		case <-recheck.C:
			current, err := h.Store.GetTransaction(r.Context(), sessionId)
			if err != nil {
				log.Warn("Failed to re-read transaction", "error", err)
				recheck.Reset(streamRecheckInterval)
				continue
			}
			if !current.Status.IsTerminal() {
				recheck.Reset(streamRecheckInterval)
				continue
			}
			if err := writeEvent(conn, mapping.ToApiStatusEvent(current)); err != nil {
				log.Warn("Failed to write stream event", "error", err)
				return
			}
			closeStream(conn)
			return
		case <-gone:
			log.Info("Stream closed by client")
			return
		case msg, ok := <-updates:
			if !ok {
				return
			}
			payload, ok := msg.Payload.(notify.StatusUpdatePayload)
			if !ok {
				continue
			}
			ev := mapping.StatusEventFromPayload(payload)
			if err := writeEvent(conn, ev); err != nil {
				log.Warn("Failed to write stream event", "error", err)
				return
			}
			if ev.Status != api.Pending {
				closeStream(conn)
				return
			}
		}
	}
}

func writeEvent(conn *websocket.Conn, ev *api.StatusEvent) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(ev)
}

func closeStream(conn *websocket.Conn) {
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "resolved"),
		time.Now().Add(writeWait))
}
