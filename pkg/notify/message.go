package notify

import "time"

// MessageType defines the type of a published message.
type MessageType string

const (
	// MessageTypeStatusUpdate is published when a transaction reaches a terminal status.
	MessageTypeStatusUpdate MessageType = "statusUpdate"
)

// Message represents a generic event envelope.
type Message struct {
	ID        string      `json:"id"`
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Payload   interface{} `json:"payload"`
}

// StatusUpdatePayload is the payload for a statusUpdate message.
type StatusUpdatePayload struct {
	SessionID        string    `json:"session_id"`
	Status           string    `json:"status"`
	ReceiptReference *string   `json:"receipt_reference,omitempty"`
	ResolvedAt       time.Time `json:"resolved_at"`
}
