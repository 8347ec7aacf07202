package domain

import (
	"encoding/json"
	"time"
)

// Notification is a row-insert event delivered by the realtime channel.
type Notification struct {
	Table      string          `json:"table"`
	Event      string          `json:"event"`
	UserID     string          `json:"user_id"`
	Record     json.RawMessage `json:"record"`
	ReceivedAt time.Time       `json:"received_at"`
}
