package domain

import "time"

// Integration names an external service linked to the physician account.
type Integration string

const (
	IntegrationWhatsApp       Integration = "whatsapp"
	IntegrationGoogleCalendar Integration = "google_calendar"
)

// ConnectionState is the remote link state of an integration.
type ConnectionState string

const (
	StateOpen         ConnectionState = "open"
	StateConnecting   ConnectionState = "connecting"
	StateDisconnected ConnectionState = "disconnected"
	StateConnected    ConnectionState = "connected"
)

// ConnectionStatus is the last known state of an integration plus whatever
// pairing material the user needs to finish linking.
type ConnectionStatus struct {
	Integration Integration     `json:"integration"`
	State       ConnectionState `json:"state"`
	PairingCode string          `json:"pairing_code,omitempty"`
	QRCode      string          `json:"qr_code,omitempty"`
	AuthURL     string          `json:"auth_url,omitempty"`
	Polling     bool            `json:"polling"`
	CheckedAt   time.Time       `json:"checked_at"`
}
