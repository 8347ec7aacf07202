package domain

import "time"

// ChatKind selects which remote conversation a chat flow drives.
type ChatKind string

const (
	ChatOnboarding ChatKind = "onboarding"
	ChatFeedback   ChatKind = "feedback"
)

// ContentType is the payload kind of a chat message.
type ContentType string

const (
	ContentText  ContentType = "text"
	ContentAudio ContentType = "audio"
)

// Sender identifies who authored a message.
type Sender string

const (
	SenderUser   Sender = "user"
	SenderAgent  Sender = "agent"
	SenderSystem Sender = "system"
)

// Message is a display-only conversation entry.
type Message struct {
	ID        string      `json:"id"`
	Sender    Sender      `json:"sender"`
	Type      ContentType `json:"type"`
	Text      string      `json:"text,omitempty"`
	AudioURL  string      `json:"audio_url,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Reply is the remote agent's answer to a sent message. Completed signals
// that the conversation reached its goal (e.g. onboarding finished).
type Reply struct {
	Text      string
	AudioURL  string
	Completed bool
}
