package domain

import (
	"time"
)

// Alert status constants.
const (
	AlertStatusSent      = "sent"
	AlertStatusDelivered = "delivered"
	AlertStatusPartial   = "partial"
	AlertStatusFailed    = "failed"
)

// Alert is a persisted emergency alert, created once per completed countdown.
type Alert struct {
	ID          string       `json:"id"`
	UserID      string       `json:"user_id"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	Status      string       `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
}

// Contact channel constants.
const (
	ContactChannelSMS     = "sms"
	ContactChannelPush    = "push"
	ContactChannelWebhook = "webhook"
)

// ValidContactChannels returns the supported delivery channels.
func ValidContactChannels() []string {
	return []string{ContactChannelSMS, ContactChannelPush, ContactChannelWebhook}
}

// IsValidContactChannel checks whether channel is supported.
func IsValidContactChannel(channel string) bool {
	for _, c := range ValidContactChannels() {
		if c == channel {
			return true
		}
	}
	return false
}

// Contact is someone notified when the user's emergency alert fires.
type Contact struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Channel   string    `json:"channel"`
	CreatedAt time.Time `json:"created_at"`
}

// Notification is one alert delivery addressed to one contact.
type Notification struct {
	AlertID     string       `json:"alert_id"`
	UserID      string       `json:"user_id"`
	Contact     Contact      `json:"contact"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	Message     string       `json:"message"`
	SentAt      time.Time    `json:"sent_at"`
}
