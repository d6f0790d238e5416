package models

import "time"

// Notification channels
const (
	NotificationChannelSMS           = "sms"
	NotificationChannelEmail         = "email"
	NotificationChannelDailyBriefing = "daily_briefing"
)

// Notification is created once per (event, trigger) and never edited after
// creation except to flip Delivered/SentAt.
type Notification struct {
	BaseModel
	UserID  uint   `gorm:"not null;index" json:"user_id"`
	EventID *uint  `gorm:"index" json:"event_id"`
	Channel string `gorm:"not null" json:"channel"` // sms | email | daily_briefing
	Message string `gorm:"not null" json:"message"`

	Delivered bool       `gorm:"default:false" json:"delivered"`
	SentAt    *time.Time `json:"sent_at"`

	// ExternalID is the gateway-side message ID when the notification was
	// dispatched (e.g. the Twilio message SID).
	ExternalID string `json:"external_id"`
}
