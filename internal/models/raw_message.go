package models

import "time"

// RawMessage is an ingested, unmodified email record. Immutable once stored;
// only the Processed flag is ever flipped, exactly once, after all derived
// events and notifications exist.
type RawMessage struct {
	BaseModel
	UserID uint `gorm:"not null;index" json:"user_id"`

	// ProviderMessageID is the mail provider's message ID. Optional; unique
	// per user when present. It is the primary deduplication key.
	ProviderMessageID string `gorm:"index" json:"provider_message_id"`

	Sender     string    `gorm:"not null" json:"sender"`
	Subject    string    `gorm:"not null" json:"subject"`
	Body       string    `gorm:"type:text" json:"body"`
	ReceivedAt time.Time `gorm:"not null" json:"received_at"`
	Processed  bool      `gorm:"default:false" json:"processed"`
}
