package models

import (
	"time"

	"gorm.io/datatypes"
)

// Event is a persisted calendar event derived from a RawMessage.
// ChildID is nil when the event applies to no specific child or the child
// reference could not be resolved. EventDate, once set, is never altered by
// re-ingestion of the same message.
type Event struct {
	BaseModel
	UserID       uint  `gorm:"not null;index" json:"user_id"`
	ChildID      *uint `gorm:"index" json:"child_id"`
	RawMessageID *uint `gorm:"index" json:"raw_message_id"`

	Title       string     `gorm:"not null" json:"title"`
	Description string     `json:"description"`
	EventDate   *time.Time `json:"event_date"`
	Location    string     `json:"location"`
	Preparation string     `json:"preparation"`

	RequiresAction bool       `gorm:"default:false" json:"requires_action"`
	ActionDeadline *time.Time `json:"action_deadline"`
	IsCanceled     bool       `gorm:"default:false" json:"is_canceled"`
	IsCompleted    bool       `gorm:"default:false" json:"is_completed"`

	// ExtractedData keeps the raw extraction payload for audit.
	ExtractedData datatypes.JSON `gorm:"type:jsonb" json:"extracted_data"`
}
