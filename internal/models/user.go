package models

type User struct {
	BaseModel
	Email string `gorm:"uniqueIndex;not null" json:"email"`
	Name  string `gorm:"not null" json:"name"`

	// CustomEmailAddress is the per-user forwarding address school mail is
	// sent to (e.g. ed@parentpal.app). Incoming mail is resolved against it
	// first, then against Email.
	CustomEmailAddress string `gorm:"index" json:"custom_email_address"`

	SMSPhone   string `json:"sms_phone"` // E.164
	SMSEnabled bool   `gorm:"default:false" json:"sms_enabled"`
}

// SMSConfigured reports whether the user can receive SMS notifications.
func (u *User) SMSConfigured() bool {
	return u.SMSEnabled && u.SMSPhone != ""
}
