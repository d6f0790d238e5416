package models

type Child struct {
	BaseModel
	UserID uint   `gorm:"not null;index" json:"user_id"`
	Name   string `gorm:"not null" json:"name"`
	School string `json:"school"`
	Grade  string `json:"grade"`
}
