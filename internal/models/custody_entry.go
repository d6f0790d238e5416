package models

// CustodyEntry is a per-weekday responsibility flag for a (user, child) pair.
// DayOfWeek follows time.Weekday: 0 = Sunday .. 6 = Saturday.
//
// Absence of an entry for a given day means "not responsible" when the child
// has any entries at all; a child with no entries defaults to responsible.
type CustodyEntry struct {
	BaseModel
	UserID    uint `gorm:"not null;index:idx_custody_lookup" json:"user_id"`
	ChildID   uint `gorm:"not null;index:idx_custody_lookup" json:"child_id"`
	DayOfWeek int  `gorm:"not null;index:idx_custody_lookup" json:"day_of_week"`
	HasChild  bool `gorm:"not null" json:"has_child"`
}
