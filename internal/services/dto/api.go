package dto

// Request bodies for the REST surface.

type CreateUserRequest struct {
	Email              string `json:"email" validate:"required,email"`
	Name               string `json:"name" validate:"required,min=1,max=100"`
	CustomEmailAddress string `json:"custom_email_address" validate:"omitempty,email"`
	SMSPhone           string `json:"sms_phone" validate:"omitempty,phone_e164"`
	SMSEnabled         bool   `json:"sms_enabled"`
}

type UpdateUserRequest struct {
	Name               *string `json:"name" validate:"omitempty,min=1,max=100"`
	CustomEmailAddress *string `json:"custom_email_address" validate:"omitempty,email"`
	SMSPhone           *string `json:"sms_phone" validate:"omitempty,phone_e164"`
	SMSEnabled         *bool   `json:"sms_enabled"`
}

type CreateChildRequest struct {
	Name   string `json:"name" validate:"required,min=1,max=100"`
	School string `json:"school" validate:"omitempty,max=200"`
	Grade  string `json:"grade" validate:"omitempty,max=50"`
}

type UpdateChildRequest struct {
	Name   *string `json:"name" validate:"omitempty,min=1,max=100"`
	School *string `json:"school" validate:"omitempty,max=200"`
	Grade  *string `json:"grade" validate:"omitempty,max=50"`
}

// CustodyDayRequest sets one weekday's responsibility flag for a child.
type CustodyDayRequest struct {
	DayOfWeek int  `json:"day_of_week" validate:"weekday"`
	HasChild  bool `json:"has_child"`
}

// SetCustodyScheduleRequest replaces a child's weekly schedule.
type SetCustodyScheduleRequest struct {
	Days []CustodyDayRequest `json:"days" validate:"required,min=1,max=7,dive"`
}
