package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parentpal_backend/internal/services/dto"
)

func TestValidate_CreateUserRequest(t *testing.T) {
	v := New()

	tests := []struct {
		name      string
		req       dto.CreateUserRequest
		wantField string
	}{
		{
			name: "valid",
			req:  dto.CreateUserRequest{Email: "p@example.com", Name: "Ed"},
		},
		{
			name:      "missing email",
			req:       dto.CreateUserRequest{Name: "Ed"},
			wantField: "email",
		},
		{
			name:      "bad email",
			req:       dto.CreateUserRequest{Email: "not-an-email", Name: "Ed"},
			wantField: "email",
		},
		{
			name:      "bad phone",
			req:       dto.CreateUserRequest{Email: "p@example.com", Name: "Ed", SMSPhone: "12345"},
			wantField: "sms_phone",
		},
		{
			name: "valid phone",
			req:  dto.CreateUserRequest{Email: "p@example.com", Name: "Ed", SMSPhone: "(555) 123-4567"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Contains(t, vErr.Errors, tt.wantField)
		})
	}
}

func TestValidate_CustodySchedule(t *testing.T) {
	v := New()

	err := v.Validate(dto.SetCustodyScheduleRequest{
		Days: []dto.CustodyDayRequest{{DayOfWeek: 1, HasChild: true}},
	})
	assert.NoError(t, err)

	err = v.Validate(dto.SetCustodyScheduleRequest{
		Days: []dto.CustodyDayRequest{{DayOfWeek: 9, HasChild: true}},
	})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)

	err = v.Validate(dto.SetCustodyScheduleRequest{})
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Errors, "days")
}
