package validator

import (
	"log"

	"github.com/go-playground/validator/v10"

	"parentpal_backend/internal/sms"
)

// registerCustomRules registers the custom validation functions used by the
// API DTOs.
func registerCustomRules(v *validator.Validate) error {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			log.Fatalf("failed to register custom validation tag '%s': %v", tag, err)
		}
	}

	// 'phone_e164': the number must normalize to E.164.
	mustRegister("phone_e164", validatePhone)

	// 'weekday': 0 (Sunday) through 6 (Saturday).
	mustRegister("weekday", validateWeekday)

	return nil
}

func validatePhone(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // 'required' handles empty
	}

	_, err := sms.ValidatePhone(value)
	return err == nil
}

func validateWeekday(fl validator.FieldLevel) bool {
	value := fl.Field().Int()
	return value >= 0 && value <= 6
}
