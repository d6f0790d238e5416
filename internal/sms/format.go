package sms

import (
	"fmt"
	"regexp"
	"time"
)

// preparation is appended only while the total stays under this budget,
// leaving headroom inside the 160-char segment.
const preparationBudget = 140

// FormatMessage composes the notification text:
// "{childName}'s {title} on {date}" with the preparation note appended when
// it still fits the gateway limit.
func FormatMessage(childName, eventTitle string, eventDate time.Time, preparation string) string {
	dateStr := eventDate.Format("Mon Jan 2")

	message := fmt.Sprintf("%s's %s on %s", childName, eventTitle, dateStr)

	if preparation != "" && len(message)+len(preparation) < preparationBudget {
		message += " - " + preparation
	}

	if len(message) > MaxMessageLength {
		message = message[:MaxMessageLength]
	}

	return message
}

var nonDigits = regexp.MustCompile(`\D`)

// ValidatePhone normalizes a US phone number to E.164.
func ValidatePhone(phone string) (string, error) {
	cleaned := nonDigits.ReplaceAllString(phone, "")

	switch {
	case len(cleaned) == 10:
		return "+1" + cleaned, nil
	case len(cleaned) == 11 && cleaned[0] == '1':
		return "+" + cleaned, nil
	default:
		return "", fmt.Errorf("phone number must be 10 digits (US format)")
	}
}
