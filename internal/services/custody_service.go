package services

import (
	"time"

	"parentpal_backend/internal/repositories"
)

// CustodyService answers "is this parent responsible for this child on date D"
// from the weekly custody calendar.
type CustodyService interface {
	IsResponsible(userID, childID uint, date time.Time) (bool, error)
}

type custodyService struct {
	custodyRepo repositories.CustodyRepository
}

func NewCustodyService(custodyRepo repositories.CustodyRepository) CustodyService {
	return &custodyService{custodyRepo: custodyRepo}
}

// IsResponsible looks up the entry for the date's weekday. A child with no
// schedule at all defaults to responsible, so parents who never configured a
// schedule are still notified. A child with some entries but none for this
// weekday is explicitly not: a configured schedule takes precedence and
// unlisted days are assumed "not mine".
func (s *custodyService) IsResponsible(userID, childID uint, date time.Time) (bool, error) {
	entries, err := s.custodyRepo.FindByChild(userID, childID)
	if err != nil {
		return false, err
	}

	if len(entries) == 0 {
		return true, nil
	}

	dayOfWeek := int(date.Weekday())
	for _, entry := range entries {
		if entry.DayOfWeek == dayOfWeek {
			return entry.HasChild, nil
		}
	}

	return false, nil
}
