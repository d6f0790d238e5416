package services

import (
	"strings"

	"parentpal_backend/internal/repositories"
)

// MatchingService resolves an extraction candidate's free-text child
// reference to a known child record.
type MatchingService interface {
	// MatchChild returns the ID of the first of the user's children whose
	// stored name case-insensitively contains the hint as a substring.
	// Returns nil (not an error) when the hint is empty or nothing matches.
	// Ambiguity resolves to first-in-stored-order; there is no scoring.
	MatchChild(userID uint, childNameHint string) (*uint, error)
}

type matchingService struct {
	childRepo repositories.ChildRepository
}

func NewMatchingService(childRepo repositories.ChildRepository) MatchingService {
	return &matchingService{childRepo: childRepo}
}

func (s *matchingService) MatchChild(userID uint, childNameHint string) (*uint, error) {
	hint := strings.ToLower(strings.TrimSpace(childNameHint))
	if hint == "" {
		return nil, nil
	}

	children, err := s.childRepo.FindByUserID(userID)
	if err != nil {
		return nil, err
	}

	for _, child := range children {
		if strings.Contains(strings.ToLower(child.Name), hint) {
			id := child.ID
			return &id, nil
		}
	}

	return nil, nil
}
