package services

import (
	"parentpal_backend/internal/repositories"
)

// DedupGuard prevents re-ingesting the same source message twice. It is a
// pure check; the orchestrator persists the message only after it passes and
// serializes check-then-create per message key.
type DedupGuard struct {
	rawRepo repositories.RawMessageRepository
}

func NewDedupGuard(rawRepo repositories.RawMessageRepository) *DedupGuard {
	return &DedupGuard{rawRepo: rawRepo}
}

// IsDuplicate reports whether the user already ingested this message. The
// provider message ID is authoritative when present; otherwise an identical
// subject plus sender counts as the same message (received time is excluded
// from the key because resend/relay can alter timestamps).
func (g *DedupGuard) IsDuplicate(userID uint, providerMessageID, subject, sender string) (bool, error) {
	if providerMessageID != "" {
		return g.rawRepo.ExistsByProviderID(userID, providerMessageID)
	}
	return g.rawRepo.ExistsBySubjectSender(userID, subject, sender)
}
