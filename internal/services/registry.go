package services

import (
	"parentpal_backend/internal/repositories"
	"parentpal_backend/internal/sms"
)

// ServiceContainer holds every constructed service for wiring into handlers
// and workers.
type ServiceContainer struct {
	Extraction   ExtractionService
	Matching     MatchingService
	Custody      CustodyService
	Notification NotificationService
	Ingestion    IngestionService
	Dedup        *DedupGuard
}

// RepositorySet bundles the repositories the container needs.
type RepositorySet struct {
	Users         repositories.UserRepository
	Children      repositories.ChildRepository
	RawMessages   repositories.RawMessageRepository
	Events        repositories.EventRepository
	Custody       repositories.CustodyRepository
	Notifications repositories.NotificationRepository
}

// NewServiceContainer wires the pipeline together.
func NewServiceContainer(
	repos RepositorySet,
	completion *CompletionClient,
	gateway sms.Gateway,
	emailer EmailDispatcher,
	concurrency int,
) *ServiceContainer {
	fallback := NewFallbackParser()
	extraction := NewExtractionService(completion, fallback)
	matching := NewMatchingService(repos.Children)
	custody := NewCustodyService(repos.Custody)
	notification := NewNotificationService(repos.Notifications, repos.Children, repos.Events, custody, gateway, emailer)
	dedup := NewDedupGuard(repos.RawMessages)
	ingestion := NewIngestionService(repos.Users, repos.RawMessages, repos.Events, dedup, extraction, matching, notification, concurrency)

	return &ServiceContainer{
		Extraction:   extraction,
		Matching:     matching,
		Custody:      custody,
		Notification: notification,
		Ingestion:    ingestion,
		Dedup:        dedup,
	}
}
