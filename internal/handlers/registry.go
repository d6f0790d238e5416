package handlers

import (
	"parentpal_backend/internal/services"
	"parentpal_backend/internal/validator"
)

// AppHandlers holds every HTTP handler in the application.
type AppHandlers struct {
	UserHandler         *UserHandler
	ChildHandler        *ChildHandler
	EventHandler        *EventHandler
	NotificationHandler *NotificationHandler
	IngestHandler       *IngestHandler
}

// NewAppHandlers wires the handlers against the repositories and services.
func NewAppHandlers(
	v *validator.Validator,
	repos services.RepositorySet,
	container *services.ServiceContainer,
) *AppHandlers {
	base := NewBaseHandler(v)

	return &AppHandlers{
		UserHandler:         NewUserHandler(base, repos.Users),
		ChildHandler:        NewChildHandler(base, repos.Children, repos.Custody),
		EventHandler:        NewEventHandler(base, repos.Events),
		NotificationHandler: NewNotificationHandler(base, repos.Notifications),
		IngestHandler:       NewIngestHandler(base, container.Ingestion, container.Notification, repos.Users, repos.RawMessages),
	}
}
