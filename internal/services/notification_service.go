package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"parentpal_backend/internal/logger"
	"parentpal_backend/internal/metrics"
	"parentpal_backend/internal/models"
	"parentpal_backend/internal/repositories"
	"parentpal_backend/internal/sms"
)

// smsDispatchWindowDays: events this close get an immediate SMS when the
// user is responsible and reachable.
const smsDispatchWindowDays = 2

const fallbackChildName = "Your child"

// EmailDispatcher delivers email-channel notifications. Satisfied by
// utils.EmailSender.
type EmailDispatcher interface {
	Configured() bool
	Send(to, subject, body string) error
}

// NotificationService decides notification channel and timing from event
// date, custody responsibility and user preference, and emits notification
// records.
type NotificationService interface {
	// PlanForEvent evaluates a freshly created event. Past or dateless events
	// produce no notification and a nil result.
	PlanForEvent(ctx context.Context, user *models.User, event *models.Event) (*models.Notification, error)
	// PlanDailyBriefing collects the user's events for tomorrow into a single
	// daily_briefing notification. No events, no notification.
	PlanDailyBriefing(ctx context.Context, user *models.User) (*models.Notification, error)
	// PlannedForEvent reports whether the event already has a notification
	// record. Recovery uses it to avoid planning an event twice.
	PlannedForEvent(eventID uint) (bool, error)
}

type notificationService struct {
	notificationRepo repositories.NotificationRepository
	childRepo        repositories.ChildRepository
	eventRepo        repositories.EventRepository
	custody          CustodyService
	gateway          sms.Gateway
	emailer          EmailDispatcher
	now              func() time.Time
}

func NewNotificationService(
	notificationRepo repositories.NotificationRepository,
	childRepo repositories.ChildRepository,
	eventRepo repositories.EventRepository,
	custody CustodyService,
	gateway sms.Gateway,
	emailer EmailDispatcher,
) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		childRepo:        childRepo,
		eventRepo:        eventRepo,
		custody:          custody,
		gateway:          gateway,
		emailer:          emailer,
		now:              time.Now,
	}
}

func (s *notificationService) PlanForEvent(ctx context.Context, user *models.User, event *models.Event) (*models.Notification, error) {
	if event.EventDate == nil {
		return nil, nil
	}

	now := s.now()
	daysUntil := int(math.Ceil(event.EventDate.Sub(now).Hours() / 24))
	if daysUntil < 0 {
		return nil, nil
	}

	// Responsibility defaults to true when the event has no resolved child.
	isResponsible := true
	if event.ChildID != nil {
		responsible, err := s.custody.IsResponsible(user.ID, *event.ChildID, *event.EventDate)
		if err != nil {
			return nil, err
		}
		isResponsible = responsible
	}

	childName := fallbackChildName
	if event.ChildID != nil {
		if child, err := s.childRepo.FindByID(*event.ChildID); err == nil {
			childName = child.Name
		}
	}

	message := sms.FormatMessage(childName, event.Title, *event.EventDate, event.Preparation)

	channel := models.NotificationChannelEmail
	if isResponsible {
		channel = models.NotificationChannelSMS
	}

	eventID := event.ID
	notification := &models.Notification{
		UserID:  user.ID,
		EventID: &eventID,
		Channel: channel,
		Message: message,
	}
	if err := s.notificationRepo.Create(notification); err != nil {
		return nil, err
	}
	metrics.NotificationsCreated.WithLabelValues(channel).Inc()

	if daysUntil <= smsDispatchWindowDays && isResponsible && user.SMSConfigured() {
		s.dispatchSMS(ctx, user, notification)
	} else if channel == models.NotificationChannelEmail {
		s.dispatchEmail(ctx, user, notification)
	}

	return notification, nil
}

func (s *notificationService) PlannedForEvent(eventID uint) (bool, error) {
	return s.notificationRepo.ExistsForEvent(eventID)
}

// dispatchSMS sends immediately through the gateway. A failed dispatch is
// logged and the notification record stays undelivered; it is never rolled
// back.
func (s *notificationService) dispatchSMS(ctx context.Context, user *models.User, notification *models.Notification) {
	result, err := s.gateway.Send(ctx, user.SMSPhone, notification.Message)
	if err != nil {
		metrics.SMSDispatches.WithLabelValues("failed").Inc()
		logger.CtxWithError(ctx, "SMS dispatch failed", err, "to", user.SMSPhone, "notification_id", notification.ID)
		return
	}
	if !result.Success {
		metrics.SMSDispatches.WithLabelValues("failed").Inc()
		logger.CtxError(ctx, "SMS gateway rejected message", "to", user.SMSPhone, "gateway_error", result.Error)
		return
	}

	metrics.SMSDispatches.WithLabelValues("sent").Inc()
	if err := s.notificationRepo.MarkDelivered(notification.ID, result.MessageID); err != nil {
		logger.CtxWithError(ctx, "failed to mark notification delivered", err, "notification_id", notification.ID)
	}
}

func (s *notificationService) dispatchEmail(ctx context.Context, user *models.User, notification *models.Notification) {
	if s.emailer == nil || !s.emailer.Configured() {
		return
	}

	if err := s.emailer.Send(user.Email, "Upcoming school event", notification.Message); err != nil {
		logger.CtxWithError(ctx, "email dispatch failed", err, "to", user.Email, "notification_id", notification.ID)
		return
	}
	if err := s.notificationRepo.MarkDelivered(notification.ID, ""); err != nil {
		logger.CtxWithError(ctx, "failed to mark notification delivered", err, "notification_id", notification.ID)
	}
}

func (s *notificationService) PlanDailyBriefing(ctx context.Context, user *models.User) (*models.Notification, error) {
	now := s.now()
	tomorrow := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
	dayAfter := tomorrow.AddDate(0, 0, 1)

	events, err := s.eventRepo.FindInDateRange(user.ID, tomorrow, dayAfter)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}

	lines := make([]string, 0, len(events)+1)
	lines = append(lines, fmt.Sprintf("Tomorrow (%s):", tomorrow.Format("Mon Jan 2")))
	for _, event := range events {
		childName := fallbackChildName
		if event.ChildID != nil {
			if child, err := s.childRepo.FindByID(*event.ChildID); err == nil {
				childName = child.Name
			}
		}
		line := fmt.Sprintf("- %s: %s", childName, event.Title)
		if event.Preparation != "" {
			line += " (" + event.Preparation + ")"
		}
		lines = append(lines, line)
	}

	notification := &models.Notification{
		UserID:  user.ID,
		Channel: models.NotificationChannelDailyBriefing,
		Message: strings.Join(lines, "\n"),
	}
	if err := s.notificationRepo.Create(notification); err != nil {
		return nil, err
	}
	metrics.NotificationsCreated.WithLabelValues(models.NotificationChannelDailyBriefing).Inc()

	if s.emailer != nil && s.emailer.Configured() {
		if err := s.emailer.Send(user.Email, "Your daily school briefing", notification.Message); err != nil {
			logger.CtxWithError(ctx, "briefing dispatch failed", err, "to", user.Email, "notification_id", notification.ID)
		} else if err := s.notificationRepo.MarkDelivered(notification.ID, ""); err != nil {
			logger.CtxWithError(ctx, "failed to mark briefing delivered", err, "notification_id", notification.ID)
		}
	}

	return notification, nil
}
