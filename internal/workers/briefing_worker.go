package workers

import (
	"context"
	"time"

	"parentpal_backend/internal/logger"
	"parentpal_backend/internal/repositories"
	"parentpal_backend/internal/services"
)

// BriefingWorker sends each user an evening summary of tomorrow's events.
type BriefingWorker struct {
	users        repositories.UserRepository
	notification services.NotificationService
	hour         int
}

func NewBriefingWorker(users repositories.UserRepository, notification services.NotificationService, hour int) *BriefingWorker {
	return &BriefingWorker{
		users:        users,
		notification: notification,
		hour:         hour,
	}
}

// Start runs the daily loop until ctx is cancelled.
func (w *BriefingWorker) Start(ctx context.Context) {
	go w.loop(ctx)
}

func (w *BriefingWorker) loop(ctx context.Context) {
	for {
		timer := time.NewTimer(w.untilNextRun(time.Now()))

		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Info("briefing worker stopped")
			return
		case <-timer.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce builds and dispatches a briefing for every user. One user's failure
// does not block the rest.
func (w *BriefingWorker) RunOnce(ctx context.Context) {
	users, err := w.users.FindAll()
	if err != nil {
		logger.WorkerLog("briefing", "list users", err)
		return
	}

	sent := 0
	for i := range users {
		notification, err := w.notification.PlanDailyBriefing(ctx, &users[i])
		if err != nil {
			logger.WorkerLog("briefing", "plan briefing", err)
			continue
		}
		if notification != nil {
			sent++
		}
	}

	logger.Info("daily briefings planned", "users", len(users), "sent", sent)
}

// untilNextRun returns the wait until the next occurrence of the configured
// local hour.
func (w *BriefingWorker) untilNextRun(now time.Time) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), w.hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}
