package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"parentpal_backend/internal/logger"
	"parentpal_backend/internal/metrics"
	"parentpal_backend/internal/models"
	"parentpal_backend/internal/repositories"
	"parentpal_backend/internal/services/dto"
	"parentpal_backend/pkg/apperrors"

	"golang.org/x/sync/errgroup"
)

// IngestionService drives the pipeline for each incoming message:
// dedup check → persist raw → extract → match → persist events →
// plan notifications → mark processed.
type IngestionService interface {
	ProcessIncoming(ctx context.Context, msg dto.IncomingMessage) (*dto.IngestionResult, error)
	// ProcessBatch runs messages concurrently with bounded parallelism.
	// A single message's failure never aborts the rest of the batch.
	ProcessBatch(ctx context.Context, msgs []dto.IncomingMessage) dto.BatchStats
	// RecoverPending finishes messages that were stored but never marked
	// processed, resuming after a crash or a planning failure.
	RecoverPending(ctx context.Context) error
}

// recoverBatchSize caps how many stranded messages one recovery pass loads.
const recoverBatchSize = 50

type ingestionService struct {
	userRepo      repositories.UserRepository
	rawRepo       repositories.RawMessageRepository
	eventRepo     repositories.EventRepository
	dedup         *DedupGuard
	extractor     ExtractionService
	matcher       MatchingService
	notifications NotificationService
	concurrency   int
	now           func() time.Time

	// locks serializes the dedup read-then-create per (user, message key);
	// the only mutual-exclusion boundary the pipeline needs. Entries are
	// reference counted and evicted once the last holder unlocks, so the map
	// never grows with the number of distinct messages seen.
	locksMu sync.Mutex
	locks   map[string]*messageLock
}

type messageLock struct {
	mu   sync.Mutex
	refs int
}

func NewIngestionService(
	userRepo repositories.UserRepository,
	rawRepo repositories.RawMessageRepository,
	eventRepo repositories.EventRepository,
	dedup *DedupGuard,
	extractor ExtractionService,
	matcher MatchingService,
	notifications NotificationService,
	concurrency int,
) IngestionService {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &ingestionService{
		userRepo:      userRepo,
		rawRepo:       rawRepo,
		eventRepo:     eventRepo,
		dedup:         dedup,
		extractor:     extractor,
		matcher:       matcher,
		notifications: notifications,
		concurrency:   concurrency,
		now:           time.Now,
		locks:         make(map[string]*messageLock),
	}
}

func (s *ingestionService) ProcessIncoming(ctx context.Context, msg dto.IncomingMessage) (*dto.IngestionResult, error) {
	user, err := s.userRepo.FindByRecipientAddress(msg.To)
	if err != nil {
		metrics.MessagesProcessed.WithLabelValues("rejected").Inc()
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			logger.CtxError(ctx, "no user found for recipient address", "to", msg.To, "from", msg.From)
			return nil, apperrors.ErrNotFound(err).WithDetails("no user for recipient address")
		}
		return nil, err
	}
	ctx = logger.WithUserID(ctx, user.ID)

	unlock := s.lockMessageKey(user.ID, msg)
	defer unlock()

	duplicate, err := s.dedup.IsDuplicate(user.ID, msg.ProviderMessageID, msg.Subject, msg.From)
	if err != nil {
		metrics.MessagesProcessed.WithLabelValues("failed").Inc()
		return nil, err
	}
	if duplicate {
		metrics.MessagesProcessed.WithLabelValues("duplicate").Inc()
		logger.CtxInfo(ctx, "skipping duplicate message", "subject", msg.Subject, "provider_message_id", msg.ProviderMessageID)
		return &dto.IngestionResult{Duplicate: true}, nil
	}

	// Missing date header: substitute ingestion time. Missing body stays "".
	receivedAt := msg.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = s.now()
	}

	raw := &models.RawMessage{
		UserID:            user.ID,
		ProviderMessageID: msg.ProviderMessageID,
		Sender:            msg.From,
		Subject:           msg.Subject,
		Body:              msg.Body,
		ReceivedAt:        receivedAt,
	}
	if err := s.rawRepo.Create(raw); err != nil {
		metrics.MessagesProcessed.WithLabelValues("failed").Inc()
		return nil, err
	}
	logger.CtxInfo(ctx, "message stored", "raw_message_id", raw.ID, "subject", msg.Subject)

	candidates := s.extractor.Extract(ctx, msg.Subject, msg.Body)

	result := &dto.IngestionResult{RawMessageID: raw.ID}
	created := make([]*models.Event, 0, len(candidates))
	for _, candidate := range candidates {
		event, err := s.buildEvent(ctx, user.ID, raw.ID, candidate)
		if err != nil {
			metrics.MessagesProcessed.WithLabelValues("failed").Inc()
			return nil, err
		}
		if err := s.eventRepo.Create(event); err != nil {
			metrics.MessagesProcessed.WithLabelValues("failed").Inc()
			return nil, err
		}
		metrics.EventsCreated.Inc()
		logger.CtxInfo(ctx, "event created", "event_id", event.ID, "title", event.Title)
		created = append(created, event)
		result.EventsCreated++
		result.EventIDs = append(result.EventIDs, event.ID)
	}

	// Notification records must exist before the message counts as
	// processed; a cancelled monitor then never strands a half-done message
	// behind a processed flag. A planning failure leaves the row stored but
	// unprocessed, where RecoverPending picks it up.
	for _, event := range created {
		if _, err := s.notifications.PlanForEvent(ctx, user, event); err != nil {
			metrics.MessagesProcessed.WithLabelValues("failed").Inc()
			return nil, fmt.Errorf("planning notifications for event %d: %w", event.ID, err)
		}
	}

	if err := s.rawRepo.MarkProcessed(raw.ID); err != nil {
		metrics.MessagesProcessed.WithLabelValues("failed").Inc()
		return nil, err
	}

	metrics.MessagesProcessed.WithLabelValues("processed").Inc()
	return result, nil
}

func (s *ingestionService) ProcessBatch(ctx context.Context, msgs []dto.IncomingMessage) dto.BatchStats {
	var (
		mu    sync.Mutex
		stats dto.BatchStats
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, msg := range msgs {
		msg := msg
		g.Go(func() error {
			result, err := s.ProcessIncoming(ctx, msg)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				stats.Errors++
				logger.CtxWithError(ctx, "message processing failed", err, "subject", msg.Subject)
			case result.Duplicate:
				stats.Duplicates++
			default:
				stats.Processed++
			}
			// Never propagate: one bad message must not cancel the batch.
			return nil
		})
	}

	_ = g.Wait()
	return stats
}

// RecoverPending resumes stored-but-unprocessed messages. A message is left
// in that state when the pipeline failed after persisting the raw row, so
// recovery re-runs only the stages that have no durable result yet.
func (s *ingestionService) RecoverPending(ctx context.Context) error {
	pending, err := s.rawRepo.FindUnprocessed(recoverBatchSize)
	if err != nil {
		return err
	}

	for i := range pending {
		raw := &pending[i]
		if err := s.recoverMessage(ctx, raw); err != nil {
			logger.CtxWithError(ctx, "message recovery failed", err, "raw_message_id", raw.ID)
			continue
		}
		logger.CtxInfo(ctx, "stranded message recovered", "raw_message_id", raw.ID, "subject", raw.Subject)
	}

	return nil
}

func (s *ingestionService) recoverMessage(ctx context.Context, raw *models.RawMessage) error {
	user, err := s.userRepo.FindByID(raw.UserID)
	if err != nil {
		return err
	}
	ctx = logger.WithUserID(ctx, user.ID)

	unlock := s.lockMessageKey(user.ID, dto.IncomingMessage{
		ProviderMessageID: raw.ProviderMessageID,
		From:              raw.Sender,
		Subject:           raw.Subject,
	})
	defer unlock()

	events, err := s.eventRepo.FindByRawMessageID(raw.ID)
	if err != nil {
		return err
	}

	if len(events) == 0 {
		candidates := s.extractor.Extract(ctx, raw.Subject, raw.Body)
		for _, candidate := range candidates {
			event, err := s.buildEvent(ctx, user.ID, raw.ID, candidate)
			if err != nil {
				return err
			}
			if err := s.eventRepo.Create(event); err != nil {
				return err
			}
			metrics.EventsCreated.Inc()
			events = append(events, *event)
		}
	}

	// Events that already carry a notification keep it; planning again would
	// break the one-notification-per-event rule.
	for i := range events {
		event := &events[i]
		planned, err := s.notifications.PlannedForEvent(event.ID)
		if err != nil {
			return err
		}
		if planned {
			continue
		}
		if _, err := s.notifications.PlanForEvent(ctx, user, event); err != nil {
			return err
		}
	}

	return s.rawRepo.MarkProcessed(raw.ID)
}

func (s *ingestionService) buildEvent(ctx context.Context, userID, rawMessageID uint, candidate dto.EventCandidate) (*models.Event, error) {
	childID, err := s.matcher.MatchChild(userID, candidate.ChildName)
	if err != nil {
		return nil, err
	}

	rawID := rawMessageID
	event := &models.Event{
		UserID:         userID,
		ChildID:        childID,
		RawMessageID:   &rawID,
		Title:          candidate.Title,
		Description:    candidate.Description,
		Location:       candidate.Location,
		Preparation:    candidate.Preparation,
		RequiresAction: candidate.RequiresAction,
		IsCanceled:     candidate.IsCanceled,
		ExtractedData:  []byte(candidate.Raw),
	}

	if t, ok := parseCandidateDate(candidate.EventDate); ok {
		event.EventDate = &t
	} else if candidate.EventDate != "" {
		logger.CtxWarn(ctx, "unparseable event date, storing dateless event", "event_date", candidate.EventDate, "title", candidate.Title)
	}
	if t, ok := parseCandidateDate(candidate.ActionDeadline); ok {
		event.ActionDeadline = &t
	}

	return event, nil
}

// parseCandidateDate accepts the extractor's date strings: plain ISO dates
// first, full timestamps as a tolerance for chatty completions.
func parseCandidateDate(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// lockMessageKey serializes processing per (user, message key) and returns
// the unlock function. The entry is dropped when the last holder releases it.
func (s *ingestionService) lockMessageKey(userID uint, msg dto.IncomingMessage) func() {
	key := msg.ProviderMessageID
	if key == "" {
		key = msg.Subject + "|" + msg.From
	}
	key = fmt.Sprintf("%d:%s", userID, key)

	s.locksMu.Lock()
	l, ok := s.locks[key]
	if !ok {
		l = &messageLock{}
		s.locks[key] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, key)
		}
		s.locksMu.Unlock()
	}
}
