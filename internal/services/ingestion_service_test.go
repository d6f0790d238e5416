package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parentpal_backend/internal/models"
	"parentpal_backend/internal/repositories"
	"parentpal_backend/internal/services/dto"
	"parentpal_backend/pkg/apperrors"
)

type ingestionFixture struct {
	svc              IngestionService
	userRepo         *fakeUserRepo
	childRepo        *fakeChildRepo
	rawRepo          *fakeRawMessageRepo
	eventRepo        *fakeEventRepo
	custodyRepo      *fakeCustodyRepo
	notificationRepo *fakeNotificationRepo
	gateway          *fakeGateway
	server           *httptest.Server
}

// newIngestionFixture wires the full pipeline against in-memory repositories
// and a stub completion endpoint returning the given content.
func newIngestionFixture(t *testing.T, completionContent string) *ingestionFixture {
	t.Helper()

	f := &ingestionFixture{
		userRepo:         &fakeUserRepo{},
		childRepo:        &fakeChildRepo{},
		rawRepo:          &fakeRawMessageRepo{},
		eventRepo:        &fakeEventRepo{},
		custodyRepo:      &fakeCustodyRepo{},
		notificationRepo: &fakeNotificationRepo{},
		gateway:          &fakeGateway{configured: true},
	}
	f.server = completionServer(t, http.StatusOK, completionContent)
	t.Cleanup(f.server.Close)

	repos := RepositorySet{
		Users:         f.userRepo,
		Children:      f.childRepo,
		RawMessages:   f.rawRepo,
		Events:        f.eventRepo,
		Custody:       f.custodyRepo,
		Notifications: f.notificationRepo,
	}
	client := NewCompletionClient(CompletionConfig{Endpoint: f.server.URL, APIKey: "test-key", Model: "gpt-4o"})
	container := NewServiceContainer(repos, client, f.gateway, &fakeEmailer{}, 4)
	f.svc = container.Ingestion

	require.NoError(t, f.userRepo.Create(&models.User{
		Email:              "parent@example.com",
		Name:               "Ed",
		CustomEmailAddress: "ed@parentpal.app",
		SMSPhone:           "+15551234567",
		SMSEnabled:         true,
	}))

	return f
}

func TestProcessIncoming_FullPipeline(t *testing.T) {
	date := time.Now().AddDate(0, 0, 10).Format("2006-01-02")
	content := fmt.Sprintf(`[{"title":"Field Trip","eventDate":"%s","childName":"Emma","preparation":"packed lunch"}]`, date)
	f := newIngestionFixture(t, content)
	require.NoError(t, f.childRepo.Create(&models.Child{UserID: 1, Name: "Emma Johnson"}))

	result, err := f.svc.ProcessIncoming(context.Background(), dto.IncomingMessage{
		To:                "ed@parentpal.app",
		From:              "school@example.org",
		Subject:           "Field Trip",
		Body:              "Details inside.",
		ProviderMessageID: "msg-123",
	})
	require.NoError(t, err)

	assert.False(t, result.Duplicate)
	assert.Equal(t, 1, result.EventsCreated)

	events, err := f.eventRepo.FindByUserID(1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Field Trip", events[0].Title)
	require.NotNil(t, events[0].ChildID)
	assert.Equal(t, uint(1), *events[0].ChildID)
	require.NotNil(t, events[0].RawMessageID)
	assert.NotEmpty(t, events[0].ExtractedData)

	// Notification planned before the message was marked processed.
	notifications, err := f.notificationRepo.FindByUserID(1)
	require.NoError(t, err)
	require.Len(t, notifications, 1)

	raw, err := f.rawRepo.FindByID(result.RawMessageID)
	require.NoError(t, err)
	assert.True(t, raw.Processed)
}

func TestProcessIncoming_DuplicateByProviderID(t *testing.T) {
	f := newIngestionFixture(t, "[]")
	msg := dto.IncomingMessage{
		To: "ed@parentpal.app", From: "school@example.org",
		Subject: "Reminder", ProviderMessageID: "msg-123",
	}

	first, err := f.svc.ProcessIncoming(context.Background(), msg)
	require.NoError(t, err)
	assert.False(t, first.Duplicate)

	second, err := f.svc.ProcessIncoming(context.Background(), msg)
	require.NoError(t, err)
	assert.True(t, second.Duplicate)

	messages, err := f.rawRepo.FindByUserID(1)
	require.NoError(t, err)
	assert.Len(t, messages, 1)
}

func TestProcessIncoming_DuplicateBySubjectSender(t *testing.T) {
	f := newIngestionFixture(t, "[]")
	msg := dto.IncomingMessage{
		To: "ed@parentpal.app", From: "school@example.org", Subject: "Newsletter",
	}

	_, err := f.svc.ProcessIncoming(context.Background(), msg)
	require.NoError(t, err)

	second, err := f.svc.ProcessIncoming(context.Background(), msg)
	require.NoError(t, err)
	assert.True(t, second.Duplicate)

	// Same subject from a different sender is a different message.
	other := msg
	other.From = "pta@example.org"
	third, err := f.svc.ProcessIncoming(context.Background(), other)
	require.NoError(t, err)
	assert.False(t, third.Duplicate)
}

func TestProcessIncoming_UnknownRecipient(t *testing.T) {
	f := newIngestionFixture(t, "[]")

	_, err := f.svc.ProcessIncoming(context.Background(), dto.IncomingMessage{
		To: "stranger@example.com", From: "school@example.org", Subject: "Hello",
	})
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.True(t, apperrors.As(err, &appErr))
	assert.True(t, apperrors.Is(err, repositories.ErrUserNotFound))
}

func TestProcessIncoming_ResolvesByPrimaryEmail(t *testing.T) {
	f := newIngestionFixture(t, "[]")

	result, err := f.svc.ProcessIncoming(context.Background(), dto.IncomingMessage{
		To: "parent@example.com", From: "school@example.org", Subject: "Via primary address",
	})
	require.NoError(t, err)
	assert.False(t, result.Duplicate)
}

func TestProcessIncoming_MissingReceivedAtDefaults(t *testing.T) {
	f := newIngestionFixture(t, "[]")

	result, err := f.svc.ProcessIncoming(context.Background(), dto.IncomingMessage{
		To: "ed@parentpal.app", From: "school@example.org", Subject: "No date header",
	})
	require.NoError(t, err)

	raw, err := f.rawRepo.FindByID(result.RawMessageID)
	require.NoError(t, err)
	assert.False(t, raw.ReceivedAt.IsZero())
}

func TestProcessIncoming_UnparseableDateStoresDatelessEvent(t *testing.T) {
	content := `[{"title":"Mystery event","eventDate":"sometime in spring"}]`
	f := newIngestionFixture(t, content)

	result, err := f.svc.ProcessIncoming(context.Background(), dto.IncomingMessage{
		To: "ed@parentpal.app", From: "school@example.org", Subject: "Mystery",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.EventsCreated)

	events, err := f.eventRepo.FindByUserID(1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Nil(t, events[0].EventDate)

	// Dateless events produce no notification.
	notifications, err := f.notificationRepo.FindByUserID(1)
	require.NoError(t, err)
	assert.Empty(t, notifications)
}

func TestProcessBatch_IsolatesFailures(t *testing.T) {
	f := newIngestionFixture(t, "[]")

	msgs := []dto.IncomingMessage{
		{To: "ed@parentpal.app", From: "school@example.org", Subject: "One", ProviderMessageID: "m1"},
		{To: "nobody@example.com", From: "school@example.org", Subject: "Two", ProviderMessageID: "m2"},
		{To: "ed@parentpal.app", From: "school@example.org", Subject: "Three", ProviderMessageID: "m3"},
		{To: "ed@parentpal.app", From: "school@example.org", Subject: "One", ProviderMessageID: "m1"},
	}

	stats := f.svc.ProcessBatch(context.Background(), msgs)

	assert.Equal(t, 3, stats.Processed+stats.Duplicates)
	assert.Equal(t, 1, stats.Errors)

	messages, err := f.rawRepo.FindByUserID(1)
	require.NoError(t, err)
	assert.Len(t, messages, 3)
}

func TestProcessBatch_ConcurrentDuplicatesStoredOnce(t *testing.T) {
	f := newIngestionFixture(t, "[]")

	msgs := make([]dto.IncomingMessage, 8)
	for i := range msgs {
		msgs[i] = dto.IncomingMessage{
			To: "ed@parentpal.app", From: "school@example.org",
			Subject: "Same message", ProviderMessageID: "msg-dup",
		}
	}

	stats := f.svc.ProcessBatch(context.Background(), msgs)

	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 7, stats.Duplicates)

	messages, err := f.rawRepo.FindByUserID(1)
	require.NoError(t, err)
	assert.Len(t, messages, 1)
}

func TestProcessIncoming_NotificationFailureSkipsMarkProcessed(t *testing.T) {
	date := time.Now().AddDate(0, 0, 10).Format("2006-01-02")
	content := fmt.Sprintf(`[{"title":"Recital","eventDate":"%s"}]`, date)
	f := newIngestionFixture(t, content)
	f.notificationRepo.createErr = errors.New("insert failed")

	_, err := f.svc.ProcessIncoming(context.Background(), dto.IncomingMessage{
		To: "ed@parentpal.app", From: "school@example.org",
		Subject: "Recital", ProviderMessageID: "msg-42",
	})
	require.Error(t, err)

	// The raw row and its events are durable, but the processed flag stays
	// clear so the message remains recoverable.
	raw, err := f.rawRepo.FindByID(1)
	require.NoError(t, err)
	assert.False(t, raw.Processed)

	events, err := f.eventRepo.FindByUserID(1)
	require.NoError(t, err)
	require.Len(t, events, 1)

	pending, err := f.rawRepo.FindUnprocessed(10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
}

func TestRecoverPending_FinishesStrandedMessage(t *testing.T) {
	date := time.Now().AddDate(0, 0, 10).Format("2006-01-02")
	content := fmt.Sprintf(`[{"title":"Recital","eventDate":"%s"}]`, date)
	f := newIngestionFixture(t, content)
	f.notificationRepo.createErr = errors.New("insert failed")

	_, err := f.svc.ProcessIncoming(context.Background(), dto.IncomingMessage{
		To: "ed@parentpal.app", From: "school@example.org",
		Subject: "Recital", ProviderMessageID: "msg-42",
	})
	require.Error(t, err)

	f.notificationRepo.createErr = nil
	require.NoError(t, f.svc.RecoverPending(context.Background()))

	raw, err := f.rawRepo.FindByID(1)
	require.NoError(t, err)
	assert.True(t, raw.Processed)

	// Recovery reuses the events created before the failure.
	events, err := f.eventRepo.FindByUserID(1)
	require.NoError(t, err)
	require.Len(t, events, 1)

	notifications, err := f.notificationRepo.FindByUserID(1)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
}

func TestRecoverPending_ExtractsWhenNoEventsExist(t *testing.T) {
	date := time.Now().AddDate(0, 0, 10).Format("2006-01-02")
	content := fmt.Sprintf(`[{"title":"Concert","eventDate":"%s"}]`, date)
	f := newIngestionFixture(t, content)

	// A crash between storing the raw row and extraction leaves a message
	// with no derived records at all.
	require.NoError(t, f.rawRepo.Create(&models.RawMessage{
		UserID:     1,
		Sender:     "school@example.org",
		Subject:    "Concert",
		Body:       "Winter concert details inside.",
		ReceivedAt: time.Now(),
	}))

	require.NoError(t, f.svc.RecoverPending(context.Background()))

	events, err := f.eventRepo.FindByUserID(1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Concert", events[0].Title)

	notifications, err := f.notificationRepo.FindByUserID(1)
	require.NoError(t, err)
	require.Len(t, notifications, 1)

	raw, err := f.rawRepo.FindByID(1)
	require.NoError(t, err)
	assert.True(t, raw.Processed)
}

func TestLockEntriesEvictedAfterProcessing(t *testing.T) {
	f := newIngestionFixture(t, "[]")

	msgs := make([]dto.IncomingMessage, 8)
	for i := range msgs {
		msgs[i] = dto.IncomingMessage{
			To: "ed@parentpal.app", From: "school@example.org",
			Subject: fmt.Sprintf("Notice %d", i), ProviderMessageID: fmt.Sprintf("msg-%d", i),
		}
	}
	f.svc.ProcessBatch(context.Background(), msgs)

	svc := f.svc.(*ingestionService)
	svc.locksMu.Lock()
	defer svc.locksMu.Unlock()
	assert.Empty(t, svc.locks)
}
