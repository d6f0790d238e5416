package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"parentpal_backend/internal/models"
	"parentpal_backend/internal/repositories"
	"parentpal_backend/internal/sms"
)

// In-memory repository fakes shared by the service tests.

type fakeUserRepo struct {
	mu    sync.Mutex
	users []*models.User
}

func (f *fakeUserRepo) Create(user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user.ID = uint(len(f.users) + 1)
	f.users = append(f.users, user)
	return nil
}

func (f *fakeUserRepo) FindByID(id uint) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (f *fakeUserRepo) FindByEmail(email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (f *fakeUserRepo) FindByRecipientAddress(address string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.CustomEmailAddress != "" && strings.EqualFold(u.CustomEmailAddress, address) {
			return u, nil
		}
	}
	for _, u := range f.users {
		if strings.EqualFold(u.Email, address) {
			return u, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (f *fakeUserRepo) FindAll() ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeUserRepo) Update(user *models.User) error { return nil }

type fakeChildRepo struct {
	mu       sync.Mutex
	children []models.Child
}

func (f *fakeChildRepo) Create(child *models.Child) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	child.ID = uint(len(f.children) + 1)
	f.children = append(f.children, *child)
	return nil
}

func (f *fakeChildRepo) FindByID(id uint) (*models.Child, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.children {
		if f.children[i].ID == id {
			child := f.children[i]
			return &child, nil
		}
	}
	return nil, repositories.ErrChildNotFound
}

func (f *fakeChildRepo) FindByUserID(userID uint) ([]models.Child, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Child
	for _, c := range f.children {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeChildRepo) Update(child *models.Child) error { return nil }
func (f *fakeChildRepo) Delete(id uint) error             { return nil }

type fakeRawMessageRepo struct {
	mu       sync.Mutex
	messages []*models.RawMessage
}

func (f *fakeRawMessageRepo) Create(msg *models.RawMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg.ID = uint(len(f.messages) + 1)
	f.messages = append(f.messages, msg)
	return nil
}

func (f *fakeRawMessageRepo) FindByID(id uint) (*models.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.messages {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, repositories.ErrRawMessageNotFound
}

func (f *fakeRawMessageRepo) FindByUserID(userID uint) ([]models.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.RawMessage
	for _, m := range f.messages {
		if m.UserID == userID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeRawMessageRepo) ExistsByProviderID(userID uint, providerMessageID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.messages {
		if m.UserID == userID && m.ProviderMessageID == providerMessageID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRawMessageRepo) ExistsBySubjectSender(userID uint, subject, sender string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.messages {
		if m.UserID == userID && m.Subject == subject && m.Sender == sender {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRawMessageRepo) FindUnprocessed(limit int) ([]models.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.RawMessage
	for _, m := range f.messages {
		if !m.Processed {
			out = append(out, *m)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (f *fakeRawMessageRepo) MarkProcessed(id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.messages {
		if m.ID == id {
			m.Processed = true
			return nil
		}
	}
	return repositories.ErrRawMessageNotFound
}

type fakeEventRepo struct {
	mu     sync.Mutex
	events []*models.Event
}

func (f *fakeEventRepo) Create(event *models.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	event.ID = uint(len(f.events) + 1)
	f.events = append(f.events, event)
	return nil
}

func (f *fakeEventRepo) FindByID(id uint) (*models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.events {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, repositories.ErrEventNotFound
}

func (f *fakeEventRepo) FindByUserID(userID uint) ([]models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Event
	for _, e := range f.events {
		if e.UserID == userID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeEventRepo) FindByRawMessageID(rawMessageID uint) ([]models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Event
	for _, e := range f.events {
		if e.RawMessageID != nil && *e.RawMessageID == rawMessageID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeEventRepo) FindInDateRange(userID uint, from, to time.Time) ([]models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Event
	for _, e := range f.events {
		if e.UserID != userID || e.EventDate == nil || e.IsCanceled {
			continue
		}
		if !e.EventDate.Before(from) && e.EventDate.Before(to) {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeEventRepo) Update(event *models.Event) error { return nil }

func (f *fakeEventRepo) MarkCompleted(id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.events {
		if e.ID == id {
			e.IsCompleted = true
			return nil
		}
	}
	return repositories.ErrEventNotFound
}

type fakeCustodyRepo struct {
	mu      sync.Mutex
	entries []models.CustodyEntry
}

func (f *fakeCustodyRepo) Upsert(entry *models.CustodyEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.entries {
		e := &f.entries[i]
		if e.UserID == entry.UserID && e.ChildID == entry.ChildID && e.DayOfWeek == entry.DayOfWeek {
			e.HasChild = entry.HasChild
			return nil
		}
	}
	entry.ID = uint(len(f.entries) + 1)
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeCustodyRepo) FindByUserID(userID uint) ([]models.CustodyEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.CustodyEntry
	for _, e := range f.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeCustodyRepo) FindByChild(userID, childID uint) ([]models.CustodyEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.CustodyEntry
	for _, e := range f.entries {
		if e.UserID == userID && e.ChildID == childID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeCustodyRepo) Delete(id uint) error { return nil }

type fakeNotificationRepo struct {
	mu            sync.Mutex
	notifications []*models.Notification
	createErr     error
}

func (f *fakeNotificationRepo) Create(notification *models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	notification.ID = uint(len(f.notifications) + 1)
	f.notifications = append(f.notifications, notification)
	return nil
}

func (f *fakeNotificationRepo) ExistsForEvent(eventID uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.notifications {
		if n.EventID != nil && *n.EventID == eventID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeNotificationRepo) FindByID(id uint) (*models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.notifications {
		if n.ID == id {
			return n, nil
		}
	}
	return nil, repositories.ErrNotificationNotFound
}

func (f *fakeNotificationRepo) FindByUserID(userID uint) ([]models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Notification
	for _, n := range f.notifications {
		if n.UserID == userID {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (f *fakeNotificationRepo) FindUndelivered(userID uint) ([]models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Notification
	for _, n := range f.notifications {
		if n.UserID == userID && !n.Delivered {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (f *fakeNotificationRepo) MarkDelivered(id uint, externalID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.notifications {
		if n.ID == id {
			now := time.Now()
			n.Delivered = true
			n.SentAt = &now
			n.ExternalID = externalID
			return nil
		}
	}
	return repositories.ErrNotificationNotFound
}

// fakeGateway records outgoing SMS instead of sending them.
type fakeGateway struct {
	mu         sync.Mutex
	configured bool
	sent       []string
	fail       bool
}

func (f *fakeGateway) Send(ctx context.Context, to, text string) (*sms.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return &sms.Result{Success: false, Error: "gateway unavailable"}, nil
	}
	f.sent = append(f.sent, to+": "+text)
	return &sms.Result{Success: true, MessageID: "SM123"}, nil
}

func (f *fakeGateway) Configured() bool { return f.configured }

func (f *fakeGateway) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeEmailer struct {
	mu         sync.Mutex
	configured bool
	sent       []string
}

func (f *fakeEmailer) Configured() bool { return f.configured }

func (f *fakeEmailer) Send(to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, to+": "+subject)
	return nil
}
