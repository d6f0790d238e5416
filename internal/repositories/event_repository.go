package repositories

import (
	"errors"
	"time"

	"parentpal_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrEventNotFound = errors.New("event not found")
)

type EventRepository interface {
	Create(event *models.Event) error
	FindByID(id uint) (*models.Event, error)
	FindByUserID(userID uint) ([]models.Event, error)
	FindByRawMessageID(rawMessageID uint) ([]models.Event, error)
	// FindInDateRange returns the user's non-canceled events whose date falls
	// in [from, to). Used by the daily briefing.
	FindInDateRange(userID uint, from, to time.Time) ([]models.Event, error)
	Update(event *models.Event) error
	MarkCompleted(id uint) error
}

type EventRepositoryImpl struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) EventRepository {
	return &EventRepositoryImpl{db: db}
}

func (r *EventRepositoryImpl) Create(event *models.Event) error {
	return r.db.Create(event).Error
}

func (r *EventRepositoryImpl) FindByID(id uint) (*models.Event, error) {
	var event models.Event
	if err := r.db.First(&event, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return &event, nil
}

func (r *EventRepositoryImpl) FindByUserID(userID uint) ([]models.Event, error) {
	var events []models.Event
	if err := r.db.Where("user_id = ?", userID).Order("event_date asc").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *EventRepositoryImpl) FindByRawMessageID(rawMessageID uint) ([]models.Event, error) {
	var events []models.Event
	if err := r.db.Where("raw_message_id = ?", rawMessageID).Order("id asc").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *EventRepositoryImpl) FindInDateRange(userID uint, from, to time.Time) ([]models.Event, error) {
	var events []models.Event
	err := r.db.
		Where("user_id = ? AND is_canceled = ? AND event_date >= ? AND event_date < ?", userID, false, from, to).
		Order("event_date asc").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *EventRepositoryImpl) Update(event *models.Event) error {
	return r.db.Save(event).Error
}

func (r *EventRepositoryImpl) MarkCompleted(id uint) error {
	return r.db.Model(&models.Event{}).Where("id = ?", id).Update("is_completed", true).Error
}
