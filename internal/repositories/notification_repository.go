package repositories

import (
	"errors"
	"time"

	"parentpal_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrNotificationNotFound = errors.New("notification not found")
)

type NotificationRepository interface {
	Create(notification *models.Notification) error
	FindByID(id uint) (*models.Notification, error)
	FindByUserID(userID uint) ([]models.Notification, error)
	FindUndelivered(userID uint) ([]models.Notification, error)
	// ExistsForEvent reports whether the event already has a notification.
	ExistsForEvent(eventID uint) (bool, error)
	// MarkDelivered flips the delivered flag and stamps SentAt. The only
	// mutation a notification record ever receives.
	MarkDelivered(id uint, externalID string) error
}

type NotificationRepositoryImpl struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &NotificationRepositoryImpl{db: db}
}

func (r *NotificationRepositoryImpl) Create(notification *models.Notification) error {
	return r.db.Create(notification).Error
}

func (r *NotificationRepositoryImpl) FindByID(id uint) (*models.Notification, error) {
	var notification models.Notification
	if err := r.db.First(&notification, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}
	return &notification, nil
}

func (r *NotificationRepositoryImpl) FindByUserID(userID uint) ([]models.Notification, error) {
	var notifications []models.Notification
	if err := r.db.Where("user_id = ?", userID).Order("created_at desc").Find(&notifications).Error; err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *NotificationRepositoryImpl) FindUndelivered(userID uint) ([]models.Notification, error) {
	var notifications []models.Notification
	err := r.db.
		Where("user_id = ? AND delivered = ?", userID, false).
		Order("created_at asc").
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *NotificationRepositoryImpl) ExistsForEvent(eventID uint) (bool, error) {
	var count int64
	if err := r.db.Model(&models.Notification{}).Where("event_id = ?", eventID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *NotificationRepositoryImpl) MarkDelivered(id uint, externalID string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"delivered": true,
		"sent_at":   &now,
	}
	if externalID != "" {
		updates["external_id"] = externalID
	}
	result := r.db.Model(&models.Notification{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}
