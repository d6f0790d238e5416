package repositories

import (
	"errors"

	"parentpal_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrRawMessageNotFound = errors.New("raw message not found")
)

type RawMessageRepository interface {
	Create(msg *models.RawMessage) error
	FindByID(id uint) (*models.RawMessage, error)
	FindByUserID(userID uint) ([]models.RawMessage, error)
	// ExistsByProviderID reports whether the user already has a message with
	// this provider message ID.
	ExistsByProviderID(userID uint, providerMessageID string) (bool, error)
	// ExistsBySubjectSender is the dedup fallback when no provider ID is
	// available. Received time is deliberately not part of the key: resend
	// and relay can alter timestamps.
	ExistsBySubjectSender(userID uint, subject, sender string) (bool, error)
	FindUnprocessed(limit int) ([]models.RawMessage, error)
	MarkProcessed(id uint) error
}

type RawMessageRepositoryImpl struct {
	db *gorm.DB
}

func NewRawMessageRepository(db *gorm.DB) RawMessageRepository {
	return &RawMessageRepositoryImpl{db: db}
}

func (r *RawMessageRepositoryImpl) Create(msg *models.RawMessage) error {
	return r.db.Create(msg).Error
}

func (r *RawMessageRepositoryImpl) FindByID(id uint) (*models.RawMessage, error) {
	var msg models.RawMessage
	if err := r.db.First(&msg, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRawMessageNotFound
		}
		return nil, err
	}
	return &msg, nil
}

func (r *RawMessageRepositoryImpl) FindByUserID(userID uint) ([]models.RawMessage, error) {
	var msgs []models.RawMessage
	if err := r.db.Where("user_id = ?", userID).Order("received_at desc").Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *RawMessageRepositoryImpl) ExistsByProviderID(userID uint, providerMessageID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.RawMessage{}).
		Where("user_id = ? AND provider_message_id = ?", userID, providerMessageID).
		Count(&count).Error
	return count > 0, err
}

func (r *RawMessageRepositoryImpl) ExistsBySubjectSender(userID uint, subject, sender string) (bool, error) {
	var count int64
	err := r.db.Model(&models.RawMessage{}).
		Where("user_id = ? AND subject = ? AND sender = ?", userID, subject, sender).
		Count(&count).Error
	return count > 0, err
}

func (r *RawMessageRepositoryImpl) FindUnprocessed(limit int) ([]models.RawMessage, error) {
	var msgs []models.RawMessage
	q := r.db.Where("processed = ?", false).Order("received_at asc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *RawMessageRepositoryImpl) MarkProcessed(id uint) error {
	return r.db.Model(&models.RawMessage{}).Where("id = ?", id).Update("processed", true).Error
}
