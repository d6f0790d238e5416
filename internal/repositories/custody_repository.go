package repositories

import (
	"errors"

	"parentpal_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrCustodyEntryNotFound = errors.New("custody entry not found")
)

type CustodyRepository interface {
	// Upsert creates or replaces the entry for (user, child, day).
	Upsert(entry *models.CustodyEntry) error
	FindByUserID(userID uint) ([]models.CustodyEntry, error)
	// FindByChild returns every entry for the (user, child) pair. An empty
	// result means the child has no schedule configured at all.
	FindByChild(userID, childID uint) ([]models.CustodyEntry, error)
	Delete(id uint) error
}

type CustodyRepositoryImpl struct {
	db *gorm.DB
}

func NewCustodyRepository(db *gorm.DB) CustodyRepository {
	return &CustodyRepositoryImpl{db: db}
}

func (r *CustodyRepositoryImpl) Upsert(entry *models.CustodyEntry) error {
	var existing models.CustodyEntry
	err := r.db.
		Where("user_id = ? AND child_id = ? AND day_of_week = ?", entry.UserID, entry.ChildID, entry.DayOfWeek).
		First(&existing).Error
	if err == nil {
		existing.HasChild = entry.HasChild
		if err := r.db.Save(&existing).Error; err != nil {
			return err
		}
		*entry = existing
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return r.db.Create(entry).Error
}

func (r *CustodyRepositoryImpl) FindByUserID(userID uint) ([]models.CustodyEntry, error) {
	var entries []models.CustodyEntry
	if err := r.db.Where("user_id = ?", userID).Order("child_id asc, day_of_week asc").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *CustodyRepositoryImpl) FindByChild(userID, childID uint) ([]models.CustodyEntry, error) {
	var entries []models.CustodyEntry
	err := r.db.
		Where("user_id = ? AND child_id = ?", userID, childID).
		Order("day_of_week asc").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *CustodyRepositoryImpl) Delete(id uint) error {
	result := r.db.Delete(&models.CustodyEntry{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCustodyEntryNotFound
	}
	return nil
}
