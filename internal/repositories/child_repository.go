package repositories

import (
	"errors"

	"parentpal_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrChildNotFound = errors.New("child not found")
)

type ChildRepository interface {
	Create(child *models.Child) error
	FindByID(id uint) (*models.Child, error)
	// FindByUserID returns the user's children in stored (insertion) order.
	// The child matcher relies on this ordering: first match wins.
	FindByUserID(userID uint) ([]models.Child, error)
	Update(child *models.Child) error
	Delete(id uint) error
}

type ChildRepositoryImpl struct {
	db *gorm.DB
}

func NewChildRepository(db *gorm.DB) ChildRepository {
	return &ChildRepositoryImpl{db: db}
}

func (r *ChildRepositoryImpl) Create(child *models.Child) error {
	return r.db.Create(child).Error
}

func (r *ChildRepositoryImpl) FindByID(id uint) (*models.Child, error) {
	var child models.Child
	if err := r.db.First(&child, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChildNotFound
		}
		return nil, err
	}
	return &child, nil
}

func (r *ChildRepositoryImpl) FindByUserID(userID uint) ([]models.Child, error) {
	var children []models.Child
	if err := r.db.Where("user_id = ?", userID).Order("id asc").Find(&children).Error; err != nil {
		return nil, err
	}
	return children, nil
}

func (r *ChildRepositoryImpl) Update(child *models.Child) error {
	return r.db.Save(child).Error
}

func (r *ChildRepositoryImpl) Delete(id uint) error {
	return r.db.Delete(&models.Child{}, id).Error
}
