package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/viniuy/e-barangay/internal/models"
)

type BarangayRepository struct {
	db *gorm.DB
}

func NewBarangayRepository(db *gorm.DB) *BarangayRepository {
	return &BarangayRepository{db: db}
}

func (r *BarangayRepository) Create(ctx context.Context, b *models.Barangay) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *BarangayRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Barangay, error) {
	var b models.Barangay
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&b).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

// GetByName matches names ignoring case.
func (r *BarangayRepository) GetByName(ctx context.Context, name string) (*models.Barangay, error) {
	var b models.Barangay
	if err := r.db.WithContext(ctx).Where("LOWER(name) = LOWER(?)", name).First(&b).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

func (r *BarangayRepository) List(ctx context.Context) ([]models.Barangay, error) {
	var out []models.Barangay
	err := r.db.WithContext(ctx).Order("name ASC").Find(&out).Error
	return out, err
}

func (r *BarangayRepository) Rename(ctx context.Context, id uuid.UUID, name string) error {
	return r.db.WithContext(ctx).Model(&models.Barangay{}).Where("id = ?", id).Update("name", name).Error
}

// Delete removes the barangay with its items and their requests. Users bound
// to it are detached, not deleted.
func (r *BarangayRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("barangay_id = ?", id).Update("barangay_id", nil).Error; err != nil {
			return err
		}

		itemIDs := tx.Model(&models.Item{}).Select("id").Where("barangay_id = ?", id)
		requestIDs := tx.Model(&models.Request{}).Select("id").Where("item_id IN (?)", itemIDs)
		if err := tx.Where("request_id IN (?)", requestIDs).Delete(&models.RequestAction{}).Error; err != nil {
			return err
		}
		if err := tx.Where("item_id IN (?)", itemIDs).Delete(&models.Request{}).Error; err != nil {
			return err
		}
		if err := tx.Where("barangay_id = ?", id).Delete(&models.Item{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Barangay{}, "id = ?", id).Error
	})
}
