package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/viniuy/e-barangay/internal/models"
)

type ItemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

type ItemFilter struct {
	ID              *uuid.UUID
	Type            models.ItemType
	CategoryID      *uuid.UUID
	Status          models.ItemStatus
	Search          string
	ExcludeArchived bool
}

func (r *ItemRepository) Create(ctx context.Context, item *models.Item) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *ItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	var item models.Item
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Barangay").
		Where("id = ?", id).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// List returns items matching f inside scope, ordered by name.
func (r *ItemRepository) List(ctx context.Context, f ItemFilter, scope ScopeFunc) ([]models.Item, error) {
	q, err := applyScope(r.db.WithContext(ctx).Model(&models.Item{}), scope)
	if err != nil {
		return nil, err
	}

	if f.ID != nil {
		q = q.Where("items.id = ?", *f.ID)
	}
	if f.Type != "" {
		q = q.Where("items.type = ?", f.Type)
	}
	if f.CategoryID != nil {
		q = q.Where("items.category_id = ?", *f.CategoryID)
	}
	if f.Status != "" {
		q = q.Where("items.status = ?", f.Status)
	} else if f.ExcludeArchived {
		q = q.Where("items.status <> ?", models.ItemArchived)
	}
	if f.Search != "" {
		q = q.Where(searchClause("items.name", "items.description"), likePattern(f.Search), likePattern(f.Search))
	}

	var items []models.Item
	err = q.Preload("Category").Preload("Barangay").Order("items.name ASC").Find(&items).Error
	return items, err
}

// Update writes the given columns. Keys are column names.
func (r *ItemRepository) Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.Item{}).Where("id = ?", id).Updates(fields).Error
}

// Delete removes the item together with its requests and their audit trail.
func (r *ItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		requestIDs := tx.Model(&models.Request{}).Select("id").Where("item_id = ?", id)
		if err := tx.Where("request_id IN (?)", requestIDs).Delete(&models.RequestAction{}).Error; err != nil {
			return err
		}
		if err := tx.Where("item_id = ?", id).Delete(&models.Request{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Item{}, "id = ?", id).Error
	})
}
