package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/viniuy/e-barangay/internal/access"
	"github.com/viniuy/e-barangay/internal/apperror"
	"github.com/viniuy/e-barangay/internal/cache"
	"github.com/viniuy/e-barangay/internal/models"
	"github.com/viniuy/e-barangay/internal/repository"
	"github.com/viniuy/e-barangay/pkg/logger"
)

var ErrItemNotFound = apperror.NotFound("Item not found")

// ItemQuery are the listing filters accepted from callers.
type ItemQuery struct {
	ID         *uuid.UUID
	Type       models.ItemType
	CategoryID *uuid.UUID
	BarangayID *uuid.UUID
	Status     models.ItemStatus
	Search     string
}

func (q ItemQuery) cacheKey(scope *access.Scope) string {
	return fmt.Sprintf("%s|id=%s|type=%s|cat=%s|brgy=%s|status=%s|q=%s",
		scope.CacheKey(), uuidOrEmpty(q.ID), q.Type, uuidOrEmpty(q.CategoryID),
		uuidOrEmpty(q.BarangayID), q.Status, strings.ToLower(strings.TrimSpace(q.Search)))
}

type ItemInput struct {
	Name           string
	Description    string
	Type           models.ItemType
	CategoryID     *uuid.UUID
	ProcessingTime string
	Availability   string
	BookingRules   *string
	Status         models.ItemStatus
	ImageURL       *string
	BarangayID     *uuid.UUID
}

// ItemPatch holds optional changes; nil fields are left untouched.
// CategoryID "" removes the item from its category.
type ItemPatch struct {
	Name           *string
	Description    *string
	Type           *models.ItemType
	CategoryID     *string
	ProcessingTime *string
	Availability   *string
	BookingRules   *string
	Status         *models.ItemStatus
	ImageURL       *string
	BarangayID     *uuid.UUID
}

type ItemService struct {
	items      *repository.ItemRepository
	categories *repository.CategoryRepository
	barangays  *repository.BarangayRepository
	cache      *cache.Cache
}

func NewItemService(
	items *repository.ItemRepository,
	categories *repository.CategoryRepository,
	barangays *repository.BarangayRepository,
	c *cache.Cache,
) *ItemService {
	return &ItemService{items: items, categories: categories, barangays: barangays, cache: c}
}

// List returns items visible to scope. Archived items are hidden from
// residents and anonymous visitors unless asked for by status.
func (s *ItemService) List(ctx context.Context, scope *access.Scope, q ItemQuery) ([]models.Item, error) {
	if q.Type != "" && !q.Type.Valid() {
		return nil, apperror.Validation("Invalid item type")
	}
	if q.Status != "" && !q.Status.Valid() {
		return nil, apperror.Validation("Invalid item status")
	}

	staff := scope.IsAdmin() || scope.IsSuperAdmin()
	if q.Status == models.ItemArchived && !staff {
		return []models.Item{}, nil
	}

	filter := repository.ItemFilter{
		ID:              q.ID,
		Type:            q.Type,
		CategoryID:      q.CategoryID,
		Status:          q.Status,
		Search:          q.Search,
		ExcludeArchived: !staff,
	}
	scopeFn := func(db *gorm.DB) (*gorm.DB, error) { return scope.Items(db, q.BarangayID) }

	items, err := cache.Fetch(ctx, s.cache, cache.NamespaceItems, q.cacheKey(scope), func() ([]models.Item, error) {
		return s.items.List(ctx, filter, scopeFn)
	})
	if err != nil {
		if apperror.Is(err, apperror.KindForbidden) {
			return nil, err
		}
		logger.Log.Error("Failed to list items", zap.Error(err))
		return nil, apperror.Internal(err)
	}
	return items, nil
}

func (s *ItemService) Create(ctx context.Context, scope *access.Scope, in ItemInput) (*models.Item, error) {
	barangayID, err := scope.BarangayForNewItem(in.BarangayID)
	if err != nil {
		return nil, err
	}

	item := &models.Item{
		Name:           strings.TrimSpace(in.Name),
		Description:    strings.TrimSpace(in.Description),
		Type:           in.Type,
		CategoryID:     in.CategoryID,
		ProcessingTime: strings.TrimSpace(in.ProcessingTime),
		Availability:   strings.TrimSpace(in.Availability),
		BookingRules:   in.BookingRules,
		Status:         in.Status,
		ImageURL:       in.ImageURL,
		BarangayID:     barangayID,
	}
	if item.Type == "" {
		item.Type = models.ItemTypeService
	}
	if item.Status == "" {
		item.Status = models.ItemAvailable
	}

	if err := s.validate(ctx, item); err != nil {
		return nil, err
	}

	if err := s.items.Create(ctx, item); err != nil {
		logger.Log.Error("Failed to create item", zap.String("name", item.Name), zap.Error(err))
		return nil, apperror.Internal(err)
	}
	s.cache.Invalidate(ctx, cache.NamespaceItems)

	logger.Log.Info("Item created",
		zap.String("item_id", item.ID.String()),
		zap.String("actor_id", scope.UserID.String()),
		zap.String("barangay_id", uuidOrEmpty(item.BarangayID)),
	)
	return s.get(ctx, item.ID)
}

func (s *ItemService) Update(ctx context.Context, scope *access.Scope, id uuid.UUID, p ItemPatch) (*models.Item, error) {
	item, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := scope.CanManageItem(item); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if p.Name != nil {
		item.Name = strings.TrimSpace(*p.Name)
		fields["name"] = item.Name
	}
	if p.Description != nil {
		item.Description = strings.TrimSpace(*p.Description)
		fields["description"] = item.Description
	}
	if p.Type != nil {
		item.Type = *p.Type
		fields["type"] = item.Type
	}
	if p.CategoryID != nil {
		if *p.CategoryID == "" {
			item.CategoryID = nil
			item.Category = nil
			fields["category_id"] = nil
		} else {
			cid, err := uuid.Parse(*p.CategoryID)
			if err != nil {
				return nil, apperror.Validation("Invalid categoryId")
			}
			item.CategoryID = &cid
			fields["category_id"] = cid
		}
	}
	if p.ProcessingTime != nil {
		item.ProcessingTime = strings.TrimSpace(*p.ProcessingTime)
		fields["processing_time"] = item.ProcessingTime
	}
	if p.Availability != nil {
		item.Availability = strings.TrimSpace(*p.Availability)
		fields["availability"] = item.Availability
	}
	if p.BookingRules != nil {
		item.BookingRules = p.BookingRules
		fields["booking_rules"] = *p.BookingRules
	}
	if p.Status != nil {
		item.Status = *p.Status
		fields["status"] = item.Status
	}
	if p.ImageURL != nil {
		item.ImageURL = p.ImageURL
		fields["image_url"] = *p.ImageURL
	}
	if p.BarangayID != nil && (item.BarangayID == nil || *p.BarangayID != *item.BarangayID) {
		if !scope.IsSuperAdmin() {
			return nil, apperror.Forbidden("Cannot move items to another barangay")
		}
		item.BarangayID = p.BarangayID
		fields["barangay_id"] = *p.BarangayID
	}

	if err := s.validate(ctx, item); err != nil {
		return nil, err
	}

	if err := s.items.Update(ctx, id, fields); err != nil {
		logger.Log.Error("Failed to update item", zap.String("item_id", id.String()), zap.Error(err))
		return nil, apperror.Internal(err)
	}
	s.cache.Invalidate(ctx, cache.NamespaceItems, cache.NamespaceRequests)

	logger.Log.Info("Item updated",
		zap.String("item_id", id.String()),
		zap.String("actor_id", scope.UserID.String()),
		zap.Int("fields", len(fields)),
	)
	return s.get(ctx, id)
}

// Delete removes the item together with its requests.
func (s *ItemService) Delete(ctx context.Context, scope *access.Scope, id uuid.UUID) error {
	item, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if err := scope.CanManageItem(item); err != nil {
		return err
	}

	if err := s.items.Delete(ctx, id); err != nil {
		logger.Log.Error("Failed to delete item", zap.String("item_id", id.String()), zap.Error(err))
		return apperror.Internal(err)
	}
	s.cache.Invalidate(ctx, cache.NamespaceItems, cache.NamespaceRequests)

	logger.Log.Info("Item deleted",
		zap.String("item_id", id.String()),
		zap.String("actor_id", scope.UserID.String()),
	)
	return nil
}

func (s *ItemService) get(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if item == nil {
		return nil, ErrItemNotFound
	}
	return item, nil
}

func (s *ItemService) validate(ctx context.Context, item *models.Item) error {
	if item.Name == "" {
		return apperror.Validation("Item name is required")
	}
	if len(item.Name) > 150 {
		return apperror.Validation("Item name too long")
	}
	if !item.Type.Valid() {
		return apperror.Validation("Invalid item type")
	}
	if !item.Status.Valid() {
		return apperror.Validation("Invalid item status")
	}

	if item.CategoryID != nil {
		c, err := s.categories.GetByID(ctx, *item.CategoryID)
		if err != nil {
			return apperror.Internal(err)
		}
		if c == nil {
			return ErrCategoryNotFound
		}
	}
	if item.BarangayID != nil {
		b, err := s.barangays.GetByID(ctx, *item.BarangayID)
		if err != nil {
			return apperror.Internal(err)
		}
		if b == nil {
			return ErrBarangayNotFound
		}
	}
	return nil
}

func uuidOrEmpty(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}
