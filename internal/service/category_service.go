package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/viniuy/e-barangay/internal/apperror"
	"github.com/viniuy/e-barangay/internal/cache"
	"github.com/viniuy/e-barangay/internal/models"
	"github.com/viniuy/e-barangay/internal/repository"
	"github.com/viniuy/e-barangay/pkg/logger"
)

var (
	ErrCategoryExists   = apperror.Validation("Category already exists.")
	ErrCategoryNotFound = apperror.NotFound("Category not found")
)

type CategoryService struct {
	repo  *repository.CategoryRepository
	cache *cache.Cache
}

func NewCategoryService(repo *repository.CategoryRepository, c *cache.Cache) *CategoryService {
	return &CategoryService{repo: repo, cache: c}
}

func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	out, err := cache.Fetch(ctx, s.cache, cache.NamespaceCategories, "all", func() ([]models.Category, error) {
		return s.repo.List(ctx)
	})
	if err != nil {
		logger.Log.Error("Failed to list categories", zap.Error(err))
		return nil, apperror.Internal(err)
	}
	return out, nil
}

func (s *CategoryService) Create(ctx context.Context, name string, description *string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.Validation("Category name is required")
	}
	if len(name) > 100 {
		return nil, apperror.Validation("Category name too long")
	}

	existing, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if existing != nil {
		return nil, ErrCategoryExists
	}

	c := &models.Category{Name: name, Description: trimmedOrNil(description)}
	if err := s.repo.Create(ctx, c); err != nil {
		logger.Log.Error("Failed to create category", zap.String("name", name), zap.Error(err))
		return nil, apperror.Internal(err)
	}
	s.cache.Invalidate(ctx, cache.NamespaceCategories)

	logger.Log.Info("Category created", zap.String("category_id", c.ID.String()), zap.String("name", name))
	return c, nil
}

// Delete removes the category. Its items stay, uncategorized.
func (s *CategoryService) Delete(ctx context.Context, id uuid.UUID) error {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return apperror.Internal(err)
	}
	if c == nil {
		return ErrCategoryNotFound
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		logger.Log.Error("Failed to delete category", zap.String("category_id", id.String()), zap.Error(err))
		return apperror.Internal(err)
	}
	s.cache.Invalidate(ctx, cache.NamespaceCategories, cache.NamespaceItems)

	logger.Log.Info("Category deleted", zap.String("category_id", id.String()))
	return nil
}
