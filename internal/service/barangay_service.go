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

var ErrBarangayExists = apperror.Validation("Barangay already exists.")

type BarangayService struct {
	repo  *repository.BarangayRepository
	cache *cache.Cache
}

func NewBarangayService(repo *repository.BarangayRepository, c *cache.Cache) *BarangayService {
	return &BarangayService{repo: repo, cache: c}
}

func (s *BarangayService) List(ctx context.Context) ([]models.Barangay, error) {
	out, err := cache.Fetch(ctx, s.cache, cache.NamespaceBarangays, "all", func() ([]models.Barangay, error) {
		return s.repo.List(ctx)
	})
	if err != nil {
		logger.Log.Error("Failed to list barangays", zap.Error(err))
		return nil, apperror.Internal(err)
	}
	return out, nil
}

// Create adds a barangay. Names are unique ignoring case.
func (s *BarangayService) Create(ctx context.Context, name string) (*models.Barangay, error) {
	name, err := s.checkName(ctx, name, uuid.Nil)
	if err != nil {
		return nil, err
	}

	b := &models.Barangay{Name: name}
	if err := s.repo.Create(ctx, b); err != nil {
		logger.Log.Error("Failed to create barangay", zap.String("name", name), zap.Error(err))
		return nil, apperror.Internal(err)
	}
	s.cache.Invalidate(ctx, cache.NamespaceBarangays)

	logger.Log.Info("Barangay created",
		zap.String("barangay_id", b.ID.String()),
		zap.String("name", b.Name),
	)
	return b, nil
}

func (s *BarangayService) Rename(ctx context.Context, id uuid.UUID, name string) (*models.Barangay, error) {
	b, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	name, err = s.checkName(ctx, name, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Rename(ctx, id, name); err != nil {
		logger.Log.Error("Failed to rename barangay", zap.String("barangay_id", id.String()), zap.Error(err))
		return nil, apperror.Internal(err)
	}
	s.cache.Invalidate(ctx, cache.NamespaceBarangays, cache.NamespaceItems)

	b.Name = name
	return b, nil
}

// Delete removes the barangay, its items and their requests.
func (s *BarangayService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.get(ctx, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		logger.Log.Error("Failed to delete barangay", zap.String("barangay_id", id.String()), zap.Error(err))
		return apperror.Internal(err)
	}
	s.cache.Invalidate(ctx, cache.NamespaceBarangays, cache.NamespaceItems, cache.NamespaceRequests)

	logger.Log.Info("Barangay deleted", zap.String("barangay_id", id.String()))
	return nil
}

func (s *BarangayService) get(ctx context.Context, id uuid.UUID) (*models.Barangay, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if b == nil {
		return nil, ErrBarangayNotFound
	}
	return b, nil
}

// checkName trims name and rejects it if empty or taken by a barangay other
// than self.
func (s *BarangayService) checkName(ctx context.Context, name string, self uuid.UUID) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperror.Validation("Barangay name is required")
	}
	if len(name) > 120 {
		return "", apperror.Validation("Barangay name too long")
	}

	existing, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return "", apperror.Internal(err)
	}
	if existing != nil && existing.ID != self {
		logger.Log.Warn("Barangay already exists", zap.String("name", name))
		return "", ErrBarangayExists
	}
	return name, nil
}
