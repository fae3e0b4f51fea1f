package service

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/viniuy/e-barangay/internal/access"
	"github.com/viniuy/e-barangay/internal/apperror"
	"github.com/viniuy/e-barangay/internal/metrics"
	"github.com/viniuy/e-barangay/internal/repository"
	"github.com/viniuy/e-barangay/internal/storage"
	"github.com/viniuy/e-barangay/pkg/logger"
)

// MaxUploadSize is the largest accepted upload, in bytes.
const MaxUploadSize = 5 << 20

type UploadKind string

const (
	UploadIDDocument      UploadKind = "id_document"
	UploadAddressDocument UploadKind = "address_document"
	UploadItemImage       UploadKind = "item_image"
)

func (k UploadKind) Valid() bool {
	switch k {
	case UploadIDDocument, UploadAddressDocument, UploadItemImage:
		return true
	}
	return false
}

var (
	ErrFileTooLarge    = apperror.Validation("File too large.")
	ErrInvalidFileType = apperror.Validation("Invalid file type. Only PNG and JPEG are allowed.")
	ErrInvalidKind     = apperror.Validation("Invalid upload kind")
	ErrInvalidKey      = apperror.Validation("Invalid key")
	ErrNotUploadOwner  = apperror.Forbidden("Not allowed to delete this file")

	allowedTypes = map[string]string{
		"image/png":  ".png",
		"image/jpeg": ".jpeg",
	}
)

type UploadResult struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

type UploadService struct {
	store   storage.Provider
	users   *repository.UserRepository
	metrics *metrics.Metrics
}

func NewUploadService(store storage.Provider, users *repository.UserRepository, m *metrics.Metrics) *UploadService {
	return &UploadService{store: store, users: users, metrics: m}
}

// Upload stores a PNG or JPEG of at most MaxUploadSize bytes. size is the
// declared length; the body is still read with a hard cap.
func (s *UploadService) Upload(ctx context.Context, scope *access.Scope, kind UploadKind, size int64, body io.Reader) (*UploadResult, error) {
	if scope == nil {
		return nil, apperror.Unauthorized("Not authenticated")
	}
	if !kind.Valid() {
		return nil, ErrInvalidKind
	}
	if kind == UploadItemImage && !scope.IsAdmin() && !scope.IsSuperAdmin() {
		return nil, apperror.Forbidden("Only staff can upload item images")
	}

	if size > MaxUploadSize {
		s.reject(kind, "too_large", size)
		return nil, ErrFileTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(body, MaxUploadSize+1))
	if err != nil {
		return nil, apperror.Validation("Could not read upload")
	}
	if len(data) > MaxUploadSize {
		s.reject(kind, "too_large", int64(len(data)))
		return nil, ErrFileTooLarge
	}

	mtype := mimetype.Detect(data)
	ext, ok := allowedTypes[mtype.String()]
	if !ok {
		s.reject(kind, "invalid_type", int64(len(data)))
		logger.Log.Warn("Upload rejected: content type", zap.String("detected", mtype.String()))
		return nil, ErrInvalidFileType
	}

	key := string(kind) + "/" + scope.UserID.String() + "/" + uuid.NewString() + ext
	if err := s.store.Put(ctx, key, bytes.NewReader(data), mtype.String()); err != nil {
		s.metrics.Upload(string(kind), "error")
		logger.Log.Error("Failed to store upload", zap.String("key", key), zap.Error(err))
		return nil, apperror.Internal(err)
	}

	s.metrics.Upload(string(kind), "ok")
	logger.Log.Info("Upload stored",
		zap.String("key", key),
		zap.String("content_type", mtype.String()),
		zap.Int("size", len(data)),
		zap.String("user_id", scope.UserID.String()),
	)
	return &UploadResult{
		Key:         key,
		URL:         s.store.URL(key),
		ContentType: mtype.String(),
		Size:        int64(len(data)),
	}, nil
}

// Delete removes an uploaded object. Keys are "<kind>/<uploader>/<file>";
// the uploader, staff of the uploader's barangay and SUPER_ADMIN may delete.
func (s *UploadService) Delete(ctx context.Context, scope *access.Scope, key string) error {
	if scope == nil {
		return apperror.Unauthorized("Not authenticated")
	}

	key, err := storage.CleanKey(key)
	if err != nil {
		return ErrInvalidKey
	}
	parts := strings.Split(key, "/")
	if len(parts) != 3 || !UploadKind(parts[0]).Valid() {
		return ErrInvalidKey
	}
	owner, err := uuid.Parse(parts[1])
	if err != nil {
		return ErrInvalidKey
	}
	kind := UploadKind(parts[0])
	if kind == UploadItemImage && !scope.IsAdmin() && !scope.IsSuperAdmin() {
		return apperror.Forbidden("Only staff can delete item images")
	}
	if err := s.canDelete(ctx, scope, owner); err != nil {
		logger.Log.Warn("Upload delete denied",
			zap.String("key", key),
			zap.String("user_id", scope.UserID.String()),
		)
		return err
	}

	if err := s.store.Delete(ctx, key); err != nil {
		logger.Log.Error("Failed to delete upload", zap.String("key", key), zap.Error(err))
		return apperror.Internal(err)
	}

	logger.Log.Info("Upload deleted", zap.String("key", key), zap.String("user_id", scope.UserID.String()))
	return nil
}

func (s *UploadService) canDelete(ctx context.Context, scope *access.Scope, owner uuid.UUID) error {
	if scope.IsSuperAdmin() || scope.UserID == owner {
		return nil
	}
	if !scope.IsAdmin() || scope.BarangayID == nil {
		return ErrNotUploadOwner
	}

	uploader, err := s.users.GetUserByID(ctx, owner)
	if err != nil {
		return apperror.Internal(err)
	}
	if uploader == nil || uploader.BarangayID == nil || *uploader.BarangayID != *scope.BarangayID {
		return ErrNotUploadOwner
	}
	return nil
}

func (s *UploadService) reject(kind UploadKind, reason string, size int64) {
	s.metrics.Upload(string(kind), "rejected")
	logger.Log.Warn("Upload rejected",
		zap.String("kind", string(kind)),
		zap.String("reason", reason),
		zap.Int64("size", size),
	)
}
