// Package storage holds uploaded documents and images on local disk or an
// S3-compatible bucket.
package storage

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/viniuy/e-barangay/internal/config"
	"github.com/viniuy/e-barangay/pkg/logger"
)

// New selects the provider named by STORAGE_PROVIDER.
func New(cfg *config.Config) (Provider, error) {
	switch cfg.StorageProvider {
	case "local", "":
		logger.Log.Info("Using local upload storage", zap.String("root", cfg.StorageRoot))
		return NewLocalProvider(cfg.StorageRoot, cfg.StoragePublic), nil
	case "s3":
		logger.Log.Info("Using S3 upload storage",
			zap.String("bucket", cfg.S3Bucket),
			zap.String("endpoint", cfg.S3Endpoint),
		)
		return NewS3Provider(S3Options{
			Bucket:    cfg.S3Bucket,
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			KeyID:     cfg.S3KeyID,
			AppKey:    cfg.S3AppKey,
			PublicURL: cfg.StoragePublic,
		})
	default:
		return nil, fmt.Errorf("unsupported STORAGE_PROVIDER %q", cfg.StorageProvider)
	}
}
