package app

import (
	"github.com/yungbote/dialectic-backend/internal/platform/envutil"
	"github.com/yungbote/dialectic-backend/internal/platform/logger"
)

type Config struct {
	BucketName                string
	ObjectStorageMode         string
	StorageEmulatorHost       string
	StorageModeCompatFallback bool
	MetricsAddr               string
	Environment               string
	Version                   string
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		BucketName:                envutil.String("CONTENT_GCS_BUCKET_NAME", ""),
		ObjectStorageMode:         envutil.String("OBJECT_STORAGE_MODE", "gcs"),
		StorageEmulatorHost:       envutil.String("STORAGE_EMULATOR_HOST", ""),
		StorageModeCompatFallback: envutil.Bool("OBJECT_STORAGE_MODE_COMPAT_FALLBACK", false),
		MetricsAddr:               envutil.String("METRICS_ADDR", ""),
		Environment:               envutil.String("APP_ENV", "development"),
		Version:                   envutil.String("APP_VERSION", ""),
	}
	if cfg.BucketName == "" {
		log.Warn("CONTENT_GCS_BUCKET_NAME is not set, uploads will fail until configured")
	}
	return cfg
}
