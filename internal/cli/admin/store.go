package admin

import (
	"context"
	"fmt"
	"log"

	"github.com/clarivex-health/advera/internal/config"
	"github.com/clarivex-health/advera/internal/service"
	"github.com/clarivex-health/advera/internal/storage"
)

// newReportStore picks S3 when configured, the local filesystem otherwise.
func newReportStore(ctx context.Context, cfg *config.Config) (service.ReportStore, error) {
	if cfg.HasS3() {
		s3Store, err := storage.NewS3ReportStore(ctx, storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 report store: %w", err)
		}
		if err := s3Store.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Printf("S3 bucket '%s' ready", cfg.S3Bucket)
		return s3Store, nil
	}

	localStore, err := storage.NewLocalReportStore(cfg.ReportDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create local report store: %w", err)
	}
	return localStore, nil
}
