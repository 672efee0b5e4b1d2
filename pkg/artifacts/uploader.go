// Package artifacts uploads finished report bundles to S3-compatible object
// storage so assessment runs are shareable beyond the machine they ran on.
package artifacts

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/docshift-inc/docshift-engine/pkg/config"
)

// Uploader pushes report artifacts into one bucket, keyed by run ID.
type Uploader struct {
	client *minio.Client
	bucket string
	logger *zap.Logger
}

// NewUploader creates an uploader from the artifacts configuration.
func NewUploader(cfg config.ArtifactsConfig, logger *zap.Logger) (*Uploader, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create object storage client: %w", err)
	}
	return &Uploader{
		client: client,
		bucket: cfg.Bucket,
		logger: logger.Named("artifacts"),
	}, nil
}

// contentTypes maps artifact extensions to MIME types; everything else is
// uploaded as octet-stream.
var contentTypes = map[string]string{
	".yaml":    "application/yaml",
	".yml":     "application/yaml",
	".sql":     "application/sql",
	".xlsx":    "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".sqlproj": "application/xml",
}

// Upload pushes the given files under <bucket>/<runID>/. The bucket is
// created if missing.
func (u *Uploader) Upload(ctx context.Context, runID string, paths []string) error {
	exists, err := u.client.BucketExists(ctx, u.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", u.bucket, err)
	}
	if !exists {
		if err := u.client.MakeBucket(ctx, u.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", u.bucket, err)
		}
	}

	for _, path := range paths {
		object := runID + "/" + filepath.Base(path)
		contentType := contentTypes[filepath.Ext(path)]
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		info, err := u.client.FPutObject(ctx, u.bucket, object, path, minio.PutObjectOptions{
			ContentType: contentType,
		})
		if err != nil {
			return fmt.Errorf("upload %s: %w", object, err)
		}
		u.logger.Info("Artifact uploaded",
			zap.String("object", object),
			zap.Int64("size", info.Size))
	}
	return nil
}
