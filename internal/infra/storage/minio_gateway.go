package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"

	"vibecheck/internal/config"
	"vibecheck/internal/domain"
	"vibecheck/internal/domain/ports/adapter"
)

var (
	_ adapter.StorageGateway  = (*MinioGateway)(nil)
	_ adapter.UploadURLSigner = (*MinioGateway)(nil)
)

// MinioGateway talks to any S3-compatible object store (MinIO, AWS S3).
// All transport failures are tagged transient: object storage hiccups
// are expected to self-resolve on queue retry.
type MinioGateway struct {
	cli    *minio.Client
	bucket string
	log    *zerolog.Logger
}

func NewMinioGateway(cfg *config.StorageConfig, log *zerolog.Logger) (*MinioGateway, error) {
	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}
	return &MinioGateway{cli: cli, bucket: cfg.Bucket, log: log}, nil
}

// Fetch downloads the object behind key to dest.
func (g *MinioGateway) Fetch(ctx context.Context, key, dest string) error {
	g.log.Debug().Str("key", key).Str("dest", dest).Msg("downloading audio object")
	if err := g.cli.FGetObject(ctx, g.bucket, key, dest, minio.GetObjectOptions{}); err != nil {
		if isNoSuchKey(err) {
			return fmt.Errorf("audio object %s: %w", key, domain.ErrNotFound)
		}
		return domain.Transient(fmt.Errorf("fetch %s: %w", key, err))
	}
	return nil
}

func (g *MinioGateway) Exists(ctx context.Context, key string) (bool, error) {
	_, err := g.cli.StatObject(ctx, g.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return false, nil
		}
		return false, domain.Transient(err)
	}
	return true, nil
}

// PresignUpload issues a presigned PUT URL so clients upload directly to
// object storage.
func (g *MinioGateway) PresignUpload(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := g.cli.PresignedPutObject(ctx, g.bucket, key, ttl)
	if err != nil {
		return "", domain.Transient(fmt.Errorf("presign %s: %w", key, err))
	}
	return u.String(), nil
}

func isNoSuchKey(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket"
}
