package adapter

import (
	"context"
	"time"
)

// StorageGateway fetches raw audio objects. Errors surface as
// transient-infra failures (tagged with domain.Transient).
type StorageGateway interface {
	// Fetch downloads the object behind key to the local path dest.
	Fetch(ctx context.Context, key, dest string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// UploadURLSigner issues presigned PUT URLs so clients upload audio
// directly to object storage without touching the API process, and
// checks that an upload actually landed before a job is confirmed.
type UploadURLSigner interface {
	PresignUpload(ctx context.Context, key string, ttl time.Duration) (string, error)
	Exists(ctx context.Context, key string) (bool, error)
}
