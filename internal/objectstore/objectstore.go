// Package objectstore is the contract for putting archives into object
// storage and generating time-limited download URLs.
package objectstore

import (
	"context"
	"time"
)

// ObjectStore puts local files into a bucket and mints pre-signed GET URLs.
type ObjectStore interface {
	// PutFile uploads the local file at localPath to bucket/key, replacing
	// any existing object at that key (idempotent).
	PutFile(ctx context.Context, bucket, key, localPath string) error

	// GeneratePresignedURL returns a GET URL for bucket/key that expires at
	// the given absolute instant.
	GeneratePresignedURL(ctx context.Context, bucket, key string, expiration time.Time) (string, error)
}
