// Package metadata is the client's key/value side table: the session token
// and persisted month snapshots live here.
package metadata

import "context"

type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// Well-known keys.
const (
	KeyAccessToken = "access_token"
	KeyUsername    = "username"
	snapshotPrefix = "snapshot:"
)
