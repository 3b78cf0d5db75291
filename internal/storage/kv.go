//go:generate mockgen -source ./kv.go -destination=./mocks/kv.go -package=mock_storage
package storage

import "context"

// KV is the key-value backend holding the document and the session marker.
// A missing key is reported as repository.ErrObjectNotFound.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}
