// Package settings is the private key/value store of the client. It keeps
// credentials, the pending OAuth state and sync bookkeeping apart from the
// titles data.
package settings

import (
	"context"
)

type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
	List(ctx context.Context) (map[string][]byte, error)
}
