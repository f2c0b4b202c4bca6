// Package credentials persists the client's session state as a small
// key/value table in the local SQLite database.
package credentials

import "context"

// Repository is durable key/value access for credential fields. A missing
// key reads as a nil value, not an error.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
