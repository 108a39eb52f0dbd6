// Package persist is the client's identity persistence: a small
// key-value surface readable across two backing stores. The Redis
// store is preferred; the session file is the fallback for machines
// without a local Redis.
package persist

import (
	"context"
	"errors"
)

// Keys the session store persists between runs.
const (
	KeyUsername = "username"
	KeyUserID   = "userID"
	KeyToken    = "token"
	KeyUserInfo = "user_info"
)

// ErrNotFound reports a key with no persisted value.
var ErrNotFound = errors.New("persist: key not found")

// KV is a string key-value store. Get returns ErrNotFound for absent
// keys; Set overwrites; Delete is a no-op for absent keys.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
