package persist

import (
	"context"
	"errors"
)

// Chain reads from the first store that has the key and writes through
// to every store, keeping the fallbacks warm. A read error from one
// store falls through to the next; only when every store misses does
// Get return ErrNotFound.
type Chain []KV

func (c Chain) Get(ctx context.Context, key string) (string, error) {
	var lastErr error = ErrNotFound
	for _, kv := range c {
		v, err := kv.Get(ctx, key)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, ErrNotFound) {
			lastErr = err
		}
	}
	return "", lastErr
}

func (c Chain) Set(ctx context.Context, key, value string) error {
	var errs []error
	for _, kv := range c {
		if err := kv.Set(ctx, key, value); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c Chain) Delete(ctx context.Context, key string) error {
	var errs []error
	for _, kv := range c {
		if err := kv.Delete(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
