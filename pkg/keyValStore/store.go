// Package keyValStore holds the TTL key-value store the padding descriptors
// live in, and its embedded badger implementation.
package keyValStore

import (
	"context"
	"errors"
	"fmt"
)

// DefaultTTLSeconds is used when a caller asks for a ttl of zero or less and
// the store has no default of its own.
const DefaultTTLSeconds = 5 * 60

var (
	// ErrNotFound covers both missing and expired keys.
	ErrNotFound        = errors.New("keyValStore: key not found or expired")
	ErrInvalidArgument = errors.New("keyValStore: invalid argument")
)

// Store is the narrow contract the service needs from a backend.
type Store interface {
	// StoreWithExpiration writes value under key and returns the ttl that was
	// applied.
	StoreWithExpiration(ctx context.Context, key, value string, ttlSeconds int) (int, error)
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
	Close() error
}

// CheckArgs rejects the empty key and the empty value.
func CheckArgs(key, value string) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidArgument)
	}
	if value == "" {
		return fmt.Errorf("%w: empty value", ErrInvalidArgument)
	}
	return nil
}

// EffectiveTTL returns ttl, or def when ttl is not positive. A non-positive
// def falls back to DefaultTTLSeconds.
func EffectiveTTL(ttl, def int) int {
	if ttl > 0 {
		return ttl
	}
	if def > 0 {
		return def
	}
	return DefaultTTLSeconds
}
