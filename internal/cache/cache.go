// Package cache stores model responses so repeated runs over the same RFP
// skip identical requests.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"
)

// ErrCacheMiss indicates a cache miss.
var ErrCacheMiss = errors.New("cache miss")

// Client defines the cache interface.
type Client interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
	Close() error
}

// Key joins key components with ':'.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// HashKey builds a key whose last component is the SHA-256 of payload,
// keeping keys short when the payload is a full prompt.
func HashKey(payload string, parts ...string) string {
	sum := sha256.Sum256([]byte(payload))
	return Key(append(parts, hex.EncodeToString(sum[:]))...)
}
