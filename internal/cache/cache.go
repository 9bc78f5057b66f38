package cache

import (
	"context"
	"strings"
	"time"
)

// DefaultTTL is used when Set is called with a non-positive ttl.
const DefaultTTL = 300 * time.Second

// Cache is the process-wide key/value store shared by retrievers.
// Expired entries are reported absent.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Close() error
}

// Key joins provider and query parts into a cache key, e.g. "geocode:openmeteo:경복궁".
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}
