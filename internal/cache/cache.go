package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Cache is an explicit, injected cache object. There are no package-level
// singletons; each engine instance owns its caches and their eviction.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key builds a tenant-scoped cache key from the given parts.
func Key(tenantID, kind string, parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return "kbgraph:v1:" + tenantID + ":" + kind + ":" + hex.EncodeToString(hash[:])
}
