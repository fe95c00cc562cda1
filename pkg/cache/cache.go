// Package cache provides caching for split runs and their manifests.
//
// The [Cache] interface abstracts the storage backend; [Keyer] abstracts key
// generation so deployments can namespace entries. Backends:
//
//   - [FileCache]: per-user on-disk cache for CLI usage
//   - [MemoryCache]: bounded in-process LRU for the API server
//   - [RedisCache]: shared cache for multi-instance deployments
//   - [NullCache]: disables caching
package cache

import (
	"context"
	"time"
)

// Default TTLs per entry class. Manifests are pure functions of their input
// graph and options, so they could live forever; the TTL bounds disk usage.
const (
	TTLManifest = 7 * 24 * time.Hour
	TTLGraph    = 24 * time.Hour
)

// Cache is the storage interface for cached entries.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key was
	// present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A non-positive ttl means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// ManifestKeyOpts are the inputs besides the graph itself that change a
// run's output, and therefore its cache key.
type ManifestKeyOpts struct {
	EntryPattern  string
	SplitPattern  string
	CommonPattern string
	SourceMap     string
}

// Keyer generates cache keys for the cacheable artifacts.
type Keyer interface {
	// GraphKey identifies a stored input graph by its content hash.
	GraphKey(graphHash string) string

	// ManifestKey identifies the manifest produced from a graph under the
	// given options.
	ManifestKey(graphHash string, opts ManifestKeyOpts) string
}

// DefaultKeyer hashes all key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// GraphKey generates a key for input graph storage.
func (k *DefaultKeyer) GraphKey(graphHash string) string {
	return hashKey("graph", graphHash)
}

// ManifestKey generates a key for manifest caching.
func (k *DefaultKeyer) ManifestKey(graphHash string, opts ManifestKeyOpts) string {
	return hashKey("manifest", graphHash, opts)
}
