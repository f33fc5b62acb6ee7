package recurrence

import (
	"time"
)

// Config holds configuration options for a Set
type Config struct {
	// Memoize Between results until the set changes.
	CacheEnabled bool
	CacheConfig  CacheConfig
}

// DefaultConfig memoizes with DefaultCacheConfig.
var DefaultConfig = Config{
	CacheEnabled: true,
	CacheConfig:  DefaultCacheConfig,
}

// HighPerformanceConfig keeps more results for longer and sweeps them in the
// background; sets using it must be closed.
var HighPerformanceConfig = Config{
	CacheEnabled: true,
	CacheConfig: CacheConfig{
		TTL:             30 * time.Minute,
		MaxEntries:      5000,
		CleanupInterval: 10 * time.Minute,
	},
}

// LowMemoryConfig is optimized for memory-constrained environments
var LowMemoryConfig = Config{
	CacheEnabled: true,
	CacheConfig: CacheConfig{
		TTL:        5 * time.Minute,
		MaxEntries: 100,
	},
}

// NoCacheConfig turns off memoization entirely
var NoCacheConfig = Config{
	CacheEnabled: false,
}

// SetOption configures a Set.
type SetOption func(*Set)

// WithConfig replaces the default configuration.
func WithConfig(config Config) SetOption {
	return func(s *Set) {
		s.config = config
	}
}
