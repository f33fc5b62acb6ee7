package civil

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// ZoneLookup resolves zone names.
type ZoneLookup interface {
	Lookup(name string) (Zone, error)
}

// Resolver turns zone names into zones. It understands "UTC", fixed offsets
// written as "UTC+05:30", zones added with Register, IANA database names and
// POSIX TZ strings, in that order. Resolved zones are cached, so the same
// name always yields the same Zone value.
//
// A Resolver is safe for concurrent use.
type Resolver struct {
	mu     sync.RWMutex
	zones  map[string]Zone
	logger *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger for the resolver
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResolver creates an empty resolver.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		zones:  make(map[string]Zone),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var defaultResolver = NewResolver()

// DefaultResolver returns the process-wide resolver used by LoadZone and
// Time.UnmarshalJSON.
func DefaultResolver() *Resolver { return defaultResolver }

// LoadZone resolves name with the default resolver.
func LoadZone(name string) (Zone, error) {
	return defaultResolver.Lookup(name)
}

// Register makes z available under name, replacing any earlier entry.
func (r *Resolver) Register(name string, z Zone) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.zones[name] = z
	r.logger.Debug("zone registered", "name", name, "zone", z.Name())
}

// Lookup returns the zone called name.
func (r *Resolver) Lookup(name string) (Zone, error) {
	if name == "" {
		return nil, fmt.Errorf("empty zone name: %w", ErrUnknownZone)
	}

	r.mu.RLock()
	z, ok := r.zones[name]
	r.mu.RUnlock()
	if ok {
		return z, nil
	}

	z, err := r.resolve(name)
	if err != nil {
		r.logger.Warn("zone lookup failed", "name", name, "error", err)
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Another goroutine may have won the race; keep its value so callers
	// share one Zone per name.
	if existing, ok := r.zones[name]; ok {
		return existing, nil
	}
	r.zones[name] = z
	return z, nil
}

func (r *Resolver) resolve(name string) (Zone, error) {
	if z, ok := parseFixedName(name); ok {
		return z, nil
	}
	// "Local" depends on the host, which would make results unportable.
	if !strings.EqualFold(name, "Local") {
		if loc, err := time.LoadLocation(name); err == nil {
			r.logger.Debug("zone loaded from database", "name", name)
			return Database(loc), nil
		}
	}
	if z, err := ParsePOSIX(name); err == nil {
		r.logger.Debug("zone parsed as POSIX TZ", "name", name)
		return z, nil
	}
	return nil, fmt.Errorf("zone %q: %w", name, ErrUnknownZone)
}
