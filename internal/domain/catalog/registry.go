package catalog

import (
	"context"
	"sort"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultDiscoveryInterval is the minimum spacing between non-forced
// discovery passes.
const DefaultDiscoveryInterval = 5 * time.Minute

// Source produces a full metadata map. Discoverer is the production
// implementation.
type Source interface {
	DiscoverAll(ctx context.Context) (map[string]ServerMetadata, error)
}

// snapshot is one immutable published state. Refresh builds a complete
// replacement and swaps the pointer, so readers see either the old or the
// new state, never a mix.
type snapshot struct {
	servers       map[string]ServerMetadata
	lastDiscovery time.Time
}

// Registry caches server metadata with a TTL throttle. Reads never touch
// the gateway; only Refresh does, and only when the cache is stale or the
// caller forces it.
type Registry struct {
	source    Source
	interval  time.Duration
	overrides map[string]Override
	logger    *zap.Logger
	now       func() time.Time

	snap  atomic.Pointer[snapshot]
	group singleflight.Group
}

// RegistryOptions configures a Registry. Zero values pick defaults.
type RegistryOptions struct {
	Interval  time.Duration
	Overrides map[string]Override
	Logger    *zap.Logger
}

// NewRegistry builds a registry over a discovery source. Overrides are
// loaded once and re-applied on every refresh.
func NewRegistry(source Source, opts RegistryOptions) *Registry {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultDiscoveryInterval
	}
	return &Registry{
		source:    source,
		interval:  interval,
		overrides: opts.Overrides,
		logger:    logger.Named("registry"),
		now:       time.Now,
	}
}

// Refresh returns the current metadata map, running a discovery pass first
// unless a prior pass completed within the discovery interval and force is
// false. Concurrent refreshes collapse into a single discovery pass.
func (r *Registry) Refresh(ctx context.Context, force bool) (map[string]ServerMetadata, error) {
	if !force {
		if snap := r.snap.Load(); snap != nil && r.now().Sub(snap.lastDiscovery) < r.interval {
			return snap.servers, nil
		}
	}

	v, err, _ := r.group.Do("refresh", func() (interface{}, error) {
		// A waiter that queued behind a completed pass takes the fresh
		// snapshot instead of running another one.
		if !force {
			if snap := r.snap.Load(); snap != nil && r.now().Sub(snap.lastDiscovery) < r.interval {
				return snap.servers, nil
			}
		}

		discovered, err := r.source.DiscoverAll(ctx)
		if err != nil {
			return nil, err
		}

		for name, override := range r.overrides {
			record, ok := discovered[name]
			if !ok {
				continue
			}
			if override.Category != "" {
				record.Category = override.Category
			}
			if override.Description != "" {
				record.Description = override.Description
			}
			record.ConfigOverride = override.Raw
			discovered[name] = record
		}

		next := &snapshot{servers: discovered, lastDiscovery: r.now()}
		r.snap.Store(next)
		r.logger.Info("registry refreshed", zap.Int("servers", len(discovered)))
		return discovered, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]ServerMetadata), nil
}

// CatalogFilter narrows a catalog listing.
type CatalogFilter struct {
	Category        Category
	IncludeInactive bool
}

// Catalog returns cached entries, optionally filtered, sorted by category
// then name. It performs no gateway I/O.
func (r *Registry) Catalog(filter CatalogFilter) []ServerMetadata {
	snap := r.snap.Load()
	if snap == nil {
		return nil
	}

	entries := make([]ServerMetadata, 0, len(snap.servers))
	for _, record := range snap.servers {
		if filter.Category != "" && record.Category != filter.Category {
			continue
		}
		if !filter.IncludeInactive && record.Status != StatusEnabled {
			continue
		}
		entries = append(entries, record)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Category != entries[j].Category {
			return entries[i].Category < entries[j].Category
		}
		return entries[i].Name < entries[j].Name
	})
	return entries
}

// Server returns one cached record by name.
func (r *Registry) Server(name string) (ServerMetadata, bool) {
	snap := r.snap.Load()
	if snap == nil {
		return ServerMetadata{}, false
	}
	record, ok := snap.servers[name]
	return record, ok
}

// ByCategory returns cached records in one category, sorted by name.
func (r *Registry) ByCategory(category Category) []ServerMetadata {
	return r.Catalog(CatalogFilter{Category: category, IncludeInactive: true})
}

// Categories returns the distinct categories currently present, sorted.
func (r *Registry) Categories() []Category {
	snap := r.snap.Load()
	if snap == nil {
		return nil
	}

	seen := make(map[Category]bool)
	for _, record := range snap.servers {
		seen[record.Category] = true
	}
	categories := make([]Category, 0, len(seen))
	for c := range seen {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })
	return categories
}

// Names returns all cached server names, sorted. Used for not-found
// reporting.
func (r *Registry) Names() []string {
	snap := r.snap.Load()
	if snap == nil {
		return nil
	}
	names := make([]string, 0, len(snap.servers))
	for name := range snap.servers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LastDiscovery reports when the last completed pass finished.
func (r *Registry) LastDiscovery() (time.Time, bool) {
	snap := r.snap.Load()
	if snap == nil {
		return time.Time{}, false
	}
	return snap.lastDiscovery, true
}
