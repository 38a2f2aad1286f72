package catalog_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mcp-pilot/pilot/internal/domain/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource counts discovery passes and serves a fixed result.
type fakeSource struct {
	mu      sync.Mutex
	records map[string]catalog.ServerMetadata
	err     error
	calls   int32
	block   chan struct{} // when set, DiscoverAll waits on it
}

func (f *fakeSource) DiscoverAll(context.Context) (map[string]catalog.ServerMetadata, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]catalog.ServerMetadata, len(f.records))
	for k, v := range f.records {
		out[k] = v
	}
	return out, nil
}

func (f *fakeSource) Calls() int32 { return atomic.LoadInt32(&f.calls) }

func testRecords() map[string]catalog.ServerMetadata {
	return map[string]catalog.ServerMetadata{
		"redis":    {Name: "redis", Category: catalog.CategoryDatabase, Status: catalog.StatusEnabled, ToolCount: 6},
		"github":   {Name: "github", Category: catalog.CategoryDevelopment, Status: catalog.StatusDisabled, ToolCount: 12},
		"context7": {Name: "context7", Category: catalog.CategoryDocumentation, Status: catalog.StatusEnabled, ToolCount: 2},
	}
}

func TestRegistry_RefreshThrottle(t *testing.T) {
	src := &fakeSource{records: testRecords()}
	r := catalog.NewRegistry(src, catalog.RegistryOptions{Interval: time.Hour})

	first, err := r.Refresh(context.Background(), false)
	require.NoError(t, err)
	assert.EqualValues(t, 1, src.Calls())

	// Second non-forced refresh inside the TTL issues no discovery pass
	// and returns the identical map.
	second, err := r.Refresh(context.Background(), false)
	require.NoError(t, err)
	assert.EqualValues(t, 1, src.Calls())
	assert.Equal(t, first, second)

	// Forced refresh bypasses the throttle.
	_, err = r.Refresh(context.Background(), true)
	require.NoError(t, err)
	assert.EqualValues(t, 2, src.Calls())
}

func TestRegistry_TTLExpiry(t *testing.T) {
	src := &fakeSource{records: testRecords()}
	r := catalog.NewRegistry(src, catalog.RegistryOptions{Interval: 10 * time.Millisecond})

	_, err := r.Refresh(context.Background(), false)
	require.NoError(t, err)
	time.Sleep(25 * time.Millisecond)

	_, err = r.Refresh(context.Background(), false)
	require.NoError(t, err)
	assert.EqualValues(t, 2, src.Calls())
}

func TestRegistry_ConcurrentRefreshesCollapse(t *testing.T) {
	src := &fakeSource{records: testRecords(), block: make(chan struct{})}
	r := catalog.NewRegistry(src, catalog.RegistryOptions{Interval: time.Hour})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Refresh(context.Background(), false)
			assert.NoError(t, err)
		}()
	}

	// Let the goroutines pile up behind the in-flight pass, then release.
	time.Sleep(10 * time.Millisecond)
	close(src.block)
	wg.Wait()

	assert.EqualValues(t, 1, src.Calls())
}

func TestRegistry_OverridePrecedence(t *testing.T) {
	src := &fakeSource{records: testRecords()}
	raw := map[string]interface{}{"category": "custom", "pinned": true}
	r := catalog.NewRegistry(src, catalog.RegistryOptions{
		Interval: time.Hour,
		Overrides: map[string]catalog.Override{
			"redis": {Category: "custom", Description: "our redis", Raw: raw},
		},
	})

	records, err := r.Refresh(context.Background(), false)
	require.NoError(t, err)

	redis := records["redis"]
	assert.EqualValues(t, "custom", redis.Category)
	assert.Equal(t, "our redis", redis.Description)
	assert.Equal(t, raw, redis.ConfigOverride)

	// Overrides survive a forced re-discovery.
	records, err = r.Refresh(context.Background(), true)
	require.NoError(t, err)
	assert.EqualValues(t, "custom", records["redis"].Category)
}

func TestRegistry_FailedRefreshKeepsOldSnapshot(t *testing.T) {
	src := &fakeSource{records: testRecords()}
	r := catalog.NewRegistry(src, catalog.RegistryOptions{Interval: time.Hour})

	_, err := r.Refresh(context.Background(), false)
	require.NoError(t, err)
	before, ok := r.LastDiscovery()
	require.True(t, ok)

	src.mu.Lock()
	src.err = errors.New("gateway offline")
	src.mu.Unlock()

	_, err = r.Refresh(context.Background(), true)
	assert.Error(t, err)

	// Old snapshot still served, timestamp unchanged.
	assert.Len(t, r.Catalog(catalog.CatalogFilter{IncludeInactive: true}), 3)
	after, _ := r.LastDiscovery()
	assert.Equal(t, before, after)
}

func TestRegistry_CatalogFilterAndOrder(t *testing.T) {
	src := &fakeSource{records: testRecords()}
	r := catalog.NewRegistry(src, catalog.RegistryOptions{Interval: time.Hour})
	_, err := r.Refresh(context.Background(), false)
	require.NoError(t, err)

	all := r.Catalog(catalog.CatalogFilter{IncludeInactive: true})
	require.Len(t, all, 3)
	// Sorted by category label, then name: database, development, documentation.
	assert.Equal(t, "redis", all[0].Name)
	assert.Equal(t, "github", all[1].Name)
	assert.Equal(t, "context7", all[2].Name)

	dbOnly := r.Catalog(catalog.CatalogFilter{Category: catalog.CategoryDatabase, IncludeInactive: true})
	require.Len(t, dbOnly, 1)
	assert.Equal(t, "redis", dbOnly[0].Name)

	activeOnly := r.Catalog(catalog.CatalogFilter{IncludeInactive: false})
	require.Len(t, activeOnly, 2)
	for _, record := range activeOnly {
		assert.Equal(t, catalog.StatusEnabled, record.Status)
	}
}

func TestRegistry_ReadsBeforeFirstRefresh(t *testing.T) {
	r := catalog.NewRegistry(&fakeSource{}, catalog.RegistryOptions{})

	assert.Nil(t, r.Catalog(catalog.CatalogFilter{IncludeInactive: true}))
	_, ok := r.Server("redis")
	assert.False(t, ok)
	assert.Nil(t, r.Categories())
	_, ok = r.LastDiscovery()
	assert.False(t, ok)
}

func TestRegistry_SnapshotIsolationDuringRefresh(t *testing.T) {
	src := &fakeSource{records: testRecords()}
	r := catalog.NewRegistry(src, catalog.RegistryOptions{Interval: time.Hour})
	_, err := r.Refresh(context.Background(), false)
	require.NoError(t, err)

	// Swap the source contents and force refreshes while readers hammer
	// the catalog; every read must see a complete 3- or 4-entry state.
	src.mu.Lock()
	src.records["new-server"] = catalog.ServerMetadata{Name: "new-server", Category: catalog.CategoryOther, Status: catalog.StatusEnabled}
	src.mu.Unlock()

	done := make(chan struct{})
	var bad int32
	var readers sync.WaitGroup
	for i := 0; i < 4; i++ {
		readers.Add(1)
		go func() {
			defer readers.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				n := len(r.Catalog(catalog.CatalogFilter{IncludeInactive: true}))
				if n != 3 && n != 4 {
					atomic.AddInt32(&bad, 1)
				}
			}
		}()
	}

	for i := 0; i < 10; i++ {
		_, err := r.Refresh(context.Background(), true)
		require.NoError(t, err)
	}
	close(done)
	readers.Wait()

	assert.Zero(t, atomic.LoadInt32(&bad), "readers observed a torn snapshot")
}

func TestRegistry_Categories(t *testing.T) {
	src := &fakeSource{records: testRecords()}
	r := catalog.NewRegistry(src, catalog.RegistryOptions{Interval: time.Hour})
	_, err := r.Refresh(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, []catalog.Category{
		catalog.CategoryDatabase,
		catalog.CategoryDevelopment,
		catalog.CategoryDocumentation,
	}, r.Categories())
}
