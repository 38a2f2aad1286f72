package orchestrator_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mcp-pilot/pilot/internal/domain/catalog"
	"github.com/mcp-pilot/pilot/internal/domain/profile"
	"github.com/mcp-pilot/pilot/internal/domain/usage"
	"github.com/mcp-pilot/pilot/internal/orchestrator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource serves a fixed discovery result.
type fakeSource struct {
	mu      sync.Mutex
	records map[string]catalog.ServerMetadata
	err     error
}

func (f *fakeSource) DiscoverAll(context.Context) (map[string]catalog.ServerMetadata, error) {
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

// fakeActivator records SetEnabled calls and fails on request.
type fakeActivator struct {
	mu    sync.Mutex
	calls []string // "name=true" / "name=false"
	fail  map[string]error
}

func (f *fakeActivator) SetEnabled(_ context.Context, name string, enabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if enabled {
		f.calls = append(f.calls, name+"=true")
	} else {
		f.calls = append(f.calls, name+"=false")
	}
	return f.fail[name]
}

func sourceRecords() map[string]catalog.ServerMetadata {
	return map[string]catalog.ServerMetadata{
		"redis":    {Name: "redis", Category: catalog.CategoryDatabase, Status: catalog.StatusDisabled},
		"github":   {Name: "github", Category: catalog.CategoryDevelopment, Status: catalog.StatusEnabled},
		"context7": {Name: "context7", Category: catalog.CategoryDocumentation, Status: catalog.StatusDisabled},
	}
}

func newOrchestrator(t *testing.T, src *fakeSource, gw *fakeActivator, opts orchestrator.Options) *orchestrator.Orchestrator {
	t.Helper()
	opts.Registry = catalog.NewRegistry(src, catalog.RegistryOptions{Interval: time.Hour})
	opts.Gateway = gw
	return orchestrator.New(opts)
}

func TestHandleTask_ResolvesAndActivates(t *testing.T) {
	gw := &fakeActivator{}
	o := newOrchestrator(t, &fakeSource{records: sourceRecords()}, gw, orchestrator.Options{})

	result, err := o.HandleTask(context.Background(), "set up a redis cache and open a github issue", false)
	require.NoError(t, err)

	assert.Equal(t, []string{"redis", "github"}, result.Analysis.RequiredServers)
	assert.Equal(t, []string{"context7", "redis", "github"}, result.Analysis.ActivationOrder)

	// github was already enabled; the other two were flipped on, in
	// dependency-first order.
	assert.Equal(t, []string{"context7", "redis"}, result.Activation.Done)
	assert.Equal(t, []string{"github"}, result.Activation.Skipped)
	assert.Empty(t, result.Activation.Failed)
	assert.Equal(t, []string{"context7=true", "redis=true"}, gw.calls)
}

func TestHandleTask_PartialFailure(t *testing.T) {
	gw := &fakeActivator{fail: map[string]error{"redis": errors.New("gateway refused")}}
	o := newOrchestrator(t, &fakeSource{records: sourceRecords()}, gw, orchestrator.Options{})

	result, err := o.HandleTask(context.Background(), "wipe the redis cache", false)
	require.NoError(t, err)

	// One failure does not abort the batch.
	assert.Equal(t, []string{"context7"}, result.Activation.Done)
	assert.Equal(t, map[string]string{"redis": "gateway refused"}, result.Activation.Failed)
}

func TestHandleTask_ProfileShortCircuit(t *testing.T) {
	gw := &fakeActivator{}
	o := newOrchestrator(t, &fakeSource{records: sourceRecords()}, gw, orchestrator.Options{
		Profiles: []profile.Profile{
			{ID: "data", Servers: []string{"redis", "context7"}, Keywords: []string{"etl"}, AutoActivate: true},
		},
	})

	result, err := o.HandleTask(context.Background(), "run the nightly ETL job", false)
	require.NoError(t, err)

	assert.Equal(t, "data", result.ProfileID)
	assert.Empty(t, result.Analysis.RequiredServers)
	assert.Equal(t, []string{"redis", "context7"}, result.Activation.Done)
}

func TestHandleTask_NoKeywordHits(t *testing.T) {
	gw := &fakeActivator{}
	o := newOrchestrator(t, &fakeSource{records: sourceRecords()}, gw, orchestrator.Options{})

	result, err := o.HandleTask(context.Background(), "water the office plants", false)
	require.NoError(t, err)

	assert.Empty(t, result.Analysis.RequiredServers)
	assert.Zero(t, result.Analysis.Confidence)
	assert.Empty(t, result.Activation.Done)
	assert.Empty(t, gw.calls)
}

func TestDeactivate_SkipsAlreadyDisabled(t *testing.T) {
	gw := &fakeActivator{}
	o := newOrchestrator(t, &fakeSource{records: sourceRecords()}, gw, orchestrator.Options{})

	result, err := o.Deactivate(context.Background(), []string{"github", "redis"})
	require.NoError(t, err)

	assert.Equal(t, []string{"github"}, result.Done)
	assert.Equal(t, []string{"redis"}, result.Skipped)
	assert.Equal(t, []string{"github=false"}, gw.calls)
}

func TestServerDetail_NotFoundListsAvailable(t *testing.T) {
	o := newOrchestrator(t, &fakeSource{records: sourceRecords()}, &fakeActivator{}, orchestrator.Options{})

	_, err := o.ServerDetail(context.Background(), "nope", false)
	var notFound *orchestrator.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "nope", notFound.Name)
	assert.Equal(t, []string{"context7", "github", "redis"}, notFound.Available)
	assert.Contains(t, notFound.Error(), "redis")
}

func TestServerDetail_Found(t *testing.T) {
	o := newOrchestrator(t, &fakeSource{records: sourceRecords()}, &fakeActivator{}, orchestrator.Options{})

	record, err := o.ServerDetail(context.Background(), "redis", false)
	require.NoError(t, err)
	assert.Equal(t, catalog.CategoryDatabase, record.Category)
}

func TestRefreshFailure_StaleServedAfterFirstSnapshot(t *testing.T) {
	src := &fakeSource{records: sourceRecords()}
	o := newOrchestrator(t, src, &fakeActivator{}, orchestrator.Options{})

	_, err := o.CatalogSummary(context.Background(), catalog.CatalogFilter{IncludeInactive: true}, false)
	require.NoError(t, err)

	src.mu.Lock()
	src.err = errors.New("gateway offline")
	src.mu.Unlock()

	// Forced refresh fails but the old snapshot still answers.
	records, err := o.CatalogSummary(context.Background(), catalog.CatalogFilter{IncludeInactive: true}, true)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestRefreshFailure_NoSnapshotIsFatal(t *testing.T) {
	o := newOrchestrator(t, &fakeSource{err: errors.New("gateway offline")}, &fakeActivator{}, orchestrator.Options{})

	_, err := o.CatalogSummary(context.Background(), catalog.CatalogFilter{}, false)
	assert.Error(t, err)
}

func TestIdleReport(t *testing.T) {
	clock := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	monitor := usage.NewMonitor(usage.MonitorOptions{Now: func() time.Time { return clock }})

	gw := &fakeActivator{}
	o := newOrchestrator(t, &fakeSource{records: sourceRecords()}, gw, orchestrator.Options{Monitor: monitor})

	_, err := o.Activate(context.Background(), []string{"redis"})
	require.NoError(t, err)

	// redis was just activated; github is enabled but never tracked, so
	// it shows up immediately.
	idle := o.IdleReport()
	assert.Contains(t, idle, "github")
	assert.NotContains(t, idle, "redis")

	clock = clock.Add(11 * time.Minute)
	assert.Contains(t, o.IdleReport(), "redis")
}

func TestStatus(t *testing.T) {
	o := newOrchestrator(t, &fakeSource{records: sourceRecords()}, &fakeActivator{}, orchestrator.Options{})
	_, err := o.CatalogSummary(context.Background(), catalog.CatalogFilter{}, false)
	require.NoError(t, err)

	info := o.Status()
	assert.Equal(t, 3, info.ServerCount)
	assert.Equal(t, 1, info.EnabledCount)
	assert.Equal(t, 3, info.Categories)
	assert.False(t, info.LastDiscovery.IsZero())
}
