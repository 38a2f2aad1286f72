package catalog_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/mcp-pilot/pilot/internal/domain/catalog"
	"github.com/mcp-pilot/pilot/internal/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGateway is an in-memory catalog.Gateway.
type fakeGateway struct {
	mu          sync.Mutex
	servers     []string
	enabled     []string
	inspect     map[string]string // name -> raw inspect output
	inspectErrs map[string]error
	toolCounts  map[string]int
	listErr     error
	enabledErr  error
	listCalls   int
}

func (f *fakeGateway) ListServers(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.servers, nil
}

func (f *fakeGateway) ListEnabled(context.Context) ([]string, error) {
	if f.enabledErr != nil {
		return nil, f.enabledErr
	}
	return f.enabled, nil
}

func (f *fakeGateway) InspectServer(_ context.Context, name string) (gateway.Payload, error) {
	if err, ok := f.inspectErrs[name]; ok {
		return gateway.Payload{}, err
	}
	return gateway.Decode(f.inspect[name]), nil
}

func (f *fakeGateway) CountTools(_ context.Context, name string) (int, error) {
	return f.toolCounts[name], nil
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		servers: []string{"redis", "context7", "unknown-x"},
		enabled: []string{"redis"},
		inspect: map[string]string{
			"redis":    `{"description": "Redis key-value store", "auth": {"type": "api_key"}}`,
			"context7": `{"description": "Library documentation lookup"}`,
		},
		inspectErrs: map[string]error{"unknown-x": errors.New("inspect blew up")},
		toolCounts:  map[string]int{"redis": 6, "context7": 2},
	}
}

func TestDiscoverer_FailureIsolation(t *testing.T) {
	gw := newFakeGateway()
	d := catalog.NewDiscoverer(gw, catalog.DiscovererOptions{})

	records, err := d.DiscoverAll(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 3)

	redis := records["redis"]
	assert.Equal(t, catalog.StatusEnabled, redis.Status)
	assert.Equal(t, catalog.CategoryDatabase, redis.Category)
	assert.Equal(t, 6, redis.ToolCount)
	assert.True(t, redis.RequiresAuth)
	assert.Equal(t, "api_key", redis.AuthType)

	c7 := records["context7"]
	assert.Equal(t, catalog.StatusDisabled, c7.Status)
	assert.Equal(t, catalog.CategoryDocumentation, c7.Category)
	assert.False(t, c7.RequiresAuth)

	failed := records["unknown-x"]
	assert.Equal(t, catalog.StatusUnknown, failed.Status)
	assert.Equal(t, catalog.CategoryOther, failed.Category)
	assert.Zero(t, failed.ToolCount)
	assert.False(t, failed.LastDiscovered.IsZero())
}

func TestDiscoverer_UnstructuredInspectDegrades(t *testing.T) {
	gw := newFakeGateway()
	long := strings.Repeat("x", 300)
	gw.inspect["context7"] = "Some plain text header\n" + long

	d := catalog.NewDiscoverer(gw, catalog.DiscovererOptions{})
	records, err := d.DiscoverAll(context.Background())
	require.NoError(t, err)

	c7 := records["context7"]
	assert.NotEmpty(t, c7.Description)
	assert.LessOrEqual(t, len(c7.Description), 200)
	assert.False(t, c7.RequiresAuth)
}

func TestDiscoverer_UnstructuredAuthDefaultsToOAuth(t *testing.T) {
	gw := newFakeGateway()
	gw.inspect["redis"] = `{"description": "Redis", "authentication": "required"}`

	d := catalog.NewDiscoverer(gw, catalog.DiscovererOptions{})
	records, err := d.DiscoverAll(context.Background())
	require.NoError(t, err)

	assert.True(t, records["redis"].RequiresAuth)
	assert.Equal(t, "oauth", records["redis"].AuthType)
}

func TestDiscoverer_EnabledListingFailureDegradesStatus(t *testing.T) {
	gw := newFakeGateway()
	gw.enabledErr = errors.New("gateway down")

	d := catalog.NewDiscoverer(gw, catalog.DiscovererOptions{})
	records, err := d.DiscoverAll(context.Background())
	require.NoError(t, err)

	for name, record := range records {
		assert.Equal(t, catalog.StatusUnknown, record.Status, "server %s", name)
	}
}

func TestDiscoverer_ListFailureIsFatal(t *testing.T) {
	gw := newFakeGateway()
	gw.listErr = errors.New("no gateway")

	d := catalog.NewDiscoverer(gw, catalog.DiscovererOptions{})
	_, err := d.DiscoverAll(context.Background())
	assert.Error(t, err)
}
