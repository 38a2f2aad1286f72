package catalog

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mcp-pilot/pilot/internal/gateway"
)

// Gateway is the slice of the gateway client discovery consumes.
type Gateway interface {
	ListServers(ctx context.Context) ([]string, error)
	ListEnabled(ctx context.Context) ([]string, error)
	InspectServer(ctx context.Context, name string) (gateway.Payload, error)
	CountTools(ctx context.Context, name string) (int, error)
}

const (
	defaultWorkers    = 4
	defaultCallBudget = 10 * time.Second
	maxRawDescription = 200
)

// Discoverer assembles metadata records by querying the gateway once per
// server. Failures are isolated per server: a failing name yields a
// minimal record with StatusUnknown and never aborts the pass.
type Discoverer struct {
	gw         Gateway
	classifier *Classifier
	workers    int
	callBudget time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// DiscovererOptions configures a Discoverer. Zero values pick defaults.
type DiscovererOptions struct {
	Classifier *Classifier
	Workers    int
	CallBudget time.Duration
	Logger     *zap.Logger
}

// NewDiscoverer wires a discoverer to a gateway.
func NewDiscoverer(gw Gateway, opts DiscovererOptions) *Discoverer {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	classifier := opts.Classifier
	if classifier == nil {
		classifier = NewClassifier(nil)
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	budget := opts.CallBudget
	if budget <= 0 {
		budget = defaultCallBudget
	}
	return &Discoverer{
		gw:         gw,
		classifier: classifier,
		workers:    workers,
		callBudget: budget,
		logger:     logger.Named("discovery"),
		now:        time.Now,
	}
}

// DiscoverAll queries the gateway for every known server name and returns
// one record per name. Per-server calls run concurrently, bounded by the
// worker limit; each result is committed independently.
func (d *Discoverer) DiscoverAll(ctx context.Context) (map[string]ServerMetadata, error) {
	names, err := d.gw.ListServers(ctx)
	if err != nil {
		return nil, err
	}

	enabled := make(map[string]bool)
	statusKnown := true
	if enabledNames, err := d.gw.ListEnabled(ctx); err != nil {
		d.logger.Warn("enabled listing failed, statuses degrade to unknown", zap.Error(err))
		statusKnown = false
	} else {
		for _, n := range enabledNames {
			enabled[n] = true
		}
	}

	start := d.now()
	results := make(map[string]ServerMetadata, len(names))
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, d.workers)

	for _, name := range names {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				mu.Lock()
				results[name] = d.fallbackRecord(name)
				mu.Unlock()
				return
			}
			defer func() { <-sem }()

			record := d.discoverOne(ctx, name, enabled, statusKnown)
			mu.Lock()
			results[name] = record
			mu.Unlock()
		}(name)
	}
	wg.Wait()

	d.logger.Info("discovery pass completed",
		zap.Int("servers", len(results)),
		zap.Duration("elapsed", d.now().Sub(start)),
	)
	return results, nil
}

func (d *Discoverer) discoverOne(ctx context.Context, name string, enabled map[string]bool, statusKnown bool) ServerMetadata {
	callCtx, cancel := context.WithTimeout(ctx, d.callBudget)
	defer cancel()

	record := ServerMetadata{
		Name:           name,
		Status:         StatusDisabled,
		LastDiscovered: d.now(),
	}
	if !statusKnown {
		record.Status = StatusUnknown
	} else if enabled[name] {
		record.Status = StatusEnabled
	}

	payload, err := d.gw.InspectServer(callCtx, name)
	if err != nil {
		d.logger.Warn("inspect failed", zap.String("server", name), zap.Error(err))
		return d.fallbackRecord(name)
	}

	if payload.Structured() && payload.Object != nil {
		if desc, ok := payload.FirstString("description"); ok {
			record.Description = desc
		}
		if prompt, ok := payload.FirstString("prompt"); ok {
			record.Prompt = prompt
		}
		record.RequiresAuth, record.AuthType = authFields(payload.Object)
	} else {
		// Unstructured inspect output degrades to a description-only
		// record built from the head of the raw text.
		record.Description = truncate(strings.TrimSpace(payload.Raw), maxRawDescription)
	}

	record.Category = d.classifier.Classify(name, record.Description)

	if count, err := d.gw.CountTools(callCtx, name); err != nil {
		d.logger.Warn("tool count failed", zap.String("server", name), zap.Error(err))
	} else {
		record.ToolCount = count
	}

	return record
}

// fallbackRecord is the minimal record committed for a server whose
// processing failed.
func (d *Discoverer) fallbackRecord(name string) ServerMetadata {
	return ServerMetadata{
		Name:           name,
		Category:       CategoryOther,
		Status:         StatusUnknown,
		LastDiscovered: d.now(),
	}
}

// authFields detects an auth requirement in the inspect blob. A structured
// auth object yields its type/method sub-field; any other non-empty value
// defaults to oauth.
func authFields(obj map[string]interface{}) (bool, string) {
	for _, key := range []string{"auth", "authentication"} {
		value, ok := obj[key]
		if !ok || value == nil {
			continue
		}
		if sub, ok := value.(map[string]interface{}); ok {
			for _, field := range []string{"type", "method"} {
				if s, ok := sub[field].(string); ok && s != "" {
					return true, s
				}
			}
			return true, "oauth"
		}
		return true, "oauth"
	}
	return false, ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
