// Package orchestrator ties the registry, task resolver, usage monitor,
// and gateway together behind the operations the control surface calls.
package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mcp-pilot/pilot/internal/domain/catalog"
	"github.com/mcp-pilot/pilot/internal/domain/profile"
	"github.com/mcp-pilot/pilot/internal/domain/task"
	"github.com/mcp-pilot/pilot/internal/domain/usage"
)

// Activator flips a server on or off at the gateway.
type Activator interface {
	SetEnabled(ctx context.Context, name string, enabled bool) error
}

// NotFoundError reports an unknown server name along with what is
// actually available, so callers can self-correct.
type NotFoundError struct {
	Name      string
	Available []string
}

func (e *NotFoundError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("server %q not found (catalog is empty, try refreshing)", e.Name)
	}
	return fmt.Sprintf("server %q not found; available: %s", e.Name, strings.Join(e.Available, ", "))
}

// BatchResult is the outcome of activating or deactivating a set of
// servers. Partial success is the normal case.
type BatchResult struct {
	Done    []string          `json:"done"`
	Skipped []string          `json:"skipped,omitempty"`
	Failed  map[string]string `json:"failed,omitempty"`
}

// TaskResult is the outcome of one task request.
type TaskResult struct {
	Analysis   task.Analysis `json:"analysis"`
	ProfileID  string        `json:"profile_id,omitempty"`
	Activation BatchResult   `json:"activation"`
}

// StatusInfo is the daemon status summary.
type StatusInfo struct {
	Uptime        time.Duration `json:"uptime"`
	LastDiscovery time.Time     `json:"last_discovery"`
	ServerCount   int           `json:"server_count"`
	EnabledCount  int           `json:"enabled_count"`
	Categories    int           `json:"categories"`
}

// Orchestrator is the facade. One instance owns the registry and usage
// monitor for the process lifetime.
type Orchestrator struct {
	registry *catalog.Registry
	resolver *task.Resolver
	monitor  *usage.Monitor
	gateway  Activator
	profiles []profile.Profile
	logger   *zap.Logger
	started  time.Time
}

// Options wires the orchestrator's collaborators.
type Options struct {
	Registry *catalog.Registry
	Resolver *task.Resolver
	Monitor  *usage.Monitor
	Gateway  Activator
	Profiles []profile.Profile
	Logger   *zap.Logger
}

// New builds an orchestrator.
func New(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	resolver := opts.Resolver
	if resolver == nil {
		resolver = task.NewResolver(task.ResolverOptions{})
	}
	monitor := opts.Monitor
	if monitor == nil {
		monitor = usage.NewMonitor(usage.MonitorOptions{})
	}
	return &Orchestrator{
		registry: opts.Registry,
		resolver: resolver,
		monitor:  monitor,
		gateway:  opts.Gateway,
		profiles: opts.Profiles,
		logger:   logger.Named("orchestrator"),
		started:  time.Now(),
	}
}

// HandleTask resolves a task description and activates the servers it
// needs. A matching auto-activatable profile short-circuits resolution;
// otherwise the keyword resolver decides. Activation failures are
// collected, not fatal.
func (o *Orchestrator) HandleTask(ctx context.Context, text string, force bool) (TaskResult, error) {
	if err := o.refresh(ctx, force); err != nil {
		return TaskResult{}, err
	}

	if p, ok := profile.Match(o.profiles, text); ok {
		o.logger.Info("task matched profile", zap.String("profile", p.ID))
		return TaskResult{
			ProfileID:  p.ID,
			Activation: o.activate(ctx, p.Servers),
		}, nil
	}

	analysis := o.resolver.Analyze(text)
	return TaskResult{
		Analysis:   analysis,
		Activation: o.activate(ctx, analysis.ActivationOrder),
	}, nil
}

// Activate enables the named servers, skipping ones already enabled.
func (o *Orchestrator) Activate(ctx context.Context, names []string) (BatchResult, error) {
	if err := o.refresh(ctx, false); err != nil {
		return BatchResult{}, err
	}
	return o.activate(ctx, names), nil
}

// Deactivate disables the named servers, skipping ones already disabled.
func (o *Orchestrator) Deactivate(ctx context.Context, names []string) (BatchResult, error) {
	if err := o.refresh(ctx, false); err != nil {
		return BatchResult{}, err
	}

	result := BatchResult{Failed: make(map[string]string)}
	for _, name := range names {
		if record, ok := o.registry.Server(name); ok && record.Status == catalog.StatusDisabled {
			result.Skipped = append(result.Skipped, name)
			continue
		}
		if err := o.gateway.SetEnabled(ctx, name, false); err != nil {
			o.logger.Warn("deactivation failed", zap.String("server", name), zap.Error(err))
			result.Failed[name] = err.Error()
			continue
		}
		result.Done = append(result.Done, name)
	}
	if len(result.Failed) == 0 {
		result.Failed = nil
	}
	return result, nil
}

// CatalogSummary returns the filtered, sorted catalog.
func (o *Orchestrator) CatalogSummary(ctx context.Context, filter catalog.CatalogFilter, force bool) ([]catalog.ServerMetadata, error) {
	if err := o.refresh(ctx, force); err != nil {
		return nil, err
	}
	return o.registry.Catalog(filter), nil
}

// ServerDetail returns one server's full record, or a NotFoundError
// listing the known names.
func (o *Orchestrator) ServerDetail(ctx context.Context, name string, force bool) (catalog.ServerMetadata, error) {
	if err := o.refresh(ctx, force); err != nil {
		return catalog.ServerMetadata{}, err
	}
	record, ok := o.registry.Server(name)
	if !ok {
		return catalog.ServerMetadata{}, &NotFoundError{Name: name, Available: o.registry.Names()}
	}
	return record, nil
}

// TrackToolUsage records a tool call so the idle report stays honest.
func (o *Orchestrator) TrackToolUsage(server, tool string) {
	o.monitor.TrackToolUsage(server, tool)
}

// IdleReport lists active servers the usage monitor considers idle.
// Active means enabled in the last snapshot or activated by us since,
// so a fresh activation is visible before the next discovery pass.
func (o *Orchestrator) IdleReport() []string {
	seen := make(map[string]bool)
	var active []string
	for _, record := range o.registry.Catalog(catalog.CatalogFilter{}) {
		seen[record.Name] = true
		active = append(active, record.Name)
	}
	tracked := make([]string, 0)
	for name := range o.monitor.Snapshot() {
		if !seen[name] {
			tracked = append(tracked, name)
		}
	}
	sort.Strings(tracked)
	return o.monitor.RecommendDeactivation(append(active, tracked...))
}

// Usage returns the raw per-server usage records.
func (o *Orchestrator) Usage() map[string]usage.Record {
	return o.monitor.Snapshot()
}

// Profiles lists the loaded profile bundles.
func (o *Orchestrator) Profiles() []profile.Profile {
	return o.profiles
}

// Status summarizes the daemon's current state.
func (o *Orchestrator) Status() StatusInfo {
	info := StatusInfo{Uptime: time.Since(o.started)}
	if last, ok := o.registry.LastDiscovery(); ok {
		info.LastDiscovery = last
	}
	all := o.registry.Catalog(catalog.CatalogFilter{IncludeInactive: true})
	info.ServerCount = len(all)
	for _, record := range all {
		if record.Status == catalog.StatusEnabled {
			info.EnabledCount++
		}
	}
	info.Categories = len(o.registry.Categories())
	return info
}

// refresh keeps the registry warm. A refresh failure with a previous
// snapshot in hand degrades to stale data; with no snapshot at all it
// is surfaced, since there is nothing to serve.
func (o *Orchestrator) refresh(ctx context.Context, force bool) error {
	_, err := o.registry.Refresh(ctx, force)
	if err == nil {
		return nil
	}
	if _, ok := o.registry.LastDiscovery(); ok {
		o.logger.Warn("refresh failed, serving stale catalog", zap.Error(err))
		return nil
	}
	return err
}

func (o *Orchestrator) activate(ctx context.Context, names []string) BatchResult {
	result := BatchResult{Failed: make(map[string]string)}
	for _, name := range names {
		if record, ok := o.registry.Server(name); ok && record.Status == catalog.StatusEnabled {
			result.Skipped = append(result.Skipped, name)
			continue
		}
		if err := o.gateway.SetEnabled(ctx, name, true); err != nil {
			o.logger.Warn("activation failed", zap.String("server", name), zap.Error(err))
			result.Failed[name] = err.Error()
			continue
		}
		result.Done = append(result.Done, name)
		o.monitor.TrackActivation(name)
	}
	if len(result.Failed) == 0 {
		result.Failed = nil
	}
	return result
}
