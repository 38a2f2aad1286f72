// Package usage tracks per-server activity so idle servers can be
// pointed out for deactivation.
package usage

import (
	"sync"
	"time"
)

// DefaultIdleThreshold is how long a server may sit unused before it is
// recommended for deactivation.
const DefaultIdleThreshold = 10 * time.Minute

// Record is the tracked activity for one server.
type Record struct {
	LastUsed    time.Time      `json:"last_used"`
	AccessCount int            `json:"access_count"`
	ToolUsage   map[string]int `json:"tool_usage,omitempty"`
}

// Monitor accumulates usage records. Records are created on first
// activation or tool call and live until the process ends. Safe for
// concurrent use.
type Monitor struct {
	mu            sync.Mutex
	records       map[string]*Record
	idleThreshold time.Duration
	now           func() time.Time
}

// MonitorOptions overrides the built-in behaviour; zero fields keep
// defaults.
type MonitorOptions struct {
	IdleThreshold time.Duration
	Now           func() time.Time
}

// NewMonitor builds an empty monitor.
func NewMonitor(opts MonitorOptions) *Monitor {
	threshold := opts.IdleThreshold
	if threshold <= 0 {
		threshold = DefaultIdleThreshold
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Monitor{
		records:       make(map[string]*Record),
		idleThreshold: threshold,
		now:           now,
	}
}

// TrackActivation marks a server as touched right now, creating its
// record if this is the first sighting.
func (m *Monitor) TrackActivation(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensure(name).LastUsed = m.now()
}

// TrackToolUsage records one tool call against a server.
func (m *Monitor) TrackToolUsage(name, tool string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := m.ensure(name)
	rec.LastUsed = m.now()
	rec.AccessCount++
	rec.ToolUsage[tool]++
}

// RecommendDeactivation returns the subset of active that looks idle:
// servers with no usage record at all, or whose last use predates the
// idle threshold. Order follows active. Advisory only; the monitor
// never deactivates anything.
func (m *Monitor) RecommendDeactivation(active []string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-m.idleThreshold)
	var idle []string
	for _, name := range active {
		rec, ok := m.records[name]
		if !ok || rec.LastUsed.Before(cutoff) {
			idle = append(idle, name)
		}
	}
	return idle
}

// Snapshot returns a copy of every usage record keyed by server name.
func (m *Monitor) Snapshot() map[string]Record {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]Record, len(m.records))
	for name, rec := range m.records {
		tools := make(map[string]int, len(rec.ToolUsage))
		for tool, n := range rec.ToolUsage {
			tools[tool] = n
		}
		out[name] = Record{LastUsed: rec.LastUsed, AccessCount: rec.AccessCount, ToolUsage: tools}
	}
	return out
}

// IdleThreshold reports the configured idle cutoff.
func (m *Monitor) IdleThreshold() time.Duration {
	return m.idleThreshold
}

func (m *Monitor) ensure(name string) *Record {
	rec, ok := m.records[name]
	if !ok {
		rec = &Record{ToolUsage: make(map[string]int)}
		m.records[name] = rec
	}
	return rec
}
