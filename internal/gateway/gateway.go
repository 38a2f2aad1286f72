// Package gateway wraps the external MCP process manager behind a small
// command-style client. Every call shells out to the gateway binary
// (docker mcp by default) and tolerates both JSON and plain-text replies.
package gateway

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Runner executes one gateway subcommand and returns its stdout.
type Runner interface {
	Run(ctx context.Context, args ...string) (string, error)
}

// ExecRunner runs gateway subcommands as child processes with a per-call
// timeout and a bounded retry with doubling backoff.
type ExecRunner struct {
	command []string
	timeout time.Duration
	retries int
	delay   time.Duration
	logger  *zap.Logger
}

// NewExecRunner creates a runner for the given base command, e.g.
// []string{"docker", "mcp"}.
func NewExecRunner(command []string, timeout time.Duration, logger *zap.Logger) *ExecRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if len(command) == 0 {
		command = []string{"docker", "mcp"}
	}
	return &ExecRunner{
		command: command,
		timeout: timeout,
		retries: 3,
		delay:   time.Second,
		logger:  logger.Named("gateway"),
	}
}

func (r *ExecRunner) Run(ctx context.Context, args ...string) (string, error) {
	full := append(append([]string{}, r.command[1:]...), args...)

	var lastErr error
	delay := r.delay
	for attempt := 0; attempt < r.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
			delay *= 2
		}

		callCtx, cancel := context.WithTimeout(ctx, r.timeout)
		cmd := exec.CommandContext(callCtx, r.command[0], full...)
		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
		err := cmd.Run()
		cancel()

		if err == nil {
			return stdout.String(), nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		lastErr = err
		if stderr.Len() > 0 {
			lastErr = fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
		}
		r.logger.Warn("gateway command failed",
			zap.Strings("args", args),
			zap.Int("attempt", attempt+1),
			zap.Error(lastErr),
		)
	}
	return "", fmt.Errorf("gateway %s: %w", strings.Join(args, " "), lastErr)
}

// CatalogEntry is one installable server listed by the gateway catalog.
type CatalogEntry struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Client exposes the gateway subcommands the broker consumes.
type Client struct {
	runner  Runner
	catalog string
	logger  *zap.Logger
}

// NewClient wraps a runner. catalog is the gateway catalog name used for
// installable-server listings (default docker-mcp).
func NewClient(runner Runner, catalog string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if catalog == "" {
		catalog = "docker-mcp"
	}
	return &Client{runner: runner, catalog: catalog, logger: logger.Named("gateway")}
}

// ListServers returns the names of all servers known to the gateway: the
// installed set from the catalog merged with whatever the enabled listing
// reports. Either source failing alone is tolerated.
func (c *Client) ListServers(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var names []string
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}

	catalogNames, catErr := c.catalogNames(ctx)
	for _, n := range catalogNames {
		add(n)
	}
	enabled, enErr := c.ListEnabled(ctx)
	for _, n := range enabled {
		add(n)
	}

	if catErr != nil && enErr != nil {
		return nil, fmt.Errorf("list servers: %w", catErr)
	}
	return names, nil
}

// ListEnabled returns the names of currently enabled servers.
func (c *Client) ListEnabled(ctx context.Context) ([]string, error) {
	out, err := c.runner.Run(ctx, "server", "ls", "--json")
	if err != nil {
		return nil, err
	}
	return serverNames(Decode(out)), nil
}

// CatalogServers lists servers available for installation from the
// configured catalog.
func (c *Client) CatalogServers(ctx context.Context) ([]CatalogEntry, error) {
	out, err := c.runner.Run(ctx, "catalog", "show", c.catalog, "--format=json")
	if err != nil {
		return nil, err
	}

	payload := Decode(out)
	var entries []CatalogEntry
	switch {
	case payload.Object != nil:
		body := payload.Object
		if servers, ok := body["servers"].(map[string]interface{}); ok {
			body = servers
		}
		for name, value := range body {
			entry := CatalogEntry{Name: name}
			if data, ok := value.(map[string]interface{}); ok {
				if desc, ok := data["description"].(string); ok {
					entry.Description = desc
				}
			}
			entries = append(entries, entry)
		}
	default:
		for _, line := range payload.Lines {
			entries = append(entries, CatalogEntry{Name: firstField(line)})
		}
	}
	return entries, nil
}

// InspectServer fetches the metadata blob for one server.
func (c *Client) InspectServer(ctx context.Context, name string) (Payload, error) {
	out, err := c.runner.Run(ctx, "server", "inspect", name)
	if err != nil {
		return Payload{}, err
	}
	return Decode(out), nil
}

// ListToolNames returns the tool names exposed by one server.
func (c *Client) ListToolNames(ctx context.Context, server string) ([]string, error) {
	out, err := c.runner.Run(ctx, "tools", "ls", "--format=json")
	if err != nil {
		return nil, err
	}

	payload := Decode(out)
	items := payload.Array
	if payload.Object != nil {
		if tools, ok := payload.Object["tools"].([]interface{}); ok {
			items = tools
		}
	}
	if items != nil {
		var names []string
		for _, item := range items {
			data, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			if owner, ok := data["server"].(string); ok && owner != server {
				continue
			}
			if name, ok := data["name"].(string); ok {
				names = append(names, name)
			}
		}
		return names, nil
	}

	// Unstructured listing carries no server attribution; every line is a
	// tool name.
	var names []string
	for _, line := range payload.Lines {
		names = append(names, firstField(line))
	}
	return names, nil
}

// CountTools returns the number of tools a server exposes. Falls back to
// counting output lines when the listing is unstructured.
func (c *Client) CountTools(ctx context.Context, server string) (int, error) {
	names, err := c.ListToolNames(ctx, server)
	if err != nil {
		return 0, err
	}
	return len(names), nil
}

// SetEnabled enables or disables a server.
func (c *Client) SetEnabled(ctx context.Context, name string, enabled bool) error {
	verb := "enable"
	if !enabled {
		verb = "disable"
	}
	if _, err := c.runner.Run(ctx, "server", verb, name); err != nil {
		return fmt.Errorf("%s %s: %w", verb, name, err)
	}
	return nil
}

// ConfigRead returns the gateway's own configuration blob, read-only.
func (c *Client) ConfigRead(ctx context.Context) (Payload, error) {
	out, err := c.runner.Run(ctx, "config", "read")
	if err != nil {
		return Payload{}, err
	}
	return Decode(out), nil
}

// SecretNames lists the names of secrets the gateway holds. Values are
// never read through this client.
func (c *Client) SecretNames(ctx context.Context) ([]string, error) {
	out, err := c.runner.Run(ctx, "secret", "ls", "--json")
	if err != nil {
		return nil, err
	}

	payload := Decode(out)
	if payload.Object != nil {
		if secrets, ok := payload.Object["secrets"].([]interface{}); ok {
			return stringItems(secrets), nil
		}
	}
	if payload.Array != nil {
		return stringItems(payload.Array), nil
	}
	var names []string
	for _, line := range payload.Lines {
		names = append(names, firstField(line))
	}
	return names, nil
}

func (c *Client) catalogNames(ctx context.Context) ([]string, error) {
	entries, err := c.CatalogServers(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	return names, nil
}

// serverNames extracts names from the enabled-server listing, which may be
// an array of strings, an array of objects, or an object wrapping either.
func serverNames(payload Payload) []string {
	items := payload.Array
	if payload.Object != nil {
		if servers, ok := payload.Object["servers"].([]interface{}); ok {
			items = servers
		} else if enabled, ok := payload.Object["enabled"].([]interface{}); ok {
			items = enabled
		}
	}
	if items != nil {
		var names []string
		for _, item := range items {
			switch v := item.(type) {
			case string:
				names = append(names, v)
			case map[string]interface{}:
				if name, ok := v["name"].(string); ok {
					names = append(names, name)
				}
			}
		}
		return names
	}

	var names []string
	for _, line := range payload.Lines {
		names = append(names, firstField(line))
	}
	return names
}

func stringItems(items []interface{}) []string {
	var out []string
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		} else if m, ok := item.(map[string]interface{}); ok {
			if name, ok := m["name"].(string); ok {
				out = append(out, name)
			}
		}
	}
	return out
}

func firstField(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
