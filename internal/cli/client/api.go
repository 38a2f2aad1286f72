// Package client talks to the pilot daemon's control API.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/mcp-pilot/pilot/internal/domain/catalog"
	"github.com/mcp-pilot/pilot/internal/domain/profile"
	"github.com/mcp-pilot/pilot/internal/domain/usage"
	"github.com/mcp-pilot/pilot/internal/gateway"
	"github.com/mcp-pilot/pilot/internal/orchestrator"
)

type ControlClient struct {
	baseURL string
	client  *http.Client
}

func NewControlClient(baseURL string, timeout time.Duration) *ControlClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ControlClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// CatalogResponse is the daemon's catalog listing.
type CatalogResponse struct {
	Servers []catalog.ServerMetadata `json:"servers"`
	Count   int                      `json:"count"`
}

func (c *ControlClient) GetCatalog(category string, includeInactive, force bool) (*CatalogResponse, error) {
	query := url.Values{}
	if category != "" {
		query.Set("category", category)
	}
	query.Set("include_inactive", fmt.Sprintf("%v", includeInactive))
	query.Set("force", fmt.Sprintf("%v", force))

	var resp CatalogResponse
	err := c.get("/api/catalog?"+query.Encode(), &resp)
	return &resp, err
}

// AvailableResponse lists installable catalog entries.
type AvailableResponse struct {
	Servers []gateway.CatalogEntry `json:"servers"`
	Count   int                    `json:"count"`
}

func (c *ControlClient) GetAvailable() (*AvailableResponse, error) {
	var resp AvailableResponse
	err := c.get("/api/catalog/available", &resp)
	return &resp, err
}

func (c *ControlClient) GetServer(name string, force bool) (*catalog.ServerMetadata, error) {
	var record catalog.ServerMetadata
	err := c.get(fmt.Sprintf("/api/servers/%s?force=%v", url.PathEscape(name), force), &record)
	return &record, err
}

func (c *ControlClient) SubmitTask(text string, force bool) (*orchestrator.TaskResult, error) {
	body := map[string]interface{}{
		"text":  text,
		"force": force,
	}
	var result orchestrator.TaskResult
	err := c.post("/api/task", body, &result)
	return &result, err
}

func (c *ControlClient) Activate(servers []string) (*orchestrator.BatchResult, error) {
	var result orchestrator.BatchResult
	err := c.post("/api/activate", map[string]interface{}{"servers": servers}, &result)
	return &result, err
}

func (c *ControlClient) Deactivate(servers []string) (*orchestrator.BatchResult, error) {
	var result orchestrator.BatchResult
	err := c.post("/api/deactivate", map[string]interface{}{"servers": servers}, &result)
	return &result, err
}

// UsageResponse is the daemon's usage report.
type UsageResponse struct {
	Servers map[string]usage.Record `json:"servers"`
	Idle    []string                `json:"idle"`
}

func (c *ControlClient) GetUsage() (*UsageResponse, error) {
	var resp UsageResponse
	err := c.get("/api/usage", &resp)
	return &resp, err
}

func (c *ControlClient) GetStatus() (*orchestrator.StatusInfo, error) {
	var status orchestrator.StatusInfo
	err := c.get("/api/status", &status)
	return &status, err
}

func (c *ControlClient) GetProfiles() ([]profile.Profile, error) {
	var resp struct {
		Profiles []profile.Profile `json:"profiles"`
	}
	err := c.get("/api/profiles", &resp)
	return resp.Profiles, err
}

func (c *ControlClient) get(path string, v interface{}) error {
	resp, err := c.client.Get(c.baseURL + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	return json.NewDecoder(resp.Body).Decode(v)
}

func (c *ControlClient) post(path string, body interface{}, v interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := c.client.Post(c.baseURL+path, "application/json", bytes.NewBuffer(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	if v != nil {
		return json.NewDecoder(resp.Body).Decode(v)
	}
	return nil
}

// decodeError extracts the daemon's error message, falling back to the
// bare status code.
func decodeError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error != "" {
		return fmt.Errorf("%s", payload.Error)
	}
	return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
}
