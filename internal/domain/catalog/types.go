// Package catalog holds the server metadata model, the category
// classifier, the discovery engine and the TTL-cached registry.
package catalog

import "time"

// Status is the canonical enablement state of a server.
type Status string

const (
	StatusEnabled  Status = "enabled"
	StatusDisabled Status = "disabled"
	StatusUnknown  Status = "unknown"
)

// Category is the primary classification of a server.
type Category string

const (
	CategoryDatabase      Category = "database"
	CategoryDevelopment   Category = "development"
	CategoryDocumentation Category = "documentation"
	CategorySearch        Category = "search"
	CategoryCommunication Category = "communication"
	CategoryCloud         Category = "cloud"
	CategoryFilesystem    Category = "filesystem"
	CategoryAI            Category = "ai"
	CategoryOther         Category = "other"
)

// ServerMetadata is one discovered server. Records are rebuilt wholesale on
// every discovery pass; only the config override survives across passes,
// re-applied each time.
type ServerMetadata struct {
	Name           string                 `json:"name"`
	Description    string                 `json:"description,omitempty"`
	Category       Category               `json:"category"`
	ToolCount      int                    `json:"tool_count"`
	RequiresAuth   bool                   `json:"requires_auth"`
	AuthType       string                 `json:"auth_type,omitempty"`
	Status         Status                 `json:"status"`
	Prompt         string                 `json:"prompt,omitempty"`
	LastDiscovered time.Time              `json:"last_discovered"`
	ConfigOverride map[string]interface{} `json:"config_override,omitempty"`
}

// Override is a config-supplied replacement for discovered fields. Category
// and Description, when set, replace the discovered values outright; Raw is
// the full blob as loaded, attached to the stored record.
type Override struct {
	Category    Category
	Description string
	Raw         map[string]interface{}
}
