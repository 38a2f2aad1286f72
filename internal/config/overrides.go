package config

import (
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/mcp-pilot/pilot/internal/domain/catalog"
)

// overrideFile is the YAML override document: per-server metadata
// overrides plus optional category display labels.
type overrideFile struct {
	Servers    map[string]yaml.Node `yaml:"servers"`
	Categories map[string]string    `yaml:"categories"`
}

type serverOverride struct {
	Category    string `yaml:"category"`
	Description string `yaml:"description"`
}

// LoadOverrides reads the override file at path. Overrides are an
// availability-over-fidelity concern: a missing file, an unreadable
// document, or a malformed per-server entry logs a warning and falls
// back to empty, never fails startup.
func LoadOverrides(path string, logger *zap.Logger) (map[string]catalog.Override, map[string]string) {
	if logger == nil {
		logger = zap.NewNop()
	}
	overrides := make(map[string]catalog.Override)
	labels := make(map[string]string)

	if path == "" {
		return overrides, labels
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("override file unreadable, continuing without overrides",
				zap.String("path", path), zap.Error(err))
		}
		return overrides, labels
	}

	var file overrideFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		logger.Warn("override file malformed, continuing without overrides",
			zap.String("path", path), zap.Error(err))
		return overrides, labels
	}

	for name, node := range file.Servers {
		var fields serverOverride
		if err := node.Decode(&fields); err != nil {
			logger.Warn("override entry malformed, skipping",
				zap.String("server", name), zap.Error(err))
			continue
		}
		var raw map[string]interface{}
		if err := node.Decode(&raw); err != nil {
			raw = nil
		}
		overrides[name] = catalog.Override{
			Category:    catalog.Category(fields.Category),
			Description: fields.Description,
			Raw:         raw,
		}
	}

	for category, label := range file.Categories {
		labels[category] = label
	}

	return overrides, labels
}
