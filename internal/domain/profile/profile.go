// Package profile holds named, pre-curated server bundles for common
// task categories.
package profile

import (
	"errors"
	"strings"
)

// Profile is one curated bundle of servers.
type Profile struct {
	// Unique identifier for the profile (e.g., "web-dev", "data")
	ID string `yaml:"id" json:"id"`

	// Description is shown in listings
	Description string `yaml:"description" json:"description"`

	// Servers to activate when the profile is applied
	Servers []string `yaml:"servers" json:"servers"`

	// Keywords that select this profile from free task text
	Keywords []string `yaml:"keywords" json:"keywords"`

	// AutoActivate allows the orchestrator to apply the profile without
	// being asked for it by name
	AutoActivate bool `yaml:"auto_activate" json:"auto_activate"`
}

// Validate checks if the profile configuration is valid.
func (p Profile) Validate() error {
	if p.ID == "" {
		return errors.New("profile id is required")
	}
	if len(p.Servers) == 0 {
		return errors.New("profile needs at least one server")
	}
	return nil
}

// Matches reports whether any of the profile's keywords occurs in the
// task text. Matching is case-insensitive.
func (p Profile) Matches(text string) bool {
	lowered := strings.ToLower(text)
	for _, kw := range p.Keywords {
		if kw != "" && strings.Contains(lowered, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// Match returns the first auto-activatable profile whose keywords match
// the task text, or false when none does.
func Match(profiles []Profile, text string) (Profile, bool) {
	for _, p := range profiles {
		if p.AutoActivate && p.Matches(text) {
			return p, true
		}
	}
	return Profile{}, false
}
