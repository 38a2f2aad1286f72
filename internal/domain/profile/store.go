package profile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Store handles persistence of profiles to a YAML file.
type Store struct {
	path string
}

// Config is the top-level structure for the YAML file.
type Config struct {
	Profiles []Profile `yaml:"profiles"`
}

// NewStore creates a new profile store.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads profiles from the file. A missing file is an empty set,
// not an error.
func (s *Store) Load() ([]Profile, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Profile{}, nil
		}
		return nil, err
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}

	for _, p := range config.Profiles {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("profile %q: %w", p.ID, err)
		}
	}

	return config.Profiles, nil
}

// Save writes profiles to the file.
func (s *Store) Save(profiles []Profile) error {
	bytes, err := yaml.Marshal(Config{Profiles: profiles})
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, bytes, 0644)
}
