// Package config implements the Configuration Store's file-loading half
// (spec.md §4.2): reading and parsing the TOML configuration file into
// entities.Config. The four-tier resolution algorithm itself lives on
// entities.Config, since it's a specified merge algorithm rather than
// something a generic config library provides.
package config

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/wasmpkg/wkg/internal/domain/entities"
	domainservices "github.com/wasmpkg/wkg/internal/domain/services"
)

// DefaultFileName is the configuration file's conventional name.
const DefaultFileName = "config.toml"

// Store loads entities.Config from a TOML file on disk.
type Store struct{}

// New constructs a Configuration Store file loader.
func New() *Store {
	return &Store{}
}

// DefaultPath returns the per-user default configuration path
// ($XDG_CONFIG_HOME or its platform equivalent, under "wkg"), for
// callers that weren't given an explicit --config path.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "wkg", DefaultFileName), nil
}

// Load reads and parses path. A missing file is not an error: it
// returns an empty Config, matching the teacher's "silently continue if
// default config doesn't exist" behavior. This holds for an explicitly
// requested path as well as the default one: Load never reports a
// missing file to its caller.
func (s *Store) Load(path string) (*entities.Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return entities.NewConfig(), nil
	}
	if err != nil {
		return nil, &domainservices.ConfigError{Path: path, Err: err}
	}

	cfg := entities.NewConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, &domainservices.ConfigError{Path: path, Err: err}
	}
	return cfg, nil
}

// Save serializes cfg as TOML and writes it to path, creating parent
// directories as needed.
func (s *Store) Save(path string, cfg *entities.Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &domainservices.ConfigError{Path: path, Err: err}
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return &domainservices.ConfigError{Path: path, Err: err}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &domainservices.ConfigError{Path: path, Err: err}
	}
	return nil
}
