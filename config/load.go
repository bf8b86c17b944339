// SPDX-License-Identifier: GPL-2.0-or-later

package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Load returns the defaults overwritten by the file at path. An empty path
// looks for hlbsp.yaml or hlbsp.toml in the working directory.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, errors.Wrapf(err, "loading config from %s", path)
		}
	}
	return cfg, nil
}

func findConfigFile() string {
	for _, path := range []string{"hlbsp.yaml", "hlbsp.yml", "hlbsp.toml"} {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// loadFromFile merges the file into cfg. Files ending in .toml are TOML,
// everything else YAML.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if isTOML(path) {
		return toml.Unmarshal(data, cfg)
	}
	return yaml.Unmarshal(data, cfg)
}

// SaveTo writes the config to path in the format given by the extension.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	var data []byte
	var err error
	if isTOML(path) {
		data, err = toml.Marshal(c)
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
