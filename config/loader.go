package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the name of the configuration file.
const ConfigFileName = "reposync.yml"

// Load reads the configuration from the given path. An empty path triggers
// discovery via FindConfigFile; if no file exists anywhere, defaults are
// returned.
func Load(path string) (*Config, error) {
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		found, err := FindConfigFile(cwd)
		if err != nil {
			return Default(), nil
		}
		path = found
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// FindConfigFile walks up from dir looking for reposync.yml, then falls back
// to ~/.reposync/reposync.yml.
func FindConfigFile(dir string) (string, error) {
	for {
		candidate := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", os.ErrNotExist
	}
	candidate := filepath.Join(home, ".reposync", ConfigFileName)
	if _, err := os.Stat(candidate); err == nil {
		return candidate, nil
	}

	return "", os.ErrNotExist
}
