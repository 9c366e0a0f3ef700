package stash

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Default configuration values.
const (
	DefaultDriver   = "sqlite3"
	defaultFileName = "stash.db"
	appDirName      = "prismkit"
)

// Config locates the one physical database.
type Config struct {
	// Driver names the backend engine ("sqlite3" or "bolt").
	Driver string `yaml:"driver"`

	// Path is the database file location.
	Path string `yaml:"path"`
}

func (c Config) withDefaults() Config {
	if c.Driver == "" {
		c.Driver = DefaultDriver
	}
	if c.Path == "" {
		c.Path = defaultPath()
	}
	return c
}

// defaultPath places the database under the user config directory, falling
// back to the working directory when the platform reports none.
func defaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return defaultFileName
	}
	return filepath.Join(dir, appDirName, defaultFileName)
}

// LoadConfig reads a YAML config file. A missing file is not an error: the
// zero Config is returned, and New fills in defaults.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
