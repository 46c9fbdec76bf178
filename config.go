package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the server configuration, loaded from a YAML file with
// sensible defaults for local development.
type Config struct {
	Addr      string `yaml:"addr"`
	PublicURL string `yaml:"publicUrl"`

	Storage struct {
		Driver   string `yaml:"driver"` // memory | sqlite | mongo
		Path     string `yaml:"path"`   // sqlite file path
		URI      string `yaml:"uri"`    // mongo connection string
		Database string `yaml:"database"`
	} `yaml:"storage"`

	Auth struct {
		Require bool   `yaml:"require"` // demand a valid token on /ws
		Secret  string `yaml:"secret"`
	} `yaml:"auth"`

	Analytics struct {
		Path string `yaml:"path"` // journal file, empty disables
	} `yaml:"analytics"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	var cfg Config
	cfg.Addr = ":8080"
	cfg.PublicURL = "http://localhost:8080"
	cfg.Storage.Driver = "memory"
	cfg.Storage.Path = "fractal.db"
	cfg.Storage.Database = "fractal"
	return cfg
}

// LoadConfig reads a YAML config file over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}
