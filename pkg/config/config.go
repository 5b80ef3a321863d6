// Package config loads cabinetd's runtime configuration from an optional
// YAML file and CLI flags: flags always win, the YAML file supplies
// defaults for anything not explicitly set on the command line.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds every setting cmd/cabinetd needs to start the service.
type Config struct {
	Address         string `yaml:"address"`
	MetricsAddress  string `yaml:"metricsAddress"`
	DataDir         string `yaml:"dataDir"`
	LogLevel        string `yaml:"logLevel"`
	LogJSON         bool   `yaml:"logJSON"`
	MaxRetries      int    `yaml:"maxRetries"`
	TracingEndpoint string `yaml:"tracingEndpoint"`
	TracingAuth     string `yaml:"tracingAuth"`
}

// Default returns the configuration cabinetd starts with before any file
// or flag overrides are applied.
func Default() Config {
	return Config{
		Address:        "0.0.0.0:8080",
		MetricsAddress: "0.0.0.0:9090",
		DataDir:        "./data",
		LogLevel:       "info",
		LogJSON:        true,
		MaxRetries:     100,
	}
}

// Load reads a YAML file at path and overlays it onto Default(). A missing
// path is not an error — cabinetd runs on defaults plus flags alone.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return cfg, nil
}
