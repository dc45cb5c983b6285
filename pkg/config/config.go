package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the persisted file location when none is configured,
// relative to the process working directory.
const DefaultPath = "./rpkv.db"

const (
	DefaultHTTPAddr = ":8080"
	DefaultGRPCAddr = ":9090"
	DefaultLogLevel = "info"
)

type Config struct {
	Path       string `yaml:"path"`
	AtomicSave bool   `yaml:"atomic_save"`
	HTTPAddr   string `yaml:"http_addr"`
	GRPCAddr   string `yaml:"grpc_addr"`
	LogLevel   string `yaml:"log_level"`
}

// Default returns a Config with every option at its default.
func Default() *Config {
	return &Config{
		Path:     DefaultPath,
		HTTPAddr: DefaultHTTPAddr,
		GRPCAddr: DefaultGRPCAddr,
		LogLevel: DefaultLogLevel,
	}
}

// LoadConfig loads configuration from a YAML file if path is provided,
// then applies environment variable overrides on top.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if cfg.Path == "" {
		return nil, fmt.Errorf("path is required (set via RPKV_PATH or config file)")
	}

	return cfg, nil
}

// applyEnvOverrides allows environment variables to override YAML config values
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("RPKV_PATH"); v != "" {
		cfg.Path = v
	}
	if v := os.Getenv("RPKV_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("RPKV_GRPC_ADDR"); v != "" {
		cfg.GRPCAddr = v
	}
	if v := os.Getenv("RPKV_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("RPKV_ATOMIC_SAVE"); v != "" {
		atomic, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid RPKV_ATOMIC_SAVE value: %w", err)
		}
		cfg.AtomicSave = atomic
	}
	return nil
}
