package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all pipeline configuration.
type Config struct {
	Server    ServerConfig    `json:"server" yaml:"server" toml:"server"`
	Logging   LogConfig       `json:"logging" yaml:"logging" toml:"logging"`
	RateLimit RateLimitConfig `json:"rate_limit" yaml:"rate_limit" toml:"rate_limit"`
	Pipeline  PipelineConfig  `json:"pipeline" yaml:"pipeline" toml:"pipeline"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8900" json:"port" yaml:"port" toml:"port"`
	Host string `envconfig:"HOST" default:"0.0.0.0" json:"host" yaml:"host" toml:"host"`
}

// LogConfig holds process logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info" json:"level" yaml:"level" toml:"level"`
	Development bool   `envconfig:"LOG_DEV" default:"false" json:"development" yaml:"development" toml:"development"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100" json:"requests_per_second" yaml:"requests_per_second" toml:"requests_per_second"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200" json:"burst" yaml:"burst" toml:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true" json:"enabled" yaml:"enabled" toml:"enabled"`
}

// PipelineConfig holds the bounded-store capacities and export location.
type PipelineConfig struct {
	LogBuffer    int    `envconfig:"LOG_BUFFER" default:"1000" json:"log_buffer" yaml:"log_buffer" toml:"log_buffer"`
	MetricBuffer int    `envconfig:"METRIC_BUFFER" default:"5000" json:"metric_buffer" yaml:"metric_buffer" toml:"metric_buffer"`
	MaxTraces    int    `envconfig:"MAX_TRACES" default:"1000" json:"max_traces" yaml:"max_traces" toml:"max_traces"`
	ExportDir    string `envconfig:"EXPORT_DIR" default:"/tmp/toolscope" json:"export_dir" yaml:"export_dir" toml:"export_dir"`
}

// Load loads configuration from TOOLSCOPE_* environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("toolscope", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// LoadFile reads a config file, decoding by extension: .json, .yaml/.yml,
// or .toml. Environment variables are not consulted.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	switch filepath.Ext(path) {
	case ".json":
		if err := sonic.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse json config: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse yaml config: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse toml config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %s", filepath.Ext(path))
	}

	return cfg, nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8900",
			Host: "0.0.0.0",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Pipeline: PipelineConfig{
			LogBuffer:    1000,
			MetricBuffer: 5000,
			MaxTraces:    1000,
			ExportDir:    "/tmp/toolscope",
		},
	}
}
