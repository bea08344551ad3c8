package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config carries the process-level settings of the engine and its
// optional infrastructure. Values come from the environment, optionally
// overlaid by a YAML file.
type Config struct {
	LogLevel string `yaml:"log_level"`

	// Method is "sequential" or "parallel".
	Method         string        `yaml:"method"`
	MaxParallelOps int           `yaml:"max_parallel_ops"`
	OpTimeout      time.Duration `yaml:"op_timeout"`
	RunTimeout     time.Duration `yaml:"run_timeout"`
	AnnotateErrors bool          `yaml:"annotate_errors"`

	// DatabaseDSN enables the Postgres execution journal when set.
	DatabaseDSN string `yaml:"database_dsn"`

	// MetricsEnabled turns on the OpenTelemetry/Prometheus provider.
	MetricsEnabled bool `yaml:"metrics_enabled"`
}

// Load builds a Config from environment variables with defaults.
func Load() *Config {
	return &Config{
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Method:         getEnv("EXEC_METHOD", "sequential"),
		MaxParallelOps: getEnvInt("MAX_PARALLEL_OPS", 10),
		OpTimeout:      getEnvDuration("OP_TIMEOUT", 0),
		RunTimeout:     getEnvDuration("RUN_TIMEOUT", 0),
		AnnotateErrors: getEnvBool("ANNOTATE_ERRORS", true),
		DatabaseDSN:    getEnv("DATABASE_DSN", ""),
		MetricsEnabled: getEnvBool("METRICS_ENABLED", false),
	}
}

// LoadFile overlays a YAML file on top of the environment defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Load()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
