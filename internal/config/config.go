package config

import (
	"os"
	"path/filepath"
	"strconv"

	"depositscope/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server  ServerConfig `validate:"required"`
	Paths   PathConfig   `validate:"required"`
	Cache   CacheConfig
	Metrics MetricsConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string `validate:"required"`
	GinMode string
}

// PathConfig holds the filesystem layout the pipeline and dashboard share
type PathConfig struct {
	DataDir      string `validate:"required"`
	RawDataFile  string
	ManifestFile string
}

// CacheConfig holds artifact cache settings
type CacheConfig struct {
	Size int
}

// MetricsConfig holds Prometheus exposition settings
type MetricsConfig struct {
	Enabled bool
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{}

	config.Server = *loadServerConfig()
	config.Paths = *loadPathConfig()
	config.Cache = *loadCacheConfig()
	config.Metrics = *loadMetricsConfig()

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:    getEnvOrDefault("PORT", "8501"),
		GinMode: getEnvOrDefault("GIN_MODE", "debug"),
	}
}

func loadPathConfig() *PathConfig {
	dataDir := getEnvOrDefault("DATA_DIR", ".")
	return &PathConfig{
		DataDir:      dataDir,
		RawDataFile:  getEnvOrDefault("RAW_DATA_FILE", filepath.Join(dataDir, "data", "raw", "populationgroup-wise-deposits.csv")),
		ManifestFile: getEnvOrDefault("TRAINING_MANIFEST", filepath.Join(dataDir, "configs", "training.yaml")),
	}
}

func loadCacheConfig() *CacheConfig {
	return &CacheConfig{
		Size: getEnvIntOrDefault("ARTIFACT_CACHE_SIZE", 64),
	}
}

func loadMetricsConfig() *MetricsConfig {
	return &MetricsConfig{
		Enabled: getEnvBoolOrDefault("METRICS_ENABLED", true),
	}
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("server port is required")
	}
	if _, err := strconv.Atoi(config.Server.Port); err != nil {
		return errors.ConfigInvalid("server port must be numeric")
	}
	if config.Paths.DataDir == "" {
		return errors.ConfigInvalid("data directory is required")
	}
	if config.Cache.Size <= 0 {
		return errors.ConfigInvalid("artifact cache size must be positive")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
