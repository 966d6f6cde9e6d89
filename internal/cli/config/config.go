package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config represents the dotmeta configuration
type Config struct {
	Workers int         `mapstructure:"workers"`
	Strict  bool        `mapstructure:"strict"`
	Log     LogConfig   `mapstructure:"log"`
	Serve   ServeConfig `mapstructure:"serve"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// ServeConfig represents the inspection server configuration
type ServeConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Load loads the configuration from dotmeta.yml or dotmeta.yaml
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("workers", 0)
	v.SetDefault("strict", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("serve.host", "localhost")
	v.SetDefault("serve.port", 8435)

	// Set config name and paths
	v.SetConfigName("dotmeta")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Enable environment variable support
	v.SetEnvPrefix("DOTMETA")
	v.AutomaticEnv()

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if cfg.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got: %d", cfg.Workers)
	}
	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got: %s", cfg.Log.Level)
	}
	if cfg.Serve.Port < 1 || cfg.Serve.Port > 65535 {
		return fmt.Errorf("serve.port must be between 1 and 65535, got: %d", cfg.Serve.Port)
	}
	return nil
}
