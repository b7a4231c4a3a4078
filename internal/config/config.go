package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config represents the codemigrate configuration
type Config struct {
	Root            string       `mapstructure:"root"`
	RulesFile       string       `mapstructure:"rulesFile"`
	Extensions      []string     `mapstructure:"extensions"`
	Exclude         []string     `mapstructure:"exclude"`
	Format          string       `mapstructure:"format"`
	Output          string       `mapstructure:"output"`
	FailOn          string       `mapstructure:"failOn"`
	Quiet           bool         `mapstructure:"quiet"`
	Verbose         bool         `mapstructure:"verbose"`
	MaxFileSize     int64        `mapstructure:"maxFileSize"`
	Concurrency     int          `mapstructure:"concurrency"`
	Parallel        bool         `mapstructure:"parallel"`
	ContinueOnError bool         `mapstructure:"continueOnError"`
	Backup          BackupConfig `mapstructure:"backup"`
}

// BackupConfig contains backup configuration
type BackupConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

// LoadConfig loads configuration from various sources
func LoadConfig(rootPath string) (*Config, error) {
	// Set default values
	viper.SetDefault("root", ".")
	viper.SetDefault("rulesFile", filepath.Join(".codemigrate", "rules.yaml"))
	viper.SetDefault("extensions", []string{"js", "jsx", "ts", "tsx"})
	viper.SetDefault("exclude", []string{"node_modules/**", ".git/**", "vendor/**"})
	viper.SetDefault("format", "console")
	viper.SetDefault("failOn", "error")
	viper.SetDefault("quiet", false)
	viper.SetDefault("verbose", false)
	viper.SetDefault("maxFileSize", int64(10*1024*1024))
	viper.SetDefault("concurrency", 10)
	viper.SetDefault("parallel", true)
	viper.SetDefault("continueOnError", true)
	viper.SetDefault("backup.enabled", true)
	viper.SetDefault("backup.dir", filepath.Join(".codemigrate", "backups"))

	// Config file locations
	configPaths := []string{".codemigraterc.json", ".codemigraterc.yaml", ".codemigraterc.yml"}
	for _, path := range configPaths {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err == nil {
			break
		}
	}

	// Environment variables
	viper.SetEnvPrefix("CODEMIGRATE")
	viper.AutomaticEnv()

	// Create config instance
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Override root if provided
	if rootPath != "" {
		config.Root = rootPath
	}

	// Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	// Validate format
	if config.Format != "console" && config.Format != "json" && config.Format != "markdown" {
		return fmt.Errorf("invalid format: %s. Must be 'console', 'json', or 'markdown'", config.Format)
	}

	// Validate failOn level
	if config.FailOn != "error" && config.FailOn != "warning" && config.FailOn != "info" {
		return fmt.Errorf("invalid fail-on level: %s. Must be 'error', 'warning', or 'info'", config.FailOn)
	}

	// Validate concurrency
	if config.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1")
	}

	// Validate file size limit
	if config.MaxFileSize < 1 {
		return fmt.Errorf("maxFileSize must be positive")
	}

	// Validate output file if format is not console
	if config.Format != "console" && config.Output == "" {
		return fmt.Errorf("output file is required when format is not 'console'")
	}

	return nil
}

// SaveConfig saves the current configuration to a file
func SaveConfig(config *Config, path string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}

	// Marshal config to JSON
	jsonData, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}
