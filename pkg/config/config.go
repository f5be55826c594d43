// Package config provides configuration management for the heap-analysis engine.
package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Log      LogConfig      `mapstructure:"log"`
}

// AnalysisConfig holds heap-analysis tuning parameters.
type AnalysisConfig struct {
	Version             string  `mapstructure:"version"`
	MaxWorkers          int     `mapstructure:"max_worker"`
	MaxReferencesPerObj int     `mapstructure:"max_references_per_object"`
	EarlyAbortAfter     int64   `mapstructure:"early_abort_after"`
	EarlyAbortRatio     float64 `mapstructure:"early_abort_ratio"`
	DominatorNodeCap    int     `mapstructure:"dominator_node_cap"`
	AddressBucketSize   int     `mapstructure:"address_bucket_size"`
	ProgressReportEvery int64   `mapstructure:"progress_report_every"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"` // json or text
}

// Load reads configuration from the specified file path.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/heapscope")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			fmt.Println("Config file not found, using defaults")
		} else if os.IsNotExist(err) {
			fmt.Printf("Config file %s not found, using defaults\n", configPath)
		} else {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadFromReader loads configuration from raw bytes (useful for testing).
func LoadFromReader(configType string, content []byte) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("analysis.version", "1.0.0")
	v.SetDefault("analysis.max_worker", 5)
	v.SetDefault("analysis.max_references_per_object", 100)
	v.SetDefault("analysis.early_abort_after", 1000)
	v.SetDefault("analysis.early_abort_ratio", 2.0)
	v.SetDefault("analysis.dominator_node_cap", 500000)
	v.SetDefault("analysis.address_bucket_size", 1000)
	v.SetDefault("analysis.progress_report_every", 25000)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.output_path", "./logs")
	v.SetDefault("log.format", "text")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Analysis.MaxWorkers < 1 {
		return fmt.Errorf("max_worker must be at least 1")
	}
	if c.Analysis.DominatorNodeCap < 1 {
		return fmt.Errorf("dominator_node_cap must be at least 1")
	}
	if c.Analysis.EarlyAbortRatio <= 0 {
		return fmt.Errorf("early_abort_ratio must be positive")
	}
	return nil
}
