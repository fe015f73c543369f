// File: internal/config/config.go
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger     LoggerConfig     `mapstructure:"logger" yaml:"logger"`
	Evaluation EvaluationConfig `mapstructure:"evaluation" yaml:"evaluation"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// EvaluationConfig tunes the comparison runs. Tolerance lives here and on the
// CLI flags, never inside the match engine, which always receives it from the
// caller.
type EvaluationConfig struct {
	// Tolerance is the maximum allowed line distance for a match.
	Tolerance int `mapstructure:"tolerance" yaml:"tolerance"`
	// Policy selects the matching tie-break rule: "first-fit" or "closest".
	Policy string `mapstructure:"policy" yaml:"policy"`
	// Concurrency bounds the findings-ingest worker pool. Zero means one
	// worker per CPU.
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"`
}

// SetDefaults registers the default values on the given viper instance.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.service_name", "vulnbench")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 28)

	v.SetDefault("evaluation.tolerance", 2)
	v.SetDefault("evaluation.policy", "first-fit")
	v.SetDefault("evaluation.concurrency", 0)
}

// Validate checks the configuration for values the application cannot run
// with. It is called once after unmarshalling, before any component starts.
func (c *Config) Validate() error {
	switch c.Logger.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("config: unsupported logger format %q", c.Logger.Format)
	}
	if c.Evaluation.Tolerance < 0 {
		return fmt.Errorf("config: evaluation.tolerance must be >= 0, got %d", c.Evaluation.Tolerance)
	}
	switch c.Evaluation.Policy {
	case "first-fit", "closest":
	default:
		return fmt.Errorf("config: unknown evaluation.policy %q", c.Evaluation.Policy)
	}
	if c.Evaluation.Concurrency < 0 {
		return fmt.Errorf("config: evaluation.concurrency must be >= 0, got %d", c.Evaluation.Concurrency)
	}
	return nil
}
