// Package config provides configuration management for the ACE loop.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app" validate:"required"`
	Dataset    DatasetConfig    `mapstructure:"dataset" validate:"required"`
	Strategies StrategiesConfig `mapstructure:"strategies"`
	Experience ExperienceConfig `mapstructure:"experience" validate:"required"`
	Playbook   PlaybookConfig   `mapstructure:"playbook" validate:"required"`
	Reflection ReflectionConfig `mapstructure:"reflection"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Schedule   ScheduleConfig   `mapstructure:"schedule"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatasetConfig describes where the runner-table snapshot comes from and how
// much of it one loop iteration consumes.
type DatasetConfig struct {
	// Source is a local CSV path (optionally gzipped) or an http(s) URL.
	Source          string      `mapstructure:"source" validate:"required"`
	StartDate       string      `mapstructure:"start_date" validate:"omitempty,datestr"`
	EndDate         string      `mapstructure:"end_date" validate:"omitempty,datestr"`
	MaxRaces        int         `mapstructure:"max_races" validate:"gte=0"`
	CacheTTLSeconds int         `mapstructure:"cache_ttl_seconds" validate:"gte=0"`
	Fetch           FetchConfig `mapstructure:"fetch"`
}

// FetchConfig tunes the HTTP snapshot fetcher.
type FetchConfig struct {
	TimeoutSeconds     int     `mapstructure:"timeout_seconds" validate:"gte=0"`
	RetryMax           int     `mapstructure:"retry_max" validate:"gte=0"`
	RequestsPerSecond  float64 `mapstructure:"requests_per_second" validate:"gte=0"`
}

// StrategiesConfig selects the strategy grid: either a JSON definitions file
// or inline parameter axes. When both are empty the default grid is used.
type StrategiesConfig struct {
	DefinitionsPath string    `mapstructure:"definitions_path"`
	Margins         []float64 `mapstructure:"margins" validate:"omitempty,dive,gte=1"`
	TopNs           []int     `mapstructure:"top_ns" validate:"omitempty,dive,gt=0"`
	Stakes          []float64 `mapstructure:"stakes" validate:"omitempty,dive,gt=0"`
	MinModelProbs   []float64 `mapstructure:"min_model_probs" validate:"omitempty,dive,gte=0,lte=1"`
	MaxWinOdds      []float64 `mapstructure:"max_win_odds" validate:"omitempty,dive,gt=1"`
}

// ExperienceConfig controls the experience writer and runner.
type ExperienceConfig struct {
	OutputDir       string   `mapstructure:"output_dir" validate:"required"`
	FilenamePrefix  string   `mapstructure:"filename_prefix" validate:"required"`
	PartitionByDate bool     `mapstructure:"partition_by_date"`
	Workers         int      `mapstructure:"workers" validate:"gte=0"`
	ContextFields   []string `mapstructure:"context_fields"`
}

// PlaybookConfig controls the curated playbook artifact.
type PlaybookConfig struct {
	Path       string `mapstructure:"path" validate:"required"`
	MaxHistory int    `mapstructure:"max_history" validate:"gte=0"`
}

// ReflectionConfig tunes the playbook aggregation thresholds.
type ReflectionConfig struct {
	MinBets      int     `mapstructure:"min_bets" validate:"gte=0"`
	Alpha        float64 `mapstructure:"alpha" validate:"gte=0,lte=1"`
	TopKContexts int     `mapstructure:"top_k_contexts" validate:"gte=0"`
	Confidence   float64 `mapstructure:"confidence" validate:"gte=0,lte=1"`
}

// DatabaseConfig represents the optional Postgres persistence layer.
type DatabaseConfig struct {
	Enabled            bool   `mapstructure:"enabled"`
	Host               string `mapstructure:"host"`
	Port               int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Name               string `mapstructure:"name"`
	User               string `mapstructure:"user"`
	Password           string `mapstructure:"password"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"gte=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"gte=0"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Path    string `mapstructure:"path"`
}

// ScheduleConfig drives the recurring loop.
type ScheduleConfig struct {
	Cron string `mapstructure:"cron"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// DatasetDateRange parses the configured date bounds. A zero time means the
// bound is open.
func (c *Config) DatasetDateRange() (start, end time.Time, err error) {
	if c.Dataset.StartDate != "" {
		start, err = time.Parse("2006-01-02", c.Dataset.StartDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid dataset start_date: %w", err)
		}
	}
	if c.Dataset.EndDate != "" {
		end, err = time.Parse("2006-01-02", c.Dataset.EndDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid dataset end_date: %w", err)
		}
	}
	return start, end, nil
}
