// Package config provides configuration management for the ACE loop.
package config

import (
	"os"
	"strings"
	"testing"
)

const (
	validConfigPath       = "testdata/valid_config.yaml"
	expansionConfigPath   = "testdata/expansion_config.yaml"
	nonexistentConfigPath = "testdata/nonexistent_config.yaml"
	expectedNoErrorMsg    = "expected no error, got %v"
)

// TestLoadConfigSuccess tests loading a valid configuration file
func TestLoadConfigSuccess(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}
	if cfg == nil {
		t.Fatal("expected non-nil config")
	}

	if cfg.App.Name != "ace-loop" {
		t.Errorf("expected app name 'ace-loop', got '%s'", cfg.App.Name)
	}
	if cfg.Dataset.Source != "data/runner_table.csv" {
		t.Errorf("unexpected dataset source '%s'", cfg.Dataset.Source)
	}
	if cfg.Playbook.MaxHistory != 10 {
		t.Errorf("expected playbook max_history 10, got %d", cfg.Playbook.MaxHistory)
	}
	if len(cfg.Strategies.Margins) != 3 {
		t.Errorf("expected 3 margins, got %d", len(cfg.Strategies.Margins))
	}
}

// TestLoadConfigFileNotFound tests handling of missing configuration file
func TestLoadConfigFileNotFound(t *testing.T) {
	_, err := Load(nonexistentConfigPath)
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

// TestLoadConfigEnvExpansion tests ${VAR} expansion in the config file
func TestLoadConfigEnvExpansion(t *testing.T) {
	os.Setenv("TEST_DB_PASSWORD", "expanded_secret_value")
	defer os.Unsetenv("TEST_DB_PASSWORD")

	cfg, err := Load(expansionConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}
	if cfg.Database.Password != "expanded_secret_value" {
		t.Errorf("expected expanded password, got '%s'", cfg.Database.Password)
	}
}

// TestLoadWithDefaults tests defaults when no config file exists
func TestLoadWithDefaults(t *testing.T) {
	cfg, err := LoadWithDefaults(nonexistentConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}
	if cfg.App.Environment != "development" {
		t.Errorf("expected default environment 'development', got '%s'", cfg.App.Environment)
	}
	if cfg.Reflection.MinBets != 30 {
		t.Errorf("expected default min_bets 30, got %d", cfg.Reflection.MinBets)
	}
	if cfg.Experience.OutputDir != "data/experiences" {
		t.Errorf("expected default output dir, got '%s'", cfg.Experience.OutputDir)
	}
}

// TestValidateValidConfig tests validation of a complete config
func TestValidateValidConfig(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("expected valid config to pass validation, got %v", err)
	}
}

// TestValidateRejectsBadEnvironment tests the environment custom rule
func TestValidateRejectsBadEnvironment(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}
	cfg.App.Environment = "invalid"

	err = Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error for invalid environment")
	}
	if !strings.Contains(err.Error(), "Environment") {
		t.Errorf("expected error mentioning Environment, got %v", err)
	}
}

// TestValidateRejectsInvertedDateRange tests the cross-field date check
func TestValidateRejectsInvertedDateRange(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}
	cfg.Dataset.StartDate = "2025-06-01"
	cfg.Dataset.EndDate = "2025-01-01"

	if err := Validate(cfg); err == nil {
		t.Fatal("expected validation error for inverted date range")
	}
}

// TestValidateDatabaseRequiresHostWhenEnabled tests the persistence guard
func TestValidateDatabaseRequiresHostWhenEnabled(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}
	cfg.Database.Enabled = true

	if err := Validate(cfg); err == nil {
		t.Fatal("expected validation error for enabled database without host")
	}
}
