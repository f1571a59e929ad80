package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/doeshing/benchhist/internal/domain"
)

// Validate ensures config structure is consistent.
func Validate(cfg domain.Config) error {
	if err := validateStorage(cfg.Storage); err != nil {
		return err
	}
	if err := validateHistory(cfg.History); err != nil {
		return err
	}
	if err := validateAlert(cfg.Alert); err != nil {
		return err
	}
	if err := validateLogging(cfg.Logging); err != nil {
		return err
	}
	return nil
}

func validateStorage(storage domain.StorageSettings) error {
	switch strings.ToLower(storage.Backend) {
	case domain.BackendFile, domain.BackendSQLite, domain.BackendBolt:
	default:
		return fmt.Errorf("storage.backend must be file|sqlite|bolt, got %q", storage.Backend)
	}
	if storage.Path == "" {
		return fmt.Errorf("storage.path must be set")
	}
	return nil
}

func validateHistory(history domain.HistorySettings) error {
	if strings.TrimSpace(history.DefaultGroup) == "" {
		return fmt.Errorf("history.default_group must be set")
	}
	if history.MaxItems < 0 {
		return fmt.Errorf("history.max_items must be >= 0")
	}
	if _, err := MaxAge(history); err != nil {
		return err
	}
	return nil
}

func validateAlert(alert domain.AlertSettings) error {
	if alert.Threshold <= 1 {
		return fmt.Errorf("alert.threshold must be > 1 (ratio), got %g", alert.Threshold)
	}
	return nil
}

func validateLogging(logging domain.LoggingSettings) error {
	switch strings.ToLower(logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text|json, got %q", logging.Format)
	}
	switch strings.ToLower(logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic":
	default:
		return fmt.Errorf("logging.level invalid: %q", logging.Level)
	}
	return nil
}

// MaxAge parses history.max_age; empty means no age limit.
func MaxAge(history domain.HistorySettings) (time.Duration, error) {
	if strings.TrimSpace(history.MaxAge) == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(history.MaxAge)
	if err != nil {
		return 0, fmt.Errorf("history.max_age invalid: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("history.max_age must be >= 0")
	}
	return d, nil
}
