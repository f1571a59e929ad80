package helpers

import (
	"fmt"
	"os"
	"strings"

	"github.com/doeshing/benchhist/internal/app"
	configapp "github.com/doeshing/benchhist/internal/application/config"
	"github.com/doeshing/benchhist/internal/domain"
	"github.com/doeshing/benchhist/internal/infrastructure/config"
)

// ====================================================================================
// Config Helpers
// ====================================================================================

// GetConfigLoader extracts the config loader from container with error handling
func GetConfigLoader(container *app.Container) (*config.FileLoader, error) {
	if container.ConfigLoader == nil {
		return nil, fmt.Errorf("config loader unavailable")
	}
	return container.ConfigLoader, nil
}

// SaveConfigWithValidation validates cfg, backs up the current file and saves.
// It returns the backup path, empty when there was no file to back up.
func SaveConfigWithValidation(container *app.Container, cfg domain.Config) (string, error) {
	loader, err := GetConfigLoader(container)
	if err != nil {
		return "", err
	}

	if err := configapp.Validate(cfg); err != nil {
		return "", fmt.Errorf("configuration validation failed: %w", err)
	}

	backup, err := BackupConfig(loader)
	if err != nil {
		return "", err
	}

	if err := loader.Save(cfg); err != nil {
		return backup, fmt.Errorf("failed to save configuration: %w", err)
	}
	return backup, nil
}

// BackupConfig copies the config file aside when it exists.
func BackupConfig(loader *config.FileLoader) (string, error) {
	if _, err := os.Stat(loader.Path()); err != nil {
		return "", nil
	}
	backup, err := loader.Backup()
	if err != nil {
		return "", fmt.Errorf("failed to create configuration backup: %w", err)
	}
	return backup, nil
}

// GroupOrDefault returns group, or the configured default group when empty.
func GroupOrDefault(container *app.Container, group string) string {
	if strings.TrimSpace(group) != "" {
		return group
	}
	if container.Config.History.DefaultGroup != "" {
		return container.Config.History.DefaultGroup
	}
	return domain.DefaultGroup
}
