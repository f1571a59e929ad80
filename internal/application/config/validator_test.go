package config

import (
	"strings"
	"testing"
	"time"

	"github.com/doeshing/benchhist/internal/domain"
)

func validConfig() domain.Config {
	return domain.Config{
		Storage: domain.StorageSettings{Backend: "file", Path: "/tmp/data.js"},
		History: domain.HistorySettings{DefaultGroup: "Benchmark"},
		Alert:   domain.AlertSettings{Threshold: 2},
		Logging: domain.LoggingSettings{Level: "info", Format: "text"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*domain.Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*domain.Config) {}},
		{name: "unknown backend", mutate: func(c *domain.Config) { c.Storage.Backend = "redis" }, wantErr: "storage.backend"},
		{name: "missing path", mutate: func(c *domain.Config) { c.Storage.Path = "" }, wantErr: "storage.path"},
		{name: "missing group", mutate: func(c *domain.Config) { c.History.DefaultGroup = " " }, wantErr: "default_group"},
		{name: "negative max items", mutate: func(c *domain.Config) { c.History.MaxItems = -1 }, wantErr: "max_items"},
		{name: "bad max age", mutate: func(c *domain.Config) { c.History.MaxAge = "90 days" }, wantErr: "max_age"},
		{name: "threshold too low", mutate: func(c *domain.Config) { c.Alert.Threshold = 0.5 }, wantErr: "alert.threshold"},
		{name: "bad log format", mutate: func(c *domain.Config) { c.Logging.Format = "xml" }, wantErr: "logging.format"},
		{name: "bad log level", mutate: func(c *domain.Config) { c.Logging.Level = "loud" }, wantErr: "logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestMaxAge(t *testing.T) {
	d, err := MaxAge(domain.HistorySettings{MaxAge: "2160h"})
	if err != nil || d != 90*24*time.Hour {
		t.Fatalf("MaxAge() = %v, %v", d, err)
	}
	d, err = MaxAge(domain.HistorySettings{})
	if err != nil || d != 0 {
		t.Fatalf("empty MaxAge() = %v, %v", d, err)
	}
}
