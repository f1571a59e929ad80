package config

import (
	"errors"
	"strings"
	"testing"

	"github.com/doeshing/benchhist/internal/domain"
)

func TestKeysCoverConfig(t *testing.T) {
	cfg := validConfig()
	for _, k := range Keys() {
		if k.Concern == "" || k.Usage == "" {
			t.Fatalf("key %s lacks concern or usage", k.Path)
		}
		if k.Get(cfg) == nil {
			t.Fatalf("key %s has no getter value", k.Path)
		}
	}
	if got := len(KeyPaths()); got != 11 {
		t.Fatalf("KeyPaths() = %d keys, want 11", got)
	}
}

func TestLookupUnknownKeyListsValidKeys(t *testing.T) {
	_, err := Lookup("history.maxitems")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("Lookup() error = %v, want validation error", err)
	}
	for _, want := range []string{"history.max_items", "storage.backend", "alert.threshold"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q does not list %s", err, want)
		}
	}
}

func TestUpdate(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		check   func(domain.Config) bool
		wantErr string
	}{
		{name: "max items", key: "history.max_items", value: "200", check: func(c domain.Config) bool { return c.History.MaxItems == 200 }},
		{name: "max age", key: "history.max_age", value: "2160h", check: func(c domain.Config) bool { return c.History.MaxAge == "2160h" }},
		{name: "threshold", key: "alert.threshold", value: "1.5", check: func(c domain.Config) bool { return c.Alert.Threshold == 1.5 }},
		{name: "fail on alert", key: "alert.fail_on_alert", value: "true", check: func(c domain.Config) bool { return c.Alert.FailOnAlert }},
		{name: "backend lowercased", key: "storage.backend", value: "SQLite", check: func(c domain.Config) bool { return c.Storage.Backend == "sqlite" }},
		{name: "not an integer", key: "history.max_items", value: "lots", wantErr: "want an integer"},
		{name: "negative items", key: "history.max_items", value: "-1", wantErr: "max_items must be >= 0"},
		{name: "bad duration", key: "history.max_age", value: "90 days", wantErr: "max_age invalid"},
		{name: "threshold not a ratio", key: "alert.threshold", value: "0.9", wantErr: "alert.threshold must be > 1"},
		{name: "unknown backend", key: "storage.backend", value: "redis", wantErr: "storage.backend"},
		{name: "unknown key", key: "alert.ratio", value: "3", wantErr: "unknown key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := validConfig()
			next, change, err := Update(base, tt.key, tt.value)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("Update() error = %v, want %q", err, tt.wantErr)
				}
				if next != base {
					t.Fatalf("failed Update() changed config: %+v", next)
				}
				return
			}
			if err != nil {
				t.Fatalf("Update() error = %v", err)
			}
			if !tt.check(next) {
				t.Fatalf("Update() did not apply %s=%s: %+v", tt.key, tt.value, next)
			}
			if change.Key.Path != tt.key {
				t.Fatalf("change key = %s", change.Key.Path)
			}
		})
	}
}

func TestDiffReportsConcerns(t *testing.T) {
	base := validConfig()
	cfg := base
	cfg.History.MaxItems = 50
	cfg.Alert.Threshold = 3

	changes := Diff(base, cfg)
	if len(changes) != 2 {
		t.Fatalf("Diff() = %+v, want 2 changes", changes)
	}
	if changes[0].Key.Concern != ConcernRetention || changes[0].From != 0 || changes[0].To != 50 {
		t.Fatalf("first change = %+v", changes[0])
	}
	if changes[1].Key.Concern != ConcernAlerting || changes[1].To != 3.0 {
		t.Fatalf("second change = %+v", changes[1])
	}
	if len(Diff(base, base)) != 0 {
		t.Fatal("Diff() of equal configs should be empty")
	}
}
