package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/doeshing/benchhist/internal/domain"
)

func TestBuildContainerWithDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	c, err := BuildContainer(context.Background(), Options{ConfigPath: filepath.Join(home, "cfg", "config.yaml")})
	if err != nil {
		t.Fatalf("BuildContainer() error = %v", err)
	}
	defer c.Close()

	if err := c.Ready(); err != nil {
		t.Fatalf("Ready() error = %v", err)
	}
	if got := c.HistoryService.Repository.Path(); got != filepath.Join(home, ".benchhist", "data.js") {
		t.Fatalf("storage path = %s", got)
	}
	if c.Server("").Addr != domain.DefaultServerAddr {
		t.Fatalf("server addr = %s", c.Server("").Addr)
	}
}

func TestBuildContainerRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("storage:\n  backend: redis\n  path: /tmp/x\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := BuildContainer(context.Background(), Options{ConfigPath: path}); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestBuildContainerKeepsCorruptHistoryForDoctor(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "history.json")
	if err := os.WriteFile(data, []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "config.yaml")
	cfg := "storage:\n  backend: file\n  path: " + data + "\nlogging:\n  level: error\n"
	if err := os.WriteFile(path, []byte(cfg), 0o600); err != nil {
		t.Fatal(err)
	}

	c, err := BuildContainer(context.Background(), Options{ConfigPath: path})
	if err != nil {
		t.Fatalf("BuildContainer() error = %v", err)
	}
	if c.Ready() == nil {
		t.Fatal("Ready() should report the load failure")
	}
	report, _ := c.DoctorService.Run(context.Background())
	if report.Healthy() {
		t.Fatalf("doctor should fail: %+v", report)
	}
}

func TestConfigOnlyWorksWithBrokenConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("storage: [not a map\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	c := ConfigOnly(path, false)
	if c.Logger == nil || c.ConfigLoader == nil {
		t.Fatalf("ConfigOnly() = %+v, want loader and logger", c)
	}
	if c.ConfigLoader.Path() != path {
		t.Fatalf("config path = %s", c.ConfigLoader.Path())
	}
	if c.Ready() == nil {
		t.Fatal("Ready() should fail without a history service")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}
