package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Fatalf("Default() = %+v, want info/text logging", cfg.Log)
	}
	if cfg.Input.Path != "" {
		t.Fatalf("Default().Input.Path = %q, want empty (stdin)", cfg.Input.Path)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "repcrec.yaml")
	contents := "log:\n  level: debug\n  format: json\ninput:\n  path: /tmp/trace.txt\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Fatalf("Load().Log = %+v, want debug/json", cfg.Log)
	}
	if cfg.Input.Path != "/tmp/trace.txt" {
		t.Fatalf("Load().Input.Path = %q, want /tmp/trace.txt", cfg.Input.Path)
	}
}

func TestLoadEnvOverridesDefault(t *testing.T) {
	t.Setenv("REPCREC_LOG_LEVEL", "error")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Log.Level != "error" {
		t.Fatalf("Load().Log.Level = %q, want error (env override)", cfg.Log.Level)
	}
}
