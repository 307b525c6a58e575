package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Output.Format != "compact" {
		t.Errorf("Output.Format = %q, want compact", cfg.Output.Format)
	}
	if cfg.Output.Count != 1 {
		t.Errorf("Output.Count = %d, want 1", cfg.Output.Count)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}
	if cfg.Node.Port != 8080 {
		t.Errorf("Node.Port = %d, want 8080", cfg.Node.Port)
	}
	if len(cfg.Node.Servers) != 1 || cfg.Node.Servers[0] != "127.0.0.1:2181" {
		t.Errorf("Node.Servers = %v, want [127.0.0.1:2181]", cfg.Node.Servers)
	}
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte(`
log:
  level: debug
output:
  format: separated
  count: 3
segment:
  biz_tag: orders
`)
	if err := os.WriteFile(filepath.Join(dir, "geuui.yaml"), yaml, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	if cfg.Output.Format != "separated" || cfg.Output.Count != 3 {
		t.Errorf("Output = %+v, want separated x3", cfg.Output)
	}
	if cfg.Segment.BizTag != "orders" {
		t.Errorf("Segment.BizTag = %q, want orders", cfg.Segment.BizTag)
	}
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("GEUUI_OUTPUT_FORMAT", "separated")
	t.Setenv("GEUUI_LOG_LEVEL", "warn")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Output.Format != "separated" {
		t.Errorf("Output.Format = %q, want separated", cfg.Output.Format)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want warn", cfg.Log.Level)
	}
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("GEUUI_OUTPUT_FORMAT", "fancy")
	if _, err := Load(t.TempDir()); err == nil {
		t.Error("Load() accepted an unknown output format")
	}
}
