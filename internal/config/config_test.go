package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "8081" {
		t.Errorf("expected default port 8081, got %s", cfg.Port)
	}
	if cfg.GenAI.Model != "gemini-2.5-flash" {
		t.Errorf("unexpected default model %s", cfg.GenAI.Model)
	}
	if cfg.GenAI.Retries != 2 || cfg.GenAI.BackoffBase != time.Second {
		t.Errorf("unexpected retry defaults: %d x %s", cfg.GenAI.Retries, cfg.GenAI.BackoffBase)
	}
	if cfg.Store.Type != StoreIPFS || cfg.Store.IPFSTimeout != 120*time.Second {
		t.Errorf("unexpected store defaults: %+v", cfg.Store)
	}
	if cfg.RasterDPI != 200 {
		t.Errorf("expected 200 dpi, got %v", cfg.RasterDPI)
	}
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlDoc := `
port: "9090"
genai:
  model: gemini-test
  retries: 4
  backoff_base: 250ms
store:
  type: none
ocr:
  fallback: true
`
	if err := os.WriteFile(path, []byte(yamlDoc), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("GENAI_MODEL", "gemini-env")
	t.Setenv("IPFS_TIMEOUT_SECONDS", "30")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("expected port from file, got %s", cfg.Port)
	}
	if cfg.GenAI.Model != "gemini-env" {
		t.Errorf("environment must override file, got %s", cfg.GenAI.Model)
	}
	if cfg.GenAI.Retries != 4 || cfg.GenAI.BackoffBase != 250*time.Millisecond {
		t.Errorf("unexpected retry settings: %d x %s", cfg.GenAI.Retries, cfg.GenAI.BackoffBase)
	}
	if cfg.Store.Type != StoreNone {
		t.Errorf("expected store none, got %s", cfg.Store.Type)
	}
	if cfg.Store.IPFSTimeout != 30*time.Second {
		t.Errorf("expected 30s ipfs timeout, got %s", cfg.Store.IPFSTimeout)
	}
	if !cfg.OCR.Fallback {
		t.Error("expected OCR fallback from file")
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad port", "PORT", "http"},
		{"port out of range", "PORT", "70000"},
		{"zero retries", "GENAI_RETRIES", "0"},
		{"unknown store", "STORE_TYPE", "s3"},
		{"zero workers", "BATCH_WORKERS", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			if _, err := Load(""); err == nil {
				t.Errorf("expected error for %s=%s", tt.key, tt.val)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestServerAddress(t *testing.T) {
	cfg := &Config{Host: " 127.0.0.1 ", Port: "8081 "}
	if got := cfg.ServerAddress(); got != "127.0.0.1:8081" {
		t.Errorf("ServerAddress() = %s", got)
	}
}
