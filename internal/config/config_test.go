package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	d, err := cfg.ChainCallTimeout()
	if err != nil {
		t.Fatalf("ChainCallTimeout: %v", err)
	}
	if d != 15*time.Second {
		t.Errorf("expected 15s call timeout, got %v", d)
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("chain:\n  endpoint: http://localhost:8545\n  chain_id: 1337\n  call_timeout: 5s\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Chain.Endpoint != "http://localhost:8545" {
		t.Errorf("endpoint not loaded: %q", cfg.Chain.Endpoint)
	}
	if cfg.Chain.ChainID != 1337 {
		t.Errorf("chain id not loaded: %d", cfg.Chain.ChainID)
	}
	// Untouched sections keep defaults.
	if cfg.Metadata.IPFSGateway == "" {
		t.Error("defaults should survive partial config")
	}
}

func TestLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := []byte(`{"generator":{"max_chunk_size":512}}`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Generator.MaxChunkSize != 512 {
		t.Errorf("expected 512, got %d", cfg.Generator.MaxChunkSize)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SKETCHMINT_RPC_ENDPOINT", "http://rpc.test")
	t.Setenv("SKETCHMINT_CHAIN_ID", "42")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Chain.Endpoint != "http://rpc.test" {
		t.Errorf("env endpoint override failed: %q", cfg.Chain.Endpoint)
	}
	if cfg.Chain.ChainID != 42 {
		t.Errorf("env chain id override failed: %d", cfg.Chain.ChainID)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.Chain.ChainID = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero chain id")
	}

	cfg = Default()
	cfg.Chain.CallTimeout = "soon"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unparseable timeout")
	}
}
