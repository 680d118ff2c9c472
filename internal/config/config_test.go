package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("POSTGREST_URL", "http://localhost:3000")
	t.Setenv("POSTGREST_API_KEY", "anon-key")
	t.Setenv("STEAM_API_KEY", "steam-key")
	t.Setenv("SESSION_HASH_KEY", strings.Repeat("h", 32))
	t.Setenv("SESSION_BLOCK_KEY", strings.Repeat("b", 32))
	t.Setenv("IP_SALT", "pepper")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Store.Backend != BackendPostgREST {
		t.Errorf("Expected default backend %s, got %s", BackendPostgREST, cfg.Store.Backend)
	}
	if cfg.Steam.CacheTTL != 30*time.Minute {
		t.Errorf("Expected 30m identity cache TTL, got %s", cfg.Steam.CacheTTL)
	}
	if cfg.Enrichment.Concurrency != 8 {
		t.Errorf("Expected enrichment concurrency 8, got %d", cfg.Enrichment.Concurrency)
	}
	if cfg.Enrichment.ScoringPolicy != "weighted" {
		t.Errorf("Expected weighted scoring, got %s", cfg.Enrichment.ScoringPolicy)
	}
	if !cfg.Steam.VerifyProfileURL {
		t.Error("Expected profile URL verification enabled by default")
	}
}

func TestLoad_EnvFile(t *testing.T) {
	setRequiredEnv(t)
	os.Unsetenv("STEAM_API_KEY")

	path := filepath.Join(t.TempDir(), "test.env")
	content := "STEAM_API_KEY=from-file\nSCORING_POLICY=capped\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}
	t.Setenv("ENV_FILE", path)
	t.Cleanup(func() {
		os.Unsetenv("SCORING_POLICY")
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Steam.APIKey != "from-file" {
		t.Errorf("Expected API key from env file, got %q", cfg.Steam.APIKey)
	}
	if cfg.Enrichment.ScoringPolicy != "capped" {
		t.Errorf("Expected capped policy from env file, got %q", cfg.Enrichment.ScoringPolicy)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Store:      StoreConfig{Backend: BackendPostgREST},
			PostgREST:  PostgRESTConfig{URL: "http://localhost:3000", APIKey: "k"},
			Steam:      SteamConfig{APIKey: "k", CacheTTL: time.Minute},
			Session:    SessionConfig{HashKey: strings.Repeat("h", 32), BlockKey: strings.Repeat("b", 16)},
			Privacy:    PrivacyConfig{IPSalt: "salt"},
			Enrichment: EnrichmentConfig{Concurrency: 4, ScoringPolicy: "weighted"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"unknown backend", func(c *Config) { c.Store.Backend = "mongo" }, "STORE_BACKEND"},
		{"postgres needs host", func(c *Config) { c.Store.Backend = BackendPostgres }, "DB_HOST"},
		{"postgrest needs url", func(c *Config) { c.PostgREST.URL = "" }, "POSTGREST_URL"},
		{"missing steam key", func(c *Config) { c.Steam.APIKey = "" }, "STEAM_API_KEY"},
		{"short hash key", func(c *Config) { c.Session.HashKey = "short" }, "SESSION_HASH_KEY"},
		{"bad block key", func(c *Config) { c.Session.BlockKey = "abc" }, "SESSION_BLOCK_KEY"},
		{"missing salt", func(c *Config) { c.Privacy.IPSalt = "" }, "IP_SALT"},
		{"zero concurrency", func(c *Config) { c.Enrichment.Concurrency = 0 }, "ENRICH_CONCURRENCY"},
		{"unknown policy", func(c *Config) { c.Enrichment.ScoringPolicy = "magic" }, "SCORING_POLICY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
