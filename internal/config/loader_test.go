package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "aide.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Provider.Name != "anthropic" {
		t.Errorf("provider = %s", cfg.Provider.Name)
	}
	if cfg.Provider.Model != "claude-sonnet-4-20250514" {
		t.Errorf("model = %s", cfg.Provider.Model)
	}
	if cfg.Memory.Driver != "sqlite" || cfg.Memory.Path != ".aide/memory.db" {
		t.Errorf("memory = %+v", cfg.Memory)
	}
	if cfg.Loop.MaxIterations != 10 {
		t.Errorf("max iterations = %d, want 10", cfg.Loop.MaxIterations)
	}
}

func TestLoad_ParsesYAML(t *testing.T) {
	dir := writeConfig(t, `
name: my-aide
provider:
  model: claude-opus-4-1
  timeout: 5m
memory:
  driver: memory
loop:
  max_iterations: 4
logging:
  level: debug
  format: json
`)
	cfg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Name != "my-aide" {
		t.Errorf("name = %s", cfg.Name)
	}
	if cfg.Provider.Model != "claude-opus-4-1" {
		t.Errorf("model = %s", cfg.Provider.Model)
	}
	timeout, err := cfg.Provider.ParsedTimeout()
	if err != nil || timeout != 5*time.Minute {
		t.Errorf("timeout = %v, %v", timeout, err)
	}
	if cfg.Memory.Driver != "memory" {
		t.Errorf("memory driver = %s", cfg.Memory.Driver)
	}
	if cfg.Loop.MaxIterations != 4 {
		t.Errorf("max iterations = %d", cfg.Loop.MaxIterations)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
}

func TestLoad_EnvInterpolation(t *testing.T) {
	t.Setenv("AIDE_TEST_KEY", "sk-from-env")
	dir := writeConfig(t, `
provider:
  api_key: ${env.AIDE_TEST_KEY}
`)
	cfg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Provider.APIKey != "sk-from-env" {
		t.Errorf("api key = %q", cfg.Provider.APIKey)
	}
}

func TestLoad_APIKeyEnvFallback(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-ambient")
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Provider.APIKey != "sk-ambient" {
		t.Errorf("api key = %q", cfg.Provider.APIKey)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := writeConfig(t, "provider: [not a map")
	if _, err := Load(dir); err == nil {
		t.Error("malformed yaml should fail")
	}
}

func TestValidate_RejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad memory driver", func(c *Config) { c.Memory.Driver = "postgres" }},
		{"bad state driver", func(c *Config) { c.State.Driver = "redis" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"zero iterations", func(c *Config) { c.Loop.MaxIterations = 0 }},
		{"bad provider timeout", func(c *Config) { c.Provider.Timeout = "soon" }},
		{"bad hook type", func(c *Config) {
			c.Hooks.Hooks = []HookConfig{{Name: "h", Type: "shell"}}
		}},
		{"webhook without url", func(c *Config) {
			c.Hooks.Hooks = []HookConfig{{Name: "h", Type: "webhook"}}
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			applyDefaults(cfg)
			tc.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Error("expected validation failure")
			}
		})
	}
}

func TestValidate_AcceptsDefaults(t *testing.T) {
	cfg := defaultConfig()
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}
