package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load loads the main project configuration from dir/aide.yaml.
// A missing file yields the default configuration, not an error.
func Load(dir string) (*Config, error) {
	configFile := filepath.Join(dir, "aide.yaml")

	content, err := os.ReadFile(configFile)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := defaultConfig()
			applyDefaults(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Interpolate environment variables
	content = []byte(interpolateEnv(string(content)))

	var cfg Config
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// interpolateEnv replaces ${env.VAR} and ${VAR} with environment values
func interpolateEnv(content string) string {
	// Match ${env.VAR} pattern
	envPattern := regexp.MustCompile(`\$\{env\.([^}]+)\}`)
	content = envPattern.ReplaceAllStringFunc(content, func(match string) string {
		varName := envPattern.FindStringSubmatch(match)[1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // keep original if not found
	})

	// Match ${VAR} pattern
	varPattern := regexp.MustCompile(`\$\{([^}]+)\}`)
	content = varPattern.ReplaceAllStringFunc(content, func(match string) string {
		varName := varPattern.FindStringSubmatch(match)[1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})

	return content
}

func defaultConfig() *Config {
	return &Config{
		Name:    "aide-project",
		Version: "1.0",
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Provider.Name == "" {
		cfg.Provider.Name = "anthropic"
	}
	if cfg.Provider.Model == "" {
		cfg.Provider.Model = "claude-sonnet-4-20250514"
	}
	if cfg.Provider.Timeout == "" {
		cfg.Provider.Timeout = "2m"
	}
	if cfg.Provider.MaxRetries == 0 {
		cfg.Provider.MaxRetries = 3
	}
	if cfg.Memory.Driver == "" {
		cfg.Memory.Driver = "sqlite"
	}
	if cfg.Memory.Path == "" {
		cfg.Memory.Path = ".aide/memory.db"
	}
	if cfg.State.Driver == "" {
		cfg.State.Driver = "sqlite"
	}
	if cfg.State.Path == "" {
		cfg.State.Path = ".aide/threads.db"
	}
	if cfg.Search.Timeout == "" {
		cfg.Search.Timeout = "30s"
	}
	if cfg.Loop.MaxIterations == 0 {
		cfg.Loop.MaxIterations = 10
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}

	// Load API keys from environment if not set
	if cfg.Provider.APIKey == "" {
		cfg.Provider.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if cfg.Search.TavilyAPIKey == "" {
		cfg.Search.TavilyAPIKey = os.Getenv("TAVILY_API_KEY")
	}
}

// Validate checks a loaded configuration for internal consistency.
func Validate(cfg *Config) error {
	var errs []string

	validDrivers := map[string]bool{"sqlite": true, "memory": true}
	if !validDrivers[cfg.Memory.Driver] {
		errs = append(errs, fmt.Sprintf("invalid memory driver: %s", cfg.Memory.Driver))
	}
	if !validDrivers[cfg.State.Driver] {
		errs = append(errs, fmt.Sprintf("invalid state driver: %s", cfg.State.Driver))
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		errs = append(errs, fmt.Sprintf("invalid logging level: %s", cfg.Logging.Level))
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[cfg.Logging.Format] {
		errs = append(errs, fmt.Sprintf("invalid logging format: %s", cfg.Logging.Format))
	}

	if cfg.Loop.MaxIterations < 1 {
		errs = append(errs, "loop.max_iterations must be at least 1")
	}

	if _, err := cfg.Provider.ParsedTimeout(); err != nil {
		errs = append(errs, fmt.Sprintf("invalid provider timeout: %v", err))
	}
	if _, err := cfg.Search.ParsedTimeout(); err != nil {
		errs = append(errs, fmt.Sprintf("invalid search timeout: %v", err))
	}

	for _, h := range cfg.Hooks.Hooks {
		if h.Name == "" {
			errs = append(errs, "hook name is required")
		}
		switch h.Type {
		case "webhook":
			if h.URL == "" {
				errs = append(errs, fmt.Sprintf("hook %s: webhook hooks require url", h.Name))
			}
		case "log":
		default:
			errs = append(errs, fmt.Sprintf("hook %s: invalid hook type: %s", h.Name, h.Type))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
