package config

import "time"

// Config represents the main project configuration (aide.yaml)
type Config struct {
	Name     string         `yaml:"name" json:"name"`
	Version  string         `yaml:"version" json:"version"`
	Provider ProviderConfig `yaml:"provider" json:"provider"`
	Memory   StoreConfig    `yaml:"memory" json:"memory"`
	State    StoreConfig    `yaml:"state" json:"state"`
	Search   SearchConfig   `yaml:"search" json:"search"`
	Loop     LoopConfig     `yaml:"loop" json:"loop"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics" json:"metrics"`
	Hooks    HooksConfig    `yaml:"hooks" json:"hooks"`
}

// ProviderConfig configures the LLM provider
type ProviderConfig struct {
	Name       string `yaml:"name" json:"name"`   // anthropic
	Model      string `yaml:"model" json:"model"` // claude-sonnet-4-20250514, etc.
	APIKey     string `yaml:"api_key,omitempty" json:"api_key,omitempty"`
	Timeout    string `yaml:"timeout" json:"timeout"` // per-call timeout, e.g. "2m"
	MaxRetries int    `yaml:"max_retries" json:"max_retries"`
}

// StoreConfig configures a persistence backend (memory records or thread state)
type StoreConfig struct {
	Driver string `yaml:"driver" json:"driver"` // sqlite, memory
	Path   string `yaml:"path" json:"path"`     // file path for sqlite
}

// SearchConfig configures the external search providers
type SearchConfig struct {
	TavilyAPIKey string `yaml:"tavily_api_key,omitempty" json:"tavily_api_key,omitempty"`
	Timeout      string `yaml:"timeout" json:"timeout"` // per-provider call timeout
}

// LoopConfig configures the turn loop
type LoopConfig struct {
	MaxIterations int `yaml:"max_iterations" json:"max_iterations"`
}

// LoggingConfig configures logging
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`   // debug, info, warn, error
	Format string `yaml:"format" json:"format"` // text, json
	File   string `yaml:"file,omitempty" json:"file,omitempty"`
}

// MetricsConfig configures metrics export
type MetricsConfig struct {
	Path string `yaml:"path,omitempty" json:"path,omitempty"` // JSONL output file
}

// HooksConfig configures lifecycle event hooks.
type HooksConfig struct {
	Enabled bool         `yaml:"enabled" json:"enabled"`
	Hooks   []HookConfig `yaml:"hooks" json:"hooks"`
}

// HookConfig defines a single hook.
type HookConfig struct {
	Name     string   `yaml:"name" json:"name"`
	Type     string   `yaml:"type" json:"type"`     // webhook, log
	Events   []string `yaml:"events" json:"events"` // event types to match
	Blocking bool     `yaml:"blocking" json:"blocking"`
	URL      string   `yaml:"url,omitempty" json:"url,omitempty"`     // for webhook hooks
	Level    string   `yaml:"level,omitempty" json:"level,omitempty"` // for log hooks
}

// ParsedTimeout converts the provider timeout string to time.Duration.
func (p *ProviderConfig) ParsedTimeout() (time.Duration, error) {
	if p.Timeout == "" {
		return 2 * time.Minute, nil // default
	}
	return time.ParseDuration(p.Timeout)
}

// ParsedTimeout converts the search timeout string to time.Duration.
func (s *SearchConfig) ParsedTimeout() (time.Duration, error) {
	if s.Timeout == "" {
		return 30 * time.Second, nil // default
	}
	return time.ParseDuration(s.Timeout)
}
