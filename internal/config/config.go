package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Listing backends.
const (
	// BackendLocal scans the filesystem directly
	BackendLocal = "local"
	// BackendHTTP fetches listings from a remote endpoint
	BackendHTTP = "http"
)

// RelevanceConfig configures the relevant-files job integration
type RelevanceConfig struct {
	// Endpoint is the job-status endpoint polled for asynchronous jobs
	Endpoint string `yaml:"endpoint"`

	// PollInterval is the delay between job-status checks
	PollInterval time.Duration `yaml:"poll_interval"`

	// Command is a local agent command line used instead of an endpoint
	Command string `yaml:"command"`

	// AutoApply merges recognized job results into the selection automatically
	AutoApply bool `yaml:"auto_apply"`
}

// Config represents curator configuration options
type Config struct {
	// Backend selects the listing source (local, http)
	Backend string `yaml:"backend"`

	// Endpoint is the HTTP listing endpoint (required for the http backend)
	Endpoint string `yaml:"endpoint"`

	// Pattern is an optional regex applied to relative paths while listing
	Pattern string `yaml:"pattern"`

	// ExcludeDirs lists directory basenames skipped while scanning and watching
	ExcludeDirs []string `yaml:"exclude_dirs"`

	// IncludeStats requests file sizes with each listing
	IncludeStats bool `yaml:"include_stats"`

	// RequestTimeout bounds a single listing or job request
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// MaxRetries is the number of load attempts before giving up
	MaxRetries int `yaml:"max_retries"`

	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogDir is the directory where log files are written
	LogDir string `yaml:"log_dir"`

	// DatabasePath is the SQLite session database location
	DatabasePath string `yaml:"db_path"`

	// SessionFile switches session storage to a JSON file at this path
	SessionFile string `yaml:"session_file"`

	// WatchDebounce is the coalescing window for watch-mode events
	WatchDebounce time.Duration `yaml:"watch_debounce"`

	// Relevance contains relevant-files job configuration
	Relevance RelevanceConfig `yaml:"relevance"`
}

// DefaultExcludeDirs returns the directory basenames skipped by default
func DefaultExcludeDirs() []string {
	return []string{"node_modules", ".git", "dist", "build", "target", "vendor"}
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		Backend:        BackendLocal,
		Endpoint:       "",
		Pattern:        "",
		ExcludeDirs:    DefaultExcludeDirs(),
		IncludeStats:   true,
		RequestTimeout: 30 * time.Second,
		MaxRetries:     3,
		LogLevel:       "info",
		LogDir:         ".curator/logs",
		DatabasePath:   ".curator/curator.db",
		SessionFile:    "",
		WatchDebounce:  250 * time.Millisecond,
		Relevance: RelevanceConfig{
			Endpoint:     "",
			PollInterval: 2 * time.Second,
			Command:      "",
			AutoApply:    true,
		},
	}
}

// LoadConfig loads configuration from the specified file path
// If the file doesn't exist, returns default configuration without error
// If the file exists but is malformed, returns an error
func LoadConfig(path string) (*Config, error) {
	// Start with defaults
	cfg := DefaultConfig()

	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		// File doesn't exist, return defaults (not an error)
		return cfg, nil
	}

	// Read the file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	// Use a temporary struct to handle duration parsing
	type yamlRelevance struct {
		Endpoint     string `yaml:"endpoint"`
		PollInterval string `yaml:"poll_interval"`
		Command      string `yaml:"command"`
		AutoApply    bool   `yaml:"auto_apply"`
	}
	type yamlConfig struct {
		Backend        string        `yaml:"backend"`
		Endpoint       string        `yaml:"endpoint"`
		Pattern        string        `yaml:"pattern"`
		ExcludeDirs    []string      `yaml:"exclude_dirs"`
		IncludeStats   bool          `yaml:"include_stats"`
		RequestTimeout string        `yaml:"request_timeout"`
		MaxRetries     int           `yaml:"max_retries"`
		LogLevel       string        `yaml:"log_level"`
		LogDir         string        `yaml:"log_dir"`
		DatabasePath   string        `yaml:"db_path"`
		SessionFile    string        `yaml:"session_file"`
		WatchDebounce  string        `yaml:"watch_debounce"`
		Relevance      yamlRelevance `yaml:"relevance"`
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply non-zero values from file (merging with defaults)
	if yamlCfg.Backend != "" {
		cfg.Backend = yamlCfg.Backend
	}
	if yamlCfg.Endpoint != "" {
		cfg.Endpoint = yamlCfg.Endpoint
	}
	if yamlCfg.Pattern != "" {
		cfg.Pattern = yamlCfg.Pattern
	}
	if yamlCfg.RequestTimeout != "" {
		timeout, err := time.ParseDuration(yamlCfg.RequestTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid request_timeout format %q: %w", yamlCfg.RequestTimeout, err)
		}
		cfg.RequestTimeout = timeout
	}
	if yamlCfg.MaxRetries != 0 {
		cfg.MaxRetries = yamlCfg.MaxRetries
	}
	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}
	if yamlCfg.LogDir != "" {
		cfg.LogDir = yamlCfg.LogDir
	}
	if yamlCfg.DatabasePath != "" {
		cfg.DatabasePath = yamlCfg.DatabasePath
	}
	if yamlCfg.SessionFile != "" {
		cfg.SessionFile = yamlCfg.SessionFile
	}
	if yamlCfg.WatchDebounce != "" {
		debounce, err := time.ParseDuration(yamlCfg.WatchDebounce)
		if err != nil {
			return nil, fmt.Errorf("invalid watch_debounce format %q: %w", yamlCfg.WatchDebounce, err)
		}
		cfg.WatchDebounce = debounce
	}

	// Defaults that are true or non-empty can only be overridden when the key
	// is actually present, so detect presence from a raw unmarshal
	var rawMap map[string]interface{}
	if err := yaml.Unmarshal(data, &rawMap); err == nil {
		if _, exists := rawMap["include_stats"]; exists {
			cfg.IncludeStats = yamlCfg.IncludeStats
		}
		if _, exists := rawMap["exclude_dirs"]; exists {
			cfg.ExcludeDirs = yamlCfg.ExcludeDirs
		}

		if relevanceSection, exists := rawMap["relevance"]; exists && relevanceSection != nil {
			relevance := yamlCfg.Relevance
			relevanceMap, _ := relevanceSection.(map[string]interface{})

			if _, exists := relevanceMap["endpoint"]; exists {
				cfg.Relevance.Endpoint = relevance.Endpoint
			}
			if _, exists := relevanceMap["poll_interval"]; exists {
				interval, err := time.ParseDuration(relevance.PollInterval)
				if err != nil {
					return nil, fmt.Errorf("invalid relevance.poll_interval format %q: %w", relevance.PollInterval, err)
				}
				cfg.Relevance.PollInterval = interval
			}
			if _, exists := relevanceMap["command"]; exists {
				cfg.Relevance.Command = relevance.Command
			}
			if _, exists := relevanceMap["auto_apply"]; exists {
				cfg.Relevance.AutoApply = relevance.AutoApply
			}
		}
	}

	return cfg, nil
}

// LoadConfigFromDir loads configuration from .curator/config.yaml in the specified directory
// If the directory or file doesn't exist, returns default configuration without error
func LoadConfigFromDir(dir string) (*Config, error) {
	configPath := filepath.Join(dir, ".curator", "config.yaml")
	return LoadConfig(configPath)
}

// MergeWithFlags merges CLI flags into the configuration
// Non-nil flag values override configuration values
// This allows CLI flags to take precedence over config file settings
func (c *Config) MergeWithFlags(backend, endpoint, pattern *string, includeStats *bool, timeout *time.Duration, dbPath, sessionFile, logLevel, logDir *string) {
	if backend != nil {
		c.Backend = *backend
	}
	if endpoint != nil {
		c.Endpoint = *endpoint
	}
	if pattern != nil {
		c.Pattern = *pattern
	}
	if includeStats != nil {
		c.IncludeStats = *includeStats
	}
	if timeout != nil {
		c.RequestTimeout = *timeout
	}
	if dbPath != nil {
		c.DatabasePath = *dbPath
	}
	if sessionFile != nil {
		c.SessionFile = *sessionFile
	}
	if logLevel != nil {
		c.LogLevel = *logLevel
	}
	if logDir != nil {
		c.LogDir = *logDir
	}
}

// Validate validates the configuration values
// Returns an error if any values are invalid
func (c *Config) Validate() error {
	// Validate backend
	switch c.Backend {
	case BackendLocal:
	case BackendHTTP:
		if c.Endpoint == "" {
			return fmt.Errorf("endpoint is required for the http backend")
		}
	default:
		return fmt.Errorf("invalid backend %q, must be one of: local, http", c.Backend)
	}

	// Validate the listing pattern compiles
	if c.Pattern != "" {
		if _, err := regexp.Compile(c.Pattern); err != nil {
			return fmt.Errorf("invalid pattern %q: %w", c.Pattern, err)
		}
	}

	// Validate log_level
	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must be >= 0, got %v", c.RequestTimeout)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be >= 0, got %d", c.MaxRetries)
	}
	if c.WatchDebounce < 0 {
		return fmt.Errorf("watch_debounce must be >= 0, got %v", c.WatchDebounce)
	}

	// Session storage needs either a database or a session file
	if c.DatabasePath == "" && c.SessionFile == "" {
		return fmt.Errorf("db_path and session_file cannot both be empty")
	}

	if c.Relevance.PollInterval < 0 {
		return fmt.Errorf("relevance.poll_interval must be >= 0, got %v", c.Relevance.PollInterval)
	}

	return nil
}
