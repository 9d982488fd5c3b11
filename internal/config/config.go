package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/lambila-hdl/lambila/internal/logging"
)

// DefaultCacheDir is the snapshot cache directory, relative to the project root.
const DefaultCacheDir = ".lambila_cache"

// Config is the top-level configuration for lambila
type Config struct {
	// Verbosity is the log level: "error", "warning", "info", "debug" or "trace"
	Verbosity string `json:"verbosity,omitempty"`

	// Libraries maps library names to their configuration
	Libraries map[string]LibraryConfig `json:"libraries,omitempty"`

	// Lint contains linting rule configuration
	Lint LintConfig `json:"lint,omitempty"`

	// Analysis contains analysis options
	Analysis AnalysisConfig `json:"analysis,omitempty"`

	// path is the file the configuration was loaded from, empty for defaults
	path string
}

// LibraryConfig defines a VHDL library's files
type LibraryConfig struct {
	// Files is a list of glob patterns for VHDL files in this library
	Files []string `json:"files"`

	// Exclude is a list of glob patterns to exclude from this library
	Exclude []string `json:"exclude,omitempty"`
}

// LintConfig contains linting configuration
type LintConfig struct {
	// Rules maps rule names to severity: "off", "info", "warning", "error"
	Rules map[string]string `json:"rules,omitempty"`

	// IgnorePatterns is a list of file patterns whose violations are dropped
	IgnorePatterns []string `json:"ignorePatterns,omitempty"`

	// PolicyDir holds extra .rego modules loaded next to the built-in rules
	PolicyDir string `json:"policyDir,omitempty"`
}

// CacheConfig controls the snapshot cache
type CacheConfig struct {
	// Enabled turns on the snapshot cache and the refresh delta
	Enabled *bool `json:"enabled,omitempty"`

	// Dir is the cache directory (relative to project root if not absolute)
	Dir string `json:"dir,omitempty"`
}

// AnalysisConfig contains analysis options
type AnalysisConfig struct {
	// Timing writes per-file and per-stage timing events as JSONL
	Timing bool `json:"timing,omitempty"`

	// TimingPath is the JSONL destination; timing.jsonl under the project root when empty
	TimingPath string `json:"timingPath,omitempty"`

	// Policy runs the lint policy after every refresh
	Policy *bool `json:"policy,omitempty"`

	// Cache controls the snapshot cache
	Cache CacheConfig `json:"cache,omitempty"`
}

// DefaultConfig returns a sensible default configuration
func DefaultConfig() *Config {
	return &Config{
		Verbosity: "info",
		Libraries: map[string]LibraryConfig{
			"work": {
				Files:   []string{"*.vhd", "*.vhdl", "**/*.vhd", "**/*.vhdl"},
				Exclude: []string{},
			},
		},
		Lint: LintConfig{
			Rules:          map[string]string{},
			IgnorePatterns: []string{},
		},
		Analysis: AnalysisConfig{
			Policy: boolPtr(true),
			Cache: CacheConfig{
				Enabled: boolPtr(true),
				Dir:     DefaultCacheDir,
			},
		},
	}
}

func boolPtr(v bool) *bool {
	return &v
}

// configNames are the file names looked up in each search directory, in order.
var configNames = []string{"lambila.json", ".lambila.json", "lambila.hcl", ".lambila.hcl"}

// Load finds and loads the configuration file
// Search order:
//  1. ./lambila.json, ./.lambila.json, ./lambila.hcl, ./.lambila.hcl
//  2. the same names under rootPath (if different from cwd)
//  3. ~/.config/lambila/config.json, then config.hcl
//
// Returns DefaultConfig if no config file is found
func Load(rootPath string) (*Config, error) {
	cwd, _ := os.Getwd()

	var searchPaths []string
	for _, name := range configNames {
		searchPaths = append(searchPaths, filepath.Join(cwd, name))
	}

	if info, err := os.Stat(rootPath); err == nil && info.IsDir() {
		absRoot, _ := filepath.Abs(rootPath)
		if absRoot != cwd {
			for _, name := range configNames {
				searchPaths = append(searchPaths, filepath.Join(rootPath, name))
			}
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths,
			filepath.Join(home, ".config", "lambila", "config.json"),
			filepath.Join(home, ".config", "lambila", "config.hcl"),
		)
	}

	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}

	return DefaultConfig(), nil
}

// LoadFile loads configuration from a specific file. Files ending in .hcl
// are decoded as HCL, everything else as JSON.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg *Config
	if strings.EqualFold(filepath.Ext(path), ".hcl") {
		cfg, err = parseHCL(path, data)
	} else {
		cfg, err = parseJSON(data)
	}
	if err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if _, err := cfg.Level(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.path = path

	return cfg, nil
}

func parseJSON(data []byte) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return &cfg, nil
}

// applyDefaults fills in missing configuration with defaults
func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Verbosity == "" {
		c.Verbosity = def.Verbosity
	}
	if c.Libraries == nil {
		c.Libraries = def.Libraries
	}
	if c.Lint.Rules == nil {
		c.Lint.Rules = make(map[string]string)
	}
	if c.Analysis.Policy == nil {
		c.Analysis.Policy = boolPtr(true)
	}
	if c.Analysis.Cache.Dir == "" {
		c.Analysis.Cache.Dir = DefaultCacheDir
	}
	if c.Analysis.Cache.Enabled == nil {
		c.Analysis.Cache.Enabled = boolPtr(true)
	}
}

// Path returns the file the configuration came from, or "" for defaults.
func (c *Config) Path() string {
	return c.path
}

// Save writes the configuration to a file as JSON
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// Level returns the configured log level.
func (c *Config) Level() (slog.Level, error) {
	return logging.ParseLevel(c.Verbosity)
}

// CacheEnabled reports whether the snapshot cache is on.
func (c *Config) CacheEnabled() bool {
	return c.Analysis.Cache.Enabled == nil || *c.Analysis.Cache.Enabled
}

// CacheDir returns the cache directory resolved against rootPath.
func (c *Config) CacheDir(rootPath string) string {
	dir := c.Analysis.Cache.Dir
	if dir == "" {
		dir = DefaultCacheDir
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(rootPath, dir)
}

// PolicyEnabled reports whether lint policies run after a refresh.
func (c *Config) PolicyEnabled() bool {
	return c.Analysis.Policy == nil || *c.Analysis.Policy
}

// GetRuleSeverity returns the severity for a rule, or the default if not configured
func (c *Config) GetRuleSeverity(rule string, defaultSeverity string) string {
	if severity, ok := c.Lint.Rules[rule]; ok {
		return severity
	}
	return defaultSeverity
}

// IsRuleEnabled returns true if the rule is not set to "off"
func (c *Config) IsRuleEnabled(rule string) bool {
	if severity, ok := c.Lint.Rules[rule]; ok {
		return severity != "off"
	}
	return true // enabled by default
}

// ShouldIgnoreFile checks if a file's violations should be dropped
func (c *Config) ShouldIgnoreFile(filePath string) bool {
	for _, pattern := range c.Lint.IgnorePatterns {
		if MatchPattern(pattern, filePath) {
			return true
		}
	}
	return false
}
