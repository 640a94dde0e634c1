// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jonathan/graphql-reader/internal/query"
)

// Defaults applied by MergeWithDefaults when no other value is given.
const (
	DefaultRows           = 25
	DefaultConcurrency    = 1
	DefaultTimeoutSeconds = 30
)

// Config represents the reader configuration that can be loaded from a JSON or
// YAML file. Missing values are filled from CLI flags and defaults.
type Config struct {
	// GraphQL source
	Endpoint  string            `json:"endpoint,omitempty" yaml:"endpoint,omitempty" validate:"required,url"`
	Headers   map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Query     string            `json:"query,omitempty" yaml:"query,omitempty"`
	QueryFile string            `json:"query_file,omitempty" yaml:"query_file,omitempty"` // Path to a .graphql file
	Fields    string            `json:"fields,omitempty" yaml:"fields,omitempty" validate:"required"`

	// Document shape
	TextFields     []string `json:"text_fields,omitempty" yaml:"text_fields,omitempty" validate:"dive,required"`
	MetadataFields []string `json:"metadata_fields,omitempty" yaml:"metadata_fields,omitempty" validate:"dive,required"`

	// Pagination; nil means the query is sent as written
	Page *int `json:"page,omitempty" yaml:"page,omitempty" validate:"omitempty,min=0"`
	Rows *int `json:"rows,omitempty" yaml:"rows,omitempty"`

	// Behavior
	Concurrency     int    `json:"concurrency,omitempty" yaml:"concurrency,omitempty" validate:"min=0,max=64"`
	TimeoutSeconds  int    `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty" validate:"min=0"`
	UserAgent       string `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
	MainContentOnly bool   `json:"main_content_only,omitempty" yaml:"main_content_only,omitempty"` // Keep only the main content of dereferenced pages
	UseBrowser      bool   `json:"use_browser,omitempty" yaml:"use_browser,omitempty"`             // Render dereferenced pages in headless Chrome
	Verbose         bool   `json:"verbose,omitempty" yaml:"verbose,omitempty"`

	// Output
	Output      string `json:"output,omitempty" yaml:"output,omitempty"`             // Output directory
	Format      string `json:"format,omitempty" yaml:"format,omitempty" validate:"omitempty,oneof=json jsonl"`
	DatabaseURL string `json:"database_url,omitempty" yaml:"database_url,omitempty"` // PostgreSQL connection URL
}

// LoadConfig loads configuration from a JSON or YAML file, chosen by extension.
// Header values and the database URL are expanded against the environment.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	// query_file is relative to the config file
	if cfg.QueryFile != "" && !filepath.IsAbs(cfg.QueryFile) {
		cfg.QueryFile = filepath.Join(filepath.Dir(path), cfg.QueryFile)
	}

	cfg.ExpandEnv()
	return &cfg, nil
}

// ExpandEnv replaces ${VAR} references in header values and the database URL.
func (c *Config) ExpandEnv() {
	for k, v := range c.Headers {
		c.Headers[k] = os.ExpandEnv(v)
	}
	c.DatabaseURL = os.ExpandEnv(c.DatabaseURL)
}

// Validate checks that the configuration is complete and consistent.
// It is meant to run after CLI flags and defaults have been merged.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	if len(c.TextFields) == 0 && len(c.MetadataFields) == 0 {
		return fmt.Errorf("config error: at least one of 'text_fields' or 'metadata_fields' is required")
	}

	if c.Query != "" && c.QueryFile != "" {
		return fmt.Errorf("config error: 'query' and 'query_file' are mutually exclusive")
	}
	if c.Query == "" && c.QueryFile == "" {
		return fmt.Errorf("config error: one of 'query' or 'query_file' is required")
	}
	if c.QueryFile != "" {
		if _, err := os.Stat(c.QueryFile); os.IsNotExist(err) {
			return fmt.Errorf("config error: query file not found: %s", c.QueryFile)
		}
	}

	if (c.Page == nil) != (c.Rows == nil) {
		return fmt.Errorf("config error: 'page' and 'rows' must be set together")
	}
	if c.Rows != nil && *c.Rows < 1 {
		return fmt.Errorf("config error: 'rows' must be positive")
	}

	return nil
}

// MergeWithDefaults returns a new Config with zero-valued fields filled from defaults.
// Rows only defaults when a page is requested so unpaginated queries stay untouched.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.Endpoint == "" {
		result.Endpoint = defaults.Endpoint
	}
	if result.Query == "" && result.QueryFile == "" {
		result.Query = defaults.Query
		result.QueryFile = defaults.QueryFile
	}
	if result.Fields == "" {
		result.Fields = defaults.Fields
	}
	if result.UserAgent == "" {
		result.UserAgent = defaults.UserAgent
	}
	if result.Output == "" {
		result.Output = defaults.Output
	}
	if result.Format == "" {
		result.Format = defaults.Format
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}

	// Slices and maps
	if len(result.TextFields) == 0 {
		result.TextFields = defaults.TextFields
	}
	if len(result.MetadataFields) == 0 {
		result.MetadataFields = defaults.MetadataFields
	}
	if len(defaults.Headers) > 0 {
		merged := make(map[string]string, len(defaults.Headers)+len(result.Headers))
		for k, v := range defaults.Headers {
			merged[k] = v
		}
		for k, v := range result.Headers {
			merged[k] = v
		}
		result.Headers = merged
	}

	// Pagination
	if result.Page == nil {
		result.Page = defaults.Page
	}
	if result.Rows == nil {
		result.Rows = defaults.Rows
	}
	if result.Page != nil && result.Rows == nil {
		rows := DefaultRows
		result.Rows = &rows
	}

	// Int fields: use default if zero
	if result.Concurrency == 0 {
		result.Concurrency = defaults.Concurrency
	}
	if result.Concurrency == 0 {
		result.Concurrency = DefaultConcurrency
	}
	if result.TimeoutSeconds == 0 {
		result.TimeoutSeconds = defaults.TimeoutSeconds
	}
	if result.TimeoutSeconds == 0 {
		result.TimeoutSeconds = DefaultTimeoutSeconds
	}

	// Bool fields: cannot distinguish unset from false, so a true on either side wins
	result.MainContentOnly = result.MainContentOnly || defaults.MainContentOnly
	result.UseBrowser = result.UseBrowser || defaults.UseBrowser
	result.Verbose = result.Verbose || defaults.Verbose

	return result
}

// Pagination returns the requested page window, or nil when the query is unpaginated.
func (c *Config) Pagination() *query.Pagination {
	if c.Page == nil || c.Rows == nil {
		return nil
	}
	return &query.Pagination{Page: *c.Page, Rows: *c.Rows}
}

// Timeout returns the HTTP timeout.
func (c *Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return DefaultTimeoutSeconds * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ResolveQuery returns the GraphQL query text, reading query_file when set.
func (c *Config) ResolveQuery() (string, error) {
	if c.QueryFile == "" {
		return c.Query, nil
	}
	data, err := os.ReadFile(c.QueryFile)
	if err != nil {
		return "", fmt.Errorf("failed to read query file %s: %w", c.QueryFile, err)
	}
	q := strings.TrimSpace(string(data))
	if q == "" {
		return "", fmt.Errorf("query file %s is empty", c.QueryFile)
	}
	return q, nil
}
