package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"sancg/pkg/models"
)

// Naming modes for downloaded files
const (
	NamingDisplay    = "display"
	NamingIdentifier = "identifier"
)

// Config holds all configuration options for the crawler
type Config struct {
	// Site layout and request settings
	Site SiteConfig `yaml:"site" json:"site"`

	// Listing pages to crawl, in order
	Batches []models.Batch `yaml:"batches" json:"batches"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Request pacing
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// SiteConfig describes how to request and read the wiki pages
type SiteConfig struct {
	UserAgent       string        `yaml:"user_agent" json:"user_agent"`
	Timeout         time.Duration `yaml:"timeout" json:"timeout"`
	ExcerptSelector string        `yaml:"excerpt_selector" json:"excerpt_selector"`
	HeaderSelector  string        `yaml:"header_selector" json:"header_selector"`
	CardSelector    string        `yaml:"card_selector" json:"card_selector"`
	ScriptProfile   string        `yaml:"script_profile" json:"script_profile"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory       string `yaml:"base_directory" json:"base_directory"`
	DisplayDirectory    string `yaml:"display_directory" json:"display_directory"`
	IdentifierDirectory string `yaml:"identifier_directory" json:"identifier_directory"`
	Naming              string `yaml:"naming" json:"naming"`
	Extension           string `yaml:"extension" json:"extension"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	Timeout         time.Duration `yaml:"timeout" json:"timeout"`
	ContinueOnError bool          `yaml:"continue_on_error" json:"continue_on_error"`
}

// RateLimitConfig holds request pacing configuration. Zero disables pacing.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	File   string `yaml:"file" json:"file"`
}

// DefaultBatches are the listing pages the crawler was built for.
// The first tag breaks the numbering pattern of the others; tags are opaque.
func DefaultBatches() []models.Batch {
	return []models.Batch{
		{Version: "39", ListingURL: "http://san.nobuwiki.org/sancg/san09"},
		{Version: "310", ListingURL: "http://san.nobuwiki.org/sancg/san10"},
		{Version: "311", ListingURL: "http://san.nobuwiki.org/sancg/san11"},
		{Version: "312", ListingURL: "http://san.nobuwiki.org/sancg/san12"},
		{Version: "313", ListingURL: "http://san.nobuwiki.org/sancg/san13"},
	}
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			UserAgent:       "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
			Timeout:         30 * time.Second,
			ExcerptSelector: ".excerpt",
			HeaderSelector:  "header",
			CardSelector:    ".nb_14pk_240",
			ScriptProfile:   "t2s",
		},
		Batches: DefaultBatches(),
		Output: OutputConfig{
			BaseDirectory:       ".",
			DisplayDirectory:    "{version}_s",
			IdentifierDirectory: "{version}",
			Naming:              NamingDisplay,
			Extension:           ".jpg",
		},
		Download: DownloadConfig{
			Timeout:         60 * time.Second,
			ContinueOnError: true,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 0,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			File:   "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if userAgent := os.Getenv("SANCG_USER_AGENT"); userAgent != "" {
		c.Site.UserAgent = userAgent
	}
	if profile := os.Getenv("SANCG_SCRIPT_PROFILE"); profile != "" {
		c.Site.ScriptProfile = profile
	}

	if outputDir := os.Getenv("SANCG_OUTPUT_DIR"); outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if naming := os.Getenv("SANCG_NAMING"); naming != "" {
		c.Output.Naming = strings.ToLower(naming)
	}

	if cont := os.Getenv("SANCG_CONTINUE_ON_ERROR"); cont != "" {
		val, err := strconv.ParseBool(cont)
		if err != nil {
			return fmt.Errorf("invalid SANCG_CONTINUE_ON_ERROR %q: %w", cont, err)
		}
		c.Download.ContinueOnError = val
	}

	if rpm := os.Getenv("SANCG_REQUESTS_PER_MINUTE"); rpm != "" {
		val, err := strconv.Atoi(rpm)
		if err != nil {
			return fmt.Errorf("invalid SANCG_REQUESTS_PER_MINUTE %q: %w", rpm, err)
		}
		c.RateLimit.RequestsPerMinute = val
	}

	if logLevel := os.Getenv("SANCG_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile := os.Getenv("SANCG_LOG_FILE"); logFile != "" {
		c.Logging.File = logFile
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		"sancg.yaml",
		".sancg.yaml",
		".sancg.yml",
		filepath.Join(home, ".config", "sancg", "config.yaml"),
		filepath.Join(home, ".sancg.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Site.CardSelector == "" {
		errs = append(errs, errors.New("card selector is required"))
	}
	if c.Site.ExcerptSelector == "" {
		errs = append(errs, errors.New("excerpt selector is required"))
	}
	if c.Site.HeaderSelector == "" {
		errs = append(errs, errors.New("header selector is required"))
	}
	if c.Site.Timeout <= 0 {
		errs = append(errs, errors.New("site timeout must be positive"))
	}

	if len(c.Batches) == 0 {
		errs = append(errs, errors.New("at least one batch is required"))
	}
	seen := make(map[string]bool)
	for i, b := range c.Batches {
		if b.Version == "" {
			errs = append(errs, fmt.Errorf("batch %d: version is required", i))
		}
		if b.ListingURL == "" {
			errs = append(errs, fmt.Errorf("batch %d: listing url is required", i))
		}
		if seen[b.Version] {
			errs = append(errs, fmt.Errorf("batch %d: duplicate version %q", i, b.Version))
		}
		seen[b.Version] = true
	}

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	switch c.Output.Naming {
	case NamingDisplay, NamingIdentifier:
	default:
		errs = append(errs, fmt.Errorf("invalid naming mode %q", c.Output.Naming))
	}
	if !strings.Contains(c.Output.DisplayDirectory, "{version}") {
		errs = append(errs, errors.New("display directory must contain {version}"))
	}
	if !strings.Contains(c.Output.IdentifierDirectory, "{version}") {
		errs = append(errs, errors.New("identifier directory must contain {version}"))
	}

	if c.Download.Timeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}
	if c.RateLimit.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests per minute cannot be negative"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}
	if f := strings.ToLower(c.Logging.Format); f != "text" && f != "json" {
		errs = append(errs, errors.New("invalid log format"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if naming, ok := flags["naming"].(string); ok && naming != "" {
		c.Output.Naming = strings.ToLower(naming)
	}
	if cont, ok := flags["continue-on-error"].(bool); ok {
		c.Download.ContinueOnError = cont
	}
	if rpm, ok := flags["rate-limit"].(int); ok && rpm >= 0 {
		c.RateLimit.RequestsPerMinute = rpm
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if only, ok := flags["only"].([]string); ok && len(only) > 0 {
		c.Batches = FilterBatches(c.Batches, only)
	}
}

// FilterBatches keeps the batches whose version is listed, in config order
func FilterBatches(batches []models.Batch, versions []string) []models.Batch {
	want := make(map[string]bool, len(versions))
	for _, v := range versions {
		want[strings.TrimSpace(v)] = true
	}

	var out []models.Batch
	for _, b := range batches {
		if want[b.Version] {
			out = append(out, b)
		}
	}
	return out
}

// ExpandDirectory substitutes version into a directory pattern
func ExpandDirectory(pattern, version string) string {
	return strings.ReplaceAll(pattern, "{version}", version)
}

// PatternFor returns the directory pattern used by a naming mode
func (o OutputConfig) PatternFor(naming string) string {
	if naming == NamingIdentifier {
		return o.IdentifierDirectory
	}
	return o.DisplayDirectory
}

// DirectoryFor expands a directory pattern for a version under the base directory
func (o OutputConfig) DirectoryFor(pattern, version string) string {
	return filepath.Join(o.BaseDirectory, ExpandDirectory(pattern, version))
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".sancg.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
