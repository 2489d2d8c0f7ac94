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
)

// Config holds all configuration options for the Truth Social scraper
type Config struct {
	// Platform connection and credentials
	TruthSocial TruthSocialConfig `yaml:"truthsocial" json:"truthsocial"`

	// Server-driven rate limit policy
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Media attachment download settings
	Media MediaConfig `yaml:"media" json:"media"`

	// Export artifact settings
	Export ExportConfig `yaml:"export" json:"export"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// TruthSocialConfig holds platform-specific configuration
type TruthSocialConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
	// Token bypasses the password grant entirely when set.
	Token      string        `yaml:"token" json:"token"`
	BaseURL    string        `yaml:"base_url" json:"base_url"`
	Timeout    time.Duration `yaml:"timeout" json:"timeout"`
	UserAgents []string      `yaml:"user_agents" json:"user_agents"`
}

// RateLimitConfig holds the thresholds for the server-driven rate governor
type RateLimitConfig struct {
	// RemainingThreshold is the remaining-quota level at or below which the
	// client sleeps until the server-reported reset.
	RemainingThreshold int `yaml:"remaining_threshold" json:"remaining_threshold"`
	// FallbackSleep is used when the reset timestamp is already in the past.
	FallbackSleep time.Duration `yaml:"fallback_sleep" json:"fallback_sleep"`
}

// MediaConfig holds media attachment download configuration
type MediaConfig struct {
	ConcurrentDownloads int           `yaml:"concurrent_downloads" json:"concurrent_downloads"`
	DownloadTimeout     time.Duration `yaml:"download_timeout" json:"download_timeout"`
	Directory           string        `yaml:"directory" json:"directory"`
}

// ExportConfig holds export artifact configuration
type ExportConfig struct {
	Directory string `yaml:"directory" json:"directory"`
	Format    string `yaml:"format" json:"format"` // jsonl, json or csv
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		TruthSocial: TruthSocialConfig{
			BaseURL: "https://truthsocial.com/api",
			Timeout: 30 * time.Second,
		},
		RateLimit: RateLimitConfig{
			RemainingThreshold: 50,
			FallbackSleep:      10 * time.Second,
		},
		Media: MediaConfig{
			ConcurrentDownloads: 3,
			DownloadTimeout:     30 * time.Second,
			Directory:           "./media",
		},
		Export: ExportConfig{
			Directory: "./outputs",
			Format:    "jsonl",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables. A .env file in
// the working directory is honored first, matching the original tooling.
func (c *Config) LoadFromEnv() error {
	// Missing .env is fine; explicit env vars still apply.
	_ = godotenv.Load()

	if username := os.Getenv("TRUTHSCRAPER_USERNAME"); username != "" {
		c.TruthSocial.Username = username
	}
	if password := os.Getenv("TRUTHSCRAPER_PASSWORD"); password != "" {
		c.TruthSocial.Password = password
	}
	if token := os.Getenv("TRUTHSCRAPER_TOKEN"); token != "" {
		c.TruthSocial.Token = token
	}
	if base := os.Getenv("TRUTHSCRAPER_BASE_URL"); base != "" {
		c.TruthSocial.BaseURL = base
	}
	if threshold := os.Getenv("TRUTHSCRAPER_RATELIMIT_THRESHOLD"); threshold != "" {
		if val, err := strconv.Atoi(threshold); err == nil && val >= 0 {
			c.RateLimit.RemainingThreshold = val
		}
	}
	if dir := os.Getenv("TRUTHSCRAPER_EXPORT_DIR"); dir != "" {
		c.Export.Directory = dir
	}
	if concurrent := os.Getenv("TRUTHSCRAPER_CONCURRENT_DOWNLOADS"); concurrent != "" {
		if val, err := strconv.Atoi(concurrent); err == nil && val > 0 {
			c.Media.ConcurrentDownloads = val
		}
	}
	if logLevel := os.Getenv("TRUTHSCRAPER_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
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
	locations := []string{
		".truthscraper.yaml",
		".truthscraper.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "truthscraper", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "truthscraper", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".truthscraper.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid. Credential validation fails
// closed: either a token, or both username and password, must be present.
func (c *Config) Validate() error {
	var errs []error

	if c.TruthSocial.Token == "" {
		if c.TruthSocial.Username == "" || c.TruthSocial.Password == "" {
			errs = append(errs, errors.New("either a token or both username and password are required"))
		}
	}
	if c.TruthSocial.BaseURL == "" {
		errs = append(errs, errors.New("base URL is required"))
	}
	if c.RateLimit.RemainingThreshold < 0 {
		errs = append(errs, errors.New("rate limit threshold must not be negative"))
	}
	if c.RateLimit.FallbackSleep <= 0 {
		errs = append(errs, errors.New("rate limit fallback sleep must be positive"))
	}
	if c.Media.ConcurrentDownloads <= 0 {
		errs = append(errs, errors.New("concurrent downloads must be positive"))
	}
	switch c.Export.Format {
	case "jsonl", "json", "csv":
	default:
		errs = append(errs, fmt.Errorf("unknown export format: %s", c.Export.Format))
	}

	if len(errs) > 0 {
		var msgs []string
		for _, err := range errs {
			msgs = append(msgs, err.Error())
		}
		return fmt.Errorf("config validation failed: %s", strings.Join(msgs, "; "))
	}

	return nil
}

// Save writes the configuration to a YAML file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags applies command line flag overrides
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	for key, value := range flags {
		switch key {
		case "username":
			if v, ok := value.(string); ok && v != "" {
				c.TruthSocial.Username = v
			}
		case "password":
			if v, ok := value.(string); ok && v != "" {
				c.TruthSocial.Password = v
			}
		case "token":
			if v, ok := value.(string); ok && v != "" {
				c.TruthSocial.Token = v
			}
		case "base-url":
			if v, ok := value.(string); ok && v != "" {
				c.TruthSocial.BaseURL = v
			}
		case "export-dir":
			if v, ok := value.(string); ok && v != "" {
				c.Export.Directory = v
			}
		case "format":
			if v, ok := value.(string); ok && v != "" {
				c.Export.Format = v
			}
		case "concurrent-downloads":
			if v, ok := value.(int); ok && v > 0 {
				c.Media.ConcurrentDownloads = v
			}
		case "log-level":
			if v, ok := value.(string); ok && v != "" {
				c.Logging.Level = v
			}
		}
	}
}

// Load builds the effective configuration: defaults, then config file, then
// environment, then command line flags.
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	cfg := DefaultConfig()

	if err := cfg.LoadFromFile(configPath); err != nil {
		return nil, err
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, err
	}
	cfg.MergeCommandLineFlags(flags)

	return cfg, nil
}
