// Package config provides configuration management for the model capability
// prober. It handles loading and parsing the YAML configuration file and
// provides structured access to application settings including the target
// endpoint, credentials, proxy configuration, and probe behavior.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default values applied when the configuration file omits a setting.
const (
	DefaultAPIBase        = "https://api.openai.com/v1"
	DefaultRequestTimeout = 60
	DefaultMaxConcurrency = 4
	DefaultMaxTokens      = 64
	DefaultPort           = 8317
)

// Config represents the application's configuration, loaded from a YAML file.
type Config struct {
	// APIBase is the base URL of the OpenAI-compatible endpoint to probe.
	APIBase string `yaml:"api-base" json:"api-base"`

	// APIKey is the bearer credential sent with every probe request.
	APIKey string `yaml:"api-key" json:"api-key"`

	// ProxyURL is the URL of an optional proxy server to use for outbound requests.
	ProxyURL string `yaml:"proxy-url" json:"proxy-url"`

	// RequestTimeout caps each individual probe call, in seconds. <= 0 disables
	// the per-call timeout.
	RequestTimeout int `yaml:"request-timeout" json:"request-timeout"`

	// MaxConcurrency bounds how many models are probed in parallel in bulk mode.
	MaxConcurrency int `yaml:"max-concurrency" json:"max-concurrency"`

	// MaxTokens is the completion budget requested by each probe. Probes only
	// need a token or two of output; keeping this small keeps quota cost low.
	MaxTokens int `yaml:"max-tokens" json:"max-tokens"`

	// RequestLog enables per-probe request/response trace files.
	RequestLog bool `yaml:"request-log" json:"request-log"`

	// LoggingToFile redirects application logs to rotating files instead of stdout.
	LoggingToFile bool `yaml:"logging-to-file" json:"logging-to-file"`

	// LogsMaxTotalSizeMB caps the total size of the logs directory. <= 0 disables cleanup.
	LogsMaxTotalSizeMB int64 `yaml:"logs-max-total-size-mb" json:"logs-max-total-size-mb"`

	// Port is the listen port for the report server (-serve mode).
	Port int `yaml:"port" json:"port"`

	// Debug enables debug-level logging.
	Debug bool `yaml:"debug" json:"debug"`
}

// Default returns a configuration populated with built-in defaults.
func Default() *Config {
	return &Config{
		APIBase:        DefaultAPIBase,
		RequestTimeout: DefaultRequestTimeout,
		MaxConcurrency: DefaultMaxConcurrency,
		MaxTokens:      DefaultMaxTokens,
		Port:           DefaultPort,
	}
}

// LoadConfig reads the YAML configuration from configFile and applies
// environment overrides. A missing file is not an error; defaults plus
// environment variables are returned instead, matching CLI usage where no
// config file exists yet.
func LoadConfig(configFile string) (*Config, error) {
	cfg := Default()
	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("config: failed to read %s: %w", configFile, err)
			}
		} else if err = yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: failed to parse %s: %w", configFile, err)
		}
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

// applyEnv overlays the OpenAI-style environment variables over file values.
// Environment wins so that CI and one-off shells can retarget the prober
// without editing the config file.
func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); v != "" {
		c.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("OPENAI_API_BASE")); v != "" {
		c.APIBase = v
	}
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.APIBase) == "" {
		c.APIBase = DefaultAPIBase
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = DefaultMaxConcurrency
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Port <= 0 {
		c.Port = DefaultPort
	}
}

// Validate reports whether the configuration is sufficient to reach an
// endpoint. The API key requirement matches the upstream protocol; some
// self-hosted endpoints accept any key, but the header must still be present.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIBase) == "" {
		return fmt.Errorf("config: api-base is required")
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("config: api-key is required (set api-key or OPENAI_API_KEY)")
	}
	return nil
}
