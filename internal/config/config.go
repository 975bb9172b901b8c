// Package config loads ~/.confchat/config.toml and its environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v2"
)

// Environment variables that override the file.
const (
	EnvAPIURL     = "CONFCHAT_API_URL"
	EnvToken      = "CONFCHAT_TOKEN"
	EnvAuthScheme = "CONFCHAT_AUTH_SCHEME"
	EnvLogLevel   = "CONFCHAT_LOG_LEVEL"
)

// Defaults.
const (
	DefaultAuthScheme     = "twa"
	DefaultPollInterval   = 3 * time.Second
	DefaultMessageLimit   = 50
	DefaultRequestTimeout = 30 * time.Second
	DefaultLogLevel       = "info"
)

// Duration is a time.Duration written as a string such as "3s".
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

// Config represents the global ~/.confchat/config.toml.
type Config struct {
	DefaultSession string   `toml:"default_session" yaml:"default_session"`
	APIURL         string   `toml:"api_url" yaml:"api_url"`
	AuthScheme     string   `toml:"auth_scheme" yaml:"auth_scheme"`
	Token          string   `toml:"token" yaml:"token"`
	PollInterval   Duration `toml:"poll_interval" yaml:"poll_interval"`
	MessageLimit   int      `toml:"message_limit" yaml:"message_limit"`
	RequestTimeout Duration `toml:"request_timeout" yaml:"request_timeout"`
	LogLevel       string   `toml:"log_level" yaml:"log_level"`
}

// Default returns a config with every optional field set.
func Default() *Config {
	return &Config{
		AuthScheme:     DefaultAuthScheme,
		PollInterval:   Duration{DefaultPollInterval},
		MessageLimit:   DefaultMessageLimit,
		RequestTimeout: Duration{DefaultRequestTimeout},
		LogLevel:       DefaultLogLevel,
	}
}

// Load reads config from the given path on top of the defaults. Files ending
// in .yaml or .yml are decoded as YAML, anything else as TOML. Returns an
// error wrapping fs.ErrNotExist if the file is missing.
func Load(path string) (*Config, error) {
	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	default:
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	}
	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields the defaults.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// LoadDotEnv loads KEY=value files into the process environment. Variables
// already set win, and missing files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides fields from the environment. lookup is usually
// os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvAPIURL); ok && v != "" {
		c.APIURL = v
	}
	if v, ok := lookup(EnvToken); ok && v != "" {
		c.Token = v
	}
	if v, ok := lookup(EnvAuthScheme); ok && v != "" {
		c.AuthScheme = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.LogLevel = v
	}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("api_url is not set (config file or %s)", EnvAPIURL)
	}
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid api_url %q", c.APIURL)
	}
	if c.PollInterval.Duration <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval)
	}
	if c.RequestTimeout.Duration <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout)
	}
	if c.MessageLimit <= 0 {
		return fmt.Errorf("message_limit must be positive, got %d", c.MessageLimit)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	return nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
