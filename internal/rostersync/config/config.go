// Package config loads the rostersync TOML configuration. Values from a .env file
// and ROSTERSYNC_* environment variables take precedence over the file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"
	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/rs/zerolog"
)

// ConfigFormatVersion is the current version of the configuration file format.
const ConfigFormatVersion = "0.1.0"

// supportedFormats accepts every file written for the current minor format.
const supportedFormats = ">= 0.1.0, < 0.2.0"

// EnvPrefix marks environment variables that override config values. A double
// underscore separates a table from its key, e.g. ROSTERSYNC_ACTION_LOG__PATH.
const EnvPrefix = "ROSTERSYNC_"

// EnvConfigFile names the config file when no path is given explicitly.
const EnvConfigFile = EnvPrefix + "CONFIG"

// ActionLogConfig holds action log settings. An empty path disables the log.
type ActionLogConfig struct {
	Path          string `toml:"path"`
	FlushInterval int    `toml:"flush_interval"`
}

// ServerConfig holds settings of the reference REST server.
type ServerConfig struct {
	Port       string `toml:"port"`
	HandleCORS bool   `toml:"handle_cors"`
}

// ConfigParam holds all configuration parameters.
type ConfigParam struct {
	FormatVersion  string          `toml:"format_version"`
	ServerURL      string          `toml:"server_url"` // base URL of the REST API, e.g. http://localhost:8080/rest
	APIKey         string          `toml:"api_key"`
	Token          string          `toml:"token"` // preferred over api_key until it expires
	TenantID       int             `toml:"tenant_id"`
	RequestTimeout string          `toml:"request_timeout"`
	RetryAttempts  uint            `toml:"retry_attempts"`
	LogLevel       string          `toml:"log_level"`
	ActionLog      ActionLogConfig `toml:"action_log"`
	Server         ServerConfig    `toml:"server"`

	requestTimeout time.Duration
}

var cfg *ConfigParam

// Config returns the configuration loaded last.
func Config() *ConfigParam {
	return cfg
}

// Default returns the configuration used when no file is present.
func Default() *ConfigParam {
	return &ConfigParam{
		FormatVersion:  ConfigFormatVersion,
		ServerURL:      "http://localhost:8080/rest",
		RequestTimeout: "10s",
		RetryAttempts:  3,
		LogLevel:       "info",
		ActionLog:      ActionLogConfig{FlushInterval: 1},
		Server:         ServerConfig{Port: "8080"},
	}
}

func (c *ConfigParam) GetServerURL() string { return c.ServerURL }
func (c *ConfigParam) GetAPIKey() string    { return c.APIKey }
func (c *ConfigParam) GetToken() string     { return c.Token }

// GetTokenExpiry returns the zero time; the client reads the expiry from the token.
func (c *ConfigParam) GetTokenExpiry() time.Time { return time.Time{} }

// GetRequestTimeout returns the parsed request_timeout. Valid after ValidateConfig.
func (c *ConfigParam) GetRequestTimeout() time.Duration { return c.requestTimeout }

// ValidateConfig checks the configuration and fills in defaults for optional values.
func ValidateConfig(cfg *ConfigParam) error {
	if cfg.FormatVersion == "" {
		return fmt.Errorf("format_version is required")
	}
	v, err := semver.NewVersion(cfg.FormatVersion)
	if err != nil {
		return fmt.Errorf("invalid format_version %q: %v", cfg.FormatVersion, err)
	}
	constraint, err := semver.NewConstraint(supportedFormats)
	if err != nil {
		return err
	}
	if !constraint.Check(v) {
		return fmt.Errorf("unsupported config file format version: %s", cfg.FormatVersion)
	}

	if cfg.ServerURL == "" {
		return fmt.Errorf("server_url is required")
	}
	u, err := url.Parse(cfg.ServerURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("server_url must be an http or https URL: %q", cfg.ServerURL)
	}

	if cfg.TenantID < 0 {
		return fmt.Errorf("tenant_id must not be negative")
	}

	if cfg.RequestTimeout == "" {
		cfg.RequestTimeout = "10s"
	}
	cfg.requestTimeout, err = time.ParseDuration(cfg.RequestTimeout)
	if err != nil || cfg.requestTimeout <= 0 {
		return fmt.Errorf("invalid request_timeout: %q", cfg.RequestTimeout)
	}

	if cfg.RetryAttempts == 0 {
		cfg.RetryAttempts = 1
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %q", cfg.LogLevel)
	}

	if cfg.ActionLog.FlushInterval < 1 {
		cfg.ActionLog.FlushInterval = 1
	}
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	return nil
}

// LoadConfig reads filename, applies overrides from envFile (if it exists) and the
// process environment, then validates the result. An empty filename starts from
// Default.
func LoadConfig(filename, envFile string) (*ConfigParam, error) {
	c := Default()
	if filename != "" {
		content, err := os.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %v", err)
		}
		c = &ConfigParam{}
		if _, err := toml.Decode(string(content), c); err != nil {
			return nil, fmt.Errorf("error parsing config file: %v", err)
		}
	}

	env, err := readEnv(envFile)
	if err != nil {
		return nil, err
	}
	if err := ApplyEnv(c, env); err != nil {
		return nil, err
	}

	if err := ValidateConfig(c); err != nil {
		return nil, fmt.Errorf("invalid configuration: %v", err)
	}
	cfg = c
	return c, nil
}

// readEnv merges the .env file with the process environment, which wins.
func readEnv(envFile string) (map[string]string, error) {
	env := map[string]string{}
	if envFile != "" {
		fromFile, err := godotenv.Read(envFile)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("error reading env file: %v", err)
		}
		for k, v := range fromFile {
			env[k] = v
		}
	}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env, nil
}

// ApplyEnv overrides values in c with the ROSTERSYNC_* entries of env.
func ApplyEnv(c *ConfigParam, env map[string]string) error {
	overrides := map[string]any{}
	for k, v := range env {
		if !strings.HasPrefix(k, EnvPrefix) || k == EnvConfigFile {
			continue
		}
		key := strings.ToLower(strings.TrimPrefix(k, EnvPrefix))
		table, field, nested := strings.Cut(key, "__")
		if !nested {
			overrides[key] = v
			continue
		}
		t, ok := overrides[table].(map[string]any)
		if !ok {
			t = map[string]any{}
			overrides[table] = t
		}
		t[field] = v
	}
	if len(overrides) == 0 {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "toml",
		WeaklyTypedInput: true,
		Result:           c,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(overrides); err != nil {
		return fmt.Errorf("invalid environment override: %v", err)
	}
	return nil
}
