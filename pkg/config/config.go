// Package config loads storefront client settings from a YAML file, an
// optional .env file and GOSHOP_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/NicolasHaas/goshop/pkg/crypto"
	"github.com/NicolasHaas/goshop/pkg/logging"
)

const FileName = "goshop.yaml"

// Environment variables that override the file.
const (
	EnvAPIURL    = "GOSHOP_API_URL"
	EnvDataDir   = "GOSHOP_DATA_DIR"
	EnvLogLevel  = "GOSHOP_LOG_LEVEL"
	EnvLogFormat = "GOSHOP_LOG_FORMAT"
	EnvTimeout   = "GOSHOP_TIMEOUT"
	EnvSecret    = "GOSHOP_SECRET"
	EnvSeal      = "GOSHOP_SEAL_METHOD"
)

// Config stores client settings persisted as YAML next to the binary.
type Config struct {
	APIURL     string        `yaml:"api_url"`
	DataDir    string        `yaml:"data_dir"`
	LogLevel   string        `yaml:"log_level"`
	LogFormat  string        `yaml:"log_format"`
	Timeout    time.Duration `yaml:"timeout"`
	SealMethod string        `yaml:"seal_method,omitempty"`

	// Secret seals the stored auth token. Only read from the environment.
	Secret string `yaml:"-"`

	path string
}

// Default returns default settings.
func Default() *Config {
	return &Config{
		APIURL:    "http://localhost:8080/api",
		DataDir:   ".",
		LogLevel:  "info",
		LogFormat: "text",
		Timeout:   15 * time.Second,
	}
}

// DefaultPath is goshop.yaml next to the executable.
func DefaultPath() string {
	exe, err := os.Executable()
	if err != nil {
		return FileName
	}
	return filepath.Join(filepath.Dir(exe), FileName)
}

// Load reads the YAML file at path (DefaultPath when empty), then applies
// environment overrides. A missing file yields defaults; an unreadable one
// is logged and ignored.
func Load(path string) *Config {
	if path == "" {
		path = DefaultPath()
	}
	c := Default()
	c.path = path

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		slog.Warn("read config", "path", path, "err", err)
	default:
		if err := yaml.Unmarshal(data, c); err != nil {
			slog.Error("parse config", "path", path, "err", err)
			c = Default()
			c.path = path
		}
	}

	c.ApplyEnv(os.LookupEnv)
	return c
}

// LoadDotEnv loads KEY=VALUE pairs from files into the process
// environment without overriding variables that are already set. Missing
// files are skipped.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides fields from GOSHOP_* variables. Bad durations are
// logged and skipped.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	str(EnvAPIURL, &c.APIURL)
	str(EnvDataDir, &c.DataDir)
	str(EnvLogLevel, &c.LogLevel)
	str(EnvLogFormat, &c.LogFormat)
	str(EnvSeal, &c.SealMethod)
	if v, ok := lookup(EnvSecret); ok {
		c.Secret = v
	}
	if v, ok := lookup(EnvTimeout); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Warn("ignoring bad timeout", "env", EnvTimeout, "value", v, "err", err)
		} else {
			c.Timeout = d
		}
	}
}

// Validate checks the settings are usable.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return fmt.Errorf("config: api_url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("config: api_url %q must be an absolute http(s) URL", c.APIURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("config: timeout must be positive, got %s", c.Timeout)
	}
	if err := logging.Validate(c.LogLevel); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := crypto.ParseMethod(c.SealMethod); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// BaseURL returns the parsed API root.
func (c *Config) BaseURL() (url.URL, error) {
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return url.URL{}, fmt.Errorf("config: api_url: %w", err)
	}
	return *u, nil
}

// SessionPath is the SQLite file that holds the persisted session.
func (c *Config) SessionPath() string {
	return filepath.Join(c.DataDir, "session.db")
}

// Path is the file Save writes to.
func (c *Config) Path() string {
	if c.path == "" {
		return DefaultPath()
	}
	return c.path
}

// Save writes settings to YAML.
func (c *Config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(c.Path(), data, 0600)
}
