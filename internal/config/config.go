// Package config loads blobload settings from flags, the environment, and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/meigma/assetblob"
	"github.com/meigma/assetblob/objects"
)

// EnvPrefix prefixes every environment variable, e.g. BLOBLOAD_BASE_URL.
const EnvPrefix = "BLOBLOAD"

// Setting keys. Flags use the same names.
const (
	KeyBaseURL    = "base-url"
	KeyLocator    = "locator"
	KeyOrigin     = "origin"
	KeyTimeout    = "timeout"
	KeyMaxBytes   = "max-bytes"
	KeyDecode     = "decode"
	KeyLogLevel   = "log-level"
	KeyListenAddr = "listen"
	KeyOutput     = "output"
)

// Defaults.
const (
	DefaultBaseURL    = "http://localhost:8080"
	DefaultListenAddr = "localhost:9090"
	DefaultLogLevel   = "info"
)

// Config holds resolved blobload settings.
type Config struct {
	BaseURL    string
	Locator    string
	Origin     string
	Timeout    time.Duration
	MaxBytes   int64
	Decode     bool
	LogLevel   slog.Level
	ListenAddr string
	Output     string
}

// New returns a viper instance with defaults and environment binding set up.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyBaseURL, DefaultBaseURL)
	v.SetDefault(KeyLocator, assetblob.DefaultLocator)
	v.SetDefault(KeyOrigin, objects.DefaultOrigin)
	v.SetDefault(KeyTimeout, time.Duration(0))
	v.SetDefault(KeyMaxBytes, int64(0))
	v.SetDefault(KeyDecode, false)
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
	v.SetDefault(KeyListenAddr, DefaultListenAddr)
	v.SetDefault(KeyOutput, "")
	return v
}

// Load reads envFiles into the process environment, without overriding
// variables already set, and resolves the settings from v. Missing env files
// are ignored.
func Load(v *viper.Viper, envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		_ = godotenv.Load(f)
	}

	level, err := ParseLevel(v.GetString(KeyLogLevel))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		BaseURL:    v.GetString(KeyBaseURL),
		Locator:    v.GetString(KeyLocator),
		Origin:     strings.TrimSuffix(v.GetString(KeyOrigin), "/"),
		Timeout:    v.GetDuration(KeyTimeout),
		MaxBytes:   v.GetInt64(KeyMaxBytes),
		Decode:     v.GetBool(KeyDecode),
		LogLevel:   level,
		ListenAddr: v.GetString(KeyListenAddr),
		Output:     v.GetString(KeyOutput),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case c.Locator == "":
		return errors.New("config: locator is empty")
	case c.Origin == "":
		return errors.New("config: origin is empty")
	case c.Timeout < 0:
		return fmt.Errorf("config: timeout %s is negative", c.Timeout)
	case c.MaxBytes < 0:
		return fmt.Errorf("config: max bytes %d is negative", c.MaxBytes)
	}
	return nil
}

// ParseLevel parses a slog level name such as "debug" or "warn".
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("config: log level %q: %w", s, err)
	}
	return level, nil
}

// Logger returns a text logger writing to w at the configured level.
func (c Config) Logger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: c.LogLevel}))
}

// Registry returns a registry issuing references under the configured origin.
func (c Config) Registry(logger *slog.Logger) *objects.Registry {
	return objects.NewRegistry(
		objects.WithOrigin(c.Origin),
		objects.WithRegistryLogger(logger),
	)
}

// LoaderOptions translates the settings into assetblob options.
func (c Config) LoaderOptions() []assetblob.Option {
	opts := []assetblob.Option{
		assetblob.WithLocator(c.Locator),
		assetblob.WithMaxBytes(c.MaxBytes),
	}
	if c.BaseURL != "" {
		opts = append(opts, assetblob.WithBaseURL(c.BaseURL))
	}
	if c.Timeout > 0 {
		opts = append(opts, assetblob.WithHTTPClient(&http.Client{Timeout: c.Timeout}))
	}
	if c.Decode {
		opts = append(opts, assetblob.WithDecoding())
	}
	return opts
}
