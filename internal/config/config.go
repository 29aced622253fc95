// Package config loads gateway configuration from the environment and an
// optional stores file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store keys used in the stores file and in Config.Stores.
const (
	StoreGooglePlay = "android"
	StoreAppStore   = "ios"
)

// DefaultStoresPath is read when STORES_CONFIG is unset.
var DefaultStoresPath = path.Join("config", "stores.yaml")

// Config is the complete gateway configuration.
type Config struct {
	Port            string
	BasePath        string
	LogLevel        string
	LogFormat       string
	TrustProxy      bool
	CORSOrigins     []string
	ShutdownTimeout time.Duration
	BackendTimeout  time.Duration
	StoresPath      string
	Stores          map[string]*StoreConfig
}

// StoreConfig describes how to reach one upstream store.
type StoreConfig struct {
	BaseURL  string            `yaml:"base_url"`
	Timeout  time.Duration     `yaml:"timeout"`
	Defaults map[string]string `yaml:"defaults"`
	// Fields maps a canonical record field to a JSONPath expression used
	// when the upstream payload does not carry that field.
	Fields map[string]string `yaml:"fields"`
}

type storesFile struct {
	Stores map[string]*StoreConfig `yaml:"stores"`
}

type envConfig struct {
	Port            string        `env:"PORT,default=8080"`
	BasePath        string        `env:"BASE_PATH,default=/"`
	LogLevel        string        `env:"LOG_LEVEL,default=info"`
	LogFormat       string        `env:"LOG_FORMAT,default=json"`
	TrustProxy      bool          `env:"TRUST_PROXY,default=false"`
	CORSOrigins     string        `env:"CORS_ALLOWED_ORIGINS,default=*"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=15s"`
	BackendTimeout  time.Duration `env:"BACKEND_TIMEOUT,default=30s"`
	StoresPath      string        `env:"STORES_CONFIG"`
	GooglePlayURL   string        `env:"GOOGLEPLAY_URL,default=http://localhost:3000/googleplay"`
	AppStoreURL     string        `env:"APPSTORE_URL,default=http://localhost:3000/appstore"`
}

// Load reads .env (if present), decodes the environment and overlays the
// stores file. storesPath overrides STORES_CONFIG when non-empty.
func Load(storesPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var env envConfig
	if err := envdecode.Decode(&env); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("failed to decode environment: %w", err)
	}

	cfg := &Config{
		Port:            env.Port,
		BasePath:        NormalizeBasePath(env.BasePath),
		LogLevel:        env.LogLevel,
		LogFormat:       env.LogFormat,
		TrustProxy:      env.TrustProxy,
		CORSOrigins:     splitAndTrimCSV(env.CORSOrigins),
		ShutdownTimeout: env.ShutdownTimeout,
		BackendTimeout:  env.BackendTimeout,
		StoresPath:      env.StoresPath,
		Stores:          DefaultStores(env.GooglePlayURL, env.AppStoreURL),
	}

	explicit := storesPath != "" || cfg.StoresPath != ""
	if storesPath != "" {
		cfg.StoresPath = storesPath
	}
	if cfg.StoresPath == "" {
		cfg.StoresPath = DefaultStoresPath
	}

	if err := cfg.loadStoresFile(explicit); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultStores returns the built-in store settings.
func DefaultStores(googlePlayURL, appStoreURL string) map[string]*StoreConfig {
	return map[string]*StoreConfig{
		StoreGooglePlay: {
			BaseURL:  googlePlayURL,
			Defaults: map[string]string{},
			Fields:   map[string]string{},
		},
		StoreAppStore: {
			BaseURL:  appStoreURL,
			Defaults: map[string]string{},
			Fields: map[string]string{
				"appId":       "$.bundleId",
				"developer":   "$.artistName",
				"developerId": "$.artistId",
				"url":         "$.trackViewUrl",
			},
		},
	}
}

func (c *Config) loadStoresFile(required bool) error {
	data, err := os.ReadFile(c.StoresPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("failed to read stores config: %w", err)
	}

	var file storesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse stores config: %w", err)
	}

	for name, override := range file.Stores {
		if override == nil {
			continue
		}
		current, ok := c.Stores[name]
		if !ok {
			return fmt.Errorf("stores config: unknown store %q", name)
		}
		current.merge(override)
	}
	return nil
}

func (s *StoreConfig) merge(o *StoreConfig) {
	if o.BaseURL != "" {
		s.BaseURL = o.BaseURL
	}
	if o.Timeout > 0 {
		s.Timeout = o.Timeout
	}
	if s.Defaults == nil {
		s.Defaults = map[string]string{}
	}
	for k, v := range o.Defaults {
		s.Defaults[k] = v
	}
	if s.Fields == nil {
		s.Fields = map[string]string{}
	}
	for k, v := range o.Fields {
		s.Fields[k] = v
	}
}

// Validate checks that every store is reachable by URL and timeouts are sane.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Port) == "" {
		return errors.New("port is required")
	}
	if c.BackendTimeout <= 0 {
		return errors.New("backend timeout must be positive")
	}
	for _, name := range []string{StoreGooglePlay, StoreAppStore} {
		store, ok := c.Stores[name]
		if !ok || store == nil {
			return fmt.Errorf("store %s: missing configuration", name)
		}
		if strings.TrimSpace(store.BaseURL) == "" {
			return fmt.Errorf("store %s: base_url is required", name)
		}
		u, err := url.Parse(store.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("store %s: invalid base_url %q", name, store.BaseURL)
		}
	}
	return nil
}

// StoreTimeout returns the per-store timeout, falling back to the global one.
func (c *Config) StoreTimeout(name string) time.Duration {
	if s, ok := c.Stores[name]; ok && s.Timeout > 0 {
		return s.Timeout
	}
	return c.BackendTimeout
}

// NormalizeBasePath turns any mount path into "/" or "/a/b" form.
func NormalizeBasePath(raw string) string {
	trimmed := strings.Trim(strings.TrimSpace(raw), "/")
	if trimmed == "" {
		return "/"
	}
	return path.Clean("/" + trimmed)
}

func splitAndTrimCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
