// Package config loads the calbot configuration file.
package config

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no --config flag is given.
const DefaultPath = "calbot.yaml"

// Store drivers.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverRedis  = "redis"
)

// Config is the whole calbot configuration.
type Config struct {
	Bot   BotConfig   `yaml:"bot" json:"bot"`
	OAuth OAuthConfig `yaml:"oauth" json:"oauth"`
	Graph GraphConfig `yaml:"graph" json:"graph"`
	Store StoreConfig `yaml:"store" json:"store"`
	HTTP  HTTPConfig  `yaml:"http" json:"http"`
	Log   LogConfig   `yaml:"log" json:"log"`
}

type BotConfig struct {
	Welcome        string   `yaml:"welcome" json:"welcome"`
	TokenTimeout   Duration `yaml:"token_timeout" json:"token_timeout"`
	TimeZone       string   `yaml:"time_zone" json:"time_zone"`
	UpcomingWindow Duration `yaml:"upcoming_window" json:"upcoming_window"`
}

type OAuthConfig struct {
	ClientID     string   `yaml:"client_id" json:"client_id"`
	ClientSecret string   `yaml:"client_secret" json:"client_secret"`
	Tenant       string   `yaml:"tenant" json:"tenant"`
	RedirectURL  string   `yaml:"redirect_url" json:"redirect_url"`
	Scopes       []string `yaml:"scopes" json:"scopes"`
	AuthURL      string   `yaml:"auth_url" json:"auth_url"`
	TokenURL     string   `yaml:"token_url" json:"token_url"`
}

type GraphConfig struct {
	BaseURL string   `yaml:"base_url" json:"base_url"`
	Timeout Duration `yaml:"timeout" json:"timeout"`
}

type StoreConfig struct {
	Driver string `yaml:"driver" json:"driver"`
	// Path is the session directory of the file driver.
	Path  string      `yaml:"path" json:"path"`
	Redis RedisConfig `yaml:"redis" json:"redis"`
	// EncryptionKey is a base64 AES-256 key. Empty disables encryption.
	EncryptionKey string `yaml:"encryption_key" json:"encryption_key"`
	// PreviousKeys still decrypt sessions written before a key rotation.
	PreviousKeys []string `yaml:"previous_keys" json:"previous_keys"`
}

type RedisConfig struct {
	Addr     string   `yaml:"addr" json:"addr"`
	Password string   `yaml:"password" json:"password"`
	DB       int      `yaml:"db" json:"db"`
	Prefix   string   `yaml:"prefix" json:"prefix"`
	TTL      Duration `yaml:"ttl" json:"ttl"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr" json:"addr"`
	// RatePerUser is messages per second allowed per user. Zero disables throttling.
	RatePerUser float64 `yaml:"rate_per_user" json:"rate_per_user"`
	Burst       int     `yaml:"burst" json:"burst"`
	// APIKeys are the shared secrets a channel connector presents on /api.
	// More than one allows rotation.
	APIKeys []string `yaml:"api_keys" json:"api_keys"`
}

// Keys returns the configured API keys, skipping entries left empty by an
// unset environment variable.
func (h HTTPConfig) Keys() []string {
	var keys []string
	for _, k := range h.APIKeys {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// Duration accepts Go duration strings ("5m", "168h") in YAML and JSON.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

func (d *Duration) parse(s string) error {
	if s == "" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.parse(node.Value)
}

func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	return d.parse(s)
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Bot: BotConfig{
			Welcome:        "Welcome to Microsoft Graph CalendarBot. Type anything to get started.",
			TokenTimeout:   Duration(5 * time.Minute),
			TimeZone:       "Local",
			UpcomingWindow: Duration(7 * 24 * time.Hour),
		},
		OAuth: OAuthConfig{
			Tenant: "common",
			Scopes: []string{"openid", "offline_access", "User.Read", "MailboxSettings.Read", "Calendars.ReadWrite"},
		},
		Graph: GraphConfig{
			BaseURL: "https://graph.microsoft.com/v1.0",
			Timeout: Duration(30 * time.Second),
		},
		Store: StoreConfig{
			Driver: DriverMemory,
			Path:   filepath.Join(".calbot", "sessions"),
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "calbot:",
				TTL:    Duration(24 * time.Hour),
			},
		},
		HTTP: HTTPConfig{
			Addr:        ":3978",
			RatePerUser: 1,
			Burst:       5,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads path over the defaults. ${VAR} references are expanded from the
// environment before parsing. A missing file yields the defaults unless
// required is set.
func Load(path string, required bool) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return cfg, cfg.Validate()
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal([]byte(expanded), &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}
	return cfg, cfg.Validate()
}

// Location resolves Bot.TimeZone.
func (c Config) Location() (*time.Location, error) {
	switch c.Bot.TimeZone {
	case "", "Local":
		return time.Local, nil
	}
	return time.LoadLocation(c.Bot.TimeZone)
}

// Validate reports every problem found, joined.
func (c Config) Validate() error {
	var errs []error

	switch c.Store.Driver {
	case DriverMemory, DriverFile, DriverRedis:
	default:
		errs = append(errs, fmt.Errorf("store.driver: unknown driver %q", c.Store.Driver))
	}
	if c.Store.Driver == DriverRedis && c.Store.Redis.Addr == "" {
		errs = append(errs, errors.New("store.redis.addr: required for the redis driver"))
	}
	if c.Store.EncryptionKey != "" && !validKey(c.Store.EncryptionKey) {
		errs = append(errs, errors.New("store.encryption_key: must be 32 bytes, base64 encoded"))
	}
	for i, k := range c.Store.PreviousKeys {
		if !validKey(k) {
			errs = append(errs, fmt.Errorf("store.previous_keys[%d]: must be 32 bytes, base64 encoded", i))
		}
	}
	if len(c.Store.PreviousKeys) > 0 && c.Store.EncryptionKey == "" {
		errs = append(errs, errors.New("store.previous_keys: requires store.encryption_key"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Errorf("bot.time_zone: %w", err))
	}
	if c.Bot.TokenTimeout < 0 || c.Bot.UpcomingWindow < 0 {
		errs = append(errs, errors.New("bot: durations must not be negative"))
	}
	if c.HTTP.RatePerUser < 0 || c.HTTP.Burst < 0 {
		errs = append(errs, errors.New("http: rate_per_user and burst must not be negative"))
	}
	if c.HTTP.RatePerUser > 0 && c.HTTP.Burst == 0 {
		errs = append(errs, errors.New("http.burst: must be positive when rate_per_user is set"))
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

func validKey(s string) bool {
	key, err := base64.StdEncoding.DecodeString(s)
	return err == nil && len(key) == 32
}

// OAuthEnabled reports whether a real identity provider is configured.
func (c Config) OAuthEnabled() bool {
	return c.OAuth.ClientID != ""
}
