package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"milify/internal/atomicfile"
	appLog "milify/internal/log"
)

// Store drivers.
const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
)

// StoreConfig selects where calendar events and feed tokens live.
type StoreConfig struct {
	// Driver is "file" (YAML document at Path) or "postgres" (DSN).
	Driver string `yaml:"driver" json:"driver"`
	Path   string `yaml:"path,omitempty" json:"path,omitempty"`
	DSN    string `yaml:"dsn,omitempty" json:"-"`
}

// GeoCacheConfig controls the nearby-business location cache.
type GeoCacheConfig struct {
	Path     string `yaml:"path" json:"path"`
	TTLHours int    `yaml:"ttl_hours" json:"ttl_hours"`
}

// FeedConfig holds the calendar-level properties of the published iCal feed.
type FeedConfig struct {
	Name      string `yaml:"name" json:"name"`
	ProductID string `yaml:"product_id" json:"product_id"`
	UIDDomain string `yaml:"uid_domain" json:"uid_domain"`
}

// SubscriptionConfig describes an external ICS calendar merged into views,
// e.g. an installation's public events calendar.
type SubscriptionConfig struct {
	ID    string `yaml:"id" json:"id"`
	Name  string `yaml:"name" json:"name"`
	URL   string `yaml:"url" json:"url"`
	Color string `yaml:"color,omitempty" json:"color,omitempty"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Environment is "production" or "development"; it picks the log encoder.
	Environment string `yaml:"environment" json:"environment"`
	LogLevel    string `yaml:"log_level" json:"log_level"`

	// Timezone is the IANA zone used for wall-clock event times in the feed.
	Timezone string `yaml:"timezone" json:"timezone"`

	// HorizonDays is the default window length for CLI expansion.
	HorizonDays int `yaml:"horizon_days" json:"horizon_days"`

	// IncludeHolidays merges federal holidays into event windows by default.
	IncludeHolidays bool `yaml:"include_holidays" json:"include_holidays"`

	// CleanupCron schedules geocache pruning and persistence.
	CleanupCron string `yaml:"cleanup_cron" json:"cleanup_cron"`

	// SubscriptionCron schedules the refresh of external ICS subscriptions.
	SubscriptionCron string `yaml:"subscription_cron" json:"subscription_cron"`

	// CacheDir holds per-URL caches of subscription feeds.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	Store         StoreConfig          `yaml:"store" json:"store"`
	GeoCache      GeoCacheConfig       `yaml:"geocache" json:"geocache"`
	Feed          FeedConfig           `yaml:"feed" json:"feed"`
	Subscriptions []SubscriptionConfig `yaml:"subscriptions" json:"subscriptions"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health and the token-guarded iCal feed.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	c := &Config{IncludeHolidays: true}
	c.Normalize()
	return c
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	switch c.Environment {
	case "production", "development":
	default:
		c.Environment = "development"
	}
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG", "INFO", "ERROR":
		c.LogLevel = strings.ToUpper(c.LogLevel)
	default:
		c.LogLevel = "INFO"
	}
	if c.Timezone == "" {
		c.Timezone = "America/New_York"
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = 30
	}
	if c.CleanupCron == "" {
		c.CleanupCron = "0 * * * *"
	}
	if c.SubscriptionCron == "" {
		c.SubscriptionCron = "*/30 * * * *"
	}
	if c.CacheDir == "" {
		c.CacheDir = "./var/ics-cache"
	}

	switch c.Store.Driver {
	case DriverFile, DriverPostgres:
	default:
		c.Store.Driver = DriverFile
	}
	if c.Store.Driver == DriverFile && c.Store.Path == "" {
		c.Store.Path = "./var/calendar.yaml"
	}

	if c.GeoCache.Path == "" {
		c.GeoCache.Path = "./var/geocache.json"
	}
	if c.GeoCache.TTLHours <= 0 {
		c.GeoCache.TTLHours = 24
	}

	if c.Feed.Name == "" {
		c.Feed.Name = "Milify Calendar"
	}
	if c.Feed.ProductID == "" {
		c.Feed.ProductID = "-//Milify//Calendar//EN"
	}
	if c.Feed.UIDDomain == "" {
		c.Feed.UIDDomain = "milify.app"
	}
	if c.Subscriptions == nil {
		c.Subscriptions = []SubscriptionConfig{}
	}
}

// Validate reports settings that Normalize cannot repair.
func (c *Config) Validate() error {
	if c.Store.Driver == DriverPostgres && c.Store.DSN == "" {
		return errors.New("config: postgres store requires a dsn")
	}
	seen := make(map[string]bool, len(c.Subscriptions))
	for i, s := range c.Subscriptions {
		if s.URL == "" {
			return fmt.Errorf("config: subscription %d has no url", i)
		}
		if s.ID != "" && seen[s.ID] {
			return fmt.Errorf("config: duplicate subscription id %q", s.ID)
		}
		seen[s.ID] = true
	}
	return nil
}

// Location resolves Timezone, falling back to time.Local when it is empty
// or unknown.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", c.Timezone)
		return time.Local
	}
	return loc
}

// ApplyEnv overrides file settings from the environment. A .env file in the
// working directory is loaded first when present; real environment
// variables win over it.
func (c *Config) ApplyEnv() {
	_ = godotenv.Load(".env")

	if v := os.Getenv("MILIFY_LISTEN"); v != "" {
		c.Listen = v
	}
	if v := os.Getenv("MILIFY_ENV"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("MILIFY_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("MILIFY_TIMEZONE"); v != "" {
		c.Timezone = v
	}
	if v := os.Getenv("MILIFY_DB_DSN"); v != "" {
		c.Store.Driver = DriverPostgres
		c.Store.DSN = v
	}
	c.Normalize()
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms and returned.
//   - Otherwise the YAML is unmarshaled and defaults are filled in.
//
// Environment overrides are not applied here; see ApplyEnv.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path atomically with
// 0600 permissions, creating the parent directory if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return atomicfile.Write(path, data)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
