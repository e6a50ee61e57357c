// Package config provides configuration management for NetNav.
//
// Configuration is read from a YAML file, after an optional .env file has been
// loaded into the process environment. NETNAV_* environment variables override
// file values so secrets such as the database DSN need not live on disk.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // timezone names must resolve on minimal hosts

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/netnav/netnav/internal/event"
	"github.com/netnav/netnav/internal/logger"
)

// Configuration validation errors.
var (
	ErrMissingListenAddr   = errors.New("server.listen_addr is required")
	ErrInvalidDriver       = errors.New("storage.driver must be one of: file, postgres, mysql")
	ErrMissingDSN          = errors.New("storage.dsn is required for sql drivers")
	ErrMissingDataDir      = errors.New("storage.data_dir is required for the file driver")
	ErrInvalidTimezone     = errors.New("scrape.timezone is not a known location")
	ErrInvalidDatePolicy   = errors.New("scrape.date_policy must be one of: default-now, default-null, reject")
	ErrMissingGeocoderURL  = errors.New("geo.geocoder_url is required when the geocoder is enabled")
	ErrInvalidLogLevel     = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrInvalidDurationText = errors.New("invalid duration")
)

// Storage drivers.
const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Config represents the complete NetNav configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Scrape  ScrapeConfig  `yaml:"scrape"`
	Geo     GeoConfig     `yaml:"geo"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig contains HTTP trigger settings.
type ServerConfig struct {
	ListenAddr      string        `yaml:"listen_addr"`
	AdminToken      string        `yaml:"admin_token"`
	ReadTimeoutStr  string        `yaml:"read_timeout"`
	WriteTimeoutStr string        `yaml:"write_timeout"`
	ReadTimeout     time.Duration `yaml:"-"`
	WriteTimeout    time.Duration `yaml:"-"`
}

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	Driver  string `yaml:"driver"`
	DSN     string `yaml:"dsn"`
	DataDir string `yaml:"data_dir"`
}

// ScrapeConfig controls extraction behavior.
type ScrapeConfig struct {
	DatePolicy   string `yaml:"date_policy"`
	Timezone     string `yaml:"timezone"`
	Placeholders bool   `yaml:"placeholders"`
	UserAgent    string `yaml:"user_agent"`
}

// GeoConfig controls venue coordinate lookup.
type GeoConfig struct {
	GeocoderEnabled bool          `yaml:"geocoder_enabled"`
	GeocoderURL     string        `yaml:"geocoder_url"`
	CacheTTLStr     string        `yaml:"cache_ttl"`
	CacheTTL        time.Duration `yaml:"-"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr:      ":8080",
			ReadTimeoutStr:  "15s",
			WriteTimeoutStr: "60s",
		},
		Storage: StorageConfig{
			Driver:  DriverFile,
			DataDir: "~/.local/share/netnav",
		},
		Scrape: ScrapeConfig{
			DatePolicy:   string(event.PolicyDefaultNow),
			Timezone:     "America/New_York",
			Placeholders: true,
		},
		Geo: GeoConfig{
			CacheTTLStr: "168h",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the .env file (if present), the YAML file at path (if non-empty),
// applies NETNAV_* overrides and validates the result.
func Load(path, envFile string) (*Config, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, fmt.Errorf("failed to load env file: %w", err)
			}
		}
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("NETNAV_LISTEN_ADDR"); v != "" {
		c.Server.ListenAddr = v
	}
	if v := os.Getenv("NETNAV_ADMIN_TOKEN"); v != "" {
		c.Server.AdminToken = v
	}
	if v := os.Getenv("NETNAV_STORAGE_DRIVER"); v != "" {
		c.Storage.Driver = v
	}
	if v := os.Getenv("NETNAV_DATABASE_URL"); v != "" {
		c.Storage.DSN = v
	}
	if v := os.Getenv("NETNAV_DATA_DIR"); v != "" {
		c.Storage.DataDir = v
	}
	if v := os.Getenv("NETNAV_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("NETNAV_DATE_POLICY"); v != "" {
		c.Scrape.DatePolicy = v
	}
	if v := os.Getenv("NETNAV_PLACEHOLDERS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Scrape.Placeholders = b
		}
	}
}

// Validate validates the configuration and fills parsed fields.
func (c *Config) Validate() error {
	if c.Server.ListenAddr == "" {
		return ErrMissingListenAddr
	}

	var err error
	if c.Server.ReadTimeout, err = parseDuration("server.read_timeout", c.Server.ReadTimeoutStr, 15*time.Second); err != nil {
		return err
	}
	if c.Server.WriteTimeout, err = parseDuration("server.write_timeout", c.Server.WriteTimeoutStr, 60*time.Second); err != nil {
		return err
	}

	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	switch c.Storage.Driver {
	case DriverFile:
		if c.Storage.DataDir == "" {
			return ErrMissingDataDir
		}
	case DriverPostgres, DriverMySQL:
		if c.Storage.DSN == "" {
			return ErrMissingDSN
		}
	default:
		return ErrInvalidDriver
	}

	if _, err := time.LoadLocation(c.Scrape.Timezone); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidTimezone, c.Scrape.Timezone)
	}
	if _, err := event.ParseDatePolicy(c.Scrape.DatePolicy); err != nil {
		return ErrInvalidDatePolicy
	}

	if c.Geo.GeocoderEnabled && c.Geo.GeocoderURL == "" {
		return ErrMissingGeocoderURL
	}
	if c.Geo.CacheTTL, err = parseDuration("geo.cache_ttl", c.Geo.CacheTTLStr, 7*24*time.Hour); err != nil {
		return err
	}

	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		return ErrInvalidLogLevel
	}

	return nil
}

// Location returns the timezone that scraped dates are interpreted in.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Scrape.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// DatePolicy returns the parsed date policy.
func (c *Config) DatePolicy() event.DatePolicy {
	p, err := event.ParseDatePolicy(c.Scrape.DatePolicy)
	if err != nil {
		return event.PolicyDefaultNow
	}
	return p
}

// LogLevel returns the parsed logging level.
func (c *Config) LogLevel() logger.Level {
	lvl, err := logger.ParseLevel(c.Logging.Level)
	if err != nil {
		return logger.LevelInfo
	}
	return lvl
}

// String returns a string representation of the config without secrets.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Listen: %s, Driver: %s, DatePolicy: %s, Timezone: %s, Placeholders: %t}",
		c.Server.ListenAddr,
		c.Storage.Driver,
		c.Scrape.DatePolicy,
		c.Scrape.Timezone,
		c.Scrape.Placeholders,
	)
}

func parseDuration(field, text string, fallback time.Duration) (time.Duration, error) {
	if text == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(text)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%w for %s: %q", ErrInvalidDurationText, field, text)
	}
	return d, nil
}
