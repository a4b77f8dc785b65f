package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var ErrMissingEnvironmentVariables = errors.New("missing required environment variables")

// Config holds application configuration loaded from files and environment variables.
type Config struct {
	Env       string    `mapstructure:"env"`       // current application environment (local, dev, prod etc)
	Location  Location  `mapstructure:"location"`  // fallback location for the companion app
	Reminders Reminders `mapstructure:"reminders"` // reminder policy shared by both binaries
	Aladhan   Aladhan   `mapstructure:"aladhan"`   // prayer-times provider section
	Prefs     Prefs     `mapstructure:"prefs"`     // local preference storage section
	Shell     Shell     `mapstructure:"shell"`     // offline app-shell cache section
	Push      Push      `mapstructure:"push"`      // remote notification section
	DB        DB        `mapstructure:"database"`  // database configuration section
}

// Location is the demo fallback used when no stored location exists and
// the user has not configured one.
type Location struct {
	Latitude  float64 `mapstructure:"latitude"`
	Longitude float64 `mapstructure:"longitude"`
	City      string  `mapstructure:"city"`
	Country   string  `mapstructure:"country"`
	Name      string  `mapstructure:"name"`
}

// Reminders configures which events remind and how far ahead.
type Reminders struct {
	Exclude          []string `mapstructure:"exclude"`           // event names that never remind
	LeadMinutes      int      `mapstructure:"lead_minutes"`      // server-side lead before each event
	ToleranceMinutes int      `mapstructure:"tolerance_minutes"` // sweep due-window half-width
}

// Aladhan points at the prayer-times API.
type Aladhan struct {
	BaseURL string `mapstructure:"base_url"`
	Method  int    `mapstructure:"method"` // calculation method identifier
}

// Prefs locates the on-disk preference store.
type Prefs struct {
	Dir string `mapstructure:"dir"`
}

// Shell configures the offline app-shell cache and its HTTP surface.
type Shell struct {
	ListenAddr     string   `mapstructure:"listen_addr"`
	Upstream       string   `mapstructure:"upstream"`
	Version        string   `mapstructure:"version"`
	CacheDir       string   `mapstructure:"cache_dir"`
	Manifest       []string `mapstructure:"manifest"`
	BypassPrefixes []string `mapstructure:"bypass_prefixes"`
}

// Push configures the remote notification channel. The server key only
// ever comes from the environment.
type Push struct {
	Endpoint   string `mapstructure:"endpoint"`
	ServerKey  string `mapstructure:"-"`
	ListenAddr string `mapstructure:"listen_addr"` // registration API bind address
}

// Key returns the push server key if it is configured.
func (p Push) Key() (string, error) {
	if p.ServerKey == "" {
		return "", ErrMissingEnvironmentVariables
	}
	return p.ServerKey, nil
}

// DB contains database-related configuration parameters.
type DB struct {
	URL             string        `mapstructure:"-"`                 // database connection string loaded from environment
	MaxConnections  int           `mapstructure:"max_connections"`   // maximum number of open connections in the pool
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"` // maximum lifetime of a single connection
}

// DSN returns the database connection string if it is configured.
func (db DB) DSN() (string, error) {
	if db.URL == "" {
		return "", ErrMissingEnvironmentVariables
	}
	return db.URL, nil
}

// Load reads configuration from config files and environment variables.
// Secrets are not validated here: the companion app runs without a
// database or push key, so each binary checks what it actually needs.
func Load() (*Config, error) {
	// Initialize Viper instance and base config options.
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")

	// Set default values for configuration keys.
	v.SetDefault("env", "local")
	v.SetDefault("location.latitude", 41.0082)
	v.SetDefault("location.longitude", 28.9784)
	v.SetDefault("location.city", "Istanbul")
	v.SetDefault("location.country", "Turkey")
	v.SetDefault("location.name", "Istanbul (demo)")
	v.SetDefault("reminders.exclude", []string{"Sunrise"})
	v.SetDefault("reminders.lead_minutes", 60)
	v.SetDefault("reminders.tolerance_minutes", 5)
	v.SetDefault("aladhan.base_url", "https://api.aladhan.com/v1")
	v.SetDefault("aladhan.method", 2)
	v.SetDefault("prefs.dir", "./data")
	v.SetDefault("shell.listen_addr", ":8080")
	v.SetDefault("shell.version", "dev")
	v.SetDefault("shell.cache_dir", "./data/shell")
	v.SetDefault("shell.manifest", []string{"/", "/index.html", "/manifest.json"})
	v.SetDefault("shell.bypass_prefixes", []string{"/api/"})
	v.SetDefault("push.listen_addr", ":8081")
	v.SetDefault("database.max_connections", 20)
	v.SetDefault("database.max_conn_lifetime", "30s")

	// Configure environment variable handling and key mapping.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // map nested keys to ENV style names
	v.AutomaticEnv()

	// Bind explicit environment variables to configuration keys.
	_ = v.BindEnv("fcm_server_key", "FCM_SERVER_KEY")
	_ = v.BindEnv("database_url", "DATABASE_URL")
	_ = v.BindEnv("env", "APP_ENV")

	// Try to read configuration file if present.
	if err := v.ReadInConfig(); err != nil {
		var fileLookupErr viper.ConfigFileNotFoundError
		if !errors.As(err, &fileLookupErr) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	// Unmarshal configuration into strongly typed struct.
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	// Load sensitive values from environment variables.
	cfg.Push.ServerKey = v.GetString("fcm_server_key")
	cfg.DB.URL = v.GetString("database_url")

	return &cfg, nil
}
