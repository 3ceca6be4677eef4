package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. SIMPLE404_SERVER_LISTEN.
const EnvPrefix = "SIMPLE404"

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	NotFound  NotFoundConfig  `mapstructure:"notfound"`
	Display   DisplayConfig   `mapstructure:"display"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig holds HTTP listener and site settings
type ServerConfig struct {
	Listen     string `mapstructure:"listen"`
	ServerName string `mapstructure:"server_name"`
	SiteRoot   string `mapstructure:"site_root"`
	Custom404  string `mapstructure:"custom_404"`
}

// DatabaseConfig holds database settings
type DatabaseConfig struct {
	Driver      string `mapstructure:"driver"`
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	Database    string `mapstructure:"database"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	SSLMode     string `mapstructure:"ssl_mode"`
	SQLLogLevel string `mapstructure:"sql_log_level"`
}

// AuthConfig holds admin authentication settings
type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret"`
	AdminUsername string        `mapstructure:"admin_username"`
	AdminPassword string        `mapstructure:"admin_password"`
	TokenTTL      time.Duration `mapstructure:"token_ttl"`
}

// NotFoundConfig controls how not-found events are recorded
type NotFoundConfig struct {
	OptionName         string `mapstructure:"option_name"`
	TrustForwardedHost bool   `mapstructure:"trust_forwarded_host"`
	SerializeWrites    bool   `mapstructure:"serialize_writes"`
}

// DisplayConfig holds the Go time layouts used on the admin page
type DisplayConfig struct {
	DateFormat string `mapstructure:"date_format"`
	TimeFormat string `mapstructure:"time_format"`
	Timezone   string `mapstructure:"timezone"`
}

// RateLimitConfig limits admin login attempts per client IP
type RateLimitConfig struct {
	LoginRPS          float64 `mapstructure:"login_rps"`
	LoginBurst        int     `mapstructure:"login_burst"`
	TrustForwardedFor bool    `mapstructure:"trust_forwarded_for"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level     string `mapstructure:"level"`
	Format    string `mapstructure:"format"`
	Output    string `mapstructure:"output"`
	File      string `mapstructure:"file"`
	HTTPLevel string `mapstructure:"http_level"`
}

// Location resolves the display timezone, falling back to UTC.
func (d DisplayConfig) Location() *time.Location {
	if d.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(d.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Load loads configuration from file. A missing file is not an error:
// defaults and environment overrides still apply.
func Load(configPath string) (*Config, error) {
	v, err := newViper(configPath)
	if err != nil {
		return nil, err
	}
	return decode(v)
}

// Watch loads the configuration and calls onChange with the re-read config
// every time the file changes on disk. Decode failures keep the previous
// config and are reported through onError.
func Watch(configPath string, onChange func(*Config), onError func(error)) (*Config, error) {
	v, err := newViper(configPath)
	if err != nil {
		return nil, err
	}
	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		next, err := decode(v)
		if err != nil {
			if onError != nil {
				onError(fmt.Errorf("reload %s: %w", e.Name, err))
			}
			return
		}
		onChange(next)
	})
	v.WatchConfig()

	return cfg, nil
}

func newViper(configPath string) (*viper.Viper, error) {
	// .env is optional; values it sets are read through AutomaticEnv below
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath == "" {
		return v, nil
	}

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return v, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return v, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.NotFound.OptionName) == "" {
		return fmt.Errorf("notfound.option_name must not be empty")
	}
	if c.RateLimit.LoginBurst < 1 {
		return fmt.Errorf("ratelimit.login_burst must be at least 1")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.listen", ":8080")
	v.SetDefault("server.server_name", "localhost")
	v.SetDefault("server.site_root", "public")
	v.SetDefault("server.custom_404", "")

	// Database defaults (SQLite for easier local development)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.database", "simple404.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.username", "simple404")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.sql_log_level", "silent")

	// Auth defaults
	v.SetDefault("auth.jwt_secret", "change-me-in-production")
	v.SetDefault("auth.admin_username", "admin")
	v.SetDefault("auth.admin_password", "")
	v.SetDefault("auth.token_ttl", "12h")

	// Not-found recording
	v.SetDefault("notfound.option_name", "simple-404-log")
	v.SetDefault("notfound.trust_forwarded_host", false)
	v.SetDefault("notfound.serialize_writes", false)

	// Display defaults
	v.SetDefault("display.date_format", "January 2, 2006")
	v.SetDefault("display.time_format", "3:04 pm")
	v.SetDefault("display.timezone", "UTC")

	// Login throttling: one attempt every two seconds, burst of three
	v.SetDefault("ratelimit.login_rps", 0.5)
	v.SetDefault("ratelimit.login_burst", 3)
	v.SetDefault("ratelimit.trust_forwarded_for", false)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.http_level", "warn")
}
