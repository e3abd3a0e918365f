package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the application-wide configuration tree.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"db"`
	Redis     RedisConfig     `mapstructure:"redis"`
	CheckIn   CheckInConfig   `mapstructure:"checkin"`
	Report    ReportConfig    `mapstructure:"report"`
	Bootstrap BootstrapConfig `mapstructure:"bootstrap"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `mapstructure:"port"`
	// BaseURL is the externally reachable URL used when building the
	// public check-in links embedded in QR codes. Behind the reverse
	// proxy this differs from the listen address.
	BaseURL string     `mapstructure:"base_url"`
	CORS    CORSConfig `mapstructure:"cors"`
}

// CORSConfig holds the allowed cross-origin settings.
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig holds PostgreSQL settings.
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // minutes
}

// DSN builds the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig holds Redis settings (public endpoint rate limiting).
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CheckInConfig governs the student check-in flow.
type CheckInConfig struct {
	// EmailDomain is the required suffix for student emails, e.g. "@hua.gr".
	EmailDomain           string        `mapstructure:"email_domain"`
	DefaultSessionMinutes int           `mapstructure:"default_session_minutes"`
	MaxSessionMinutes     int           `mapstructure:"max_session_minutes"`
	RateLimit             int           `mapstructure:"rate_limit"`
	RateWindow            time.Duration `mapstructure:"rate_window"`
}

// ReportConfig governs reporting behaviour.
type ReportConfig struct {
	// Timezone pins day/week/month bucket boundaries to one calendar.
	Timezone string `mapstructure:"timezone"`
}

// BootstrapConfig is one-time seed data applied at startup.
type BootstrapConfig struct {
	AdminEmails []string `mapstructure:"admin_emails"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration with precedence: env vars > config file > defaults.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "attendance")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("checkin.email_domain", "@hua.gr")
	v.SetDefault("checkin.default_session_minutes", 15)
	v.SetDefault("checkin.max_session_minutes", 240)
	v.SetDefault("checkin.rate_limit", 30)
	v.SetDefault("checkin.rate_window", "1m")

	v.SetDefault("report.timezone", "Europe/Athens")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("ATTEND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		// No config file: run on defaults plus environment.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the configuration values the service cannot run without.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port must be within 1-65535")
	}
	if c.Server.BaseURL == "" {
		return fmt.Errorf("config: server.base_url must not be empty")
	}
	if !strings.HasPrefix(c.CheckIn.EmailDomain, "@") {
		return fmt.Errorf("config: checkin.email_domain must start with '@'")
	}
	if c.CheckIn.DefaultSessionMinutes <= 0 {
		return fmt.Errorf("config: checkin.default_session_minutes must be positive")
	}
	if c.CheckIn.MaxSessionMinutes < c.CheckIn.DefaultSessionMinutes {
		return fmt.Errorf("config: checkin.max_session_minutes must be >= default_session_minutes")
	}
	if _, err := time.LoadLocation(c.Report.Timezone); err != nil {
		return fmt.Errorf("config: report.timezone %q is not a valid IANA zone: %w", c.Report.Timezone, err)
	}
	return nil
}
