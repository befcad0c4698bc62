package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	NATS       NATSConfig       `mapstructure:"nats"`
	Valkey     ValkeyConfig     `mapstructure:"valkey"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Google     GoogleConfig     `mapstructure:"google"`
	Navigation NavigationConfig `mapstructure:"navigation"`
	Session    SessionConfig    `mapstructure:"session"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

// DatabaseConfig is the optional trip-archive database. An empty host
// disables archiving entirely.
type DatabaseConfig struct {
	Host             string `mapstructure:"host"`
	Port             int    `mapstructure:"port"`
	User             string `mapstructure:"user"`
	Password         string `mapstructure:"password"`
	DBName           string `mapstructure:"dbname"`
	SSLMode          string `mapstructure:"sslmode"`
	MaxConns         int    `mapstructure:"max_conns"`
	ConnLifetimeMins int    `mapstructure:"conn_lifetime_minutes"`
}

// Enabled reports whether a trip-archive database is configured.
func (d DatabaseConfig) Enabled() bool { return d.Host != "" }

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// GoogleConfig configures the directions/places provider. A missing API
// key is non-fatal: planning endpoints degrade with a visible error.
type GoogleConfig struct {
	APIKey   string `mapstructure:"api_key"`
	Language string `mapstructure:"language"`
	Region   string `mapstructure:"region"`
	Country  string `mapstructure:"country"`
}

type NavigationConfig struct {
	AnnounceDistanceMeters float64 `mapstructure:"announce_distance_meters"`
	AnnounceCooldownSecs   int     `mapstructure:"announce_cooldown_seconds"`
	PositionMaxAgeSecs     int     `mapstructure:"position_max_age_seconds"`
	WatchTimeoutSecs       int     `mapstructure:"watch_timeout_seconds"`
}

type SessionConfig struct {
	TTLMinutes         int `mapstructure:"ttl_minutes"`
	DirectionsCacheTTL int `mapstructure:"directions_cache_ttl_seconds"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("database.host", "")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "gilro")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "gilro")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 4)
	v.SetDefault("database.conn_lifetime_minutes", 30)
	v.SetDefault("google.api_key", "")
	v.SetDefault("google.language", "ko")
	v.SetDefault("google.region", "KR")
	v.SetDefault("google.country", "kr")
	v.SetDefault("navigation.announce_distance_meters", 30.0)
	v.SetDefault("navigation.announce_cooldown_seconds", 15)
	v.SetDefault("navigation.position_max_age_seconds", 10)
	v.SetDefault("navigation.watch_timeout_seconds", 20)
	v.SetDefault("session.ttl_minutes", 120)
	v.SetDefault("session.directions_cache_ttl_seconds", 300)
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: GILRO_GOOGLE_API_KEY → google.api_key
	v.SetEnvPrefix("GILRO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
// The Google API key is deliberately NOT required here; its absence only
// degrades the planning endpoints.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Database.Enabled() {
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
		}
		if c.Database.User == "" {
			errs = append(errs, "database.user is required when database.host is set")
		}
		if c.Database.DBName == "" {
			errs = append(errs, "database.dbname is required when database.host is set")
		}
		if c.Database.MaxConns <= 0 {
			errs = append(errs, "database.max_conns must be positive")
		}
	}
	if c.Navigation.AnnounceDistanceMeters <= 0 {
		errs = append(errs, "navigation.announce_distance_meters must be positive")
	}
	if c.Navigation.AnnounceCooldownSecs < 0 {
		errs = append(errs, "navigation.announce_cooldown_seconds must not be negative")
	}
	if c.Session.TTLMinutes <= 0 {
		errs = append(errs, "session.ttl_minutes must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
