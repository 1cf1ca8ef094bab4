package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Geocoder  GeocoderConfig  `mapstructure:"geocoder"`
	Routing   RoutingConfig   `mapstructure:"routing"`
	Map       MapConfig       `mapstructure:"map"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

// GeocoderConfig points at a Nominatim-compatible place search service.
type GeocoderConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	// RatePerSecond caps outbound requests; public Nominatim allows 1/s.
	RatePerSecond float64 `mapstructure:"rate_per_second"`
}

// RoutingConfig points at an OSRM-compatible routing service.
type RoutingConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// MapConfig tunes the interaction core shared by every map session.
type MapConfig struct {
	LongPressMS      int     `mapstructure:"long_press_ms"`
	SuppressWindowMS int     `mapstructure:"suppress_window_ms"`
	OriginSlackPx    int     `mapstructure:"origin_slack_px"`
	HighlightMS      int     `mapstructure:"highlight_ms"`
	PopupRetryBaseMS int     `mapstructure:"popup_retry_base_ms"`
	PopupMaxRetries  int     `mapstructure:"popup_max_retries"`
	MoveFallbackMS   int     `mapstructure:"move_fallback_ms"`
	CoordTolerance   float64 `mapstructure:"coord_tolerance"`
	CloseZoom        int     `mapstructure:"close_zoom"`
	DefaultLat       float64 `mapstructure:"default_lat"`
	DefaultLng       float64 `mapstructure:"default_lng"`
	DefaultZoom      int     `mapstructure:"default_zoom"`
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
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "padwatch")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "padwatch")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("geocoder.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocoder.user_agent", "padwatch/1.0")
	v.SetDefault("geocoder.timeout_seconds", 8)
	v.SetDefault("geocoder.rate_per_second", 1.0)
	v.SetDefault("routing.base_url", "https://router.project-osrm.org")
	v.SetDefault("routing.timeout_seconds", 8)
	v.SetDefault("map.long_press_ms", 500)
	v.SetDefault("map.suppress_window_ms", 500)
	v.SetDefault("map.origin_slack_px", 10)
	v.SetDefault("map.highlight_ms", 5000)
	v.SetDefault("map.popup_retry_base_ms", 200)
	v.SetDefault("map.popup_max_retries", 5)
	v.SetDefault("map.move_fallback_ms", 1000)
	v.SetDefault("map.coord_tolerance", 0.0005)
	v.SetDefault("map.close_zoom", 16)
	v.SetDefault("map.default_lat", 28.4889)
	v.SetDefault("map.default_lng", -80.5778)
	v.SetDefault("map.default_zoom", 10)
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", true)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: PADWATCH_DATABASE_HOST → database.host
	v.SetEnvPrefix("PADWATCH")
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
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Database.Host == "" {
		errs = append(errs, "database.host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, "database.user is required")
	}
	if c.Database.DBName == "" {
		errs = append(errs, "database.dbname is required")
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Geocoder.BaseURL == "" {
		errs = append(errs, "geocoder.base_url is required")
	}
	if c.Geocoder.RatePerSecond <= 0 {
		errs = append(errs, "geocoder.rate_per_second must be positive")
	}
	if c.Routing.BaseURL == "" {
		errs = append(errs, "routing.base_url is required")
	}
	if c.Map.LongPressMS <= 0 {
		errs = append(errs, "map.long_press_ms must be positive")
	}
	if c.Map.PopupMaxRetries < 0 {
		errs = append(errs, "map.popup_max_retries must not be negative")
	}
	if c.Map.DefaultLat < -90 || c.Map.DefaultLat > 90 {
		errs = append(errs, fmt.Sprintf("map.default_lat out of range: %v", c.Map.DefaultLat))
	}
	if c.Map.DefaultLng < -180 || c.Map.DefaultLng > 180 {
		errs = append(errs, fmt.Sprintf("map.default_lng out of range: %v", c.Map.DefaultLng))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
