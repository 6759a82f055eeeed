package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	Safety    SafetyConfig    `mapstructure:"safety"`
	Google    GoogleConfig    `mapstructure:"google"`
	Pinata    PinataConfig    `mapstructure:"pinata"`
	Counselor CounselorConfig `mapstructure:"counselor"`
	Auth      AuthConfig      `mapstructure:"auth"`
}

type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	Environment  string `mapstructure:"environment"`
	AllowOrigins string `mapstructure:"allow_origins"`
}

// Production reports whether the service runs in the production environment.
func (s ServerConfig) Production() bool {
	return strings.EqualFold(s.Environment, "production")
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

type TelemetryConfig struct {
	ServiceName  string `mapstructure:"service_name"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	Enabled      bool   `mapstructure:"enabled"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

// SafetyConfig is the single source of truth for the route-safety thresholds.
type SafetyConfig struct {
	UnsafeRadiusMeters float64       `mapstructure:"unsafe_radius_meters"`
	BufferMeters       float64       `mapstructure:"buffer_meters"`
	AlertRadiusMeters  float64       `mapstructure:"alert_radius_meters"`
	OptionTimeout      time.Duration `mapstructure:"option_timeout"`
	SearchTimeout      time.Duration `mapstructure:"search_timeout"`
	SnapshotTTL        int           `mapstructure:"snapshot_ttl"` // seconds
	CenterLat          float64       `mapstructure:"center_lat"`
	CenterLng          float64       `mapstructure:"center_lng"`
}

type GoogleConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type PinataConfig struct {
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
	BaseURL   string `mapstructure:"base_url"`
	Gateway   string `mapstructure:"gateway"`
}

type CounselorConfig struct {
	APIKey    string `mapstructure:"api_key"`
	BaseURL   string `mapstructure:"base_url"`
	Model     string `mapstructure:"model"`
	MaxTokens int    `mapstructure:"max_tokens"`
}

type AuthConfig struct {
	JWTSecret  string        `mapstructure:"jwt_secret"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
	CookieName string        `mapstructure:"cookie_name"`
}

const devJWTSecret = "aikyam-dev-secret"

// Load reads configuration from .env, file and environment variables.
func Load(service string) (*Config, error) {
	_ = godotenv.Load() // OK if missing

	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 60)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allow_origins", "http://localhost:5173")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "aikyam")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "aikyam")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.otlp_endpoint", "localhost:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "unsafe-archive")
	v.SetDefault("safety.unsafe_radius_meters", 50.0)
	v.SetDefault("safety.buffer_meters", 50.0)
	v.SetDefault("safety.alert_radius_meters", 100.0)
	v.SetDefault("safety.option_timeout", 10*time.Second)
	v.SetDefault("safety.search_timeout", 45*time.Second)
	v.SetDefault("safety.snapshot_ttl", 60)
	v.SetDefault("safety.center_lat", 10.7275)
	v.SetDefault("safety.center_lng", 76.2900)
	v.SetDefault("google.api_key", "")
	v.SetDefault("google.base_url", "https://routes.googleapis.com")
	v.SetDefault("google.timeout", 30*time.Second)
	v.SetDefault("pinata.api_key", "")
	v.SetDefault("pinata.api_secret", "")
	v.SetDefault("pinata.base_url", "https://api.pinata.cloud")
	v.SetDefault("pinata.gateway", "https://gateway.pinata.cloud/ipfs/")
	v.SetDefault("counselor.api_key", "")
	v.SetDefault("counselor.base_url", "https://generativelanguage.googleapis.com/v1beta/openai/")
	v.SetDefault("counselor.model", "gemini-1.5-flash")
	v.SetDefault("counselor.max_tokens", 256)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 30*24*time.Hour)
	v.SetDefault("auth.cookie_name", "token")

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: AIKYAM_SAFETY_BUFFER_METERS → safety.buffer_meters
	v.SetEnvPrefix("AIKYAM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Auth.JWTSecret == "" && !cfg.Server.Production() {
		cfg.Auth.JWTSecret = devJWTSecret
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
	if c.Safety.UnsafeRadiusMeters < 0 {
		errs = append(errs, "safety.unsafe_radius_meters must not be negative")
	}
	if c.Safety.BufferMeters < 0 {
		errs = append(errs, "safety.buffer_meters must not be negative")
	}
	if c.Safety.AlertRadiusMeters <= 0 {
		errs = append(errs, "safety.alert_radius_meters must be positive")
	}
	if c.Safety.OptionTimeout <= 0 {
		errs = append(errs, "safety.option_timeout must be positive")
	}
	if c.Safety.SearchTimeout < c.Safety.OptionTimeout {
		errs = append(errs, "safety.search_timeout must not be shorter than safety.option_timeout")
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, "auth.jwt_secret is required in production")
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, "auth.token_ttl must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
