package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config aggregates application settings that may be sourced from files or environment variables.
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	MinIO    MinIOConfig    `mapstructure:"minio"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Mailer   MailerConfig   `mapstructure:"mailer"`
	Export   ExportConfig   `mapstructure:"export"`
}

// APIConfig contains HTTP server settings.
type APIConfig struct {
	Port            int    `mapstructure:"port"`
	FrontendBaseURL string `mapstructure:"frontend_base_url"`
	ClamdAddr       string `mapstructure:"clamd_addr"`
}

// DatabaseConfig contains connection options for PostgreSQL.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

// RedisConfig contains Redis connection settings.
type RedisConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// MinIOConfig contains connection options for MinIO/S3-compatible storage.
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	Bucket          string `mapstructure:"bucket"`
}

// AuthConfig carries the JWT key material and token lifetimes.
type AuthConfig struct {
	PrivateKeyPEM     string        `mapstructure:"private_key_pem"`
	PublicKeyPEM      string        `mapstructure:"public_key_pem"`
	AccessTokenTTL    time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL   time.Duration `mapstructure:"refresh_token_ttl"`
	LoginRatePerHour  int           `mapstructure:"login_rate_per_hour"`
	LoginLockAttempts int           `mapstructure:"login_lock_attempts"`
	LoginLockTTL      time.Duration `mapstructure:"login_lock_ttl"`
}

// MailerConfig points at the HTTP mail relay used for transactional email.
type MailerConfig struct {
	RelayURL string `mapstructure:"relay_url"`
	APIKey   string `mapstructure:"api_key"`
	From     string `mapstructure:"from"`
}

// ExportConfig controls the curriculum export pipeline. FetchTimeout bounds
// each collection fetch; CacheTTL is the lifetime of per-user read-through
// cache entries; FallbackTokenTTL bounds the one-shot download token used when
// the primary upload path fails.
type ExportConfig struct {
	FetchTimeout     time.Duration `mapstructure:"fetch_timeout"`
	CacheTTL         time.Duration `mapstructure:"cache_ttl"`
	FallbackTokenTTL time.Duration `mapstructure:"fallback_token_ttl"`
}

// DSN builds a lib/pq compatible connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host,
		d.Port,
		d.User,
		d.Password,
		d.Name,
		d.SSLMode,
	)
}

// Addr returns the host:port pair for the Redis client.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// Load reads configuration solely from environment variables (with optional defaults).
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if err := bindEnv(v); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// MustLoad wraps Load and panics on failure.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.frontend_base_url", "http://localhost:5173")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "atlas")
	v.SetDefault("database.user", "atlas")
	v.SetDefault("database.password", "atlas")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("minio.endpoint", "localhost:9000")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.bucket", "curricula")
	v.SetDefault("auth.access_token_ttl", 15*time.Minute)
	v.SetDefault("auth.refresh_token_ttl", 7*24*time.Hour)
	v.SetDefault("auth.login_rate_per_hour", 10)
	v.SetDefault("auth.login_lock_attempts", 5)
	v.SetDefault("auth.login_lock_ttl", 15*time.Minute)
	v.SetDefault("mailer.from", "no-reply@atlasacademico.app")
	v.SetDefault("export.fetch_timeout", 8*time.Second)
	v.SetDefault("export.cache_ttl", time.Minute)
	v.SetDefault("export.fallback_token_ttl", 10*time.Minute)
}

func bindEnv(v *viper.Viper) error {
	mappings := map[string]string{
		"api.port":                  "API_PORT",
		"api.frontend_base_url":     "FRONTEND_BASE_URL",
		"api.clamd_addr":            "CLAMD_ADDR",
		"database.host":             "DATABASE_HOST",
		"database.port":             "DATABASE_PORT",
		"database.name":             "POSTGRES_DB",
		"database.user":             "POSTGRES_USER",
		"database.password":         "POSTGRES_PASSWORD",
		"database.sslmode":          "DATABASE_SSLMODE",
		"redis.host":                "REDIS_HOST",
		"redis.port":                "REDIS_PORT",
		"minio.endpoint":            "MINIO_ENDPOINT",
		"minio.access_key_id":       "MINIO_ACCESS_KEY_ID",
		"minio.secret_access_key":   "MINIO_SECRET_ACCESS_KEY",
		"minio.use_ssl":             "MINIO_USE_SSL",
		"minio.bucket":              "MINIO_BUCKET",
		"auth.private_key_pem":      "AUTH_PRIVATE_KEY_PEM",
		"auth.public_key_pem":       "AUTH_PUBLIC_KEY_PEM",
		"auth.access_token_ttl":     "AUTH_ACCESS_TOKEN_TTL",
		"auth.refresh_token_ttl":    "AUTH_REFRESH_TOKEN_TTL",
		"auth.login_rate_per_hour":  "AUTH_LOGIN_RATE_PER_HOUR",
		"auth.login_lock_attempts":  "AUTH_LOGIN_LOCK_ATTEMPTS",
		"auth.login_lock_ttl":       "AUTH_LOGIN_LOCK_TTL",
		"mailer.relay_url":          "MAILER_RELAY_URL",
		"mailer.api_key":            "MAILER_API_KEY",
		"mailer.from":               "MAILER_FROM",
		"export.fetch_timeout":      "EXPORT_FETCH_TIMEOUT",
		"export.cache_ttl":          "EXPORT_CACHE_TTL",
		"export.fallback_token_ttl": "EXPORT_FALLBACK_TOKEN_TTL",
	}

	for key, env := range mappings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind %s to %s: %w", key, env, err)
		}
	}

	return nil
}

func validate(cfg Config) error {
	if cfg.API.Port <= 0 {
		return errors.New("api port must be positive")
	}
	if cfg.Database.Host == "" {
		return errors.New("database host is required")
	}
	if cfg.Database.Port <= 0 {
		return errors.New("database port must be positive")
	}
	if cfg.Database.Name == "" {
		return errors.New("database name is required")
	}
	if cfg.Database.User == "" {
		return errors.New("database user is required")
	}
	if cfg.Database.Password == "" {
		return errors.New("database password is required")
	}
	if cfg.Database.SSLMode == "" {
		return errors.New("database sslmode is required")
	}
	if cfg.Redis.Host == "" {
		return errors.New("redis host is required")
	}
	if cfg.Redis.Port <= 0 {
		return errors.New("redis port must be positive")
	}
	if cfg.MinIO.Endpoint == "" {
		return errors.New("minio endpoint is required")
	}
	if cfg.MinIO.AccessKeyID == "" {
		return errors.New("minio access key id is required")
	}
	if cfg.MinIO.SecretAccessKey == "" {
		return errors.New("minio secret access key is required")
	}
	if cfg.MinIO.Bucket == "" {
		return errors.New("minio bucket is required")
	}
	if cfg.Export.FetchTimeout <= 0 {
		return errors.New("export fetch timeout must be positive")
	}
	if cfg.Export.CacheTTL <= 0 {
		return errors.New("export cache ttl must be positive")
	}
	return nil
}
