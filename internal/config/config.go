package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"golang.org/x/crypto/bcrypt"
)

const minSecretLength = 32

// Config aggregates runtime configuration for the Watch Together API.
type Config struct {
	Env      string `envconfig:"APP_ENV" default:"development"`
	Server   ServerConfig
	Postgres PostgresConfig
	MinIO    MinIOConfig
	Auth     AuthConfig
	Metrics  MetricsConfig
	Log      LogConfig
	CORS     CORSConfig
}

// IsProduction reports whether the service runs in production mode.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// ServerConfig parameterizes the HTTP server.
type ServerConfig struct {
	Host         string        `envconfig:"HTTP_HOST" default:"0.0.0.0"`
	Port         int           `envconfig:"HTTP_PORT" default:"8080"`
	ReadTimeout  time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"15s"`
	IdleTimeout  time.Duration `envconfig:"HTTP_IDLE_TIMEOUT" default:"60s"`
}

// Address returns the listen address in host:port form.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// PostgresConfig contains PostgreSQL connection details.
type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" default:"localhost"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" default:"watchtogether"`
	Password string `envconfig:"POSTGRES_PASSWORD" default:"change-me"`
	Database string `envconfig:"POSTGRES_DB" default:"watchtogether"`
	SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
}

// DSN returns the PostgreSQL DSN string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Database, strings.ToLower(p.SSLMode))
}

// MinIOConfig carries MinIO connection and bucket information.
type MinIOConfig struct {
	Endpoint        string        `envconfig:"MINIO_ENDPOINT" default:"localhost:9000"`
	AccessKeyID     string        `envconfig:"MINIO_ROOT_USER" default:"watchtogether"`
	SecretAccessKey string        `envconfig:"MINIO_ROOT_PASSWORD" default:"change-me-strong-password"`
	Bucket          string        `envconfig:"MINIO_BUCKET" default:"watchtogether"`
	UseSSL          bool          `envconfig:"MINIO_USE_SSL" default:"false"`
	Region          string        `envconfig:"MINIO_REGION"`
	PresignTTL      time.Duration `envconfig:"MINIO_PRESIGN_TTL" default:"15m"`
}

// AuthConfig groups authentication-related settings.
type AuthConfig struct {
	Secret          string        `envconfig:"JWT_SECRET_KEY" required:"true"`
	AccessTokenTTL  time.Duration `envconfig:"AUTH_ACCESS_TOKEN_TTL" default:"30m"`
	RefreshTokenTTL time.Duration `envconfig:"AUTH_REFRESH_TOKEN_TTL" default:"168h"`
	BcryptCost      int           `envconfig:"AUTH_BCRYPT_COST" default:"10"`
}

// MetricsConfig groups observability settings.
type MetricsConfig struct {
	PrometheusPath string `envconfig:"METRICS_PATH" default:"/metrics"`
}

// LogConfig selects the logger flavour.
type LogConfig struct {
	Level       string   `envconfig:"LOG_LEVEL" default:"info"`
	Format      string   `envconfig:"LOG_FORMAT" default:"json"`
	OutputPaths []string `envconfig:"LOG_OUTPUT_PATHS" default:"stdout"`
}

// CORSConfig lists the frontend origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

// Load reads configuration values from environment variables, applying defaults.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("process env: %w", err)
	}

	if err := cfg.Auth.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (a *AuthConfig) validate() error {
	if len(a.Secret) < minSecretLength {
		return fmt.Errorf("JWT_SECRET_KEY must be at least %d bytes", minSecretLength)
	}
	if a.AccessTokenTTL <= 0 || a.RefreshTokenTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	if a.BcryptCost < bcrypt.MinCost || a.BcryptCost > bcrypt.MaxCost {
		a.BcryptCost = bcrypt.DefaultCost
	}
	return nil
}
