package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config aggregates runtime configuration for the forum API.
type Config struct {
	LogLevel string         `env:"LOG_LEVEL" envDefault:"info"`
	Server   ServerConfig   `envPrefix:"FORUM_API_"`
	Postgres PostgresConfig `envPrefix:"POSTGRES_"`
	MinIO    MinIOConfig    `envPrefix:"MINIO_"`
	Redis    RedisConfig    `envPrefix:"REDIS_"`
	Auth     AuthConfig     `envPrefix:"FORUM_AUTH_"`
	Mail     MailConfig     `envPrefix:"FORUM_MAIL_"`
	Chat     ChatConfig     `envPrefix:"FORUM_CHAT_"`
	Metrics  MetricsConfig  `envPrefix:"FORUM_METRICS_"`
}

// ServerConfig parameterizes the HTTP server.
type ServerConfig struct {
	Host         string        `env:"HOST" envDefault:"0.0.0.0"`
	Port         int           `env:"PORT" envDefault:"8080"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout  time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
}

// Address returns the listen address in host:port form.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// PostgresConfig contains PostgreSQL connection details.
type PostgresConfig struct {
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     int    `env:"PORT" envDefault:"5432"`
	User     string `env:"USER" envDefault:"forum_app"`
	Password string `env:"PASSWORD" envDefault:"change-me"`
	Database string `env:"DB" envDefault:"forum"`
	SSLMode  string `env:"SSL_MODE" envDefault:"disable"`
}

// DSN returns the PostgreSQL DSN string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Database, strings.ToLower(p.SSLMode))
}

// MinIOConfig carries MinIO connection and bucket information.
type MinIOConfig struct {
	Endpoint        string        `env:"ENDPOINT" envDefault:"localhost:9000"`
	AccessKeyID     string        `env:"ROOT_USER" envDefault:"forum"`
	SecretAccessKey string        `env:"ROOT_PASSWORD" envDefault:"change-me-strong-password"`
	Bucket          string        `env:"BUCKET" envDefault:"forum-images"`
	UseSSL          bool          `env:"USE_SSL" envDefault:"false"`
	Region          string        `env:"REGION" envDefault:""`
	PresignTTL      time.Duration `env:"PRESIGN_TTL" envDefault:"15m"`
}

// RedisConfig holds the connection used for short-lived email tokens.
type RedisConfig struct {
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     int    `env:"PORT" envDefault:"6379"`
	Password string `env:"PASSWORD" envDefault:""`
	DB       int    `env:"DB" envDefault:"0"`
}

// Address returns the redis address in host:port form.
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// AuthConfig groups authentication-related settings.
type AuthConfig struct {
	AccessTokenSecret string        `env:"ACCESS_TOKEN_SECRET" envDefault:"change-me-to-a-64-byte-secret"`
	AccessTokenTTL    time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"5m"`
	RefreshTokenTTL   time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`
	Issuer            string        `env:"ISSUER" envDefault:"Projet_Forum"`
	Audience          string        `env:"AUDIENCE" envDefault:"clients"`
	BcryptCost        int           `env:"BCRYPT_COST" envDefault:"12"`
	MaxFailedAttempts int           `env:"MAX_FAILED_ATTEMPTS" envDefault:"0"`
	LockoutDuration   time.Duration `env:"LOCKOUT_DURATION" envDefault:"5m"`
	EmailTokenTTL     time.Duration `env:"EMAIL_TOKEN_TTL" envDefault:"24h"`
}

// MailConfig configures outbound email.
type MailConfig struct {
	SendgridAPIKey string        `env:"SENDGRID_API_KEY" envDefault:""`
	FromAddress    string        `env:"FROM_ADDRESS" envDefault:"projetforum@junaagnah.com"`
	FromName       string        `env:"FROM_NAME" envDefault:"Projet Forum"`
	ContactAddress string        `env:"CONTACT_ADDRESS" envDefault:"contact@junaagnah.com"`
	ApplicationURL string        `env:"APPLICATION_URL" envDefault:"http://localhost:4200"`
	Sandbox        bool          `env:"SANDBOX" envDefault:"false"`
	Retries        int           `env:"RETRIES" envDefault:"2"`
	RetryDelay     time.Duration `env:"RETRY_DELAY" envDefault:"500ms"`
}

// ChatConfig tunes the websocket chat.
type ChatConfig struct {
	HistorySize    int      `env:"HISTORY_SIZE" envDefault:"100"`
	MessagesPerSec float64  `env:"MESSAGES_PER_SECOND" envDefault:"2"`
	Burst          int      `env:"BURST" envDefault:"5"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`
}

// MetricsConfig groups observability settings.
type MetricsConfig struct {
	PrometheusPath string `env:"PATH" envDefault:"/metrics"`
}

// Load reads configuration values from environment variables, applying defaults.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if cfg.Auth.BcryptCost < 4 || cfg.Auth.BcryptCost > 31 {
		cfg.Auth.BcryptCost = 12
	}
	if cfg.Chat.HistorySize <= 0 {
		cfg.Chat.HistorySize = 100
	}
	if cfg.Mail.Retries < 0 {
		cfg.Mail.Retries = 0
	}
	if cfg.Mail.RetryDelay <= 0 {
		cfg.Mail.RetryDelay = 500 * time.Millisecond
	}

	return cfg, nil
}
