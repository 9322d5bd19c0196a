package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port            string        `env:"PORT" envDefault:"8080"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	Mongo    MongoConfig
	Audit    AuditConfig
	Redis    RedisConfig
	Events   EventConfig
	Identity IdentityConfig
	Student  StudentConfig
}

// MongoConfig configures the document store. URI is intentionally not
// required here; a missing URI surfaces as a connection error on first use.
type MongoConfig struct {
	URI                    string        `env:"MONGODB_URI"`
	Database               string        `env:"MONGODB_DATABASE" envDefault:"student_portal"`
	Collection             string        `env:"MONGODB_USERS_COLLECTION" envDefault:"users"`
	ConnectTimeout         time.Duration `env:"MONGODB_CONNECT_TIMEOUT" envDefault:"10s"`
	ServerSelectionTimeout time.Duration `env:"MONGODB_SERVER_SELECTION_TIMEOUT" envDefault:"5s"`
	SocketTimeout          time.Duration `env:"MONGODB_SOCKET_TIMEOUT" envDefault:"45s"`
	MaxPoolSize            uint64        `env:"MONGODB_MAX_POOL_SIZE" envDefault:"10"`
}

// AuditConfig points at the Postgres audit store. Empty DSN disables it.
type AuditConfig struct {
	DatabaseURL string `env:"AUDIT_DATABASE_URL"`
}

type RedisConfig struct {
	URL         string        `env:"REDIS_URL"`
	DeliveryTTL time.Duration `env:"WEBHOOK_DELIVERY_TTL" envDefault:"24h"`
}

type IdentityConfig struct {
	Endpoint      string `env:"CASDOOR_ENDPOINT"`
	ClientID      string `env:"CASDOOR_CLIENT_ID"`
	ClientSecret  string `env:"CASDOOR_CLIENT_SECRET"`
	Certificate   string `env:"CASDOOR_CERTIFICATE"`
	Organization  string `env:"CASDOOR_ORGANIZATION"`
	Application   string `env:"CASDOOR_APPLICATION"`
	JWTSecret     string `env:"JWT_SECRET"`
	WebhookSecret string `env:"WEBHOOK_SECRET"`
	DefaultRole   string `env:"DEFAULT_ROLE" envDefault:"student"`
}

// UseCasdoor reports whether enough casdoor settings are present to verify tokens.
func (c IdentityConfig) UseCasdoor() bool {
	return c.Endpoint != "" && c.Certificate != ""
}

type StudentConfig struct {
	CodePrefix      string `env:"STUDENT_CODE_PREFIX" envDefault:"Y4D_K"`
	CodeMaxAttempts int    `env:"STUDENT_CODE_MAX_ATTEMPTS" envDefault:"5"`
}

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.Identity.JWTSecret == "" && !cfg.Identity.UseCasdoor() {
		if cfg.IsProduction() {
			return nil, errors.New("either casdoor settings or JWT_SECRET must be configured")
		}
		cfg.Identity.JWTSecret = "development-secret"
	}
	if cfg.IsProduction() && cfg.Identity.WebhookSecret == "" {
		return nil, errors.New("WEBHOOK_SECRET must be configured in production")
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
