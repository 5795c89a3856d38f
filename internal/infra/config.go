package infra

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration parsed from environment variables.
type Config struct {
	// Database
	DatabaseURL string `env:"DATABASE_URL"`
	PGHost      string `env:"PGHOST" envDefault:"localhost"`
	PGPort      int    `env:"PGPORT" envDefault:"5432"`
	PGUser      string `env:"PGUSER" envDefault:"wallet"`
	PGPassword  string `env:"PGPASSWORD" envDefault:"wallet"`
	PGDatabase  string `env:"PGDATABASE" envDefault:"wallet"`

	// Server
	WalletServerPort int `env:"WALLET_SERVER_PORT" envDefault:"4001"`

	// Provider callback auth. One shared secret per operator id.
	OperatorID     string `env:"OPERATOR_ID" envDefault:"default"`
	OperatorSecret string `env:"OPERATOR_SECRET" envDefault:"change-me-in-production"`

	// Internal API service tokens
	ServiceJWTSecret string        `env:"SERVICE_JWT_SECRET" envDefault:"change-me-in-production"`
	ServiceJWTExpiry time.Duration `env:"SERVICE_JWT_EXPIRY" envDefault:"1h"`

	// Kafka (read-model mirror feed)
	KafkaBrokers string `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	KafkaEnabled bool   `env:"KAFKA_ENABLED" envDefault:"false"`
	MirrorTopic  string `env:"MIRROR_TOPIC" envDefault:"wallet.ledger"`
	MirrorGroup  string `env:"MIRROR_GROUP" envDefault:"wallet-mirror"`

	// Dev
	AllowInsecureDefaults bool `env:"ALLOW_INSECURE_DEFAULTS" envDefault:"false"`
}

// LoadConfig parses environment variables into a Config struct.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate checks for insecure configuration that must not run in production.
// Set ALLOW_INSECURE_DEFAULTS=true to bypass (local dev only).
func (c *Config) Validate() error {
	if c.AllowInsecureDefaults {
		return nil
	}
	if c.OperatorSecret == "change-me-in-production" {
		return fmt.Errorf("OPERATOR_SECRET is set to the insecure default; set a strong secret or set ALLOW_INSECURE_DEFAULTS=true for local dev")
	}
	if c.ServiceJWTSecret == "change-me-in-production" {
		return fmt.Errorf("SERVICE_JWT_SECRET is set to the insecure default; set a strong secret or set ALLOW_INSECURE_DEFAULTS=true for local dev")
	}
	if len(c.ServiceJWTSecret) < 32 {
		return fmt.Errorf("SERVICE_JWT_SECRET is too short (%d chars); minimum 32 characters required", len(c.ServiceJWTSecret))
	}
	return nil
}

// DSN returns the PostgreSQL connection string, preferring DATABASE_URL if set.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.PGUser, c.PGPassword, c.PGHost, c.PGPort, c.PGDatabase)
}
