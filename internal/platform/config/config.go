// Copyright (c) 2026 Trackwell Health. All rights reserved.
// Author: platform@trackwell.health

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into strongly-typed
Go structs, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, HTTP clients) via constructors.
  - Zero Hidden State: No global variables are used to store config.

Both services are Twelve-Factor compliant: every tunable lives in the
environment, and a missing required value (most importantly the JWT signing
secret) is a fatal startup error, never a runtime surprise.
*/
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// # Auth Service Configuration

// Config holds all runtime configuration for the Trackwell auth service.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8081"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value store (Redis) for volatile login-throttle counters.
	RedisURL string `env:"REDIS_URL,required"`

	// JWTSecret signs access tokens (HS256). Its absence aborts startup.
	JWTSecret string `env:"JWT_SECRET,required"`

	// Token lifetimes
	AccessTokenTTL       time.Duration `env:"ACCESS_TOKEN_TTL"       envDefault:"1h"`
	RefreshTokenTTL      time.Duration `env:"REFRESH_TOKEN_TTL"      envDefault:"720h"`
	ResetTokenTTL        time.Duration `env:"RESET_TOKEN_TTL"        envDefault:"1h"`
	VerificationTokenTTL time.Duration `env:"VERIFICATION_TOKEN_TTL" envDefault:"24h"`

	// BcryptCost is the password hashing work factor.
	BcryptCost int `env:"BCRYPT_COST" envDefault:"10"`
}

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// # Gateway Configuration

// GatewayConfig holds all runtime configuration for the API gateway.
type GatewayConfig struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Backend base URLs, one per routed service.
	AuthServiceURL      string `env:"AUTH_SERVICE_URL,required"`
	UserServiceURL      string `env:"USER_SERVICE_URL,required"`
	AnalyticsServiceURL string `env:"ANALYTICS_SERVICE_URL,required"`

	// ValidateTimeout bounds the synchronous token-validation call to the
	// auth service. Exceeding it is an upstream failure (503), never an
	// implicit allow.
	ValidateTimeout time.Duration `env:"AUTH_VALIDATE_TIMEOUT" envDefault:"10s"`

	// ProxyTimeout is the default per-route deadline for relayed requests.
	ProxyTimeout time.Duration `env:"PROXY_TIMEOUT" envDefault:"30s"`
}

// LoadGateway parses environment variables into a [GatewayConfig] struct.
func LoadGateway() (*GatewayConfig, error) {

	cfg := &GatewayConfig{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	return cfg, nil
}

// IsDevelopment reports whether the gateway is running in development mode.
func (c *GatewayConfig) IsDevelopment() bool {
	return c.Environment == "development"
}
