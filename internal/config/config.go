// Package config defines the application configuration and its loading.
package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Email    EmailConfig    `mapstructure:"email"`
	Cache    CacheConfig    `mapstructure:"cache"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// AuthConfig contains identity-related settings. Production identity
// arrives via platform-injected principal headers; the dev JWT secret
// enables a local bearer-token fallback and stays empty in production.
type AuthConfig struct {
	DevJWTSecret string `mapstructure:"dev_jwt_secret" validate:"omitempty,min=32"`
}

// EmailConfig contains outbound notification settings. Notifications are
// disabled entirely unless Enabled is set.
type EmailConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	SendGridAPIKey string `mapstructure:"sendgrid_api_key" validate:"required_if=Enabled true"`
	FromEmail      string `mapstructure:"from_email"`
	AppURL         string `mapstructure:"app_url"`
}

// CacheConfig contains settings for the optional Redis-backed stats cache.
// An empty URL disables caching.
type CacheConfig struct {
	RedisURL        string `mapstructure:"redis_url"`
	StatsTTLSeconds int    `mapstructure:"stats_ttl_seconds" validate:"gte=0"`
}
