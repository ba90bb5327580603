package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port                string   `mapstructure:"PORT"`
	Env                 string   `mapstructure:"ENV"`
	DatabaseURL         string   `mapstructure:"DATABASE_URL"`
	DBMaxConns          int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns          int32    `mapstructure:"DB_MIN_CONNS"`
	RedisURL            string   `mapstructure:"REDIS_URL"`
	AuthIssuer          string   `mapstructure:"AUTH_ISSUER"`
	AuthJWKSURL         string   `mapstructure:"AUTH_JWKS_URL"`
	AuthAudience        string   `mapstructure:"AUTH_AUDIENCE"`
	AuthDevSigningKey   string   `mapstructure:"AUTH_DEV_SIGNING_KEY"`
	CORSOrigins         []string `mapstructure:"CORS_ORIGINS"`
	WhatsAppGatewayURL  string   `mapstructure:"WHATSAPP_GATEWAY_URL"`
	WhatsAppAPIKey      string   `mapstructure:"WHATSAPP_API_KEY"`
	WhatsAppCountryCode string   `mapstructure:"WHATSAPP_COUNTRY_CODE"`
	PresenceTTLSeconds  int      `mapstructure:"PRESENCE_TTL_SECONDS"`
	MigrationsDir       string   `mapstructure:"MIGRATIONS_DIR"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("WHATSAPP_COUNTRY_CODE", "55")
	v.SetDefault("PRESENCE_TTL_SECONDS", 90)
	v.SetDefault("MIGRATIONS_DIR", "migrations")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("REDIS_URL")
	v.BindEnv("AUTH_ISSUER")
	v.BindEnv("AUTH_JWKS_URL")
	v.BindEnv("AUTH_AUDIENCE")
	v.BindEnv("AUTH_DEV_SIGNING_KEY")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("WHATSAPP_GATEWAY_URL")
	v.BindEnv("WHATSAPP_API_KEY")
	v.BindEnv("WHATSAPP_COUNTRY_CODE")
	v.BindEnv("PRESENCE_TTL_SECONDS")
	v.BindEnv("MIGRATIONS_DIR")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. In production a real
// token issuer must be configured and the HMAC dev signing key is rejected, so
// development credentials can never verify outside development.
func (c *Config) Validate() error {
	if c.IsProduction() {
		if c.AuthIssuer == "" {
			return fmt.Errorf("AUTH_ISSUER must be set in production; refusing to start without authentication configuration")
		}
		if c.AuthDevSigningKey != "" {
			return fmt.Errorf("AUTH_DEV_SIGNING_KEY must not be set in production")
		}
	}
	if c.AuthIssuer == "" && c.AuthDevSigningKey == "" {
		return fmt.Errorf("either AUTH_ISSUER or AUTH_DEV_SIGNING_KEY must be configured")
	}
	if c.PresenceTTLSeconds <= 0 {
		return fmt.Errorf("PRESENCE_TTL_SECONDS must be positive, got %d", c.PresenceTTLSeconds)
	}
	return nil
}
