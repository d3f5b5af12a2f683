package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port string `mapstructure:"PORT"`
	Env  string `mapstructure:"ENV"`

	// Exchange connection. Credentials may be absent; authentication calls
	// then fail cleanly instead of the process refusing to start.
	NphiesBaseURL      string        `mapstructure:"NPHIES_BASE_URL"`
	NphiesClientID     string        `mapstructure:"NPHIES_CLIENT_ID"`
	NphiesClientSecret string        `mapstructure:"NPHIES_CLIENT_SECRET"`
	NphiesTimeout      time.Duration `mapstructure:"NPHIES_TIMEOUT"`

	// Caller session tokens.
	JWTSecret  string        `mapstructure:"JWT_SECRET"`
	JWTIssuer  string        `mapstructure:"JWT_ISSUER"`
	SessionTTL time.Duration `mapstructure:"SESSION_TTL"`

	// GatewayUsers is a comma-separated "username:bcrypt-hash:role:providerId"
	// list; empty in development seeds a demo account.
	GatewayUsers string `mapstructure:"GATEWAY_USERS"`

	RedisURL    string   `mapstructure:"REDIS_URL"`
	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`

	AIUpstreamURL string `mapstructure:"AI_UPSTREAM_URL"`
	AIAPIKey      string `mapstructure:"AI_API_KEY"`

	RateLimitRPS   float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int           `mapstructure:"RATE_LIMIT_BURST"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("NPHIES_TIMEOUT", "30s")
	v.SetDefault("JWT_ISSUER", "nphies-gateway")
	v.SetDefault("SESSION_TTL", "8h")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 50)
	v.SetDefault("RATE_LIMIT_BURST", 100)
	// Must cover the worst-case retried operation: three upstream attempts
	// of NPHIES_TIMEOUT each plus backoff (1s + 2s + jitter), so a transient
	// outage exhausts the attempt cap and answers 503 instead of being cut
	// off mid-retry by the request deadline.
	v.SetDefault("REQUEST_TIMEOUT", "100s")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("NPHIES_BASE_URL")
	v.BindEnv("NPHIES_CLIENT_ID")
	v.BindEnv("NPHIES_CLIENT_SECRET")
	v.BindEnv("NPHIES_TIMEOUT")
	v.BindEnv("JWT_SECRET")
	v.BindEnv("JWT_ISSUER")
	v.BindEnv("SESSION_TTL")
	v.BindEnv("GATEWAY_USERS")
	v.BindEnv("REDIS_URL")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("AI_UPSTREAM_URL")
	v.BindEnv("AI_API_KEY")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")
	v.BindEnv("REQUEST_TIMEOUT")

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

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. Missing exchange
// credentials are allowed (authentication calls fail cleanly at the token
// endpoint), but a production gateway must not mint caller sessions with an
// empty secret or an empty user list.
func (c *Config) Validate() error {
	if c.NphiesBaseURL == "" {
		return fmt.Errorf("NPHIES_BASE_URL is required")
	}
	if c.IsProduction() && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	if c.IsProduction() && c.GatewayUsers == "" {
		return fmt.Errorf("GATEWAY_USERS is required in production")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit values must be positive (RPS=%v burst=%d)", c.RateLimitRPS, c.RateLimitBurst)
	}
	return nil
}
