package config

import (
	"context"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,       default=8080"`
	Env       string `env:"ENV,        default=development"`
	BaseURL   string `env:"BASE_URL,   default=http://localhost:8080"`
	LogLevel  string `env:"LOG_LEVEL,  default=info"`
	LogPretty bool   `env:"LOG_PRETTY, default=false"`

	Auth  AuthConfig
	Mongo MongoConfig
	Redis RedisConfig
	SMTP  SMTPConfig
}

type AuthConfig struct {
	JWTSecret      string        `env:"JWT_SECRET"`
	SessionSecret  string        `env:"SESSION_SECRET"`
	CookieSecure   bool          `env:"COOKIE_SECURE,    default=false"`
	SessionTTL     time.Duration `env:"SESSION_TTL,      default=168h"`
	RememberTTL    time.Duration `env:"REMEMBER_TTL,     default=168h"`
	VerifyTokenTTL time.Duration `env:"VERIFY_TOKEN_TTL, default=24h"`
	ResetTokenTTL  time.Duration `env:"RESET_TOKEN_TTL,  default=1h"`
	AdminTokenTTL  time.Duration `env:"ADMIN_TOKEN_TTL,  default=24h"`
	BcryptCost     int           `env:"BCRYPT_COST,      default=10"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=newsroom"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// SMTPConfig is optional; without a host, mail is written to the log.
type SMTPConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT,     default=587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"MAIL_FROM,     default=noreply@localhost"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("operation", "process env").Wrap(err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool { return c.Env == "production" }

// validate rejects insecure settings in production and fills development
// defaults for secrets.
func (c *Config) validate() error {
	if c.IsProduction() {
		if len(c.Auth.JWTSecret) < 32 {
			return oops.Code("CONFIG_INVALID").Errorf("JWT_SECRET must be at least 32 characters in production")
		}
		if len(c.Auth.SessionSecret) < 32 {
			return oops.Code("CONFIG_INVALID").Errorf("SESSION_SECRET must be at least 32 characters in production")
		}
		return nil
	}
	if c.Auth.JWTSecret == "" {
		c.Auth.JWTSecret = "dev-jwt-secret-change-me-0123456789"
	}
	if c.Auth.SessionSecret == "" {
		c.Auth.SessionSecret = "dev-session-secret-change-me-01234"
	}
	return nil
}
