package app

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/aussiebroadwan/accounts/pkg/slogx"
)

type Config struct {
	Env       string `env:"ENV"        envDefault:"dev"`  // dev, staging, prod
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"` // debug, info, warn, error
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"` // json, text
	Port      int    `env:"PORT"       envDefault:"8080"`

	ShutdownGracePeriod  time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
	HousekeepingInterval time.Duration `env:"HOUSEKEEPING_INTERVAL" envDefault:"1h"`

	// Issuer is stamped into the iss claim of every token.
	Issuer string `env:"ACCOUNTS_ISSUER" envDefault:"accounts"`

	// Origin is the frontend base URL used to build mailed links.
	Origin string `env:"ORIGIN" envDefault:"http://localhost:3000"`

	// DatabaseDriver is "sqlite" or "postgres". DatabaseURL is a file path
	// for sqlite and a postgres:// URL for postgres.
	DatabaseDriver string `env:"DATABASE_DRIVER" envDefault:"sqlite"`
	DatabaseURL    string `env:"DATABASE_URL"    envDefault:"accounts.db"`

	// CacheURL is a redis:// URL. Empty keeps sessions in process memory.
	CacheURL            string        `env:"CACHE_URL"`
	CacheConnectRetries uint64        `env:"CACHE_CONNECT_RETRIES" envDefault:"5"`
	CacheConnectBackoff time.Duration `env:"CACHE_CONNECT_BACKOFF" envDefault:"250ms"`

	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_EXPIRES_IN"  envDefault:"15m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_EXPIRES_IN" envDefault:"60m"`
	SessionTTL      time.Duration `env:"SESSION_CACHE_EXPIRES_IN" envDefault:"60m"`

	Keys    KeyConfig    `envPrefix:"JWT_"`
	SMTP    SMTPConfig   `envPrefix:"SMTP_"`
	Cookies CookieConfig `envPrefix:"COOKIE_"`
}

// KeyConfig carries the four RS256 keys, either inline (PEM or base64 PEM)
// or read from the file named by the *_FILE variable. Inline wins.
type KeyConfig struct {
	AccessPrivateKey  string `env:"ACCESS_TOKEN_PRIVATE_KEY"`
	AccessPublicKey   string `env:"ACCESS_TOKEN_PUBLIC_KEY"`
	RefreshPrivateKey string `env:"REFRESH_TOKEN_PRIVATE_KEY"`
	RefreshPublicKey  string `env:"REFRESH_TOKEN_PUBLIC_KEY"`

	AccessPrivateKeyFile  string `env:"ACCESS_TOKEN_PRIVATE_KEY_FILE,file"`
	AccessPublicKeyFile   string `env:"ACCESS_TOKEN_PUBLIC_KEY_FILE,file"`
	RefreshPrivateKeyFile string `env:"REFRESH_TOKEN_PRIVATE_KEY_FILE,file"`
	RefreshPublicKeyFile  string `env:"REFRESH_TOKEN_PUBLIC_KEY_FILE,file"`
}

// SMTPConfig is the outgoing relay. An empty Host logs mail instead of
// sending it.
type SMTPConfig struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT"     envDefault:"587"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	TLS      string `env:"TLS"      envDefault:"mandatory"`
	From     string `env:"FROM"     envDefault:"no-reply@localhost"`
	Product  string `env:"PRODUCT"  envDefault:"User Portal"`
}

type CookieConfig struct {
	Domain   string `env:"DOMAIN"`
	Secure   bool   `env:"SECURE"    envDefault:"false"`
	SameSite string `env:"SAME_SITE" envDefault:"lax"`
}

var (
	errUnknownDriver = errors.New("DATABASE_DRIVER must be sqlite or postgres")
	errBadTTL        = errors.New("token and session lifetimes must be positive")
	errShortSession  = errors.New("SESSION_CACHE_EXPIRES_IN must not be shorter than REFRESH_TOKEN_EXPIRES_IN")
)

// LoadConfig reads the process environment.
func LoadConfig() (Config, error) {
	return loadConfig(env.Options{})
}

func loadConfig(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("%w: got %q", errUnknownDriver, c.DatabaseDriver)
	}
	if _, err := slogx.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	if !slices.Contains(slogx.Formats, strings.ToLower(c.LogFormat)) {
		return fmt.Errorf("LOG_FORMAT must be one of %v: got %q", slogx.Formats, c.LogFormat)
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 || c.SessionTTL <= 0 {
		return errBadTTL
	}
	if c.SessionTTL < c.RefreshTokenTTL {
		return errShortSession
	}
	return nil
}
