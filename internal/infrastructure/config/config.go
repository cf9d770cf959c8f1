package config

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
	"golang.org/x/crypto/bcrypt"
)

// minProductionSecretLength is the shortest JWT_SECRET accepted outside local mode.
const minProductionSecretLength = 32

type Config struct {
	Port            string        `env:"PORT,             default=8080"`
	Env             string        `env:"ENV,              default=development"`
	LogLevel        string        `env:"LOG_LEVEL,        default=info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT, default=10s"`

	Auth      AuthConfig
	Cookie    CookieConfig
	CORS      CORSConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	Audit     AuditConfig
	RateLimit RateLimitConfig
}

type AuthConfig struct {
	JWTSecret       string        `env:"JWT_SECRET, required"`
	TokenTTL        time.Duration `env:"TOKEN_TTL,        default=24h"`
	BcryptCost      int           `env:"BCRYPT_COST,      default=10"`
	TokenRevocation bool          `env:"TOKEN_REVOCATION, default=true"`
}

type CookieConfig struct {
	Name     string `env:"COOKIE_NAME,     default=token"`
	SameSite string `env:"COOKIE_SAMESITE, default=none"`
	Domain   string `env:"COOKIE_DOMAIN"`
}

type CORSConfig struct {
	Origins []string `env:"CORS_ORIGINS, default=http://localhost:5173"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=inventory"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type AuditConfig struct {
	Workers int `env:"AUDIT_WORKERS, default=4"`
}

type RateLimitConfig struct {
	LoginPerMinute int `env:"LOGIN_RATE_PER_MINUTE, default=10"`
	LoginBurst     int `env:"LOGIN_RATE_BURST,      default=5"`
}

// Load reads configuration from the process environment and validates it.
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom is Load with an explicit lookuper.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// Validate enforces the invariants envconfig cannot express.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		errs = append(errs, errors.New("JWT_SECRET must not be blank"))
	} else if !c.IsLocal() && len(c.Auth.JWTSecret) < minProductionSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes outside local mode", minProductionSecretLength))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	if _, err := ParseSameSite(c.Cookie.SameSite); err != nil {
		errs = append(errs, err)
	}
	if c.Cookie.Name == "" {
		errs = append(errs, errors.New("COOKIE_NAME must not be empty"))
	}
	if c.Mongo.URI == "" {
		errs = append(errs, errors.New("MONGO_URI must not be empty"))
	}
	if c.Audit.Workers < 0 {
		errs = append(errs, errors.New("AUDIT_WORKERS must not be negative"))
	}

	return errors.Join(errs...)
}

// IsLocal reports whether the process runs on a developer machine or in tests.
// Cookies are only sent without the Secure flag in local mode.
func (c *Config) IsLocal() bool {
	switch strings.ToLower(c.Env) {
	case "development", "dev", "local", "test":
		return true
	}
	return false
}

// SameSite returns the parsed cookie SameSite policy. Validate has already
// rejected unknown values.
func (c *Config) SameSite() http.SameSite {
	s, _ := ParseSameSite(c.Cookie.SameSite)
	return s
}

// ParseSameSite maps none/lax/strict to http.SameSite.
func ParseSameSite(s string) (http.SameSite, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return http.SameSiteNoneMode, nil
	case "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	}
	return http.SameSiteDefaultMode, fmt.Errorf("COOKIE_SAMESITE %q is not one of none, lax, strict", s)
}
