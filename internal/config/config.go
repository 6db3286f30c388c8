package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Addr        string `env:"ADDR" envDefault:":8080"`
	Env         string `env:"ENV" envDefault:"development"`
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`
	APIURL      string `env:"EXTERNAL_URL" envDefault:"localhost:8080"`

	DB          DBConfig          `envPrefix:"DB_"`
	Redis       RedisConfig       `envPrefix:"REDIS_"`
	Auth        AuthConfig        `envPrefix:"AUTH_"`
	Mail        MailConfig        `envPrefix:"SMTP_"`
	RateLimiter RateLimiterConfig `envPrefix:"RATE_LIMITER_"`
	Catalog     CatalogConfig

	CloudinaryURL string `env:"CLOUDINARY_URL"`
}

type DBConfig struct {
	Addr        string `env:"ADDR,required,notEmpty"`
	MaxConns    int32  `env:"MAX_OPEN_CONNS" envDefault:"30"`
	MaxIdleTime string `env:"MAX_IDLE_TIME" envDefault:"15m"`
}

type RedisConfig struct {
	Addr     string `env:"ADDR" envDefault:"localhost:6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

type AuthConfig struct {
	BasicUser       string        `env:"BASIC_USER" envDefault:"admin"`
	BasicPass       string        `env:"BASIC_PASS"`
	TokenSecret     string        `env:"TOKEN_SECRET,required,notEmpty"`
	RefreshSecret   string        `env:"TOKEN_REFRESH_SECRET,required,notEmpty"`
	AccessTokenExp  time.Duration `env:"ACCESS_TOKEN_EXP" envDefault:"72h"`
	RefreshTokenExp time.Duration `env:"REFRESH_TOKEN_EXP" envDefault:"216h"`
	Issuer          string        `env:"TOKEN_ISSUER" envDefault:"storefront"`
}

type MailConfig struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT" envDefault:"587"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	From     string `env:"FROM"`
}

type RateLimiterConfig struct {
	Enabled              bool          `env:"ENABLED" envDefault:"false"`
	Store                string        `env:"STORE" envDefault:"redis"`
	RequestsPerTimeFrame int           `env:"REQUESTS_COUNT" envDefault:"20"`
	TimeFrame            time.Duration `env:"TIME_FRAME" envDefault:"1m"`
}

// CatalogConfig holds the storefront's cache and token lifetimes.
type CatalogConfig struct {
	MenuCacheTTL  time.Duration `env:"MENU_CACHE_TTL" envDefault:"5m"`
	ResetTokenTTL time.Duration `env:"RESET_TOKEN_TTL" envDefault:"30m"`
	PageSize      int           `env:"LISTING_PAGE_SIZE" envDefault:"20"`
}

// Load reads an optional .env file and parses the process environment.
func Load() (*Config, error) {
	// a missing .env is fine outside local development
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Catalog.PageSize <= 0 {
		return fmt.Errorf("LISTING_PAGE_SIZE must be positive, got %d", c.Catalog.PageSize)
	}
	if c.Catalog.ResetTokenTTL <= 0 {
		return fmt.Errorf("RESET_TOKEN_TTL must be positive")
	}
	if c.RateLimiter.Enabled && c.RateLimiter.RequestsPerTimeFrame <= 0 {
		return fmt.Errorf("RATE_LIMITER_REQUESTS_COUNT must be positive when the limiter is enabled")
	}
	if c.RateLimiter.Store != "redis" && c.RateLimiter.Store != "memory" {
		return fmt.Errorf("RATE_LIMITER_STORE must be redis or memory, got %q", c.RateLimiter.Store)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
