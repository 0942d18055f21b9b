// Package config loads the service configuration. Values come from built-in
// defaults, then an optional YAML file, then PREQUAL_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"prequal-service/logging"
)

type Config struct {
	Server       ServerConfig       `yaml:"server"`
	CORS         CORSConfig         `yaml:"cors"`
	Auth         AuthConfig         `yaml:"auth"`
	RateLimit    RateLimitConfig    `yaml:"rate_limit"`
	Certificates CertificatesConfig `yaml:"certificates"`
	Documents    DocumentsConfig    `yaml:"documents"`
	Storage      StorageConfig      `yaml:"storage"`
	Cache        CacheConfig        `yaml:"cache"`
	Logging      logging.Config     `yaml:"logging"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// CORSConfig lists origin substrings; an origin containing any of them is allowed.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	Issuer    string `yaml:"issuer"`
	// Required rejects requests without a bearer token.
	Required bool `yaml:"required"`
}

type RateLimitConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Capacity int           `yaml:"capacity"`
	Window   time.Duration `yaml:"window"`
}

type CertificatesConfig struct {
	IDFormat            string   `yaml:"id_format"`
	DefaultValidityDays int      `yaml:"default_validity_days"`
	MinValidityDays     int      `yaml:"min_validity_days"`
	MaxValidityDays     int      `yaml:"max_validity_days"`
	Currencies          []string `yaml:"currencies"`
	DefaultCurrency     string   `yaml:"default_currency"`
}

type DocumentsConfig struct {
	// Dir archives rendered PDFs when set.
	Dir          string `yaml:"dir"`
	BrandTitle   string `yaml:"brand_title"`
	BrandWebsite string `yaml:"brand_website"`
}

type StorageConfig struct {
	Driver      string `yaml:"driver"` // memory, postgres
	PostgresDSN string `yaml:"postgres_dsn"`
	MaxConns    int32  `yaml:"max_conns"`
	MinConns    int32  `yaml:"min_conns"`
}

type CacheConfig struct {
	Driver        string        `yaml:"driver"` // memory, redis
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	TTL           time.Duration `yaml:"ttl"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8001",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"vercel.app", "emergentagent.com", "localhost:3000", "localhost:3001"},
		},
		RateLimit: RateLimitConfig{
			Enabled:  true,
			Capacity: 30,
			Window:   time.Minute,
		},
		Certificates: CertificatesConfig{
			IDFormat:            "short",
			DefaultValidityDays: 90,
			MinValidityDays:     1,
			MaxValidityDays:     365,
			Currencies:          []string{"TTD", "USD"},
			DefaultCurrency:     "TTD",
		},
		Documents: DocumentsConfig{
			BrandTitle:   "Pre-Qualification App",
			BrandWebsite: "www.prequalificationapp.com",
		},
		Storage: StorageConfig{
			Driver:   "memory",
			MaxConns: 10,
		},
		Cache: CacheConfig{
			Driver: "memory",
			TTL:    24 * time.Hour,
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load reads path (when non-empty and present) over the defaults, applies
// environment overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables read through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("PREQUAL_HTTP_ADDR", &c.Server.Addr)
	str("PREQUAL_JWT_SECRET", &c.Auth.JWTSecret)
	str("PREQUAL_STORAGE_DRIVER", &c.Storage.Driver)
	str("PREQUAL_DATABASE_URL", &c.Storage.PostgresDSN)
	str("PREQUAL_CACHE_DRIVER", &c.Cache.Driver)
	str("PREQUAL_REDIS_ADDR", &c.Cache.RedisAddr)
	str("PREQUAL_REDIS_PASSWORD", &c.Cache.RedisPassword)
	str("PREQUAL_DOCUMENTS_DIR", &c.Documents.Dir)
	str("PREQUAL_LOG_LEVEL", &c.Logging.Level)
	str("PREQUAL_LOG_FORMAT", &c.Logging.Format)

	if v, ok := lookup("PREQUAL_ALLOWED_ORIGINS"); ok && v != "" {
		c.CORS.AllowedOrigins = splitList(v)
	}
	if v, ok := lookup("PREQUAL_AUTH_REQUIRED"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("PREQUAL_AUTH_REQUIRED: %w", err)
		}
		c.Auth.Required = b
	}
	return nil
}

// Validate reports the first inconsistent setting.
func (c Config) Validate() error {
	cert := c.Certificates
	switch {
	case c.Server.Addr == "":
		return errors.New("config: server.addr is required")
	case cert.MinValidityDays < 1:
		return errors.New("config: certificates.min_validity_days must be at least 1")
	case cert.MinValidityDays > cert.MaxValidityDays:
		return errors.New("config: certificates.min_validity_days exceeds max_validity_days")
	case cert.DefaultValidityDays < cert.MinValidityDays || cert.DefaultValidityDays > cert.MaxValidityDays:
		return errors.New("config: certificates.default_validity_days is outside the validity bounds")
	case len(cert.Currencies) == 0:
		return errors.New("config: certificates.currencies must not be empty")
	case !contains(cert.Currencies, cert.DefaultCurrency):
		return fmt.Errorf("config: default currency %q is not in certificates.currencies", cert.DefaultCurrency)
	case cert.IDFormat != "short" && cert.IDFormat != "ulid":
		return fmt.Errorf("config: unknown certificates.id_format %q", cert.IDFormat)
	case c.Auth.Required && c.Auth.JWTSecret == "":
		return errors.New("config: auth.required needs auth.jwt_secret")
	case c.RateLimit.Enabled && (c.RateLimit.Capacity <= 0 || c.RateLimit.Window <= 0):
		return errors.New("config: rate_limit needs a positive capacity and window")
	}

	switch c.Storage.Driver {
	case "memory":
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			return errors.New("config: storage.postgres_dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("config: unknown storage.driver %q", c.Storage.Driver)
	}

	switch c.Cache.Driver {
	case "memory":
	case "redis":
		if c.Cache.RedisAddr == "" {
			return errors.New("config: cache.redis_addr is required for the redis driver")
		}
	default:
		return fmt.Errorf("config: unknown cache.driver %q", c.Cache.Driver)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
