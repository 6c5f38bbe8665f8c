package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
	"golang.org/x/crypto/bcrypt"
)

// Store drivers.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config centralises runtime configuration.
type Config struct {
	HTTP     HTTPConfig     `koanf:"http"`
	Database DatabaseConfig `koanf:"database"`
	Auth     AuthConfig     `koanf:"auth"`
	CORS     CORSConfig     `koanf:"cors"`
	Log      LogConfig      `koanf:"log"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Store    StoreConfig    `koanf:"store"`
}

// HTTPConfig holds the listener address and server timeouts.
type HTTPConfig struct {
	Addr         string        `koanf:"addr"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`
}

// DatabaseConfig holds the postgres connection string.
type DatabaseConfig struct {
	URL string `koanf:"url"`
}

// AuthConfig holds token signing and password hashing settings.
type AuthConfig struct {
	JWTSecret  string        `koanf:"jwt_secret"`
	JWTIssuer  string        `koanf:"jwt_issuer"`
	TokenTTL   time.Duration `koanf:"token_ttl"`
	BcryptCost int           `koanf:"bcrypt_cost"`
}

// CORSConfig lists the origins allowed to call the API from a browser.
type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// LogConfig selects the log output format ("json" or "text").
type LogConfig struct {
	Format string `koanf:"format"`
}

// MetricsConfig toggles serving /metrics.
type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`
}

// StoreConfig selects the account store driver.
type StoreConfig struct {
	Driver string `koanf:"driver"`
}

var defaults = map[string]any{
	"http.addr":            "8080",
	"http.read_timeout":    15 * time.Second,
	"http.write_timeout":   15 * time.Second,
	"http.idle_timeout":    60 * time.Second,
	"auth.jwt_issuer":      "authgate",
	"auth.token_ttl":       24 * time.Hour,
	"auth.bcrypt_cost":     12,
	"cors.allowed_origins": []string{"*"},
	"log.format":           "json",
	"metrics.enabled":      true,
	"store.driver":         StorePostgres,
}

// envKeys maps the supported environment variables onto config keys.
var envKeys = map[string]string{
	"HTTP_PORT":            "http.addr",
	"DATABASE_URL":         "database.url",
	"JWT_SECRET":           "auth.jwt_secret",
	"JWT_ISSUER":           "auth.jwt_issuer",
	"JWT_EXPIRY":           "auth.token_ttl",
	"BCRYPT_COST":          "auth.bcrypt_cost",
	"CORS_ALLOWED_ORIGINS": "cors.allowed_origins",
	"HTTP_READ_TIMEOUT":    "http.read_timeout",
	"HTTP_WRITE_TIMEOUT":   "http.write_timeout",
	"HTTP_IDLE_TIMEOUT":    "http.idle_timeout",
	"LOG_FORMAT":           "log.format",
	"METRICS_ENABLED":      "metrics.enabled",
	"STORE_DRIVER":         "store.driver",
}

// flagKeys maps command-line flags onto config keys.
var flagKeys = map[string]string{
	"addr":         "http.addr",
	"database-url": "database.url",
	"log-format":   "log.format",
	"store":        "store.driver",
	"metrics":      "metrics.enabled",
}

// RegisterFlags adds the flags Load understands to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("addr", "", "HTTP listen address or port")
	fs.String("database-url", "", "PostgreSQL connection URL")
	fs.String("log-format", "", "log format (json or text)")
	fs.String("store", "", "account store driver (postgres or memory)")
	fs.Bool("metrics", true, "serve Prometheus metrics on /metrics")
}

// Load reads configuration from, in increasing precedence: defaults, the YAML
// file at path (if non-empty), a .env file in the working directory, the
// environment, and flags.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")
	for key, val := range defaults {
		if err := k.Set(key, val); err != nil {
			return Config{}, fmt.Errorf("setting default %s: %w", key, err)
		}
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("loading %s: %w", path, err)
		}
	}

	if err := loadDotEnv(".env"); err != nil {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}
	if err := k.Load(env.ProviderWithValue("", ".", envValue), nil); err != nil {
		return Config{}, fmt.Errorf("loading environment: %w", err)
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return Config{}, fmt.Errorf("loading flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}

	cfg.CORS.AllowedOrigins = splitCSV(strings.Join(cfg.CORS.AllowedOrigins, ","))
	if cfg.Database.URL == "" {
		cfg.Database.URL = resolveDatabaseURL()
	} else if coerced := coerceDatabaseURL(cfg.Database.URL); coerced != "" {
		cfg.Database.URL = coerced
	}
	return cfg, nil
}

func envValue(name, value string) (string, any) {
	if value == "" {
		return "", nil
	}
	if name == "PORT" {
		// PORT is the platform fallback and only applies without HTTP_PORT.
		if os.Getenv("HTTP_PORT") != "" {
			return "", nil
		}
		return "http.addr", value
	}

	key, ok := envKeys[name]
	if !ok {
		return "", nil
	}
	switch key {
	case "http.read_timeout", "http.write_timeout", "http.idle_timeout":
		// Bare integers are seconds.
		if n, err := strconv.Atoi(value); err == nil {
			return key, time.Duration(n) * time.Second
		}
	}
	return key, value
}

// Validate reports every configuration problem at once.
func (c Config) Validate() error {
	var errs []error
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("bcrypt cost must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, c.Auth.BcryptCost))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("token lifetime must be positive, got %s", c.Auth.TokenTTL))
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	switch c.Store.Driver {
	case StorePostgres:
		if c.Database.URL == "" {
			errs = append(errs, errors.New("database configuration missing: provide DATABASE_URL or PG* env vars"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.Store.Driver))
	}
	return errors.Join(errs...)
}

func splitCSV(value string) []string {
	parts := []string{}
	for _, part := range strings.Split(value, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	if len(parts) == 0 {
		return []string{"*"}
	}
	return parts
}
