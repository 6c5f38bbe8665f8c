package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp runs the test from an empty directory so a developer's .env is not picked up.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func clearEnv(t *testing.T) {
	t.Helper()
	for name := range envKeys {
		t.Setenv(name, "")
	}
	for _, name := range []string{
		"PORT", "DATABASE_PUBLIC_URL", "DATABASE_INTERNAL_URL", "DATABASE_DIRECT_URL",
		"POSTGRES_URL", "PGURL", "DATABASE_URL_FILE", "PGURL_FILE",
		"PGHOST", "POSTGRES_HOST", "DATABASE_HOST", "PGUSER", "POSTGRES_USER", "DATABASE_USER",
		"PGPASSWORD", "POSTGRES_PASSWORD", "DATABASE_PASSWORD", "PGDATABASE", "POSTGRES_DB",
		"DATABASE_NAME", "PGPORT", "POSTGRES_PORT", "DATABASE_PORT", "PGSSLMODE", "POSTGRES_SSL_MODE",
	} {
		t.Setenv(name, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)
	clearEnv(t)

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTP.Addr)
	assert.Equal(t, 15*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, 60*time.Second, cfg.HTTP.IdleTimeout)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Equal(t, "authgate", cfg.Auth.JWTIssuer)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, StorePostgres, cfg.Store.Driver)
	assert.Empty(t, cfg.Database.URL)

	assert.Error(t, cfg.Validate(), "no secret and no database")
}

func TestLoad_Environment(t *testing.T) {
	chdirTemp(t)
	clearEnv(t)
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("PORT", "7070")
	t.Setenv("DATABASE_URL", "postgresql://app:pw@db:5432/app")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("JWT_EXPIRY", "2h")
	t.Setenv("BCRYPT_COST", "10")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("HTTP_READ_TIMEOUT", "5")
	t.Setenv("HTTP_WRITE_TIMEOUT", "750ms")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("METRICS_ENABLED", "false")

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.HTTP.Addr)
	assert.Equal(t, "postgres://app:pw@db:5432/app", cfg.Database.URL)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 5*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, 750*time.Millisecond, cfg.HTTP.WriteTimeout)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.False(t, cfg.Metrics.Enabled)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_PortFallback(t *testing.T) {
	chdirTemp(t)
	clearEnv(t)
	t.Setenv("PORT", "7070")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.HTTP.Addr)
}

func TestLoad_FilePrecedence(t *testing.T) {
	dir := chdirTemp(t)
	clearEnv(t)

	path := filepath.Join(dir, "authgate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  addr: ":8181"
auth:
  jwt_secret: from-file
  jwt_issuer: file-issuer
  token_ttl: 30m
store:
  driver: memory
`), 0o600))
	t.Setenv("JWT_ISSUER", "env-issuer")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--addr", ":9999"}))

	cfg, err := Load(path, fs)
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.HTTP.Addr, "flag beats file")
	assert.Equal(t, "env-issuer", cfg.Auth.JWTIssuer, "env beats file")
	assert.Equal(t, "from-file", cfg.Auth.JWTSecret)
	assert.Equal(t, 30*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, StoreMemory, cfg.Store.Driver)
	assert.True(t, cfg.Metrics.Enabled, "unchanged flag keeps the default")
	assert.NoError(t, cfg.Validate())
}

func TestLoad_DotEnvDoesNotOverride(t *testing.T) {
	dir := chdirTemp(t)
	clearEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(
		"# local overrides\nexport JWT_SECRET=\"dotenv-secret\"\nLOG_FORMAT='text'\n",
	), 0o600))
	t.Setenv("LOG_FORMAT", "json")
	os.Unsetenv("JWT_SECRET")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "dotenv-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_DotEnvMalformed(t *testing.T) {
	dir := chdirTemp(t)
	clearEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("NOT_AN_ASSIGNMENT\n"), 0o600))

	_, err := Load("", nil)
	assert.ErrorContains(t, err, "missing '='")
}

func TestResolveDatabaseURL_FromParts(t *testing.T) {
	clearEnv(t)
	t.Setenv("PGHOST", "db.internal")
	t.Setenv("PGUSER", "app")
	t.Setenv("PGPASSWORD", "pw")
	t.Setenv("PGDATABASE", "accounts")

	assert.Equal(t, "postgres://app:pw@db.internal:5432/accounts?sslmode=require", resolveDatabaseURL())
}

func TestResolveDatabaseURL_Incomplete(t *testing.T) {
	clearEnv(t)
	t.Setenv("PGHOST", "db.internal")
	assert.Empty(t, resolveDatabaseURL())
}

func TestValidate(t *testing.T) {
	valid := Config{
		Auth:  AuthConfig{JWTSecret: "s", TokenTTL: time.Hour, BcryptCost: 12},
		Log:   LogConfig{Format: "json"},
		Store: StoreConfig{Driver: StoreMemory},
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "secret", mutate: func(c *Config) { c.Auth.JWTSecret = "" }, want: "JWT_SECRET"},
		{name: "cost low", mutate: func(c *Config) { c.Auth.BcryptCost = 3 }, want: "bcrypt cost"},
		{name: "cost high", mutate: func(c *Config) { c.Auth.BcryptCost = 32 }, want: "bcrypt cost"},
		{name: "ttl", mutate: func(c *Config) { c.Auth.TokenTTL = 0 }, want: "token lifetime"},
		{name: "log format", mutate: func(c *Config) { c.Log.Format = "xml" }, want: "log format"},
		{name: "driver", mutate: func(c *Config) { c.Store.Driver = "redis" }, want: "store driver"},
		{name: "postgres without url", mutate: func(c *Config) { c.Store.Driver = StorePostgres }, want: "DATABASE_URL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}
