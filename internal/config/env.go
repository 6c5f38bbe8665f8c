package config

import (
	"bufio"
	"fmt"
	"net"
	neturl "net/url"
	"os"
	"strings"
)

// resolveDatabaseURL derives a DSN from the URL variables hosting platforms
// set, falling back to assembling one from PG* style parts.
func resolveDatabaseURL() string {
	for _, key := range []string{
		"DATABASE_PUBLIC_URL",
		"DATABASE_INTERNAL_URL",
		"DATABASE_DIRECT_URL",
		"POSTGRES_URL",
		"PGURL",
	} {
		if coerced := coerceDatabaseURL(os.Getenv(key)); coerced != "" {
			return coerced
		}
	}

	for _, key := range []string{"DATABASE_URL_FILE", "PGURL_FILE"} {
		if coerced := coerceDatabaseURL(readEnvFile(key)); coerced != "" {
			return coerced
		}
	}

	host := firstEnv("PGHOST", "POSTGRES_HOST", "DATABASE_HOST")
	user := firstEnv("PGUSER", "POSTGRES_USER", "DATABASE_USER")
	if host == "" || user == "" {
		return ""
	}
	password := firstEnv("PGPASSWORD", "POSTGRES_PASSWORD", "DATABASE_PASSWORD")
	database := firstNonEmpty(firstEnv("PGDATABASE", "POSTGRES_DB", "DATABASE_NAME"), user)
	port := firstNonEmpty(firstEnv("PGPORT", "POSTGRES_PORT", "DATABASE_PORT"), "5432")
	sslMode := firstNonEmpty(firstEnv("PGSSLMODE", "POSTGRES_SSL_MODE"), "require")

	dsn := &neturl.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(host, port),
		Path:   "/" + database,
		User:   neturl.User(user),
	}
	if password != "" {
		dsn.User = neturl.UserPassword(user, password)
	}
	query := dsn.Query()
	query.Set("sslmode", sslMode)
	dsn.RawQuery = query.Encode()
	return dsn.String()
}

func coerceDatabaseURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if rest, ok := strings.CutPrefix(raw, "postgresql://"); ok {
		return "postgres://" + rest
	}
	if strings.HasPrefix(raw, "postgres://") {
		return raw
	}
	return ""
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func readEnvFile(key string) string {
	path := os.Getenv(key)
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// loadDotEnv exports the KEY=value pairs in path. Variables already present
// in the environment win.
func loadDotEnv(path string) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf(".env line %d: missing '='", lineNum)
		}
		key = strings.TrimSpace(key)
		value = unquote(strings.TrimSpace(value))
		if key == "" {
			return fmt.Errorf(".env line %d: empty key", lineNum)
		}

		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf(".env line %d: %w", lineNum, err)
		}
	}
	return scanner.Err()
}

func unquote(value string) string {
	if len(value) >= 2 {
		first, last := value[0], value[len(value)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			return value[1 : len(value)-1]
		}
	}
	return value
}
