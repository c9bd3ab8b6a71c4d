package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures the runtime configuration for the application.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logging  LoggingConfig
	Session  SessionConfig
	API      APIConfig
}

// ServerConfig configures the HTTP server runtime behavior.
type ServerConfig struct {
	Addr string
}

// DatabaseConfig contains the database connection settings.
type DatabaseConfig struct {
	URL             string
	UseMock         bool
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// LoggingConfig controls the verbosity of the application logger.
type LoggingConfig struct {
	Level string
}

// SessionConfig configures the cookie backing flash messages and edit
// snapshots.
type SessionConfig struct {
	Lifetime     time.Duration
	CookieName   string
	CookieDomain string
	CookieSecure bool
}

// APIConfig points the web UI and CLI at the formulas resource.
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// Load inspects the environment and builds a Config value.
func Load() (Config, error) {
	cfg := Config{}

	cfg.Server = ServerConfig{
		Addr: firstNonEmpty(
			os.Getenv("SERVER_ADDR"),
			os.Getenv("ADDR"),
			":8080",
		),
	}

	cfg.Database = DatabaseConfig{
		URL: firstNonEmpty(
			os.Getenv("DATABASE_URL"),
			os.Getenv("DB_URL"),
			composeDatabaseURL(),
		),
		UseMock:         parseBoolWithDefault(os.Getenv("DATABASE_USE_MOCK"), false),
		MaxIdleConns:    parseIntWithDefault(os.Getenv("DATABASE_MAX_IDLE_CONNS"), 5),
		MaxOpenConns:    parseIntWithDefault(os.Getenv("DATABASE_MAX_OPEN_CONNS"), 20),
		ConnMaxLifetime: parseDurationWithDefault(os.Getenv("DATABASE_CONN_MAX_LIFETIME"), time.Hour),
		ConnMaxIdleTime: parseDurationWithDefault(os.Getenv("DATABASE_CONN_MAX_IDLE_TIME"), 15*time.Minute),
	}

	cfg.Logging = LoggingConfig{
		Level: firstNonEmpty(os.Getenv("LOG_LEVEL"), "info"),
	}

	cfg.Session = SessionConfig{
		Lifetime:     parseDurationWithDefault(os.Getenv("SESSION_LIFETIME"), 12*time.Hour),
		CookieName:   firstNonEmpty(os.Getenv("SESSION_COOKIE_NAME"), "formulaplace_session"),
		CookieDomain: strings.TrimSpace(os.Getenv("SESSION_COOKIE_DOMAIN")),
		CookieSecure: parseBoolWithDefault(os.Getenv("SESSION_COOKIE_SECURE"), false),
	}

	cfg.API = APIConfig{
		BaseURL: firstNonEmpty(os.Getenv("API_BASE_URL"), loopbackAPIURL(cfg.Server.Addr)),
		Timeout: parseDurationWithDefault(os.Getenv("API_TIMEOUT"), 3*time.Second),
	}

	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return Config{}, fmt.Errorf("server address must not be empty")
	}
	if cfg.API.Timeout <= 0 {
		return Config{}, fmt.Errorf("api timeout must be positive, got %s", cfg.API.Timeout)
	}

	return cfg, nil
}

// composeDatabaseURL builds a postgres DSN from the discrete DB_* variables.
// It returns "" unless DB_HOST is set.
func composeDatabaseURL() string {
	host := strings.TrimSpace(os.Getenv("DB_HOST"))
	if host == "" {
		return ""
	}
	port := firstNonEmpty(os.Getenv("DB_PORT"), "5432")
	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(host, strings.TrimSpace(port)),
		Path:     "/" + firstNonEmpty(os.Getenv("DB_NAME"), "formulaplace"),
		RawQuery: "sslmode=disable",
	}
	if user := strings.TrimSpace(os.Getenv("DB_USER")); user != "" {
		if password := os.Getenv("DB_PASSWORD"); password != "" {
			u.User = url.UserPassword(user, password)
		} else {
			u.User = url.User(user)
		}
	}
	return u.String()
}

// loopbackAPIURL derives the API root served by this process from its
// listen address.
func loopbackAPIURL(addr string) string {
	addr = strings.TrimSpace(addr)
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://localhost:8080/api"
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port) + "/api"
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func parseIntWithDefault(value string, def int) int {
	value = strings.TrimSpace(value)
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func parseDurationWithDefault(value string, def time.Duration) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}

func parseBoolWithDefault(value string, def bool) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return def
	}
	return parsed
}
