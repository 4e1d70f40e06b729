package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/errors"
)

// Data source kinds accepted in DATA_SOURCE.
const (
	SourceFile   = "file"
	SourceHTTP   = "http"
	SourceSQLite = "sqlite"
)

// Config holds the server configuration loaded from the environment.
type Config struct {
	Port string

	DataSource    string
	DataPaths     []string
	DataURL       string
	DBPath        string
	FetchTimeout  time.Duration
	FetchCacheTTL time.Duration

	RequestTimeout    time.Duration
	MaxRequestsPerMin int
	AllowedOrigins    []string
	EnableHSTS        bool
	RedisURL          string

	LogLevel      string
	GinMode       string
	EnableSwagger bool
}

// Load reads an optional .env file and then the process environment.
// DATA_PATH may list several files separated by commas.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, falling back to system env vars")
	}

	return &Config{
		Port: getEnvOrDefault("PORT", "8080"),

		DataSource:    strings.ToLower(getEnvOrDefault("DATA_SOURCE", SourceFile)),
		DataPaths:     getEnvList("DATA_PATH", []string{"./data/output.json"}),
		DataURL:       os.Getenv("DATA_URL"),
		DBPath:        getEnvOrDefault("DB_PATH", "./data/evaluations.db"),
		FetchTimeout:  getEnvDuration("FETCH_TIMEOUT", 10*time.Second),
		FetchCacheTTL: getEnvDuration("FETCH_CACHE_TTL", 5*time.Minute),

		RequestTimeout:    getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		MaxRequestsPerMin: getEnvInt("MAX_REQUESTS_PER_MIN", 120),
		AllowedOrigins:    getEnvList("ALLOWED_ORIGINS", nil),
		EnableHSTS:        getEnvBool("ENABLE_HSTS", false),
		RedisURL:          os.Getenv("REDIS_URL"),

		LogLevel:      getEnvOrDefault("LOG_LEVEL", "info"),
		GinMode:       os.Getenv("GIN_MODE"),
		EnableSwagger: getEnvBool("ENABLE_SWAGGER", true),
	}
}

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	switch c.DataSource {
	case SourceFile:
		if len(c.DataPaths) == 0 {
			return errors.NewConfigurationError("DATA_PATH is required for the file data source", nil)
		}
	case SourceHTTP:
		if c.DataURL == "" {
			return errors.NewConfigurationError("DATA_URL is required for the http data source", nil)
		}
	case SourceSQLite:
		if c.DBPath == "" {
			return errors.NewConfigurationError("DB_PATH is required for the sqlite data source", nil)
		}
	default:
		return errors.NewConfigurationError(fmt.Sprintf("unknown DATA_SOURCE %q", c.DataSource), nil)
	}

	if _, err := strconv.Atoi(c.Port); err != nil {
		return errors.NewConfigurationError(fmt.Sprintf("invalid PORT %q", c.Port), err)
	}
	if c.MaxRequestsPerMin <= 0 {
		return errors.NewConfigurationError("MAX_REQUESTS_PER_MIN must be positive", nil)
	}
	return nil
}

// Describe names the configured data source for logs and the dataset info.
func (c *Config) Describe() string {
	switch c.DataSource {
	case SourceHTTP:
		return c.DataURL
	case SourceSQLite:
		return c.DBPath
	default:
		return strings.Join(c.DataPaths, ",")
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
