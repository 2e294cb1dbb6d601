package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store drivers
const (
	DriverMongo  = "mongo"
	DriverSQLite = "sqlite"
)

// Config holds all application configuration
type Config struct {
	// Input
	DatasetPath string

	// Document store configuration
	StoreDriver         string
	MongoHost           string
	MongoPort           int
	MongoDatabase       string
	MongoUsername       string
	MongoPassword       string
	MongoConnectTimeout time.Duration

	// SQLite store configuration
	DatabasePath string

	// Logging configuration
	LogLevel string

	// Metrics configuration
	MetricsEnabled bool
	MetricsHost    string
	MetricsPort    int
	MetricsPushURL string
}

// Load reads configuration from environment variables, falling back to a
// .env file in the working directory for variables that are not set.
// It fails fast on invalid values.
func Load() (*Config, error) {
	if err := loadEnvFile(".env"); err != nil {
		return nil, err
	}

	cfg := &Config{
		DatasetPath:    getEnv("DATASET_PATH", "./dataset/Data"),
		StoreDriver:    getEnv("STORE_DRIVER", DriverMongo),
		MongoHost:      getEnv("MONGO_HOST", "localhost"),
		MongoDatabase:  getEnv("MONGO_DATABASE", "geolife"),
		MongoUsername:  os.Getenv("MONGO_USERNAME"),
		MongoPassword:  os.Getenv("MONGO_PASSWORD"),
		DatabasePath:   getEnv("DATABASE_PATH", "./geolife.db"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		MetricsHost:    getEnv("METRICS_HOST", "localhost"),
		MetricsPushURL: os.Getenv("METRICS_PUSH_URL"),
	}

	var err error
	if cfg.MongoPort, err = getEnvInt("MONGO_PORT", 27017); err != nil {
		return nil, err
	}
	if cfg.MetricsPort, err = getEnvInt("METRICS_PORT", 9464); err != nil {
		return nil, err
	}
	if cfg.MongoConnectTimeout, err = getEnvDuration("MONGO_CONNECT_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.MetricsEnabled, err = getEnvBool("METRICS_ENABLED", false); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the loaded values
func (c *Config) Validate() error {
	if c.DatasetPath == "" {
		return errors.New("DATASET_PATH is required")
	}

	switch c.StoreDriver {
	case DriverMongo:
		if c.MongoHost == "" {
			return errors.New("MONGO_HOST is required")
		}
		if c.MongoDatabase == "" {
			return errors.New("MONGO_DATABASE is required")
		}
		if c.MongoPort < 1 || c.MongoPort > 65535 {
			return errors.New("MONGO_PORT must be between 1 and 65535")
		}
		if (c.MongoUsername == "") != (c.MongoPassword == "") {
			return errors.New("MONGO_USERNAME and MONGO_PASSWORD must be set together")
		}
		if c.MongoConnectTimeout <= 0 {
			return errors.New("MONGO_CONNECT_TIMEOUT must be positive")
		}
	case DriverSQLite:
		if c.DatabasePath == "" {
			return errors.New("DATABASE_PATH is required")
		}
	default:
		return errors.New("STORE_DRIVER must be one of: mongo, sqlite")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return errors.New("LOG_LEVEL must be one of: debug, info, warn, error")
	}

	if c.MetricsEnabled && (c.MetricsPort < 1 || c.MetricsPort > 65535) {
		return errors.New("METRICS_PORT must be between 1 and 65535")
	}

	return nil
}

// loadEnvFile sets variables from a KEY=VALUE file without overriding the
// environment. A missing file is not an error.
func loadEnvFile(path string) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(strings.TrimPrefix(key, "export "))
		value = unquote(strings.TrimSpace(value))

		if _, set := os.LookupEnv(key); set {
			continue
		}
		os.Setenv(key, value)
	}
	return scanner.Err()
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt gets an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}

	return value, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean", key)
	}
	return value, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration such as 10s", key)
	}
	return value, nil
}
