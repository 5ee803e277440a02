package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron"
)

const (
	SourceCSV = "csv"
	SourceSQL = "sql"

	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

type Config struct {
	AppEnv   string
	LogLevel slog.Level
	HTTPAddr string

	// DatasetSource selects where the day table is read from: "csv" (DatasetPath) or "sql" (table "day").
	DatasetSource string
	// DatasetPath is the absolute path of the CSV file. Relative DATASET_PATH values are
	// resolved against the process working directory at startup.
	DatasetPath string
	// StrictCodes turns unmapped season/weekday codes into load errors instead of empty labels.
	StrictCodes bool
	// WatchDataset invalidates the cached table when the CSV file changes on disk.
	WatchDataset bool
	// ReloadSchedule is a cron spec ("@every 1h", "0 0 3 * * *"); empty disables scheduled reloads.
	ReloadSchedule string

	Driver          string
	DSN             string
	SQLitePath      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// MQTTBroker empty disables the reload subscriber.
	MQTTBroker      string
	MQTTPort        int
	MQTTClientID    string
	MQTTReloadTopic string

	CORSAllowedOrigins []string
}

// MQTTEnabled reports whether a broker was configured.
func (c Config) MQTTEnabled() bool {
	return c.MQTTBroker != ""
}

func LoadFromEnv() (Config, error) {
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	level, err := parseLogLevel(envOr("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}

	httpAddr := envOr("HTTP_ADDR", ":8080")

	source := strings.ToLower(envOr("DATASET_SOURCE", SourceCSV))
	switch source {
	case SourceCSV, SourceSQL:
	default:
		return Config{}, fmt.Errorf("invalid DATASET_SOURCE %q (allowed: csv, sql)", source)
	}

	datasetPath := envOr("DATASET_PATH", "data/day.csv")
	datasetPath, err = filepath.Abs(datasetPath)
	if err != nil {
		return Config{}, fmt.Errorf("DATASET_PATH %q: %w", datasetPath, err)
	}

	strict, err := parseBool("STRICT_CODES", false)
	if err != nil {
		return Config{}, err
	}
	watch, err := parseBool("WATCH_DATASET", true)
	if err != nil {
		return Config{}, err
	}

	schedule := strings.TrimSpace(os.Getenv("RELOAD_SCHEDULE"))
	if schedule != "" {
		if _, err := cron.Parse(schedule); err != nil {
			return Config{}, fmt.Errorf("invalid RELOAD_SCHEDULE %q: %w", schedule, err)
		}
	}

	driver := envOr("DB_DRIVER", DriverSQLite)
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return Config{}, fmt.Errorf("invalid DB_DRIVER %q (allowed: sqlite3, postgres)", driver)
	}
	dsn := strings.TrimSpace(os.Getenv("DB_DSN"))
	if driver == DriverPostgres && dsn == "" && source == SourceSQL {
		return Config{}, fmt.Errorf("DB_DSN is required when DB_DRIVER=postgres")
	}
	sqlitePath := envOr("SQLITE_PATH", "data/rentals.db")

	maxOpenConns, err := parseInt("DB_MAX_OPEN_CONNS", 1)
	if err != nil {
		return Config{}, err
	}
	maxIdleConns, err := parseInt("DB_MAX_IDLE_CONNS", 1)
	if err != nil {
		return Config{}, err
	}

	connMaxLifetimeStr := envOr("DB_CONN_MAX_LIFETIME", "0s")
	connMaxLifetime, err := time.ParseDuration(connMaxLifetimeStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME %q: %w", connMaxLifetimeStr, err)
	}

	mqttPort, err := parseInt("MQTT_PORT", 1883)
	if err != nil {
		return Config{}, err
	}
	if mqttPort <= 0 || mqttPort > 65535 {
		return Config{}, fmt.Errorf("invalid MQTT_PORT %d (allowed: 1-65535)", mqttPort)
	}

	var origins []string
	for _, o := range strings.Split(envOr("CORS_ALLOWED_ORIGINS", "http://localhost:8080"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	return Config{
		AppEnv:             appEnv,
		LogLevel:           level,
		HTTPAddr:           httpAddr,
		DatasetSource:      source,
		DatasetPath:        datasetPath,
		StrictCodes:        strict,
		WatchDataset:       watch,
		ReloadSchedule:     schedule,
		Driver:             driver,
		DSN:                dsn,
		SQLitePath:         sqlitePath,
		MaxOpenConns:       maxOpenConns,
		MaxIdleConns:       maxIdleConns,
		ConnMaxLifetime:    connMaxLifetime,
		MQTTBroker:         strings.TrimSpace(os.Getenv("MQTT_BROKER")),
		MQTTPort:           mqttPort,
		MQTTClientID:       envOr("MQTT_CLIENT_ID", "rental-dashboard"),
		MQTTReloadTopic:    envOr("MQTT_RELOAD_TOPIC", "rentals/dataset/reload"),
		CORSAllowedOrigins: origins,
	}, nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func parseInt(key string, fallback int) (int, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return n, nil
}

func parseBool(key string, fallback bool) (bool, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return b, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
