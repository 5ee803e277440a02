package config

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"
)

// clearEnv resets every variable LoadFromEnv reads so host settings do not leak into tests.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"APP_ENV", "LOG_LEVEL", "HTTP_ADDR", "DATASET_SOURCE", "DATASET_PATH", "STRICT_CODES",
		"WATCH_DATASET", "RELOAD_SCHEDULE", "DB_DRIVER", "DB_DSN", "SQLITE_PATH",
		"DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS", "DB_CONN_MAX_LIFETIME", "MQTT_BROKER",
		"MQTT_PORT", "MQTT_CLIENT_ID", "MQTT_RELOAD_TOPIC", "CORS_ALLOWED_ORIGINS",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	got, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v, want nil", err)
	}

	if got.AppEnv != "dev" {
		t.Errorf("AppEnv = %q, want %q", got.AppEnv, "dev")
	}
	if got.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want %v", got.LogLevel, slog.LevelInfo)
	}
	if got.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want %q", got.HTTPAddr, ":8080")
	}
	if got.DatasetSource != SourceCSV {
		t.Errorf("DatasetSource = %q, want %q", got.DatasetSource, SourceCSV)
	}
	if !filepath.IsAbs(got.DatasetPath) || filepath.Base(got.DatasetPath) != "day.csv" {
		t.Errorf("DatasetPath = %q, want absolute path ending in day.csv", got.DatasetPath)
	}
	if got.StrictCodes {
		t.Error("StrictCodes = true, want false")
	}
	if !got.WatchDataset {
		t.Error("WatchDataset = false, want true")
	}
	if got.Driver != DriverSQLite {
		t.Errorf("Driver = %q, want %q", got.Driver, DriverSQLite)
	}
	if got.MQTTEnabled() {
		t.Error("MQTTEnabled() = true, want false without MQTT_BROKER")
	}
	if got.MQTTPort != 1883 {
		t.Errorf("MQTTPort = %d, want 1883", got.MQTTPort)
	}
	if len(got.CORSAllowedOrigins) != 1 || got.CORSAllowedOrigins[0] != "http://localhost:8080" {
		t.Errorf("CORSAllowedOrigins = %v", got.CORSAllowedOrigins)
	}
}

func TestLoadFromEnv_AppEnv_Invalid(t *testing.T) {
	for _, v := range []string{"staging", "qa", "DEV"} {
		t.Run(v, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("APP_ENV", v)
			if _, err := LoadFromEnv(); err == nil {
				t.Fatalf("LoadFromEnv() error = nil, want non-nil for APP_ENV=%q", v)
			}
		})
	}
}

func TestLoadFromEnv_LogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" WARN ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("LOG_LEVEL", tt.in)
			got, err := LoadFromEnv()
			if err != nil {
				t.Fatalf("LoadFromEnv() error = %v", err)
			}
			if got.LogLevel != tt.want {
				t.Errorf("LogLevel = %v, want %v", got.LogLevel, tt.want)
			}
		})
	}

	t.Run("invalid", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("LOG_LEVEL", "verbose")
		if _, err := LoadFromEnv(); err == nil {
			t.Fatal("LoadFromEnv() error = nil, want non-nil")
		}
	})
}

func TestLoadFromEnv_DatasetOptions(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATASET_SOURCE", "SQL")
	t.Setenv("STRICT_CODES", "true")
	t.Setenv("WATCH_DATASET", "0")
	t.Setenv("RELOAD_SCHEDULE", "@every 1h")

	got, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}
	if got.DatasetSource != SourceSQL {
		t.Errorf("DatasetSource = %q, want %q", got.DatasetSource, SourceSQL)
	}
	if !got.StrictCodes {
		t.Error("StrictCodes = false, want true")
	}
	if got.WatchDataset {
		t.Error("WatchDataset = true, want false")
	}
	if got.ReloadSchedule != "@every 1h" {
		t.Errorf("ReloadSchedule = %q", got.ReloadSchedule)
	}
}

func TestLoadFromEnv_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"source", "DATASET_SOURCE", "parquet"},
		{"strict", "STRICT_CODES", "maybe"},
		{"schedule", "RELOAD_SCHEDULE", "every tuesday"},
		{"driver", "DB_DRIVER", "mysql"},
		{"max open conns", "DB_MAX_OPEN_CONNS", "many"},
		{"lifetime", "DB_CONN_MAX_LIFETIME", "forever"},
		{"mqtt port", "MQTT_PORT", "70000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)
			if _, err := LoadFromEnv(); err == nil {
				t.Fatalf("LoadFromEnv() error = nil, want non-nil for %s=%q", tt.key, tt.val)
			}
		})
	}
}

func TestLoadFromEnv_PostgresRequiresDSN(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATASET_SOURCE", "sql")
	t.Setenv("DB_DRIVER", "postgres")
	if _, err := LoadFromEnv(); err == nil {
		t.Fatal("LoadFromEnv() error = nil, want DSN error")
	}

	t.Setenv("DB_DSN", "postgres://u:p@localhost/rentals?sslmode=disable")
	got, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}
	if got.Driver != DriverPostgres {
		t.Errorf("Driver = %q, want postgres", got.Driver)
	}
}

func TestLoadFromEnv_DBPool(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_MAX_OPEN_CONNS", "4")
	t.Setenv("DB_MAX_IDLE_CONNS", "2")
	t.Setenv("DB_CONN_MAX_LIFETIME", "5m")

	got, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}
	if got.MaxOpenConns != 4 || got.MaxIdleConns != 2 {
		t.Errorf("pool = %d/%d, want 4/2", got.MaxOpenConns, got.MaxIdleConns)
	}
	if got.ConnMaxLifetime != 5*time.Minute {
		t.Errorf("ConnMaxLifetime = %v, want 5m", got.ConnMaxLifetime)
	}
}

func TestLoadFromEnv_CORSOrigins(t *testing.T) {
	clearEnv(t)
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, ,http://b.test")

	got, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}
	if len(got.CORSAllowedOrigins) != 2 || got.CORSAllowedOrigins[1] != "http://b.test" {
		t.Errorf("CORSAllowedOrigins = %v, want [http://a.test http://b.test]", got.CORSAllowedOrigins)
	}
}
