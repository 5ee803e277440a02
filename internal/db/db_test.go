package db

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/syarafat/Proyek-Analisis-Data/internal/config"
)

func TestBuildSQLiteDSN(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		cfg  config.Config
		want func(string) bool
	}{
		{
			name: "explicit dsn wins",
			cfg:  config.Config{DSN: "file::memory:?cache=shared", SQLitePath: filepath.Join(dir, "x.db")},
			want: func(s string) bool { return s == "file::memory:?cache=shared" },
		},
		{
			name: "memory path untouched",
			cfg:  config.Config{SQLitePath: ":memory:"},
			want: func(s string) bool { return s == ":memory:" },
		},
		{
			name: "plain path gets file prefix and params",
			cfg:  config.Config{SQLitePath: filepath.Join(dir, "nested", "rentals.db")},
			want: func(s string) bool {
				return strings.HasPrefix(s, "file:") && strings.Contains(s, "?_busy_timeout=5000")
			},
		},
		{
			name: "file prefix with query appends",
			cfg:  config.Config{SQLitePath: "file:" + filepath.Join(dir, "r.db") + "?mode=rwc"},
			want: func(s string) bool { return strings.Contains(s, "?mode=rwc&_busy_timeout=5000") },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := buildSQLiteDSN(tt.cfg)
			if err != nil {
				t.Fatalf("buildSQLiteDSN() error = %v", err)
			}
			if !tt.want(got) {
				t.Errorf("buildSQLiteDSN() = %q", got)
			}
		})
	}
}

func TestDriverFor(t *testing.T) {
	if _, _, err := driverFor(config.Config{Driver: config.DriverPostgres}); err == nil {
		t.Error("driverFor(postgres without dsn) error = nil, want non-nil")
	}
	if _, _, err := driverFor(config.Config{Driver: "mysql"}); err == nil {
		t.Error("driverFor(mysql) error = nil, want non-nil")
	}
	drv, dsn, err := driverFor(config.Config{Driver: config.DriverPostgres, DSN: "postgres://localhost/x"})
	if err != nil || drv == nil || dsn != "postgres://localhost/x" {
		t.Errorf("driverFor(postgres) = %v, %q, %v", drv, dsn, err)
	}
}

func TestOpen_SQLiteMemory(t *testing.T) {
	cfg := config.Config{Driver: config.DriverSQLite, SQLitePath: ":memory:", MaxOpenConns: 1, MaxIdleConns: 1}
	db, err := Open(cfg, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer func() { _ = Close(db) }()

	var n int
	if err := db.QueryRow("SELECT 1").Scan(&n); err != nil || n != 1 {
		t.Fatalf("SELECT 1 = %d, %v", n, err)
	}
}

func TestClose_Nil(t *testing.T) {
	if err := Close(nil); err != nil {
		t.Errorf("Close(nil) = %v, want nil", err)
	}
}

func TestPlaceholders(t *testing.T) {
	if got := Placeholders(config.DriverSQLite, 3); got != "?, ?, ?" {
		t.Errorf("sqlite placeholders = %q", got)
	}
	if got := Placeholders(config.DriverPostgres, 3); got != "$1, $2, $3" {
		t.Errorf("postgres placeholders = %q", got)
	}
	if got := Placeholder(config.DriverPostgres, 7); got != "$7" {
		t.Errorf("Placeholder(postgres, 7) = %q", got)
	}
}
