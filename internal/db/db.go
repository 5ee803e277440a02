package db

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/syarafat/Proyek-Analisis-Data/internal/config"
)

// Open returns a pooled handle for cfg.Driver with statement logging enabled and
// verifies connectivity before returning.
func Open(cfg config.Config, logger *slog.Logger) (*sql.DB, error) {
	drv, dsn, err := driverFor(cfg)
	if err != nil {
		return nil, err
	}

	connector, err := NewQueryLogConnector(drv, dsn, logger)
	if err != nil {
		return nil, fmt.Errorf("db connector: %w", err)
	}
	db := sql.OpenDB(connector)

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns >= 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	return db, nil
}

func Close(db *sql.DB) error {
	if db == nil {
		return nil
	}
	return db.Close()
}

func driverFor(cfg config.Config) (driver.Driver, string, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		if cfg.DSN == "" {
			return nil, "", fmt.Errorf("db: postgres requires DB_DSN")
		}
		return &pq.Driver{}, cfg.DSN, nil
	case config.DriverSQLite, "":
		dsn, err := buildSQLiteDSN(cfg)
		if err != nil {
			return nil, "", err
		}
		return &sqlite3.SQLiteDriver{}, dsn, nil
	default:
		return nil, "", fmt.Errorf("db: unsupported driver %q", cfg.Driver)
	}
}

func buildSQLiteDSN(cfg config.Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}

	path := cfg.SQLitePath
	if path == ":memory:" {
		return path, nil
	}
	dir := filepath.Dir(strings.TrimPrefix(path, "file:"))
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	// busy_timeout covers the import CLI writing while the server reads.
	params := []string{
		"_busy_timeout=5000",
		"_journal_mode=WAL",
	}

	if strings.HasPrefix(path, "file:") {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return path + sep + strings.Join(params, "&"), nil
	}

	return fmt.Sprintf("file:%s?%s", path, strings.Join(params, "&")), nil
}

// Placeholder returns the n-th (1-based) bind parameter for driver.
func Placeholder(driver string, n int) string {
	if driver == config.DriverPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// Placeholders returns n comma-separated bind parameters starting at 1.
func Placeholders(driver string, n int) string {
	ps := make([]string, n)
	for i := range ps {
		ps[i] = Placeholder(driver, i+1)
	}
	return strings.Join(ps, ", ")
}
