// Command rentalctl manages the day table outside the server: it applies
// migrations, imports a day.csv into the database and exports the prepared
// table to a workbook.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/syarafat/Proyek-Analisis-Data/internal/config"
	"github.com/syarafat/Proyek-Analisis-Data/internal/db"
	"github.com/syarafat/Proyek-Analisis-Data/internal/logging"
	"github.com/syarafat/Proyek-Analisis-Data/internal/migrate"
	"github.com/syarafat/Proyek-Analisis-Data/internal/modules/rentals"
	"github.com/syarafat/Proyek-Analisis-Data/internal/modules/rentals/dataset"
	"github.com/syarafat/Proyek-Analisis-Data/internal/modules/rentals/export"
	"github.com/syarafat/Proyek-Analisis-Data/internal/modules/rentals/repository"
	"github.com/syarafat/Proyek-Analisis-Data/internal/mqtt"
)

const usage = `usage: rentalctl <command>
  migrate          apply pending schema migrations
  import <csv>     prepare a day.csv and replace the day table with it
  export <xlsx>    write the prepared table of the configured source to a workbook
  notify [reason]  ask running servers to reload the dataset over MQTT
`

var version = "dev"

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, ".env error: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg, version, "rentalctl")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Args[1:], os.Stdout, logger); err != nil {
		fmt.Fprintf(os.Stderr, "rentalctl: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, args []string, out io.Writer, logger *slog.Logger) error {
	if len(args) == 0 {
		return errors.New(usage)
	}
	switch args[0] {
	case "migrate":
		return runMigrate(cfg, out, logger)
	case "import":
		if len(args) != 2 {
			return errors.New(usage)
		}
		return runImport(ctx, cfg, args[1], out, logger)
	case "export":
		if len(args) != 2 {
			return errors.New(usage)
		}
		return runExport(ctx, cfg, args[1], out, logger)
	case "notify":
		if len(args) > 2 {
			return errors.New(usage)
		}
		reason := "rentalctl"
		if len(args) == 2 {
			reason = args[1]
		}
		return runNotify(ctx, cfg, reason, out, logger)
	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}
}

func runMigrate(cfg config.Config, out io.Writer, logger *slog.Logger) error {
	conn, err := db.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close(conn) }()

	applied, err := migrate.Run(conn, cfg.Driver, logger)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	fmt.Fprintf(out, "migrations applied: %d\n", len(applied))
	return nil
}

func runImport(ctx context.Context, cfg config.Config, csvPath string, out io.Writer, logger *slog.Logger) error {
	preparer := dataset.NewPreparer(repository.NewCSVSource(filepath.Clean(csvPath)),
		dataset.WithStrictCodes(cfg.StrictCodes),
		dataset.WithLogger(logger),
	)
	table, err := preparer.Load(ctx)
	if err != nil {
		return err
	}

	conn, err := db.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close(conn) }()
	if _, err := migrate.Run(conn, cfg.Driver, logger); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	n, err := repository.NewRepository(conn, cfg.Driver).ReplaceDays(ctx, table.Records)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	fmt.Fprintf(out, "imported %d days (fingerprint %s)\n", n, table.Fingerprint)

	if cfg.MQTTEnabled() {
		if err := runNotify(ctx, cfg, "import", out, logger); err != nil {
			logger.Warn("reload notification failed", "error", err)
		}
	}
	return nil
}

func runNotify(ctx context.Context, cfg config.Config, reason string, out io.Writer, logger *slog.Logger) error {
	if !cfg.MQTTEnabled() {
		return errors.New("notify needs MQTT_BROKER")
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := mqtt.NewPublisher(cfg, logger).PublishReload(ctx, mqtt.ReloadRequest{Reason: reason}); err != nil {
		return err
	}
	fmt.Fprintf(out, "reload requested on %s\n", cfg.MQTTReloadTopic)
	return nil
}

func runExport(ctx context.Context, cfg config.Config, xlsxPath string, out io.Writer, logger *slog.Logger) (err error) {
	var conn *sql.DB
	if cfg.DatasetSource == config.SourceSQL {
		c, err := db.Open(cfg, logger)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close(c) }()
		conn = c
	}
	handle, err := rentals.NewHandle(cfg, conn, logger)
	if err != nil {
		return err
	}
	table, err := handle.Get(ctx)
	if err != nil {
		return err
	}

	f, err := os.Create(xlsxPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()
	if err := export.WriteXLSX(f, table); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	fmt.Fprintf(out, "exported %d days to %s\n", table.Len(), xlsxPath)
	return nil
}
