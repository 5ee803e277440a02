package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-gota/gota/dataframe"

	"github.com/syarafat/Proyek-Analisis-Data/internal/db"
	"github.com/syarafat/Proyek-Analisis-Data/internal/modules/rentals/types"
)

//go:embed sql/get-days.sql
var getDaysSQL string

//go:embed sql/count-days.sql
var countDaysSQL string

//go:embed sql/delete-days.sql
var deleteDaysSQL string

//go:embed sql/insert-day.sql
var insertDaySQL string

// DayRepository reads and replaces the day table in SQL storage. It doubles as a
// dataset source.
type DayRepository interface {
	Name() string
	Frame(ctx context.Context) (dataframe.DataFrame, error)
	CountDays(ctx context.Context) (int, error)
	ReplaceDays(ctx context.Context, records []types.RentalRecord) (int, error)
	Ping(ctx context.Context) error
}

type repositoryImpl struct {
	db     *sql.DB
	driver string
}

func NewRepository(conn *sql.DB, driver string) DayRepository {
	return &repositoryImpl{db: conn, driver: driver}
}

func (r *repositoryImpl) Name() string {
	return "sql:" + r.driver + ":day"
}

func (r *repositoryImpl) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Frame returns the day table as strings in the canonical column order, matching
// what ReadCSV yields for the same data.
func (r *repositoryImpl) Frame(ctx context.Context) (dataframe.DataFrame, error) {
	rows, err := r.db.QueryContext(ctx, getDaysSQL)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close day rows", "error", err)
		}
	}()

	records := [][]string{append([]string(nil), types.SourceColumns...)}
	for rows.Next() {
		cells := make([]sql.NullString, len(types.SourceColumns))
		dest := make([]any, len(cells))
		for i := range cells {
			dest[i] = &cells[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return dataframe.DataFrame{}, err
		}
		row := make([]string, len(cells))
		for i, c := range cells {
			row[i] = c.String
		}
		records = append(records, row)
	}
	if err := rows.Err(); err != nil {
		return dataframe.DataFrame{}, err
	}
	return loadRecords(records)
}

func (r *repositoryImpl) CountDays(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, countDaysSQL).Scan(&n)
	return n, err
}

// ReplaceDays swaps the whole day table for records in one transaction.
func (r *repositoryImpl) ReplaceDays(ctx context.Context, records []types.RentalRecord) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, deleteDaysSQL); err != nil {
		return 0, fmt.Errorf("clear day table: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, rebind(r.driver, insertDaySQL))
	if err != nil {
		return 0, err
	}
	defer func() { _ = stmt.Close() }()

	for i, rec := range records {
		if _, err := stmt.ExecContext(ctx,
			rec.Instant, rec.Dteday, rec.SeasonCode, rec.Yr, rec.Mnth, rec.Holiday,
			rec.WeekdayCode, rec.Workingday, rec.Weathersit,
			rec.Temp, rec.Atemp, rec.Hum, rec.Windspeed,
			rec.Casual, rec.Registered, rec.Cnt,
		); err != nil {
			return i, fmt.Errorf("insert instant %d: %w", rec.Instant, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(records), nil
}

// rebind rewrites the ? placeholders of an embedded query for driver.
func rebind(driver, query string) string {
	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteString(db.Placeholder(driver, n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}
