package dataset

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/syarafat/Proyek-Analisis-Data/internal/modules/rentals/types"
)

// DateLayout is the format of the dteday column.
const DateLayout = "2006-01-02"

var errUnmappedCode = errors.New("code has no label")

// Source yields the raw day table with every cell as a string.
type Source interface {
	Name() string
	Frame(ctx context.Context) (dataframe.DataFrame, error)
}

type Option func(*Preparer)

// WithStrictCodes makes unmapped season or weekday codes fail the load.
func WithStrictCodes(strict bool) Option {
	return func(p *Preparer) { p.strict = strict }
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Preparer) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// Preparer turns a raw day table into a types.Table with labels, the parsed date,
// the RFM proxies and cnt_group.
type Preparer struct {
	source Source
	strict bool
	logger *slog.Logger
}

func NewPreparer(source Source, opts ...Option) *Preparer {
	p := &Preparer{source: source, logger: slog.Default()}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *Preparer) SourceName() string {
	return p.source.Name()
}

// Load reads the source and derives every column. Row count and order are those of
// the source. It returns a *LoadError or a *ParseError on failure.
func (p *Preparer) Load(ctx context.Context) (*types.Table, error) {
	start := time.Now()
	name := p.source.Name()

	raw, err := p.source.Frame(ctx)
	if err != nil {
		return nil, &LoadError{Source: name, Err: err}
	}
	if raw.Err != nil {
		return nil, &LoadError{Source: name, Err: raw.Err}
	}

	names := raw.Names()
	cols := make(map[string][]string, len(names))
	for _, c := range names {
		cols[c] = raw.Col(c).Records()
	}
	for _, c := range types.RequiredColumns {
		if _, ok := cols[c]; !ok {
			return nil, &LoadError{Source: name, Err: fmt.Errorf("missing required column %q", c)}
		}
	}

	n := raw.Nrow()
	records := make([]types.RentalRecord, n)
	var unlabeledSeason, unlabeledWeekday int
	for i := 0; i < n; i++ {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		rec, err := p.parseRow(cols, i)
		if err != nil {
			return nil, err
		}
		if rec.SeasonLabel == "" {
			unlabeledSeason++
		}
		if rec.WeekdayLabel == "" {
			unlabeledWeekday++
		}
		records[i] = rec
	}

	ungrouped := derive(records)

	columns := append([]string(nil), names...)
	for _, c := range types.DerivedColumns {
		if _, ok := cols[c]; !ok {
			columns = append(columns, c)
		}
	}

	frame := buildFrame(records, names, cols)
	if frame.Err != nil {
		return nil, &LoadError{Source: name, Err: frame.Err}
	}

	table := types.NewTable(records, columns, frame)
	table.Fingerprint = fingerprint(records)
	table.Source = name
	table.LoadedAt = time.Now().UTC()

	if unlabeledSeason > 0 || unlabeledWeekday > 0 {
		p.logger.Warn("dataset has unmapped codes",
			"source", name,
			"season_rows", unlabeledSeason,
			"weekday_rows", unlabeledWeekday,
		)
	}
	p.logger.Info("dataset prepared",
		"source", name,
		"rows", n,
		"max_date", table.MaxDate.Format(DateLayout),
		"ungrouped_cnt", ungrouped,
		"duration", time.Since(start),
	)
	return table, nil
}

func (p *Preparer) parseRow(cols map[string][]string, i int) (types.RentalRecord, error) {
	rp := rowParser{cols: cols, row: i}
	rec := types.RentalRecord{
		Instant:     rp.int(types.ColInstant, true),
		Dteday:      rp.str(types.ColDteday),
		SeasonCode:  rp.int(types.ColSeason, true),
		Yr:          rp.int(types.ColYr, false),
		Mnth:        rp.int(types.ColMnth, false),
		Holiday:     rp.int(types.ColHoliday, false),
		WeekdayCode: rp.int(types.ColWeekday, true),
		Workingday:  rp.int(types.ColWorkingday, true),
		Weathersit:  rp.int(types.ColWeathersit, true),
		Temp:        rp.float(types.ColTemp, true),
		Atemp:       rp.float(types.ColAtemp, false),
		Hum:         rp.float(types.ColHum, false),
		Windspeed:   rp.float(types.ColWindspeed, false),
		Casual:      rp.int(types.ColCasual, false),
		Registered:  rp.int(types.ColRegistered, false),
		Cnt:         rp.int(types.ColCnt, true),
	}
	if rp.err != nil {
		return rec, rp.err
	}

	date, err := time.Parse(DateLayout, rec.Dteday)
	if err != nil {
		return rec, &ParseError{Column: types.ColDteday, Row: i + 1, Value: rec.Dteday, Err: err}
	}
	rec.Date = date

	var ok bool
	if rec.SeasonLabel, ok = SeasonLabel(rec.SeasonCode); !ok && p.strict {
		return rec, &ParseError{Column: types.ColSeason, Row: i + 1, Value: strconv.Itoa(rec.SeasonCode), Err: errUnmappedCode}
	}
	if rec.WeekdayLabel, ok = WeekdayLabel(rec.WeekdayCode); !ok && p.strict {
		return rec, &ParseError{Column: types.ColWeekday, Row: i + 1, Value: strconv.Itoa(rec.WeekdayCode), Err: errUnmappedCode}
	}
	return rec, nil
}

// derive fills the table-wide columns and returns how many rows fell outside every
// count group.
func derive(records []types.RentalRecord) int {
	var maxDate time.Time
	perInstant := make(map[int]int, len(records))
	for _, r := range records {
		if r.Date.After(maxDate) {
			maxDate = r.Date
		}
		perInstant[r.Instant]++
	}

	ungrouped := 0
	for i := range records {
		r := &records[i]
		r.Recency = int(maxDate.Sub(r.Date).Hours() / 24)
		r.Frequency = perInstant[r.Instant]
		r.Monetary = r.Cnt
		if g, ok := CountGroup(r.Cnt); ok {
			r.CntGroup = g
		} else {
			ungrouped++
		}
	}
	return ungrouped
}

type rowParser struct {
	cols map[string][]string
	row  int
	err  error
}

func (rp *rowParser) str(col string) string {
	return strings.TrimSpace(rp.cols[col][rp.row])
}

// value returns the trimmed cell and whether the column should be parsed. Missing
// or empty or NA optional cells read as zero.
func (rp *rowParser) value(col string, required bool) (string, bool) {
	if rp.err != nil {
		return "", false
	}
	vals, ok := rp.cols[col]
	if !ok {
		return "", false
	}
	s := strings.TrimSpace(vals[rp.row])
	if !required && (s == "" || s == "NA" || s == "NaN") {
		return "", false
	}
	return s, true
}

func (rp *rowParser) int(col string, required bool) int {
	s, ok := rp.value(col, required)
	if !ok {
		return 0
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		rp.err = &ParseError{Column: col, Row: rp.row + 1, Value: s, Err: err}
		return 0
	}
	return v
}

func (rp *rowParser) float(col string, required bool) float64 {
	s, ok := rp.value(col, required)
	if !ok {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err == nil && (math.IsNaN(v) || math.IsInf(v, 0)) {
		err = errors.New("not a finite number")
	}
	if err != nil {
		rp.err = &ParseError{Column: col, Row: rp.row + 1, Value: s, Err: err}
		return 0
	}
	return v
}

// buildFrame assembles the typed dataframe: source columns in read order, then the
// derived columns.
func buildFrame(records []types.RentalRecord, names []string, raw map[string][]string) dataframe.DataFrame {
	cols := make([]series.Series, 0, len(names))
	for _, name := range names {
		cols = append(cols, sourceSeries(records, name, raw[name]))
	}
	frame := dataframe.New(cols...)

	n := len(records)
	seasonLabels := make([]string, n)
	weekdayLabels := make([]string, n)
	dates := make([]string, n)
	recency := make([]int, n)
	frequency := make([]int, n)
	monetary := make([]int, n)
	groups := make([]string, n)
	for i, r := range records {
		seasonLabels[i] = r.SeasonLabel
		weekdayLabels[i] = r.WeekdayLabel
		dates[i] = r.Date.Format(DateLayout)
		recency[i] = r.Recency
		frequency[i] = r.Frequency
		monetary[i] = r.Monetary
		groups[i] = r.CntGroup
	}

	return frame.
		Mutate(series.New(seasonLabels, series.String, types.ColSeasonLabel)).
		Mutate(series.New(weekdayLabels, series.String, types.ColWeekdayLabel)).
		Mutate(series.New(dates, series.String, types.ColDate)).
		Mutate(series.New(recency, series.Int, types.ColRecency)).
		Mutate(series.New(frequency, series.Int, types.ColFrequency)).
		Mutate(series.New(monetary, series.Int, types.ColMonetary)).
		Mutate(series.New(groups, series.String, types.ColCntGroup))
}

func sourceSeries(records []types.RentalRecord, name string, raw []string) series.Series {
	n := len(records)
	ints := func(get func(types.RentalRecord) int) series.Series {
		out := make([]int, n)
		for i, r := range records {
			out[i] = get(r)
		}
		return series.New(out, series.Int, name)
	}
	floats := func(get func(types.RentalRecord) float64) series.Series {
		out := make([]float64, n)
		for i, r := range records {
			out[i] = get(r)
		}
		return series.New(out, series.Float, name)
	}

	switch name {
	case types.ColInstant:
		return ints(func(r types.RentalRecord) int { return r.Instant })
	case types.ColSeason:
		return ints(func(r types.RentalRecord) int { return r.SeasonCode })
	case types.ColYr:
		return ints(func(r types.RentalRecord) int { return r.Yr })
	case types.ColMnth:
		return ints(func(r types.RentalRecord) int { return r.Mnth })
	case types.ColHoliday:
		return ints(func(r types.RentalRecord) int { return r.Holiday })
	case types.ColWeekday:
		return ints(func(r types.RentalRecord) int { return r.WeekdayCode })
	case types.ColWorkingday:
		return ints(func(r types.RentalRecord) int { return r.Workingday })
	case types.ColWeathersit:
		return ints(func(r types.RentalRecord) int { return r.Weathersit })
	case types.ColCasual:
		return ints(func(r types.RentalRecord) int { return r.Casual })
	case types.ColRegistered:
		return ints(func(r types.RentalRecord) int { return r.Registered })
	case types.ColCnt:
		return ints(func(r types.RentalRecord) int { return r.Cnt })
	case types.ColTemp:
		return floats(func(r types.RentalRecord) float64 { return r.Temp })
	case types.ColAtemp:
		return floats(func(r types.RentalRecord) float64 { return r.Atemp })
	case types.ColHum:
		return floats(func(r types.RentalRecord) float64 { return r.Hum })
	case types.ColWindspeed:
		return floats(func(r types.RentalRecord) float64 { return r.Windspeed })
	default:
		return series.New(raw, series.String, name)
	}
}

// fingerprint hashes every derived value so two loads can be compared cheaply.
func fingerprint(records []types.RentalRecord) string {
	h := sha256.New()
	for _, r := range records {
		fmt.Fprintf(h, "%d|%s|%s|%s|%d|%d|%d|%s\n",
			r.Instant, r.Date.Format(DateLayout), r.SeasonLabel, r.WeekdayLabel,
			r.Recency, r.Frequency, r.Monetary, r.CntGroup)
	}
	return hex.EncodeToString(h.Sum(nil))
}
