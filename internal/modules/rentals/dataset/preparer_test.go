package dataset

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"reflect"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/syarafat/Proyek-Analisis-Data/internal/modules/rentals/repository"
	"github.com/syarafat/Proyek-Analisis-Data/internal/modules/rentals/types"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type stringSource struct {
	body string
}

func (s stringSource) Name() string { return "inline" }

func (s stringSource) Frame(context.Context) (dataframe.DataFrame, error) {
	return repository.ReadCSV(strings.NewReader(s.body))
}

func loadFile(t *testing.T, path string, opts ...Option) (*types.Table, error) {
	t.Helper()
	opts = append([]Option{WithLogger(quietLogger)}, opts...)
	return NewPreparer(repository.NewCSVSource(path), opts...).Load(context.Background())
}

func TestLoad_Fixture(t *testing.T) {
	table, err := loadFile(t, "testdata/day.csv")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if table.Len() != 12 {
		t.Fatalf("Len() = %d, want 12", table.Len())
	}

	wantRecency := []int{294, 293, 292, 195, 194, 193, 99, 98, 97, 2, 1, 0}
	wantGroups := []string{
		"Sangat Rendah", "Rendah", "Rendah", "Sedang", "Sedang", "Sangat Rendah",
		"Sedang", "Sangat Tinggi", "Sangat Tinggi", "Tinggi", "Tinggi", "Sangat Rendah",
	}
	for i, r := range table.Records {
		if r.Instant != i+1 {
			t.Errorf("row %d: instant = %d, order not preserved", i, r.Instant)
		}
		if want, _ := SeasonLabel(r.SeasonCode); r.SeasonLabel != want {
			t.Errorf("row %d: season_label = %q, want %q", i, r.SeasonLabel, want)
		}
		if want, _ := WeekdayLabel(r.WeekdayCode); r.WeekdayLabel != want {
			t.Errorf("row %d: weekday_label = %q, want %q", i, r.WeekdayLabel, want)
		}
		if r.WeekdayLabel != r.Date.Weekday().String() {
			t.Errorf("row %d: weekday_label = %q but %s is a %s", i, r.WeekdayLabel, r.Dteday, r.Date.Weekday())
		}
		if r.Recency != wantRecency[i] {
			t.Errorf("row %d: recency = %d, want %d", i, r.Recency, wantRecency[i])
		}
		if r.Frequency != 1 {
			t.Errorf("row %d: frequency = %d, want 1", i, r.Frequency)
		}
		if r.Monetary != r.Cnt {
			t.Errorf("row %d: monetary = %d, want cnt %d", i, r.Monetary, r.Cnt)
		}
		if r.CntGroup != wantGroups[i] {
			t.Errorf("row %d: cnt_group = %q, want %q", i, r.CntGroup, wantGroups[i])
		}
		if r.Casual+r.Registered != r.Cnt {
			t.Errorf("row %d: optional columns not passed through", i)
		}
	}

	if got := table.MaxDate.Format(DateLayout); got != "2011-10-22" {
		t.Errorf("MaxDate = %s", got)
	}
	if got := table.Columns[len(table.Columns)-len(types.DerivedColumns):]; !reflect.DeepEqual(got, types.DerivedColumns) {
		t.Errorf("trailing columns = %v, want %v", got, types.DerivedColumns)
	}
	if table.Columns[0] != types.ColInstant || table.Columns[15] != types.ColCnt {
		t.Errorf("source column order lost: %v", table.Columns)
	}
	if table.Fingerprint == "" {
		t.Error("Fingerprint is empty")
	}
}

func TestLoad_RecencyZeroOnlyAtMaxDate(t *testing.T) {
	table, err := NewPreparer(stringSource{body: "instant,dteday,season,weekday,workingday,weathersit,temp,cnt\n" +
		"1,2012-12-31,1,1,1,1,0.2,300\n" +
		"2,2012-12-30,1,0,0,1,0.2,300\n" +
		"3,2012-12-31,1,1,1,1,0.2,300\n"}, WithLogger(quietLogger)).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	got := []int{table.Records[0].Recency, table.Records[1].Recency, table.Records[2].Recency}
	if !reflect.DeepEqual(got, []int{0, 1, 0}) {
		t.Errorf("recency = %v, want [0 1 0]", got)
	}
}

func TestLoad_SummerSaturdayAndUnmappedCodes(t *testing.T) {
	table, err := loadFile(t, "testdata/minimal.csv")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	r := table.Records[0]
	if r.SeasonLabel != "Musim Panas" || r.WeekdayLabel != "Saturday" || r.CntGroup != "Sedang" {
		t.Errorf("row 1 = %q / %q / %q, want Musim Panas / Saturday / Sedang", r.SeasonLabel, r.WeekdayLabel, r.CntGroup)
	}
	if !r.Date.Equal(time.Date(2011, 7, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("row 1 date = %v", r.Date)
	}
	if r.Yr != 0 || r.Hum != 0 || r.Registered != 0 {
		t.Errorf("missing optional columns should read as zero: %+v", r)
	}

	// season 5, weekday 9, cnt 501
	r = table.Records[1]
	if r.SeasonLabel != "" || r.WeekdayLabel != "" || r.CntGroup != "" {
		t.Errorf("row 2 labels = %q / %q / %q, want all absent", r.SeasonLabel, r.WeekdayLabel, r.CntGroup)
	}
	// season 0, cnt -1
	r = table.Records[2]
	if r.SeasonLabel != "" || r.CntGroup != "" {
		t.Errorf("row 3 labels = %q / %q, want absent", r.SeasonLabel, r.CntGroup)
	}
	if r.WeekdayLabel != "Sunday" {
		t.Errorf("row 3 weekday = %q, want Sunday", r.WeekdayLabel)
	}
}

func TestLoad_StrictCodes(t *testing.T) {
	_, err := loadFile(t, "testdata/minimal.csv", WithStrictCodes(true))
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("Load() error = %v, want *ParseError", err)
	}
	if pe.Column != types.ColSeason || pe.Row != 2 || pe.Value != "5" {
		t.Errorf("ParseError = %+v, want season at row 2 value 5", pe)
	}
	if !errors.Is(err, ErrParse) {
		t.Error("errors.Is(err, ErrParse) = false")
	}
}

func TestLoad_BadDate(t *testing.T) {
	_, err := loadFile(t, "testdata/bad_date.csv")
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("Load() error = %v, want *ParseError", err)
	}
	if pe.Column != types.ColDteday || pe.Row != 2 || pe.Value != "15/07/2011" {
		t.Errorf("ParseError = %+v", pe)
	}
	if errors.Is(err, ErrDataLoad) {
		t.Error("parse failure reported as ErrDataLoad")
	}
}

func TestLoad_BadNumbers(t *testing.T) {
	tests := []struct {
		name   string
		row    string
		column string
	}{
		{"cnt", "1,2011-01-01,1,6,0,2,0.3,lots", types.ColCnt},
		{"temp", "1,2011-01-01,1,6,0,2,warm,10", types.ColTemp},
		{"temp nan", "1,2011-01-01,1,6,0,2,NaN,10", types.ColTemp},
		{"empty season", "1,2011-01-01,,6,0,2,0.3,10", types.ColSeason},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := "instant,dteday,season,weekday,workingday,weathersit,temp,cnt\n" + tt.row + "\n"
			_, err := NewPreparer(stringSource{body: body}, WithLogger(quietLogger)).Load(context.Background())
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("Load() error = %v, want *ParseError", err)
			}
			if pe.Column != tt.column || pe.Row != 1 {
				t.Errorf("ParseError = %+v, want column %s row 1", pe, tt.column)
			}
		})
	}
}

func TestLoad_ParseErrorKeepsSourceText(t *testing.T) {
	body := "instant,dteday,season,weekday,workingday,weathersit,temp,cnt\n" +
		"1,2011-01-01,1,6,0,2,0.3,10\n" +
		"2,2011-01-02,1,0,0,2,0.3,NA\n"
	_, err := NewPreparer(stringSource{body: body}, WithLogger(quietLogger)).Load(context.Background())
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("Load() error = %v, want *ParseError", err)
	}
	if pe.Column != types.ColCnt || pe.Row != 2 || pe.Value != "NA" {
		t.Errorf("ParseError = %+v, want cnt row 2 value \"NA\"", pe)
	}
}

func TestLoad_OptionalNAReadsZero(t *testing.T) {
	body := "instant,dteday,season,weekday,workingday,weathersit,temp,hum,cnt\n" +
		"1,2011-01-01,1,6,0,2,0.3,NA,10\n"
	table, err := NewPreparer(stringSource{body: body}, WithLogger(quietLogger)).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := table.Records[0].Hum; got != 0 {
		t.Errorf("hum = %v, want 0", got)
	}
}

func TestLoad_HeaderOnly(t *testing.T) {
	body := "instant,dteday,season,weekday,workingday,weathersit,temp,cnt\n"
	table, err := NewPreparer(stringSource{body: body}, WithLogger(quietLogger)).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	if table.Len() != 0 {
		t.Errorf("Len() = %d, want 0", table.Len())
	}
	for _, c := range types.RequiredColumns {
		if !slices.Contains(table.Columns, c) {
			t.Errorf("Columns = %v, missing %q", table.Columns, c)
		}
	}
}

func TestLoad_HeaderOnlyStillChecksColumns(t *testing.T) {
	_, err := NewPreparer(stringSource{body: "instant,dteday\n"}, WithLogger(quietLogger)).Load(context.Background())
	if !errors.Is(err, ErrDataLoad) {
		t.Fatalf("Load() error = %v, want ErrDataLoad", err)
	}
}

func TestLoad_LoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := loadFile(t, "testdata/does-not-exist.csv")
		var le *LoadError
		if !errors.As(err, &le) {
			t.Fatalf("Load() error = %v, want *LoadError", err)
		}
		if !errors.Is(err, ErrDataLoad) || !errors.Is(err, os.ErrNotExist) {
			t.Errorf("error chain = %v, want ErrDataLoad and os.ErrNotExist", err)
		}
	})

	t.Run("missing column", func(t *testing.T) {
		_, err := loadFile(t, "testdata/missing_column.csv")
		if !errors.Is(err, ErrDataLoad) {
			t.Fatalf("Load() error = %v, want ErrDataLoad", err)
		}
		if !strings.Contains(err.Error(), `"temp"`) {
			t.Errorf("error %q does not name the column", err)
		}
	})
}

func TestLoad_Idempotent(t *testing.T) {
	p := NewPreparer(repository.NewCSVSource("testdata/day.csv"), WithLogger(quietLogger))
	a, err := p.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	b, err := p.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if a.Fingerprint != b.Fingerprint {
		t.Errorf("fingerprints differ: %s vs %s", a.Fingerprint, b.Fingerprint)
	}
	if !reflect.DeepEqual(a.Records, b.Records) {
		t.Error("records differ between loads")
	}
}

func TestLoad_Frame(t *testing.T) {
	table, err := loadFile(t, "testdata/day.csv")
	if err != nil {
		t.Fatal(err)
	}
	df := table.Frame()
	if df.Nrow() != 12 || df.Ncol() != len(table.Columns) {
		t.Fatalf("frame dims = %dx%d, want 12x%d", df.Nrow(), df.Ncol(), len(table.Columns))
	}
	if df.Col(types.ColCnt).Type() != series.Int {
		t.Errorf("cnt type = %v, want int", df.Col(types.ColCnt).Type())
	}
	if df.Col(types.ColTemp).Type() != series.Float {
		t.Errorf("temp type = %v, want float", df.Col(types.ColTemp).Type())
	}
	if got := df.Col(types.ColSeasonLabel).Records()[6]; got != "Musim Panas" {
		t.Errorf("season_label[6] = %q", got)
	}
	if got := df.Col(types.ColCntGroup).Records()[7]; got != "Sangat Tinggi" {
		t.Errorf("cnt_group[7] = %q", got)
	}
}

func TestLoad_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewPreparer(repository.NewCSVSource("testdata/day.csv"), WithLogger(quietLogger)).Load(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}
