package repository

import (
	"context"
	"encoding/csv"
	"io"
	"os"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// ReadCSV parses a header-first CSV keeping every cell as a string so the preparer
// sees the values exactly as written. A header without rows yields a zero-row frame.
func ReadCSV(r io.Reader) (dataframe.DataFrame, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	return loadRecords(records)
}

// loadRecords builds a string frame from a header row plus data rows. NA-like cells
// are kept verbatim.
func loadRecords(records [][]string) (dataframe.DataFrame, error) {
	if len(records) == 1 {
		return emptyFrame(records[0]), nil
	}
	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nil),
	)
	return df, df.Err
}

func emptyFrame(names []string) dataframe.DataFrame {
	cols := make([]series.Series, len(names))
	for i, name := range names {
		cols[i] = series.New([]string{}, series.String, name)
	}
	return dataframe.New(cols...)
}

// CSVSource reads the day table from a CSV file on every call.
type CSVSource struct {
	path string
}

func NewCSVSource(path string) *CSVSource {
	return &CSVSource{path: path}
}

func (s *CSVSource) Name() string {
	return "csv:" + s.path
}

func (s *CSVSource) Path() string {
	return s.path
}

func (s *CSVSource) Frame(ctx context.Context) (dataframe.DataFrame, error) {
	if err := ctx.Err(); err != nil {
		return dataframe.DataFrame{}, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	defer func() { _ = f.Close() }()
	return ReadCSV(f)
}
