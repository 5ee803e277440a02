// Package export writes the prepared day table as an xlsx workbook.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/syarafat/Proyek-Analisis-Data/internal/modules/rentals/analysis"
	"github.com/syarafat/Proyek-Analisis-Data/internal/modules/rentals/dataset"
	"github.com/syarafat/Proyek-Analisis-Data/internal/modules/rentals/types"
)

const (
	DaySheet    = "day"
	SeasonSheet = "musim"
)

// Columns is the header of the day sheet.
var Columns = append(append([]string(nil), types.SourceColumns...), types.DerivedColumns...)

// WriteXLSX writes the table to the day sheet and the seasonal means to the musim sheet.
func WriteXLSX(w io.Writer, t *types.Table) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", DaySheet); err != nil {
		return err
	}
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	if err := writeRow(f, DaySheet, 1, toAny(Columns)); err != nil {
		return err
	}
	for i, r := range t.Records {
		if err := writeRow(f, DaySheet, i+2, recordRow(r)); err != nil {
			return err
		}
	}
	if err := styleHeader(f, DaySheet, len(Columns), header); err != nil {
		return err
	}
	if err := f.SetPanes(DaySheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return err
	}

	if t.Len() > 0 {
		if err := writeSeasonSheet(f, t, header); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func writeSeasonSheet(f *excelize.File, t *types.Table, header int) error {
	means, err := analysis.GroupMean(t, types.ColSeasonLabel)
	if err != nil {
		return err
	}
	if _, err := f.NewSheet(SeasonSheet); err != nil {
		return err
	}
	if err := writeRow(f, SeasonSheet, 1, []any{"musim", "hari", "rata_rata_cnt"}); err != nil {
		return err
	}
	for i, m := range means {
		if err := writeRow(f, SeasonSheet, i+2, []any{m.Label, m.Count, m.Mean}); err != nil {
			return err
		}
	}
	return styleHeader(f, SeasonSheet, 3, header)
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func styleHeader(f *excelize.File, sheet string, cols, style int) error {
	last, err := excelize.CoordinatesToCellName(cols, 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, style)
}

func recordRow(r types.RentalRecord) []any {
	return []any{
		r.Instant, r.Dteday, r.SeasonCode, r.Yr, r.Mnth, r.Holiday, r.WeekdayCode, r.Workingday,
		r.Weathersit, r.Temp, r.Atemp, r.Hum, r.Windspeed, r.Casual, r.Registered, r.Cnt,
		r.SeasonLabel, r.WeekdayLabel, r.Date.Format(dataset.DateLayout),
		r.Recency, r.Frequency, r.Monetary, r.CntGroup,
	}
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
