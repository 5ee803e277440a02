package controller

import (
	"fmt"
	"math"
	"time"

	"golang.org/x/text/language"

	"github.com/syarafat/Proyek-Analisis-Data/internal/modules/rentals/analysis"
	"github.com/syarafat/Proyek-Analisis-Data/internal/modules/rentals/dataset"
	"github.com/syarafat/Proyek-Analisis-Data/internal/modules/rentals/types"
	"github.com/syarafat/Proyek-Analisis-Data/internal/modules/rentals/views"
)

type recordsPage struct {
	Version uint64               `json:"version"`
	Total   int                  `json:"total"`
	Limit   int                  `json:"limit"`
	Offset  int                  `json:"offset"`
	Items   []types.RentalRecord `json:"items"`
}

func newRecordsPage(t *types.Table, version uint64, limit, offset int) recordsPage {
	start := min(offset, t.Len())
	end := min(start+limit, t.Len())
	items := t.Records[start:end]
	if items == nil {
		items = []types.RentalRecord{}
	}
	return recordsPage{Version: version, Total: t.Len(), Limit: limit, Offset: offset, Items: items}
}

type seasonMean struct {
	analysis.CategoryMean
	Color string `json:"color"`
}

type insightResponse struct {
	analysis.Insight
	Lines []string `json:"lines"`
}

// correlationResponse carries NaN coefficients as null.
type correlationResponse struct {
	Columns []string     `json:"columns"`
	Values  [][]*float64 `json:"values"`
}

type summaryResponse struct {
	Version      uint64                   `json:"version"`
	Rows         int                      `json:"rows"`
	MaxDate      string                   `json:"max_date"`
	Season       []seasonMean             `json:"season"`
	Workingday   []analysis.CategoryMean  `json:"workingday"`
	Weathersit   []analysis.CategoryMean  `json:"weathersit"`
	Weekday      []analysis.CategoryMean  `json:"weekday"`
	Insight      *insightResponse         `json:"insight"`
	RFM          correlationResponse      `json:"rfm_correlation"`
	WeatherBoxes []analysis.Box           `json:"weathersit_boxes"`
	CountGroups  []analysis.CountGroupRow `json:"cnt_groups"`
}

func newSummaryResponse(s analysis.Summary, version uint64, locale language.Tag) summaryResponse {
	season := make([]seasonMean, len(s.Season))
	for i, m := range s.Season {
		season[i] = seasonMean{CategoryMean: m, Color: s.SeasonColors[i]}
	}
	var insight *insightResponse
	if s.Insight != nil {
		insight = &insightResponse{Insight: *s.Insight, Lines: s.Insight.Lines(locale)}
	}
	return summaryResponse{
		Version:      version,
		Rows:         s.Rows,
		MaxDate:      formatDate(s.MaxDate),
		Season:       season,
		Workingday:   s.Workingday,
		Weathersit:   s.Weathersit,
		Weekday:      s.Weekday,
		Insight:      insight,
		RFM:          newCorrelationResponse(s.RFM),
		WeatherBoxes: s.WeatherBoxes,
		CountGroups:  s.CountGroups,
	}
}

func newCorrelationResponse(m analysis.Matrix) correlationResponse {
	out := correlationResponse{Columns: m.Columns, Values: make([][]*float64, len(m.Values))}
	for i, row := range m.Values {
		out.Values[i] = make([]*float64, len(row))
		for j, v := range row {
			if math.IsNaN(v) {
				continue
			}
			out.Values[i][j] = &v
		}
	}
	return out
}

type reloadResponse struct {
	Version     uint64 `json:"version"`
	Rows        int    `json:"rows"`
	Fingerprint string `json:"fingerprint"`
}

func chartLinks(names []string, version uint64) []views.Chart {
	out := make([]views.Chart, len(names))
	for i, n := range names {
		out[i] = views.Chart{URL: fmt.Sprintf("/charts/%s.png?v=%d", n, version), Alt: n}
	}
	return out
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dataset.DateLayout)
}
