package analysis

import (
	"errors"
	"time"

	"github.com/syarafat/Proyek-Analisis-Data/internal/modules/rentals/types"
)

// Summary gathers every aggregate the dashboard shows.
type Summary struct {
	Rows         int
	MaxDate      time.Time
	Season       []CategoryMean
	SeasonColors []string
	Workingday   []CategoryMean
	Weathersit   []CategoryMean
	Weekday      []CategoryMean
	// Insight is nil when no season code is mapped.
	Insight      *Insight
	RFM          Matrix
	WeatherBoxes []Box
	CountGroups  []CountGroupRow
}

// Summarize computes the dashboard aggregates. headRows bounds CountGroups.
func Summarize(t *types.Table, headRows int) (Summary, error) {
	s := Summary{Rows: t.Len(), MaxDate: t.MaxDate}
	var err error
	if s.Season, err = GroupMean(t, types.ColSeasonLabel); err != nil {
		return s, err
	}
	s.SeasonColors = Highlight(s.Season)
	if s.Workingday, err = GroupMean(t, types.ColWorkingday); err != nil {
		return s, err
	}
	if s.Weathersit, err = GroupMean(t, types.ColWeathersit); err != nil {
		return s, err
	}
	if s.Weekday, err = GroupMean(t, types.ColWeekdayLabel); err != nil {
		return s, err
	}
	switch ins, err := SeasonalInsight(s.Season); {
	case err == nil:
		s.Insight = &ins
	case !errors.Is(err, ErrNoLabeledCategory):
		return s, err
	}
	if s.RFM, err = Correlation(t, RFMColumns...); err != nil {
		return s, err
	}
	if s.WeatherBoxes, err = BoxStats(t, types.ColWeathersit); err != nil {
		return s, err
	}
	s.CountGroups = CountGroupHead(t, headRows)
	return s, nil
}
