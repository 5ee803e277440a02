package types

import (
	"time"

	"github.com/go-gota/gota/dataframe"
)

// Source column names.
const (
	ColInstant    = "instant"
	ColDteday     = "dteday"
	ColSeason     = "season"
	ColYr         = "yr"
	ColMnth       = "mnth"
	ColHoliday    = "holiday"
	ColWeekday    = "weekday"
	ColWorkingday = "workingday"
	ColWeathersit = "weathersit"
	ColTemp       = "temp"
	ColAtemp      = "atemp"
	ColHum        = "hum"
	ColWindspeed  = "windspeed"
	ColCasual     = "casual"
	ColRegistered = "registered"
	ColCnt        = "cnt"
)

// Derived column names.
const (
	ColSeasonLabel  = "season_label"
	ColWeekdayLabel = "weekday_label"
	ColDate         = "date"
	ColRecency      = "recency"
	ColFrequency    = "frequency"
	ColMonetary     = "monetary"
	ColCntGroup     = "cnt_group"
)

// RequiredColumns must be present in every source.
var RequiredColumns = []string{
	ColInstant, ColDteday, ColSeason, ColWeekday, ColWorkingday, ColWeathersit, ColTemp, ColCnt,
}

// OptionalColumns are passed through when present and zero otherwise.
var OptionalColumns = []string{
	ColYr, ColMnth, ColHoliday, ColAtemp, ColHum, ColWindspeed, ColCasual, ColRegistered,
}

// SourceColumns is the canonical order of the day table.
var SourceColumns = []string{
	ColInstant, ColDteday, ColSeason, ColYr, ColMnth, ColHoliday, ColWeekday, ColWorkingday,
	ColWeathersit, ColTemp, ColAtemp, ColHum, ColWindspeed, ColCasual, ColRegistered, ColCnt,
}

// DerivedColumns are appended after the source columns, in this order.
var DerivedColumns = []string{
	ColSeasonLabel, ColWeekdayLabel, ColDate, ColRecency, ColFrequency, ColMonetary, ColCntGroup,
}

// RentalRecord is one calendar day of rentals. Empty label strings mean the code had
// no mapping.
type RentalRecord struct {
	Instant      int       `json:"instant"`
	Dteday       string    `json:"dteday"`
	Date         time.Time `json:"date"`
	SeasonCode   int       `json:"season"`
	SeasonLabel  string    `json:"season_label"`
	Yr           int       `json:"yr"`
	Mnth         int       `json:"mnth"`
	Holiday      int       `json:"holiday"`
	WeekdayCode  int       `json:"weekday"`
	WeekdayLabel string    `json:"weekday_label"`
	Workingday   int       `json:"workingday"`
	Weathersit   int       `json:"weathersit"`
	Temp         float64   `json:"temp"`
	Atemp        float64   `json:"atemp"`
	Hum          float64   `json:"hum"`
	Windspeed    float64   `json:"windspeed"`
	Casual       int       `json:"casual"`
	Registered   int       `json:"registered"`
	Cnt          int       `json:"cnt"`

	// Recency is the number of days between Date and the latest date in the table.
	Recency int `json:"recency"`
	// Frequency counts rows sharing Instant. It is a placeholder and is 1 for a
	// well-formed day table.
	Frequency int `json:"frequency"`
	// Monetary mirrors Cnt. It is not a currency amount.
	Monetary int    `json:"monetary"`
	CntGroup string `json:"cnt_group"`
}

// Table is the prepared, read-only day table. Callers must not modify Records.
type Table struct {
	Records []RentalRecord
	// Columns lists the source columns as read followed by DerivedColumns.
	Columns     []string
	MaxDate     time.Time
	Fingerprint string
	Source      string
	LoadedAt    time.Time

	frame dataframe.DataFrame
}

func NewTable(records []RentalRecord, columns []string, frame dataframe.DataFrame) *Table {
	t := &Table{Records: records, Columns: columns, frame: frame}
	for _, r := range records {
		if r.Date.After(t.MaxDate) {
			t.MaxDate = r.Date
		}
	}
	return t
}

func (t *Table) Len() int {
	return len(t.Records)
}

// Frame returns a copy of the typed dataframe backing the table.
func (t *Table) Frame() dataframe.DataFrame {
	return t.frame.Copy()
}

// HeadRows returns up to n leading rows of the backing frame as strings, one cell
// per entry of Columns.
func (t *Table) HeadRows(n int) [][]string {
	n = min(max(n, 0), t.Len())
	if n == 0 {
		return nil
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return t.frame.Subset(idx).Records()[1:]
}

// Head returns up to n leading records.
func (t *Table) Head(n int) []RentalRecord {
	if n > len(t.Records) {
		n = len(t.Records)
	}
	if n < 0 {
		n = 0
	}
	return t.Records[:n]
}
