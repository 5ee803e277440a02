// Package analysis aggregates a prepared day table for the dashboard: grouped means,
// the highlighted maximum, the seasonal insight, RFM-proxy correlations and box
// statistics.
package analysis

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/stat"

	"github.com/syarafat/Proyek-Analisis-Data/internal/modules/rentals/dataset"
	"github.com/syarafat/Proyek-Analisis-Data/internal/modules/rentals/types"
)

const (
	AccentColor = "#e74c3c"
	BaseColor   = "#3498db"
)

var (
	ErrEmptyTable = errors.New("table has no rows")
	ErrUnknownKey = errors.New("unsupported group key")
	// ErrNoLabeledCategory means every row fell into "(tanpa label)".
	ErrNoLabeledCategory = errors.New("no labeled category")
)

// RFMColumns are the proxy columns correlated on the dashboard.
var RFMColumns = []string{types.ColRecency, types.ColFrequency, types.ColMonetary}

// CategoryMean is the mean cnt of one category. Key is the raw group value and
// Label its display form.
type CategoryMean struct {
	Key   string  `json:"key"`
	Label string  `json:"label"`
	Mean  float64 `json:"mean"`
	Count int     `json:"count"`
}

// rank orders categories by their code. Unlabeled categories sort last.
type rankFunc func(key string) int

const lastRank = math.MaxInt32

var groupKeys = map[string]rankFunc{
	types.ColSeasonLabel: func(k string) int {
		if code, ok := dataset.SeasonCode(k); ok {
			return code
		}
		return lastRank
	},
	types.ColWeekdayLabel: func(k string) int {
		if code, ok := dataset.WeekdayCode(k); ok {
			return code
		}
		return lastRank
	},
	types.ColWorkingday: numericRank,
	types.ColWeathersit: numericRank,
	types.ColSeason:     numericRank,
	types.ColWeekday:    numericRank,
}

func numericRank(k string) int {
	n, err := strconv.Atoi(k)
	if err != nil {
		return lastRank
	}
	return n
}

// GroupMean groups the table by key and returns the mean cnt per category in code
// order. Rows whose label is absent form a single "(tanpa label)" category.
func GroupMean(t *types.Table, key string) ([]CategoryMean, error) {
	rank, ok := groupKeys[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	if t.Len() == 0 {
		return nil, ErrEmptyTable
	}

	groups := t.Frame().GroupBy(key)
	if groups.Err != nil {
		return nil, fmt.Errorf("group by %s: %w", key, groups.Err)
	}

	out := make([]CategoryMean, 0, 8)
	for _, g := range groups.GetGroups() {
		k := g.Col(key).Records()[0]
		cnt := g.Col(types.ColCnt).Float()
		label := k
		if label == "" {
			label = dataset.UnlabeledCategory
		}
		out = append(out, CategoryMean{Key: k, Label: label, Mean: stat.Mean(cnt, nil), Count: len(cnt)})
	}
	sort.Slice(out, func(i, j int) bool {
		ri, rj := rank(out[i].Key), rank(out[j].Key)
		if ri != rj {
			return ri < rj
		}
		return out[i].Key < out[j].Key
	})
	return out, nil
}

// ArgMax returns the index of the highest mean, the first one on ties, or -1.
func ArgMax(means []CategoryMean) int {
	best := -1
	for i, m := range means {
		if best < 0 || m.Mean > means[best].Mean {
			best = i
		}
	}
	return best
}

// Highlight returns one color per category: AccentColor for the labeled argmax,
// BaseColor for the rest. The "(tanpa label)" category is never highlighted.
func Highlight(means []CategoryMean) []string {
	top := -1
	for i, m := range means {
		if m.Key != "" && (top < 0 || m.Mean > means[top].Mean) {
			top = i
		}
	}
	colors := make([]string, len(means))
	for i := range means {
		if i == top {
			colors[i] = AccentColor
		} else {
			colors[i] = BaseColor
		}
	}
	return colors
}

// Labeled drops the "(tanpa label)" category.
func Labeled(means []CategoryMean) []CategoryMean {
	out := make([]CategoryMean, 0, len(means))
	for _, m := range means {
		if m.Key != "" {
			out = append(out, m)
		}
	}
	return out
}

// Matrix is a square correlation matrix. NaN marks an undefined coefficient.
type Matrix struct {
	Columns []string
	Values  [][]float64
}

// Correlation returns the Pearson correlation matrix of cols. A column with zero
// variance yields NaN in its row and column, diagonal included.
func Correlation(t *types.Table, cols ...string) (Matrix, error) {
	if t.Len() == 0 {
		return Matrix{}, ErrEmptyTable
	}
	df := t.Frame()
	data := make([][]float64, len(cols))
	for i, c := range cols {
		s := df.Col(c)
		if s.Err != nil {
			return Matrix{}, fmt.Errorf("correlation column %q: %w", c, s.Err)
		}
		data[i] = s.Float()
	}

	m := Matrix{Columns: append([]string(nil), cols...), Values: make([][]float64, len(cols))}
	for i := range cols {
		m.Values[i] = make([]float64, len(cols))
		for j := range cols {
			switch {
			case i == j && stat.Variance(data[i], nil) > 0:
				m.Values[i][j] = 1
			case i == j:
				m.Values[i][j] = math.NaN()
			default:
				m.Values[i][j] = stat.Correlation(data[i], data[j], nil)
			}
		}
	}
	return m, nil
}

// Box summarizes cnt for one category. Quartiles are empirical, so every value is
// an observed cnt.
type Box struct {
	Key    string  `json:"key"`
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
	// Values are the sorted cnt values of the category.
	Values []float64 `json:"-"`
}

// BoxStats groups cnt by key and returns one Box per category in code order.
func BoxStats(t *types.Table, key string) ([]Box, error) {
	rank, ok := groupKeys[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	if t.Len() == 0 {
		return nil, ErrEmptyTable
	}

	groups := t.Frame().GroupBy(key)
	if groups.Err != nil {
		return nil, fmt.Errorf("group by %s: %w", key, groups.Err)
	}
	out := make([]Box, 0, 4)
	for _, g := range groups.GetGroups() {
		xs := g.Col(types.ColCnt).Float()
		sort.Float64s(xs)
		out = append(out, Box{
			Key:    g.Col(key).Records()[0],
			Count:  len(xs),
			Min:    xs[0],
			Q1:     stat.Quantile(0.25, stat.Empirical, xs, nil),
			Median: stat.Quantile(0.5, stat.Empirical, xs, nil),
			Q3:     stat.Quantile(0.75, stat.Empirical, xs, nil),
			Max:    xs[len(xs)-1],
			Values: xs,
		})
	}
	sort.Slice(out, func(i, j int) bool { return rank(out[i].Key) < rank(out[j].Key) })
	return out, nil
}

// CountGroupRow is one line of the binning preview.
type CountGroupRow struct {
	Cnt   int    `json:"cnt"`
	Group string `json:"cnt_group"`
}

func CountGroupHead(t *types.Table, n int) []CountGroupRow {
	head := t.Head(n)
	out := make([]CountGroupRow, len(head))
	for i, r := range head {
		out[i] = CountGroupRow{Cnt: r.Cnt, Group: r.CntGroup}
	}
	return out
}
