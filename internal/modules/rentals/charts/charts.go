// Package charts draws the dashboard figures as PNG images.
package charts

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"math"
	"slices"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/syarafat/Proyek-Analisis-Data/internal/modules/rentals/analysis"
	"github.com/syarafat/Proyek-Analisis-Data/internal/modules/rentals/dataset"
	"github.com/syarafat/Proyek-Analisis-Data/internal/modules/rentals/types"
)

// Chart names as used in /charts/{name}.png.
const (
	Season      = "season"
	Workingday  = "workingday"
	Weathersit  = "weathersit"
	Temperature = "temperature"
	WeatherBox  = "weather-box"
	RFM         = "rfm-heatmap"
)

// Names lists every chart in page order.
var Names = []string{Season, Workingday, Weathersit, Temperature, WeatherBox, RFM}

var ErrUnknownChart = errors.New("unknown chart")

const (
	width  = 8 * vg.Inch
	height = 5 * vg.Inch
)

// Render draws the named chart for t and returns PNG bytes.
func Render(name string, t *types.Table) ([]byte, error) {
	var (
		p   *plot.Plot
		err error
	)
	switch name {
	case Season:
		var means []analysis.CategoryMean
		if means, err = analysis.GroupMean(t, types.ColSeasonLabel); err == nil {
			p, err = SeasonBar(means, analysis.Highlight(means))
		}
	case Workingday:
		var means []analysis.CategoryMean
		if means, err = analysis.GroupMean(t, types.ColWorkingday); err == nil {
			p, err = MeanBar(means, "Penyewaan Berdasarkan Hari Kerja", "Hari Kerja")
		}
	case Weathersit:
		var means []analysis.CategoryMean
		if means, err = analysis.GroupMean(t, types.ColWeathersit); err == nil {
			p, err = MeanBar(means, "Penyewaan Berdasarkan Cuaca", "Kondisi Cuaca")
		}
	case Temperature:
		p, err = TemperatureScatter(t.Records)
	case WeatherBox:
		var boxes []analysis.Box
		if boxes, err = analysis.BoxStats(t, types.ColWeathersit); err == nil {
			p, err = WeatherBoxPlot(boxes)
		}
	case RFM:
		var m analysis.Matrix
		if m, err = analysis.Correlation(t, analysis.RFMColumns...); err == nil {
			p, err = CorrelationHeatmap(m, "RFM Correlation")
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownChart, name)
	}
	if err != nil {
		return nil, fmt.Errorf("chart %s: %w", name, err)
	}
	return encodePNG(p)
}

// SeasonBar draws one bar per season, each in its own color.
func SeasonBar(means []analysis.CategoryMean, colors []string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Rata-rata Penyewaan Sepeda per Musim"
	p.X.Label.Text = "Musim"
	p.Y.Label.Text = "Rata-rata Penyewaan"
	if err := addBars(p, means, colors); err != nil {
		return nil, err
	}
	return p, nil
}

// MeanBar draws mean cnt per category in the base color.
func MeanBar(means []analysis.CategoryMean, title, xLabel string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = "Rata-rata Penyewaan"
	colors := make([]string, len(means))
	for i := range colors {
		colors[i] = analysis.BaseColor
	}
	if err := addBars(p, means, colors); err != nil {
		return nil, err
	}
	return p, nil
}

func addBars(p *plot.Plot, means []analysis.CategoryMean, colors []string) error {
	names := make([]string, len(means))
	for i, m := range means {
		bar, err := plotter.NewBarChart(plotter.Values{m.Mean}, vg.Points(40))
		if err != nil {
			return err
		}
		c, err := ParseHex(colors[i])
		if err != nil {
			return err
		}
		bar.Color = c
		bar.LineStyle.Width = vg.Length(0)
		bar.XMin = float64(i)
		p.Add(bar)
		names[i] = m.Label
	}
	p.NominalX(names...)
	p.Y.Min = 0
	return nil
}

// TemperatureScatter plots temp against cnt with one series per season code.
func TemperatureScatter(records []types.RentalRecord) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Pengaruh Suhu terhadap Jumlah Penyewaan"
	p.X.Label.Text = "Suhu (Normalized)"
	p.Y.Label.Text = "Jumlah Penyewaan"
	p.Legend.Top = true
	p.Legend.Left = true

	bySeason := make(map[int]plotter.XYs)
	var codes []int
	for _, r := range records {
		if _, seen := bySeason[r.SeasonCode]; !seen {
			codes = append(codes, r.SeasonCode)
		}
		bySeason[r.SeasonCode] = append(bySeason[r.SeasonCode], plotter.XY{X: r.Temp, Y: float64(r.Cnt)})
	}
	slices.Sort(codes)

	colors := coolwarm(len(codes)).Colors()
	for i, code := range codes {
		s, err := plotter.NewScatter(bySeason[code])
		if err != nil {
			return nil, err
		}
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		s.GlyphStyle.Radius = vg.Points(3)
		s.GlyphStyle.Color = colors[i]
		p.Add(s)
		label, ok := dataset.SeasonLabel(code)
		if !ok {
			label = dataset.UnlabeledCategory
		}
		p.Legend.Add(fmt.Sprintf("%d %s", code, label), s)
	}
	p.Add(plotter.NewGrid())
	return p, nil
}

// WeatherBoxPlot draws one box per weathersit category.
func WeatherBoxPlot(boxes []analysis.Box) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Pengaruh Cuaca terhadap Jumlah Penyewaan"
	p.X.Label.Text = "Kondisi Cuaca"
	p.Y.Label.Text = "Jumlah Penyewaan"

	colors := coolwarm(len(boxes)).Colors()
	names := make([]string, len(boxes))
	for i, b := range boxes {
		box, err := plotter.NewBoxPlot(vg.Points(40), float64(i), plotter.Values(b.Values))
		if err != nil {
			return nil, err
		}
		box.FillColor = colors[i]
		p.Add(box)
		names[i] = b.Key
	}
	p.NominalX(names...)
	return p, nil
}

// CorrelationHeatmap draws m with coolwarm colors fixed to [-1, 1] and the value
// written in each cell. Undefined coefficients are grey and read "NaN".
func CorrelationHeatmap(m analysis.Matrix, title string) (*plot.Plot, error) {
	n := len(m.Columns)
	if n == 0 {
		return nil, errors.New("empty correlation matrix")
	}
	p := plot.New()
	p.Title.Text = title

	h := plotter.NewHeatMap(heatGrid{m: m}, coolwarm(64))
	h.Min, h.Max = -1, 1
	h.NaN = color.Gray{Y: 200}
	p.Add(h)

	var xys plotter.XYs
	var texts []string
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			xys = append(xys, plotter.XY{X: float64(c), Y: float64(n - 1 - r)})
			texts = append(texts, formatCoefficient(m.Values[r][c]))
		}
	}
	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: texts})
	if err != nil {
		return nil, err
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].XAlign = draw.XCenter
		labels.TextStyle[i].YAlign = draw.YCenter
	}
	p.Add(labels)

	p.NominalX(m.Columns...)
	rows := make([]string, n)
	for i, c := range m.Columns {
		rows[n-1-i] = c
	}
	p.NominalY(rows...)
	return p, nil
}

func formatCoefficient(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return fmt.Sprintf("%.2f", v)
}

// heatGrid lays the first matrix row at the top.
type heatGrid struct {
	m analysis.Matrix
}

func (g heatGrid) Dims() (c, r int) {
	n := len(g.m.Columns)
	return n, n
}

func (g heatGrid) Z(c, r int) float64 {
	n := len(g.m.Columns)
	return g.m.Values[n-1-r][c]
}

func (g heatGrid) X(c int) float64 { return float64(c) }

func (g heatGrid) Y(r int) float64 { return float64(r) }

func (g heatGrid) Min() float64 { return -1 }

func (g heatGrid) Max() float64 { return 1 }

// coolwarm samples n colors from the blue-red diverging map.
func coolwarm(n int) palette.Palette {
	if n < 2 {
		n = 2
	}
	cm := moreland.SmoothBlueRed()
	cm.SetMin(0)
	cm.SetMax(1)
	return cm.Palette(n)
}

func encodePNG(p *plot.Plot) ([]byte, error) {
	w, err := p.WriterTo(width, height, "png")
	if err != nil {
		return nil, fmt.Errorf("png writer: %w", err)
	}
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write png: %w", err)
	}
	return buf.Bytes(), nil
}

// ParseHex parses "#rrggbb".
func ParseHex(s string) (color.RGBA, error) {
	var c color.RGBA
	if len(s) != 7 || s[0] != '#' {
		return c, fmt.Errorf("invalid color %q", s)
	}
	if _, err := fmt.Sscanf(s[1:], "%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
		return c, fmt.Errorf("invalid color %q: %w", s, err)
	}
	c.A = 0xff
	return c, nil
}
