package views

import (
	"errors"
	"html/template"
	"io"
	"io/fs"

	"github.com/syarafat/Proyek-Analisis-Data/internal/modules/rentals/analysis"
)

var dashboardTmpl *template.Template

var funcs = template.FuncMap{
	// label shows absent labels as NaN, the way the dashboard always has.
	"label": func(s string) template.HTML {
		if s == "" {
			return `<span class="absent">NaN</span>`
		}
		return template.HTML(template.HTMLEscapeString(s))
	},
}

// loadTemplatesFromFS loads dashboard templates from the given fs and dir.
// Used by LoadTemplates and by tests to simulate failure scenarios.
func loadTemplatesFromFS(fsys fs.FS, dir string) error {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return err
	}
	tmpl, err := template.New("").Funcs(funcs).ParseFS(sub, "*.html", "partials/*.html")
	if err != nil {
		return err
	}
	dashboardTmpl = tmpl
	return nil
}

// LoadTemplates loads embedded dashboard templates. Call during startup before
// serving requests; if it returns an error, do not start the server.
func LoadTemplates() error {
	return loadTemplatesFromFS(viewsFS, "templates")
}

// Chart is one image on the page.
type Chart struct {
	URL string
	Alt string
}

type DashboardData struct {
	Title         string
	Intro         string
	Rows          int
	MaxDate       string
	Version       uint64
	ShowStructure bool
	Columns       []string
	// Sample holds the leading rows, one cell per entry of Columns.
	Sample [][]string

	SeasonCharts  []Chart
	WeatherCharts []Chart
	Insight       []string
	CountGroups   []analysis.CountGroupRow

	Conclusions     []string
	Recommendations []string
}

const (
	Title = "Analisis Penyewaan Sepeda"
	Intro = "Dashboard ini menampilkan analisis komprehensif pola penyewaan sepeda " +
		"berdasarkan berbagai faktor seperti musim, hari dalam seminggu, dan kondisi cuaca."
)

var Conclusions = []string{
	"Musim panas merupakan periode dengan tingkat penyewaan tertinggi.",
	"Terdapat perbedaan pola yang signifikan antara hari kerja dan akhir pekan.",
	"Cuaca memiliki dampak besar terhadap jumlah penyewaan.",
	"Ada korelasi positif antara temperatur dan jumlah penyewaan.",
	"Analisis RFM memberikan wawasan penting tentang perilaku pelanggan.",
	"Pengelompokan manual membantu memahami pola data berdasarkan jumlah penyewaan.",
}

var Recommendations = []string{
	"Optimalkan ketersediaan sepeda pada musim panas.",
	"Terapkan strategi harga berbeda untuk hari kerja dan akhir pekan.",
	"Siapkan rencana kontingensi untuk kondisi cuaca buruk.",
	"Pertimbangkan penambahan sepeda pada musim ramai.",
}

func RenderDashboard(w io.Writer, data *DashboardData) error {
	if dashboardTmpl == nil {
		return errors.New("dashboard template not loaded: call views.LoadTemplates during startup")
	}
	return dashboardTmpl.ExecuteTemplate(w, "dashboard.html", data)
}
