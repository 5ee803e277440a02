package controller

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/syarafat/Proyek-Analisis-Data/internal/modules/rentals/analysis"
	"github.com/syarafat/Proyek-Analisis-Data/internal/modules/rentals/charts"
	"github.com/syarafat/Proyek-Analisis-Data/internal/modules/rentals/dataset"
	"github.com/syarafat/Proyek-Analisis-Data/internal/modules/rentals/export"
	"github.com/syarafat/Proyek-Analisis-Data/internal/modules/rentals/views"
	"github.com/syarafat/Proyek-Analisis-Data/internal/utils"
)

const (
	sampleRows    = 5
	defaultLimit  = 50
	maxLimit      = 500
	xlsxMediaType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var (
	seasonCharts  = []string{charts.Season, charts.Workingday, charts.Weathersit}
	weatherCharts = []string{charts.Temperature, charts.WeatherBox, charts.RFM}
)

func (c *rentalsControllerImpl) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	t, err := c.handle.Get(r.Context())
	if err != nil {
		c.logger.Error("dashboard: load dataset failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	summary, err := analysis.Summarize(t, sampleRows)
	if err != nil && !errors.Is(err, analysis.ErrEmptyTable) {
		c.logger.Error("dashboard: summarize failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	version := c.handle.Version()

	data := &views.DashboardData{
		Title:           views.Title,
		Intro:           views.Intro,
		Rows:            t.Len(),
		MaxDate:         formatDate(t.MaxDate),
		Version:         version,
		ShowStructure:   utils.QueryBool(r, "show_structure"),
		Columns:         t.Columns,
		Sample:          t.HeadRows(sampleRows),
		SeasonCharts:    chartLinks(seasonCharts, version),
		WeatherCharts:   chartLinks(weatherCharts, version),
		CountGroups:     analysis.CountGroupHead(t, sampleRows),
		Conclusions:     views.Conclusions,
		Recommendations: views.Recommendations,
	}
	if summary.Insight != nil {
		data.Insight = summary.Insight.Lines(c.locale)
	}

	var buf bytes.Buffer
	if err := views.RenderDashboard(&buf, data); err != nil {
		c.logger.Error("dashboard template render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render page")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(buf.Bytes()); err != nil {
		c.logger.Error("dashboard: write response failed", "error", err)
	}
}

func (c *rentalsControllerImpl) handleChart(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSuffix(r.PathValue("name"), ".png")
	if !slices.Contains(charts.Names, name) {
		utils.WriteError(w, http.StatusNotFound, fmt.Sprintf("unknown chart %q", name))
		return
	}
	t, err := c.handle.Get(r.Context())
	if err != nil {
		c.logger.Error("chart: load dataset failed", "chart", name, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	png, err := charts.Render(name, t)
	if err != nil {
		c.logger.Error("chart render failed", "chart", name, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	if _, err := w.Write(png); err != nil {
		c.logger.Error("chart: write response failed", "chart", name, "error", err)
	}
}

func (c *rentalsControllerImpl) handleRecords(w http.ResponseWriter, r *http.Request) {
	limit, err := utils.QueryInt(r, "limit", defaultLimit, maxLimit)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	offset, err := utils.QueryInt(r, "offset", 0, 0)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	t, err := c.handle.Get(r.Context())
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusOK, newRecordsPage(t, c.handle.Version(), limit, offset))
}

func (c *rentalsControllerImpl) handleSummary(w http.ResponseWriter, r *http.Request) {
	t, err := c.handle.Get(r.Context())
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	summary, err := analysis.Summarize(t, sampleRows)
	if errors.Is(err, analysis.ErrEmptyTable) {
		utils.WriteError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err != nil {
		c.logger.Error("summary failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusOK, newSummaryResponse(summary, c.handle.Version(), c.locale))
}

func (c *rentalsControllerImpl) handleExport(w http.ResponseWriter, r *http.Request) {
	t, err := c.handle.Get(r.Context())
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, t); err != nil {
		c.logger.Error("export failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to build workbook")
		return
	}
	w.Header().Set("Content-Type", xlsxMediaType)
	w.Header().Set("Content-Disposition", `attachment; filename="day.xlsx"`)
	if _, err := w.Write(buf.Bytes()); err != nil {
		c.logger.Error("export: write response failed", "error", err)
	}
}

func (c *rentalsControllerImpl) handleReload(w http.ResponseWriter, r *http.Request) {
	t, err := c.handle.Reload(r.Context(), "api")
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, dataset.ErrParse) {
			status = http.StatusUnprocessableEntity
		}
		utils.WriteError(w, status, err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusOK, reloadResponse{
		Version:     c.handle.Version(),
		Rows:        t.Len(),
		Fingerprint: t.Fingerprint,
	})
}
