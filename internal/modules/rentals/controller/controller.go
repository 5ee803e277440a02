package controller

import (
	"log/slog"
	"net/http"

	"golang.org/x/text/language"

	"github.com/syarafat/Proyek-Analisis-Data/internal/modules/rentals/dataset"
)

type RentalsController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type rentalsControllerImpl struct {
	handle *dataset.Handle
	logger *slog.Logger
	locale language.Tag
}

func NewRentalsController(handle *dataset.Handle, logger *slog.Logger) RentalsController {
	if logger == nil {
		logger = slog.Default()
	}
	return &rentalsControllerImpl{handle: handle, logger: logger, locale: language.Indonesian}
}

func (c *rentalsControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /", c.handleDashboard)
	mux.HandleFunc("GET /charts/{name}", c.handleChart)
	mux.HandleFunc("GET /api/v1/rentals", c.handleRecords)
	mux.HandleFunc("GET /api/v1/rentals/summary", c.handleSummary)
	mux.HandleFunc("GET /api/v1/rentals/export.xlsx", c.handleExport)
	mux.HandleFunc("POST /api/v1/dataset/reload", c.handleReload)
}
