package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/justinas/alice"
	"github.com/rs/cors"

	"github.com/syarafat/Proyek-Analisis-Data/internal/config"
	"github.com/syarafat/Proyek-Analisis-Data/internal/metrics"
)

func NewServer(cfg config.Config, mux *http.ServeMux, logger *slog.Logger, m *metrics.Metrics) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           newHandler(cfg, mux, logger, m),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func newHandler(cfg config.Config, mux http.Handler, logger *slog.Logger, m *metrics.Metrics) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	c := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
	})
	return alice.New(requestID, requestLogger(logger, m), recoverPanic(logger), c.Handler).Then(mux)
}
