package httpapi

import (
	"net/http"

	"github.com/syarafat/Proyek-Analisis-Data/internal/live"
	"github.com/syarafat/Proyek-Analisis-Data/internal/metrics"
)

// NewMux registers the service routes; feature modules add theirs afterwards.
func NewMux(health Health, m *metrics.Metrics, hub *live.Hub) *http.ServeMux {
	mux := http.NewServeMux()
	registerHealthcheck(mux, health)
	if m != nil {
		mux.Handle("GET /metrics", m.Handler())
	}
	if hub != nil {
		mux.HandleFunc("GET /ws", hub.ServeWS)
	}
	return mux
}
