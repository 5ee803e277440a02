package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/syarafat/Proyek-Analisis-Data/internal/utils"
)

const pingTimeout = 2 * time.Second

// DatasetState is implemented by *dataset.Handle.
type DatasetState interface {
	Loaded() bool
	Version() uint64
}

type Pinger interface {
	PingContext(ctx context.Context) error
}

type ConnectionState interface {
	IsConnected() bool
}

// Health lists what /healthz checks. DB and MQTT are optional; leave them nil when
// the service runs without them.
type Health struct {
	Dataset DatasetState
	DB      Pinger
	MQTT    ConnectionState
}

type healthResponse struct {
	Status         string `json:"status"`
	DatasetVersion uint64 `json:"dataset_version"`
	Database       string `json:"database"`
	MQTT           string `json:"mqtt"`
}

type healthchecker interface {
	handleHealthz(w http.ResponseWriter, r *http.Request)
}

type healthcheckerImpl struct {
	health Health
}

func NewHealthchecker(health Health) healthchecker {
	return &healthcheckerImpl{health: health}
}

func (h *healthcheckerImpl) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if h.health.Dataset == nil || !h.health.Dataset.Loaded() {
		utils.WriteError(w, http.StatusServiceUnavailable, "dataset not loaded")
		return
	}
	resp := healthResponse{
		Status:         "ok",
		DatasetVersion: h.health.Dataset.Version(),
		Database:       "disabled",
		MQTT:           "disabled",
	}

	if h.health.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		defer cancel()
		if err := h.health.DB.PingContext(ctx); err != nil {
			slog.Error("failed to check database connectivity", "error", err)
			utils.WriteError(w, http.StatusServiceUnavailable, "failed to check database connectivity")
			return
		}
		resp.Database = "ok"
	}

	// MQTT only triggers reloads, so a lost broker degrades but does not fail the check.
	if h.health.MQTT != nil {
		resp.MQTT = "disconnected"
		if h.health.MQTT.IsConnected() {
			resp.MQTT = "connected"
		}
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}

func registerHealthcheck(mux *http.ServeMux, health Health) {
	healthchecker := NewHealthchecker(health)
	mux.HandleFunc("GET /healthz", healthchecker.handleHealthz)
}
