// Package live pushes dataset changes to dashboard pages over websockets.
package live

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/syarafat/Proyek-Analisis-Data/internal/modules/rentals/dataset"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

const EventDatasetReloaded = "dataset_reloaded"

// Event is the message sent to every client.
type Event struct {
	Type    string `json:"type"`
	Version uint64 `json:"version"`
	Reason  string `json:"reason,omitempty"`
	Rows    int    `json:"rows"`
}

type Hub struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu    sync.RWMutex
	conns map[*websocket.Conn]*sync.Mutex
}

// NewHub accepts same-host pages and pages served from allowedOrigins.
func NewHub(logger *slog.Logger, allowedOrigins []string) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Hub{logger: logger, conns: make(map[*websocket.Conn]*sync.Mutex)}
	h.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return originAllowed(r, allowedOrigins)
		},
	}
	return h
}

func originAllowed(r *http.Request, allowed []string) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if slices.Contains(allowed, origin) {
		return true
	}
	u, err := url.Parse(origin)
	return err == nil && u.Host == r.Host
}

func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "error", err)
		return
	}

	h.mu.Lock()
	h.conns[conn] = &sync.Mutex{}
	n := len(h.conns)
	h.mu.Unlock()
	h.logger.Debug("ws client connected", "remote", r.RemoteAddr, "clients", n)

	go h.pingLoop(conn)
	go h.readLoop(conn)
}

// Clients returns the number of open connections.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *Hub) pingLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for range ticker.C {
		if !h.alive(conn) {
			return
		}
		h.safeWrite(conn, func(c *websocket.Conn) error {
			return c.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
		})
	}
}

// readLoop only handles control frames; pages never send data.
func (h *Hub) readLoop(conn *websocket.Conn) {
	defer h.closeConn(conn)

	conn.SetReadLimit(4 << 10)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) alive(conn *websocket.Conn) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.conns[conn]
	return ok
}

func (h *Hub) closeConn(conn *websocket.Conn) {
	_ = conn.Close()
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
}

func (h *Hub) safeWrite(conn *websocket.Conn, fn func(*websocket.Conn) error) {
	h.mu.RLock()
	mu := h.conns[conn]
	h.mu.RUnlock()
	if mu == nil {
		return
	}

	mu.Lock()
	defer mu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := fn(conn); err != nil {
		h.logger.Debug("ws write failed", "error", err)
		h.closeConn(conn)
	}
}

// Broadcast sends payload as JSON to every connected client.
func (h *Hub) Broadcast(payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("ws marshal failed", "error", err)
		return
	}
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		h.safeWrite(c, func(conn *websocket.Conn) error {
			return conn.WriteMessage(websocket.TextMessage, data)
		})
	}
}

// Run forwards dataset changes to clients until ctx is done or changes is closed.
func (h *Hub) Run(ctx context.Context, changes <-chan dataset.Change) {
	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-changes:
			if !ok {
				return
			}
			h.Broadcast(Event{Type: EventDatasetReloaded, Version: c.Version, Reason: c.Reason, Rows: c.Rows})
		}
	}
}

// Close drops every connection.
func (h *Hub) Close() {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.RUnlock()
	for _, c := range conns {
		h.safeWrite(c, func(conn *websocket.Conn) error {
			return conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"),
				time.Now().Add(time.Second))
		})
		h.closeConn(c)
	}
}
