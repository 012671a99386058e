package server

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

// Handlers carries the read-only views the endpoints report on.
type Handlers struct {
	StartTime   time.Time
	CatalogSize int
	// Active counts lobbies currently waiting for a second player.
	Active *atomic.Int64
	// GatewayReady reports whether the Discord session is established.
	GatewayReady func() bool
}

// HandleHealthz responds to liveness probes. The bot is healthy once the
// language catalog was loaded and the gateway session is up.
func (h *Handlers) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	if h.CatalogSize == 0 || (h.GatewayReady != nil && !h.GatewayReady()) {
		http.Error(w, "unhealthy", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// HandleStatus reports runtime stats as JSON.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	var active int64
	if h.Active != nil {
		active = h.Active.Load()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"uptime_seconds":  int64(time.Since(h.StartTime).Seconds()),
		"catalog_size":    h.CatalogSize,
		"awaiting_player": active,
	})
}
