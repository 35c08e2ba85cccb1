package rest

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/heartmarshall/songsmith-backend/internal/service/rhyme"
)

// cacheStatser reports rhyme engine cache occupancy.
type cacheStatser interface {
	Stats() rhyme.Stats
}

// HealthHandler serves health check endpoints.
type HealthHandler struct {
	cache     cacheStatser
	version   string
	startedAt time.Time
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(cache cacheStatser, version string) *HealthHandler {
	return &HealthHandler{cache: cache, version: version, startedAt: time.Now()}
}

// HealthResponse is the JSON response for /health and /live.
type HealthResponse struct {
	Status    string       `json:"status"`
	Version   string       `json:"version,omitempty"`
	Uptime    string       `json:"uptime,omitempty"`
	Cache     *rhyme.Stats `json:"cache,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// Live is the liveness probe. Always returns 200.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
	})
}

// Health reports version, uptime and cache sizes. The process has no
// dependency it can probe without spending upstream quota, so it is always
// 200 while the server is serving.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	stats := h.cache.Stats()
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Version:   h.version,
		Uptime:    time.Since(h.startedAt).Round(time.Second).String(),
		Cache:     &stats,
		Timestamp: time.Now(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
