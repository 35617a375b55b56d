package handlers

import (
	"net/http"
	"runtime"
	"time"

	"vidserve/internal/logging"
	"vidserve/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Ready   bool   `json:"ready"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`

	// Storage info
	TotalVideos  int64  `json:"totalVideos"`
	CatalogError string `json:"catalogError,omitempty"`

	// Encode capacity
	EncodeSlotsInUse    int `json:"encodeSlotsInUse"`
	EncodeSlotsCapacity int `json:"encodeSlotsCapacity"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:              statusHealthy,
		Ready:               true,
		Version:             startup.Version,
		Uptime:              time.Since(h.startedAt).Round(time.Second).String(),
		EncodeSlotsInUse:    h.transcoder.Slots().InUse(),
		EncodeSlotsCapacity: h.transcoder.Slots().Capacity(),
		GoVersion:           runtime.Version(),
		NumCPU:              runtime.NumCPU(),
		NumGoroutine:        runtime.NumGoroutine(),
	}

	if count, err := h.catalog.Count(r.Context()); err != nil {
		logging.Warn("health check: catalog unreachable: %v", err)
		response.Status = statusDegraded
		response.CatalogError = err.Error()
	} else {
		response.TotalVideos = count
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	writeJSON(w, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSONStatus(w, "alive")
	}
}

// ReadinessCheck returns 200 only when the catalog is reachable
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := h.catalog.Ping(r.Context()); err != nil {
		logging.Warn("readiness check failed: %v", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		writeJSON(w, map[string]string{"status": "not_ready"})
		return
	}
	w.WriteHeader(http.StatusOK)
	writeJSON(w, map[string]string{"status": "ready"})
}


