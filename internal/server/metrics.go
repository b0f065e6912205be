package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/caina-barbosa/Ephor-Wind-Tunnel-sub000/internal/llm"
)

// LLMMetricsResponse is the JSON response for the metrics endpoint.
type LLMMetricsResponse struct {
	Timestamp string                 `json:"timestamp"`
	Summary   map[string]interface{} `json:"summary"`
	Backends  map[string]interface{} `json:"backends"`
}

// HandleLLMMetrics returns per-backend call metrics as JSON.
// GET /api/v1/metrics/llm
func HandleLLMMetrics(w http.ResponseWriter, r *http.Request) {
	response := LLMMetricsResponse{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Summary:   llm.GetMetricsSummary(),
		Backends:  llm.GetAllMetrics(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// HandleMetricsReset resets all backend metrics.
// POST /api/v1/metrics/llm/reset
func HandleMetricsReset(w http.ResponseWriter, r *http.Request) {
	llm.ResetAllMetrics()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"message": "All backend metrics have been reset",
	})
}

// RegisterMetricsRoutes registers all metrics-related routes on the given mux.
func RegisterMetricsRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/metrics/llm", HandleLLMMetrics)
	mux.HandleFunc("POST /api/v1/metrics/llm/reset", HandleMetricsReset)
}
