package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// LivenessHandler returns an HTTP handler for liveness probes: the
// process is up, nothing more.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}

// ReadinessHandler returns an HTTP handler that runs every registered
// check. An unhealthy rollup answers 503.
func ReadinessHandler(agg *Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		results := agg.CheckAll(ctx)
		status := OverallStatus(results)

		w.Header().Set("Content-Type", "text/plain")
		switch status {
		case StatusHealthy:
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("OK"))
		case StatusDegraded:
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("DEGRADED"))
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("UNHEALTHY"))
		}
	}
}

// RailsResponse is the JSON body of the detailed rail health endpoint.
type RailsResponse struct {
	Status    string                   `json:"status"`
	Timestamp string                   `json:"timestamp"`
	Rails     map[string]CheckResponse `json:"rails,omitempty"`
}

// CheckResponse is one rail's entry in RailsResponse.
type CheckResponse struct {
	Status  string         `json:"status"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// DetailedHandler returns an HTTP handler reporting per-rail state as
// JSON.
func DetailedHandler(agg *Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		results := agg.CheckAll(ctx)

		response := RailsResponse{
			Status:    OverallStatus(results).String(),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Rails:     make(map[string]CheckResponse, len(results)),
		}
		for name, result := range results {
			response.Rails[name] = CheckResponse{
				Status:  result.Status.String(),
				Message: result.Message,
				Details: result.Details,
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if OverallStatus(results) == StatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		_ = json.NewEncoder(w).Encode(response)
	}
}
