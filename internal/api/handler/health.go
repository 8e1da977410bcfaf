package handler

import (
	"context"
	"net/http"

	"github.com/ZertGraf/observ/internal/pkg/logger"
)

// ReadinessCheck reports whether the store and schema can serve requests.
type ReadinessCheck func(ctx context.Context) error

type StatusResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// Health reports liveness only; it never touches the store.
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy","service":"observ"}`))
}

// Ready answers 503 while check fails.
func Ready(check ReadinessCheck, logger *logger.Logger) http.HandlerFunc {
	log := logger.Component("handler/health")

	return func(w http.ResponseWriter, r *http.Request) {
		if err := check(r.Context()); err != nil {
			log.Warn("readiness check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, StatusResponse{Status: "unavailable", Service: "observ"}, log)
			return
		}

		writeJSON(w, http.StatusOK, StatusResponse{Status: "ready", Service: "observ"}, log)
	}
}
