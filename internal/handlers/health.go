package handlers

import (
	"context"
	"net/http"
	"time"

	"formulaplace/internal/db"
	applog "formulaplace/internal/log"
)

type healthResponse struct {
	Status   string    `json:"status"`
	Database string    `json:"database"`
	Time     time.Time `json:"time"`
}

// Health is a simple readiness handler suitable for infrastructure probes.
// It reports 503 when the database cannot be reached.
func Health(w http.ResponseWriter, r *http.Request) {
	applog.Debug(r.Context(), "health check requested", "method", r.Method)
	resp := healthResponse{
		Status:   "ok",
		Database: "unconfigured",
		Time:     time.Now().UTC(),
	}
	status := http.StatusOK

	if database != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx, database); err != nil {
			applog.Error(r.Context(), "health check database ping failed", "error", err)
			resp.Status = "degraded"
			resp.Database = "unreachable"
			status = http.StatusServiceUnavailable
		} else {
			resp.Database = "ok"
		}
	}

	writeJSON(w, r, status, resp)
	applog.Debug(r.Context(), "health check responded", "status", resp.Status)
}
