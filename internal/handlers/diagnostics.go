package handlers

import (
	"net/http"
	"time"

	"github.com/argussec/argusgo/internal/buildinfo"
	"github.com/argussec/argusgo/internal/utils"
)

// getDiagnostics aggregates agent state for support bundles
func (r *Router) getDiagnostics(w http.ResponseWriter, req *http.Request) {
	storeMode := "ephemeral"
	if r.db != nil {
		storeMode = "external"
		if r.db.Embedded() {
			storeMode = "embedded"
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"agent": map[string]interface{}{
			"id":            r.identity.AgentID,
			"buildTime":     buildinfo.BuildTime,
			"commitHash":    buildinfo.CommitHash,
			"startTime":     buildinfo.StartTime,
			"uptimeSeconds": int(time.Since(r.startedAt).Seconds()),
		},
		"network": map[string]interface{}{
			"state":     r.watcher.Current(),
			"probes":    r.watcher.ProbeStats(),
			"addresses": utils.LocalIPv4s(),
		},
		"queue": map[string]interface{}{
			"status": r.queue.Status(),
			"size":   r.queue.Size(),
		},
		"store": map[string]interface{}{
			"mode": storeMode,
		},
		"ai": map[string]interface{}{
			"triageEnabled": r.triage != nil,
		},
	})
}
