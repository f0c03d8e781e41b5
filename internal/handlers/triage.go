package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// triageIncident asks the AI helper for a structured assessment of an
// incident. The verdict is advisory; shells apply severity changes
// through the normal update path.
func (r *Router) triageIncident(w http.ResponseWriter, req *http.Request) {
	if r.triage == nil {
		respondError(w, http.StatusServiceUnavailable, "Triage helper not configured")
		return
	}

	id := mux.Vars(req)["id"]
	inc, err := r.queue.Incident(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "Incident not found")
		return
	}

	ctx, cancel := context.WithTimeout(req.Context(), 30*time.Second)
	defer cancel()

	assessment, err := r.triage.Assess(ctx, inc)
	if err != nil {
		respondError(w, http.StatusBadGateway, "Triage failed: "+err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"incidentId": inc.ID,
		"assessment": assessment,
	})
}
