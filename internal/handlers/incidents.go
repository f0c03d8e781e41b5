package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/argussec/argusgo/internal/models"
	"github.com/argussec/argusgo/internal/queue"
	"github.com/gorilla/mux"
)

// listIncidents returns local incident records, optionally filtered by
// lifecycle state: GET /api/incidents?status=draft,failed
func (r *Router) listIncidents(w http.ResponseWriter, req *http.Request) {
	var statuses []models.IncidentStatus
	if raw := req.URL.Query().Get("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			st := models.IncidentStatus(strings.TrimSpace(part))
			if !st.Valid() {
				respondError(w, http.StatusBadRequest, "Unknown status filter: "+string(st))
				return
			}
			statuses = append(statuses, st)
		}
	}

	incidents := r.queue.Incidents(statuses...)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":     len(incidents),
		"incidents": incidents,
	})
}

// createIncident records an incident locally and queues its sync
func (r *Router) createIncident(w http.ResponseWriter, req *http.Request) {
	var draft queue.IncidentDraft
	if err := json.NewDecoder(req.Body).Decode(&draft); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	id, err := r.queue.CreateIncident(draft)
	if err != nil && id == "" {
		// Validation failure, nothing was stored
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	inc, lookupErr := r.queue.Incident(id)
	if lookupErr != nil {
		respondError(w, http.StatusInternalServerError, "Incident stored but not readable")
		return
	}

	response := map[string]interface{}{"incident": inc}
	if err != nil {
		// Stored locally but the sync mutation was not queued
		response["warning"] = err.Error()
	}
	respondJSON(w, http.StatusCreated, response)
}

// getIncident returns a single incident by id or local id
func (r *Router) getIncident(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["id"]

	inc, err := r.queue.Incident(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "Incident not found")
		return
	}
	respondJSON(w, http.StatusOK, inc)
}

// updateIncident merges a patch and queues the update mutation
func (r *Router) updateIncident(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["id"]

	var patch queue.IncidentPatch
	if err := json.NewDecoder(req.Body).Decode(&patch); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	err := r.queue.UpdateIncident(id, patch)
	switch {
	case errors.Is(err, queue.ErrIncidentNotFound):
		respondError(w, http.StatusNotFound, "Incident not found")
		return
	case errors.Is(err, queue.ErrQueueFull):
		// Patch applied locally, mutation dropped
	case err != nil:
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	inc, lookupErr := r.queue.Incident(id)
	if lookupErr != nil {
		respondError(w, http.StatusInternalServerError, "Incident updated but not readable")
		return
	}

	response := map[string]interface{}{"incident": inc}
	if err != nil {
		response["warning"] = err.Error()
	}
	respondJSON(w, http.StatusOK, response)
}

// requeueIncident puts a failed incident back on the sync path
func (r *Router) requeueIncident(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["id"]

	err := r.queue.RequeueIncident(id)
	switch {
	case errors.Is(err, queue.ErrIncidentNotFound):
		respondError(w, http.StatusNotFound, "Incident not found")
		return
	case errors.Is(err, queue.ErrNotFailed):
		respondError(w, http.StatusConflict, "Incident is not in a failed state")
		return
	case errors.Is(err, queue.ErrQueueFull):
		// Requeued locally, mutation dropped
	case err != nil:
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	inc, lookupErr := r.queue.Incident(id)
	if lookupErr != nil {
		respondError(w, http.StatusInternalServerError, "Incident requeued but not readable")
		return
	}

	response := map[string]interface{}{"incident": inc}
	if err != nil {
		response["warning"] = err.Error()
	}
	respondJSON(w, http.StatusOK, response)
}
