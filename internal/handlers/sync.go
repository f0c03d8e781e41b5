package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/argussec/argusgo/internal/models"
	"github.com/argussec/argusgo/internal/queue"
)

// getSyncStatus returns the live queue status snapshot
func (r *Router) getSyncStatus(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, r.queue.Status())
}

// getQueueSize returns the number of buffered operations
func (r *Router) getQueueSize(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]int{
		"size": r.queue.Size(),
	})
}

// listOperations returns the buffered operations in replay order
func (r *Router) listOperations(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, r.queue.Operations())
}

// listFailedOperations returns the terminal-failure archive
func (r *Router) listFailedOperations(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, r.queue.FailedOperations())
}

// enqueueOperation buffers a raw GraphQL operation
func (r *Router) enqueueOperation(w http.ResponseWriter, req *http.Request) {
	var body queue.EnqueueRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	id, err := r.queue.Enqueue(body)
	if err != nil {
		switch {
		case errors.Is(err, queue.ErrQueueFull):
			respondError(w, http.StatusConflict, "Queue full")
		case errors.Is(err, queue.ErrSubscriptionNotSupported):
			respondError(w, http.StatusBadRequest, "Subscriptions cannot be queued")
		default:
			respondError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// triggerSync runs a replay pass and returns the resulting status.
// The pass runs on the request goroutine, so the response reflects it.
func (r *Router) triggerSync(w http.ResponseWriter, req *http.Request) {
	if err := r.queue.SyncNow(req.Context()); err != nil {
		if errors.Is(err, queue.ErrOffline) {
			respondError(w, http.StatusConflict, "Agent is offline")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, r.queue.Status())
}

// clearQueue drops every buffered operation
func (r *Router) clearQueue(w http.ResponseWriter, req *http.Request) {
	if err := r.queue.Clear(); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Queue cleared"})
}

// clearFailedOperations empties the terminal-failure archive
func (r *Router) clearFailedOperations(w http.ResponseWriter, req *http.Request) {
	if err := r.queue.ClearFailed(); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Failed operations cleared"})
}

// getSyncHistory returns recent replay passes from the database
func (r *Router) getSyncHistory(w http.ResponseWriter, req *http.Request) {
	if r.db == nil {
		respondError(w, http.StatusServiceUnavailable, "History requires a persistent store")
		return
	}

	limit := 20
	if v := req.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		if n > 200 {
			n = 200
		}
		limit = n
	}

	var passes []models.SyncPass
	if err := r.db.Order("started_at DESC").Limit(limit).Find(&passes).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch sync history")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":  len(passes),
		"passes": passes,
	})
}
