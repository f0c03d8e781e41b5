package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/argussec/argusgo/internal/ai"
	"github.com/argussec/argusgo/internal/config"
	"github.com/argussec/argusgo/internal/database"
	"github.com/argussec/argusgo/internal/middleware"
	"github.com/argussec/argusgo/internal/netwatch"
	"github.com/argussec/argusgo/internal/queue"
	"github.com/argussec/argusgo/internal/utils"
	"github.com/argussec/argusgo/internal/websocket"
	"github.com/gorilla/mux"
)

// Router wraps the mux router and the agent services it exposes
type Router struct {
	*mux.Router
	cfg       *config.Config
	db        *database.DB // nil when running with an ephemeral store
	queue     *queue.Service
	hub       *websocket.Hub
	watcher   *netwatch.Monitor
	identity  *utils.AgentIdentity
	triage    *ai.Triage // nil when no Gemini key is configured
	startedAt time.Time
}

// Deps carries everything the HTTP surface needs. Optional services may
// be nil; the affected endpoints answer 503 instead of panicking.
type Deps struct {
	Config   *config.Config
	DB       *database.DB
	Queue    *queue.Service
	Hub      *websocket.Hub
	Watcher  *netwatch.Monitor
	Identity *utils.AgentIdentity
	Triage   *ai.Triage
}

// NewRouter creates a new HTTP router with all routes
func NewRouter(d Deps) *Router {
	r := &Router{
		Router:    mux.NewRouter(),
		cfg:       d.Config,
		db:        d.DB,
		queue:     d.Queue,
		hub:       d.Hub,
		watcher:   d.Watcher,
		identity:  d.Identity,
		triage:    d.Triage,
		startedAt: time.Now(),
	}

	// Public endpoints. The QR and pairing routes must work before a
	// shell holds any token.
	r.HandleFunc("/health", r.healthCheck).Methods("GET")
	r.HandleFunc("/pair/qr", r.generatePairingQR).Methods("GET")
	r.HandleFunc("/pair/info", r.getPairingInfo).Methods("GET")
	r.HandleFunc("/ws", r.serveFeed).Methods("GET")

	auth := r.PathPrefix("/api/auth").Subrouter()
	auth.HandleFunc("/pair", r.pairShell).Methods("POST")
	auth.HandleFunc("/refresh", r.refreshToken).Methods("POST")

	// Everything else under /api requires a shell token
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.Auth(d.Config.JWTSecret))

	// Queue routes
	api.HandleFunc("/queue/status", r.getSyncStatus).Methods("GET")
	api.HandleFunc("/queue/size", r.getQueueSize).Methods("GET")
	api.HandleFunc("/queue/operations", r.listOperations).Methods("GET")
	api.HandleFunc("/queue/failed", r.listFailedOperations).Methods("GET")
	api.HandleFunc("/queue/failed", r.clearFailedOperations).Methods("DELETE")
	api.HandleFunc("/queue/sync", r.triggerSync).Methods("POST")
	api.HandleFunc("/queue", r.enqueueOperation).Methods("POST")
	api.HandleFunc("/queue", r.clearQueue).Methods("DELETE")
	api.HandleFunc("/sync/history", r.getSyncHistory).Methods("GET")

	// Incident routes
	api.HandleFunc("/incidents", r.listIncidents).Methods("GET")
	api.HandleFunc("/incidents", r.createIncident).Methods("POST")
	api.HandleFunc("/incidents/{id}", r.getIncident).Methods("GET")
	api.HandleFunc("/incidents/{id}", r.updateIncident).Methods("PUT")
	api.HandleFunc("/incidents/{id}/requeue", r.requeueIncident).Methods("POST")
	api.HandleFunc("/incidents/{id}/report.pdf", r.incidentReport).Methods("GET")
	api.HandleFunc("/incidents/{id}/triage", r.triageIncident).Methods("POST")

	api.HandleFunc("/diagnostics", r.getDiagnostics).Methods("GET")

	return r
}

// Handler returns the router wrapped for serving. Paths are matched
// case-insensitively so QR-packed uppercase URLs resolve.
func (r *Router) Handler() http.Handler {
	return middleware.CaseInsensitive(r.Router)
}

// healthCheck returns the health status of the agent
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"agent":  r.identity.AgentID,
	})
}

// serveFeed upgrades an authenticated shell connection to the status feed.
// Browsers cannot set headers on WebSocket dials, so the token rides in
// the query string.
func (r *Router) serveFeed(w http.ResponseWriter, req *http.Request) {
	token := req.URL.Query().Get("token")
	if token == "" {
		respondError(w, http.StatusUnauthorized, "Missing token")
		return
	}
	claims, err := utils.ValidateToken(token, r.cfg.JWTSecret)
	if err != nil || utils.IsRefreshToken(claims) {
		respondError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}
	websocket.ServeWs(r.hub, w, req)
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
