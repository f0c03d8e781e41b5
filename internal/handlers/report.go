package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/argussec/argusgo/internal/report"
	"github.com/gorilla/mux"
)

// incidentReport renders an incident as a downloadable PDF
func (r *Router) incidentReport(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["id"]

	inc, err := r.queue.Incident(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "Incident not found")
		return
	}

	pdfBytes, err := report.IncidentPDF(inc, r.identity.AgentID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to generate PDF: %v", err))
		return
	}

	// Set headers for download
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"incident_%s.pdf\"", inc.ID))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdfBytes)))

	w.Write(pdfBytes)
}
