package report

import (
	"bytes"
	"testing"

	"github.com/argussec/argusgo/internal/models"
)

func TestIncidentPDF(t *testing.T) {
	inc := models.Incident{
		ID:          "inc_5f2b1c9a",
		Status:      models.IncidentSynced,
		Title:       "Unsecured side entrance found during patrol",
		Description: "Door to loading dock B was propped open with a wooden wedge.\nNo signs of entry, wedge removed and door secured.",
		Severity:    models.SeverityMedium,
		Location:    &models.GeoPoint{Lat: 48.13743, Lng: 11.57549},
		Tags:        []string{"patrol", "access-control"},
		CreatedAt:   1724500000000,
		UpdatedAt:   1724503600000,
	}

	pdfBytes, err := IncidentPDF(inc, "agent-7f3e")
	if err != nil {
		t.Fatalf("IncidentPDF failed: %v", err)
	}
	if len(pdfBytes) == 0 {
		t.Fatal("IncidentPDF returned empty document")
	}
	if !bytes.HasPrefix(pdfBytes, []byte("%PDF")) {
		t.Errorf("output does not start with %%PDF header: %q", pdfBytes[:8])
	}
}

func TestIncidentPDFMinimalRecord(t *testing.T) {
	inc := models.Incident{
		ID:        "inc_min",
		Status:    models.IncidentDraft,
		Title:     "Test entry",
		Severity:  models.SeverityLow,
		CreatedAt: 1724500000000,
		UpdatedAt: 1724500000000,
	}

	pdfBytes, err := IncidentPDF(inc, "agent-7f3e")
	if err != nil {
		t.Fatalf("IncidentPDF failed on minimal record: %v", err)
	}
	if !bytes.HasPrefix(pdfBytes, []byte("%PDF")) {
		t.Error("output does not start with %PDF header")
	}
}
