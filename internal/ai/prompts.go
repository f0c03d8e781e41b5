package ai

import (
	"fmt"
	"strings"

	"github.com/argussec/argusgo/internal/models"
)

const TriageSystemPrompt = `
You are the triage assistant of an Argus field agent. A security operative
has captured an incident report on site. Assess it.

### SEVERITY SCALE
- low: routine observation, no response needed beyond logging
- medium: needs follow-up during normal operations
- high: needs a response this shift
- critical: immediate threat to people, assets or site integrity

### OUTPUT FORMAT
Return ONLY a JSON object with this structure, no prose around it:
{
  "severity": "low" | "medium" | "high" | "critical",
  "rationale": "One or two sentences explaining the rating",
  "tags": ["short", "lowercase", "labels"],
  "playbook": ["First concrete step for the operative", "Second step"],
  "confidence": 0.0 to 1.0
}

### RULES
- Rate only from the report text. Do not invent facts.
- If the report is too vague to rate, use severity "medium" and a low confidence.
- Keep the playbook to at most four steps.
`

// buildTriagePrompt renders the incident into the triage prompt
func buildTriagePrompt(inc models.Incident) string {
	var b strings.Builder
	b.WriteString(TriageSystemPrompt)
	b.WriteString("\n### INCIDENT REPORT\n")
	fmt.Fprintf(&b, "Title: %s\n", inc.Title)
	if inc.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", inc.Description)
	}
	fmt.Fprintf(&b, "Reporter-assigned severity: %s\n", inc.Severity)
	if inc.Location != nil {
		fmt.Fprintf(&b, "Location: %.5f, %.5f\n", inc.Location.Lat, inc.Location.Lng)
	}
	if len(inc.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(inc.Tags, ", "))
	}
	return b.String()
}
