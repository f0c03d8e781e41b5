package models

// IncidentStatus tracks where a local incident record sits in its sync lifecycle
type IncidentStatus string

const (
	IncidentDraft  IncidentStatus = "draft"  // created locally, no sync attempt yet
	IncidentQueued IncidentStatus = "queued" // a sync attempt is pending or in flight
	IncidentSynced IncidentStatus = "synced" // the backend acknowledged the record
	IncidentFailed IncidentStatus = "failed" // retries exhausted or operation evicted
)

// Valid reports whether s is a known lifecycle state
func (s IncidentStatus) Valid() bool {
	switch s {
	case IncidentDraft, IncidentQueued, IncidentSynced, IncidentFailed:
		return true
	}
	return false
}

// Severity is the reporter-assigned incident severity
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Valid reports whether s is a known severity level
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// GeoPoint is the capture location attached to an incident
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Incident is a locally captured incident report. ID is the server-facing
// identifier (minted locally with an inc_ prefix so replays are idempotent);
// LocalID is the device-side handle UI shells hold before the first sync.
type Incident struct {
	ID          string         `json:"id"`
	LocalID     string         `json:"localId"`
	Status      IncidentStatus `json:"status"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Severity    Severity       `json:"severity"`
	Location    *GeoPoint      `json:"location,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	CreatedAt   int64          `json:"createdAt"`
	UpdatedAt   int64          `json:"updatedAt"`
}

// Clone returns a deep copy safe to hand outside the queue's lock
func (i *Incident) Clone() Incident {
	out := *i
	if i.Location != nil {
		loc := *i.Location
		out.Location = &loc
	}
	if i.Tags != nil {
		out.Tags = append([]string(nil), i.Tags...)
	}
	return out
}
