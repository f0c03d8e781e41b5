package graphql

import "github.com/argussec/argusgo/internal/models"

// Documents for the Argus incident API. Input shapes follow the backend
// schema; localId makes replays idempotent on the server side.

const CreateIncidentDocument = `mutation CreateIncident($input: CreateIncidentInput!) {
  createIncident(input: $input) {
    id
    status
    createdAt
  }
}`

const UpdateIncidentDocument = `mutation UpdateIncident($id: ID!, $input: UpdateIncidentInput!) {
  updateIncident(id: $id, input: $input) {
    id
    status
    updatedAt
  }
}`

// CreateIncidentRequest builds the replayable create mutation for inc
func CreateIncidentRequest(inc models.Incident) Request {
	input := map[string]any{
		"id":        inc.ID,
		"localId":   inc.LocalID,
		"title":     inc.Title,
		"severity":  string(inc.Severity),
		"createdAt": inc.CreatedAt,
	}
	if inc.Description != "" {
		input["description"] = inc.Description
	}
	if inc.Location != nil {
		input["location"] = map[string]any{"lat": inc.Location.Lat, "lng": inc.Location.Lng}
	}
	if len(inc.Tags) > 0 {
		input["tags"] = inc.Tags
	}
	return Request{
		Name:      "CreateIncident",
		Document:  CreateIncidentDocument,
		Variables: map[string]any{"input": input},
	}
}

// UpdateIncidentRequest builds the replayable update mutation for inc.
// The full record is sent; the backend applies last-write-wins.
func UpdateIncidentRequest(inc models.Incident) Request {
	input := map[string]any{
		"title":     inc.Title,
		"severity":  string(inc.Severity),
		"updatedAt": inc.UpdatedAt,
	}
	if inc.Description != "" {
		input["description"] = inc.Description
	}
	if inc.Location != nil {
		input["location"] = map[string]any{"lat": inc.Location.Lat, "lng": inc.Location.Lng}
	}
	if len(inc.Tags) > 0 {
		input["tags"] = inc.Tags
	}
	return Request{
		Name:      "UpdateIncident",
		Document:  UpdateIncidentDocument,
		Variables: map[string]any{"id": inc.ID, "input": input},
	}
}
