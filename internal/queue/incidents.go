package queue

import (
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/google/uuid"

	"github.com/argussec/argusgo/internal/graphql"
	"github.com/argussec/argusgo/internal/models"
)

// IncidentDraft carries the caller-supplied fields for a new incident
type IncidentDraft struct {
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	Severity    models.Severity  `json:"severity,omitempty"`
	Location    *models.GeoPoint `json:"location,omitempty"`
	Tags        []string         `json:"tags,omitempty"`
}

// IncidentPatch updates selected incident fields. Nil pointers leave a
// field untouched; a non-nil Tags slice replaces the whole list.
type IncidentPatch struct {
	Title       *string          `json:"title,omitempty"`
	Description *string          `json:"description,omitempty"`
	Severity    *models.Severity `json:"severity,omitempty"`
	Location    *models.GeoPoint `json:"location,omitempty"`
	Tags        []string         `json:"tags,omitempty"`
}

// CreateIncident stores the incident locally and queues its create
// mutation. The local record survives even when the enqueue is rejected,
// so the returned id is always usable.
func (s *Service) CreateIncident(draft IncidentDraft) (string, error) {
	if draft.Title == "" {
		return "", errors.New("queue: incident title is required")
	}
	sev := draft.Severity
	if sev == "" {
		sev = models.SeverityMedium
	}
	if !sev.Valid() {
		return "", fmt.Errorf("queue: unknown severity %q", sev)
	}

	now := s.clk.Now().UnixMilli()
	inc := &models.Incident{
		ID:          "inc_" + uuid.NewString(),
		LocalID:     uuid.NewString(),
		Status:      models.IncidentDraft,
		Title:       draft.Title,
		Description: draft.Description,
		Severity:    sev,
		Location:    draft.Location,
		Tags:        draft.Tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	s.mu.Lock()
	s.incidents = append(s.incidents, inc)
	s.persistIncidentsLocked()
	snapshot := inc.Clone()
	s.mu.Unlock()

	prio := models.PriorityHigh
	if sev == models.SeverityCritical {
		prio = models.PriorityCritical
	}
	req := graphql.CreateIncidentRequest(snapshot)
	if _, err := s.Enqueue(EnqueueRequest{
		Kind:       models.KindMutation,
		Name:       req.Name,
		Document:   req.Document,
		Variables:  req.Variables,
		Priority:   prio,
		IncidentID: inc.ID,
		Notify:     true,
	}); err != nil {
		log.Printf("⚠️ Incident %s saved locally but not queued: %v", inc.ID, err)
		return inc.ID, fmt.Errorf("incident saved locally, sync not queued: %w", err)
	}

	log.Printf("📦 Incident %s queued (%s)", inc.ID, sev)
	return inc.ID, nil
}

// UpdateIncident merges patch into the incident, puts it back in queued
// state and buffers an update mutation carrying the merged record
func (s *Service) UpdateIncident(id string, patch IncidentPatch) error {
	s.mu.Lock()
	inc := s.findIncidentLocked(id)
	if inc == nil {
		s.mu.Unlock()
		return ErrIncidentNotFound
	}
	if patch.Severity != nil && !patch.Severity.Valid() {
		s.mu.Unlock()
		return fmt.Errorf("queue: unknown severity %q", *patch.Severity)
	}
	if patch.Title != nil {
		inc.Title = *patch.Title
	}
	if patch.Description != nil {
		inc.Description = *patch.Description
	}
	if patch.Severity != nil {
		inc.Severity = *patch.Severity
	}
	if patch.Location != nil {
		loc := *patch.Location
		inc.Location = &loc
	}
	if patch.Tags != nil {
		inc.Tags = append([]string(nil), patch.Tags...)
	}
	inc.UpdatedAt = s.clk.Now().UnixMilli()
	inc.Status = models.IncidentQueued
	s.persistIncidentsLocked()
	snapshot := inc.Clone()
	s.mu.Unlock()

	prio := models.PriorityNormal
	if snapshot.Severity == models.SeverityCritical {
		prio = models.PriorityHigh
	}
	req := graphql.UpdateIncidentRequest(snapshot)
	_, err := s.Enqueue(EnqueueRequest{
		Kind:       models.KindMutation,
		Name:       req.Name,
		Document:   req.Document,
		Variables:  req.Variables,
		Priority:   prio,
		IncidentID: snapshot.ID,
		Notify:     true,
	})
	return err
}

// RequeueIncident puts a failed incident back on the sync path. Failed
// records never resurrect on their own; this is the explicit lever.
func (s *Service) RequeueIncident(id string) error {
	s.mu.Lock()
	inc := s.findIncidentLocked(id)
	if inc == nil {
		s.mu.Unlock()
		return ErrIncidentNotFound
	}
	if inc.Status != models.IncidentFailed {
		s.mu.Unlock()
		return ErrNotFailed
	}
	s.mu.Unlock()
	return s.UpdateIncident(id, IncidentPatch{})
}

// Incidents returns incident snapshots, newest first. With statuses given,
// only matching records return.
func (s *Service) Incidents(statuses ...models.IncidentStatus) []models.Incident {
	s.mu.Lock()
	out := make([]models.Incident, 0, len(s.incidents))
	for _, inc := range s.incidents {
		if len(statuses) > 0 && !containsStatus(statuses, inc.Status) {
			continue
		}
		out = append(out, inc.Clone())
	}
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out
}

// Incident returns a single incident snapshot by id or local id
func (s *Service) Incident(id string) (models.Incident, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inc := s.findIncidentLocked(id)
	if inc == nil {
		return models.Incident{}, ErrIncidentNotFound
	}
	return inc.Clone(), nil
}

func containsStatus(list []models.IncidentStatus, st models.IncidentStatus) bool {
	for _, cand := range list {
		if cand == st {
			return true
		}
	}
	return false
}

func (s *Service) findIncidentLocked(id string) *models.Incident {
	for _, inc := range s.incidents {
		if inc.ID == id || inc.LocalID == id {
			return inc
		}
	}
	return nil
}

func (s *Service) markIncidentLocked(id string, st models.IncidentStatus) bool {
	inc := s.findIncidentLocked(id)
	if inc == nil || inc.Status == st {
		return false
	}
	inc.Status = st
	inc.UpdatedAt = s.clk.Now().UnixMilli()
	return true
}
