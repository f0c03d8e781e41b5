package models

import (
	"gorm.io/datatypes"
)

// OperationKind classifies a buffered GraphQL call
type OperationKind string

const (
	KindMutation OperationKind = "mutation"
	KindQuery    OperationKind = "query"
	// KindSubscription is recognized on the wire but cannot be replayed;
	// the queue rejects it at enqueue time.
	KindSubscription OperationKind = "subscription"
)

// Replayable reports whether the kind can be executed by a sync pass
func (k OperationKind) Replayable() bool {
	return k == KindMutation || k == KindQuery
}

// Priority controls queue ordering and retry budget defaults
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityNormal   Priority = "normal"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

var priorityRank = map[Priority]int{
	PriorityLow:      0,
	PriorityNormal:   1,
	PriorityHigh:     2,
	PriorityCritical: 3,
}

// Rank returns the numeric bucket order. Higher executes first.
func (p Priority) Rank() int {
	return priorityRank[p]
}

// Valid reports whether p is a known priority level
func (p Priority) Valid() bool {
	_, ok := priorityRank[p]
	return ok
}

// OperationMeta carries queue bookkeeping that is not part of the GraphQL payload
type OperationMeta struct {
	IncidentID string `json:"incidentId,omitempty"` // links the op to a local incident record
	Notify     bool   `json:"notify,omitempty"`     // emit a notification on success
	LastError  string `json:"lastError,omitempty"`  // message from the most recent failed attempt
}

// Operation is one buffered GraphQL call awaiting replay against the backend.
// Timestamps are unix milliseconds so persisted records match the wire format
// the UI shells already speak.
type Operation struct {
	ID          string         `json:"id"`
	Kind        OperationKind  `json:"kind"`
	Name        string         `json:"name"`
	Document    string         `json:"document"`
	Variables   datatypes.JSON `json:"variables,omitempty"`
	Priority    Priority       `json:"priority"`
	EnqueuedAt  int64          `json:"enqueuedAt"`
	Attempts    int            `json:"attempts"`
	MaxAttempts int            `json:"maxAttempts"`
	Meta        OperationMeta  `json:"meta"`
}

// Before reports whether o sorts ahead of other in the queue:
// higher priority first, FIFO by enqueue time within a priority.
func (o *Operation) Before(other *Operation) bool {
	if o.Priority.Rank() != other.Priority.Rank() {
		return o.Priority.Rank() > other.Priority.Rank()
	}
	return o.EnqueuedAt < other.EnqueuedAt
}
