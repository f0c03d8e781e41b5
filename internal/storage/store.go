// Package storage provides the durable key/value layer the offline queue
// persists through. Backends are interchangeable: Postgres via gorm for the
// daemon, an in-memory map for tests and ephemeral runs, and an AES-GCM
// sealing wrapper for devices that require encryption at rest.
package storage

import "errors"

// Fixed keys for the queue's logical records. Each record is an independent
// JSON document: the active queue, the incident list, the terminal-failure
// archive and the aggregate sync status.
const (
	KeyQueue      = "offline_queue"
	KeyIncidents  = "offline_incidents"
	KeyFailedOps  = "offline_failed_ops"
	KeySyncStatus = "offline_sync_status"
)

// ErrNotFound is returned by Get when the key has never been written
var ErrNotFound = errors.New("storage: key not found")

// Store is the narrow surface the queue persists through. Implementations
// must be safe for concurrent use and bound their own IO; the queue calls
// these while holding its state lock.
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
}
