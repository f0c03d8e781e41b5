package models

// SyncStatus is the aggregate snapshot the UI polls and the status feed
// broadcasts. LastSyncAt is unix milliseconds, zero meaning never synced.
// FailedCount counts operations that exhausted their retries in the most
// recent pass; clearing the failure archive resets it to zero.
type SyncStatus struct {
	Online       bool     `json:"online"`
	Syncing      bool     `json:"syncing"`
	PendingCount int      `json:"pendingCount"`
	FailedCount  int      `json:"failedCount"`
	LastSyncAt   int64    `json:"lastSyncAt"`
	Errors       []string `json:"errors,omitempty"`
}

// Clone returns a copy with its own Errors slice
func (s SyncStatus) Clone() SyncStatus {
	out := s
	if s.Errors != nil {
		out.Errors = append([]string(nil), s.Errors...)
	}
	return out
}
