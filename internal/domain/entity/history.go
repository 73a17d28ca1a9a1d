package entity

import "time"

// TransitionHistoryEntry is an append-only audit fact recording a single
// executed transition. Entries for a case are strictly ordered by timestamp;
// replaying them in order reconstructs the case's current state.
type TransitionHistoryEntry struct {
	ID        int64     `json:"id"`
	CaseID    string    `json:"case_id"`
	FromState string    `json:"from_state"`
	ToState   string    `json:"to_state"`
	Trigger   string    `json:"trigger"`
	Authority string    `json:"authority"`
	Notes     string    `json:"notes,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
