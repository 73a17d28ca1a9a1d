package port

import (
	"context"
	"time"
)

// NotificationEvent carries what an outbound notification needs to say about
// an executed transition
type NotificationEvent struct {
	CaseID     string    `json:"case_id"`
	CaseNumber string    `json:"case_number"`
	Variant    string    `json:"variant"`
	Recipient  string    `json:"recipient"`
	FromState  string    `json:"from_state"`
	ToState    string    `json:"to_state"`
	Trigger    string    `json:"trigger"`
	Authority  string    `json:"authority"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Notifier delivers best-effort notifications. Failures are logged by the
// caller and never surface as workflow errors.
type Notifier interface {
	Notify(ctx context.Context, event *NotificationEvent) error
}
