package quota

import (
	"time"

	"github.com/google/uuid"
)

// EventAction describes what happened to an organization's quota state.
type EventAction string

const (
	EventInitialized EventAction = "initialized"
	EventReset       EventAction = "reset"
	EventDenied      EventAction = "denied"
	EventReconciled  EventAction = "reconciled"
)

// Event is an append-only record of a quota lifecycle action, kept for operator
// visibility alongside the counters themselves.
type Event struct {
	ID        uuid.UUID    `json:"id" db:"id"`
	OrgID     string       `json:"org_id" db:"org_id"`
	Action    EventAction  `json:"action" db:"action"`
	Resource  ResourceKind `json:"resource,omitempty" db:"resource"`
	Amount    int64        `json:"amount" db:"amount"`
	Used      int64        `json:"used" db:"used"`
	Limit     int64        `json:"limit" db:"lim"`
	Timestamp time.Time    `json:"timestamp" db:"timestamp"`
}

// EventFilter restricts an event listing.
type EventFilter struct {
	OrgID  string       `json:"org_id"`
	Action *EventAction `json:"action,omitempty"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}
