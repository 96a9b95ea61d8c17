// Package activity records the append-only audit trail attached to orders.
package activity

import (
	"encoding/json"
	"time"
)

// Action tags an entry. The set below is what this service emits; callers may
// store any other non-empty tag.
type Action string

const (
	ActionNoteAdded            Action = "note_added"
	ActionPaymentStatusChanged Action = "payment_status_changed"
	ActionShippingUpdated      Action = "shipping_updated"
	ActionStatusChanged        Action = "status_changed"
)

// Known reports whether a is one of the tags emitted by this service.
func (a Action) Known() bool {
	switch a {
	case ActionNoteAdded, ActionPaymentStatusChanged, ActionShippingUpdated, ActionStatusChanged:
		return true
	}
	return false
}

// Entry is one immutable audit record. OldValue and NewValue are opaque JSON
// whose shape depends on Action.
type Entry struct {
	ID        string          `json:"id"`
	OrderID   string          `json:"order_id"`
	Action    Action          `json:"action"`
	OldValue  json.RawMessage `json:"old_value,omitempty" swaggertype:"object"`
	NewValue  json.RawMessage `json:"new_value,omitempty" swaggertype:"object"`
	AdminID   string          `json:"admin_id,omitempty"`
	AdminName string          `json:"admin_name,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Filter selects entries of one order, optionally by action. Limit <= 0 means no limit.
type Filter struct {
	OrderID string
	Action  Action
	Limit   int
}

// Value marshals v into an entry payload. Values that cannot be marshalled
// produce a nil payload.
func Value(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}
