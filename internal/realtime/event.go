// Package realtime keeps live views of the complaint set in step with
// inserts and updates as they happen.
package realtime

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"complaint-service/internal/model"
)

type EventKind string

const (
	EventInsert EventKind = "INSERT"
	EventUpdate EventKind = "UPDATE"
)

// Event is one row change together with the stored record.
type Event struct {
	Kind      EventKind       `json:"type"`
	Complaint model.Complaint `json:"record"`
}

func InsertEvent(c model.Complaint) Event {
	return Event{Kind: EventInsert, Complaint: c}
}

func UpdateEvent(c model.Complaint) Event {
	return Event{Kind: EventUpdate, Complaint: c}
}

// Change is the payload of the database notify trigger. It names the row
// only; NOTIFY payloads are capped at 8000 bytes.
type Change struct {
	Kind EventKind `json:"type"`
	ID   uuid.UUID `json:"id"`
}

// DecodeChange parses a notification payload. DELETE and unknown
// operations are rejected.
func DecodeChange(payload []byte) (Change, error) {
	var ch Change
	if err := json.Unmarshal(payload, &ch); err != nil {
		return Change{}, fmt.Errorf("decode change: %w", err)
	}
	switch ch.Kind {
	case EventInsert, EventUpdate:
	default:
		return Change{}, fmt.Errorf("unsupported change event type %q", ch.Kind)
	}
	if ch.ID == uuid.Nil {
		return Change{}, errors.New("change without complaint id")
	}
	return ch, nil
}
