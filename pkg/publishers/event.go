package publishers

import (
	"time"

	"github.com/google/uuid"

	"github.com/LuisTellezSirocco/sirocco-api-national/internal/domain"
)

// Event represents the payload published downstream.
type Event struct {
	ID          string          `json:"id"`
	TargetID    string          `json:"target_id"`
	TargetName  string          `json:"target_name"`
	Snapshot    domain.Snapshot `json:"snapshot"`
	CollectedAt time.Time       `json:"collected_at"`
}

// NewEvent constructs an Event for the given target snapshot.
func NewEvent(targetName string, snap domain.Snapshot) Event {
	id := snap.ID
	if id == "" {
		id = uuid.NewString()
	}
	return Event{
		ID:          id,
		TargetID:    snap.TargetID,
		TargetName:  targetName,
		Snapshot:    snap,
		CollectedAt: time.Now().UTC(),
	}
}

// attributes are attached as message metadata by queue/topic sinks.
func (e Event) attributes() map[string]string {
	return map[string]string{
		"event_id":    e.ID,
		"target_id":   e.TargetID,
		"operation":   e.Snapshot.Operation,
		"fingerprint": e.Snapshot.Fingerprint,
	}
}
