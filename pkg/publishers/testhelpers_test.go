package publishers

import (
	"time"

	"github.com/LuisTellezSirocco/sirocco-api-national/internal/domain"
)

func sampleEvent() Event {
	return Event{
		ID:         "evt-1",
		TargetID:   "es-day-ahead",
		TargetName: "Spain day-ahead",
		Snapshot: domain.Snapshot{
			ID:          "evt-1",
			TargetID:    "es-day-ahead",
			Operation:   "selectedforecast",
			Run:         42,
			Payload:     map[string]any{"values": []any{1, 2}},
			Fingerprint: "abc123",
			FetchedAt:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		CollectedAt: time.Date(2024, 1, 1, 0, 0, 1, 0, time.UTC),
	}
}
