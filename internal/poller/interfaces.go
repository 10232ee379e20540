package poller

import (
	"context"

	"github.com/LuisTellezSirocco/sirocco-api-national/pkg/publishers"
)

// EventPublisher publishes snapshot events downstream and reports how many
// sinks accepted the event.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// Deduper remembers which snapshot fingerprints were already published.
type Deduper interface {
	SeenSnapshot(targetID, fingerprint string) (bool, error)
	MarkSnapshot(targetID, fingerprint string) error
}

// Logger is the logging surface the poller relies on.
type Logger interface {
	InfoObj(msg, key string, obj interface{})
	DebugObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
	ErrorObj(msg, key string, obj interface{})
}

type noopLogger struct{}

func (noopLogger) InfoObj(string, string, interface{})  {}
func (noopLogger) DebugObj(string, string, interface{}) {}
func (noopLogger) WarnObj(string, string, interface{})  {}
func (noopLogger) ErrorObj(string, string, interface{}) {}
