package storage

import (
	"fmt"
	"strings"
	"time"
)

// Package storage keeps the fingerprints of published snapshots so unchanged
// payloads are not published twice. Payloads themselves are never stored.

// Store tracks published snapshot fingerprints per target.
type Store interface {
	Close() error
	SeenSnapshot(targetID, fingerprint string) (bool, error)
	MarkSnapshot(targetID, fingerprint string) error
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	SnapshotTTL     time.Duration
	CleanupInterval time.Duration
}

const (
	defaultSnapshotTTL     = 5 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.SnapshotTTL <= 0 {
		opts.SnapshotTTL = defaultSnapshotTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

// snapshotKey scopes a fingerprint to its target; identical payloads of two
// targets are tracked independently.
func snapshotKey(targetID, fingerprint string) []byte {
	return []byte(targetID + "\x00" + fingerprint)
}

type noopStore struct{}

func (noopStore) Close() error                              { return nil }
func (noopStore) SeenSnapshot(string, string) (bool, error) { return false, nil }
func (noopStore) MarkSnapshot(string, string) error         { return nil }
