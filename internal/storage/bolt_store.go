package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Each entry in the snapshots bucket maps target id + fingerprint to the
// unix second at which the fingerprint stops suppressing republication.
const (
	snapshotBucket   = "snapshots"
	expiryValueBytes = 8
)

var errBucketMissing = errors.New("snapshot bucket missing")

// boltStore keeps published snapshot fingerprints in a single bbolt file.
type boltStore struct {
	db              *bolt.DB
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	snapshotTTL     time.Duration
	cleanupInterval time.Duration
	now             func() time.Time
}

// openBolt opens (or creates) the fingerprint database at path.
func openBolt(path string, opts Options) (Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(snapshotBucket))
		return err
	}); err != nil {
		return nil, errors.Join(fmt.Errorf("create snapshot bucket: %w", err), db.Close())
	}

	store := &boltStore{
		db:              db,
		snapshotTTL:     opts.SnapshotTTL,
		cleanupInterval: opts.CleanupInterval,
		now:             time.Now,
	}
	store.lastCleanup.Store(store.now().Unix())
	return store, nil
}

// Close releases the database file lock.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// SeenSnapshot reports whether the fingerprint was published for the target
// within the retention window. An expired entry is dropped on the way.
func (b *boltStore) SeenSnapshot(targetID, fingerprint string) (bool, error) {
	if b == nil || b.db == nil {
		return false, nil
	}

	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return false, err
	}

	key := snapshotKey(targetID, fingerprint)
	var live, stale bool
	if err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(snapshotBucket))
		if bucket == nil {
			return errBucketMissing
		}
		value := bucket.Get(key)
		if value == nil {
			return nil
		}
		live = isLive(value, now)
		stale = !live
		return nil
	}); err != nil {
		return false, fmt.Errorf("lookup snapshot %s: %w", targetID, err)
	}

	if stale {
		if err := b.update(func(bucket *bolt.Bucket) error { return bucket.Delete(key) }); err != nil {
			return false, fmt.Errorf("drop expired snapshot %s: %w", targetID, err)
		}
	}
	return live, nil
}

// MarkSnapshot records the fingerprint as published for the target until the
// snapshot TTL elapses.
func (b *boltStore) MarkSnapshot(targetID, fingerprint string) error {
	if b == nil || b.db == nil {
		return nil
	}

	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return err
	}

	expiry := encodeExpiry(now.Add(b.snapshotTTL))
	if err := b.update(func(bucket *bolt.Bucket) error {
		return bucket.Put(snapshotKey(targetID, fingerprint), expiry)
	}); err != nil {
		return fmt.Errorf("mark snapshot %s: %w", targetID, err)
	}
	return nil
}

// maybeCleanupExpired sweeps expired fingerprints at most once per cleanup
// interval.
func (b *boltStore) maybeCleanupExpired(now time.Time) error {
	if b == nil || b.db == nil || !b.cleanupDue(now) {
		return nil
	}

	b.cleanupMu.Lock()
	defer b.cleanupMu.Unlock()
	if !b.cleanupDue(now) {
		return nil
	}

	err := b.update(func(bucket *bolt.Bucket) error {
		// collect first: deleting through the cursor skips the following key
		var expired [][]byte
		if err := bucket.ForEach(func(k, v []byte) error {
			if !isLive(v, now) {
				expired = append(expired, append([]byte(nil), k...))
			}
			return nil
		}); err != nil {
			return err
		}
		for _, k := range expired {
			if err := bucket.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("sweep expired snapshots: %w", err)
	}
	b.lastCleanup.Store(now.Unix())
	return nil
}

func (b *boltStore) cleanupDue(now time.Time) bool {
	return now.Sub(time.Unix(b.lastCleanup.Load(), 0)) >= b.cleanupInterval
}

func (b *boltStore) update(fn func(*bolt.Bucket) error) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(snapshotBucket))
		if bucket == nil {
			return errBucketMissing
		}
		return fn(bucket)
	})
}

func encodeExpiry(t time.Time) []byte {
	buf := make([]byte, expiryValueBytes)
	binary.BigEndian.PutUint64(buf, uint64(t.Unix()))
	return buf
}

// isLive reports whether a stored expiry is well formed and still ahead of now.
func isLive(value []byte, now time.Time) bool {
	if len(value) != expiryValueBytes {
		return false
	}
	unix := int64(binary.BigEndian.Uint64(value))
	return unix > 0 && time.Unix(unix, 0).After(now)
}
