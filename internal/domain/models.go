package domain

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Snapshot is one payload fetched for a poll target.
type Snapshot struct {
	ID          string    `json:"id"`
	TargetID    string    `json:"target_id"`
	Operation   string    `json:"operation"`
	Run         int64     `json:"run"`
	Payload     any       `json:"payload"`
	Fingerprint string    `json:"fingerprint"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// Fingerprint hashes the canonical JSON form of payload. encoding/json sorts
// map keys, so equal payloads hash equally regardless of decode order.
func Fingerprint(payload any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}
	sum := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:]), nil
}
