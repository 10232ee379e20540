package poller

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/LuisTellezSirocco/sirocco-api-national/internal/domain"
	"github.com/LuisTellezSirocco/sirocco-api-national/pkg/publishers"
	"github.com/LuisTellezSirocco/sirocco-api-national/pkg/sirocco"
	"github.com/LuisTellezSirocco/sirocco-api-national/pkg/targets"
)

// Outcome describes what a single target poll produced.
type Outcome int

const (
	OutcomeFailed Outcome = iota
	OutcomePublished
	OutcomeUnchanged
)

func (o Outcome) String() string {
	switch o {
	case OutcomePublished:
		return "published"
	case OutcomeUnchanged:
		return "unchanged"
	default:
		return "failed"
	}
}

// TargetProcessor runs fetch, fingerprint, dedupe and publish for one target.
type TargetProcessor struct {
	registry  targets.FetcherRegistry
	publisher EventPublisher
	log       Logger
	deduper   Deduper
	now       func() time.Time
}

// NewTargetProcessor wires a processor. publisher, log and deduper may be nil.
func NewTargetProcessor(reg targets.FetcherRegistry, publisher EventPublisher, log Logger, deduper Deduper) *TargetProcessor {
	if log == nil {
		log = noopLogger{}
	}
	return &TargetProcessor{
		registry:  reg,
		publisher: publisher,
		log:       log,
		deduper:   deduper,
		now:       time.Now,
	}
}

// Process polls the target once.
func (p *TargetProcessor) Process(ctx context.Context, t targets.Target) (Outcome, error) {
	fetcher, err := p.registry.FetcherFor(t)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("resolve fetcher for target %s: %w", t.ID, err)
	}

	payload, err := fetcher.Fetch(ctx, t)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("fetch target %s: %w", t.ID, err)
	}

	snap, err := p.snapshot(t, payload)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("snapshot target %s: %w", t.ID, err)
	}

	if p.seen(snap) {
		p.log.DebugObj("snapshot unchanged", "snapshot_meta", map[string]any{
			"target_id":   t.ID,
			"fingerprint": snap.Fingerprint,
		})
		return OutcomeUnchanged, nil
	}

	if p.publisher == nil {
		return OutcomeFailed, fmt.Errorf("no publisher configured for target %s", t.ID)
	}

	evt := publishers.NewEvent(t.Name, snap)
	delivered, err := p.publisher.Publish(ctx, evt)
	if delivered > 0 {
		// a sink that accepted the event must not receive it again
		p.mark(snap)
	}
	if err != nil {
		return OutcomeFailed, fmt.Errorf("publish snapshot %s of target %s: %w", snap.ID, t.ID, err)
	}
	if delivered == 0 {
		return OutcomeFailed, fmt.Errorf("publish snapshot %s of target %s: no publisher accepted the event", snap.ID, t.ID)
	}

	p.log.InfoObj("snapshot published", "snapshot_meta", map[string]any{
		"target_id":   t.ID,
		"snapshot_id": snap.ID,
		"fingerprint": snap.Fingerprint,
		"publishers":  delivered,
	})
	return OutcomePublished, nil
}

func (p *TargetProcessor) snapshot(t targets.Target, payload any) (domain.Snapshot, error) {
	run, err := sirocco.ParseRun(t.Run)
	if err != nil {
		return domain.Snapshot{}, err
	}
	fp, err := domain.Fingerprint(payload)
	if err != nil {
		return domain.Snapshot{}, err
	}
	return domain.Snapshot{
		ID:          uuid.NewString(),
		TargetID:    t.ID,
		Operation:   t.Operation,
		Run:         run,
		Payload:     payload,
		Fingerprint: fp,
		FetchedAt:   p.now().UTC(),
	}, nil
}

// seen reports lookup failures as unseen.
func (p *TargetProcessor) seen(snap domain.Snapshot) bool {
	if p.deduper == nil {
		return false
	}
	seen, err := p.deduper.SeenSnapshot(snap.TargetID, snap.Fingerprint)
	if err != nil {
		p.log.WarnObj("dedupe lookup failed", "dedupe_error", map[string]any{
			"target_id": snap.TargetID,
			"error":     err.Error(),
		})
		return false
	}
	return seen
}

func (p *TargetProcessor) mark(snap domain.Snapshot) {
	if p.deduper == nil {
		return
	}
	if err := p.deduper.MarkSnapshot(snap.TargetID, snap.Fingerprint); err != nil {
		p.log.WarnObj("dedupe mark failed", "dedupe_error", map[string]any{
			"target_id": snap.TargetID,
			"error":     err.Error(),
		})
	}
}
