package poller

import (
	"context"
	"errors"
	"fmt"

	"github.com/LuisTellezSirocco/sirocco-api-national/pkg/targets"
)

// Stats summarizes one pass.
type Stats struct {
	Targets   int `json:"targets"`
	Published int `json:"published"`
	Unchanged int `json:"unchanged"`
	Failed    int `json:"failed"`
}

// Service coordinates polling across multiple targets.
type Service struct {
	processor *TargetProcessor
	log       Logger
}

// NewService wires a poller with the target fetcher registry.
func NewService(reg targets.FetcherRegistry, publisher EventPublisher, log Logger, deduper Deduper) *Service {
	if log == nil {
		log = noopLogger{}
	}
	return &Service{
		processor: NewTargetProcessor(reg, publisher, log, deduper),
		log:       log,
	}
}

// Run executes a poll pass for all provided targets. Per-target failures do
// not stop the pass; they are joined into the returned error.
func (s *Service) Run(ctx context.Context, tgts []targets.Target) (Stats, error) {
	if s == nil || s.processor == nil || s.processor.registry == nil {
		return Stats{}, fmt.Errorf("poller service is not initialized")
	}

	if len(tgts) == 0 {
		return Stats{}, fmt.Errorf("no targets configured for polling")
	}

	stats, errs := s.runAll(ctx, tgts)
	if len(errs) > 0 {
		return stats, errors.Join(errs...)
	}
	return stats, nil
}

func (s *Service) runAll(ctx context.Context, tgts []targets.Target) (Stats, []error) {
	stats := Stats{}
	errs := make([]error, 0, len(tgts))

	for _, t := range tgts {
		if ctx.Err() != nil {
			break
		}
		stats.Targets++

		outcome, err := s.processor.Process(ctx, t)
		switch outcome {
		case OutcomePublished:
			stats.Published++
		case OutcomeUnchanged:
			stats.Unchanged++
		default:
			stats.Failed++
		}
		if err != nil {
			errs = append(errs, err)
			s.log.ErrorObj("target poll failed", "target_error", map[string]any{
				"target_id": t.ID,
				"error":     err.Error(),
			})
		}
	}

	return stats, errs
}
