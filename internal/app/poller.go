package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LuisTellezSirocco/sirocco-api-national/internal/config"
	"github.com/LuisTellezSirocco/sirocco-api-national/internal/logger"
	"github.com/LuisTellezSirocco/sirocco-api-national/internal/poller"
	"github.com/LuisTellezSirocco/sirocco-api-national/internal/storage"
	"github.com/LuisTellezSirocco/sirocco-api-national/pkg/publishers"
	"github.com/LuisTellezSirocco/sirocco-api-national/pkg/sirocco"
	"github.com/LuisTellezSirocco/sirocco-api-national/pkg/targets"
)

// Poller is the forecast poller runtime. It owns the poll loop and the
// lifetime of the storage backend and publisher clients.
type Poller struct {
	cfg          *config.Config
	targetReg    *targets.Registry
	fanout       *publishers.Fanout
	service      *poller.Service
	pollInterval time.Duration
	log          logger.Logger
	store        storage.Store
}

// Deps overrides collaborators NewPoller would otherwise build from config.
type Deps struct {
	API        targets.API
	Publishers []publishers.Publisher
	Store      storage.Store
}

// NewPoller builds a poller runtime from config files.
func NewPoller(ctx context.Context, cfg *config.Config, log logger.Logger) (*Poller, error) {
	return NewPollerWithDeps(ctx, cfg, log, Deps{})
}

// NewPollerWithDeps is NewPoller with injectable collaborators.
func NewPollerWithDeps(ctx context.Context, cfg *config.Config, log logger.Logger, deps Deps) (*Poller, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	targetReg, err := targets.LoadRegistry(cfg.TargetsFile)
	if err != nil {
		return nil, fmt.Errorf("load targets registry: %w", err)
	}
	enabledTargets := targetReg.Enabled()
	targetIDs := make([]string, 0, len(enabledTargets))
	for _, t := range enabledTargets {
		targetIDs = append(targetIDs, t.ID)
	}
	log.InfoObj("targets registry loaded", "targets_meta", map[string]any{
		"count":   len(targetReg.All()),
		"enabled": targetIDs,
	})

	if !cfg.HasToken() {
		log.WarnObj("SIROCCO_API is not set; requests will use the placeholder token", "sirocco_config", map[string]any{
			"base_url": cfg.BaseURL,
		})
	}

	api := deps.API
	if api == nil {
		api = sirocco.New(cfg.SiroccoConfig(), sirocco.WithTimeout(cfg.HTTPTimeout), sirocco.WithLogger(log))
	}
	fetchers := targets.DefaultFetcherRegistry(api)

	pubClients := deps.Publishers
	if pubClients == nil {
		pubClients, err = buildPublishers(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
	}
	fanout := publishers.NewFanout(pubClients)

	store := deps.Store
	if store == nil {
		store, err = storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
			SnapshotTTL:     cfg.StorageTTL,
			CleanupInterval: cfg.StorageCleanupInterval,
		})
		if err != nil {
			return nil, errors.Join(fmt.Errorf("init storage: %w", err), fanout.Close())
		}
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"snapshot_ttl_seconds":     int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	return &Poller{
		cfg:          cfg,
		targetReg:    targetReg,
		fanout:       fanout,
		service:      poller.NewService(fetchers, fanout, log, store),
		pollInterval: cfg.PollInterval,
		log:          log,
		store:        store,
	}, nil
}

func buildPublishers(ctx context.Context, cfg *config.Config, log logger.Logger) ([]publishers.Publisher, error) {
	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}

	enabledPublishers := publisherReg.Enabled()
	if len(enabledPublishers) == 0 {
		return nil, fmt.Errorf("no publishers configured")
	}

	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabledPublishers, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	publisherSummaries := make([]map[string]string, 0, len(enabledPublishers))
	for _, pubCfg := range enabledPublishers {
		publisherSummaries = append(publisherSummaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(publisherSummaries),
		"publishers": publisherSummaries,
	})
	return pubClients, nil
}

// Run starts the poll loop until the context is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	if p == nil || p.service == nil {
		return fmt.Errorf("poller is not initialized")
	}
	defer p.Close()

	tgts := p.targetReg.Enabled()
	if len(tgts) == 0 {
		p.log.WarnObj("no enabled targets; poller idle", "targets_file", p.cfg.TargetsFile)
		<-ctx.Done()
		return nil
	}

	p.log.InfoObj("poller loop starting", "poller_state", map[string]any{
		"targets_count":    len(tgts),
		"publishers_count": p.fanout.Size(),
		"poll_interval":    p.pollInterval.String(),
	})

	if _, err := p.runOnce(ctx, tgts); err != nil {
		p.log.ErrorObj("initial poll failed", "error", err)
	}

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.InfoObj("poller loop exiting", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			if _, err := p.runOnce(ctx, tgts); err != nil {
				p.log.ErrorObj("scheduled poll failed", "error", err)
			}
		}
	}
}

// RunOnce performs a single pass over the enabled targets. The caller owns
// Close.
func (p *Poller) RunOnce(ctx context.Context) (poller.Stats, error) {
	if p == nil || p.service == nil {
		return poller.Stats{}, fmt.Errorf("poller is not initialized")
	}
	return p.runOnce(ctx, p.targetReg.Enabled())
}

func (p *Poller) runOnce(ctx context.Context, tgts []targets.Target) (poller.Stats, error) {
	start := time.Now()
	p.log.InfoObj("poll started", "poll_meta", map[string]any{
		"targets_count": len(tgts),
		"started_at":    start.UTC(),
	})
	stats, err := p.service.Run(ctx, tgts)
	p.log.InfoObj("poll completed", "poll_meta", map[string]any{
		"stats":      stats,
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	return stats, err
}

// Close releases the storage backend and publisher clients, logging failures.
func (p *Poller) Close() {
	if p == nil {
		return
	}
	if p.store != nil {
		if err := p.store.Close(); err != nil {
			p.log.ErrorObj("storage close failed", "error", err)
		}
		p.store = nil
	}
	if p.fanout != nil {
		if err := p.fanout.Close(); err != nil {
			p.log.ErrorObj("publishers close failed", "error", err)
		}
		p.fanout = nil
	}
}
