package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/LuisTellezSirocco/sirocco-api-national/internal/config"
	"github.com/LuisTellezSirocco/sirocco-api-national/internal/storage"
	"github.com/LuisTellezSirocco/sirocco-api-national/pkg/publishers"
	"github.com/LuisTellezSirocco/sirocco-api-national/pkg/sirocco"
)

type fakeAPI struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeAPI) ForecastInfo(context.Context, sirocco.ForecastParams) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return map[string]any{"values": []any{1, 2, 3}}, nil
}

func (f *fakeAPI) SelectedForecast(context.Context, sirocco.RangeParams) (any, error) {
	return nil, nil
}

func (f *fakeAPI) BacktestsInfo(context.Context, sirocco.RangeParams) (any, error) {
	return nil, nil
}

func (f *fakeAPI) SelectedBacktests(context.Context, sirocco.BacktestParams) (any, error) {
	return nil, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishers.Event
}

func (r *recordingPublisher) ID() string   { return "rec" }
func (r *recordingPublisher) Type() string { return "memory" }
func (r *recordingPublisher) Publish(_ context.Context, evt publishers.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

func (r *recordingPublisher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func writeTargets(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "targets.yaml")
	content := `
targets:
  - id: es-forecast
    operation: forecast
    run: 42
  - id: disabled
    operation: forecast
    run: 1
    enabled: false
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write targets: %v", err)
	}
	return path
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		TargetsFile:  writeTargets(t),
		PollInterval: time.Hour,
		StorageType:  "bbolt",
		BBoltPath:    filepath.Join(t.TempDir(), "snapshots.db"),
	}
}

func TestPollerRunOncePublishesAndDedupes(t *testing.T) {
	cfg := testConfig(t)
	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	api := &fakeAPI{}
	pub := &recordingPublisher{}

	p, err := NewPollerWithDeps(context.Background(), cfg, nil, Deps{
		API:        api,
		Publishers: []publishers.Publisher{pub},
		Store:      store,
	})
	if err != nil {
		t.Fatalf("NewPollerWithDeps: %v", err)
	}
	defer p.Close()

	stats, err := p.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("first RunOnce: %v", err)
	}
	if stats.Targets != 1 || stats.Published != 1 {
		t.Fatalf("unexpected first pass stats %+v", stats)
	}

	stats, err = p.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("second RunOnce: %v", err)
	}
	if stats.Unchanged != 1 || stats.Published != 0 {
		t.Fatalf("unexpected second pass stats %+v", stats)
	}

	if api.calls != 2 {
		t.Fatalf("expected the API to be polled on every pass, got %d calls", api.calls)
	}
	if pub.count() != 1 {
		t.Fatalf("expected 1 published event, got %d", pub.count())
	}
}

func TestPollerRunStopsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	pub := &recordingPublisher{}
	p, err := NewPollerWithDeps(context.Background(), cfg, nil, Deps{
		API:        &fakeAPI{},
		Publishers: []publishers.Publisher{pub},
	})
	if err != nil {
		t.Fatalf("NewPollerWithDeps: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	deadline := time.After(5 * time.Second)
	for pub.count() == 0 {
		select {
		case <-deadline:
			t.Fatalf("initial poll did not publish")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not exit after cancel")
	}
}

func TestNewPollerRequiresConfig(t *testing.T) {
	if _, err := NewPoller(context.Background(), nil, nil); err == nil {
		t.Fatalf("expected error for nil config")
	}
}

func TestNewPollerFailsWithoutPublishers(t *testing.T) {
	cfg := testConfig(t)
	cfg.PublishersFile = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := NewPollerWithDeps(context.Background(), cfg, nil, Deps{API: &fakeAPI{}}); err == nil {
		t.Fatalf("expected error for missing publishers file")
	}
}

type closingPublisher struct {
	recordingPublisher
	closed   bool
	closeErr error
}

func (c *closingPublisher) Close() error {
	c.closed = true
	return c.closeErr
}

func TestNewPollerClosesPublishersWhenStorageFails(t *testing.T) {
	cfg := testConfig(t)
	cfg.StorageType = "redis"
	closeErr := errors.New("close failed")
	pub := &closingPublisher{closeErr: closeErr}

	_, err := NewPollerWithDeps(context.Background(), cfg, nil, Deps{
		API:        &fakeAPI{},
		Publishers: []publishers.Publisher{pub},
	})
	if err == nil {
		t.Fatalf("expected storage init error")
	}
	if !pub.closed {
		t.Fatalf("expected publishers to be closed on storage failure")
	}
	if !errors.Is(err, closeErr) {
		t.Fatalf("expected close error to be joined, got %v", err)
	}
}

func TestPollerRunOnceWithoutPublishersReportsFailure(t *testing.T) {
	cfg := testConfig(t)
	cfg.StorageType = "none"
	p, err := NewPollerWithDeps(context.Background(), cfg, nil, Deps{
		API:        &fakeAPI{},
		Publishers: []publishers.Publisher{},
	})
	if err != nil {
		t.Fatalf("NewPollerWithDeps: %v", err)
	}
	defer p.Close()

	stats, err := p.RunOnce(context.Background())
	if err == nil {
		t.Fatalf("expected error when no publisher delivers")
	}
	if stats.Published != 0 || stats.Failed != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}
