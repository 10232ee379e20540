package targets

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/LuisTellezSirocco/sirocco-api-national/pkg/sirocco"
)

// fetcherRegistry implements FetcherRegistry keyed by operation.
type fetcherRegistry struct {
	mu          sync.RWMutex
	byOperation map[string]Fetcher
}

// NewFetcherRegistry builds a registry for the provided fetchers.
func NewFetcherRegistry(fetchers ...Fetcher) FetcherRegistry {
	reg := &fetcherRegistry{byOperation: make(map[string]Fetcher)}
	for _, f := range fetchers {
		reg.register(f)
	}
	return reg
}

func (r *fetcherRegistry) register(f Fetcher) {
	if f == nil {
		return
	}
	key := strings.ToLower(strings.TrimSpace(f.Operation()))
	if key == "" {
		return
	}
	r.mu.Lock()
	r.byOperation[key] = f
	r.mu.Unlock()
}

// FetcherFor selects the fetcher for the target's operation.
func (r *fetcherRegistry) FetcherFor(t Target) (Fetcher, error) {
	if r == nil {
		return nil, fmt.Errorf("fetcher registry is nil")
	}
	if strings.TrimSpace(t.ID) == "" {
		return nil, fmt.Errorf("target id is empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if f, ok := r.byOperation[strings.ToLower(strings.TrimSpace(t.Operation))]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("no fetcher registered for target %q (operation %q)", t.ID, t.Operation)
}

// DefaultFetcherRegistry wires a fetcher per API operation.
func DefaultFetcherRegistry(api API) FetcherRegistry {
	return NewFetcherRegistry(
		newAPIFetcher(api, OperationForecast, time.Now),
		newAPIFetcher(api, OperationSelectedForecast, time.Now),
		newAPIFetcher(api, OperationBacktests, time.Now),
		newAPIFetcher(api, OperationSelectedBacktests, time.Now),
	)
}

// apiFetcher maps a target onto the matching client call.
type apiFetcher struct {
	api       API
	operation string
	now       func() time.Time
}

func newAPIFetcher(api API, operation string, now func() time.Time) *apiFetcher {
	if now == nil {
		now = time.Now
	}
	return &apiFetcher{api: api, operation: operation, now: now}
}

func (f *apiFetcher) Operation() string { return f.operation }

func (f *apiFetcher) Fetch(ctx context.Context, t Target) (any, error) {
	if f.api == nil {
		return nil, fmt.Errorf("%s fetcher has no API client", f.operation)
	}
	if !strings.EqualFold(t.Operation, f.operation) {
		return nil, fmt.Errorf("%s fetcher received incompatible target %q (operation %q)", f.operation, t.ID, t.Operation)
	}

	initDate, endDate := resolveWindow(t, f.now)

	switch f.operation {
	case OperationForecast:
		return f.api.ForecastInfo(ctx, sirocco.ForecastParams{Run: t.Run, Timezone: t.Timezone})
	case OperationSelectedForecast:
		return f.api.SelectedForecast(ctx, sirocco.RangeParams{Run: t.Run, Timezone: t.Timezone, InitDate: initDate, EndDate: endDate})
	case OperationBacktests:
		return f.api.BacktestsInfo(ctx, sirocco.RangeParams{Run: t.Run, Timezone: t.Timezone, InitDate: initDate, EndDate: endDate})
	case OperationSelectedBacktests:
		return f.api.SelectedBacktests(ctx, sirocco.BacktestParams{
			Run:       t.Run,
			Timezone:  t.Timezone,
			InitDate:  initDate,
			EndDate:   endDate,
			InitAhead: t.InitAhead,
			EndAhead:  t.EndAhead,
		})
	default:
		return nil, fmt.Errorf("unsupported operation %q", f.operation)
	}
}

// resolveWindow returns the fixed dates, or a window around now rendered in
// the target timezone when lookback/lookahead hours are configured.
func resolveWindow(t Target, now func() time.Time) (string, string) {
	initDate, endDate := t.InitDate, t.EndDate
	if initDate != "" && endDate != "" {
		return initDate, endDate
	}

	loc, err := time.LoadLocation(t.Timezone)
	if err != nil {
		loc = time.UTC
	}
	current := now().In(loc).Truncate(time.Hour)

	if initDate == "" && t.LookbackHours > 0 {
		initDate = current.Add(-time.Duration(t.LookbackHours) * time.Hour).Format(sirocco.DateLayout)
	}
	if endDate == "" && t.LookaheadHours > 0 {
		endDate = current.Add(time.Duration(t.LookaheadHours) * time.Hour).Format(sirocco.DateLayout)
	}
	return initDate, endDate
}
