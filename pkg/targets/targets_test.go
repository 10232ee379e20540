package targets

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/LuisTellezSirocco/sirocco-api-national/pkg/sirocco"
)

func TestLoadRegistryYAML(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "targets.yaml")
	content := `
targets:
  - id: es-day-ahead
    name: Spain day-ahead
    operation: SelectedForecast
    run: 42
    timezone: Europe/Madrid
    lookahead_hours: 48
  - id: es-backtest
    operation: selectedbacktests
    run: "7"
    init_date: "2024-01-01 00:00:00"
    end_date: "2024-01-31 23:00:00"
    init_ahead: 0
    end_ahead: 60
    enabled: false
`
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatalf("write targets file: %v", err)
	}

	reg, err := LoadRegistry(file)
	if err != nil {
		t.Fatalf("LoadRegistry returned error: %v", err)
	}
	if got := len(reg.All()); got != 2 {
		t.Fatalf("expected 2 targets, got %d", got)
	}

	tgt, ok := reg.ByID("es-day-ahead")
	if !ok {
		t.Fatalf("expected target es-day-ahead to be loaded")
	}
	if tgt.Operation != OperationSelectedForecast {
		t.Fatalf("operation not normalized: %q", tgt.Operation)
	}
	if tgt.Timezone != "Europe/Madrid" || tgt.LookaheadHours != 48 {
		t.Fatalf("unexpected target: %+v", tgt)
	}

	bt, _ := reg.ByID("es-backtest")
	if bt.Name != "es-backtest" {
		t.Fatalf("expected name to default to id, got %q", bt.Name)
	}
	if bt.Timezone != sirocco.DefaultTimezone {
		t.Fatalf("expected default timezone, got %q", bt.Timezone)
	}
	if bt.InitAhead == nil || *bt.InitAhead != 0 || bt.EndAhead == nil || *bt.EndAhead != 60 {
		t.Fatalf("unexpected lead times: %v %v", bt.InitAhead, bt.EndAhead)
	}

	enabled := reg.Enabled()
	if len(enabled) != 1 || enabled[0].ID != "es-day-ahead" {
		t.Fatalf("unexpected enabled targets: %+v", enabled)
	}
}

func TestParseRegistryJSONKeepsNumbers(t *testing.T) {
	content := `{"targets":[{"id":"fc","operation":"forecast","run":9007199254740993}]}`

	reg, err := ParseRegistry([]byte(content), ".json")
	if err != nil {
		t.Fatalf("ParseRegistry returned error: %v", err)
	}
	tgt, _ := reg.ByID("fc")
	n, ok := tgt.Run.(json.Number)
	if !ok {
		t.Fatalf("expected json.Number run, got %T", tgt.Run)
	}
	if n.String() != "9007199254740993" {
		t.Fatalf("run lost precision: %s", n)
	}
}

func TestParseRegistryRejectsInvalidTargets(t *testing.T) {
	cases := map[string]string{
		"duplicate id": `
targets:
  - {id: a, operation: forecast, run: 1}
  - {id: a, operation: forecast, run: 2}
`,
		"missing operation": `
targets:
  - {id: a, run: 1}
`,
		"unknown operation": `
targets:
  - {id: a, operation: timezones, run: 1}
`,
		"missing run": `
targets:
  - {id: a, operation: forecast}
`,
		"bad run": `
targets:
  - {id: a, operation: forecast, run: "abc"}
`,
		"bad date": `
targets:
  - {id: a, operation: backtests, run: 1, end_date: "2024/01/01"}
`,
		"fractional seconds": `
targets:
  - {id: a, operation: backtests, run: 1, init_date: "2024-01-01 00:00:00.123456"}
`,
		"comma seconds": `
targets:
  - {id: a, operation: backtests, run: 1, end_date: "2024-01-01 00:00:00,5"}
`,
		"ahead on forecast": `
targets:
  - {id: a, operation: forecast, run: 1, init_ahead: 10}
`,
		"negative lookback": `
targets:
  - {id: a, operation: backtests, run: 1, lookback_hours: -1}
`,
		"empty": `targets: []`,
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseRegistry([]byte(content), ".yaml"); err == nil {
				t.Fatalf("expected error for %s", name)
			}
		})
	}
}

type fakeAPI struct {
	forecast  []sirocco.ForecastParams
	selected  []sirocco.RangeParams
	backtests []sirocco.RangeParams
	selectedB []sirocco.BacktestParams
	err       error
}

func (f *fakeAPI) ForecastInfo(_ context.Context, p sirocco.ForecastParams) (any, error) {
	f.forecast = append(f.forecast, p)
	return map[string]any{"op": "forecast"}, f.err
}

func (f *fakeAPI) SelectedForecast(_ context.Context, p sirocco.RangeParams) (any, error) {
	f.selected = append(f.selected, p)
	return map[string]any{"op": "selectedforecast"}, f.err
}

func (f *fakeAPI) BacktestsInfo(_ context.Context, p sirocco.RangeParams) (any, error) {
	f.backtests = append(f.backtests, p)
	return map[string]any{"op": "backtests"}, f.err
}

func (f *fakeAPI) SelectedBacktests(_ context.Context, p sirocco.BacktestParams) (any, error) {
	f.selectedB = append(f.selectedB, p)
	return map[string]any{"op": "selectedbacktests"}, f.err
}

func TestDefaultFetcherRegistryDispatchesByOperation(t *testing.T) {
	api := &fakeAPI{}
	reg := DefaultFetcherRegistry(api)

	for _, op := range []string{OperationForecast, OperationSelectedForecast, OperationBacktests, OperationSelectedBacktests} {
		tgt := Target{ID: "t-" + op, Operation: op, Run: 3, Timezone: "UTC"}
		f, err := reg.FetcherFor(tgt)
		if err != nil {
			t.Fatalf("FetcherFor(%s): %v", op, err)
		}
		payload, err := f.Fetch(context.Background(), tgt)
		if err != nil {
			t.Fatalf("Fetch(%s): %v", op, err)
		}
		if got := payload.(map[string]any)["op"]; got != op {
			t.Fatalf("expected %s payload, got %v", op, got)
		}
	}

	if len(api.forecast) != 1 || len(api.selected) != 1 || len(api.backtests) != 1 || len(api.selectedB) != 1 {
		t.Fatalf("expected one call per operation, got %d/%d/%d/%d",
			len(api.forecast), len(api.selected), len(api.backtests), len(api.selectedB))
	}
}

func TestFetcherForUnknownOperation(t *testing.T) {
	reg := DefaultFetcherRegistry(&fakeAPI{})
	if _, err := reg.FetcherFor(Target{ID: "x", Operation: "projects"}); err == nil {
		t.Fatalf("expected error for unregistered operation")
	}
	if _, err := reg.FetcherFor(Target{Operation: OperationForecast}); err == nil {
		t.Fatalf("expected error for empty target id")
	}
}

func TestFetcherPassesLeadTimes(t *testing.T) {
	api := &fakeAPI{}
	f := newAPIFetcher(api, OperationSelectedBacktests, nil)
	tgt := Target{
		ID:        "bt",
		Operation: OperationSelectedBacktests,
		Run:       "5",
		Timezone:  "UTC",
		InitDate:  "2024-01-01 00:00:00",
		EndDate:   "2024-01-02 00:00:00",
		InitAhead: sirocco.Ahead(0),
		EndAhead:  sirocco.Ahead(30),
	}
	if _, err := f.Fetch(context.Background(), tgt); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	got := api.selectedB[0]
	if got.InitDate != tgt.InitDate || got.EndDate != tgt.EndDate {
		t.Fatalf("unexpected dates: %+v", got)
	}
	if got.InitAhead == nil || *got.InitAhead != 0 || got.EndAhead == nil || *got.EndAhead != 30 {
		t.Fatalf("unexpected lead times: %+v", got)
	}
}

func TestFetcherComputesRelativeWindow(t *testing.T) {
	api := &fakeAPI{}
	now := func() time.Time { return time.Date(2024, 3, 10, 12, 34, 56, 0, time.UTC) }
	f := newAPIFetcher(api, OperationSelectedForecast, now)

	tgt := Target{
		ID:             "window",
		Operation:      OperationSelectedForecast,
		Run:            1,
		Timezone:       "Europe/Madrid",
		LookbackHours:  2,
		LookaheadHours: 24,
	}
	if _, err := f.Fetch(context.Background(), tgt); err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	got := api.selected[0]
	// 12:34 UTC is 13:34 in Madrid (CET) on that date.
	if got.InitDate != "2024-03-10 11:00:00" {
		t.Fatalf("unexpected init date %q", got.InitDate)
	}
	if got.EndDate != "2024-03-11 13:00:00" {
		t.Fatalf("unexpected end date %q", got.EndDate)
	}
	if got.Timezone != "Europe/Madrid" {
		t.Fatalf("unexpected timezone %q", got.Timezone)
	}
}

func TestFetcherRejectsIncompatibleTarget(t *testing.T) {
	f := newAPIFetcher(&fakeAPI{}, OperationForecast, nil)
	_, err := f.Fetch(context.Background(), Target{ID: "x", Operation: OperationBacktests})
	if err == nil || !strings.Contains(err.Error(), "incompatible") {
		t.Fatalf("expected incompatible target error, got %v", err)
	}
}

func TestFetcherPropagatesAPIError(t *testing.T) {
	boom := errors.New("boom")
	f := newAPIFetcher(&fakeAPI{err: boom}, OperationForecast, nil)
	_, err := f.Fetch(context.Background(), Target{ID: "x", Operation: OperationForecast, Run: 1})
	if !errors.Is(err, boom) {
		t.Fatalf("expected api error, got %v", err)
	}
}
