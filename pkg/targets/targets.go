package targets

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/LuisTellezSirocco/sirocco-api-national/pkg/sirocco"
)

// Package targets holds the registry of forecast queries the poller tracks.

// Operations a target can poll.
const (
	OperationForecast          = sirocco.EndpointForecast
	OperationSelectedForecast  = sirocco.EndpointSelectedForecast
	OperationBacktests         = sirocco.EndpointBacktests
	OperationSelectedBacktests = sirocco.EndpointSelectedBacktests
)

// Target is one polled API query.
type Target struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	Operation string `json:"operation" yaml:"operation"`
	Run       any    `json:"run" yaml:"run"`
	Timezone  string `json:"timezone" yaml:"timezone"`
	InitDate  string `json:"init_date" yaml:"init_date"`
	EndDate   string `json:"end_date" yaml:"end_date"`
	InitAhead *int   `json:"init_ahead" yaml:"init_ahead"`
	EndAhead  *int   `json:"end_ahead" yaml:"end_ahead"`
	// LookbackHours/LookaheadHours derive init/end from the poll time when the
	// fixed dates are empty.
	LookbackHours  int   `json:"lookback_hours" yaml:"lookback_hours"`
	LookaheadHours int   `json:"lookahead_hours" yaml:"lookahead_hours"`
	Enabled        *bool `json:"enabled" yaml:"enabled"`
}

type registryFile struct {
	Targets []Target `json:"targets" yaml:"targets"`
}

// Registry materializes target definitions loaded from config files.
type Registry struct {
	mu      sync.RWMutex
	targets []Target
	idx     map[string]Target
}

// LoadRegistry loads the target registry from a YAML/JSON file.
func LoadRegistry(path string) (*Registry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("targets file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open targets file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read targets file: %w", err)
	}

	return ParseRegistry(raw, filepath.Ext(path))
}

// ParseRegistry decodes and validates registry content. ext selects the
// decoder (".yaml", ".yml", ".json"); empty tries all.
func ParseRegistry(data []byte, ext string) (*Registry, error) {
	file, err := parseRegistryFile(data, ext)
	if err != nil {
		return nil, err
	}
	if len(file.Targets) == 0 {
		return nil, errors.New("targets file contains no targets entries")
	}

	reg := &Registry{
		targets: make([]Target, 0, len(file.Targets)),
		idx:     make(map[string]Target, len(file.Targets)),
	}
	for i := range file.Targets {
		t := sanitizeTarget(file.Targets[i])
		if err := validateTarget(t); err != nil {
			return nil, fmt.Errorf("target[%d]: %w", i, err)
		}
		if _, exists := reg.idx[t.ID]; exists {
			return nil, fmt.Errorf("duplicate target id %q", t.ID)
		}
		reg.targets = append(reg.targets, t)
		reg.idx[t.ID] = t
	}
	return reg, nil
}

type unmarshalFn func([]byte, any) error

func parseRegistryFile(data []byte, ext string) (registryFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: unmarshalJSONNumbers},
	}

	var errs []error
	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var file registryFile
		if err := d.fn(data, &file); err != nil {
			errs = append(errs, fmt.Errorf("decode %s targets: %w", d.name, err))
			continue
		}
		return file, nil
	}

	return registryFile{}, fmt.Errorf("targets file format not recognized (expected YAML or JSON): %w", errors.Join(errs...))
}

// unmarshalJSONNumbers keeps numeric runs as json.Number instead of float64.
func unmarshalJSONNumbers(data []byte, v any) error {
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	return dec.Decode(v)
}

func sanitizeTarget(t Target) Target {
	t.ID = strings.TrimSpace(t.ID)
	t.Name = strings.TrimSpace(t.Name)
	t.Operation = strings.ToLower(strings.TrimSpace(t.Operation))
	t.Timezone = strings.TrimSpace(t.Timezone)
	t.InitDate = strings.TrimSpace(t.InitDate)
	t.EndDate = strings.TrimSpace(t.EndDate)
	if t.Name == "" {
		t.Name = t.ID
	}
	if t.Timezone == "" {
		t.Timezone = sirocco.DefaultTimezone
	}
	if t.Enabled == nil {
		def := true
		t.Enabled = &def
	}
	return t
}

func validateTarget(t Target) error {
	if t.ID == "" {
		return errors.New("id is required")
	}
	switch t.Operation {
	case OperationForecast, OperationSelectedForecast, OperationBacktests, OperationSelectedBacktests:
	case "":
		return fmt.Errorf("operation is required for target %q", t.ID)
	default:
		return fmt.Errorf("unsupported operation %q for target %q", t.Operation, t.ID)
	}
	if t.Run == nil {
		return fmt.Errorf("run is required for target %q", t.ID)
	}
	if _, err := sirocco.ParseRun(t.Run); err != nil {
		return fmt.Errorf("target %q: %w", t.ID, err)
	}
	for field, value := range map[string]string{"init_date": t.InitDate, "end_date": t.EndDate} {
		if value == "" {
			continue
		}
		if _, err := sirocco.ParseDate(value); err != nil {
			return fmt.Errorf("%s of target %q must be in the format YYYY-mm-dd HH:MM:SS", field, t.ID)
		}
	}
	if t.LookbackHours < 0 || t.LookaheadHours < 0 {
		return fmt.Errorf("lookback_hours/lookahead_hours of target %q must not be negative", t.ID)
	}
	if t.Operation != OperationSelectedBacktests && (t.InitAhead != nil || t.EndAhead != nil) {
		return fmt.Errorf("init_ahead/end_ahead only apply to %s (target %q)", OperationSelectedBacktests, t.ID)
	}
	return nil
}

// ByID returns the target by id.
func (r *Registry) ByID(id string) (Target, bool) {
	if r == nil {
		return Target{}, false
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Target{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.idx[id]
	return t, ok
}

// All returns all configured targets.
func (r *Registry) All() []Target {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Target, len(r.targets))
	copy(out, r.targets)
	return out
}

// Enabled returns targets that are enabled.
func (r *Registry) Enabled() []Target {
	all := r.All()
	if len(all) == 0 {
		return nil
	}
	out := make([]Target, 0, len(all))
	for _, t := range all {
		if t.EnabledValue() {
			out = append(out, t)
		}
	}
	return out
}

// EnabledValue returns enabled flag defaulting to true.
func (t Target) EnabledValue() bool {
	if t.Enabled == nil {
		return true
	}
	return *t.Enabled
}
