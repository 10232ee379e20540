package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/LuisTellezSirocco/sirocco-api-national/internal/config"
)

func TestInitWithSinkWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := InitWithSink(&config.Config{LogLevel: "debug", AppName: "test", Env: "ci"}, zapcore.AddSync(&buf))
	if err != nil {
		t.Fatalf("InitWithSink: %v", err)
	}
	defer func() { S = nil }()

	log.DebugObj("probe", "probe_meta", map[string]any{"run": 42})
	_ = Close()

	line := strings.TrimSpace(buf.String())
	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log line is not JSON: %q", line)
	}
	if entry["msg"] != "probe" || entry["app"] != "test" {
		t.Fatalf("unexpected entry %v", entry)
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatalf("missing ts key in %v", entry)
	}
	meta, ok := entry["probe_meta"].(map[string]any)
	if !ok || meta["run"] != float64(42) {
		t.Fatalf("probe_meta = %#v", entry["probe_meta"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log, err := InitWithSink(&config.Config{LogLevel: "warn"}, zapcore.AddSync(&buf))
	if err != nil {
		t.Fatalf("InitWithSink: %v", err)
	}
	defer func() { S = nil }()

	log.InfoObj("dropped", "k", 1)
	log.WarnObj("kept", "k", 2)

	if strings.Contains(buf.String(), "dropped") || !strings.Contains(buf.String(), "kept") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestHelpersAreSafeBeforeInit(t *testing.T) {
	S = nil
	InfoObj("noop", "k", 1)
	if err := Close(); err != nil {
		t.Fatalf("Close before Init: %v", err)
	}
}
