package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"
)

func newJSONAdapter(buf *bytes.Buffer) *SlogAdapter {
	handler := slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return NewSlogAdapter(slog.New(handler))
}

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	if buf.Len() == 0 {
		t.Fatal("no output produced")
	}
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output: %v", err)
	}
	return entry
}

func TestSlogAdapterLogsLookupEvent(t *testing.T) {
	var buf bytes.Buffer
	adapter := newJSONAdapter(&buf)

	adapter.Log(Event{
		Timestamp: time.Now(),
		BuildID:   "build-1",
		Stage:     StageResolve,
		Category:  CategoryLookup,
		Lookup:    &LookupEvent{Name: "vkCmdDraw", ID: 12, Found: true, Enabled: true, Layer: "anv", Fallback: true},
	})

	entry := decodeEntry(t, &buf)
	if entry["msg"] != "procaddr" {
		t.Errorf("msg: got %v", entry["msg"])
	}
	if entry["level"] != "DEBUG" {
		t.Errorf("level: got %v, want DEBUG", entry["level"])
	}
	if entry["stage"] != "RESOLVE" {
		t.Errorf("stage: got %v, want %q", entry["stage"], "RESOLVE")
	}
	if entry["name"] != "vkCmdDraw" {
		t.Errorf("name: got %v", entry["name"])
	}
	if entry["id"] != float64(12) {
		t.Errorf("id: got %v, want 12", entry["id"])
	}
	if entry["layer"] != "anv" {
		t.Errorf("layer: got %v", entry["layer"])
	}
	if entry["fallback"] != true {
		t.Errorf("fallback: got %v", entry["fallback"])
	}
	if entry["build_id"] != "build-1" {
		t.Errorf("build_id: got %v", entry["build_id"])
	}
}

func TestSlogAdapterLogsIndexEvent(t *testing.T) {
	var buf bytes.Buffer
	adapter := newJSONAdapter(&buf)

	adapter.Log(Event{
		Stage:    StageBuild,
		Category: CategoryIndex,
		Index:    &IndexEvent{HashSize: 256, Entries: 35, MaxProbe: 2, Collisions: []int{33, 1, 1}},
	})

	entry := decodeEntry(t, &buf)
	if entry["hash_size"] != float64(256) {
		t.Errorf("hash_size: got %v", entry["hash_size"])
	}
	if entry["max_probe"] != float64(2) {
		t.Errorf("max_probe: got %v", entry["max_probe"])
	}
	if _, ok := entry["build_id"]; ok {
		t.Error("build_id should be omitted when empty")
	}
}

func TestSlogAdapterLogsErrorEvent(t *testing.T) {
	var buf bytes.Buffer
	adapter := newJSONAdapter(&buf)

	adapter.Log(Event{
		Stage:    StageIngest,
		Category: CategoryError,
		Error:    &ErrorEventData{Stage: StageIngest, Message: "duplicate", Context: "registry.yaml"},
	})

	entry := decodeEntry(t, &buf)
	if entry["error_msg"] != "duplicate" {
		t.Errorf("error_msg: got %v", entry["error_msg"])
	}
	if entry["error_stage"] != "INGEST" {
		t.Errorf("error_stage: got %v", entry["error_stage"])
	}
}

func TestSlogAdapterRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	NewSlogAdapter(slog.New(handler)).Log(Event{Stage: StageResolve})

	if buf.Len() != 0 {
		t.Errorf("debug events should be dropped at info level, got %q", buf.String())
	}
}

func TestSlogAdapterInterfaceSatisfaction(t *testing.T) {
	var _ Logger = (*SlogAdapter)(nil)
}
