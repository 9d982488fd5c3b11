package indexer

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestTimingJSONLWritten(t *testing.T) {
	dir := t.TempDir()
	file := writeVHDL(t, dir, "a.vhd", "entity a is end entity; architecture rtl of a is begin end architecture;")
	cacheDir := filepath.Join(dir, ".cache")
	cfg := defaultTestConfig([]string{file}, cacheDir, true)

	timingPath := filepath.Join(dir, "timing.jsonl")

	idx := New(cfg, dir, nil)
	idx.Timing = true
	idx.TimingPath = timingPath

	runIndexerForTest(t, idx, file)

	raw, err := os.ReadFile(timingPath)
	if err != nil {
		t.Fatalf("read timing file: %v", err)
	}
	lines := bytes.Split(bytes.TrimSpace(raw), []byte("\n"))
	if len(lines) == 0 {
		t.Fatalf("expected timing events, found none")
	}

	stages := make(map[string]bool)
	var foundFile bool
	for _, line := range lines {
		var ev timingEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			t.Fatalf("parse timing event: %v", err)
		}
		if ev.Kind == "stage" {
			stages[ev.Phase] = true
		}
		if ev.Kind == "file" && ev.Phase == "parse" && ev.File == file && ev.Status == "parsed" {
			foundFile = true
		}
		if ev.EndMS < ev.StartMS {
			t.Fatalf("event ends before it starts: %+v", ev)
		}
	}
	for _, phase := range []string{"parse", "tables", "validate", "delta", "policy", "total"} {
		if !stages[phase] {
			t.Fatalf("missing %s stage event", phase)
		}
	}
	if !foundFile {
		t.Fatalf("expected a per-file parse event")
	}
}

func TestTimingPathResolution(t *testing.T) {
	t.Setenv(TimingEnv, "")
	t.Setenv("LAMBILA_TIMING", "")

	idx := &Indexer{Root: "/proj"}
	if got := idx.resolveTimingPath(); got != "" {
		t.Fatalf("timing should be off, got %q", got)
	}

	idx.Timing = true
	if got := idx.resolveTimingPath(); got != filepath.Join("/proj", "timing.jsonl") {
		t.Fatalf("unexpected default path %q", got)
	}

	idx.TimingPath = "out/t.jsonl"
	if got := idx.resolveTimingPath(); got != filepath.Join("/proj", "out", "t.jsonl") {
		t.Fatalf("unexpected relative path %q", got)
	}

	t.Setenv(TimingEnv, "/tmp/env.jsonl")
	if got := idx.resolveTimingPath(); got != "/tmp/env.jsonl" {
		t.Fatalf("environment should win, got %q", got)
	}
}

func TestTimingPathFromConfig(t *testing.T) {
	t.Setenv(TimingEnv, "")
	t.Setenv("LAMBILA_TIMING", "")

	cfg := defaultTestConfig(nil, "", false)
	cfg.Analysis.Timing = true
	cfg.Analysis.TimingPath = "/abs/timing.jsonl"

	idx := &Indexer{Config: cfg, Root: "/proj"}
	if got := idx.resolveTimingPath(); got != "/abs/timing.jsonl" {
		t.Fatalf("unexpected config path %q", got)
	}
}

func TestTimingRecorderDisabled(t *testing.T) {
	tr := newTimingRecorder(time.Now(), "")
	if tr.Enabled() {
		t.Fatalf("recorder without path should be disabled")
	}
	tr.RecordStage("parse", time.Now(), "")
	if len(tr.Events()) != 0 {
		t.Fatalf("disabled recorder kept events")
	}
	tr.Close()
}
