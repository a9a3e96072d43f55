package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOnCompleteAggregates(t *testing.T) {
	m := New()
	m.OnSubmit()
	m.OnSubmit()
	m.OnComplete(10, true)
	m.OnComplete(30, false)

	s := m.Snapshot()
	if s.TaskStarted != 2 {
		t.Fatalf("TaskStarted = %d; want 2", s.TaskStarted)
	}
	if s.TaskCompleted != 2 {
		t.Fatalf("TaskCompleted = %d; want 2", s.TaskCompleted)
	}
	if s.CacheHitRate != 0.5 {
		t.Fatalf("CacheHitRate = %v; want 0.5", s.CacheHitRate)
	}
	if s.AvgLatencyMs != 20 {
		t.Fatalf("AvgLatencyMs = %v; want 20", s.AvgLatencyMs)
	}
}

func TestSnapshotWithNoCompletionsIsZero(t *testing.T) {
	m := New()
	s := m.Snapshot()
	if s.CacheHitRate != 0 || s.AvgLatencyMs != 0 {
		t.Fatalf("empty snapshot = %+v; want zero rates", s)
	}
}

func TestWriteCSV(t *testing.T) {
	m := New()
	m.OnSubmit()
	m.OnComplete(12.5, true)
	m.OnComplete(7.25, false)

	dir := t.TempDir()
	if err := m.WriteCSV(dir); err != nil {
		t.Fatalf("WriteCSV returned error: %v", err)
	}

	events, err := os.ReadFile(filepath.Join(dir, "events.csv"))
	if err != nil {
		t.Fatalf("reading events.csv: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(events), "\n"), "\n")
	if lines[0] != "t_end,latency_ms,cache_hit" {
		t.Fatalf("events.csv header = %q", lines[0])
	}
	if len(lines) != 3 {
		t.Fatalf("events.csv has %d lines; want 3 (header + 2 rows)", len(lines))
	}

	summary, err := os.ReadFile(filepath.Join(dir, "summary.csv"))
	if err != nil {
		t.Fatalf("reading summary.csv: %v", err)
	}
	sLines := strings.Split(strings.TrimRight(string(summary), "\n"), "\n")
	if sLines[0] != "task_started,task_completed,cache_hit_rate,avg_latency_ms" {
		t.Fatalf("summary.csv header = %q", sLines[0])
	}
	if len(sLines) != 2 {
		t.Fatalf("summary.csv has %d lines; want 2", len(sLines))
	}
}
