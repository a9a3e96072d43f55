package metrics

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// WriteCSV writes events.csv and summary.csv into outdir, creating it if
// necessary. The header and field formatting reproduce the reference
// exporter's layout exactly: events.csv rows are
// "<seconds>,<latency ms>,<0|1>" with 6 and 3 decimal places respectively,
// and summary.csv is a single header row of to_dict() keys followed by one
// data row of its values.
func (m *Metrics) WriteCSV(outdir string) error {
	if err := os.MkdirAll(outdir, 0o755); err != nil {
		return fmt.Errorf("metrics: create outdir: %w", err)
	}

	events := m.Events()
	eventsPath := filepath.Join(outdir, "events.csv")
	ef, err := os.Create(eventsPath)
	if err != nil {
		return fmt.Errorf("metrics: create events.csv: %w", err)
	}
	defer ef.Close()

	ew := csv.NewWriter(ef)
	if err := ew.Write([]string{"t_end", "latency_ms", "cache_hit"}); err != nil {
		return err
	}
	for _, e := range events {
		hit := "0"
		if e.CacheHit {
			hit = "1"
		}
		row := []string{
			strconv.FormatFloat(e.TEnd, 'f', 6, 64),
			strconv.FormatFloat(e.LatencyMs, 'f', 3, 64),
			hit,
		}
		if err := ew.Write(row); err != nil {
			return err
		}
	}
	ew.Flush()
	if err := ew.Error(); err != nil {
		return err
	}

	summary := m.Snapshot()
	summaryPath := filepath.Join(outdir, "summary.csv")
	sf, err := os.Create(summaryPath)
	if err != nil {
		return fmt.Errorf("metrics: create summary.csv: %w", err)
	}
	defer sf.Close()

	sw := csv.NewWriter(sf)
	if err := sw.Write([]string{"task_started", "task_completed", "cache_hit_rate", "avg_latency_ms"}); err != nil {
		return err
	}
	row := []string{
		strconv.FormatInt(summary.TaskStarted, 10),
		strconv.FormatInt(summary.TaskCompleted, 10),
		strconv.FormatFloat(summary.CacheHitRate, 'f', -1, 64),
		strconv.FormatFloat(summary.AvgLatencyMs, 'f', -1, 64),
	}
	if err := sw.Write(row); err != nil {
		return err
	}
	sw.Flush()
	return sw.Error()
}
