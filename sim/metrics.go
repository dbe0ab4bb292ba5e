// Tracks per-tenant throughput and latency statistics and derives the
// fairness figures reported at the end of a run.

package sim

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/stat"
)

// UserStats holds the running totals for one tenant.
type UserStats struct {
	Completed    int     // Number of finished requests
	TotalLatency float64 // Sum of per-request latencies, seconds
	Bytes        uint64  // Bytes served
}

// Metrics aggregates per-tenant statistics about the simulation for final
// reporting. Storage grows on demand when a completion carries a tenant id
// above the current size.
type Metrics struct {
	stats []UserStats

	// latencies records every completion latency in completion order,
	// feeding the end-of-run distribution summary.
	latencies []float64
}

// NewMetrics creates collectors for numUsers tenants.
func NewMetrics(numUsers int) *Metrics {
	m := &Metrics{}
	m.Reset(numUsers)
	return m
}

// Reset discards all totals and prepares collectors for numUsers tenants.
func (m *Metrics) Reset(numUsers int) {
	if numUsers < 0 {
		numUsers = 0
	}
	m.stats = make([]UserStats, numUsers)
	m.latencies = nil
}

// NumUsers returns the number of tenant slots currently tracked.
func (m *Metrics) NumUsers() int {
	return len(m.stats)
}

// OnFinish ingests a completed request and updates its tenant's aggregates.
// Latency is finish minus arrival, clamped at zero. Requests with a negative
// tenant id are skipped.
func (m *Metrics) OnFinish(r Request) {
	if r.UserID < 0 {
		return
	}
	if r.UserID >= len(m.stats) {
		grown := make([]UserStats, r.UserID+1)
		copy(grown, m.stats)
		m.stats = grown
	}

	latency := r.FinishTS - r.ArrivalTS
	if latency < 0 {
		latency = 0
	}

	s := &m.stats[r.UserID]
	s.Completed++
	s.TotalLatency += latency
	s.Bytes += uint64(r.SizeBytes)
	m.latencies = append(m.latencies, latency)
}

// Completed returns the number of finished requests for uid.
func (m *Metrics) Completed(uid int) int {
	if uid < 0 || uid >= len(m.stats) {
		return 0
	}
	return m.stats[uid].Completed
}

// TotalBytes returns the accumulated bytes served for uid.
func (m *Metrics) TotalBytes(uid int) uint64 {
	if uid < 0 || uid >= len(m.stats) {
		return 0
	}
	return m.stats[uid].Bytes
}

// AvgLatency returns the mean latency in seconds for uid, zero when the
// tenant has no completions.
func (m *Metrics) AvgLatency(uid int) float64 {
	if uid < 0 || uid >= len(m.stats) || m.stats[uid].Completed == 0 {
		return 0
	}
	return m.stats[uid].TotalLatency / float64(m.stats[uid].Completed)
}

// FairnessIndex returns Jain's fairness index over the tenants that served
// at least one byte: (sum x)^2 / (n * sum x^2). Idle tenants are excluded so
// unused slots do not depress the score. Zero when nobody participated.
func (m *Metrics) FairnessIndex() float64 {
	sum := 0.0
	sumSq := 0.0
	participants := 0
	for _, s := range m.stats {
		if s.Bytes == 0 {
			continue
		}
		participants++
		x := float64(s.Bytes)
		sum += x
		sumSq += x * x
	}
	if participants == 0 || sumSq == 0 {
		return 0
	}
	return (sum * sum) / (float64(participants) * sumSq)
}

// LatencySummary describes the run-wide completion latency distribution.
type LatencySummary struct {
	Count int
	Mean  float64
	P50   float64
	P95   float64
	P99   float64
}

// Summary computes the latency distribution across all completions.
func (m *Metrics) Summary() LatencySummary {
	if len(m.latencies) == 0 {
		return LatencySummary{}
	}
	sorted := make([]float64, len(m.latencies))
	copy(sorted, m.latencies)
	sort.Float64s(sorted)

	return LatencySummary{
		Count: len(sorted),
		Mean:  stat.Mean(sorted, nil),
		P50:   stat.Quantile(0.50, stat.Empirical, sorted, nil),
		P95:   stat.Quantile(0.95, stat.Empirical, sorted, nil),
		P99:   stat.Quantile(0.99, stat.Empirical, sorted, nil),
	}
}

// Print displays aggregated metrics at the end of the simulation.
func (m *Metrics) Print() {
	sum := m.Summary()
	fmt.Println("=== Simulation Metrics ===")
	fmt.Printf("Completed Requests : %d\n", sum.Count)
	if sum.Count > 0 {
		fmt.Printf("Average Latency    : %.6f s\n", sum.Mean)
		fmt.Printf("P50/P95/P99        : %.6f / %.6f / %.6f s\n", sum.P50, sum.P95, sum.P99)
	}
	fmt.Printf("Fairness Index: %g\n", m.FairnessIndex())
}

// resultColumns is the header of the per-tenant results CSV.
var resultColumns = []string{"user_id", "completed", "avg_latency_s", "total_bytes"}

// WriteCSV writes the per-tenant summary rows to w.
func (m *Metrics) WriteCSV(w *csv.Writer) error {
	if err := w.Write(resultColumns); err != nil {
		return fmt.Errorf("writing results header: %w", err)
	}
	for uid := range m.stats {
		row := []string{
			strconv.Itoa(uid),
			strconv.Itoa(m.stats[uid].Completed),
			strconv.FormatFloat(m.AvgLatency(uid), 'g', -1, 64),
			strconv.FormatUint(m.stats[uid].Bytes, 10),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("writing results row %d: %w", uid, err)
		}
	}
	return nil
}

// SaveCSV persists the per-tenant summary so downstream tools can analyze
// results, creating parent directories on demand.
func (m *Metrics) SaveCSV(path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating results directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating results file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := m.WriteCSV(writer); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}
