// Tracks episode-wide and per-patient statistics such as:
// waiting time per acuity, resource utilisation, makespan and reward.

package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Metrics aggregates statistics about one episode for final reporting.
type Metrics struct {
	Spawned     int     // Patients generated at reset
	Admitted    int     // Admissions into service
	Exited      int     // Patients whose order was exhausted
	TotalReward float64 // Sum of step rewards

	WaitTimes    [][]float64 // Total waiting time of every exited patient, per acuity
	ResourceBusy []int64     // Unit-ticks of treatment per resource, clipped to max_time
	Makespan     int64       // Tick of the latest exit
	SimEndedTime int64       // Clock value when the episode terminated
}

// NewMetrics creates empty metrics for the given dimensions.
func NewMetrics(numResources, numAcuities int) *Metrics {
	return &Metrics{
		WaitTimes:    make([][]float64, numAcuities),
		ResourceBusy: make([]int64, numResources),
	}
}

// RecordAdmission accounts one treatment of the given duration started at now.
func (m *Metrics) RecordAdmission(resource int, now, duration, maxTime int64) {
	m.Admitted++
	end := now + duration
	if end > maxTime {
		end = maxTime
	}
	if end > now {
		m.ResourceBusy[resource] += end - now
	}
}

// RecordExit accounts a patient leaving the system.
func (m *Metrics) RecordExit(p *Patient) {
	m.Exited++
	m.WaitTimes[p.Acuity] = append(m.WaitTimes[p.Acuity], float64(p.WaitingTime))
	if p.ExitTime > m.Makespan {
		m.Makespan = p.ExitTime
	}
}

// MetricsSummary holds the derived statistics of an episode.
type MetricsSummary struct {
	Spawned      int       `json:"spawned"`
	Admitted     int       `json:"admitted"`
	Exited       int       `json:"exited"`
	TotalReward  float64   `json:"total_reward"`
	MeanWait     float64   `json:"mean_wait"`
	MeanWaits    []float64 `json:"mean_waits"` // per acuity, 0 when no patient of that acuity exited
	P90Waits     []float64 `json:"p90_waits"`
	Utilisation  []float64 `json:"utilisation"` // per resource, busy unit-ticks over capacity * elapsed ticks
	Makespan     int64     `json:"makespan"`
	SimEndedTime int64     `json:"sim_ended_time"`
}

// Summarize derives mean and p90 waits and per-resource utilisation.
func (m *Metrics) Summarize(capacities []int) MetricsSummary {
	s := MetricsSummary{
		Spawned:      m.Spawned,
		Admitted:     m.Admitted,
		Exited:       m.Exited,
		TotalReward:  m.TotalReward,
		MeanWaits:    make([]float64, len(m.WaitTimes)),
		P90Waits:     make([]float64, len(m.WaitTimes)),
		Utilisation:  make([]float64, len(m.ResourceBusy)),
		Makespan:     m.Makespan,
		SimEndedTime: m.SimEndedTime,
	}
	var all []float64
	for a, waits := range m.WaitTimes {
		if len(waits) == 0 {
			continue
		}
		sorted := append([]float64(nil), waits...)
		sort.Float64s(sorted)
		s.MeanWaits[a] = stat.Mean(sorted, nil)
		s.P90Waits[a] = stat.Quantile(0.9, stat.Empirical, sorted, nil)
		all = append(all, waits...)
	}
	if len(all) > 0 {
		s.MeanWait = stat.Mean(all, nil)
	}
	if m.SimEndedTime > 0 {
		for r, busy := range m.ResourceBusy {
			s.Utilisation[r] = float64(busy) / float64(int64(capacities[r])*m.SimEndedTime)
		}
	}
	return s
}

// Print writes the episode metrics block for the given facility.
func (m *Metrics) Print(w io.Writer, f *Facility) {
	s := m.Summarize(f.Capacities)
	fmt.Fprintln(w, "=== Simulation Metrics ===")
	fmt.Fprintf(w, "Simulation Ended     : %d ticks\n", s.SimEndedTime)
	fmt.Fprintf(w, "Patients Spawned     : %d\n", s.Spawned)
	fmt.Fprintf(w, "Admissions           : %d\n", s.Admitted)
	fmt.Fprintf(w, "Patients Exited      : %d\n", s.Exited)
	fmt.Fprintf(w, "Total Reward         : %.2f\n", s.TotalReward)
	if s.Exited > 0 {
		fmt.Fprintf(w, "Makespan             : %d ticks\n", s.Makespan)
		fmt.Fprintf(w, "Average Wait         : %.2f ticks\n", s.MeanWait)
		for a, label := range f.AcuityLabels {
			if len(m.WaitTimes[a]) == 0 {
				continue
			}
			fmt.Fprintf(w, "  %-18s : mean %.2f, p90 %.2f ticks (%d exited)\n", label, s.MeanWaits[a], s.P90Waits[a], len(m.WaitTimes[a]))
		}
	}
	fmt.Fprintln(w, "Utilisation")
	for r, label := range f.ResourceLabels {
		fmt.Fprintf(w, "  %-18s : %.1f%%\n", label, 100*s.Utilisation[r])
	}
}

// EpisodeResults is the JSON document written by SaveResults.
type EpisodeResults struct {
	EpisodeID string `json:"episode_id"`
	MetricsSummary
}

// SaveResults writes the episode summary as indented JSON to path.
func (m *Metrics) SaveResults(path, episodeID string, capacities []int) error {
	data, err := json.MarshalIndent(EpisodeResults{EpisodeID: episodeID, MetricsSummary: m.Summarize(capacities)}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing results: %w", err)
	}
	return nil
}
