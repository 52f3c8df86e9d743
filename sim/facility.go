package sim

import (
	"fmt"
	"strings"

	"github.com/edps-sim/edps-sim/sim/trace"
	"github.com/edps-sim/edps-sim/sim/workload"
)

// Facility is a validated configuration with labels resolved to dense ids and
// distributions resolved to samplers. It is immutable once built.
type Facility struct {
	ResourceLabels        []string
	Capacities            []int
	AcuityLabels          []string
	AcuityProbabilities   []float64
	AcuityWeights         []float64
	TreatmentLabels       []string
	TreatmentDescriptions []string
	PatternLabels         []string
	PatternWeights        []float64
	Patterns              [][]int // treatment ids per pattern, in visiting order

	MaxTime        int64
	WarmUpTime     int64
	ArrivalHorizon int64 // patients are spawned over [0, ArrivalHorizon)
	Seed           int64

	Arrival       workload.ArrivalSpec
	SelectionName string
	Selection     SelectionRule
	TraceLevel    trace.TraceLevel

	treatmentResource []int
	durations         [][]workload.Distribution // [treatment][acuity]
}

// Resolve validates the configuration and builds its Facility.
func (c *Config) Resolve() (*Facility, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	f := &Facility{
		MaxTime:        c.MaxTime,
		WarmUpTime:     c.WarmUpTime,
		ArrivalHorizon: c.ArrivalHorizon,
		Seed:           c.Seed,
		SelectionName:  c.Selection,
		Selection:      NewSelectionRule(c.Selection),
		TraceLevel:     trace.TraceLevel(c.Trace),
	}
	if f.ArrivalHorizon == 0 {
		f.ArrivalHorizon = c.MaxTime
	}
	if f.SelectionName == "" {
		f.SelectionName = "longest-wait"
	}
	if f.TraceLevel == "" {
		f.TraceLevel = trace.TraceLevelNone
	}

	resourceID := make(map[string]int, len(c.Resources))
	for i, r := range c.Resources {
		resourceID[r.Label] = i
		f.ResourceLabels = append(f.ResourceLabels, r.Label)
		f.Capacities = append(f.Capacities, r.Quantity)
	}
	acuityID := make(map[string]int, len(c.Acuities))
	for i, a := range c.Acuities {
		acuityID[a.Label] = i
		f.AcuityLabels = append(f.AcuityLabels, a.Label)
		f.AcuityProbabilities = append(f.AcuityProbabilities, a.Probability)
		f.AcuityWeights = append(f.AcuityWeights, a.Weight)
	}

	treatmentID := make(map[string]int, len(c.Treatments))
	f.durations = make([][]workload.Distribution, len(c.Treatments))
	for i, t := range c.Treatments {
		treatmentID[t.Label] = i
		f.TreatmentLabels = append(f.TreatmentLabels, t.Label)
		f.TreatmentDescriptions = append(f.TreatmentDescriptions, t.Description)
		f.treatmentResource = append(f.treatmentResource, resourceID[t.Resource])

		base, err := workload.NewDistribution(t.Duration)
		if err != nil {
			return nil, invalidf("treatment %q: duration: %v", t.Label, err)
		}
		f.durations[i] = make([]workload.Distribution, len(c.Acuities))
		for a := range f.durations[i] {
			f.durations[i][a] = base
		}
		for label, spec := range t.AcuityDurations {
			d, err := workload.NewDistribution(spec)
			if err != nil {
				return nil, invalidf("treatment %q: acuity_durations[%s]: %v", t.Label, label, err)
			}
			f.durations[i][acuityID[label]] = d
		}
	}

	for _, p := range c.Patterns {
		order := make([]int, len(p.Order))
		for j, t := range p.Order {
			order[j] = treatmentID[t]
		}
		f.Patterns = append(f.Patterns, order)
		f.PatternLabels = append(f.PatternLabels, p.Label)
		f.PatternWeights = append(f.PatternWeights, p.Weight)
	}

	interval, err := workload.NewDistribution(c.Arrival)
	if err != nil {
		return nil, invalidf("arrival: %v", err)
	}
	acuity, err := workload.NewCategorical(f.AcuityProbabilities)
	if err != nil {
		return nil, invalidf("acuities: %v", err)
	}
	pattern, err := workload.NewCategorical(f.PatternWeights)
	if err != nil {
		return nil, invalidf("patterns: %v", err)
	}
	f.Arrival = workload.ArrivalSpec{Interval: interval, Acuity: acuity, Pattern: pattern}
	return f, nil
}

// NumResources returns the number of resource types.
func (f *Facility) NumResources() int { return len(f.Capacities) }

// NumAcuities returns the number of acuity classes.
func (f *Facility) NumAcuities() int { return len(f.AcuityLabels) }

// NumTreatments returns the number of treatment steps.
func (f *Facility) NumTreatments() int { return len(f.TreatmentLabels) }

// ResourceOf returns the resource that performs treatment t.
func (f *Facility) ResourceOf(t int) int {
	return f.treatmentResource[t]
}

// Duration returns the treatment-time distribution of treatment t for acuity a.
func (f *Facility) Duration(t, a int) workload.Distribution {
	return f.durations[t][a]
}

// TreatmentsOn returns the ids of the treatments performed by resource r.
func (f *Facility) TreatmentsOn(r int) []int {
	var ids []int
	for t, res := range f.treatmentResource {
		if res == r {
			ids = append(ids, t)
		}
	}
	return ids
}

// PatternString renders pattern p as its treatment labels joined by arrows.
func (f *Facility) PatternString(p int) string {
	labels := make([]string, len(f.Patterns[p]))
	for i, t := range f.Patterns[p] {
		labels[i] = f.TreatmentLabels[t]
	}
	return strings.Join(labels, " -> ")
}

// TotalCapacity returns the sum of all resource capacities.
func (f *Facility) TotalCapacity() int {
	n := 0
	for _, c := range f.Capacities {
		n += c
	}
	return n
}

func (f *Facility) String() string {
	return fmt.Sprintf("Facility: (%d resources, %d acuities, %d treatments, %d patterns, max_time=%d)",
		f.NumResources(), f.NumAcuities(), f.NumTreatments(), len(f.Patterns), f.MaxTime)
}
