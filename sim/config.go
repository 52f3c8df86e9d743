package sim

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/edps-sim/edps-sim/sim/trace"
	"github.com/edps-sim/edps-sim/sim/workload"
)

// probabilityTolerance bounds how far acuity probabilities may drift from summing to 1.
const probabilityTolerance = 1e-9

// ResourceSpec is one station type and its number of concurrent units.
type ResourceSpec struct {
	Label    string `yaml:"label" json:"label"`
	Quantity int    `yaml:"quantity" json:"quantity"`
}

// AcuitySpec is one acuity class.
// Probability is the chance a spawned patient belongs to the class.
// Weight scales the waiting-time penalty of the class in the reward.
type AcuitySpec struct {
	Label       string  `yaml:"label" json:"label"`
	Probability float64 `yaml:"probability" json:"probability"`
	Weight      float64 `yaml:"weight" json:"weight"`
}

// TreatmentSpec is one treatment step performed on a resource.
// Duration applies to every acuity unless AcuityDurations overrides it by acuity label.
type TreatmentSpec struct {
	Label           string                       `yaml:"label" json:"label"`
	Description     string                       `yaml:"description,omitempty" json:"description,omitempty"`
	Resource        string                       `yaml:"resource" json:"resource"`
	Duration        workload.DistSpec            `yaml:"duration" json:"duration"`
	AcuityDurations map[string]workload.DistSpec `yaml:"acuity_durations,omitempty" json:"acuity_durations,omitempty"`
}

// PatternSpec is an ordered list of treatment labels with a relative selection weight.
type PatternSpec struct {
	Label  string   `yaml:"label" json:"label"`
	Order  []string `yaml:"order" json:"order"`
	Weight float64  `yaml:"weight" json:"weight"`
}

// Config is the facility configuration file.
// Loaded from YAML (or JSON) via LoadConfig(path).
type Config struct {
	Resources      []ResourceSpec    `yaml:"resources" json:"resources"`
	Acuities       []AcuitySpec      `yaml:"acuities" json:"acuities"`
	Treatments     []TreatmentSpec   `yaml:"treatments" json:"treatments"`
	Patterns       []PatternSpec     `yaml:"patterns" json:"patterns"`
	Arrival        workload.DistSpec `yaml:"arrival" json:"arrival"`
	MaxTime        int64             `yaml:"max_time" json:"max_time"`
	WarmUpTime     int64             `yaml:"warm_up_time,omitempty" json:"warm_up_time,omitempty"`       // admissions before this tick earn no reward
	ArrivalHorizon int64             `yaml:"arrival_horizon,omitempty" json:"arrival_horizon,omitempty"` // spawning stops here; 0 means max_time
	Seed           int64             `yaml:"seed" json:"seed"`
	Selection      string            `yaml:"selection,omitempty" json:"selection,omitempty"` // "longest-wait" (default), "fcfs", "longest-current-wait"
	Trace          string            `yaml:"trace,omitempty" json:"trace,omitempty"`         // "none" (default), "decisions", "events"
}

// LoadConfig reads and parses a facility configuration file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes a configuration document strictly.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// Validate checks the configuration and returns the first problem found.
// Every returned error wraps ErrInvalidConfig.
func (c *Config) Validate() error {
	if len(c.Resources) == 0 {
		return invalidf("at least one resource required")
	}
	if len(c.Acuities) == 0 {
		return invalidf("at least one acuity required")
	}
	if len(c.Treatments) == 0 {
		return invalidf("at least one treatment required")
	}
	if len(c.Patterns) == 0 {
		return invalidf("at least one pattern required")
	}

	resources := make(map[string]bool, len(c.Resources))
	for i, r := range c.Resources {
		if r.Label == "" {
			return invalidf("resources[%d]: label required", i)
		}
		if resources[r.Label] {
			return invalidf("resources[%d]: duplicate label %q", i, r.Label)
		}
		resources[r.Label] = true
		if r.Quantity <= 0 {
			return invalidf("resource %q: quantity must be positive, got %d", r.Label, r.Quantity)
		}
	}

	acuities := make(map[string]bool, len(c.Acuities))
	total := 0.0
	for i, a := range c.Acuities {
		if a.Label == "" {
			return invalidf("acuities[%d]: label required", i)
		}
		if acuities[a.Label] {
			return invalidf("acuities[%d]: duplicate label %q", i, a.Label)
		}
		acuities[a.Label] = true
		if err := validateFinite("acuity "+a.Label+".probability", a.Probability); err != nil {
			return err
		}
		if a.Probability < 0 {
			return invalidf("acuity %q: probability must be non-negative, got %g", a.Label, a.Probability)
		}
		if err := validateFinite("acuity "+a.Label+".weight", a.Weight); err != nil {
			return err
		}
		if a.Weight < 0 {
			return invalidf("acuity %q: weight must be non-negative, got %g", a.Label, a.Weight)
		}
		total += a.Probability
	}
	if math.Abs(total-1) > probabilityTolerance {
		return invalidf("acuity probabilities must sum to 1, got %g", total)
	}

	treatments := make(map[string]bool, len(c.Treatments))
	for i, t := range c.Treatments {
		if t.Label == "" {
			return invalidf("treatments[%d]: label required", i)
		}
		if treatments[t.Label] {
			return invalidf("treatments[%d]: duplicate label %q", i, t.Label)
		}
		treatments[t.Label] = true
		if !resources[t.Resource] {
			return invalidf("treatment %q: unknown resource %q", t.Label, t.Resource)
		}
		if _, err := workload.NewDistribution(t.Duration); err != nil {
			return invalidf("treatment %q: duration: %v", t.Label, err)
		}
		for label, spec := range t.AcuityDurations {
			if !acuities[label] {
				return invalidf("treatment %q: acuity_durations names unknown acuity %q", t.Label, label)
			}
			if _, err := workload.NewDistribution(spec); err != nil {
				return invalidf("treatment %q: acuity_durations[%s]: %v", t.Label, label, err)
			}
		}
	}

	patterns := make(map[string]bool, len(c.Patterns))
	for i, p := range c.Patterns {
		if p.Label == "" {
			return invalidf("patterns[%d]: label required", i)
		}
		if patterns[p.Label] {
			return invalidf("patterns[%d]: duplicate label %q", i, p.Label)
		}
		patterns[p.Label] = true
		if len(p.Order) == 0 {
			return invalidf("pattern %q: order must not be empty", p.Label)
		}
		for _, t := range p.Order {
			if !treatments[t] {
				return invalidf("pattern %q: unknown treatment %q", p.Label, t)
			}
		}
		if err := validateFinite("pattern "+p.Label+".weight", p.Weight); err != nil {
			return err
		}
		if p.Weight <= 0 {
			return invalidf("pattern %q: weight must be positive, got %g", p.Label, p.Weight)
		}
	}

	if _, err := workload.NewDistribution(c.Arrival); err != nil {
		return invalidf("arrival: %v", err)
	}
	if c.MaxTime <= 0 {
		return invalidf("max_time must be positive, got %d", c.MaxTime)
	}
	if c.WarmUpTime < 0 || c.WarmUpTime >= c.MaxTime {
		return invalidf("warm_up_time must be in [0, max_time), got %d", c.WarmUpTime)
	}
	if c.ArrivalHorizon < 0 || c.ArrivalHorizon > c.MaxTime {
		return invalidf("arrival_horizon must be in [0, max_time], got %d", c.ArrivalHorizon)
	}
	if !IsValidSelectionRule(c.Selection) {
		return invalidf("unknown selection rule %q; valid: longest-wait, fcfs, longest-current-wait", c.Selection)
	}
	if !trace.IsValidTraceLevel(c.Trace) {
		return invalidf("unknown trace level %q; valid: none, decisions, events", c.Trace)
	}
	c.warnUnused(resources)
	return nil
}

// warnUnused logs resources no treatment runs on. Such a resource never becomes actionable.
func (c *Config) warnUnused(resources map[string]bool) {
	used := make(map[string]bool, len(resources))
	for _, t := range c.Treatments {
		used[t.Resource] = true
	}
	for _, r := range c.Resources {
		if !used[r.Label] {
			logrus.Warnf("resource %q is not used by any treatment", r.Label)
		}
	}
}

func validateFinite(name string, val float64) error {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return invalidf("%s must be a finite number, got %f", name, val)
	}
	return nil
}
