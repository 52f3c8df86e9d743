package workload

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// DistSpec names a distribution and its numeric parameters as written in a
// facility configuration file.
type DistSpec struct {
	Type   string             `yaml:"type" json:"type"`
	Params map[string]float64 `yaml:"params,omitempty" json:"params,omitempty"`
}

func (d DistSpec) String() string {
	return fmt.Sprintf("%s(%s)", d.Type, formatParams(d.Params))
}

// Distribution is a duration distribution resolved once from a DistSpec.
// The set of variants is closed: Constant, Exponential, Normal and Poisson.
type Distribution interface {
	// Sample returns a duration in ticks. Always >= 1.
	Sample(rng *rand.Rand) int64
	// Mean returns the mean of the underlying (unclamped) distribution.
	Mean() float64
	String() string

	sealed()
}

// Constant always yields Value.
type Constant struct {
	Value float64
}

// Exponential draws from an exponential distribution with the given rate (1/mean).
type Exponential struct {
	Rate float64
}

// Normal draws from a Gaussian. Negative draws clamp to the 1-tick floor.
type Normal struct {
	Mu    float64
	Sigma float64
}

// Poisson draws from a Poisson distribution with mean Lambda.
type Poisson struct {
	Lambda float64
}

func (Constant) sealed()    {}
func (Exponential) sealed() {}
func (Normal) sealed()      {}
func (Poisson) sealed()     {}

func (c Constant) Sample(_ *rand.Rand) int64 {
	return toTicks(c.Value)
}

func (e Exponential) Sample(rng *rand.Rand) int64 {
	return toTicks(distuv.Exponential{Rate: e.Rate, Src: rng}.Rand())
}

func (n Normal) Sample(rng *rand.Rand) int64 {
	if n.Sigma == 0 {
		return toTicks(n.Mu)
	}
	return toTicks(distuv.Normal{Mu: n.Mu, Sigma: n.Sigma, Src: rng}.Rand())
}

func (p Poisson) Sample(rng *rand.Rand) int64 {
	return toTicks(distuv.Poisson{Lambda: p.Lambda, Src: rng}.Rand())
}

func (c Constant) Mean() float64    { return c.Value }
func (e Exponential) Mean() float64 { return 1 / e.Rate }
func (n Normal) Mean() float64      { return n.Mu }
func (p Poisson) Mean() float64     { return p.Lambda }

func (c Constant) String() string    { return fmt.Sprintf("constant(%g)", c.Value) }
func (e Exponential) String() string { return fmt.Sprintf("exponential(rate=%g)", e.Rate) }
func (n Normal) String() string      { return fmt.Sprintf("normal(%g,%g)", n.Mu, n.Sigma) }
func (p Poisson) String() string     { return fmt.Sprintf("poisson(%g)", p.Lambda) }

// toTicks clamps a raw draw to a non-negative value, rounds it, and floors it
// at one tick so that time always advances.
func toTicks(v float64) int64 {
	if math.IsNaN(v) || v < 0 {
		return 1
	}
	if v > math.MaxInt64/2 {
		return math.MaxInt64 / 2
	}
	t := int64(math.Round(v))
	if t < 1 {
		return 1
	}
	return t
}

var validDistTypes = map[string]bool{
	"constant": true, "exponential": true, "normal": true, "poisson": true,
}

// IsValidDistType reports whether name is a recognized distribution type.
func IsValidDistType(name string) bool {
	return validDistTypes[name]
}

// requireParam checks that all required keys exist in a params map.
func requireParam(params map[string]float64, keys ...string) error {
	for _, k := range keys {
		if _, ok := params[k]; !ok {
			return fmt.Errorf("distribution requires parameter %q", k)
		}
	}
	return nil
}

// NewDistribution resolves a DistSpec into a Distribution, validating its parameters.
//
// Accepted forms:
//   - constant:    value
//   - exponential: rate, or mean (rate = 1/mean)
//   - normal:      mean, std_dev
//   - poisson:     lambda
func NewDistribution(spec DistSpec) (Distribution, error) {
	for name, val := range spec.Params {
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil, fmt.Errorf("%s: parameter %s must be a finite number, got %f", spec.Type, name, val)
		}
	}
	switch spec.Type {
	case "constant":
		if err := requireParam(spec.Params, "value"); err != nil {
			return nil, err
		}
		v := spec.Params["value"]
		if v < 0 {
			return nil, fmt.Errorf("constant: value must be non-negative, got %f", v)
		}
		return Constant{Value: v}, nil

	case "exponential":
		if rate, ok := spec.Params["rate"]; ok {
			if rate <= 0 {
				return nil, fmt.Errorf("exponential: rate must be positive, got %f", rate)
			}
			return Exponential{Rate: rate}, nil
		}
		if err := requireParam(spec.Params, "mean"); err != nil {
			return nil, fmt.Errorf("exponential: %w (or \"rate\")", err)
		}
		mean := spec.Params["mean"]
		if mean <= 0 {
			return nil, fmt.Errorf("exponential: mean must be positive, got %f", mean)
		}
		return Exponential{Rate: 1 / mean}, nil

	case "normal":
		if err := requireParam(spec.Params, "mean", "std_dev"); err != nil {
			return nil, err
		}
		sd := spec.Params["std_dev"]
		if sd < 0 {
			return nil, fmt.Errorf("normal: std_dev must be non-negative, got %f", sd)
		}
		return Normal{Mu: spec.Params["mean"], Sigma: sd}, nil

	case "poisson":
		if err := requireParam(spec.Params, "lambda"); err != nil {
			return nil, err
		}
		lambda := spec.Params["lambda"]
		if lambda <= 0 {
			return nil, fmt.Errorf("poisson: lambda must be positive, got %f", lambda)
		}
		return Poisson{Lambda: lambda}, nil

	default:
		return nil, fmt.Errorf("unknown distribution type %q; valid: constant, exponential, normal, poisson", spec.Type)
	}
}

func formatParams(params map[string]float64) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	s := ""
	for i, k := range keys {
		if i > 0 {
			s += ","
		}
		s += fmt.Sprintf("%s=%g", k, params[k])
	}
	return s
}
