package workload

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRNG() *rand.Rand {
	return rand.New(rand.NewPCG(42, 7))
}

func TestNewDistribution_ResolvesEachVariant(t *testing.T) {
	tests := []struct {
		name string
		spec DistSpec
		want Distribution
	}{
		{"constant", DistSpec{Type: "constant", Params: map[string]float64{"value": 3}}, Constant{Value: 3}},
		{"exponential by rate", DistSpec{Type: "exponential", Params: map[string]float64{"rate": 0.5}}, Exponential{Rate: 0.5}},
		{"exponential by mean", DistSpec{Type: "exponential", Params: map[string]float64{"mean": 4}}, Exponential{Rate: 0.25}},
		{"normal", DistSpec{Type: "normal", Params: map[string]float64{"mean": 15, "std_dev": 8}}, Normal{Mu: 15, Sigma: 8}},
		{"poisson", DistSpec{Type: "poisson", Params: map[string]float64{"lambda": 5}}, Poisson{Lambda: 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewDistribution(tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewDistribution_RejectsInvalidSpecs(t *testing.T) {
	tests := []struct {
		name string
		spec DistSpec
	}{
		{"unknown type", DistSpec{Type: "weibull", Params: map[string]float64{"k": 1}}},
		{"missing constant value", DistSpec{Type: "constant"}},
		{"negative constant", DistSpec{Type: "constant", Params: map[string]float64{"value": -1}}},
		{"zero rate", DistSpec{Type: "exponential", Params: map[string]float64{"rate": 0}}},
		{"missing exponential params", DistSpec{Type: "exponential"}},
		{"negative std_dev", DistSpec{Type: "normal", Params: map[string]float64{"mean": 1, "std_dev": -1}}},
		{"missing std_dev", DistSpec{Type: "normal", Params: map[string]float64{"mean": 1}}},
		{"zero lambda", DistSpec{Type: "poisson", Params: map[string]float64{"lambda": 0}}},
		{"infinite param", DistSpec{Type: "constant", Params: map[string]float64{"value": math.Inf(1)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDistribution(tt.spec)
			assert.Error(t, err)
		})
	}
}

func TestConstant_SampleIsExactAndRounded(t *testing.T) {
	rng := newTestRNG()
	assert.Equal(t, int64(5), Constant{Value: 5}.Sample(rng))
	assert.Equal(t, int64(3), Constant{Value: 2.6}.Sample(rng))
	// zero duration floors at one tick
	assert.Equal(t, int64(1), Constant{Value: 0}.Sample(rng))
}

func TestSamplers_AlwaysAtLeastOneTick(t *testing.T) {
	rng := newTestRNG()
	dists := []Distribution{
		Exponential{Rate: 10},
		Normal{Mu: 0, Sigma: 5},
		Poisson{Lambda: 0.1},
	}
	for _, d := range dists {
		for i := 0; i < 2000; i++ {
			if v := d.Sample(rng); v < 1 {
				t.Fatalf("%s sample %d = %d, want >= 1", d, i, v)
			}
		}
	}
}

func TestExponential_MeanMatchesParam(t *testing.T) {
	rng := newTestRNG()
	d := Exponential{Rate: 1.0 / 50}
	n := 20000
	sum := int64(0)
	for i := 0; i < n; i++ {
		sum += d.Sample(rng)
	}
	mean := float64(sum) / float64(n)
	if math.Abs(mean-50)/50 > 0.05 {
		t.Errorf("exponential mean = %.2f, want ≈ 50 (within 5%%)", mean)
	}
}

func TestNormal_MeanMatchesParam(t *testing.T) {
	rng := newTestRNG()
	d := Normal{Mu: 100, Sigma: 10}
	n := 20000
	sum := int64(0)
	for i := 0; i < n; i++ {
		sum += d.Sample(rng)
	}
	mean := float64(sum) / float64(n)
	if math.Abs(mean-100)/100 > 0.02 {
		t.Errorf("normal mean = %.2f, want ≈ 100 (within 2%%)", mean)
	}
}

func TestDistribution_SameSeedSameSequence(t *testing.T) {
	d := Poisson{Lambda: 12}
	a, b := newTestRNG(), newTestRNG()
	for i := 0; i < 100; i++ {
		require.Equal(t, d.Sample(a), d.Sample(b), "draw %d", i)
	}
}

func TestDistSpec_StringIsStable(t *testing.T) {
	spec := DistSpec{Type: "normal", Params: map[string]float64{"std_dev": 8, "mean": 15}}
	assert.Equal(t, "normal(mean=15,std_dev=8)", spec.String())
}
