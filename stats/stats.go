package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

const (
	Epsilon = 1e-6
)

func FuzzyEqual(a, b float64) bool {
	return math.Abs(a-b) < Epsilon
}

// Statistic is a running mean and variance (Welford's algorithm). It can
// optionally keep every sample so quantiles can be computed afterwards.
type Statistic struct {
	n    int
	mean float64
	m2   float64
	min  float64
	max  float64

	keepSamples bool
	samples     []float64
}

// NewSampledStatistic returns a Statistic that remembers its samples.
func NewSampledStatistic() *Statistic {
	return &Statistic{keepSamples: true}
}

func (s *Statistic) Push(val float64) {
	s.n++
	if s.n == 1 || val < s.min {
		s.min = val
	}
	if s.n == 1 || val > s.max {
		s.max = val
	}
	delta := val - s.mean
	s.mean += delta / float64(s.n)
	s.m2 += delta * (val - s.mean)
	if s.keepSamples {
		s.samples = append(s.samples, val)
	}
}

func (s *Statistic) Mean() float64 {
	return s.mean
}

func (s *Statistic) Variance() float64 {
	if s.n <= 1 {
		return 0.0
	}
	return s.m2 / float64(s.n-1)
}

func (s *Statistic) Stdev() float64 {
	return math.Sqrt(s.Variance())
}

func (s *Statistic) Min() float64 { return s.min }
func (s *Statistic) Max() float64 { return s.max }

// StandardError returns the standard error of the mean.
func (s *Statistic) StandardError() float64 {
	if s.n == 0 {
		return 0.0
	}
	return math.Sqrt(s.Variance() / float64(s.n))
}

func (s *Statistic) Iterations() int {
	return s.n
}

// Samples returns the recorded samples, if any, in insertion order.
func (s *Statistic) Samples() []float64 {
	return s.samples
}

// Quantile returns the p-quantile (0 <= p <= 1) of the recorded samples,
// or NaN if samples were not kept.
func (s *Statistic) Quantile(p float64) float64 {
	if len(s.samples) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(s.samples))
	copy(sorted, s.samples)
	sort.Float64s(sorted)
	return stat.Quantile(p, stat.Empirical, sorted, nil)
}

// Proportion counts successes out of trials, e.g. first-player wins out of
// games played.
type Proportion struct {
	Successes int
	Trials    int
}

func (p *Proportion) Add(success bool) {
	p.Trials++
	if success {
		p.Successes++
	}
}

func (p Proportion) Value() float64 {
	if p.Trials == 0 {
		return 0.0
	}
	return float64(p.Successes) / float64(p.Trials)
}

// WilsonInterval returns the Wilson score interval of the proportion at
// the given confidence (a percentage, e.g. 95).
func (p Proportion) WilsonInterval(confidence float64) (float64, float64) {
	if p.Trials == 0 {
		return 0, 1
	}
	z := ZVal(confidence)
	n := float64(p.Trials)
	phat := p.Value()
	denom := 1 + z*z/n
	center := (phat + z*z/(2*n)) / denom
	half := z * math.Sqrt(phat*(1-phat)/n+z*z/(4*n*n)) / denom
	return center - half, center + half
}
